// Package server executes action messages: it resolves descriptors, runs
// foreground actions in order and background actions concurrently, runs
// chained actions after their parent and reports every result.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/uikit/pkg/action"
	"github.com/dmitrymomot/uikit/pkg/async"
	"github.com/dmitrymomot/uikit/pkg/logger"
	"github.com/dmitrymomot/uikit/pkg/metrics"
)

// DefaultMaxChainDepth limits how deep actions may chain other actions.
const DefaultMaxChainDepth = 8

// Resolver finds action definitions by qualified descriptor.
// *definition.Registry implements it.
type Resolver interface {
	ActionDef(qualified string) (*action.Def, error)
}

// Service runs action messages against a Resolver.
type Service struct {
	resolver      Resolver
	logger        *slog.Logger
	metrics       *metrics.Metrics
	maxChainDepth int
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records executions. Nil disables metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithMaxChainDepth(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxChainDepth = n
		}
	}
}

func New(resolver Resolver, opts ...Option) *Service {
	s := &Service{
		resolver:      resolver,
		logger:        logger.Discard(),
		maxChainDepth: DefaultMaxChainDepth,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Instance resolves qualified and creates a NEW action with a generated id.
// It makes Service an action.Enqueuer.
func (s *Service) Instance(_ context.Context, qualified string, params map[string]any) (*action.Action, error) {
	def, err := s.resolver.ActionDef(qualified)
	if err != nil {
		return nil, err
	}
	return def.Instance(params, action.WithID(uuid.NewString())), nil
}

// Decode resolves every request of msg. The first unknown descriptor fails
// the whole message. Requests without an id are numbered from 1.
func (s *Service) Decode(msg Message) ([]*action.Action, error) {
	out := make([]*action.Action, 0, len(msg.Actions))
	for i, req := range msg.Actions {
		def, err := s.resolver.ActionDef(req.Descriptor)
		if err != nil {
			return nil, err
		}
		id := req.ID
		if id == "" {
			id = strconv.Itoa(i + 1)
		}
		opts := []action.InstanceOption{action.WithID(id)}
		if req.Storable {
			opts = append(opts, action.Storable())
		}
		out = append(out, def.Instance(req.Params, opts...))
	}
	return out, nil
}

// Execute runs actions and collects their results. Background actions start
// first and run concurrently with each other and with the foreground actions,
// which run one after another in order.
func (s *Service) Execute(ctx context.Context, actions []*action.Action) Response {
	ctx = action.WithEnqueuer(ctx, s)
	log := &actionLog{}

	groups := make([][]*action.Action, len(actions))
	var (
		futures []*async.Future[[]*action.Action]
		slots   []int
	)
	for i, a := range actions {
		if a.Def().IsBackground() {
			futures = append(futures, async.Async(ctx, a, func(ctx context.Context, a *action.Action) ([]*action.Action, error) {
				return s.execute(ctx, log, a, 0), nil
			}))
			slots = append(slots, i)
		}
	}
	for i, a := range actions {
		if !a.Def().IsBackground() {
			groups[i] = s.execute(ctx, log, a, 0)
		}
	}
	done, err := async.WaitAll(futures...)
	if err != nil {
		s.logger.ErrorContext(ctx, "background actions failed", logger.Error(err))
	}
	for j, i := range slots {
		groups[i] = done[j]
		if groups[i] == nil {
			groups[i] = []*action.Action{actions[i]}
		}
	}

	resp := Response{Actions: make([]Result, 0, len(actions))}
	for _, group := range groups {
		for _, a := range group {
			resp.Actions = append(resp.Actions, newResult(a))
		}
	}
	return resp
}

// Run executes actions and writes the JSON response to w.
func (s *Service) Run(ctx context.Context, actions []*action.Action, w io.Writer) error {
	resp := s.Execute(ctx, actions)
	s.metrics.Message("ok")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		return fmt.Errorf("server: write response: %w", err)
	}
	return nil
}

// execute runs a and then, depth first, every action it chained. It returns a
// followed by the chained actions in execution order.
func (s *Service) execute(ctx context.Context, log *actionLog, a *action.Action, depth int) []*action.Action {
	s.metrics.ActionStarted()
	start := time.Now()
	a.Run(ctx)
	elapsed := time.Since(start)
	s.metrics.ActionFinished(a.Descriptor().QualifiedName(), string(a.State()), elapsed)
	log.record(ctx, s.logger, a, elapsed)

	out := []*action.Action{a}
	chained := a.Chained()
	if len(chained) == 0 {
		return out
	}
	if depth+1 > s.maxChainDepth {
		s.logger.WarnContext(ctx, "chained actions dropped",
			logger.Descriptor(a.Descriptor().QualifiedName()),
			logger.Error(ErrChainTooDeep),
			slog.Int("dropped", len(chained)),
		)
		return out
	}
	for _, c := range chained {
		out = append(out, s.execute(ctx, log, c, depth+1)...)
	}
	return out
}

// actionLog numbers the actions executed for one request. Concurrent
// background actions each get a distinct ordinal.
type actionLog struct {
	mu sync.Mutex
	n  int
}

func (l *actionLog) next() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.n++
	return l.n
}

// Entry formats the log entry of an action: action_<n>$<descriptor>{k,v}...
func Entry(n int, a *action.Action) string {
	var b strings.Builder
	b.WriteString("action_")
	b.WriteString(strconv.Itoa(n))
	b.WriteByte('$')
	b.WriteString(a.Descriptor().QualifiedName())
	a.LogParams(action.KeyValueFunc(func(k, v string) {
		b.WriteByte('{')
		b.WriteString(k)
		b.WriteByte(',')
		b.WriteString(v)
		b.WriteByte('}')
	}))
	return b.String()
}

func (l *actionLog) record(ctx context.Context, log *slog.Logger, a *action.Action, d time.Duration) {
	n := l.next()
	level := slog.LevelInfo
	if a.State() == action.StateError {
		level = slog.LevelWarn
	}
	log.LogAttrs(ctx, level, "action executed",
		logger.Action(Entry(n, a)),
		logger.Ordinal(n),
		logger.State(string(a.State())),
		logger.Duration(d),
		logger.Errors(a.Errors()...),
	)
}
