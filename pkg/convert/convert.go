// Package convert coerces loosely typed values, as decoded from JSON action
// requests, into the Go types declared by action parameters.
package convert

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

var (
	// ErrNoConverter means there is no conversion path from the source type.
	ErrNoConverter = errors.New("convert: no converter")
	// ErrInvalidValue means a conversion path exists but the value does not fit.
	ErrInvalidValue = errors.New("convert: invalid value")
)

type pair struct {
	from reflect.Type
	to   reflect.Type
}

// Registry holds custom converters on top of the built-in rules.
type Registry struct {
	mu         sync.RWMutex
	converters map[pair]func(any) (any, error)
}

func NewRegistry() *Registry {
	return &Registry{converters: make(map[pair]func(any) (any, error))}
}

// Default is the registry used by actions that do not configure their own.
var Default = NewRegistry()

// Register adds a converter from From to To. A later registration for the
// same pair replaces the earlier one.
func Register[From, To any](r *Registry, fn func(From) (To, error)) {
	key := pair{from: reflect.TypeFor[From](), to: reflect.TypeFor[To]()}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.converters[key] = func(v any) (any, error) { return fn(v.(From)) }
}

func (r *Registry) lookup(from, to reflect.Type) (func(any) (any, error), bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.converters[pair{from: from, to: to}]
	return fn, ok
}

// To converts v to T using r.
func To[T any](r *Registry, v any) (T, error) {
	var zero T
	out, err := r.Convert(v, reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}
	return out.Interface().(T), nil
}

// Convert returns v as a value of type to. Nil converts to the zero value.
func (r *Registry) Convert(v any, to reflect.Type) (reflect.Value, error) {
	out := reflect.New(to).Elem()
	if v == nil {
		return out, nil
	}
	if err := r.set(out, reflect.ValueOf(v)); err != nil {
		return reflect.Value{}, err
	}
	return out, nil
}

func (r *Registry) set(dst reflect.Value, src reflect.Value) error {
	t := dst.Type()
	if src.Kind() == reflect.Interface || src.Kind() == reflect.Pointer {
		if src.IsNil() {
			dst.SetZero()
			return nil
		}
		if src.Kind() == reflect.Interface {
			return r.set(dst, src.Elem())
		}
	}
	if fn, ok := r.lookup(src.Type(), t); ok {
		out, err := fn(src.Interface())
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidValue, err)
		}
		if out == nil {
			dst.SetZero()
		} else {
			dst.Set(reflect.ValueOf(out))
		}
		return nil
	}
	if src.Type().AssignableTo(t) {
		dst.Set(src)
		return nil
	}

	switch t.Kind() {
	case reflect.Pointer:
		elem := reflect.New(t.Elem())
		if err := r.set(elem.Elem(), src); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	case reflect.String:
		return setString(dst, src)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return setInt(dst, src)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return setUint(dst, src)
	case reflect.Float32, reflect.Float64:
		return setFloat(dst, src)
	case reflect.Bool:
		return setBool(dst, src)
	case reflect.Slice:
		return r.setSlice(dst, src)
	case reflect.Map:
		return r.setMap(dst, src)
	case reflect.Struct:
		return setStruct(dst, src)
	case reflect.Interface:
		if src.Type().Implements(t) {
			dst.Set(src)
			return nil
		}
	}
	return noConverter(src.Type(), t)
}

func noConverter(from, to reflect.Type) error {
	return fmt.Errorf("%w from %s to %s", ErrNoConverter, from, to)
}

func invalid(src reflect.Value, to reflect.Type) error {
	return fmt.Errorf("%w %v for %s", ErrInvalidValue, src.Interface(), to)
}

func setString(dst, src reflect.Value) error {
	switch src.Kind() {
	case reflect.String:
		dst.SetString(src.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		dst.SetString(strconv.FormatInt(src.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		dst.SetString(strconv.FormatUint(src.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		dst.SetString(strconv.FormatFloat(src.Float(), 'f', -1, 64))
	case reflect.Bool:
		dst.SetString(strconv.FormatBool(src.Bool()))
	default:
		return noConverter(src.Type(), dst.Type())
	}
	return nil
}

func setInt(dst, src reflect.Value) error {
	var n int64
	switch src.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n = src.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := src.Uint()
		if u > math.MaxInt64 {
			return invalid(src, dst.Type())
		}
		n = int64(u)
	case reflect.Float32, reflect.Float64:
		f := src.Float()
		if f != math.Trunc(f) || f < math.MinInt64 || f > math.MaxInt64 {
			return invalid(src, dst.Type())
		}
		n = int64(f)
	case reflect.String:
		parsed, err := strconv.ParseInt(strings.TrimSpace(src.String()), 10, 64)
		if err != nil {
			return invalid(src, dst.Type())
		}
		n = parsed
	default:
		return noConverter(src.Type(), dst.Type())
	}
	if dst.OverflowInt(n) {
		return invalid(src, dst.Type())
	}
	dst.SetInt(n)
	return nil
}

func setUint(dst, src reflect.Value) error {
	var n uint64
	switch src.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if src.Int() < 0 {
			return invalid(src, dst.Type())
		}
		n = uint64(src.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n = src.Uint()
	case reflect.Float32, reflect.Float64:
		f := src.Float()
		if f != math.Trunc(f) || f < 0 || f > math.MaxUint64 {
			return invalid(src, dst.Type())
		}
		n = uint64(f)
	case reflect.String:
		parsed, err := strconv.ParseUint(strings.TrimSpace(src.String()), 10, 64)
		if err != nil {
			return invalid(src, dst.Type())
		}
		n = parsed
	default:
		return noConverter(src.Type(), dst.Type())
	}
	if dst.OverflowUint(n) {
		return invalid(src, dst.Type())
	}
	dst.SetUint(n)
	return nil
}

func setFloat(dst, src reflect.Value) error {
	var f float64
	switch src.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f = float64(src.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		f = float64(src.Uint())
	case reflect.Float32, reflect.Float64:
		f = src.Float()
	case reflect.String:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(src.String()), 64)
		if err != nil {
			return invalid(src, dst.Type())
		}
		f = parsed
	default:
		return noConverter(src.Type(), dst.Type())
	}
	if dst.OverflowFloat(f) {
		return invalid(src, dst.Type())
	}
	dst.SetFloat(f)
	return nil
}

func setBool(dst, src reflect.Value) error {
	switch src.Kind() {
	case reflect.Bool:
		dst.SetBool(src.Bool())
	case reflect.String:
		b, err := strconv.ParseBool(strings.TrimSpace(src.String()))
		if err != nil {
			return invalid(src, dst.Type())
		}
		dst.SetBool(b)
	default:
		return noConverter(src.Type(), dst.Type())
	}
	return nil
}

func (r *Registry) setSlice(dst, src reflect.Value) error {
	if src.Kind() != reflect.Slice && src.Kind() != reflect.Array {
		return noConverter(src.Type(), dst.Type())
	}
	out := reflect.MakeSlice(dst.Type(), src.Len(), src.Len())
	for i := range src.Len() {
		if err := r.set(out.Index(i), src.Index(i)); err != nil {
			return fmt.Errorf("index %d: %w", i, err)
		}
	}
	dst.Set(out)
	return nil
}

func (r *Registry) setMap(dst, src reflect.Value) error {
	if src.Kind() != reflect.Map || dst.Type().Key().Kind() != reflect.String || src.Type().Key().Kind() != reflect.String {
		return noConverter(src.Type(), dst.Type())
	}
	out := reflect.MakeMapWithSize(dst.Type(), src.Len())
	elem := dst.Type().Elem()
	iter := src.MapRange()
	for iter.Next() {
		v := reflect.New(elem).Elem()
		if err := r.set(v, iter.Value()); err != nil {
			return fmt.Errorf("key %s: %w", iter.Key().String(), err)
		}
		out.SetMapIndex(reflect.ValueOf(iter.Key().String()).Convert(dst.Type().Key()), v)
	}
	dst.Set(out)
	return nil
}

// Structs are filled from map[string]any through their JSON tags.
func setStruct(dst, src reflect.Value) error {
	if src.Kind() != reflect.Map || src.Type().Key().Kind() != reflect.String {
		return noConverter(src.Type(), dst.Type())
	}
	raw, err := json.Marshal(src.Interface())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}
	ptr := reflect.New(dst.Type())
	if err := json.Unmarshal(raw, ptr.Interface()); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}
	dst.Set(ptr.Elem())
	return nil
}
