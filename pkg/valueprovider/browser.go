package valueprovider

import (
	"sync"

	"github.com/dmitrymomot/uikit/pkg/browserinfo"
	"github.com/dmitrymomot/uikit/pkg/expression"
)

// BrowserKey is one of the capability flags exposed by $Browser.
type BrowserKey string

const (
	KeyIsTablet   BrowserKey = "isTablet"
	KeyIsPhone    BrowserKey = "isPhone"
	KeyIsAndroid  BrowserKey = "isAndroid"
	KeyFormFactor BrowserKey = "formFactor"
	KeyIsIPhone   BrowserKey = "isIPhone"
	KeyIsIPad     BrowserKey = "isIPad"
	KeyIsIOS      BrowserKey = "isIOS"
)

// legacyContainerKey validates without producing a value. Markup written for
// older runtimes still references it.
const legacyContainerKey = "isContainer"

var browserKeys = []BrowserKey{
	KeyIsTablet, KeyIsPhone, KeyIsAndroid, KeyFormFactor, KeyIsIPhone, KeyIsIPad, KeyIsIOS,
}

// BrowserKeys lists every key $Browser exposes.
func BrowserKeys() []BrowserKey {
	return append([]BrowserKey(nil), browserKeys...)
}

// ParseBrowserKey reports whether s names a $Browser key.
func ParseBrowserKey(s string) (BrowserKey, bool) {
	for _, k := range browserKeys {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

func (k BrowserKey) value(info browserinfo.Info) any {
	switch k {
	case KeyIsTablet:
		return info.IsTablet
	case KeyIsPhone:
		return info.IsPhone
	case KeyIsAndroid:
		return info.IsAndroid
	case KeyFormFactor:
		return string(info.FormFactor)
	case KeyIsIPhone:
		return info.IsIPhone
	case KeyIsIPad:
		return info.IsIPad
	case KeyIsIOS:
		return info.IsIOS
	default:
		return nil
	}
}

// Classifier turns a User-Agent header into capability flags.
type Classifier func(userAgent string) browserinfo.Info

// BrowserOption configures a Browser provider.
type BrowserOption func(*Browser)

// WithClassifier replaces browserinfo.Parse.
func WithClassifier(c Classifier) BrowserOption {
	return func(b *Browser) {
		if c != nil {
			b.classify = c
		}
	}
}

// Browser is the $Browser provider. Its data is computed on first access and
// reused for the provider's lifetime.
type Browser struct {
	req      *RequestInfo
	classify Classifier
	data     func() Values
}

var _ GlobalValueProvider = (*Browser)(nil)

// NewBrowser creates a provider for one request. A nil req yields empty data.
func NewBrowser(req *RequestInfo, opts ...BrowserOption) *Browser {
	b := &Browser{req: req, classify: browserinfo.Parse}
	for _, opt := range opts {
		opt(b)
	}
	b.data = sync.OnceValue(b.compute)
	return b
}

func (b *Browser) compute() Values {
	if b.req == nil {
		return Values{}
	}
	info := b.classify(b.req.UserAgent)
	m := make(map[string]any, len(browserKeys))
	for _, k := range browserKeys {
		m[string(k)] = k.value(info)
	}
	return Values{m: m}
}

func (b *Browser) Type() Type { return TypeBrowser }

func (b *Browser) Data() Values { return b.data() }

func (b *Browser) Value(ref expression.PropertyReference) (any, bool) {
	if ref.Size() != 1 {
		return nil, false
	}
	return b.data().Get(ref.Root())
}

// Validate accepts single-segment references naming a known key, plus the
// legacy isContainer key. It does not depend on request data.
func (b *Browser) Validate(ref expression.PropertyReference) error {
	root := ref.Root()
	if ref.Size() == 1 {
		if _, ok := ParseBrowserKey(root); ok {
			return nil
		}
	}
	if root == legacyContainerKey {
		return nil
	}
	return expression.NewInvalidExpressionError(ref, "no property on %s for key: %s", TypeBrowser, ref)
}

// IsEmpty is always false: $Browser is considered populated even without a request.
func (b *Browser) IsEmpty() bool { return false }
