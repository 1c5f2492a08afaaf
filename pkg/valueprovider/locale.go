package valueprovider

import (
	"sync"

	"golang.org/x/text/language"

	"github.com/dmitrymomot/uikit/pkg/expression"
)

// $Locale keys.
const (
	KeyLanguage   = "language"
	KeyCountry    = "country"
	KeyLangLocale = "langLocale"
	KeyDirection  = "dir"
)

var localeKeys = []string{KeyLanguage, KeyCountry, KeyLangLocale, KeyDirection}

var rtlScripts = map[string]struct{}{
	"Arab": {}, "Hebr": {}, "Thaa": {}, "Syrc": {}, "Nkoo": {}, "Adlm": {}, "Rohg": {},
}

// LocaleOption configures a Locale provider.
type LocaleOption func(*Locale)

// WithDefaultLocale sets the tag used when the request carries no usable
// Accept-Language header.
func WithDefaultLocale(tag language.Tag) LocaleOption {
	return func(l *Locale) { l.fallback = tag }
}

// WithSupportedLocales restricts the negotiated locale to tags.
func WithSupportedLocales(tags ...language.Tag) LocaleOption {
	return func(l *Locale) {
		if len(tags) > 0 {
			l.supported = append([]language.Tag(nil), tags...)
			l.matcher = language.NewMatcher(l.supported)
		}
	}
}

// Locale is the $Locale provider derived from Accept-Language.
type Locale struct {
	req       *RequestInfo
	fallback  language.Tag
	supported []language.Tag
	matcher   language.Matcher
	data      func() Values
}

var _ GlobalValueProvider = (*Locale)(nil)

// NewLocale creates a provider for one request. A nil req yields empty data.
func NewLocale(req *RequestInfo, opts ...LocaleOption) *Locale {
	l := &Locale{req: req, fallback: language.AmericanEnglish}
	for _, opt := range opts {
		opt(l)
	}
	l.data = sync.OnceValue(l.compute)
	return l
}

func (l *Locale) negotiate() language.Tag {
	tags, _, err := language.ParseAcceptLanguage(l.req.AcceptLanguage)
	if err != nil || len(tags) == 0 {
		return l.fallback
	}
	if l.matcher != nil {
		_, idx, conf := l.matcher.Match(tags...)
		if conf == language.No {
			return l.fallback
		}
		return l.supported[idx]
	}
	return tags[0]
}

func (l *Locale) compute() Values {
	if l.req == nil {
		return Values{}
	}
	tag := l.negotiate()
	base, _ := tag.Base()
	region, _ := tag.Region()
	script, _ := tag.Script()

	dir := "ltr"
	if _, ok := rtlScripts[script.String()]; ok {
		dir = "rtl"
	}
	return Values{m: map[string]any{
		KeyLanguage:   base.String(),
		KeyCountry:    region.String(),
		KeyLangLocale: base.String() + "_" + region.String(),
		KeyDirection:  dir,
	}}
}

func (l *Locale) Type() Type { return TypeLocale }

func (l *Locale) Data() Values { return l.data() }

func (l *Locale) Value(ref expression.PropertyReference) (any, bool) {
	if ref.Size() != 1 {
		return nil, false
	}
	return l.data().Get(ref.Root())
}

func (l *Locale) Validate(ref expression.PropertyReference) error {
	if ref.Size() == 1 {
		for _, k := range localeKeys {
			if k == ref.Root() {
				return nil
			}
		}
	}
	return expression.NewInvalidExpressionError(ref, "no property on %s for key: %s", TypeLocale, ref)
}

func (l *Locale) IsEmpty() bool { return false }
