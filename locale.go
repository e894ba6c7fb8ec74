// FILE: lixenwraith/appsettings/locale.go
package appsettings

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Locale selects the number and date conventions used to parse raw setting text.
// The zero Locale is the invariant culture.
type Locale struct {
	tag     language.Tag
	culture *culture
	numbers *numberSymbols
}

// culture holds the date conventions of one supported language.
type culture struct {
	// dateLayouts are tried in order before the ISO layouts shared by every culture.
	dateLayouts []string
}

// numberSymbols are the separators and digits a tag formats numbers with.
type numberSymbols struct {
	decimal rune
	group   []rune
	zero    rune   // native digit zero, '0' for ASCII digits
	minus   string // prefix of negative numbers
}

var (
	invariantCulture = &culture{dateLayouts: []string{
		"01/02/2006 15:04:05",
		"01/02/2006 15:04",
		"01/02/2006",
	}}
	invariantNumbers = &numberSymbols{decimal: '.', group: []rune{','}, zero: '0', minus: "-"}

	dayFirstSlash = &culture{dateLayouts: []string{"2/1/2006 15:04:05", "2/1/2006 15:04", "2/1/2006"}}
	dayFirstDot   = &culture{dateLayouts: []string{"2.1.2006 15:04:05", "2.1.2006 15:04", "2.1.2006"}}
	spaceGroups   = []rune{' ', '\u00a0', '\u202f'}
)

// Date conventions per language. The first entry is the matcher's fallback.
var cultureTable = []struct {
	tag     language.Tag
	culture *culture
}{
	{language.Und, invariantCulture},
	{language.English, &culture{dateLayouts: []string{
		"1/2/2006 3:04:05 PM",
		"1/2/2006 3:04 PM",
		"1/2/2006 15:04:05",
		"1/2/2006 15:04",
		"1/2/2006",
	}}},
	{language.BritishEnglish, dayFirstSlash},
	{language.German, dayFirstDot},
	{language.French, dayFirstSlash},
	{language.Spanish, dayFirstSlash},
	{language.Italian, dayFirstSlash},
	{language.Portuguese, dayFirstSlash},
	{language.Dutch, &culture{dateLayouts: []string{"2-1-2006 15:04:05", "2-1-2006 15:04", "2-1-2006"}}},
	{language.Russian, dayFirstDot},
	{language.Polish, dayFirstDot},
	{language.Swedish, &culture{dateLayouts: []string{"2006-01-02 15:04:05", "2006-01-02"}}},
	{language.Japanese, &culture{dateLayouts: []string{"2006/1/2 15:04:05", "2006/1/2 15:04", "2006/1/2"}}},
}

var cultureMatcher = func() language.Matcher {
	tags := make([]language.Tag, len(cultureTable))
	for i, entry := range cultureTable {
		tags[i] = entry.tag
	}
	return language.NewMatcher(tags)
}()

// Invariant is the culture-neutral locale: '.' decimal separator, ',' grouping,
// month-first dates.
var Invariant = Locale{tag: language.Und, culture: invariantCulture, numbers: invariantNumbers}

// ParseLocale parses a BCP 47 tag such as "de", "en-GB" or "fr-CA".
// Number symbols follow the exact tag; date layouts fall back to the closest
// supported language, and ultimately to the invariant ones. An empty string
// is Invariant.
func ParseLocale(s string) (Locale, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "invariant") {
		return Invariant, nil
	}
	tag, err := language.Parse(s)
	if err != nil {
		return Locale{}, fmt.Errorf("invalid locale %q: %w", s, err)
	}
	return LocaleFor(tag), nil
}

// MustParseLocale is like ParseLocale but panics on error.
func MustParseLocale(s string) Locale {
	loc, err := ParseLocale(s)
	if err != nil {
		panic(err)
	}
	return loc
}

// LocaleFor returns the Locale for an already parsed language tag.
func LocaleFor(tag language.Tag) Locale {
	if tag == language.Und {
		return Invariant
	}
	_, index, confidence := cultureMatcher.Match(tag)
	if confidence == language.No {
		index = 0
	}
	return Locale{tag: tag, culture: cultureTable[index].culture, numbers: symbolsFor(tag)}
}

var symbolCache sync.Map // language.Tag -> *numberSymbols

// symbolsFor reads the tag's number symbols back from x/text output, so
// parsing accepts exactly what Value.Format produces.
func symbolsFor(tag language.Tag) *numberSymbols {
	if cached, ok := symbolCache.Load(tag); ok {
		return cached.(*numberSymbols)
	}
	p := message.NewPrinter(tag)
	sym := &numberSymbols{decimal: '.', zero: '0', minus: "-"}

	// 8 integer digits always carry grouping, including minimum-grouping locales
	digits := 0
	for _, r := range p.Sprint(number.Decimal(12345678.5)) {
		switch {
		case unicode.IsDigit(r):
			if digits == 0 {
				sym.zero = r - 1
			}
			digits++
		case unicode.In(r, unicode.Cf):
		case digits == 8:
			sym.decimal = r
			digits++ // later runes are past the separator
		case digits > 0 && digits < 8 && sym.group == nil:
			sym.group = []rune{r}
		}
	}
	// space grouping also accepts plain and no-break spaces typed by hand
	if len(sym.group) == 1 && unicode.IsSpace(sym.group[0]) {
		g := sym.group[0]
		sym.group = slices.Clone(spaceGroups)
		if !slices.Contains(sym.group, g) {
			sym.group = append(sym.group, g)
		}
	}

	negative := p.Sprint(number.Decimal(-5))
	if i := strings.IndexFunc(negative, unicode.IsDigit); i > 0 {
		sym.minus = negative[:i]
	}

	actual, _ := symbolCache.LoadOrStore(tag, sym)
	return actual.(*numberSymbols)
}

// Tag returns the language tag the locale was created from.
func (l Locale) Tag() language.Tag {
	return l.tag
}

// IsInvariant reports whether l uses the culture-neutral conventions.
func (l Locale) IsInvariant() bool {
	return l.tag == language.Und
}

func (l Locale) String() string {
	if l.IsInvariant() {
		return "invariant"
	}
	return l.tag.String()
}

func (l Locale) conventions() *culture {
	if l.culture == nil {
		return invariantCulture
	}
	return l.culture
}

func (l Locale) symbols() *numberSymbols {
	if l.numbers == nil {
		return invariantNumbers
	}
	return l.numbers
}

var (
	currentMu       sync.RWMutex
	currentOverride *Locale
)

// SetCurrentLocale overrides the process-wide default locale.
func SetCurrentLocale(l Locale) {
	currentMu.Lock()
	defer currentMu.Unlock()
	currentOverride = &l
}

// ResetCurrentLocale removes an override installed by SetCurrentLocale.
func ResetCurrentLocale() {
	currentMu.Lock()
	defer currentMu.Unlock()
	currentOverride = nil
}

// CurrentLocale returns the process-wide default locale: the SetCurrentLocale
// override, else the first of LC_ALL, LC_NUMERIC and LANG that is set.
func CurrentLocale() Locale {
	currentMu.RLock()
	override := currentOverride
	currentMu.RUnlock()
	if override != nil {
		return *override
	}

	for _, name := range []string{"LC_ALL", "LC_NUMERIC", "LANG"} {
		if v := os.Getenv(name); v != "" {
			return localeFromPOSIX(v)
		}
	}
	return Invariant
}

// localeFromPOSIX maps names like "de_DE.UTF-8" or "sr_RS@latin" to a Locale.
func localeFromPOSIX(name string) Locale {
	if i := strings.IndexAny(name, ".@"); i >= 0 {
		name = name[:i]
	}
	if name == "" || name == "C" || name == "POSIX" {
		return Invariant
	}
	loc, err := ParseLocale(strings.ReplaceAll(name, "_", "-"))
	if err != nil {
		return Invariant
	}
	return loc
}
