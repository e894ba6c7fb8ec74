// FILE: lixenwraith/appsettings/convert.go
package appsettings

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// isoLayouts are accepted by every locale after its own date layouts.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Convert parses raw as kind using the conventions of loc.
// KindAbsent and KindString return raw unchanged.
// Times without a zone are interpreted as UTC.
func Convert(raw string, kind Kind, loc Locale) (Value, error) {
	switch kind {
	case KindAbsent, KindString:
		return StringValue(raw), nil
	case KindInt:
		i, err := parseInteger(raw, loc.symbols())
		if err != nil {
			return Value{}, conversionError(raw, kind, loc, err)
		}
		return IntValue(i), nil
	case KindFloat:
		f, err := parseDecimal(raw, loc.symbols())
		if err != nil {
			return Value{}, conversionError(raw, kind, loc, err)
		}
		return FloatValue(f), nil
	case KindBool:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return Value{}, conversionError(raw, kind, loc, err)
		}
		return BoolValue(b), nil
	case KindTime:
		t, err := parseTime(raw, loc.conventions())
		if err != nil {
			return Value{}, conversionError(raw, kind, loc, err)
		}
		return TimeValue(t), nil
	case KindDuration:
		d, err := parseDuration(raw)
		if err != nil {
			return Value{}, conversionError(raw, kind, loc, err)
		}
		return DurationValue(d), nil
	}
	return Value{}, fmt.Errorf("%w: cannot convert text to %s", ErrKindNotSupported, kind)
}

// ConvertDefault is Convert using the process-wide CurrentLocale.
func ConvertDefault(raw string, kind Kind) (Value, error) {
	return Convert(raw, kind, CurrentLocale())
}

func conversionError(raw string, kind Kind, loc Locale, err error) *ConversionError {
	return &ConversionError{Raw: raw, Target: kind, Locale: loc, Err: err}
}

// parseInteger accepts an optional sign followed by ASCII or native digits.
func parseInteger(raw string, n *numberSymbols) (int64, error) {
	s, negative := n.trimSign(strings.TrimSpace(raw))
	var b strings.Builder
	b.Grow(len(s) + 1)
	if negative {
		b.WriteByte('-')
	}
	for _, r := range s {
		d, ok := n.digit(r)
		if !ok {
			return 0, fmt.Errorf("unexpected character %q", r)
		}
		b.WriteByte(d)
	}
	return strconv.ParseInt(b.String(), 10, 64)
}

// parseDecimal accepts an optional sign, digits with the locale's group
// separators in the integer part, and at most one decimal separator.
func parseDecimal(raw string, n *numberSymbols) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("empty number")
	}
	s, negative := n.trimSign(s)

	var b strings.Builder
	b.Grow(len(s) + 1)
	if negative {
		b.WriteByte('-')
	}
	seenDecimal := false
	digits := 0
	for _, r := range s {
		if d, ok := n.digit(r); ok {
			b.WriteByte(d)
			digits++
			continue
		}
		switch {
		case r == n.decimal && !seenDecimal:
			b.WriteByte('.')
			seenDecimal = true
		case !seenDecimal && digits > 0 && slices.Contains(n.group, r):
			// grouping is dropped
		default:
			return 0, fmt.Errorf("unexpected character %q", r)
		}
	}
	if digits == 0 {
		return 0, fmt.Errorf("no digits")
	}
	return strconv.ParseFloat(b.String(), 64)
}

// trimSign strips a leading locale minus sign, '-', U+2212 or '+'.
func (n *numberSymbols) trimSign(s string) (string, bool) {
	if n.minus != "" {
		if rest, ok := strings.CutPrefix(s, n.minus); ok {
			return rest, true
		}
	}
	switch {
	case strings.HasPrefix(s, "-"):
		return s[1:], true
	case strings.HasPrefix(s, "\u2212"):
		return s[len("\u2212"):], true
	case strings.HasPrefix(s, "+"):
		return s[1:], false
	}
	return s, false
}

// digit maps ASCII and the locale's native digits to an ASCII digit.
func (n *numberSymbols) digit(r rune) (byte, bool) {
	switch {
	case r >= '0' && r <= '9':
		return byte(r), true
	case n.zero != '0' && r >= n.zero && r <= n.zero+9:
		return byte('0' + r - n.zero), true
	}
	return 0, false
}

func parseTime(raw string, c *culture) (time.Time, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range c.dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("no matching date layout")
}

// parseDuration accepts Go duration syntax ("1m30s") and clock syntax ("01:30:00").
func parseDuration(raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}

	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	var total time.Duration
	units := []time.Duration{time.Hour, time.Minute, time.Second}
	for i, part := range parts {
		if part == "" || strings.IndexFunc(part, func(r rune) bool { return !unicode.IsDigit(r) }) >= 0 {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return 0, err
		}
		total += time.Duration(n) * units[i]
	}
	return total, nil
}
