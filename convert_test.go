// FILE: lixenwraith/appsettings/convert_test.go
package appsettings

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConvert tests text conversion per kind and locale
func TestConvert(t *testing.T) {
	de := MustParseLocale("de")
	fr := MustParseLocale("fr-FR")
	us := MustParseLocale("en-US")
	gb := MustParseLocale("en-GB")
	mx := MustParseLocale("es-MX")
	ch := MustParseLocale("de-CH")
	br := MustParseLocale("pt-BR")
	ar := MustParseLocale("ar")

	tests := []struct {
		name string
		raw  string
		kind Kind
		loc  Locale
		want Value
	}{
		{"Untyped", " keep spaces ", KindAbsent, Invariant, StringValue(" keep spaces ")},
		{"String", "abc", KindString, de, StringValue("abc")},
		{"Int", "12", KindInt, Invariant, IntValue(12)},
		{"IntTrimmed", " -7 ", KindInt, de, IntValue(-7)},
		{"DecimalInvariant", "123.45", KindFloat, Invariant, FloatValue(123.45)},
		{"DecimalGrouped", "1,234.5", KindFloat, Invariant, FloatValue(1234.5)},
		{"DecimalGerman", "1,05", KindFloat, de, FloatValue(1.05)},
		{"DecimalGermanGrouped", "1.234,5", KindFloat, de, FloatValue(1234.5)},
		{"DecimalFrenchSpace", "1 234,5", KindFloat, fr, FloatValue(1234.5)},
		{"DecimalSigned", "-0.5", KindFloat, Invariant, FloatValue(-0.5)},
		{"DecimalMexico", "1.05", KindFloat, mx, FloatValue(1.05)},
		{"DecimalMexicoGrouped", "1,234.5", KindFloat, mx, FloatValue(1234.5)},
		{"DecimalSwissGerman", "1’234.5", KindFloat, ch, FloatValue(1234.5)},
		{"DecimalBrazil", "1.234,5", KindFloat, br, FloatValue(1234.5)},
		{"DecimalArabicDigits", "١٬٢٣٤٫٥", KindFloat, ar, FloatValue(1234.5)},
		{"IntArabicDigits", "٤٢", KindInt, ar, IntValue(42)},
		{"IntASCIIUnderArabic", "42", KindInt, ar, IntValue(42)},
		{"IntMinusSign", "−7", KindInt, Invariant, IntValue(-7)},
		{"BoolTrue", "true", KindBool, Invariant, BoolValue(true)},
		{"BoolNumeric", "0", KindBool, de, BoolValue(false)},
		{"DateGerman", "22.01.2002", KindTime, de, TimeValue(time.Date(2002, 1, 22, 0, 0, 0, 0, time.UTC))},
		{"DateUS", "1/22/2002", KindTime, us, TimeValue(time.Date(2002, 1, 22, 0, 0, 0, 0, time.UTC))},
		{"DateBritish", "22/01/2002", KindTime, gb, TimeValue(time.Date(2002, 1, 22, 0, 0, 0, 0, time.UTC))},
		{"DateInvariant", "01/22/2002", KindTime, Invariant, TimeValue(time.Date(2002, 1, 22, 0, 0, 0, 0, time.UTC))},
		{"DateISOAnyLocale", "2002-01-22", KindTime, de, TimeValue(time.Date(2002, 1, 22, 0, 0, 0, 0, time.UTC))},
		{"DurationGo", "1m30s", KindDuration, Invariant, DurationValue(90 * time.Second)},
		{"DurationClock", "01:30:00", KindDuration, de, DurationValue(90 * time.Minute)},
		{"DurationShortClock", "02:15", KindDuration, Invariant, DurationValue(2*time.Hour + 15*time.Minute)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Convert(tt.raw, tt.kind, tt.loc)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %v (%s), got %v (%s)", tt.want, tt.want.Kind(), got, got.Kind())
		})
	}
}

func TestConvertFailures(t *testing.T) {
	de := MustParseLocale("de")

	tests := []struct {
		name string
		raw  string
		kind Kind
		loc  Locale
	}{
		{"IntText", "abc", KindInt, Invariant},
		{"IntDecimal", "1.5", KindInt, Invariant},
		{"IntOverflow", "99999999999999999999", KindInt, Invariant},
		{"FloatEmpty", "   ", KindFloat, Invariant},
		{"FloatTwoDecimals", "1.2.3", KindFloat, Invariant},
		{"FloatOnlySign", "-", KindFloat, de},
		{"FloatLetters", "12abc", KindFloat, de},
		{"BoolText", "maybe", KindBool, Invariant},
		{"GermanDateInvariant", "22.01.2002", KindTime, Invariant},
		{"DateGarbage", "yesterday", KindTime, de},
		{"DurationGarbage", "soon", KindDuration, Invariant},
		{"DurationTooManyParts", "1:2:3:4", KindDuration, Invariant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Convert(tt.raw, tt.kind, tt.loc)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConversion))

			var convErr *ConversionError
			require.ErrorAs(t, err, &convErr)
			assert.Equal(t, tt.raw, convErr.Raw)
			assert.Equal(t, tt.kind, convErr.Target)
			assert.Equal(t, tt.loc, convErr.Locale)
			assert.Contains(t, err.Error(), tt.kind.String())
		})
	}

	t.Run("UnsupportedKind", func(t *testing.T) {
		_, err := Convert("x", KindOther, Invariant)
		assert.True(t, errors.Is(err, ErrKindNotSupported))
		assert.False(t, errors.Is(err, ErrConversion))
	})
}

// TestConvertDefaultUsesCurrentLocale checks the process-wide locale override
func TestConvertDefaultUsesCurrentLocale(t *testing.T) {
	SetCurrentLocale(MustParseLocale("de"))
	defer ResetCurrentLocale()

	v, err := ConvertDefault("2,5", KindFloat)
	require.NoError(t, err)
	assert.Equal(t, FloatValue(2.5), v)
}

// TestFormatRoundTrip checks that formatting a converted value under a
// locale and converting it back yields the same value
func TestFormatRoundTrip(t *testing.T) {
	locales := []Locale{
		Invariant,
		MustParseLocale("de"),
		MustParseLocale("fr"),
		MustParseLocale("en-US"),
		MustParseLocale("en-GB"),
		MustParseLocale("es-MX"),
		MustParseLocale("de-CH"),
		MustParseLocale("pt-BR"),
		MustParseLocale("sv"),
		MustParseLocale("ar"),
	}
	inputs := []struct {
		raw  string
		kind Kind
	}{
		{"12", KindInt},
		{"-4096", KindInt},
		{"123.45", KindFloat},
		{"1234567.125", KindFloat},
		{"0.001", KindFloat},
		{"-2.5", KindFloat},
		{"2002-01-22", KindTime},
		{"true", KindBool},
		{"1h30m0s", KindDuration},
	}

	for _, loc := range locales {
		for _, in := range inputs {
			t.Run(loc.String()+"/"+in.raw, func(t *testing.T) {
				v, err := Convert(in.raw, in.kind, Invariant)
				require.NoError(t, err)

				text := v.Format(loc)
				back, err := Convert(text, in.kind, loc)
				require.NoError(t, err, "formatted text %q", text)
				assert.True(t, v.Equal(back), "%v formatted as %q parsed back as %v", v, text, back)
			})
		}
	}

	t.Run("GermanDecimalText", func(t *testing.T) {
		assert.Equal(t, "1,05", FloatValue(1.05).Format(MustParseLocale("de")))
		assert.Equal(t, "1.05", FloatValue(1.05).Format(MustParseLocale("es-MX")))
		assert.Equal(t, "22.1.2002 00:00:00", TimeValue(time.Date(2002, 1, 22, 0, 0, 0, 0, time.UTC)).Format(MustParseLocale("de")))
	})
}
