// FILE: lixenwraith/appsettings/type.go
package appsettings

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// LookupTyped implements TypedStore. Values decoded natively from a settings
// file (TOML integers, YAML booleans, ...) are converted with cast. Text from
// the environment or the command line is only handled for KindBool; other
// kinds report ErrKindNotSupported so the locale-aware converter parses them.
func (s *LayeredStore) LookupTyped(key string, kind Kind) (Value, bool, error) {
	raw, ok := s.Raw(key)
	if !ok {
		return Value{}, false, nil
	}

	if text, isText := raw.(string); isText {
		if kind != KindBool {
			return Value{}, false, ErrKindNotSupported
		}
		b, err := strconv.ParseBool(strings.TrimSpace(text))
		if err != nil {
			return Value{}, false, &ConversionError{Raw: text, Target: kind, Locale: Invariant, Err: err}
		}
		return BoolValue(b), true, nil
	}

	v, err := castTo(raw, kind)
	if err != nil {
		text, _ := stringify(raw)
		return Value{}, false, &ConversionError{Raw: text, Target: kind, Locale: Invariant, Err: err}
	}
	return v, true, nil
}

func castTo(raw any, kind Kind) (Value, error) {
	switch kind {
	case KindInt:
		if f, isFloat := raw.(float64); isFloat && f != float64(int64(f)) {
			return Value{}, fmt.Errorf("%v is not an integer", f)
		}
		i, err := cast.ToInt64E(raw)
		return IntValue(i), err
	case KindFloat:
		f, err := cast.ToFloat64E(raw)
		return FloatValue(f), err
	case KindBool:
		b, err := cast.ToBoolE(raw)
		return BoolValue(b), err
	case KindTime:
		t, err := cast.ToTimeE(raw)
		return TimeValue(t), err
	case KindDuration:
		d, err := cast.ToDurationE(raw)
		return DurationValue(d), err
	}
	return Value{}, fmt.Errorf("%w: %s", ErrKindNotSupported, kind)
}
