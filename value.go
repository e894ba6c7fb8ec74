// FILE: lixenwraith/appsettings/value.go
package appsettings

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Kind identifies the variant held by a Value and doubles as the target
// type of a conversion. KindAbsent as a target means "untyped": the raw
// string is returned unchanged.
type Kind int

const (
	KindAbsent Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindTime
	KindDuration
	// KindOther holds caller-supplied defaults of any other Go type.
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	case KindDuration:
		return "duration"
	case KindOther:
		return "other"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// ParseKind maps a kind name ("int", "float", "decimal", "bool", ...) to a Kind.
func ParseKind(name string) (Kind, bool) {
	switch name {
	case "", "raw", "untyped":
		return KindAbsent, true
	case "string":
		return KindString, true
	case "int", "integer":
		return KindInt, true
	case "float", "decimal", "double":
		return KindFloat, true
	case "bool", "boolean":
		return KindBool, true
	case "time", "date", "datetime":
		return KindTime, true
	case "duration":
		return KindDuration, true
	}
	return KindAbsent, false
}

// Value is the result of a resolution: one of the supported scalar kinds,
// an opaque caller default, or absent. The zero Value is absent.
type Value struct {
	kind  Kind
	s     string
	i     int64
	f     float64
	b     bool
	t     time.Time
	d     time.Duration
	other any
}

// StringValue returns a KindString value.
func StringValue(s string) Value { return Value{kind: KindString, s: s} }

// IntValue returns a KindInt value.
func IntValue(i int64) Value { return Value{kind: KindInt, i: i} }

// FloatValue returns a KindFloat value.
func FloatValue(f float64) Value { return Value{kind: KindFloat, f: f} }

// BoolValue returns a KindBool value.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// TimeValue returns a KindTime value.
func TimeValue(t time.Time) Value { return Value{kind: KindTime, t: t} }

// DurationValue returns a KindDuration value.
func DurationValue(d time.Duration) Value { return Value{kind: KindDuration, d: d} }

// ValueOf wraps a Go value. nil, nil pointers and nil interfaces are absent;
// types outside the scalar kinds become KindOther.
func ValueOf(v any) Value {
	switch x := v.(type) {
	case nil:
		return Value{}
	case Value:
		return x
	case string:
		return StringValue(x)
	case bool:
		return BoolValue(x)
	case int:
		return IntValue(int64(x))
	case int8:
		return IntValue(int64(x))
	case int16:
		return IntValue(int64(x))
	case int32:
		return IntValue(int64(x))
	case int64:
		return IntValue(x)
	case uint:
		return uintValue(uint64(x))
	case uint8:
		return IntValue(int64(x))
	case uint16:
		return IntValue(int64(x))
	case uint32:
		return IntValue(int64(x))
	case uint64:
		return uintValue(x)
	case float32:
		return FloatValue(float64(x))
	case float64:
		return FloatValue(x)
	case time.Time:
		return TimeValue(x)
	case time.Duration:
		return DurationValue(x)
	}
	if isNil(v) {
		return Value{}
	}
	return Value{kind: KindOther, other: v}
}

func uintValue(u uint64) Value {
	if u > uint64(^uint64(0)>>1) {
		return Value{kind: KindOther, other: u}
	}
	return IntValue(int64(u))
}

func isNil(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// Kind returns the kind held by v.
func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether v holds nothing.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// Text returns the string held by v; ok is false for other kinds.
func (v Value) Text() (string, bool) {
	return v.s, v.kind == KindString
}

// Int returns the integer held by v; ok is false for other kinds.
func (v Value) Int() (int64, bool) {
	return v.i, v.kind == KindInt
}

// Float returns the float held by v; ok is false for other kinds.
func (v Value) Float() (float64, bool) {
	return v.f, v.kind == KindFloat
}

// Bool returns the boolean held by v; ok is false for other kinds.
func (v Value) Bool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// Time returns the time held by v; ok is false for other kinds.
func (v Value) Time() (time.Time, bool) {
	return v.t, v.kind == KindTime
}

// Duration returns the duration held by v; ok is false for other kinds.
func (v Value) Duration() (time.Duration, bool) {
	return v.d, v.kind == KindDuration
}

// Interface returns the held value as a plain Go value, nil when absent.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	case KindTime:
		return v.t
	case KindDuration:
		return v.d
	case KindOther:
		return v.other
	}
	return nil
}

// Equal reports whether both values hold the same kind and value.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindTime:
		return v.t.Equal(o.t)
	case KindOther:
		return reflect.DeepEqual(v.other, o.other)
	}
	return v.Interface() == o.Interface()
}

// String renders the value with invariant conventions. Absent renders as "".
func (v Value) String() string {
	switch v.kind {
	case KindAbsent:
		return ""
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindTime:
		return v.t.Format(time.RFC3339Nano)
	case KindDuration:
		return v.d.String()
	}
	return fmt.Sprint(v.other)
}

// maxFormatFraction keeps float formatting loss-free for values parsed from settings text.
const maxFormatFraction = 15

// Format renders the value using the conventions of loc. Numbers are
// localized through golang.org/x/text; times use the locale's first date layout.
func (v Value) Format(loc Locale) string {
	switch v.kind {
	case KindInt:
		return message.NewPrinter(loc.Tag()).Sprint(number.Decimal(v.i, number.NoSeparator()))
	case KindFloat:
		return message.NewPrinter(loc.Tag()).Sprint(number.Decimal(v.f, number.MaxFractionDigits(maxFormatFraction)))
	case KindTime:
		layouts := loc.conventions().dateLayouts
		if len(layouts) > 0 {
			return v.t.Format(layouts[0])
		}
	}
	return v.String()
}
