// FILE: lixenwraith/appsettings/typed.go
package appsettings

import (
	"fmt"
	"math"
	"time"
)

// Scalar lists the Go types the generic accessors can produce.
type Scalar interface {
	string | bool |
		int | int8 | int16 | int32 | int64 |
		uint | uint8 | uint16 | uint32 | uint64 |
		float32 | float64 |
		time.Time | time.Duration
}

// As resolves name as a leaf of type T, falling back to defaults in order.
// An absent value on a root facade yields the zero T.
func As[T Scalar](c Configuration, name string, defaults ...T) (T, error) {
	v, _, err := Lookup[T](c, name, defaults...)
	return v, err
}

// Lookup is As that also reports whether a stored or default value was found.
func Lookup[T Scalar](c Configuration, name string, defaults ...T) (T, bool, error) {
	var zero T
	args := make([]any, len(defaults))
	for i, d := range defaults {
		args[i] = d
	}
	v, err := c.Typed(name, kindOf[T](), args...)
	if err != nil || v.IsAbsent() {
		return zero, false, err
	}
	out, err := fromValue[T](v)
	if err != nil {
		return zero, false, fmt.Errorf("%s: %w", c.path(name), err)
	}
	return out, true, nil
}

// Get reads key below the facade prefix as T, bypassing member dispatch.
func Get[T Scalar](c Configuration, key string) (T, bool, error) {
	var zero T
	v, err := c.GetAs(key, kindOf[T]())
	if err != nil || v.IsAbsent() {
		return zero, false, err
	}
	out, err := fromValue[T](v)
	if err != nil {
		return zero, false, fmt.Errorf("%s: %w", c.path(key), err)
	}
	return out, true, nil
}

// MustAs is As that panics on error.
func MustAs[T Scalar](c Configuration, name string, defaults ...T) T {
	v, err := As[T](c, name, defaults...)
	if err != nil {
		panic(err)
	}
	return v
}

func kindOf[T Scalar]() Kind {
	var zero T
	switch any(zero).(type) {
	case string:
		return KindString
	case bool:
		return KindBool
	case float32, float64:
		return KindFloat
	case time.Time:
		return KindTime
	case time.Duration:
		return KindDuration
	default:
		return KindInt
	}
}

// fromValue narrows v to T, checking integer ranges.
func fromValue[T Scalar](v Value) (T, error) {
	var out T
	mismatch := fmt.Errorf("%w: cannot use %s value as %T", ErrKindNotSupported, v.Kind(), out)

	switch p := any(&out).(type) {
	case *string:
		s, ok := v.Text()
		if !ok {
			return out, mismatch
		}
		*p = s
	case *bool:
		b, ok := v.Bool()
		if !ok {
			return out, mismatch
		}
		*p = b
	case *float64:
		f, ok := v.Float()
		if !ok {
			return out, mismatch
		}
		*p = f
	case *float32:
		f, ok := v.Float()
		if !ok {
			return out, mismatch
		}
		*p = float32(f)
	case *time.Time:
		t, ok := v.Time()
		if !ok {
			return out, mismatch
		}
		*p = t
	case *time.Duration:
		d, ok := v.Duration()
		if !ok {
			return out, mismatch
		}
		*p = d
	default:
		i, ok := v.Int()
		if !ok {
			return out, mismatch
		}
		if err := setInt(p, i); err != nil {
			return out, err
		}
	}
	return out, nil
}

func setInt(p any, i int64) error {
	overflow := func(bits string) error {
		return &ConversionError{Raw: fmt.Sprint(i), Target: KindInt, Locale: Invariant, Err: fmt.Errorf("value out of range for %s", bits)}
	}
	switch q := p.(type) {
	case *int:
		if i < math.MinInt || i > math.MaxInt {
			return overflow("int")
		}
		*q = int(i)
	case *int8:
		if i < math.MinInt8 || i > math.MaxInt8 {
			return overflow("int8")
		}
		*q = int8(i)
	case *int16:
		if i < math.MinInt16 || i > math.MaxInt16 {
			return overflow("int16")
		}
		*q = int16(i)
	case *int32:
		if i < math.MinInt32 || i > math.MaxInt32 {
			return overflow("int32")
		}
		*q = int32(i)
	case *int64:
		*q = i
	case *uint:
		if i < 0 || uint64(i) > math.MaxUint {
			return overflow("uint")
		}
		*q = uint(i)
	case *uint8:
		if i < 0 || i > math.MaxUint8 {
			return overflow("uint8")
		}
		*q = uint8(i)
	case *uint16:
		if i < 0 || i > math.MaxUint16 {
			return overflow("uint16")
		}
		*q = uint16(i)
	case *uint32:
		if i < 0 || i > math.MaxUint32 {
			return overflow("uint32")
		}
		*q = uint32(i)
	case *uint64:
		if i < 0 {
			return overflow("uint64")
		}
		*q = uint64(i)
	}
	return nil
}
