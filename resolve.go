// FILE: lixenwraith/appsettings/resolve.go
package appsettings

import "errors"

// resolve looks key up in store, converts a present value to kind and
// otherwise walks defaults in order, returning the first non-nil one as is.
// found is false when neither the store nor the defaults produced a value.
func resolve(store Store, key string, kind Kind, loc Locale, defaults []any) (v Value, found bool, err error) {
	v, found, err = lookup(store, key, kind, loc)
	if err != nil || found {
		return v, found, err
	}
	for _, d := range defaults {
		if dv := ValueOf(d); !dv.IsAbsent() {
			return dv, true, nil
		}
	}
	return Value{}, false, nil
}

// lookup reads a single key. A present but empty value is still present.
func lookup(store Store, key string, kind Kind, loc Locale) (Value, bool, error) {
	if kind != KindAbsent && kind != KindString {
		if ts, ok := store.(TypedStore); ok {
			v, found, err := ts.LookupTyped(key, kind)
			if !errors.Is(err, ErrKindNotSupported) {
				return v, found, err
			}
		}
	}

	raw, ok := store.Lookup(key)
	if !ok {
		return Value{}, false, nil
	}
	v, err := Convert(raw, kind, loc)
	if err != nil {
		return Value{}, false, err
	}
	return v, true, nil
}
