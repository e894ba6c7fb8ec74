// FILE: lixenwraith/appsettings/viper.go
package appsettings

import (
	"strings"

	"github.com/spf13/viper"
)

// ViperStore exposes an existing *viper.Viper as a Store. Keys are
// case-insensitive, as in viper; Keys returns them lowercased.
type ViperStore struct {
	v *viper.Viper
}

// NewViperStore wraps v. A nil v uses the global viper instance.
func NewViperStore(v *viper.Viper) *ViperStore {
	if v == nil {
		v = viper.GetViper()
	}
	return &ViperStore{v: v}
}

// Viper returns the wrapped instance.
func (s *ViperStore) Viper() *viper.Viper { return s.v }

func (s *ViperStore) Lookup(key string) (string, bool) {
	if !s.v.IsSet(key) {
		return "", false
	}
	raw := s.v.Get(key)
	if raw == nil {
		return "", false
	}
	if _, isMap := asStringMap(raw); isMap {
		return "", false
	}
	text, err := stringify(raw)
	if err != nil {
		return "", false
	}
	return text, true
}

// LookupTyped implements TypedStore with cast, which viper uses for its own
// typed getters. Text values are left to the locale-aware converter except
// for booleans.
func (s *ViperStore) LookupTyped(key string, kind Kind) (Value, bool, error) {
	if !s.v.IsSet(key) {
		return Value{}, false, nil
	}
	raw := s.v.Get(key)
	if raw == nil {
		return Value{}, false, nil
	}
	if _, isText := raw.(string); isText && kind != KindBool {
		return Value{}, false, ErrKindNotSupported
	}
	v, err := castTo(raw, kind)
	if err != nil {
		text, _ := stringify(raw)
		return Value{}, false, &ConversionError{Raw: text, Target: kind, Locale: Invariant, Err: err}
	}
	return v, true, nil
}

func (s *ViperStore) HasDescendants(prefix string) bool {
	p := strings.ToLower(prefix) + KeyDelimiter
	for _, key := range s.v.AllKeys() {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

// Keys spells the prefix part of each key as given by the caller.
func (s *ViperStore) Keys(prefix string) []string {
	keys := keysUnder(s.v.AllKeys(), strings.ToLower(prefix))
	if prefix != "" {
		for i, key := range keys {
			keys[i] = prefix + key[len(prefix):]
		}
	}
	return keys
}

// HasSection reports nested tables, including empty ones.
func (s *ViperStore) HasSection(path string) bool {
	_, isMap := asStringMap(s.v.Get(path))
	return isMap
}
