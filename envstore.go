// FILE: lixenwraith/appsettings/envstore.go
package appsettings

import (
	"fmt"
	"os"
	"strings"
)

// EnvKeySeparator replaces KeyDelimiter in environment variable names,
// so "ThirdPartyApi.Key" is read from "ThirdPartyApi__Key".
const EnvKeySeparator = "__"

// EnvStore reads settings from the process environment. It is the store
// behind Default when no other store has been installed.
//
// A variable longer than MaxValueSize is treated as unset by Lookup, so an
// untyped read falls through to its defaults. Typed reads report it as
// ErrValueSize instead, as LayeredStore does when loading the environment.
type EnvStore struct {
	prefix string
}

// NewEnvStore creates a store over variables starting with prefix, e.g. "APP_".
func NewEnvStore(prefix string) *EnvStore {
	return &EnvStore{prefix: prefix}
}

// Prefix returns the variable name prefix.
func (s *EnvStore) Prefix() string { return s.prefix }

// Lookup reads the variable for key; oversized values count as unset.
func (s *EnvStore) Lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(s.prefix + pathToEnvKey(key))
	if !ok || len(v) > MaxValueSize {
		return "", false
	}
	return v, true
}

// LookupTyped rejects oversized variables and leaves every other value to
// text conversion.
func (s *EnvStore) LookupTyped(key string, kind Kind) (Value, bool, error) {
	name := s.prefix + pathToEnvKey(key)
	if v, ok := os.LookupEnv(name); ok && len(v) > MaxValueSize {
		return Value{}, false, fmt.Errorf("%w: %s", ErrValueSize, name)
	}
	return Value{}, false, ErrKindNotSupported
}

func (s *EnvStore) HasDescendants(prefix string) bool {
	want := s.prefix + pathToEnvKey(prefix) + EnvKeySeparator
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, want) && len(name) > len(want) {
			return true
		}
	}
	return false
}

func (s *EnvStore) Keys(prefix string) []string {
	var keys []string
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if !strings.HasPrefix(name, s.prefix) || len(name) == len(s.prefix) {
			continue
		}
		keys = append(keys, envKeyToPath(name[len(s.prefix):]))
	}
	return keysUnder(keys, prefix)
}

// pathToEnvKey maps a dotted path to its environment variable spelling.
func pathToEnvKey(path string) string {
	return strings.ReplaceAll(path, KeyDelimiter, EnvKeySeparator)
}

// envKeyToPath is the inverse of pathToEnvKey.
func envKeyToPath(name string) string {
	return strings.ReplaceAll(name, EnvKeySeparator, KeyDelimiter)
}
