// FILE: lixenwraith/appsettings/store.go
package appsettings

import (
	"sort"
	"strings"
)

// KeyDelimiter separates namespace segments in lookup keys and error paths.
const KeyDelimiter = "."

// Store is the read capability a Configuration needs from its settings provider.
// Implementations must be safe for concurrent use.
type Store interface {
	// Lookup returns the raw text stored under the exact key.
	// Absence is reported through the boolean, never as an error.
	Lookup(key string) (string, bool)

	// HasDescendants reports whether any key starts with prefix followed by KeyDelimiter.
	HasDescendants(prefix string) bool

	// Keys returns the full keys below prefix, or every key when prefix is empty.
	Keys(prefix string) []string
}

// TypedStore is implemented by stores with native typed accessors. Resolution
// asks it first for every kind except strings; returning ErrKindNotSupported
// hands the value back to the locale-aware converter.
type TypedStore interface {
	LookupTyped(key string, kind Kind) (Value, bool, error)
}

// SectionStore is implemented by stores whose format declares sections
// explicitly, so that an empty section still counts as a namespace.
type SectionStore interface {
	HasSection(path string) bool
}

// LocaleStore is implemented by stores that carry their own default locale.
type LocaleStore interface {
	Locale() (Locale, bool)
}

// joinPath composes a lookup key from a namespace prefix and a member name.
func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + KeyDelimiter + name
}

// childNames returns the distinct first segments of keys below prefix.
func childNames(keys []string, prefix string) []string {
	seen := make(map[string]bool)
	names := make([]string, 0)
	for _, key := range keys {
		rest := key
		if prefix != "" {
			if !strings.HasPrefix(key, prefix+KeyDelimiter) {
				continue
			}
			rest = key[len(prefix)+len(KeyDelimiter):]
		}
		name, _, _ := strings.Cut(rest, KeyDelimiter)
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// keysUnder filters keys to those below prefix and sorts them.
func keysUnder(keys []string, prefix string) []string {
	result := make([]string, 0, len(keys))
	for _, key := range keys {
		if prefix == "" || strings.HasPrefix(key, prefix+KeyDelimiter) {
			result = append(result, key)
		}
	}
	sort.Strings(result)
	return result
}
