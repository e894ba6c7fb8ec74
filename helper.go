// FILE: lixenwraith/appsettings/helper.go
package appsettings

import (
	"fmt"
	"strings"
)

// flattenMap converts a nested map[string]any to a flat map with dotted paths.
// Every nested map, including an empty one, is reported to section.
func flattenMap(nested map[string]any, prefix string, section func(path string)) map[string]any {
	flat := make(map[string]any)

	for key, value := range nested {
		newPath := joinPath(prefix, key)

		if nestedMap, isMap := asStringMap(value); isMap {
			if section != nil {
				section(newPath)
			}
			for subPath, subValue := range flattenMap(nestedMap, newPath, section) {
				flat[subPath] = subValue
			}
		} else {
			flat[newPath] = value
		}
	}

	return flat
}

// asStringMap accepts the map shapes produced by the TOML, JSON and YAML decoders.
func asStringMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = val
		}
		return out, true
	}
	return nil, false
}

// setNestedValue sets a value in a nested map using a dotted path,
// creating or overwriting intermediate maps as needed.
func setNestedValue(nested map[string]any, path string, value any) {
	segments := strings.Split(path, KeyDelimiter)
	current := nested

	for _, segment := range segments[:len(segments)-1] {
		next, ok := current[segment].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[segment] = next
		}
		current = next
	}

	current[segments[len(segments)-1]] = value
}

// isValidKeySegment checks if a single path segment is a valid bare key:
// ASCII letters, digits, underscores and dashes.
func isValidKeySegment(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, r := range s {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		if !(isLetter || isDigit || r == '_' || r == '-') {
			return false
		}
	}
	return true
}

// validatePath checks every segment of a dotted path.
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("%w: path cannot be empty", ErrInvalidPath)
	}
	for _, segment := range strings.Split(path, KeyDelimiter) {
		if !isValidKeySegment(segment) {
			return fmt.Errorf("%w: segment %q in path %q", ErrInvalidPath, segment, path)
		}
	}
	return nil
}
