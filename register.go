// FILE: lixenwraith/appsettings/register.go
package appsettings

import (
	"fmt"
	"reflect"
	"strings"
)

// Register makes a path known to the store with a default value.
// The path is dot-separated ("Server.Port"); each segment must be a bare key.
// A nil default registers the path without making it present.
func (s *LayeredStore) Register(path string, defaultValue any) error {
	if err := validatePath(path); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	it := s.items[path]
	it.defaultValue = defaultValue
	it.hasDefault = true
	it.currentValue, _ = s.computeValue(it)
	s.items[path] = it

	return nil
}

// Unregister removes a path and all its children.
func (s *LayeredStore) Unregister(path string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	prefix := path + KeyDelimiter
	_, exists := s.items[path]
	if !exists {
		for childPath := range s.items {
			if strings.HasPrefix(childPath, prefix) {
				exists = true
				break
			}
		}
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotRegistered, path)
	}

	delete(s.items, path)
	delete(s.sections, path)
	for childPath := range s.items {
		if strings.HasPrefix(childPath, prefix) {
			delete(s.items, childPath)
		}
	}
	for section := range s.sections {
		if strings.HasPrefix(section, prefix) {
			delete(s.sections, section)
		}
	}

	return nil
}

// RegisterStruct registers the fields of a struct as defaults. Paths come from
// `toml` tags or field names; nested structs become declared sections.
// prefix is prepended to every path and may be empty.
func (s *LayeredStore) RegisterStruct(prefix string, structWithDefaults any) error {
	v := reflect.ValueOf(structWithDefaults)

	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return fmt.Errorf("RegisterStruct requires a non-nil struct pointer or value")
		}
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return fmt.Errorf("RegisterStruct requires a struct or struct pointer, got %T", structWithDefaults)
	}

	var errs []string
	s.registerFields(v, strings.Trim(prefix, KeyDelimiter), "", &errs)

	if len(errs) > 0 {
		return fmt.Errorf("failed to register %d field(s): %s", len(errs), strings.Join(errs, "; "))
	}

	return nil
}

func (s *LayeredStore) registerFields(v reflect.Value, pathPrefix, fieldPath string, errs *[]string) {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		fieldValue := v.Field(i)

		if !field.IsExported() {
			continue
		}

		tag := field.Tag.Get("toml")
		if tag == "-" {
			continue
		}

		key := field.Name
		if name, _, _ := strings.Cut(tag, ","); name != "" {
			key = name
		}
		currentPath := joinPath(pathPrefix, key)

		isStruct := fieldValue.Kind() == reflect.Struct && !isLeafStruct(fieldValue.Type())
		isPtrToStruct := fieldValue.Kind() == reflect.Ptr && fieldValue.Type().Elem().Kind() == reflect.Struct &&
			!isLeafStruct(fieldValue.Type().Elem())

		if isStruct || isPtrToStruct {
			nested := fieldValue
			if isPtrToStruct {
				if fieldValue.IsNil() {
					continue
				}
				nested = fieldValue.Elem()
			}
			s.mutex.Lock()
			s.sections[currentPath] = true
			s.mutex.Unlock()
			s.registerFields(nested, currentPath, fieldPath+field.Name+".", errs)
			continue
		}

		if err := s.Register(currentPath, fieldValue.Interface()); err != nil {
			*errs = append(*errs, fmt.Sprintf("field %s%s (path %s): %v", fieldPath, field.Name, currentPath, err))
		}
	}
}

// isLeafStruct reports struct types that hold a single setting, such as time.Time.
func isLeafStruct(t reflect.Type) bool {
	return t.PkgPath() == "time" || t.PkgPath() == "net/url"
}

// RegisteredPaths returns all paths with a registered default below prefix.
func (s *LayeredStore) RegisteredPaths(prefix string) map[string]bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result := make(map[string]bool)
	for path, it := range s.items {
		if it.hasDefault && strings.HasPrefix(path, prefix) {
			result[path] = true
		}
	}

	return result
}
