// FILE: lixenwraith/appsettings/layered.go
package appsettings

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cast"
)

// item holds the default and every per-source value of one key.
type item struct {
	defaultValue any
	hasDefault   bool
	currentValue any
	values       map[Source]any
}

// LayeredStore merges registered defaults, a settings file, .env files,
// environment variables and command-line arguments into one Store.
// Precedence follows LoadOptions.Sources. Keys are case-sensitive.
type LayeredStore struct {
	items          map[string]item
	sections       map[string]bool // declared by RegisterStruct
	fileSections   map[string]bool // tables found in the last loaded file
	options        LoadOptions
	fileFormat     string
	configFilePath string
	locale         *Locale
	logger         *slog.Logger
	watcher        *watcher
	mutex          sync.RWMutex
}

// NewLayeredStore creates an empty store with DefaultLoadOptions.
func NewLayeredStore() *LayeredStore {
	return NewLayeredStoreWithOptions(DefaultLoadOptions())
}

// NewLayeredStoreWithOptions creates an empty store with the given load options.
func NewLayeredStoreWithOptions(opts LoadOptions) *LayeredStore {
	return &LayeredStore{
		items:        make(map[string]item),
		sections:     make(map[string]bool),
		fileSections: make(map[string]bool),
		options:      opts,
		fileFormat:   "auto",
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// SetLogger sets the logger used by background reloads. nil restores the discard logger.
func (s *LayeredStore) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.logger = logger
}

func (s *LayeredStore) log() *slog.Logger {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.logger
}

// SetLocale sets the locale facades over this store use unless overridden with WithLocale.
func (s *LayeredStore) SetLocale(loc Locale) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.locale = &loc
}

// Locale implements LocaleStore.
func (s *LayeredStore) Locale() (Locale, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.locale == nil {
		return Locale{}, false
	}
	return *s.locale, true
}

// SetFileFormat fixes the settings file format: "toml", "json", "yaml" or "auto".
func (s *LayeredStore) SetFileFormat(format string) error {
	switch format {
	case "toml", "json", "yaml", "auto":
	default:
		return fmt.Errorf("unsupported file format %q", format)
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.fileFormat = format
	return nil
}

// ConfigFile returns the path of the last successfully loaded settings file.
func (s *LayeredStore) ConfigFile() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.configFilePath
}

// SetSource stores value for path as coming from source and recomputes the
// effective value. Unknown paths are created without a default.
func (s *LayeredStore) SetSource(path string, source Source, value any) error {
	if err := validatePath(path); err != nil {
		return err
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()

	it := s.items[path]
	if source == SourceDefault {
		it.defaultValue = value
		it.hasDefault = true
	} else {
		if it.values == nil {
			it.values = make(map[Source]any)
		}
		it.values[source] = value
	}
	it.currentValue, _ = s.computeValue(it)
	s.items[path] = it
	return nil
}

// Raw returns the effective native value of path as decoded from its source.
func (s *LayeredStore) Raw(path string) (any, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	it, ok := s.items[path]
	if !ok {
		return nil, false
	}
	v, found := s.computeValue(it)
	return v, found
}

// Lookup implements Store. Native values are rendered with invariant conventions.
func (s *LayeredStore) Lookup(key string) (string, bool) {
	v, ok := s.Raw(key)
	if !ok {
		return "", false
	}
	text, err := stringify(v)
	if err != nil {
		return fmt.Sprint(v), true
	}
	return text, true
}

func (s *LayeredStore) HasDescendants(prefix string) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	p := prefix + KeyDelimiter
	for path, it := range s.items {
		if !strings.HasPrefix(path, p) {
			continue
		}
		if _, found := s.computeValue(it); found {
			return true
		}
	}
	return false
}

func (s *LayeredStore) Keys(prefix string) []string {
	s.mutex.RLock()
	keys := make([]string, 0, len(s.items))
	for path, it := range s.items {
		if _, found := s.computeValue(it); found {
			keys = append(keys, path)
		}
	}
	s.mutex.RUnlock()
	return keysUnder(keys, prefix)
}

// HasSection implements SectionStore: tables from the loaded file and
// nested structs given to RegisterStruct are namespaces even when empty.
func (s *LayeredStore) HasSection(path string) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.sections[path] || s.fileSections[path]
}

// computeValue picks the value of the highest-precedence source that has one.
// A nil value counts as missing.
func (s *LayeredStore) computeValue(it item) (any, bool) {
	for _, source := range s.options.Sources {
		if source == SourceDefault {
			if it.hasDefault && it.defaultValue != nil {
				return it.defaultValue, true
			}
			continue
		}
		if v, ok := it.values[source]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// recompute refreshes currentValue for every item and drops items that no
// source provides anymore. Callers hold the write lock.
func (s *LayeredStore) recompute() {
	for path, it := range s.items {
		v, found := s.computeValue(it)
		if !found && !it.hasDefault && len(it.values) == 0 {
			delete(s.items, path)
			continue
		}
		it.currentValue = v
		s.items[path] = it
	}
}

// snapshot returns the effective text of every key.
func (s *LayeredStore) snapshot() map[string]string {
	keys := s.Keys("")
	out := make(map[string]string, len(keys))
	for _, key := range keys {
		if v, ok := s.Lookup(key); ok {
			out[key] = v
		}
	}
	return out
}

// stringify renders a decoded value as setting text.
func stringify(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case time.Time:
		return x.Format(time.RFC3339Nano), nil
	case time.Duration:
		return x.String(), nil
	case []string:
		return strings.Join(x, ","), nil
	case []any:
		parts := make([]string, len(x))
		for i, elem := range x {
			p, err := stringify(elem)
			if err != nil {
				return "", err
			}
			parts[i] = p
		}
		return strings.Join(parts, ","), nil
	}
	return cast.ToStringE(v)
}
