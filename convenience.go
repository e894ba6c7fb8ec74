// FILE: lixenwraith/appsettings/convenience.go
package appsettings

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Quick registers structDefaults, loads configFile, the environment under
// envPrefix and os.Args, and returns the root Configuration.
func Quick(structDefaults any, envPrefix, configFile string) (Configuration, error) {
	return NewBuilder().
		WithDefaults(structDefaults).
		WithEnvPrefix(envPrefix).
		WithFile(configFile).
		Build()
}

// MustQuick is like Quick but panics on error
func MustQuick(structDefaults any, envPrefix, configFile string) Configuration {
	cfg, err := Quick(structDefaults, envPrefix, configFile)
	if err != nil {
		panic(fmt.Sprintf("config initialization failed: %v", err))
	}
	return cfg
}

// GenerateFlags creates flag.FlagSet entries for all registered paths
func (s *LayeredStore) GenerateFlags() *flag.FlagSet {
	fs := flag.NewFlagSet("appsettings", flag.ContinueOnError)

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for path, it := range s.items {
		if !it.hasDefault {
			continue
		}
		usage := fmt.Sprintf("Setting: %s", path)
		switch v := it.defaultValue.(type) {
		case bool:
			fs.Bool(path, v, usage)
		case int64:
			fs.Int64(path, v, usage)
		case int:
			fs.Int(path, v, usage)
		case float64:
			fs.Float64(path, v, usage)
		case string:
			fs.String(path, v, usage)
		default:
			text, err := stringify(v)
			if err != nil {
				text = fmt.Sprint(v)
			}
			fs.String(path, text, usage)
		}
	}

	return fs
}

// BindFlags stores every flag set on the command line as a CLI value
func (s *LayeredStore) BindFlags(fs *flag.FlagSet) error {
	var errs []error

	fs.Visit(func(f *flag.Flag) {
		if err := s.SetSource(f.Name, SourceCLI, parseValue(f.Value.String())); err != nil {
			errs = append(errs, fmt.Errorf("flag %s: %w", f.Name, err))
		}
	})

	if len(errs) > 0 {
		return fmt.Errorf("failed to bind %d flags: %w", len(errs), errs[0])
	}

	return nil
}

// Validate checks that every required path has a value from a source other
// than its registered default
func (s *LayeredStore) Validate(required ...string) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var missing []string

	for _, path := range required {
		it, exists := s.items[path]
		if !exists {
			missing = append(missing, path+" (not registered)")
			continue
		}

		hasValue := false
		for _, val := range it.values {
			if val != nil {
				hasValue = true
				break
			}
		}
		if !hasValue {
			missing = append(missing, path)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	return nil
}

// Debug returns a formatted string showing all values and their sources
func (s *LayeredStore) Debug() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	paths := make([]string, 0, len(s.items))
	for path := range s.items {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var b strings.Builder
	b.WriteString("Configuration Debug Info:\n")
	fmt.Fprintf(&b, "Precedence: %v\n", s.options.Sources)
	if s.configFilePath != "" {
		fmt.Fprintf(&b, "File: %s\n", s.configFilePath)
	}
	b.WriteString("Current values:\n")

	for _, path := range paths {
		it := s.items[path]
		fmt.Fprintf(&b, "  %s:\n", path)
		fmt.Fprintf(&b, "    Current: %v\n", it.currentValue)
		if it.hasDefault {
			fmt.Fprintf(&b, "    Default: %v\n", it.defaultValue)
		}
		for _, source := range s.options.Sources {
			if value, ok := it.values[source]; ok {
				fmt.Fprintf(&b, "    %s: %v\n", source, value)
			}
		}
	}

	return b.String()
}

// Dump writes the effective settings to w in TOML format. A nil w writes to stdout.
func (s *LayeredStore) Dump(w io.Writer) error {
	if w == nil {
		w = os.Stdout
	}

	s.mutex.RLock()
	nestedData := make(map[string]any)
	for path, it := range s.items {
		if v, found := s.computeValue(it); found {
			setNestedValue(nestedData, path, v)
		}
	}
	s.mutex.RUnlock()

	return toml.NewEncoder(w).Encode(nestedData)
}
