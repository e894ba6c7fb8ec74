// FILE: lixenwraith/appsettings/loader.go
package appsettings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Source represents a settings source, used to define load precedence
type Source string

const (
	// SourceDefault represents registered default values
	SourceDefault Source = "default"
	// SourceFile represents values loaded from a settings file
	SourceFile Source = "file"
	// SourceDotEnv represents values loaded from .env files
	SourceDotEnv Source = "dotenv"
	// SourceEnv represents values loaded from environment variables
	SourceEnv Source = "env"
	// SourceCLI represents values loaded from command-line arguments
	SourceCLI Source = "cli"
)

// EnvTransformFunc converts a key path to an environment variable name
type EnvTransformFunc func(path string) string

// LoadOptions configures how a LayeredStore loads its sources
type LoadOptions struct {
	// Sources defines the precedence order (first = highest priority)
	// Default: [SourceCLI, SourceEnv, SourceDotEnv, SourceFile, SourceDefault]
	Sources []Source

	// EnvPrefix is prepended to environment variable names.
	// With a prefix, variables such as MYAPP_Db__Host also add unregistered keys ("Db.Host").
	EnvPrefix string

	// EnvTransform customizes how known paths map to environment variables.
	// If nil, dots become underscores and the name is uppercased.
	EnvTransform EnvTransformFunc

	// EnvWhitelist limits which paths are read from the environment (nil = all)
	EnvWhitelist map[string]bool

	// DotEnvFiles are read with godotenv, later files overriding earlier ones
	DotEnvFiles []string

	// MaxFileSize bounds the settings file size in bytes (0 = unlimited)
	MaxFileSize int64
}

// DefaultLoadOptions returns the standard load options
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		Sources: []Source{SourceCLI, SourceEnv, SourceDotEnv, SourceFile, SourceDefault},
	}
}

// Load reads a settings file and command-line overrides with the store's current options.
func (s *LayeredStore) Load(filePath string, args []string) error {
	s.mutex.RLock()
	opts := s.options
	s.mutex.RUnlock()
	return s.LoadWithOptions(filePath, args, opts)
}

// LoadWithOptions loads every source named in opts.Sources. A missing file or
// .env file is reported as ErrConfigNotFound, joined with other non-fatal errors.
func (s *LayeredStore) LoadWithOptions(filePath string, args []string, opts LoadOptions) error {
	s.mutex.Lock()
	s.options = opts
	s.mutex.Unlock()

	var loadErrors []error

	// Lowest precedence first
	for i := len(opts.Sources) - 1; i >= 0; i-- {
		switch opts.Sources[i] {
		case SourceDefault:
			// Defaults are already in place from Register calls
			continue

		case SourceFile:
			if filePath != "" {
				if err := s.loadFile(filePath); err != nil {
					if errors.Is(err, ErrConfigNotFound) {
						loadErrors = append(loadErrors, err)
					} else {
						return err
					}
				}
			}

		case SourceDotEnv:
			if len(opts.DotEnvFiles) > 0 {
				if err := s.loadDotEnv(opts, opts.DotEnvFiles); err != nil {
					loadErrors = append(loadErrors, err)
				}
			}

		case SourceEnv:
			if err := s.loadEnv(opts); err != nil {
				loadErrors = append(loadErrors, err)
			}

		case SourceCLI:
			if len(args) > 0 {
				if err := s.loadCLI(args); err != nil {
					loadErrors = append(loadErrors, err)
				}
			}
		}
	}

	return errors.Join(loadErrors...)
}

// LoadEnv loads values from environment variables with the given prefix
func (s *LayeredStore) LoadEnv(prefix string) error {
	s.mutex.RLock()
	opts := s.options
	s.mutex.RUnlock()
	opts.EnvPrefix = prefix
	return s.loadEnv(opts)
}

// LoadCLI loads values from command-line arguments
func (s *LayeredStore) LoadCLI(args []string) error {
	return s.loadCLI(args)
}

// LoadFile loads values from a TOML, JSON or YAML file
func (s *LayeredStore) LoadFile(filePath string) error {
	return s.loadFile(filePath)
}

// LoadDotEnv loads values from .env files
func (s *LayeredStore) LoadDotEnv(files ...string) error {
	s.mutex.RLock()
	opts := s.options
	s.mutex.RUnlock()
	return s.loadDotEnv(opts, files)
}

// loadFile reads and parses a settings file. Every key in the file is loaded,
// registered or not; keys dropped from the file lose their file value.
func (s *LayeredStore) loadFile(path string) error {
	s.mutex.RLock()
	maxSize := s.options.MaxFileSize
	format := s.fileFormat
	s.mutex.RUnlock()

	fileInfo, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return fmt.Errorf("failed to stat config file '%s': %w", path, err)
	}
	if maxSize > 0 && fileInfo.Size() > maxSize {
		return fmt.Errorf("config file '%s' exceeds maximum size %d bytes", path, maxSize)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file '%s': %w", path, err)
	}
	defer file.Close()

	var reader io.Reader = file
	if maxSize > 0 {
		reader = io.LimitReader(file, maxSize)
	}
	fileData, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	if format == "" || format == "auto" {
		format = detectFileFormat(path)
		if format == "" {
			format = detectFormatFromContent(fileData)
		}
	}

	fileConfig, err := parseFile(format, fileData)
	if err != nil {
		return fmt.Errorf("failed to parse config file '%s': %w", path, err)
	}

	// Prepare the new state without holding the lock
	sections := make(map[string]bool)
	flat := flattenMap(fileConfig, "", func(p string) { sections[p] = true })

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.configFilePath = path
	s.fileSections = sections
	s.replaceSource(SourceFile, flat)
	return nil
}

// replaceSource swaps all values of one source. Callers hold the write lock.
func (s *LayeredStore) replaceSource(source Source, values map[string]any) {
	for path, it := range s.items {
		if _, ok := it.values[source]; ok {
			delete(it.values, source)
			s.items[path] = it
		}
	}
	for path, value := range values {
		it := s.items[path]
		if it.values == nil {
			it.values = make(map[Source]any)
		}
		it.values[source] = value
		s.items[path] = it
	}
	s.recompute()
}

func parseFile(format string, data []byte) (map[string]any, error) {
	fileConfig := make(map[string]any)
	switch format {
	case "toml":
		if err := toml.Unmarshal(data, &fileConfig); err != nil {
			return nil, fmt.Errorf("TOML: %w", err)
		}
	case "json":
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber()
		if err := decoder.Decode(&fileConfig); err != nil {
			return nil, fmt.Errorf("JSON: %w", err)
		}
		normalizeNumbers(fileConfig)
	case "yaml":
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return nil, fmt.Errorf("YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unable to determine format")
	}
	return fileConfig, nil
}

// normalizeNumbers replaces json.Number with int64 or float64 in place.
func normalizeNumbers(m map[string]any) {
	for k, v := range m {
		m[k] = normalizeNumber(v)
	}
}

func normalizeNumber(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case map[string]any:
		normalizeNumbers(x)
	case []any:
		for i := range x {
			x[i] = normalizeNumber(x[i])
		}
	}
	return v
}

// loadEnv reads environment variables for known paths and, with a prefix,
// every prefixed variable using the EnvKeySeparator mapping.
func (s *LayeredStore) loadEnv(opts LoadOptions) error {
	found, err := s.matchEnv(opts, func(name string) (string, bool) {
		return os.LookupEnv(name)
	}, environNames(opts.EnvPrefix))
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.replaceSource(SourceEnv, found)
	return nil
}

// loadDotEnv reads .env files with godotenv without touching the process environment.
func (s *LayeredStore) loadDotEnv(opts LoadOptions, files []string) error {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, f)
		}
	}
	vars, err := godotenv.Read(files...)
	if err != nil {
		return fmt.Errorf("failed to read .env files: %w", err)
	}

	var names []string
	if opts.EnvPrefix != "" {
		for name := range vars {
			if strings.HasPrefix(name, opts.EnvPrefix) {
				names = append(names, name)
			}
		}
	}
	found, err := s.matchEnv(opts, func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}, names)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.replaceSource(SourceDotEnv, found)
	return nil
}

// matchEnv maps variables to paths: first the transform of every known path,
// then the remaining prefixed names.
func (s *LayeredStore) matchEnv(opts LoadOptions, get func(string) (string, bool), prefixed []string) (map[string]any, error) {
	transform := opts.EnvTransform
	if transform == nil {
		transform = defaultEnvTransform(opts.EnvPrefix)
	}

	s.mutex.RLock()
	paths := make([]string, 0, len(s.items))
	for p := range s.items {
		paths = append(paths, p)
	}
	s.mutex.RUnlock()

	found := make(map[string]any)
	used := make(map[string]bool)
	accept := func(path, name, value string) error {
		if opts.EnvWhitelist != nil && !opts.EnvWhitelist[path] {
			return nil
		}
		if len(value) > MaxValueSize {
			return fmt.Errorf("%w: %s", ErrValueSize, name)
		}
		found[path] = value
		return nil
	}

	for _, path := range paths {
		name := transform(path)
		if value, ok := get(name); ok {
			used[name] = true
			if err := accept(path, name, value); err != nil {
				return nil, err
			}
		}
	}

	for _, name := range prefixed {
		if used[name] || len(name) == len(opts.EnvPrefix) {
			continue
		}
		path := envKeyToPath(name[len(opts.EnvPrefix):])
		if validatePath(path) != nil {
			continue
		}
		if _, taken := found[path]; taken {
			continue
		}
		value, _ := get(name)
		if err := accept(path, name, value); err != nil {
			return nil, err
		}
	}

	return found, nil
}

// environNames lists process environment variable names starting with prefix.
// An empty prefix lists nothing.
func environNames(prefix string) []string {
	if prefix == "" {
		return nil
	}
	var names []string
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	return names
}

// loadCLI loads values from command-line arguments
func (s *LayeredStore) loadCLI(args []string) error {
	parsedCLI, err := parseArgs(args)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCLIParse, err)
	}

	flattenedCLI := flattenMap(parsedCLI, "", nil)

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.replaceSource(SourceCLI, flattenedCLI)
	return nil
}

// defaultEnvTransform creates the default environment variable transformer
func defaultEnvTransform(prefix string) EnvTransformFunc {
	return func(path string) string {
		env := strings.ToUpper(strings.ReplaceAll(path, KeyDelimiter, "_"))
		return prefix + env
	}
}

// parseValue strips surrounding quotes from a flag value
func parseValue(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// parseArgs processes "--key value", "--key=value" and "--flag" arguments
// into a nested map. Values stay text.
func parseArgs(args []string) (map[string]any, error) {
	result := make(map[string]any)
	i := 0
	for i < len(args) {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			i++
			continue
		}

		argContent := strings.TrimPrefix(arg, "--")
		if argContent == "" {
			// "--" separator
			i++
			continue
		}

		var keyPath, valueStr string
		if k, v, hasValue := strings.Cut(argContent, "="); hasValue {
			keyPath, valueStr = k, v
			i++
		} else {
			keyPath = argContent
			if i+1 >= len(args) || strings.HasPrefix(args[i+1], "--") {
				valueStr = "true"
				i++
			} else {
				valueStr = args[i+1]
				i += 2
			}
		}

		if keyPath == "" {
			continue
		}
		if err := validatePath(keyPath); err != nil {
			return nil, fmt.Errorf("command-line key: %w", err)
		}

		setNestedValue(result, keyPath, parseValue(valueStr))
	}

	return result, nil
}

// detectFileFormat determines format from file extension
func detectFileFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml", ".tml":
		return "toml"
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	default:
		return ""
	}
}

// detectFormatFromContent attempts to detect format by parsing
func detectFormatFromContent(data []byte) string {
	var jsonTest map[string]any
	if err := json.Unmarshal(data, &jsonTest); err == nil {
		return "json"
	}

	var tomlTest map[string]any
	if err := toml.Unmarshal(data, &tomlTest); err == nil {
		return "toml"
	}

	// YAML accepts almost any text, so it goes last
	var yamlTest map[string]any
	if err := yaml.Unmarshal(data, &yamlTest); err == nil {
		return "yaml"
	}

	return ""
}
