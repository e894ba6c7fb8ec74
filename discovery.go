// FILE: lixenwraith/appsettings/discovery.go
package appsettings

import (
	"os"
	"path/filepath"
	"strings"
)

// FileDiscoveryOptions describes where a settings file may live.
type FileDiscoveryOptions struct {
	Name       string   // file name without extension
	Extensions []string // tried in order within each directory
	Paths      []string // searched before the working and XDG directories

	// EnvVar and CLIFlag name an explicit path, used as-is even if missing
	EnvVar  string
	CLIFlag string

	UseXDG        bool
	UseCurrentDir bool
}

// DefaultDiscoveryOptions returns the discovery options for appName:
// APPNAME_CONFIG, --config, the working directory and XDG directories.
func DefaultDiscoveryOptions(appName string) FileDiscoveryOptions {
	return FileDiscoveryOptions{
		Name:          appName,
		Extensions:    []string{".toml", ".yaml", ".yml", ".json"},
		EnvVar:        strings.ToUpper(appName) + "_CONFIG",
		CLIFlag:       "--config",
		UseXDG:        true,
		UseCurrentDir: true,
	}
}

// WithFileDiscovery sets the settings file to the first one found by opts.
// Nothing found leaves the builder without a file; defaults and env still apply.
func (b *Builder) WithFileDiscovery(opts FileDiscoveryOptions) *Builder {
	if path, ok := DiscoverFile(opts, b.args); ok {
		b.file = path
	}
	return b
}

// DiscoverFile returns the settings file selected by opts and args.
// Precedence: CLI flag, environment variable, then the first existing
// Name+Extension in the search directories.
func DiscoverFile(opts FileDiscoveryOptions, args []string) (string, bool) {
	if path, ok := flagPath(opts.CLIFlag, args); ok {
		return path, true
	}
	if opts.EnvVar != "" {
		if path := os.Getenv(opts.EnvVar); path != "" {
			return path, true
		}
	}

	for _, dir := range searchDirs(opts) {
		for _, ext := range opts.Extensions {
			candidate := filepath.Join(dir, opts.Name+ext)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, true
			}
		}
	}
	return "", false
}

// flagPath accepts both "--config path" and "--config=path".
func flagPath(flag string, args []string) (string, bool) {
	if flag == "" {
		return "", false
	}
	for i, arg := range args {
		if arg == flag && i+1 < len(args) {
			return args[i+1], true
		}
		if rest, ok := strings.CutPrefix(arg, flag+"="); ok {
			return rest, true
		}
	}
	return "", false
}

func searchDirs(opts FileDiscoveryOptions) []string {
	dirs := append([]string(nil), opts.Paths...)
	if opts.UseCurrentDir {
		if cwd, err := os.Getwd(); err == nil {
			dirs = append(dirs, cwd)
		}
	}
	if opts.UseXDG {
		dirs = append(dirs, getXDGConfigPaths(opts.Name)...)
	}
	return dirs
}

// getXDGConfigPaths returns the per-user directory followed by the system ones.
func getXDGConfigPaths(appName string) []string {
	var dirs []string
	switch home := os.Getenv("XDG_CONFIG_HOME"); {
	case home != "":
		dirs = append(dirs, filepath.Join(home, appName))
	case os.Getenv("HOME") != "":
		dirs = append(dirs, filepath.Join(os.Getenv("HOME"), ".config", appName))
	}

	system := filepath.SplitList(os.Getenv("XDG_CONFIG_DIRS"))
	if len(system) == 0 {
		system = []string{"/etc/xdg", "/etc"}
	}
	for _, dir := range system {
		dirs = append(dirs, filepath.Join(dir, appName))
	}
	return dirs
}
