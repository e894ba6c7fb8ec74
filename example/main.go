// FILE: lixenwraith/appsettings/example/main.go
package main

import (
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lixenwraith/appsettings"
)

// AppSettings holds the registered defaults
type AppSettings struct {
	Server struct {
		Host string `toml:"host"`
		Port int    `toml:"port"`
	} `toml:"Server"`

	Database struct {
		URL         string        `toml:"url"`
		MaxConns    int           `toml:"max_conns"`
		IdleTimeout time.Duration `toml:"idle_timeout"`
	} `toml:"Database"`

	Features struct {
		RateLimit bool `toml:"rate_limit"`
		Caching   bool `toml:"caching"`
	} `toml:"Features"`
}

const settingsFile = "settings.toml"

const initialSettings = `[Server]
host = "localhost"
port = 8080

[Database]
url = "postgres://localhost/myapp"
max_conns = 25
idle_timeout = "30s"

[Features]
rate_limit = true
`

func main() {
	if _, err := os.Stat(settingsFile); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(settingsFile, []byte(initialSettings), 0644); err != nil {
			log.Fatalf("❌ Failed to create %s: %v", settingsFile, err)
		}
		log.Printf("✅ Created %s", settingsFile)
	}

	defaults := &AppSettings{}
	defaults.Server.Host = "0.0.0.0"
	defaults.Server.Port = 80
	defaults.Database.MaxConns = 10
	defaults.Database.IdleTimeout = 30 * time.Second

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	builder := appsettings.NewBuilder().
		WithDefaults(defaults).
		WithEnvPrefix("MYAPP_").
		WithFile(settingsFile).
		WithLogger(logger).
		WithValidator(func(c appsettings.Configuration) error {
			port, err := appsettings.As[int](mustSection(c, "Server"), "port")
			if err != nil {
				return err
			}
			if port <= 0 || port > 65535 {
				return errors.New("Server.port out of range")
			}
			return nil
		})
	cfg, err := builder.Build()
	if err != nil && !errors.Is(err, appsettings.ErrConfigNotFound) {
		log.Fatal("Failed to load settings: ", err)
	}
	store := builder.Store()

	store.AutoUpdateWithOptions(appsettings.WatchOptions{
		PollInterval:      500 * time.Millisecond,
		Debounce:          200 * time.Millisecond,
		MaxWatchers:       10,
		ReloadTimeout:     2 * time.Second,
		VerifyPermissions: true,
	})
	defer store.StopAutoUpdate()
	changes := store.Watch()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	logSettings(cfg)
	log.Printf("Watching %s for changes. Press Ctrl+C to exit.", settingsFile)

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-sigCh:
			log.Println("Shutting down...")
			return
		case path, ok := <-changes:
			if !ok {
				return
			}
			handleChange(cfg, path)
		case <-ticker.C:
			port, _ := appsettings.As[int](mustSection(cfg, "Server"), "port")
			log.Printf("Server still running on port %d", port)
		}
	}
}

func handleChange(cfg appsettings.Configuration, path string) {
	switch {
	case path == appsettings.EventFileDeleted:
		log.Println("⚠️  Settings file was deleted!")
	case path == appsettings.EventPermissionsChanged:
		log.Println("⚠️  SECURITY: Settings file permissions changed!")
	case path == appsettings.EventReloadTimeout:
		log.Println("⚠️  Settings reload timed out")
	case strings.HasPrefix(path, appsettings.EventReloadErrorPrefix):
		log.Printf("❌ Failed to reload settings: %s", strings.TrimPrefix(path, appsettings.EventReloadErrorPrefix))
	default:
		out, err := cfg.Path(path)
		if err != nil {
			log.Printf("📝 Setting removed: %s", path)
			return
		}
		log.Printf("📝 Setting changed: %s = %v", path, out.Value())

		if path == "Features.rate_limit" {
			enabled, _ := appsettings.As[bool](mustSection(cfg, "Features"), "rate_limit")
			log.Printf("Rate limiting enabled: %v", enabled)
		}
	}
}

func logSettings(cfg appsettings.Configuration) {
	server := mustSection(cfg, "Server")
	db := mustSection(cfg, "Database")
	features := mustSection(cfg, "Features")

	host, _ := appsettings.As[string](server, "host")
	port, _ := appsettings.As[int](server, "port")
	url, _ := appsettings.As(db, "url", "unset")
	maxConns, _ := appsettings.As[int](db, "max_conns")
	idle, _ := appsettings.As[time.Duration](db, "idle_timeout")
	rateLimit, _ := appsettings.As[bool](features, "rate_limit")
	caching, _ := appsettings.As(features, "caching", false)

	log.Println("Current settings:")
	log.Printf("  Server: %s:%d", host, port)
	log.Printf("  Database: %s (max_conns=%d, idle_timeout=%s)", url, maxConns, idle)
	log.Printf("  Features: rate_limit=%v, caching=%v", rateLimit, caching)
}

func mustSection(cfg appsettings.Configuration, name string) appsettings.Configuration {
	section, err := cfg.Section(name)
	if err != nil {
		log.Fatal(err)
	}
	return section
}
