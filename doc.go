// FILE: lixenwraith/appsettings/doc.go

// Package appsettings provides read-only, name-based access to flat key/value
// application settings, with dotted namespaces, typed locale-aware conversion
// and ordered default fallback.
//
// A Configuration is an immutable facade over a Store. Each member access is
// classified in order:
//  1. If the name denotes a namespace (keys exist below "Name."), a child
//     Configuration scoped to that namespace is returned.
//  2. Otherwise the stored text is returned, converted to the requested Kind
//     with the facade's Locale.
//  3. When the key is absent, the first non-nil default is returned unconverted.
//  4. When nothing applies, a root facade yields an absent Value, while a
//     facade reached through a namespace fails with *KeyNotFoundError.
//
// Stores:
//   - MapStore: in-memory map, mutable by the host
//   - EnvStore: process environment, "A.B" read from "A__B" (the default store)
//   - LayeredStore: defaults, TOML/JSON/YAML file, .env files, environment and
//     command-line arguments with configurable precedence and hot reload
//   - ViperStore: an existing *viper.Viper
//   - NATS JetStream key-value buckets through LoadKeyValue and WatchKeyValue
//
// Quick Start:
//
//	store := appsettings.NewMapStore(map[string]string{
//	    "Retries":           "3",
//	    "ThirdPartyApi.Key": "secret",
//	    "Rate":              "1,05",
//	})
//	cfg := appsettings.New(store, appsettings.WithLocale(appsettings.MustParseLocale("de")))
//
//	retries, _ := appsettings.As[int](cfg, "Retries")
//	rate, _ := appsettings.As[float64](cfg, "Rate")         // 1.05
//	timeout, _ := appsettings.As(cfg, "Timeout", 30*time.Second) // default
//
//	api, _ := cfg.Section("ThirdPartyApi")
//	key, _ := api.Property("Key")
//	_, err := api.Property("Missing") // *KeyNotFoundError "ThirdPartyApi.Missing"
//
// Builder:
//
//	cfg, err := appsettings.NewBuilder().
//	    WithDefaults(defaults).
//	    WithEnvPrefix("MYAPP_").
//	    WithFile("settings.toml").
//	    WithLocaleName("de-DE").
//	    Build()
//
// Default Precedence (highest to lowest):
//  1. Command-line arguments (--Server.Port=9090)
//  2. Environment variables (MYAPP_SERVER_PORT=9090, MYAPP_Server__Port=9090)
//  3. .env files
//  4. Settings file
//  5. Registered defaults
//
// Thread Safety:
// Configuration values may be shared between goroutines. The stores guard
// their state with read-write mutexes so hosts can reload them while readers
// resolve settings; no snapshot across several lookups is promised.
package appsettings
