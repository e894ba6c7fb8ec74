// FILE: lixenwraith/appsettings/cmd/appsettings/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lixenwraith/appsettings"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const usage = `usage: appsettings [flags] <command> [args]

commands:
  get <path> [default...]   resolve a dotted member path, e.g. ThirdPartyApi.Key
  raw <key>                 read a key verbatim, bypassing member dispatch
  list [namespace]          list direct members of a namespace
  dump                      print effective settings as TOML (file/env sources only)

flags:
`

type options struct {
	file      string
	envPrefix string
	dotenv    string
	locale    string
	kind      string
	section   string
	natsURL   string
	bucket    string
	verbose   bool
}

func main() {
	var opts options
	fs := flag.NewFlagSet("appsettings", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	fs.StringVar(&opts.file, "file", "", "settings file (TOML, JSON or YAML)")
	fs.StringVar(&opts.envPrefix, "env-prefix", "", "environment variable prefix")
	fs.StringVar(&opts.dotenv, "dotenv", "", "comma-separated .env files")
	fs.StringVar(&opts.locale, "locale", "", "conversion locale, e.g. de-DE (default from LANG)")
	fs.StringVar(&opts.kind, "type", "", "target kind for get: string, int, decimal, bool, date, duration")
	fs.StringVar(&opts.section, "section", "", "root the facade at a named section")
	fs.StringVar(&opts.natsURL, "nats", "", "read settings from a NATS JetStream KV bucket at this URL")
	fs.StringVar(&opts.bucket, "bucket", "settings", "KV bucket name used with -nats")
	fs.BoolVar(&opts.verbose, "v", false, "debug logging")

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg, layered, err := openConfiguration(ctx, opts, logger)
	if err != nil {
		logger.Error("failed to open settings", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, layered, opts, fs.Args()); err != nil {
		logger.Error("command failed", "command", fs.Arg(0), "error", err)
		os.Exit(1)
	}
}

// openConfiguration builds the root facade from a KV bucket or the layered sources.
func openConfiguration(ctx context.Context, opts options, logger *slog.Logger) (appsettings.Configuration, *appsettings.LayeredStore, error) {
	var facadeOpts []appsettings.Option
	if opts.section != "" {
		facadeOpts = append(facadeOpts, appsettings.WithSection(opts.section))
	}
	if opts.locale != "" {
		loc, err := appsettings.ParseLocale(opts.locale)
		if err != nil {
			return appsettings.Configuration{}, nil, err
		}
		facadeOpts = append(facadeOpts, appsettings.WithLocale(loc))
	}

	if opts.natsURL != "" {
		store, err := loadBucket(ctx, opts.natsURL, opts.bucket, logger)
		if err != nil {
			return appsettings.Configuration{}, nil, err
		}
		return appsettings.New(store, facadeOpts...), nil, nil
	}

	b := appsettings.NewBuilder().
		WithArgs(nil).
		WithFile(opts.file).
		WithEnvPrefix(opts.envPrefix).
		WithLogger(logger)
	if opts.dotenv != "" {
		b = b.WithDotEnv(strings.Split(opts.dotenv, ",")...)
	}
	if _, err := b.Build(); err != nil && !errors.Is(err, appsettings.ErrConfigNotFound) {
		return appsettings.Configuration{}, nil, err
	} else if err != nil {
		logger.Warn("settings source missing", "error", err)
	}
	return appsettings.New(b.Store(), facadeOpts...), b.Store(), nil
}

func loadBucket(ctx context.Context, url, bucket string, logger *slog.Logger) (*appsettings.MapStore, error) {
	nc, err := nats.Connect(url, nats.Name("appsettings-cli"))
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", url, err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	kv, err := js.KeyValue(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("open bucket %q: %w", bucket, err)
	}

	store, err := appsettings.LoadKeyValue(ctx, kv)
	if err != nil {
		return nil, err
	}
	logger.Debug("bucket loaded", "bucket", bucket, "keys", store.Len())
	return store, nil
}

func run(cfg appsettings.Configuration, layered *appsettings.LayeredStore, opts options, args []string) error {
	switch args[0] {
	case "get":
		if len(args) < 2 {
			return errors.New("get needs a path")
		}
		return get(cfg, opts.kind, args[1], args[2:])

	case "raw":
		if len(args) != 2 {
			return errors.New("raw needs exactly one key")
		}
		v, ok := cfg.Get(args[1])
		if !ok {
			return &appsettings.KeyNotFoundError{Path: args[1]}
		}
		fmt.Println(v)
		return nil

	case "list":
		scope := cfg
		if len(args) > 1 {
			var err error
			if scope, err = cfg.Sub(args[1]); err != nil {
				return err
			}
		}
		for _, name := range scope.Keys() {
			if sub, err := scope.Section(name); err == nil {
				fmt.Printf("%s/ (%d members)\n", name, len(sub.Keys()))
				continue
			}
			v, _ := scope.Get(name)
			fmt.Printf("%s = %s\n", name, v)
		}
		return nil

	case "dump":
		if layered == nil {
			return errors.New("dump is not available for KV buckets")
		}
		return layered.Dump(os.Stdout)
	}
	return fmt.Errorf("unknown command %q", args[0])
}

func get(cfg appsettings.Configuration, kindName, path string, defaults []string) error {
	kind, ok := appsettings.ParseKind(kindName)
	if !ok {
		return fmt.Errorf("unknown type %q", kindName)
	}

	segments := strings.Split(path, appsettings.KeyDelimiter)
	scope, err := cfg.Sub(strings.Join(segments[:len(segments)-1], appsettings.KeyDelimiter))
	if err != nil {
		return err
	}
	name := segments[len(segments)-1]

	if sub, err := scope.Section(name); err == nil {
		fmt.Printf("%s is a namespace with members: %s\n", path, strings.Join(sub.Keys(), ", "))
		return nil
	}

	args := make([]any, len(defaults))
	for i, d := range defaults {
		args[i] = d
	}
	v, err := scope.Typed(name, kind, args...)
	if err != nil {
		return err
	}
	if v.IsAbsent() {
		return &appsettings.KeyNotFoundError{Path: path}
	}
	fmt.Println(v.Format(cfg.Locale()))
	return nil
}
