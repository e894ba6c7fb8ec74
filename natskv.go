// FILE: lixenwraith/appsettings/natskv.go
package appsettings

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// KeyValueBucket is the part of jetstream.KeyValue used to read settings.
// Bucket keys use the same dotted form as settings keys.
type KeyValueBucket interface {
	Keys(ctx context.Context, opts ...jetstream.WatchOpt) ([]string, error)
	Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error)
	WatchAll(ctx context.Context, opts ...jetstream.WatchOpt) (jetstream.KeyWatcher, error)
}

// LoadKeyValue copies every key of a JetStream KV bucket into a new MapStore.
// Keys deleted between listing and reading are skipped.
func LoadKeyValue(ctx context.Context, kv KeyValueBucket) (*MapStore, error) {
	if kv == nil {
		return nil, fmt.Errorf("%w: nil key-value bucket", ErrNoStore)
	}

	keys, err := kv.Keys(ctx)
	if err != nil && !errors.Is(err, jetstream.ErrNoKeysFound) {
		return nil, fmt.Errorf("failed to list bucket keys: %w", err)
	}

	values := make(map[string]string, len(keys))
	for _, key := range keys {
		entry, err := kv.Get(ctx, key)
		if err != nil {
			if errors.Is(err, jetstream.ErrKeyNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to read bucket key %q: %w", key, err)
		}
		if len(entry.Value()) > MaxValueSize {
			return nil, fmt.Errorf("%w: bucket key %q", ErrValueSize, key)
		}
		values[key] = string(entry.Value())
	}

	return NewMapStore(values), nil
}

// KVSync mirrors a JetStream KV bucket into a MapStore until stopped.
type KVSync struct {
	store   *MapStore
	watcher jetstream.KeyWatcher
	logger  *slog.Logger
	cancel  context.CancelFunc
	ready   chan struct{}
	done    chan struct{}
	applied atomic.Int64
	stopped atomic.Bool
	once    sync.Once
}

// WatchKeyValue applies the current content of the bucket to store and then
// keeps it updated: puts set keys, deletes and purges remove them. A nil
// logger discards log output.
func WatchKeyValue(ctx context.Context, kv KeyValueBucket, store *MapStore, logger *slog.Logger) (*KVSync, error) {
	if kv == nil || store == nil {
		return nil, fmt.Errorf("%w: bucket and store are required", ErrNoStore)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ctx, cancel := context.WithCancel(ctx)
	watcher, err := kv.WatchAll(ctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to watch bucket: %w", err)
	}

	s := &KVSync{
		store:   store,
		watcher: watcher,
		logger:  logger.With("component", "kvsync"),
		cancel:  cancel,
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.run(ctx)
	return s, nil
}

// Ready is closed once the initial bucket content has been applied.
func (s *KVSync) Ready() <-chan struct{} {
	return s.ready
}

// Applied returns the number of updates applied to the store so far.
func (s *KVSync) Applied() int64 {
	return s.applied.Load()
}

// Stop ends the sync and waits for the update loop to exit.
func (s *KVSync) Stop() error {
	if !s.stopped.CompareAndSwap(false, true) {
		return nil
	}
	s.cancel()
	err := s.watcher.Stop()

	select {
	case <-s.done:
	case <-time.After(ShutdownTimeout):
		s.logger.Warn("kv sync shutdown timeout", "timeout", ShutdownTimeout)
	}
	return err
}

func (s *KVSync) markReady() {
	s.once.Do(func() { close(s.ready) })
}

func (s *KVSync) run(ctx context.Context) {
	defer close(s.done)
	defer s.markReady()

	for {
		select {
		case <-ctx.Done():
			return
		case entry, ok := <-s.watcher.Updates():
			if !ok {
				return
			}
			// nil marks the end of the initial values
			if entry == nil {
				s.logger.Debug("initial bucket content applied", "keys", s.store.Len())
				s.markReady()
				continue
			}
			s.apply(entry)
		}
	}
}

func (s *KVSync) apply(entry jetstream.KeyValueEntry) {
	key := entry.Key()
	switch entry.Operation() {
	case jetstream.KeyValueDelete, jetstream.KeyValuePurge:
		s.store.Delete(key)
	default:
		if len(entry.Value()) > MaxValueSize {
			s.logger.Error("bucket value too large, update skipped", "key", key, "size", len(entry.Value()))
			return
		}
		s.store.Set(key, string(entry.Value()))
	}
	s.applied.Add(1)
	s.logger.Debug("bucket update applied", "key", key, "op", entry.Operation().String())
}
