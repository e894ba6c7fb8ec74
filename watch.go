// FILE: lixenwraith/appsettings/watch.go
package appsettings

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

const DefaultMaxWatchers = 100 // Prevent resource exhaustion

// Notifications sent to Watch subscribers besides changed key paths.
const (
	EventFileDeleted        = "file_deleted"
	EventPermissionsChanged = "permissions_changed"
	EventReloadTimeout      = "reload_timeout"
	// EventReloadErrorPrefix is followed by the error text.
	EventReloadErrorPrefix = "reload_error:"
)

// WatchOptions configures file watching behavior
type WatchOptions struct {
	// PollInterval for the stat fallback (minimum 100ms)
	PollInterval time.Duration

	// Debounce duration to avoid rapid reloads
	Debounce time.Duration

	// MaxWatchers limits concurrent watch channels
	MaxWatchers int

	// ReloadTimeout for file reload operations
	ReloadTimeout time.Duration

	// VerifyPermissions refuses reloads after group/world permission changes
	VerifyPermissions bool

	// DisableNotify skips fsnotify and relies on polling only
	DisableNotify bool
}

// DefaultWatchOptions returns the default file watching options
func DefaultWatchOptions() WatchOptions {
	return WatchOptions{
		PollInterval:      DefaultPollInterval,
		Debounce:          DefaultDebounce,
		MaxWatchers:       DefaultMaxWatchers,
		ReloadTimeout:     DefaultReloadTimeout,
		VerifyPermissions: true,
	}
}

// watcher manages file watching state
type watcher struct {
	mu               sync.RWMutex
	ctx              context.Context
	cancel           context.CancelFunc
	opts             WatchOptions
	filePath         string
	logger           *slog.Logger
	lastModTime      time.Time
	lastSize         int64
	lastMode         os.FileMode
	watching         atomic.Bool
	done             chan struct{} // closed when watchLoop returns
	reloadInProgress atomic.Bool
	watchers         map[int64]chan string // subscriber channels
	watcherID        atomic.Int64
	debounceTimer    *time.Timer
}

// AutoUpdate enables automatic reloading when the settings file changes
func (s *LayeredStore) AutoUpdate() {
	s.AutoUpdateWithOptions(DefaultWatchOptions())
}

// AutoUpdateWithOptions enables automatic reloading with custom options.
// It does nothing until a settings file has been loaded.
func (s *LayeredStore) AutoUpdateWithOptions(opts WatchOptions) {
	if opts.PollInterval < MinPollInterval {
		opts.PollInterval = MinPollInterval
	}
	if opts.MaxWatchers <= 0 {
		opts.MaxWatchers = DefaultMaxWatchers
	}
	if opts.ReloadTimeout <= 0 {
		opts.ReloadTimeout = DefaultReloadTimeout
	}

	s.mutex.Lock()
	filePath := s.configFilePath
	if filePath == "" {
		s.mutex.Unlock()
		return
	}

	var stale *watcher
	if s.watcher != nil && s.watcher.filePath != filePath {
		stale = s.watcher
		s.watcher = nil
	}

	if s.watcher == nil {
		ctx, cancel := context.WithCancel(context.Background())
		w := &watcher{
			ctx:      ctx,
			cancel:   cancel,
			opts:     opts,
			filePath: filePath,
			done:     make(chan struct{}),
			logger:   s.logger.With("component", "watcher", "file", filePath),
			watchers: make(map[int64]chan string),
		}
		if info, err := os.Stat(filePath); err == nil {
			w.lastModTime = info.ModTime()
			w.lastSize = info.Size()
			w.lastMode = info.Mode()
		}
		// Mark running before returning so IsWatching is immediately accurate
		w.watching.Store(true)
		s.watcher = w
		go w.watchLoop(s)
	}
	s.mutex.Unlock()

	if stale != nil {
		stale.stop()
	}
}

// StopAutoUpdate stops automatic reloading and closes all subscriber channels
func (s *LayeredStore) StopAutoUpdate() {
	s.mutex.Lock()
	w := s.watcher
	s.watcher = nil
	s.mutex.Unlock()

	if w != nil {
		w.stop()
	}
}

// Watch returns a channel that receives paths of changed keys
func (s *LayeredStore) Watch() <-chan string {
	return s.WatchWithOptions(DefaultWatchOptions())
}

// WatchFile stops any existing watcher, loads filePath and watches it.
// An optional format hint fixes the file format.
func (s *LayeredStore) WatchFile(filePath string, formatHint ...string) error {
	s.mutex.RLock()
	opts := DefaultWatchOptions()
	if s.watcher != nil {
		opts = s.watcher.opts
	}
	s.mutex.RUnlock()

	s.StopAutoUpdate()

	if len(formatHint) > 0 {
		if err := s.SetFileFormat(formatHint[0]); err != nil {
			return fmt.Errorf("invalid format hint: %w", err)
		}
	}

	if err := s.LoadFile(filePath); err != nil {
		return fmt.Errorf("failed to load new file for watching: %w", err)
	}

	s.AutoUpdateWithOptions(opts)
	return nil
}

// WatchWithOptions subscribes to changes, starting the watcher with opts if needed.
// Without a loaded file the returned channel is closed.
func (s *LayeredStore) WatchWithOptions(opts WatchOptions) <-chan string {
	s.mutex.RLock()
	w := s.watcher
	filePath := s.configFilePath
	s.mutex.RUnlock()

	if filePath == "" {
		return closedChannel()
	}

	if w != nil && w.filePath == filePath && w.watching.Load() {
		return w.subscribe()
	}

	s.AutoUpdateWithOptions(opts)

	s.mutex.RLock()
	w = s.watcher
	s.mutex.RUnlock()

	if w == nil {
		return closedChannel()
	}
	return w.subscribe()
}

// IsWatching reports whether auto-update is running
func (s *LayeredStore) IsWatching() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.watcher != nil && s.watcher.watching.Load()
}

// WatcherCount returns the number of active watch channels
func (s *LayeredStore) WatcherCount() int {
	s.mutex.RLock()
	w := s.watcher
	s.mutex.RUnlock()

	if w == nil {
		return 0
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.watchers)
}

func closedChannel() <-chan string {
	ch := make(chan string)
	close(ch)
	return ch
}

// watchLoop reacts to fsnotify events on the file's directory and polls as a fallback
func (w *watcher) watchLoop(s *LayeredStore) {
	defer close(w.done)
	defer w.watching.Store(false)

	var events <-chan fsnotify.Event
	var errs <-chan error
	if !w.opts.DisableNotify {
		fsw, err := fsnotify.NewWatcher()
		if err != nil {
			w.logger.Warn("fsnotify unavailable, polling only", "error", err)
		} else {
			defer fsw.Close()
			// Watching the directory survives editors that replace the file
			if err := fsw.Add(filepath.Dir(w.filePath)); err != nil {
				w.logger.Warn("cannot watch directory, polling only", "error", err)
			} else {
				events = fsw.Events
				errs = fsw.Errors
			}
		}
	}

	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	target := filepath.Clean(w.filePath)
	for {
		select {
		case <-w.ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Clean(ev.Name) == target {
				w.logger.Debug("file event", "op", ev.Op.String())
				w.checkAndReload(s)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			w.logger.Warn("fsnotify error", "error", err)
		case <-ticker.C:
			w.checkAndReload(s)
		}
	}
}

// checkAndReload checks if the file changed and schedules a debounced reload
func (w *watcher) checkAndReload(s *LayeredStore) {
	info, err := os.Stat(w.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			w.mu.Lock()
			known := !w.lastModTime.IsZero()
			w.lastModTime = time.Time{}
			w.lastSize = 0
			w.mu.Unlock()
			if known {
				w.logger.Warn("settings file deleted")
				w.notifyWatchers(EventFileDeleted)
			}
		}
		return
	}

	w.mu.Lock()
	changed := !info.ModTime().Equal(w.lastModTime) || info.Size() != w.lastSize

	if w.opts.VerifyPermissions && w.lastMode != 0 && info.Mode() != w.lastMode {
		if (info.Mode() & 0077) != (w.lastMode & 0077) {
			w.lastMode = info.Mode()
			w.mu.Unlock()
			w.logger.Warn("settings file permissions changed, reload skipped", "mode", info.Mode().String())
			w.notifyWatchers(EventPermissionsChanged)
			return
		}
	}

	if changed {
		w.lastModTime = info.ModTime()
		w.lastSize = info.Size()
		w.lastMode = info.Mode()

		if w.debounceTimer != nil {
			w.debounceTimer.Stop()
		}
		w.debounceTimer = time.AfterFunc(w.opts.Debounce, func() {
			w.performReload(s)
		})
	}
	w.mu.Unlock()
}

// performReload reloads the file and notifies subscribers of every changed key
func (w *watcher) performReload(s *LayeredStore) {
	if !w.reloadInProgress.CompareAndSwap(false, true) {
		return
	}
	defer w.reloadInProgress.Store(false)

	ctx, cancel := context.WithTimeout(w.ctx, w.opts.ReloadTimeout)
	defer cancel()

	oldValues := s.snapshot()

	done := make(chan error, 1)
	go func() {
		done <- s.loadFile(w.filePath)
	}()

	select {
	case err := <-done:
		if err != nil {
			w.logger.Error("reload failed", "error", err)
			w.notifyWatchers(EventReloadErrorPrefix + err.Error())
			return
		}

		changed := changedPaths(oldValues, s.snapshot())
		for _, path := range changed {
			w.notifyWatchers(path)
		}
		w.logger.Info("settings reloaded", "changed", len(changed))

	case <-ctx.Done():
		w.logger.Error("reload timed out", "timeout", w.opts.ReloadTimeout)
		w.notifyWatchers(EventReloadTimeout)
	}
}

// changedPaths lists, sorted, the keys added, removed or altered between two snapshots.
func changedPaths(before, after map[string]string) []string {
	var paths []string
	for path, v := range after {
		if old, ok := before[path]; !ok || old != v {
			paths = append(paths, path)
		}
	}
	for path := range before {
		if _, ok := after[path]; !ok {
			paths = append(paths, path)
		}
	}
	slices.Sort(paths)
	return paths
}

// subscribe creates a new subscriber channel, closed when the watcher stops
func (w *watcher) subscribe() <-chan string {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.watchers) >= w.opts.MaxWatchers {
		return closedChannel()
	}

	ch := make(chan string, 10)
	id := w.watcherID.Add(1)
	w.watchers[id] = ch

	go func() {
		<-w.ctx.Done()
		w.mu.Lock()
		delete(w.watchers, id)
		close(ch)
		w.mu.Unlock()
	}()

	return ch
}

// notifyWatchers sends a notification to all subscribers without blocking
func (w *watcher) notifyWatchers(path string) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for id, ch := range w.watchers {
		select {
		case ch <- path:
		default:
			w.logger.Debug("subscriber channel full, notification dropped", "subscriber", id, "path", path)
		}
	}
}

// stop terminates the watcher
func (w *watcher) stop() {
	if w.cancel != nil {
		w.cancel()
	}

	w.mu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
	w.mu.Unlock()

	select {
	case <-w.done:
	case <-time.After(ShutdownTimeout):
		w.logger.Warn("watcher shutdown timeout", "timeout", ShutdownTimeout)
	}
}
