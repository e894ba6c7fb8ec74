// FILE: lixenwraith/appsettings/timing.go
package appsettings

import "time"

// Timing for file watching and KV sync shutdown.
const (
	MinPollInterval      = 100 * time.Millisecond // floor for stat polling
	ShutdownTimeout      = 100 * time.Millisecond // wait for background loops to exit
	DefaultDebounce      = 500 * time.Millisecond
	DefaultPollInterval  = time.Second
	DefaultReloadTimeout = 5 * time.Second
)

// debounceSettleMultiplier is how many debounce periods tests wait for a reload to settle.
const debounceSettleMultiplier = 3
