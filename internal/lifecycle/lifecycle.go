package lifecycle

import "sync/atomic"

var (
	shuttingDown atomic.Bool
	mounted      atomic.Bool
)

// SetShuttingDown sets the shutdown flag. Call when SIGTERM/SIGINT is received or stdin closes.
// Health returns 503 with status shutting-down while true.
func SetShuttingDown(v bool) {
	shuttingDown.Store(v)
}

// IsShuttingDown returns true if the process is draining.
func IsShuttingDown() bool {
	return shuttingDown.Load()
}

// SetMounted records that the screen finished its first (default city) cycle.
func SetMounted(v bool) {
	mounted.Store(v)
}

// IsMounted reports whether the first cycle has finished. Health reports starting until then.
func IsMounted() bool {
	return mounted.Load()
}
