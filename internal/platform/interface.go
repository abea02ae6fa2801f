package platform

import "context"

// WindowID is a platform-neutral top-level window identifier. Zero means the
// process exposes no window.
type WindowID uint64

// Handle identifies a running instance of the target application.
type Handle struct {
	PID    int
	Window WindowID
}

// HasWindow reports whether the instance exposes a focusable window.
func (h Handle) HasWindow() bool {
	return h.Window != 0
}

// WindowController abstracts process lookup and window focus across platforms.
type WindowController interface {
	// FindRunningProcess returns the first running process whose name matches,
	// or nil when none is running.
	FindRunningProcess(ctx context.Context, name string) (*Handle, error)
	// Focus restores the window if minimized and raises it to the foreground.
	// It returns false when the window no longer exists.
	Focus(ctx context.Context, h Handle) (bool, error)
	// Name returns the backend name for logging.
	Name() string
}

// Starter launches the target executable.
type Starter interface {
	Start(ctx context.Context, path string, args []string) (int, error)
}
