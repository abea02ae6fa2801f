//go:build darwin

package platform

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// DarwinController implements WindowController with pgrep and osascript.
// macOS does not expose window handles to unprivileged tools, so a running
// process is treated as owning a window keyed by its PID.
type DarwinController struct {
	run    commandRunner
	logger *zap.Logger
}

// NewWindowController creates the WindowController for macOS.
func NewWindowController(logger *zap.Logger) WindowController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DarwinController{run: execRunner, logger: logger}
}

// Name returns the backend name.
func (d *DarwinController) Name() string {
	return "osascript"
}

// FindRunningProcess looks up the lowest PID whose name matches exactly.
func (d *DarwinController) FindRunningProcess(ctx context.Context, name string) (*Handle, error) {
	out, err := d.run(ctx, "pgrep", "-x", name)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return nil, nil
		}
		return nil, fmt.Errorf("pgrep %s: %w", name, err)
	}

	pid := 0
	for _, line := range strings.Fields(string(out)) {
		n, err := strconv.Atoi(line)
		if err != nil {
			continue
		}
		if pid == 0 || n < pid {
			pid = n
		}
	}
	if pid == 0 {
		return nil, nil
	}
	return &Handle{PID: pid, Window: WindowID(pid)}, nil
}

// Focus makes the process frontmost, which also unhides its windows.
func (d *DarwinController) Focus(ctx context.Context, h Handle) (bool, error) {
	if !h.HasWindow() {
		return false, nil
	}
	script := fmt.Sprintf(
		`tell application "System Events" to set frontmost of (first process whose unix id is %d) to true`,
		h.PID,
	)
	if _, err := d.run(ctx, "osascript", "-e", script); err != nil {
		if strings.Contains(err.Error(), "Can’t get process") || strings.Contains(err.Error(), "Can't get process") {
			d.logger.Debug("Process exited before focus", zap.Int("pid", h.PID))
			return false, nil
		}
		return false, fmt.Errorf("osascript: %w", err)
	}
	return true, nil
}
