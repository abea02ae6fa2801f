//go:build linux

package platform

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/prometheus/procfs"
	"go.uber.org/zap"
)

// Kernel truncates /proc/<pid>/comm to 15 bytes.
const commLen = 15

// errNoDisplay means xdotool is installed but cannot reach an X server,
// as under Wayland or on a headless host.
var errNoDisplay = errors.New("no X display")

// LinuxController implements WindowController with /proc and xdotool.
type LinuxController struct {
	procRoot string
	run      commandRunner
	lookPath func(string) (string, error)
	logger   *zap.Logger
}

// NewWindowController creates the WindowController for Linux.
func NewWindowController(logger *zap.Logger) WindowController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LinuxController{
		procRoot: procfs.DefaultMountPoint,
		run:      execRunner,
		lookPath: exec.LookPath,
		logger:   logger,
	}
}

// Name returns the backend name.
func (l *LinuxController) Name() string {
	return "procfs+xdotool"
}

// FindRunningProcess scans /proc for a process whose comm or executable base
// name matches, then asks xdotool for a visible window owned by it.
func (l *LinuxController) FindRunningProcess(ctx context.Context, name string) (*Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pids, err := l.processIDsByName(name)
	if err != nil {
		return nil, err
	}
	if len(pids) == 0 {
		return nil, nil
	}

	for _, pid := range pids {
		wid, err := l.visibleWindow(ctx, pid)
		if errors.Is(err, errNoDisplay) {
			l.log().Warn("xdotool cannot open a display, treating target as windowless",
				zap.Int("pid", pid),
				zap.Error(err),
			)
			return &Handle{PID: pids[0]}, nil
		}
		if err != nil {
			return nil, err
		}
		if wid != 0 {
			return &Handle{PID: pid, Window: wid}, nil
		}
	}
	return &Handle{PID: pids[0]}, nil
}

// Focus activates the window, which also maps it when minimized.
func (l *LinuxController) Focus(ctx context.Context, h Handle) (bool, error) {
	if !h.HasWindow() {
		return false, nil
	}
	if !l.hasXdotool() {
		return false, nil
	}

	id := strconv.FormatUint(uint64(h.Window), 10)
	if _, err := l.run(ctx, "xdotool", "getwindowname", id); err != nil {
		// Window vanished between lookup and focus.
		return false, nil
	}
	if _, err := l.run(ctx, "xdotool", "windowactivate", id); err != nil {
		return false, fmt.Errorf("activate window %s: %w", id, err)
	}
	return true, nil
}

func (l *LinuxController) processIDsByName(name string) ([]int, error) {
	fs, err := procfs.NewFS(l.procRoot)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.procRoot, err)
	}
	procs, err := fs.AllProcs()
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	short := name
	if len(short) > commLen {
		short = short[:commLen]
	}

	var pids []int
	for _, p := range procs {
		// Processes exit during the scan; unreadable entries are skipped.
		if comm, err := p.Comm(); err == nil && comm == short {
			pids = append(pids, p.PID)
			continue
		}
		if exe, err := p.Executable(); err == nil && exe != "" && matchesExecutable(exe, name) {
			pids = append(pids, p.PID)
		}
	}
	sort.Ints(pids)
	return pids, nil
}

func (l *LinuxController) visibleWindow(ctx context.Context, pid int) (WindowID, error) {
	if !l.hasXdotool() {
		return 0, nil
	}

	out, err := l.run(ctx, "xdotool", "search", "--onlyvisible", "--pid", strconv.Itoa(pid))
	if err != nil {
		// Display failures also exit 1, so they are told apart by stderr.
		if isDisplayError(err) {
			return 0, fmt.Errorf("%w: %v", errNoDisplay, err)
		}
		// xdotool exits 1 when nothing matches.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return 0, nil
		}
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, fmt.Errorf("search windows for pid %d: %w", pid, err)
	}
	return firstWindowID(string(out)), nil
}

// xdotool is optional; without it every instance reports no window.
func (l *LinuxController) hasXdotool() bool {
	_, err := l.lookPath("xdotool")
	return err == nil
}

func (l *LinuxController) log() *zap.Logger {
	if l.logger == nil {
		return zap.NewNop()
	}
	return l.logger
}

func isDisplayError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Can't open display") ||
		strings.Contains(msg, "Failed creating new xdo instance")
}

func matchesExecutable(exe, name string) bool {
	base := filepath.Base(strings.TrimSuffix(exe, " (deleted)"))
	return base == name || strings.TrimSuffix(base, filepath.Ext(base)) == name
}

func firstWindowID(out string) WindowID {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if id, err := strconv.ParseUint(line, 10, 64); err == nil && id != 0 {
			return WindowID(id)
		}
	}
	return 0
}
