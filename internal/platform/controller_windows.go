//go:build windows

package platform

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"unsafe"

	"go.uber.org/zap"
	"golang.org/x/sys/windows"
)

const (
	swRestore = 9
	gwOwner   = 4
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procShowWindow          = user32.NewProc("ShowWindow")
	procSetForegroundWindow = user32.NewProc("SetForegroundWindow")
	procGetWindow           = user32.NewProc("GetWindow")
	procIsIconic            = user32.NewProc("IsIconic")
)

// EnumWindows callbacks are a finite resource, so a single callback is shared
// and guarded by enumMu.
var (
	enumMu       sync.Mutex
	enumPID      uint32
	enumFound    windows.HWND
	enumCallback = windows.NewCallback(func(hwnd windows.HWND, _ uintptr) uintptr {
		var pid uint32
		if _, err := windows.GetWindowThreadProcessId(hwnd, &pid); err != nil || pid != enumPID {
			return 1
		}
		if !windows.IsWindowVisible(hwnd) {
			return 1
		}
		// Owned windows are dialogs and tool windows, not the main window.
		if owner, _, _ := procGetWindow.Call(uintptr(hwnd), gwOwner); owner != 0 {
			return 1
		}
		enumFound = hwnd
		return 0
	})
)

// WindowsController implements WindowController with user32 and Toolhelp32.
type WindowsController struct {
	logger *zap.Logger
}

// NewWindowController creates the WindowController for Windows.
func NewWindowController(logger *zap.Logger) WindowController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WindowsController{logger: logger}
}

// Name returns the backend name.
func (w *WindowsController) Name() string {
	return "win32"
}

// FindRunningProcess snapshots the process table and returns the first
// instance of name, preferring one that owns a visible top-level window.
func (w *WindowsController) FindRunningProcess(ctx context.Context, name string) (*Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pids, err := processIDsByName(name)
	if err != nil {
		return nil, err
	}
	if len(pids) == 0 {
		return nil, nil
	}

	for _, pid := range pids {
		if hwnd := mainWindow(pid); hwnd != 0 {
			return &Handle{PID: int(pid), Window: WindowID(hwnd)}, nil
		}
	}
	return &Handle{PID: int(pids[0])}, nil
}

// Focus restores a minimized window and brings it to the foreground.
func (w *WindowsController) Focus(ctx context.Context, h Handle) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	hwnd := windows.HWND(h.Window)
	if hwnd == 0 || !windows.IsWindow(hwnd) {
		return false, nil
	}

	if iconic, _, _ := procIsIconic.Call(uintptr(hwnd)); iconic != 0 {
		procShowWindow.Call(uintptr(hwnd), swRestore)
	}
	// Windows may refuse foreground activation and flash the taskbar button
	// instead; the window still exists, so it counts as focused.
	if ok, _, _ := procSetForegroundWindow.Call(uintptr(hwnd)); ok == 0 {
		w.logger.Debug("Foreground activation refused, taskbar flashed",
			zap.Int("pid", h.PID),
			zap.Uint64("window", uint64(h.Window)),
		)
	}
	return true, nil
}

func processIDsByName(name string) ([]uint32, error) {
	snapshot, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return nil, fmt.Errorf("process snapshot: %w", err)
	}
	defer windows.CloseHandle(snapshot)

	var entry windows.ProcessEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))

	if err := windows.Process32First(snapshot, &entry); err != nil {
		if err == windows.ERROR_NO_MORE_FILES {
			return nil, nil
		}
		return nil, fmt.Errorf("process enumeration: %w", err)
	}

	var pids []uint32
	for {
		exe := windows.UTF16ToString(entry.ExeFile[:])
		if strings.EqualFold(strings.TrimSuffix(exe, filepath.Ext(exe)), name) {
			pids = append(pids, entry.ProcessID)
		}
		if err := windows.Process32Next(snapshot, &entry); err != nil {
			if err == windows.ERROR_NO_MORE_FILES {
				break
			}
			return nil, fmt.Errorf("process enumeration: %w", err)
		}
	}
	return pids, nil
}

func mainWindow(pid uint32) windows.HWND {
	enumMu.Lock()
	defer enumMu.Unlock()

	enumPID = pid
	enumFound = 0
	// EnumWindows reports an error when the callback stops early, which is
	// exactly the found case.
	_ = windows.EnumWindows(enumCallback, nil)
	return enumFound
}
