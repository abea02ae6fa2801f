// Package platform provides OS-specific process lookup, window focus and
// process launch for the bridge.
//
// Backends:
//   - windows: Toolhelp32 snapshot, EnumWindows, ShowWindow/SetForegroundWindow
//   - linux: /proc scan via prometheus/procfs, xdotool for window activation
//   - darwin: pgrep and osascript
//   - other: no lookup; the trigger always launches
//
// NewWindowController returns the backend for the running GOOS, logging
// through the given zap logger.
package platform
