// Package main is the entry point for the Aegis bridge.
//
// The bridge lets the Aegis web UI drive the desktop slicer on the same
// machine: the browser polls /status and calls /print, which focuses the
// slicer window or launches the slicer.
//
//	Browser (Aegis UI) → bridge :8999 → slicer process / window
//
// Commands:
//   - serve: run the daemon until SIGINT or SIGTERM
//   - status, trigger: call a running daemon
//   - config show, config validate: inspect the effective configuration
//
// Configuration:
//   - Defaults, then --config TOML file, then environment, then flags
//
// Usage:
//
//	bridge serve --target "C:\Program Files\Bambu Studio\bambu-studio.exe"
//	bridge serve --dev --port 9000
//	bridge status
package main
