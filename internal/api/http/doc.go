// Package http holds the bridge's gin handlers: /status, /print and the
// unknown-command fallback.
package http
