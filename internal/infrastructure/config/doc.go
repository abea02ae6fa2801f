// Package config provides 12-factor configuration management for the bridge.
//
// Configuration is resolved in layers, lowest precedence first:
//   - Defaults (Default)
//   - Optional TOML file (--config)
//   - Environment variables
//   - CLI flags, applied by cmd/bridge
//
// Configuration Sections:
//   - Server: listener host, port and single-instance lock file
//   - Target: executable path, display name, process name, trigger timeout
//   - Logging: log level and output format
//   - RateLimit: global request rate limiting
//   - Metrics: optional prometheus listener
//
// Environment Variables:
//   - BRIDGE_HOST, BRIDGE_PORT, BRIDGE_LOCK_PATH
//   - BRIDGE_TARGET_PATH, BRIDGE_TARGET_NAME, BRIDGE_PROCESS_NAME,
//     BRIDGE_TARGET_ARGS, BRIDGE_ACTION_TIMEOUT_SECONDS, BRIDGE_DEDUPE
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - METRICS_ADDR
package config
