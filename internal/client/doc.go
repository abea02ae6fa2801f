// Package client is a small resty client for the bridge endpoints, used by
// the status and trigger CLI commands.
package client
