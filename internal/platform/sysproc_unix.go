//go:build unix

package platform

import "syscall"

// detachedAttr starts the child in its own session so terminal signals aimed
// at the bridge (Ctrl-C) do not reach it.
func detachedAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
