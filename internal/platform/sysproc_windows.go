//go:build windows

package platform

import (
	"syscall"

	"golang.org/x/sys/windows"
)

// detachedAttr gives the child its own process group and no console, so
// closing the bridge console window leaves it running.
func detachedAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		CreationFlags: windows.CREATE_NEW_PROCESS_GROUP | windows.DETACHED_PROCESS,
	}
}
