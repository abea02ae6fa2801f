//go:build !unix && !windows

package platform

import "syscall"

func detachedAttr() *syscall.SysProcAttr {
	return nil
}
