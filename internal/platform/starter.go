package platform

import (
	"context"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ExecStarter launches the target as a detached child so it outlives both the
// request and the bridge itself. The child is reaped in the background.
type ExecStarter struct {
	// OnExit, when set, is called after a launched process exits.
	OnExit func(pid int, err error)
}

// NewStarter creates the default process starter.
func NewStarter() *ExecStarter {
	return &ExecStarter{}
}

// Start launches path with args and returns the child PID. ctx only gates the
// start; cancelling it later does not kill the child.
func (s *ExecStarter) Start(ctx context.Context, path string, args []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	name, argv := launchCommand(runtime.GOOS, path, args)
	cmd := exec.Command(name, argv...)
	if name == path {
		cmd.Dir = filepath.Dir(path)
	}
	cmd.SysProcAttr = detachedAttr()

	if err := cmd.Start(); err != nil {
		return 0, err
	}

	pid := cmd.Process.Pid
	go func() {
		err := cmd.Wait()
		if s.OnExit != nil {
			s.OnExit(pid, err)
		}
	}()
	return pid, nil
}

// launchCommand maps a target path to the command that starts it. macOS
// application bundles are directories and go through open(1).
func launchCommand(goos, path string, args []string) (string, []string) {
	if goos == "darwin" && strings.HasSuffix(strings.TrimRight(path, "/"), ".app") {
		argv := []string{"-a", path}
		if len(args) > 0 {
			argv = append(argv, "--args")
			argv = append(argv, args...)
		}
		return "open", argv
	}
	return path, args
}
