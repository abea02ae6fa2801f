//go:build !windows && !linux && !darwin

package platform

import (
	"context"

	"go.uber.org/zap"
)

// NullController reports the target as never running, so every trigger
// launches a new instance.
type NullController struct {
	logger *zap.Logger
}

// NewWindowController creates the fallback WindowController.
func NewWindowController(logger *zap.Logger) WindowController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NullController{logger: logger}
}

// Name returns the backend name.
func (n *NullController) Name() string {
	return "none"
}

// FindRunningProcess always reports not running.
func (n *NullController) FindRunningProcess(ctx context.Context, name string) (*Handle, error) {
	n.logger.Debug("No process lookup on this platform", zap.String("process", name))
	return nil, ctx.Err()
}

// Focus never succeeds; FindRunningProcess returns no handle to focus.
func (n *NullController) Focus(context.Context, Handle) (bool, error) {
	return false, nil
}
