package launcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/aegis-lab/bridge/internal/infrastructure/monitoring"
	"github.com/aegis-lab/bridge/internal/platform"
)

// Options configures the trigger action.
type Options struct {
	ExecutablePath string
	ProcessName    string
	Args           []string
	// Timeout bounds one trigger, including OS queries. Zero disables it.
	Timeout time.Duration
	// Dedupe makes concurrent triggers share a single query-then-launch.
	Dedupe bool
}

// Launcher focuses the running target application or launches a new one.
type Launcher struct {
	controller platform.WindowController
	starter    platform.Starter
	opts       Options
	logger     *zap.Logger
	metrics    *monitoring.Metrics
	group      singleflight.Group
	stat       func(string) (os.FileInfo, error)
}

// New creates a launcher.
func New(controller platform.WindowController, starter platform.Starter, opts Options) *Launcher {
	return &Launcher{
		controller: controller,
		starter:    starter,
		opts:       opts,
		logger:     zap.NewNop(),
		stat:       os.Stat,
	}
}

// WithLogger sets the logger
func (l *Launcher) WithLogger(logger *zap.Logger) *Launcher {
	if logger != nil {
		l.logger = logger
	}
	return l
}

// WithMetrics adds metrics tracking to the launcher
func (l *Launcher) WithMetrics(metrics *monitoring.Metrics) *Launcher {
	l.metrics = metrics
	return l
}

// Trigger focuses the target if it is running with a window, otherwise
// launches it. The error is nil exactly when the result is a success; it is
// ErrExecutableNotFound (wrapped) or an *ActionError otherwise.
func (l *Launcher) Trigger(ctx context.Context) (Result, error) {
	if !l.opts.Dedupe {
		return l.trigger(ctx)
	}

	// The shared call must not die with whichever request happened to start it.
	shared := context.WithoutCancel(ctx)
	v, err, joined := l.group.Do(l.opts.ProcessName, func() (interface{}, error) {
		return l.trigger(shared)
	})
	if joined && l.metrics != nil {
		l.metrics.IncTriggersShared()
	}
	return v.(Result), err
}

func (l *Launcher) trigger(ctx context.Context) (res Result, err error) {
	if l.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	l.logger.Info("Received command, checking for target",
		zap.String("process", l.opts.ProcessName),
		zap.String("backend", l.controller.Name()),
	)

	defer func() {
		if r := recover(); r != nil {
			res = Result{Outcome: OutcomeError, Probe: res.Probe}
			err = &ActionError{Op: "trigger", Err: fmt.Errorf("panic: %v", r)}
		}
		l.finish(res, err, time.Since(start))
	}()

	return l.run(ctx)
}

func (l *Launcher) run(ctx context.Context) (Result, error) {
	h, err := l.controller.FindRunningProcess(ctx, l.opts.ProcessName)
	if err != nil {
		return Result{Outcome: OutcomeError}, &ActionError{Op: "query", Err: err}
	}

	probe := ProbeNotRunning
	if h != nil {
		probe = ProbeNoWindow
		if h.HasWindow() {
			ok, err := l.controller.Focus(ctx, *h)
			if err != nil {
				return Result{Outcome: OutcomeError, Probe: ProbeFocused, PID: h.PID}, &ActionError{Op: "focus", Err: err}
			}
			if ok {
				return Result{Outcome: OutcomeFocused, Probe: ProbeFocused, PID: h.PID}, nil
			}
		}
	}

	return l.launch(ctx, probe)
}

func (l *Launcher) launch(ctx context.Context, probe Probe) (Result, error) {
	path := l.opts.ExecutablePath
	l.logger.Info("Launching new instance",
		zap.String("probe", string(probe)),
		zap.String("path", path),
	)

	// Any stat failure leaves nothing to launch, not only ENOENT.
	if _, err := l.stat(path); err != nil {
		return Result{Outcome: OutcomeNotFound, Probe: probe}, fmt.Errorf("%w: %s: %v", ErrExecutableNotFound, path, err)
	}

	if !l.opts.Dedupe {
		// Without dedup two concurrent triggers can both get here and launch.
		l.logger.Debug("Launching without trigger dedup")
	}

	pid, err := l.starter.Start(ctx, path, l.opts.Args)
	if err != nil {
		return Result{Outcome: OutcomeError, Probe: probe}, &ActionError{Op: "launch", Err: err}
	}
	return Result{Outcome: OutcomeLaunched, Probe: probe, PID: pid}, nil
}

func (l *Launcher) finish(res Result, err error, elapsed time.Duration) {
	if l.metrics != nil {
		l.metrics.RecordTrigger(res.Outcome.String(), string(res.Probe), elapsed)
	}

	fields := []zap.Field{
		zap.String("outcome", res.Outcome.String()),
		zap.String("probe", string(res.Probe)),
		zap.Int("pid", res.PID),
		zap.Duration("elapsed", elapsed),
	}
	switch {
	case err == nil:
		l.logger.Info("Trigger complete", fields...)
	case errors.Is(err, ErrExecutableNotFound):
		l.logger.Warn("Executable not found, check the target path",
			append(fields, zap.String("path", l.opts.ExecutablePath))...)
	default:
		l.logger.Error("Trigger failed", append(fields, zap.Error(err))...)
	}
}
