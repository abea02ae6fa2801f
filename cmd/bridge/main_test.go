package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aegis-lab/bridge/internal/infrastructure/config"
	"github.com/aegis-lab/bridge/internal/infrastructure/logging"
	"github.com/aegis-lab/bridge/internal/infrastructure/server"
	"github.com/aegis-lab/bridge/internal/platform"
)

type notRunning struct{}

func (notRunning) FindRunningProcess(context.Context, string) (*platform.Handle, error) {
	return nil, nil
}

func (notRunning) Focus(context.Context, platform.Handle) (bool, error) { return false, nil }

func (notRunning) Name() string { return "test" }

type okStarter struct{}

func (okStarter) Start(context.Context, string, []string) (int, error) { return 31337, nil }

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

// syncBuffer lets a test read output while serve is still writing it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func runCLIContext(ctx context.Context, out io.Writer, args ...string) error {
	cmd := newRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

// serveEnv points serve at a free loopback port and a private lock file.
func serveEnv(t *testing.T) (port int, lockPath string) {
	t.Helper()
	isolateEnv(t)
	port = freePort(t)
	lockPath = filepath.Join(t.TempDir(), "bridge.lock")
	t.Setenv("BRIDGE_PORT", strconv.Itoa(port))
	t.Setenv("BRIDGE_LOCK_PATH", lockPath)
	t.Setenv("LOG_DEV", "false")
	t.Setenv("LOG_LEVEL", "error")
	return port, lockPath
}

// isolateEnv keeps host BRIDGE_* settings out of config loading.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"BRIDGE_HOST", "BRIDGE_PORT", "BRIDGE_LOCK_PATH",
		"BRIDGE_TARGET_PATH", "BRIDGE_TARGET_NAME", "BRIDGE_PROCESS_NAME",
		"BRIDGE_TARGET_ARGS", "BRIDGE_ACTION_TIMEOUT_SECONDS", "BRIDGE_DEDUPE",
		"LOG_LEVEL", "LOG_DEV", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
		"RATE_LIMIT_ENABLED", "METRICS_ADDR",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func startBridge(t *testing.T, targetPath string) string {
	t.Helper()
	cfg := config.Default()
	cfg.Target.Path = targetPath
	cfg.Target.ProcessName = "bambu-studio"
	cfg.Server.LockPath = ""

	srv, err := server.NewServer(cfg,
		server.WithController(notRunning{}),
		server.WithStarter(okStarter{}),
		server.WithLogger(logging.NewNop()),
		server.WithRegistry(prometheus.NewRegistry()),
	)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

func TestStatusCommand(t *testing.T) {
	isolateEnv(t)
	url := startBridge(t, "/opt/slicer/bambu-studio")

	out, err := runCLI(t, "--url", url, "status")

	require.NoError(t, err)
	assert.Contains(t, out, "ready")
	assert.Contains(t, out, "Bambu Lab P1S")
	assert.Contains(t, out, url)
}

func TestTriggerCommand(t *testing.T) {
	isolateEnv(t)
	exe := filepath.Join(t.TempDir(), "bambu-studio")
	require.NoError(t, os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o755))

	t.Run("launched", func(t *testing.T) {
		out, err := runCLI(t, "--url", startBridge(t, exe), "trigger")
		require.NoError(t, err)
		assert.Contains(t, out, "Launched")
		assert.Contains(t, out, "yes")
	})

	t.Run("executable missing", func(t *testing.T) {
		missing := filepath.Join(t.TempDir(), "absent")
		out, err := runCLI(t, "--url", startBridge(t, missing), "print")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Executable not found.")
		assert.Contains(t, out, "no")
	})
}

func TestStatusCommandWithoutBridge(t *testing.T) {
	isolateEnv(t)
	ts := httptest.NewServer(nil)
	url := ts.URL
	ts.Close()

	_, err := runCLI(t, "--url", url, "status")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "bridge not reachable")
}

func TestConfigShowLayersFileAndEnv(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "bridge.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
port = 9100

[target]
name = "Bambu Lab A1"
path = "/opt/orca/orca-slicer"
`), 0o644))
	t.Setenv("BRIDGE_TARGET_NAME", "Workshop P1S")

	out, err := runCLI(t, "--config", path, "config", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "127.0.0.1:9100")
	assert.Contains(t, out, "Workshop P1S")
	assert.NotContains(t, out, "Bambu Lab A1")
	assert.Contains(t, out, "orca-slicer")
}

func TestConfigValidateRejectsBadPort(t *testing.T) {
	isolateEnv(t)
	t.Setenv("BRIDGE_PORT", "70000")

	_, err := runCLI(t, "config", "validate")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestApplyServeFlags(t *testing.T) {
	isolateEnv(t)
	t.Setenv("LOG_DEV", "false")

	cfg := config.Default()
	cfg.Target.ProcessName = config.ProcessNameFromPath(cfg.Target.Path)

	cmd := newServeCommand(newCommandContext(new(string), new(string)))
	require.NoError(t, cmd.ParseFlags([]string{
		"--port", "9001",
		"--target", `C:\Slicers\orca-slicer.exe`,
		"--name", "Garage X1",
	}))

	var flags serveFlags
	flags.port, _ = cmd.Flags().GetInt("port")
	flags.target, _ = cmd.Flags().GetString("target")
	flags.name, _ = cmd.Flags().GetString("name")
	require.NoError(t, applyServeFlags(cmd, cfg, flags))

	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, `C:\Slicers\orca-slicer.exe`, cfg.Target.Path)
	assert.Equal(t, "orca-slicer", cfg.Target.ProcessName)
	assert.Equal(t, "Garage X1", cfg.Target.Name)
	assert.False(t, cfg.Logging.Development)
}

func TestApplyServeFlagsKeepsExplicitProcessName(t *testing.T) {
	isolateEnv(t)
	t.Setenv("LOG_DEV", "false")

	cfg := config.Default()
	cfg.Target.ProcessName = "SlicerMain"

	cmd := newServeCommand(newCommandContext(new(string), new(string)))
	require.NoError(t, cmd.ParseFlags([]string{"--target", "/opt/bambu/bambu-studio"}))

	flags := serveFlags{target: "/opt/bambu/bambu-studio"}
	require.NoError(t, applyServeFlags(cmd, cfg, flags))

	assert.Equal(t, "SlicerMain", cfg.Target.ProcessName)
}

func TestApplyServeFlagsRejectsInvalid(t *testing.T) {
	isolateEnv(t)

	cfg := config.Default()
	cmd := newServeCommand(newCommandContext(new(string), new(string)))
	require.NoError(t, cmd.ParseFlags([]string{"--port", "0"}))

	err := applyServeFlags(cmd, cfg, serveFlags{port: 0})
	assert.Error(t, err)
}

func TestServeLifecycle(t *testing.T) {
	port, _ := serveEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() { done <- runCLIContext(ctx, out, "serve", "--name", "Garage X1") }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Aegis Bridge running on")
	}, 5*time.Second, 20*time.Millisecond)
	assert.Contains(t, out.String(), fmt.Sprintf("127.0.0.1:%d", port))

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/status", port))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.JSONEq(t, `{"status":"ready","printer":"Garage X1"}`, string(body))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not stop")
	}
	assert.True(t, strings.HasSuffix(out.String(), "Bridge Closed.\n"), out.String())
}

func TestServeSecondInstanceStaysQuiet(t *testing.T) {
	_, lockPath := serveEnv(t)

	held := flock.New(lockPath)
	ok, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, ok)
	defer held.Unlock()

	out := &syncBuffer{}
	err = runCLIContext(context.Background(), out, "serve")

	require.ErrorIs(t, err, server.ErrAlreadyRunning)
	assert.NotContains(t, out.String(), "running on")
	assert.NotContains(t, out.String(), "Bridge Closed.")
}
