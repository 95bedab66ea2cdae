// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/siliconalloy/alloy/internal/config"
	"github.com/siliconalloy/alloy/internal/daemon"
	"github.com/siliconalloy/alloy/internal/rpc"
	"github.com/siliconalloy/alloy/internal/testutil"
)

// lockedBuffer lets the daemon log while the test reads.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func daemonConfig(t *testing.T) *config.Config {
	t.Helper()

	data := t.TempDir()
	runtimes := filepath.Join(data, "runtime")
	testutil.FakeRuntimeTree(t, runtimes, "x86_64", "8.0")

	return &config.Config{
		SocketPath: testutil.SocketPath(t),
		DataDir:    data,
		RuntimeDir: runtimes,
		RecipeDir:  filepath.Join(data, "recipes"),
		LogLevel:   config.LogLevelDebug,
		LogFile:    true,
		Launcher:   config.LauncherConfig{Debug: config.DefaultDebug},
	}
}

// waitForDaemon pings until the daemon answers or the deadline passes.
func waitForDaemon(t *testing.T, client *rpc.Client) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for {
		var res daemon.PingResult
		err := client.Call(context.Background(), daemon.MethodPing, nil, &res)
		if err == nil && res.Status == "ok" {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("daemon did not come up: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRunDaemon_ServesAndStops(t *testing.T) {
	t.Parallel()

	cfg := daemonConfig(t)
	var stderr lockedBuffer

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- runDaemon(ctx, cfg, &stderr) }()

	client := rpc.NewClient(cfg.SocketPath)
	waitForDaemon(t, client)

	var info daemon.InfoResult
	if err := client.Call(ctx, daemon.MethodInfo, nil, &info); err != nil {
		t.Fatalf("info error = %v", err)
	}
	if info.Version != Version || info.BottleRoot != cfg.BottleDir() || len(info.Runtimes) != 1 {
		t.Errorf("info = %+v", info)
	}

	var created daemon.BottleResult
	if err := client.Call(ctx, daemon.MethodBottleCreate, daemon.CreateParams{Name: "Steam", WineVersion: "8.0"}, &created); err != nil {
		t.Fatalf("create error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.BottleDir(), created.Bottle.ID.String())); err != nil {
		t.Errorf("bottle directory missing: %v", err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("runDaemon() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runDaemon() did not return after cancel")
	}

	if _, err := os.Stat(cfg.SocketPath); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("socket still present after stop: %v", err)
	}

	logged, err := os.ReadFile(cfg.LogFilePath())
	if err != nil {
		t.Fatalf("read daemon log: %v", err)
	}
	for _, s := range []string{"daemon listening", "rpc", "daemon stopped"} {
		if !strings.Contains(string(logged), s) {
			t.Errorf("log file missing %q:\n%s", s, logged)
		}
	}
	if !strings.Contains(stderr.String(), "daemon listening") {
		t.Error("log output should also go to stderr")
	}
}

func TestRunDaemon_WarnsWithoutRuntimes(t *testing.T) {
	t.Parallel()

	cfg := daemonConfig(t)
	cfg.RuntimeDir = filepath.Join(cfg.DataDir, "empty")
	cfg.LogFile = false
	var stderr lockedBuffer

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runDaemon(ctx, cfg, &stderr) }()

	waitForDaemon(t, rpc.NewClient(cfg.SocketPath))
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("runDaemon() error = %v", err)
	}

	if !strings.Contains(stderr.String(), "no wine runtimes discovered") {
		t.Errorf("stderr = %s", stderr.String())
	}
	if _, err := os.Stat(cfg.LogDir()); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("log dir created with log_file disabled: %v", err)
	}
}

func TestNewDaemonLogger_InvalidLevel(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{LogLevel: "loud"}
	if _, _, err := newDaemonLogger(cfg, &bytes.Buffer{}); !errors.Is(err, config.ErrInvalidLogLevel) {
		t.Errorf("newDaemonLogger() error = %v, want ErrInvalidLogLevel", err)
	}
}
