//go:build e2e

package e2e_test

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/sophialabs/testlabadvisor/internal/app"
)

func projectRoot() string {
	_, file, _, _ := runtime.Caller(0)
	// file = <root>/test/e2e/testhelpers_test.go, go up 3 levels
	return filepath.Join(filepath.Dir(file), "..", "..")
}

// runningApp is a full application serving a private copy of the sample data.
type runningApp struct {
	baseURL string
	dataDir string
}

func startApp(t *testing.T) *runningApp {
	t.Helper()

	dataDir := filepath.Join(t.TempDir(), "data")
	if err := os.CopyFS(dataDir, os.DirFS(filepath.Join(projectRoot(), "data"))); err != nil {
		t.Fatalf("failed to copy sample data: %v", err)
	}

	cfg := app.DefaultConfig()
	cfg.DataDir = dataDir
	cfg.Port = freePort(t)
	cfg.LogOutput = io.Discard
	cfg.WatcherDebounce = 50 * time.Millisecond

	a, err := app.New(cfg)
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("app exited with error: %v", err)
		}
	})

	baseURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Port)
	waitFor(t, 5*time.Second, func() bool {
		resp, err := http.Get(baseURL + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	})
	return &runningApp{baseURL: baseURL, dataDir: dataDir}
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(25 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}
