package filesystem_test

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sophialabs/testlabadvisor/internal/infrastructure/outbound/filesystem"
	"github.com/sophialabs/testlabadvisor/internal/testutil"
)

func startWatcher(t *testing.T, dir string, debounce time.Duration, ignore []string) *atomic.Int32 {
	t.Helper()
	var reloadCount atomic.Int32
	w, err := filesystem.NewWatcher(dir, debounce, &testutil.NoopLogger{}, ignore, func() {
		reloadCount.Add(1)
	})
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	t.Cleanup(w.Stop)
	w.Start()
	return &reloadCount
}

func TestWatcher_DetectsCSVCreate(t *testing.T) {
	tmpDir := t.TempDir()
	reloads := startWatcher(t, tmpDir, 100*time.Millisecond, nil)

	if err := os.WriteFile(filepath.Join(tmpDir, "refcode_fru_map.csv"), []byte("refcode\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	time.Sleep(500 * time.Millisecond)

	if reloads.Load() < 1 {
		t.Error("expected at least one reload")
	}
}

func TestWatcher_DetectsRulesModify(t *testing.T) {
	tmpDir := t.TempDir()
	f := filepath.Join(tmpDir, "advisory_rules.yaml")
	os.WriteFile(f, []byte("rules: []"), 0644)

	reloads := startWatcher(t, tmpDir, 100*time.Millisecond, nil)

	os.WriteFile(f, []byte("rules: [{category: dcm}]"), 0644)

	time.Sleep(500 * time.Millisecond)

	if reloads.Load() < 1 {
		t.Error("expected at least one reload on modify")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	tmpDir := t.TempDir()
	reloads := startWatcher(t, tmpDir, 100*time.Millisecond, []string{"test_log.csv"})

	os.WriteFile(filepath.Join(tmpDir, "readme.txt"), []byte("hello"), 0644)
	os.WriteFile(filepath.Join(tmpDir, "test_log.csv"), []byte("Timestamp\n"), 0644)

	time.Sleep(500 * time.Millisecond)

	if reloads.Load() != 0 {
		t.Error("expected no reload for ignored files")
	}
}

func TestWatcher_Debounce(t *testing.T) {
	tmpDir := t.TempDir()
	reloads := startWatcher(t, tmpDir, 200*time.Millisecond, nil)

	for i := range 5 {
		os.WriteFile(filepath.Join(tmpDir, "refcode_fru_map.csv"), []byte("refcode\n"+string(rune('a'+i))), 0644)
		time.Sleep(50 * time.Millisecond)
	}

	time.Sleep(500 * time.Millisecond)

	count := reloads.Load()
	if count > 2 {
		t.Errorf("expected 1-2 reloads (debounced), got %d", count)
	}
}
