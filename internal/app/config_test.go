package app_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sophialabs/testlabadvisor/internal/app"
)

func TestDefaultConfig_HasSensibleValues(t *testing.T) {
	cfg := app.DefaultConfig()

	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, "refcode_fru_map.csv", cfg.ReferenceFile)
	assert.Equal(t, "se_command_library.csv", cfg.CommandsFile)
	assert.Equal(t, "test_log.csv", cfg.LogFile)
	assert.NotZero(t, cfg.Port)
	assert.NotZero(t, cfg.TraceSize)
	assert.NotEmpty(t, cfg.LogLevel)
	assert.NotZero(t, cfg.RateLimiterTTL)
	assert.NotZero(t, cfg.WatcherDebounce)
	assert.NotZero(t, cfg.SessionTTL)
	assert.NotZero(t, cfg.ReadTimeout)
	assert.NotZero(t, cfg.WriteTimeout)
	assert.NotZero(t, cfg.IdleTimeout)
	assert.NotZero(t, cfg.ShutdownTimeout)
	assert.NotEmpty(t, cfg.DefaultModel)
	assert.Empty(t, cfg.APIKey)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile_Overlays(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `data_dir: /srv/testlab
port: 9090
watcher_debounce: 2s
detail_url_template: https://docs.example.com/refcodes/{refcode}
cors_origins:
  - https://lab.example.com
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg := app.DefaultConfig()
	require.NoError(t, cfg.LoadFile(path))

	assert.Equal(t, "/srv/testlab", cfg.DataDir)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 2*time.Second, cfg.WatcherDebounce)
	assert.Equal(t, []string{"https://lab.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, "https://docs.example.com/refcodes/{refcode}", cfg.DetailURLTemplate)
	assert.Equal(t, "test_log.csv", cfg.LogFile, "keys absent from the file keep their value")
}

func TestLoadFile_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	cfg := app.DefaultConfig()
	require.NoError(t, cfg.LoadFile(path))
	assert.Equal(t, app.DefaultConfig().Port, cfg.Port)
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()
	cfg := app.DefaultConfig()

	assert.Error(t, cfg.LoadFile(filepath.Join(dir, "missing.yaml")))

	unknown := filepath.Join(dir, "unknown.yaml")
	require.NoError(t, os.WriteFile(unknown, []byte("prot: 80\n"), 0o644))
	assert.Error(t, cfg.LoadFile(unknown))

	secret := filepath.Join(dir, "secret.yaml")
	require.NoError(t, os.WriteFile(secret, []byte("api_key: nope\n"), 0o644))
	assert.Error(t, cfg.LoadFile(secret), "the API key is only read from the environment")
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		app.EnvAPIKey: " sk-test ",
		app.EnvModel:  "gpt-4o",
	}
	cfg := app.DefaultConfig()
	cfg.ApplyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "sk-test", cfg.APIKey)
	assert.Equal(t, "gpt-4o", cfg.DefaultModel)

	cfg = app.DefaultConfig()
	cfg.ApplyEnv(func(string) string { return "" })
	assert.Equal(t, app.DefaultConfig().DefaultModel, cfg.DefaultModel)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*app.Config)
	}{
		{"empty data dir", func(c *app.Config) { c.DataDir = " " }},
		{"empty reference file", func(c *app.Config) { c.ReferenceFile = "" }},
		{"empty log file", func(c *app.Config) { c.LogFile = "" }},
		{"port out of range", func(c *app.Config) { c.Port = 70000 }},
		{"zero trace size", func(c *app.Config) { c.TraceSize = 0 }},
		{"rate without burst", func(c *app.Config) { c.SubmitRate, c.SubmitBurst = 1, 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := app.DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
