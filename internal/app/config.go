package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables carrying advisor credentials. They override every
// other configuration source.
const (
	EnvAPIKey = "TESTLAB_ADVISOR_API_KEY"
	EnvModel  = "TESTLAB_ADVISOR_MODEL"
)

// Config holds all configurable parameters for the application.
type Config struct {
	DataDir        string `yaml:"data_dir"`
	ReferenceFile  string `yaml:"reference_file"`
	CommandsFile   string `yaml:"commands_file"`
	LogFile        string `yaml:"log_file"`
	RulesFile      string `yaml:"rules_file"`
	OperationsFile string `yaml:"operations_file"`
	TimeZone       string `yaml:"time_zone"`

	Port      int    `yaml:"port"`
	TraceSize int    `yaml:"trace_size"`
	LogLevel  string `yaml:"log_level"`

	RateLimiterTTL  time.Duration `yaml:"rate_limiter_ttl"`
	WatcherDebounce time.Duration `yaml:"watcher_debounce"`
	SessionTTL      time.Duration `yaml:"session_ttl"`

	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	SubmitRate  float64 `yaml:"submit_rate"`
	SubmitBurst int     `yaml:"submit_burst"`

	DefaultEngine     string   `yaml:"default_engine"` // "" = jinja2, "expr", "jinja2"
	DefaultModel      string   `yaml:"default_model"`
	APIKey            string   `yaml:"-"`
	DetailURLTemplate string   `yaml:"detail_url_template"`
	RecentLimit       int      `yaml:"recent_limit"`
	CORSOrigins       []string `yaml:"cors_origins"`

	// LogOutput receives log lines. Nil means stdout.
	LogOutput io.Writer `yaml:"-"`
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		DataDir:        "./data",
		ReferenceFile:  "refcode_fru_map.csv",
		CommandsFile:   "se_command_library.csv",
		LogFile:        "test_log.csv",
		RulesFile:      "advisory_rules.yaml",
		OperationsFile: "operations.yaml",

		Port:      8080,
		TraceSize: 200,
		LogLevel:  "info",

		RateLimiterTTL:  10 * time.Minute,
		WatcherDebounce: 500 * time.Millisecond,
		SessionTTL:      30 * time.Minute,

		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,

		SubmitRate:  0.5,
		SubmitBurst: 2,

		DefaultModel: "gpt-4o-mini",
		RecentLimit:  20,
	}
}

// LoadFile overlays the YAML file at path onto c. Keys absent from the file
// keep their current value; unknown keys are an error.
func (c *Config) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides advisor credentials from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvAPIKey)); v != "" {
		c.APIKey = v
	}
	if v := strings.TrimSpace(getenv(EnvModel)); v != "" {
		c.DefaultModel = v
	}
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.DataDir) == "":
		return errors.New("data directory is required")
	case strings.TrimSpace(c.ReferenceFile) == "":
		return errors.New("reference file name is required")
	case strings.TrimSpace(c.LogFile) == "":
		return errors.New("log file name is required")
	case c.Port < 0 || c.Port > 65535:
		return fmt.Errorf("port %d out of range", c.Port)
	case c.TraceSize <= 0:
		return fmt.Errorf("trace size must be positive, got %d", c.TraceSize)
	case c.SubmitRate > 0 && c.SubmitBurst <= 0:
		return fmt.Errorf("submit burst must be positive when submit rate is set, got %d", c.SubmitBurst)
	}
	return nil
}
