package wiring

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sophialabs/testlabadvisor/internal/domain/session"
	"github.com/sophialabs/testlabadvisor/internal/domain/trace"
	inboundhttp "github.com/sophialabs/testlabadvisor/internal/infrastructure/inbound/http"
	"github.com/sophialabs/testlabadvisor/internal/infrastructure/outbound/clock"
	"github.com/sophialabs/testlabadvisor/internal/infrastructure/outbound/filesystem"
	"github.com/sophialabs/testlabadvisor/internal/infrastructure/outbound/metrics"
	"github.com/sophialabs/testlabadvisor/internal/infrastructure/outbound/ratelimit"
	"github.com/sophialabs/testlabadvisor/internal/infrastructure/outbound/template"
	"github.com/sophialabs/testlabadvisor/internal/infrastructure/ports"
	"github.com/sophialabs/testlabadvisor/internal/infrastructure/services"
	"github.com/sophialabs/testlabadvisor/internal/infrastructure/usecases"
)

// Params holds the subset of configuration needed to construct infrastructure components.
type Params struct {
	DataDir        string
	ReferenceFile  string
	CommandsFile   string
	LogFile        string
	RulesFile      string
	OperationsFile string
	TimeZone       string // "" = local

	TraceSize      int
	RateLimiterTTL time.Duration
	SubmitRate     float64
	SubmitBurst    int

	DefaultEngine     string // "" = jinja2, "expr", "jinja2"
	DefaultModel      string
	DetailURLTemplate string
	RecentLimit       int
	CORSOrigins       []string

	Logger ports.Logger
}

// Container owns the construction and lifecycle of all infrastructure components.
type Container struct {
	logger           ports.Logger
	clock            *clock.RealClock
	handle           *services.DatasetHandle
	server           *inboundhttp.Server
	loadUC           *usecases.LoadDatasetUseCase
	lookupUC         *usecases.LookupUseCase
	logOpUC          *usecases.LogOperationUseCase
	adviseUC         *usecases.AdviseUseCase
	checkUC          *usecases.CheckDataUseCase
	sessions         *session.Store
	sink             *filesystem.CSVSink
	metrics          *metrics.Prometheus
	rateLimiterStore *ratelimit.TokenBucketStore
	traceBuf         *trace.RingBuffer
	closeOnce        sync.Once
}

// New constructs all infrastructure components. Fallible operations run
// before goroutine-starting operations (rate limiter store) to avoid
// goroutine leaks on early failure. A missing data directory is not an
// error: the dataset loads empty and the log creates it on first append.
func New(p Params) (*Container, error) {
	if info, err := os.Stat(p.DataDir); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to access data directory: %w", err)
		}
		p.Logger.Warn("data directory does not exist", "dir", p.DataDir)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("data directory %s is not a directory", p.DataDir)
	}

	switch p.DefaultEngine {
	case "", template.EngineExpr, template.EngineJinja2:
	default:
		return nil, fmt.Errorf("unknown template engine: %q (supported: expr, jinja2)", p.DefaultEngine)
	}

	clk := clock.New()
	if p.TimeZone != "" {
		var err error
		if clk, err = clock.NewIn(p.TimeZone); err != nil {
			return nil, fmt.Errorf("failed to load time zone: %w", err)
		}
	}

	source := filesystem.NewCSVSource(p.DataDir, p.ReferenceFile, p.CommandsFile)
	overrides := filesystem.OverrideFiles{
		RulesPath:      optionalPath(p.DataDir, p.RulesFile),
		OperationsPath: optionalPath(p.DataDir, p.OperationsFile),
	}
	sink := filesystem.NewCSVSink(filepath.Join(p.DataDir, p.LogFile), clk.Location(), p.Logger)
	prom := metrics.NewPrometheus()
	traceBuf := trace.NewRingBuffer(p.TraceSize)
	registry := template.NewRegistry(p.DefaultEngine)

	loadUC := usecases.NewLoadDatasetUseCase(source, overrides, registry, clk, p.Logger, prom)
	handle := services.NewDatasetHandle(nil, loadUC.Execute)

	// Start background goroutine only after all fallible ops succeed.
	rateLimiterStore := ratelimit.NewTokenBucketStore(p.RateLimiterTTL, clk)

	sessions := session.NewStore(clk.Now)
	lookupUC := usecases.NewLookupUseCase(handle, clk, p.Logger, prom, traceBuf, p.DetailURLTemplate)
	logOpUC := usecases.NewLogOperationUseCase(
		handle, sink, rateLimiterStore,
		usecases.SubmitPolicy{Rate: p.SubmitRate, Burst: p.SubmitBurst},
		clk, p.Logger, prom,
	)
	adviseUC := usecases.NewAdviseUseCase(handle, p.DefaultModel, clk, p.Logger, traceBuf)
	checkUC := usecases.NewCheckDataUseCase(p.DataDir, usecases.DataFiles{
		Records:    p.ReferenceFile,
		Commands:   p.CommandsFile,
		Log:        p.LogFile,
		Rules:      p.RulesFile,
		Operations: p.OperationsFile,
	}, p.Logger)

	server := inboundhttp.NewServer(inboundhttp.Deps{
		Handle:      handle,
		Lookup:      lookupUC,
		LogOp:       logOpUC,
		Advise:      adviseUC,
		Sessions:    usecases.NewSessionUseCase(sessions, lookupUC),
		Check:       checkUC,
		Metrics:     prom.Handler(),
		Logger:      p.Logger,
		RecentLimit: p.RecentLimit,
		CORSOrigins: p.CORSOrigins,
	})

	return &Container{
		logger:           p.Logger,
		clock:            clk,
		handle:           handle,
		server:           server,
		loadUC:           loadUC,
		lookupUC:         lookupUC,
		logOpUC:          logOpUC,
		adviseUC:         adviseUC,
		checkUC:          checkUC,
		sessions:         sessions,
		sink:             sink,
		metrics:          prom,
		rateLimiterStore: rateLimiterStore,
		traceBuf:         traceBuf,
	}, nil
}

func optionalPath(dir, name string) string {
	if name == "" {
		return ""
	}
	return filepath.Join(dir, name)
}

// Close releases resources held by the container. It is idempotent.
func (c *Container) Close() {
	c.closeOnce.Do(func() {
		c.rateLimiterStore.Stop()
	})
}

// Load reads the data directory and publishes the result.
func (c *Container) Load(ctx context.Context) (*services.Snapshot, error) {
	return c.handle.Reload(ctx)
}

// Logger returns the logger passed at construction time.
func (c *Container) Logger() ports.Logger {
	return c.logger
}

// Clock returns the clock used for timestamps.
func (c *Container) Clock() *clock.RealClock {
	return c.clock
}

// Server returns the HTTP API server.
func (c *Container) Server() *inboundhttp.Server {
	return c.server
}

// Dataset returns the handle publishing the current snapshot.
func (c *Container) Dataset() *services.DatasetHandle {
	return c.handle
}

// LookupUseCase returns the search and lookup use case.
func (c *Container) LookupUseCase() *usecases.LookupUseCase {
	return c.lookupUC
}

// LogOperationUseCase returns the test log use case.
func (c *Container) LogOperationUseCase() *usecases.LogOperationUseCase {
	return c.logOpUC
}

// AdviseUseCase returns the advisory use case.
func (c *Container) AdviseUseCase() *usecases.AdviseUseCase {
	return c.adviseUC
}

// CheckDataUseCase returns the data directory check.
func (c *Container) CheckDataUseCase() *usecases.CheckDataUseCase {
	return c.checkUC
}

// Sessions returns the operator session store.
func (c *Container) Sessions() *session.Store {
	return c.sessions
}

// LogPath returns the test log file location.
func (c *Container) LogPath() string {
	return c.sink.Path()
}

// Metrics returns the Prometheus collectors.
func (c *Container) Metrics() *metrics.Prometheus {
	return c.metrics
}

// RateLimiterStore returns the token bucket store for rate limiting.
func (c *Container) RateLimiterStore() *ratelimit.TokenBucketStore {
	return c.rateLimiterStore
}

// TraceBuf returns the trace ring buffer.
func (c *Container) TraceBuf() *trace.RingBuffer {
	return c.traceBuf
}
