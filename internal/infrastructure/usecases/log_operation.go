package usecases

import (
	"context"
	"errors"

	"github.com/sophialabs/testlabadvisor/internal/domain/operation"
	"github.com/sophialabs/testlabadvisor/internal/domain/testlog"
	"github.com/sophialabs/testlabadvisor/internal/infrastructure/outbound/ratelimit"
	"github.com/sophialabs/testlabadvisor/internal/infrastructure/ports"
	"github.com/sophialabs/testlabadvisor/internal/infrastructure/services"
)

// ErrRateLimited is returned when a technician submits faster than allowed.
var ErrRateLimited = errors.New("submission rate limited")

// Append outcomes reported to metrics.
const (
	OutcomeAppended    = "appended"
	OutcomeInvalid     = "invalid"
	OutcomeRateLimited = "rate_limited"
	OutcomeSinkError   = "sink_error"
)

// SubmitPolicy bounds how fast one technician can append entries. A
// non-positive Rate disables limiting.
type SubmitPolicy struct {
	Rate  float64
	Burst int
}

// LogOperationUseCase validates and appends test log entries.
type LogOperationUseCase struct {
	handle      *services.DatasetHandle
	sink        testlog.Sink
	rateLimiter ports.RateLimiter
	policy      SubmitPolicy
	clock       ports.Clock
	logger      ports.Logger
	metrics     ports.Metrics
}

// NewLogOperationUseCase creates a new use case. The dataset handle supplies
// the operations catalog used to fill in defaults.
func NewLogOperationUseCase(
	handle *services.DatasetHandle,
	sink testlog.Sink,
	rateLimiter ports.RateLimiter,
	policy SubmitPolicy,
	clock ports.Clock,
	logger ports.Logger,
	metrics ports.Metrics,
) *LogOperationUseCase {
	return &LogOperationUseCase{
		handle:      handle,
		sink:        sink,
		rateLimiter: rateLimiter,
		policy:      policy,
		clock:       clock,
		logger:      logger,
		metrics:     metrics,
	}
}

// Execute normalizes e, stamps it and appends it to the log. Validation
// failures wrap testlog.ErrValidation and write nothing.
func (uc *LogOperationUseCase) Execute(ctx context.Context, e testlog.Entry) (testlog.Entry, error) {
	entry, err := testlog.Normalize(e)
	if err != nil {
		uc.metrics.LogAppended(OutcomeInvalid)
		uc.logger.Debug("log entry rejected", "error", err)
		return testlog.Entry{}, err
	}

	if uc.policy.Rate > 0 {
		key := ratelimit.SubmissionKey(entry.Technician)
		if !uc.rateLimiter.Allow(ctx, key, uc.policy.Rate, uc.policy.Burst) {
			uc.metrics.LogAppended(OutcomeRateLimited)
			uc.logger.Debug("rate limited", "technician", entry.Technician)
			return testlog.Entry{}, ErrRateLimited
		}
	}

	entry = uc.applyCatalog(entry)
	entry.Timestamp = uc.clock.Now()

	if err := uc.sink.Append(ctx, entry); err != nil {
		uc.metrics.LogAppended(OutcomeSinkError)
		uc.logger.Error("failed to append log entry", "card_id", entry.CardID, "error", err)
		return testlog.Entry{}, err
	}

	uc.metrics.LogAppended(OutcomeAppended)
	uc.logger.Info("log entry appended",
		"op_step", entry.OpStep,
		"card_id", entry.CardID,
		"technician", entry.Technician,
		"result", entry.Result,
	)
	return entry, nil
}

// Recent returns up to n of the latest entries, most recent last.
func (uc *LogOperationUseCase) Recent(ctx context.Context, n int) ([]testlog.Entry, error) {
	return uc.sink.Recent(ctx, n)
}

func (uc *LogOperationUseCase) applyCatalog(e testlog.Entry) testlog.Entry {
	op, err := uc.handle.Current().Catalog.Lookup(e.OpStep)
	if err != nil {
		if e.Temperature == "" {
			e.Temperature = operation.TempAmbient
		}
		return e
	}
	if e.OpDescription == "" {
		e.OpDescription = op.Description
	}
	if e.Temperature == "" {
		e.Temperature = op.Temperature
	}
	return e
}
