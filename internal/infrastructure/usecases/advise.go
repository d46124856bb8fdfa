package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sophialabs/testlabadvisor/internal/domain/advisory"
	"github.com/sophialabs/testlabadvisor/internal/domain/trace"
	"github.com/sophialabs/testlabadvisor/internal/infrastructure/ports"
	"github.com/sophialabs/testlabadvisor/internal/infrastructure/services"
)

// ErrAdvisorUnavailable is returned before the first dataset load completes.
var ErrAdvisorUnavailable = errors.New("advisor not loaded")

// AdviseUseCase produces diagnostic guidance for a component.
type AdviseUseCase struct {
	handle       *services.DatasetHandle
	defaultModel string
	clock        ports.Clock
	logger       ports.Logger
	traceBuf     *trace.RingBuffer
}

// NewAdviseUseCase creates a new use case. defaultModel is used when a
// request names no model.
func NewAdviseUseCase(
	handle *services.DatasetHandle,
	defaultModel string,
	clock ports.Clock,
	logger ports.Logger,
	traceBuf *trace.RingBuffer,
) *AdviseUseCase {
	return &AdviseUseCase{
		handle:       handle,
		defaultModel: defaultModel,
		clock:        clock,
		logger:       logger,
		traceBuf:     traceBuf,
	}
}

// Execute generates advice for req with the advisor of the current snapshot.
func (uc *AdviseUseCase) Execute(ctx context.Context, sessionID string, req advisory.Request) (advisory.Advice, error) {
	gen := uc.handle.Current().Advisor
	if gen == nil {
		return advisory.Advice{}, ErrAdvisorUnavailable
	}
	if strings.TrimSpace(req.ModelKey) == "" {
		req.ModelKey = uc.defaultModel
	}

	advice, err := gen.Generate(ctx, req)

	entry := trace.Entry{
		Timestamp: uc.clock.Now(),
		Kind:      trace.KindAdvise,
		SessionID: sessionID,
		Refcode:   req.Refcode,
		FRUName:   req.Component,
		Status:    "ok",
		Category:  advice.Category,
	}
	if err != nil {
		entry.Status = "error"
		uc.traceBuf.Add(entry)
		uc.logger.Error("advice generation failed", "refcode", req.Refcode, "error", err)
		return advisory.Advice{}, fmt.Errorf("generating advice: %w", err)
	}
	entry.Results = 1
	uc.traceBuf.Add(entry)
	uc.logger.Debug("advice generated", "category", advice.Category, "source", advice.Source)
	return advice, nil
}
