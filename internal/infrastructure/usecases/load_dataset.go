package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/sophialabs/testlabadvisor/internal/domain/advisory"
	"github.com/sophialabs/testlabadvisor/internal/domain/component"
	"github.com/sophialabs/testlabadvisor/internal/domain/match"
	"github.com/sophialabs/testlabadvisor/internal/domain/operation"
	"github.com/sophialabs/testlabadvisor/internal/infrastructure/ports"
	"github.com/sophialabs/testlabadvisor/internal/infrastructure/services"
)

// Load outcomes reported to metrics.
const (
	OutcomeOK       = "ok"
	OutcomeDegraded = "degraded"
)

// Overrides reads optional replacements for the built-in advisory rules and
// operations catalog. found is false when no replacement is configured.
type Overrides interface {
	Rules() (set advisory.RuleSet, found bool, err error)
	Operations() (cat *operation.Catalog, found bool, err error)
}

// LoadDatasetUseCase reads the data directory into a snapshot. A source that
// is missing or malformed never fails the load: the affected table is empty
// and a warning is attached to the snapshot.
type LoadDatasetUseCase struct {
	source    component.Source
	overrides Overrides
	compiler  advisory.Compiler
	clock     ports.Clock
	logger    ports.Logger
	metrics   ports.Metrics
}

// NewLoadDatasetUseCase creates a new use case.
func NewLoadDatasetUseCase(
	source component.Source,
	overrides Overrides,
	compiler advisory.Compiler,
	clock ports.Clock,
	logger ports.Logger,
	metrics ports.Metrics,
) *LoadDatasetUseCase {
	return &LoadDatasetUseCase{
		source:    source,
		overrides: overrides,
		compiler:  compiler,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
	}
}

// Execute loads every table. It only returns an error when ctx is done.
func (uc *LoadDatasetUseCase) Execute(ctx context.Context) (*services.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var warnings []string
	warn := func(source string, err error) {
		lf := &component.LoadFailure{Source: source, Err: err}
		warnings = append(warnings, lf.Error())
		uc.logger.Warn("reference source unavailable", "source", source, "error", err)
	}

	records, err := uc.source.LoadRecords(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		warn("reference table", err)
		records = nil
	}

	commands, err := uc.source.LoadCommands(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		// The command library only decorates records; its absence is expected.
		if errors.Is(err, component.ErrSourceMissing) {
			uc.logger.Debug("command library not present", "error", err)
		} else {
			warn("command library", err)
		}
		commands = nil
	}

	ds := &component.Dataset{Records: records, Commands: commands}

	table, err := uc.loadRules()
	if err != nil {
		warn("advisory rules", err)
		table, err = advisory.CompileTable(advisory.BuiltinRules(), advisory.DefaultRule(), uc.compiler)
		if err != nil {
			return nil, fmt.Errorf("failed to compile built-in advisory rules: %w", err)
		}
	}

	catalog, err := uc.loadOperations()
	if err != nil {
		warn("operations catalog", err)
		catalog = operation.Builtin()
	}

	outcome := OutcomeOK
	if len(warnings) > 0 {
		outcome = OutcomeDegraded
	}
	uc.metrics.DatasetLoaded(ds.Len(), outcome)
	uc.logger.Info("reference data loaded",
		"records", ds.Len(),
		"commands", len(ds.Commands),
		"advisory_rules", table.Len(),
		"operations", len(catalog.All()),
		"warnings", len(warnings),
	)

	return &services.Snapshot{
		Dataset:  ds,
		Matcher:  match.NewMatcher(ds),
		Advisor:  advisory.NewTemplateAdvisor(table, uc.clock.Now),
		Catalog:  catalog,
		Warnings: warnings,
		LoadedAt: uc.clock.Now(),
	}, nil
}

func (uc *LoadDatasetUseCase) loadRules() (*advisory.RuleTable, error) {
	rules, fallback := advisory.BuiltinRules(), advisory.DefaultRule()
	set, found, err := uc.overrides.Rules()
	if err != nil {
		return nil, err
	}
	if found {
		rules = set.Rules
		if set.Default != nil {
			fallback = *set.Default
		}
		uc.logger.Info("using configured advisory rules", "rules", len(rules))
	}
	return advisory.CompileTable(rules, fallback, uc.compiler)
}

func (uc *LoadDatasetUseCase) loadOperations() (*operation.Catalog, error) {
	catalog, found, err := uc.overrides.Operations()
	if err != nil {
		return nil, err
	}
	if !found {
		return operation.Builtin(), nil
	}
	return catalog, nil
}
