package usecases

import (
	"strings"
	"time"

	"github.com/sophialabs/testlabadvisor/internal/domain/component"
	"github.com/sophialabs/testlabadvisor/internal/domain/match"
	"github.com/sophialabs/testlabadvisor/internal/domain/trace"
	"github.com/sophialabs/testlabadvisor/internal/infrastructure/ports"
	"github.com/sophialabs/testlabadvisor/internal/infrastructure/services"
)

// RecentPreview is the number of records shown in the recent activity list.
const RecentPreview = 5

// LookupResult is a resolved record with its presentation extras.
type LookupResult struct {
	Resolution match.Resolution             `json:"resolution"`
	Display    *component.Display           `json:"display,omitempty"`
	Command    *component.CommandDescriptor `json:"command,omitempty"`
	DetailURL  string                       `json:"detail_url,omitempty"`
}

// Selectors are the choices offered for exact lookup. Both lists start with
// the empty sentinel.
type Selectors struct {
	Refcodes []string `json:"refcodes"`
	FRUNames []string `json:"fru_names"`
}

// SummaryView is the dataset overview.
type SummaryView struct {
	Summary  match.Summary      `json:"summary"`
	Drawers  match.Groups       `json:"drawers"`
	Recent   []component.Record `json:"recent"`
	Warnings []string           `json:"warnings"`
	LoadedAt time.Time          `json:"loaded_at"`
	Version  uint64             `json:"version"`
}

// LookupUseCase answers search and lookup questions against the current
// dataset snapshot.
type LookupUseCase struct {
	handle    *services.DatasetHandle
	clock     ports.Clock
	logger    ports.Logger
	metrics   ports.Metrics
	traceBuf  *trace.RingBuffer
	detailURL string
}

// NewLookupUseCase creates a new use case. detailURL may contain {refcode};
// an empty template disables detail links.
func NewLookupUseCase(
	handle *services.DatasetHandle,
	clock ports.Clock,
	logger ports.Logger,
	metrics ports.Metrics,
	traceBuf *trace.RingBuffer,
	detailURL string,
) *LookupUseCase {
	return &LookupUseCase{
		handle:    handle,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
		traceBuf:  traceBuf,
		detailURL: detailURL,
	}
}

// Search filters the current dataset by query.
func (uc *LookupUseCase) Search(sessionID, query string) match.SearchResult {
	return uc.search(uc.handle.Current(), sessionID, query)
}

func (uc *LookupUseCase) search(snap *services.Snapshot, sessionID, query string) match.SearchResult {
	res := snap.Matcher.Search(query)

	uc.metrics.SearchServed(string(res.Status))
	uc.traceBuf.Add(trace.Entry{
		Timestamp: uc.clock.Now(),
		Kind:      trace.KindSearch,
		SessionID: sessionID,
		Query:     query,
		Status:    string(res.Status),
		Results:   len(res.Records),
	})
	uc.logger.Debug("search served", "query", query, "status", res.Status, "results", len(res.Records))
	return res
}

// SearchAny coerces q before searching.
func (uc *LookupUseCase) SearchAny(sessionID string, q any) match.SearchResult {
	return uc.Search(sessionID, match.Coerce(q))
}

// Resolve picks the record identified by sel among the records matching
// query, and decorates it.
func (uc *LookupUseCase) Resolve(sessionID, query string, sel match.Selector) LookupResult {
	return uc.resolve(uc.handle.Current(), sessionID, query, sel)
}

func (uc *LookupUseCase) resolve(snap *services.Snapshot, sessionID, query string, sel match.Selector) LookupResult {
	within := match.Search(query, snap.Dataset.Records).Records
	res := match.ResolveExact(sel, within)

	entry := trace.Entry{
		Timestamp:  uc.clock.Now(),
		Kind:       trace.KindResolve,
		SessionID:  sessionID,
		Query:      query,
		Refcode:    sel.Refcode,
		FRUName:    sel.FRUName,
		Status:     string(res.Status),
		MatchedKey: string(res.Key),
	}
	if res.Record != nil {
		entry.Results = 1
	}
	uc.traceBuf.Add(entry)
	uc.metrics.LookupServed(string(res.Status))

	out := LookupResult{Resolution: res}
	if res.Record == nil {
		uc.logger.Debug("no record resolved", "refcode", sel.Refcode, "fru_name", sel.FRUName, "status", res.Status)
		return out
	}

	d := res.Record.Display()
	out.Display = &d
	if cmd, ok := snap.Dataset.DescribeCommand(res.Record.SECommands); ok {
		out.Command = &cmd
	}
	out.DetailURL = uc.DetailURL(res.Record.Refcode)
	uc.logger.Debug("record resolved", "key", res.Key, "index", res.Index)
	return out
}

// DetailURL expands the configured link template for refcode. It returns ""
// when no template is configured or refcode is blank.
func (uc *LookupUseCase) DetailURL(refcode string) string {
	refcode = strings.TrimSpace(refcode)
	if uc.detailURL == "" || refcode == "" {
		return ""
	}
	return strings.ReplaceAll(uc.detailURL, "{refcode}", strings.ToLower(refcode))
}

// Selectors lists the refcodes and FRU names among the records matching
// query.
func (uc *LookupUseCase) Selectors(query string) Selectors {
	return selectors(uc.handle.Current(), query)
}

func selectors(snap *services.Snapshot, query string) Selectors {
	within := match.Search(query, snap.Dataset.Records).Records
	return Selectors{
		Refcodes: match.DistinctValues(component.FieldRefcode, within),
		FRUNames: match.DistinctValues(component.FieldFRUName, within),
	}
}

// Summary reports dataset totals, per-drawer statistics and the recent
// activity preview.
func (uc *LookupUseCase) Summary() SummaryView {
	snap := uc.handle.Current()
	records := snap.Dataset.Records
	warnings := snap.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return SummaryView{
		Summary:  match.Summarize(records),
		Drawers:  match.AggregateByGroup(component.FieldDrawer, records),
		Recent:   match.TopN(records, RecentPreview),
		Warnings: warnings,
		LoadedAt: snap.LoadedAt,
		Version:  snap.Version,
	}
}

// Groups aggregates the whole dataset by field.
func (uc *LookupUseCase) Groups(field component.Field) match.Groups {
	return match.AggregateByGroup(field, uc.handle.Current().Dataset.Records)
}

// Recent returns the first n records in dataset order.
func (uc *LookupUseCase) Recent(n int) []component.Record {
	return match.TopN(uc.handle.Current().Dataset.Records, n)
}

// Trace returns up to n recent trace entries of kind, or of every kind when
// kind is empty.
func (uc *LookupUseCase) Trace(kind trace.Kind, n int) []trace.Entry {
	return uc.traceBuf.LastOf(kind, n)
}
