// Package app contains the TrackerService orchestrating the usage
// ledger, budget engine, and estimation engine.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tokenmeter/tokenmeter/adapters/metrics"
	"github.com/tokenmeter/tokenmeter/config"
	"github.com/tokenmeter/tokenmeter/domain/budget"
	"github.com/tokenmeter/tokenmeter/domain/pricing"
	"github.com/tokenmeter/tokenmeter/domain/usage"
	"github.com/tokenmeter/tokenmeter/ports"
)

// TrackerDeps holds the TrackerService's injected collaborators.
// Remote may be nil (no admin API configured); Metrics may be nil.
type TrackerDeps struct {
	Store   ports.UsageStore
	Hooks   ports.HookBuffer
	Remote  ports.RemoteUsageSource
	Clock   ports.Clock
	IDs     ports.IDGenerator
	Config  *config.Holder
	Metrics *metrics.Collector
	Logger  zerolog.Logger
}

// TrackerService answers budget, usage, and estimation queries.
// All state lives in the injected store and config holder; the service
// itself is safe for concurrent use.
type TrackerService struct {
	store   ports.UsageStore
	hooks   ports.HookBuffer
	remote  ports.RemoteUsageSource
	clock   ports.Clock
	ids     ports.IDGenerator
	cfg     *config.Holder
	metrics *metrics.Collector
	logger  zerolog.Logger
}

// NewTrackerService creates a tracker service.
func NewTrackerService(deps TrackerDeps) *TrackerService {
	return &TrackerService{
		store:   deps.Store,
		hooks:   deps.Hooks,
		remote:  deps.Remote,
		clock:   deps.Clock,
		ids:     deps.IDs,
		cfg:     deps.Config,
		metrics: deps.Metrics,
		logger:  deps.Logger,
	}
}

// LogUsageInput is one unit of work to record.
type LogUsageInput struct {
	SessionID        string
	Model            string // empty uses the configured default model
	InputTokens      int64
	OutputTokens     int64
	CacheReadTokens  int64
	CacheWriteTokens int64
	TaskDescription  string
	Source           usage.Source // empty defaults to "estimate"
}

// LogUsage prices and records a usage event. Storage failures propagate:
// accounting must never silently drop data.
func (s *TrackerService) LogUsage(ctx context.Context, in LogUsageInput) (usage.Event, error) {
	cfg := s.cfg.Get()

	model := in.Model
	if model == "" {
		model = cfg.DefaultModel
	}
	source := in.Source
	if source == "" {
		source = usage.SourceEstimate
	}
	if !usage.ValidSource(source) {
		return usage.Event{}, fmt.Errorf("unknown usage source %q", source)
	}

	e := usage.Event{
		ID:               s.ids.New(),
		Timestamp:        s.clock.Now().UTC(),
		SessionID:        in.SessionID,
		Model:            model,
		InputTokens:      in.InputTokens,
		OutputTokens:     in.OutputTokens,
		CacheReadTokens:  in.CacheReadTokens,
		CacheWriteTokens: in.CacheWriteTokens,
		CostUSD:          pricing.Cost(model, in.InputTokens, in.OutputTokens, in.CacheReadTokens, in.CacheWriteTokens),
		TaskDescription:  in.TaskDescription,
		Source:           source,
	}

	if err := s.store.Record(ctx, e); err != nil {
		if s.metrics != nil {
			s.metrics.RecordErrors.Inc()
		}
		return usage.Event{}, fmt.Errorf("record usage event: %w", err)
	}

	if s.metrics != nil {
		s.metrics.EventsRecorded.WithLabelValues(string(source), model).Inc()
		s.metrics.TokensRecorded.WithLabelValues("input").Add(float64(in.InputTokens))
		s.metrics.TokensRecorded.WithLabelValues("output").Add(float64(in.OutputTokens))
		s.metrics.CostRecorded.Add(e.CostUSD)
	}

	s.logger.Debug().
		Str("session_id", e.SessionID).
		Str("model", e.Model).
		Int64("input_tokens", e.InputTokens).
		Int64("output_tokens", e.OutputTokens).
		Float64("cost_usd", e.CostUSD).
		Str("source", string(e.Source)).
		Msg("usage recorded")

	return e, nil
}

// IngestPending drains the hook buffer into the ledger. Each buffered
// tool invocation becomes one event with source "hook", priced via the
// per-tool token estimate table. A no-op on an empty buffer. When a
// ledger write fails mid-batch, the unrecorded events go back on the
// buffer so the next ingest retries them.
func (s *TrackerService) IngestPending(ctx context.Context) (int, error) {
	if s.hooks == nil {
		return 0, nil
	}

	pending, err := s.hooks.Drain(ctx)
	if err != nil {
		return 0, fmt.Errorf("drain hook buffer: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	cfg := s.cfg.Get()
	ingested := 0
	for i, p := range pending {
		est := usage.EstimateToolTokens(p.ToolName)
		model := p.Model
		if model == "" {
			model = cfg.DefaultModel
		}
		ts := p.Timestamp
		if ts.IsZero() {
			ts = s.clock.Now()
		}

		e := usage.Event{
			ID:              s.ids.New(),
			Timestamp:       ts.UTC(),
			SessionID:       p.SessionID,
			Model:           model,
			InputTokens:     est.InputTokens,
			OutputTokens:    est.OutputTokens,
			CostUSD:         pricing.Cost(model, est.InputTokens, est.OutputTokens, 0, 0),
			TaskDescription: p.ToolName,
			Source:          usage.SourceHook,
		}
		if err := s.store.Record(ctx, e); err != nil {
			s.requeue(pending[i:])
			return ingested, fmt.Errorf("ingest hook event: %w", err)
		}
		ingested++
	}

	if s.metrics != nil {
		s.metrics.HookIngested.Add(float64(ingested))
	}
	s.logger.Debug().Int("count", ingested).Msg("pending hook events ingested")
	return ingested, nil
}

// requeue puts drained but unrecorded hook events back on the buffer.
// An event that cannot be re-appended either is lost; that is logged at
// error level as the accounting gap it is.
func (s *TrackerService) requeue(events []ports.PendingHookEvent) {
	for _, e := range events {
		if err := s.hooks.Append(e); err != nil {
			s.logger.Error().
				Err(err).
				Str("tool", e.ToolName).
				Str("session_id", e.SessionID).
				Msg("requeue of hook event failed, event lost")
		}
	}
}

// CheckBudget computes a fresh budget snapshot. Pending hook events are
// ingested first so the local aggregate reflects all completed work.
// Remote report failures degrade silently to local-only figures;
// storage and ingest errors fail the query.
func (s *TrackerService) CheckBudget(ctx context.Context) (budget.Snapshot, error) {
	if _, err := s.IngestPending(ctx); err != nil {
		return budget.Snapshot{}, fmt.Errorf("ingest pending hook events: %w", err)
	}

	cfg := s.cfg.Get()
	now := s.clock.Now().UTC()
	today := now.Format("2006-01-02")

	agg, err := s.store.Aggregate(ctx, today)
	if err != nil {
		return budget.Snapshot{}, fmt.Errorf("read today's aggregate: %w", err)
	}

	in := budget.Inputs{
		DailyLimitUSD: cfg.Budget.DailyLimitUSD,
		WarningPct:    cfg.Budget.WarningThresholdPct,
		CriticalPct:   cfg.Budget.CriticalThresholdPct,
		SpentTodayUSD: agg.CostUSD,
		RequestCount:  agg.RequestCount,
	}

	// Monthly spend is queried only when a monthly limit exists.
	if cfg.Budget.MonthlyLimitUSD != nil {
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
		monthly, err := s.store.CostSince(ctx, monthStart)
		if err != nil {
			return budget.Snapshot{}, fmt.Errorf("read month-to-date cost: %w", err)
		}
		in.MonthlyLimitUSD = cfg.Budget.MonthlyLimitUSD
		in.MonthlySpentUSD = monthly
	}

	in.Remote = s.fetchRemote(ctx)

	snap := budget.Compute(in)

	if s.metrics != nil {
		s.metrics.BudgetQueries.Inc()
		s.metrics.SpentTodayUSD.Set(snap.SpentTodayUSD)
		s.metrics.BudgetPctUsed.Set(snap.PctUsed)
	}
	return snap, nil
}

// fetchRemote returns the remote report, or nil when no remote source is
// configured or the fetch failed. Failures never fail the budget query.
func (s *TrackerService) fetchRemote(ctx context.Context) *budget.RemoteSummary {
	if s.remote == nil {
		return nil
	}
	if s.metrics != nil {
		s.metrics.RemoteFetches.Inc()
	}

	summary, err := s.remote.FetchToday(ctx)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RemoteFetchFails.Inc()
		}
		s.logger.Warn().Err(err).Msg("remote usage report unavailable, using local figures")
		return nil
	}
	return &summary
}

// HistoryReport is the usage history query result.
type HistoryReport struct {
	Days         []usage.DailyAggregate `json:"history"`
	TotalCostUSD float64                `json:"total_cost_usd"`
	AvgDailyUSD  float64                `json:"avg_daily_usd"`
}

// History returns daily aggregates over the past daysBack days, most
// recent first, after ingesting pending hook events. Days without usage
// are simply absent.
func (s *TrackerService) History(ctx context.Context, daysBack int) (HistoryReport, error) {
	if daysBack < 1 {
		daysBack = 1
	}
	if daysBack > 90 {
		daysBack = 90
	}

	if _, err := s.IngestPending(ctx); err != nil {
		return HistoryReport{}, fmt.Errorf("ingest pending hook events: %w", err)
	}

	since := s.clock.Now().UTC().AddDate(0, 0, -daysBack).Format("2006-01-02")
	days, err := s.store.History(ctx, since)
	if err != nil {
		return HistoryReport{}, fmt.Errorf("read usage history: %w", err)
	}

	report := HistoryReport{Days: days}
	for _, d := range days {
		report.TotalCostUSD += d.CostUSD
	}
	if len(days) > 0 {
		report.AvgDailyUSD = report.TotalCostUSD / float64(len(days))
	}
	return report, nil
}
