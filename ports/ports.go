// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"time"

	"github.com/tokenmeter/tokenmeter/domain/budget"
	"github.com/tokenmeter/tokenmeter/domain/usage"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// -----------------------------------------------------------------------------
// Data Store Ports
// -----------------------------------------------------------------------------

// UsageStore is the durable, append-only usage ledger with incremental
// per-day aggregation. Record must apply the event insert and the
// aggregate upsert in one transaction, and the upsert must be additive
// so concurrent writers for the same date never lose an update.
type UsageStore interface {
	// Record appends an event and folds it into its date's aggregate.
	Record(ctx context.Context, e usage.Event) error

	// Aggregate returns the aggregate for a date ("2006-01-02"), or a
	// zero-valued aggregate when no events exist for it. "No usage yet"
	// is a valid state, not an error.
	Aggregate(ctx context.Context, date string) (usage.DailyAggregate, error)

	// History returns aggregates with date >= since, most recent first.
	// Empty range yields an empty slice.
	History(ctx context.Context, since string) ([]usage.DailyAggregate, error)

	// CostSince sums aggregate cost over dates >= since.
	CostSince(ctx context.Context, since string) (float64, error)

	// RecentEvents returns the newest raw events, most recent first.
	RecentEvents(ctx context.Context, limit int) ([]usage.Event, error)

	// SessionEvents returns all events logged under a session.
	SessionEvents(ctx context.Context, sessionID string) ([]usage.Event, error)
}

// -----------------------------------------------------------------------------
// External Collaborator Ports
// -----------------------------------------------------------------------------

// PendingHookEvent is one buffered tool invocation awaiting ingestion.
type PendingHookEvent struct {
	ToolName  string    `json:"tool_name"`
	SessionID string    `json:"session_id"`
	Model     string    `json:"model,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// HookBuffer accumulates coarse per-tool usage outside the main request
// path. Drain removes and returns all pending events; it must be
// idempotent against an empty buffer (nil slice, no error). Append puts
// an event on the buffer; the ingest side uses it to return drained
// events that could not be written to the ledger.
type HookBuffer interface {
	Append(e PendingHookEvent) error
	Drain(ctx context.Context) ([]PendingHookEvent, error)
}

// RemoteUsageSource fetches today's authoritative usage report.
// Implementations must honor ctx cancellation; any transport error,
// auth failure, or non-2xx response is reported as an error the caller
// treats as "unavailable".
type RemoteUsageSource interface {
	FetchToday(ctx context.Context) (budget.RemoteSummary, error)
}

// ConfigSaver persists configuration mutations made by reconfiguration
// operations.
type ConfigSaver interface {
	Save() error
}
