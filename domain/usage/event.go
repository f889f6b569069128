// Package usage provides usage event and aggregate value types.
// All functions are pure - no side effects.
package usage

import "time"

// Source identifies the origin of a usage event.
type Source string

const (
	SourceEstimate Source = "estimate"  // Locally estimated token counts
	SourceAdminAPI Source = "admin_api" // Counts from the Admin API usage report
	SourceHook     Source = "hook"      // Auto-logged via tool invocation hooks
	SourceManual   Source = "manual"    // Manually entered
)

// ValidSource reports whether s is a known event source.
func ValidSource(s Source) bool {
	switch s {
	case SourceEstimate, SourceAdminAPI, SourceHook, SourceManual:
		return true
	}
	return false
}

// Event represents a single logged unit of token usage (immutable value type).
// Events are append-only: once recorded they are never mutated or deleted.
type Event struct {
	ID               string
	Timestamp        time.Time
	SessionID        string
	Model            string
	InputTokens      int64
	OutputTokens     int64
	CacheReadTokens  int64
	CacheWriteTokens int64
	CostUSD          float64
	TaskDescription  string
	Source           Source
}

// Date returns the UTC calendar date the event belongs to, as "2006-01-02".
// Aggregates are keyed by this value.
func (e Event) Date() string {
	return e.Timestamp.UTC().Format("2006-01-02")
}

// DailyAggregate holds rolled-up usage totals for one UTC calendar date.
// Invariant: each field equals the sum of the matching field over all
// events whose Date() is Date.
type DailyAggregate struct {
	Date             string  `json:"date"`
	InputTokens      int64   `json:"input_tokens"`
	OutputTokens     int64   `json:"output_tokens"`
	CacheReadTokens  int64   `json:"cache_read_tokens"`
	CacheWriteTokens int64   `json:"cache_write_tokens"`
	CostUSD          float64 `json:"cost_usd"`
	RequestCount     int64   `json:"request_count"`
}

// Add folds a single event into the aggregate.
// This is a PURE function; additive, never overwriting.
func (a DailyAggregate) Add(e Event) DailyAggregate {
	a.InputTokens += e.InputTokens
	a.OutputTokens += e.OutputTokens
	a.CacheReadTokens += e.CacheReadTokens
	a.CacheWriteTokens += e.CacheWriteTokens
	a.CostUSD += e.CostUSD
	a.RequestCount++
	return a
}

// Aggregate folds a list of events into a single aggregate for the given date.
// This is a PURE function.
func Aggregate(date string, events []Event) DailyAggregate {
	agg := DailyAggregate{Date: date}
	for _, e := range events {
		agg = agg.Add(e)
	}
	return agg
}

// TotalTokens returns input + output tokens (cache tokens excluded, matching
// how the history report counts "tokens").
func (a DailyAggregate) TotalTokens() int64 {
	return a.InputTokens + a.OutputTokens
}
