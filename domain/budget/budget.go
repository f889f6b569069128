// Package budget classifies spending against configured limits and
// reconciles local estimates with remote authoritative figures.
// All functions are pure - no side effects.
package budget

import "math"

// Status is the severity class of a budget snapshot.
type Status string

const (
	StatusOK       Status = "ok"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
	StatusExceeded Status = "exceeded"
)

// Severity returns an ordinal for a status, for monotonicity checks.
func Severity(s Status) int {
	switch s {
	case StatusWarning:
		return 1
	case StatusCritical:
		return 2
	case StatusExceeded:
		return 3
	}
	return 0
}

// ComputeStatus maps percent-used to a status. Conditions are evaluated
// top-down, so a violated warning < critical ordering cannot crash; the
// unreachable band simply never fires.
func ComputeStatus(pctUsed, warningPct, criticalPct float64) Status {
	switch {
	case pctUsed >= 100:
		return StatusExceeded
	case pctUsed >= criticalPct:
		return StatusCritical
	case pctUsed >= warningPct:
		return StatusWarning
	}
	return StatusOK
}

// PctUsed returns spend as a percentage of limit, 0 when the limit is 0.
func PctUsed(spentUSD, limitUSD float64) float64 {
	if limitUSD <= 0 {
		return 0
	}
	return spentUSD / limitUSD * 100
}

// RemoteModelUsage is one model's line in the remote authoritative report.
type RemoteModelUsage struct {
	Model            string  `json:"model"`
	InputTokens      int64   `json:"input_tokens"`
	OutputTokens     int64   `json:"output_tokens"`
	CacheReadTokens  int64   `json:"cache_read_tokens"`
	CacheWriteTokens int64   `json:"cache_write_tokens"`
	CostUSD          float64 `json:"cost_usd"`
}

// RemoteSummary is today's usage as reported by the billing system of
// record, broken down by model.
type RemoteSummary struct {
	TotalCostUSD      float64            `json:"total_cost_usd"`
	TotalInputTokens  int64              `json:"total_input_tokens"`
	TotalOutputTokens int64              `json:"total_output_tokens"`
	ByModel           []RemoteModelUsage `json:"by_model"`
}

// Snapshot is the derived answer to "how much budget is left". It is
// recomputed on every query, never stored.
type Snapshot struct {
	Status            Status   `json:"status"`
	DailyLimitUSD     float64  `json:"daily_limit_usd"`
	SpentTodayUSD     float64  `json:"spent_today_usd"`
	RemainingUSD      float64  `json:"remaining_usd"`
	PctUsed           float64  `json:"pct_used"`
	RequestCountToday int64    `json:"request_count_today"`
	MonthlyLimitUSD   *float64 `json:"monthly_limit_usd"`
	SpentThisMonthUSD *float64 `json:"spent_this_month_usd"`

	// Present only when the remote authoritative report was reachable.
	APISpentTodayUSD *float64       `json:"api_spent_today_usd,omitempty"`
	APIPctUsed       *float64       `json:"api_pct_used,omitempty"`
	APIUsage         *RemoteSummary `json:"api_usage,omitempty"`
}

// Inputs carries everything Compute needs. MonthlySpentUSD is consulted
// only when MonthlyLimitUSD is non-nil. Remote is nil when the remote
// report was unavailable.
type Inputs struct {
	DailyLimitUSD   float64
	WarningPct      float64
	CriticalPct     float64
	SpentTodayUSD   float64
	RequestCount    int64
	MonthlyLimitUSD *float64
	MonthlySpentUSD float64
	Remote          *RemoteSummary
}

// Compute builds a budget snapshot from local figures plus an optional
// remote report. The reconciliation is deliberately pessimistic: the
// effective status comes from the larger of the two percent-used values,
// since the remote source understates when data lags while the local
// estimate may miss usage that bypassed estimation. RemainingUSD is
// recomputed from the remote spend only when it strictly exceeds the
// local figure.
func Compute(in Inputs) Snapshot {
	localPct := PctUsed(in.SpentTodayUSD, in.DailyLimitUSD)
	remaining := math.Max(0, in.DailyLimitUSD-in.SpentTodayUSD)
	effectivePct := localPct

	snap := Snapshot{
		DailyLimitUSD:     in.DailyLimitUSD,
		SpentTodayUSD:     Round4(in.SpentTodayUSD),
		RequestCountToday: in.RequestCount,
		MonthlyLimitUSD:   in.MonthlyLimitUSD,
	}

	if in.MonthlyLimitUSD != nil {
		monthly := Round4(in.MonthlySpentUSD)
		snap.SpentThisMonthUSD = &monthly
	}

	if in.Remote != nil {
		remotePct := PctUsed(in.Remote.TotalCostUSD, in.DailyLimitUSD)
		apiSpent := Round4(in.Remote.TotalCostUSD)
		apiPct := Round2(remotePct)
		snap.APISpentTodayUSD = &apiSpent
		snap.APIPctUsed = &apiPct
		snap.APIUsage = in.Remote

		effectivePct = math.Max(localPct, remotePct)
		if in.Remote.TotalCostUSD > in.SpentTodayUSD {
			remaining = math.Max(0, in.DailyLimitUSD-in.Remote.TotalCostUSD)
		}
	}

	// PctUsed reports the local figure; only the status classification
	// uses the reconciled maximum.
	snap.Status = ComputeStatus(effectivePct, in.WarningPct, in.CriticalPct)
	snap.RemainingUSD = Round4(remaining)
	snap.PctUsed = Round2(localPct)
	return snap
}

// Round4 rounds to 4 decimal places, half away from zero.
func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// Round2 rounds to 2 decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
