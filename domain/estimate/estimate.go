// Package estimate projects token usage and dollar cost for planned work
// from qualitative task descriptions. All functions are pure.
package estimate

import (
	"fmt"
	"math"
	"strings"

	"github.com/tokenmeter/tokenmeter/domain/plan"
	"github.com/tokenmeter/tokenmeter/domain/pricing"
)

// Tier is a qualitative task-complexity bucket.
type Tier string

const (
	TierTrivial  Tier = "trivial"
	TierSimple   Tier = "simple"
	TierModerate Tier = "moderate"
	TierComplex  Tier = "complex"
	TierMassive  Tier = "massive"
)

// ValidTier reports whether t is a known complexity tier.
func ValidTier(t Tier) bool {
	switch t {
	case TierTrivial, TierSimple, TierModerate, TierComplex, TierMassive:
		return true
	}
	return false
}

// Profile maps a tier to its token projection coefficients.
type Profile struct {
	BaseInputTokens  int64
	BaseOutputTokens int64
	PerFileInput     int64
	PerFileOutput    int64
}

var profiles = map[Tier]Profile{
	TierTrivial:  {BaseInputTokens: 500, BaseOutputTokens: 200},
	TierSimple:   {BaseInputTokens: 2_000, BaseOutputTokens: 1_000, PerFileInput: 1_500, PerFileOutput: 500},
	TierModerate: {BaseInputTokens: 5_000, BaseOutputTokens: 3_000, PerFileInput: 1_500, PerFileOutput: 1_500},
	TierComplex:  {BaseInputTokens: 15_000, BaseOutputTokens: 8_000, PerFileInput: 2_000, PerFileOutput: 3_000},
	TierMassive:  {BaseInputTokens: 50_000, BaseOutputTokens: 20_000, PerFileInput: 2_500, PerFileOutput: 4_000},
}

// Extended thinking triples projected output tokens.
const thinkingOutputMultiplier = 3

// TaskEstimate is the projected cost of a single task (ephemeral, never
// persisted).
type TaskEstimate struct {
	InputTokens      int64    `json:"estimated_input_tokens"`
	OutputTokens     int64    `json:"estimated_output_tokens"`
	CostUSD          float64  `json:"estimated_cost_usd"`
	PctOfDailyBudget float64  `json:"pct_of_daily_budget"`
	Tier             Tier     `json:"complexity"`
	Breakdown        string   `json:"breakdown"`
	PctOfPlan        *float64 `json:"pct_of_plan,omitempty"`
	PlanLabel        string   `json:"plan_label,omitempty"`
	PlanAllowanceUSD float64  `json:"plan_allowance_usd,omitempty"`
}

// Task projects token usage and cost for one task.
// pctOfDailyBudget is 0 when dailyLimitUSD is 0.
func Task(model string, tier Tier, fileCount int, dailyLimitUSD float64, extendedThinking bool) TaskEstimate {
	p := profiles[tier]

	inputTokens := p.BaseInputTokens + p.PerFileInput*int64(fileCount)
	outputTokens := p.BaseOutputTokens + p.PerFileOutput*int64(fileCount)
	if extendedThinking {
		outputTokens *= thinkingOutputMultiplier
	}

	cost := pricing.Cost(model, inputTokens, outputTokens, 0, 0)
	var pctOfBudget float64
	if dailyLimitUSD > 0 {
		pctOfBudget = cost / dailyLimitUSD * 100
	}

	parts := []string{
		fmt.Sprintf("Complexity: %s", tier),
		fmt.Sprintf("Files: %d", fileCount),
		fmt.Sprintf("Est. input: %d tokens", inputTokens),
		fmt.Sprintf("Est. output: %d tokens", outputTokens),
	}
	if extendedThinking {
		parts = append(parts, "Extended thinking: 3x output multiplier")
	}

	return TaskEstimate{
		InputTokens:      inputTokens,
		OutputTokens:     outputTokens,
		CostUSD:          cost,
		PctOfDailyBudget: math.Round(pctOfBudget*100) / 100,
		Tier:             tier,
		Breakdown:        strings.Join(parts, "; "),
	}
}

// EnrichWithPlan annotates an estimate with plan allowance figures.
// A nil plan returns the estimate unchanged.
func EnrichWithPlan(est TaskEstimate, p *plan.Plan) TaskEstimate {
	if p == nil {
		return est
	}
	est.PctOfPlan = plan.Pct(est.CostUSD, *p)
	est.PlanLabel = plan.Label(*p)
	est.PlanAllowanceUSD = plan.EffectiveMonthlyAllowance(*p)
	return est
}

// Subtask is one unit of a project estimate request. Tier is inferred
// from Description when empty; FileCount defaults to 0.
type Subtask struct {
	Description string
	Tier        Tier
	FileCount   int
}

// SubtaskEstimate is one subtask's line in a project estimate.
type SubtaskEstimate struct {
	Description      string   `json:"description"`
	Tier             Tier     `json:"complexity"`
	FileCount        int      `json:"file_count"`
	CostUSD          float64  `json:"estimated_cost_usd"`
	PctOfDailyBudget float64  `json:"pct_of_daily_budget"`
	PctOfPlan        *float64 `json:"pct_of_plan"`
}

// ProjectEstimate is a multi-subtask rollup. TotalOverSessionsUSD models
// repeating the whole project Sessions times.
type ProjectEstimate struct {
	Subtasks              []SubtaskEstimate `json:"subtasks"`
	TotalCostUSD          float64           `json:"total_cost_usd"`
	PctOfDailyBudget      float64           `json:"pct_of_daily_budget"`
	PctOfPlan             *float64          `json:"pct_of_plan"`
	Sessions              int               `json:"sessions"`
	TotalOverSessionsUSD  float64           `json:"total_over_sessions_usd"`
	PctOfPlanOverSessions *float64          `json:"pct_of_plan_over_sessions"`
}

// Project estimates each subtask independently and rolls them up.
func Project(model string, subtasks []Subtask, dailyLimitUSD float64, sessions int, extendedThinking bool, p *plan.Plan) ProjectEstimate {
	estimates := make([]SubtaskEstimate, 0, len(subtasks))
	var totalCost float64

	for _, st := range subtasks {
		tier := st.Tier
		if tier == "" {
			tier = InferTier(st.Description)
		}
		est := Task(model, tier, st.FileCount, dailyLimitUSD, extendedThinking)

		se := SubtaskEstimate{
			Description:      st.Description,
			Tier:             tier,
			FileCount:        st.FileCount,
			CostUSD:          est.CostUSD,
			PctOfDailyBudget: est.PctOfDailyBudget,
		}
		if p != nil {
			se.PctOfPlan = plan.Pct(est.CostUSD, *p)
		}
		estimates = append(estimates, se)
		totalCost += est.CostUSD
	}

	var pctDaily float64
	if dailyLimitUSD > 0 {
		pctDaily = math.Round(totalCost/dailyLimitUSD*10000) / 100
	}

	totalOverSessions := totalCost * float64(sessions)

	proj := ProjectEstimate{
		Subtasks:             estimates,
		TotalCostUSD:         math.Round(totalCost*10000) / 10000,
		PctOfDailyBudget:     pctDaily,
		Sessions:             sessions,
		TotalOverSessionsUSD: math.Round(totalOverSessions*10000) / 10000,
	}
	if p != nil {
		proj.PctOfPlan = plan.Pct(totalCost, *p)
		proj.PctOfPlanOverSessions = plan.Pct(totalOverSessions, *p)
	}
	return proj
}
