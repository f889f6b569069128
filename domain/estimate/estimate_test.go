package estimate

import (
	"math"
	"strings"
	"testing"

	"github.com/tokenmeter/tokenmeter/domain/plan"
)

func TestTask_ModerateWithFiles(t *testing.T) {
	est := Task("claude-sonnet-4-5-20250514", TierModerate, 2, 10, false)

	if est.InputTokens != 8_000 {
		t.Errorf("InputTokens = %d, want 8000", est.InputTokens)
	}
	if est.OutputTokens != 6_000 {
		t.Errorf("OutputTokens = %d, want 6000", est.OutputTokens)
	}
	// 8k input at $3/MTok + 6k output at $15/MTok
	if math.Abs(est.CostUSD-0.114) > 1e-9 {
		t.Errorf("CostUSD = %v, want 0.114", est.CostUSD)
	}
	if est.PctOfDailyBudget != 1.14 {
		t.Errorf("PctOfDailyBudget = %v, want 1.14", est.PctOfDailyBudget)
	}
	if est.Tier != TierModerate {
		t.Errorf("Tier = %v, want moderate", est.Tier)
	}
}

func TestTask_TrivialIgnoresFiles(t *testing.T) {
	est := Task("claude-haiku-3-5-20241022", TierTrivial, 10, 10, false)
	if est.InputTokens != 500 || est.OutputTokens != 200 {
		t.Errorf("tokens = %d/%d, want 500/200 regardless of file count", est.InputTokens, est.OutputTokens)
	}
}

func TestTask_ExtendedThinkingTriplesOutput(t *testing.T) {
	plain := Task("claude-sonnet-4-5-20250514", TierComplex, 0, 10, false)
	thinking := Task("claude-sonnet-4-5-20250514", TierComplex, 0, 10, true)

	if thinking.OutputTokens != 3*plain.OutputTokens {
		t.Errorf("OutputTokens = %d, want %d", thinking.OutputTokens, 3*plain.OutputTokens)
	}
	if thinking.InputTokens != plain.InputTokens {
		t.Errorf("InputTokens changed: %d vs %d", thinking.InputTokens, plain.InputTokens)
	}
	if !strings.Contains(thinking.Breakdown, "Extended thinking") {
		t.Errorf("Breakdown missing thinking note: %q", thinking.Breakdown)
	}
}

func TestTask_ZeroDailyLimit(t *testing.T) {
	est := Task("claude-sonnet-4-5-20250514", TierSimple, 0, 0, false)
	if est.PctOfDailyBudget != 0 {
		t.Errorf("PctOfDailyBudget = %v, want 0 with no daily limit", est.PctOfDailyBudget)
	}
}

func TestTask_Breakdown(t *testing.T) {
	est := Task("claude-sonnet-4-5-20250514", TierSimple, 3, 10, false)
	want := "Complexity: simple; Files: 3; Est. input: 6500 tokens; Est. output: 2500 tokens"
	if est.Breakdown != want {
		t.Errorf("Breakdown = %q, want %q", est.Breakdown, want)
	}
}

func TestEnrichWithPlan(t *testing.T) {
	est := Task("claude-sonnet-4-5-20250514", TierModerate, 0, 10, false)

	enriched := EnrichWithPlan(est, &plan.Plan{Type: plan.TypeMax5x})
	if enriched.PctOfPlan == nil {
		t.Fatal("PctOfPlan is nil")
	}
	if enriched.PlanLabel != "Max 5x" {
		t.Errorf("PlanLabel = %q, want Max 5x", enriched.PlanLabel)
	}
	if enriched.PlanAllowanceUSD != 100 {
		t.Errorf("PlanAllowanceUSD = %v, want 100", enriched.PlanAllowanceUSD)
	}

	if got := EnrichWithPlan(est, nil); got.PctOfPlan != nil || got.PlanLabel != "" {
		t.Error("nil plan should leave the estimate unannotated")
	}
}

func TestProject_RollsUpSubtasks(t *testing.T) {
	subtasks := []Subtask{
		{Description: "fix the login bug"},
		{Description: "implement rate limiting", FileCount: 2},
		{Description: "touch up docs", Tier: TierTrivial},
	}

	proj := Project("claude-sonnet-4-5-20250514", subtasks, 10, 1, false, nil)

	if len(proj.Subtasks) != 3 {
		t.Fatalf("got %d subtasks, want 3", len(proj.Subtasks))
	}
	if proj.Subtasks[0].Tier != TierSimple {
		t.Errorf("subtask 0 tier = %v, want simple", proj.Subtasks[0].Tier)
	}
	if proj.Subtasks[1].Tier != TierComplex {
		t.Errorf("subtask 1 tier = %v, want complex", proj.Subtasks[1].Tier)
	}
	if proj.Subtasks[2].Tier != TierTrivial {
		t.Errorf("subtask 2 tier = %v, want trivial", proj.Subtasks[2].Tier)
	}

	var sum float64
	for _, st := range proj.Subtasks {
		sum += st.CostUSD
	}
	if math.Abs(proj.TotalCostUSD-sum) > 1e-4 {
		t.Errorf("TotalCostUSD = %v, subtask sum = %v", proj.TotalCostUSD, sum)
	}
	if proj.TotalOverSessionsUSD != proj.TotalCostUSD {
		t.Errorf("one session: TotalOverSessionsUSD = %v, want %v", proj.TotalOverSessionsUSD, proj.TotalCostUSD)
	}
	if proj.PctOfPlan != nil {
		t.Error("PctOfPlan should be nil without a plan")
	}
}

func TestProject_SessionsMultiply(t *testing.T) {
	subtasks := []Subtask{{Tier: TierModerate}}
	proj := Project("claude-sonnet-4-5-20250514", subtasks, 10, 4, false, nil)

	want := math.Round(proj.TotalCostUSD*4*10000) / 10000
	if math.Abs(proj.TotalOverSessionsUSD-want) > 1e-4 {
		t.Errorf("TotalOverSessionsUSD = %v, want %v", proj.TotalOverSessionsUSD, want)
	}
	if proj.Sessions != 4 {
		t.Errorf("Sessions = %d, want 4", proj.Sessions)
	}
}

func TestProject_PlanPercentages(t *testing.T) {
	subtasks := []Subtask{{Tier: TierMassive, FileCount: 4}}
	p := &plan.Plan{Type: plan.TypePro}

	proj := Project("claude-opus-4-5-20251101", subtasks, 10, 2, false, p)

	if proj.PctOfPlan == nil || proj.PctOfPlanOverSessions == nil {
		t.Fatal("plan percentages missing")
	}
	if *proj.PctOfPlanOverSessions <= *proj.PctOfPlan {
		t.Errorf("sessions pct %v should exceed single-run pct %v",
			*proj.PctOfPlanOverSessions, *proj.PctOfPlan)
	}
	if proj.Subtasks[0].PctOfPlan == nil {
		t.Error("subtask plan pct missing")
	}
}

func TestValidTier(t *testing.T) {
	for _, tier := range []Tier{TierTrivial, TierSimple, TierModerate, TierComplex, TierMassive} {
		if !ValidTier(tier) {
			t.Errorf("ValidTier(%v) = false", tier)
		}
	}
	if ValidTier(Tier("huge")) || ValidTier(Tier("")) {
		t.Error("unknown tiers should be invalid")
	}
}
