package app_test

import (
	"context"
	"testing"

	"github.com/tokenmeter/tokenmeter/app"
	"github.com/tokenmeter/tokenmeter/config"
	"github.com/tokenmeter/tokenmeter/domain/estimate"
)

func TestEstimateTask_InfersTierAndDefaults(t *testing.T) {
	fx := newFixture(t, nil, nil)

	est, err := fx.tracker.EstimateTask(app.EstimateTaskInput{
		TaskDescription: "refactor the storage layer",
		FileCount:       2,
	})
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}

	if est.Tier != estimate.TierMassive {
		t.Errorf("Tier = %v, want massive", est.Tier)
	}
	// massive base 50000/20000 plus 2 files at 2500/4000.
	if est.InputTokens != 55_000 || est.OutputTokens != 28_000 {
		t.Errorf("tokens = %d/%d, want 55000/28000", est.InputTokens, est.OutputTokens)
	}
	if est.PctOfPlan != nil {
		t.Error("no plan configured, PctOfPlan should be nil")
	}
}

func TestEstimateTask_ExplicitTierWins(t *testing.T) {
	fx := newFixture(t, nil, nil)

	est, err := fx.tracker.EstimateTask(app.EstimateTaskInput{
		TaskDescription: "refactor everything",
		Tier:            estimate.TierTrivial,
	})
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if est.Tier != estimate.TierTrivial {
		t.Errorf("Tier = %v, want trivial override", est.Tier)
	}
}

func TestEstimateTask_UnknownTier(t *testing.T) {
	fx := newFixture(t, nil, nil)

	if _, err := fx.tracker.EstimateTask(app.EstimateTaskInput{Tier: estimate.Tier("gigantic")}); err == nil {
		t.Fatal("expected error for unknown tier")
	}
}

func TestEstimateTask_PlanAnnotations(t *testing.T) {
	fx := newFixture(t, func(c *config.Config) {
		c.Plan = &config.PlanConfig{Type: "max_5x"}
	}, nil)

	est, err := fx.tracker.EstimateTask(app.EstimateTaskInput{Tier: estimate.TierModerate})
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if est.PctOfPlan == nil {
		t.Fatal("PctOfPlan missing with a configured plan")
	}
	if est.PlanLabel != "Max 5x" || est.PlanAllowanceUSD != 100 {
		t.Errorf("plan fields = %q/%v", est.PlanLabel, est.PlanAllowanceUSD)
	}
}

func TestEstimateProject(t *testing.T) {
	fx := newFixture(t, nil, nil)

	proj, err := fx.tracker.EstimateProject(app.EstimateProjectInput{
		Subtasks: []estimate.Subtask{
			{Description: "fix flaky test"},
			{Description: "implement caching", FileCount: 3},
		},
		Sessions: 2,
	})
	if err != nil {
		t.Fatalf("estimate project: %v", err)
	}

	if len(proj.Subtasks) != 2 {
		t.Fatalf("got %d subtasks, want 2", len(proj.Subtasks))
	}
	if proj.Sessions != 2 {
		t.Errorf("Sessions = %d, want 2", proj.Sessions)
	}
	if proj.TotalOverSessionsUSD <= proj.TotalCostUSD {
		t.Errorf("TotalOverSessionsUSD = %v should exceed single run %v",
			proj.TotalOverSessionsUSD, proj.TotalCostUSD)
	}
}

func TestEstimateProject_Validation(t *testing.T) {
	fx := newFixture(t, nil, nil)

	if _, err := fx.tracker.EstimateProject(app.EstimateProjectInput{}); err == nil {
		t.Error("expected error for empty subtask list")
	}

	if _, err := fx.tracker.EstimateProject(app.EstimateProjectInput{
		Subtasks: []estimate.Subtask{{Tier: estimate.Tier("nah")}},
	}); err == nil {
		t.Error("expected error for unknown subtask tier")
	}

	// Zero sessions is treated as one.
	proj, err := fx.tracker.EstimateProject(app.EstimateProjectInput{
		Subtasks: []estimate.Subtask{{Tier: estimate.TierSimple}},
	})
	if err != nil {
		t.Fatalf("estimate project: %v", err)
	}
	if proj.Sessions != 1 {
		t.Errorf("Sessions = %d, want 1", proj.Sessions)
	}
}

func TestRecommendations(t *testing.T) {
	fx := newFixture(t, func(c *config.Config) {
		c.DefaultModel = "claude-opus-4-5-20251101"
	}, nil)
	ctx := context.Background()

	recs, err := fx.tracker.Recommendations(ctx, "", estimate.TierSimple, false)
	if err != nil {
		t.Fatalf("recommendations: %v", err)
	}

	var sawSonnet bool
	for _, r := range recs {
		if r.Action == "Switch to Sonnet" {
			sawSonnet = true
		}
	}
	if !sawSonnet {
		t.Errorf("expected sonnet recommendation for opus default model, got %+v", recs)
	}

	if _, err := fx.tracker.Recommendations(ctx, "", estimate.Tier("bogus"), false); err == nil {
		t.Error("expected error for unknown tier")
	}
}
