package app_test

import (
	"testing"

	"github.com/tokenmeter/tokenmeter/app"
	"github.com/tokenmeter/tokenmeter/config"
)

func f64(v float64) *float64 { return &v }

func TestConfigureBudget_PartialUpdate(t *testing.T) {
	fx := newFixture(t, nil, nil)

	cfg, err := fx.tracker.ConfigureBudget(app.ConfigureBudgetInput{
		DailyLimitUSD: f64(25),
	})
	if err != nil {
		t.Fatalf("configure: %v", err)
	}

	if cfg.Budget.DailyLimitUSD != 25 {
		t.Errorf("DailyLimitUSD = %v, want 25", cfg.Budget.DailyLimitUSD)
	}
	// Untouched fields keep their values.
	if cfg.Budget.WarningThresholdPct != 80 {
		t.Errorf("WarningThresholdPct = %v, want 80", cfg.Budget.WarningThresholdPct)
	}
	// The running config swapped too.
	if got := fx.holder.Get().Budget.DailyLimitUSD; got != 25 {
		t.Errorf("holder DailyLimitUSD = %v, want 25", got)
	}
}

func TestConfigureBudget_SetAndClearMonthly(t *testing.T) {
	fx := newFixture(t, nil, nil)

	cfg, err := fx.tracker.ConfigureBudget(app.ConfigureBudgetInput{MonthlyLimitUSD: f64(300)})
	if err != nil {
		t.Fatalf("configure: %v", err)
	}
	if cfg.Budget.MonthlyLimitUSD == nil || *cfg.Budget.MonthlyLimitUSD != 300 {
		t.Fatalf("MonthlyLimitUSD = %v, want 300", cfg.Budget.MonthlyLimitUSD)
	}

	cfg, err = fx.tracker.ConfigureBudget(app.ConfigureBudgetInput{ClearMonthlyLimit: true})
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if cfg.Budget.MonthlyLimitUSD != nil {
		t.Errorf("MonthlyLimitUSD = %v, want nil after clear", *cfg.Budget.MonthlyLimitUSD)
	}
}

func TestConfigureBudget_PlanLifecycle(t *testing.T) {
	fx := newFixture(t, nil, nil)

	cfg, err := fx.tracker.ConfigureBudget(app.ConfigureBudgetInput{
		Plan: &config.PlanConfig{Type: "team", Seats: 4},
	})
	if err != nil {
		t.Fatalf("configure: %v", err)
	}
	if cfg.Plan == nil || cfg.Plan.Type != "team" || cfg.Plan.Seats != 4 {
		t.Fatalf("Plan = %+v", cfg.Plan)
	}

	cfg, err = fx.tracker.ConfigureBudget(app.ConfigureBudgetInput{ClearPlan: true})
	if err != nil {
		t.Fatalf("clear plan: %v", err)
	}
	if cfg.Plan != nil {
		t.Errorf("Plan = %+v, want nil", cfg.Plan)
	}
}

func TestConfigureBudget_RejectsConflictsAndInvalid(t *testing.T) {
	fx := newFixture(t, nil, nil)

	if _, err := fx.tracker.ConfigureBudget(app.ConfigureBudgetInput{
		MonthlyLimitUSD:   f64(100),
		ClearMonthlyLimit: true,
	}); err == nil {
		t.Error("expected conflict error for monthly limit")
	}

	if _, err := fx.tracker.ConfigureBudget(app.ConfigureBudgetInput{
		Plan:      &config.PlanConfig{Type: "pro"},
		ClearPlan: true,
	}); err == nil {
		t.Error("expected conflict error for plan")
	}

	if _, err := fx.tracker.ConfigureBudget(app.ConfigureBudgetInput{
		DailyLimitUSD: f64(-5),
	}); err == nil {
		t.Error("expected validation error for negative limit")
	}
	// Failed update leaves the running config alone.
	if got := fx.holder.Get().Budget.DailyLimitUSD; got != 10 {
		t.Errorf("DailyLimitUSD = %v, want untouched 10", got)
	}
}
