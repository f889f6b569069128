package app

import (
	"fmt"

	"github.com/tokenmeter/tokenmeter/config"
)

// ConfigureBudgetInput carries a partial budget reconfiguration.
// Nil fields are left unchanged. ClearMonthlyLimit disables monthly
// tracking; it conflicts with MonthlyLimitUSD.
type ConfigureBudgetInput struct {
	DailyLimitUSD        *float64
	MonthlyLimitUSD      *float64
	ClearMonthlyLimit    bool
	WarningThresholdPct  *float64
	CriticalThresholdPct *float64
	Plan                 *config.PlanConfig
	ClearPlan            bool
}

// ConfigureBudget applies a partial update to the budget configuration,
// validates the result, and persists it. Invalid input leaves the
// running configuration untouched.
func (s *TrackerService) ConfigureBudget(in ConfigureBudgetInput) (*config.Config, error) {
	if in.ClearMonthlyLimit && in.MonthlyLimitUSD != nil {
		return nil, fmt.Errorf("monthly_limit_usd and clearing it are mutually exclusive")
	}
	if in.ClearPlan && in.Plan != nil {
		return nil, fmt.Errorf("plan and clearing it are mutually exclusive")
	}

	cur := s.cfg.Get()
	next := *cur // shallow copy; pointer fields replaced below, never written through

	if in.DailyLimitUSD != nil {
		next.Budget.DailyLimitUSD = *in.DailyLimitUSD
	}
	if in.MonthlyLimitUSD != nil {
		v := *in.MonthlyLimitUSD
		next.Budget.MonthlyLimitUSD = &v
	}
	if in.ClearMonthlyLimit {
		next.Budget.MonthlyLimitUSD = nil
	}
	if in.WarningThresholdPct != nil {
		next.Budget.WarningThresholdPct = *in.WarningThresholdPct
	}
	if in.CriticalThresholdPct != nil {
		next.Budget.CriticalThresholdPct = *in.CriticalThresholdPct
	}
	if in.Plan != nil {
		p := *in.Plan
		next.Plan = &p
	}
	if in.ClearPlan {
		next.Plan = nil
	}

	if err := s.cfg.Update(&next); err != nil {
		return nil, err
	}

	s.logger.Info().
		Float64("daily_limit_usd", next.Budget.DailyLimitUSD).
		Float64("warning_pct", next.Budget.WarningThresholdPct).
		Float64("critical_pct", next.Budget.CriticalThresholdPct).
		Msg("budget configuration updated")

	return &next, nil
}
