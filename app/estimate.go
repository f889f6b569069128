package app

import (
	"context"
	"fmt"

	"github.com/tokenmeter/tokenmeter/config"
	"github.com/tokenmeter/tokenmeter/domain/estimate"
	"github.com/tokenmeter/tokenmeter/domain/plan"
	"github.com/tokenmeter/tokenmeter/domain/recommend"
)

// EstimateTaskInput describes a planned task to price.
type EstimateTaskInput struct {
	TaskDescription  string
	Tier             estimate.Tier // empty infers from the description
	FileCount        int
	Model            string // empty uses the configured default model
	ExtendedThinking bool
}

// EstimateTask projects tokens and cost for a single planned task.
// Estimation is advisory and never fails.
func (s *TrackerService) EstimateTask(in EstimateTaskInput) (estimate.TaskEstimate, error) {
	if in.Tier != "" && !estimate.ValidTier(in.Tier) {
		return estimate.TaskEstimate{}, fmt.Errorf("unknown complexity tier %q", in.Tier)
	}
	cfg := s.cfg.Get()

	tier := in.Tier
	if tier == "" {
		tier = estimate.InferTier(in.TaskDescription)
	}
	model := in.Model
	if model == "" {
		model = cfg.DefaultModel
	}

	est := estimate.Task(model, tier, in.FileCount, cfg.Budget.DailyLimitUSD, in.ExtendedThinking)
	return estimate.EnrichWithPlan(est, configuredPlan(cfg)), nil
}

// EstimateProjectInput describes a multi-subtask project to price.
type EstimateProjectInput struct {
	Subtasks         []estimate.Subtask
	Model            string
	Sessions         int // repeat count for the whole project, min 1
	ExtendedThinking bool
}

// EstimateProject prices each subtask independently and rolls them up.
func (s *TrackerService) EstimateProject(in EstimateProjectInput) (estimate.ProjectEstimate, error) {
	if len(in.Subtasks) == 0 {
		return estimate.ProjectEstimate{}, fmt.Errorf("at least one subtask is required")
	}
	for _, st := range in.Subtasks {
		if st.Tier != "" && !estimate.ValidTier(st.Tier) {
			return estimate.ProjectEstimate{}, fmt.Errorf("unknown complexity tier %q", st.Tier)
		}
	}
	cfg := s.cfg.Get()

	model := in.Model
	if model == "" {
		model = cfg.DefaultModel
	}
	sessions := in.Sessions
	if sessions < 1 {
		sessions = 1
	}

	return estimate.Project(model, in.Subtasks, cfg.Budget.DailyLimitUSD, sessions, in.ExtendedThinking, configuredPlan(cfg)), nil
}

// Recommendations returns cost-saving suggestions for the current budget
// state and planned work.
func (s *TrackerService) Recommendations(ctx context.Context, currentModel string, taskTier estimate.Tier, isUrgent bool) ([]recommend.Recommendation, error) {
	if taskTier != "" && !estimate.ValidTier(taskTier) {
		return nil, fmt.Errorf("unknown complexity tier %q", taskTier)
	}
	snap, err := s.CheckBudget(ctx)
	if err != nil {
		return nil, err
	}
	if currentModel == "" {
		currentModel = s.cfg.Get().DefaultModel
	}
	return recommend.For(snap, currentModel, taskTier, isUrgent), nil
}

// configuredPlan converts the config plan descriptor into the domain
// value, nil when no plan is tracked.
func configuredPlan(cfg *config.Config) *plan.Plan {
	if cfg.Plan == nil {
		return nil
	}
	return &plan.Plan{
		Type:                plan.Type(cfg.Plan.Type),
		MonthlyAllowanceUSD: cfg.Plan.MonthlyAllowanceUSD,
		Seats:               cfg.Plan.Seats,
		CustomLabel:         cfg.Plan.CustomLabel,
	}
}
