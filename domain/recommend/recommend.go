// Package recommend turns a budget snapshot and planned work into
// cost-saving suggestions. Pure rule list, no state.
package recommend

import (
	"sort"
	"strings"

	"github.com/tokenmeter/tokenmeter/domain/budget"
	"github.com/tokenmeter/tokenmeter/domain/estimate"
)

// Priority orders recommendations for display.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

var priorityOrder = map[Priority]int{
	PriorityHigh:   0,
	PriorityMedium: 1,
	PriorityLow:    2,
}

// Recommendation is one actionable cost-saving suggestion.
type Recommendation struct {
	Action              string   `json:"action"`
	Description         string   `json:"description"`
	EstimatedSavingsPct int      `json:"estimated_savings_pct"`
	Priority            Priority `json:"priority"`
}

// For returns recommendations for the current budget state and planned
// task, sorted by priority (high first). taskTier may be empty when the
// caller has no planned task in mind.
func For(snap budget.Snapshot, currentModel string, taskTier estimate.Tier, isUrgent bool) []Recommendation {
	var recs []Recommendation
	pct := snap.PctUsed

	if strings.Contains(currentModel, "opus") {
		prio := PriorityMedium
		if pct > 60 {
			prio = PriorityHigh
		}
		recs = append(recs, Recommendation{
			Action:              "Switch to Sonnet",
			Description:         "Use claude-sonnet-4-5 instead of Opus for this task. Sonnet handles most coding tasks well at lower cost.",
			EstimatedSavingsPct: 40,
			Priority:            prio,
		})
	}

	smallTask := taskTier == estimate.TierTrivial || taskTier == estimate.TierSimple
	if smallTask && (strings.Contains(currentModel, "sonnet") || strings.Contains(currentModel, "opus")) {
		prio := PriorityLow
		if pct > 50 {
			prio = PriorityHigh
		}
		recs = append(recs, Recommendation{
			Action:              "Switch to Haiku",
			Description:         "Use claude-haiku-3-5 for simple tasks like quick lookups, formatting, or short answers.",
			EstimatedSavingsPct: 67,
			Priority:            prio,
		})
	}

	if pct > 80 && !isUrgent {
		recs = append(recs, Recommendation{
			Action:              "Defer to tomorrow",
			Description:         "Budget is above 80%. Non-urgent work can be deferred to preserve remaining budget for critical tasks.",
			EstimatedSavingsPct: 100,
			Priority:            PriorityHigh,
		})
	}

	bigTask := taskTier == estimate.TierComplex || taskTier == estimate.TierMassive
	if pct > 60 && bigTask {
		recs = append(recs, Recommendation{
			Action:              "Break into smaller tasks",
			Description:         "Split this large task into focused subtasks. Complete the most important parts now and defer the rest.",
			EstimatedSavingsPct: 30,
			Priority:            PriorityMedium,
		})
	}

	if pct > 70 {
		prio := PriorityLow
		if pct > 90 {
			prio = PriorityHigh
		}
		recs = append(recs, Recommendation{
			Action:              "Use shorter responses",
			Description:         "Ask for concise answers. Avoid extended explanations and verbose output to reduce output tokens.",
			EstimatedSavingsPct: 20,
			Priority:            prio,
		})
	}

	if bigTask && !isUrgent {
		prio := PriorityMedium
		if pct > 70 {
			prio = PriorityHigh
		}
		recs = append(recs, Recommendation{
			Action:              "Use Batch API",
			Description:         "For non-time-sensitive bulk operations, use the Batch API for 50% cost reduction.",
			EstimatedSavingsPct: 50,
			Priority:            prio,
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return priorityOrder[recs[i].Priority] < priorityOrder[recs[j].Priority]
	})
	return recs
}
