package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tokenmeter/tokenmeter/app"
	"github.com/tokenmeter/tokenmeter/domain/estimate"
)

var (
	estimateTier     string
	estimateFiles    int
	estimateModel    string
	estimateThinking bool
)

var estimateCmd = &cobra.Command{
	Use:   "estimate [task description]",
	Short: "Estimate cost for a planned task",
	Long: `Project token usage and cost for a planned task before running it.

Complexity is inferred from the task description unless --complexity is
given. The estimate includes the share of the daily budget it would
consume, and of the plan allowance when a plan is configured.

Examples:
  tokenmeter estimate "fix the login bug"
  tokenmeter estimate "refactor the storage layer" --files=12
  tokenmeter estimate --complexity=complex --files=5 --thinking`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEstimate,
}

func init() {
	rootCmd.AddCommand(estimateCmd)

	estimateCmd.Flags().StringVar(&estimateTier, "complexity", "", "complexity tier: trivial, simple, moderate, complex, or massive")
	estimateCmd.Flags().IntVar(&estimateFiles, "files", 0, "number of files involved")
	estimateCmd.Flags().StringVar(&estimateModel, "model", "", "model identifier (default from config)")
	estimateCmd.Flags().BoolVar(&estimateThinking, "thinking", false, "assume extended thinking output")
}

func runEstimate(cmd *cobra.Command, args []string) error {
	var description string
	if len(args) > 0 {
		description = args[0]
	}
	if description == "" && estimateTier == "" {
		return fmt.Errorf("provide a task description or --complexity")
	}

	cli, err := newCLIApp()
	if err != nil {
		return err
	}
	defer cli.Close()

	est, err := cli.tracker.EstimateTask(app.EstimateTaskInput{
		TaskDescription:  description,
		Tier:             estimate.Tier(estimateTier),
		FileCount:        estimateFiles,
		Model:            estimateModel,
		ExtendedThinking: estimateThinking,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Complexity:   %s\n", est.Tier)
	fmt.Printf("Input tokens:  %d\n", est.InputTokens)
	fmt.Printf("Output tokens: %d\n", est.OutputTokens)
	fmt.Printf("Cost:          $%.4f (%.2f%% of daily budget)\n", est.CostUSD, est.PctOfDailyBudget)
	if est.PctOfPlan != nil {
		fmt.Printf("Plan:          %.2f%% of %s ($%.2f/mo)\n", *est.PctOfPlan, est.PlanLabel, est.PlanAllowanceUSD)
	}
	fmt.Printf("Breakdown:     %s\n", est.Breakdown)
	return nil
}
