package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tokenmeter/tokenmeter/app"
	"github.com/tokenmeter/tokenmeter/config"
)

var (
	cfgDailyLimit   float64
	cfgMonthlyLimit float64
	cfgNoMonthly    bool
	cfgWarnPct      float64
	cfgCritPct      float64
	cfgPlanType     string
	cfgPlanSeats    int
	cfgNoPlan       bool
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Update budget limits and plan",
	Long: `Update budget configuration. Only the flags you pass are changed;
the result is validated and written back to the config file.

Examples:
  tokenmeter configure --daily-limit=25
  tokenmeter configure --monthly-limit=300 --warning-pct=75
  tokenmeter configure --plan=max_5x
  tokenmeter configure --no-monthly-limit`,
	RunE: runConfigure,
}

func init() {
	rootCmd.AddCommand(configureCmd)

	configureCmd.Flags().Float64Var(&cfgDailyLimit, "daily-limit", 0, "daily spending limit in USD")
	configureCmd.Flags().Float64Var(&cfgMonthlyLimit, "monthly-limit", 0, "monthly spending limit in USD")
	configureCmd.Flags().BoolVar(&cfgNoMonthly, "no-monthly-limit", false, "disable monthly tracking")
	configureCmd.Flags().Float64Var(&cfgWarnPct, "warning-pct", 0, "warning threshold percentage")
	configureCmd.Flags().Float64Var(&cfgCritPct, "critical-pct", 0, "critical threshold percentage")
	configureCmd.Flags().StringVar(&cfgPlanType, "plan", "", "subscription plan: pro, max_5x, max_20x, team, enterprise, or api")
	configureCmd.Flags().IntVar(&cfgPlanSeats, "seats", 0, "plan seats (team and enterprise)")
	configureCmd.Flags().BoolVar(&cfgNoPlan, "no-plan", false, "remove the configured plan")
}

func runConfigure(cmd *cobra.Command, args []string) error {
	cli, err := newCLIApp()
	if err != nil {
		return err
	}
	defer cli.Close()

	var in app.ConfigureBudgetInput
	if cmd.Flags().Changed("daily-limit") {
		in.DailyLimitUSD = &cfgDailyLimit
	}
	if cmd.Flags().Changed("monthly-limit") {
		in.MonthlyLimitUSD = &cfgMonthlyLimit
	}
	in.ClearMonthlyLimit = cfgNoMonthly
	if cmd.Flags().Changed("warning-pct") {
		in.WarningThresholdPct = &cfgWarnPct
	}
	if cmd.Flags().Changed("critical-pct") {
		in.CriticalThresholdPct = &cfgCritPct
	}
	if cmd.Flags().Changed("plan") {
		in.Plan = &config.PlanConfig{Type: cfgPlanType, Seats: cfgPlanSeats}
	}
	in.ClearPlan = cfgNoPlan

	cfg, err := cli.tracker.ConfigureBudget(in)
	if err != nil {
		return err
	}

	fmt.Println("Configuration updated.")
	fmt.Printf("  daily limit:  $%.2f\n", cfg.Budget.DailyLimitUSD)
	if cfg.Budget.MonthlyLimitUSD != nil {
		fmt.Printf("  monthly limit: $%.2f\n", *cfg.Budget.MonthlyLimitUSD)
	}
	fmt.Printf("  warning at:   %.0f%%\n", cfg.Budget.WarningThresholdPct)
	fmt.Printf("  critical at:  %.0f%%\n", cfg.Budget.CriticalThresholdPct)
	if cfg.Plan != nil {
		fmt.Printf("  plan:         %s\n", cfg.Plan.Type)
	}
	return nil
}
