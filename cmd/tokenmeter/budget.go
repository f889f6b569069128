package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Show today's budget status",
	Long: `Show today's spending against the configured budget.

Pending hook events are ingested first, and when an admin API key is
configured the provider's usage report is consulted as well. The
reported status reflects whichever source shows the higher spend.

Examples:
  tokenmeter budget`,
	RunE: runBudget,
}

func init() {
	rootCmd.AddCommand(budgetCmd)
}

func runBudget(cmd *cobra.Command, args []string) error {
	cli, err := newCLIApp()
	if err != nil {
		return err
	}
	defer cli.Close()

	snap, err := cli.tracker.CheckBudget(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("Status:       %s\n", strings.ToUpper(string(snap.Status)))
	fmt.Printf("Daily limit:  $%.2f\n", snap.DailyLimitUSD)
	fmt.Printf("Spent today:  $%.4f (%.1f%%)\n", snap.SpentTodayUSD, snap.PctUsed)
	fmt.Printf("Remaining:    $%.4f\n", snap.RemainingUSD)
	fmt.Printf("Requests:     %d\n", snap.RequestCountToday)

	if snap.MonthlyLimitUSD != nil && snap.SpentThisMonthUSD != nil {
		fmt.Printf("This month:   $%.4f / $%.2f\n", *snap.SpentThisMonthUSD, *snap.MonthlyLimitUSD)
	}
	if snap.APISpentTodayUSD != nil {
		fmt.Printf("API reported: $%.4f (%.1f%%)\n", *snap.APISpentTodayUSD, *snap.APIPctUsed)
	}

	return nil
}
