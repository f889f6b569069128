package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var historyDays int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show daily usage history",
	Long: `Show daily usage aggregates, most recent first. Days without any
recorded usage are omitted.

Examples:
  tokenmeter history
  tokenmeter history --days=30`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyDays, "days", 7, "number of days to look back (1-90)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cli, err := newCLIApp()
	if err != nil {
		return err
	}
	defer cli.Close()

	report, err := cli.tracker.History(context.Background(), historyDays)
	if err != nil {
		return err
	}

	if len(report.Days) == 0 {
		fmt.Println("No usage recorded in this period.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tINPUT\tOUTPUT\tCACHE R\tCACHE W\tREQUESTS\tCOST")
	for _, d := range report.Days {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t$%.4f\n",
			d.Date, d.InputTokens, d.OutputTokens,
			d.CacheReadTokens, d.CacheWriteTokens,
			d.RequestCount, d.CostUSD)
	}
	w.Flush()

	fmt.Printf("\nTotal: $%.4f  Average: $%.4f/day\n", report.TotalCostUSD, report.AvgDailyUSD)
	return nil
}
