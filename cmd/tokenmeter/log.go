package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tokenmeter/tokenmeter/app"
	"github.com/tokenmeter/tokenmeter/domain/usage"
)

var (
	logModel       string
	logSession     string
	logInput       int64
	logOutput      int64
	logCacheRead   int64
	logCacheWrite  int64
	logDescription string
	logSource      string
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Record a usage event",
	Long: `Record one usage event in the ledger. The event is priced from the
model's rate table and folded into today's daily aggregate.

Examples:
  tokenmeter log --input=1200 --output=450
  tokenmeter log --model=claude-opus-4-1 --input=5000 --output=2000 --task="refactor auth"`,
	RunE: runLog,
}

func init() {
	rootCmd.AddCommand(logCmd)

	logCmd.Flags().StringVar(&logModel, "model", "", "model identifier (default from config)")
	logCmd.Flags().StringVar(&logSession, "session", "", "session ID")
	logCmd.Flags().Int64Var(&logInput, "input", 0, "input tokens")
	logCmd.Flags().Int64Var(&logOutput, "output", 0, "output tokens")
	logCmd.Flags().Int64Var(&logCacheRead, "cache-read", 0, "cache read tokens")
	logCmd.Flags().Int64Var(&logCacheWrite, "cache-write", 0, "cache write tokens")
	logCmd.Flags().StringVar(&logDescription, "task", "", "task description")
	logCmd.Flags().StringVar(&logSource, "source", "", "event source: estimate, hook, or manual")
}

func runLog(cmd *cobra.Command, args []string) error {
	cli, err := newCLIApp()
	if err != nil {
		return err
	}
	defer cli.Close()

	ev, err := cli.tracker.LogUsage(context.Background(), app.LogUsageInput{
		SessionID:        logSession,
		Model:            logModel,
		InputTokens:      logInput,
		OutputTokens:     logOutput,
		CacheReadTokens:  logCacheRead,
		CacheWriteTokens: logCacheWrite,
		TaskDescription:  logDescription,
		Source:           usage.Source(logSource),
	})
	if err != nil {
		return err
	}

	fmt.Printf("Recorded %s\n", ev.ID)
	fmt.Printf("  model: %s\n", ev.Model)
	fmt.Printf("  cost:  $%.4f\n", ev.CostUSD)
	return nil
}
