package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tokenmeter",
	Short: "Token usage tracking and budget management for metered AI APIs",
	Long: `Tokenmeter records per-request token usage, keeps daily spending
aggregates, and answers budget questions against local estimates and
the provider's authoritative usage report.

Quick start:
  tokenmeter serve      # Start the HTTP service
  tokenmeter budget     # Show today's budget status

Management:
  tokenmeter log        # Record a usage event
  tokenmeter history    # Show daily usage history
  tokenmeter estimate   # Estimate cost for a planned task
  tokenmeter configure  # Update budget limits`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", defaultConfigPath(), "config file path")
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "tokenmeter.yaml"
	}
	return filepath.Join(home, ".config", "tokenmeter", "config.yaml")
}
