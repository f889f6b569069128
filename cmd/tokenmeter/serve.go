package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tokenmeter/tokenmeter/bootstrap"
)

var (
	hotReload bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the usage tracking HTTP service",
	Long: `Start the tokenmeter HTTP service.

The server will:
  - Load configuration from the config file (or --config)
  - Open the SQLite usage ledger and run migrations
  - Serve the budget, usage, and estimation API
  - Expose Prometheus metrics when enabled

Examples:
  tokenmeter serve
  tokenmeter serve --config /etc/tokenmeter/config.yaml
  tokenmeter serve --hot-reload=false`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "enable hot reload of configuration")
}

func runServe(cmd *cobra.Command, args []string) error {
	app, err := bootstrap.New(cfgFile, hotReload)
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	// Run (blocks until shutdown)
	return app.Run()
}
