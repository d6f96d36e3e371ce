package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "saturn",
	Short: "Saturn - cost governance engine for data warehouse workloads",
	Long: `Saturn is a cost governance engine that tracks data warehouse operation
costs against configurable budgets.

It provides:
  - Pre-execution admission checks against projected costs
  - A persistent cost ledger with per-operation attribution
  - Threshold-based budget rules with warning and violation levels
  - Daily cost rollups, trend analysis, and anomaly detection
  - Scheduled retention pruning of aged records`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
