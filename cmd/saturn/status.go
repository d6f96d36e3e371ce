package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/saturn/pkg/budget"
	"mercator-hq/saturn/pkg/cli"
	"mercator-hq/saturn/pkg/config"
)

var statusFlags struct {
	output     string
	windowDays int
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current budget status",
	Long: `Show the current spend against every budget rule, along with a
summary of recent violations.

Examples:
  # Human-readable status
  saturn status

  # Machine-readable status
  saturn status --output json

  # Violations over the past week only
  saturn status --window-days 7`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVarP(&statusFlags.output, "output", "o", "text", "output format (text, json)")
	statusCmd.Flags().IntVar(&statusFlags.windowDays, "window-days", 30, "violation summary window in days")
}

// statusReport is the combined view the status command prints.
type statusReport struct {
	Budget     *budget.Status           `json:"budget"`
	Violations *budget.ViolationSummary `json:"violations"`
}

func (r *statusReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Overall: %s\n\n", r.Budget.Overall)
	fmt.Fprintln(&b, "Rules:")
	for _, rs := range r.Budget.Rules {
		fmt.Fprintf(&b, "  %-24s %-10s $%.2f / $%.2f (%.1f%%) [%s]\n",
			rs.RuleName, rs.Scope, rs.CurrentUSD, rs.LimitUSD, rs.PercentageUsed, rs.Level)
	}
	fmt.Fprintf(&b, "\nViolations (last %d days): %d total, %d resolved (%.0f%%)",
		r.Violations.WindowDays, r.Violations.Total, r.Violations.Resolved,
		r.Violations.ResolutionRate*100)
	return b.String()
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	st, err := openStore(cfg)
	if err != nil {
		return cli.NewCommandError("status", err)
	}
	defer st.close()

	ctx := context.Background()
	eng, _, _, err := buildEngine(ctx, cfg, st)
	if err != nil {
		return cli.NewCommandError("status", err)
	}

	report := &statusReport{
		Budget:     eng.GetBudgetStatus(),
		Violations: eng.ViolationSummary(statusFlags.windowDays),
	}

	formatter := cli.NewFormatter(cli.OutputFormat(statusFlags.output))
	if err := formatter.FormatTo(os.Stdout, report); err != nil {
		return cli.NewCommandError("status", err)
	}
	return nil
}
