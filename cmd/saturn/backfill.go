package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/saturn/pkg/cli"
	"mercator-hq/saturn/pkg/config"
)

var backfillFlags struct {
	days int
}

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Rebuild daily history rollups from the cost ledger",
	Long: `Rebuild daily history rollups by re-aggregating the cost ledger for
each of the past N days. Existing rollups for those days are replaced.

Use this after importing historical cost records, or when the scheduled
rollup was down and days are missing from the history.

Examples:
  # Rebuild the past week
  saturn backfill --days 7

  # Rebuild the past quarter
  saturn backfill --days 90`,
	RunE: runBackfill,
}

func init() {
	rootCmd.AddCommand(backfillCmd)

	backfillCmd.Flags().IntVar(&backfillFlags.days, "days", 30, "number of past days to rebuild")
}

func runBackfill(cmd *cobra.Command, args []string) error {
	if backfillFlags.days < 1 {
		return cli.NewCommandError("backfill", fmt.Errorf("--days must be at least 1, got %d", backfillFlags.days))
	}

	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	st, err := openStore(cfg)
	if err != nil {
		return cli.NewCommandError("backfill", err)
	}
	defer st.close()

	ctx := context.Background()
	eng, _, _, err := buildEngine(ctx, cfg, st)
	if err != nil {
		return cli.NewCommandError("backfill", err)
	}

	progress := cli.NewProgressReporter(os.Stderr)
	progress.Start(int64(backfillFlags.days))

	// Oldest day first so a partial run leaves a contiguous history.
	today := time.Now().UTC()
	for i := backfillFlags.days; i >= 1; i-- {
		day := today.AddDate(0, 0, -i)
		if _, err := eng.RecordDaily(ctx, day); err != nil {
			progress.Error(err)
			return cli.NewCommandError("backfill",
				fmt.Errorf("rollup for %s: %w", day.Format("2006-01-02"), err))
		}
		progress.Update(int64(backfillFlags.days - i + 1))
	}
	progress.Finish()

	fmt.Printf("✓ Rebuilt %d daily rollups\n", backfillFlags.days)
	return nil
}
