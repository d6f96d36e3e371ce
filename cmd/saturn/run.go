package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"mercator-hq/saturn/pkg/cli"
	"mercator-hq/saturn/pkg/config"
	"mercator-hq/saturn/pkg/retention"
	"mercator-hq/saturn/pkg/server"
	"mercator-hq/saturn/pkg/telemetry/logging"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Saturn governance server",
	Long: `Start the Saturn governance server with the specified configuration.

The server exposes the admission, cost reporting, and analysis API on the
configured address, runs the retention scheduler, and publishes Prometheus
metrics.

Examples:
  # Start with default config
  saturn run

  # Start with custom config
  saturn run --config /etc/saturn/config.yaml

  # Override listen address
  saturn run --listen 0.0.0.0:9090

  # Validate config without starting the server
  saturn run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the server")
}

func runServer(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	if _, err := logging.Setup(cfg.Telemetry.Logging); err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	fmt.Printf("Saturn v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Open storage
	slog.Info("opening storage", "backend", cfg.Storage.Backend)
	st, err := openStore(cfg)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer st.close()
	fmt.Printf("✓ Storage initialized (%s)\n", cfg.Storage.Backend)

	// Create governance engine
	eng, table, registry, err := buildEngine(ctx, cfg, st)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	fmt.Printf("✓ Engine initialized (daily limit $%.2f, per-operation limit $%.2f)\n",
		cfg.Budget.DailyLimitUSD, cfg.Budget.PerOperationLimitUSD)

	// Start pricing hot reload if enabled
	if cfg.Pricing.Watch {
		watcher, err := config.NewPricingWatcher(cfgFile, table)
		if err != nil {
			slog.Warn("failed to start pricing watcher", "error", err)
		} else {
			go func() {
				if err := watcher.Watch(ctx); err != nil {
					slog.Error("pricing watcher stopped", "error", err)
				}
			}()
			defer watcher.Stop()
			fmt.Println("✓ Pricing hot reload enabled")
		}
	}

	// Start retention scheduler
	pruner := retention.NewPruner(st.retention, &retention.Config{
		RecordRetentionDays:    cfg.Retention.RecordRetentionDays,
		ViolationRetentionDays: cfg.Retention.ViolationRetentionDays,
		HistoryRetentionDays:   cfg.Retention.HistoryRetentionDays,
		PruneSchedule:          cfg.Retention.PruneSchedule,
		RollupSchedule:         cfg.Retention.RollupSchedule,
	})
	scheduler := retention.NewScheduler(pruner, eng.Aggregator())
	if err := scheduler.Start(ctx); err != nil {
		slog.Warn("failed to start retention scheduler", "error", err)
	} else {
		defer scheduler.Stop()
		fmt.Println("✓ Retention scheduler started")
	}

	// Start HTTP server in background goroutine
	srv := server.NewServer(cfg.Server, eng, registry)
	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting HTTP server", "address", cfg.Server.ListenAddress)
		if err := srv.Start(ctx); err != nil {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	fmt.Println()
	fmt.Printf("✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Health endpoint: http://%s/health\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Metrics endpoint: http://%s%s\n", cfg.Server.ListenAddress, cfg.Server.MetricsPath)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for shutdown signal or server error
	sigChan := cli.WaitForShutdown()

	select {
	case err := <-errChan:
		return cli.NewCommandError("run", err)
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal %s, shutting down gracefully...\n", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown failed", "error", err)
			return cli.NewCommandError("run", err)
		}

		fmt.Println("✓ Server stopped")
		return nil
	}
}
