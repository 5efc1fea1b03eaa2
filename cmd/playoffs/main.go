package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/utakatalp/playoff-picture/internal/config"
	"github.com/utakatalp/playoff-picture/internal/feed"
	"github.com/utakatalp/playoff-picture/internal/scenario"
	"github.com/utakatalp/playoff-picture/internal/store"
)

var (
	verbose    bool
	configPath string
	snapshot   string
	timeout    time.Duration

	logger *zap.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "playoffs",
	Short: "Standings, tie-breaks, clinch scenarios and the playoff bracket",
	Long: `playoffs computes conference standings, playoff seeds and clinch/elimination
scenarios from a season of games, with hypothetical results laid over the games
that are not final yet.

Games come from a YAML/JSON season snapshot (--snapshot) or from Postgres
(postgres.dsn in the config file, or DATABASE_URL).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if snapshot != "" {
			cfg.Feed.SnapshotPath = snapshot
		}

		zc := zap.NewProductionConfig()
		level, err := zapcore.ParseLevel(cfg.Log.Level)
		if err != nil {
			return fmt.Errorf("parsing log level: %w", err)
		}
		zc.Level = zap.NewAtomicLevelAt(level)
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "playoffs.yaml", "Config file")
	rootCmd.PersistentFlags().StringVarP(&snapshot, "snapshot", "s", "", "Season snapshot file (overrides feed.snapshot_path)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Operation timeout")

	rootCmd.AddCommand(standingsCmd)
	rootCmd.AddCommand(scenariosCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(tiebreakCmd)
	rootCmd.AddCommand(bracketCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(importCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// commandContext is canceled on SIGINT/SIGTERM or when the timeout passes.
func commandContext(withTimeout bool) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	if !withTimeout || timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

// openSource returns the configured game source. The returned release func is never nil.
func openSource(ctx context.Context) (feed.Source, func(), error) {
	var (
		gs      feed.GameStore
		release = func() {}
	)
	if cfg.Feed.SnapshotPath == "" && cfg.Postgres.DSN != "" {
		st, err := store.NewStore(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, release, err
		}
		gs = st
		release = func() {
			if err := st.Close(); err != nil {
				logger.Warn("closing store", zap.Error(err))
			}
		}
	}
	src, err := feed.Open(cfg.Feed.SnapshotPath, gs)
	if err != nil {
		return nil, release, fmt.Errorf("no snapshot or database configured: %w", err)
	}
	logger.Debug("opened game source",
		zap.String("snapshot", cfg.Feed.SnapshotPath),
		zap.Bool("postgres", gs != nil),
	)
	return src, release, nil
}

func solverConfig() scenario.Config {
	return scenario.Config{
		MaxNodes:  cfg.Solver.MaxNodes,
		MaxLeaves: cfg.Solver.MaxLeaves,
		MaxPaths:  cfg.Solver.MaxPaths,
		Timeout:   cfg.Solver.Timeout,
	}
}
