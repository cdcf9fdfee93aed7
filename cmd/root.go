package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizmind/internal/config"
	"github.com/abhisek/quizmind/internal/logger"
	"github.com/abhisek/quizmind/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "quizmind",
	Short: "Adaptive AI quiz backend",
	Long: `quizmind generates quizzes with an LLM, grades answers, adapts difficulty
to each learner and ranks completed quizzes on per-topic leaderboards.`,
	SilenceUsage: true,
}

// Execute runs the root command, cancelling its context on SIGINT or SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides QUIZMIND_DB env var)")
	rootCmd.PersistentFlags().String("env", "", "Path to a dotenv file (default .env when present)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the dotenv file named by --env and the environment.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env")
	cfg, err := config.Load(envFile)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the configured QUIZMIND_DB, then the default XDG path.
func resolveDBPath(cmd *cobra.Command, cfg config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, os.MkdirAll(filepath.Dir(p), 0o755)
	}
	if cfg.DBPath != "" {
		return cfg.DBPath, os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755)
	}
	return store.DefaultDBPath()
}

// openStore loads the config and opens the database it points at.
func openStore(cmd *cobra.Command) (*store.Store, config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, cfg, err
	}
	dbPath, err := resolveDBPath(cmd, cfg)
	if err != nil {
		return nil, cfg, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, cfg, fmt.Errorf("open database: %w", err)
	}
	return s, cfg, nil
}

// newLogger builds the process logger. CLI subcommands log warnings only.
func newLogger(cfg config.Config, quiet bool) (*logger.Logger, error) {
	if quiet {
		return logger.New("quiet")
	}
	return logger.New(cfg.LogMode)
}
