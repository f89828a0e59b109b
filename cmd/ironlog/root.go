package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/ironlog"
	"github.com/aretw0/ironlog/internal/cli"
	"github.com/aretw0/ironlog/internal/config"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ironlog",
	Short: "IronLog runs guided strength workouts",
	Long: `IronLog tracks one workout in progress per user: sets seeded from your
history, combined slots, a rest timer and a permanent record when you finish.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		loaded, err := config.Load(path, cmd.Flags())
		if err != nil {
			return err
		}
		cfg = loaded
		logger = cli.NewLogger(cfg.Log.Level)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", cli.Describe(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file (default ./ironlog.yaml)")
	rootCmd.PersistentFlags().String("user", "", "User id to act as")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("data-dir", "", "Directory for file and SQLite storage")
	rootCmd.Version = strings.TrimSpace(ironlog.Version)
}

// openStack builds the engine from the loaded configuration.
func openStack(cmd *cobra.Command, opts ...ironlog.Option) (*cli.Stack, error) {
	return cli.Build(cmd.Context(), cfg, logger, opts...)
}

func requireUser() (string, error) {
	if cfg.User == "" {
		return "", errors.WithHint(errors.New("no user selected"), "pass --user or set IRONLOG_USER")
	}
	return cfg.User, nil
}
