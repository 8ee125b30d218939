package main

import (
	"fmt"

	"github.com/proportfolio/gallery/internal/config"
	"github.com/proportfolio/gallery/internal/logger"
	"github.com/spf13/cobra"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Portfolio gallery web front end",
	Long: `Serves the portfolio gallery to browsers and keeps per-browser sessions
in MySQL or Redis. Works and accounts live either in the remote auth and
portfolio services (BACKEND=remote) or in the same store (BACKEND=local).`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := logger.Init(cfg.Logging.Level); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}
