package main

import (
	"fmt"

	"github.com/proportfolio/gallery/internal/localstore"
	"github.com/proportfolio/gallery/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill an empty store with mock users and works for BACKEND=local",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore(cmd.Context(), cfg, logger.Logger)
		if err != nil {
			return err
		}
		defer closeStore()

		seeded, err := localstore.NewBackend(store, logger.Logger).Seed(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to seed store: %w", err)
		}
		if !seeded {
			fmt.Fprintln(cmd.OutOrStdout(), "store already has data, nothing seeded")
			return nil
		}

		logger.Logger.Info("Store seeded", zap.String("store", string(cfg.Store)))
		fmt.Fprintf(cmd.OutOrStdout(), "seeded; every mock user signs in with password %q\n", localstore.SeedPassword)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
