package main

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/proportfolio/gallery/internal/config"
	"github.com/proportfolio/gallery/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|version]",
	Short:     "Apply or roll back the local_storage schema",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down", "version"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Store != config.StoreMySQL {
			logger.Logger.Info("Nothing to migrate", zap.String("store", string(cfg.Store)))
			return nil
		}

		direction := "up"
		if len(args) == 1 {
			direction = args[0]
		}

		db, err := connectDB(cfg.DSN())
		if err != nil {
			return err
		}
		defer db.Close()

		m, err := newMigrator(db)
		if err != nil {
			return err
		}

		switch direction {
		case "down":
			err = m.Down()
		case "version":
			version, dirty, verr := m.Version()
			if errors.Is(verr, migrate.ErrNilVersion) {
				fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
				return nil
			}
			if verr != nil {
				return fmt.Errorf("failed to read migration version: %w", verr)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
			return nil
		default:
			err = m.Up()
		}
		if err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to migrate %s: %w", direction, err)
		}

		logger.Logger.Info("Migrations applied", zap.String("direction", direction))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
