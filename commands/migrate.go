package commands

import (
	"food-marketplace-api/config"

	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			db, err := config.OpenDB(cfg.Database, log)
			if err != nil {
				return err
			}
			defer closeDB(db)

			if err := config.Migrate(db); err != nil {
				return err
			}
			log.Info().Msg("database migrated")
			return nil
		},
	}
}
