package commands

import (
	"fmt"
	"time"

	"food-marketplace-api/config"
	"food-marketplace-api/models"
	"food-marketplace-api/reports"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newRollupCommand() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "rollup",
		Short: "Compute daily sales for a day and refresh restaurant stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := rollupDay(date, time.Now())
			if err != nil {
				return err
			}
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			db, err := config.OpenDB(cfg.Database, log)
			if err != nil {
				return err
			}
			defer closeDB(db)

			rows, err := reports.Rollup(cmd.Context(), db, day)
			if err != nil {
				return err
			}
			refreshed, err := reports.RefreshRestaurantStats(cmd.Context(), db)
			if err != nil {
				return err
			}
			log.Info().
				Str("date", day.Format(models.DateLayout)).
				Int("restaurants", len(rows)).
				Int("stats_refreshed", refreshed).
				Msg("rollup finished")
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to roll up as YYYY-MM-DD (default yesterday, UTC)")
	return cmd
}

func rollupDay(raw string, now time.Time) (time.Time, error) {
	if raw == "" {
		return now.UTC().AddDate(0, 0, -1), nil
	}
	day, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", raw)
	}
	return day, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
