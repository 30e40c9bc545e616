// Package commands is the cobra command tree of the service binary.
package commands

import (
	"food-marketplace-api/config"
	"food-marketplace-api/logger"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewRootCommand builds the CLI. Running the binary without a subcommand
// serves the API.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "food-marketplace-api",
		Short:         "Food delivery marketplace backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}
	root.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newCreateSuperadminCommand(),
		newRollupCommand(),
	)
	return root
}

// bootstrap loads the configuration and the logger every command needs.
func bootstrap() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := logger.New(cfg.Logging.Level, cfg.Logging.Format).With().
		Str("service", cfg.App.Name).
		Str("env", cfg.App.Env).
		Logger()
	return cfg, log, nil
}
