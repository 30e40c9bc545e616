package commands

import (
	"errors"
	"fmt"
	"strings"

	"food-marketplace-api/auth"
	"food-marketplace-api/config"
	"food-marketplace-api/models"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

type superadminOptions struct {
	name     string
	email    string
	password string
}

func newCreateSuperadminCommand() *cobra.Command {
	opts := &superadminOptions{}
	cmd := &cobra.Command{
		Use:   "create-superadmin",
		Short: "Create the superadmin account",
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

			user, err := createSuperadmin(db, opts, cfg.Auth.BcryptCost)
			if err != nil {
				return err
			}
			log.Info().Uint("user_id", user.ID).Str("email", user.Email).Msg("superadmin created")
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.name, "name", "Super Admin", "display name")
	cmd.Flags().StringVar(&opts.email, "email", "", "login email")
	cmd.Flags().StringVar(&opts.password, "password", "", "login password (min 8 characters)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// createSuperadmin refuses to create a second superadmin.
func createSuperadmin(db *gorm.DB, opts *superadminOptions, cost int) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(opts.email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, errors.New("a valid --email is required")
	}
	if len(opts.password) < 8 {
		return nil, errors.New("--password must be at least 8 characters")
	}

	var existing int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleSuperAdmin).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, errors.New("a superadmin already exists")
	}

	hash, err := auth.HashPassword(opts.password, cost)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Name:         strings.TrimSpace(opts.name),
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleSuperAdmin,
		IsActive:     true,
	}
	if err := db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("email %s is already registered", email)
		}
		return nil, err
	}
	return user, nil
}
