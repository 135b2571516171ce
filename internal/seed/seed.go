package seed

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/careportal/internal/config"
)

// StaffEnsurer creates a CARE staff account when the email is unused.
type StaffEnsurer interface {
	EnsureStaff(ctx context.Context, email, password, fullName string) (bool, error)
}

// CreateDefaultData creates the default CARE staff administrator if it
// doesn't exist. Without a configured email and password nothing is seeded.
func CreateDefaultData(ctx context.Context, cfg *config.Config, staff StaffEnsurer, lgr zerolog.Logger) error {
	email := strings.TrimSpace(cfg.Seed.AdminEmail)
	if email == "" || cfg.Seed.AdminPassword == "" {
		lgr.Info().Msg("No seed administrator configured, skipping default data")
		return nil
	}

	lgr.Info().Str("email", email).Msg("Checking/Creating default CARE staff administrator...")
	created, err := staff.EnsureStaff(ctx, email, cfg.Seed.AdminPassword, cfg.Seed.AdminName)
	if err != nil {
		lgr.Error().Err(err).Msg("Error creating default administrator")
		return err
	}
	if created {
		lgr.Info().Str("email", email).Msg("Default administrator created successfully")
	} else {
		lgr.Info().Msg("Administrator already exists, skipping creation")
	}
	return nil
}
