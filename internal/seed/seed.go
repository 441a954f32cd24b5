package seed

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/cedarwell/wellspring/internal/app/models"
	"github.com/cedarwell/wellspring/internal/app/repositories"
	"github.com/cedarwell/wellspring/internal/config"
	"github.com/cedarwell/wellspring/internal/pkg/auth"
)

const defaultSuperadminEmail = "superadmin@wellspring.local"

// CreateDefaultData creates the default superadmin account if it doesn't
// exist. The password comes from SEED_SUPERADMIN_PASSWORD; when unset, a
// well-known development password is used.
func CreateDefaultData(ctx context.Context, dbPool *pgxpool.Pool, lgr zerolog.Logger) error {
	repos := repositories.NewRepositories()

	existing, err := repos.Users.FindByEmail(ctx, dbPool, defaultSuperadminEmail)
	if err != nil {
		lgr.Error().Err(err).Msg("Error checking for default superadmin")
		return err
	}
	if existing != nil {
		lgr.Debug().Msg("Default superadmin already exists, skipping creation")
		return nil
	}

	lgr.Info().Msg("Creating default superadmin account...")

	password := config.GetEnv("SEED_SUPERADMIN_PASSWORD", "Superadmin123!")
	hashed, err := auth.HashPassword(password)
	if err != nil {
		lgr.Error().Err(err).Msg("Error hashing superadmin password")
		return err
	}

	superadmin := &models.User{
		ID:           uuid.New(),
		Email:        defaultSuperadminEmail,
		Password:     hashed,
		FirstName:    "System",
		LastName:     "Administrator",
		IsSuperadmin: true,
		IsVerified:   true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := repos.Users.Create(ctx, dbPool, superadmin); err != nil {
		lgr.Error().Err(err).Msg("Error creating default superadmin")
		return err
	}

	lgr.Info().Str("email", defaultSuperadminEmail).Msg("Default superadmin created")
	return nil
}
