package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/cedarwell/wellspring/internal/app/models"
	"github.com/cedarwell/wellspring/internal/app/repositories"
	"github.com/cedarwell/wellspring/internal/db"
	"github.com/cedarwell/wellspring/internal/pkg/apperrors"
	"github.com/cedarwell/wellspring/internal/pkg/email"
)

// CommunityAdminService manages the community-admin registry. Granting or
// revoking an entry mirrors Admin memberships across the community's projects.
type CommunityAdminService struct {
	pool        *pgxpool.Pool
	admins      *repositories.CommunityAdminRepository
	communities *repositories.CommunityRepository
	users       *repositories.UserRepository
	sync        *SyncEngine
	email       email.EmailService
	logger      zerolog.Logger
}

// NewCommunityAdminService creates a new CommunityAdminService
func NewCommunityAdminService(
	pool *pgxpool.Pool,
	repos *repositories.Repositories,
	sync *SyncEngine,
	emailService email.EmailService,
	logger zerolog.Logger,
) *CommunityAdminService {
	return &CommunityAdminService{
		pool:        pool,
		admins:      repos.Admins,
		communities: repos.Communities,
		users:       repos.Users,
		sync:        sync,
		email:       emailService,
		logger:      logger,
	}
}

// Create grants a user admin status over a community. Superadmin only. Every
// project in the community gains an Admin membership for the user.
func (s *CommunityAdminService) Create(ctx context.Context, actor *models.User, userID, communityID uuid.UUID) (*models.CommunityAdmin, error) {
	if !actor.IsSuperadmin {
		return nil, apperrors.ErrPermissionDenied
	}

	var created *models.CommunityAdmin
	var grantee *models.User
	var community *models.Community

	err := db.WithTransaction(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		community, err = s.communities.FindByID(ctx, tx, communityID)
		if err != nil {
			return err
		}
		if community == nil {
			return apperrors.ErrCommunityNotFound
		}

		grantee, err = s.users.FindByID(ctx, tx, userID)
		if err != nil {
			return err
		}
		if grantee == nil {
			return apperrors.ErrUserNotFound
		}

		// At most one admin entry per user, across all communities
		existing, err := s.admins.FindByUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		if existing != nil {
			if existing.CommunityID == communityID {
				return apperrors.NewConflictError("user already administers this community")
			}
			return apperrors.NewConflictError("user already administers another community")
		}

		entry := &models.CommunityAdmin{
			ID:           uuid.New(),
			UserID:       userID,
			CommunityID:  communityID,
			IsFirstLogin: true,
		}
		if err := s.admins.Create(ctx, tx, entry); err != nil {
			return err
		}
		created = entry

		return s.sync.AdminGranted(ctx, tx, userID, communityID)
	})
	if err != nil {
		return nil, err
	}

	if err := s.email.SendAdminGranted(grantee.Email, community.Name); err != nil {
		s.logger.Warn().Err(err).Str("email", grantee.Email).Msg("Failed to send admin notification email")
	}

	s.logger.Info().
		Str("user_id", userID.String()).
		Str("community_id", communityID.String()).
		Msg("Community admin granted")
	return created, nil
}

// SetFirstLogin patches the first-login marker. Only the admin entry's own
// user may flip it.
func (s *CommunityAdminService) SetFirstLogin(ctx context.Context, actor *models.User, id uuid.UUID, firstLogin bool) (*models.CommunityAdmin, error) {
	var updated *models.CommunityAdmin
	err := db.WithTransaction(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		entry, err := s.admins.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if entry == nil {
			return apperrors.ErrResourceNotFound
		}
		if entry.UserID != actor.ID {
			// Mask the record's existence from other users
			return apperrors.ErrResourceNotFound
		}

		if err := s.admins.SetFirstLogin(ctx, tx, id, firstLogin); err != nil {
			return err
		}
		entry.IsFirstLogin = firstLogin
		updated = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Remove revokes an admin entry. Superadmin only. The user's memberships on
// the community's projects are removed with it.
func (s *CommunityAdminService) Remove(ctx context.Context, actor *models.User, id uuid.UUID) error {
	if !actor.IsSuperadmin {
		return apperrors.ErrPermissionDenied
	}

	return db.WithTransaction(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		entry, err := s.admins.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if entry == nil {
			return apperrors.ErrResourceNotFound
		}

		if err := s.admins.Delete(ctx, tx, entry.ID); err != nil {
			return err
		}

		return s.sync.AdminRevoked(ctx, tx, entry.UserID, entry.CommunityID)
	})
}

// ListOwn returns the actor's admin entries across all communities
func (s *CommunityAdminService) ListOwn(ctx context.Context, actor *models.User) ([]*models.CommunityAdmin, error) {
	return s.admins.ListByUser(ctx, s.pool, actor.ID)
}

// ListByCommunity returns every admin entry for a community. Superadmin only.
func (s *CommunityAdminService) ListByCommunity(ctx context.Context, actor *models.User, communityID uuid.UUID) ([]*models.CommunityAdmin, error) {
	if !actor.IsSuperadmin {
		return nil, apperrors.ErrPermissionDenied
	}
	return s.admins.ListByCommunity(ctx, s.pool, communityID)
}
