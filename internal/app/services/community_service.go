package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/cedarwell/wellspring/internal/app/models"
	"github.com/cedarwell/wellspring/internal/app/models/dto"
	"github.com/cedarwell/wellspring/internal/app/repositories"
	"github.com/cedarwell/wellspring/internal/db"
	"github.com/cedarwell/wellspring/internal/pkg/apperrors"
)

// CommunityService manages communities. Listing and mutation are superadmin
// operations; reading a single community is open to its project members.
type CommunityService struct {
	pool        *pgxpool.Pool
	communities *repositories.CommunityRepository
	projects    *repositories.ProjectRepository
	memberships *repositories.ProjectMembershipRepository
	admins      *repositories.CommunityAdminRepository
	logger      zerolog.Logger
}

// NewCommunityService creates a new CommunityService
func NewCommunityService(pool *pgxpool.Pool, repos *repositories.Repositories, logger zerolog.Logger) *CommunityService {
	return &CommunityService{
		pool:        pool,
		communities: repos.Communities,
		projects:    repos.Projects,
		memberships: repos.Memberships,
		admins:      repos.Admins,
		logger:      logger,
	}
}

// Create creates a community. Superadmin only; new communities start in Draft.
func (s *CommunityService) Create(ctx context.Context, actor *models.User, req dto.CreateCommunityRequest) (*models.Community, error) {
	if !actor.IsSuperadmin {
		return nil, apperrors.ErrPermissionDenied
	}

	community := &models.Community{
		ID:             uuid.New(),
		Name:           req.Name,
		Area:           req.Area,
		Type:           req.Type,
		Status:         models.CommunityStatusDraft,
		ShareName:      req.ShareName,
		LicenseExpiry:  req.LicenseExpiry,
		ContactID:      req.ContactID,
		RedcapServerID: req.RedcapServerID,
	}

	err := db.WithTransaction(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		return s.communities.Create(ctx, tx, community)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("community_id", community.ID.String()).Msg("Community created")
	return community, nil
}

// Get loads a community. Non-superadmins must administer it or belong to one
// of its projects.
func (s *CommunityService) Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Community, error) {
	community, err := s.communities.FindByID(ctx, s.pool, id)
	if err != nil {
		return nil, err
	}
	if community == nil {
		return nil, apperrors.ErrCommunityNotFound
	}

	if !actor.IsSuperadmin {
		ok, err := s.actorBelongs(ctx, actor.ID, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperrors.ErrPermissionDenied
		}
	}
	return community, nil
}

func (s *CommunityService) actorBelongs(ctx context.Context, actorID, communityID uuid.UUID) (bool, error) {
	admin, err := s.admins.FindByUserAndCommunity(ctx, s.pool, actorID, communityID)
	if err != nil {
		return false, err
	}
	if admin != nil {
		return true, nil
	}

	projectIDs, err := s.projects.ListIDsByCommunity(ctx, s.pool, communityID)
	if err != nil {
		return false, err
	}
	for _, projectID := range projectIDs {
		m, err := s.memberships.FindByUserAndProject(ctx, s.pool, actorID, projectID)
		if err != nil {
			return false, err
		}
		if m != nil {
			return true, nil
		}
	}
	return false, nil
}

// List returns a page of communities. Superadmins see all of them;
// everyone else sees the ones they administer, unpaged since the
// administered set is small.
func (s *CommunityService) List(ctx context.Context, actor *models.User, page, pageSize int) ([]*models.Community, int64, error) {
	if !actor.IsSuperadmin {
		entries, err := s.admins.ListByUser(ctx, s.pool, actor.ID)
		if err != nil {
			return nil, 0, err
		}
		communities := make([]*models.Community, 0, len(entries))
		for _, entry := range entries {
			community, err := s.communities.FindByID(ctx, s.pool, entry.CommunityID)
			if err != nil {
				return nil, 0, err
			}
			if community != nil {
				communities = append(communities, community)
			}
		}
		return communities, int64(len(communities)), nil
	}

	offset := (page - 1) * pageSize
	communities, err := s.communities.List(ctx, s.pool, offset, pageSize)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.communities.Count(ctx, s.pool)
	if err != nil {
		return nil, 0, err
	}
	return communities, total, nil
}

// ProjectCount returns the number of projects in a community
func (s *CommunityService) ProjectCount(ctx context.Context, communityID uuid.UUID) (int, error) {
	ids, err := s.projects.ListIDsByCommunity(ctx, s.pool, communityID)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// Update patches a community. Superadmin only; nil request fields are
// untouched.
func (s *CommunityService) Update(ctx context.Context, actor *models.User, id uuid.UUID, req dto.UpdateCommunityRequest) (*models.Community, error) {
	if !actor.IsSuperadmin {
		return nil, apperrors.ErrPermissionDenied
	}

	var updated *models.Community
	err := db.WithTransaction(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		community, err := s.communities.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if community == nil {
			return apperrors.ErrCommunityNotFound
		}

		if req.Name != nil {
			community.Name = *req.Name
		}
		if req.Area != nil {
			community.Area = *req.Area
		}
		if req.Type != nil {
			community.Type = req.Type
		}
		if req.Status != nil {
			community.Status = *req.Status
		}
		if req.ShareName != nil {
			community.ShareName = *req.ShareName
		}
		if req.LicenseExpiry != nil {
			community.LicenseExpiry = req.LicenseExpiry
		}
		if req.ContactID != nil {
			community.ContactID = req.ContactID
		}
		if req.RedcapServerID != nil {
			community.RedcapServerID = req.RedcapServerID
		}

		if err := s.communities.Update(ctx, tx, community); err != nil {
			return err
		}
		updated = community
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a community and, by cascade, its projects, memberships,
// admin entries and invitations. Superadmin only.
func (s *CommunityService) Delete(ctx context.Context, actor *models.User, id uuid.UUID) error {
	if !actor.IsSuperadmin {
		return apperrors.ErrPermissionDenied
	}

	err := db.WithTransaction(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		return s.communities.Delete(ctx, tx, id)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrCommunityNotFound
		}
		return err
	}

	s.logger.Info().Str("community_id", id.String()).Msg("Community deleted")
	return nil
}
