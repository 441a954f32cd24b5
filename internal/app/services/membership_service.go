package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/cedarwell/wellspring/internal/app/models"
	"github.com/cedarwell/wellspring/internal/app/models/dto"
	"github.com/cedarwell/wellspring/internal/app/repositories"
	"github.com/cedarwell/wellspring/internal/db"
	"github.com/cedarwell/wellspring/internal/pkg/apperrors"
	"github.com/cedarwell/wellspring/internal/pkg/dberrors"
	"github.com/cedarwell/wellspring/internal/pkg/validation"
)

// membershipStore extends the sync engine's membership surface with the
// methods direct mutations need. The concrete repository satisfies it.
type membershipStore interface {
	syncMembershipStore
	FindByID(ctx context.Context, q repositories.DBTX, id uuid.UUID) (*models.ProjectMembership, error)
	UpdatePin(ctx context.Context, q repositories.DBTX, id uuid.UUID, pin *string) error
	CountPinInProject(ctx context.Context, q repositories.DBTX, projectID uuid.UUID, pin string, excludeID uuid.UUID) (int64, error)
	ListByProject(ctx context.Context, q repositories.DBTX, projectID uuid.UUID) ([]*models.ProjectMembership, error)
	ListByUser(ctx context.Context, q repositories.DBTX, userID uuid.UUID) ([]*models.ProjectMembership, error)
	Delete(ctx context.Context, q repositories.DBTX, id uuid.UUID) error
}

// MembershipService manages project memberships and drives the sync engine
// after every direct mutation
type MembershipService struct {
	pool        *pgxpool.Pool
	memberships membershipStore
	projects    syncProjectStore
	users       *repositories.UserRepository
	sync        *SyncEngine
	logger      zerolog.Logger
}

// NewMembershipService creates a new MembershipService
func NewMembershipService(
	pool *pgxpool.Pool,
	repos *repositories.Repositories,
	sync *SyncEngine,
	logger zerolog.Logger,
) *MembershipService {
	return &MembershipService{
		pool:        pool,
		memberships: repos.Memberships,
		projects:    repos.Projects,
		users:       repos.Users,
		sync:        sync,
		logger:      logger,
	}
}

// actorRoleOnProject returns the actor's role on a project, or an error when
// the actor is not a member. Superadmins short-circuit authorization checks
// before this is consulted.
func (s *MembershipService) actorRoleOnProject(ctx context.Context, q repositories.DBTX, actorID, projectID uuid.UUID) (models.Role, error) {
	m, err := s.memberships.FindByUserAndProject(ctx, q, actorID, projectID)
	if err != nil {
		return 0, err
	}
	if m == nil {
		return 0, apperrors.ErrPermissionDenied
	}
	return m.Role, nil
}

// validatePin checks pin shape and per-project uniqueness, excluding the
// membership being patched so a member may resubmit their own pin.
func (s *MembershipService) validatePin(ctx context.Context, q repositories.DBTX, projectID uuid.UUID, pin string, excludeID uuid.UUID) error {
	if !validation.ValidPin(pin) {
		return apperrors.ErrInvalidPin
	}
	count, err := s.memberships.CountPinInProject(ctx, q, projectID, pin, excludeID)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperrors.ErrDuplicatePin
	}
	return nil
}

// Create adds a user to a project and propagates the change through the sync
// engine
func (s *MembershipService) Create(ctx context.Context, actor *models.User, req dto.CreateMembershipRequest) (*models.ProjectMembership, error) {
	if !req.Role.Valid() {
		return nil, apperrors.ErrInvalidRole
	}

	var created *models.ProjectMembership
	err := db.WithTransaction(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		project, err := s.projects.FindByID(ctx, tx, req.ProjectID)
		if err != nil {
			return err
		}
		if project == nil {
			return apperrors.ErrProjectNotFound
		}

		if !actor.IsSuperadmin {
			actorRole, err := s.actorRoleOnProject(ctx, tx, actor.ID, req.ProjectID)
			if err != nil {
				return err
			}
			if !actorRole.AtLeast(models.RoleCoordinator) || !actorRole.AtLeast(req.Role) {
				return apperrors.ErrPermissionDenied
			}
		}

		user, err := s.users.FindByID(ctx, tx, req.UserID)
		if err != nil {
			return err
		}
		if user == nil {
			return apperrors.ErrUserNotFound
		}

		existing, err := s.memberships.FindByUserAndProject(ctx, tx, req.UserID, req.ProjectID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperrors.ErrAlreadyMember
		}

		m := &models.ProjectMembership{
			ID:        uuid.New(),
			UserID:    req.UserID,
			ProjectID: req.ProjectID,
			Role:      req.Role,
			Pin:       req.Pin,
		}
		if req.Pin != nil {
			if err := s.validatePin(ctx, tx, req.ProjectID, *req.Pin, m.ID); err != nil {
				return err
			}
		}
		if err := s.memberships.Create(ctx, tx, m); err != nil {
			// Concurrent writers can slip past the pre-checks
			if dberrors.IsDuplicateConstraintError(err, "uq_project_memberships_project_pin") {
				return apperrors.ErrDuplicatePin
			}
			if dberrors.IsUniqueViolation(err) {
				return apperrors.ErrAlreadyMember
			}
			return err
		}
		created = m

		return s.sync.MembershipChanged(ctx, tx, MembershipEvent{
			Method:    SyncCreate,
			UserID:    m.UserID,
			ProjectID: m.ProjectID,
			Role:      m.Role,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("membership_id", created.ID.String()).
		Str("project_id", created.ProjectID.String()).
		Msg("Membership created")
	return created, nil
}

// Patch updates a membership's role and/or pin. Role changes require the actor
// to outrank both the member's current role and the new role; pin changes are
// restricted to the member themself.
func (s *MembershipService) Patch(ctx context.Context, actor *models.User, id uuid.UUID, req dto.UpdateMembershipRequest) (*models.ProjectMembership, error) {
	if req.Role != nil && !req.Role.Valid() {
		return nil, apperrors.ErrInvalidRole
	}

	var updated *models.ProjectMembership
	err := db.WithTransaction(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		target, err := s.memberships.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if target == nil {
			return apperrors.ErrMembershipNotFound
		}

		if !actor.IsSuperadmin {
			actorRole, err := s.actorRoleOnProject(ctx, tx, actor.ID, target.ProjectID)
			if err != nil {
				return err
			}
			if !actorRole.AtLeast(models.RoleCoordinator) || !actorRole.AtLeast(target.Role) {
				return apperrors.ErrPermissionDenied
			}
			if req.Role != nil && !actorRole.AtLeast(*req.Role) {
				return apperrors.ErrPermissionDenied
			}
			if req.Pin != nil && target.UserID != actor.ID {
				return apperrors.ErrPermissionDenied
			}
		}

		if req.Pin != nil {
			if err := s.validatePin(ctx, tx, target.ProjectID, *req.Pin, target.ID); err != nil {
				return err
			}
			if err := s.memberships.UpdatePin(ctx, tx, target.ID, req.Pin); err != nil {
				if dberrors.IsDuplicateConstraintError(err, "uq_project_memberships_project_pin") {
					return apperrors.ErrDuplicatePin
				}
				return err
			}
			target.Pin = req.Pin
		}

		if req.Role != nil && *req.Role != target.Role {
			if err := s.memberships.UpdateRole(ctx, tx, target.ID, *req.Role); err != nil {
				return err
			}
			target.Role = *req.Role

			if err := s.sync.MembershipChanged(ctx, tx, MembershipEvent{
				Method:    SyncPatch,
				UserID:    target.UserID,
				ProjectID: target.ProjectID,
				Role:      target.Role,
			}); err != nil {
				return err
			}
		}

		updated = target
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Remove deletes a membership and propagates the removal through the sync
// engine
func (s *MembershipService) Remove(ctx context.Context, actor *models.User, id uuid.UUID) error {
	return db.WithTransaction(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		target, err := s.memberships.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if target == nil {
			return apperrors.ErrMembershipNotFound
		}

		if !actor.IsSuperadmin {
			actorRole, err := s.actorRoleOnProject(ctx, tx, actor.ID, target.ProjectID)
			if err != nil {
				return err
			}
			if !actorRole.AtLeast(models.RoleCoordinator) || !actorRole.AtLeast(target.Role) {
				return apperrors.ErrPermissionDenied
			}
		}

		if err := s.memberships.Delete(ctx, tx, target.ID); err != nil {
			return err
		}

		return s.sync.MembershipChanged(ctx, tx, MembershipEvent{
			Method:    SyncRemove,
			UserID:    target.UserID,
			ProjectID: target.ProjectID,
			Role:      target.Role,
		})
	})
}

// ListByProject returns every membership on a project. The actor must be a
// member of the project or a superadmin.
func (s *MembershipService) ListByProject(ctx context.Context, actor *models.User, projectID uuid.UUID) ([]*models.ProjectMembership, error) {
	if !actor.IsSuperadmin {
		if _, err := s.actorRoleOnProject(ctx, s.pool, actor.ID, projectID); err != nil {
			return nil, err
		}
	}
	return s.memberships.ListByProject(ctx, s.pool, projectID)
}

// ListOwn returns the actor's memberships across all projects
func (s *MembershipService) ListOwn(ctx context.Context, actor *models.User) ([]*models.ProjectMembership, error) {
	return s.memberships.ListByUser(ctx, s.pool, actor.ID)
}
