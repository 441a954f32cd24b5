package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cedarwell/wellspring/internal/app/models"
	"github.com/cedarwell/wellspring/internal/app/repositories"
)

// SyncMethod identifies which membership operation triggered synchronization
type SyncMethod int

const (
	SyncCreate SyncMethod = iota
	SyncPatch
	SyncRemove
)

// MembershipEvent describes a completed membership mutation. Role carries the
// resulting role for creates and patches, and the prior role for removals.
type MembershipEvent struct {
	Method    SyncMethod
	UserID    uuid.UUID
	ProjectID uuid.UUID
	Role      models.Role
}

// Narrow store surfaces so the engine can be exercised against in-memory
// fakes. The concrete repositories satisfy them.

type syncProjectStore interface {
	FindByID(ctx context.Context, q repositories.DBTX, id uuid.UUID) (*models.Project, error)
	ListIDsByCommunity(ctx context.Context, q repositories.DBTX, communityID uuid.UUID) ([]uuid.UUID, error)
}

type syncMembershipStore interface {
	FindByUserAndProject(ctx context.Context, q repositories.DBTX, userID, projectID uuid.UUID) (*models.ProjectMembership, error)
	Create(ctx context.Context, q repositories.DBTX, m *models.ProjectMembership) error
	UpdateRole(ctx context.Context, q repositories.DBTX, id uuid.UUID, role models.Role) error
	DeleteByUserAndProject(ctx context.Context, q repositories.DBTX, userID, projectID uuid.UUID) (int64, error)
}

type syncAdminStore interface {
	FindByUser(ctx context.Context, q repositories.DBTX, userID uuid.UUID) (*models.CommunityAdmin, error)
	Create(ctx context.Context, q repositories.DBTX, a *models.CommunityAdmin) error
	Delete(ctx context.Context, q repositories.DBTX, id uuid.UUID) error
}

type syncInvitationStore interface {
	ListPendingByEmailAndCommunity(ctx context.Context, q repositories.DBTX, email string, communityID uuid.UUID) ([]*models.Invitation, error)
	MarkAccepted(ctx context.Context, q repositories.DBTX, id, userID uuid.UUID, at time.Time) error
}

// SyncEngine keeps the community-admin registry and the per-project membership
// registry consistent: a user administers community C exactly when they hold an
// Admin membership on every project in C. Mutations it issues never re-enter
// the engine; propagation terminates after one hop.
type SyncEngine struct {
	projects    syncProjectStore
	memberships syncMembershipStore
	admins      syncAdminStore
	invitations syncInvitationStore
	logger      zerolog.Logger
}

// NewSyncEngine creates a SyncEngine over the given stores
func NewSyncEngine(
	projects syncProjectStore,
	memberships syncMembershipStore,
	admins syncAdminStore,
	invitations syncInvitationStore,
	logger zerolog.Logger,
) *SyncEngine {
	return &SyncEngine{
		projects:    projects,
		memberships: memberships,
		admins:      admins,
		invitations: invitations,
		logger:      logger,
	}
}

// MembershipChanged propagates a direct membership mutation to the
// community-admin registry and to the user's memberships on sibling projects.
//
// A resulting role at or above MinAdminSyncRole with no admin entry promotes
// the user to community admin; a removal or a resulting role below the
// threshold while an admin entry exists revokes it. Either transition mirrors
// the triggering operation onto every other project in the community.
func (e *SyncEngine) MembershipChanged(ctx context.Context, q repositories.DBTX, ev MembershipEvent) error {
	project, err := e.projects.FindByID(ctx, q, ev.ProjectID)
	if err != nil {
		return err
	}
	if project == nil {
		// The owning project is not visible yet (mid-creation); nothing to
		// synchronize.
		return nil
	}
	communityID := project.CommunityID

	// A user holds at most one admin entry, enforced by the unique user_id
	// constraint, so the lookup is community-agnostic.
	admin, err := e.admins.FindByUser(ctx, q, ev.UserID)
	if err != nil {
		return err
	}

	updateOtherProjects := false

	if ev.Method != SyncRemove && ev.Role.AtLeast(models.MinAdminSyncRole) && admin == nil {
		entry := &models.CommunityAdmin{
			ID:           uuid.New(),
			UserID:       ev.UserID,
			CommunityID:  communityID,
			IsFirstLogin: true,
		}
		if err := e.admins.Create(ctx, q, entry); err != nil {
			return err
		}
		e.logger.Info().
			Str("user_id", ev.UserID.String()).
			Str("community_id", communityID.String()).
			Msg("Promoted user to community admin")
		updateOtherProjects = true
	} else if ev.Method != SyncRemove && ev.Role.AtLeast(models.MinAdminSyncRole) && admin.CommunityID != communityID {
		// The user already administers another community; the membership
		// stands on its own project but no second admin entry is created.
		e.logger.Warn().
			Str("user_id", ev.UserID.String()).
			Str("community_id", communityID.String()).
			Str("admin_community_id", admin.CommunityID.String()).
			Msg("Skipped admin promotion, user already administers another community")
	} else if admin != nil && admin.CommunityID == communityID && (ev.Method == SyncRemove || !ev.Role.AtLeast(models.MinAdminSyncRole)) {
		if err := e.admins.Delete(ctx, q, admin.ID); err != nil {
			return err
		}
		e.logger.Info().
			Str("user_id", ev.UserID.String()).
			Str("community_id", communityID.String()).
			Msg("Revoked user's community admin status")
		updateOtherProjects = true
	}

	if !updateOtherProjects {
		return nil
	}

	projectIDs, err := e.projects.ListIDsByCommunity(ctx, q, communityID)
	if err != nil {
		return err
	}

	for _, siblingID := range projectIDs {
		if siblingID == ev.ProjectID {
			continue
		}
		if err := e.mirror(ctx, q, ev, siblingID); err != nil {
			return err
		}
	}
	return nil
}

// mirror applies the triggering operation to one sibling project. Existence is
// re-checked immediately before every write so repeated runs converge.
func (e *SyncEngine) mirror(ctx context.Context, q repositories.DBTX, ev MembershipEvent, projectID uuid.UUID) error {
	existing, err := e.memberships.FindByUserAndProject(ctx, q, ev.UserID, projectID)
	if err != nil {
		return err
	}

	switch {
	case ev.Method == SyncRemove:
		if existing == nil {
			return nil
		}
		_, err := e.memberships.DeleteByUserAndProject(ctx, q, ev.UserID, projectID)
		return err
	case existing != nil:
		if existing.Role == ev.Role {
			return nil
		}
		return e.memberships.UpdateRole(ctx, q, existing.ID, ev.Role)
	default:
		return e.memberships.Create(ctx, q, &models.ProjectMembership{
			ID:        uuid.New(),
			UserID:    ev.UserID,
			ProjectID: projectID,
			Role:      ev.Role,
		})
	}
}

// AdminGranted mirrors a new community-admin entry onto the community's
// projects: every project gets an Admin membership for the user, created if
// absent or raised if currently below Admin.
func (e *SyncEngine) AdminGranted(ctx context.Context, q repositories.DBTX, userID, communityID uuid.UUID) error {
	projectIDs, err := e.projects.ListIDsByCommunity(ctx, q, communityID)
	if err != nil {
		return err
	}

	for _, projectID := range projectIDs {
		existing, err := e.memberships.FindByUserAndProject(ctx, q, userID, projectID)
		if err != nil {
			return err
		}
		if existing != nil {
			if existing.Role.AtLeast(models.RoleAdmin) {
				continue
			}
			if err := e.memberships.UpdateRole(ctx, q, existing.ID, models.RoleAdmin); err != nil {
				return err
			}
			continue
		}
		err = e.memberships.Create(ctx, q, &models.ProjectMembership{
			ID:        uuid.New(),
			UserID:    userID,
			ProjectID: projectID,
			Role:      models.RoleAdmin,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// AdminRevoked removes the user's membership from every project in the
// community after their admin entry is deleted. Absent memberships are a no-op.
func (e *SyncEngine) AdminRevoked(ctx context.Context, q repositories.DBTX, userID, communityID uuid.UUID) error {
	projectIDs, err := e.projects.ListIDsByCommunity(ctx, q, communityID)
	if err != nil {
		return err
	}

	for _, projectID := range projectIDs {
		if _, err := e.memberships.DeleteByUserAndProject(ctx, q, userID, projectID); err != nil {
			return err
		}
	}
	return nil
}

// ResolveOutstanding accepts every invitation still pending for the user's
// email within a community. Called when the user gains admin status there:
// administering the community transitively grants admin rights on each of its
// projects, which satisfies any invitation the community still holds for them.
func (e *SyncEngine) ResolveOutstanding(ctx context.Context, q repositories.DBTX, email string, userID, communityID uuid.UUID, now time.Time) error {
	pending, err := e.invitations.ListPendingByEmailAndCommunity(ctx, q, email, communityID)
	if err != nil {
		return err
	}

	for _, invite := range pending {
		if err := e.invitations.MarkAccepted(ctx, q, invite.ID, userID, now); err != nil {
			return err
		}
		e.logger.Info().
			Str("invitation_id", invite.ID.String()).
			Str("community_id", communityID.String()).
			Msg("Resolved outstanding invitation via admin promotion")
	}
	return nil
}
