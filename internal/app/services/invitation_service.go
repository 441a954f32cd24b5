package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/cedarwell/wellspring/internal/app/models"
	"github.com/cedarwell/wellspring/internal/app/models/dto"
	"github.com/cedarwell/wellspring/internal/app/repositories"
	"github.com/cedarwell/wellspring/internal/db"
	"github.com/cedarwell/wellspring/internal/pkg/apperrors"
	"github.com/cedarwell/wellspring/internal/pkg/email"
)

// invitationStore is the ledger surface the service needs; the concrete
// repository satisfies it, scenario tests substitute a fake.
type invitationStore interface {
	Create(ctx context.Context, q repositories.DBTX, i *models.Invitation) error
	FindByID(ctx context.Context, q repositories.DBTX, id uuid.UUID) (*models.Invitation, error)
	FindPendingByEmailAndProject(ctx context.Context, q repositories.DBTX, email string, projectID uuid.UUID) (*models.Invitation, error)
	ListPendingByEmailAndCommunity(ctx context.Context, q repositories.DBTX, email string, communityID uuid.UUID) ([]*models.Invitation, error)
	ListOpenForProjectScope(ctx context.Context, q repositories.DBTX, projectID, communityID uuid.UUID, adminRole models.Role) ([]*models.Invitation, error)
	MarkAccepted(ctx context.Context, q repositories.DBTX, id, userID uuid.UUID, at time.Time) error
	UpdateRole(ctx context.Context, q repositories.DBTX, id uuid.UUID, role models.Role) error
	Delete(ctx context.Context, q repositories.DBTX, id uuid.UUID) error
}

type invitationUserStore interface {
	FindByEmail(ctx context.Context, q repositories.DBTX, email string) (*models.User, error)
	SetVerified(ctx context.Context, q repositories.DBTX, id uuid.UUID) error
}

type communityFinder interface {
	FindByID(ctx context.Context, q repositories.DBTX, id uuid.UUID) (*models.Community, error)
}

// InvitationService manages the invitation ledger: issuing, superseding,
// accepting and withdrawing offers of project roles and community-admin status
type InvitationService struct {
	pool        *pgxpool.Pool
	invitations invitationStore
	memberships syncMembershipStore
	projects    syncProjectStore
	communities communityFinder
	admins      syncAdminStore
	users       invitationUserStore
	sync        *SyncEngine
	email       email.EmailService
	baseURL     string
	logger      zerolog.Logger
}

// NewInvitationService creates a new InvitationService
func NewInvitationService(
	pool *pgxpool.Pool,
	repos *repositories.Repositories,
	sync *SyncEngine,
	emailService email.EmailService,
	baseURL string,
	logger zerolog.Logger,
) *InvitationService {
	return &InvitationService{
		pool:        pool,
		invitations: repos.Invitations,
		memberships: repos.Memberships,
		projects:    repos.Projects,
		communities: repos.Communities,
		admins:      repos.Admins,
		users:       repos.Users,
		sync:        sync,
		email:       emailService,
		baseURL:     baseURL,
		logger:      logger,
	}
}

func (s *InvitationService) actionURL(invitationID uuid.UUID) string {
	return fmt.Sprintf("%s/login/?token=%s", s.baseURL, invitationID)
}

// requireCoordinator verifies the actor holds at least Coordinator on the
// project. Superadmins bypass.
func (s *InvitationService) requireCoordinator(ctx context.Context, q repositories.DBTX, actor *models.User, projectID uuid.UUID) error {
	if actor.IsSuperadmin {
		return nil
	}
	m, err := s.memberships.FindByUserAndProject(ctx, q, actor.ID, projectID)
	if err != nil {
		return err
	}
	if m == nil || !m.Role.AtLeast(models.RoleCoordinator) {
		return apperrors.ErrPermissionDenied
	}
	return nil
}

// supersede removes every other pending invitation for the email in the
// community. An admin-level offer makes narrower project offers redundant.
func (s *InvitationService) supersede(ctx context.Context, q repositories.DBTX, emailAddr string, communityID uuid.UUID, keepID uuid.UUID) error {
	pending, err := s.invitations.ListPendingByEmailAndCommunity(ctx, q, emailAddr, communityID)
	if err != nil {
		return err
	}
	for _, other := range pending {
		if other.ID == keepID {
			continue
		}
		if err := s.invitations.Delete(ctx, q, other.ID); err != nil {
			return err
		}
		s.logger.Info().
			Str("invitation_id", other.ID.String()).
			Msg("Superseded invitation by admin-level offer")
	}
	return nil
}

// checkAlreadyMember rejects an invitation when the addressee already holds a
// membership on the target project
func (s *InvitationService) checkAlreadyMember(ctx context.Context, q repositories.DBTX, emailAddr string, projectID uuid.UUID) error {
	user, err := s.users.FindByEmail(ctx, q, emailAddr)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}
	m, err := s.memberships.FindByUserAndProject(ctx, q, user.ID, projectID)
	if err != nil {
		return err
	}
	if m != nil {
		return apperrors.ErrAlreadyMember
	}
	return nil
}

// createInvitation runs the validation and supersession rules and inserts the
// ledger record
func (s *InvitationService) createInvitation(ctx context.Context, q repositories.DBTX, actor *models.User, emailAddr string, role models.Role, projectID uuid.UUID) (*models.Invitation, error) {
	project, err := s.projects.FindByID(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apperrors.ErrProjectNotFound
	}

	if err := s.requireCoordinator(ctx, q, actor, projectID); err != nil {
		return nil, err
	}

	existing, err := s.invitations.FindPendingByEmailAndProject(ctx, q, emailAddr, projectID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.ErrDuplicateInvite
	}

	if err := s.checkAlreadyMember(ctx, q, emailAddr, projectID); err != nil {
		return nil, err
	}

	invite := &models.Invitation{
		ID:          uuid.New(),
		Email:       emailAddr,
		Role:        role,
		InvitedBy:   actor.ID,
		ProjectID:   projectID,
		CommunityID: project.CommunityID,
	}

	if role.AtLeast(models.MinAdminSyncRole) {
		if err := s.supersede(ctx, q, emailAddr, project.CommunityID, invite.ID); err != nil {
			return nil, err
		}
	}

	if err := s.invitations.Create(ctx, q, invite); err != nil {
		return nil, err
	}
	return invite, nil
}

// Create issues an invitation. The actor needs Coordinator or above on the
// target project. An admin-level invitation supersedes the addressee's other
// pending invitations in the community.
func (s *InvitationService) Create(ctx context.Context, actor *models.User, req dto.CreateInvitationRequest) (*models.Invitation, error) {
	if !req.Role.Valid() {
		return nil, apperrors.ErrInvalidRole
	}
	emailAddr := strings.ToLower(strings.TrimSpace(req.Email))

	var created *models.Invitation
	err := db.WithTransaction(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		created, err = s.createInvitation(ctx, tx, actor, emailAddr, req.Role, req.ProjectID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.sendInviteEmail(ctx, created)
	return created, nil
}

func (s *InvitationService) sendInviteEmail(ctx context.Context, invite *models.Invitation) {
	var err error
	if invite.Role.AtLeast(models.MinAdminSyncRole) {
		community, cerr := s.communities.FindByID(ctx, s.pool, invite.CommunityID)
		if cerr != nil || community == nil {
			s.logger.Warn().Err(cerr).Str("community_id", invite.CommunityID.String()).Msg("Could not load community for invitation email")
			return
		}
		err = s.email.SendAdminInvite(invite.Email, community.Name, s.actionURL(invite.ID))
	} else {
		project, perr := s.projects.FindByID(ctx, s.pool, invite.ProjectID)
		if perr != nil || project == nil {
			s.logger.Warn().Err(perr).Str("project_id", invite.ProjectID.String()).Msg("Could not load project for invitation email")
			return
		}
		err = s.email.SendCollaboratorInvite(invite.Email, project.Name, invite.Role.String(), s.actionURL(invite.ID))
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("email", invite.Email).Msg("Failed to send invitation email")
	}
}

// applyAcceptance performs the accept transition's side effects: close the
// ledger record, grant the offered admin entry or membership, verify the
// account, and resolve any other invitations the community still holds for
// the accepting user.
func (s *InvitationService) applyAcceptance(ctx context.Context, q repositories.DBTX, invite *models.Invitation, actor *models.User, now time.Time) error {
	if err := s.invitations.MarkAccepted(ctx, q, invite.ID, actor.ID, now); err != nil {
		return err
	}
	invite.AcceptedAt = &now
	invite.InvitedUserID = &actor.ID

	if invite.Role.AtLeast(models.MinAdminSyncRole) {
		existing, err := s.admins.FindByUser(ctx, q, actor.ID)
		if err != nil {
			return err
		}
		if existing != nil && existing.CommunityID != invite.CommunityID {
			// One admin entry per user: the offer cannot be honored while the
			// user still administers another community.
			return apperrors.NewConflictError("user already administers another community")
		}
		if existing == nil {
			entry := &models.CommunityAdmin{
				ID:           uuid.New(),
				UserID:       actor.ID,
				CommunityID:  invite.CommunityID,
				IsFirstLogin: true,
			}
			if err := s.admins.Create(ctx, q, entry); err != nil {
				return err
			}
			if err := s.sync.AdminGranted(ctx, q, actor.ID, invite.CommunityID); err != nil {
				return err
			}
		}
		// Becoming a community admin covers every project there, so any other
		// invitation still pending for this user is satisfied too.
		if err := s.sync.ResolveOutstanding(ctx, q, invite.Email, actor.ID, invite.CommunityID, now); err != nil {
			return err
		}
	} else {
		existing, err := s.memberships.FindByUserAndProject(ctx, q, actor.ID, invite.ProjectID)
		if err != nil {
			return err
		}
		if existing == nil {
			m := &models.ProjectMembership{
				ID:        uuid.New(),
				UserID:    actor.ID,
				ProjectID: invite.ProjectID,
				Role:      invite.Role,
			}
			if err := s.memberships.Create(ctx, q, m); err != nil {
				return err
			}
			if err := s.sync.MembershipChanged(ctx, q, MembershipEvent{
				Method:    SyncCreate,
				UserID:    actor.ID,
				ProjectID: invite.ProjectID,
				Role:      invite.Role,
			}); err != nil {
				return err
			}
		}
	}

	if !actor.IsVerified {
		if err := s.users.SetVerified(ctx, q, actor.ID); err != nil {
			return err
		}
		actor.IsVerified = true
	}
	return nil
}

// Accept transitions a pending invitation to accepted on behalf of the actor,
// whose email must match the invitation's
func (s *InvitationService) Accept(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Invitation, error) {
	var accepted *models.Invitation
	err := db.WithTransaction(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		invite, err := s.invitations.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if invite == nil {
			return apperrors.ErrInvitationNotFound
		}
		if !invite.Pending() {
			return apperrors.ErrInviteAccepted
		}
		if !strings.EqualFold(invite.Email, actor.Email) {
			return apperrors.ErrInviteEmailMismatch
		}

		if err := s.applyAcceptance(ctx, tx, invite, actor, time.Now()); err != nil {
			return err
		}
		accepted = invite
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("invitation_id", accepted.ID.String()).
		Str("user_id", actor.ID.String()).
		Msg("Invitation accepted")
	return accepted, nil
}

// PatchRole changes the role offered by a pending invitation. The actor's own
// role on the target project must be at or above both the current and the new
// role. Raising the offer to admin level supersedes the addressee's other
// pending invitations in the community.
func (s *InvitationService) PatchRole(ctx context.Context, actor *models.User, id uuid.UUID, role models.Role) (*models.Invitation, error) {
	if !role.Valid() {
		return nil, apperrors.ErrInvalidRole
	}

	var updated *models.Invitation
	err := db.WithTransaction(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		invite, err := s.invitations.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if invite == nil {
			return apperrors.ErrInvitationNotFound
		}
		if !invite.Pending() {
			return apperrors.ErrInviteAccepted
		}

		if !actor.IsSuperadmin {
			m, err := s.memberships.FindByUserAndProject(ctx, tx, actor.ID, invite.ProjectID)
			if err != nil {
				return err
			}
			if m == nil || !m.Role.AtLeast(models.RoleCoordinator) ||
				!m.Role.AtLeast(invite.Role) || !m.Role.AtLeast(role) {
				return apperrors.ErrPermissionDenied
			}
		}

		if role.AtLeast(models.MinAdminSyncRole) {
			if err := s.supersede(ctx, tx, invite.Email, invite.CommunityID, invite.ID); err != nil {
				return err
			}
		}

		if err := s.invitations.UpdateRole(ctx, tx, invite.ID, role); err != nil {
			return err
		}
		invite.Role = role
		updated = invite
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.sendInviteEmail(ctx, updated)
	return updated, nil
}

// Remove withdraws a pending invitation. The actor needs Coordinator or above
// on the target project.
func (s *InvitationService) Remove(ctx context.Context, actor *models.User, id uuid.UUID) error {
	return db.WithTransaction(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		invite, err := s.invitations.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if invite == nil {
			return apperrors.ErrInvitationNotFound
		}
		if !invite.Pending() {
			return apperrors.ErrInviteAccepted
		}

		if err := s.requireCoordinator(ctx, tx, actor, invite.ProjectID); err != nil {
			return err
		}

		return s.invitations.Delete(ctx, tx, invite.ID)
	})
}

// ListForProject returns the open invitations visible from a project: its own
// plus community-wide admin offers. An actor below Coordinator sees an empty
// list rather than an error.
func (s *InvitationService) ListForProject(ctx context.Context, actor *models.User, projectID uuid.UUID) ([]*models.Invitation, error) {
	project, err := s.projects.FindByID(ctx, s.pool, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apperrors.ErrProjectNotFound
	}

	if !actor.IsSuperadmin {
		m, err := s.memberships.FindByUserAndProject(ctx, s.pool, actor.ID, projectID)
		if err != nil {
			return nil, err
		}
		if m == nil || !m.Role.AtLeast(models.RoleCoordinator) {
			return nil, nil
		}
	}

	return s.invitations.ListOpenForProjectScope(ctx, s.pool, projectID, project.CommunityID, models.MinAdminSyncRole)
}
