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
	"github.com/cedarwell/wellspring/internal/app/models/dto/enums"
	"github.com/cedarwell/wellspring/internal/app/repositories"
	"github.com/cedarwell/wellspring/internal/db"
	"github.com/cedarwell/wellspring/internal/pkg/apperrors"
	"github.com/cedarwell/wellspring/internal/pkg/dberrors"
	"github.com/cedarwell/wellspring/internal/pkg/redcap"
)

// ProjectService manages projects. Creating a project seeds Admin memberships
// for the community's admins and, when a template is given, provisions a
// matching project on the community's REDCap server.
type ProjectService struct {
	pool        *pgxpool.Pool
	projects    *repositories.ProjectRepository
	communities *repositories.CommunityRepository
	memberships *repositories.ProjectMembershipRepository
	admins      *repositories.CommunityAdminRepository
	servers     *repositories.RedcapServerRepository
	redcap      *redcap.Client
	logger      zerolog.Logger
}

// NewProjectService creates a new ProjectService
func NewProjectService(
	pool *pgxpool.Pool,
	repos *repositories.Repositories,
	redcapClient *redcap.Client,
	logger zerolog.Logger,
) *ProjectService {
	return &ProjectService{
		pool:        pool,
		projects:    repos.Projects,
		communities: repos.Communities,
		memberships: repos.Memberships,
		admins:      repos.Admins,
		servers:     repos.RedcapServers,
		redcap:      redcapClient,
		logger:      logger,
	}
}

// requireProjectRole verifies the actor holds at least the given role on the
// project. Superadmins bypass.
func (s *ProjectService) requireProjectRole(ctx context.Context, q repositories.DBTX, actor *models.User, projectID uuid.UUID, minimum models.Role) error {
	if actor.IsSuperadmin {
		return nil
	}
	m, err := s.memberships.FindByUserAndProject(ctx, q, actor.ID, projectID)
	if err != nil {
		return err
	}
	if m == nil || !m.Role.AtLeast(minimum) {
		return apperrors.ErrPermissionDenied
	}
	return nil
}

// Create creates a project in a community. The actor must administer the
// community (or be a superadmin). All of the community's admins are added as
// Admin members; the creator's pin, if given, goes on their own membership.
func (s *ProjectService) Create(ctx context.Context, actor *models.User, req dto.CreateProjectRequest) (*models.Project, error) {
	if len(req.Purpose) == 0 {
		return nil, apperrors.NewBadRequestError("projects must have at least one purpose")
	}
	for _, p := range req.Purpose {
		if !enums.ValidPurpose(enums.ProjectPurpose(p)) {
			return nil, apperrors.NewBadRequestError("unknown project purpose: " + p)
		}
	}

	var created *models.Project
	err := db.WithTransaction(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		community, err := s.communities.FindByID(ctx, tx, req.CommunityID)
		if err != nil {
			return err
		}
		if community == nil {
			return apperrors.ErrCommunityNotFound
		}

		if !actor.IsSuperadmin {
			admin, err := s.admins.FindByUserAndCommunity(ctx, tx, actor.ID, req.CommunityID)
			if err != nil {
				return err
			}
			if admin == nil {
				return apperrors.ErrPermissionDenied
			}
		}

		var template *models.RedcapTemplate
		if req.RedcapTemplateID != nil {
			template, err = s.servers.FindTemplateByID(ctx, tx, *req.RedcapTemplateID)
			if err != nil {
				return err
			}
			if template == nil {
				return apperrors.NewResourceNotFoundError("REDCap template not found")
			}
			if community.RedcapServerID == nil || template.RedcapServerID != *community.RedcapServerID {
				return apperrors.NewBadRequestError("community and REDCap template are not on the same REDCap server")
			}
		}

		project := &models.Project{
			ID:                   uuid.New(),
			CommunityID:          req.CommunityID,
			Name:                 req.Name,
			Description:          req.Description,
			Purpose:              req.Purpose,
			NumberOfParticipants: req.NumberOfParticipants,
			Status:               models.ProjectStatusActive,
			RedcapTemplateID:     req.RedcapTemplateID,
		}
		if err := s.projects.Create(ctx, tx, project); err != nil {
			if dberrors.IsDuplicateConstraintError(err, "uq_projects_community_name") {
				return apperrors.NewConflictError("a project with this name already exists in the community")
			}
			return err
		}

		if err := s.seedAdminMemberships(ctx, tx, project, actor.ID, req.Pin); err != nil {
			return err
		}

		if template != nil {
			server, err := s.servers.FindByID(ctx, tx, template.RedcapServerID)
			if err != nil {
				return err
			}
			if server == nil {
				return apperrors.NewResourceNotFoundError("REDCap server not found")
			}
			token, err := s.provisionRedcapProject(ctx, server, template, project.Name)
			if err != nil {
				return err
			}
			project.RedcapToken = &token
			if err := s.projects.Update(ctx, tx, project); err != nil {
				return err
			}
		}

		created = project
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("project_id", created.ID.String()).
		Str("community_id", created.CommunityID.String()).
		Msg("Project created")
	return created, nil
}

// seedAdminMemberships adds each of the community's admins to the new project
// at role Admin. These writes never re-enter the sync engine; the admin
// registry is already the source of truth here.
func (s *ProjectService) seedAdminMemberships(ctx context.Context, q repositories.DBTX, project *models.Project, creatorID uuid.UUID, pin *string) error {
	admins, err := s.admins.ListByCommunity(ctx, q, project.CommunityID)
	if err != nil {
		return err
	}
	for _, admin := range admins {
		m := &models.ProjectMembership{
			ID:        uuid.New(),
			UserID:    admin.UserID,
			ProjectID: project.ID,
			Role:      models.RoleAdmin,
		}
		if admin.UserID == creatorID {
			m.Pin = pin
		}
		if err := s.memberships.Create(ctx, q, m); err != nil {
			return err
		}
	}
	return nil
}

// provisionRedcapProject copies the template's data dictionary into a freshly
// created REDCap project and returns the new project's API token
func (s *ProjectService) provisionRedcapProject(ctx context.Context, server *models.RedcapServer, template *models.RedcapTemplate, title string) (string, error) {
	metadata, err := s.redcap.RawMetadata(ctx, server.ServerURL, template.Token)
	if err != nil {
		return "", err
	}

	token, err := s.redcap.CreateProject(ctx, server.ServerURL, server.Supertoken, title)
	if err != nil {
		return "", err
	}

	if err := s.redcap.ImportMetadata(ctx, server.ServerURL, token, metadata); err != nil {
		return "", err
	}
	return token, nil
}

// Get loads a project. The actor must be a member.
func (s *ProjectService) Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Project, error) {
	project, err := s.projects.FindByID(ctx, s.pool, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apperrors.ErrProjectNotFound
	}

	if err := s.requireProjectRole(ctx, s.pool, actor, id, models.RoleFacilitator); err != nil {
		return nil, err
	}
	return project, nil
}

// ListByCommunity returns a community's projects. The actor must administer
// the community or be a superadmin.
func (s *ProjectService) ListByCommunity(ctx context.Context, actor *models.User, communityID uuid.UUID) ([]*models.Project, error) {
	if !actor.IsSuperadmin {
		admin, err := s.admins.FindByUserAndCommunity(ctx, s.pool, actor.ID, communityID)
		if err != nil {
			return nil, err
		}
		if admin == nil {
			return nil, apperrors.ErrPermissionDenied
		}
	}
	return s.projects.ListByCommunity(ctx, s.pool, communityID)
}

// Update patches a project. The actor needs Admin on the project. A REDCap
// token, once set, cannot be changed.
func (s *ProjectService) Update(ctx context.Context, actor *models.User, id uuid.UUID, req dto.UpdateProjectRequest) (*models.Project, error) {
	if req.Purpose != nil && len(req.Purpose) == 0 {
		return nil, apperrors.NewBadRequestError("projects must have at least one purpose")
	}

	var updated *models.Project
	err := db.WithTransaction(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		project, err := s.projects.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if project == nil {
			return apperrors.ErrProjectNotFound
		}

		if err := s.requireProjectRole(ctx, tx, actor, id, models.RoleAdmin); err != nil {
			return err
		}

		if req.Name != nil {
			project.Name = *req.Name
		}
		if req.Description != nil {
			project.Description = *req.Description
		}
		if req.Purpose != nil {
			project.Purpose = req.Purpose
		}
		if req.NumberOfParticipants != nil {
			project.NumberOfParticipants = *req.NumberOfParticipants
		}
		if req.Status != nil {
			project.Status = *req.Status
		}

		if err := s.projects.Update(ctx, tx, project); err != nil {
			if dberrors.IsDuplicateConstraintError(err, "uq_projects_community_name") {
				return apperrors.NewConflictError("a project with this name already exists in the community")
			}
			return err
		}
		updated = project
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a project and, by cascade, its memberships and invitations.
// The actor needs Admin on the project.
func (s *ProjectService) Delete(ctx context.Context, actor *models.User, id uuid.UUID) error {
	err := db.WithTransaction(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		if err := s.requireProjectRole(ctx, tx, actor, id, models.RoleAdmin); err != nil {
			return err
		}
		return s.projects.Delete(ctx, tx, id)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrProjectNotFound
		}
		return err
	}

	s.logger.Info().Str("project_id", id.String()).Msg("Project deleted")
	return nil
}
