package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/cedarwell/wellspring/internal/app/models"
	"github.com/cedarwell/wellspring/internal/app/repositories"
	"github.com/cedarwell/wellspring/internal/pkg/apperrors"
	"github.com/cedarwell/wellspring/internal/pkg/redcap"
)

// SurveyRecordService moves survey records between the canonical shape used
// here and the project's REDCap instance, translating values through the
// project's data dictionary in both directions.
type SurveyRecordService struct {
	pool        *pgxpool.Pool
	projects    *repositories.ProjectRepository
	communities *repositories.CommunityRepository
	memberships *repositories.ProjectMembershipRepository
	servers     *repositories.RedcapServerRepository
	redcap      *redcap.Client
	logger      zerolog.Logger
}

// NewSurveyRecordService creates a new SurveyRecordService
func NewSurveyRecordService(
	pool *pgxpool.Pool,
	repos *repositories.Repositories,
	redcapClient *redcap.Client,
	logger zerolog.Logger,
) *SurveyRecordService {
	return &SurveyRecordService{
		pool:        pool,
		projects:    repos.Projects,
		communities: repos.Communities,
		memberships: repos.Memberships,
		servers:     repos.RedcapServers,
		redcap:      redcapClient,
		logger:      logger,
	}
}

// projectCredentials resolves the REDCap server URL and API token for a
// project: the token lives on the project, the server on its community.
func (s *SurveyRecordService) projectCredentials(ctx context.Context, projectID uuid.UUID) (serverURL, token string, err error) {
	project, err := s.projects.FindByID(ctx, s.pool, projectID)
	if err != nil {
		return "", "", err
	}
	if project == nil {
		return "", "", apperrors.ErrProjectNotFound
	}
	if project.RedcapToken == nil || *project.RedcapToken == "" {
		return "", "", apperrors.NewBadRequestError("project has no linked REDCap project")
	}

	community, err := s.communities.FindByID(ctx, s.pool, project.CommunityID)
	if err != nil {
		return "", "", err
	}
	if community == nil || community.RedcapServerID == nil {
		return "", "", apperrors.NewBadRequestError("project's community has no linked REDCap server")
	}

	server, err := s.servers.FindByID(ctx, s.pool, *community.RedcapServerID)
	if err != nil {
		return "", "", err
	}
	if server == nil {
		return "", "", apperrors.NewBadRequestError("project's community has no linked REDCap server")
	}

	return server.ServerURL, *project.RedcapToken, nil
}

func (s *SurveyRecordService) requireMember(ctx context.Context, actor *models.User, projectID uuid.UUID, minimum models.Role) error {
	if actor.IsSuperadmin {
		return nil
	}
	m, err := s.memberships.FindByUserAndProject(ctx, s.pool, actor.ID, projectID)
	if err != nil {
		return err
	}
	if m == nil || !m.Role.AtLeast(minimum) {
		return apperrors.ErrPermissionDenied
	}
	return nil
}

// Export pulls a project's records from REDCap and translates them to the
// canonical shape. One dictionary fetch covers the union of fields across all
// returned records.
func (s *SurveyRecordService) Export(ctx context.Context, actor *models.User, projectID uuid.UUID) ([]map[string]interface{}, error) {
	if err := s.requireMember(ctx, actor, projectID, models.RoleFacilitator); err != nil {
		return nil, err
	}

	serverURL, token, err := s.projectCredentials(ctx, projectID)
	if err != nil {
		return nil, err
	}

	records, err := s.redcap.ExportRecords(ctx, serverURL, token, nil)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	dict, err := s.redcap.Metadata(ctx, serverURL, token, redcap.UnionKeys(records))
	if err != nil {
		return nil, err
	}

	return redcap.ToCanonicalBatch(records, dict), nil
}

// Import translates canonical records to the project's external shape and
// pushes them into REDCap, returning the number of records the upstream
// accepted. The actor needs Coordinator or above.
func (s *SurveyRecordService) Import(ctx context.Context, actor *models.User, projectID uuid.UUID, records []map[string]interface{}) (int, error) {
	if err := s.requireMember(ctx, actor, projectID, models.RoleCoordinator); err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	serverURL, token, err := s.projectCredentials(ctx, projectID)
	if err != nil {
		return 0, err
	}

	dict, err := s.redcap.Metadata(ctx, serverURL, token, redcap.UnionKeys(records))
	if err != nil {
		return 0, err
	}

	count, err := s.redcap.ImportRecords(ctx, serverURL, token, redcap.ToExternalBatch(records, dict))
	if err != nil {
		return 0, err
	}

	s.logger.Info().
		Str("project_id", projectID.String()).
		Int("count", count).
		Msg("Imported survey records")
	return count, nil
}
