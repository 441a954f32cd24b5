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
	"github.com/cedarwell/wellspring/internal/pkg/redcap"
)

// RedcapService manages REDCap server registrations, their project templates
// and connection probes. All operations are superadmin only.
type RedcapService struct {
	pool    *pgxpool.Pool
	servers *repositories.RedcapServerRepository
	redcap  *redcap.Client
	logger  zerolog.Logger
}

// NewRedcapService creates a new RedcapService
func NewRedcapService(pool *pgxpool.Pool, repos *repositories.Repositories, redcapClient *redcap.Client, logger zerolog.Logger) *RedcapService {
	return &RedcapService{
		pool:    pool,
		servers: repos.RedcapServers,
		redcap:  redcapClient,
		logger:  logger,
	}
}

// CheckServerConnection probes whether a supertoken is valid for a server URL
func (s *RedcapService) CheckServerConnection(ctx context.Context, actor *models.User, serverURL, supertoken string) (bool, error) {
	if !actor.IsSuperadmin {
		return false, apperrors.ErrPermissionDenied
	}
	if serverURL == "" || supertoken == "" {
		return false, nil
	}
	return s.redcap.CheckServerConnection(ctx, serverURL, supertoken), nil
}

// CheckProjectConnection probes whether a project token is valid for a server
// URL
func (s *RedcapService) CheckProjectConnection(ctx context.Context, actor *models.User, serverURL, token string) (bool, error) {
	if !actor.IsSuperadmin {
		return false, apperrors.ErrPermissionDenied
	}
	if serverURL == "" || token == "" {
		return false, nil
	}
	return s.redcap.CheckProjectConnection(ctx, serverURL, token), nil
}

// CreateServer registers a REDCap instance
func (s *RedcapService) CreateServer(ctx context.Context, actor *models.User, req dto.CreateRedcapServerRequest) (*models.RedcapServer, error) {
	if !actor.IsSuperadmin {
		return nil, apperrors.ErrPermissionDenied
	}

	server := &models.RedcapServer{
		ID:         uuid.New(),
		Name:       req.Name,
		ServerURL:  req.ServerURL,
		Supertoken: req.Supertoken,
	}
	err := db.WithTransaction(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		return s.servers.Create(ctx, tx, server)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("server_id", server.ID.String()).Msg("REDCap server registered")
	return server, nil
}

// ListServers returns every registered server
func (s *RedcapService) ListServers(ctx context.Context, actor *models.User) ([]*models.RedcapServer, error) {
	if !actor.IsSuperadmin {
		return nil, apperrors.ErrPermissionDenied
	}
	return s.servers.List(ctx, s.pool)
}

// UpdateServer patches a server registration
func (s *RedcapService) UpdateServer(ctx context.Context, actor *models.User, id uuid.UUID, req dto.UpdateRedcapServerRequest) (*models.RedcapServer, error) {
	if !actor.IsSuperadmin {
		return nil, apperrors.ErrPermissionDenied
	}

	var updated *models.RedcapServer
	err := db.WithTransaction(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		server, err := s.servers.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if server == nil {
			return apperrors.ErrResourceNotFound
		}

		if req.Name != nil {
			server.Name = *req.Name
		}
		if req.ServerURL != nil {
			server.ServerURL = *req.ServerURL
		}
		if req.Supertoken != nil {
			server.Supertoken = *req.Supertoken
		}

		if err := s.servers.Update(ctx, tx, server); err != nil {
			return err
		}
		updated = server
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteServer removes a server registration
func (s *RedcapService) DeleteServer(ctx context.Context, actor *models.User, id uuid.UUID) error {
	if !actor.IsSuperadmin {
		return apperrors.ErrPermissionDenied
	}
	return db.WithTransaction(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		return s.servers.Delete(ctx, tx, id)
	})
}

// ListTemplates returns the project templates registered on a server
func (s *RedcapService) ListTemplates(ctx context.Context, actor *models.User, serverID uuid.UUID) ([]*models.RedcapTemplate, error) {
	if !actor.IsSuperadmin {
		return nil, apperrors.ErrPermissionDenied
	}
	return s.servers.ListTemplatesByServer(ctx, s.pool, serverID)
}

// DeleteTemplate removes a template registration. Projects created from it
// keep their REDCap link.
func (s *RedcapService) DeleteTemplate(ctx context.Context, actor *models.User, id uuid.UUID) error {
	if !actor.IsSuperadmin {
		return apperrors.ErrPermissionDenied
	}
	return db.WithTransaction(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		return s.servers.DeleteTemplate(ctx, tx, id)
	})
}

// CreateTemplate registers a template project on a server
func (s *RedcapService) CreateTemplate(ctx context.Context, actor *models.User, serverID uuid.UUID, name, token string) (*models.RedcapTemplate, error) {
	if !actor.IsSuperadmin {
		return nil, apperrors.ErrPermissionDenied
	}

	template := &models.RedcapTemplate{
		ID:             uuid.New(),
		Name:           name,
		RedcapServerID: serverID,
		Token:          token,
	}
	err := db.WithTransaction(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		server, err := s.servers.FindByID(ctx, tx, serverID)
		if err != nil {
			return err
		}
		if server == nil {
			return apperrors.ErrResourceNotFound
		}
		return s.servers.CreateTemplate(ctx, tx, template)
	})
	if err != nil {
		return nil, err
	}
	return template, nil
}
