package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cedarwell/wellspring/internal/app/models"
)

const redcapServerColumns = "id, name, server_url, supertoken, created_at, updated_at"

// RedcapServerRepository handles database operations on registered REDCap
// servers and their project templates
type RedcapServerRepository struct{}

// NewRedcapServerRepository creates a new RedcapServerRepository
func NewRedcapServerRepository() *RedcapServerRepository {
	return &RedcapServerRepository{}
}

func scanRedcapServer(row pgx.Row) (*models.RedcapServer, error) {
	var s models.RedcapServer
	err := row.Scan(&s.ID, &s.Name, &s.ServerURL, &s.Supertoken, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a server registration
func (r *RedcapServerRepository) Create(ctx context.Context, q DBTX, s *models.RedcapServer) error {
	sql, args, err := squirrel.Insert("redcap_servers").
		Columns("id", "name", "server_url", "supertoken").
		Values(s.ID, s.Name, s.ServerURL, s.Supertoken).
		Suffix("RETURNING created_at, updated_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	return q.QueryRow(ctx, sql, args...).Scan(&s.CreatedAt, &s.UpdatedAt)
}

// FindByID retrieves a server by id, or nil when absent
func (r *RedcapServerRepository) FindByID(ctx context.Context, q DBTX, id uuid.UUID) (*models.RedcapServer, error) {
	sql, args, err := squirrel.Select(redcapServerColumns).
		From("redcap_servers").
		Where("id = ?", id).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	s, err := scanRedcapServer(q.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	return s, nil
}

// List retrieves every registered server
func (r *RedcapServerRepository) List(ctx context.Context, q DBTX) ([]*models.RedcapServer, error) {
	sql, args, err := squirrel.Select(redcapServerColumns).
		From("redcap_servers").
		OrderBy("name ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var servers []*models.RedcapServer
	for rows.Next() {
		s, err := scanRedcapServer(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		servers = append(servers, s)
	}
	return servers, rows.Err()
}

// Update persists mutable server fields
func (r *RedcapServerRepository) Update(ctx context.Context, q DBTX, s *models.RedcapServer) error {
	sql, args, err := squirrel.Update("redcap_servers").
		Set("name", s.Name).
		Set("server_url", s.ServerURL).
		Set("supertoken", s.Supertoken).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where("id = ?", s.ID).
		Suffix("RETURNING updated_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	return q.QueryRow(ctx, sql, args...).Scan(&s.UpdatedAt)
}

// Delete removes a server registration
func (r *RedcapServerRepository) Delete(ctx context.Context, q DBTX, id uuid.UUID) error {
	sql, args, err := squirrel.Delete("redcap_servers").
		Where("id = ?", id).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// CreateTemplate inserts a project template
func (r *RedcapServerRepository) CreateTemplate(ctx context.Context, q DBTX, t *models.RedcapTemplate) error {
	sql, args, err := squirrel.Insert("redcap_templates").
		Columns("id", "name", "redcap_server_id", "token").
		Values(t.ID, t.Name, t.RedcapServerID, t.Token).
		Suffix("RETURNING created_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	return q.QueryRow(ctx, sql, args...).Scan(&t.CreatedAt)
}

// FindTemplateByID retrieves a template by id, or nil when absent
func (r *RedcapServerRepository) FindTemplateByID(ctx context.Context, q DBTX, id uuid.UUID) (*models.RedcapTemplate, error) {
	sql, args, err := squirrel.Select("id, name, redcap_server_id, token, created_at").
		From("redcap_templates").
		Where("id = ?", id).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	var t models.RedcapTemplate
	err = q.QueryRow(ctx, sql, args...).Scan(&t.ID, &t.Name, &t.RedcapServerID, &t.Token, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	return &t, nil
}

// ListTemplatesByServer retrieves every template registered on a server
func (r *RedcapServerRepository) ListTemplatesByServer(ctx context.Context, q DBTX, serverID uuid.UUID) ([]*models.RedcapTemplate, error) {
	sql, args, err := squirrel.Select("id, name, redcap_server_id, token, created_at").
		From("redcap_templates").
		Where("redcap_server_id = ?", serverID).
		OrderBy("name ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var templates []*models.RedcapTemplate
	for rows.Next() {
		var t models.RedcapTemplate
		if err := rows.Scan(&t.ID, &t.Name, &t.RedcapServerID, &t.Token, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		templates = append(templates, &t)
	}
	return templates, rows.Err()
}

// DeleteTemplate removes a template
func (r *RedcapServerRepository) DeleteTemplate(ctx context.Context, q DBTX, id uuid.UUID) error {
	sql, args, err := squirrel.Delete("redcap_templates").
		Where("id = ?", id).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
