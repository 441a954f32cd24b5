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

const projectColumns = "id, community_id, name, description, purpose, number_of_participants, status, redcap_token, redcap_template_id, created_at, updated_at"

// ProjectRepository handles database operations on projects
type ProjectRepository struct{}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository() *ProjectRepository {
	return &ProjectRepository{}
}

func scanProject(row pgx.Row) (*models.Project, error) {
	var p models.Project
	err := row.Scan(
		&p.ID, &p.CommunityID, &p.Name, &p.Description, &p.Purpose,
		&p.NumberOfParticipants, &p.Status, &p.RedcapToken, &p.RedcapTemplateID,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a project
func (r *ProjectRepository) Create(ctx context.Context, q DBTX, p *models.Project) error {
	sql, args, err := squirrel.Insert("projects").
		Columns("id", "community_id", "name", "description", "purpose", "number_of_participants", "status", "redcap_token", "redcap_template_id").
		Values(p.ID, p.CommunityID, p.Name, p.Description, p.Purpose, p.NumberOfParticipants, p.Status, p.RedcapToken, p.RedcapTemplateID).
		Suffix("RETURNING created_at, updated_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	return q.QueryRow(ctx, sql, args...).Scan(&p.CreatedAt, &p.UpdatedAt)
}

// FindByID retrieves a project by id, or nil when absent
func (r *ProjectRepository) FindByID(ctx context.Context, q DBTX, id uuid.UUID) (*models.Project, error) {
	sql, args, err := squirrel.Select(projectColumns).
		From("projects").
		Where("id = ?", id).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	p, err := scanProject(q.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	return p, nil
}

// ListByCommunity retrieves every project in a community ordered by name
func (r *ProjectRepository) ListByCommunity(ctx context.Context, q DBTX, communityID uuid.UUID) ([]*models.Project, error) {
	sql, args, err := squirrel.Select(projectColumns).
		From("projects").
		Where("community_id = ?", communityID).
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

	var projects []*models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// ListIDsByCommunity retrieves the ids of every project in a community. The
// sync engine walks these when mirroring admin status onto memberships.
func (r *ProjectRepository) ListIDsByCommunity(ctx context.Context, q DBTX, communityID uuid.UUID) ([]uuid.UUID, error) {
	sql, args, err := squirrel.Select("id").
		From("projects").
		Where("community_id = ?", communityID).
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

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Update persists mutable project fields
func (r *ProjectRepository) Update(ctx context.Context, q DBTX, p *models.Project) error {
	sql, args, err := squirrel.Update("projects").
		Set("name", p.Name).
		Set("description", p.Description).
		Set("purpose", p.Purpose).
		Set("number_of_participants", p.NumberOfParticipants).
		Set("status", p.Status).
		Set("redcap_token", p.RedcapToken).
		Set("redcap_template_id", p.RedcapTemplateID).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where("id = ?", p.ID).
		Suffix("RETURNING updated_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	return q.QueryRow(ctx, sql, args...).Scan(&p.UpdatedAt)
}

// Delete removes a project; memberships and invitations cascade
func (r *ProjectRepository) Delete(ctx context.Context, q DBTX, id uuid.UUID) error {
	sql, args, err := squirrel.Delete("projects").
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
