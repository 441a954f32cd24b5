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

const membershipColumns = "id, user_id, project_id, project_role, project_pin, created_at, updated_at"

// ProjectMembershipRepository handles database operations on project
// memberships. (user_id, project_id) is unique.
type ProjectMembershipRepository struct{}

// NewProjectMembershipRepository creates a new ProjectMembershipRepository
func NewProjectMembershipRepository() *ProjectMembershipRepository {
	return &ProjectMembershipRepository{}
}

func scanMembership(row pgx.Row) (*models.ProjectMembership, error) {
	var m models.ProjectMembership
	err := row.Scan(&m.ID, &m.UserID, &m.ProjectID, &m.Role, &m.Pin, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts a membership
func (r *ProjectMembershipRepository) Create(ctx context.Context, q DBTX, m *models.ProjectMembership) error {
	sql, args, err := squirrel.Insert("project_memberships").
		Columns("id", "user_id", "project_id", "project_role", "project_pin").
		Values(m.ID, m.UserID, m.ProjectID, m.Role, m.Pin).
		Suffix("RETURNING created_at, updated_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	return q.QueryRow(ctx, sql, args...).Scan(&m.CreatedAt, &m.UpdatedAt)
}

// FindByID retrieves a membership by id, or nil when absent
func (r *ProjectMembershipRepository) FindByID(ctx context.Context, q DBTX, id uuid.UUID) (*models.ProjectMembership, error) {
	sql, args, err := squirrel.Select(membershipColumns).
		From("project_memberships").
		Where("id = ?", id).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	m, err := scanMembership(q.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	return m, nil
}

// FindByUserAndProject retrieves the membership tying a user to a project, or
// nil when the user is not a member
func (r *ProjectMembershipRepository) FindByUserAndProject(ctx context.Context, q DBTX, userID, projectID uuid.UUID) (*models.ProjectMembership, error) {
	sql, args, err := squirrel.Select(membershipColumns).
		From("project_memberships").
		Where("user_id = ?", userID).
		Where("project_id = ?", projectID).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	m, err := scanMembership(q.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	return m, nil
}

// ListByProject retrieves every membership on a project together with the
// member's user record
func (r *ProjectMembershipRepository) ListByProject(ctx context.Context, q DBTX, projectID uuid.UUID) ([]*models.ProjectMembership, error) {
	sql, args, err := squirrel.Select(
		"m.id", "m.user_id", "m.project_id", "m.project_role", "m.project_pin", "m.created_at", "m.updated_at",
		"u.id", "u.email", "u.first_name", "u.last_name", "u.is_superadmin", "u.is_verified",
	).
		From("project_memberships m").
		Join("users u ON u.id = m.user_id").
		Where("m.project_id = ?", projectID).
		OrderBy("m.created_at ASC").
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

	var memberships []*models.ProjectMembership
	for rows.Next() {
		var m models.ProjectMembership
		var u models.User
		err := rows.Scan(
			&m.ID, &m.UserID, &m.ProjectID, &m.Role, &m.Pin, &m.CreatedAt, &m.UpdatedAt,
			&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.IsSuperadmin, &u.IsVerified,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		m.User = &u
		memberships = append(memberships, &m)
	}
	return memberships, rows.Err()
}

// ListByUser retrieves every membership held by a user
func (r *ProjectMembershipRepository) ListByUser(ctx context.Context, q DBTX, userID uuid.UUID) ([]*models.ProjectMembership, error) {
	sql, args, err := squirrel.Select(membershipColumns).
		From("project_memberships").
		Where("user_id = ?", userID).
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

	var memberships []*models.ProjectMembership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

// UpdateRole changes the role on a membership
func (r *ProjectMembershipRepository) UpdateRole(ctx context.Context, q DBTX, id uuid.UUID, role models.Role) error {
	sql, args, err := squirrel.Update("project_memberships").
		Set("project_role", role).
		Set("updated_at", squirrel.Expr("NOW()")).
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

// UpdatePin changes (or clears) the pin on a membership
func (r *ProjectMembershipRepository) UpdatePin(ctx context.Context, q DBTX, id uuid.UUID, pin *string) error {
	sql, args, err := squirrel.Update("project_memberships").
		Set("project_pin", pin).
		Set("updated_at", squirrel.Expr("NOW()")).
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

// CountPinInProject counts memberships in a project carrying the given pin,
// excluding one membership id. Used to enforce per-project pin uniqueness
// while letting a member keep their own pin on update.
func (r *ProjectMembershipRepository) CountPinInProject(ctx context.Context, q DBTX, projectID uuid.UUID, pin string, excludeID uuid.UUID) (int64, error) {
	sql, args, err := squirrel.Select("COUNT(*)").
		From("project_memberships").
		Where("project_id = ?", projectID).
		Where("project_pin = ?", pin).
		Where("id <> ?", excludeID).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	var count int64
	if err := q.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("error executing query: %w", err)
	}
	return count, nil
}

// Delete removes a membership by id
func (r *ProjectMembershipRepository) Delete(ctx context.Context, q DBTX, id uuid.UUID) error {
	sql, args, err := squirrel.Delete("project_memberships").
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

// DeleteByUserAndProject removes the membership tying a user to a project.
// Returns the number of rows removed so the sync engine can treat absence as
// a no-op when mirroring admin revocation.
func (r *ProjectMembershipRepository) DeleteByUserAndProject(ctx context.Context, q DBTX, userID, projectID uuid.UUID) (int64, error) {
	sql, args, err := squirrel.Delete("project_memberships").
		Where("user_id = ?", userID).
		Where("project_id = ?", projectID).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("error executing query: %w", err)
	}
	return tag.RowsAffected(), nil
}
