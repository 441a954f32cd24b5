package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cedarwell/wellspring/internal/app/models"
)

const invitationColumns = "id, email, project_role, invited_user_id, invited_by, project_id, community_id, accepted_at, created_at"

// InvitationRepository handles database operations on the invitation ledger
type InvitationRepository struct{}

// NewInvitationRepository creates a new InvitationRepository
func NewInvitationRepository() *InvitationRepository {
	return &InvitationRepository{}
}

func scanInvitation(row pgx.Row) (*models.Invitation, error) {
	var i models.Invitation
	err := row.Scan(
		&i.ID, &i.Email, &i.Role, &i.InvitedUserID, &i.InvitedBy,
		&i.ProjectID, &i.CommunityID, &i.AcceptedAt, &i.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

// Create inserts an invitation
func (r *InvitationRepository) Create(ctx context.Context, q DBTX, i *models.Invitation) error {
	sql, args, err := squirrel.Insert("invitations").
		Columns("id", "email", "project_role", "invited_user_id", "invited_by", "project_id", "community_id").
		Values(i.ID, i.Email, i.Role, i.InvitedUserID, i.InvitedBy, i.ProjectID, i.CommunityID).
		Suffix("RETURNING created_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	return q.QueryRow(ctx, sql, args...).Scan(&i.CreatedAt)
}

// FindByID retrieves an invitation by id, or nil when absent
func (r *InvitationRepository) FindByID(ctx context.Context, q DBTX, id uuid.UUID) (*models.Invitation, error) {
	sql, args, err := squirrel.Select(invitationColumns).
		From("invitations").
		Where("id = ?", id).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	i, err := scanInvitation(q.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	return i, nil
}

// FindPendingByEmailAndProject retrieves the open invitation for an email on a
// project, or nil when none exists. Used for duplicate detection.
func (r *InvitationRepository) FindPendingByEmailAndProject(ctx context.Context, q DBTX, email string, projectID uuid.UUID) (*models.Invitation, error) {
	sql, args, err := squirrel.Select(invitationColumns).
		From("invitations").
		Where("email = ?", email).
		Where("project_id = ?", projectID).
		Where("accepted_at IS NULL").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	i, err := scanInvitation(q.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	return i, nil
}

// ListPendingByEmailAndCommunity retrieves every open invitation addressed to
// an email within one community. The sync engine resolves these when the
// addressee gains admin status there.
func (r *InvitationRepository) ListPendingByEmailAndCommunity(ctx context.Context, q DBTX, email string, communityID uuid.UUID) ([]*models.Invitation, error) {
	sql, args, err := squirrel.Select(invitationColumns).
		From("invitations").
		Where("email = ?", email).
		Where("community_id = ?", communityID).
		Where("accepted_at IS NULL").
		OrderBy("created_at ASC").
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

	var invitations []*models.Invitation
	for rows.Next() {
		i, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		invitations = append(invitations, i)
	}
	return invitations, rows.Err()
}

// ListPendingByEmail retrieves every open invitation addressed to an email
func (r *InvitationRepository) ListPendingByEmail(ctx context.Context, q DBTX, email string) ([]*models.Invitation, error) {
	sql, args, err := squirrel.Select(invitationColumns).
		From("invitations").
		Where("email = ?", email).
		Where("accepted_at IS NULL").
		OrderBy("created_at ASC").
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

	var invitations []*models.Invitation
	for rows.Next() {
		i, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		invitations = append(invitations, i)
	}
	return invitations, rows.Err()
}

// ListOpenForProjectScope retrieves the open invitations visible from one
// project: invitations targeting the project itself, plus admin-level
// invitations anywhere in its community (those grant access to every project).
func (r *InvitationRepository) ListOpenForProjectScope(ctx context.Context, q DBTX, projectID, communityID uuid.UUID, adminRole models.Role) ([]*models.Invitation, error) {
	sql, args, err := squirrel.Select(invitationColumns).
		From("invitations").
		Where(squirrel.Or{
			squirrel.Eq{"project_id": projectID},
			squirrel.And{
				squirrel.Eq{"community_id": communityID},
				squirrel.GtOrEq{"project_role": adminRole},
			},
		}).
		Where("accepted_at IS NULL").
		OrderBy("created_at DESC").
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

	var invitations []*models.Invitation
	for rows.Next() {
		i, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		invitations = append(invitations, i)
	}
	return invitations, rows.Err()
}

// ListByProjects retrieves every invitation targeting any of the given
// projects. Callers pass the set of projects the viewer may see.
func (r *InvitationRepository) ListByProjects(ctx context.Context, q DBTX, projectIDs []uuid.UUID) ([]*models.Invitation, error) {
	if len(projectIDs) == 0 {
		return nil, nil
	}

	sql, args, err := squirrel.Select(invitationColumns).
		From("invitations").
		Where(squirrel.Eq{"project_id": projectIDs}).
		OrderBy("created_at DESC").
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

	var invitations []*models.Invitation
	for rows.Next() {
		i, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		invitations = append(invitations, i)
	}
	return invitations, rows.Err()
}

// MarkAccepted closes an invitation, recording who accepted it and when
func (r *InvitationRepository) MarkAccepted(ctx context.Context, q DBTX, id, userID uuid.UUID, at time.Time) error {
	sql, args, err := squirrel.Update("invitations").
		Set("accepted_at", at).
		Set("invited_user_id", userID).
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

// UpdateRole changes the role offered by a pending invitation
func (r *InvitationRepository) UpdateRole(ctx context.Context, q DBTX, id uuid.UUID, role models.Role) error {
	sql, args, err := squirrel.Update("invitations").
		Set("project_role", role).
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

// Delete removes an invitation (withdrawal or supersession)
func (r *InvitationRepository) Delete(ctx context.Context, q DBTX, id uuid.UUID) error {
	sql, args, err := squirrel.Delete("invitations").
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
