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

const communityAdminColumns = "id, user_id, community_id, is_first_login, created_at"

// CommunityAdminRepository handles database operations on the community-admin
// registry. A user holds at most one admin entry across all communities.
type CommunityAdminRepository struct{}

// NewCommunityAdminRepository creates a new CommunityAdminRepository
func NewCommunityAdminRepository() *CommunityAdminRepository {
	return &CommunityAdminRepository{}
}

func scanCommunityAdmin(row pgx.Row) (*models.CommunityAdmin, error) {
	var a models.CommunityAdmin
	err := row.Scan(&a.ID, &a.UserID, &a.CommunityID, &a.IsFirstLogin, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts an admin registry entry
func (r *CommunityAdminRepository) Create(ctx context.Context, q DBTX, a *models.CommunityAdmin) error {
	sql, args, err := squirrel.Insert("community_admins").
		Columns("id", "user_id", "community_id", "is_first_login").
		Values(a.ID, a.UserID, a.CommunityID, a.IsFirstLogin).
		Suffix("RETURNING created_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	return q.QueryRow(ctx, sql, args...).Scan(&a.CreatedAt)
}

// FindByID retrieves an admin entry by id, or nil when absent
func (r *CommunityAdminRepository) FindByID(ctx context.Context, q DBTX, id uuid.UUID) (*models.CommunityAdmin, error) {
	sql, args, err := squirrel.Select(communityAdminColumns).
		From("community_admins").
		Where("id = ?", id).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	a, err := scanCommunityAdmin(q.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	return a, nil
}

// FindByUser retrieves the user's admin entry regardless of community, or nil
// when the user administers none
func (r *CommunityAdminRepository) FindByUser(ctx context.Context, q DBTX, userID uuid.UUID) (*models.CommunityAdmin, error) {
	sql, args, err := squirrel.Select(communityAdminColumns).
		From("community_admins").
		Where("user_id = ?", userID).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	a, err := scanCommunityAdmin(q.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	return a, nil
}

// FindByUserAndCommunity retrieves the admin entry for a user in a community,
// or nil when the user does not administer it
func (r *CommunityAdminRepository) FindByUserAndCommunity(ctx context.Context, q DBTX, userID, communityID uuid.UUID) (*models.CommunityAdmin, error) {
	sql, args, err := squirrel.Select(communityAdminColumns).
		From("community_admins").
		Where("user_id = ?", userID).
		Where("community_id = ?", communityID).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	a, err := scanCommunityAdmin(q.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	return a, nil
}

// ListByCommunity retrieves every admin entry for a community
func (r *CommunityAdminRepository) ListByCommunity(ctx context.Context, q DBTX, communityID uuid.UUID) ([]*models.CommunityAdmin, error) {
	sql, args, err := squirrel.Select(communityAdminColumns).
		From("community_admins").
		Where("community_id = ?", communityID).
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

	var admins []*models.CommunityAdmin
	for rows.Next() {
		a, err := scanCommunityAdmin(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		admins = append(admins, a)
	}
	return admins, rows.Err()
}

// ListByUser retrieves every admin entry held by a user
func (r *CommunityAdminRepository) ListByUser(ctx context.Context, q DBTX, userID uuid.UUID) ([]*models.CommunityAdmin, error) {
	sql, args, err := squirrel.Select(communityAdminColumns).
		From("community_admins").
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

	var admins []*models.CommunityAdmin
	for rows.Next() {
		a, err := scanCommunityAdmin(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		admins = append(admins, a)
	}
	return admins, rows.Err()
}

// SetFirstLogin flips the first-login marker on an admin entry
func (r *CommunityAdminRepository) SetFirstLogin(ctx context.Context, q DBTX, id uuid.UUID, firstLogin bool) error {
	sql, args, err := squirrel.Update("community_admins").
		Set("is_first_login", firstLogin).
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

// Delete removes an admin entry by id
func (r *CommunityAdminRepository) Delete(ctx context.Context, q DBTX, id uuid.UUID) error {
	sql, args, err := squirrel.Delete("community_admins").
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

// DeleteByUserAndCommunity removes the admin entry for a user in a community.
// Returns the number of rows removed so callers can treat absence as a no-op.
func (r *CommunityAdminRepository) DeleteByUserAndCommunity(ctx context.Context, q DBTX, userID, communityID uuid.UUID) (int64, error) {
	sql, args, err := squirrel.Delete("community_admins").
		Where("user_id = ?", userID).
		Where("community_id = ?", communityID).
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
