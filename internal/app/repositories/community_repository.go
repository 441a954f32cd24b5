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

const communityColumns = "id, name, area, type, status, share_name, license_expiry, contact_id, redcap_server_id, created_at, updated_at"

// CommunityRepository handles database operations on communities
type CommunityRepository struct{}

// NewCommunityRepository creates a new CommunityRepository
func NewCommunityRepository() *CommunityRepository {
	return &CommunityRepository{}
}

func scanCommunity(row pgx.Row) (*models.Community, error) {
	var c models.Community
	err := row.Scan(
		&c.ID, &c.Name, &c.Area, &c.Type, &c.Status, &c.ShareName,
		&c.LicenseExpiry, &c.ContactID, &c.RedcapServerID, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a community
func (r *CommunityRepository) Create(ctx context.Context, q DBTX, c *models.Community) error {
	sql, args, err := squirrel.Insert("communities").
		Columns("id", "name", "area", "type", "status", "share_name", "license_expiry", "contact_id", "redcap_server_id").
		Values(c.ID, c.Name, c.Area, c.Type, c.Status, c.ShareName, c.LicenseExpiry, c.ContactID, c.RedcapServerID).
		Suffix("RETURNING created_at, updated_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	return q.QueryRow(ctx, sql, args...).Scan(&c.CreatedAt, &c.UpdatedAt)
}

// FindByID retrieves a community by id, or nil when absent
func (r *CommunityRepository) FindByID(ctx context.Context, q DBTX, id uuid.UUID) (*models.Community, error) {
	sql, args, err := squirrel.Select(communityColumns).
		From("communities").
		Where("id = ?", id).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	c, err := scanCommunity(q.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	return c, nil
}

// List retrieves a page of communities ordered by name
func (r *CommunityRepository) List(ctx context.Context, q DBTX, offset, limit int) ([]*models.Community, error) {
	sql, args, err := squirrel.Select(communityColumns).
		From("communities").
		OrderBy("name ASC").
		Offset(uint64(offset)).
		Limit(uint64(limit)).
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

	var communities []*models.Community
	for rows.Next() {
		c, err := scanCommunity(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		communities = append(communities, c)
	}
	return communities, rows.Err()
}

// Count returns the number of communities
func (r *CommunityRepository) Count(ctx context.Context, q DBTX) (int64, error) {
	sql, args, err := squirrel.Select("COUNT(*)").
		From("communities").
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

// Update persists mutable community fields
func (r *CommunityRepository) Update(ctx context.Context, q DBTX, c *models.Community) error {
	sql, args, err := squirrel.Update("communities").
		Set("name", c.Name).
		Set("area", c.Area).
		Set("type", c.Type).
		Set("status", c.Status).
		Set("share_name", c.ShareName).
		Set("license_expiry", c.LicenseExpiry).
		Set("contact_id", c.ContactID).
		Set("redcap_server_id", c.RedcapServerID).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where("id = ?", c.ID).
		Suffix("RETURNING updated_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	return q.QueryRow(ctx, sql, args...).Scan(&c.UpdatedAt)
}

// Delete removes a community; project and membership rows cascade
func (r *CommunityRepository) Delete(ctx context.Context, q DBTX, id uuid.UUID) error {
	sql, args, err := squirrel.Delete("communities").
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
