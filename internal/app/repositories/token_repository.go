package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// RefreshToken is a persisted opaque refresh token
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// VerificationToken is a persisted email-verification token
type VerificationToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Token     string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// TokenRepository handles refresh and email-verification tokens
type TokenRepository struct{}

// NewTokenRepository creates a new TokenRepository
func NewTokenRepository() *TokenRepository {
	return &TokenRepository{}
}

// CreateRefreshToken inserts a refresh token
func (r *TokenRepository) CreateRefreshToken(ctx context.Context, q DBTX, t *RefreshToken) error {
	sql, args, err := squirrel.Insert("refresh_tokens").
		Columns("id", "user_id", "token", "expires_at").
		Values(t.ID, t.UserID, t.Token, t.ExpiresAt).
		Suffix("RETURNING created_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	return q.QueryRow(ctx, sql, args...).Scan(&t.CreatedAt)
}

// FindRefreshToken retrieves a refresh token by its opaque value
func (r *TokenRepository) FindRefreshToken(ctx context.Context, q DBTX, token string) (*RefreshToken, error) {
	sql, args, err := squirrel.Select("id", "user_id", "token", "expires_at", "created_at").
		From("refresh_tokens").
		Where("token = ?", token).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	var t RefreshToken
	err = q.QueryRow(ctx, sql, args...).Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	return &t, nil
}

// DeleteRefreshToken removes a refresh token (rotation or logout)
func (r *TokenRepository) DeleteRefreshToken(ctx context.Context, q DBTX, token string) error {
	sql, args, err := squirrel.Delete("refresh_tokens").
		Where("token = ?", token).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	_, err = q.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}
	return nil
}

// CreateVerificationToken inserts an email-verification token
func (r *TokenRepository) CreateVerificationToken(ctx context.Context, q DBTX, t *VerificationToken) error {
	sql, args, err := squirrel.Insert("verification_tokens").
		Columns("id", "user_id", "token", "expires_at").
		Values(t.ID, t.UserID, t.Token, t.ExpiresAt).
		Suffix("RETURNING created_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	return q.QueryRow(ctx, sql, args...).Scan(&t.CreatedAt)
}

// FindVerificationToken retrieves an unused, unexpired verification token
func (r *TokenRepository) FindVerificationToken(ctx context.Context, q DBTX, token string) (*VerificationToken, error) {
	sql, args, err := squirrel.Select("id", "user_id", "token", "expires_at", "used_at", "created_at").
		From("verification_tokens").
		Where("token = ?", token).
		Where("used_at IS NULL").
		Where("expires_at > ?", time.Now()).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	var t VerificationToken
	err = q.QueryRow(ctx, sql, args...).Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.UsedAt, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	return &t, nil
}

// MarkVerificationTokenUsed consumes a verification token
func (r *TokenRepository) MarkVerificationTokenUsed(ctx context.Context, q DBTX, id uuid.UUID) error {
	sql, args, err := squirrel.Update("verification_tokens").
		Set("used_at", time.Now()).
		Where("id = ?", id).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	_, err = q.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}
	return nil
}
