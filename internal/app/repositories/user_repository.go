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

const userColumns = "id, email, password, first_name, last_name, is_superadmin, is_verified, last_login_at, created_at, updated_at"

// UserRepository handles database operations for users
type UserRepository struct{}

// NewUserRepository creates a new UserRepository
func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Password,
		&user.FirstName,
		&user.LastName,
		&user.IsSuperadmin,
		&user.IsVerified,
		&user.LastLoginAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, q DBTX, user *models.User) error {
	query := squirrel.Insert("users").
		Columns("id", "email", "password", "first_name", "last_name", "is_superadmin", "is_verified").
		Values(user.ID, user.Email, user.Password, user.FirstName, user.LastName, user.IsSuperadmin, user.IsVerified).
		Suffix("RETURNING created_at, updated_at").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	return q.QueryRow(ctx, sql, args...).Scan(&user.CreatedAt, &user.UpdatedAt)
}

// FindByID retrieves a user by id
func (r *UserRepository) FindByID(ctx context.Context, q DBTX, id uuid.UUID) (*models.User, error) {
	sql, args, err := squirrel.Select(userColumns).
		From("users").
		Where("id = ?", id).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	user, err := scanUser(q.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	return user, nil
}

// FindByEmail retrieves a user by email
func (r *UserRepository) FindByEmail(ctx context.Context, q DBTX, email string) (*models.User, error) {
	sql, args, err := squirrel.Select(userColumns).
		From("users").
		Where("email = ?", email).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	user, err := scanUser(q.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	return user, nil
}

// SetVerified marks a user's email as verified
func (r *UserRepository) SetVerified(ctx context.Context, q DBTX, id uuid.UUID) error {
	sql, args, err := squirrel.Update("users").
		Set("is_verified", true).
		Set("updated_at", time.Now()).
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

// TouchLastLogin records the time of a successful login
func (r *UserRepository) TouchLastLogin(ctx context.Context, q DBTX, id uuid.UUID) error {
	sql, args, err := squirrel.Update("users").
		Set("last_login_at", time.Now()).
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
