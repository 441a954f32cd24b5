package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/cedarwell/wellspring/internal/app/models"
	"github.com/cedarwell/wellspring/internal/app/models/dto"
	"github.com/cedarwell/wellspring/internal/app/repositories"
	"github.com/cedarwell/wellspring/internal/db"
	"github.com/cedarwell/wellspring/internal/pkg/apperrors"
	"github.com/cedarwell/wellspring/internal/pkg/auth"
	"github.com/cedarwell/wellspring/internal/pkg/dberrors"
	"github.com/cedarwell/wellspring/internal/pkg/email"
)

const verificationTokenTTL = 48 * time.Hour

// AuthService handles registration, login, token refresh and email
// verification
type AuthService struct {
	pool   *pgxpool.Pool
	users  *repositories.UserRepository
	tokens *repositories.TokenRepository
	jwt    *auth.JWTService
	email  email.EmailService
	logger zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	pool *pgxpool.Pool,
	repos *repositories.Repositories,
	jwtService *auth.JWTService,
	emailService email.EmailService,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		pool:   pool,
		users:  repos.Users,
		tokens: repos.Tokens,
		jwt:    jwtService,
		email:  emailService,
		logger: logger,
	}
}

// Register creates an unverified account and emails a verification link
func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest) (*models.User, error) {
	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:        uuid.New(),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Password:  hashed,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
	verification := &repositories.VerificationToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(verificationTokenTTL),
	}

	err = db.WithTransaction(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		if err := s.users.Create(ctx, tx, user); err != nil {
			if dberrors.IsUniqueViolation(err) {
				return apperrors.ErrEmailAlreadyExists
			}
			return err
		}
		return s.tokens.CreateVerificationToken(ctx, tx, verification)
	})
	if err != nil {
		return nil, err
	}

	name := user.FirstName + " " + user.LastName
	if err := s.email.SendVerificationEmail(user.Email, name, verification.Token); err != nil {
		s.logger.Warn().Err(err).Str("email", user.Email).Msg("Failed to send verification email")
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("User registered")
	return user, nil
}

// Login verifies credentials and issues a token pair
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*models.User, *dto.TokenResponse, error) {
	user, err := s.users.FindByEmail(ctx, s.pool, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return nil, nil, err
	}
	if user == nil || !auth.CheckPassword(user.Password, req.Password) {
		return nil, nil, apperrors.ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	if err := s.users.TouchLastLogin(ctx, s.pool, user.ID); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID.String()).Msg("Failed to record login time")
	}

	return user, tokens, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*dto.TokenResponse, error) {
	accessToken, refreshToken, expiresIn, refreshExpiresIn, err := s.jwt.GenerateTokenPair(user)
	if err != nil {
		return nil, err
	}

	err = s.tokens.CreateRefreshToken(ctx, s.pool, &repositories.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		Token:     refreshToken,
		ExpiresAt: s.jwt.RefreshTokenExpiry(),
	})
	if err != nil {
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		ExpiresIn:        expiresIn,
		RefreshExpiresIn: refreshExpiresIn,
		TokenType:        "Bearer",
	}, nil
}

// Refresh rotates a refresh token and issues a new pair
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	stored, err := s.tokens.FindRefreshToken(ctx, s.pool, refreshToken)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, apperrors.ErrTokenInvalid
	}
	if time.Now().After(stored.ExpiresAt) {
		return nil, apperrors.ErrTokenExpired
	}

	user, err := s.users.FindByID(ctx, s.pool, stored.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ErrTokenInvalid
	}

	var tokens *dto.TokenResponse
	err = db.WithTransaction(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		if err := s.tokens.DeleteRefreshToken(ctx, tx, refreshToken); err != nil {
			return err
		}

		accessToken, newRefresh, expiresIn, refreshExpiresIn, err := s.jwt.GenerateTokenPair(user)
		if err != nil {
			return err
		}
		err = s.tokens.CreateRefreshToken(ctx, tx, &repositories.RefreshToken{
			ID:        uuid.New(),
			UserID:    user.ID,
			Token:     newRefresh,
			ExpiresAt: s.jwt.RefreshTokenExpiry(),
		})
		if err != nil {
			return err
		}

		tokens = &dto.TokenResponse{
			AccessToken:      accessToken,
			RefreshToken:     newRefresh,
			ExpiresIn:        expiresIn,
			RefreshExpiresIn: refreshExpiresIn,
			TokenType:        "Bearer",
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// VerifyEmail consumes a verification token and marks the account verified
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	return db.WithTransaction(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		stored, err := s.tokens.FindVerificationToken(ctx, tx, token)
		if err != nil {
			return err
		}
		if stored == nil {
			return apperrors.ErrTokenInvalid
		}

		if err := s.tokens.MarkVerificationTokenUsed(ctx, tx, stored.ID); err != nil {
			return err
		}
		return s.users.SetVerified(ctx, tx, stored.UserID)
	})
}

// GetUser loads a user by id
func (s *AuthService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, s.pool, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ErrUserNotFound
	}
	return user, nil
}
