package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the querying surface shared by *pgxpool.Pool and pgx.Tx. Every
// repository method takes one explicitly so a request's transaction is threaded
// through the whole mutation chain rather than held in ambient state.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repositories bundles every repository for dependency injection
type Repositories struct {
	Users         *UserRepository
	Tokens        *TokenRepository
	Communities   *CommunityRepository
	Projects      *ProjectRepository
	Admins        *CommunityAdminRepository
	Memberships   *ProjectMembershipRepository
	Invitations   *InvitationRepository
	RedcapServers *RedcapServerRepository
}

// NewRepositories creates the repository container
func NewRepositories() *Repositories {
	return &Repositories{
		Users:         NewUserRepository(),
		Tokens:        NewTokenRepository(),
		Communities:   NewCommunityRepository(),
		Projects:      NewProjectRepository(),
		Admins:        NewCommunityAdminRepository(),
		Memberships:   NewProjectMembershipRepository(),
		Invitations:   NewInvitationRepository(),
		RedcapServers: NewRedcapServerRepository(),
	}
}
