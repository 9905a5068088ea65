package ports

import (
	"context"

	"github.com/streamhub/account-service/internal/core/domain"
)

// UserRepository defines persistence of user accounts and their session state.
//
// Lookups that return credentials (FindByLogin, FindByIDWithSecrets) are only
// used by the session flows; everything else returns the public projection.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)

	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByIDWithSecrets(ctx context.Context, id string) (*domain.User, error)
	// FindByLogin matches identifier against username or email.
	FindByLogin(ctx context.Context, identifier string) (*domain.User, error)

	SetRefreshToken(ctx context.Context, id, token string) error
	// RotateRefreshToken replaces presented with next only while presented is
	// still the stored token; otherwise it returns domain.ErrInvalidToken.
	RotateRefreshToken(ctx context.Context, id, presented, next string) error
	ClearRefreshToken(ctx context.Context, id string) error

	// UpdatePassword stores a new hash, optionally unsetting the refresh token
	// in the same write.
	UpdatePassword(ctx context.Context, id, passwordHash string, revokeSessions bool) error
	UpdateAccount(ctx context.Context, id, fullName, email string) (*domain.User, error)
	UpdateAvatar(ctx context.Context, id, url string) (*domain.User, error)
	UpdateCoverImage(ctx context.Context, id, url string) (*domain.User, error)
}

// UserFinder is the read-only slice of UserRepository used by the access guard.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}
