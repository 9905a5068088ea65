package ports

import (
	"context"

	"github.com/streamhub/account-service/internal/core/domain"
)

// RegisterInput carries a sign-up request. Cover is optional.
type RegisterInput struct {
	FullName string
	Username string
	Email    string
	Password string
	Avatar   *MediaFile
	Cover    *MediaFile
}

// SessionService covers credential and token lifecycle operations.
type SessionService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, identifier, password string) (*domain.Session, error)
	Logout(ctx context.Context, userID string) error
	RefreshAccessToken(ctx context.Context, refreshToken string) (*domain.Session, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
}

// AccountService covers self-service profile edits.
type AccountService interface {
	UpdateAccountDetails(ctx context.Context, userID, fullName, email string) (*domain.User, error)
	UpdateAvatar(ctx context.Context, userID string, file *MediaFile) (*domain.User, error)
	UpdateCoverImage(ctx context.Context, userID string, file *MediaFile) (*domain.User, error)
}

// ProfileService covers read-only channel and history queries.
type ProfileService interface {
	GetChannelProfile(ctx context.Context, username, viewerID string) (*domain.ChannelProfile, error)
	GetWatchHistory(ctx context.Context, userID string) ([]domain.WatchHistoryEntry, error)
}

// TokenCodec signs and verifies one class of session token.
type TokenCodec interface {
	Issue(id domain.Identity) (string, error)
	Verify(raw string) (domain.Identity, error)
}

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(hash, plain string) (bool, error)
}
