package ports

import (
	"context"

	"github.com/streamhub/account-service/internal/core/domain"
)

// ProfileRepository runs the channel and watch-history aggregations.
type ProfileRepository interface {
	// ChannelProfile returns domain.ErrNotFound when no user has username.
	ChannelProfile(ctx context.Context, username, viewerID string) (*domain.ChannelProfile, error)
	// WatchHistory returns entries in the order they are stored on the user.
	WatchHistory(ctx context.Context, userID string) ([]domain.WatchHistoryEntry, error)
}

// ProfileCache is an optional short-lived cache for channel profiles.
type ProfileCache interface {
	Get(ctx context.Context, username, viewerID string) (*domain.ChannelProfile, bool, error)
	Set(ctx context.Context, username, viewerID string, profile *domain.ChannelProfile) error
}
