package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/streamhub/account-service/internal/core/domain"
	"github.com/streamhub/account-service/internal/core/ports"
)

// ProfileService answers channel profile and watch history queries.
type ProfileService struct {
	repo  ports.ProfileRepository
	cache ports.ProfileCache // optional
	log   zerolog.Logger
}

// NewProfileService returns a ProfileService. cache may be nil.
func NewProfileService(repo ports.ProfileRepository, cache ports.ProfileCache, log zerolog.Logger) *ProfileService {
	return &ProfileService{repo: repo, cache: cache, log: log}
}

// GetChannelProfile returns the channel for username as seen by viewerID.
func (s *ProfileService) GetChannelProfile(ctx context.Context, username, viewerID string) (*domain.ChannelProfile, error) {
	username = domain.NormalizeLogin(username)
	if username == "" {
		return nil, domain.NewValidationError("username", "username is required")
	}

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, username, viewerID)
		if err != nil {
			s.log.Warn().Err(err).Str("username", username).Msg("profile cache read failed")
		} else if ok {
			return cached, nil
		}
	}

	profile, err := s.repo.ChannelProfile(ctx, username, viewerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("channel profile: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, username, viewerID, profile); err != nil {
			s.log.Warn().Err(err).Str("username", username).Msg("profile cache write failed")
		}
	}
	return profile, nil
}

// GetWatchHistory returns the videos userID watched, in stored order.
func (s *ProfileService) GetWatchHistory(ctx context.Context, userID string) ([]domain.WatchHistoryEntry, error) {
	entries, err := s.repo.WatchHistory(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("watch history: %w", err)
	}
	if entries == nil {
		entries = []domain.WatchHistoryEntry{}
	}
	return entries, nil
}
