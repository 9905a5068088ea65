package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/streamhub/account-service/internal/core/domain"
	"github.com/streamhub/account-service/internal/core/ports"
)

// AccountService implements profile edits made by the signed-in user.
type AccountService struct {
	users ports.UserRepository
	media ports.MediaHost
	log   zerolog.Logger
}

func NewAccountService(users ports.UserRepository, media ports.MediaHost, log zerolog.Logger) *AccountService {
	return &AccountService{users: users, media: media, log: log}
}

func (s *AccountService) UpdateAccountDetails(ctx context.Context, userID, fullName, email string) (*domain.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = domain.NormalizeLogin(email)
	if err := domain.ValidateAccountUpdate(fullName, email); err != nil {
		return nil, err
	}

	user, err := s.users.UpdateAccount(ctx, userID, fullName, email)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateUser) || errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update account: %w", err)
	}
	return user.Public(), nil
}

func (s *AccountService) UpdateAvatar(ctx context.Context, userID string, file *ports.MediaFile) (*domain.User, error) {
	if file == nil {
		return nil, domain.NewValidationError("avatar", "avatar file is required")
	}
	return s.replaceMedia(ctx, userID, ports.MediaAvatar, file,
		func(u *domain.User) string { return u.Avatar },
		s.users.UpdateAvatar,
	)
}

func (s *AccountService) UpdateCoverImage(ctx context.Context, userID string, file *ports.MediaFile) (*domain.User, error) {
	if file == nil {
		return nil, domain.NewValidationError("coverImages", "cover image file is required")
	}
	return s.replaceMedia(ctx, userID, ports.MediaCover, file,
		func(u *domain.User) string { return u.CoverImage },
		s.users.UpdateCoverImage,
	)
}

// replaceMedia uploads file, points the user at it and then drops the media
// it replaced. A failed store removes the new upload instead.
func (s *AccountService) replaceMedia(
	ctx context.Context,
	userID string,
	kind ports.MediaKind,
	file *ports.MediaFile,
	current func(*domain.User) string,
	store func(ctx context.Context, id, url string) (*domain.User, error),
) (*domain.User, error) {
	before, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update %s: %w", kind, err)
	}

	url, err := s.media.Upload(ctx, kind, file)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Str("media", string(kind)).Msg("media upload failed")
		return nil, fmt.Errorf("%s: %w", kind, domain.ErrUploadFailure)
	}

	after, err := store(ctx, userID, url)
	if err != nil {
		discardMedia(ctx, s.media, s.log, []string{url})
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update %s: %w", kind, err)
	}

	if old := current(before); old != "" && old != url {
		discardMedia(ctx, s.media, s.log, []string{old})
	}
	return after.Public(), nil
}
