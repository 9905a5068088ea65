package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/streamhub/account-service/internal/core/domain"
	"github.com/streamhub/account-service/internal/core/ports"
)

// SessionOptions tunes session lifecycle policy.
type SessionOptions struct {
	RevokeSessionsOnPasswordChange bool
}

// SessionService implements registration, login, logout, token refresh and
// password change.
type SessionService struct {
	users   ports.UserRepository
	media   ports.MediaHost
	hasher  ports.PasswordHasher
	access  ports.TokenCodec
	refresh ports.TokenCodec
	opts    SessionOptions
	log     zerolog.Logger
}

func NewSessionService(
	users ports.UserRepository,
	media ports.MediaHost,
	hasher ports.PasswordHasher,
	access ports.TokenCodec,
	refresh ports.TokenCodec,
	opts SessionOptions,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		users:   users,
		media:   media,
		hasher:  hasher,
		access:  access,
		refresh: refresh,
		opts:    opts,
		log:     log,
	}
}

// Register validates the sign-up input, uploads media and stores the user.
// Nothing is persisted when any upload fails.
func (s *SessionService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	reg := domain.Registration{
		FullName:  in.FullName,
		Username:  in.Username,
		Email:     in.Email,
		Password:  in.Password,
		HasAvatar: in.Avatar != nil,
	}
	reg.Normalize()
	if err := domain.ValidateRegistration(reg); err != nil {
		return nil, err
	}

	exists, err := s.users.ExistsByUsernameOrEmail(ctx, reg.Username, reg.Email)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if exists {
		return nil, domain.ErrDuplicateUser
	}

	hash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return nil, err
	}

	var uploaded []string
	avatarURL, err := s.media.Upload(ctx, ports.MediaAvatar, in.Avatar)
	if err != nil {
		return nil, s.uploadFailed(ctx, "avatar", err, uploaded)
	}
	uploaded = append(uploaded, avatarURL)

	var coverURL string
	if in.Cover != nil {
		coverURL, err = s.media.Upload(ctx, ports.MediaCover, in.Cover)
		if err != nil {
			return nil, s.uploadFailed(ctx, "cover image", err, uploaded)
		}
		uploaded = append(uploaded, coverURL)
	}

	now := time.Now().UTC()
	created, err := s.users.Create(ctx, &domain.User{
		Username:     reg.Username,
		Email:        reg.Email,
		FullName:     reg.FullName,
		Avatar:       avatarURL,
		CoverImage:   coverURL,
		PasswordHash: hash,
		WatchHistory: []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		discardMedia(ctx, s.media, s.log, uploaded)
		if errors.Is(err, domain.ErrDuplicateUser) {
			return nil, err
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	s.log.Info().Str("user_id", created.ID).Str("username", created.Username).Msg("user registered")
	return created.Public(), nil
}

// Login checks the password of the user matching identifier (username or
// email) and opens a new session, replacing any stored refresh token.
func (s *SessionService) Login(ctx context.Context, identifier, password string) (*domain.Session, error) {
	identifier = domain.NormalizeLogin(identifier)
	if identifier == "" {
		return nil, domain.NewValidationError("username", "username or email is required")
	}
	if password == "" {
		return nil, domain.NewValidationError("password", "password is required")
	}

	user, err := s.users.FindByLogin(ctx, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if err := s.checkPassword(user, password); err != nil {
		s.log.Info().Str("user_id", user.ID).Msg("login rejected: bad password")
		return nil, err
	}

	session, err := s.issue(user)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if err := s.users.SetRefreshToken(ctx, user.ID, session.RefreshToken); err != nil {
		return nil, fmt.Errorf("login: store refresh token: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("user logged in")
	return session, nil
}

// Logout clears the stored refresh token. Repeated calls are harmless.
func (s *SessionService) Logout(ctx context.Context, userID string) error {
	if err := s.users.ClearRefreshToken(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("logout: %w", err)
	}
	s.log.Info().Str("user_id", userID).Msg("user logged out")
	return nil
}

// RefreshAccessToken exchanges the current refresh token for a new pair.
// The presented token is replaced atomically, so it can be used only once.
func (s *SessionService) RefreshAccessToken(ctx context.Context, refreshToken string) (*domain.Session, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, domain.NewValidationError("refreshToken", "refresh token is required")
	}

	id, err := s.refresh.Verify(refreshToken)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	user, err := s.users.FindByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}

	session, err := s.issue(user)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	if err := s.users.RotateRefreshToken(ctx, user.ID, refreshToken, session.RefreshToken); err != nil {
		if errors.Is(err, domain.ErrInvalidToken) {
			s.log.Warn().Str("user_id", user.ID).Msg("refresh rejected: token already rotated or revoked")
			return nil, err
		}
		return nil, fmt.Errorf("refresh: rotate: %w", err)
	}

	s.log.Debug().Str("user_id", user.ID).Msg("refresh token rotated")
	return session, nil
}

// ChangePassword replaces the password hash after checking oldPassword.
func (s *SessionService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if err := domain.ValidatePasswordChange(oldPassword, newPassword); err != nil {
		return err
	}

	user, err := s.users.FindByIDWithSecrets(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("change password: %w", err)
	}

	if err := s.checkPassword(user, oldPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash, s.opts.RevokeSessionsOnPasswordChange); err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	s.log.Info().
		Str("user_id", userID).
		Bool("sessions_revoked", s.opts.RevokeSessionsOnPasswordChange).
		Msg("password changed")
	return nil
}

func (s *SessionService) checkPassword(user *domain.User, plain string) error {
	ok, err := s.hasher.Compare(user.PasswordHash, plain)
	if err != nil {
		return fmt.Errorf("compare password: %w", err)
	}
	if !ok {
		return domain.ErrInvalidCredentials
	}
	return nil
}

func (s *SessionService) issue(user *domain.User) (*domain.Session, error) {
	access, err := s.access.Issue(user.Identity())
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.refresh.Issue(user.Identity())
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	return &domain.Session{AccessToken: access, RefreshToken: refresh, User: user.Public()}, nil
}

func (s *SessionService) uploadFailed(ctx context.Context, what string, cause error, uploaded []string) error {
	s.log.Error().Err(cause).Str("media", what).Msg("media upload failed")
	discardMedia(ctx, s.media, s.log, uploaded)
	return fmt.Errorf("%s: %w", what, domain.ErrUploadFailure)
}

// discardMedia deletes objects uploaded by a request that did not complete.
// It runs even when ctx is already cancelled.
func discardMedia(ctx context.Context, media ports.MediaHost, log zerolog.Logger, urls []string) {
	ctx = context.WithoutCancel(ctx)
	for _, url := range urls {
		if err := media.Delete(ctx, url); err != nil {
			log.Warn().Err(err).Str("url", url).Msg("failed to delete orphaned media")
		}
	}
}
