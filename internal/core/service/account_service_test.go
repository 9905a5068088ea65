package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/streamhub/account-service/internal/core/domain"
	"github.com/streamhub/account-service/internal/core/ports"
)

func seedUser(t *testing.T, repo *stubUserRepo, username, email string) *domain.User {
	t.Helper()
	u, err := repo.Create(context.Background(), &domain.User{
		Username:     username,
		Email:        email,
		FullName:     "Seed " + username,
		Avatar:       "https://media.test/avatars/old.png",
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func TestAccountService_UpdateAccountDetails(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewAccountService(repo, newStubMediaHost(), zerolog.Nop())
	alice := seedUser(t, repo, "alice", "alice@x.com")
	seedUser(t, repo, "bob", "bob@x.com")

	updated, err := svc.UpdateAccountDetails(context.Background(), alice.ID, "  Alice L ", "ALICE@new.com")
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.FullName != "Alice L" || updated.Email != "alice@new.com" {
		t.Fatalf("unexpected update result: %+v", updated)
	}
	if updated.PasswordHash != "" {
		t.Fatalf("password hash leaked")
	}

	if _, err := svc.UpdateAccountDetails(context.Background(), alice.ID, "Alice", "bob@x.com"); !errors.Is(err, domain.ErrDuplicateUser) {
		t.Fatalf("expected ErrDuplicateUser, got %v", err)
	}
	if _, err := svc.UpdateAccountDetails(context.Background(), alice.ID, "", "x"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAccountService_UpdateAvatar_ReplacesOldMedia(t *testing.T) {
	repo := newStubUserRepo()
	media := newStubMediaHost()
	svc := NewAccountService(repo, media, zerolog.Nop())
	alice := seedUser(t, repo, "alice", "alice@x.com")

	updated, err := svc.UpdateAvatar(context.Background(), alice.ID, mediaFile("new.png", "png"))
	if err != nil {
		t.Fatalf("update avatar failed: %v", err)
	}
	if updated.Avatar == alice.Avatar {
		t.Fatalf("avatar url must change")
	}
	if len(media.deleted) != 1 || media.deleted[0] != alice.Avatar {
		t.Fatalf("expected old avatar deletion, got %v", media.deleted)
	}
}

func TestAccountService_UpdateCoverImage(t *testing.T) {
	repo := newStubUserRepo()
	media := newStubMediaHost()
	svc := NewAccountService(repo, media, zerolog.Nop())
	alice := seedUser(t, repo, "alice", "alice@x.com")

	updated, err := svc.UpdateCoverImage(context.Background(), alice.ID, mediaFile("cover.png", "png"))
	if err != nil {
		t.Fatalf("update cover failed: %v", err)
	}
	if updated.CoverImage == "" {
		t.Fatalf("cover image must be set")
	}
	if len(media.deleted) != 0 {
		t.Fatalf("nothing to delete when no cover existed, got %v", media.deleted)
	}

	if _, err := svc.UpdateCoverImage(context.Background(), alice.ID, nil); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAccountService_UpdateAvatar_UploadFailure(t *testing.T) {
	repo := newStubUserRepo()
	media := newStubMediaHost()
	media.failOn = ports.MediaAvatar
	svc := NewAccountService(repo, media, zerolog.Nop())
	alice := seedUser(t, repo, "alice", "alice@x.com")

	if _, err := svc.UpdateAvatar(context.Background(), alice.ID, mediaFile("new.png", "png")); !errors.Is(err, domain.ErrUploadFailure) {
		t.Fatalf("expected ErrUploadFailure, got %v", err)
	}
	if repo.get(alice.ID).Avatar != alice.Avatar {
		t.Fatalf("avatar must be unchanged after a failed upload")
	}
}

func TestAccountService_UpdateAvatar_UnknownUser(t *testing.T) {
	media := newStubMediaHost()
	svc := NewAccountService(newStubUserRepo(), media, zerolog.Nop())

	if _, err := svc.UpdateAvatar(context.Background(), "missing", mediaFile("a.png", "png")); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if len(media.stored) != 0 {
		t.Fatalf("nothing should be uploaded for an unknown user")
	}
}
