package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/streamhub/account-service/internal/core/domain"
	"github.com/streamhub/account-service/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory user repository
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu      sync.Mutex
	users   map[string]*domain.User
	nextID  int
	findErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.WatchHistory = append([]string(nil), u.WatchHistory...)
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return nil, domain.ErrDuplicateUser
		}
	}
	r.nextID++
	stored := cloneUser(user)
	stored.ID = fmt.Sprintf("%024x", r.nextID)
	r.users[stored.ID] = stored
	return cloneUser(stored), nil
}

func (r *stubUserRepo) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubUserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	u, err := r.FindByIDWithSecrets(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.Public(), nil
}

func (r *stubUserRepo) FindByIDWithSecrets(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByLogin(_ context.Context, identifier string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.users {
		if u.Username == identifier || u.Email == identifier {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) SetRefreshToken(_ context.Context, id, token string) error {
	return r.mutate(id, func(u *domain.User) { u.RefreshToken = token })
}

// RotateRefreshToken mirrors the conditional update of the Mongo repository.
func (r *stubUserRepo) RotateRefreshToken(_ context.Context, id, presented, next string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.RefreshToken == "" || u.RefreshToken != presented {
		return domain.ErrInvalidToken
	}
	u.RefreshToken = next
	return nil
}

func (r *stubUserRepo) ClearRefreshToken(_ context.Context, id string) error {
	return r.mutate(id, func(u *domain.User) { u.RefreshToken = "" })
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, id, hash string, revoke bool) error {
	return r.mutate(id, func(u *domain.User) {
		u.PasswordHash = hash
		if revoke {
			u.RefreshToken = ""
		}
	})
}

func (r *stubUserRepo) UpdateAccount(_ context.Context, id, fullName, email string) (*domain.User, error) {
	r.mu.Lock()
	for otherID, u := range r.users {
		if otherID != id && u.Email == email {
			r.mu.Unlock()
			return nil, domain.ErrDuplicateUser
		}
	}
	r.mu.Unlock()
	return r.mutateAndGet(id, func(u *domain.User) {
		u.FullName = fullName
		u.Email = email
	})
}

func (r *stubUserRepo) UpdateAvatar(_ context.Context, id, url string) (*domain.User, error) {
	return r.mutateAndGet(id, func(u *domain.User) { u.Avatar = url })
}

func (r *stubUserRepo) UpdateCoverImage(_ context.Context, id, url string) (*domain.User, error) {
	return r.mutateAndGet(id, func(u *domain.User) { u.CoverImage = url })
}

func (r *stubUserRepo) mutate(id string, fn func(*domain.User)) error {
	_, err := r.mutateAndGet(id, fn)
	return err
}

func (r *stubUserRepo) mutateAndGet(id string, fn func(*domain.User)) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	fn(u)
	return cloneUser(u), nil
}

func (r *stubUserRepo) get(id string) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneUser(r.users[id])
}

func (r *stubUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

// ---------------------------------------------------------------------------
// Media host
// ---------------------------------------------------------------------------

type stubMediaHost struct {
	failOn  ports.MediaKind // upload of this kind fails
	seq     int
	stored  map[string]string
	deleted []string
}

func newStubMediaHost() *stubMediaHost {
	return &stubMediaHost{stored: make(map[string]string)}
}

func (m *stubMediaHost) Upload(_ context.Context, kind ports.MediaKind, file *ports.MediaFile) (string, error) {
	if kind == m.failOn {
		return "", errors.New("media host unavailable")
	}
	body, err := io.ReadAll(file.Body)
	if err != nil {
		return "", err
	}
	m.seq++
	url := fmt.Sprintf("https://media.test/%s/%d-%s", kind, m.seq, file.Filename)
	m.stored[url] = string(body)
	return url, nil
}

func (m *stubMediaHost) Delete(_ context.Context, url string) error {
	delete(m.stored, url)
	m.deleted = append(m.deleted, url)
	return nil
}

func mediaFile(name, content string) *ports.MediaFile {
	return &ports.MediaFile{
		Filename:    name,
		ContentType: "image/png",
		Size:        int64(len(content)),
		Body:        strings.NewReader(content),
	}
}
