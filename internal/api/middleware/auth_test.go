package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/streamhub/account-service/internal/core/domain"
	"github.com/streamhub/account-service/internal/core/token"
)

type stubFinder struct {
	users map[string]*domain.User
	err   error
}

func (f *stubFinder) FindByID(_ context.Context, id string) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

var alice = &domain.User{ID: "u1", Username: "alice", Email: "alice@x.com", FullName: "Alice"}

func guardFixture(t *testing.T) (*token.Codec, *stubFinder, string) {
	t.Helper()
	codec := token.NewCodec("access-secret", time.Minute)
	signed, err := codec.Issue(alice.Identity())
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return codec, &stubFinder{users: map[string]*domain.User{alice.ID: alice}}, signed
}

func runGuard(t *testing.T, mw echo.MiddlewareFunc, req *http.Request) (*httptest.ResponseRecorder, *domain.User, bool) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen *domain.User
	called := false
	handler := mw(func(c echo.Context) error {
		called = true
		seen, _ = CurrentUser(c)
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, seen, called
}

func TestAccessGuard_BearerHeader(t *testing.T) {
	codec, finder, signed := guardFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)

	rec, user, called := runGuard(t, AccessGuard(codec, finder), req)
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected pass-through, got %d", rec.Code)
	}
	if user == nil || user.Username != "alice" {
		t.Fatalf("current user not set: %+v", user)
	}
}

func TestAccessGuard_CookieWinsOverHeader(t *testing.T) {
	codec, finder, signed := guardFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: signed})
	req.Header.Set("Authorization", "Bearer garbage")

	rec, _, called := runGuard(t, AccessGuard(codec, finder), req)
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("cookie token must be accepted, got %d", rec.Code)
	}
}

func TestAccessGuard_Rejections(t *testing.T) {
	codec, finder, signed := guardFixture(t)
	refresh, err := token.NewCodec("refresh-secret", time.Minute).Issue(alice.Identity())
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}
	ghost, err := codec.Issue(domain.Identity{UserID: "ghost"})
	if err != nil {
		t.Fatalf("issue ghost: %v", err)
	}

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"wrong scheme", "Token " + signed},
		{"malformed", "Bearer not-a-token"},
		{"refresh token", "Bearer " + refresh},
		{"deleted user", "Bearer " + ghost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec, _, called := runGuard(t, AccessGuard(codec, finder), req)
			if called {
				t.Fatalf("should not reach next")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestAccessGuard_StoreFailure(t *testing.T) {
	codec, finder, signed := guardFixture(t)
	finder.err = errors.New("mongo down")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)

	rec, _, called := runGuard(t, AccessGuard(codec, finder), req)
	if called {
		t.Fatalf("should not reach next")
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
