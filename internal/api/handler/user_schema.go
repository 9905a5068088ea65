package handler

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/streamhub/account-service/internal/core/domain"
	"github.com/streamhub/account-service/internal/core/ports"
)

// Multipart field names.
const (
	formAvatar     = "avatar"
	formCoverImage = "coverImages"
)

// --- Request types ---

type loginRequest struct {
	Username string `json:"username" validate:"required_without=Email"`
	Email    string `json:"email"`
	Password string `json:"password" validate:"required"`
}

// identifier prefers username when both are supplied.
func (r loginRequest) identifier() string {
	if r.Username != "" {
		return r.Username
	}
	return r.Email
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

type updateAccountRequest struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email"    validate:"required"`
}

// --- Response types ---

type sessionResponse struct {
	User         *domain.User `json:"user,omitempty"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

func newSessionResponse(s *domain.Session) sessionResponse {
	return sessionResponse{User: s.User, AccessToken: s.AccessToken, RefreshToken: s.RefreshToken}
}

// formFile opens the single upload under field. A missing file yields nil
// with a no-op closer.
func formFile(c echo.Context, field string) (*ports.MediaFile, func(), error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, func() {}, nil
		}
		return nil, func() {}, fmt.Errorf("read %s: %w", field, err)
	}
	return openFile(fh)
}

func openFile(fh *multipart.FileHeader) (*ports.MediaFile, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	return &ports.MediaFile{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	}, func() { _ = f.Close() }, nil
}
