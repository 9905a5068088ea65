package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/streamhub/account-service/internal/api/metrics"
	"github.com/streamhub/account-service/internal/api/middleware"
	"github.com/streamhub/account-service/internal/core/ports"
)

// UserHandler handles account and session routes under /api/v1/users.
type UserHandler struct {
	sessions      ports.SessionService
	accounts      ports.AccountService
	secureCookies bool
}

func NewUserHandler(sessions ports.SessionService, accounts ports.AccountService, secureCookies bool) *UserHandler {
	return &UserHandler{sessions: sessions, accounts: accounts, secureCookies: secureCookies}
}

// Register creates a new account from a multipart form.
//
// @Summary      Register a new user
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Param        fullName     formData  string  true   "Full name"
// @Param        username     formData  string  true   "Username"
// @Param        email        formData  string  true   "Email"
// @Param        password     formData  string  true   "Password"
// @Param        avatar       formData  file    true   "Avatar image"
// @Param        coverImages  formData  file    false  "Cover image"
// @Success      201  {object}  Response{data=domain.User}
// @Failure      400  {object}  api.ErrorResponse
// @Failure      429  {object}  api.ErrorResponse
// @Failure      500  {object}  api.ErrorResponse
// @Router       /api/v1/users/register [post]
func (h *UserHandler) Register(c echo.Context) error {
	avatar, closeAvatar, err := formFile(c, formAvatar)
	if err != nil {
		return err
	}
	defer closeAvatar()

	cover, closeCover, err := formFile(c, formCoverImage)
	if err != nil {
		return err
	}
	defer closeCover()

	user, err := h.sessions.Register(c.Request().Context(), ports.RegisterInput{
		FullName: c.FormValue("fullName"),
		Username: c.FormValue("username"),
		Email:    c.FormValue("email"),
		Password: c.FormValue("password"),
		Avatar:   avatar,
		Cover:    cover,
	})
	metrics.RegistrationsTotal.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, user, "User registered successfully")
}

// Login authenticates with username or email and sets the session cookies.
//
// @Summary      Login
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  Response{data=sessionResponse}
// @Failure      400   {object}  api.ErrorResponse
// @Failure      401   {object}  api.ErrorResponse
// @Failure      404   {object}  api.ErrorResponse
// @Failure      429   {object}  api.ErrorResponse
// @Router       /api/v1/users/login [post]
func (h *UserHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	session, err := h.sessions.Login(c.Request().Context(), req.identifier(), req.Password)
	metrics.LoginsTotal.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		return err
	}

	setSessionCookies(c, session.AccessToken, session.RefreshToken, h.secureCookies)
	return respond(c, http.StatusOK, newSessionResponse(session), "User logged in successfully")
}

// Logout clears the stored refresh token and both cookies.
//
// @Summary      Logout
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  Response
// @Failure      401  {object}  api.ErrorResponse
// @Router       /api/v1/users/logout [post]
func (h *UserHandler) Logout(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	if err := h.sessions.Logout(c.Request().Context(), user.ID); err != nil {
		return err
	}

	clearSessionCookies(c, h.secureCookies)
	return respond(c, http.StatusOK, nil, "User logged out")
}

// RefreshToken exchanges a refresh token from the body or cookie for a new pair.
//
// @Summary      Refresh the access token
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      refreshRequest  false  "Refresh token, when not sent as a cookie"
// @Success      200   {object}  Response{data=sessionResponse}
// @Failure      400   {object}  api.ErrorResponse
// @Failure      401   {object}  api.ErrorResponse
// @Failure      429   {object}  api.ErrorResponse
// @Router       /api/v1/users/refresh-token [post]
func (h *UserHandler) RefreshToken(c echo.Context) error {
	var req refreshRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
		}
	}
	if req.RefreshToken == "" {
		if cookie, err := c.Cookie(middleware.RefreshTokenCookie); err == nil {
			req.RefreshToken = cookie.Value
		}
	}

	session, err := h.sessions.RefreshAccessToken(c.Request().Context(), req.RefreshToken)
	metrics.TokenRefreshesTotal.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		return err
	}

	setSessionCookies(c, session.AccessToken, session.RefreshToken, h.secureCookies)
	return respond(c, http.StatusOK, sessionResponse{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
	}, "Access token refreshed")
}

// ChangePassword replaces the caller's password after checking the old one.
//
// @Summary      Change password
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      changePasswordRequest  true  "Old and new password"
// @Success      200   {object}  Response
// @Failure      400   {object}  api.ErrorResponse
// @Failure      401   {object}  api.ErrorResponse
// @Router       /api/v1/users/change-password [post]
func (h *UserHandler) ChangePassword(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.sessions.ChangePassword(c.Request().Context(), user.ID, req.OldPassword, req.NewPassword); err != nil {
		return err
	}
	return respond(c, http.StatusOK, nil, "Password changed successfully")
}

// CurrentUser returns the authenticated user.
//
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  Response{data=domain.User}
// @Failure      401  {object}  api.ErrorResponse
// @Router       /api/v1/users/current-user [get]
func (h *UserHandler) CurrentUser(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, user, "User fetched successfully")
}

// UpdateAccount edits the caller's full name and email.
//
// @Summary      Update account details
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateAccountRequest  true  "New details"
// @Success      200   {object}  Response{data=domain.User}
// @Failure      400   {object}  api.ErrorResponse
// @Failure      401   {object}  api.ErrorResponse
// @Router       /api/v1/users/update-account [patch]
func (h *UserHandler) UpdateAccount(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}

	var req updateAccountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	updated, err := h.accounts.UpdateAccountDetails(c.Request().Context(), user.ID, req.FullName, req.Email)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, updated, "Account details updated successfully")
}

// UpdateAvatar replaces the caller's avatar.
//
// @Summary      Update avatar
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        avatar  formData  file  true  "Avatar image"
// @Success      200     {object}  Response{data=domain.User}
// @Failure      400     {object}  api.ErrorResponse
// @Failure      401     {object}  api.ErrorResponse
// @Router       /api/v1/users/avatar [patch]
func (h *UserHandler) UpdateAvatar(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}

	file, closeFile, err := formFile(c, formAvatar)
	if err != nil {
		return err
	}
	defer closeFile()

	updated, err := h.accounts.UpdateAvatar(c.Request().Context(), user.ID, file)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, updated, "Avatar updated successfully")
}

// UpdateCoverImage replaces the caller's cover image.
//
// @Summary      Update cover image
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        coverImages  formData  file  true  "Cover image"
// @Success      200          {object}  Response{data=domain.User}
// @Failure      400          {object}  api.ErrorResponse
// @Failure      401          {object}  api.ErrorResponse
// @Router       /api/v1/users/cover-images [patch]
func (h *UserHandler) UpdateCoverImage(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}

	file, closeFile, err := formFile(c, formCoverImage)
	if err != nil {
		return err
	}
	defer closeFile()

	updated, err := h.accounts.UpdateCoverImage(c.Request().Context(), user.ID, file)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, updated, "Cover image updated successfully")
}
