package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/streamhub/account-service/internal/core/ports"
)

// ProfileHandler serves the read-only channel and history routes.
type ProfileHandler struct {
	profiles ports.ProfileService
}

func NewProfileHandler(profiles ports.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Channel returns the public channel profile of :username as seen by the caller.
//
// @Summary      Channel profile
// @Tags         profiles
// @Produce      json
// @Security     BearerAuth
// @Param        username  path      string  true  "Channel username"
// @Success      200       {object}  Response{data=domain.ChannelProfile}
// @Failure      401       {object}  api.ErrorResponse
// @Failure      404       {object}  api.ErrorResponse
// @Router       /api/v1/users/c/{username} [get]
func (h *ProfileHandler) Channel(c echo.Context) error {
	viewer, err := ctxUser(c)
	if err != nil {
		return err
	}

	profile, err := h.profiles.GetChannelProfile(c.Request().Context(), c.Param("username"), viewer.ID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, profile, "User channel fetched successfully")
}

// History returns the caller's watch history, oldest entry first.
//
// @Summary      Watch history
// @Tags         profiles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  Response{data=[]domain.WatchHistoryEntry}
// @Failure      401  {object}  api.ErrorResponse
// @Router       /api/v1/users/history [get]
func (h *ProfileHandler) History(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}

	entries, err := h.profiles.GetWatchHistory(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, entries, "Watch history fetched successfully")
}
