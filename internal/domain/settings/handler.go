package settings

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/healthhive/api/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/settings", h.GetSettings)
	api.PUT("/settings/notifications", h.SetNotifications)
}

func (h *Handler) GetSettings(c echo.Context) error {
	current, err := h.svc.Get(c.Request().Context(), auth.UserID(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, current)
}

type setNotificationsRequest struct {
	Enabled bool `json:"enabled"`
}

func (h *Handler) SetNotifications(c echo.Context) error {
	var req setNotificationsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	updated, err := h.svc.SetNotificationsEnabled(c.Request().Context(), auth.UserID(c), req.Enabled)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, updated)
}
