package reminder

import (
	"encoding/json"
	"errors"
	"fmt"
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
	api.POST("/reminders", h.CreateReminder)
	api.GET("/reminders", h.ListActiveReminders)
	api.GET("/reminders/watch", h.WatchReminders)
	api.POST("/reminders/reschedule", h.RescheduleReminders)
	api.DELETE("/reminders/:id", h.DeleteReminder)
}

// createReminderRequest accepts either an absolute fire time in epoch
// milliseconds, or a date/time-of-day pair with an offset in minutes the way
// the booking screens submit it.
type createReminderRequest struct {
	Type          string `json:"type"`
	LinkedID      string `json:"linkedId"`
	Time          int64  `json:"time"`
	Date          string `json:"date"`
	TimeOfDay     string `json:"timeOfDay"`
	MinutesBefore int    `json:"minutesBefore"`
}

func (h *Handler) CreateReminder(c echo.Context) error {
	var req createReminderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	fireAt := req.Time
	if fireAt == 0 {
		var err error
		fireAt, err = OffsetTime(req.Date, req.TimeOfDay, req.MinutesBefore)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}

	r := &Reminder{
		Type:     req.Type,
		UserID:   auth.UserID(c),
		LinkedID: req.LinkedID,
		Time:     fireAt,
	}
	if err := h.svc.Create(c.Request().Context(), r); err != nil {
		if errors.Is(err, ErrInvalidType) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *Handler) ListActiveReminders(c echo.Context) error {
	items, err := h.svc.Active(c.Request().Context(), auth.UserID(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) DeleteReminder(c echo.Context) error {
	err := h.svc.Delete(c.Request().Context(), auth.UserID(c), c.Param("id"))
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "reminder not found")
	case errors.Is(err, ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "reminder belongs to another user")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RescheduleReminders(c echo.Context) error {
	if err := h.svc.RescheduleAll(c.Request().Context(), auth.UserID(c)); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// WatchReminders streams active-reminder snapshots as server-sent events.
// The current snapshot is sent immediately; a new event follows every change.
func (h *Handler) WatchReminders(c echo.Context) error {
	sub, err := h.svc.Watch(c.Request().Context(), auth.UserID(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	defer sub.Cancel()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case snapshot, ok := <-sub.C():
			if !ok {
				return nil
			}
			data, err := json.Marshal(snapshot)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(res, "data: %s\n\n", data); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}
