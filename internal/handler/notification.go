package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-operations/internal/model"
)

// Inbox is the reader side of service.Notifications.
type Inbox interface {
	ListMine(ctx context.Context, actor model.Actor, unreadOnly bool, limit int) ([]model.Notification, error)
	MarkRead(ctx context.Context, actor model.Actor, id uint64) error
	MarkAllRead(ctx context.Context, actor model.Actor) (int64, error)
	Delete(ctx context.Context, actor model.Actor, id uint64) error
}

type NotificationHandler struct {
	Inbox   Inbox
	Timeout time.Duration
}

func NewNotificationHandler(i Inbox, timeout time.Duration) *NotificationHandler {
	return &NotificationHandler{Inbox: i, Timeout: timeout}
}

// Mine: GET /v1/notifications?unread=true&limit
func (h *NotificationHandler) Mine(c echo.Context) error {
	unread := c.QueryParam("unread") == "true"
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	items, err := h.Inbox.ListMine(ctx, actor(c), unread, queryInt(c, "limit", 50))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

// MarkRead: PATCH /v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	if err := h.Inbox.MarkRead(ctx, actor(c), id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// MarkAllRead: PATCH /v1/notifications/mark-all-read
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	n, err := h.Inbox.MarkAllRead(ctx, actor(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": n})
}

// Delete: DELETE /v1/notifications/:id
func (h *NotificationHandler) Delete(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	if err := h.Inbox.Delete(ctx, actor(c), id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
