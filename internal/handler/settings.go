package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-operations/internal/model"
)

// SettingsAdmin is the surface of service.Settings used over HTTP.
type SettingsAdmin interface {
	Get(ctx context.Context, key string) (*model.Setting, error)
	List(ctx context.Context, category string) ([]model.Setting, error)
	Put(ctx context.Context, actor model.Actor, st *model.Setting) error
	Delete(ctx context.Context, key string) error
}

type SettingsHandler struct {
	Settings SettingsAdmin
	Timeout  time.Duration
}

func NewSettingsHandler(s SettingsAdmin, timeout time.Duration) *SettingsHandler {
	return &SettingsHandler{Settings: s, Timeout: timeout}
}

type putSettingReq struct {
	Category    string `json:"category" validate:"max=50"`
	Value       string `json:"value"`
	DataType    string `json:"dataType"`
	Description string `json:"description" validate:"max=500"`
	IsActive    *bool  `json:"isActive"`
}

// List: GET /v1/settings?category
func (h *SettingsHandler) List(c echo.Context) error {
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	items, err := h.Settings.List(ctx, c.QueryParam("category"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

// Get: GET /v1/settings/:key
func (h *SettingsHandler) Get(c echo.Context) error {
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	st, err := h.Settings.Get(ctx, c.Param("key"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

// Put: PUT /v1/settings/:key. Creates or replaces the setting.
func (h *SettingsHandler) Put(c echo.Context) error {
	var req putSettingReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	st := &model.Setting{
		Key:         c.Param("key"),
		Category:    req.Category,
		Value:       req.Value,
		DataType:    model.SettingType(req.DataType),
		Description: req.Description,
		IsActive:    true,
	}
	if req.IsActive != nil {
		st.IsActive = *req.IsActive
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	if err := h.Settings.Put(ctx, actor(c), st); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

// Delete: DELETE /v1/settings/:key
func (h *SettingsHandler) Delete(c echo.Context) error {
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	if err := h.Settings.Delete(ctx, c.Param("key")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
