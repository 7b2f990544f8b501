package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-operations/internal/model"
)

// RepairDesk is the surface of service.Maintenance used over HTTP.
type RepairDesk interface {
	Create(ctx context.Context, actor model.Actor, m *model.MaintenanceRequest) error
	Get(ctx context.Context, id uint64) (*model.MaintenanceRequest, error)
	List(ctx context.Context, f model.MaintenanceFilter) ([]model.MaintenanceRequest, error)
	Update(ctx context.Context, id uint64, p model.MaintenancePatch) (*model.MaintenanceRequest, error)
	Assign(ctx context.Context, id, staffID uint64) (*model.MaintenanceRequest, error)
	Complete(ctx context.Context, id uint64, actualCostCents int64, notes string) (*model.MaintenanceRequest, error)
	Delete(ctx context.Context, id uint64) error
}

type MaintenanceHandler struct {
	Desk    RepairDesk
	Timeout time.Duration
}

func NewMaintenanceHandler(d RepairDesk, timeout time.Duration) *MaintenanceHandler {
	return &MaintenanceHandler{Desk: d, Timeout: timeout}
}

type createMaintenanceReq struct {
	Room          uint64  `json:"room" validate:"required"`
	Type          string  `json:"type"`
	Description   string  `json:"description" validate:"required,max=2000"`
	Priority      string  `json:"priority"`
	AssignedTo    *uint64 `json:"assignedTo"`
	EstimatedCost float64 `json:"estimatedCost" validate:"gte=0"`
	ScheduledDate string  `json:"scheduledDate"`
	Notes         string  `json:"notes" validate:"max=1000"`
}

type updateMaintenanceReq struct {
	Type          *string  `json:"type"`
	Description   *string  `json:"description" validate:"omitempty,max=2000"`
	Priority      *string  `json:"priority"`
	Status        *string  `json:"status"`
	EstimatedCost *float64 `json:"estimatedCost" validate:"omitempty,gte=0"`
	ScheduledDate *string  `json:"scheduledDate"`
	Notes         *string  `json:"notes" validate:"omitempty,max=1000"`
}

type assignMaintenanceReq struct {
	AssignedTo uint64 `json:"assignedTo" validate:"required"`
}

type completeMaintenanceReq struct {
	ActualCost float64 `json:"actualCost" validate:"gte=0"`
	Notes      string  `json:"notes" validate:"max=1000"`
}

// Create: POST /v1/maintenance. Any signed-in user may report a problem.
func (h *MaintenanceHandler) Create(c echo.Context) error {
	var req createMaintenanceReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	m := &model.MaintenanceRequest{
		RoomID:             req.Room,
		Type:               model.MaintenanceType(req.Type),
		Description:        req.Description,
		Priority:           model.Priority(req.Priority),
		AssignedTo:         req.AssignedTo,
		EstimatedCostCents: toCents(req.EstimatedCost),
		Notes:              req.Notes,
	}
	if req.ScheduledDate != "" {
		t, err := parseDate(req.ScheduledDate)
		if err != nil {
			return fail(c, err)
		}
		m.ScheduledDate = &t
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	if err := h.Desk.Create(ctx, actor(c), m); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

// List: GET /v1/maintenance?status&priority&room&assignedTo
func (h *MaintenanceHandler) List(c echo.Context) error {
	f := model.MaintenanceFilter{
		Status:     model.MaintenanceStatus(c.QueryParam("status")),
		Priority:   model.Priority(c.QueryParam("priority")),
		RoomID:     queryUint(c, "room"),
		AssignedTo: queryUint(c, "assignedTo"),
	}
	if f.Priority != "" && !f.Priority.Valid() {
		return badRequest(c, "unknown priority")
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	items, err := h.Desk.List(ctx, f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

// Get: GET /v1/maintenance/:id
func (h *MaintenanceHandler) Get(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	m, err := h.Desk.Get(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

// Complete: PATCH /v1/maintenance/:id/complete
func (h *MaintenanceHandler) Complete(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req completeMaintenanceReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	m, err := h.Desk.Complete(ctx, id, toCents(req.ActualCost), req.Notes)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

// Update: PUT /v1/maintenance/:id. Omitted fields are left unchanged.
func (h *MaintenanceHandler) Update(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req updateMaintenanceReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	p := model.MaintenancePatch{Description: req.Description, Notes: req.Notes}
	if req.Type != nil {
		t := model.MaintenanceType(*req.Type)
		p.Type = &t
	}
	if req.Priority != nil {
		pr := model.Priority(*req.Priority)
		p.Priority = &pr
	}
	if req.Status != nil {
		st := model.MaintenanceStatus(*req.Status)
		p.Status = &st
	}
	if req.EstimatedCost != nil {
		cents := toCents(*req.EstimatedCost)
		p.EstimatedCostCents = &cents
	}
	if req.ScheduledDate != nil {
		t, err := parseDate(*req.ScheduledDate)
		if err != nil {
			return fail(c, err)
		}
		p.ScheduledDate = &t
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	m, err := h.Desk.Update(ctx, id, p)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

// Assign: PATCH /v1/maintenance/:id/assign
func (h *MaintenanceHandler) Assign(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req assignMaintenanceReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	m, err := h.Desk.Assign(ctx, id, req.AssignedTo)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

// Delete: DELETE /v1/maintenance/:id
func (h *MaintenanceHandler) Delete(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	if err := h.Desk.Delete(ctx, id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
