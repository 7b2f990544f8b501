package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-operations/internal/model"
)

// TaskBoard is the surface of service.Housekeeping used over HTTP.
type TaskBoard interface {
	CreateTask(ctx context.Context, req model.CleaningTaskRequest) (*model.HousekeepingTask, error)
	Get(ctx context.Context, id uint64) (*model.HousekeepingTask, error)
	List(ctx context.Context, actor model.Actor, f model.TaskFilter) ([]model.HousekeepingTask, error)
	Assign(ctx context.Context, id, staffID uint64) (*model.HousekeepingTask, error)
	Start(ctx context.Context, actor model.Actor, id uint64) (*model.HousekeepingTask, error)
	Complete(ctx context.Context, actor model.Actor, id uint64, notes string, issues []string) (*model.HousekeepingTask, error)
}

type HousekeepingHandler struct {
	Tasks   TaskBoard
	Timeout time.Duration
}

func NewHousekeepingHandler(t TaskBoard, timeout time.Duration) *HousekeepingHandler {
	return &HousekeepingHandler{Tasks: t, Timeout: timeout}
}

type createTaskReq struct {
	Room          uint64  `json:"room" validate:"required"`
	Booking       *uint64 `json:"booking"`
	AssignedTo    *uint64 `json:"assignedTo"`
	TaskType      string  `json:"taskType"`
	Priority      string  `json:"priority"`
	ScheduledDate string  `json:"scheduledDate"`
	Notes         string  `json:"notes" validate:"max=1000"`
}

type assignTaskReq struct {
	AssignedTo uint64 `json:"assignedTo" validate:"required"`
}

type completeTaskReq struct {
	Notes       string   `json:"notes" validate:"max=1000"`
	IssuesFound []string `json:"issuesFound" validate:"max=20"`
}

// Create: POST /v1/housekeeping
func (h *HousekeepingHandler) Create(c echo.Context) error {
	var req createTaskReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	in := model.CleaningTaskRequest{
		RoomID:     req.Room,
		BookingID:  req.Booking,
		AssignedTo: req.AssignedTo,
		Type:       model.TaskType(req.TaskType),
		Priority:   model.Priority(req.Priority),
		Notes:      req.Notes,
	}
	if req.ScheduledDate != "" {
		t, err := parseDate(req.ScheduledDate)
		if err != nil {
			return fail(c, err)
		}
		in.ScheduledDate = t
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	t, err := h.Tasks.CreateTask(ctx, in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

// List: GET /v1/housekeeping?status&room&assignedTo&date
func (h *HousekeepingHandler) List(c echo.Context) error {
	f := model.TaskFilter{
		Status:     model.TaskStatus(c.QueryParam("status")),
		RoomID:     queryUint(c, "room"),
		AssignedTo: queryUint(c, "assignedTo"),
	}
	d, err := queryDate(c, "date", false)
	if err != nil {
		return fail(c, err)
	}
	f.Date = d
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	tasks, err := h.Tasks.List(ctx, actor(c), f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, tasks)
}

// Get: GET /v1/housekeeping/:id
func (h *HousekeepingHandler) Get(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	t, err := h.Tasks.Get(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// Assign: PATCH /v1/housekeeping/:id/assign
func (h *HousekeepingHandler) Assign(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req assignTaskReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	t, err := h.Tasks.Assign(ctx, id, req.AssignedTo)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// Start: PATCH /v1/housekeeping/:id/start
func (h *HousekeepingHandler) Start(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	t, err := h.Tasks.Start(ctx, actor(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// Complete: PATCH /v1/housekeeping/:id/complete
func (h *HousekeepingHandler) Complete(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req completeTaskReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	t, err := h.Tasks.Complete(ctx, actor(c), id, req.Notes, req.IssuesFound)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, t)
}
