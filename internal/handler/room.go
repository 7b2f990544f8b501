package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-operations/internal/model"
)

// RoomRegistry is the surface of service.Rooms used over HTTP.
type RoomRegistry interface {
	Create(ctx context.Context, rm *model.Room) error
	Get(ctx context.Context, id uint64) (*model.Room, error)
	List(ctx context.Context, f model.RoomFilter) ([]model.Room, error)
	ListAvailable(ctx context.Context, roomType string) ([]model.Room, error)
	Update(ctx context.Context, id uint64, p model.RoomPatch) (*model.Room, error)
	SetStatus(ctx context.Context, id uint64, status model.RoomStatus) (*model.Room, error)
	Delete(ctx context.Context, id uint64) error
}

// RoomHandler serves /v1/rooms.
type RoomHandler struct {
	Rooms   RoomRegistry
	Timeout time.Duration
}

func NewRoomHandler(r RoomRegistry, timeout time.Duration) *RoomHandler {
	return &RoomHandler{Rooms: r, Timeout: timeout}
}

type capacity struct {
	Adults   int `json:"adults" validate:"gte=1"`
	Children int `json:"children" validate:"gte=0"`
}

type createRoomReq struct {
	RoomNumber  string    `json:"roomNumber" validate:"required,max=16"`
	Type        string    `json:"type" validate:"required,max=50"`
	BedType     string    `json:"bedType" validate:"omitempty,oneof=Single Double Queen King Twin"`
	Price       float64   `json:"price" validate:"gt=0"`
	Status      string    `json:"status"`
	Floor       int       `json:"floor"`
	Capacity    *capacity `json:"capacity"`
	Description string    `json:"description"`
	Amenities   string    `json:"amenities"`
}

type updateRoomReq struct {
	RoomNumber  *string   `json:"roomNumber" validate:"omitempty,max=16"`
	Type        *string   `json:"type" validate:"omitempty,max=50"`
	BedType     *string   `json:"bedType" validate:"omitempty,oneof=Single Double Queen King Twin"`
	Price       *float64  `json:"price" validate:"omitempty,gt=0"`
	Floor       *int      `json:"floor"`
	Capacity    *capacity `json:"capacity"`
	Description *string   `json:"description"`
	Amenities   *string   `json:"amenities"`
	IsActive    *bool     `json:"isActive"`
}

type roomStatusReq struct {
	Status string `json:"status" validate:"required"`
}

// List: GET /v1/rooms?type&status&floor (public)
func (h *RoomHandler) List(c echo.Context) error {
	f := model.RoomFilter{Type: c.QueryParam("type"), Status: model.RoomStatus(c.QueryParam("status"))}
	if v := c.QueryParam("floor"); v != "" {
		floor, err := strconv.Atoi(v)
		if err != nil {
			return badRequest(c, "floor must be an integer")
		}
		f.Floor = &floor
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	rooms, err := h.Rooms.List(ctx, f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, rooms)
}

// Available: GET /v1/rooms/available?type (public). Rooms vacant right now.
func (h *RoomHandler) Available(c echo.Context) error {
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	rooms, err := h.Rooms.ListAvailable(ctx, c.QueryParam("type"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, rooms)
}

// Get: GET /v1/rooms/:id (public)
func (h *RoomHandler) Get(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	rm, err := h.Rooms.Get(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, rm)
}

// Create: POST /v1/rooms
func (h *RoomHandler) Create(c echo.Context) error {
	var req createRoomReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	rm := &model.Room{
		RoomNumber:  req.RoomNumber,
		Type:        req.Type,
		BedType:     req.BedType,
		PriceCents:  toCents(req.Price),
		Status:      model.RoomStatus(req.Status),
		Floor:       req.Floor,
		MaxAdults:   2,
		MaxChildren: 1,
		Description: req.Description,
		Amenities:   req.Amenities,
		IsActive:    true,
	}
	if req.Capacity != nil {
		rm.MaxAdults, rm.MaxChildren = req.Capacity.Adults, req.Capacity.Children
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	if err := h.Rooms.Create(ctx, rm); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, rm)
}

// Update: PUT /v1/rooms/:id
func (h *RoomHandler) Update(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req updateRoomReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	p := model.RoomPatch{
		RoomNumber:  req.RoomNumber,
		Type:        req.Type,
		BedType:     req.BedType,
		Floor:       req.Floor,
		Description: req.Description,
		Amenities:   req.Amenities,
		IsActive:    req.IsActive,
	}
	if req.Price != nil {
		v := toCents(*req.Price)
		p.PriceCents = &v
	}
	if req.Capacity != nil {
		p.MaxAdults, p.MaxChildren = &req.Capacity.Adults, &req.Capacity.Children
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	rm, err := h.Rooms.Update(ctx, id, p)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, rm)
}

// SetStatus: PATCH /v1/rooms/:id/status
func (h *RoomHandler) SetStatus(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req roomStatusReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	rm, err := h.Rooms.SetStatus(ctx, id, model.RoomStatus(req.Status))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, rm)
}

// Delete: DELETE /v1/rooms/:id
func (h *RoomHandler) Delete(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	if err := h.Rooms.Delete(ctx, id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
