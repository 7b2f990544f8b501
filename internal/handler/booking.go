package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-operations/internal/model"
	"github.com/iliyamo/hotel-operations/internal/service"
)

// BookingLedger is the booking surface of service.Ledger.
type BookingLedger interface {
	CreateBooking(ctx context.Context, actor model.Actor, in model.NewBooking) (*model.Booking, error)
	GetBooking(ctx context.Context, actor model.Actor, id uint64) (*model.Booking, error)
	UpdateBooking(ctx context.Context, actor model.Actor, id uint64, p model.BookingPatch) (*model.Booking, error)
	UpdateStatus(ctx context.Context, actor model.Actor, id uint64, to model.BookingStatus, reason string) (*model.Booking, error)
	CheckIn(ctx context.Context, actor model.Actor, id uint64, keyNumber string) (*model.Booking, error)
	CheckOut(ctx context.Context, actor model.Actor, id uint64, in model.CheckoutInput) (*model.Booking, error)
	DeleteBooking(ctx context.Context, actor model.Actor, id uint64) error
	QueryAvailableRooms(ctx context.Context, checkIn, checkOut time.Time, roomType string) ([]model.Room, error)
	ListBookings(ctx context.Context, f model.BookingFilter) (service.BookingPage, error)
	ListMyBookings(ctx context.Context, actor model.Actor) ([]model.Booking, error)
	ListByDateRange(ctx context.Context, from, to time.Time) ([]model.Booking, error)
}

// InvoiceSource returns a booking's invoice.
type InvoiceSource interface {
	ForBooking(ctx context.Context, actor model.Actor, bookingID uint64) (*model.Invoice, error)
}

// BookingHandler serves /v1/bookings.
type BookingHandler struct {
	Ledger   BookingLedger
	Invoices InvoiceSource
	Timeout  time.Duration
}

func NewBookingHandler(l BookingLedger, inv InvoiceSource, timeout time.Duration) *BookingHandler {
	return &BookingHandler{Ledger: l, Invoices: inv, Timeout: timeout}
}

func (h *BookingHandler) ctx(c echo.Context) (context.Context, context.CancelFunc) {
	return withTimeout(c, h.Timeout)
}

// ----- DTOs -----

type guestCount struct {
	Adults   int `json:"adults" validate:"gte=0"`
	Children int `json:"children" validate:"gte=0"`
}

type createBookingReq struct {
	Guest           uint64      `json:"guest"`
	Room            uint64      `json:"room" validate:"required"`
	CheckInDate     string      `json:"checkInDate" validate:"required"`
	CheckOutDate    string      `json:"checkOutDate" validate:"required"`
	NumberOfGuests  *guestCount `json:"numberOfGuests"`
	SpecialRequests string      `json:"specialRequests" validate:"max=1000"`
	BookingSource   string      `json:"bookingSource"`
}

type updateBookingReq struct {
	CheckInDate     *string     `json:"checkInDate"`
	CheckOutDate    *string     `json:"checkOutDate"`
	NumberOfGuests  *guestCount `json:"numberOfGuests"`
	SpecialRequests *string     `json:"specialRequests" validate:"omitempty,max=1000"`
	Notes           *string     `json:"notes"`
}

type statusReq struct {
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason"`
}

type checkInReq struct {
	KeyNumber string `json:"keyNumber" validate:"max=32"`
}

type checkOutReq struct {
	FinalAmount   *float64 `json:"finalAmount" validate:"omitempty,gte=0"`
	PaymentMethod string   `json:"paymentMethod"`
}

// ----- handlers -----

// Create: POST /v1/bookings
func (h *BookingHandler) Create(c echo.Context) error {
	var req createBookingReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	in, err := parseDate(req.CheckInDate)
	if err != nil {
		return fail(c, err)
	}
	out, err := parseDate(req.CheckOutDate)
	if err != nil {
		return fail(c, err)
	}
	nb := model.NewBooking{
		GuestID:         req.Guest,
		RoomID:          req.Room,
		CheckInDate:     in,
		CheckOutDate:    out,
		Adults:          1,
		SpecialRequests: req.SpecialRequests,
		Source:          model.BookingSource(req.BookingSource),
	}
	if req.NumberOfGuests != nil {
		nb.Adults, nb.Children = req.NumberOfGuests.Adults, req.NumberOfGuests.Children
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	b, err := h.Ledger.CreateBooking(ctx, actor(c), nb)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// List: GET /v1/bookings (staff)
func (h *BookingHandler) List(c echo.Context) error {
	f := model.BookingFilter{
		Status:  model.BookingStatus(c.QueryParam("status")),
		GuestID: queryUint(c, "guest"),
		RoomID:  queryUint(c, "room"),
		Page:    queryInt(c, "page", 1),
		Limit:   queryInt(c, "limit", 50),
	}
	if f.Status != "" && !f.Status.Valid() {
		return badRequest(c, "unknown status")
	}
	day, err := queryDate(c, "checkInDate", false)
	if err != nil {
		return fail(c, err)
	}
	f.CheckInDate = day

	ctx, cancel := h.ctx(c)
	defer cancel()
	page, err := h.Ledger.ListBookings(ctx, f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// Mine: GET /v1/bookings/my
func (h *BookingHandler) Mine(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	items, err := h.Ledger.ListMyBookings(ctx, actor(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

// AvailableRooms: GET /v1/bookings/available-rooms?checkInDate&checkOutDate&roomType
func (h *BookingHandler) AvailableRooms(c echo.Context) error {
	in, err := queryDate(c, "checkInDate", true)
	if err != nil {
		return fail(c, err)
	}
	out, err := queryDate(c, "checkOutDate", true)
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	rooms, err := h.Ledger.QueryAvailableRooms(ctx, *in, *out, c.QueryParam("roomType"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, rooms)
}

// DateRange: GET /v1/bookings/date-range?startDate&endDate (staff)
func (h *BookingHandler) DateRange(c echo.Context) error {
	from, err := queryDate(c, presentParam(c, "startDate", "start"), true)
	if err != nil {
		return fail(c, err)
	}
	to, err := queryDate(c, presentParam(c, "endDate", "end"), true)
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	items, err := h.Ledger.ListByDateRange(ctx, *from, *to)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

// Get: GET /v1/bookings/:id
func (h *BookingHandler) Get(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	b, err := h.Ledger.GetBooking(ctx, actor(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// Update: PUT /v1/bookings/:id
func (h *BookingHandler) Update(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req updateBookingReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	var p model.BookingPatch
	if req.CheckInDate != nil {
		t, err := parseDate(*req.CheckInDate)
		if err != nil {
			return fail(c, err)
		}
		p.CheckInDate = &t
	}
	if req.CheckOutDate != nil {
		t, err := parseDate(*req.CheckOutDate)
		if err != nil {
			return fail(c, err)
		}
		p.CheckOutDate = &t
	}
	if g := req.NumberOfGuests; g != nil {
		p.Adults, p.Children = &g.Adults, &g.Children
	}
	p.SpecialRequests, p.Notes = req.SpecialRequests, req.Notes

	ctx, cancel := h.ctx(c)
	defer cancel()
	b, err := h.Ledger.UpdateBooking(ctx, actor(c), id, p)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// UpdateStatus: PATCH /v1/bookings/:id/status (staff)
func (h *BookingHandler) UpdateStatus(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req statusReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	b, err := h.Ledger.UpdateStatus(ctx, actor(c), id, model.BookingStatus(req.Status), req.Reason)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// CheckIn: PATCH /v1/bookings/:id/checkin (staff)
func (h *BookingHandler) CheckIn(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req checkInReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	b, err := h.Ledger.CheckIn(ctx, actor(c), id, req.KeyNumber)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// CheckOut: PATCH /v1/bookings/:id/checkout (staff)
func (h *BookingHandler) CheckOut(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req checkOutReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	in := model.CheckoutInput{PaymentMethod: model.PaymentMethod(req.PaymentMethod)}
	if req.FinalAmount != nil {
		v := toCents(*req.FinalAmount)
		in.FinalAmountCents = &v
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	b, err := h.Ledger.CheckOut(ctx, actor(c), id, in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// Delete: DELETE /v1/bookings/:id
func (h *BookingHandler) Delete(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.Ledger.DeleteBooking(ctx, actor(c), id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Invoice: GET /v1/bookings/:id/invoice
func (h *BookingHandler) Invoice(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	inv, err := h.Invoices.ForBooking(ctx, actor(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, inv)
}

// withTimeout bounds the storage work of one request.
func withTimeout(c echo.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 5 * time.Second
	}
	return context.WithTimeout(c.Request().Context(), d)
}
