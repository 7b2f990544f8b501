package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-operations/internal/handler"
	"github.com/iliyamo/hotel-operations/internal/middleware"
	"github.com/iliyamo/hotel-operations/internal/model"
)

// RegisterBookings registers the booking endpoints on the authenticated
// group. Any signed-in user may create a booking, list their own and
// search availability; reads and edits of a single booking are checked
// for ownership in the ledger. Listings across guests and the front desk
// transitions are staff only.
func RegisterBookings(g *echo.Group, h *handler.BookingHandler) {
	b := g.Group("/bookings")
	b.POST("", h.Create)
	b.GET("/my", h.Mine)
	b.GET("/available-rooms", h.AvailableRooms)

	staff := middleware.RequireCapability(model.CapViewAllBookings)
	b.GET("", h.List, staff)
	b.GET("/date-range", h.DateRange, staff)

	b.GET("/:id", h.Get)
	b.PUT("/:id", h.Update)
	b.DELETE("/:id", h.Delete)
	b.GET("/:id/invoice", h.Invoice)

	desk := middleware.RequireCapability(model.CapFrontDesk)
	b.PATCH("/:id/status", h.UpdateStatus, desk)
	b.PATCH("/:id/checkin", h.CheckIn, desk)
	b.PATCH("/:id/checkout", h.CheckOut, desk)
}
