package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-operations/internal/middleware"
	"github.com/iliyamo/hotel-operations/internal/model"
)

// RegisterOperations registers the staff side of the API: room
// management, housekeeping, maintenance, settings, notifications and
// account administration.
func RegisterOperations(g *echo.Group, h Handlers) {
	need := middleware.RequireCapability

	rooms := g.Group("/rooms")
	rooms.POST("", h.Rooms.Create, need(model.CapManageRooms))
	rooms.PUT("/:id", h.Rooms.Update, need(model.CapManageRooms))
	rooms.PATCH("/:id/status", h.Rooms.SetStatus, need(model.CapSetRoomStatus))
	rooms.DELETE("/:id", h.Rooms.Delete, need(model.CapDeleteRooms))

	hk := g.Group("/housekeeping", need(model.CapHousekeeping))
	hk.POST("", h.Housekeeping.Create)
	hk.GET("", h.Housekeeping.List)
	hk.GET("/:id", h.Housekeeping.Get)
	hk.PATCH("/:id/assign", h.Housekeeping.Assign, need(model.CapManageHousekeeping))
	hk.PATCH("/:id/start", h.Housekeeping.Start)
	hk.PATCH("/:id/complete", h.Housekeeping.Complete)

	mt := g.Group("/maintenance")
	mt.POST("", h.Maintenance.Create)
	mt.GET("", h.Maintenance.List, need(model.CapMaintenance))
	mt.GET("/:id", h.Maintenance.Get, need(model.CapMaintenance))
	mt.PUT("/:id", h.Maintenance.Update, need(model.CapResolveMaintenance))
	mt.PATCH("/:id/assign", h.Maintenance.Assign, need(model.CapManageMaintenance))
	mt.PATCH("/:id/complete", h.Maintenance.Complete, need(model.CapResolveMaintenance))
	mt.DELETE("/:id", h.Maintenance.Delete, need(model.CapManageMaintenance))

	st := g.Group("/settings", need(model.CapManageSettings))
	st.GET("", h.Settings.List)
	st.GET("/:key", h.Settings.Get)
	st.PUT("/:key", h.Settings.Put, need(model.CapEditSettings))
	st.DELETE("/:key", h.Settings.Delete, need(model.CapEditSettings))

	nt := g.Group("/notifications")
	nt.GET("", h.Notifications.Mine)
	nt.GET("/my", h.Notifications.Mine)
	nt.PATCH("/mark-all-read", h.Notifications.MarkAllRead)
	nt.PATCH("/:id/read", h.Notifications.MarkRead)
	nt.DELETE("/:id", h.Notifications.Delete)

	us := g.Group("/users")
	us.POST("", h.Auth.CreateStaff, need(model.CapManageUsers))
	us.GET("", h.Users.List, need(model.CapViewUsers))
	us.GET("/:id", h.Users.Get)
	us.PUT("/:id", h.Users.Update)
	us.DELETE("/:id", h.Users.Delete, need(model.CapDeleteUsers))
}
