package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/hotel-operations/internal/config"
	"github.com/iliyamo/hotel-operations/internal/handler"
	"github.com/iliyamo/hotel-operations/internal/middleware"
)

// Handlers groups every HTTP handler the API exposes.
type Handlers struct {
	Health        handler.Health
	Auth          *handler.AuthHandler
	Rooms         *handler.RoomHandler
	Bookings      *handler.BookingHandler
	Housekeeping  *handler.HousekeepingHandler
	Maintenance   *handler.MaintenanceHandler
	Settings      *handler.SettingsHandler
	Notifications *handler.NotificationHandler
	Users         *handler.UserHandler
}

// Options carries the cross-cutting settings of the route tree. Redis may
// be nil, which turns caching and rate limiting off.
type Options struct {
	JWTSecret string
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	Redis     *redis.Client
}

// New builds the Echo instance with the global middleware chain and every
// route registered.
func New(h Handlers, opt Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger())

	limit := middleware.NewTokenBucket(opt.RateLimit, opt.Redis)

	RegisterRoutes(e, h.Health)
	RegisterAuth(e, h.Auth, opt.JWTSecret, limit)
	RegisterPublic(e, h.Rooms, middleware.NewRedisCache(opt.Cache, opt.Redis))

	v1 := e.Group("/v1", middleware.JWTAuth(opt.JWTSecret), limit)
	RegisterBookings(v1, h.Bookings)
	RegisterOperations(v1, h)
	return e
}

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo, health handler.Health) {
	e.GET("/healthz", health.Check)
}

// RegisterAuth registers the session endpoints. Register, login and the
// refresh exchanges need no access token; logout accepts either a
// refresh token in the body or a bearer token. Staff accounts are created
// by admins only.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/auth", limit)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh) // rotates the refresh token
	g.POST("/refresh-access", a.RefreshAccess)
	g.POST("/logout", a.Logout)
	e.POST("/v1/logout", a.Logout)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated room browsing endpoints.
// Listings and details go through the response cache; availability is
// always computed fresh.
func RegisterPublic(e *echo.Echo, r *handler.RoomHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/rooms", r.List, cache)
	e.GET("/v1/rooms/available", r.Available)
	e.GET("/v1/rooms/:id", r.Get, cache)
}
