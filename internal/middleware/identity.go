package middleware

// identity.go holds the context keys shared by the middleware and the
// handlers. JWTAuth stores the caller there; everything downstream reads
// it back through ActorFrom.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-operations/internal/model"
)

const (
	ctxUserID    = "user_id"
	ctxRole      = "role"
	ctxRequestID = "request_id"
)

// SetActor stores the authenticated caller on the request context.
func SetActor(c echo.Context, a model.Actor) {
	c.Set(ctxUserID, a.ID)
	c.Set(ctxRole, a.Role)
}

// ActorFrom returns the caller stored by JWTAuth. ok is false on routes
// that were not authenticated.
func ActorFrom(c echo.Context) (model.Actor, bool) {
	id, ok := c.Get(ctxUserID).(uint64)
	if !ok || id == 0 {
		return model.Actor{}, false
	}
	role, ok := c.Get(ctxRole).(model.Role)
	if !ok || !role.Valid() {
		return model.Actor{}, false
	}
	return model.Actor{ID: id, Role: role}, true
}

// RequestID returns the id assigned by RequestLogger, or "".
func RequestID(c echo.Context) string {
	s, _ := c.Get(ctxRequestID).(string)
	return s
}

// userKey identifies the caller for rate limiting; anonymous callers
// share the "anon" bucket of their IP.
func userKey(c echo.Context) string {
	if a, ok := ActorFrom(c); ok {
		return strconv.FormatUint(a.ID, 10)
	}
	return "anon"
}
