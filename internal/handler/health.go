package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Health reports liveness; with ?deep=1 it also checks MySQL and Redis.
// Redis is optional, so a nil client is reported as "disabled" and an
// unreachable one degrades the status without failing it.
type Health struct {
	DB    Pinger
	Redis *redis.Client
}

func (h Health) Check(c echo.Context) error {
	if c.QueryParam("deep") == "" {
		return c.String(http.StatusOK, "ok")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status, code := "ok", http.StatusOK
	checks := echo.Map{}
	if err := h.DB.PingContext(ctx); err != nil {
		checks["mysql"] = err.Error()
		status, code = "down", http.StatusServiceUnavailable
	} else {
		checks["mysql"] = "ok"
	}
	switch {
	case h.Redis == nil:
		checks["redis"] = "disabled"
	case h.Redis.Ping(ctx).Err() != nil:
		checks["redis"] = "unreachable"
		if code == http.StatusOK {
			status = "degraded"
		}
	default:
		checks["redis"] = "ok"
	}
	return c.JSON(code, echo.Map{"status": status, "checks": checks})
}
