package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// RequestLogger assigns every request an id (reusing a client supplied
// X-Request-ID) and logs it once the handler returns.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			c.Set(ctxRequestID, id)
			c.Response().Header().Set(echo.HeaderXRequestID, id)

			err := next(c)
			if err != nil {
				// let echo write the error response so the status is final
				c.Error(err)
			}

			status := c.Response().Status
			entry := log.WithFields(log.Fields{
				"request_id": id,
				"method":     req.Method,
				"path":       req.URL.Path,
				"route":      c.Path(),
				"status":     status,
				"duration":   time.Since(start).String(),
				"client_ip":  c.RealIP(),
				"user_agent": req.UserAgent(),
			})
			if a, ok := ActorFrom(c); ok {
				entry = entry.WithField("user_id", a.ID)
			}
			if status >= 400 {
				entry.Error("request failed")
			} else {
				entry.Info("request processed")
			}
			return nil
		}
	}
}
