package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/hotel-operations/internal/middleware"
	"github.com/iliyamo/hotel-operations/internal/model"
)

// fail writes the JSON error response for err. Domain errors keep their
// message; anything else is logged and reported as a generic 500.
func fail(c echo.Context, err error) error {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).WithFields(log.Fields{
			"path":       c.Request().URL.Path,
			"method":     c.Request().Method,
			"request_id": middleware.RequestID(c),
		}).Error("request failed")
		return c.JSON(status, echo.Map{"error": "internal server error"})
	}
	return c.JSON(status, echo.Map{"error": err.Error()})
}

func statusOf(err error) int {
	var verr validationError
	switch {
	case model.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, model.ErrRoomUnavailable),
		errors.Is(err, model.ErrInvalidDateRange),
		errors.Is(err, model.ErrInvalidInput),
		errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, model.ErrInvalidTransition),
		errors.Is(err, model.ErrDuplicateRoomNumber),
		errors.Is(err, model.ErrEmailExists),
		errors.Is(err, model.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}
