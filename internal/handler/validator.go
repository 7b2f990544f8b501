package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-operations/internal/middleware"
	"github.com/iliyamo/hotel-operations/internal/model"
)

// Validator adapts go-playground/validator to echo.Validator.
type Validator struct{ v *validator.Validate }

func NewValidator() *Validator { return &Validator{v: validator.New()} }

// validationError lists the fields that failed validation.
type validationError struct{ fields []string }

func (e validationError) Error() string {
	return "invalid fields: " + strings.Join(e.fields, ", ")
}

func (cv *Validator) Validate(i interface{}) error {
	err := cv.v.Struct(i)
	var ves validator.ValidationErrors
	if errors.As(err, &ves) {
		out := validationError{}
		for _, fe := range ves {
			out.fields = append(out.fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
		}
		return out
	}
	return err
}

// bind decodes the request body into req and validates it.
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return fmt.Errorf("%w: malformed request body", model.ErrInvalidInput)
	}
	if c.Echo().Validator == nil {
		return nil
	}
	return c.Validate(req)
}

// actor returns the authenticated caller. Routes using it sit behind
// JWTAuth, so a missing actor is a wiring bug.
func actor(c echo.Context) model.Actor {
	a, _ := middleware.ActorFrom(c)
	return a
}

func idParam(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", model.ErrInvalidInput, name)
	}
	return id, nil
}

// dateLayouts are accepted for date inputs in query strings and bodies.
var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q is not a date", model.ErrInvalidInput, s)
}

func queryDate(c echo.Context, name string, required bool) (*time.Time, error) {
	v := c.QueryParam(name)
	if v == "" {
		if required {
			return nil, fmt.Errorf("%w: %s is required", model.ErrInvalidInput, name)
		}
		return nil, nil
	}
	t, err := parseDate(v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// presentParam returns the first of names set on the query string, or the
// first name when none is.
func presentParam(c echo.Context, names ...string) string {
	for _, n := range names {
		if c.QueryParam(n) != "" {
			return n
		}
	}
	return names[0]
}

func queryInt(c echo.Context, name string, def int) int {
	n, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return def
	}
	return n
}

func queryUint(c echo.Context, name string) uint64 {
	n, _ := strconv.ParseUint(c.QueryParam(name), 10, 64)
	return n
}

// toCents converts a decimal currency amount from the wire.
func toCents(v float64) int64 {
	if v < 0 {
		return int64(v*100 - 0.5)
	}
	return int64(v*100 + 0.5)
}
