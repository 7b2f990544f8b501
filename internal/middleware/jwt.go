package middleware // middleware holds the reusable HTTP middleware of the API

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/hotel-operations/internal/model"
	"github.com/iliyamo/hotel-operations/internal/utils"
)

// BearerToken returns the raw token of an "Authorization: Bearer" header.
func BearerToken(c echo.Context) (string, bool) {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	return raw, raw != ""
}

// ParseActor verifies a raw access token and returns the caller it
// names.
func ParseActor(secret, raw string) (model.Actor, error) {
	claims, err := utils.ParseAccessToken(secret, raw)
	if err != nil {
		return model.Actor{}, err
	}
	id, err := claims.UserID()
	if err != nil {
		return model.Actor{}, err
	}
	role, err := model.ParseRole(claims.Role)
	if err != nil {
		return model.Actor{}, err
	}
	return model.Actor{ID: id, Role: role}, nil
}

// JWTAuth validates a Bearer access token and stores the caller's user
// id and role on the context (see ActorFrom). The secret must match the
// one used when issuing tokens.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := BearerToken(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			actor, err := ParseActor(secret, raw)
			if err != nil {
				log.WithError(err).WithField("request_id", RequestID(c)).Debug("rejected access token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			SetActor(c, actor)
			return next(c)
		}
	}
}
