package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-operations/internal/config"
	"github.com/iliyamo/hotel-operations/internal/model"
	"github.com/iliyamo/hotel-operations/internal/utils"
)

const secret = "test-secret"

func token(t *testing.T, id uint64, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, id, role, 5)
	require.NoError(t, err)
	return tok.Token
}

func whoami(c echo.Context) error {
	a, ok := ActorFrom(c)
	if !ok {
		return c.NoContent(http.StatusTeapot)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": a.ID, "role": a.Role.String()})
}

func serve(e *echo.Echo, method, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuth(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoami, JWTAuth(secret))

	cases := []struct {
		name   string
		bearer string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "abc.def.ghi", http.StatusUnauthorized},
		{"unknown role", token(t, 1, "janitor"), http.StatusUnauthorized},
		{"wrong secret", func() string {
			tok, _ := utils.NewAccessToken("other", 1, "guest", 5)
			return tok.Token
		}(), http.StatusUnauthorized},
		{"valid", token(t, 9, "receptionist"), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(e, http.MethodGet, "/me", tc.bearer)
			assert.Equal(t, tc.want, rec.Code)
		})
	}

	rec := serve(e, http.MethodGet, "/me", token(t, 9, "Receptionist"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":9,"role":"receptionist"}`, rec.Body.String())
}

func TestRequireCapability(t *testing.T) {
	e := echo.New()
	g := e.Group("", JWTAuth(secret))
	g.POST("/checkin", whoami, RequireCapability(model.CapFrontDesk))
	g.DELETE("/rooms", whoami, RequireCapability(model.CapDeleteRooms))
	g.PUT("/settings", whoami, RequireCapability(model.CapEditSettings))

	assert.Equal(t, http.StatusForbidden, serve(e, http.MethodPost, "/checkin", token(t, 1, "guest")).Code)
	assert.Equal(t, http.StatusForbidden, serve(e, http.MethodPost, "/checkin", token(t, 1, "housekeeping")).Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodPost, "/checkin", token(t, 1, "receptionist")).Code)
	assert.Equal(t, http.StatusForbidden, serve(e, http.MethodDelete, "/rooms", token(t, 1, "manager")).Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodDelete, "/rooms", token(t, 1, "admin")).Code)
	assert.Equal(t, http.StatusForbidden, serve(e, http.MethodPut, "/settings", token(t, 1, "manager")).Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodPut, "/settings", token(t, 1, "admin")).Code)

	bare := echo.New()
	bare.GET("/x", whoami, RequireCapability(model.CapFrontDesk))
	assert.Equal(t, http.StatusUnauthorized, serve(bare, http.MethodGet, "/x", "").Code)
}

func TestRequestLoggerAssignsID(t *testing.T) {
	e := echo.New()
	e.Use(RequestLogger())
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, RequestID(c)) })
	e.GET("/boom", func(c echo.Context) error { return echo.NewHTTPError(http.StatusConflict, "nope") })

	rec := serve(e, http.MethodGet, "/ping", "")
	id := rec.Header().Get(echo.HeaderXRequestID)
	assert.Len(t, id, 36)
	assert.Equal(t, id, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(echo.HeaderXRequestID, "abc-123")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Body.String())

	rec = serve(e, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/rooms", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/rooms")

	cfg := config.RateLimitConfig{Prefix: "rl"}
	for strategy, want := range map[string]string{
		"ip":         "rl:ip:10.0.0.1",
		"user":       "rl:user:anon",
		"route":      "rl:route:GET /v1/rooms",
		"user_route": "rl:user:anon:route:GET /v1/rooms",
		"":           "rl:ip:10.0.0.1:user:anon:route:GET /v1/rooms",
	} {
		cfg.KeyStrategy = strategy
		assert.Equal(t, want, buildRateKey(cfg, c), strategy)
	}

	SetActor(c, model.Actor{ID: 42, Role: model.RoleGuest})
	cfg.KeyStrategy = "user"
	assert.Equal(t, "rl:user:42", buildRateKey(cfg, c))
}

func TestTokenBucketDisabledPassesThrough(t *testing.T) {
	e := echo.New()
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) },
		NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil))
	assert.Equal(t, http.StatusNoContent, serve(e, http.MethodGet, "/", "").Code)
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"a":1}`))
	require.NoError(t, err)

	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, `{"a":1}`, string(body))

	_, _, _, ok = decodePayload(bs[:5])
	assert.False(t, ok)
}

func TestRedisCacheHit(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute, Prefix: "cache"}

	calls := 0
	e := echo.New()
	e.GET("/v1/rooms", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"fresh": true})
	}, NewRedisCache(cfg, rdb))

	req := httptest.NewRequest(http.MethodGet, "/v1/rooms?type=Suite", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/rooms")
	key := cacheKeyFrom(cfg, c)

	payload, err := encodePayload(http.StatusOK, http.Header{"Content-Type": {"application/json"}}, []byte(`{"cached":true}`))
	require.NoError(t, err)
	mock.ExpectGet(key).SetVal(string(payload))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/rooms?type=Suite", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, `{"cached":true}`, rec.Body.String())
	assert.Zero(t, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}
