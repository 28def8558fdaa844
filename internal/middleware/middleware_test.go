package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/college-bus-booking/internal/config"
)

const secret = "test-secret"

func serve(e *echo.Echo, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func echoIdentity(c echo.Context) error {
	return c.String(http.StatusOK, "id="+Identity(c))
}

func TestJWTAuth(t *testing.T) {
	e := echo.New()
	e.GET("/admin", echoIdentity, JWTAuth(secret), RequireRole(RoleAdmin))

	admin, err := IssueToken(secret, "ops-1", RoleAdmin, time.Hour)
	require.NoError(t, err)
	student, err := IssueToken(secret, "stu-1", "STUDENT", time.Hour)
	require.NoError(t, err)
	expired, err := IssueToken(secret, "ops-1", RoleAdmin, -time.Minute)
	require.NoError(t, err)
	forged, err := IssueToken("other-secret", "ops-1", RoleAdmin, time.Hour)
	require.NoError(t, err)

	rec := serve(e, http.MethodGet, "/admin", admin)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "id=ops-1", rec.Body.String())

	assert.Equal(t, http.StatusForbidden, serve(e, http.MethodGet, "/admin", student).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/admin", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/admin", expired).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/admin", forged).Code)
}

func TestJWTAuthRejectsNonHMAC(t *testing.T) {
	e := echo.New()
	e.GET("/admin", echoIdentity, JWTAuth(secret))

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "x"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/admin", none).Code)
}

func TestOptionalJWT(t *testing.T) {
	e := echo.New()
	e.GET("/seat", echoIdentity, OptionalJWT(secret))

	rec := serve(e, http.MethodGet, "/seat", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "id=", rec.Body.String())

	tok, err := IssueToken(secret, "stu-9", "STUDENT", time.Hour)
	require.NoError(t, err)
	rec = serve(e, http.MethodGet, "/seat", tok)
	assert.Equal(t, "id=stu-9", rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/seat", "garbage").Code)

	req := httptest.NewRequest(http.MethodGet, "/seat", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRedisCacheHitAndInvalidate(t *testing.T) {
	rdb := newRedis(t)
	cfg := config.CacheConfig{
		Enabled:     true,
		Methods:     map[string]bool{http.MethodGet: true},
		TTL:         time.Minute,
		KeyStrategy: "route_query",
		Prefix:      "seatcache",
	}
	calls := 0
	e := echo.New()
	e.GET("/v1/seats", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"calls": calls})
	}, NewRedisCache(cfg, rdb))

	first := serve(e, http.MethodGet, "/v1/seats", "")
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	second := serve(e, http.MethodGet, "/v1/seats", "")
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, calls)

	unrelated := "other:key"
	require.NoError(t, rdb.Set(context.Background(), unrelated, "x", 0).Err())

	require.NoError(t, NewCacheInvalidator(cfg, rdb).Invalidate(context.Background()))
	third := serve(e, http.MethodGet, "/v1/seats", "")
	assert.Equal(t, "MISS", third.Header().Get("X-Cache"))
	assert.Equal(t, 2, calls)

	n, err := rdb.Exists(context.Background(), unrelated).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRedisCacheKeysEachSeatSeparately(t *testing.T) {
	rdb := newRedis(t)
	cfg := config.CacheConfig{
		Enabled:     true,
		Methods:     map[string]bool{http.MethodGet: true},
		TTL:         time.Minute,
		KeyStrategy: "route",
		Prefix:      "seatcache",
	}
	e := echo.New()
	e.GET("/v1/seats/:number", func(c echo.Context) error {
		return c.String(http.StatusOK, "seat "+c.Param("number"))
	}, NewRedisCache(cfg, rdb))

	assert.Equal(t, "seat 3", serve(e, http.MethodGet, "/v1/seats/3", "").Body.String())
	rec := serve(e, http.MethodGet, "/v1/seats/4", "")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, "seat 4", rec.Body.String())

	rec = serve(e, http.MethodGet, "/v1/seats/3", "")
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, "seat 3", rec.Body.String())
}

func TestRedisCacheSkipsOversizedAndFailedReads(t *testing.T) {
	rdb := newRedis(t)
	cfg := config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{http.MethodGet: true},
		TTL:          time.Minute,
		Prefix:       "seatcache",
		MaxBodyBytes: 8,
	}
	e := echo.New()
	e.GET("/v1/seats", func(c echo.Context) error {
		return c.String(http.StatusOK, "a seat map longer than eight bytes")
	}, NewRedisCache(cfg, rdb))
	e.GET("/v1/stats", func(c echo.Context) error {
		return c.String(http.StatusInternalServerError, "down")
	}, NewRedisCache(cfg, rdb))

	for i := 0; i < 2; i++ {
		rec := serve(e, http.MethodGet, "/v1/seats", "")
		assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
		assert.Equal(t, "a seat map longer than eight bytes", rec.Body.String())
		assert.Equal(t, "MISS", serve(e, http.MethodGet, "/v1/stats", "").Header().Get("X-Cache"))
	}

	keys, err := rdb.Keys(context.Background(), "seatcache:*").Result()
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestCacheInvalidatorWithoutRedis(t *testing.T) {
	var nilInvalidator *CacheInvalidator
	assert.NoError(t, nilInvalidator.Invalidate(context.Background()))
	assert.NoError(t, NewCacheInvalidator(config.CacheConfig{Enabled: true}, nil).Invalidate(context.Background()))
}

func TestTokenBucketBlocksAfterCapacity(t *testing.T) {
	rdb := newRedis(t)
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		TTL:            5 * time.Hour,
		KeyStrategy:    "ip_route",
		Prefix:         "rl",
	}
	e := echo.New()
	e.POST("/v1/seats/:number/bookings", func(c echo.Context) error {
		return c.NoContent(http.StatusCreated)
	}, NewTokenBucket(cfg, rdb))

	assert.Equal(t, http.StatusCreated, serve(e, http.MethodPost, "/v1/seats/4/bookings", "").Code)
	assert.Equal(t, http.StatusCreated, serve(e, http.MethodPost, "/v1/seats/5/bookings", "").Code)

	rec := serve(e, http.MethodPost, "/v1/seats/6/bookings", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
}

func TestTokenBucketDisabledPassesThrough(t *testing.T) {
	e := echo.New()
	e.POST("/x", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) },
		NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil))
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusNoContent, serve(e, http.MethodPost, "/x", "").Code)
	}
}
