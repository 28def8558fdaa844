package router

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/college-bus-booking/internal/config"
	"github.com/iliyamo/college-bus-booking/internal/handler"
	"github.com/iliyamo/college-bus-booking/internal/middleware"
	"github.com/iliyamo/college-bus-booking/internal/repository"
	"github.com/iliyamo/college-bus-booking/internal/service"
)

const secret = "router-secret"

func newServer(t *testing.T, mw BookingMiddleware) *echo.Echo {
	t.Helper()
	d, err := config.LoadDeployment("srm-55")
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	svc := service.NewCoordinator(d, repository.NewMemoryBookingRepo(),
		service.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		service.WithMetrics(service.NewMetrics(reg)))

	e := echo.New()
	RegisterRoutes(e, reg)
	RegisterBooking(e, handler.NewBookingHandler(svc, nil), secret, mw)
	return e
}

func get(e *echo.Echo, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestPublicRoutes(t *testing.T) {
	e := newServer(t, BookingMiddleware{})
	assert.Equal(t, http.StatusOK, get(e, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, get(e, "/v1/seats", "").Code)
	assert.Equal(t, http.StatusOK, get(e, "/v1/seats/55", "").Code)
	assert.Equal(t, http.StatusNotFound, get(e, "/v1/seats/56", "").Code)
	assert.Equal(t, http.StatusOK, get(e, "/v1/stats", "").Code)
}

func TestBookingThenMetrics(t *testing.T) {
	e := newServer(t, BookingMiddleware{})
	req := httptest.NewRequest(http.MethodPost, "/v1/seats/20/bookings", strings.NewReader(
		`{"student_name":"Vikram","registration_number":"RA2111003010009","gender":"male","sport":"football"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := get(e, "/metrics", "").Body.String()
	assert.Contains(t, body, "bus_booking_attempts_total")
	assert.Contains(t, body, `outcome="confirmed"`)
	assert.Contains(t, body, "bus_seats_booked 1")
}

func TestAdminRoutesNeedAdminToken(t *testing.T) {
	e := newServer(t, BookingMiddleware{})
	admin, err := middleware.IssueToken(secret, "ops", middleware.RoleAdmin, time.Hour)
	require.NoError(t, err)
	student, err := middleware.IssueToken(secret, "stu", "STUDENT", time.Hour)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, get(e, "/v1/admin/bookings", "").Code)
	assert.Equal(t, http.StatusForbidden, get(e, "/v1/admin/bookings", student).Code)
	assert.Equal(t, http.StatusOK, get(e, "/v1/admin/bookings", admin).Code)
}

func TestBookingMiddlewareIsApplied(t *testing.T) {
	hits := map[string]int{}
	tag := func(name string) echo.MiddlewareFunc {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				hits[name]++
				return next(c)
			}
		}
	}
	e := newServer(t, BookingMiddleware{Cache: tag("cache"), RateLimit: tag("limit")})

	get(e, "/v1/seats", "")
	get(e, "/v1/stats", "")
	req := httptest.NewRequest(http.MethodPost, "/v1/seats/20/bookings", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	e.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, 2, hits["cache"])
	assert.Equal(t, 1, hits["limit"])
}
