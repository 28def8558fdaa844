package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/college-bus-booking/internal/handler"
	"github.com/iliyamo/college-bus-booking/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication:
// the health check and, when g is non-nil, the Prometheus exposition.
func RegisterRoutes(e *echo.Echo, g prometheus.Gatherer) {
	e.GET("/healthz", handler.Health)
	if g != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{})))
	}
}

// BookingMiddleware holds the Redis-backed middlewares.  Nil entries are
// skipped, which is how tests and Redis-less deployments run.
type BookingMiddleware struct {
	Cache     echo.MiddlewareFunc
	RateLimit echo.MiddlewareFunc
}

// RegisterBooking registers the seat map, booking and admin routes.
// Reads are cached, the booking POST is rate limited and accepts an
// optional identity token, and the admin group requires an ADMIN token.
func RegisterBooking(e *echo.Echo, h *handler.BookingHandler, jwtSecret string, mw BookingMiddleware) {
	v1 := e.Group("/v1")

	reads := only(mw.Cache)
	v1.GET("/seats", h.ListSeats, reads...)
	v1.GET("/seats/:number", h.GetSeat, reads...)
	v1.GET("/stats", h.Stats, reads...)

	// The limiter runs after OptionalJWT so the user key strategies see
	// the identity.
	book := append([]echo.MiddlewareFunc{middleware.OptionalJWT(jwtSecret)}, only(mw.RateLimit)...)
	v1.POST("/seats/:number/bookings", h.Book, book...)

	admin := v1.Group("/admin", middleware.JWTAuth(jwtSecret), middleware.RequireRole(middleware.RoleAdmin))
	admin.GET("/bookings", h.AdminBookings)
}

func only(mws ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := make([]echo.MiddlewareFunc, 0, len(mws))
	for _, m := range mws {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}
