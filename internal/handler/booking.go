package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/college-bus-booking/internal/eligibility"
	"github.com/iliyamo/college-bus-booking/internal/middleware"
	"github.com/iliyamo/college-bus-booking/internal/model"
	"github.com/iliyamo/college-bus-booking/internal/seating"
	"github.com/iliyamo/college-bus-booking/internal/service"
)

// Booker is the booking service as the HTTP layer sees it.
type Booker interface {
	Submit(ctx context.Context, seat int, req model.BookingRequest, identity string) (service.Outcome, error)
	SeatView(ctx context.Context, n int) (service.SeatView, error)
	SeatMap(ctx context.Context) ([]service.SeatView, error)
	Stats(ctx context.Context) (service.Stats, error)
	Bookings(ctx context.Context) ([]model.Booking, error)
}

// Invalidator drops cached seat map and stats responses.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// BookingHandler serves the seat map, the booking form submission and
// the admin booking list.
type BookingHandler struct {
	Svc   Booker
	Cache Invalidator // may be nil
}

// NewBookingHandler constructs a BookingHandler.  svc must be non-nil.
func NewBookingHandler(svc Booker, cache Invalidator) *BookingHandler {
	if svc == nil {
		panic("nil booking service passed to NewBookingHandler")
	}
	return &BookingHandler{Svc: svc, Cache: cache}
}

func seatParam(c echo.Context) (int, bool) {
	n, err := strconv.Atoi(c.Param("number"))
	return n, err == nil
}

// ListSeats handles GET /v1/seats.
func (h *BookingHandler) ListSeats(c echo.Context) error {
	seats, err := h.Svc.SeatMap(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"seats": seats})
}

// GetSeat handles GET /v1/seats/:number.  Seats outside the bus are 404.
func (h *BookingHandler) GetSeat(c echo.Context) error {
	n, ok := seatParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat number"})
	}
	v, err := h.Svc.SeatView(c.Request().Context(), n)
	var oor *seating.OutOfRangeError
	switch {
	case errors.As(err, &oor):
		return c.JSON(http.StatusNotFound, echo.Map{"error": oor.Error()})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, v)
}

// Stats handles GET /v1/stats.
func (h *BookingHandler) Stats(c echo.Context) error {
	s, err := h.Svc.Stats(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, s)
}

// Book handles POST /v1/seats/:number/bookings.  The JSON body carries
// student_name, registration_number, gender and sport.  Responses:
//
//	201 confirmed
//	422 input rejection (fix the form)
//	403 policy rejection (pick another seat or team)
//	409 seat already booked
//	500 store failure, with the error message
func (h *BookingHandler) Book(c echo.Context) error {
	n, ok := seatParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat number"})
	}
	var req model.BookingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	ctx := c.Request().Context()
	out, err := h.Svc.Submit(ctx, n, req, middleware.Identity(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	switch out.Status {
	case service.StatusConfirmed:
		if h.Cache != nil {
			if err := h.Cache.Invalidate(ctx); err != nil {
				log.Printf("cache invalidate after booking %s: %v", out.Booking.ID, err)
			}
		}
		return c.JSON(http.StatusCreated, out)
	case service.StatusConflict:
		return c.JSON(http.StatusConflict, out)
	default:
		if out.Rejection != nil && out.Rejection.Class == eligibility.ClassPolicy {
			return c.JSON(http.StatusForbidden, out)
		}
		return c.JSON(http.StatusUnprocessableEntity, out)
	}
}

// AdminBookings handles GET /v1/admin/bookings.  Only ADMIN tokens reach it.
func (h *BookingHandler) AdminBookings(c echo.Context) error {
	bookings, err := h.Svc.Bookings(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": bookings, "count": len(bookings)})
}
