// Package service coordinates seat bookings: it resolves the seat, checks
// eligibility against the current bookings and hands the accepted booking
// to the store, reporting exactly one outcome per submission.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/college-bus-booking/internal/config"
	"github.com/iliyamo/college-bus-booking/internal/eligibility"
	"github.com/iliyamo/college-bus-booking/internal/ledger"
	"github.com/iliyamo/college-bus-booking/internal/model"
	"github.com/iliyamo/college-bus-booking/internal/queue"
	"github.com/iliyamo/college-bus-booking/internal/repository"
	"github.com/iliyamo/college-bus-booking/internal/seating"
)

// BookingStore is the persistence the coordinator needs.  Insert must be
// an atomic insert-if-absent on the seat number and report a taken seat
// as repository.ErrSeatTaken.
type BookingStore interface {
	ListAll(ctx context.Context) ([]model.Booking, error)
	FindBySeat(ctx context.Context, seat int) (*model.Booking, error)
	Insert(ctx context.Context, b model.Booking) error
}

// EventPublisher receives confirmed bookings.
type EventPublisher interface {
	PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error
}

// Status is the terminal state of one submission.
type Status string

const (
	StatusConfirmed Status = "Confirmed"
	StatusRejected  Status = "Rejected"
	StatusConflict  Status = "Conflict"
)

// Outcome is the result of Submit.  Booking is set when confirmed,
// Rejection otherwise.
type Outcome struct {
	Status    Status                 `json:"status"`
	Booking   *model.Booking         `json:"booking,omitempty"`
	Rejection *eligibility.Rejection `json:"rejection,omitempty"`
}

const publishTimeout = 3 * time.Second

// Coordinator runs the booking flow for one deployment.
type Coordinator struct {
	deployment string
	layout     seating.Layout
	table      ledger.Table
	engine     *eligibility.Engine
	store      BookingStore
	publisher  EventPublisher
	logger     *slog.Logger
	metrics    *Metrics
	now        func() time.Time
	newID      func() string
}

// Option customises a Coordinator.
type Option func(*Coordinator)

// WithPublisher sends a BookingConfirmedEvent after every confirmed booking.
func WithPublisher(p EventPublisher) Option { return func(c *Coordinator) { c.publisher = p } }

// WithLogger replaces slog.Default.
func WithLogger(l *slog.Logger) Option { return func(c *Coordinator) { c.logger = l } }

// WithMetrics records attempts and the booked-seat gauge.
func WithMetrics(m *Metrics) Option { return func(c *Coordinator) { c.metrics = m } }

// WithClock overrides time.Now for CreatedAt.
func WithClock(now func() time.Time) Option { return func(c *Coordinator) { c.now = now } }

// NewCoordinator builds a coordinator for d backed by store.
func NewCoordinator(d config.Deployment, store BookingStore, opts ...Option) *Coordinator {
	c := &Coordinator{
		deployment: d.Name,
		layout:     d.Layout,
		table:      d.Capacity,
		engine:     eligibility.New(d.Layout, d.Capacity),
		store:      store,
		logger:     slog.Default(),
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit tries to book seat for req.  identity is recorded as BookedBy
// and plays no part in eligibility.  The returned error is non-nil only
// for store failures; every business outcome is reported in Outcome.
func (c *Coordinator) Submit(ctx context.Context, seat int, req model.BookingRequest, identity string) (Outcome, error) {
	log := c.logger.With("seat", seat, "sport", req.Sport, "gender", req.Gender)

	pos, err := seating.LabelFor(seat, c.layout)
	if err != nil {
		return c.reject(log, StatusRejected, eligibility.Reject(eligibility.ReasonSeatOutOfRange,
			"Seat %d does not exist on this bus. Choose a seat between 1 and %d.", seat, c.layout.Capacity())), nil
	}
	log = log.With("label", pos.Label)

	existing, err := c.store.FindBySeat(ctx, seat)
	if err != nil {
		return c.fail(log, fmt.Errorf("check seat %d: %w", seat, err))
	}
	if existing != nil {
		return c.reject(log, StatusConflict, seatTaken(pos)), nil
	}

	bookings, err := c.store.ListAll(ctx)
	if err != nil {
		return c.fail(log, fmt.Errorf("list bookings: %w", err))
	}
	booking, rejection := c.engine.Validate(req, pos, ledger.Build(bookings))
	if rejection != nil {
		return c.reject(log, StatusRejected, rejection), nil
	}

	booking.ID = c.newID()
	booking.SeatNumber = seat
	booking.BookedBy = identity
	booking.CreatedAt = c.now().UTC()

	switch err := c.store.Insert(ctx, booking); {
	case errors.Is(err, repository.ErrSeatTaken):
		return c.reject(log, StatusConflict, seatTaken(pos)), nil
	case errors.Is(err, repository.ErrCategoryFull):
		bucket := ledger.BucketFor(booking.Sport, booking.Gender)
		return c.reject(log, StatusRejected, eligibility.Reject(eligibility.ReasonCategoryFull,
			"%s team (%s) is full. Please select another team.", booking.Sport, bucket.Gender)), nil
	case err != nil:
		return c.fail(log, fmt.Errorf("insert booking for seat %d: %w", seat, err))
	}

	log.Info("booking confirmed", "booking_id", booking.ID, "outcome", StatusConfirmed)
	c.metrics.attempt("confirmed", "")
	c.metrics.booked(len(bookings) + 1)
	c.publish(ctx, log, booking, pos)
	return Outcome{Status: StatusConfirmed, Booking: &booking}, nil
}

func (c *Coordinator) reject(log *slog.Logger, status Status, r *eligibility.Rejection) Outcome {
	outcome := strings.ToLower(string(status))
	log.Info("booking "+outcome, "outcome", status, "reason", r.Reason, "class", r.Class)
	c.metrics.attempt(outcome, string(r.Reason))
	return Outcome{Status: status, Rejection: r}
}

func (c *Coordinator) fail(log *slog.Logger, err error) (Outcome, error) {
	log.Error("booking failed", "err", err)
	c.metrics.attempt("error", "")
	return Outcome{}, err
}

// publish is best effort; a broker outage never undoes a stored booking.
func (c *Coordinator) publish(ctx context.Context, log *slog.Logger, b model.Booking, pos seating.Position) {
	if c.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := c.publisher.PublishBookingConfirmed(ctx, queue.NewBookingConfirmedEvent(b, pos.Label, c.deployment)); err != nil {
		log.Warn("publish booking event failed", "booking_id", b.ID, "err", err)
	}
}

func seatTaken(pos seating.Position) *eligibility.Rejection {
	return eligibility.Reject(eligibility.ReasonSeatAlreadyBooked,
		"Seat %s was just booked by someone else. Please pick another seat.", pos.Label)
}
