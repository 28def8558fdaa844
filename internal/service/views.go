package service

import (
	"context"
	"fmt"

	"github.com/iliyamo/college-bus-booking/internal/ledger"
	"github.com/iliyamo/college-bus-booking/internal/model"
	"github.com/iliyamo/college-bus-booking/internal/seating"
)

// Occupant is the public part of a booking shown on the seat map.
type Occupant struct {
	StudentName string       `json:"student_name"`
	Gender      model.Gender `json:"gender"`
	Sport       model.Sport  `json:"sport"`
}

// SeatView is one seat as the seat map shows it.
type SeatView struct {
	seating.Position
	Restricted bool      `json:"restricted"`
	IsBooked   bool      `json:"is_booked"`
	Booking    *Occupant `json:"booking,omitempty"`
}

// Stats summarises occupancy for the statistics panel.
type Stats struct {
	Deployment string              `json:"deployment"`
	TotalSeats int                 `json:"total_seats"`
	Booked     int                 `json:"booked"`
	Available  int                 `json:"available"`
	Buckets    []ledger.BucketStat `json:"buckets"`
}

func (c *Coordinator) view(pos seating.Position, b *model.Booking) SeatView {
	v := SeatView{Position: pos, Restricted: c.layout.IsRestricted(pos.Seat)}
	if b != nil {
		v.IsBooked = true
		v.Booking = &Occupant{StudentName: b.StudentName, Gender: b.Gender, Sport: b.Sport}
	}
	return v
}

// SeatView returns seat n.  An out-of-range n yields *seating.OutOfRangeError.
func (c *Coordinator) SeatView(ctx context.Context, n int) (SeatView, error) {
	pos, err := seating.LabelFor(n, c.layout)
	if err != nil {
		return SeatView{}, err
	}
	b, err := c.store.FindBySeat(ctx, n)
	if err != nil {
		return SeatView{}, fmt.Errorf("load seat %d: %w", n, err)
	}
	return c.view(pos, b), nil
}

// SeatMap returns every seat in seat-number order.
func (c *Coordinator) SeatMap(ctx context.Context) ([]SeatView, error) {
	bookings, err := c.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	bySeat := make(map[int]*model.Booking, len(bookings))
	for i := range bookings {
		bySeat[bookings[i].SeatNumber] = &bookings[i]
	}
	c.metrics.booked(len(bookings))

	seats := c.layout.Seats()
	out := make([]SeatView, 0, len(seats))
	for _, pos := range seats {
		out = append(out, c.view(pos, bySeat[pos.Seat]))
	}
	return out, nil
}

// Stats returns seat totals and the per-team breakdown.
func (c *Coordinator) Stats(ctx context.Context) (Stats, error) {
	bookings, err := c.store.ListAll(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("list bookings: %w", err)
	}
	l := ledger.Build(bookings)
	c.metrics.booked(l.TotalBooked())
	capacity := c.layout.Capacity()
	return Stats{
		Deployment: c.deployment,
		TotalSeats: capacity,
		Booked:     l.TotalBooked(),
		Available:  l.TotalAvailable(capacity),
		Buckets:    l.Breakdown(c.table),
	}, nil
}

// Bookings returns every stored booking, including registration numbers.
func (c *Coordinator) Bookings(ctx context.Context) ([]model.Booking, error) {
	bookings, err := c.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}
