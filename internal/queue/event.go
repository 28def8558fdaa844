// Package queue defines message payloads exchanged over the message broker.
package queue

import (
    "time"

    "github.com/iliyamo/college-bus-booking/internal/model"
)

// BookingQueueName is the durable queue that carries confirmed bookings.
const BookingQueueName = "booking.confirmed"

// BookingConfirmedEvent is published when a seat booking is stored.  It
// contains enough information for downstream consumers to log or notify
// without querying the booking store.
type BookingConfirmedEvent struct {
    BookingID   string `json:"booking_id"`
    SeatNumber  int    `json:"seat_number"`
    SeatLabel   string `json:"seat_label"`
    StudentName string `json:"student_name"`
    Gender      string `json:"gender"`
    Sport       string `json:"sport"`
    Deployment  string `json:"deployment"`
    ConfirmedAt string `json:"confirmed_at"`
}

// NewBookingConfirmedEvent builds the event for a stored booking.
func NewBookingConfirmedEvent(b model.Booking, seatLabel, deployment string) BookingConfirmedEvent {
    at := b.CreatedAt
    if at.IsZero() {
        at = time.Now()
    }
    return BookingConfirmedEvent{
        BookingID:   b.ID,
        SeatNumber:  b.SeatNumber,
        SeatLabel:   seatLabel,
        StudentName: b.StudentName,
        Gender:      string(b.Gender),
        Sport:       string(b.Sport),
        Deployment:  deployment,
        ConfirmedAt: at.UTC().Format(time.RFC3339),
    }
}
