package model

import (
	"strings"
	"time"
)

// Gender of the passenger.  It is also the capacity-accounting dimension
// for gender-specific sports.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Sport is the team a booking counts against.  Faculty is treated as a
// sport so that faculty seats share the same capacity table.
type Sport string

const (
	SportCricket    Sport = "cricket"
	SportVolleyball Sport = "volleyball"
	SportBasketball Sport = "basketball"
	SportFootball   Sport = "football"
	SportPool       Sport = "8ballpool"
	SportFaculty    Sport = "faculty"
)

// Sports lists every accepted sport in display order.
var Sports = []Sport{SportCricket, SportVolleyball, SportBasketball, SportFootball, SportPool, SportFaculty}

// FacultyRegistrationNumber is stored in place of a registration number
// for faculty bookings.
const FacultyRegistrationNumber = "FACULTY"

// ParseGender normalises raw input ("Male", " female ") into a Gender.
func ParseGender(raw string) (Gender, bool) {
	switch g := Gender(strings.ToLower(strings.TrimSpace(raw))); g {
	case GenderMale, GenderFemale:
		return g, true
	}
	return "", false
}

// ParseSport normalises raw input into a Sport.  "8-ball-pool" and
// "pool" are accepted as aliases of 8ballpool.
func ParseSport(raw string) (Sport, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "8-ball-pool", "8 ball pool", "pool":
		return SportPool, true
	}
	for _, sp := range Sports {
		if Sport(s) == sp {
			return sp, true
		}
	}
	return "", false
}

// IsShared reports whether a sport is gender-agnostic for capacity
// accounting (faculty and pool share a single cap).
func (s Sport) IsShared() bool {
	return s == SportFaculty || s == SportPool
}

// Booking is one persisted seat pick.  A booking is created once and never
// edited; seat_number is unique in every store.
//
// Fields:
//
//	ID                 – opaque identifier (uuid).
//	SeatNumber         – 1-based seat number, unique key.
//	StudentName        – trimmed passenger name.
//	RegistrationNumber – upper-cased college reg no, FACULTY for faculty.
//	Gender             – male or female.
//	Sport              – team the seat counts against.
//	BookedBy           – signed-in identity, empty for anonymous bookings.
//	CreatedAt          – creation timestamp (UTC).
type Booking struct {
	ID                 string    `json:"id"`
	SeatNumber         int       `json:"seat_number"`
	StudentName        string    `json:"student_name"`
	RegistrationNumber string    `json:"registration_number"`
	Gender             Gender    `json:"gender"`
	Sport              Sport     `json:"sport"`
	BookedBy           string    `json:"booked_by,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// BookingRequest is the raw form input for one seat.  Values are
// validated and normalised by the eligibility engine.
type BookingRequest struct {
	StudentName        string `json:"student_name"`
	RegistrationNumber string `json:"registration_number"`
	Gender             string `json:"gender"`
	Sport              string `json:"sport"`
}
