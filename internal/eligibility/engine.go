// Package eligibility decides whether a booking request may take a seat.
// Rules run in a fixed order against one ledger snapshot and the first
// failing rule wins.
package eligibility

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/iliyamo/college-bus-booking/internal/ledger"
	"github.com/iliyamo/college-bus-booking/internal/model"
	"github.com/iliyamo/college-bus-booking/internal/seating"
)

var regNoPattern = regexp.MustCompile(`^[A-Za-z0-9]{8,20}$`)

// MaxNameLength is the longest student name, in characters, that the
// bookings.student_name column holds.
const MaxNameLength = 120

// Engine applies the booking rules for one deployment.
type Engine struct {
	layout seating.Layout
	table  ledger.Table
}

// New returns an engine bound to a layout and capacity table.
func New(layout seating.Layout, table ledger.Table) *Engine {
	return &Engine{layout: layout, table: table}
}

// Validate checks req for seat against the snapshot and returns the
// normalised booking on success.  The snapshot is only read.
//
// Order: name, field domain, registration number, row restriction for
// gender, front-row reservation, team capacity.
func (e *Engine) Validate(req model.BookingRequest, seat seating.Position, snapshot ledger.Ledger) (model.Booking, *Rejection) {
	name := strings.TrimSpace(req.StudentName)
	if name == "" {
		return model.Booking{}, Reject(ReasonMissingName, "Please enter your full name")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return model.Booking{}, Reject(ReasonInvalidName, "Please keep your name to %d characters or fewer", MaxNameLength)
	}

	gender, ok := model.ParseGender(req.Gender)
	if !ok {
		return model.Booking{}, Reject(ReasonInvalidGender, "Please choose male or female.")
	}
	sport, ok := model.ParseSport(req.Sport)
	if !ok {
		return model.Booking{}, Reject(ReasonUnknownSport, "Unknown sport team %q.", req.Sport)
	}

	regNo := model.FacultyRegistrationNumber
	if sport != model.SportFaculty {
		regNo = strings.TrimSpace(req.RegistrationNumber)
		if regNo == "" {
			return model.Booking{}, Reject(ReasonMissingRegNo, "Please enter your college registration number")
		}
		if !regNoPattern.MatchString(regNo) {
			return model.Booking{}, Reject(ReasonInvalidRegNoFormat,
				"Please enter a valid college registration number (8-20 characters, letters and numbers only)")
		}
		regNo = strings.ToUpper(regNo)
	}

	if gender == model.GenderFemale && e.layout.IsRestricted(seat.Seat) {
		last := e.layout.Rows[len(e.layout.Rows)-1].Label
		return model.Booking{}, Reject(ReasonRestrictedRowForGender,
			"Female bookings are not allowed in rows %s–%s. Please pick a seat before row %s.",
			e.layout.RestrictedFromRow, last, e.layout.RestrictedFromRow)
	}

	if seat.Category == seating.CategoryFrontRow && sport != model.SportFaculty {
		return model.Booking{}, Reject(ReasonFrontRowFaculty, "Front row seat %s is reserved for faculty only.", seat.Label)
	}

	bucket := ledger.BucketFor(sport, gender)
	if snapshot.Count(bucket) >= e.table.Max(bucket) {
		return model.Booking{}, Reject(ReasonCategoryFull, "%s team (%s) is full. Please select another team.", sport, bucket.Gender)
	}

	return model.Booking{
		SeatNumber:         seat.Seat,
		StudentName:        name,
		RegistrationNumber: regNo,
		Gender:             gender,
		Sport:              sport,
	}, nil
}

// Layout returns the layout the engine validates against.
func (e *Engine) Layout() seating.Layout { return e.layout }

// Table returns the capacity table the engine validates against.
func (e *Engine) Table() ledger.Table { return e.table }
