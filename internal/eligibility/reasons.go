package eligibility

import "fmt"

// Reason names the rule a booking attempt failed.
type Reason string

const (
	ReasonInvalidGender          Reason = "InvalidGender"
	ReasonUnknownSport           Reason = "UnknownSport"
	ReasonMissingName            Reason = "MissingName"
	ReasonInvalidName            Reason = "InvalidName"
	ReasonMissingRegNo           Reason = "MissingRegNo"
	ReasonInvalidRegNoFormat     Reason = "InvalidRegNoFormat"
	ReasonRestrictedRowForGender Reason = "RestrictedRowForGender"
	ReasonFrontRowFaculty        Reason = "FrontRowReservedForFaculty"
	ReasonCategoryFull           Reason = "CategoryFull"
	ReasonSeatOutOfRange         Reason = "SeatOutOfRange"
	ReasonSeatAlreadyBooked      Reason = "SeatAlreadyBooked"
)

// Class groups reasons by how callers should react: input errors are
// fixed in the form, policy errors need a different seat or team, and
// conflicts need a refreshed seat map.
type Class string

const (
	ClassInput    Class = "input"
	ClassPolicy   Class = "policy"
	ClassConflict Class = "conflict"
)

// Class returns the class of r.
func (r Reason) Class() Class {
	switch r {
	case ReasonRestrictedRowForGender, ReasonFrontRowFaculty, ReasonCategoryFull:
		return ClassPolicy
	case ReasonSeatAlreadyBooked:
		return ClassConflict
	default:
		return ClassInput
	}
}

// Rejection is a failed rule with a message fit to show the user.
type Rejection struct {
	Reason  Reason `json:"reason"`
	Class   Class  `json:"class"`
	Message string `json:"message"`
}

func (r *Rejection) Error() string { return string(r.Reason) + ": " + r.Message }

// Reject builds a Rejection for reason with a formatted message.
func Reject(reason Reason, format string, args ...any) *Rejection {
	return &Rejection{Reason: reason, Class: reason.Class(), Message: fmt.Sprintf(format, args...)}
}
