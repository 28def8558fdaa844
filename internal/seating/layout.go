// Package seating maps seat numbers onto the bus row geometry.  A Layout
// is plain data: an ordered list of rows, each split into a left block,
// an optional middle block and a right block.  Seat numbers run from 1
// through the layout capacity, row after row, and within a row they run
// left block first, then middle, then right.
package seating

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidLayout is returned when a row table breaks a layout invariant
// (empty or duplicate labels, negative widths, a capacity mismatch).
var ErrInvalidLayout = errors.New("invalid row layout")

// Category classifies a seat by its row position.
type Category string

const (
	CategoryFrontRow Category = "front-row"
	CategoryRegular  Category = "regular"
	CategoryLastRow  Category = "last-row"
)

// Row describes one row of seats.
type Row struct {
	Label  string `yaml:"label" json:"label"`
	Left   int    `yaml:"left" json:"left"`
	Middle int    `yaml:"middle" json:"middle"`
	Right  int    `yaml:"right" json:"right"`
}

// Size is the number of seats in the row.
func (r Row) Size() int { return r.Left + r.Middle + r.Right }

// Layout is the full row table of one bus plus the row-derived policy
// markers used by the eligibility rules.
//
// FrontSeats limits the front-row category to the first N seats of row
// zero; zero means the whole first row.  RestrictedFromRow names the first
// row of the trailing block closed to female passengers; empty disables
// the restriction.
type Layout struct {
	Rows              []Row
	FrontSeats        int
	RestrictedFromRow string
}

// Formulaic builds a layout of identical rows labelled A, B, C, ...  When
// capacity is not a multiple of the row width the last row holds the
// remainder, filled left block first, then middle, then right.
func Formulaic(capacity, left, middle, right int) (Layout, error) {
	width := left + middle + right
	if capacity <= 0 || left < 0 || middle < 0 || right < 0 || width == 0 {
		return Layout{}, fmt.Errorf("%w: capacity %d with row %d+%d+%d", ErrInvalidLayout, capacity, left, middle, right)
	}
	full, rem := capacity/width, capacity%width
	rows := make([]Row, 0, full+1)
	for i := 0; i < full; i++ {
		rows = append(rows, Row{Label: RowLabel(i), Left: left, Middle: middle, Right: right})
	}
	if rem > 0 {
		l := min(left, rem)
		rem -= l
		m := min(middle, rem)
		rem -= m
		rows = append(rows, Row{Label: RowLabel(full), Left: l, Middle: m, Right: rem})
	}
	return Layout{Rows: rows}, nil
}

// Explicit wraps a supplied row table.  A positive capacity must match
// the table sum exactly; zero skips that check.
func Explicit(rows []Row, capacity int) (Layout, error) {
	l := Layout{Rows: append([]Row(nil), rows...)}
	if err := l.Validate(); err != nil {
		return Layout{}, err
	}
	if capacity > 0 && l.Capacity() != capacity {
		return Layout{}, fmt.Errorf("%w: rows hold %d seats, capacity is %d", ErrInvalidLayout, l.Capacity(), capacity)
	}
	return l, nil
}

// Validate checks the row table and the policy markers.
func (l Layout) Validate() error {
	if len(l.Rows) == 0 {
		return fmt.Errorf("%w: no rows", ErrInvalidLayout)
	}
	seen := make(map[string]struct{}, len(l.Rows))
	for i, r := range l.Rows {
		label := strings.TrimSpace(r.Label)
		if label == "" {
			return fmt.Errorf("%w: row %d has no label", ErrInvalidLayout, i)
		}
		if label != r.Label {
			return fmt.Errorf("%w: row %d label %q has surrounding spaces", ErrInvalidLayout, i, r.Label)
		}
		if _, dup := seen[label]; dup {
			return fmt.Errorf("%w: duplicate row label %q", ErrInvalidLayout, label)
		}
		seen[label] = struct{}{}
		if r.Left < 0 || r.Middle < 0 || r.Right < 0 || r.Size() == 0 {
			return fmt.Errorf("%w: row %s has widths %d+%d+%d", ErrInvalidLayout, label, r.Left, r.Middle, r.Right)
		}
	}
	if l.FrontSeats < 0 || l.FrontSeats > l.Rows[0].Size() {
		return fmt.Errorf("%w: front seats %d outside row %s", ErrInvalidLayout, l.FrontSeats, l.Rows[0].Label)
	}
	if l.RestrictedFromRow != "" {
		if _, ok := l.FirstSeatOfRow(l.RestrictedFromRow); !ok {
			return fmt.Errorf("%w: restricted row %q not in layout", ErrInvalidLayout, l.RestrictedFromRow)
		}
	}
	return nil
}

// Capacity is the total number of seats.
func (l Layout) Capacity() int {
	n := 0
	for _, r := range l.Rows {
		n += r.Size()
	}
	return n
}

// FirstSeatOfRow returns the seat number of the first seat in the named row.
func (l Layout) FirstSeatOfRow(label string) (int, bool) {
	next := 1
	for _, r := range l.Rows {
		if r.Label == label {
			return next, true
		}
		next += r.Size()
	}
	return 0, false
}

// RestrictedBoundary is the first seat number of the restricted trailing
// block, recomputed from the rows on every call.  ok is false when the
// layout has no restricted block.
func (l Layout) RestrictedBoundary() (seat int, ok bool) {
	if l.RestrictedFromRow == "" {
		return 0, false
	}
	return l.FirstSeatOfRow(l.RestrictedFromRow)
}

// IsRestricted reports whether seat lies in the restricted trailing block.
func (l Layout) IsRestricted(seat int) bool {
	boundary, ok := l.RestrictedBoundary()
	return ok && seat >= boundary && seat <= l.Capacity()
}

// RowLabel converts a zero-based row index to A, B, ... Z, AA, AB, ...
func RowLabel(i int) string {
	if i < 0 {
		return ""
	}
	res := []rune{}
	for {
		res = append(res, rune('A'+i%26))
		i = i/26 - 1
		if i < 0 {
			break
		}
	}
	for j, k := 0, len(res)-1; j < k; j, k = j+1, k-1 {
		res[j], res[k] = res[k], res[j]
	}
	return string(res)
}
