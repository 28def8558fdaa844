package seating

import (
	"fmt"
	"strconv"
)

// Block names the part of a row a seat sits in.
type Block string

const (
	BlockLeft   Block = "left"
	BlockMiddle Block = "middle"
	BlockRight  Block = "right"
)

// Position is the derived location of one seat.
type Position struct {
	Seat     int      `json:"seat_number"`
	Label    string   `json:"label"`
	Row      string   `json:"row"`
	RowIndex int      `json:"row_index"`
	InRow    int      `json:"position"`
	Block    Block    `json:"block"`
	Category Category `json:"category"`
}

// OutOfRangeError reports a seat number outside [1, Capacity].
type OutOfRangeError struct {
	Seat     int
	Capacity int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("seat %d out of range [1, %d]", e.Seat, e.Capacity)
}

// LabelFor locates seat in the layout.  The row is the first row whose
// cumulative size exceeds seat-1; the position counts left, middle, then
// right block seats, so a 2+3 row yields labels 1..5 in that order.
func LabelFor(seat int, l Layout) (Position, error) {
	capacity := l.Capacity()
	if seat < 1 || seat > capacity {
		return Position{}, &OutOfRangeError{Seat: seat, Capacity: capacity}
	}
	start := 1
	for i, r := range l.Rows {
		if seat < start+r.Size() {
			in := seat - start + 1
			return Position{
				Seat:     seat,
				Label:    r.Label + strconv.Itoa(in),
				Row:      r.Label,
				RowIndex: i,
				InRow:    in,
				Block:    blockOf(r, in),
				Category: l.categoryOf(i, in),
			}, nil
		}
		start += r.Size()
	}
	// unreachable: seat <= capacity
	return Position{}, &OutOfRangeError{Seat: seat, Capacity: capacity}
}

// Seats enumerates every position in seat-number order.
func (l Layout) Seats() []Position {
	out := make([]Position, 0, l.Capacity())
	seat := 1
	for i, r := range l.Rows {
		for in := 1; in <= r.Size(); in++ {
			out = append(out, Position{
				Seat:     seat,
				Label:    r.Label + strconv.Itoa(in),
				Row:      r.Label,
				RowIndex: i,
				InRow:    in,
				Block:    blockOf(r, in),
				Category: l.categoryOf(i, in),
			})
			seat++
		}
	}
	return out
}

func blockOf(r Row, in int) Block {
	switch {
	case in <= r.Left:
		return BlockLeft
	case in <= r.Left+r.Middle:
		return BlockMiddle
	default:
		return BlockRight
	}
}

func (l Layout) categoryOf(rowIndex, in int) Category {
	switch {
	case rowIndex == 0:
		if l.FrontSeats == 0 || in <= l.FrontSeats {
			return CategoryFrontRow
		}
		if len(l.Rows) == 1 {
			return CategoryLastRow
		}
		return CategoryRegular
	case rowIndex == len(l.Rows)-1:
		return CategoryLastRow
	default:
		return CategoryRegular
	}
}
