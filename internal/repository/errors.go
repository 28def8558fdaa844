// Package repository defines error types that are reused across the
// booking stores. These sentinel values allow higher layers such as
// the booking coordinator to tell a lost race for a seat apart from a
// full team and from an unreachable store.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrSeatTaken is returned by Insert when another booking already holds
// the seat number. Callers should translate this into a conflict and
// refresh the seat map.
var ErrSeatTaken = errors.New("seat already booked")

// ErrCategoryFull is returned by Insert when the store enforces the
// capacity table and the booking's team bucket is already at its
// maximum. The store's answer is authoritative over any earlier
// client-side check.
var ErrCategoryFull = errors.New("team limit exceeded")

// mysqlDuplicateEntry is MySQL's ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
