// Package ledger aggregates bookings into per-team occupancy counts and
// holds the capacity table those counts are checked against.
package ledger

import (
	"github.com/iliyamo/college-bus-booking/internal/model"
)

// GenderBucket is the capacity-accounting dimension.  Faculty and pool
// bookings share a single bucket regardless of gender.
type GenderBucket string

const (
	BucketMale   GenderBucket = "male"
	BucketFemale GenderBucket = "female"
	BucketShared GenderBucket = "shared"
)

// Bucket keys one row of the capacity table.
type Bucket struct {
	Sport  model.Sport  `json:"sport"`
	Gender GenderBucket `json:"gender"`
}

func (b Bucket) String() string { return string(b.Sport) + "/" + string(b.Gender) }

// BucketFor maps a sport and gender onto the bucket it counts against.
func BucketFor(sport model.Sport, gender model.Gender) Bucket {
	if sport.IsShared() {
		return Bucket{Sport: sport, Gender: BucketShared}
	}
	if gender == model.GenderFemale {
		return Bucket{Sport: sport, Gender: BucketFemale}
	}
	return Bucket{Sport: sport, Gender: BucketMale}
}

// Ledger is a point-in-time count of bookings per bucket.  It is built
// from a booking snapshot and never updated in place.
type Ledger struct {
	counts map[Bucket]int
	total  int
}

// Build counts bookings per bucket in a single pass.
func Build(bookings []model.Booking) Ledger {
	l := Ledger{counts: make(map[Bucket]int)}
	for _, b := range bookings {
		l.counts[BucketFor(b.Sport, b.Gender)]++
		l.total++
	}
	return l
}

// Count returns the number of bookings in bucket.
func (l Ledger) Count(b Bucket) int { return l.counts[b] }

// TotalBooked is the number of bookings in the snapshot.
func (l Ledger) TotalBooked() int { return l.total }

// TotalAvailable is capacity minus booked seats, floored at zero.
func (l Ledger) TotalAvailable(capacity int) int {
	if n := capacity - l.total; n > 0 {
		return n
	}
	return 0
}

// Counts returns a copy of every non-zero bucket count.
func (l Ledger) Counts() map[Bucket]int {
	out := make(map[Bucket]int, len(l.counts))
	for k, v := range l.counts {
		out[k] = v
	}
	return out
}

// BucketStat is one line of the per-team breakdown.
type BucketStat struct {
	Bucket
	Current   int `json:"current"`
	Max       int `json:"max"`
	Available int `json:"available"`
}

// Breakdown reports current, max and available seats for every bucket of
// the table, in table order.
func (l Ledger) Breakdown(t Table) []BucketStat {
	out := make([]BucketStat, 0, len(t.Limits))
	for _, lim := range t.Limits {
		cur := l.counts[lim.Bucket]
		avail := lim.Max - cur
		if avail < 0 {
			avail = 0
		}
		out = append(out, BucketStat{Bucket: lim.Bucket, Current: cur, Max: lim.Max, Available: avail})
	}
	return out
}
