package ledger

import (
	"errors"
	"fmt"

	"github.com/iliyamo/college-bus-booking/internal/model"
)

// ErrInvalidTable is returned for malformed capacity tables.
var ErrInvalidTable = errors.New("invalid capacity table")

// Limit is one configured maximum.
type Limit struct {
	Bucket Bucket
	Max    int
}

// Table is a deployment's capacity table.  Buckets that are not listed
// have a maximum of zero, which makes every booking against them full.
type Table struct {
	Limits []Limit
	index  map[Bucket]int
}

// NewTable validates limits and indexes them.  Gender buckets must be
// male, female or shared.  Shared sports must use the shared bucket and
// gendered sports must not.
func NewTable(limits []Limit) (Table, error) {
	t := Table{Limits: append([]Limit(nil), limits...), index: make(map[Bucket]int, len(limits))}
	for _, lim := range t.Limits {
		if lim.Max < 0 {
			return Table{}, fmt.Errorf("%w: %s has negative max %d", ErrInvalidTable, lim.Bucket, lim.Max)
		}
		switch lim.Bucket.Gender {
		case BucketMale, BucketFemale, BucketShared:
		default:
			return Table{}, fmt.Errorf("%w: unknown gender bucket %q for %s", ErrInvalidTable, lim.Bucket.Gender, lim.Bucket.Sport)
		}
		if lim.Bucket.Sport.IsShared() != (lim.Bucket.Gender == BucketShared) {
			return Table{}, fmt.Errorf("%w: %s uses the wrong gender bucket", ErrInvalidTable, lim.Bucket)
		}
		if !knownSport(lim.Bucket.Sport) {
			return Table{}, fmt.Errorf("%w: unknown sport %q", ErrInvalidTable, lim.Bucket.Sport)
		}
		if _, dup := t.index[lim.Bucket]; dup {
			return Table{}, fmt.Errorf("%w: %s listed twice", ErrInvalidTable, lim.Bucket)
		}
		t.index[lim.Bucket] = lim.Max
	}
	return t, nil
}

// Max returns the configured maximum for b, zero when unlisted.
func (t Table) Max(b Bucket) int { return t.index[b] }

// Total is the sum of all maxima.
func (t Table) Total() int {
	n := 0
	for _, lim := range t.Limits {
		n += lim.Max
	}
	return n
}

func knownSport(s model.Sport) bool {
	for _, sp := range model.Sports {
		if sp == s {
			return true
		}
	}
	return false
}
