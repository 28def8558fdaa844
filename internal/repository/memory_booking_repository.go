package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/college-bus-booking/internal/ledger"
	"github.com/iliyamo/college-bus-booking/internal/model"
)

// MemoryBookingRepo is a process-local store for development and tests.
// A single mutex makes Insert an atomic insert-if-absent.
type MemoryBookingRepo struct {
	mu     sync.Mutex
	seats  map[int]model.Booking
	limits *ledger.Table
}

// NewMemoryBookingRepo returns an empty store.
func NewMemoryBookingRepo() *MemoryBookingRepo {
	return &MemoryBookingRepo{seats: make(map[int]model.Booking)}
}

// WithCapacity makes Insert enforce table under the store lock.
func (r *MemoryBookingRepo) WithCapacity(table ledger.Table) *MemoryBookingRepo {
	r.limits = &table
	return r
}

func (r *MemoryBookingRepo) ListAll(_ context.Context) ([]model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Booking, 0, len(r.seats))
	for _, b := range r.seats {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SeatNumber < out[j].SeatNumber })
	return out, nil
}

func (r *MemoryBookingRepo) FindBySeat(_ context.Context, seat int) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.seats[seat]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (r *MemoryBookingRepo) Insert(_ context.Context, b model.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.seats[b.SeatNumber]; taken {
		return ErrSeatTaken
	}
	if r.limits != nil {
		bucket := ledger.BucketFor(b.Sport, b.Gender)
		current := 0
		for _, existing := range r.seats {
			if ledger.BucketFor(existing.Sport, existing.Gender) == bucket {
				current++
			}
		}
		if current >= r.limits.Max(bucket) {
			return ErrCategoryFull
		}
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	r.seats[b.SeatNumber] = b
	return nil
}
