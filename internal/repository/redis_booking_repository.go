package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/college-bus-booking/internal/ledger"
	"github.com/iliyamo/college-bus-booking/internal/model"
)

// insertScript performs the seat uniqueness check, the optional bucket
// cap check and the write as one atomic step.
//
//	KEYS[1] bookings hash (seat -> booking JSON)
//	KEYS[2] bucket counter hash (sport/gender -> count)
//	ARGV    seat, booking JSON, bucket, max (-1 = unlimited)
//
// Returns 1 on insert, -1 when the seat is taken, -2 when the bucket is full.
var insertScript = redis.NewScript(`
    if redis.call('HEXISTS', KEYS[1], ARGV[1]) == 1 then
        return -1
    end
    local max = tonumber(ARGV[4])
    if max >= 0 then
        local current = tonumber(redis.call('HGET', KEYS[2], ARGV[3]) or '0')
        if current >= max then
            return -2
        end
    end
    redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
    redis.call('HINCRBY', KEYS[2], ARGV[3], 1)
    return 1
`)

// RedisBookingRepo keeps bookings in a Redis hash keyed by seat number.
// It is the store for deployments without MySQL.
type RedisBookingRepo struct {
	rdb    *redis.Client
	prefix string
	limits *ledger.Table
}

// NewRedisBookingRepo returns a store using keys under prefix.
func NewRedisBookingRepo(rdb *redis.Client, prefix string) *RedisBookingRepo {
	if prefix == "" {
		prefix = "bus"
	}
	return &RedisBookingRepo{rdb: rdb, prefix: prefix}
}

// WithCapacity makes Insert enforce table inside the insert script.
func (r *RedisBookingRepo) WithCapacity(table ledger.Table) *RedisBookingRepo {
	r.limits = &table
	return r
}

func (r *RedisBookingRepo) bookingsKey() string { return r.prefix + ":bookings" }
func (r *RedisBookingRepo) bucketsKey() string  { return r.prefix + ":buckets" }

// ListAll returns every booking ordered by seat number.
func (r *RedisBookingRepo) ListAll(ctx context.Context) ([]model.Booking, error) {
	all, err := r.rdb.HGetAll(ctx, r.bookingsKey()).Result()
	if err != nil {
		return nil, err
	}
	out := make([]model.Booking, 0, len(all))
	for field, raw := range all {
		var b model.Booking
		if err := json.Unmarshal([]byte(raw), &b); err != nil {
			return nil, fmt.Errorf("decode booking for seat %s: %w", field, err)
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SeatNumber < out[j].SeatNumber })
	return out, nil
}

// FindBySeat returns the booking for seat, or nil when the seat is free.
func (r *RedisBookingRepo) FindBySeat(ctx context.Context, seat int) (*model.Booking, error) {
	raw, err := r.rdb.HGet(ctx, r.bookingsKey(), strconv.Itoa(seat)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var b model.Booking
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("decode booking for seat %d: %w", seat, err)
	}
	return &b, nil
}

// Insert stores b unless the seat is taken or its bucket is full.
func (r *RedisBookingRepo) Insert(ctx context.Context, b model.Booking) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	body, err := json.Marshal(b)
	if err != nil {
		return err
	}
	bucket := ledger.BucketFor(b.Sport, b.Gender)
	limit := -1
	if r.limits != nil {
		limit = r.limits.Max(bucket)
	}
	res, err := insertScript.Run(ctx, r.rdb,
		[]string{r.bookingsKey(), r.bucketsKey()},
		strconv.Itoa(b.SeatNumber), body, bucket.String(), limit,
	).Int()
	if err != nil {
		return err
	}
	switch res {
	case 1:
		return nil
	case -1:
		return ErrSeatTaken
	case -2:
		return ErrCategoryFull
	}
	return fmt.Errorf("unexpected insert script result %d", res)
}
