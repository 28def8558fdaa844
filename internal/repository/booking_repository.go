package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/college-bus-booking/internal/ledger"
	"github.com/iliyamo/college-bus-booking/internal/model"
)

// BookingRepo stores bookings in the MySQL bookings table. seat_number
// carries a unique key so a second insert for the same seat fails with
// ER_DUP_ENTRY, which Insert reports as ErrSeatTaken. All timestamps are
// stored in UTC.
type BookingRepo struct {
	db     *sql.DB
	limits *ledger.Table
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// WithCapacity makes Insert enforce table inside the insert transaction.
func (r *BookingRepo) WithCapacity(table ledger.Table) *BookingRepo {
	r.limits = &table
	return r
}

const bookingColumns = `id, seat_number, student_name, college_reg_no, gender, sport, booked_by, created_at`

// ListAll returns every booking ordered by seat number.
func (r *BookingRepo) ListAll(ctx context.Context) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY seat_number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// FindBySeat returns the booking for seat, or nil when the seat is free.
func (r *BookingRepo) FindBySeat(ctx context.Context, seat int) (*model.Booking, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE seat_number = ?`, seat)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// SeedBucketCounts creates the bucket_counts row for every bucket in the
// capacity table, counting the bookings already stored. Existing rows are
// left alone. Call it once at startup after database.EnsureSchema.
func (r *BookingRepo) SeedBucketCounts(ctx context.Context) error {
	if r.limits == nil {
		return nil
	}
	const q = `INSERT INTO bucket_counts (sport, gender_bucket, booked)
	           SELECT ?, ?, COUNT(*) FROM bookings WHERE sport = ? AND gender_bucket = ?
	           ON DUPLICATE KEY UPDATE booked = booked`
	for _, lim := range r.limits.Limits {
		sport, gender := string(lim.Bucket.Sport), string(lim.Bucket.Gender)
		if _, err := r.db.ExecContext(ctx, q, sport, gender, sport, gender); err != nil {
			return fmt.Errorf("seed %s counter: %w", lim.Bucket, err)
		}
	}
	return nil
}

// Insert stores b. When a capacity table is configured the bucket's
// bucket_counts row is locked by primary key in the same transaction as
// the insert and bumped before commit, so two writers cannot both take
// the last seat of a team.
func (r *BookingRepo) Insert(ctx context.Context, b model.Booking) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	bucket := ledger.BucketFor(b.Sport, b.Gender)

	limit := 0
	if r.limits != nil {
		limit = r.limits.Max(bucket)
		if limit <= 0 {
			return ErrCategoryFull
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if r.limits != nil {
		var current int
		const lockQ = `SELECT booked FROM bucket_counts WHERE sport = ? AND gender_bucket = ? FOR UPDATE`
		err := tx.QueryRowContext(ctx, lockQ, string(b.Sport), string(bucket.Gender)).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%s counter not seeded", bucket)
		}
		if err != nil {
			return fmt.Errorf("lock %s counter: %w", bucket, err)
		}
		if current >= limit {
			return ErrCategoryFull
		}
	}

	var bookedBy sql.NullString
	if b.BookedBy != "" {
		bookedBy = sql.NullString{String: b.BookedBy, Valid: true}
	}
	const q = `INSERT INTO bookings (id, seat_number, student_name, college_reg_no, gender, gender_bucket, sport, booked_by, created_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, q,
		b.ID, b.SeatNumber, b.StudentName, b.RegistrationNumber,
		string(b.Gender), string(bucket.Gender), string(b.Sport), bookedBy, b.CreatedAt.UTC(),
	); err != nil {
		if isDuplicateKey(err) {
			return ErrSeatTaken
		}
		return err
	}
	if r.limits != nil {
		const bumpQ = `UPDATE bucket_counts SET booked = booked + 1 WHERE sport = ? AND gender_bucket = ?`
		if _, err := tx.ExecContext(ctx, bumpQ, string(b.Sport), string(bucket.Gender)); err != nil {
			return fmt.Errorf("bump %s counter: %w", bucket, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBooking(s scanner) (model.Booking, error) {
	var b model.Booking
	var gender, sport string
	var bookedBy sql.NullString
	if err := s.Scan(&b.ID, &b.SeatNumber, &b.StudentName, &b.RegistrationNumber, &gender, &sport, &bookedBy, &b.CreatedAt); err != nil {
		return model.Booking{}, err
	}
	b.Gender = model.Gender(gender)
	b.Sport = model.Sport(sport)
	if bookedBy.Valid {
		b.BookedBy = bookedBy.String
	}
	b.CreatedAt = b.CreatedAt.UTC()
	return b, nil
}
