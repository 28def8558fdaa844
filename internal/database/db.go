package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// One booking request holds at most one connection for the insert
	// transaction, so a small pool is enough.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// schema creates the bookings table. uq_bookings_seat is the hard guard
// against double booking.
const schema = `CREATE TABLE IF NOT EXISTS bookings (
    id             CHAR(36)     NOT NULL,
    seat_number    INT UNSIGNED NOT NULL,
    student_name   VARCHAR(120) NOT NULL,
    college_reg_no VARCHAR(20)  NOT NULL,
    gender         ENUM('male','female') NOT NULL,
    gender_bucket  ENUM('male','female','shared') NOT NULL,
    sport          VARCHAR(20)  NOT NULL,
    booked_by      VARCHAR(255) NULL,
    created_at     DATETIME     NOT NULL,
    PRIMARY KEY (id),
    UNIQUE KEY uq_bookings_seat (seat_number),
    KEY idx_bookings_bucket (sport, gender_bucket)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// countsSchema holds one counter row per team bucket. Insert locks the
// row by primary key, so racing bookings for an empty bucket queue on a
// single record lock instead of taking gap locks on idx_bookings_bucket.
const countsSchema = `CREATE TABLE IF NOT EXISTS bucket_counts (
    sport         VARCHAR(20)  NOT NULL,
    gender_bucket ENUM('male','female','shared') NOT NULL,
    booked        INT UNSIGNED NOT NULL DEFAULT 0,
    PRIMARY KEY (sport, gender_bucket)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// EnsureSchema creates the bookings and bucket_counts tables when they do
// not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create bookings table: %w", err)
	}
	if _, err := db.ExecContext(ctx, countsSchema); err != nil {
		return fmt.Errorf("create bucket_counts table: %w", err)
	}
	return nil
}
