package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/college-bus-booking/internal/ledger"
	"github.com/iliyamo/college-bus-booking/internal/model"
)

var (
	selectAllQ = regexp.QuoteMeta(`SELECT ` + bookingColumns + ` FROM bookings ORDER BY seat_number`)
	selectOneQ = regexp.QuoteMeta(`SELECT ` + bookingColumns + ` FROM bookings WHERE seat_number = ?`)
	lockQ      = regexp.QuoteMeta(`SELECT booked FROM bucket_counts WHERE sport = ? AND gender_bucket = ? FOR UPDATE`)
	bumpQ      = regexp.QuoteMeta(`UPDATE bucket_counts SET booked = booked + 1 WHERE sport = ? AND gender_bucket = ?`)
	seedQ      = regexp.QuoteMeta(`INSERT INTO bucket_counts (sport, gender_bucket, booked)`)
	insertQ    = regexp.QuoteMeta(`INSERT INTO bookings (id, seat_number, student_name, college_reg_no, gender, gender_bucket, sport, booked_by, created_at)`)
	columns    = []string{"id", "seat_number", "student_name", "college_reg_no", "gender", "sport", "booked_by", "created_at"}
)

func cricketTable(t *testing.T, limit int) ledger.Table {
	t.Helper()
	table, err := ledger.NewTable([]ledger.Limit{
		{Bucket: ledger.Bucket{Sport: model.SportCricket, Gender: ledger.BucketMale}, Max: limit},
	})
	require.NoError(t, err)
	return table
}

func cricketBooking(seat int) model.Booking {
	return model.Booking{
		ID:                 "b-" + time.Now().Format("150405.000000"),
		SeatNumber:         seat,
		StudentName:        "Parth Singh",
		RegistrationNumber: "RA2211026030016",
		Gender:             model.GenderMale,
		Sport:              model.SportCricket,
	}
}

func TestBookingRepo_ListAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery(selectAllQ).WillReturnRows(sqlmock.NewRows(columns).
		AddRow("a", 1, "Dr. Rao", "FACULTY", "male", "faculty", nil, now).
		AddRow("b", 7, "Asha", "RA2211026030016", "female", "volleyball", "user-42", now))

	got, err := NewBookingRepo(db).ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, model.SportFaculty, got[0].Sport)
	assert.Empty(t, got[0].BookedBy)
	assert.Equal(t, 7, got[1].SeatNumber)
	assert.Equal(t, model.GenderFemale, got[1].Gender)
	assert.Equal(t, "user-42", got[1].BookedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepo_FindBySeat(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewBookingRepo(db)

	mock.ExpectQuery(selectOneQ).WithArgs(3).WillReturnRows(sqlmock.NewRows(columns))
	got, err := repo.FindBySeat(context.Background(), 3)
	require.NoError(t, err)
	assert.Nil(t, got)

	mock.ExpectQuery(selectOneQ).WithArgs(4).WillReturnRows(sqlmock.NewRows(columns).
		AddRow("a", 4, "Asha", "RA2211026030016", "female", "basketball", nil, time.Now()))
	got, err = repo.FindBySeat(context.Background(), 4)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.SportBasketball, got.Sport)

	mock.ExpectQuery(selectOneQ).WithArgs(5).WillReturnError(errors.New("connection refused"))
	_, err = repo.FindBySeat(context.Background(), 5)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepo_Insert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	b := cricketBooking(10)
	mock.ExpectBegin()
	mock.ExpectExec(insertQ).
		WithArgs(b.ID, 10, b.StudentName, b.RegistrationNumber, "male", "male", "cricket", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, NewBookingRepo(db).Insert(context.Background(), b))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepo_InsertDuplicateSeat(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(insertQ).WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '10' for key 'uq_bookings_seat'"})
	mock.ExpectRollback()

	err = NewBookingRepo(db).Insert(context.Background(), cricketBooking(10))
	assert.ErrorIs(t, err, ErrSeatTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepo_InsertEnforcesCapacity(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewBookingRepo(db).WithCapacity(cricketTable(t, 12))

	mock.ExpectBegin()
	mock.ExpectQuery(lockQ).WithArgs("cricket", "male").WillReturnRows(sqlmock.NewRows([]string{"booked"}).AddRow(11))
	mock.ExpectExec(insertQ).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(bumpQ).WithArgs("cricket", "male").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	require.NoError(t, repo.Insert(context.Background(), cricketBooking(40)))

	mock.ExpectBegin()
	mock.ExpectQuery(lockQ).WithArgs("cricket", "male").WillReturnRows(sqlmock.NewRows([]string{"booked"}).AddRow(12))
	mock.ExpectRollback()
	err = repo.Insert(context.Background(), cricketBooking(41))
	assert.ErrorIs(t, err, ErrCategoryFull)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepo_InsertIntoEmptyBucketLocksCounterRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewBookingRepo(db).WithCapacity(cricketTable(t, 12))

	// Both bookings serialise on the counter row; neither touches the
	// bookings index range before inserting.
	for _, seat := range []int{20, 21} {
		mock.ExpectBegin()
		mock.ExpectQuery(lockQ).WithArgs("cricket", "male").WillReturnRows(sqlmock.NewRows([]string{"booked"}).AddRow(seat - 20))
		mock.ExpectExec(insertQ).WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(bumpQ).WithArgs("cricket", "male").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
	}
	require.NoError(t, repo.Insert(context.Background(), cricketBooking(20)))
	require.NoError(t, repo.Insert(context.Background(), cricketBooking(21)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepo_InsertDuplicateSeatLeavesCounter(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewBookingRepo(db).WithCapacity(cricketTable(t, 12))

	mock.ExpectBegin()
	mock.ExpectQuery(lockQ).WithArgs("cricket", "male").WillReturnRows(sqlmock.NewRows([]string{"booked"}).AddRow(3))
	mock.ExpectExec(insertQ).WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '10' for key 'uq_bookings_seat'"})
	mock.ExpectRollback()

	err = repo.Insert(context.Background(), cricketBooking(10))
	assert.ErrorIs(t, err, ErrSeatTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepo_InsertUnlistedBucketSkipsDatabase(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewBookingRepo(db).WithCapacity(cricketTable(t, 12))

	b := cricketBooking(10)
	b.Sport = model.SportFootball
	assert.ErrorIs(t, repo.Insert(context.Background(), b), ErrCategoryFull)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepo_InsertUnseededCounter(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewBookingRepo(db).WithCapacity(cricketTable(t, 12))

	mock.ExpectBegin()
	mock.ExpectQuery(lockQ).WithArgs("cricket", "male").WillReturnRows(sqlmock.NewRows([]string{"booked"}))
	mock.ExpectRollback()

	err = repo.Insert(context.Background(), cricketBooking(10))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not seeded")
	assert.NotErrorIs(t, err, ErrCategoryFull)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepo_SeedBucketCounts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	table, err := ledger.NewTable([]ledger.Limit{
		{Bucket: ledger.Bucket{Sport: model.SportCricket, Gender: ledger.BucketMale}, Max: 12},
		{Bucket: ledger.Bucket{Sport: model.SportPool, Gender: ledger.BucketShared}, Max: 1},
	})
	require.NoError(t, err)
	repo := NewBookingRepo(db).WithCapacity(table)

	mock.ExpectExec(seedQ).WithArgs("cricket", "male", "cricket", "male").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(seedQ).WithArgs("8ballpool", "shared", "8ballpool", "shared").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, repo.SeedBucketCounts(context.Background()))

	mock.ExpectExec(seedQ).WillReturnError(errors.New("access denied"))
	err = repo.SeedBucketCounts(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed")

	assert.NoError(t, mock.ExpectationsWereMet())
	assert.NoError(t, NewBookingRepo(db).SeedBucketCounts(context.Background()))
}

func TestBookingRepo_InsertOtherError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(insertQ).WillReturnError(&mysql.MySQLError{Number: 1146, Message: "Table 'bus.bookings' doesn't exist"})
	mock.ExpectRollback()

	err = NewBookingRepo(db).Insert(context.Background(), cricketBooking(10))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSeatTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}
