package booking_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/careslot/doctor-booking/internal/booking"
	"github.com/careslot/doctor-booking/internal/schedule"
)

var bookingCols = []string{
	"id", "booking_number", "doctor_id", "patient_id", "slot_id", "booking_date",
	"start_minute", "end_minute", "status", "notes", "patient_name", "patient_phone",
	"requires_payment", "created_at", "updated_at", "confirmed_at", "cancelled_at", "completed_at",
}

func bookingRow(id uuid.UUID, number string, doctorID uuid.UUID, patientID, slotID *uuid.UUID, status booking.BookingStatus) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(bookingCols).AddRow(
		id, number, doctorID, patientID, slotID, testDate,
		schedule.NewTimeOfDay(9, 0), schedule.NewTimeOfDay(9, 30), status, "", "", "",
		true, now, now, (*time.Time)(nil), (*time.Time)(nil), (*time.Time)(nil),
	)
}

func TestCreateFromSlotCommits(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := booking.NewPgRepository(mock)

	doctorID := uuid.New()
	patientID := uuid.New()
	slotID := uuid.New()
	number := booking.NewBookingNumber(time.Now())

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE slots").
		WithArgs(slotID).
		WillReturnRows(pgxmock.NewRows([]string{"slot_date", "start_minute", "end_minute"}).
			AddRow(testDate, schedule.NewTimeOfDay(9, 0), schedule.NewTimeOfDay(9, 30)))
	mock.ExpectQuery("INSERT INTO bookings").
		WithArgs(pgxmock.AnyArg(), number, doctorID, patientID, slotID, testDate,
			schedule.NewTimeOfDay(9, 0), schedule.NewTimeOfDay(9, 30)).
		WillReturnRows(bookingRow(uuid.New(), number, doctorID, &patientID, &slotID, booking.StatusPending))
	mock.ExpectCommit()

	b, err := repo.CreateFromSlot(context.Background(), doctorID, patientID, slotID, number)
	require.NoError(t, err)
	require.Equal(t, booking.StatusPending, b.Status)
	require.Equal(t, number, b.BookingNumber)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateFromSlotAlreadyBookedRollsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := booking.NewPgRepository(mock)
	slotID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE slots").
		WithArgs(slotID).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(slotID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err = repo.CreateFromSlot(context.Background(), uuid.New(), uuid.New(), slotID, "BK-1")
	require.ErrorIs(t, err, booking.ErrSlotUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateFromSlotMissingSlot(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := booking.NewPgRepository(mock)
	slotID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE slots").
		WithArgs(slotID).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(slotID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	_, err = repo.CreateFromSlot(context.Background(), uuid.New(), uuid.New(), slotID, "BK-1")
	require.ErrorIs(t, err, schedule.ErrSlotNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelAndReleaseSlotUpdatesBoth(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := booking.NewPgRepository(mock)

	bookingID := uuid.New()
	slotID := uuid.New()
	patientID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE bookings").
		WithArgs(bookingID, "no longer needed").
		WillReturnRows(bookingRow(bookingID, "BK-1", uuid.New(), &patientID, &slotID, booking.StatusCancelled))
	mock.ExpectExec("UPDATE slots").
		WithArgs(slotID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	b, err := repo.CancelAndReleaseSlot(context.Background(), bookingID, "no longer needed")
	require.NoError(t, err)
	require.Equal(t, booking.StatusCancelled, b.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelWithoutSlotSkipsRelease(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := booking.NewPgRepository(mock)
	bookingID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE bookings").
		WithArgs(bookingID, "declined").
		WillReturnRows(bookingRow(bookingID, "BK-2", uuid.New(), nil, nil, booking.StatusCancelled))
	mock.ExpectCommit()

	_, err = repo.CancelAndReleaseSlot(context.Background(), bookingID, "declined")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHasBookingConflict(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := booking.NewPgRepository(mock)
	doctorID := uuid.New()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(doctorID, testDate, []string{"pending", "confirmed", "accepted"},
			schedule.NewTimeOfDay(9, 0), schedule.NewTimeOfDay(10, 0)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	conflict, err := repo.HasBookingConflict(context.Background(), doctorID, testDate,
		schedule.NewTimeOfDay(9, 0), schedule.NewTimeOfDay(10, 0))
	require.NoError(t, err)
	require.True(t, conflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptRequestConflictRollsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := booking.NewPgRepository(mock)
	requestID := uuid.New()

	b := &booking.Booking{
		ID:            uuid.New(),
		BookingNumber: "BK-3",
		DoctorID:      uuid.New(),
		Date:          testDate,
		StartTime:     schedule.NewTimeOfDay(9, 0),
		EndTime:       schedule.NewTimeOfDay(9, 30),
	}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(b.DoctorID, testDate, []string{"pending", "confirmed", "accepted"},
			b.StartTime, b.EndTime).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err = repo.AcceptRequest(context.Background(), requestID, b)
	require.ErrorIs(t, err, booking.ErrBookingConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}
