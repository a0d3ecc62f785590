package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/careslot/doctor-booking/internal/db"
	"github.com/careslot/doctor-booking/internal/schedule"
)

type PgRepository struct {
	pool db.Pool
}

func NewPgRepository(pool db.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const bookingColumns = `id, booking_number, doctor_id, patient_id, slot_id, booking_date,
		start_minute, end_minute, status, notes, patient_name, patient_phone,
		requires_payment, created_at, updated_at, confirmed_at, cancelled_at, completed_at`

// Helpers

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.Name, &d.Phone, &d.Specialty, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}
	return &d, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Name, &p.Phone, &p.Email, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return &p, nil
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking

	err := row.Scan(
		&b.ID,
		&b.BookingNumber,
		&b.DoctorID,
		&b.PatientID,
		&b.SlotID,
		&b.Date,
		&b.StartTime,
		&b.EndTime,
		&b.Status,
		&b.Notes,
		&b.PatientName,
		&b.PatientPhone,
		&b.RequiresPayment,
		&b.CreatedAt,
		&b.UpdatedAt,
		&b.ConfirmedAt,
		&b.CancelledAt,
		&b.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	b.Date = schedule.DateOnly(b.Date)
	return &b, nil
}

func scanRequest(row pgx.Row) (*PendingAppointmentRequest, error) {
	var r PendingAppointmentRequest

	err := row.Scan(
		&r.ID,
		&r.DoctorPhone,
		&r.PatientPhone,
		&r.PatientName,
		&r.RequestedDate,
		&r.RequestedStart,
		&r.Description,
		&r.CreatedAt,
		&r.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}

	r.RequestedDate = schedule.DateOnly(r.RequestedDate)
	return &r, nil
}

// Directory lookups

func (r *PgRepository) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, phone, specialty, created_at, updated_at
		FROM doctors
		WHERE id = $1
	`, id)
	return scanDoctor(row)
}

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, phone, email, created_at, updated_at
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) FindDoctorByPhone(ctx context.Context, phone string) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, phone, specialty, created_at, updated_at
		FROM doctors
		WHERE phone = $1
	`, phone)
	return scanDoctor(row)
}

func (r *PgRepository) FindPatientByPhone(ctx context.Context, phone string) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, phone, email, created_at, updated_at
		FROM patients
		WHERE phone = $1
	`, phone)
	return scanPatient(row)
}

// Bookings

func (r *PgRepository) GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	return scanBooking(row)
}

func (r *PgRepository) GetBookingByNumber(ctx context.Context, number string) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE booking_number = $1`, number)
	return scanBooking(row)
}

func (r *PgRepository) ListBookingsByDoctorDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE doctor_id = $1 AND booking_date = $2
		ORDER BY start_minute
	`, doctorID, schedule.DateOnly(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

func (r *PgRepository) ListBookingsByPatient(ctx context.Context, patientID uuid.UUID) ([]Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE patient_id = $1
		ORDER BY booking_date DESC, start_minute
	`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

func collectBookings(rows pgx.Rows) ([]Booking, error) {
	var result []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *b)
	}
	return result, rows.Err()
}

func (r *PgRepository) CreateFromSlot(ctx context.Context, doctorID, patientID, slotID uuid.UUID, bookingNumber string) (*Booking, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin create booking: %w", err)
	}
	defer tx.Rollback(ctx)

	var date time.Time
	var start, end schedule.TimeOfDay

	err = tx.QueryRow(ctx, `
		UPDATE slots
		SET status = 'booked',
		    updated_at = now()
		WHERE id = $1
		  AND status = 'available'
		RETURNING slot_date, start_minute, end_minute
	`, slotID).Scan(&date, &start, &end)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			if chkErr := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM slots WHERE id = $1)`, slotID).Scan(&exists); chkErr != nil {
				return nil, chkErr
			}
			if exists {
				return nil, ErrSlotUnavailable
			}
			return nil, schedule.ErrSlotNotFound
		}
		return nil, fmt.Errorf("book slot: %w", err)
	}

	id := uuid.New()
	row := tx.QueryRow(ctx, `
		INSERT INTO bookings (id, booking_number, doctor_id, patient_id, slot_id, booking_date,
			start_minute, end_minute, status, requires_payment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'pending', true, now(), now())
		RETURNING `+bookingColumns+`
	`, id, bookingNumber, doctorID, patientID, slotID, date, start, end)

	b, err := scanBooking(row)
	if err != nil {
		return nil, fmt.Errorf("insert booking: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit create booking: %w", err)
	}

	return b, nil
}

func (r *PgRepository) MarkConfirmed(ctx context.Context, id uuid.UUID) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE bookings
		SET status = 'confirmed',
		    confirmed_at = now(),
		    updated_at = now()
		WHERE id = $1
		RETURNING `+bookingColumns+`
	`, id)
	return scanBooking(row)
}

func (r *PgRepository) MarkCompleted(ctx context.Context, id uuid.UUID, notes string) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE bookings
		SET status = 'completed',
		    completed_at = now(),
		    notes = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+bookingColumns+`
	`, id, notes)
	return scanBooking(row)
}

func (r *PgRepository) CancelAndReleaseSlot(ctx context.Context, id uuid.UUID, reason string) (*Booking, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin cancel booking: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		UPDATE bookings
		SET status = 'cancelled',
		    cancelled_at = now(),
		    notes = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+bookingColumns+`
	`, id, reason)

	b, err := scanBooking(row)
	if err != nil {
		return nil, err
	}

	if b.SlotID != nil {
		_, err = tx.Exec(ctx, `
			UPDATE slots
			SET status = 'available',
			    updated_at = now()
			WHERE id = $1
		`, *b.SlotID)
		if err != nil {
			return nil, fmt.Errorf("release slot: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit cancel booking: %w", err)
	}

	return b, nil
}

// Conflict checker

const conflictQuery = `
	SELECT EXISTS (
		SELECT 1
		FROM bookings
		WHERE doctor_id = $1
		  AND booking_date = $2
		  AND status = ANY($3)
		  AND start_minute < $5
		  AND end_minute > $4
	)`

func (r *PgRepository) HasBookingConflict(ctx context.Context, doctorID uuid.UUID, date time.Time, start, end schedule.TimeOfDay) (bool, error) {
	var conflict bool
	err := r.pool.QueryRow(ctx, conflictQuery,
		doctorID, schedule.DateOnly(date), statusStrings(activeStatuses), start, end,
	).Scan(&conflict)
	if err != nil {
		return false, fmt.Errorf("check booking conflict: %w", err)
	}
	return conflict, nil
}

func statusStrings(statuses []BookingStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// Pending appointment requests

func (r *PgRepository) CreateRequest(ctx context.Context, req *PendingAppointmentRequest) (*PendingAppointmentRequest, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO pending_requests (id, doctor_phone, patient_phone, patient_name,
			requested_date, requested_start_minute, description, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), $8)
		RETURNING id, doctor_phone, patient_phone, patient_name, requested_date,
			requested_start_minute, description, created_at, expires_at
	`, req.ID, req.DoctorPhone, req.PatientPhone, req.PatientName,
		schedule.DateOnly(req.RequestedDate), req.RequestedStart, req.Description, req.ExpiresAt)
	return scanRequest(row)
}

func (r *PgRepository) GetRequestByID(ctx context.Context, id uuid.UUID) (*PendingAppointmentRequest, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, doctor_phone, patient_phone, patient_name, requested_date,
			requested_start_minute, description, created_at, expires_at
		FROM pending_requests
		WHERE id = $1
	`, id)
	return scanRequest(row)
}

func (r *PgRepository) ListRequestsByDoctorPhone(ctx context.Context, phone string) ([]PendingAppointmentRequest, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, doctor_phone, patient_phone, patient_name, requested_date,
			requested_start_minute, description, created_at, expires_at
		FROM pending_requests
		WHERE doctor_phone = $1
		ORDER BY created_at
	`, phone)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []PendingAppointmentRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *req)
	}
	return result, rows.Err()
}

func (r *PgRepository) DeleteRequest(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM pending_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRequestNotFound
	}
	return nil
}

func (r *PgRepository) AcceptRequest(ctx context.Context, requestID uuid.UUID, b *Booking) (*Booking, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin accept request: %w", err)
	}
	defer tx.Rollback(ctx)

	var conflict bool
	err = tx.QueryRow(ctx, conflictQuery,
		b.DoctorID, schedule.DateOnly(b.Date), statusStrings(activeStatuses), b.StartTime, b.EndTime,
	).Scan(&conflict)
	if err != nil {
		return nil, fmt.Errorf("check booking conflict: %w", err)
	}
	if conflict {
		return nil, ErrBookingConflict
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO bookings (id, booking_number, doctor_id, patient_id, booking_date,
			start_minute, end_minute, status, notes, patient_name, patient_phone,
			requires_payment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'accepted', $8, $9, $10, false, now(), now())
		RETURNING `+bookingColumns+`
	`, b.ID, b.BookingNumber, b.DoctorID, b.PatientID, schedule.DateOnly(b.Date),
		b.StartTime, b.EndTime, b.Notes, b.PatientName, b.PatientPhone)

	created, err := scanBooking(row)
	if err != nil {
		return nil, fmt.Errorf("insert accepted booking: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM pending_requests WHERE id = $1`, requestID)
	if err != nil {
		return nil, fmt.Errorf("delete accepted request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// The request was accepted or rejected concurrently.
		return nil, ErrRequestNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit accept request: %w", err)
	}

	return created, nil
}

func (r *PgRepository) DeleteExpiredRequests(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM pending_requests WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired requests: %w", err)
	}
	return tag.RowsAffected(), nil
}
