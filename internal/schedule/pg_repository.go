package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/careslot/doctor-booking/internal/db"
)

type PgRepository struct {
	pool db.Pool
}

func NewPgRepository(pool db.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanAvailability(row pgx.Row) (*Availability, error) {
	var a Availability
	var day int

	err := row.Scan(
		&a.ID,
		&a.DoctorID,
		&day,
		&a.StartTime,
		&a.EndTime,
		&a.SlotMinutes,
		&a.Active,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.DayOfWeek = time.Weekday(day)
	return &a, nil
}

func scanException(row pgx.Row) (*AvailabilityException, error) {
	var e AvailabilityException
	var start, end *int

	err := row.Scan(
		&e.ID,
		&e.DoctorID,
		&e.Date,
		&e.Kind,
		&start,
		&end,
		&e.Reason,
		&e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExceptionNotFound
		}
		return nil, err
	}

	if start != nil {
		t := TimeOfDay(*start)
		e.StartTime = &t
	}
	if end != nil {
		t := TimeOfDay(*end)
		e.EndTime = &t
	}
	e.Date = DateOnly(e.Date)
	return &e, nil
}

func scanSlot(row pgx.Row) (*Slot, error) {
	var s Slot

	err := row.Scan(
		&s.ID,
		&s.DoctorID,
		&s.Date,
		&s.StartTime,
		&s.EndTime,
		&s.Status,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}

	s.Date = DateOnly(s.Date)
	return &s, nil
}

// Interface methods

func (r *PgRepository) GetExceptionByDate(ctx context.Context, doctorID uuid.UUID, date time.Time) (*AvailabilityException, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, doctor_id, exception_date, kind, start_minute, end_minute, reason, created_at
		FROM availability_exceptions
		WHERE doctor_id = $1 AND exception_date = $2
	`, doctorID, DateOnly(date))
	return scanException(row)
}

func (r *PgRepository) ListAvailability(ctx context.Context, doctorID uuid.UUID, day time.Weekday) ([]Availability, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, doctor_id, day_of_week, start_minute, end_minute, slot_minutes, is_active, created_at, updated_at
		FROM availabilities
		WHERE doctor_id = $1 AND day_of_week = $2
		ORDER BY start_minute
	`, doctorID, int(day))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Availability
	for rows.Next() {
		a, err := scanAvailability(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	return result, rows.Err()
}

func (r *PgRepository) InsertSlotIfAbsent(ctx context.Context, slot *Slot) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO slots (id, doctor_id, slot_date, start_minute, end_minute, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT (doctor_id, slot_date, start_minute, end_minute) DO NOTHING
	`, slot.ID, slot.DoctorID, DateOnly(slot.Date), slot.StartTime, slot.EndTime, slot.Status)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PgRepository) GetSlotByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, doctor_id, slot_date, start_minute, end_minute, status, created_at, updated_at
		FROM slots
		WHERE id = $1
	`, id)
	return scanSlot(row)
}

func (r *PgRepository) ListSlotsByStatus(ctx context.Context, doctorID uuid.UUID, date time.Time, status SlotStatus) ([]Slot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, doctor_id, slot_date, start_minute, end_minute, status, created_at, updated_at
		FROM slots
		WHERE doctor_id = $1 AND slot_date = $2 AND status = $3
		ORDER BY start_minute
	`, doctorID, DateOnly(date), status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}

	return result, rows.Err()
}

func (r *PgRepository) ListDoctorIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM doctors ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
