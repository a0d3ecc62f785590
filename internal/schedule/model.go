package schedule

import (
	"time"

	"github.com/google/uuid"
)

type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotBooked    SlotStatus = "booked"
)

type ExceptionKind string

const (
	ExceptionBlocked       ExceptionKind = "blocked"
	ExceptionModifiedHours ExceptionKind = "modified_hours"
)

// Defaults applied when a doctor has no configured availability for a day.
// The schedule never shows zero availability for an un-configured doctor.
const (
	DefaultSlotMinutes = 30
)

var (
	DefaultDayStart = NewTimeOfDay(9, 0)
	DefaultDayEnd   = NewTimeOfDay(17, 0)
)

// Availability is a recurring weekly rule for one doctor. Configured out of
// band; the core only reads it.
type Availability struct {
	ID          uuid.UUID
	DoctorID    uuid.UUID
	DayOfWeek   time.Weekday
	StartTime   TimeOfDay
	EndTime     TimeOfDay
	SlotMinutes int
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AvailabilityException overrides the weekly rules for a single date, either
// blocking the day entirely or replacing its hours. At most one exception
// exists per (doctor, date); the database enforces this.
type AvailabilityException struct {
	ID        uuid.UUID
	DoctorID  uuid.UUID
	Date      time.Time
	Kind      ExceptionKind
	StartTime *TimeOfDay
	EndTime   *TimeOfDay
	Reason    string
	CreatedAt time.Time
}

// Slot is a single bookable interval. Identity is (doctor, date, start, end);
// materialization is idempotent against that key. Slots are never deleted.
type Slot struct {
	ID        uuid.UUID
	DoctorID  uuid.UUID
	Date      time.Time
	StartTime TimeOfDay
	EndTime   TimeOfDay
	Status    SlotStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Window is one contiguous open range for a date, as produced by the
// resolver before materialization.
type Window struct {
	StartTime   TimeOfDay
	EndTime     TimeOfDay
	SlotMinutes int
}
