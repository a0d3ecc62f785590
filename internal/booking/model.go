package booking

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/careslot/doctor-booking/internal/schedule"
)

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	// StatusAccepted marks bookings created by the no-hold manual-approval
	// path. Semantically a synonym of confirmed.
	StatusAccepted  BookingStatus = "accepted"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
	StatusPaid      BookingStatus = "paid"
)

// activeStatuses are the statuses that occupy a doctor's time and therefore
// participate in conflict detection.
var activeStatuses = []BookingStatus{StatusPending, StatusConfirmed, StatusAccepted}

type Doctor struct {
	ID        uuid.UUID
	Name      string
	Phone     string
	Specialty *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Patient struct {
	ID        uuid.UUID
	Name      string
	Phone     string
	Email     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Booking struct {
	ID              uuid.UUID
	BookingNumber   string
	DoctorID        uuid.UUID
	PatientID       *uuid.UUID // nil for walk-ins without a registered account
	SlotID          *uuid.UUID // nil for the no-hold manual-approval path
	Date            time.Time
	StartTime       schedule.TimeOfDay
	EndTime         schedule.TimeOfDay
	Status          BookingStatus
	Notes           string
	PatientName     string
	PatientPhone    string
	RequiresPayment bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ConfirmedAt     *time.Time
	CancelledAt     *time.Time
	CompletedAt     *time.Time
}

// PendingAppointmentRequest is an unauthenticated booking request keyed by
// phone numbers. It expires after a fixed window and is deleted once accepted
// or rejected.
type PendingAppointmentRequest struct {
	ID             uuid.UUID
	DoctorPhone    string
	PatientPhone   string
	PatientName    string
	RequestedDate  time.Time
	RequestedStart schedule.TimeOfDay
	Description    string
	CreatedAt      time.Time
	ExpiresAt      time.Time
}

// NewBookingNumber builds the human-readable booking identifier: a timestamp
// plus a random suffix. Globally unique for display and lookup; the UUID
// primary key is what consistency relies on.
func NewBookingNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return "BK-" + now.Format("20060102150405") + "-" + suffix
}
