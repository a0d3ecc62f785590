package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/careslot/doctor-booking/internal/schedule"
)

var (
	ErrDoctorNotFound  = errors.New("doctor not found")
	ErrPatientNotFound = errors.New("patient not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrRequestNotFound = errors.New("appointment request not found")
	ErrSlotUnavailable = errors.New("slot is not available")
	ErrBookingConflict = errors.New("requested time conflicts with an existing booking")
)

// Repository contains all DB interactions needed by the booking service.
// Methods documented as transactional touch the slot and booking rows as a
// single atomic unit; no partial state is ever visible to readers.
type Repository interface {
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	FindDoctorByPhone(ctx context.Context, phone string) (*Doctor, error)
	FindPatientByPhone(ctx context.Context, phone string) (*Patient, error)

	GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetBookingByNumber(ctx context.Context, number string) (*Booking, error)
	ListBookingsByDoctorDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]Booking, error)
	ListBookingsByPatient(ctx context.Context, patientID uuid.UUID) ([]Booking, error)

	// CreateFromSlot transitions the slot available -> booked and inserts the
	// booking in one transaction. Fails with ErrSlotUnavailable when the slot
	// is already booked, schedule.ErrSlotNotFound when it does not exist.
	CreateFromSlot(ctx context.Context, doctorID, patientID, slotID uuid.UUID, bookingNumber string) (*Booking, error)

	MarkConfirmed(ctx context.Context, id uuid.UUID) (*Booking, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, notes string) (*Booking, error)

	// CancelAndReleaseSlot moves the booking to cancelled and its slot (when
	// one is linked) back to available, in one transaction.
	CancelAndReleaseSlot(ctx context.Context, id uuid.UUID, reason string) (*Booking, error)

	// HasBookingConflict reports whether any active booking for the doctor on
	// the date overlaps [start, end).
	HasBookingConflict(ctx context.Context, doctorID uuid.UUID, date time.Time, start, end schedule.TimeOfDay) (bool, error)

	CreateRequest(ctx context.Context, req *PendingAppointmentRequest) (*PendingAppointmentRequest, error)
	GetRequestByID(ctx context.Context, id uuid.UUID) (*PendingAppointmentRequest, error)
	ListRequestsByDoctorPhone(ctx context.Context, phone string) ([]PendingAppointmentRequest, error)
	DeleteRequest(ctx context.Context, id uuid.UUID) error

	// AcceptRequest re-runs the conflict check, inserts the accepted booking
	// and deletes the request in one transaction.
	AcceptRequest(ctx context.Context, requestID uuid.UUID, b *Booking) (*Booking, error)

	// DeleteExpiredRequests reaps requests whose expiry has passed.
	DeleteExpiredRequests(ctx context.Context, now time.Time) (int64, error)
}
