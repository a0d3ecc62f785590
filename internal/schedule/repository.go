package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSlotNotFound      = errors.New("slot not found")
	ErrExceptionNotFound = errors.New("availability exception not found")
)

// Repository contains all DB interactions needed by the resolver and
// materializer.
type Repository interface {
	GetExceptionByDate(ctx context.Context, doctorID uuid.UUID, date time.Time) (*AvailabilityException, error)

	// ListAvailability returns every weekly rule for the weekday, inactive
	// ones included. The resolver filters on Active itself: the default
	// window applies only to doctors with no rules at all, so it has to see
	// the difference between "no rules" and "all rules disabled".
	ListAvailability(ctx context.Context, doctorID uuid.UUID, day time.Weekday) ([]Availability, error)

	// InsertSlotIfAbsent inserts the slot unless one already exists for its
	// (doctor, date, start, end) key. Reports whether a row was created.
	// Safe under concurrent callers materializing the same date.
	InsertSlotIfAbsent(ctx context.Context, slot *Slot) (bool, error)

	GetSlotByID(ctx context.Context, id uuid.UUID) (*Slot, error)
	ListSlotsByStatus(ctx context.Context, doctorID uuid.UUID, date time.Time, status SlotStatus) ([]Slot, error)

	// ListDoctorIDs feeds the batch generation worker.
	ListDoctorIDs(ctx context.Context) ([]uuid.UUID, error)
}
