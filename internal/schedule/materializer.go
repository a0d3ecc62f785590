package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// HoldChecker reports advisory holds for read-time visibility filtering.
// Implemented by hold.Manager.
type HoldChecker interface {
	HasActiveHold(ctx context.Context, slotID uuid.UUID) bool
}

// Materializer expands resolved windows into concrete slot rows. Repeated
// materialization of the same doctor/date never duplicates slots.
type Materializer struct {
	repo     Repository
	resolver *Resolver
	holds    HoldChecker
}

func NewMaterializer(repo Repository, resolver *Resolver, holds HoldChecker) *Materializer {
	return &Materializer{
		repo:     repo,
		resolver: resolver,
		holds:    holds,
	}
}

// EnsureSlots creates any missing slots for the doctor and date. Idempotent:
// the insert is keyed by (doctor, date, start, end) and silently skips
// existing rows, including under concurrent callers.
func (m *Materializer) EnsureSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) error {
	date = DateOnly(date)

	windows, err := m.resolver.Resolve(ctx, doctorID, date)
	if err != nil {
		return fmt.Errorf("resolve windows for %s: %w", FormatDate(date), err)
	}

	for _, w := range windows {
		if w.SlotMinutes <= 0 {
			continue
		}
		for cur := w.StartTime; cur.AddMinutes(w.SlotMinutes) <= w.EndTime; cur = cur.AddMinutes(w.SlotMinutes) {
			slot := &Slot{
				ID:        uuid.New(),
				DoctorID:  doctorID,
				Date:      date,
				StartTime: cur,
				EndTime:   cur.AddMinutes(w.SlotMinutes),
				Status:    SlotAvailable,
			}
			if _, err := m.repo.InsertSlotIfAbsent(ctx, slot); err != nil {
				return fmt.Errorf("insert slot %s %s: %w", FormatDate(date), cur, err)
			}
		}
	}

	return nil
}

// GenerateRange applies EnsureSlots to every date in the inclusive range, in
// date order.
func (m *Materializer) GenerateRange(ctx context.Context, doctorID uuid.UUID, startDate, endDate time.Time) error {
	startDate = DateOnly(startDate)
	endDate = DateOnly(endDate)

	for d := startDate; !d.After(endDate); d = d.AddDate(0, 0, 1) {
		if err := m.EnsureSlots(ctx, doctorID, d); err != nil {
			return err
		}
	}
	return nil
}

// GetSlot returns one slot by ID, ErrSlotNotFound when it does not exist.
func (m *Materializer) GetSlot(ctx context.Context, id uuid.UUID) (*Slot, error) {
	return m.repo.GetSlotByID(ctx, id)
}

// ListAvailable materializes the date lazily, then returns its open slots,
// hiding any with an active hold. The hold filter is best-effort visibility
// only; booking correctness comes from hold consumption, not from this list.
func (m *Materializer) ListAvailable(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]Slot, error) {
	date = DateOnly(date)

	if err := m.EnsureSlots(ctx, doctorID, date); err != nil {
		return nil, err
	}

	slots, err := m.repo.ListSlotsByStatus(ctx, doctorID, date, SlotAvailable)
	if err != nil {
		return nil, fmt.Errorf("list available slots: %w", err)
	}

	visible := make([]Slot, 0, len(slots))
	for _, s := range slots {
		if m.holds.HasActiveHold(ctx, s.ID) {
			continue
		}
		visible = append(visible, s)
	}

	return visible, nil
}
