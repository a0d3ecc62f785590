package schedule_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/careslot/doctor-booking/internal/schedule"
)

type slotKey struct {
	doctorID uuid.UUID
	date     string
	start    schedule.TimeOfDay
	end      schedule.TimeOfDay
}

// fakeRepo is an in-memory schedule.Repository with the same uniqueness
// guarantees as the Postgres schema.
type fakeRepo struct {
	mu         sync.Mutex
	rules      []schedule.Availability
	exceptions map[string]schedule.AvailabilityException // doctorID|date
	slots      map[slotKey]*schedule.Slot
	byID       map[uuid.UUID]*schedule.Slot
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		exceptions: make(map[string]schedule.AvailabilityException),
		slots:      make(map[slotKey]*schedule.Slot),
		byID:       make(map[uuid.UUID]*schedule.Slot),
	}
}

func excKey(doctorID uuid.UUID, date time.Time) string {
	return doctorID.String() + "|" + schedule.FormatDate(schedule.DateOnly(date))
}

func (r *fakeRepo) addRule(a schedule.Availability) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append(r.rules, a)
}

func (r *fakeRepo) addException(e schedule.AvailabilityException) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exceptions[excKey(e.DoctorID, e.Date)] = e
}

func (r *fakeRepo) GetExceptionByDate(_ context.Context, doctorID uuid.UUID, date time.Time) (*schedule.AvailabilityException, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.exceptions[excKey(doctorID, date)]; ok {
		return &e, nil
	}
	return nil, schedule.ErrExceptionNotFound
}

func (r *fakeRepo) ListAvailability(_ context.Context, doctorID uuid.UUID, day time.Weekday) ([]schedule.Availability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []schedule.Availability
	for _, a := range r.rules {
		if a.DoctorID == doctorID && a.DayOfWeek == day {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeRepo) InsertSlotIfAbsent(_ context.Context, slot *schedule.Slot) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := slotKey{slot.DoctorID, schedule.FormatDate(slot.Date), slot.StartTime, slot.EndTime}
	if _, exists := r.slots[key]; exists {
		return false, nil
	}
	cp := *slot
	r.slots[key] = &cp
	r.byID[cp.ID] = r.slots[key]
	return true, nil
}

func (r *fakeRepo) GetSlotByID(_ context.Context, id uuid.UUID) (*schedule.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.byID[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, schedule.ErrSlotNotFound
}

func (r *fakeRepo) ListSlotsByStatus(_ context.Context, doctorID uuid.UUID, date time.Time, status schedule.SlotStatus) ([]schedule.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []schedule.Slot
	for _, s := range r.slots {
		if s.DoctorID == doctorID && schedule.FormatDate(s.Date) == schedule.FormatDate(schedule.DateOnly(date)) && s.Status == status {
			out = append(out, *s)
		}
	}
	sortSlots(out)
	return out, nil
}

func (r *fakeRepo) bookSlot(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.byID[id]; ok {
		s.Status = schedule.SlotBooked
	}
}

func (r *fakeRepo) ListDoctorIDs(_ context.Context) ([]uuid.UUID, error) {
	return nil, nil
}

func sortSlots(slots []schedule.Slot) {
	for i := 1; i < len(slots); i++ {
		for j := i; j > 0 && slots[j].StartTime < slots[j-1].StartTime; j-- {
			slots[j], slots[j-1] = slots[j-1], slots[j]
		}
	}
}

// noHolds is a HoldChecker that reports no active holds.
type noHolds struct{}

func (noHolds) HasActiveHold(context.Context, uuid.UUID) bool { return false }

// heldSlots reports holds for a fixed set of slot IDs.
type heldSlots map[uuid.UUID]bool

func (h heldSlots) HasActiveHold(_ context.Context, id uuid.UUID) bool { return h[id] }
