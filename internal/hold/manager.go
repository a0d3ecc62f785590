package hold

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidHold = errors.New("hold token invalid or expired")

// Store is the expiring key-value store backing holds. Any store with per-key
// TTL expiry and an atomic compare-and-delete satisfies it; the production
// implementation is redisclient.ExpiringStore.
type Store interface {
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, key string) error
	// CompareAndDelete removes the key only when its current value equals
	// expect, atomically with respect to concurrent calls on the same key.
	CompareAndDelete(ctx context.Context, key, expect string) (bool, error)
	ScanPrefix(ctx context.Context, prefix string) ([]string, error)
}

const keyPrefix = "hold:slot:"

// Manager grants short-lived exclusive claims on slots. Holds are advisory at
// creation time: any number may be outstanding for one slot, and exclusivity
// is enforced only when a hold is consumed.
type Manager struct {
	store Store
	ttl   time.Duration
}

func NewManager(store Store, ttl time.Duration) *Manager {
	return &Manager{store: store, ttl: ttl}
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// CreateHold stores a claim for the given patient and returns its single-use
// token. It does not check that the slot is actually available.
func (m *Manager) CreateHold(ctx context.Context, slotID, patientID uuid.UUID) (string, error) {
	token := uuid.NewString()
	key := holdKey(slotID, token)

	if err := m.store.SetWithTTL(ctx, key, patientID.String(), m.ttl); err != nil {
		return "", fmt.Errorf("create hold for slot %s: %w", slotID, err)
	}

	log.Printf("hold created slot_id=%s token=%s ttl=%s", slotID, token, m.ttl)
	return token, nil
}

// ValidateAndConsume deletes the hold if it is unexpired and owned by the
// given patient. At most one caller can ever succeed per token; a claimant
// mismatch leaves the hold intact for its rightful owner.
func (m *Manager) ValidateAndConsume(ctx context.Context, slotID uuid.UUID, token string, patientID uuid.UUID) error {
	key := holdKey(slotID, token)

	ok, err := m.store.CompareAndDelete(ctx, key, patientID.String())
	if err != nil {
		return fmt.Errorf("consume hold for slot %s: %w", slotID, err)
	}
	if !ok {
		log.Printf("hold consume rejected slot_id=%s token=%s", slotID, token)
		return ErrInvalidHold
	}

	log.Printf("hold consumed slot_id=%s token=%s", slotID, token)
	return nil
}

// Release drops a hold a client no longer wants. Releasing a missing or
// expired hold is not an error.
func (m *Manager) Release(ctx context.Context, slotID uuid.UUID, token string) error {
	if err := m.store.Delete(ctx, holdKey(slotID, token)); err != nil {
		return fmt.Errorf("release hold for slot %s: %w", slotID, err)
	}
	return nil
}

// HasActiveHold reports whether any unexpired hold exists for the slot. Used
// only for read-time visibility filtering; a scan error degrades to false so
// a Redis outage never hides the whole schedule.
func (m *Manager) HasActiveHold(ctx context.Context, slotID uuid.UUID) bool {
	keys, err := m.store.ScanPrefix(ctx, keyPrefix+slotID.String()+":")
	if err != nil {
		log.Printf("hold scan error slot_id=%s err=%v", slotID, err)
		return false
	}
	return len(keys) > 0
}

func holdKey(slotID uuid.UUID, token string) string {
	return keyPrefix + slotID.String() + ":" + token
}
