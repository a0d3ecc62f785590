package hold_test

import (
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/careslot/doctor-booking/internal/hold"
	redisclient "github.com/careslot/doctor-booking/internal/redis"
)

func newManager(t *testing.T, ttl time.Duration) (*hold.Manager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return hold.NewManager(redisclient.NewExpiringStore(client), ttl), mr
}

func TestCreateAndConsumeHold(t *testing.T) {
	mgr, _ := newManager(t, 5*time.Minute)
	ctx := context.Background()

	slotID := uuid.New()
	patientID := uuid.New()

	token, err := mgr.CreateHold(ctx, slotID, patientID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	require.NoError(t, mgr.ValidateAndConsume(ctx, slotID, token, patientID))

	// Second consume must fail: the token is single-use.
	err = mgr.ValidateAndConsume(ctx, slotID, token, patientID)
	require.ErrorIs(t, err, hold.ErrInvalidHold)
}

func TestConsumeClaimantMismatchKeepsHold(t *testing.T) {
	mgr, _ := newManager(t, 5*time.Minute)
	ctx := context.Background()

	slotID := uuid.New()
	owner := uuid.New()
	intruder := uuid.New()

	token, err := mgr.CreateHold(ctx, slotID, owner)
	require.NoError(t, err)

	err = mgr.ValidateAndConsume(ctx, slotID, token, intruder)
	require.ErrorIs(t, err, hold.ErrInvalidHold)

	// The hold must still be usable by its rightful owner.
	require.NoError(t, mgr.ValidateAndConsume(ctx, slotID, token, owner))
}

func TestConsumeAfterExpiryFails(t *testing.T) {
	mgr, mr := newManager(t, time.Minute)
	ctx := context.Background()

	slotID := uuid.New()
	patientID := uuid.New()

	token, err := mgr.CreateHold(ctx, slotID, patientID)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	err = mgr.ValidateAndConsume(ctx, slotID, token, patientID)
	require.ErrorIs(t, err, hold.ErrInvalidHold)
}

func TestRelease(t *testing.T) {
	mgr, _ := newManager(t, 5*time.Minute)
	ctx := context.Background()

	slotID := uuid.New()
	patientID := uuid.New()

	token, err := mgr.CreateHold(ctx, slotID, patientID)
	require.NoError(t, err)
	require.True(t, mgr.HasActiveHold(ctx, slotID))

	require.NoError(t, mgr.Release(ctx, slotID, token))
	require.False(t, mgr.HasActiveHold(ctx, slotID))

	err = mgr.ValidateAndConsume(ctx, slotID, token, patientID)
	require.ErrorIs(t, err, hold.ErrInvalidHold)

	// Releasing again is harmless.
	require.NoError(t, mgr.Release(ctx, slotID, token))
}

func TestHasActiveHold(t *testing.T) {
	mgr, mr := newManager(t, time.Minute)
	ctx := context.Background()

	slotID := uuid.New()
	require.False(t, mgr.HasActiveHold(ctx, slotID))

	_, err := mgr.CreateHold(ctx, slotID, uuid.New())
	require.NoError(t, err)
	require.True(t, mgr.HasActiveHold(ctx, slotID))

	mr.FastForward(2 * time.Minute)
	require.False(t, mgr.HasActiveHold(ctx, slotID))
}

func TestMultipleHoldsOnSameSlot(t *testing.T) {
	mgr, _ := newManager(t, 5*time.Minute)
	ctx := context.Background()

	slotID := uuid.New()
	first := uuid.New()
	second := uuid.New()

	tok1, err := mgr.CreateHold(ctx, slotID, first)
	require.NoError(t, err)
	tok2, err := mgr.CreateHold(ctx, slotID, second)
	require.NoError(t, err)
	require.NotEqual(t, tok1, tok2)

	// Both holds coexist; each consumes only its own token.
	require.NoError(t, mgr.ValidateAndConsume(ctx, slotID, tok1, first))
	require.NoError(t, mgr.ValidateAndConsume(ctx, slotID, tok2, second))
}

func TestConcurrentConsumeSingleWinner(t *testing.T) {
	mgr, _ := newManager(t, 5*time.Minute)
	ctx := context.Background()

	slotID := uuid.New()
	patientID := uuid.New()

	token, err := mgr.CreateHold(ctx, slotID, patientID)
	require.NoError(t, err)

	const callers = 16
	var wg sync.WaitGroup
	results := make(chan error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- mgr.ValidateAndConsume(ctx, slotID, token, patientID)
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		if err == nil {
			wins++
		} else {
			require.ErrorIs(t, err, hold.ErrInvalidHold)
		}
	}
	require.Equal(t, 1, wins, "exactly one concurrent consume may succeed")
}
