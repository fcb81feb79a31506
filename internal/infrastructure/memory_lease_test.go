package infrastructure

import (
	"context"
	"errors"
	"testing"
	"time"

	"renewal_notifier/internal/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLease_ExclusiveUntilReleased(t *testing.T) {
	ctx := context.Background()
	lease := NewMemoryLease()

	hold, err := lease.Acquire(ctx, "whatsapp-reminders", time.Minute)
	require.NoError(t, err)

	_, err = lease.Acquire(ctx, "whatsapp-reminders", time.Minute)
	assert.True(t, errors.Is(err, apperrors.ErrLeaseHeld))

	_, err = lease.Acquire(ctx, "other", time.Minute)
	assert.NoError(t, err, "names are independent")

	require.NoError(t, hold.Release(ctx))
	_, err = lease.Acquire(ctx, "whatsapp-reminders", time.Minute)
	assert.NoError(t, err)
}

func TestMemoryLease_ExpiredLeaseCanBeTaken(t *testing.T) {
	ctx := context.Background()
	lease := NewMemoryLease()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	lease.now = func() time.Time { return now }

	stale, err := lease.Acquire(ctx, "job", time.Second)
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	_, err = lease.Acquire(ctx, "job", time.Minute)
	require.NoError(t, err)

	// the stale holder can neither renew nor free the new holder's lease
	assert.True(t, errors.Is(stale.Renew(ctx, time.Minute), apperrors.ErrLeaseLost))
	require.NoError(t, stale.Release(ctx))
	_, err = lease.Acquire(ctx, "job", time.Minute)
	assert.True(t, errors.Is(err, apperrors.ErrLeaseHeld))
}

func TestMemoryLease_RenewExtendsExpiry(t *testing.T) {
	ctx := context.Background()
	lease := NewMemoryLease()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	lease.now = func() time.Time { return now }

	hold, err := lease.Acquire(ctx, "job", time.Second)
	require.NoError(t, err)

	now = now.Add(800 * time.Millisecond)
	require.NoError(t, hold.Renew(ctx, time.Second))

	now = now.Add(800 * time.Millisecond)
	_, err = lease.Acquire(ctx, "job", time.Minute)
	assert.True(t, errors.Is(err, apperrors.ErrLeaseHeld), "renewed lease is still held")

	now = now.Add(time.Second)
	assert.True(t, errors.Is(hold.Renew(ctx, time.Second), apperrors.ErrLeaseLost), "expired lease cannot be renewed")
}
