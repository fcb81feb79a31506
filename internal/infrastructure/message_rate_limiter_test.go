package infrastructure

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendLimiter_BurstPerInstance(t *testing.T) {
	l := NewSendLimiter(0.001, 2)
	a, b := uuid.New(), uuid.New()

	assert.True(t, l.get(a).Allow())
	assert.True(t, l.get(a).Allow())
	assert.False(t, l.get(a).Allow(), "burst exhausted")
	assert.True(t, l.get(b).Allow(), "other instance has its own bucket")
	assert.Len(t, l.limiters, 2)
}

func TestSendLimiter_WaitHonoursContext(t *testing.T) {
	l := NewSendLimiter(0.001, 1)
	id := uuid.New()
	require.NoError(t, l.Wait(context.Background(), id))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx, id))
}

func TestSendLimiter_ZeroRateIsUnlimited(t *testing.T) {
	l := NewSendLimiter(0, 1)
	id := uuid.New()
	for i := 0; i < 100; i++ {
		require.NoError(t, l.Wait(context.Background(), id))
	}
}

func TestSendLimiter_EvictIdle(t *testing.T) {
	l := NewSendLimiter(1, 1)
	id := uuid.New()
	require.NoError(t, l.Wait(context.Background(), id))

	assert.Equal(t, 0, l.evictIdle(time.Now()))
	assert.Equal(t, 1, l.evictIdle(time.Now().Add(11*time.Minute)))
	assert.Empty(t, l.limiters)
}
