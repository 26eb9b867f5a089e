package ratelimiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllow_EnforcesBurst(t *testing.T) {
	limiter := New(10, 10)

	// The full burst is allowed immediately
	for i := 0; i < 10; i++ {
		require.True(t, limiter.Allow(), "command %d should be within burst", i)
	}

	// The bucket is now empty
	assert.False(t, limiter.Allow())
}

func TestAllow_Unlimited(t *testing.T) {
	limiter := New(0, 0)

	for i := 0; i < 1000; i++ {
		require.True(t, limiter.Allow())
	}
}

func TestWait_RespectsCancellation(t *testing.T) {
	limiter := New(1, 1)
	require.True(t, limiter.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := limiter.Wait(ctx)
	assert.Error(t, err)
}

func TestWait_AcquiresToken(t *testing.T) {
	limiter := New(100, 1)
	require.True(t, limiter.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// A token arrives within ~10ms at 100/s
	require.NoError(t, limiter.Wait(ctx))
}
