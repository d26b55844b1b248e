package limiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLimiterPerKeyBurst(t *testing.T) {
	l := NewLocalLimiter(1, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := l.Allow(ctx, "10.0.0.1")
	assert.False(t, ok)

	// 不同 key 使用独立的令牌桶
	ok, _ = l.Allow(ctx, "10.0.0.2")
	assert.True(t, ok)
}

func TestDynamicLimiterUpdate(t *testing.T) {
	d := NewDynamicLimiter(nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		ok, err := d.Allow(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
	}

	d.UpdateLocal(1, 1)
	ok, _ := d.Allow(ctx, "k")
	assert.True(t, ok)
	ok, _ = d.Allow(ctx, "k")
	assert.False(t, ok)

	d.UpdateLocal(0, 0)
	ok, _ = d.Allow(ctx, "k")
	assert.True(t, ok)

	var nilLimiter *DynamicLimiter
	ok, err := nilLimiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSemaphoreLimiter(t *testing.T) {
	l := NewSemaphoreLimiter(1)

	require.NoError(t, l.Acquire(context.Background()))
	assert.Equal(t, 1, l.InUse())
	assert.False(t, l.TryAcquire())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Acquire(ctx), context.DeadlineExceeded)

	l.Release()
	assert.Equal(t, 0, l.InUse())
	assert.True(t, l.TryAcquire())
	l.Release()

	unlimited := NewSemaphoreLimiter(0)
	for i := 0; i < 100; i++ {
		assert.True(t, unlimited.TryAcquire())
	}
	unlimited.Release()
}
