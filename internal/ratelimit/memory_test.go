package ratelimit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryLimiter_AllowWithinLimit(t *testing.T) {
	limiter := NewMemoryLimiter(0)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		allowed, _, _, err := limiter.Allow(ctx, "10.0.0.1", 5)
		assert.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, remaining, _, err := limiter.Allow(ctx, "10.0.0.1", 5)
	assert.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 0, remaining)
}

func TestMemoryLimiter_BurstExtendsLimit(t *testing.T) {
	limiter := NewMemoryLimiter(2)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		allowed, _, _, err := limiter.Allow(ctx, "10.0.0.2", 5)
		assert.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, _, _, err := limiter.Allow(ctx, "10.0.0.2", 5)
	assert.NoError(t, err)
	assert.False(t, allowed)
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	limiter := NewMemoryLimiter(0)
	ctx := context.Background()

	allowed, _, _, err := limiter.Allow(ctx, "10.0.0.3", 1)
	assert.NoError(t, err)
	assert.True(t, allowed)

	allowed, _, _, err = limiter.Allow(ctx, "10.0.0.3", 1)
	assert.NoError(t, err)
	assert.False(t, allowed)

	allowed, _, _, err = limiter.Allow(ctx, "10.0.0.4", 1)
	assert.NoError(t, err)
	assert.True(t, allowed)
}

func TestMemoryLimiter_PremiumKeyGetsHigherQuota(t *testing.T) {
	limiter := NewMemoryLimiter(0)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		allowed, _, _, err := limiter.Allow(ctx, "premium-user", 50)
		assert.NoError(t, err)
		assert.True(t, allowed)
	}

	_, remaining, _, err := limiter.Allow(ctx, "premium-user", 50)
	assert.NoError(t, err)
	assert.Equal(t, 39, remaining)
}

func TestMemoryLimiter_Reset(t *testing.T) {
	limiter := NewMemoryLimiter(0)
	ctx := context.Background()

	allowed, _, _, err := limiter.Allow(ctx, "10.0.0.5", 1)
	assert.NoError(t, err)
	assert.True(t, allowed)

	allowed, _, _, err = limiter.Allow(ctx, "10.0.0.5", 1)
	assert.NoError(t, err)
	assert.False(t, allowed)

	assert.NoError(t, limiter.Reset(ctx, "10.0.0.5"))

	allowed, _, _, err = limiter.Allow(ctx, "10.0.0.5", 1)
	assert.NoError(t, err)
	assert.True(t, allowed)
}
