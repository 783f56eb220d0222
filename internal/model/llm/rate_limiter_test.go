// Copyright 2026 fanjia1024
// Tests for the inference rate limiter

package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_NoLimitsNeverBlocks(t *testing.T) {
	l := NewRateLimiter(LimitConfig{})
	for i := 0; i < 100; i++ {
		require.NoError(t, l.Wait(context.Background(), 1000))
		l.Release()
	}
}

func TestRateLimiter_ConcurrencyCap(t *testing.T) {
	l := NewRateLimiter(LimitConfig{MaxConcurrent: 2})

	require.NoError(t, l.Wait(context.Background(), 0))
	require.NoError(t, l.Wait(context.Background(), 0))

	// 第三个并发请求要等 slot；ctx 超时即返回
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := l.Wait(ctx, 0)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	l.Release()
	require.NoError(t, l.Wait(context.Background(), 0))
}

func TestRateLimiter_ReleaseWithoutWaitIsSafe(t *testing.T) {
	l := NewRateLimiter(LimitConfig{MaxConcurrent: 1})
	l.Release()
	l.Release()
	require.NoError(t, l.Wait(context.Background(), 0))
}

func TestRateLimiter_TokenBudgetBlocks(t *testing.T) {
	// 60 tokens/min = 1 token/s，burst 2：第一笔 2 tokens 立即通过，
	// 再要 2 tokens 必须等待
	l := NewRateLimiter(LimitConfig{TokensPerMinute: 60})
	require.NoError(t, l.Wait(context.Background(), 2))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := l.Wait(ctx, 2)
	assert.Error(t, err)
}

func TestRateLimiter_Stats(t *testing.T) {
	l := NewRateLimiter(LimitConfig{TokensPerMinute: 90000, RequestsPerMinute: 60, MaxConcurrent: 4})
	require.NoError(t, l.Wait(context.Background(), 123))
	defer l.Release()

	stats := l.Stats()
	assert.Equal(t, 90000, stats["tokens_per_minute"])
	assert.Equal(t, 123, stats["tokens_used_minute"])
	assert.Equal(t, 4, stats["max_concurrent"])
}
