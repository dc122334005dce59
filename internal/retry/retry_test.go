package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() *Config {
	return &Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(), func(ctx context.Context, attempt int) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesTransientFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(), func(ctx context.Context, attempt int) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	underlying := errors.New("still broken")
	err := Do(context.Background(), fastConfig(), func(ctx context.Context, attempt int) error {
		calls++
		return underlying
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, underlying)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestDoStopsOnPermanentError(t *testing.T) {
	calls := 0
	underlying := errors.New("bad request")
	err := Do(context.Background(), fastConfig(), func(ctx context.Context, attempt int) error {
		calls++
		return Permanent(underlying)
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls, "permanent errors must not be retried")
	assert.Equal(t, underlying, err, "the wrapper is stripped before returning")
}

func TestDoHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := Do(ctx, fastConfig(), func(ctx context.Context, attempt int) error {
		calls++
		cancel()
		return errors.New("transient")
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestBackoffDelayCapped(t *testing.T) {
	cfg := &Config{
		MaxAttempts:  10,
		InitialDelay: time.Second,
		MaxDelay:     4 * time.Second,
		Multiplier:   2.0,
	}

	assert.Equal(t, time.Second, backoffDelay(cfg, 1))
	assert.Equal(t, 2*time.Second, backoffDelay(cfg, 2))
	assert.Equal(t, 4*time.Second, backoffDelay(cfg, 3))
	assert.Equal(t, 4*time.Second, backoffDelay(cfg, 8), "delay never exceeds the cap")
}
