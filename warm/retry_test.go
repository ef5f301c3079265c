package warm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryWithBackoff(t *testing.T) {
	transient := errors.New("connection reset")
	missing := errors.New("gone")

	tests := []struct {
		name         string
		failures     int
		failWith     error
		maxAttempts  int
		wantErr      error
		wantAttempts int
	}{
		{name: "first try", failures: 0, maxAttempts: 3, wantAttempts: 1},
		{name: "eventual success", failures: 2, failWith: transient, maxAttempts: 5, wantAttempts: 3},
		{name: "all attempts fail", failures: 10, failWith: transient, maxAttempts: 3, wantErr: transient, wantAttempts: 3},
		{name: "permanent stops at once", failures: 10, failWith: Permanent(missing), maxAttempts: 5, wantErr: missing, wantAttempts: 1},
		{name: "invalid attempts", maxAttempts: 0, wantErr: ErrInvalidMaxAttempts, wantAttempts: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			err := RetryWithBackoff(context.Background(), func() error {
				attempts++
				if attempts <= tt.failures {
					return tt.failWith
				}
				return nil
			}, tt.maxAttempts, time.Millisecond)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantAttempts, attempts)
		})
	}
}

func TestRetryWithBackoff_PermanentIsUnwrapped(t *testing.T) {
	missing := errors.New("gone")
	err := RetryWithBackoff(context.Background(), func() error {
		return Permanent(missing)
	}, 3, time.Millisecond)
	assert.Same(t, missing, err)
	assert.Nil(t, Permanent(nil))
}

func TestRetryWithBackoff_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := RetryWithBackoff(ctx, func() error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errors.New("error")
	}, 10, time.Millisecond)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, attempts)
}

func TestRetryWithBackoff_BackoffGrows(t *testing.T) {
	var stamps []time.Time
	_ = RetryWithBackoff(context.Background(), func() error {
		stamps = append(stamps, time.Now())
		return errors.New("error")
	}, 3, 20*time.Millisecond)

	require.Len(t, stamps, 3)
	assert.GreaterOrEqual(t, stamps[1].Sub(stamps[0]), 20*time.Millisecond)
	assert.GreaterOrEqual(t, stamps[2].Sub(stamps[1]), 40*time.Millisecond)
}
