package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/3r453r/math-courses-sub001/types"
)

// fakeSleeper 只记录退避时长，从不真正挂起。
func fakeSleeper(delays *[]time.Duration) Sleeper {
	return func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestController_FirstAttemptSucceeds(t *testing.T) {
	var delays []time.Duration
	c := NewController(DefaultPolicy(), zap.NewNop(), WithSleeper(fakeSleeper(&delays)))

	calls := 0
	result, err := c.Do(context.Background(), func(context.Context) (any, error) {
		calls++
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 1, calls)
	assert.Empty(t, delays)
}

func TestController_RateLimitBackoffCurve(t *testing.T) {
	var delays []time.Duration
	c := NewController(BatchPolicy(), zap.NewNop(), WithSleeper(fakeSleeper(&delays)))

	calls := 0
	_, err := c.Do(context.Background(), func(context.Context) (any, error) {
		calls++
		if calls < 4 {
			return nil, types.NewError(types.ErrRateLimited, "429")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, 4, calls)
	// 第 1、2、3 次失败后的退避分别是 4s、8s、16s。
	assert.Equal(t, []time.Duration{4 * time.Second, 8 * time.Second, 16 * time.Second}, delays)
}

func TestController_TransientLinearBackoff(t *testing.T) {
	var delays []time.Duration
	c := NewController(Policy{MaxAttempts: 3}, zap.NewNop(), WithSleeper(fakeSleeper(&delays)))

	_, err := c.Do(context.Background(), func(context.Context) (any, error) {
		return nil, errors.New("connection reset")
	})

	require.Error(t, err)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, delays)
}

func TestController_ExhaustionReturnsLastError(t *testing.T) {
	var delays []time.Duration
	c := NewController(Policy{MaxAttempts: 3}, zap.NewNop(), WithSleeper(fakeSleeper(&delays)))

	calls := 0
	finalErr := types.NewError(types.ErrModelOverloaded, "still busy")
	_, err := c.Do(context.Background(), func(context.Context) (any, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("first failures")
		}
		return nil, finalErr
	})

	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, finalErr, "last error returned verbatim")
	assert.Len(t, delays, 2, "no backoff after the final attempt")
}

func TestController_ObserverSeesEveryAttempt(t *testing.T) {
	var attempts []Attempt
	var delays []time.Duration
	c := NewController(Policy{MaxAttempts: 3}, zap.NewNop(),
		WithSleeper(fakeSleeper(&delays)),
		WithObserver(func(a Attempt) { attempts = append(attempts, a) }),
	)

	calls := 0
	_, err := c.Do(context.Background(), func(context.Context) (any, error) {
		calls++
		if calls == 1 {
			return nil, types.NewError(types.ErrRateLimited, "429")
		}
		return "ok", nil
	})
	require.NoError(t, err)

	require.Len(t, attempts, 2, "成功和失败的尝试都要上报")
	assert.Equal(t, 1, attempts[0].Number)
	assert.Equal(t, ClassRateLimit, attempts[0].Class)
	assert.Equal(t, 4*time.Second, attempts[0].Delay)
	assert.Error(t, attempts[0].Err)

	assert.Equal(t, 2, attempts[1].Number)
	assert.NoError(t, attempts[1].Err)
	assert.Zero(t, attempts[1].Delay)
}

func TestController_AbortStopsImmediately(t *testing.T) {
	var attempts []Attempt
	var delays []time.Duration
	c := NewController(Policy{MaxAttempts: 5}, zap.NewNop(),
		WithSleeper(fakeSleeper(&delays)),
		WithObserver(func(a Attempt) { attempts = append(attempts, a) }),
	)

	permanent := errors.New("output beyond repair")
	calls := 0
	_, err := c.Do(context.Background(), func(context.Context) (any, error) {
		calls++
		return nil, Abort(permanent)
	})

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, permanent, "返回被包住的原始错误，不带包装")
	assert.Empty(t, delays, "不可重试的失败不退避")

	// 这次失败同样要进观察者，指标才不会漏记。
	require.Len(t, attempts, 1)
	assert.Equal(t, 1, attempts[0].Number)
	assert.ErrorIs(t, attempts[0].Err, permanent)
	assert.Zero(t, attempts[0].Delay)
}

func TestAbort_NilPassesThrough(t *testing.T) {
	assert.NoError(t, Abort(nil))
}

func TestController_ContextCancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := NewController(Policy{MaxAttempts: 5}, zap.NewNop(),
		WithSleeper(func(ctx context.Context, d time.Duration) error {
			cancel()
			return ctx.Err()
		}),
	)

	calls := 0
	_, err := c.Do(ctx, func(context.Context) (any, error) {
		calls++
		return nil, errors.New("boom")
	})

	assert.Equal(t, 1, calls, "cancelled backoff stops further attempts")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestController_InvalidPolicyFallsBack(t *testing.T) {
	var delays []time.Duration
	c := NewController(Policy{MaxAttempts: 0}, zap.NewNop(), WithSleeper(fakeSleeper(&delays)))

	calls := 0
	_, err := c.Do(context.Background(), func(context.Context) (any, error) {
		calls++
		return nil, errors.New("always fails")
	})

	require.Error(t, err)
	assert.Equal(t, DefaultPolicy().MaxAttempts, calls)
}

func TestPolicies(t *testing.T) {
	assert.Equal(t, 3, DefaultPolicy().MaxAttempts)
	assert.Equal(t, 5, BatchPolicy().MaxAttempts)
}
