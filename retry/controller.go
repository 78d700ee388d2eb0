package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Policy 定义重试边界。不同调用点允许不同的尝试上限。
type Policy struct {
	MaxAttempts int `json:"max_attempts"`
}

// DefaultPolicy 单次交互式生成的默认上限。
func DefaultPolicy() Policy { return Policy{MaxAttempts: 3} }

// BatchPolicy 批量作业的默认上限（批内失败代价更高，放宽到 5 次）。
func BatchPolicy() Policy { return Policy{MaxAttempts: 5} }

// Attempt 上报给观察者的单次尝试信息，成功失败都会上报。
type Attempt struct {
	Number  int
	Class   Class
	Err     error
	Elapsed time.Duration
	Delay   time.Duration
}

// Observer 每次尝试结束时回调（通常接审计与指标）。
type Observer func(Attempt)

// Sleeper 退避等待的注入点，方便测试替换真实时钟。
type Sleeper func(ctx context.Context, d time.Duration) error

// abortError 包住一个不该重试的错误，Do 看到后立即停止。
type abortError struct{ err error }

func (e *abortError) Error() string { return e.err.Error() }
func (e *abortError) Unwrap() error { return e.err }

// Abort 标记 err 为不可重试：Do 上报这次尝试后不再退避，
// 直接原样返回被包住的错误。
func Abort(err error) error {
	if err == nil {
		return nil
	}
	return &abortError{err: err}
}

// Controller 以分类退避包裹单个生成尝试。
type Controller struct {
	policy   Policy
	logger   *zap.Logger
	observer Observer
	sleep    Sleeper
}

// Option 配置 Controller。
type Option func(*Controller)

// WithObserver 设置尝试观察者。
func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observer = o }
}

// WithSleeper 替换退避等待实现。
func WithSleeper(s Sleeper) Option {
	return func(c *Controller) { c.sleep = s }
}

// NewController 创建重试控制器。
func NewController(policy Policy, logger *zap.Logger, opts ...Option) *Controller {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = DefaultPolicy().MaxAttempts
	}
	c := &Controller{
		policy: policy,
		logger: logger.With(zap.String("component", "retry_controller")),
		sleep:  sleepWithContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do 执行 fn，失败时按分类退避重试，耗尽后原样返回最后一个错误。
func (c *Controller) Do(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, error) {
	var lastErr error

	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		start := time.Now()
		result, err := fn(ctx)
		elapsed := time.Since(start)

		if err == nil {
			c.report(Attempt{Number: attempt, Elapsed: elapsed})
			if attempt > 1 {
				c.logger.Info("attempt succeeded after retry", zap.Int("attempt", attempt))
			}
			return result, nil
		}

		var abort *abortError
		if errors.As(err, &abort) {
			// 不可重试的失败也要如实上报给观察者，避免指标漏记。
			c.report(Attempt{Number: attempt, Class: Classify(abort.err), Err: abort.err, Elapsed: elapsed})
			c.logger.Debug("attempt failed, not retryable",
				zap.Int("attempt", attempt),
				zap.Error(abort.err),
			)
			return nil, abort.err
		}

		lastErr = err
		class := Classify(err)

		var delay time.Duration
		if attempt < c.policy.MaxAttempts {
			delay = BackoffFor(class, attempt)
		}
		c.report(Attempt{Number: attempt, Class: class, Err: err, Elapsed: elapsed, Delay: delay})

		if attempt >= c.policy.MaxAttempts {
			break
		}

		c.logger.Debug("attempt failed, backing off",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.policy.MaxAttempts),
			zap.String("class", string(class)),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		if err := c.sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("retry cancelled: %w", err)
		}
	}

	c.logger.Warn("retries exhausted",
		zap.Int("attempts", c.policy.MaxAttempts),
		zap.Error(lastErr),
	)
	return nil, lastErr
}

func (c *Controller) report(a Attempt) {
	if c.observer != nil {
		c.observer(a)
	}
}

// sleepWithContext 定时挂起，同时响应取消；绝不忙等。
func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
