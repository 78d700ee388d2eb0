package retry

import (
	"strings"
	"time"

	"github.com/3r453r/math-courses-sub001/types"
)

// Class 是失败分类，决定退避曲线。
type Class string

const (
	ClassRateLimit  Class = "rate_limit" // 指数退避：4s 起，倍增，封顶 120s
	ClassOverloaded Class = "overloaded" // 指数退避：8s 起，倍增，封顶 180s
	ClassTransient  Class = "transient"  // 线性退避：2s × 尝试序号
)

// 退避参数。未知错误一律按 transient 处理。
const (
	rateLimitInitial  = 4 * time.Second
	rateLimitCap      = 120 * time.Second
	overloadedInitial = 8 * time.Second
	overloadedCap     = 180 * time.Second
	transientStep     = 2 * time.Second
)

var rateLimitHints = []string{"rate limit", "rate_limit", "429", "too many requests", "quota"}

var overloadedHints = []string{"overload", "529", "503", "service unavailable", "capacity"}

// Classify 将一次尝试的失败归类。优先看结构化错误码，退化到消息匹配。
func Classify(err error) Class {
	if err == nil {
		return ClassTransient
	}

	switch types.GetErrorCode(err) {
	case types.ErrRateLimited:
		return ClassRateLimit
	case types.ErrModelOverloaded:
		return ClassOverloaded
	}

	msg := strings.ToLower(err.Error())
	for _, h := range rateLimitHints {
		if strings.Contains(msg, h) {
			return ClassRateLimit
		}
	}
	for _, h := range overloadedHints {
		if strings.Contains(msg, h) {
			return ClassOverloaded
		}
	}
	return ClassTransient
}

// BackoffFor 计算第 attempt 次失败后的等待时长（attempt 从 1 计）。
func BackoffFor(class Class, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	switch class {
	case ClassRateLimit:
		return capped(rateLimitInitial<<(attempt-1), rateLimitCap)
	case ClassOverloaded:
		return capped(overloadedInitial<<(attempt-1), overloadedCap)
	default:
		return transientStep * time.Duration(attempt)
	}
}

func capped(d, max time.Duration) time.Duration {
	// 位移溢出会变为非正值，同样按封顶处理。
	if d <= 0 || d > max {
		return max
	}
	return d
}
