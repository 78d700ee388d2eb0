package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/3r453r/math-courses-sub001/internal/metrics"
)

// ErrBatchIncomplete 表示批任务跑完但有单元失败，调用方可以带同一个
// batchID 重新运行来续跑剩余步骤。
var ErrBatchIncomplete = errors.New("batch incomplete: one or more units failed")

// Step 是批单元里的一个生成步骤。Run 收到的 artifacts 是当前单元
// 已完成步骤产物的快照副本，返回的键值会合并进检查点。
type Step struct {
	Name string
	Run  func(ctx context.Context, artifacts map[string]string) (map[string]string, error)
}

// Unit 是一个独立的工作单元，内部步骤顺序执行，单元之间并发。
type Unit struct {
	ID    string
	Steps []Step
}

// UnitResult 记录单个单元的执行结果。
type UnitResult struct {
	UnitID       string
	StepsRun     int
	StepsSkipped int
	Err          error
	Duration     time.Duration
}

// Summary 汇总一次批运行。
type Summary struct {
	BatchID string
	Results []UnitResult
	Failed  int
}

// Orchestrator 按并发上限调度批单元，每步落一次检查点。
type Orchestrator struct {
	store       Store
	logger      *zap.Logger
	collector   *metrics.Collector
	limiter     *rate.Limiter
	concurrency int64
}

// Option 调整调度器行为。
type Option func(*Orchestrator)

// WithRateLimiter 在每个步骤前加一道令牌桶闸门，用来压住上游配额。
func WithRateLimiter(l *rate.Limiter) Option {
	return func(o *Orchestrator) { o.limiter = l }
}

// WithMetrics 注入指标收集器。
func WithMetrics(c *metrics.Collector) Option {
	return func(o *Orchestrator) { o.collector = c }
}

// NewOrchestrator 创建批调度器。concurrency 必须大于零。
func NewOrchestrator(store Store, concurrency int, logger *zap.Logger, opts ...Option) (*Orchestrator, error) {
	if concurrency <= 0 {
		return nil, fmt.Errorf("concurrency must be positive, got %d", concurrency)
	}
	o := &Orchestrator{
		store:       store,
		logger:      logger.With(zap.String("component", "batch")),
		concurrency: int64(concurrency),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Run 执行一批单元。resume 为真时从检查点续跑，已完成的步骤直接跳过；
// 为假时丢弃旧检查点从头开始。所有单元都跑完才返回，任何单元失败时
// 返回 ErrBatchIncomplete，但不影响其它单元继续执行。
func (o *Orchestrator) Run(ctx context.Context, batchID string, units []Unit, resume bool) (*Summary, error) {
	var state *State
	if resume {
		loaded, err := o.store.Load(ctx, batchID)
		if err != nil {
			return nil, fmt.Errorf("load checkpoint: %w", err)
		}
		state = loaded
	} else {
		state = NewState()
		if err := o.store.Save(ctx, batchID, state); err != nil {
			return nil, fmt.Errorf("reset checkpoint: %w", err)
		}
	}

	sem := semaphore.NewWeighted(o.concurrency)
	results := make([]UnitResult, len(units))
	var mu sync.Mutex // 保护 state 和检查点写入
	var wg sync.WaitGroup

	for i, unit := range units {
		wg.Add(1)
		go func(idx int, u Unit) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				results[idx] = UnitResult{UnitID: u.ID, Err: err}
				return
			}
			defer sem.Release(1)

			if o.collector != nil {
				o.collector.BatchUnitStarted()
				defer o.collector.BatchUnitFinished()
			}
			results[idx] = o.runUnit(ctx, batchID, u, state, &mu)
		}(i, unit)
	}
	wg.Wait()

	summary := &Summary{BatchID: batchID, Results: results}
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
		}
	}

	o.logger.Info("batch finished",
		zap.String("batch_id", batchID),
		zap.Int("units", len(units)),
		zap.Int("failed", summary.Failed))

	if summary.Failed > 0 {
		return summary, ErrBatchIncomplete
	}
	return summary, nil
}

func (o *Orchestrator) runUnit(ctx context.Context, batchID string, u Unit, state *State, mu *sync.Mutex) UnitResult {
	start := time.Now()
	res := UnitResult{UnitID: u.ID}

	for _, step := range u.Steps {
		mu.Lock()
		us := state.Unit(u.ID)
		done := us.IsDone(step.Name)
		arts := us.ArtifactsCopy()
		mu.Unlock()

		if done {
			res.StepsSkipped++
			continue
		}

		if o.limiter != nil {
			if err := o.limiter.Wait(ctx); err != nil {
				res.Err = err
				res.Duration = time.Since(start)
				return res
			}
		}

		out, err := step.Run(ctx, arts)
		if err != nil {
			o.logger.Warn("batch step failed",
				zap.String("batch_id", batchID),
				zap.String("unit_id", u.ID),
				zap.String("step", step.Name),
				zap.Error(err))
			res.Err = fmt.Errorf("step %s: %w", step.Name, err)
			res.Duration = time.Since(start)
			o.observeUnit(false)
			return res
		}
		res.StepsRun++

		mu.Lock()
		us = state.Unit(u.ID)
		us.MarkDone(step.Name)
		us.Merge(out)
		saveErr := o.store.Save(ctx, batchID, state)
		mu.Unlock()

		// 检查点写不进去就不能声称这一步完成，算单元失败。
		// 内存里的完成标记不回滚：这一步确实跑完了，兄弟单元随后
		// 成功落盘时会把它一并持久化，续跑只会跳过真正完成的步骤。
		if saveErr != nil {
			res.Err = fmt.Errorf("save checkpoint after %s: %w", step.Name, saveErr)
			res.Duration = time.Since(start)
			o.observeUnit(false)
			return res
		}
	}

	res.Duration = time.Since(start)
	o.observeUnit(true)
	return res
}

func (o *Orchestrator) observeUnit(ok bool) {
	if o.collector == nil {
		return
	}
	status := "success"
	if !ok {
		status = "failed"
	}
	o.collector.ObserveBatchUnit(status)
}
