// Package mathgen wires the structured-generation pipeline together: one
// call runs a schema-driven generation through the escalating repair
// layers, classified retry with backoff around the whole attempt, and an
// audit record per attempt.
//
// Usage:
//
//	p := mathgen.NewPipeline(cfg, invoker, sink, logger)
//	value, err := p.Generate(ctx, &recovery.Request{...})
package mathgen

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/3r453r/math-courses-sub001/audit"
	"github.com/3r453r/math-courses-sub001/batch"
	"github.com/3r453r/math-courses-sub001/config"
	"github.com/3r453r/math-courses-sub001/internal/metrics"
	"github.com/3r453r/math-courses-sub001/llm"
	"github.com/3r453r/math-courses-sub001/recovery"
	"github.com/3r453r/math-courses-sub001/retry"
	"github.com/3r453r/math-courses-sub001/types"
)

// Pipeline is the assembled generation stack.
type Pipeline struct {
	cfg       *config.Config
	orch      *recovery.Orchestrator
	collector *metrics.Collector
	logger    *zap.Logger
	sleeper   retry.Sleeper
}

// PipelineOption configures the pipeline.
type PipelineOption func(*pipelineOptions)

type pipelineOptions struct {
	registry prometheus.Registerer
	sleeper  retry.Sleeper
}

// WithRegistry registers pipeline metrics on reg instead of a private
// registry.
func WithRegistry(reg prometheus.Registerer) PipelineOption {
	return func(o *pipelineOptions) { o.registry = reg }
}

// WithSleeper replaces the backoff wait between retry attempts.
func WithSleeper(s retry.Sleeper) PipelineOption {
	return func(o *pipelineOptions) { o.sleeper = s }
}

// NewPipeline assembles the recovery orchestrator, metrics, and audit
// wiring from config.
func NewPipeline(cfg *config.Config, invoker llm.Invoker, sink audit.Sink, logger *zap.Logger, opts ...PipelineOption) *Pipeline {
	var po pipelineOptions
	for _, opt := range opts {
		opt(&po)
	}

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(cfg.Metrics.Namespace, po.registry, logger)
	}

	orchOpts := []recovery.Option{
		recovery.WithLogOptions(
			audit.WithInlineThreshold(cfg.Audit.InlineThreshold),
			audit.WithRetention(time.Duration(cfg.Audit.RetentionDays)*24*time.Hour),
		),
	}
	if collector != nil {
		orchOpts = append(orchOpts, recovery.WithMetrics(collector))
	}

	return &Pipeline{
		cfg:       cfg,
		orch:      recovery.New(invoker, sink, logger, orchOpts...),
		collector: collector,
		logger:    logger.With(zap.String("component", "pipeline")),
		sleeper:   po.sleeper,
	}
}

// Generate runs one generation with classified retry around the repair
// layers. Malformed output that exhausted all repair layers surfaces
// immediately; every other failure is classified and retried.
func (p *Pipeline) Generate(ctx context.Context, req *recovery.Request) (any, error) {
	return p.generate(ctx, req, retry.Policy{MaxAttempts: p.cfg.Retry.MaxAttempts})
}

// GenerateForBatch is Generate under the batch retry policy.
func (p *Pipeline) GenerateForBatch(ctx context.Context, req *recovery.Request) (any, error) {
	return p.generate(ctx, req, retry.Policy{MaxAttempts: p.cfg.Retry.BatchMaxAttempts})
}

func (p *Pipeline) generate(ctx context.Context, req *recovery.Request, policy retry.Policy) (any, error) {
	p.applyDefaults(req)
	if p.cfg.LLM.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.LLM.Timeout)
		defer cancel()
	}

	ctlOpts := []retry.Option{retry.WithObserver(p.observeAttempt)}
	if p.sleeper != nil {
		ctlOpts = append(ctlOpts, retry.WithSleeper(p.sleeper))
	}
	ctl := retry.NewController(policy, p.logger, ctlOpts...)

	return ctl.Do(ctx, func(ctx context.Context) (any, error) {
		v, genErr := p.orch.Generate(ctx, req)
		if genErr != nil && !retryableFailure(genErr) {
			return nil, retry.Abort(genErr)
		}
		return v, genErr
	})
}

// applyDefaults fills unset request fields from the LLM config section.
func (p *Pipeline) applyDefaults(req *recovery.Request) {
	if req.Provider == "" {
		req.Provider = llm.Provider(p.cfg.LLM.DefaultProvider)
	}
	if req.Model == "" {
		req.Model = p.cfg.LLM.DefaultModel
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = p.cfg.LLM.MaxTokens
	}
	if req.Temperature == 0 {
		req.Temperature = float32(p.cfg.LLM.Temperature)
	}
}

func (p *Pipeline) observeAttempt(a retry.Attempt) {
	if p.collector == nil || a.Err == nil {
		return
	}
	p.collector.ObserveRetry(string(a.Class), a.Delay)
}

// retryableFailure reports whether re-invoking the model could change
// the result. Output the repair layers already gave up on will not get
// better by retrying the identical prompt. Failures that never produced
// output (network errors, auth rejections) go through classification
// like any other provider failure.
func retryableFailure(err error) bool {
	switch types.GetErrorCode(err) {
	case types.ErrMalformedOutput, types.ErrAllLayersExhausted:
		return false
	}
	return true
}

// NewBatchOrchestrator builds the batch scheduler from config, choosing
// the checkpoint store backend and wiring the optional step rate limit.
func NewBatchOrchestrator(cfg *config.Config, logger *zap.Logger, collector *metrics.Collector) (*batch.Orchestrator, error) {
	var store batch.Store
	switch cfg.Batch.CheckpointStore {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		store = batch.NewRedisStore(client, cfg.Batch.CheckpointTTL, logger)
	default:
		fs, err := batch.NewFileStore(cfg.Batch.CheckpointDir, logger)
		if err != nil {
			return nil, err
		}
		store = fs
	}

	opts := []batch.Option{}
	if cfg.Batch.StepsPerSecond > 0 {
		opts = append(opts, batch.WithRateLimiter(rate.NewLimiter(rate.Limit(cfg.Batch.StepsPerSecond), 1)))
	}
	if collector != nil {
		opts = append(opts, batch.WithMetrics(collector))
	}

	return batch.NewOrchestrator(store, cfg.Batch.Concurrency, logger, opts...)
}

// Collector exposes the pipeline's metrics collector for sharing with
// the batch orchestrator. Nil when metrics are disabled.
func (p *Pipeline) Collector() *metrics.Collector { return p.collector }
