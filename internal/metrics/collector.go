// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Collector 指标收集器：生成结果、修复层、重试与批任务。
type Collector struct {
	generationsTotal    *prometheus.CounterVec
	generationDuration  *prometheus.HistogramVec
	repairLayersTotal   *prometheus.CounterVec
	retryAttemptsTotal  *prometheus.CounterVec
	retryBackoffSeconds *prometheus.HistogramVec
	batchUnitsTotal     *prometheus.CounterVec
	batchUnitsInFlight  prometheus.Gauge

	logger *zap.Logger
}

// NewCollector 创建指标收集器并注册到给定 registry（nil 则新建独立 registry）。
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Generation attempts by type, provider, and outcome",
		},
		[]string{"generation_type", "provider", "outcome"},
	)

	c.generationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Wall time of one generation attempt",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"generation_type"},
	)

	c.repairLayersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "repair_layer_invocations_total",
			Help:      "Repair layer invocations by layer and categorical result",
		},
		[]string{"layer", "result"},
	)

	c.retryAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retry_attempts_total",
			Help:      "Retry attempts by failure class",
		},
		[]string{"class"},
	)

	c.retryBackoffSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retry_backoff_seconds",
			Help:      "Backoff delays applied between attempts",
			Buckets:   []float64{2, 4, 8, 16, 32, 64, 120, 180},
		},
		[]string{"class"},
	)

	c.batchUnitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_units_total",
			Help:      "Batch units by terminal status",
		},
		[]string{"status"},
	)

	c.batchUnitsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "batch_units_in_flight",
			Help:      "Units currently holding a concurrency slot",
		},
	)

	reg.MustRegister(
		c.generationsTotal,
		c.generationDuration,
		c.repairLayersTotal,
		c.retryAttemptsTotal,
		c.retryBackoffSeconds,
		c.batchUnitsTotal,
		c.batchUnitsInFlight,
	)

	return c
}

// ObserveGeneration 记录一次生成结果。
func (c *Collector) ObserveGeneration(generationType, provider, outcome string) {
	c.generationsTotal.WithLabelValues(generationType, provider, outcome).Inc()
}

// ObserveGenerationDuration 记录一次生成耗时。
func (c *Collector) ObserveGenerationDuration(generationType string, d time.Duration) {
	c.generationDuration.WithLabelValues(generationType).Observe(d.Seconds())
}

// ObserveRepairLayer 记录一次修复层调用。
func (c *Collector) ObserveRepairLayer(layer int, result string) {
	c.repairLayersTotal.WithLabelValues(strconv.Itoa(layer), result).Inc()
}

// ObserveRetry 记录一次重试及其退避时长。
func (c *Collector) ObserveRetry(class string, backoff time.Duration) {
	c.retryAttemptsTotal.WithLabelValues(class).Inc()
	if backoff > 0 {
		c.retryBackoffSeconds.WithLabelValues(class).Observe(backoff.Seconds())
	}
}

// ObserveBatchUnit 记录一个批任务单元的终态。
func (c *Collector) ObserveBatchUnit(status string) {
	c.batchUnitsTotal.WithLabelValues(status).Inc()
}

// BatchUnitStarted / BatchUnitFinished 维护在途单元数。
func (c *Collector) BatchUnitStarted()  { c.batchUnitsInFlight.Inc() }
func (c *Collector) BatchUnitFinished() { c.batchUnitsInFlight.Dec() }
