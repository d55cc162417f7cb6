// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器
type Collector struct {
	// DSL 指标
	parsesTotal        *prometheus.CounterVec
	parseDuration      prometheus.Histogram
	parsedNodes        prometheus.Histogram
	generationsTotal   prometheus.Counter
	generationDuration prometheus.Histogram

	// 校验指标
	validationsTotal *prometheus.CounterVec
	validationErrors *prometheus.CounterVec

	// 存储指标
	storeOpsTotal   *prometheus.CounterVec
	storeOpDuration *prometheus.HistogramVec

	// 缓存指标
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter

	logger *zap.Logger
}

// NewCollector 创建指标收集器
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// DSL 指标
	c.parsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parses_total",
			Help:      "Total number of DSL parse attempts",
		},
		[]string{"status"}, // status: success, lexical_error, syntax_error, unresolved_reference
	)

	c.parseDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "parse_duration_seconds",
			Help:      "DSL parse duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
	)

	c.parsedNodes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "parsed_nodes",
			Help:      "Number of nodes per successfully parsed workflow",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	c.generationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Total number of DSL generations",
		},
	)

	c.generationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "DSL generation duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
	)

	// 校验指标
	c.validationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validations_total",
			Help:      "Total number of workflow validations",
		},
		[]string{"result"}, // result: valid, invalid
	)

	c.validationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_errors_total",
			Help:      "Total number of validation errors by code",
		},
		[]string{"code"},
	)

	// 存储指标
	c.storeOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Total number of store operations",
		},
		[]string{"operation", "status"},
	)

	c.storeOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Store operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// 缓存指标
	c.cacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of workflow cache hits",
		},
	)

	c.cacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of workflow cache misses",
		},
	)

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🎯 DSL 指标记录
// =============================================================================

// RecordParse 记录一次解析
func (c *Collector) RecordParse(status string, duration time.Duration, nodeCount int) {
	c.parsesTotal.WithLabelValues(status).Inc()
	c.parseDuration.Observe(duration.Seconds())
	if status == "success" {
		c.parsedNodes.Observe(float64(nodeCount))
	}
}

// RecordGeneration 记录一次 DSL 生成
func (c *Collector) RecordGeneration(duration time.Duration) {
	c.generationsTotal.Inc()
	c.generationDuration.Observe(duration.Seconds())
}

// =============================================================================
// ✅ 校验指标记录
// =============================================================================

// RecordValidation 记录一次校验及其错误码分布
func (c *Collector) RecordValidation(valid bool, errorCodes []string) {
	result := "valid"
	if !valid {
		result = "invalid"
	}
	c.validationsTotal.WithLabelValues(result).Inc()

	for _, code := range errorCodes {
		c.validationErrors.WithLabelValues(code).Inc()
	}
}

// =============================================================================
// 🗄️ 存储指标记录
// =============================================================================

// RecordStoreOp 记录存储操作
func (c *Collector) RecordStoreOp(operation string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	c.storeOpsTotal.WithLabelValues(operation, status).Inc()
	c.storeOpDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// =============================================================================
// 💾 缓存指标记录
// =============================================================================

// RecordCacheHit 记录缓存命中
func (c *Collector) RecordCacheHit() {
	c.cacheHits.Inc()
}

// RecordCacheMiss 记录缓存未命中
func (c *Collector) RecordCacheMiss() {
	c.cacheMisses.Inc()
}
