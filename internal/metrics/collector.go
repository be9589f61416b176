// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/BaSui01/uniai/llm"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器
type Collector struct {
	// 请求指标
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	tokensTotal     *prometheus.CounterVec

	// 流式指标
	streamEvents *prometheus.CounterVec

	// 令牌缓存指标
	tokenCacheLookups *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector 创建指标收集器并注册到 reg，reg 为 nil 时使用默认注册表。
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.requestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of chat and embedding requests",
		},
		[]string{"provider", "operation", "status"},
	)

	c.requestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Request duration in seconds, streams measured until close",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"provider", "operation"},
	)

	c.tokensTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_total",
			Help:      "Total number of tokens reported by vendors",
		},
		[]string{"provider", "type"}, // type: prompt, completion
	)

	c.streamEvents = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_events_total",
			Help:      "Total number of snapshots delivered to stream consumers",
		},
		[]string{"provider"},
	)

	c.tokenCacheLookups = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_cache_lookups_total",
			Help:      "Access token cache lookups by result",
		},
		[]string{"result"}, // result: hit, miss
	)

	c.logger.Debug("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🤖 请求指标记录
// =============================================================================

// RecordRequest 记录一次 chat / embedding 调用
func (c *Collector) RecordRequest(provider, operation string, err error, duration time.Duration) {
	c.requestsTotal.WithLabelValues(provider, operation, Status(err)).Inc()
	c.requestDuration.WithLabelValues(provider, operation).Observe(duration.Seconds())
}

// RecordTokens 记录 Token 用量
func (c *Collector) RecordTokens(provider string, promptTokens, completionTokens int) {
	if promptTokens > 0 {
		c.tokensTotal.WithLabelValues(provider, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		c.tokensTotal.WithLabelValues(provider, "completion").Add(float64(completionTokens))
	}
}

// RecordStreamEvent 记录一个下发给调用方的流式快照
func (c *Collector) RecordStreamEvent(provider string) {
	c.streamEvents.WithLabelValues(provider).Inc()
}

// RecordTokenCache 记录令牌缓存命中情况，签名与 tokencache.Observer 一致。
func (c *Collector) RecordTokenCache(_ string, hit bool) {
	if hit {
		c.tokenCacheLookups.WithLabelValues("hit").Inc()
		return
	}
	c.tokenCacheLookups.WithLabelValues("miss").Inc()
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

// Status 将错误归类为指标标签：success、closed、canceled 或小写错误码。
func Status(err error) string {
	if err == nil {
		return "success"
	}
	if errors.Is(err, llm.ErrStreamClosed) {
		return "closed"
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "canceled"
	}
	switch llm.CodeOf(err) {
	case llm.ErrMissingCredential:
		return "missing_credential"
	case llm.ErrUnsupportedProvider:
		return "unsupported_provider"
	case llm.ErrEmptyInput:
		return "empty_input"
	case llm.ErrUnsupportedFormat:
		return "unsupported_format"
	case llm.ErrVendor:
		return "vendor_error"
	case llm.ErrContentBlocked:
		return "content_blocked"
	case llm.ErrTransport:
		return "transport_error"
	default:
		return "error"
	}
}
