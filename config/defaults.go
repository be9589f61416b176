// =============================================================================
// 📦 UniAI 默认配置
// =============================================================================
// 提供所有配置项的合理默认值，服务商凭证默认留空
// =============================================================================
package config

import (
	"github.com/BaSui01/uniai/llm/providers"
	"github.com/BaSui01/uniai/llm/tokencache"
	"github.com/BaSui01/uniai/llm/transport"
)

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Providers:  providers.Config{},
		HTTP:       DefaultHTTPConfig(),
		TokenCache: DefaultTokenCacheConfig(),
		Log:        DefaultLogConfig(),
		Metrics:    DefaultMetricsConfig(),
		Telemetry:  DefaultTelemetryConfig(),
	}
}

// DefaultHTTPConfig 返回默认 HTTP 配置。
// 不设响应头超时，请求寿命由调用方 context 决定。
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		ResponseHeaderTimeout: 0,
		Proxy:                 "",
		MaxMediaBytes:         transport.DefaultMaxMediaBytes,
		StrictMedia:           false,
	}
}

// DefaultTokenCacheConfig 返回默认令牌缓存配置
func DefaultTokenCacheConfig() TokenCacheConfig {
	return TokenCacheConfig{
		Driver: DriverMemory,
		Redis: tokencache.RedisConfig{
			Addr:   "localhost:6379",
			DB:     0,
			Prefix: "uniai:token:",
		},
		SQLite: SQLiteConfig{
			Path: "uniai_tokens.db",
		},
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stderr"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   false,
		Namespace: "uniai",
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "uniai",
		SampleRate:   0.1,
	}
}
