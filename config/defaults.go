// =============================================================================
// 📦 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		LLM:      DefaultLLMConfig(),
		Retry:    DefaultRetryConfig(),
		Batch:    DefaultBatchConfig(),
		Audit:    DefaultAuditConfig(),
		Redis:    DefaultRedisConfig(),
		Database: DefaultDatabaseConfig(),
		Log:      DefaultLogConfig(),
		Metrics:  DefaultMetricsConfig(),
	}
}

// DefaultLLMConfig 返回默认 LLM 配置
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		DefaultProvider: "anthropic",
		DefaultModel:    "claude-3-5-sonnet-20241022",
		Timeout:         2 * time.Minute,
		MaxTokens:       8192,
		Temperature:     0.7,
	}
}

// DefaultRetryConfig 返回默认重试配置
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:      3,
		BatchMaxAttempts: 5,
	}
}

// DefaultBatchConfig 返回默认批量配置
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		Concurrency:     4,
		StepsPerSecond:  0,
		CheckpointStore: "file",
		CheckpointDir:   "checkpoints",
		CheckpointTTL:   0,
	}
}

// DefaultAuditConfig 返回默认生成日志配置
func DefaultAuditConfig() AuditConfig {
	return AuditConfig{
		InlineThreshold: 2048,
		RetentionDays:   30,
	}
}

// DefaultRedisConfig 返回默认 Redis 配置
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:     "localhost:6379",
		Password: "",
		DB:       0,
		PoolSize: 10,
	}
}

// DefaultDatabaseConfig 返回默认审计库配置
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Path: "generation_logs.db",
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:       "info",
		Format:      "json",
		OutputPaths: []string{"stdout"},
	}
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   true,
		Namespace: "mathgen",
	}
}
