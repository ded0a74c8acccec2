package config

import (
	"time"
)

type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Queue          QueueConfig          `mapstructure:"queue"`
	Backoff        BackoffConfig        `mapstructure:"backoff"`
	Processing     ProcessingConfig     `mapstructure:"processing"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Ledger         LedgerConfig         `mapstructure:"ledger"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	Tracing        TracingConfig        `mapstructure:"tracing"`
}

type ServerConfig struct {
	Port                int             `mapstructure:"port"`
	ReadTimeoutSeconds  time.Duration   `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds time.Duration   `mapstructure:"write_timeout_seconds"`
	RateLimit           RateLimitConfig `mapstructure:"rate_limit"`
}

type QueueConfig struct {
	URL      string `mapstructure:"url"`
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint"`
	// MaxReceiveCount mirrors the redrive policy of the queue. When
	// backoff.max_attempts is unset it becomes MaxReceiveCount-1.
	MaxReceiveCount          int         `mapstructure:"max_receive_count"`
	MaxMessages              int         `mapstructure:"max_messages"`
	WaitTimeSeconds          int         `mapstructure:"wait_time_seconds"`
	VisibilityTimeoutSeconds int         `mapstructure:"visibility_timeout_seconds"`
	VisibilityRPS            float64     `mapstructure:"visibility_rps"`
	VisibilityBurst          int         `mapstructure:"visibility_burst"`
	Retry                    RetryConfig `mapstructure:"retry"`
}

type RetryConfig struct {
	MaxAttempts     int           `mapstructure:"max_attempts"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	Multiplier      float64       `mapstructure:"multiplier"`
	MaxElapsedTime  time.Duration `mapstructure:"max_elapsed_time"`
}

type BackoffConfig struct {
	Delays          []int           `mapstructure:"delays"`
	MaxAttempts     int             `mapstructure:"max_attempts"`
	MaxAllowedDelay int             `mapstructure:"max_allowed_delay"`
	Generate        *GenerateConfig `mapstructure:"generate"`
}

// GenerateConfig derives the delay table from an exponential policy instead
// of listing it.
type GenerateConfig struct {
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	Multiplier      float64       `mapstructure:"multiplier"`
	Steps           int           `mapstructure:"steps"`
}

type ProcessingConfig struct {
	RetryWhen string `mapstructure:"retry_when"`
	FailWhen  string `mapstructure:"fail_when"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
}

type LedgerConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	TTLSeconds int  `mapstructure:"ttl_seconds"`
}

type RateLimitConfig struct {
	Enabled         bool    `mapstructure:"enabled"`
	RPS             float64 `mapstructure:"rps"`
	Burst           int     `mapstructure:"burst"`
	CleanupInterval int     `mapstructure:"cleanup_interval"`
	MaxAge          int     `mapstructure:"max_age"`
}

type CircuitBreakerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
	MinRequests  uint32        `mapstructure:"min_requests"`
}

type TracingConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	ServiceName string        `mapstructure:"service_name"`
	OTLP        OTLPConfig    `mapstructure:"otlp"`
	Sampler     SamplerConfig `mapstructure:"sampler"`
}

type OTLPConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
}

type SamplerConfig struct {
	Type  string  `mapstructure:"type"`
	Param float64 `mapstructure:"param"`
}

func Load(configFile string) (*Config, error) {
	return LoadConfig(configFile)
}
