package config

import (
	"fmt"
	"strings"
)

const (
	maxVisibilityTimeoutSeconds = 43200
	maxRedriveReceiveCount      = 1000
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

func ValidateStatic(cfg *Config) error {
	var errors []error

	if err := validateServer(cfg.Server); err != nil {
		errors = append(errors, err)
	}

	if err := validateQueue(cfg.Queue); err != nil {
		errors = append(errors, err)
	}

	if err := validateBackoff(cfg.Backoff); err != nil {
		errors = append(errors, err)
	}

	if err := validateLogging(cfg.Logging); err != nil {
		errors = append(errors, err)
	}

	if cfg.Ledger.Enabled {
		if err := validateRedis(cfg.Database.Redis); err != nil {
			errors = append(errors, err)
		}
		if cfg.Ledger.TTLSeconds < 0 {
			errors = append(errors, &ValidationError{
				Field:   "ledger.ttl_seconds",
				Message: "TTL must be non-negative",
			})
		}
	}

	if err := validateTracing(cfg.Tracing); err != nil {
		errors = append(errors, err)
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errors)
	}

	return nil
}

func validateServer(cfg ServerConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	if cfg.ReadTimeoutSeconds <= 0 {
		return &ValidationError{
			Field:   "server.read_timeout_seconds",
			Message: "read timeout must be positive",
		}
	}

	if cfg.WriteTimeoutSeconds <= 0 {
		return &ValidationError{
			Field:   "server.write_timeout_seconds",
			Message: "write timeout must be positive",
		}
	}

	if cfg.RateLimit.Enabled && (cfg.RateLimit.RPS <= 0 || cfg.RateLimit.Burst <= 0) {
		return &ValidationError{
			Field:   "server.rate_limit",
			Message: "rps and burst must be positive when rate limiting is enabled",
		}
	}

	return nil
}

func validateQueue(cfg QueueConfig) error {
	if cfg.URL == "" {
		return &ValidationError{
			Field:   "queue.url",
			Message: "queue URL is required",
		}
	}

	if !strings.HasPrefix(cfg.URL, "http://") && !strings.HasPrefix(cfg.URL, "https://") {
		return &ValidationError{
			Field:   "queue.url",
			Message: fmt.Sprintf("queue URL must be an http(s) URL, got %q", cfg.URL),
		}
	}

	if cfg.MaxMessages < 1 || cfg.MaxMessages > 10 {
		return &ValidationError{
			Field:   "queue.max_messages",
			Message: fmt.Sprintf("max_messages must be between 1 and 10, got %d", cfg.MaxMessages),
		}
	}

	if cfg.WaitTimeSeconds < 0 || cfg.WaitTimeSeconds > 20 {
		return &ValidationError{
			Field:   "queue.wait_time_seconds",
			Message: fmt.Sprintf("wait_time_seconds must be between 0 and 20, got %d", cfg.WaitTimeSeconds),
		}
	}

	if cfg.VisibilityTimeoutSeconds < 0 || cfg.VisibilityTimeoutSeconds > maxVisibilityTimeoutSeconds {
		return &ValidationError{
			Field:   "queue.visibility_timeout_seconds",
			Message: fmt.Sprintf("visibility_timeout_seconds must be between 0 and %d", maxVisibilityTimeoutSeconds),
		}
	}

	if cfg.MaxReceiveCount < 0 {
		return &ValidationError{
			Field:   "queue.max_receive_count",
			Message: "max_receive_count must be non-negative",
		}
	}

	if cfg.VisibilityRPS < 0 || cfg.VisibilityBurst < 0 {
		return &ValidationError{
			Field:   "queue.visibility_rps",
			Message: "visibility rate limit must be non-negative",
		}
	}

	if cfg.Retry.MaxAttempts < 0 {
		return &ValidationError{
			Field:   "queue.retry.max_attempts",
			Message: "max_attempts must be non-negative",
		}
	}

	if cfg.Retry.MaxInterval > 0 && cfg.Retry.InitialInterval > 0 && cfg.Retry.MaxInterval < cfg.Retry.InitialInterval {
		return &ValidationError{
			Field:   "queue.retry.max_interval",
			Message: "max_interval must be greater than or equal to initial_interval",
		}
	}

	if cfg.Retry.Multiplier < 0 {
		return &ValidationError{
			Field:   "queue.retry.multiplier",
			Message: "multiplier must be non-negative",
		}
	}

	return nil
}

func validateBackoff(cfg BackoffConfig) error {
	if cfg.Generate != nil {
		if len(cfg.Delays) > 0 {
			return &ValidationError{
				Field:   "backoff.generate",
				Message: "set either backoff.delays or backoff.generate, not both",
			}
		}
		if err := validateGenerate(*cfg.Generate); err != nil {
			return err
		}
	} else if len(cfg.Delays) == 0 {
		return &ValidationError{
			Field:   "backoff.delays",
			Message: "at least one delay is required",
		}
	}

	for i, d := range cfg.Delays {
		if d <= 0 {
			return &ValidationError{
				Field:   fmt.Sprintf("backoff.delays[%d]", i),
				Message: fmt.Sprintf("delay must be positive, got %d", d),
			}
		}
		if i > 0 && d < cfg.Delays[i-1] {
			return &ValidationError{
				Field:   fmt.Sprintf("backoff.delays[%d]", i),
				Message: "delays must be non-decreasing",
			}
		}
	}

	if cfg.MaxAttempts <= 0 {
		return &ValidationError{
			Field:   "backoff.max_attempts",
			Message: "max_attempts must be positive (or set queue.max_receive_count)",
		}
	}
	if cfg.MaxAttempts > maxRedriveReceiveCount {
		return &ValidationError{
			Field:   "backoff.max_attempts",
			Message: fmt.Sprintf("max_attempts must be at most %d, got %d", maxRedriveReceiveCount, cfg.MaxAttempts),
		}
	}

	if cfg.MaxAllowedDelay <= 0 || cfg.MaxAllowedDelay > maxVisibilityTimeoutSeconds {
		return &ValidationError{
			Field:   "backoff.max_allowed_delay",
			Message: fmt.Sprintf("max_allowed_delay must be between 1 and %d, got %d", maxVisibilityTimeoutSeconds, cfg.MaxAllowedDelay),
		}
	}

	return nil
}

func validateGenerate(cfg GenerateConfig) error {
	if cfg.InitialInterval <= 0 {
		return &ValidationError{
			Field:   "backoff.generate.initial_interval",
			Message: "initial_interval must be positive",
		}
	}

	if cfg.MaxInterval > 0 && cfg.MaxInterval < cfg.InitialInterval {
		return &ValidationError{
			Field:   "backoff.generate.max_interval",
			Message: "max_interval must be greater than or equal to initial_interval",
		}
	}

	if cfg.Multiplier < 1 {
		return &ValidationError{
			Field:   "backoff.generate.multiplier",
			Message: "multiplier must be at least 1",
		}
	}

	if cfg.Steps <= 0 {
		return &ValidationError{
			Field:   "backoff.generate.steps",
			Message: "steps must be positive",
		}
	}

	return nil
}

func validateLogging(cfg LoggingConfig) error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if cfg.Level != "" && !validLevels[strings.ToLower(cfg.Level)] {
		return &ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid level: %s (valid: debug, info, warn, error)", cfg.Level),
		}
	}

	if cfg.Format != "" && cfg.Format != "json" && cfg.Format != "console" {
		return &ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid format: %s (valid: json, console)", cfg.Format),
		}
	}

	return nil
}

func validateRedis(cfg RedisConfig) error {
	if cfg.Host == "" {
		return &ValidationError{
			Field:   "database.redis.host",
			Message: "Redis host is required",
		}
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "database.redis.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	return nil
}

func validateTracing(cfg TracingConfig) error {
	if cfg.Enabled && cfg.OTLP.Endpoint == "" {
		return &ValidationError{
			Field:   "tracing.otlp.endpoint",
			Message: "OTLP endpoint is required when tracing is enabled",
		}
	}

	return nil
}
