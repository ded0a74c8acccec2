package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"sqsbackoff/internal/constants"
)

// LoadConfig reads configFile (optional) and the environment. An empty
// configFile loads defaults and environment only, which is how the Lambda
// entrypoint runs.
func LoadConfig(configFile string) (*Config, error) {
	viper.Reset()

	viper.SetConfigType("yaml")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()
	bindEnvVariables()

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	applyDerived(&cfg)

	if err := ValidateStatic(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout_seconds", "5s")
	viper.SetDefault("server.write_timeout_seconds", "10s")
	viper.SetDefault("server.rate_limit.rps", 10.0)
	viper.SetDefault("server.rate_limit.burst", 20)
	viper.SetDefault("server.rate_limit.cleanup_interval", 300)
	viper.SetDefault("server.rate_limit.max_age", 600)

	viper.SetDefault("queue.max_messages", 10)
	viper.SetDefault("queue.wait_time_seconds", 20)
	viper.SetDefault("queue.retry.max_attempts", 5)
	viper.SetDefault("queue.retry.initial_interval", "1s")
	viper.SetDefault("queue.retry.max_interval", "30s")
	viper.SetDefault("queue.retry.multiplier", 2.0)

	viper.SetDefault("backoff.max_allowed_delay", constants.DefaultMaxAllowedDelay)

	viper.SetDefault("processing.retry_when", constants.DefaultRetryWhen)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	viper.SetDefault("ledger.ttl_seconds", constants.DefaultTTLSeconds)

	viper.SetDefault("tracing.sampler.type", "parentbased_always_on")
}

func bindEnvVariables() {
	// Variable names used by the existing queue deployment.
	viper.BindEnv("queue.url", "QUEUE_URL")
	viper.BindEnv("queue.max_receive_count", "MAX_RECEIVE")
	viper.BindEnv("queue.region", "AWS_REGION", "QUEUE_REGION")
	viper.BindEnv("queue.endpoint", "QUEUE_ENDPOINT")

	viper.BindEnv("backoff.max_attempts", "BACKOFF_MAX_ATTEMPTS")
	viper.BindEnv("backoff.max_allowed_delay", "BACKOFF_MAX_ALLOWED_DELAY")

	viper.BindEnv("processing.retry_when", "PROCESSING_RETRY_WHEN")
	viper.BindEnv("processing.fail_when", "PROCESSING_FAIL_WHEN")

	viper.BindEnv("database.redis.host", "DATABASE_REDIS_HOST")
	viper.BindEnv("database.redis.port", "DATABASE_REDIS_PORT")
	viper.BindEnv("database.redis.password", "DATABASE_REDIS_PASSWORD")
	viper.BindEnv("database.redis.db", "DATABASE_REDIS_DB")
	viper.BindEnv("ledger.enabled", "LEDGER_ENABLED")

	viper.BindEnv("server.port", "SERVER_PORT")

	viper.BindEnv("logging.level", "LOGGING_LEVEL")
	viper.BindEnv("logging.format", "LOGGING_FORMAT")

	viper.BindEnv("tracing.otlp.endpoint", "TRACING_OTLP_ENDPOINT")
	viper.BindEnv("tracing.otlp.insecure", "TRACING_OTLP_INSECURE")
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.service_name", "TRACING_SERVICE_NAME")
}

func applyEnvOverrides(cfg *Config) error {
	if intervals := viper.GetString("BACKOFF_INTERVALS"); intervals != "" {
		delays, err := parseDelayList(intervals)
		if err != nil {
			return fmt.Errorf("BACKOFF_INTERVALS: %w", err)
		}
		cfg.Backoff.Delays = delays
	}

	return nil
}

// applyDerived fills values that default from other settings.
func applyDerived(cfg *Config) {
	if cfg.Backoff.MaxAttempts == 0 && cfg.Queue.MaxReceiveCount > 1 {
		cfg.Backoff.MaxAttempts = cfg.Queue.MaxReceiveCount - 1
	}
}

func parseDelayList(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	delays := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid delay %q: %w", p, err)
		}
		delays = append(delays, n)
	}
	return delays, nil
}
