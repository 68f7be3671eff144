package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env                string
	HTTPAddr           string
	MongoURI           string
	MongoDB            string
	RedisAddr          string
	KafkaBrokers       []string
	KafkaTopicPrefix   string
	QuoteSigningKey    string
	QuoteTTL           time.Duration
	IdempotencyTTL     time.Duration
	OutboxPollInterval time.Duration
	RetryBackoff       []time.Duration
	StorageMode        string
	DefaultTenantSlug  string
}

// Load parses configuration from the current environment.
func Load() (Config, error) {
	cfg := Config{
		Env:               getEnv("APP_ENV", "dev"),
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		MongoURI:          os.Getenv("MONGO_URI"),
		MongoDB:           getEnv("MONGO_DB", "staybook"),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		KafkaTopicPrefix:  getEnv("KAFKA_TOPIC_PREFIX", ""),
		QuoteSigningKey:   os.Getenv("QUOTE_SIGNING_KEY"),
		StorageMode:       strings.ToLower(getEnv("STORAGE_MODE", "memory")),
		DefaultTenantSlug: getEnv("DEFAULT_TENANT_SLUG", ""),
	}
	brokers := getEnv("KAFKA_BROKERS", "")
	if brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	quoteTTL, err := parseDurationEnv("QUOTE_TTL", 15*time.Minute)
	if err != nil {
		return Config{}, err
	}
	cfg.QuoteTTL = quoteTTL

	idempotencyTTL, err := parseDurationEnv("IDEMP_TTL", 168*time.Hour)
	if err != nil {
		return Config{}, err
	}
	cfg.IdempotencyTTL = idempotencyTTL

	poll, err := parseDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond)
	if err != nil {
		return Config{}, err
	}
	cfg.OutboxPollInterval = poll

	retryStr := getEnv("RETRY_BACKOFF", "1s,5s,30s")
	for _, raw := range strings.Split(retryStr, ",") {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}

	if cfg.QuoteSigningKey == "" {
		return Config{}, fmt.Errorf("QUOTE_SIGNING_KEY is required")
	}
	if cfg.StorageMode == "mongo" && cfg.MongoURI == "" {
		return Config{}, fmt.Errorf("MONGO_URI is required when STORAGE_MODE=mongo")
	}
	if cfg.Env == "prod" && cfg.DefaultTenantSlug != "" {
		return Config{}, fmt.Errorf("DEFAULT_TENANT_SLUG must not be set in prod")
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}
