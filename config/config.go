package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AIProvider      string // "openai" or "anthropic"
	OpenAIAPIKey    string
	OpenAIModel     string
	AnthropicAPIKey string
	AnthropicModel  string
	AITimeout       time.Duration

	Workers             int
	ConsumerGroup       string
	DeadLetterThreshold int64
	ReclaimMinIdle      time.Duration
	ReclaimInterval     time.Duration

	WebhookSecret  string
	WebhookTimeout time.Duration

	DataDir string
}

func Load() (*Config, error) {
	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	workers, err := strconv.Atoi(getEnv("WORKERS", "2"))
	if err != nil || workers < 1 {
		return nil, fmt.Errorf("invalid WORKERS: %q", getEnv("WORKERS", "2"))
	}

	aiTimeout, err := durationEnv("AI_TIMEOUT_SECONDS", 60)
	if err != nil {
		return nil, err
	}
	webhookTimeout, err := durationEnv("WEBHOOK_TIMEOUT_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	reclaimMinIdle, err := durationEnv("RECLAIM_MIN_IDLE_SECONDS", 60)
	if err != nil {
		return nil, err
	}
	reclaimInterval, err := durationEnv("RECLAIM_INTERVAL_SECONDS", 30)
	if err != nil {
		return nil, err
	}

	deadLetterThreshold, err := strconv.ParseInt(getEnv("DEAD_LETTER_THRESHOLD", "5"), 10, 64)
	if err != nil || deadLetterThreshold < 1 {
		return nil, fmt.Errorf("invalid DEAD_LETTER_THRESHOLD: %q", getEnv("DEAD_LETTER_THRESHOLD", "5"))
	}

	cfg := &Config{
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		RedisDB:             redisDB,
		AIProvider:          getEnv("AI_PROVIDER", "openai"),
		OpenAIAPIKey:        os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:         getEnv("OPENAI_MODEL", "gpt-4o"),
		AnthropicAPIKey:     os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:      getEnv("ANTHROPIC_MODEL", "claude-3-opus-20240229"),
		AITimeout:           aiTimeout,
		Workers:             workers,
		ConsumerGroup:       getEnv("CONSUMER_GROUP", "ai-workers"),
		DeadLetterThreshold: deadLetterThreshold,
		ReclaimMinIdle:      reclaimMinIdle,
		ReclaimInterval:     reclaimInterval,
		WebhookSecret:       os.Getenv("WEBHOOK_SECRET"),
		WebhookTimeout:      webhookTimeout,
		DataDir:             getEnv("DATA_DIR", "/data"),
	}

	switch cfg.AIProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when AI_PROVIDER=openai")
		}
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required when AI_PROVIDER=anthropic")
		}
	default:
		return nil, fmt.Errorf("unknown AI_PROVIDER: %q", cfg.AIProvider)
	}

	return cfg, nil
}

func durationEnv(key string, defaultSeconds int) (time.Duration, error) {
	seconds, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultSeconds)))
	if err != nil || seconds < 1 {
		return 0, fmt.Errorf("invalid %s: %q", key, getEnv(key, ""))
	}
	return time.Duration(seconds) * time.Second, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
