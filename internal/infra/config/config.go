package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates application configuration values loaded from environment
// variables. A local .env file is honored when present.
type Config struct {
	Env      string
	HTTPAddr string
	SiteURL  string

	CORSOrigins []string

	StorageMode string
	MongoURI    string
	MongoDB     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers     []string
	KafkaTopicPrefix string

	IdempotencyTTL     time.Duration
	OutboxPollInterval time.Duration
	RetryBackoff       []time.Duration

	PaymentsMode        string
	StripeSecretKey     string
	StripeWebhookSecret string

	NotifyMode     string
	ResendAPIKey   string
	EmailFrom      string
	TwilioSID      string
	TwilioToken    string
	TwilioFrom     string
	OwnerEmail     string
	OwnerPhone     string

	AdminUsername     string
	AdminPasswordHash string
	SessionTTL        time.Duration

	PendingHoldTTL   time.Duration
	ReaperInterval   time.Duration
	FeedSyncInterval time.Duration

	BaseWeekdayRate int64
	BaseWeekendRate int64
	CleaningFee     int64
	MinimumNights   int
}

// Load parses configuration from the current environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:                 getEnv("APP_ENV", "dev"),
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		SiteURL:             getEnv("SITE_URL", "http://localhost:8080"),
		StorageMode:         strings.ToLower(getEnv("STORAGE_MODE", "mongo")),
		MongoURI:            os.Getenv("MONGO_URI"),
		MongoDB:             getEnv("MONGO_DB", "whistleinn"),
		RedisAddr:           getEnv("REDIS_ADDR", ""),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		KafkaTopicPrefix:    getEnv("KAFKA_TOPIC_PREFIX", ""),
		PaymentsMode:        strings.ToLower(getEnv("PAYMENTS_MODE", "stripe")),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		NotifyMode:          strings.ToLower(getEnv("NOTIFY_MODE", "log")),
		ResendAPIKey:        os.Getenv("RESEND_API_KEY"),
		EmailFrom:           getEnv("EMAIL_FROM", "Whistle Inn <bookings@whistleinn.example>"),
		TwilioSID:           os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioToken:         os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFrom:          os.Getenv("TWILIO_FROM"),
		OwnerEmail:          os.Getenv("OWNER_EMAIL"),
		OwnerPhone:          os.Getenv("OWNER_PHONE"),
		AdminUsername:       getEnv("ADMIN_USERNAME", "admin"),
		AdminPasswordHash:   os.Getenv("ADMIN_PASSWORD_HASH"),
	}

	origins := getEnv("CORS_ORIGINS", "*")
	for _, raw := range strings.Split(origins, ",") {
		if v := strings.TrimSpace(raw); v != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, v)
		}
	}

	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		for _, raw := range strings.Split(brokers, ",") {
			if v := strings.TrimSpace(raw); v != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, v)
			}
		}
	}

	var err error
	if cfg.RedisDB, err = parseIntEnv("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = parseDurationEnv("IDEMP_TTL", 168*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.OutboxPollInterval, err = parseDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = parseDurationEnv("ADMIN_SESSION_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.PendingHoldTTL, err = parseDurationEnv("PENDING_HOLD_TTL", 30*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.ReaperInterval, err = parseDurationEnv("REAPER_INTERVAL", 5*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.FeedSyncInterval, err = parseDurationEnv("FEED_SYNC_INTERVAL", 30*time.Minute); err != nil {
		return Config{}, err
	}

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

	if cfg.BaseWeekdayRate, err = parseInt64Env("BASE_WEEKDAY_RATE", 650); err != nil {
		return Config{}, err
	}
	if cfg.BaseWeekendRate, err = parseInt64Env("BASE_WEEKEND_RATE", 700); err != nil {
		return Config{}, err
	}
	if cfg.CleaningFee, err = parseInt64Env("CLEANING_FEE", 150); err != nil {
		return Config{}, err
	}
	if cfg.MinimumNights, err = parseIntEnv("MINIMUM_NIGHTS", 3); err != nil {
		return Config{}, err
	}

	if cfg.StorageMode == "mongo" && cfg.MongoURI == "" {
		return Config{}, fmt.Errorf("MONGO_URI is required when STORAGE_MODE=mongo")
	}
	if cfg.PaymentsMode == "stripe" && cfg.StripeSecretKey == "" {
		return Config{}, fmt.Errorf("STRIPE_SECRET_KEY is required when PAYMENTS_MODE=stripe")
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

func parseIntEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	var v int
	if _, err := fmt.Sscanf(raw, "%d", &v); err != nil {
		return 0, fmt.Errorf("invalid %s integer: %q", key, raw)
	}
	return v, nil
}

func parseInt64Env(key string, def int64) (int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	var v int64
	if _, err := fmt.Sscanf(raw, "%d", &v); err != nil {
		return 0, fmt.Errorf("invalid %s integer: %q", key, raw)
	}
	return v, nil
}
