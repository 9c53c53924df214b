package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort        string
	FirebaseProject   string
	Environment       string
	RedisAddr         string
	PaymentWebhookKey string
	StorageBucket     string

	// Escrow policy. The fee rate and hold period are deployment
	// configuration, not hard-coded product decisions.
	FeeRate    float64
	HoldPeriod time.Duration

	// Presence grace window before a user with zero connections is
	// reported offline, absorbing page-refresh flaps.
	PresenceGrace time.Duration
	PresenceTTL   time.Duration
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		FirebaseProject:   getEnv("FIREBASE_PROJECT_ID", ""),
		Environment:       getEnv("ENVIRONMENT", "development"),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		PaymentWebhookKey: getEnv("PAYMENT_WEBHOOK_KEY", ""),
		StorageBucket:     getEnv("STORAGE_BUCKET", ""),
		FeeRate:           getEnvAsFloat("FEE_RATE", 0.05),
		HoldPeriod:        time.Duration(getEnvAsInt64("HOLD_PERIOD_DAYS", 7)) * 24 * time.Hour,
		PresenceGrace:     time.Duration(getEnvAsInt64("PRESENCE_GRACE_SECONDS", 10)) * time.Second,
		PresenceTTL:       time.Duration(getEnvAsInt64("PRESENCE_TTL_SECONDS", 60)) * time.Second,
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		floatValue, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return floatValue
		}
	}
	return defaultValue
}
