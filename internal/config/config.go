package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config selects the ledger backend and the optional event pipeline.
type Config struct {
	Backend       string   // "memory" or "postgres"
	DatabaseURL   string   // required when Backend is "postgres"
	KafkaBrokers  []string // empty disables outcome events
	AppliedTopic  string
	RejectedTopic string
}

// Load reads configuration from the environment, seeding it from a .env file
// when one is present.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Backend:       getEnv("LEDGER_BACKEND", "memory"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		AppliedTopic:  getEnv("KAFKA_TOPIC_APPLIED", "transaction_applied"),
		RejectedTopic: getEnv("KAFKA_TOPIC_REJECTED", "transaction_rejected"),
	}

	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
