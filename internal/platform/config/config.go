package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-wide configuration. Everything here is read once
// at startup and immutable for the process lifetime.
type Server struct {
	Addr string

	// Relying party settings for the biometric ceremonies.
	RPName         string
	RPID           string
	ExpectedOrigin string

	// Session token settings.
	SessionSigningKey string
	SessionTTL        time.Duration

	// Challenge lifecycle.
	ChallengeTTL  time.Duration
	SweepInterval time.Duration

	// Optional backends; empty values select the in-memory stores.
	PostgresDSN  string
	Redis        RedisConfig
	KafkaBrokers []string
	KafkaTopic   string
}

// RedisConfig tunes the optional Redis-backed challenge ledger.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:              getEnv("CHAINPASS_ADDR", ":8080"),
		RPName:            getEnv("CHAINPASS_RP_NAME", "ChainPass Registry"),
		RPID:              getEnv("CHAINPASS_RP_ID", "localhost"),
		ExpectedOrigin:    getEnv("CHAINPASS_ORIGIN", "http://localhost:8080"),
		SessionSigningKey: os.Getenv("CHAINPASS_SESSION_KEY"),
		SessionTTL:        getDuration("CHAINPASS_SESSION_TTL", 24*time.Hour),
		ChallengeTTL:      getDuration("CHAINPASS_CHALLENGE_TTL", 5*time.Minute),
		SweepInterval:     getDuration("CHAINPASS_SWEEP_INTERVAL", 5*time.Minute),
		PostgresDSN:       os.Getenv("CHAINPASS_POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("CHAINPASS_REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		KafkaTopic: getEnv("CHAINPASS_KAFKA_TOPIC", "chainpass.registrations"),
	}

	if brokers := os.Getenv("CHAINPASS_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	if cfg.SessionSigningKey == "" {
		// Development fallback; deployments must override.
		cfg.SessionSigningKey = "dev-secret-key-change-in-production"
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
