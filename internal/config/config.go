package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Env  string
	Port string

	RedisURL  string
	RedisPass string
	RedisDB   int

	JWTSecret string
	JWTExpiry time.Duration

	// Federated login (Google-style ID tokens). The public key is PEM-encoded
	// RSA; empty disables the /auth/federated endpoint.
	FederatedIssuer    string
	FederatedAudience  string
	FederatedPublicKey string

	StartingBalance int64 // cents credited to a brand-new account

	// Blackjack natural (two-card 21) payout ratio on top of the bet.
	// 1.5 means 3:2.
	BlackjackNaturalPayout float64

	TableMinSeats   int
	TableMaxSeats   int
	SmallBlind      int64
	BigBlind        int64
	TurnTimeout     time.Duration
	DisconnectGrace time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "8080"),

		RedisURL:  getEnv("REDIS_URL", "localhost:6379"),
		RedisPass: getEnv("REDIS_PASSWORD", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),

		FederatedIssuer:    getEnv("FEDERATED_ISSUER", "https://accounts.google.com"),
		FederatedAudience:  getEnv("FEDERATED_AUDIENCE", ""),
		FederatedPublicKey: getEnv("FEDERATED_PUBLIC_KEY", ""),
	}

	if cfg.JWTSecret == "" {
		if cfg.Env == "production" {
			return nil, fmt.Errorf("JWT_SECRET is required in production")
		}
		cfg.JWTSecret = "dev-secret-do-not-use-in-production"
	}

	var err error
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}

	jwtHours, err := getEnvInt("JWT_EXPIRY_HOURS", 24)
	if err != nil {
		return nil, err
	}
	cfg.JWTExpiry = time.Duration(jwtHours) * time.Hour

	if cfg.StartingBalance, err = getEnvInt64("STARTING_BALANCE", 10000); err != nil {
		return nil, err
	}

	if cfg.BlackjackNaturalPayout, err = getEnvFloat("BLACKJACK_NATURAL_PAYOUT", 1.5); err != nil {
		return nil, err
	}

	if cfg.TableMinSeats, err = getEnvInt("TABLE_MIN_SEATS", 2); err != nil {
		return nil, err
	}
	if cfg.TableMaxSeats, err = getEnvInt("TABLE_MAX_SEATS", 6); err != nil {
		return nil, err
	}
	if cfg.SmallBlind, err = getEnvInt64("SMALL_BLIND", 50); err != nil {
		return nil, err
	}
	if cfg.BigBlind, err = getEnvInt64("BIG_BLIND", 100); err != nil {
		return nil, err
	}

	turnSecs, err := getEnvInt("TURN_TIMEOUT_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	cfg.TurnTimeout = time.Duration(turnSecs) * time.Second

	graceSecs, err := getEnvInt("DISCONNECT_GRACE_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	cfg.DisconnectGrace = time.Duration(graceSecs) * time.Second

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	return n, nil
}

func getEnvInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	return f, nil
}
