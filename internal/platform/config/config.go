// Package config builds process configuration from the environment so main
// stays lean.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"
)

// Server captures top level service configuration.
type Server struct {
	Addr          string
	PostgresDSN   string
	KafkaBrokers  []string
	JWTSigningKey string
	AnchorBaseURL string

	// SessionTTL bounds how long a verification inquiry session stays
	// claimable after the provider webhook.
	SessionTTL time.Duration

	Redis   RedisConfig
	Secrets SecretsConfig
}

// RedisConfig holds connection settings for the session store. An empty URL
// means Redis is not configured and the in-memory fallback is used.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// SecretsConfig carries the encryption keyring: hex-encoded 32-byte keys by
// key ID, and which ID seals new records.
type SecretsConfig struct {
	Keys        map[string][]byte
	ActiveKeyID string
}

// FromEnv builds a Server config from environment variables.
func FromEnv() (Server, error) {
	addr := envOr("ATTESTGATE_ADDR", ":8080")

	dsn := os.Getenv("ATTESTGATE_POSTGRES_DSN")
	if dsn == "" {
		return Server{}, fmt.Errorf("ATTESTGATE_POSTGRES_DSN is required")
	}

	jwtSigningKey := os.Getenv("ATTESTGATE_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default; override in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	var brokers []string
	if raw := os.Getenv("ATTESTGATE_KAFKA_BROKERS"); raw != "" {
		brokers = strings.Split(raw, ",")
	}

	sessionTTL := 30 * time.Minute
	if raw := os.Getenv("ATTESTGATE_SESSION_TTL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return Server{}, fmt.Errorf("parse ATTESTGATE_SESSION_TTL: %w", err)
		}
		sessionTTL = d
	}

	secrets, err := secretsFromEnv()
	if err != nil {
		return Server{}, err
	}

	return Server{
		Addr:          addr,
		PostgresDSN:   dsn,
		KafkaBrokers:  brokers,
		JWTSigningKey: jwtSigningKey,
		AnchorBaseURL: os.Getenv("ATTESTGATE_ANCHOR_URL"),
		SessionTTL:    sessionTTL,
		Redis: RedisConfig{
			URL:          os.Getenv("ATTESTGATE_REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Secrets: secrets,
	}, nil
}

// secretsFromEnv parses ATTESTGATE_SECRET_KEYS, a comma separated list of
// keyID:hexkey pairs, and ATTESTGATE_ACTIVE_KEY_ID.
func secretsFromEnv() (SecretsConfig, error) {
	raw := os.Getenv("ATTESTGATE_SECRET_KEYS")
	if raw == "" {
		return SecretsConfig{}, fmt.Errorf("ATTESTGATE_SECRET_KEYS is required")
	}

	keys := make(map[string][]byte)
	for _, pair := range strings.Split(raw, ",") {
		id, hexKey, ok := strings.Cut(pair, ":")
		if !ok {
			return SecretsConfig{}, fmt.Errorf("malformed secret key entry %q", pair)
		}
		key, err := hex.DecodeString(hexKey)
		if err != nil {
			return SecretsConfig{}, fmt.Errorf("decode secret key %s: %w", id, err)
		}
		keys[id] = key
	}

	activeID := os.Getenv("ATTESTGATE_ACTIVE_KEY_ID")
	if activeID == "" {
		return SecretsConfig{}, fmt.Errorf("ATTESTGATE_ACTIVE_KEY_ID is required")
	}
	if _, ok := keys[activeID]; !ok {
		return SecretsConfig{}, fmt.Errorf("active key ID %s not present in keyring", activeID)
	}

	return SecretsConfig{Keys: keys, ActiveKeyID: activeID}, nil
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
