package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration so main stays lean.
type Config struct {
	Addr          string
	PostgresDSN   string
	RedisURL      string
	KafkaBrokers  []string
	KafkaTopic    string
	KafkaGroup    string
	JWTSigningKey string

	// QueryTimeout bounds each variant index query; a timed-out candidate
	// degrades to zero results instead of failing resolution.
	QueryTimeout time.Duration
	// RebuildLockTTL bounds how long a crashed rebuild can hold the lock.
	RebuildLockTTL time.Duration
	// ResolveCacheSize bounds the shared resolution cache.
	ResolveCacheSize int
}

// FromEnv builds a Config from NAMEDEX_* environment variables with dev
// defaults.
func FromEnv() Config {
	return Config{
		Addr:             getEnv("NAMEDEX_ADDR", ":8080"),
		PostgresDSN:      getEnv("NAMEDEX_POSTGRES_DSN", ""),
		RedisURL:         getEnv("NAMEDEX_REDIS_URL", ""),
		KafkaBrokers:     splitNonEmpty(os.Getenv("NAMEDEX_KAFKA_BROKERS")),
		KafkaTopic:       getEnv("NAMEDEX_KAFKA_TOPIC", "registry.changed"),
		KafkaGroup:       getEnv("NAMEDEX_KAFKA_GROUP", "namedex-rebuild"),
		JWTSigningKey:    getEnv("NAMEDEX_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		QueryTimeout:     getDuration("NAMEDEX_QUERY_TIMEOUT", 2*time.Second),
		RebuildLockTTL:   getDuration("NAMEDEX_REBUILD_LOCK_TTL", 30*time.Minute),
		ResolveCacheSize: getInt("NAMEDEX_RESOLVE_CACHE_SIZE", 4096),
	}
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

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func splitNonEmpty(csv string) []string {
	var out []string
	for _, part := range strings.Split(csv, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
