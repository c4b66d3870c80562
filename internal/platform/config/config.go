// Package config builds runtime configuration from the environment so main
// stays lean. Unset optional backends (postgres, redis, kafka) fall back to
// in-memory implementations.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full server configuration.
type Config struct {
	Server   Server
	Catalog  Catalog
	Postgres Postgres
	Redis    Redis
	Kafka    Kafka
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// Catalog points at the service/form definition files loaded at boot.
type Catalog struct {
	Dir string
}

// Postgres holds the session/application store connection. Empty URL means
// the in-memory stores are used.
type Postgres struct {
	URL          string
	MaxOpenConns int
}

// Redis holds the idempotency store connection. Empty URL disables redis.
type Redis struct {
	URL          string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka holds the status feed consumer and audit publisher settings.
// Empty brokers disables kafka.
type Kafka struct {
	Brokers         []string
	StatusTopic     string
	IntakeTopic     string
	AuditTopic      string
	ConsumerGroup   string
	CommitInterval  time.Duration
	ExternalTimeout time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:            envOr("GOVNAV_ADDR", ":8080"),
			ShutdownTimeout: envDuration("GOVNAV_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Catalog: Catalog{
			Dir: envOr("GOVNAV_CATALOG_DIR", "catalog"),
		},
		Postgres: Postgres{
			URL:          os.Getenv("GOVNAV_POSTGRES_URL"),
			MaxOpenConns: envInt("GOVNAV_POSTGRES_MAX_OPEN_CONNS", 25),
		},
		Redis: Redis{
			URL:          os.Getenv("GOVNAV_REDIS_URL"),
			DialTimeout:  envDuration("GOVNAV_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("GOVNAV_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("GOVNAV_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: Kafka{
			Brokers:         splitNonEmpty(os.Getenv("GOVNAV_KAFKA_BROKERS")),
			StatusTopic:     envOr("GOVNAV_KAFKA_STATUS_TOPIC", "govnav.application-status"),
			IntakeTopic:     envOr("GOVNAV_KAFKA_INTAKE_TOPIC", "govnav.application-intake"),
			AuditTopic:      envOr("GOVNAV_KAFKA_AUDIT_TOPIC", "govnav.audit"),
			ConsumerGroup:   envOr("GOVNAV_KAFKA_CONSUMER_GROUP", "govnav-status-feed"),
			CommitInterval:  envDuration("GOVNAV_KAFKA_COMMIT_INTERVAL", 5*time.Second),
			ExternalTimeout: envDuration("GOVNAV_EXTERNAL_TIMEOUT", 15*time.Second),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitNonEmpty(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
