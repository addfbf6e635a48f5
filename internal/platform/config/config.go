// Package config loads process configuration from environment variables so
// main stays lean. Defaults suit local development; production overrides
// everything through the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full configuration of the portal server.
type Config struct {
	Addr          string        `env:"CURIA_ADDR" envDefault:":8080"`
	JWTSigningKey string        `env:"CURIA_JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	JWTIssuer     string        `env:"CURIA_JWT_ISSUER" envDefault:"curia"`
	TokenTTL      time.Duration `env:"CURIA_TOKEN_TTL" envDefault:"12h"`

	Postgres PostgresConfig `envPrefix:"CURIA_POSTGRES_"`
	Redis    RedisConfig    `envPrefix:"CURIA_REDIS_"`
	Kafka    KafkaConfig    `envPrefix:"CURIA_KAFKA_"`
	Audit    AuditConfig    `envPrefix:"CURIA_AUDIT_"`
}

// PostgresConfig configures the relational store holding accounts, term
// records, and the audit trail. An empty DSN runs everything on the
// in-memory stores, which is only useful for local demos.
type PostgresConfig struct {
	DSN          string        `env:"DSN"`
	MaxOpenConns int           `env:"MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns int           `env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnLifetime time.Duration `env:"CONN_LIFETIME" envDefault:"30m"`
}

// RedisConfig configures the notification queue. An empty URL disables the
// Redis sink; notifications then only appear in the logs.
type RedisConfig struct {
	URL          string        `env:"URL"`
	QueueKey     string        `env:"QUEUE_KEY" envDefault:"curia:notifications"`
	PoolSize     int           `env:"POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"3s"`
}

// KafkaConfig configures the audit outbox publisher. Empty brokers disable
// outbox publishing; rows then stay queued in Postgres.
type KafkaConfig struct {
	Brokers []string `env:"BROKERS" envSeparator:","`
	Topic   string   `env:"TOPIC" envDefault:"curia.audit.events"`
}

// AuditConfig tunes the in-process audit pipeline.
type AuditConfig struct {
	BufferSize  int           `env:"BUFFER_SIZE" envDefault:"256"`
	OutboxPoll  time.Duration `env:"OUTBOX_POLL" envDefault:"2s"`
	OutboxBatch int           `env:"OUTBOX_BATCH" envDefault:"100"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
