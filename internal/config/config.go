package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/fjod/go_cart/storefront/internal/store"
)

type Config struct {
	HTTPPort        string        `env:"STOREFRONT_HTTP_PORT" envDefault:"8080"`
	RequestTimeout  time.Duration `env:"STOREFRONT_REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"STOREFRONT_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	LogLevel        string        `env:"STOREFRONT_LOG_LEVEL" envDefault:"info"`

	BackendURL              string        `env:"STOREFRONT_BACKEND_URL" envDefault:"https://qaligo-backend.onrender.com"`
	BackendTimeout          time.Duration `env:"STOREFRONT_BACKEND_TIMEOUT" envDefault:"15s"`
	BreakerMaxFailures      uint32        `env:"STOREFRONT_BREAKER_MAX_FAILURES" envDefault:"5"`
	BreakerOpenTimeout      time.Duration `env:"STOREFRONT_BREAKER_OPEN_TIMEOUT" envDefault:"30s"`
	BreakerHalfOpenRequests uint32        `env:"STOREFRONT_BREAKER_HALF_OPEN_REQUESTS" envDefault:"1"`

	StoreDriver    string `env:"STOREFRONT_STORE_DRIVER" envDefault:"sqlite"`
	StoreProfile   string `env:"STOREFRONT_STORE_PROFILE" envDefault:"default"`
	StoreNamespace string `env:"STOREFRONT_STORE_NAMESPACE" envDefault:"qaligo"`

	SQLitePath string `env:"STOREFRONT_SQLITE_PATH" envDefault:"./storefront.db"`

	PostgresHost     string `env:"STOREFRONT_PG_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"STOREFRONT_PG_PORT" envDefault:"5432"`
	PostgresUser     string `env:"STOREFRONT_PG_USER" envDefault:"postgres"`
	PostgresPassword string `env:"STOREFRONT_PG_PASSWORD" envDefault:"postgres"`
	PostgresDB       string `env:"STOREFRONT_PG_DB" envDefault:"storefront"`
	PostgresSSLMode  string `env:"STOREFRONT_PG_SSLMODE" envDefault:"disable"`

	RedisAddr     string `env:"STOREFRONT_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"STOREFRONT_REDIS_PASSWORD"`
	RedisDB       int    `env:"STOREFRONT_REDIS_DB" envDefault:"0"`

	MongoURI      string `env:"STOREFRONT_MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"STOREFRONT_MONGO_DB" envDefault:"storefront"`

	KafkaBrokers []string `env:"STOREFRONT_KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"STOREFRONT_KAFKA_TOPIC" envDefault:"storefront-checkout"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case store.DriverMemory, store.DriverSQLite, store.DriverPostgres, store.DriverRedis, store.DriverMongo:
	default:
		return fmt.Errorf("%w: %q", store.ErrUnknownDriver, c.StoreDriver)
	}
	if c.BackendURL == "" {
		return fmt.Errorf("STOREFRONT_BACKEND_URL must not be empty")
	}
	if c.StoreProfile == "" {
		return fmt.Errorf("STOREFRONT_STORE_PROFILE must not be empty")
	}
	return nil
}

// StoreOptions maps the store settings onto store.Options.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Driver:     c.StoreDriver,
		Profile:    c.StoreProfile,
		SQLitePath: c.SQLitePath,
		Postgres: store.Credentials{
			Host:     c.PostgresHost,
			Port:     c.PostgresPort,
			User:     c.PostgresUser,
			Password: c.PostgresPassword,
			DBName:   c.PostgresDB,
			SSLMode:  c.PostgresSSLMode,
		},
		RedisAddr:     c.RedisAddr,
		RedisPassword: c.RedisPassword,
		RedisDB:       c.RedisDB,
		MongoURI:      c.MongoURI,
		MongoDatabase: c.MongoDatabase,
	}
}
