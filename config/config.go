// Package config loads the application configuration from the environment.
//
// Variables are read with the FOODAPP_ prefix; a double underscore separates
// nested keys, so FOODAPP_DATABASE__DRIVER maps to Config.Database.Driver.
// A .env file in the working directory is loaded first when present.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix = "FOODAPP_"

	// DefaultJWTSecret is only accepted outside production.
	DefaultJWTSecret = "food_delivery_super_secret_2024"
)

type Config struct {
	App      AppConfig      `koanf:"app" validate:"required"`
	Server   ServerConfig   `koanf:"server" validate:"required"`
	Database DatabaseConfig `koanf:"database" validate:"required"`
	Auth     AuthConfig     `koanf:"auth" validate:"required"`
	Redis    RedisConfig    `koanf:"redis"`
	Mongo    MongoConfig    `koanf:"mongo"`
	Kafka    KafkaConfig    `koanf:"kafka"`
	Jobs     JobsConfig     `koanf:"jobs"`
	Logging  LoggingConfig  `koanf:"logging" validate:"required"`
}

type AppConfig struct {
	Name string `koanf:"name" validate:"required"`
	Env  string `koanf:"env" validate:"required,oneof=development production test"`
}

type ServerConfig struct {
	Port               string        `koanf:"port" validate:"required"`
	ReadTimeout        time.Duration `koanf:"read_timeout" validate:"min=1s"`
	WriteTimeout       time.Duration `koanf:"write_timeout" validate:"min=1s"`
	IdleTimeout        time.Duration `koanf:"idle_timeout" validate:"min=1s"`
	ShutdownTimeout    time.Duration `koanf:"shutdown_timeout" validate:"min=1s"`
	CORSAllowedOrigins []string      `koanf:"cors_allowed_origins"`
}

// DatabaseConfig selects the gorm dialect. The sqlite DSN is a file path,
// the postgres DSN is a libpq connection string or URL.
type DatabaseConfig struct {
	Driver             string        `koanf:"driver" validate:"required,oneof=sqlite postgres"`
	DSN                string        `koanf:"dsn" validate:"required"`
	MaxOpenConns       int           `koanf:"max_open_conns" validate:"min=1"`
	MaxIdleConns       int           `koanf:"max_idle_conns" validate:"min=0"`
	ConnMaxLifetime    time.Duration `koanf:"conn_max_lifetime"`
	SlowQueryThreshold time.Duration `koanf:"slow_query_threshold"`
	AutoMigrate        bool          `koanf:"auto_migrate"`
}

type AuthConfig struct {
	JWTSecret  string        `koanf:"jwt_secret" validate:"required,min=16"`
	TokenTTL   time.Duration `koanf:"token_ttl" validate:"min=1m"`
	BcryptCost int           `koanf:"bcrypt_cost" validate:"min=4,max=31"`
}

// RedisConfig is optional: an empty Address disables caching and background
// notification jobs.
type RedisConfig struct {
	Address  string        `koanf:"address"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db"`
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

// MongoConfig is optional: an empty URI keeps analytics events in the
// relational database.
type MongoConfig struct {
	URI      string        `koanf:"uri"`
	Database string        `koanf:"database"`
	Timeout  time.Duration `koanf:"timeout"`
}

// KafkaConfig is optional: without brokers order events are only logged.
type KafkaConfig struct {
	Brokers []string `koanf:"brokers"`
	Topic   string   `koanf:"topic"`
}

type JobsConfig struct {
	Concurrency    int    `koanf:"concurrency" validate:"min=1"`
	RollupSchedule string `koanf:"rollup_schedule" validate:"required"`
	SchedulerOn    bool   `koanf:"scheduler_on"`
}

type LoggingConfig struct {
	Level  string `koanf:"level" validate:"required,oneof=debug info warn error"`
	Format string `koanf:"format" validate:"required,oneof=json console"`
}

// Default returns the configuration used when no environment overrides exist.
func Default() *Config {
	return &Config{
		App: AppConfig{Name: "food-marketplace-api", Env: "development"},
		Server: ServerConfig{
			Port:               "8080",
			ReadTimeout:        10 * time.Second,
			WriteTimeout:       30 * time.Second,
			IdleTimeout:        time.Minute,
			ShutdownTimeout:    30 * time.Second,
			CORSAllowedOrigins: []string{"*"},
		},
		Database: DatabaseConfig{
			Driver:             "sqlite",
			DSN:                "food_delivery.db",
			MaxOpenConns:       10,
			MaxIdleConns:       5,
			ConnMaxLifetime:    30 * time.Minute,
			SlowQueryThreshold: 200 * time.Millisecond,
			AutoMigrate:        true,
		},
		Auth: AuthConfig{
			JWTSecret:  DefaultJWTSecret,
			TokenTTL:   24 * time.Hour,
			BcryptCost: 10,
		},
		Redis: RedisConfig{CacheTTL: time.Minute},
		Mongo: MongoConfig{Database: "food_marketplace", Timeout: 10 * time.Second},
		Kafka: KafkaConfig{Topic: "order-events"},
		Jobs: JobsConfig{
			Concurrency:    10,
			RollupSchedule: "5 0 * * *",
			SchedulerOn:    true,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

// Load reads FOODAPP_* variables on top of Default and validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate runs the struct tag rules plus the cross-field checks tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if c.IsProduction() && c.Auth.JWTSecret == DefaultJWTSecret {
		return errors.New("config validation failed: auth.jwt_secret must be set in production")
	}
	if c.Mongo.URI != "" && c.Mongo.Database == "" {
		return errors.New("config validation failed: mongo.database is required when mongo.uri is set")
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return errors.New("config validation failed: kafka.topic is required when kafka.brokers is set")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c *Config) RedisEnabled() bool {
	return c.Redis.Address != ""
}

func (c *Config) MongoEnabled() bool {
	return c.Mongo.URI != ""
}

func (c *Config) KafkaEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}
