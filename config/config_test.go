package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadReadsPrefixedEnv(t *testing.T) {
	t.Setenv("FOODAPP_SERVER__PORT", "9090")
	t.Setenv("FOODAPP_DATABASE__DRIVER", "postgres")
	t.Setenv("FOODAPP_DATABASE__DSN", "postgres://app@localhost/food")
	t.Setenv("FOODAPP_AUTH__TOKEN_TTL", "2h")
	t.Setenv("FOODAPP_REDIS__ADDRESS", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.True(t, cfg.RedisEnabled())
	assert.False(t, cfg.MongoEnabled())
	assert.Equal(t, 10, cfg.Jobs.Concurrency)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"unknown driver":         func(c *Config) { c.Database.Driver = "mysql" },
		"short secret":           func(c *Config) { c.Auth.JWTSecret = "short" },
		"default secret in prod": func(c *Config) { c.App.Env = "production" },
		"mongo without database": func(c *Config) {
			c.Mongo.URI = "mongodb://localhost"
			c.Mongo.Database = ""
		},
		"kafka without topic": func(c *Config) {
			c.Kafka.Brokers = []string{"localhost:9092"}
			c.Kafka.Topic = ""
		},
		"bad log level": func(c *Config) { c.Logging.Level = "trace" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestProductionWithSecretIsValid(t *testing.T) {
	cfg := Default()
	cfg.App.Env = "production"
	cfg.Auth.JWTSecret = "a-production-grade-secret-value"
	assert.NoError(t, cfg.Validate())
	assert.True(t, cfg.IsProduction())
}
