package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:                      "development",
		Port:                     "3003",
		JWTSecret:                "secure-secret-at-least-32-chars-long",
		TokenTTLHours:            168,
		BcryptCost:               10,
		DBDriver:                 "postgres",
		DatabaseURL:              "postgres://u:p@db:5432/dailyprompt?sslmode=require",
		DBConnMaxLifetimeMinutes: 5,
		TracingSamplerRatio:      1,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"valid development", func(c *Config) {}, false},
		{"missing port", func(c *Config) { c.Port = "" }, true},
		{"missing secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }, true},
		{"sqlite driver", func(c *Config) { c.DBDriver = "sqlite" }, false},
		{"zero token ttl", func(c *Config) { c.TokenTTLHours = 0 }, true},
		{"bcrypt cost too low", func(c *Config) { c.BcryptCost = 2 }, true},
		{"sampler ratio out of range", func(c *Config) { c.TracingSamplerRatio = 1.5 }, true},
		{"production with default secret", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = defaultJWTSecret
		}, true},
		{"production with short secret", func(c *Config) {
			c.Env = "prod"
			c.JWTSecret = "short"
		}, true},
		{"production with sqlite", func(c *Config) {
			c.Env = "production"
			c.DBDriver = "sqlite"
		}, true},
		{"production valid", func(c *Config) { c.Env = "production" }, false},
		{"development short secret only warns", func(c *Config) { c.JWTSecret = "short" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_DSN(t *testing.T) {
	c := validConfig()
	c.TestDatabaseURL = "file::memory:"

	assert.Equal(t, c.DatabaseURL, c.DSN())

	c.Env = "test"
	assert.Equal(t, "file::memory:", c.DSN())

	c.TestDatabaseURL = ""
	assert.Equal(t, c.DatabaseURL, c.DSN(), "falls back to DATABASE_URL")
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	defer viper.Reset()

	t.Setenv("APP_ENV", "development")
	t.Setenv("PORT", "9999")
	t.Setenv("DB_DRIVER", "  SQLite ")
	t.Setenv("TOKEN_TTL_HOURS", "12")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9999", c.Port)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, 12, c.TokenTTLHours)
	assert.Equal(t, 10, c.BcryptCost)
	assert.False(t, c.IsProduction())
}

func TestLoadConfig_MissingProfileFile(t *testing.T) {
	defer viper.Reset()

	t.Setenv("APP_ENV", "staging-without-file")

	_, err := LoadConfig()
	assert.Error(t, err)
}
