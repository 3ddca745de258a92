package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3001, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 60, cfg.Trials.DurationDays)
	assert.Equal(t, 60*24*time.Hour, cfg.Trials.Duration())
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.AllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("TRIAL_DURATION_DAYS", "14")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://spartanofurioso.com, https://admin.spartanofurioso.com")
	t.Setenv("JWT_ACCESS_EXPIRY", "2h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 14, cfg.Trials.DurationDays)
	assert.Equal(t, 2*time.Hour, cfg.Auth.AccessTokenExpiry)
	assert.Equal(t, []string{"https://spartanofurioso.com", "https://admin.spartanofurioso.com"}, cfg.Server.AllowedOrigins)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 3001, Environment: "development"},
			Database: DatabaseConfig{Driver: "postgres"},
			Auth:     AuthConfig{JWTSecret: "secret"},
			Storage:  StorageConfig{Driver: "local"},
			Trials:   TrialConfig{DurationDays: 60},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "default secret in production", mutate: func(c *Config) {
			c.Server.Environment = "production"
			c.Auth.JWTSecret = defaultJWTSecret
		}, wantErr: true},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: true},
		{name: "bad driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: true},
		{name: "s3 without bucket", mutate: func(c *Config) { c.Storage.Driver = "s3" }, wantErr: true},
		{name: "zero trial length", mutate: func(c *Config) { c.Trials.DurationDays = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
