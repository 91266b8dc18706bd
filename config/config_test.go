package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"PORT", "DATABASE_URL", "DEBUG", "PUBLIC_URL", "SESSION_SECRET", "SESSION_TTL",
	"AWS_REGION", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY", "AWS_S3_BUCKET", "AWS_S3_ENDPOINT",
}

func clearEnv(t *testing.T) {
	for _, k := range allKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "6835", cfg.Port)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.Debug)
	assert.Empty(t, cfg.AWS.AccessKeyID, "credentials must never have a default")
	assert.Empty(t, cfg.AWS.SecretAccessKey, "credentials must never have a default")
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)

	envFile := filepath.Join(t.TempDir(), ".env")
	content := strings.Join([]string{
		"DATABASE_URL=postgres://localhost/parish",
		"AWS_REGION=eu-west-1",
		"AWS_S3_BUCKET=parish-uploads",
		"PUBLIC_URL=https://parish.example/",
		"DEBUG=true",
	}, "\n")
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/parish", cfg.DatabaseURL)
	assert.Equal(t, "eu-west-1", cfg.AWS.Region)
	assert.Equal(t, "parish-uploads", cfg.AWS.Bucket)
	assert.Equal(t, "https://parish.example", cfg.PublicURL)
	assert.True(t, cfg.Debug)
}

func TestLoad_MissingEnvFileIsTolerated(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.env"))
	assert.NoError(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			DatabaseURL:   "postgres://localhost/parish",
			SessionSecret: strings.Repeat("s", 32),
			SessionTTL:    time.Hour,
			AWS: AWSConfig{
				Region:          "eu-west-1",
				AccessKeyID:     "AKIA",
				SecretAccessKey: "secret",
				Bucket:          "parish-uploads",
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "complete", mutate: func(c *Config) {}},
		{
			name:    "missing credentials are all reported",
			mutate:  func(c *Config) { c.AWS.AccessKeyID = ""; c.AWS.SecretAccessKey = " " },
			wantErr: "AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY",
		},
		{
			name:    "missing database",
			mutate:  func(c *Config) { c.DatabaseURL = "" },
			wantErr: "DATABASE_URL",
		},
		{
			name:    "short session secret",
			mutate:  func(c *Config) { c.SessionSecret = "short" },
			wantErr: "at least 32 bytes",
		},
		{
			name:    "non-positive ttl",
			mutate:  func(c *Config) { c.SessionTTL = 0 },
			wantErr: "SESSION_TTL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateDatabase(t *testing.T) {
	assert.Error(t, (&Config{}).ValidateDatabase())
	assert.NoError(t, (&Config{DatabaseURL: "postgres://x"}).ValidateDatabase())
}
