package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"churchsite/constants"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	// Endpoint is only set for S3-compatible stores such as MinIO.
	Endpoint string
}

type Config struct {
	Port          string
	DatabaseURL   string
	Debug         bool
	PublicURL     string
	SessionSecret string
	SessionTTL    time.Duration
	AWS           AWSConfig
}

// Load reads envFile (if it exists), an optional churchsite.yaml in the working
// directory and finally the process environment. Environment values win.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("error loading %s: %w", envFile, err)
			}
			log.Printf("%s not found, using process environment", envFile)
		}
	}

	v := viper.New()
	v.SetConfigName("churchsite")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	v.SetDefault("PORT", constants.DEFAULT_PORT)
	v.SetDefault("PUBLIC_URL", constants.DEFAULT_PUBLIC_URL)
	v.SetDefault("SESSION_TTL", constants.DEFAULT_SESSION_TTL)
	v.SetDefault("DEBUG", false)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return &Config{
		Port:          v.GetString("PORT"),
		DatabaseURL:   v.GetString("DATABASE_URL"),
		Debug:         v.GetBool("DEBUG"),
		PublicURL:     strings.TrimRight(v.GetString("PUBLIC_URL"), "/"),
		SessionSecret: v.GetString("SESSION_SECRET"),
		SessionTTL:    v.GetDuration("SESSION_TTL"),
		AWS: AWSConfig{
			Region:          v.GetString("AWS_REGION"),
			AccessKeyID:     v.GetString("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("AWS_SECRET_ACCESS_KEY"),
			Bucket:          v.GetString("AWS_S3_BUCKET"),
			Endpoint:        v.GetString("AWS_S3_ENDPOINT"),
		},
	}, nil
}

// ValidateDatabase checks only what the database commands need.
func (c *Config) ValidateDatabase() error {
	if c.DatabaseURL == "" {
		return errors.New("missing required configuration: DATABASE_URL")
	}
	return nil
}

// Validate checks everything the web server needs. It never substitutes
// defaults for credentials.
func (c *Config) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"DATABASE_URL", c.DatabaseURL},
		{"SESSION_SECRET", c.SessionSecret},
		{"AWS_REGION", c.AWS.Region},
		{"AWS_ACCESS_KEY_ID", c.AWS.AccessKeyID},
		{"AWS_SECRET_ACCESS_KEY", c.AWS.SecretAccessKey},
		{"AWS_S3_BUCKET", c.AWS.Bucket},
	}

	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if len(c.SessionSecret) < constants.MIN_SESSION_SECRET {
		return fmt.Errorf("SESSION_SECRET must be at least %d bytes", constants.MIN_SESSION_SECRET)
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}

	return nil
}
