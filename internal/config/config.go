// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"os"
)

// Config holds all environment-derived settings for the intake backend.
type Config struct {
	Env      string
	HTTPAddr string

	DatabaseURL string

	LineChannelSecret      string
	LineChannelAccessToken string
	LineAPIBaseURL         string
	LineDataBaseURL        string

	MinIOEndpoint     string
	MinIOAccessKey    string
	MinIOSecretKey    string
	MinIOUseSSL       bool
	MinIOBucketImages string
	MinIOPublicBase   string

	RedisURL    string
	AsynqQueue  string
	SweepPeriod time.Duration

	NominatimBaseURL string

	ReportTokenSecret string
	AdminAPIKey       string

	SMTPHost        string
	SMTPPort        int
	SMTPUsername    string
	SMTPPassword    string
	EmailFromName   string
	EmailFromAddr   string
	EmailEnabled    bool
	WebhookDeadline time.Duration

	CORSOrigins []string
}

// Load reads configuration from the environment (and .env in development).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("APP_ENV", "development"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		LineChannelSecret:      getEnv("LINE_CHANNEL_SECRET", ""),
		LineChannelAccessToken: getEnv("LINE_CHANNEL_ACCESS_TOKEN", ""),
		LineAPIBaseURL:         getEnv("LINE_API_BASE_URL", "https://api.line.me"),
		LineDataBaseURL:        getEnv("LINE_DATA_BASE_URL", "https://api-data.line.me"),

		MinIOEndpoint:     getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:    getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:    getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:       strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOBucketImages: getEnv("MINIO_BUCKET_REPORT_IMAGES", "report-images"),
		MinIOPublicBase:   getEnv("MINIO_PUBLIC_BASE_URL", ""),

		RedisURL:    getEnv("REDIS_URL", ""),
		AsynqQueue:  getEnv("ASYNQ_QUEUE", "wildguard"),
		SweepPeriod: mustDuration(getEnv("SESSION_SWEEP_PERIOD", "1h")),

		NominatimBaseURL: getEnv("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"),

		ReportTokenSecret: getEnv("REPORT_TOKEN_SECRET", ""),
		AdminAPIKey:       getEnv("ADMIN_API_KEY", ""),

		SMTPHost:        getEnv("SMTP_HOST", ""),
		SMTPPort:        mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:    getEnv("SMTP_USERNAME", ""),
		SMTPPassword:    getEnv("SMTP_PASSWORD", ""),
		EmailFromName:   getEnv("EMAIL_FROM_NAME", "Wildguard"),
		EmailFromAddr:   getEnv("EMAIL_FROM_ADDRESS", ""),
		WebhookDeadline: mustDuration(getEnv("WEBHOOK_DEADLINE", "25s")),

		CORSOrigins: splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000")),
	}

	cfg.EmailEnabled = cfg.SMTPHost != "" && cfg.EmailFromAddr != ""

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.LineChannelSecret == "" {
		return nil, fmt.Errorf("LINE_CHANNEL_SECRET is required")
	}
	if cfg.LineChannelAccessToken == "" {
		return nil, fmt.Errorf("LINE_CHANNEL_ACCESS_TOKEN is required")
	}
	if cfg.MinIOEndpoint == "" {
		return nil, fmt.Errorf("MINIO_ENDPOINT is required")
	}
	if cfg.WebhookDeadline <= 0 {
		return nil, fmt.Errorf("WEBHOOK_DEADLINE must be a positive duration")
	}

	return cfg, nil
}

// GetDatabaseURL satisfies the platform db.Config interface.
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// GetRedisURL satisfies the scheduler config interface.
func (c *Config) GetRedisURL() string { return c.RedisURL }

// GetAsynqQueueName satisfies the scheduler config interface.
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueue }

// Router config.

func (c *Config) GetEnv() string           { return c.Env }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetAdminAPIKey() string   { return c.AdminAPIKey }

// LINE messaging config.

func (c *Config) GetLineChannelSecret() string      { return c.LineChannelSecret }
func (c *Config) GetLineChannelAccessToken() string { return c.LineChannelAccessToken }
func (c *Config) GetLineAPIBaseURL() string         { return c.LineAPIBaseURL }
func (c *Config) GetLineDataBaseURL() string        { return c.LineDataBaseURL }
func (c *Config) GetWebhookDeadline() time.Duration { return c.WebhookDeadline }

// Object storage config.

func (c *Config) GetMinIOEndpoint() string     { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string    { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string    { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool         { return c.MinIOUseSSL }
func (c *Config) GetMinIOBucketImages() string { return c.MinIOBucketImages }
func (c *Config) GetMinIOPublicBase() string   { return c.MinIOPublicBase }

// Outbound email config.

func (c *Config) GetSMTPHost() string      { return c.SMTPHost }
func (c *Config) GetSMTPPort() int         { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string  { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string  { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string { return c.EmailFromName }
func (c *Config) GetEmailFromAddr() string { return c.EmailFromAddr }

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	var n int
	_, err := fmt.Sscanf(value, "%d", &n)
	if err != nil {
		return 0
	}
	return n
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}
