package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the training delivery service.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Storage  StorageConfig  `yaml:"storage"`
	Events   EventsConfig   `yaml:"events"`
	Alerts   AlertsConfig   `yaml:"alerts"`
	Tracker  TrackerConfig  `yaml:"tracker"`
	Debug    bool           `yaml:"debug"`
	LogLevel string         `yaml:"log_level"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with container detection.
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// RedisConfig holds the optional Redis settings. Redis backs the session
// lookup cache and the sweeper leader lock; when disabled both fall back
// (direct DB reads, PG advisory lock).
type RedisConfig struct {
	Enabled           bool   `yaml:"enabled"`
	Addr              string `yaml:"addr"`
	Password          string `yaml:"password"`
	DB                int    `yaml:"db"`
	SessionTTLSeconds int    `yaml:"session_ttl_seconds"`
}

// SessionTTL returns the session cache TTL as a duration.
func (c RedisConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSeconds) * time.Second
}

// StorageConfig holds content body storage settings. HTML bodies are
// resolved database row → S3 object → local package directory.
type StorageConfig struct {
	S3Bucket   string `yaml:"s3_bucket"`
	S3Prefix   string `yaml:"s3_prefix"`
	AWSRegion  string `yaml:"aws_region"`
	AWSProfile string `yaml:"aws_profile"` // empty uses the default credential chain
	PackageDir string `yaml:"package_dir"`
}

// GetAWSProfile returns the AWS profile, with environment override.
func (c StorageConfig) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return ""
		}
		return envProfile
	}
	// On ECS/Lambda, use the IAM role instead of a profile
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return ""
	}
	return c.AWSProfile
}

// EventsConfig holds downstream publication and outbox sweep settings.
type EventsConfig struct {
	QueueURL             string `yaml:"queue_url"`
	SweepIntervalSeconds int    `yaml:"sweep_interval_seconds"`
	BaseBackoffSeconds   int    `yaml:"base_backoff_seconds"`
	MaxBackoffSeconds    int    `yaml:"max_backoff_seconds"`
	DeadLetterAttempts   int    `yaml:"dead_letter_attempts"`
	DefaultRole          string `yaml:"default_role"`
}

// SweepInterval returns the sweep interval as a duration.
func (c EventsConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

// BaseBackoff returns the initial retry delay as a duration.
func (c EventsConfig) BaseBackoff() time.Duration {
	return time.Duration(c.BaseBackoffSeconds) * time.Second
}

// MaxBackoff returns the retry delay cap as a duration.
func (c EventsConfig) MaxBackoff() time.Duration {
	return time.Duration(c.MaxBackoffSeconds) * time.Second
}

// AlertsConfig holds operator escalation settings for stuck outbox rows.
type AlertsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	FromEmail string `yaml:"from_email"`
	ToEmail   string `yaml:"to_email"`
	AWSRegion string `yaml:"aws_region"`
}

// TrackerConfig holds the client-facing settings baked into served HTML.
type TrackerConfig struct {
	PublicBaseURL  string `yaml:"public_base_url"`
	DefaultLogoURL string `yaml:"default_logo_url"`
}

// Load reads and parses the configuration file, applying defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Redis.SessionTTLSeconds == 0 {
		cfg.Redis.SessionTTLSeconds = 60
	}
	if cfg.Storage.AWSRegion == "" {
		cfg.Storage.AWSRegion = "us-west-2"
	}
	if cfg.Storage.PackageDir == "" {
		cfg.Storage.PackageDir = "./packages"
	}
	if cfg.Events.SweepIntervalSeconds == 0 {
		cfg.Events.SweepIntervalSeconds = 30
	}
	if cfg.Events.BaseBackoffSeconds == 0 {
		cfg.Events.BaseBackoffSeconds = 10
	}
	if cfg.Events.MaxBackoffSeconds == 0 {
		cfg.Events.MaxBackoffSeconds = 900
	}
	if cfg.Events.DeadLetterAttempts == 0 {
		cfg.Events.DeadLetterAttempts = 10
	}
	if cfg.Events.DefaultRole == "" {
		cfg.Events.DefaultRole = "training"
	}
	if cfg.Alerts.AWSRegion == "" {
		cfg.Alerts.AWSRegion = cfg.Storage.AWSRegion
	}
	if cfg.Tracker.PublicBaseURL == "" {
		cfg.Tracker.PublicBaseURL = "http://localhost:8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "INFO"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// A .env file (if present) is loaded first, so secrets can live in .env
// locally and in real env vars on ECS.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("CONTENT_S3_BUCKET"); v != "" {
		cfg.Storage.S3Bucket = v
	}
	if v := os.Getenv("CONTENT_S3_REGION"); v != "" {
		cfg.Storage.AWSRegion = v
	}
	if v := os.Getenv("CONTENT_PACKAGE_DIR"); v != "" {
		cfg.Storage.PackageDir = v
	}
	if v := os.Getenv("EVENTS_QUEUE_URL"); v != "" {
		cfg.Events.QueueURL = v
	}
	if v := os.Getenv("ALERTS_FROM_EMAIL"); v != "" {
		cfg.Alerts.FromEmail = v
	}
	if v := os.Getenv("ALERTS_TO_EMAIL"); v != "" {
		cfg.Alerts.ToEmail = v
	}
	if v := os.Getenv("TRACKER_PUBLIC_BASE_URL"); v != "" {
		cfg.Tracker.PublicBaseURL = v
	}
	if v := os.Getenv("DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = b
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	return cfg, nil
}
