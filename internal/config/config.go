// Package config loads runtime settings from the environment and an optional .env file
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/damacus/s3ducky/internal/models"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage backends
const (
	BackendMock  = "mock"
	BackendMinio = "minio"
)

// DefaultRegions is the region list offered on the connect form
var DefaultRegions = []models.Region{
	{Value: "us-east-1", Label: "US East (N. Virginia)"},
	{Value: "us-east-2", Label: "US East (Ohio)"},
	{Value: "us-west-1", Label: "US West (N. California)"},
	{Value: "us-west-2", Label: "US West (Oregon)"},
	{Value: "eu-west-1", Label: "Europe (Ireland)"},
	{Value: "eu-west-2", Label: "Europe (London)"},
	{Value: "eu-central-1", Label: "Europe (Frankfurt)"},
	{Value: "ap-southeast-1", Label: "Asia Pacific (Singapore)"},
	{Value: "ap-southeast-2", Label: "Asia Pacific (Sydney)"},
	{Value: "ap-northeast-1", Label: "Asia Pacific (Tokyo)"},
}

type Config struct {
	ListenAddr string
	Backend    string

	MinioEndpoint string
	MockDelay     time.Duration

	SessionKey           string
	SessionDuration      time.Duration
	SessionWarning       time.Duration
	SessionCheckInterval time.Duration
	MaxSessions          int

	Regions []models.Region

	LogLevel  string
	LogFormat string
}

// Load reads .env (if present) and the environment into a Config
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("LISTEN_ADDR", ":8080")
	v.SetDefault("STORAGE_BACKEND", BackendMock)
	v.SetDefault("MINIO_ENDPOINT", "play.min.io:9000")
	v.SetDefault("MOCK_DELAY", "800ms")
	v.SetDefault("SESSION_KEY", "")
	v.SetDefault("SESSION_DURATION", "30m")
	v.SetDefault("SESSION_WARNING", "5m")
	v.SetDefault("SESSION_CHECK_INTERVAL", "1s")
	v.SetDefault("MAX_SESSIONS", 1024)
	v.SetDefault("REGIONS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		ListenAddr:           v.GetString("LISTEN_ADDR"),
		Backend:              strings.ToLower(v.GetString("STORAGE_BACKEND")),
		MinioEndpoint:        v.GetString("MINIO_ENDPOINT"),
		MockDelay:            v.GetDuration("MOCK_DELAY"),
		SessionKey:           v.GetString("SESSION_KEY"),
		SessionDuration:      v.GetDuration("SESSION_DURATION"),
		SessionWarning:       v.GetDuration("SESSION_WARNING"),
		SessionCheckInterval: v.GetDuration("SESSION_CHECK_INTERVAL"),
		MaxSessions:          v.GetInt("MAX_SESSIONS"),
		LogLevel:             v.GetString("LOG_LEVEL"),
		LogFormat:            v.GetString("LOG_FORMAT"),
	}

	regions, err := ParseRegions(v.GetString("REGIONS"))
	if err != nil {
		return nil, err
	}
	cfg.Regions = regions

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that would otherwise fail at runtime
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMock, BackendMinio:
	default:
		return fmt.Errorf("STORAGE_BACKEND: unknown backend %q", c.Backend)
	}
	if c.SessionDuration <= 0 {
		return fmt.Errorf("SESSION_DURATION: must be positive, got %s", c.SessionDuration)
	}
	if c.SessionWarning < 0 || c.SessionWarning > c.SessionDuration {
		return fmt.Errorf("SESSION_WARNING: must be between 0 and %s, got %s", c.SessionDuration, c.SessionWarning)
	}
	if c.SessionCheckInterval <= 0 {
		return fmt.Errorf("SESSION_CHECK_INTERVAL: must be positive, got %s", c.SessionCheckInterval)
	}
	if c.MaxSessions <= 0 {
		return fmt.Errorf("MAX_SESSIONS: must be positive, got %d", c.MaxSessions)
	}
	if c.Backend == BackendMinio && c.MinioEndpoint == "" {
		return fmt.Errorf("MINIO_ENDPOINT: required for the minio backend")
	}
	return nil
}

// ParseRegions parses "value=label;value=label". An empty string yields DefaultRegions.
func ParseRegions(raw string) ([]models.Region, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		regions := make([]models.Region, len(DefaultRegions))
		copy(regions, DefaultRegions)
		return regions, nil
	}

	var regions []models.Region
	for _, pair := range strings.Split(raw, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		value, label, ok := strings.Cut(pair, "=")
		value = strings.TrimSpace(value)
		if value == "" {
			return nil, fmt.Errorf("REGIONS: empty region value in %q", pair)
		}
		label = strings.TrimSpace(label)
		if !ok || label == "" {
			label = value
		}
		regions = append(regions, models.Region{Value: value, Label: label})
	}
	if len(regions) == 0 {
		return nil, fmt.Errorf("REGIONS: no regions in %q", raw)
	}
	return regions, nil
}
