// Package config loads the dashboard configuration from the environment and
// an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration.
type Config struct {
	HTTPAddr string `yaml:"http_addr"`

	AdminAPI AdminAPIConfig `yaml:"admin_api"`
	Admin    AdminConfig    `yaml:"admin"`

	Timezone     string        `yaml:"timezone"`
	Currency     string        `yaml:"currency"`
	TopProducts  int           `yaml:"top_products"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
	PollInterval time.Duration `yaml:"poll_interval"`

	Notices NoticeConfig `yaml:"notices"`

	DatabaseURL string        `yaml:"database_url"`
	JWTSecret   string        `yaml:"jwt_secret"`
	SessionTTL  time.Duration `yaml:"session_ttl"`
	CORSOrigins []string      `yaml:"cors_origins"`

	LogLevel  string `yaml:"log_level"`
	LogPretty bool   `yaml:"log_pretty"`
}

// AdminAPIConfig configures the upstream platform admin API.
type AdminAPIConfig struct {
	BaseURL            string        `yaml:"base_url"`
	Token              string        `yaml:"token"`
	Timeout            time.Duration `yaml:"timeout"`
	BreakerMaxFailures int           `yaml:"breaker_max_failures"`
	BreakerOpenTimeout time.Duration `yaml:"breaker_open_timeout"`
}

// AdminConfig holds optional credentials used to open a session at startup.
type AdminConfig struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// NoticeConfig configures user-facing notice delivery.
type NoticeConfig struct {
	WebhookURL    string        `yaml:"webhook_url"`
	Template      string        `yaml:"template"`
	DedupeWindow  time.Duration `yaml:"dedupe_window"`
	SendTimeout   time.Duration `yaml:"send_timeout"`
	WebhookLevels []string      `yaml:"webhook_levels"`
}

// Load reads configuration from .env, the environment and DASHBOARD_CONFIG.
// Values in the YAML file override the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := fromEnv()
	if path := os.Getenv("DASHBOARD_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromEnv() *Config {
	return &Config{
		HTTPAddr: getenvDefault("HTTP_ADDR", ":8080"),
		AdminAPI: AdminAPIConfig{
			BaseURL:            getenvDefault("ADMIN_API_BASE_URL", ""),
			Token:              getenvDefault("ADMIN_API_TOKEN", ""),
			Timeout:            getenvDuration("ADMIN_API_TIMEOUT", 10*time.Second),
			BreakerMaxFailures: getenvIntDefault("BREAKER_MAX_FAILURES", 5),
			BreakerOpenTimeout: getenvDuration("BREAKER_OPEN_TIMEOUT", 30*time.Second),
		},
		Admin: AdminConfig{
			Email:    getenvDefault("ADMIN_EMAIL", ""),
			Password: getenvDefault("ADMIN_PASSWORD", ""),
		},
		Timezone:     getenvDefault("DASHBOARD_TIMEZONE", "Local"),
		Currency:     getenvDefault("CURRENCY", "USD"),
		TopProducts:  getenvIntDefault("DASHBOARD_TOP_PRODUCTS", 5),
		CacheTTL:     getenvDuration("DASHBOARD_CACHE_TTL", 15*time.Second),
		PollInterval: getenvDuration("NOTIFICATION_POLL_INTERVAL", 20*time.Second),
		Notices: NoticeConfig{
			WebhookURL:    getenvDefault("NOTICE_WEBHOOK_URL", ""),
			Template:      getenvDefault("NOTICE_TEMPLATE", ""),
			DedupeWindow:  getenvDuration("NOTICE_DEDUPE_WINDOW", 10*time.Second),
			SendTimeout:   getenvDuration("NOTICE_SEND_TIMEOUT", 5*time.Second),
			WebhookLevels: splitCSV(getenvDefault("NOTICE_WEBHOOK_LEVELS", "error")),
		},
		DatabaseURL: getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		JWTSecret:   getenvDefault("AUTH_JWT_SECRET", ""),
		SessionTTL:  getenvDuration("AUTH_SESSION_TTL", 12*time.Hour),
		CORSOrigins: splitCSV(getenvDefault("CORS_ORIGINS", "")),
		LogLevel:    getenvDefault("LOG_LEVEL", "info"),
		LogPretty:   getenvBool("LOG_PRETTY", false),
	}
}

// Validate checks required settings.
func (c *Config) Validate() error {
	if c.AdminAPI.BaseURL == "" {
		return errors.New("config: ADMIN_API_BASE_URL is required")
	}
	u, err := url.Parse(c.AdminAPI.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: invalid admin api base url %q", c.AdminAPI.BaseURL)
	}
	if c.PollInterval <= 0 {
		return errors.New("config: poll interval must be positive")
	}
	if c.AdminAPI.Timeout <= 0 {
		return errors.New("config: admin api timeout must be positive")
	}
	if (c.Admin.Email == "") != (c.Admin.Password == "") {
		return errors.New("config: ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the dashboard timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// AuthEnabled reports whether API requests must carry a signed token.
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	var result []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
