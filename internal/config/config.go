package config

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const DefaultAPIBase = "http://localhost:8081"

// EnvPrefix may be prepended to any key; the prefixed variable wins over the bare one.
const EnvPrefix = "SOCIALSCHED_"

var envKeys = []string{
	"API_BASE",
	"API_TIMEOUT_SEC",
	"STATUS_METHOD",
	"SESSION_FILE",
	"SESSION_PROFILE",
	"DATABASE_URL",
	"DATABASE_CONNECT_TIMEOUT_SEC",
	"PUBLISH_POLL_ATTEMPTS",
	"PUBLISH_POLL_INTERVAL_MS",
	"OAUTH_CALLBACK_ADDR",
	"OAUTH_CALLBACK_TIMEOUT_SEC",
	"AUDIT_LOG_FILE",
	"LOG_LEVEL",
}

type Config struct {
	API          APIConfig
	Session      SessionConfig
	DatabaseURL  string
	Publish      PublishConfig
	OAuth        OAuthConfig
	AuditLogFile string
	LogLevel     string

	// DatabaseConnectTimeout bounds how long startup retries an unreachable
	// database.
	DatabaseConnectTimeout time.Duration
}

type APIConfig struct {
	BaseURL      string
	Timeout      time.Duration
	StatusMethod string
}

type SessionConfig struct {
	File    string
	Profile string
}

type PublishConfig struct {
	MaxAttempts int
	Interval    time.Duration
}

type OAuthConfig struct {
	CallbackAddr    string
	CallbackTimeout time.Duration
}

// Load reads configuration from the environment only.
func Load() (Config, error) {
	return LoadFile("")
}

// LoadFile reads configuration from an optional YAML file, with environment
// variables taking precedence over file values.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	for _, key := range envKeys {
		if err := v.BindEnv(key, EnvPrefix+key, key); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if path = strings.TrimSpace(path); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{
		API: APIConfig{
			BaseURL:      strings.TrimRight(getString(v, "API_BASE"), "/"),
			Timeout:      time.Duration(getInt(v, "API_TIMEOUT_SEC", 30)) * time.Second,
			StatusMethod: strings.ToUpper(getString(v, "STATUS_METHOD")),
		},
		Session: SessionConfig{
			File:    getString(v, "SESSION_FILE"),
			Profile: getString(v, "SESSION_PROFILE"),
		},
		DatabaseURL:            getString(v, "DATABASE_URL"),
		DatabaseConnectTimeout: time.Duration(getInt(v, "DATABASE_CONNECT_TIMEOUT_SEC", 10)) * time.Second,
		Publish: PublishConfig{
			MaxAttempts: getInt(v, "PUBLISH_POLL_ATTEMPTS", 20),
			Interval:    time.Duration(getInt(v, "PUBLISH_POLL_INTERVAL_MS", 3000)) * time.Millisecond,
		},
		OAuth: OAuthConfig{
			CallbackAddr:    getString(v, "OAUTH_CALLBACK_ADDR"),
			CallbackTimeout: time.Duration(getInt(v, "OAUTH_CALLBACK_TIMEOUT_SEC", 300)) * time.Second,
		},
		AuditLogFile: getString(v, "AUDIT_LOG_FILE"),
		LogLevel:     strings.ToUpper(getString(v, "LOG_LEVEL")),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg Config) validate() error {
	u, err := url.Parse(cfg.API.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("API_BASE must be an absolute http(s) URL, got %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout <= 0 {
		return fmt.Errorf("API_TIMEOUT_SEC must be > 0")
	}
	if cfg.API.StatusMethod != http.MethodPatch && cfg.API.StatusMethod != http.MethodPut {
		return fmt.Errorf("STATUS_METHOD must be PATCH or PUT, got %q", cfg.API.StatusMethod)
	}
	if cfg.Session.File == "" && cfg.DatabaseURL == "" {
		return fmt.Errorf("SESSION_FILE must not be empty")
	}
	if cfg.DatabaseURL != "" && cfg.DatabaseConnectTimeout <= 0 {
		return fmt.Errorf("DATABASE_CONNECT_TIMEOUT_SEC must be > 0")
	}
	if cfg.Session.Profile == "" {
		return fmt.Errorf("SESSION_PROFILE must not be empty")
	}
	if cfg.Publish.MaxAttempts <= 0 {
		return fmt.Errorf("PUBLISH_POLL_ATTEMPTS must be > 0")
	}
	if cfg.Publish.Interval <= 0 {
		return fmt.Errorf("PUBLISH_POLL_INTERVAL_MS must be > 0")
	}
	if cfg.OAuth.CallbackAddr == "" {
		return fmt.Errorf("OAUTH_CALLBACK_ADDR must not be empty")
	}
	if cfg.OAuth.CallbackTimeout <= 0 {
		return fmt.Errorf("OAUTH_CALLBACK_TIMEOUT_SEC must be > 0")
	}
	switch cfg.LogLevel {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of DEBUG, INFO, WARN, ERROR, got %q", cfg.LogLevel)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("API_BASE", DefaultAPIBase)
	v.SetDefault("STATUS_METHOD", http.MethodPatch)
	v.SetDefault("SESSION_FILE", DefaultSessionFile())
	v.SetDefault("SESSION_PROFILE", "default")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("OAUTH_CALLBACK_ADDR", "127.0.0.1:8765")
	v.SetDefault("AUDIT_LOG_FILE", "")
	v.SetDefault("LOG_LEVEL", "WARN")
}

// DefaultSessionFile is the session file location used when SESSION_FILE is unset.
func DefaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return filepath.Join(".", "data", "session.json")
	}
	return filepath.Join(dir, "socialsched", "session.json")
}

func getString(v *viper.Viper, key string) string {
	return strings.TrimSpace(v.GetString(key))
}

func getInt(v *viper.Viper, key string, fallback int) int {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
