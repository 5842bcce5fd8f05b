package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variable names recognized by the loader. File values are
// defaults; env values win.
const (
	EnvConfigPath   = "CONFIG_PATH"
	EnvDBConnection = "DB_CONNECTION"
	EnvJWTSecret    = "JWT_SECRET"
	EnvJWTExpiry    = "JWT_EXPIRY"
	EnvRefreshTTL   = "REFRESH_TTL"
	EnvSMTPHost     = "SMTP_HOST"
	EnvSMTPPort     = "SMTP_PORT"
	EnvSMTPUser     = "SMTP_USER"
	EnvSMTPPass     = "SMTP_PASS"
	EnvEmailFrom    = "EMAIL_FROM"
	EnvFrontendURL  = "FRONTEND_BASE_URL"
)

// AppConfig holds resolved application configuration values.
type AppConfig struct {
	ConfigPath string
}

// LoadFromEnv loads app config from environment variables.
func LoadFromEnv() (AppConfig, error) {
	return AppConfig{ConfigPath: ResolveConfigPath(os.Getenv(EnvConfigPath))}, nil
}

// ResolveConfigPath normalizes the config path and applies defaults.
func ResolveConfigPath(p string) string {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		trimmed = "./config.yaml"
	}
	if abs, err := filepath.Abs(trimmed); err == nil {
		return abs
	}
	return trimmed
}

// ErrMissingDatabaseDSN indicates no database DSN is present in the config file.
var ErrMissingDatabaseDSN = errors.New("missing database dsn (set `database-dsn` or `database.dsn` in config file)")

// LoadDatabaseDSN reads the database DSN from the YAML config file.
func LoadDatabaseDSN(configPath string) (string, error) {
	if dsn := strings.TrimSpace(os.Getenv(EnvDBConnection)); dsn != "" {
		return dsn, nil
	}

	// fileConfig maps the YAML fields needed for DSN resolution.
	type fileConfig struct {
		DatabaseDSN string `yaml:"database-dsn"`
		Database    struct {
			DSN string `yaml:"dsn"`
		} `yaml:"database"`
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return "", fmt.Errorf("read config file: %w", err)
	}

	var cfg fileConfig
	if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
		return "", fmt.Errorf("parse config file: %w", errUnmarshal)
	}

	if dsn := strings.TrimSpace(cfg.DatabaseDSN); dsn != "" {
		return dsn, nil
	}
	if dsn := strings.TrimSpace(cfg.Database.DSN); dsn != "" {
		return dsn, nil
	}
	return "", ErrMissingDatabaseDSN
}

// Defaults applied when the config file omits or invalidates auth settings.
const (
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 30 * 24 * time.Hour
)

// AuthConfig holds token, cookie, and OAuth settings.
type AuthConfig struct {
	Secret          string        `yaml:"secret"`
	AccessTokenTTL  time.Duration `yaml:"access-token-ttl"`
	RefreshTokenTTL time.Duration `yaml:"refresh-token-ttl"`

	CookieDomain      string `yaml:"cookie-domain"`
	CookieSecure      bool   `yaml:"cookie-secure"`
	AccessCookieName  string `yaml:"access-cookie-name"`
	RefreshCookieName string `yaml:"refresh-cookie-name"`

	GoogleClientID     string `yaml:"google-client-id"`
	GoogleClientSecret string `yaml:"google-client-secret"`
	GoogleRedirectURL  string `yaml:"google-redirect-url"`
}

// LoadAuthConfig loads auth settings from the YAML config file with env overrides.
func LoadAuthConfig(configPath string) (AuthConfig, error) {
	// fileConfig maps the YAML fields needed for auth settings.
	type fileConfig struct {
		Auth AuthConfig `yaml:"auth"`
	}

	result := AuthConfig{
		AccessTokenTTL:  defaultAccessTokenTTL,
		RefreshTokenTTL: defaultRefreshTokenTTL,
	}

	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		var cfg fileConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal == nil {
			result = cfg.Auth
		}
	}

	if secret := strings.TrimSpace(os.Getenv(EnvJWTSecret)); secret != "" {
		result.Secret = secret
	}
	if expiryRaw := strings.TrimSpace(os.Getenv(EnvJWTExpiry)); expiryRaw != "" {
		if expiry, errParse := time.ParseDuration(expiryRaw); errParse == nil && expiry > 0 {
			result.AccessTokenTTL = expiry
		}
	}
	if ttlRaw := strings.TrimSpace(os.Getenv(EnvRefreshTTL)); ttlRaw != "" {
		if ttl, errParse := time.ParseDuration(ttlRaw); errParse == nil && ttl > 0 {
			result.RefreshTokenTTL = ttl
		}
	}

	if result.AccessTokenTTL <= 0 {
		result.AccessTokenTTL = defaultAccessTokenTTL
	}
	if result.RefreshTokenTTL <= 0 {
		result.RefreshTokenTTL = defaultRefreshTokenTTL
	}
	if result.AccessCookieName == "" {
		result.AccessCookieName = "lifeos_access"
	}
	if result.RefreshCookieName == "" {
		result.RefreshCookieName = "lifeos_refresh"
	}
	return result, nil
}

// MailConfig holds SMTP delivery settings. Delivery is skipped entirely when
// Host or From is empty.
type MailConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
	From string `yaml:"from"`
}

// LoadMailConfig loads SMTP settings from the YAML config file with env overrides.
func LoadMailConfig(configPath string) (MailConfig, error) {
	// fileConfig maps the YAML fields needed for mail settings.
	type fileConfig struct {
		SMTP MailConfig `yaml:"smtp"`
	}

	var result MailConfig
	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		var cfg fileConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal == nil {
			result = cfg.SMTP
		}
	}

	if host := strings.TrimSpace(os.Getenv(EnvSMTPHost)); host != "" {
		result.Host = host
	}
	if portRaw := strings.TrimSpace(os.Getenv(EnvSMTPPort)); portRaw != "" {
		if port, errParse := strconv.Atoi(portRaw); errParse == nil && port > 0 {
			result.Port = port
		}
	}
	if user := strings.TrimSpace(os.Getenv(EnvSMTPUser)); user != "" {
		result.User = user
	}
	if pass := os.Getenv(EnvSMTPPass); pass != "" {
		result.Pass = pass
	}
	if from := strings.TrimSpace(os.Getenv(EnvEmailFrom)); from != "" {
		result.From = from
	}
	if result.Port <= 0 {
		result.Port = 587
	}
	return result, nil
}

// LoadFrontendBaseURL reads the frontend base URL used in emailed links.
func LoadFrontendBaseURL(configPath string) string {
	if base := strings.TrimSpace(os.Getenv(EnvFrontendURL)); base != "" {
		return strings.TrimRight(base, "/")
	}

	// fileConfig maps the YAML field for the frontend URL.
	type fileConfig struct {
		FrontendBaseURL string `yaml:"frontend-base-url"`
	}

	data, errRead := os.ReadFile(configPath)
	if errRead != nil {
		return ""
	}
	var cfg fileConfig
	if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
		return ""
	}
	return strings.TrimRight(strings.TrimSpace(cfg.FrontendBaseURL), "/")
}
