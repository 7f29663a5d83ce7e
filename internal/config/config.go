// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8000).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN; empty until DB is wired.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// JWTSecretKey signs access tokens (HS256). Required.
	JWTSecretKey string `mapstructure:"JWT_SECRET_KEY"`
	// JWTRefreshKey signs refresh tokens (HS256). Required; must differ from JWT_SECRET_KEY.
	JWTRefreshKey string `mapstructure:"JWT_REFRESH_KEY"`
	// AccessTokenTTL is the access token lifetime (e.g. "60m").
	AccessTokenTTL string `mapstructure:"ACCESS_TOKEN_TTL"`
	// RefreshTokenTTL is the refresh token lifetime (e.g. "168h" = 7d).
	RefreshTokenTTL string `mapstructure:"REFRESH_TOKEN_TTL"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// Env is the application environment ("development", "production"). Cookies are
	// httpOnly/secure with SameSite=None only when Env is production.
	Env string `mapstructure:"APP_ENV"`
	// CORSOrigins is a comma-separated list of allowed CORS origins.
	CORSOrigins string `mapstructure:"CORS_ORIGINS"`
	// AccessTokenCookie is the cookie name carrying the access token.
	AccessTokenCookie string `mapstructure:"ACCESS_TOKEN_COOKIE"`
	// RefreshTokenCookie is the cookie name carrying the refresh token.
	RefreshTokenCookie string `mapstructure:"REFRESH_TOKEN_COOKIE"`
	// SessionIDCookie is the cookie name carrying the session id (not signed).
	SessionIDCookie string `mapstructure:"SESSION_ID_COOKIE"`
	// LogLevel is the zap log level (debug, info, warn, error).
	LogLevel string `mapstructure:"LOG_LEVEL"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8000")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_SECRET_KEY", "")
	v.SetDefault("JWT_REFRESH_KEY", "")
	v.SetDefault("ACCESS_TOKEN_TTL", "60m")
	v.SetDefault("REFRESH_TOKEN_TTL", "168h") // 7d
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("ACCESS_TOKEN_COOKIE", "_intelliflow_access_token")
	v.SetDefault("REFRESH_TOKEN_COOKIE", "_intelliflow_refresh_token")
	v.SetDefault("SESSION_ID_COOKIE", "_sid")
	v.SetDefault("LOG_LEVEL", "info")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.JWTSecretKey == "" {
		return nil, errors.New("config: JWT_SECRET_KEY must be set")
	}
	if cfg.JWTRefreshKey == "" {
		return nil, errors.New("config: JWT_REFRESH_KEY must be set")
	}
	if cfg.JWTSecretKey == cfg.JWTRefreshKey {
		return nil, errors.New("config: JWT_SECRET_KEY and JWT_REFRESH_KEY must differ")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	return &cfg, nil
}

// IsProduction reports whether APP_ENV is production. Controls cookie security attributes.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// AccessTTL parses AccessTokenTTL as a time.Duration. Returns 60m if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	d, err := time.ParseDuration(c.AccessTokenTTL)
	if err != nil || d <= 0 {
		return 60 * time.Minute
	}
	return d
}

// RefreshTTL parses RefreshTokenTTL as a time.Duration. Returns 168h if unset or invalid.
func (c *Config) RefreshTTL() time.Duration {
	d, err := time.ParseDuration(c.RefreshTokenTTL)
	if err != nil || d <= 0 {
		return 168 * time.Hour
	}
	return d
}

// CORSOriginsList returns allowed origins from the comma-separated config.
func (c *Config) CORSOriginsList() []string {
	if c == nil || c.CORSOrigins == "" {
		return nil
	}
	parts := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
