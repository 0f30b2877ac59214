package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"parsfix/internal/utils"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration. Nothing below main reads
// the environment directly.
type Config struct {
	AppEnv   string
	HTTPAddr string
	LogLevel string

	DatabaseURL string
	RedisURL    string
	AutoMigrate bool

	JWTSecret    string
	JWTIssuer    string
	JWTExpiresIn string
	CookieDomain string

	ActivationCodeTTLMinutes int
	ActivationMaxAttempts    int

	ResendAPIKey string
	MailFrom     string
	AppBaseURL   string

	GoogleClientID string
	GoogleJWKSURL  string
}

type configFile struct {
	App struct {
		Env      string `yaml:"env"`
		HTTPAddr string `yaml:"http_addr"`
		LogLevel string `yaml:"log_level"`
		BaseURL  string `yaml:"base_url"`
	} `yaml:"app"`
	Dependencies struct {
		DatabaseURL string `yaml:"database_url"`
		RedisURL    string `yaml:"redis_url"`
		AutoMigrate *bool  `yaml:"auto_migrate"`
	} `yaml:"dependencies"`
	Session struct {
		Issuer       string `yaml:"issuer"`
		ExpiresIn    string `yaml:"expires_in"`
		CookieDomain string `yaml:"cookie_domain"`
	} `yaml:"session"`
	Activation struct {
		CodeTTLMinutes int `yaml:"code_ttl_minutes"`
		MaxAttempts    int `yaml:"max_attempts"`
	} `yaml:"activation"`
	Mail struct {
		From string `yaml:"from"`
	} `yaml:"mail"`
	Google struct {
		ClientID string `yaml:"client_id"`
		JWKSURL  string `yaml:"jwks_url"`
	} `yaml:"google"`
}

// Load resolves configuration in priority order: defaults, then the YAML
// file at path, then .env, then the process environment. Secrets are only
// read from the environment.
func Load(path string) (Config, error) {
	cfg := Config{
		AppEnv:                   "production",
		HTTPAddr:                 ":8080",
		LogLevel:                 "info",
		JWTIssuer:                "parsfix",
		JWTExpiresIn:             "30d",
		ActivationCodeTTLMinutes: 15,
		ActivationMaxAttempts:    5,
		MailFrom:                 "Parsfix <no-reply@parsfix.app>",
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := applyFile(&cfg, raw); err != nil {
			return Config{}, err
		}
	}

	// a missing .env is the normal case outside local development
	_ = godotenv.Load()

	cfg.AppEnv = envOrDefault("APP_ENV", cfg.AppEnv)
	cfg.HTTPAddr = envOrDefault("HTTP_ADDR", cfg.HTTPAddr)
	cfg.LogLevel = envOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.DatabaseURL = envOrDefault("DATABASE_URL", cfg.DatabaseURL)
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.AutoMigrate = envBool("AUTO_MIGRATE", cfg.AutoMigrate)
	cfg.JWTSecret = envOrDefault("JWT_SECRET", cfg.JWTSecret)
	cfg.JWTIssuer = envOrDefault("JWT_ISSUER", cfg.JWTIssuer)
	cfg.JWTExpiresIn = envOrDefault("JWT_EXPIRES_IN", cfg.JWTExpiresIn)
	cfg.CookieDomain = envOrDefault("COOKIE_DOMAIN", cfg.CookieDomain)
	cfg.ActivationCodeTTLMinutes = envInt("ACTIVATION_CODE_TTL_MINUTES", cfg.ActivationCodeTTLMinutes)
	cfg.ActivationMaxAttempts = envInt("ACTIVATION_MAX_ATTEMPTS", cfg.ActivationMaxAttempts)
	cfg.ResendAPIKey = envOrDefault("RESEND_API_KEY", cfg.ResendAPIKey)
	cfg.MailFrom = envOrDefault("MAIL_FROM", cfg.MailFrom)
	cfg.AppBaseURL = envOrDefault("APP_BASE_URL", cfg.AppBaseURL)
	cfg.GoogleClientID = envOrDefault("GOOGLE_CLIENT_ID", cfg.GoogleClientID)
	cfg.GoogleJWKSURL = envOrDefault("GOOGLE_JWKS_URL", cfg.GoogleJWKSURL)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, raw []byte) error {
	var f configFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	setString(&cfg.AppEnv, f.App.Env)
	setString(&cfg.HTTPAddr, f.App.HTTPAddr)
	setString(&cfg.LogLevel, f.App.LogLevel)
	setString(&cfg.AppBaseURL, f.App.BaseURL)
	setString(&cfg.DatabaseURL, f.Dependencies.DatabaseURL)
	setString(&cfg.RedisURL, f.Dependencies.RedisURL)
	if f.Dependencies.AutoMigrate != nil {
		cfg.AutoMigrate = *f.Dependencies.AutoMigrate
	}
	setString(&cfg.JWTIssuer, f.Session.Issuer)
	setString(&cfg.JWTExpiresIn, f.Session.ExpiresIn)
	setString(&cfg.CookieDomain, f.Session.CookieDomain)
	if f.Activation.CodeTTLMinutes > 0 {
		cfg.ActivationCodeTTLMinutes = f.Activation.CodeTTLMinutes
	}
	if f.Activation.MaxAttempts > 0 {
		cfg.ActivationMaxAttempts = f.Activation.MaxAttempts
	}
	setString(&cfg.MailFrom, f.Mail.From)
	setString(&cfg.GoogleClientID, f.Google.ClientID)
	setString(&cfg.GoogleJWKSURL, f.Google.JWKSURL)
	return nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("missing JWT_SECRET")
	}
	if c.ActivationCodeTTLMinutes <= 0 {
		return errors.New("ACTIVATION_CODE_TTL_MINUTES must be positive")
	}
	if c.ActivationMaxAttempts <= 0 {
		return errors.New("ACTIVATION_MAX_ATTEMPTS must be positive")
	}
	return nil
}

// IsDevelopment is true only when APP_ENV opts in explicitly. Any other
// value, including an unset one, runs with production behaviour.
func (c Config) IsDevelopment() bool {
	return strings.EqualFold(c.AppEnv, "development")
}

// SessionTTL applies the lenient duration parsing of JWT_EXPIRES_IN.
func (c Config) SessionTTL() time.Duration {
	return utils.ParseTTL(c.JWTExpiresIn)
}

func (c Config) ActivationCodeTTL() time.Duration {
	return time.Duration(c.ActivationCodeTTLMinutes) * time.Minute
}

func setString(target *string, value string) {
	if value != "" {
		*target = value
	}
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envBool(name string, fallback bool) bool {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}
