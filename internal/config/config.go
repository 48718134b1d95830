package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"ENV"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`

	JWTSecret       string        `mapstructure:"JWT_SECRET"`
	AccessTokenTTL  time.Duration `mapstructure:"ACCESS_TOKEN_TTL"`
	RefreshTokenTTL time.Duration `mapstructure:"REFRESH_TOKEN_TTL"`

	// OTPTTL bounds how long a staged registration stays consumable.
	// Zero disables expiry, matching the historical behavior.
	OTPTTL time.Duration `mapstructure:"OTP_TTL"`

	// AllowedAdminEmails gates who may start an admin registration.
	AllowedAdminEmails []string `mapstructure:"ALLOWED_ADMIN_EMAILS"`

	MailjetAPIKey    string `mapstructure:"MAILJET_API_KEY"`
	MailjetAPISecret string `mapstructure:"MAILJET_API_SECRET"`
	MailFromAddress  string `mapstructure:"MAIL_FROM_ADDRESS"`
	MailFromName     string `mapstructure:"MAIL_FROM_NAME"`

	ClassifierURL    string `mapstructure:"CLASSIFIER_URL"`
	SymptomVocabPath string `mapstructure:"SYMPTOM_VOCAB_PATH"`

	CORSOrigins    []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int      `mapstructure:"RATE_LIMIT_BURST"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("ACCESS_TOKEN_TTL", "15m")
	v.SetDefault("REFRESH_TOKEN_TTL", "168h")
	v.SetDefault("OTP_TTL", "0")
	v.SetDefault("MAIL_FROM_ADDRESS", "no-reply@medilink.local")
	v.SetDefault("MAIL_FROM_NAME", "MediLink")
	v.SetDefault("SYMPTOM_VOCAB_PATH", "./data/selected_symptoms.csv")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range []string{
		"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
		"JWT_SECRET", "ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL", "OTP_TTL",
		"ALLOWED_ADMIN_EMAILS",
		"MAILJET_API_KEY", "MAILJET_API_SECRET", "MAIL_FROM_ADDRESS", "MAIL_FROM_NAME",
		"CLASSIFIER_URL", "SYMPTOM_VOCAB_PATH",
		"CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	} {
		v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		if origins := v.GetString("CORS_ORIGINS"); origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}
	if cfg.AllowedAdminEmails == nil {
		if emails := v.GetString("ALLOWED_ADMIN_EMAILS"); emails != "" {
			cfg.AllowedAdminEmails = strings.Split(emails, ",")
		}
	}
	for i, e := range cfg.AllowedAdminEmails {
		cfg.AllowedAdminEmails[i] = strings.ToLower(strings.TrimSpace(e))
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// AdminEmailAllowed reports whether email may register as an admin.
// Comparison is case-insensitive; an empty allowlist denies everyone.
func (c *Config) AdminEmailAllowed(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, allowed := range c.AllowedAdminEmails {
		if allowed == email {
			return true
		}
	}
	return false
}

// Validate checks that the configuration is safe to run. JWT_SECRET must be
// set outside development; mail and classifier endpoints are required in
// production so OTP delivery and scoring do not silently fall back to stubs.
func (c *Config) Validate() error {
	if !c.IsDev() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when ENV=%q", c.Env)
	}
	if len(c.JWTSecret) > 0 && len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes, got %d", len(c.JWTSecret))
	}
	if c.IsProduction() {
		if c.MailjetAPIKey == "" || c.MailjetAPISecret == "" {
			return fmt.Errorf("MAILJET_API_KEY and MAILJET_API_SECRET are required in production")
		}
		if c.ClassifierURL == "" {
			return fmt.Errorf("CLASSIFIER_URL is required in production")
		}
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive")
	}
	if c.RefreshTokenTTL <= c.AccessTokenTTL {
		return fmt.Errorf("REFRESH_TOKEN_TTL must exceed ACCESS_TOKEN_TTL")
	}
	if c.OTPTTL < 0 {
		return fmt.Errorf("OTP_TTL must not be negative")
	}
	return nil
}
