package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Module provides the validated application configuration and the watched
// WhatsApp template-name table.
var Module = fx.Provide(
	Load,
	func() (*TemplateHolder, error) { return NewTemplateHolder() },
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AuthJWTSecret string
	Tokens        TokenConfig

	WhatsApp WhatsAppConfig
	Email    EmailConfig

	RateLimit RateLimitConfig

	DefaultLocale   string
	DefaultCurrency string
}

// WhatsAppConfig configures the WhatsApp Business Cloud API client.
type WhatsAppConfig struct {
	APIBaseURL         string
	AccessToken        string
	PhoneNumberID      string
	TemplateLanguage   string
	WebhookVerifyToken string
	RequestTimeoutSec  int
}

// EmailConfig configures the SMTP provider.
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

// RateLimitConfig configures the sign-in limiter.
type RateLimitConfig struct {
	Enabled     bool
	SigninRate  float64
	SigninBurst int
}

// Load loads configuration from environment variables and .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "rentstack"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: environment,
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "rentstack"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 2),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 10),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),

		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       getenvInt("REDIS_DB", 0),

		AuthJWTSecret: strings.TrimSpace(getenv("AUTH_JWT_SECRET", "")),

		WhatsApp: WhatsAppConfig{
			APIBaseURL:         strings.TrimRight(getenv("WHATSAPP_API_URL", "https://graph.facebook.com/v19.0"), "/"),
			AccessToken:        strings.TrimSpace(getenv("WHATSAPP_ACCESS_TOKEN", "")),
			PhoneNumberID:      strings.TrimSpace(getenv("WHATSAPP_PHONE_NUMBER_ID", "")),
			TemplateLanguage:   getenv("WHATSAPP_TEMPLATE_LANGUAGE", "en"),
			WebhookVerifyToken: strings.TrimSpace(getenv("WHATSAPP_WEBHOOK_VERIFY_TOKEN", "")),
			RequestTimeoutSec:  getenvInt("WHATSAPP_REQUEST_TIMEOUT_SECONDS", 5),
		},

		Email: EmailConfig{
			SMTPHost:     getenv("SMTP_HOST", ""),
			SMTPPort:     getenvInt("SMTP_PORT", 587),
			SMTPUsername: getenv("SMTP_USERNAME", ""),
			SMTPPassword: getenv("SMTP_PASSWORD", ""),
			SMTPFrom:     getenv("SMTP_FROM", "noreply@rentstack.io"),
		},

		RateLimit: RateLimitConfig{
			Enabled:     getenvBool("RATE_LIMIT_ENABLED", true),
			SigninRate:  getenvFloat("RATE_LIMIT_SIGNIN_RATE", 1),
			SigninBurst: getenvInt("RATE_LIMIT_SIGNIN_BURST", 5),
		},

		DefaultLocale:   getenv("DEFAULT_LOCALE", "en"),
		DefaultCurrency: getenv("DEFAULT_CURRENCY", "EUR"),
	}

	if err := validateAuthSecret(cfg.AuthJWTSecret); err != nil {
		return Config{}, fmt.Errorf("auth config: %w", err)
	}

	tokens, err := loadTokenConfig(environment)
	if err != nil {
		return Config{}, fmt.Errorf("token config: %w", err)
	}
	cfg.Tokens = tokens

	return cfg, nil
}

// minAuthSecretLen guards against signing with a trivially brute-forceable
// HMAC key. An empty secret would make every token forgeable.
const minAuthSecretLen = 16

func validateAuthSecret(secret string) error {
	if secret == "" {
		return errors.New("AUTH_JWT_SECRET is required")
	}
	if len(secret) < minAuthSecretLen {
		return fmt.Errorf("AUTH_JWT_SECRET must be at least %d characters", minAuthSecretLen)
	}
	return nil
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}
