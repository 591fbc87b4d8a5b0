package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env   string
	Port  int
	DBURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SessionSecret   string
	SessionTTLHours int

	StripeSecretKey     string
	StripeWebhookSecret string
	PublicBaseURL       string

	Mail MailConfig

	CORSAllowedOrigins []string

	// TrustedProxies may set X-Forwarded-For; empty means the peer address is the client.
	TrustedProxies []string

	OTelEnabled     bool
	OTelEndpoint    string
	OTelSampleRatio float64
}

// MailConfig holds the outbound SMTP settings used for payment confirmations.
type MailConfig struct {
	Driver       string // "smtp" | "log"
	Server       string
	Port         int
	User         string
	Password     string
	SupportEmail string
}

// Configured reports whether every credential needed to send mail is present.
func (m MailConfig) Configured() bool {
	if m.Driver == "log" {
		return true
	}
	return m.Server != "" && m.Port > 0 && m.User != "" && m.Password != ""
}

func Load() Config {
	return Config{
		Env:   getEnv("APP_ENV", "dev"),
		Port:  getEnvInt("PORT", 8080),
		DBURL: buildDBURL(),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		SessionSecret:   getEnv("SESSION_SECRET", "dev-session-secret-change-me"),
		SessionTTLHours: getEnvInt("SESSION_TTL_HOURS", 24),

		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		PublicBaseURL:       strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),

		Mail: MailConfig{
			Driver:       getEnv("MAIL_DRIVER", "smtp"),
			Server:       getEnv("SMTP_SERVER", ""),
			Port:         getEnvInt("SMTP_PORT", 587),
			User:         getEnv("EMAIL_USER", ""),
			Password:     getEnv("EMAIL_PASS", ""),
			SupportEmail: getEnv("SUPPORT_EMAIL", "uvmhackathon2025@gmail.com"),
		},

		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
		TrustedProxies:     splitList(getEnv("TRUSTED_PROXIES", "")),

		OTelEnabled:     getEnvBool("OTEL_ENABLED", false),
		OTelEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTelSampleRatio: getEnvFloat("OTEL_TRACES_SAMPLER_ARG", 1),
	}
}

// Validate reports configuration the API cannot start without.
func (c Config) Validate() error {
	if c.StripeSecretKey == "" {
		return fmt.Errorf("STRIPE_SECRET_KEY is not set")
	}
	if c.StripeWebhookSecret == "" {
		return fmt.Errorf("STRIPE_WEBHOOK_SECRET is not set")
	}
	if c.Env == "prod" && c.SessionSecret == "dev-session-secret-change-me" {
		return fmt.Errorf("SESSION_SECRET must be set in prod")
	}
	return nil
}

func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "bashproshop")
	pass := getEnv("DB_PASSWORD", "bashproshop")
	name := getEnv("DB_NAME", "bashproshop")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %s=%q is not an integer, using %d\n", key, v, fallback)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return b
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 1 {
			fmt.Fprintf(os.Stderr, "config: %s=%q is not a ratio in [0,1], using %g\n", key, v, fallback)
			return fallback
		}
		return f
	}
	return fallback
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
