package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// SessionWindowMinutes is the fixed occupancy window of a scheduled session.
const SessionWindowMinutes = 120

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Auth          AuthConfig
	CORS          CORSConfig
	Log           LogConfig
	Sessions      SessionsConfig
	Notifications NotificationsConfig
	Email         EmailConfig
	Metrics       MetricsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// AuthConfig throttles login attempts per email address.
type AuthConfig struct {
	LoginAttempts int
	LoginWindow   time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SessionsConfig governs status derivation and the asynchronous write-back pool.
type SessionsConfig struct {
	Timezone             string
	WindowMinutes        int
	StatusRefreshWorkers int
	StatusRefreshRetries int
	FrontendBaseURL      string
}

// Location resolves the configured timezone, falling back to UTC.
func (c SessionsConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// NotificationsConfig tunes the fan-out worker pool.
type NotificationsConfig struct {
	Workers    int
	BufferSize int
	Retries    int
	RetryDelay time.Duration
}

// EmailConfig configures outbound email dispatch and per-recipient throttling.
type EmailConfig struct {
	Enabled     bool
	From        string
	RateLimit   int
	RateWindow  time.Duration
	Workers     int
	SendRetries int
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.Auth = AuthConfig{
		LoginAttempts: v.GetInt("LOGIN_RATE_LIMIT"),
		LoginWindow:   parseDuration(v.GetString("LOGIN_RATE_WINDOW"), 15*time.Minute),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Sessions = SessionsConfig{
		Timezone:             v.GetString("SESSION_TIMEZONE"),
		WindowMinutes:        v.GetInt("SESSION_WINDOW_MINUTES"),
		StatusRefreshWorkers: v.GetInt("STATUS_REFRESH_WORKERS"),
		StatusRefreshRetries: v.GetInt("STATUS_REFRESH_RETRIES"),
		FrontendBaseURL:      strings.TrimRight(v.GetString("FRONTEND_BASE_URL"), "/"),
	}
	if cfg.Sessions.WindowMinutes != SessionWindowMinutes {
		return nil, fmt.Errorf("SESSION_WINDOW_MINUTES must be %d", SessionWindowMinutes)
	}
	if _, err := time.LoadLocation(cfg.Sessions.Timezone); err != nil {
		return nil, fmt.Errorf("invalid SESSION_TIMEZONE %q: %w", cfg.Sessions.Timezone, err)
	}

	cfg.Notifications = NotificationsConfig{
		Workers:    v.GetInt("NOTIFY_WORKERS"),
		BufferSize: v.GetInt("NOTIFY_BUFFER_SIZE"),
		Retries:    v.GetInt("NOTIFY_RETRIES"),
		RetryDelay: parseDuration(v.GetString("NOTIFY_RETRY_DELAY"), 2*time.Second),
	}

	cfg.Email = EmailConfig{
		Enabled:     v.GetBool("ENABLE_EMAIL"),
		From:        v.GetString("EMAIL_FROM"),
		RateLimit:   v.GetInt("EMAIL_RATE_LIMIT"),
		RateWindow:  parseDuration(v.GetString("EMAIL_RATE_WINDOW"), time.Hour),
		Workers:     v.GetInt("EMAIL_WORKERS"),
		SendRetries: v.GetInt("EMAIL_SEND_RETRIES"),
	}

	cfg.Metrics = MetricsConfig{
		Enabled: v.GetBool("ENABLE_METRICS"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "alumni_connect")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "alumni-connect-api")

	v.SetDefault("LOGIN_RATE_LIMIT", 10)
	v.SetDefault("LOGIN_RATE_WINDOW", "15m")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SESSION_TIMEZONE", "UTC")
	v.SetDefault("SESSION_WINDOW_MINUTES", SessionWindowMinutes)
	v.SetDefault("STATUS_REFRESH_WORKERS", 1)
	v.SetDefault("STATUS_REFRESH_RETRIES", 1)
	v.SetDefault("FRONTEND_BASE_URL", "")

	v.SetDefault("NOTIFY_WORKERS", 2)
	v.SetDefault("NOTIFY_BUFFER_SIZE", 64)
	v.SetDefault("NOTIFY_RETRIES", 3)
	v.SetDefault("NOTIFY_RETRY_DELAY", "2s")

	v.SetDefault("ENABLE_EMAIL", false)
	v.SetDefault("EMAIL_FROM", "no-reply@alumni-connect.local")
	v.SetDefault("EMAIL_RATE_LIMIT", 20)
	v.SetDefault("EMAIL_RATE_WINDOW", "1h")
	v.SetDefault("EMAIL_WORKERS", 1)
	v.SetDefault("EMAIL_SEND_RETRIES", 2)

	v.SetDefault("ENABLE_METRICS", true)
}

// isMissingFile treats an absent .env as non-fatal; viper reports it as a path error
// when SetConfigFile is used instead of a search path.
func isMissingFile(err error) bool {
	return errors.Is(err, os.ErrNotExist) || strings.Contains(err.Error(), "no such file or directory")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
