package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/clock"
	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	App      AppConfig
	Sync     SyncConfig
	Ingest   IngestConfig
	Windows  WindowsConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	Timezone       string
	AllowedOrigins []string

	// SettingsCacheTTL bounds how stale the in-process attendance settings may be.
	SettingsCacheTTL time.Duration

	// FeedBuffer is how many events a slow feed subscriber may lag before missing some.
	FeedBuffer    int
	FeedKeepalive time.Duration
}

// SyncConfig controls the scheduled bulk sync.
type SyncConfig struct {
	Enabled bool
	Cron    string
	Workers int
	Timeout time.Duration
}

// IngestConfig throttles device scan ingestion per token subject.
type IngestConfig struct {
	RatePerSecond float64
	Burst         int
}

// WindowsConfig holds the time-in and time-out classification windows (HH:MM:SS).
type WindowsConfig struct {
	TimeInStart  clock.TimeOfDay
	TimeInEnd    clock.TimeOfDay
	TimeOutStart clock.TimeOfDay
	TimeOutEnd   clock.TimeOfDay
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	config := &Config{}
	var err error

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	maxConns, err := getEnvInt("DB_MAX_CONNS", 25)
	if err != nil {
		return nil, err
	}
	minConns, err := getEnvInt("DB_MIN_CONNS", 5)
	if err != nil {
		return nil, err
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "hris_attendance"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(maxConns),
		MinConns: int32(minConns),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}
	cacheTTL, err := getEnvDuration("SETTINGS_CACHE_TTL", 30*time.Second)
	if err != nil {
		return nil, err
	}

	feedBuffer, err := getEnvInt("FEED_BUFFER", 32)
	if err != nil {
		return nil, err
	}
	feedKeepalive, err := getEnvDuration("FEED_KEEPALIVE", 30*time.Second)
	if err != nil {
		return nil, err
	}

	config.App = AppConfig{
		Port:             appPort,
		Env:              getEnv("APP_ENV", "development"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		Timezone:         getEnv("APP_TIMEZONE", "Asia/Jakarta"),
		AllowedOrigins:   getEnvSlice("CORS_ALLOWED_ORIGINS"),
		SettingsCacheTTL: cacheTTL,
		FeedBuffer:       feedBuffer,
		FeedKeepalive:    feedKeepalive,
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Sync configuration
	syncEnabled, err := strconv.ParseBool(getEnv("SYNC_ENABLED", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_ENABLED: %w", err)
	}
	syncWorkers, err := getEnvInt("SYNC_WORKERS", 4)
	if err != nil {
		return nil, err
	}
	syncTimeout, err := getEnvDuration("SYNC_TIMEOUT", 30*time.Minute)
	if err != nil {
		return nil, err
	}

	config.Sync = SyncConfig{
		Enabled: syncEnabled,
		Cron:    getEnv("SYNC_CRON", "0 2 * * *"),
		Workers: syncWorkers,
		Timeout: syncTimeout,
	}

	// Ingest configuration
	ratePerSecond, err := strconv.ParseFloat(getEnv("INGEST_RATE_PER_SECOND", "20"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid INGEST_RATE_PER_SECOND: %w", err)
	}
	burst, err := getEnvInt("INGEST_BURST", 40)
	if err != nil {
		return nil, err
	}
	config.Ingest = IngestConfig{RatePerSecond: ratePerSecond, Burst: burst}

	// Window configuration
	windows := map[string]*clock.TimeOfDay{
		"WINDOW_TIME_IN_START":  &config.Windows.TimeInStart,
		"WINDOW_TIME_IN_END":    &config.Windows.TimeInEnd,
		"WINDOW_TIME_OUT_START": &config.Windows.TimeOutStart,
		"WINDOW_TIME_OUT_END":   &config.Windows.TimeOutEnd,
	}
	defaults := map[string]string{
		"WINDOW_TIME_IN_START":  "06:00:00",
		"WINDOW_TIME_IN_END":    "12:00:00",
		"WINDOW_TIME_OUT_START": "12:01:00",
		"WINDOW_TIME_OUT_END":   "19:00:00",
	}
	for key, dst := range windows {
		v, err := clock.Parse(getEnv(key, defaults[key]))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = v
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := time.ParseDuration(c.JWT.AccessExpiration); err != nil {
		return fmt.Errorf("invalid JWT_ACCESS_EXPIRATION_TIME: %w", err)
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("DB_MIN_CONNS must not exceed DB_MAX_CONNS")
	}
	if c.Sync.Workers < 1 {
		return fmt.Errorf("SYNC_WORKERS must be at least 1")
	}
	if c.App.FeedBuffer < 1 {
		return fmt.Errorf("FEED_BUFFER must be at least 1")
	}
	if c.Ingest.RatePerSecond < 0 || c.Ingest.Burst < 0 {
		return fmt.Errorf("INGEST_RATE_PER_SECOND and INGEST_BURST must not be negative")
	}
	return nil
}

// Location returns the zone device timestamps are interpreted in.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SlogLevel maps LOG_LEVEL onto slog; unknown values fall back to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.App.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	return result
}
