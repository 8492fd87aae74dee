package config

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"time"
)

const defaultTokenTTL = 168 * time.Hour

// Config holds everything the process needs, loaded once at startup.
type Config struct {
	Port               string
	AppUrl             string
	DatabaseUrl        string
	JwtSecret          string
	JwtExpiry          time.Duration
	GoogleClientId     string
	GoogleClientSecret string
	SentryDsn          string
	LogLevel           string
	Production         bool
}

func Load() *Config {
	viper.AutomaticEnv()
	cfg := &Config{
		Port:               GetEnv("PORT"),
		AppUrl:             GetEnv("APP_URL"),
		DatabaseUrl:        GetEnv("DATABASE_URL", "DB_URL"),
		JwtSecret:          RequireEnv("JWT_SECRET"),
		GoogleClientId:     GetEnv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: GetEnv("GOOGLE_CLIENT_SECRET"),
		SentryDsn:          GetEnv("SENTRY_DSN"),
		LogLevel:           GetEnv("LOG_LEVEL"),
		Production:         GetEnv("ENV", "GO_ENV") == "production",
	}
	if len(cfg.JwtSecret) < 32 {
		log.Fatal("JWT_SECRET must be at least 32 characters")
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.AppUrl == "" {
		cfg.AppUrl = "http://localhost:" + cfg.Port
	}
	cfg.JwtExpiry = defaultTokenTTL
	if raw := GetEnv("JWT_EXPIRY"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			log.Fatalf("invalid JWT_EXPIRY value: %s", raw)
		}
		cfg.JwtExpiry = ttl
	}
	if cfg.GoogleClientId == "" || cfg.GoogleClientSecret == "" {
		log.Warn("Google OAuth client id or secret is not set")
	}
	return cfg
}

func GetEnv(keys ...string) string {
	for _, key := range keys {
		if value := viper.GetString(key); value != "" {
			return value
		}
	}
	return ""
}

func RequireEnv(key string) string {
	value := viper.GetString(key)
	if value == "" {
		log.Fatalf("Missing env variable: %s", key)
	}
	return value
}
