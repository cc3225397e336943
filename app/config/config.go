// Package config reads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const DevJWTSecret = "dev-secret-change-me"

var ErrInsecureConfig = errors.New("insecure config")

type Config struct {
	Env    string
	Port   string
	URL    string // public base URL, used for OAuth redirects
	DBPath string

	StravaClientID     string
	StravaClientSecret string
	StravaHTTPTimeout  time.Duration

	JWTSecret string
	TokenKey  string // hex encoded secretbox key, empty disables sealing
	Timezone  string

	TelegramAPIKey string
	TelegramChatID int64
	OwnerAthleteID int64
	TargetPaceSKm  float64

	LogLevel string
	LogFile  string
	LogJSON  bool
}

// Load reads environment variables into Config, with defaults for local dev.
func Load() Config {
	return Config{
		Env:                getEnv("ENV", "DEV"),
		Port:               getEnv("PORT", "8080"),
		URL:                strings.TrimSuffix(getEnv("URL", "http://localhost:8080"), "/"),
		DBPath:             getEnv("DB_PATH", "db/stravadash.db"),
		StravaClientID:     getEnv("STRAVA_CLIENT_ID", ""),
		StravaClientSecret: getEnv("STRAVA_CLIENT_SECRET", ""),
		StravaHTTPTimeout:  getDurationEnv("STRAVA_HTTP_TIMEOUT", 30*time.Second),
		JWTSecret:          getEnv("JWT_SECRET", DevJWTSecret),
		TokenKey:           getEnv("TOKEN_KEY", ""),
		Timezone:           getEnv("TIMEZONE", "UTC"),
		TelegramAPIKey:     getEnv("TELEGRAM_API_KEY", ""),
		TelegramChatID:     getInt64Env("TELEGRAM_CHAT_ID", 0),
		OwnerAthleteID:     getInt64Env("ATHLETE_ID", 0),
		TargetPaceSKm:      getFloatEnv("TARGET_PACE_S_KM", 284),
		LogLevel:           getEnv("LOG_LEVEL", "debug"),
		LogFile:            getEnv("LOG_FILE", ""),
		LogJSON:            getBoolEnv("LOG_JSON", false),
	}
}

func (c Config) IsProd() bool {
	return strings.EqualFold(c.Env, "PROD")
}

// Validate rejects settings that must not reach production.
func (c Config) Validate() error {
	if c.IsProd() && (c.JWTSecret == "" || c.JWTSecret == DevJWTSecret) {
		return fmt.Errorf("%w: JWT_SECRET must be set in PROD", ErrInsecureConfig)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getInt64Env(key string, fallback int64) int64 {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloatEnv(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
