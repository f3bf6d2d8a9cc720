package main

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config contains application-wide settings sourced from the environment.
type Config struct {
	DatabaseURL    string
	Addr           string
	AllowedOrigins []string
	JWTSecret      string
	AssetKey       []byte
	AssetsDir      string
	LogLevel       string
	LogFormat      string
}

func loadConfig() (Config, error) {
	_ = godotenv.Load("config/local.env")

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return Config{}, errors.New("DATABASE_URL env var is required")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return Config{}, errors.New("JWT_SECRET env var is required")
	}

	// APP_KEY seeds the download-token codec. Rotating it invalidates every
	// token embedded in previously rendered pages.
	assetKey, err := base64.StdEncoding.DecodeString(os.Getenv("APP_KEY"))
	if err != nil || len(assetKey) == 0 {
		return Config{}, errors.New("APP_KEY env var must be non-empty base64")
	}

	return Config{
		DatabaseURL:    dsn,
		Addr:           fmt.Sprintf(":%s", envOrDefault("PORT", "8080")),
		AllowedOrigins: splitList(envOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),
		JWTSecret:      jwtSecret,
		AssetKey:       assetKey,
		AssetsDir:      envOrDefault("ASSETS_DIR", "data/assets"),
		LogLevel:       envOrDefault("LOG_LEVEL", "info"),
		LogFormat:      envOrDefault("LOG_FORMAT", "json"),
	}, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func splitList(raw string) []string {
	var values []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
