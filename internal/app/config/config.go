// Package config loads process-wide configuration from the environment.
// The returned Config is built once at startup and treated as read-only.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"plantid_backend/internal/feature/identification/adapters/gemini"
	"plantid_backend/internal/feature/identification/adapters/openai"
	"plantid_backend/internal/feature/identification/adapters/plantnet"
	"plantid_backend/internal/feature/identification/usecase"
	"plantid_backend/internal/platform/redis"
)

// Provider names accepted in PROVIDERS.
const (
	ProviderGemini   = "gemini"
	ProviderOpenAI   = "openai"
	ProviderPlantNet = "plantnet"
	ProviderVision   = "vision"
)

// Config holds all configuration for the identification server.
type Config struct {
	Port string

	// Providers is the ordered provider list; the first successful one is authoritative.
	Providers []string

	// Upload limits, shared with the CLI uploader
	MaxUploadBytes    int64
	AcceptedMIMETypes []string
	UploadDir         string
	StaleUploadAge    time.Duration

	// Outbound provider calls
	ProviderTimeout       time.Duration
	ProviderMaxRetries    int
	ProviderRatePerMinute int

	CORSAllowedOrigins []string
	CareCatalogPath    string
	CacheTTL           time.Duration
	ShutdownTimeout    time.Duration

	LogLevel  string
	LogFormat string

	Redis    redis.Config
	Gemini   gemini.Config
	OpenAI   openai.Config
	PlantNet plantnet.Config
}

// Load reads configuration from the environment. Variables found in envFiles
// (default ".env") are applied first without overriding the real environment;
// missing files are ignored.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{
		Port:      getEnv("PORT", "5000"),
		Providers: getStringSliceEnv("PROVIDERS", []string{ProviderGemini, ProviderOpenAI}),

		MaxUploadBytes:    int64(getIntEnv("MAX_UPLOAD_BYTES", usecase.DefaultMaxImageSize)),
		AcceptedMIMETypes: getStringSliceEnv("ACCEPTED_MIME_TYPES", usecase.DefaultAcceptedTypes),
		UploadDir:         getEnv("UPLOAD_DIR", ""),
		StaleUploadAge:    getDurationEnv("STALE_UPLOAD_AGE", time.Hour),

		ProviderTimeout:       getDurationEnv("PROVIDER_TIMEOUT", 20*time.Second),
		ProviderMaxRetries:    getIntEnv("PROVIDER_MAX_RETRIES", 0),
		ProviderRatePerMinute: getIntEnv("PROVIDER_RATE_PER_MINUTE", 0),

		CORSAllowedOrigins: getStringSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		CareCatalogPath:    getEnv("CARE_CATALOG_PATH", ""),
		CacheTTL:           getDurationEnv("CACHE_TTL", time.Hour),
		ShutdownTimeout:    getDurationEnv("SHUTDOWN_TIMEOUT", 10*time.Second),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		Redis: redis.Config{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Gemini:   gemini.LoadConfig(),
		OpenAI:   openai.LoadConfig(),
		PlantNet: plantnet.LoadConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// UploadPolicy returns the upload constraints derived from the configuration.
func (c *Config) UploadPolicy() usecase.UploadPolicy {
	return usecase.UploadPolicy{MaxBytes: c.MaxUploadBytes, AcceptedTypes: c.AcceptedMIMETypes}
}

// Validate checks value ranges and that every selected provider has credentials.
func (c *Config) Validate() error {
	var errs []error

	if p, err := strconv.Atoi(c.Port); err != nil || p <= 0 || p > 65535 {
		errs = append(errs, fmt.Errorf("PORT: invalid value %q", c.Port))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}
	if len(c.AcceptedMIMETypes) == 0 {
		errs = append(errs, errors.New("ACCEPTED_MIME_TYPES must not be empty"))
	}
	if c.ProviderTimeout <= 0 {
		errs = append(errs, errors.New("PROVIDER_TIMEOUT must be positive"))
	}
	if c.OpenAI.Timeout < 0 {
		errs = append(errs, errors.New("OPENAI_TIMEOUT must not be negative"))
	}
	if c.PlantNet.Timeout < 0 {
		errs = append(errs, errors.New("PLANTNET_TIMEOUT must not be negative"))
	}
	if c.ProviderMaxRetries < 0 {
		errs = append(errs, errors.New("PROVIDER_MAX_RETRIES must not be negative"))
	}
	if len(c.Providers) == 0 {
		errs = append(errs, errors.New("PROVIDERS must name at least one provider"))
	}

	seen := map[string]bool{}
	for _, name := range c.Providers {
		if seen[name] {
			errs = append(errs, fmt.Errorf("PROVIDERS: %q listed twice", name))
			continue
		}
		seen[name] = true

		switch name {
		case ProviderGemini:
			errs = append(errs, c.Gemini.Validate())
		case ProviderOpenAI:
			errs = append(errs, c.OpenAI.Validate())
		case ProviderPlantNet:
			errs = append(errs, c.PlantNet.Validate())
		case ProviderVision:
			// Application Default Credentials are resolved by the client at startup.
		default:
			errs = append(errs, fmt.Errorf("PROVIDERS: unknown provider %q", name))
		}
	}

	return errors.Join(errs...)
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv gets a duration environment variable or returns a default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable or returns a default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getStringSliceEnv splits a comma-separated environment variable, dropping blank entries
func getStringSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return append([]string(nil), defaultValue...)
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
