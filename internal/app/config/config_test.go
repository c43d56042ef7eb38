package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv はテスト中に参照される環境変数を空にします。
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "PROVIDERS", "MAX_UPLOAD_BYTES", "ACCEPTED_MIME_TYPES", "UPLOAD_DIR", "STALE_UPLOAD_AGE",
		"PROVIDER_TIMEOUT", "PROVIDER_MAX_RETRIES", "PROVIDER_RATE_PER_MINUTE", "CORS_ALLOWED_ORIGINS",
		"CARE_CATALOG_PATH", "CACHE_TTL", "SHUTDOWN_TIMEOUT", "LOG_LEVEL", "LOG_FORMAT",
		"REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB",
		"GEMINI_API_KEY", "GEMINI_MODEL", "GOOGLE_GENAI_USE_VERTEXAI",
		"OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_BASE_URL", "OPENAI_TIMEOUT",
		"PLANTNET_API_KEY", "PLANTNET_BASE_URL", "PLANTNET_PROJECT", "PLANTNET_ORGAN", "PLANTNET_LANG", "PLANTNET_TIMEOUT",
	} {
		t.Setenv(k, "")
	}
}

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("OPENAI_API_KEY", "o-key")

	cfg, err := Load(noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, []string{"gemini", "openai"}, cfg.Providers)
	assert.Equal(t, int64(5*1024*1024), cfg.MaxUploadBytes)
	assert.Equal(t, []string{"image/jpeg", "image/png", "image/webp"}, cfg.AcceptedMIMETypes)
	assert.Equal(t, 20*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, 0, cfg.ProviderMaxRetries)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, "g-key", cfg.Gemini.APIKey)
	assert.Equal(t, "o-key", cfg.OpenAI.APIKey)
	assert.Zero(t, cfg.OpenAI.Timeout)
	assert.Zero(t, cfg.PlantNet.Timeout)

	p := cfg.UploadPolicy()
	assert.Equal(t, cfg.MaxUploadBytes, p.MaxBytes)
	assert.True(t, p.Accepts("image/webp"))
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8081")
	t.Setenv("PROVIDERS", " plantnet , vision ,")
	t.Setenv("PLANTNET_API_KEY", "p-key")
	t.Setenv("MAX_UPLOAD_BYTES", "1048576")
	t.Setenv("PROVIDER_TIMEOUT", "5s")
	t.Setenv("PROVIDER_MAX_RETRIES", "2")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("PLANTNET_TIMEOUT", "45s")

	cfg, err := Load(noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, []string{"plantnet", "vision"}, cfg.Providers)
	assert.Equal(t, int64(1048576), cfg.MaxUploadBytes)
	assert.Equal(t, 5*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, 2, cfg.ProviderMaxRetries)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, "cache:6379", cfg.Redis.Addr())
	assert.Equal(t, 45*time.Second, cfg.PlantNet.Timeout)
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	// 空文字で設定済みの変数は.envで上書きされないため未設定に戻す
	require.NoError(t, os.Unsetenv("PROVIDERS"))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=7000\nPROVIDERS=vision\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("PROVIDERS") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, []string{"vision"}, cfg.Providers)
}

func TestLoad_MissingCredentials(t *testing.T) {
	clearEnv(t)

	_, err := Load(noEnvFile(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:              "5000",
			Providers:         []string{ProviderVision},
			MaxUploadBytes:    1024,
			AcceptedMIMETypes: []string{"image/png"},
			ProviderTimeout:   time.Second,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Port = "http" }, "PORT"},
		{"port out of range", func(c *Config) { c.Port = "70000" }, "PORT"},
		{"zero upload size", func(c *Config) { c.MaxUploadBytes = 0 }, "MAX_UPLOAD_BYTES"},
		{"no accepted types", func(c *Config) { c.AcceptedMIMETypes = nil }, "ACCEPTED_MIME_TYPES"},
		{"no timeout", func(c *Config) { c.ProviderTimeout = 0 }, "PROVIDER_TIMEOUT"},
		{"negative openai timeout", func(c *Config) { c.OpenAI.Timeout = -time.Second }, "OPENAI_TIMEOUT"},
		{"negative plantnet timeout", func(c *Config) { c.PlantNet.Timeout = -time.Second }, "PLANTNET_TIMEOUT"},
		{"negative retries", func(c *Config) { c.ProviderMaxRetries = -1 }, "PROVIDER_MAX_RETRIES"},
		{"no providers", func(c *Config) { c.Providers = nil }, "at least one provider"},
		{"unknown provider", func(c *Config) { c.Providers = []string{"bing"} }, "unknown provider"},
		{"duplicate provider", func(c *Config) { c.Providers = []string{"vision", "vision"} }, "listed twice"},
		{"plantnet without key", func(c *Config) { c.Providers = []string{"plantnet"} }, "PLANTNET_API_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
