package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable Load reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "ALLOWED_ORIGIN", "INFERENCE_PROVIDER", "INFERENCE_MODEL", "INFERENCE_BASE_URL",
		"INFERENCE_TIMEOUT", "BODY_LIMIT_MB", "LOG_LEVEL", "FRAMELENS_CONFIG",
		"GEMINI_API_KEY", "GOOGLE_API_KEY", "INFERENCE_API_KEY", "apiKey", "OPENAI_API_KEY",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	// Keep a developer's .env out of the test.
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "https://ai-image-analyzer-psi.vercel.app", cfg.AllowedOrigin)
	assert.Equal(t, ProviderGemini, cfg.Provider)
	assert.Equal(t, 60*time.Second, cfg.InferenceTimeout)
	assert.Equal(t, 15*1024*1024, cfg.BodyLimit())
	assert.ErrorIs(t, cfg.Validate(), ErrMissingAPIKey)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8081")
	t.Setenv("ALLOWED_ORIGIN", "https://example.com")
	t.Setenv("INFERENCE_TIMEOUT", "15s")
	t.Setenv("BODY_LIMIT_MB", "4")
	t.Setenv("GEMINI_API_KEY", "gem-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, "https://example.com", cfg.AllowedOrigin)
	assert.Equal(t, 15*time.Second, cfg.InferenceTimeout)
	assert.Equal(t, 4, cfg.BodyLimitMB)
	assert.Equal(t, "gem-key", cfg.APIKey)
	assert.NoError(t, cfg.Validate())
}

func TestLegacyAPIKeyVariable(t *testing.T) {
	clearEnv(t)
	t.Setenv("apiKey", "legacy")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "legacy", cfg.APIKey)
}

func TestOpenAIProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("INFERENCE_PROVIDER", "OpenAI")
	t.Setenv("GEMINI_API_KEY", "ignored")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Empty(t, cfg.APIKey)
	assert.ErrorIs(t, cfg.Validate(), ErrMissingAPIKey)

	t.Setenv("INFERENCE_BASE_URL", "http://localhost:11434/v1")
	cfg, err = Load()
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate(), "local servers run without a key")
}

func TestYAMLFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "framelens.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "7000"
provider: openai
api_key: file-key
model: gpt-4o
inference_timeout: 30s
log_level: debug
`), 0o600))
	t.Setenv("FRAMELENS_CONFIG", path)
	t.Setenv("PORT", "7001")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7001", cfg.Port, "environment wins over the file")
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "file-key", cfg.APIKey)
	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, 30*time.Second, cfg.InferenceTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestYAMLFileErrors(t *testing.T) {
	clearEnv(t)

	t.Setenv("FRAMELENS_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [unclosed"), 0o600))
	t.Setenv("FRAMELENS_CONFIG", path)
	_, err = Load()
	assert.Error(t, err)
}

func TestDotEnvFile(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.WriteFile(".env", []byte("GEMINI_API_KEY=from-dotenv\nPORT=6000\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("GEMINI_API_KEY")
		os.Unsetenv("PORT")
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.APIKey)
	assert.Equal(t, "6000", cfg.Port)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.APIKey = "k"
	require.NoError(t, cfg.Validate())

	wildcard := *cfg
	wildcard.AllowedOrigin = "*"
	assert.Error(t, wildcard.Validate())

	unknown := *cfg
	unknown.Provider = "claude"
	assert.Error(t, unknown.Validate())

	noLimit := *cfg
	noLimit.BodyLimitMB = 0
	assert.Error(t, noLimit.Validate())
}
