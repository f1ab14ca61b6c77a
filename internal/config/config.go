// Package config loads runtime configuration for the framelens proxy.
//
// Values are resolved in priority order: process environment, a .env file in
// the working directory, an optional YAML file named by FRAMELENS_CONFIG,
// then built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Provider names accepted by INFERENCE_PROVIDER.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Defaults.
const (
	DefaultPort             = "5000"
	DefaultAllowedOrigin    = "https://ai-image-analyzer-psi.vercel.app"
	DefaultProvider         = ProviderGemini
	DefaultInferenceTimeout = 60 * time.Second
	DefaultBodyLimitMB      = 15
	DefaultLogLevel         = "info"
)

// ErrMissingAPIKey is returned by Validate when the selected provider has no credential.
var ErrMissingAPIKey = errors.New("config: inference API key is required")

// Config holds proxy configuration.
type Config struct {
	Port          string `yaml:"port"`
	AllowedOrigin string `yaml:"allowed_origin"`

	// Inference
	Provider         string        `yaml:"provider"`
	APIKey           string        `yaml:"api_key"`
	Model            string        `yaml:"model"`
	BaseURL          string        `yaml:"base_url"`
	InferenceTimeout time.Duration `yaml:"inference_timeout"`

	BodyLimitMB int    `yaml:"body_limit_mb"`
	LogLevel    string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:             DefaultPort,
		AllowedOrigin:    DefaultAllowedOrigin,
		Provider:         DefaultProvider,
		InferenceTimeout: DefaultInferenceTimeout,
		BodyLimitMB:      DefaultBodyLimitMB,
		LogLevel:         DefaultLogLevel,
	}
}

// Load resolves the configuration from all sources.
func Load() (*Config, error) {
	// A missing .env file is fine.
	_ = godotenv.Load()

	cfg := Default()

	if path := os.Getenv("FRAMELENS_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.mergeEnv()
	return cfg, nil
}

// mergeFile overlays non-zero values from a YAML file.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	c.overlay(&file)
	return nil
}

func (c *Config) overlay(o *Config) {
	if o.Port != "" {
		c.Port = o.Port
	}
	if o.AllowedOrigin != "" {
		c.AllowedOrigin = o.AllowedOrigin
	}
	if o.Provider != "" {
		c.Provider = o.Provider
	}
	if o.APIKey != "" {
		c.APIKey = o.APIKey
	}
	if o.Model != "" {
		c.Model = o.Model
	}
	if o.BaseURL != "" {
		c.BaseURL = o.BaseURL
	}
	if o.InferenceTimeout > 0 {
		c.InferenceTimeout = o.InferenceTimeout
	}
	if o.BodyLimitMB > 0 {
		c.BodyLimitMB = o.BodyLimitMB
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
}

// mergeEnv overlays environment variables.
func (c *Config) mergeEnv() {
	env := &Config{
		Port:             os.Getenv("PORT"),
		AllowedOrigin:    os.Getenv("ALLOWED_ORIGIN"),
		Provider:         strings.ToLower(os.Getenv("INFERENCE_PROVIDER")),
		Model:            os.Getenv("INFERENCE_MODEL"),
		BaseURL:          os.Getenv("INFERENCE_BASE_URL"),
		InferenceTimeout: getDurationEnv("INFERENCE_TIMEOUT"),
		BodyLimitMB:      getIntEnv("BODY_LIMIT_MB"),
		LogLevel:         os.Getenv("LOG_LEVEL"),
	}
	c.overlay(env)

	if key := c.apiKeyFromEnv(); key != "" {
		c.APIKey = key
	}
}

// apiKeyFromEnv picks the credential variable matching the provider.
// "apiKey" is honoured for deployments migrated from the Node proxy.
func (c *Config) apiKeyFromEnv() string {
	var keys []string
	switch c.Provider {
	case ProviderOpenAI:
		keys = []string{"OPENAI_API_KEY", "INFERENCE_API_KEY"}
	default:
		keys = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY", "INFERENCE_API_KEY", "apiKey"}
	}
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// BodyLimit returns the maximum request body size in bytes.
func (c *Config) BodyLimit() int {
	return c.BodyLimitMB * 1024 * 1024
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderGemini:
		if c.APIKey == "" {
			return fmt.Errorf("%w (set GEMINI_API_KEY)", ErrMissingAPIKey)
		}
	case ProviderOpenAI:
		// Local OpenAI-compatible servers (Ollama, vLLM) run without a key.
		if c.APIKey == "" && c.BaseURL == "" {
			return fmt.Errorf("%w (set OPENAI_API_KEY or INFERENCE_BASE_URL)", ErrMissingAPIKey)
		}
	default:
		return fmt.Errorf("config: unknown inference provider %q", c.Provider)
	}
	if c.AllowedOrigin == "" || c.AllowedOrigin == "*" {
		return fmt.Errorf("config: ALLOWED_ORIGIN must name a single origin, got %q", c.AllowedOrigin)
	}
	if c.BodyLimitMB <= 0 {
		return fmt.Errorf("config: BODY_LIMIT_MB must be positive")
	}
	return nil
}

func getDurationEnv(key string) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return 0
}

func getIntEnv(key string) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return 0
}
