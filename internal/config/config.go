package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Advice providers
const (
	ProviderOffline = "offline" // deterministic heuristic, no network
	ProviderGenAI   = "genai"   // Gemini via google.golang.org/genai
	ProviderNone    = "none"    // advice always unavailable
)

// Environment overrides
const (
	EnvDBPath    = "CLARENCE_DB_PATH"
	EnvGeminiKey = "GEMINI_API_KEY"
	EnvGoogleKey = "GOOGLE_API_KEY"
)

// Config represents the flat clarence configuration
type Config struct {
	Version       string       `json:"version"`
	DBPath        string       `json:"db_path,omitempty"`        // empty: ~/.clarence/clarence.db
	CataloguePath string       `json:"catalogue_path,omitempty"` // empty: built-in catalogue
	Advice        AdviceConfig `json:"advice"`
}

// AdviceConfig configures the advice generator.
type AdviceConfig struct {
	Provider       string `json:"provider"`
	Model          string `json:"model,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
	MaxParallel    int    `json:"max_parallel,omitempty"`
}

// Timeout returns the advice deadline.
func (a AdviceConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Version: "1",
		Advice: AdviceConfig{
			Provider:       ProviderOffline,
			TimeoutSeconds: 30,
			MaxParallel:    4,
		},
	}
}

// LoadConfig reads .clarence/config.json from the specified directory.
// Returns error if no config found - caller should handle accordingly.
func LoadConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, ".clarence", "config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load reads the config in dir, falling back to Default when none exists,
// then applies environment overrides.
func Load(dir string) (*Config, error) {
	cfg, err := LoadConfig(dir)
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = Default(), nil
	}
	if err != nil {
		return nil, err
	}

	if path := os.Getenv(EnvDBPath); path != "" {
		cfg.DBPath = path
	}
	return cfg, nil
}

// SaveConfig writes config.json to directory
func SaveConfig(dir string, cfg *Config) error {
	clarenceDir := filepath.Join(dir, ".clarence")
	if err := os.MkdirAll(clarenceDir, 0755); err != nil {
		return fmt.Errorf("failed to create .clarence dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(clarenceDir, "config.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	switch c.Advice.Provider {
	case ProviderOffline, ProviderGenAI, ProviderNone:
	default:
		return fmt.Errorf("invalid advice provider %q (want %s, %s or %s)",
			c.Advice.Provider, ProviderOffline, ProviderGenAI, ProviderNone)
	}
	if c.Advice.TimeoutSeconds < 0 {
		return fmt.Errorf("invalid advice timeout_seconds %d", c.Advice.TimeoutSeconds)
	}
	if c.Advice.MaxParallel < 0 {
		return fmt.Errorf("invalid advice max_parallel %d", c.Advice.MaxParallel)
	}
	return nil
}

// APIKey returns the Gemini API key from the environment.
func APIKey() string {
	if key := os.Getenv(EnvGeminiKey); key != "" {
		return key
	}
	return os.Getenv(EnvGoogleKey)
}
