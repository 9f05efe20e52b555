package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all compass configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Model endpoint configuration
	LLM LLMConfig `yaml:"llm"`

	// Evaluation harness configuration
	Eval EvalConfig `yaml:"eval"`

	// Result store configuration
	Store StoreConfig `yaml:"store"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the prompt-generation model endpoint.
type LLMConfig struct {
	Provider string `yaml:"provider"` // huggingface, openai, gemini
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`
}

// EvalConfig configures the evaluation harness.
type EvalConfig struct {
	Workers     int    `yaml:"workers"`      // concurrent samples per run
	DatasetPath string `yaml:"dataset_path"` // default dataset directory
	RulesPath   string `yaml:"rules_path"`   // optional prompt rule overrides
}

// StoreConfig configures the SQLite result store.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// LoggingConfig configures debug logging.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"` // debug, info, warn, error
	Categories map[string]bool `yaml:"categories"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "compass",
		Version: "0.3.0",

		LLM: LLMConfig{
			Provider: "huggingface",
			Model:    "Salesforce/codet5p-770m",
			BaseURL:  "https://api-inference.huggingface.co/models",
			Timeout:  "120s",
		},

		Eval: EvalConfig{
			Workers:     4,
			DatasetPath: "datasets/student-code",
		},

		Store: StoreConfig{
			DatabasePath: filepath.Join(".compass", "compass.db"),
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns the default path to .compass/config.yaml.
func DefaultPath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return filepath.Join(".compass", "config.yaml")
	}
	return filepath.Join(cwd, ".compass", "config.yaml")
}

// Load loads configuration from a YAML file.
// A missing file is not an error: defaults plus env overrides are returned.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// Model API key from environment (check in priority order)
	if key := os.Getenv("HF_API_TOKEN"); key != "" {
		c.LLM.APIKey = key
		if c.LLM.Provider == "" {
			c.LLM.Provider = "huggingface"
		}
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "openai"
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "gemini"
	}

	if model := os.Getenv("COMPASS_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if path := os.Getenv("COMPASS_DB"); path != "" {
		c.Store.DatabasePath = path
	}
	if path := os.Getenv("COMPASS_DATASET"); path != "" {
		c.Eval.DatasetPath = path
	}
}

// GetLLMTimeout returns the model endpoint timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// ValidProviders lists all supported model providers.
var ValidProviders = []string{"huggingface", "openai", "gemini"}

// Validate validates the configuration for model-backed operations.
// Rule-based analysis needs no credentials, so callers only validate
// when a model generator is requested.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("model API key not configured (set HF_API_TOKEN, OPENAI_API_KEY, or GEMINI_API_KEY)")
	}

	validProvider := false
	for _, p := range ValidProviders {
		if c.LLM.Provider == p {
			validProvider = true
			break
		}
	}
	if !validProvider {
		return fmt.Errorf("invalid model provider: %s (valid: %v)", c.LLM.Provider, ValidProviders)
	}

	if c.Eval.Workers < 0 {
		return fmt.Errorf("eval.workers must be >= 0")
	}

	return nil
}
