package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Text generator backends.
const (
	GeneratorNone   = "none"
	GeneratorClaude = "claude"
	GeneratorHTTP   = "http"
)

// StoreConfig selects where session state is kept
type StoreConfig struct {
	// Backend is "file" (one JSON document per key) or "sqlite"
	Backend string `yaml:"backend"`

	// Path is the state directory or database file; empty uses the backend default under home
	Path string `yaml:"path"`
}

// HTTPConfig points at an OpenAI-compatible chat completions endpoint
type HTTPConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`

	// APIKeyEnv names the environment variable holding the bearer token
	APIKeyEnv string `yaml:"api_key_env"`
}

// RecommendationsConfig controls tailored recommendation text
type RecommendationsConfig struct {
	// Generator is none, claude or http
	Generator string `yaml:"generator"`

	// Timeout bounds each generator call
	Timeout time.Duration `yaml:"timeout"`

	// MaxConcurrency caps simultaneous generator calls
	MaxConcurrency int `yaml:"max_concurrency"`

	// ClaudePath is the claude CLI binary
	ClaudePath string `yaml:"claude_path"`

	HTTP HTTPConfig `yaml:"http"`
}

// Config represents microassess configuration options
type Config struct {
	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where run logs are written, relative to home unless absolute
	LogDir string `yaml:"log_dir"`

	// DefinitionPath replaces the embedded catalogue when set
	DefinitionPath string `yaml:"definition_path"`

	Store StoreConfig `yaml:"store"`

	Recommendations RecommendationsConfig `yaml:"recommendations"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		LogDir:   "logs",
		Store: StoreConfig{
			Backend: "file",
		},
		Recommendations: RecommendationsConfig{
			Generator:      GeneratorNone,
			Timeout:        90 * time.Second,
			MaxConcurrency: 4,
			ClaudePath:     "claude",
			HTTP: HTTPConfig{
				APIKeyEnv: "MICROASSESS_API_KEY",
			},
		},
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Durations are read as strings so "90s" and "2m" both work
	type yamlRecommendations struct {
		Generator      string     `yaml:"generator"`
		Timeout        string     `yaml:"timeout"`
		MaxConcurrency int        `yaml:"max_concurrency"`
		ClaudePath     string     `yaml:"claude_path"`
		HTTP           HTTPConfig `yaml:"http"`
	}
	type yamlConfig struct {
		LogLevel        string              `yaml:"log_level"`
		LogDir          string              `yaml:"log_dir"`
		DefinitionPath  string              `yaml:"definition_path"`
		Store           StoreConfig         `yaml:"store"`
		Recommendations yamlRecommendations `yaml:"recommendations"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply non-zero values from file (merging with defaults)
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.LogDir != "" {
		cfg.LogDir = yamlCfg.LogDir
	}
	if yamlCfg.DefinitionPath != "" {
		cfg.DefinitionPath = yamlCfg.DefinitionPath
	}
	if yamlCfg.Store.Backend != "" {
		cfg.Store.Backend = yamlCfg.Store.Backend
	}
	if yamlCfg.Store.Path != "" {
		cfg.Store.Path = yamlCfg.Store.Path
	}

	rec := yamlCfg.Recommendations
	if rec.Generator != "" {
		cfg.Recommendations.Generator = rec.Generator
	}
	if rec.Timeout != "" {
		timeout, err := time.ParseDuration(rec.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid recommendations.timeout format %q: %w", rec.Timeout, err)
		}
		cfg.Recommendations.Timeout = timeout
	}
	if rec.MaxConcurrency != 0 {
		cfg.Recommendations.MaxConcurrency = rec.MaxConcurrency
	}
	if rec.ClaudePath != "" {
		cfg.Recommendations.ClaudePath = rec.ClaudePath
	}
	if rec.HTTP.BaseURL != "" {
		cfg.Recommendations.HTTP.BaseURL = rec.HTTP.BaseURL
	}
	if rec.HTTP.Model != "" {
		cfg.Recommendations.HTTP.Model = rec.HTTP.Model
	}
	if rec.HTTP.APIKeyEnv != "" {
		cfg.Recommendations.HTTP.APIKeyEnv = rec.HTTP.APIKeyEnv
	}

	return cfg, nil
}

// LoadConfigFromHome loads home/config.yaml
func LoadConfigFromHome(home string) (*Config, error) {
	return LoadConfig(ConfigPath(home))
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
func (c *Config) MergeWithFlags(logLevel *string, definitionPath *string, storeBackend *string, generator *string) {
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
	if definitionPath != nil {
		c.DefinitionPath = *definitionPath
	}
	if storeBackend != nil {
		c.Store.Backend = *storeBackend
	}
	if generator != nil {
		c.Recommendations.Generator = *generator
	}
}

// APIKey reads the HTTP generator's token from its environment variable
func (c *Config) APIKey() string {
	if c.Recommendations.HTTP.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.Recommendations.HTTP.APIKeyEnv)
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	switch c.Store.Backend {
	case "file", "sqlite":
	default:
		return fmt.Errorf("invalid store.backend %q, must be one of: file, sqlite", c.Store.Backend)
	}

	rec := c.Recommendations
	if rec.Timeout < 0 {
		return fmt.Errorf("recommendations.timeout must be >= 0, got %v", rec.Timeout)
	}
	if rec.MaxConcurrency < 0 {
		return fmt.Errorf("recommendations.max_concurrency must be >= 0, got %d", rec.MaxConcurrency)
	}

	switch rec.Generator {
	case GeneratorNone:
	case GeneratorClaude:
		if rec.ClaudePath == "" {
			return fmt.Errorf("recommendations.claude_path cannot be empty when generator is claude")
		}
	case GeneratorHTTP:
		if rec.HTTP.BaseURL == "" {
			return fmt.Errorf("recommendations.http.base_url cannot be empty when generator is http")
		}
		if rec.HTTP.Model == "" {
			return fmt.Errorf("recommendations.http.model cannot be empty when generator is http")
		}
	default:
		return fmt.Errorf("invalid recommendations.generator %q, must be one of: none, claude, http", rec.Generator)
	}

	return nil
}
