// Package config provides configuration loading and validation for the CLI
// and the API server.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// Default values applied by Defaults.
const (
	DefaultPort                 = 8000
	DefaultLogMode              = "dev"
	DefaultRetentionDays        = 30
	DefaultAnalysisTemperature  = 0.2
	DefaultSequencerTemperature = 0.7
)

var (
	// ErrMissingAPIKey is returned when an operation needs the model API key.
	ErrMissingAPIKey = errors.New("GEMINI_API_KEY is required")
	// ErrMissingDatabaseURL is returned when an operation needs the store.
	ErrMissingDatabaseURL = errors.New("DATABASE_URL is required")
)

// Config is the application configuration. It is loaded once and passed
// explicitly to the components that need it.
type Config struct {
	// Store
	DatabaseURL   string `json:"database_url,omitempty"`
	RetentionDays int    `json:"retention_days,omitempty" validate:"gte=0"`

	// Models
	APIKey               string  `json:"api_key,omitempty"`
	Model                string  `json:"model,omitempty"` // Overrides every model tier when set
	AnalysisTemperature  float32 `json:"analysis_temperature,omitempty" validate:"gte=0,lte=2"`
	SequencerTemperature float32 `json:"sequencer_temperature,omitempty" validate:"gte=0,lte=2"`

	// Reference documents
	UseBrowser bool `json:"use_browser,omitempty"` // Render short pages in headless Chrome

	// Output
	OutputDir string `json:"output_dir,omitempty"` // Stage dumps are written here when set
	LogMode   string `json:"log_mode,omitempty" validate:"omitempty,oneof=dev prod"`
	Verbose   bool   `json:"verbose,omitempty"`

	// Server
	Port int `json:"port,omitempty" validate:"gte=0,lte=65535"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		RetentionDays:        DefaultRetentionDays,
		AnalysisTemperature:  DefaultAnalysisTemperature,
		SequencerTemperature: DefaultSequencerTemperature,
		LogMode:              DefaultLogMode,
		Port:                 DefaultPort,
	}
}

// LoadConfig loads configuration from a JSON file.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv reads configuration from environment variables. Unset variables
// leave fields at their zero value; malformed numbers are reported.
func FromEnv() (Config, error) {
	cfg := Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		APIKey:      os.Getenv("GEMINI_API_KEY"),
		Model:       os.Getenv("LLM_MODEL"),
		OutputDir:   os.Getenv("OUTPUT_DIRECTORY"),
		LogMode:     os.Getenv("LOG_MODE"),
	}

	var err error
	if cfg.Port, err = envInt("PORT"); err != nil {
		return cfg, err
	}
	if cfg.RetentionDays, err = envInt("RETENTION_DAYS"); err != nil {
		return cfg, err
	}
	if cfg.AnalysisTemperature, err = envFloat("AGENT_TEMPERATURE"); err != nil {
		return cfg, err
	}
	if cfg.SequencerTemperature, err = envFloat("SEQUENCER_TEMPERATURE"); err != nil {
		return cfg, err
	}
	if v := os.Getenv("USE_BROWSER"); v != "" {
		if cfg.UseBrowser, err = strconv.ParseBool(v); err != nil {
			return cfg, fmt.Errorf("config error: USE_BROWSER: %w", err)
		}
	}
	return cfg, nil
}

func envInt(name string) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config error: %s: %w", name, err)
	}
	return n, nil
}

func envFloat(name string) (float32, error) {
	v := os.Getenv(name)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return 0, fmt.Errorf("config error: %s: %w", name, err)
	}
	return float32(f), nil
}

// Validate checks that the configuration has valid values. Required
// credentials are checked by RequireAPIKey and RequireDatabase where needed.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if c.OutputDir != "" {
		if info, err := os.Stat(c.OutputDir); err == nil && !info.IsDir() {
			return fmt.Errorf("config error: output_dir is not a directory: %s", c.OutputDir)
		}
	}

	return nil
}

// RequireAPIKey reports ErrMissingAPIKey when no API key is configured.
func (c *Config) RequireAPIKey() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// RequireDatabase reports ErrMissingDatabaseURL when no store is configured.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	return nil
}

// MergeWithDefaults returns a new Config with zero-valued fields filled from
// defaults. Bool fields are never merged; the caller's value wins.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.Model == "" {
		result.Model = defaults.Model
	}
	if result.OutputDir == "" {
		result.OutputDir = defaults.OutputDir
	}
	if result.LogMode == "" {
		result.LogMode = defaults.LogMode
	}

	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.RetentionDays == 0 {
		result.RetentionDays = defaults.RetentionDays
	}

	if result.AnalysisTemperature == 0 {
		result.AnalysisTemperature = defaults.AnalysisTemperature
	}
	if result.SequencerTemperature == 0 {
		result.SequencerTemperature = defaults.SequencerTemperature
	}

	return result
}

// Resolve layers a config file (optional), the environment and the built-in
// defaults, highest precedence first: environment over file over defaults.
func Resolve(path string) (Config, error) {
	env, err := FromEnv()
	if err != nil {
		return Config{}, err
	}

	merged := env
	if path != "" {
		file, err := LoadConfig(path)
		if err != nil {
			return Config{}, err
		}
		merged = env.MergeWithDefaults(*file)
		merged.UseBrowser = env.UseBrowser || file.UseBrowser
		merged.Verbose = file.Verbose
	}

	merged = merged.MergeWithDefaults(Defaults())
	if err := merged.Validate(); err != nil {
		return Config{}, err
	}
	return merged, nil
}
