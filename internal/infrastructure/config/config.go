// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default config file name, looked up in the
// working directory.
const DefaultConfigFile = "config.yaml"

// ErrInvalidConfig is returned when the configuration fails validation.
// It is fatal: the pipeline never starts with a broken configuration.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds static infrastructure configuration (read-only after load).
type Config struct {
	LLM        LLMConfig        `yaml:"llm,omitempty"`
	Processing ProcessingConfig `yaml:"processing,omitempty"`
	SQLite     SQLiteConfig     `yaml:"sqlite,omitempty"`
	Output     OutputConfig     `yaml:"output,omitempty"`
	TTS        TTSConfig        `yaml:"tts,omitempty"`
}

// LLMConfig holds configuration for the remote analysis endpoint.
type LLMConfig struct {
	APIKey          string `yaml:"api_key,omitempty"`
	BaseURL         string `yaml:"base_url,omitempty"`
	ExtractionModel string `yaml:"extraction_model,omitempty"`
	WordModel       string `yaml:"word_model,omitempty"`
	GrammarModel    string `yaml:"grammar_model,omitempty"`
}

// ProcessingConfig bounds concurrency and retries for remote calls.
type ProcessingConfig struct {
	ConcurrentRequests    int `yaml:"concurrent_requests,omitempty"`
	RequestDelayMS        int `yaml:"request_delay_ms,omitempty"`
	MaxRetries            int `yaml:"max_retries,omitempty"`
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds,omitempty"`
}

// RequestDelay returns the pacing delay between request issuances.
func (p ProcessingConfig) RequestDelay() time.Duration {
	return time.Duration(p.RequestDelayMS) * time.Millisecond
}

// RequestTimeout returns the per-request timeout.
func (p ProcessingConfig) RequestTimeout() time.Duration {
	return time.Duration(p.RequestTimeoutSeconds) * time.Second
}

// SQLiteConfig holds configuration for the SQLite store.
type SQLiteConfig struct {
	// Path is the file path to the SQLite database.
	Path string `yaml:"path,omitempty"`
}

// OutputConfig holds deck and audio output locations.
type OutputConfig struct {
	WordsFile   string `yaml:"words_file,omitempty"`
	GrammarFile string `yaml:"grammar_file,omitempty"`
	AudioDir    string `yaml:"audio_dir,omitempty"`
}

// TTSConfig holds configuration for speech synthesis (optional).
type TTSConfig struct {
	Key    string `yaml:"key,omitempty"`
	Region string `yaml:"region,omitempty"`
	Voice  string `yaml:"voice,omitempty"`
}

// Enabled reports whether speech synthesis is configured.
func (t TTSConfig) Enabled() bool {
	return t.Key != "" && t.Region != ""
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			BaseURL:         "https://openrouter.ai/api/v1",
			ExtractionModel: "google/gemini-2.5-flash",
			WordModel:       "google/gemini-2.5-flash",
			GrammarModel:    "google/gemini-2.5-flash",
		},
		Processing: ProcessingConfig{
			ConcurrentRequests:    10,
			RequestDelayMS:        500,
			MaxRetries:            3,
			RequestTimeoutSeconds: 120,
		},
		SQLite: SQLiteConfig{
			Path: "ankigen.db",
		},
		Output: OutputConfig{
			WordsFile:   "words.csv",
			GrammarFile: "grammar.csv",
			AudioDir:    "audio",
		},
		TTS: TTSConfig{
			Voice: "ja-JP-NanamiNeural",
		},
	}
}

// Load loads configuration from config.yaml in the given directory,
// merging file values over defaults and environment overrides over both.
func Load(basePath string) (*Config, error) {
	configFile := filepath.Join(basePath, DefaultConfigFile)

	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s (run 'ankigen init' first)", configFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing config file: %v", ErrInvalidConfig, err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
// Environment credentials take precedence over file values.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("OPENROUTER_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if key := os.Getenv("AZURE_SPEECH_KEY"); key != "" {
		c.TTS.Key = key
	}
}

// Validate checks that the configuration can drive a pipeline run.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("%w: llm.api_key is required (or set OPENROUTER_API_KEY)", ErrInvalidConfig)
	}
	if c.Processing.ConcurrentRequests < 1 {
		return fmt.Errorf("%w: processing.concurrent_requests must be at least 1", ErrInvalidConfig)
	}
	if c.Processing.RequestDelayMS < 0 {
		return fmt.Errorf("%w: processing.request_delay_ms must not be negative", ErrInvalidConfig)
	}
	if c.Processing.MaxRetries < 1 {
		return fmt.Errorf("%w: processing.max_retries must be at least 1", ErrInvalidConfig)
	}
	if c.Processing.RequestTimeoutSeconds < 1 {
		return fmt.Errorf("%w: processing.request_timeout_seconds must be at least 1", ErrInvalidConfig)
	}
	if c.SQLite.Path == "" {
		return fmt.Errorf("%w: sqlite.path is required", ErrInvalidConfig)
	}
	if c.Output.WordsFile == "" || c.Output.GrammarFile == "" {
		return fmt.Errorf("%w: output.words_file and output.grammar_file are required", ErrInvalidConfig)
	}
	return nil
}

// Exists checks if a config file exists in the given path.
func Exists(basePath string) bool {
	_, err := os.Stat(filepath.Join(basePath, DefaultConfigFile))
	return err == nil
}

// WriteStarter writes a starter config file with default values.
// It refuses to overwrite an existing file.
func WriteStarter(basePath string) (string, error) {
	configFile := filepath.Join(basePath, DefaultConfigFile)
	if Exists(basePath) {
		return "", fmt.Errorf("config file already exists: %s", configFile)
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configFile, data, 0o644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}

	return configFile, nil
}
