package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/example/deck/internal/models"
)

// CurrentVersion is written by SaveConfig when Version is empty.
const CurrentVersion = "1"

// Environment variables that override the project config.
const (
	EnvProviderType = "DECK_PROVIDER_TYPE"
	EnvToken        = "DECK_TOKEN"
	EnvBaseURL      = "DECK_BASE_URL"
	EnvJournalPath  = "DECK_JOURNAL_PATH"
)

// ErrNotFound is returned by LoadConfig when the directory has no config.
var ErrNotFound = errors.New("no deck config found (run 'deck init')")

// Config represents .deck/config.yaml
type Config struct {
	Version  string         `yaml:"version" mapstructure:"version"`
	Actor    string         `yaml:"actor,omitempty" mapstructure:"actor"` // recorded on journaled events
	Provider ProviderConfig `yaml:"provider" mapstructure:"provider"`
	Journal  JournalConfig  `yaml:"journal,omitempty" mapstructure:"journal"`
}

// ProviderConfig selects the task backend.
type ProviderConfig struct {
	Type    string         `yaml:"type" mapstructure:"type"`
	Options map[string]any `yaml:"options,omitempty" mapstructure:"options"`
}

// JournalConfig locates the event journal. An empty Path means ~/.deck/deck.db.
type JournalConfig struct {
	Path     string `yaml:"path,omitempty" mapstructure:"path"`
	Disabled bool   `yaml:"disabled,omitempty" mapstructure:"disabled"`
}

// Path returns the config file location for a project directory.
func Path(dir string) string {
	return filepath.Join(dir, ".deck", "config.yaml")
}

// LoadConfig reads .deck/config.yaml from the specified directory and
// applies environment overrides.
// Resolution order: dir only (no home fallback).
func LoadConfig(dir string) (*Config, error) {
	path := Path(dir)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("version", CurrentVersion)

	_ = v.BindEnv("provider.type", EnvProviderType)
	_ = v.BindEnv("provider.options.token", EnvToken)
	_ = v.BindEnv("provider.options.base_url", EnvBaseURL)
	_ = v.BindEnv("journal.path", EnvJournalPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Provider.Type == "" {
		return nil, fmt.Errorf("config %s: provider.type is required", path)
	}

	return &cfg, nil
}

// SaveConfig writes config.yaml to directory
func SaveConfig(dir string, cfg *Config) error {
	deckDir := filepath.Join(dir, ".deck")
	if err := os.MkdirAll(deckDir, 0755); err != nil {
		return fmt.Errorf("failed to create .deck dir: %w", err)
	}

	if cfg.Version == "" {
		cfg.Version = CurrentVersion
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(Path(dir), data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// ProviderSelection converts the config into what the provider factory
// consumes for the project at projectPath.
func (c *Config) ProviderSelection(projectPath string) models.ProviderConfig {
	options := make(map[string]any, len(c.Provider.Options))
	for k, v := range c.Provider.Options {
		options[k] = v
	}
	return models.ProviderConfig{
		Type:        c.Provider.Type,
		ProjectPath: projectPath,
		Options:     options,
	}
}

// DefaultJournalPath returns the default event journal path.
func DefaultJournalPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".deck", "deck.db"), nil
}
