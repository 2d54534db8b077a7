package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Setting keys shared by the user config and project overrides
const (
	KeyDatabase  = "coverage_database"
	KeyPackages  = "packages_path"
	KeyTestEntry = "test_entry"
	KeyGoBinary  = "go_binary"
)

// DefaultTestEntry marks a package as testable
const DefaultTestEntry = "dev/tests_test.go"

// Config represents the user-scope package coverage configuration
type Config struct {
	DatabasePath string `yaml:"coverage_database,omitempty"`
	PackagesPath string `yaml:"packages_path"`
	TestEntry    string `yaml:"test_entry"`
	GoBinary     string `yaml:"go_binary"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	packagesPath := "Packages"
	if homeDir, err := os.UserHomeDir(); err == nil {
		packagesPath = filepath.Join(homeDir, "go", "packages")
	}
	return &Config{
		PackagesPath: packagesPath,
		TestEntry:    DefaultTestEntry,
		GoBinary:     "go",
	}
}

// ExampleDatabasePath is offered as the initial value when no database is set
func ExampleDatabasePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "package_coverage.sqlite"
	}
	return filepath.Join(homeDir, "Dropbox", "package_coverage.sqlite")
}

// Load loads configuration from file and environment variables
// Priority: environment variables > config file > defaults
func Load() (*Config, error) {
	cfg, err := LoadFile()
	if err != nil {
		return nil, err
	}

	if db := os.Getenv("PCOV_DATABASE"); db != "" {
		cfg.DatabasePath = db
	}
	if packages := os.Getenv("PCOV_PACKAGES"); packages != "" {
		cfg.PackagesPath = packages
	}

	return cfg, nil
}

// LoadFile loads configuration from the config file and defaults only. Use it
// for a config that will be saved back, so environment overrides stay
// transient.
func LoadFile() (*Config, error) {
	cfg := DefaultConfig()

	if configPath := GetConfigPath(); configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			// Config file is optional
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to load config file: %w", err)
			}
		}
	}

	return cfg, nil
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// Save saves the configuration to a file
func (cfg *Config) Save(path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfigPath returns the path to the user config file
func GetConfigPath() string {
	configPath := os.Getenv("PCOV_CONFIG")
	if configPath == "" {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			configPath = filepath.Join(homeDir, ".pcov-config")
		} else {
			configPath = ".pcov-config"
		}
	}
	return configPath
}

// Values exposes the config as the user layer of a settings lookup
func (cfg *Config) Values() map[string]any {
	values := map[string]any{}
	if cfg.DatabasePath != "" {
		values[KeyDatabase] = expandHome(cfg.DatabasePath)
	}
	if cfg.PackagesPath != "" {
		values[KeyPackages] = expandHome(cfg.PackagesPath)
	}
	if cfg.TestEntry != "" {
		values[KeyTestEntry] = cfg.TestEntry
	}
	if cfg.GoBinary != "" {
		values[KeyGoBinary] = cfg.GoBinary
	}
	return values
}

// Set assigns a value by setting key
func (cfg *Config) Set(key, value string) error {
	switch key {
	case KeyDatabase:
		cfg.DatabasePath = value
	case KeyPackages:
		cfg.PackagesPath = value
	case KeyTestEntry:
		cfg.TestEntry = value
	case KeyGoBinary:
		cfg.GoBinary = value
	default:
		return fmt.Errorf("unknown config key '%s'", key)
	}
	return nil
}

// Get returns a value by setting key
func (cfg *Config) Get(key string) (string, error) {
	switch key {
	case KeyDatabase:
		return cfg.DatabasePath, nil
	case KeyPackages:
		return cfg.PackagesPath, nil
	case KeyTestEntry:
		return cfg.TestEntry, nil
	case KeyGoBinary:
		return cfg.GoBinary, nil
	}
	return "", fmt.Errorf("unknown config key '%s'", key)
}

// Keys lists the valid setting keys
func Keys() []string {
	return []string{KeyDatabase, KeyPackages, KeyTestEntry, KeyGoBinary}
}

// expandHome expands a leading ~/ to the user's home directory
func expandHome(path string) string {
	if len(path) > 1 && path[0] == '~' && (path[1] == '/' || path[1] == filepath.Separator) {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(homeDir, path[2:])
		}
	}
	return path
}
