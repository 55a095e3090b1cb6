package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/medsafe-engine/internal/domain"
	"github.com/medsafe-engine/pkg/similarity"
)

// EnvPrefix is prepended to environment overrides, e.g. MEDSAFE_MATCHING_SIMILARITY_THRESHOLD
const EnvPrefix = "MEDSAFE"

// Manager loads configuration from an optional YAML file, environment variables and defaults
type Manager struct {
	v          *viper.Viper
	configFile string
	config     *domain.Config
}

// NewManager creates a new configuration manager. When configFile is empty the file
// medsafe.yaml is searched for in the usual places and may be absent.
func NewManager(configFile string) (*Manager, error) {
	m := &Manager{configFile: configFile}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig() error {
	v := viper.New()

	if m.configFile != "" {
		v.SetConfigFile(m.configFile)
	} else {
		v.SetConfigName("medsafe")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/medsafe/")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || m.configFile != "" {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// No config file; defaults and environment variables apply
	}

	config := &domain.Config{}
	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.v = v
	m.config = config
	return nil
}

// setDefaults sets default configuration values. Every key needs a default so that
// AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	// Empty path selects the embedded reference data
	v.SetDefault("catalog.path", "")

	v.SetDefault("matching.similarity_threshold", similarity.DefaultThreshold)
	v.SetDefault("matching.algorithm", similarity.AlgorithmLevenshtein)

	v.SetDefault("cache.max_entries", 1024)

	v.SetDefault("batch.max_concurrency", 8)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetMatchingConfig returns fuzzy matching configuration
func (m *Manager) GetMatchingConfig() *domain.MatchingConfig {
	return &m.config.Matching
}

// GetLoggingConfig returns logging configuration
func (m *Manager) GetLoggingConfig() *domain.LoggingConfig {
	return &m.config.Logging
}

// ConfigFileUsed returns the file the configuration was read from, if any
func (m *Manager) ConfigFileUsed() string {
	return m.v.ConfigFileUsed()
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	if config.Catalog.Path != "" {
		if _, err := os.Stat(config.Catalog.Path); err != nil {
			return fmt.Errorf("catalog file is not readable: %w", err)
		}
	}

	if t := config.Matching.SimilarityThreshold; t <= 0 || t > 1 {
		return fmt.Errorf("similarity threshold must be in (0, 1]: %v", t)
	}
	if _, err := similarity.New(config.Matching.Algorithm); err != nil {
		return err
	}

	if config.Cache.MaxEntries < 0 {
		return fmt.Errorf("cache max entries must not be negative: %d", config.Cache.MaxEntries)
	}
	if config.Batch.MaxConcurrency < 1 {
		return fmt.Errorf("batch max concurrency must be at least 1: %d", config.Batch.MaxConcurrency)
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}
	switch strings.ToLower(config.Logging.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %s", config.Logging.Format)
	}

	return nil
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.ToLower(m.config.Environment) == "production"
}
