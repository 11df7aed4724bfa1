// Package config loads greentrail's YAML configuration.
//
// Settings come from, in increasing precedence: built-in defaults, the global
// file ~/.greentrail/config.yaml (directory overridable with GREENTRAIL_HOME),
// a project-local .greentrail/config.yaml overlay, and GREENTRAIL_*
// environment variables. A .env file in the working directory or the config
// directory is loaded into the environment first.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
)

// Environment overrides.
const (
	EnvHome          = "GREENTRAIL_HOME"
	EnvLogLevel      = "GREENTRAIL_LOG_LEVEL"
	EnvLogFormat     = "GREENTRAIL_LOG_FORMAT"
	EnvLogFile       = "GREENTRAIL_LOG_FILE"
	EnvOutputFormat  = "GREENTRAIL_OUTPUT_FORMAT"
	EnvStateDir      = "GREENTRAIL_STATE_DIR"
	EnvStateBackend  = "GREENTRAIL_STATE_BACKEND"
	EnvFactorsFile   = "GREENTRAIL_FACTORS_FILE"
	EnvSubmissionLog = "GREENTRAIL_SUBMISSIONS_FILE"
	EnvSinkLog       = "GREENTRAIL_SINK_LOG"
)

const configFileName = "config.yaml"

// Config is the complete greentrail configuration.
type Config struct {
	Output   OutputConfig   `yaml:"output"`
	Logging  LoggingConfig  `yaml:"logging"`
	Storage  StorageConfig  `yaml:"storage"`
	Factors  FactorsConfig  `yaml:"factors"`
	Sinks    SinksConfig    `yaml:"sinks"`
	Projects ProjectsConfig `yaml:"projects"`

	configPath string
}

// OutputConfig controls CLI rendering.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	Precision     int    `yaml:"precision"`
}

// LoggingConfig controls the application logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file,omitempty"`
}

// StorageConfig controls where in-progress questionnaires are saved.
type StorageConfig struct {
	Backend   string `yaml:"backend"`
	Directory string `yaml:"directory,omitempty"`
	// TTL is integer seconds or a Go duration; empty uses the default.
	TTL           string `yaml:"ttl,omitempty"`
	MaxEntryBytes int    `yaml:"max_entry_bytes,omitempty"`
}

// FactorsConfig selects the emission factor table.
type FactorsConfig struct {
	// File is a YAML factor table; empty uses the built-in table.
	File string `yaml:"file,omitempty"`
}

// SinksConfig selects where submissions are delivered.
type SinksConfig struct {
	Log  bool   `yaml:"log"`
	File string `yaml:"file,omitempty"`
}

// ProjectsConfig lists project files and caching of project lookups.
type ProjectsConfig struct {
	Files     []string `yaml:"files,omitempty"`
	CacheSize int      `yaml:"cache_size,omitempty"`
}

// Default returns the built-in configuration without reading any file.
func Default() *Config {
	return &Config{
		Output:  OutputConfig{DefaultFormat: FormatTable, Precision: 2},
		Logging: LoggingConfig{Level: "info", Format: "console"},
		Storage: StorageConfig{Backend: BackendFile},
		Sinks:   SinksConfig{Log: true},
	}
}

// New returns the default configuration overlaid with the global config file
// and environment overrides. A missing or unreadable file leaves the defaults
// in place.
func New() *Config {
	cfg := Default()
	dir, err := GetConfigDir()
	if err == nil {
		cfg.configPath = filepath.Join(dir, configFileName)
		if _, statErr := os.Stat(cfg.configPath); statErr == nil {
			_ = cfg.loadFrom(cfg.configPath)
		}
	}
	cfg.ApplyEnvOverrides()
	return cfg
}

// Load reads path on top of the defaults and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	cfg.configPath = path
	if err := cfg.loadFrom(path); err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) loadFrom(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err = yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// ConfigPath returns the file Save writes to.
func (c *Config) ConfigPath() string { return c.configPath }

// SetConfigPath changes the file Save writes to.
func (c *Config) SetConfigPath(path string) { c.configPath = path }

// Save writes the configuration as YAML, creating the parent directory.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.New("config path is not set")
	}
	if err := os.MkdirAll(filepath.Dir(c.configPath), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := c.YAML()
	if err != nil {
		return err
	}
	if err = os.WriteFile(c.configPath, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// YAML returns the configuration encoded as YAML.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return data, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	var errs []error
	if !slices.Contains([]string{FormatTable, FormatJSON}, c.Output.DefaultFormat) {
		errs = append(errs, fmt.Errorf("output.default_format must be %q or %q, got %q",
			FormatTable, FormatJSON, c.Output.DefaultFormat))
	}
	if c.Output.Precision < 0 || c.Output.Precision > 6 {
		errs = append(errs, fmt.Errorf("output.precision must be between 0 and 6, got %d", c.Output.Precision))
	}
	if !slices.Contains([]string{BackendFile, BackendMemory}, c.Storage.Backend) {
		errs = append(errs, fmt.Errorf("storage.backend must be %q or %q, got %q",
			BackendFile, BackendMemory, c.Storage.Backend))
	}
	if c.Storage.MaxEntryBytes < 0 {
		errs = append(errs, errors.New("storage.max_entry_bytes must not be negative"))
	}
	if c.Projects.CacheSize < 0 {
		errs = append(errs, errors.New("projects.cache_size must not be negative"))
	}
	return errors.Join(errs...)
}

// ApplyEnvOverrides copies GREENTRAIL_* environment variables onto c.
func (c *Config) ApplyEnvOverrides() {
	override := func(env string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			*dst = v
		}
	}
	override(EnvLogLevel, &c.Logging.Level)
	override(EnvLogFormat, &c.Logging.Format)
	override(EnvLogFile, &c.Logging.File)
	override(EnvOutputFormat, &c.Output.DefaultFormat)
	override(EnvStateDir, &c.Storage.Directory)
	override(EnvStateBackend, &c.Storage.Backend)
	override(EnvFactorsFile, &c.Factors.File)
	override(EnvSubmissionLog, &c.Sinks.File)

	if v := os.Getenv(EnvSinkLog); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Sinks.Log = b
		}
	}
}

// StateDirectory returns the directory of the file storage backend, defaulting
// to a "state" directory next to the config file.
func (c *Config) StateDirectory() (string, error) {
	if c.Storage.Directory != "" {
		return c.Storage.Directory, nil
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "state"), nil
}
