package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable the crawler reads
const EnvPrefix = "TRACKCRAWLER_"

// Config holds all configuration options for the track crawler
type Config struct {
	// Remote source settings
	Source SourceConfig `yaml:"source" toml:"source" json:"source"`

	// Roster workbook location
	Roster RosterConfig `yaml:"roster" toml:"roster" json:"roster"`

	// Output settings
	Output OutputConfig `yaml:"output" toml:"output" json:"output"`

	// Checkpoint file settings
	Checkpoint CheckpointConfig `yaml:"checkpoint" toml:"checkpoint" json:"checkpoint"`

	// Fetch concurrency
	Fetch FetchConfig `yaml:"fetch" toml:"fetch" json:"fetch"`

	// Failure ledger
	Ledger LedgerConfig `yaml:"ledger" toml:"ledger" json:"ledger"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" toml:"logging" json:"logging"`

	// Timezone used to derive the observed date of a trace (IANA name or "Local")
	Timezone string `yaml:"timezone" toml:"timezone" json:"timezone"`
}

// SourceConfig holds remote source configuration
type SourceConfig struct {
	BaseURL   string        `yaml:"base_url" toml:"base_url" json:"base_url"`
	Referer   string        `yaml:"referer" toml:"referer" json:"referer"`
	UserAgent string        `yaml:"user_agent" toml:"user_agent" json:"user_agent"`
	Timeout   time.Duration `yaml:"timeout" toml:"timeout" json:"timeout"`
}

// RosterConfig describes the roster workbook
type RosterConfig struct {
	Path       string `yaml:"path" toml:"path" json:"path"`
	Sheet      string `yaml:"sheet" toml:"sheet" json:"sheet"`
	HeaderRows int    `yaml:"header_rows" toml:"header_rows" json:"header_rows"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" toml:"base_directory" json:"base_directory"`
}

// CheckpointConfig holds checkpoint file configuration
type CheckpointConfig struct {
	Path string `yaml:"path" toml:"path" json:"path"`
	// Epoch is the first day crawled for a new aircraft, YYYY/MM/DD
	Epoch string `yaml:"epoch" toml:"epoch" json:"epoch"`
}

// FetchConfig holds fetch configuration
type FetchConfig struct {
	// Concurrency bounds in-flight requests per aircraft; 0 means unbounded
	Concurrency int `yaml:"concurrency" toml:"concurrency" json:"concurrency"`
}

// LedgerConfig holds failure ledger configuration
type LedgerConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled" json:"enabled"`
	Path    string `yaml:"path" toml:"path" json:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" toml:"level" json:"level"`
	File  string `yaml:"file" toml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			BaseURL:   "https://globe.adsbexchange.com",
			Referer:   "https://globe.adsbexchange.com/",
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; WOW64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/86.0.4240.198 Safari/537.36",
			Timeout:   20 * time.Second,
		},
		Roster: RosterConfig{
			Path:       "./ICAOAll.xlsx",
			Sheet:      "Sheet1",
			HeaderRows: 1,
		},
		Output: OutputConfig{
			BaseDirectory: "./track_data",
		},
		Checkpoint: CheckpointConfig{
			Path:  "./useLog.txt",
			Epoch: "2022/01/01",
		},
		Fetch: FetchConfig{
			Concurrency: 0,
		},
		Ledger: LedgerConfig{
			Enabled: true,
			Path:    "./trackcrawler.db",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
		Timezone: "Local",
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if baseURL := os.Getenv(EnvPrefix + "BASE_URL"); baseURL != "" {
		c.Source.BaseURL = baseURL
	}
	if referer := os.Getenv(EnvPrefix + "REFERER"); referer != "" {
		c.Source.Referer = referer
	}
	if userAgent := os.Getenv(EnvPrefix + "USER_AGENT"); userAgent != "" {
		c.Source.UserAgent = userAgent
	}
	if timeout := os.Getenv(EnvPrefix + "TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid %sTIMEOUT: %w", EnvPrefix, err)
		}
		c.Source.Timeout = d
	}

	if rosterPath := os.Getenv(EnvPrefix + "ROSTER"); rosterPath != "" {
		c.Roster.Path = rosterPath
	}
	if outputDir := os.Getenv(EnvPrefix + "OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if checkpointPath := os.Getenv(EnvPrefix + "CHECKPOINT"); checkpointPath != "" {
		c.Checkpoint.Path = checkpointPath
	}

	if concurrency := os.Getenv(EnvPrefix + "CONCURRENCY"); concurrency != "" {
		val, err := strconv.Atoi(concurrency)
		if err != nil {
			return fmt.Errorf("invalid %sCONCURRENCY: %w", EnvPrefix, err)
		}
		c.Fetch.Concurrency = val
	}

	if ledgerEnabled := os.Getenv(EnvPrefix + "LEDGER_ENABLED"); ledgerEnabled != "" {
		c.Ledger.Enabled = strings.ToLower(ledgerEnabled) == "true"
	}
	if ledgerPath := os.Getenv(EnvPrefix + "LEDGER_PATH"); ledgerPath != "" {
		c.Ledger.Path = ledgerPath
	}

	if logLevel := os.Getenv(EnvPrefix + "LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv(EnvPrefix + "LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}
	if tz := os.Getenv(EnvPrefix + "TIMEZONE"); tz != "" {
		c.Timezone = tz
	}

	return nil
}

// LoadFromFile loads configuration from a YAML or TOML file.
// The format is chosen from the file extension.
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), c); err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		"trackcrawler.yaml",
		"trackcrawler.yml",
		"trackcrawler.toml",
		filepath.Join(home, ".config", "trackcrawler", "config.yaml"),
		filepath.Join(home, ".config", "trackcrawler", "config.toml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Source.BaseURL == "" {
		errs = append(errs, errors.New("source base URL is required"))
	} else if u, err := url.Parse(c.Source.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("source base URL %q is not an absolute URL", c.Source.BaseURL))
	}
	if c.Source.Timeout <= 0 {
		errs = append(errs, errors.New("source timeout must be positive"))
	}

	if c.Roster.Path == "" {
		errs = append(errs, errors.New("roster path is required"))
	}
	if c.Roster.HeaderRows < 0 {
		errs = append(errs, errors.New("roster header rows cannot be negative"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	if c.Checkpoint.Path == "" {
		errs = append(errs, errors.New("checkpoint path is required"))
	}
	if _, err := time.Parse("2006/01/02", c.Checkpoint.Epoch); err != nil {
		errs = append(errs, fmt.Errorf("checkpoint epoch %q must be YYYY/MM/DD", c.Checkpoint.Epoch))
	}

	if c.Fetch.Concurrency < 0 {
		errs = append(errs, errors.New("fetch concurrency cannot be negative"))
	}

	if c.Ledger.Enabled && c.Ledger.Path == "" {
		errs = append(errs, errors.New("ledger path is required when the ledger is enabled"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Location resolves the configured timezone
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Save saves the configuration to a YAML file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
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

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if baseURL, ok := flags["base-url"].(string); ok && baseURL != "" {
		c.Source.BaseURL = baseURL
	}
	if rosterPath, ok := flags["roster"].(string); ok && rosterPath != "" {
		c.Roster.Path = rosterPath
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if checkpointPath, ok := flags["checkpoint"].(string); ok && checkpointPath != "" {
		c.Checkpoint.Path = checkpointPath
	}
	if concurrency, ok := flags["concurrency"].(int); ok && concurrency >= 0 {
		c.Fetch.Concurrency = concurrency
	}
	if timeout, ok := flags["timeout"].(time.Duration); ok && timeout > 0 {
		c.Source.Timeout = timeout
	}
	if noLedger, ok := flags["no-ledger"].(bool); ok && noLedger {
		c.Ledger.Enabled = false
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".trackcrawler.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
