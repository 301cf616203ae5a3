package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"trackcrawler/pkg/config"
	"trackcrawler/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage trackcrawler configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (TRACKCRAWLER_*, also read from .env)
  - Configuration file (YAML or TOML)
  - Default values (lowest priority)`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as 'trackcrawler.yaml'
unless a different path is specified with the --config flag.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration from every source and check it.

This command checks:
  - YAML or TOML syntax
  - Required fields
  - Value ranges
  - The timezone and epoch formats`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

const exampleConfig = `# trackcrawler configuration file
#
# Every option can also be set with an environment variable prefixed with
# TRACKCRAWLER_, for example TRACKCRAWLER_ROSTER or TRACKCRAWLER_CONCURRENCY.

# History archive
source:
  base_url: "https://globe.adsbexchange.com"
  referer: "https://globe.adsbexchange.com/"
  user_agent: "Mozilla/5.0 (Windows NT 10.0; WOW64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/86.0.4240.198 Safari/537.36"
  # Per-request timeout
  timeout: 20s

# Roster workbook: one aircraft per row (icao, model, type, nationality)
roster:
  path: "./ICAOAll.xlsx"
  # Leave empty to use the first sheet
  sheet: "Sheet1"
  header_rows: 1

# One directory per aircraft, one workbook per day
output:
  base_directory: "./track_data"

checkpoint:
  # Holds the date of the last completed run as YYYY/MM/DD
  path: "./useLog.txt"
  # First day crawled for an aircraft seen for the first time
  epoch: "2022/01/01"

fetch:
  # Maximum in-flight requests per aircraft; 0 fetches a whole window at once
  concurrency: 0

# SQLite record of runs and failed days
ledger:
  enabled: true
  path: "./trackcrawler.db"

logging:
  # debug, info, warn, error, disabled
  level: "info"
  # Leave empty to log to stderr only
  file: ""

# Timezone of the observed date of a trace: an IANA name or "Local"
timezone: "Local"
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = "trackcrawler.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(nil)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}
	fmt.Fprint(ui.Output, string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if err := cfg.LoadFromFile(configFile); err != nil {
		return err
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration is invalid:\n%w", err)
	}

	ui.PrintSuccess("Configuration is valid")
	return nil
}
