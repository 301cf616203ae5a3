package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Source.Timeout != 20*time.Second {
		t.Errorf("Expected default timeout to be 20s, got %v", config.Source.Timeout)
	}

	if config.Checkpoint.Epoch != "2022/01/01" {
		t.Errorf("Expected default epoch to be 2022/01/01, got %s", config.Checkpoint.Epoch)
	}

	if config.Fetch.Concurrency != 0 {
		t.Errorf("Expected default concurrency to be unbounded (0), got %d", config.Fetch.Concurrency)
	}

	if err := config.Validate(); err != nil {
		t.Errorf("Expected default config to be valid, got %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv(EnvPrefix+"BASE_URL", "http://127.0.0.1:9999")
	t.Setenv(EnvPrefix+"ROSTER", "/tmp/roster.xlsx")
	t.Setenv(EnvPrefix+"OUTPUT_DIR", "/tmp/tracks")
	t.Setenv(EnvPrefix+"CONCURRENCY", "8")
	t.Setenv(EnvPrefix+"TIMEOUT", "5s")
	t.Setenv(EnvPrefix+"LEDGER_ENABLED", "false")
	t.Setenv(EnvPrefix+"LOG_LEVEL", "debug")

	config := DefaultConfig()
	require.NoError(t, config.LoadFromEnv())

	assert.Equal(t, "http://127.0.0.1:9999", config.Source.BaseURL)
	assert.Equal(t, "/tmp/roster.xlsx", config.Roster.Path)
	assert.Equal(t, "/tmp/tracks", config.Output.BaseDirectory)
	assert.Equal(t, 8, config.Fetch.Concurrency)
	assert.Equal(t, 5*time.Second, config.Source.Timeout)
	assert.False(t, config.Ledger.Enabled)
	assert.Equal(t, "debug", config.Logging.Level)
}

func TestLoadFromEnvInvalidNumber(t *testing.T) {
	t.Setenv(EnvPrefix+"CONCURRENCY", "many")

	config := DefaultConfig()
	err := config.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CONCURRENCY")
}

func TestLoadFromFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trackcrawler.yaml")
	content := `
source:
  base_url: "http://localhost:8080"
  timeout: 7s
roster:
  path: "./fleet.xlsx"
  sheet: "Fleet"
fetch:
  concurrency: 4
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config := DefaultConfig()
	require.NoError(t, config.LoadFromFile(path))

	assert.Equal(t, "http://localhost:8080", config.Source.BaseURL)
	assert.Equal(t, 7*time.Second, config.Source.Timeout)
	assert.Equal(t, "./fleet.xlsx", config.Roster.Path)
	assert.Equal(t, "Fleet", config.Roster.Sheet)
	assert.Equal(t, 4, config.Fetch.Concurrency)
	// Untouched sections keep their defaults
	assert.Equal(t, "./track_data", config.Output.BaseDirectory)
}

func TestLoadFromFileTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trackcrawler.toml")
	content := `
timezone = "UTC"

[output]
base_directory = "/data/tracks"

[checkpoint]
path = "/data/last_run.txt"
epoch = "2023/06/01"

[ledger]
enabled = false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config := DefaultConfig()
	require.NoError(t, config.LoadFromFile(path))

	assert.Equal(t, "UTC", config.Timezone)
	assert.Equal(t, "/data/tracks", config.Output.BaseDirectory)
	assert.Equal(t, "/data/last_run.txt", config.Checkpoint.Path)
	assert.Equal(t, "2023/06/01", config.Checkpoint.Epoch)
	assert.False(t, config.Ledger.Enabled)
}

func TestLoadFromFileMissing(t *testing.T) {
	config := DefaultConfig()
	err := config.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "relative base URL",
			mutate:  func(c *Config) { c.Source.BaseURL = "globe.example" },
			wantErr: "not an absolute URL",
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Source.Timeout = 0 },
			wantErr: "timeout must be positive",
		},
		{
			name:    "bad epoch",
			mutate:  func(c *Config) { c.Checkpoint.Epoch = "2022-01-01" },
			wantErr: "YYYY/MM/DD",
		},
		{
			name:    "negative concurrency",
			mutate:  func(c *Config) { c.Fetch.Concurrency = -1 },
			wantErr: "concurrency",
		},
		{
			name:    "unknown timezone",
			mutate:  func(c *Config) { c.Timezone = "Mars/Olympus" },
			wantErr: "invalid timezone",
		},
		{
			name:    "ledger without path",
			mutate:  func(c *Config) { c.Ledger.Path = "" },
			wantErr: "ledger path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	config := DefaultConfig()
	config.Roster.Path = ""
	config.Output.BaseDirectory = ""

	err := config.Validate()
	require.Error(t, err)
	assert.Equal(t, 2, len(strings.Split(err.Error(), "\n")))
}

func TestMergeCommandLineFlags(t *testing.T) {
	config := DefaultConfig()
	config.MergeCommandLineFlags(map[string]interface{}{
		"roster":      "/srv/roster.xlsx",
		"output":      "/srv/out",
		"concurrency": 16,
		"no-ledger":   true,
		"log-level":   "warn",
	})

	assert.Equal(t, "/srv/roster.xlsx", config.Roster.Path)
	assert.Equal(t, "/srv/out", config.Output.BaseDirectory)
	assert.Equal(t, 16, config.Fetch.Concurrency)
	assert.False(t, config.Ledger.Enabled)
	assert.Equal(t, "warn", config.Logging.Level)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trackcrawler.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  base_directory: from-file\nfetch:\n  concurrency: 2\n"), 0644))

	t.Setenv("HOME", dir)
	t.Setenv(EnvPrefix+"CONCURRENCY", "3")

	config, err := Load(path, map[string]interface{}{"output": "from-flag"})
	require.NoError(t, err)

	assert.Equal(t, "from-flag", config.Output.BaseDirectory)
	assert.Equal(t, 3, config.Fetch.Concurrency)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "trackcrawler.yaml")

	original := DefaultConfig()
	original.Fetch.Concurrency = 6
	require.NoError(t, original.Save(path))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, original, loaded)
}

func TestLocation(t *testing.T) {
	config := DefaultConfig()
	loc, err := config.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	config.Timezone = "UTC"
	loc, err = config.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}
