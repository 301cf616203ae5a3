package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"trackcrawler/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	quiet      bool
	verbose    bool

	// logLevelOverride is the level forced on the loaded configuration, if any
	logLevelOverride string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "trackcrawler",
	Short: "Incremental crawler for aircraft flight track history",
	Long: `trackcrawler downloads the daily flight tracks of every aircraft in a roster
workbook and stores one workbook per aircraft per day.

Each run only covers the days since the previous run:
  - Aircraft seen before resume from the checkpoint date
  - New aircraft are backfilled from the archive epoch
  - Days that fail are recorded in the failure ledger and can be retried
  - Interrupted runs leave the checkpoint untouched`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet {
			ui.SetQuietMode(true)
		}

		// The progress display replaces informational logs unless asked for
		switch {
		case cmd.Flags().Changed("log-level"):
			logLevelOverride = logLevel
		case !verbose:
			logLevelOverride = "warn"
		}

		if cmd.Name() == "crawl" || cmd.Name() == "retry" || cmd == cmd.Root() {
			ui.PrintLogo()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./trackcrawler.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error, disabled)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show structured logs next to the progress display")

	rootCmd.SetVersionTemplate(`trackcrawler {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
