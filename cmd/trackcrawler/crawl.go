package main

import (
	"time"

	"github.com/spf13/cobra"
	"trackcrawler/pkg/ui"
)

var (
	// Crawl command flags
	rosterPath  string
	outputDir   string
	checkpointF string
	baseURL     string
	concurrency int
	timeout     time.Duration
	noLedger    bool
)

// crawlCmd represents the crawl command
var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Fetch every day since the last run for the whole roster",
	Long: `Fetch the flight tracks of every aircraft in the roster.

Aircraft with an existing output directory are crawled from the checkpoint date
to today. Aircraft without one are crawled from the archive epoch. When the
roster is done the checkpoint is set to today.

Days that fail are recorded in the failure ledger and do not stop the run.
Interrupting the run with Ctrl+C keeps the previous checkpoint.`,
	Example: `  # Crawl using trackcrawler.yaml or the defaults
  trackcrawler crawl

  # Crawl a different roster into a different directory
  trackcrawler crawl --roster ./fleet.xlsx --output ./tracks

  # Limit in-flight requests per aircraft
  trackcrawler crawl --concurrency 16`,
	Args: cobra.NoArgs,
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	addRunFlags(crawlCmd)
	// Crawling is the default command
	addRunFlags(rootCmd)
	rootCmd.Args = cobra.NoArgs
	rootCmd.RunE = runCrawl
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&rosterPath, "roster", "r", "", "roster workbook listing the aircraft to crawl")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for track workbooks")
	cmd.Flags().StringVar(&checkpointF, "checkpoint", "", "checkpoint file holding the last crawl date")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "base URL of the history archive")
	cmd.Flags().IntVar(&concurrency, "concurrency", -1, "maximum in-flight requests per aircraft (0 = unbounded)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "per-request timeout")
	cmd.Flags().BoolVar(&noLedger, "no-ledger", false, "do not record failures in the ledger")
}

func runFlags() map[string]interface{} {
	return map[string]interface{}{
		"roster":      rosterPath,
		"output":      outputDir,
		"checkpoint":  checkpointF,
		"base-url":    baseURL,
		"concurrency": concurrency,
		"timeout":     timeout,
		"no-ledger":   noLedger,
	}
}

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(runFlags())
	if err != nil {
		return err
	}

	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	aircraft, err := a.loadRoster()
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	ui.PrintHighlight("[CRAWLING TRACK HISTORY]")
	report, err := a.crawler.Execute(ctx, aircraft)
	if report != nil {
		ui.PrintReport(report)
	}
	if err != nil {
		return err
	}

	ui.PrintSuccess("[CRAWL COMPLETE]")
	return nil
}
