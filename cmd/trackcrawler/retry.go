package main

import (
	"github.com/spf13/cobra"
	"trackcrawler/pkg/ui"
)

// retryCmd represents the retry command
var retryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Fetch the days the failure ledger still lists as failed",
	Long: `Fetch again every aircraft-day the failure ledger lists as unresolved.

Days that succeed are marked resolved. Days that fail again have their attempt
count increased. The checkpoint is not changed.`,
	Args: cobra.NoArgs,
	RunE: runRetry,
}

func init() {
	rootCmd.AddCommand(retryCmd)
	addRunFlags(retryCmd)
}

func runRetry(cmd *cobra.Command, args []string) error {
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

	ui.PrintHighlight("[RETRYING FAILED DAYS]")
	report, err := a.crawler.RetryFailed(ctx, aircraft)
	if report != nil {
		ui.PrintReport(report)
	}
	return err
}
