package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"trackcrawler/pkg/dates"
	"trackcrawler/pkg/ledger"
	"trackcrawler/pkg/ui"
)

// failuresCmd represents the failures command
var failuresCmd = &cobra.Command{
	Use:   "failures",
	Short: "List the aircraft-days the ledger still lists as failed",
	Long: `List every unresolved aircraft-day in the failure ledger together with the
last run that was recorded.`,
	Args: cobra.NoArgs,
	RunE: runFailures,
}

var failuresResolveCmd = &cobra.Command{
	Use:     "resolve <icao> <YYYY/MM/DD>",
	Short:   "Mark a failed day as resolved without fetching it",
	Example: `  trackcrawler failures resolve 780A3B 2024/11/02`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		day, err := dates.Parse(args[1])
		if err != nil {
			return err
		}

		l, err := openLedger()
		if err != nil {
			return err
		}
		defer l.Close()

		if err := l.Resolve(context.Background(), args[0], day); err != nil {
			return err
		}
		ui.PrintSuccess(fmt.Sprintf("Resolved %s %s", args[0], dates.Format(day)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(failuresCmd)
	failuresCmd.AddCommand(failuresResolveCmd)
}

func openLedger() (*ledger.Ledger, error) {
	cfg, log, err := loadConfig(nil)
	if err != nil {
		return nil, err
	}
	if !cfg.Ledger.Enabled {
		return nil, fmt.Errorf("the failure ledger is disabled")
	}
	return ledger.Open(cfg.Ledger.Path, log)
}

func runFailures(cmd *cobra.Command, args []string) error {
	l, err := openLedger()
	if err != nil {
		return err
	}
	defer l.Close()

	ctx := context.Background()

	last, err := l.LastRun(ctx)
	if err != nil {
		return err
	}
	if last == nil {
		ui.PrintWarning("No run recorded yet")
	} else {
		ui.PrintInfo("Last run", fmt.Sprintf("%s %s at %s: %d saved, %d empty, %d failed",
			last.Mode, last.ID, last.FinishedAt.Format("2006-01-02 15:04:05"),
			last.Persisted, last.Dropped, last.Failed))
	}

	failures, err := l.Unresolved(ctx)
	if err != nil {
		return err
	}
	if len(failures) == 0 {
		ui.PrintSuccess("No unresolved failures")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ICAO\tDAY\tSTAGE\tSTATUS\tATTEMPTS\tMESSAGE")
	for _, f := range failures {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
			f.Identifier, dates.Format(f.Day), f.Stage, f.StatusCode, f.Attempts, f.Message)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	ui.PrintInfo("Unresolved", fmt.Sprintf("%d (run 'trackcrawler retry' to fetch them again)", len(failures)))
	return nil
}
