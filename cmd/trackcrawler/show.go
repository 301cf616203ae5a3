package main

import (
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"trackcrawler/pkg/dates"
	"trackcrawler/pkg/storage"
	"trackcrawler/pkg/ui"
)

var showLimit int

// showCmd prints a stored track workbook
var showCmd = &cobra.Command{
	Use:   "show <file.xlsx>",
	Short: "Print the header and track points of a stored day",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		record, err := storage.LoadUnit(args[0])
		if err != nil {
			return err
		}

		h := record.Header
		ui.PrintInfo("ICAO", h.Identifier)
		ui.PrintInfo("Registration", h.Registration)
		ui.PrintInfo("Type", h.AircraftType)
		ui.PrintInfo("Date", dates.Format(h.ObservedDate))
		ui.PrintInfo("Points", fmt.Sprintf("%d", len(record.Points)))

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "TIME\tLAT\tLON\tALT\tSPEED\tTRACK\tRATE\t")
		for i, p := range record.Points {
			if showLimit > 0 && i >= showLimit {
				fmt.Fprintf(w, "… %d more\t\t\t\t\t\t\t\n", len(record.Points)-showLimit)
				break
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
				cell(p.Sequence), cell(p.Latitude), cell(p.Longitude),
				cell(p.Altitude), cell(p.Speed), cell(p.Track), cell(p.VerticalRate))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().IntVarP(&showLimit, "limit", "n", 20, "maximum number of points to print (0 = all)")
}

func cell(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%g", v)
}
