package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"trackcrawler/pkg/crawler"
	"trackcrawler/pkg/dates"
	"trackcrawler/pkg/models"
)

// ProgressDisplay prints one line per aircraft as the crawler works through the roster.
// It implements crawler.Observer.
type ProgressDisplay struct {
	mu      sync.Mutex
	done    int
	isDebug bool
}

// NewProgressDisplay creates a new progress display
func NewProgressDisplay(debug bool) *ProgressDisplay {
	return &ProgressDisplay{isDebug: debug}
}

// AircraftStarted announces the window about to be fetched
func (p *ProgressDisplay) AircraftStarted(index, total int, aircraft models.AircraftTarget, window models.CrawlWindow, targets int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if quiet {
		return
	}

	state := "resume"
	if window.New {
		state = "new"
	}
	fmt.Fprintf(Output, "%s %s %s %s → %s %s\n",
		Dim(fmt.Sprintf("[%d/%d]", index+1, total)),
		Cyan(aircraft.Identifier),
		Dim(state),
		dates.Format(window.Start),
		dates.Format(window.End),
		Dim(fmt.Sprintf("(%d days)", targets)),
	)
}

// AircraftFinished prints the per-aircraft tally
func (p *ProgressDisplay) AircraftFinished(index, total int, result crawler.AircraftResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	persisted := result.Count(crawler.StatusPersisted)
	failed := 0
	for _, o := range result.Outcomes {
		if o.Failed() {
			failed++
		}
	}

	if result.Err != nil {
		fmt.Fprintf(Output, "  %s %s skipped: %v\n", Red("✗"), result.Aircraft.Identifier, result.Err)
		return
	}
	if quiet {
		return
	}

	line := fmt.Sprintf("  %s %s", p.bar(total), Green(fmt.Sprintf("%d saved", persisted)))
	if dropped := result.Count(crawler.StatusDropped); dropped > 0 {
		line += fmt.Sprintf(" • %s", Dim(fmt.Sprintf("%d empty", dropped)))
	}
	if failed > 0 {
		line += fmt.Sprintf(" • %s", Red(fmt.Sprintf("%d failed", failed)))
	}
	fmt.Fprintln(Output, line)

	if p.isDebug {
		for _, o := range result.Outcomes {
			if o.Failed() {
				fmt.Fprintf(Output, "    %s %s %v\n", Red("✗"), dates.Format(o.Target.Day), o.Err)
			}
		}
	}
}

func (p *ProgressDisplay) bar(total int) string {
	const width = 20
	filled := 0
	if total > 0 {
		filled = p.done * width / total
	}
	return fmt.Sprintf("[%s%s] %d/%d",
		strings.Repeat("━", filled),
		strings.Repeat("─", width-filled),
		p.done, total)
}

// PrintReport prints the summary of a finished run
func PrintReport(report *crawler.Report) {
	elapsed := report.FinishedAt.Sub(report.StartedAt)

	if report.Interrupted {
		PrintWarning("Run interrupted, checkpoint not advanced")
	}

	if !quiet {
		fmt.Fprintf(Output, "\n%s %s run %s finished in %s\n",
			Green("✓"),
			report.Mode,
			Dim(report.RunID),
			formatDuration(elapsed),
		)
		fmt.Fprintf(Output, "  %s %d aircraft • %d days\n", Dim("•"), len(report.Aircraft), report.Targets())
		fmt.Fprintf(Output, "  %s %d saved • %d empty • %d failed\n", Dim("•"),
			report.Count(crawler.StatusPersisted),
			report.Count(crawler.StatusDropped),
			report.Failed(),
		)
		if !report.Checkpoint.IsZero() {
			fmt.Fprintf(Output, "  %s checkpoint %s\n", Dim("•"), dates.Format(report.Checkpoint))
		}
	}

	for _, a := range report.AircraftErrors() {
		PrintError("Skipped "+a.Aircraft.Identifier, a.Err)
	}
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
