package globe

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"trackcrawler/pkg/models"
)

const (
	// DefaultBaseURL is the public trace history host
	DefaultBaseURL = "https://globe.adsbexchange.com"

	// HistoryPath is the root of the per-day trace archive
	HistoryPath = "/globe_history"
)

// ErrShortIdentifier is returned for identifiers that cannot yield a shard
var ErrShortIdentifier = errors.New("identifier must be at least 2 characters")

// Shard returns the archive partition for an identifier: its last two characters, case preserved
func Shard(identifier string) (string, error) {
	if len(identifier) < 2 {
		return "", fmt.Errorf("shard for %q: %w", identifier, ErrShortIdentifier)
	}
	return identifier[len(identifier)-2:], nil
}

// TraceURL constructs the URL of the full trace of identifier on day
func TraceURL(baseURL, identifier string, day time.Time) (string, error) {
	shard, err := Shard(identifier)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%s/%s/traces/%s/trace_full_%s.json",
		strings.TrimRight(baseURL, "/"),
		HistoryPath,
		day.Format("2006/01/02"),
		shard,
		identifier,
	), nil
}

// BuildTargets maps every day of a window to a fetch target, preserving day order
func BuildTargets(baseURL, identifier string, days []time.Time) ([]models.FetchTarget, error) {
	targets := make([]models.FetchTarget, 0, len(days))
	for _, day := range days {
		url, err := TraceURL(baseURL, identifier, day)
		if err != nil {
			return nil, err
		}
		targets = append(targets, models.FetchTarget{
			Identifier: identifier,
			Day:        day,
			URL:        url,
		})
	}
	return targets, nil
}

// RefererFor returns the referer the web map would send for identifier
func RefererFor(referer, identifier string) string {
	return fmt.Sprintf("%s?icao=%s", referer, identifier)
}
