package models

import "time"

// AircraftTarget is one row of the roster. Identity is Identifier.
type AircraftTarget struct {
	Identifier  string `json:"icao"`
	Model       string `json:"model"`
	Type        string `json:"type"`
	Nationality string `json:"nationality"`
}

// CrawlWindow is the inclusive range of calendar days to crawl for one aircraft
type CrawlWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	// New is true when the aircraft had never been crawled before this run
	New bool `json:"new"`
}

// Empty reports whether the window contains no day
func (w CrawlWindow) Empty() bool {
	return w.Start.After(w.End)
}

// FetchTarget identifies one remote trace document
type FetchTarget struct {
	Identifier string    `json:"icao"`
	Day        time.Time `json:"day"`
	URL        string    `json:"url"`
}

// TraceHeader is the per-day summary of a trace document
type TraceHeader struct {
	Identifier   string    `json:"icao"`
	Registration string    `json:"r"`
	AircraftType string    `json:"t"`
	ObservedDate time.Time `json:"observed_date"`
	// Timestamp is the raw epoch seconds the source stamped the document with
	Timestamp float64 `json:"timestamp"`
}

// TrackPoint is one position report of a trace.
// Fields the source reported as null hold NaN.
type TrackPoint struct {
	// Sequence is the offset in seconds from the header timestamp
	Sequence     float64 `json:"sequence"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Altitude     float64 `json:"altitude"`
	Speed        float64 `json:"speed"`
	Track        float64 `json:"track"`
	VerticalRate float64 `json:"vertical_rate"`
}

// DayRecord is the parsed track of one aircraft for one calendar day
type DayRecord struct {
	Header TraceHeader  `json:"header"`
	Points []TrackPoint `json:"points"`
}

// Persistable reports whether the record carries both a header and at least one point
func (r *DayRecord) Persistable() bool {
	return r != nil && r.Header.Identifier != "" && len(r.Points) > 0
}
