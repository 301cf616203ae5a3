// Package trace decodes full-day trace documents into DayRecords.
package trace

import (
	"fmt"
	"math"
	"time"

	"github.com/tidwall/gjson"
	"trackcrawler/pkg/dates"
	errs "trackcrawler/pkg/errors"
	"trackcrawler/pkg/models"
)

// Positions inside one trace tuple. Index 6 carries flags the crawler does not keep.
const (
	idxSequence     = 0
	idxLatitude     = 1
	idxLongitude    = 2
	idxAltitude     = 3
	idxSpeed        = 4
	idxTrack        = 5
	idxVerticalRate = 7

	minTupleWidth = idxVerticalRate + 1
)

// groundAltitude is how the source marks an aircraft on the ground
const groundAltitude = "ground"

// Parser converts raw payloads to DayRecords.
// Location decides which calendar day a document timestamp falls on.
type Parser struct {
	Location *time.Location
}

// NewParser creates a parser resolving observed dates in loc (time.Local when nil)
func NewParser(loc *time.Location) *Parser {
	if loc == nil {
		loc = time.Local
	}
	return &Parser{Location: loc}
}

// Parse decodes one payload. Missing or mistyped fields yield a parse error.
// An empty trace gives a record without points.
func (p *Parser) Parse(payload []byte) (*models.DayRecord, error) {
	if !gjson.ValidBytes(payload) {
		return nil, errs.NewParseError("payload is not valid JSON", nil)
	}
	doc := gjson.ParseBytes(payload)
	if !doc.IsObject() {
		return nil, errs.NewParseError("payload is not a JSON object", nil)
	}

	identifier, err := requireString(doc, "icao")
	if err != nil {
		return nil, err
	}
	registration, err := requireString(doc, "r")
	if err != nil {
		return nil, err
	}
	aircraftType, err := requireString(doc, "t")
	if err != nil {
		return nil, err
	}

	ts := doc.Get("timestamp")
	if ts.Type != gjson.Number {
		return nil, missingOrMistyped("timestamp", ts, "number")
	}

	rawTrace := doc.Get("trace")
	if !rawTrace.IsArray() {
		return nil, missingOrMistyped("trace", rawTrace, "array")
	}

	record := &models.DayRecord{
		Header: models.TraceHeader{
			Identifier:   identifier,
			Registration: registration,
			AircraftType: aircraftType,
			ObservedDate: p.observedDate(ts.Float()),
			Timestamp:    ts.Float(),
		},
	}

	tuples := rawTrace.Array()
	record.Points = make([]models.TrackPoint, 0, len(tuples))
	for i, tuple := range tuples {
		point, err := parsePoint(tuple)
		if err != nil {
			return nil, errs.NewParseError(fmt.Sprintf("trace[%d]", i), err)
		}
		record.Points = append(record.Points, point)
	}

	return record, nil
}

func (p *Parser) observedDate(timestamp float64) time.Time {
	loc := p.Location
	if loc == nil {
		loc = time.Local
	}
	sec, frac := math.Modf(timestamp)
	return dates.Day(time.Unix(int64(sec), int64(frac*1e9)).In(loc))
}

func requireString(doc gjson.Result, field string) (string, error) {
	v := doc.Get(field)
	if v.Type != gjson.String {
		return "", missingOrMistyped(field, v, "string")
	}
	return v.Str, nil
}

func missingOrMistyped(field string, v gjson.Result, want string) error {
	if !v.Exists() {
		return errs.NewParseError(fmt.Sprintf("missing field %q", field), nil)
	}
	return errs.NewParseError(fmt.Sprintf("field %q is %s, want %s", field, v.Type, want), nil)
}

func parsePoint(tuple gjson.Result) (models.TrackPoint, error) {
	if !tuple.IsArray() {
		return models.TrackPoint{}, fmt.Errorf("element is %s, want array", tuple.Type)
	}
	values := tuple.Array()
	if len(values) < minTupleWidth {
		return models.TrackPoint{}, fmt.Errorf("element has %d entries, want at least %d", len(values), minTupleWidth)
	}

	var point models.TrackPoint
	fields := []struct {
		idx  int
		name string
		dst  *float64
	}{
		{idxSequence, "sequence", &point.Sequence},
		{idxLatitude, "latitude", &point.Latitude},
		{idxLongitude, "longitude", &point.Longitude},
		{idxAltitude, "altitude", &point.Altitude},
		{idxSpeed, "speed", &point.Speed},
		{idxTrack, "track", &point.Track},
		{idxVerticalRate, "vertical rate", &point.VerticalRate},
	}
	for _, f := range fields {
		v, err := number(values[f.idx], f.idx == idxAltitude)
		if err != nil {
			return models.TrackPoint{}, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = v
	}
	return point, nil
}

// number reads a numeric tuple entry; null is NaN
func number(v gjson.Result, allowGround bool) (float64, error) {
	switch v.Type {
	case gjson.Number:
		return v.Float(), nil
	case gjson.Null:
		return math.NaN(), nil
	case gjson.String:
		if allowGround && v.Str == groundAltitude {
			return 0, nil
		}
	}
	return 0, fmt.Errorf("unexpected value %s", v.Raw)
}
