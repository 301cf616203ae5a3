package storage

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"trackcrawler/pkg/models"
)

const (
	headerSheet = "Sheet1"
	pointsSheet = "Sheet2"
)

var (
	headerColumns = []string{"icao", "reg", "type", "time_local", "time_stamp"}
	pointColumns  = []string{"Time", "Latitude", "Longitude", "Altitude", "Speed", "Track", "Geom_Rate"}
)

// writeUnit stores record as a two-sheet workbook at path via a temporary file in the same directory
func writeUnit(path string, record *models.DayRecord) error {
	f, err := buildWorkbook(record)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".unit-*.tmp")
	if err != nil {
		return eris.Wrap(err, "xlsx: create temporary file")
	}
	tmpPath := tmp.Name()

	if err := f.Write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return eris.Wrap(err, "xlsx: write workbook")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return eris.Wrap(err, "xlsx: sync workbook")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return eris.Wrap(err, "xlsx: close workbook")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return eris.Wrap(err, "xlsx: replace unit")
	}
	return nil
}

func buildWorkbook(record *models.DayRecord) (*xlsx.File, error) {
	f := xlsx.NewFile()

	header, err := f.AddSheet(headerSheet)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: add header sheet")
	}
	addStringRow(header, headerColumns)

	row := header.AddRow()
	row.AddCell().SetString(record.Header.Identifier)
	row.AddCell().SetString(record.Header.Registration)
	row.AddCell().SetString(record.Header.AircraftType)
	row.AddCell().SetString(record.Header.ObservedDate.Format(unitDateLayout))
	setNumber(row.AddCell(), record.Header.Timestamp)

	points, err := f.AddSheet(pointsSheet)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: add points sheet")
	}
	addStringRow(points, pointColumns)

	for _, p := range record.Points {
		row := points.AddRow()
		for _, v := range []float64{p.Sequence, p.Latitude, p.Longitude, p.Altitude, p.Speed, p.Track, p.VerticalRate} {
			setNumber(row.AddCell(), v)
		}
	}

	return f, nil
}

func addStringRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

// setNumber writes v, leaving the cell blank for NaN
func setNumber(cell *xlsx.Cell, v float64) {
	if math.IsNaN(v) {
		cell.SetString("")
		return
	}
	cell.SetFloat(v)
}

func readUnit(path string) (*models.DayRecord, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}

	header, ok := f.Sheet[headerSheet]
	if !ok {
		return nil, eris.Errorf("xlsx: sheet %q not found", headerSheet)
	}
	if len(header.Rows) < 2 {
		return nil, eris.Errorf("xlsx: sheet %q has no header row", headerSheet)
	}

	cells := header.Rows[1].Cells
	record := &models.DayRecord{
		Header: models.TraceHeader{
			Identifier:   cellString(cells, 0),
			Registration: cellString(cells, 1),
			AircraftType: cellString(cells, 2),
		},
	}

	observed, err := time.Parse(unitDateLayout, cellString(cells, 3))
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: invalid time_local")
	}
	record.Header.ObservedDate = observed

	if record.Header.Timestamp, err = cellNumber(cells, 4); err != nil {
		return nil, eris.Wrap(err, "xlsx: invalid time_stamp")
	}

	points, ok := f.Sheet[pointsSheet]
	if !ok {
		return nil, eris.Errorf("xlsx: sheet %q not found", pointsSheet)
	}

	for i, row := range points.Rows {
		if i == 0 {
			continue
		}
		values := make([]float64, len(pointColumns))
		for j := range values {
			if values[j], err = cellNumber(row.Cells, j); err != nil {
				return nil, eris.Wrapf(err, "xlsx: row %d column %s", i+1, pointColumns[j])
			}
		}
		record.Points = append(record.Points, models.TrackPoint{
			Sequence:     values[0],
			Latitude:     values[1],
			Longitude:    values[2],
			Altitude:     values[3],
			Speed:        values[4],
			Track:        values[5],
			VerticalRate: values[6],
		})
	}

	return record, nil
}

func cellString(cells []*xlsx.Cell, idx int) string {
	if idx >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[idx].String())
}

// cellNumber reads a numeric cell; a blank or missing cell is NaN
func cellNumber(cells []*xlsx.Cell, idx int) (float64, error) {
	if idx >= len(cells) || strings.TrimSpace(cells[idx].Value) == "" {
		return math.NaN(), nil
	}
	return cells[idx].Float()
}
