// Package roster reads the list of aircraft to crawl from a workbook.
//
// Each data row holds four columns: ICAO identifier, model, type and
// nationality. Row order is crawl order.
package roster

import (
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	errs "trackcrawler/pkg/errors"
	"trackcrawler/pkg/logger"
	"trackcrawler/pkg/models"
)

// Columns expected in every data row
const (
	colIdentifier = iota
	colModel
	colType
	colNationality
)

// Options configures how the roster workbook is read
type Options struct {
	// Sheet selects the sheet by name; the first sheet is used when empty
	Sheet string
	// HeaderRows is the number of leading rows to skip
	HeaderRows int
	Logger     logger.Logger
}

// Load reads the roster at path. Blank rows are skipped and repeated identifiers keep their first row.
// Every failure is a configuration fault since no crawl can start without a roster.
func Load(path string, opts Options) ([]models.AircraftTarget, error) {
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}

	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, errs.NewConfigurationError("failed to open roster", eris.Wrapf(err, "xlsx: open %s", path))
	}

	sheet, err := getSheet(f, opts.Sheet)
	if err != nil {
		return nil, errs.NewConfigurationError("failed to read roster", err)
	}

	var (
		targets []models.AircraftTarget
		seen    = make(map[string]int)
	)
	for i, row := range sheet.Rows {
		if i < opts.HeaderRows || row == nil {
			continue
		}
		line := i + 1

		target := models.AircraftTarget{
			Identifier:  identifier(row.Cells, colIdentifier),
			Model:       text(row.Cells, colModel),
			Type:        text(row.Cells, colType),
			Nationality: text(row.Cells, colNationality),
		}
		if target == (models.AircraftTarget{}) {
			continue
		}

		if len(target.Identifier) < 2 {
			return nil, errs.NewConfigurationError("invalid roster",
				eris.Errorf("roster: row %d: identifier %q must be at least 2 characters", line, target.Identifier))
		}

		if first, dup := seen[target.Identifier]; dup {
			log.WarnWithFields("Duplicate roster identifier ignored", map[string]interface{}{
				"icao":      target.Identifier,
				"row":       line,
				"first_row": first,
			})
			continue
		}
		seen[target.Identifier] = line
		targets = append(targets, target)
	}

	log.InfoWithFields("Roster loaded", map[string]interface{}{
		"path":     path,
		"sheet":    sheet.Name,
		"aircraft": len(targets),
	})
	return targets, nil
}

func getSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name != "" {
		sheet, ok := f.Sheet[name]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", name)
		}
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("xlsx: workbook has no sheets")
	}
	return f.Sheets[0], nil
}

func text(cells []*xlsx.Cell, idx int) string {
	if idx >= len(cells) || cells[idx] == nil {
		return ""
	}
	return strings.TrimSpace(cells[idx].String())
}

// identifier reads the ICAO column. Spreadsheet tools store all-digit codes as numbers,
// which must come back without a fraction or exponent.
func identifier(cells []*xlsx.Cell, idx int) string {
	if idx >= len(cells) || cells[idx] == nil {
		return ""
	}
	cell := cells[idx]
	if cell.Type() == xlsx.CellTypeNumeric {
		if v, err := cell.Float(); err == nil && v == math.Trunc(v) {
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return strings.TrimSpace(cell.String())
}
