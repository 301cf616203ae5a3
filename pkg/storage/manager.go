package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"trackcrawler/pkg/dates"
	errs "trackcrawler/pkg/errors"
	"trackcrawler/pkg/logger"
	"trackcrawler/pkg/models"
)

// unitDateLayout is the date suffix of an output unit file name
const unitDateLayout = "2006_01_02"

// Extension of every output unit
const Extension = ".xlsx"

// Manager owns the output tree: one directory per aircraft, one workbook per aircraft-day
type Manager struct {
	outputDir string
	epoch     time.Time
	known     map[string]bool
	mu        sync.RWMutex
	logger    logger.Logger
}

// NewManager creates a storage manager rooted at outputDir.
// New aircraft are crawled from epoch. An output root that cannot be created is a configuration fault.
func NewManager(outputDir string, epoch time.Time, log logger.Logger) (*Manager, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, errs.NewConfigurationError("failed to create output directory", err)
	}

	manager := &Manager{
		outputDir: outputDir,
		epoch:     dates.Day(epoch),
		known:     make(map[string]bool),
		logger:    log,
	}

	if err := manager.scanExistingDirs(); err != nil {
		return nil, errs.NewConfigurationError("failed to scan output directory", err)
	}

	return manager, nil
}

// scanExistingDirs records the aircraft directories already present
func (m *Manager) scanExistingDirs() error {
	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			m.known[entry.Name()] = true
		}
	}

	m.logger.DebugWithFields("Scanned output directory", map[string]interface{}{
		"output_dir": m.outputDir,
		"aircraft":   len(m.known),
	})
	return nil
}

// DirName derives the directory name of an aircraft from its roster row
func DirName(aircraft models.AircraftTarget) string {
	return sanitize(fmt.Sprintf("%s_%s_%s_%s",
		aircraft.Identifier, aircraft.Model, aircraft.Type, aircraft.Nationality))
}

// UnitName returns the file name of the output unit of aircraft on day
func UnitName(aircraft models.AircraftTarget, day time.Time) string {
	dir := DirName(aircraft)
	return fmt.Sprintf("%s_%s%s", dir, day.Format(unitDateLayout), Extension)
}

// sanitize replaces characters that are not allowed in file names
func sanitize(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if r < 0x20 {
			return '_'
		}
		return r
	}, name)
	return strings.TrimSpace(name)
}

// AircraftDir returns the absolute location of an aircraft directory
func (m *Manager) AircraftDir(aircraft models.AircraftTarget) string {
	return filepath.Join(m.outputDir, DirName(aircraft))
}

// UnitPath returns where the unit of aircraft on day is stored
func (m *Manager) UnitPath(aircraft models.AircraftTarget, day time.Time) string {
	return filepath.Join(m.AircraftDir(aircraft), UnitName(aircraft, day))
}

// IsKnown checks whether the aircraft already has a directory
func (m *Manager) IsKnown(aircraft models.AircraftTarget) bool {
	name := DirName(aircraft)

	m.mu.RLock()
	known := m.known[name]
	m.mu.RUnlock()
	if known {
		return true
	}

	// The directory may have been created outside this process
	info, err := os.Stat(filepath.Join(m.outputDir, name))
	if err != nil || !info.IsDir() {
		return false
	}

	m.mu.Lock()
	m.known[name] = true
	m.mu.Unlock()
	return true
}

// Resolve computes the crawl window of an aircraft.
// An aircraft without a directory is new: its directory is created and the window starts at the epoch.
// A known aircraft resumes from checkpoint. The window always ends today.
func (m *Manager) Resolve(aircraft models.AircraftTarget, checkpoint, today time.Time) (models.CrawlWindow, error) {
	window := models.CrawlWindow{
		Start: dates.Day(checkpoint),
		End:   dates.Day(today),
	}

	if m.IsKnown(aircraft) {
		return window, nil
	}

	if err := m.ensureDir(aircraft); err != nil {
		return models.CrawlWindow{}, err
	}

	window.Start = m.epoch
	window.New = true

	m.logger.InfoWithFields("New aircraft, crawling from epoch", map[string]interface{}{
		"icao":  aircraft.Identifier,
		"dir":   DirName(aircraft),
		"epoch": dates.Format(m.epoch),
	})
	return window, nil
}

func (m *Manager) ensureDir(aircraft models.AircraftTarget) error {
	name := DirName(aircraft)
	if err := os.MkdirAll(filepath.Join(m.outputDir, name), 0755); err != nil {
		return errs.NewPersistError(fmt.Sprintf("failed to create directory for %s", aircraft.Identifier), err)
	}

	m.mu.Lock()
	m.known[name] = true
	m.mu.Unlock()
	return nil
}

// Persist writes the unit of one aircraft-day, replacing any previous unit for that day.
// Records without a header or without points are rejected.
func (m *Manager) Persist(aircraft models.AircraftTarget, record *models.DayRecord) (string, error) {
	if !record.Persistable() {
		return "", errs.NewPersistError("record has no header or no points", nil)
	}

	if err := m.ensureDir(aircraft); err != nil {
		return "", err
	}

	path := m.UnitPath(aircraft, record.Header.ObservedDate)
	if err := writeUnit(path, record); err != nil {
		return "", errs.NewPersistError(fmt.Sprintf("failed to write %s", filepath.Base(path)), err)
	}

	m.logger.DebugWithFields("Unit saved", map[string]interface{}{
		"icao":   aircraft.Identifier,
		"day":    dates.Format(record.Header.ObservedDate),
		"points": len(record.Points),
		"path":   path,
	})
	return path, nil
}

// Load reads a unit back from disk
func (m *Manager) Load(path string) (*models.DayRecord, error) {
	return LoadUnit(path)
}

// LoadUnit reads the unit at path without touching an output directory
func LoadUnit(path string) (*models.DayRecord, error) {
	return readUnit(path)
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// GetKnownCount returns the number of aircraft directories seen so far
func (m *Manager) GetKnownCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.known)
}
