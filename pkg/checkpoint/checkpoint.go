package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"trackcrawler/pkg/dates"
	"trackcrawler/pkg/logger"
)

// Store persists the single "last completed crawl date" of the crawler
type Store struct {
	path   string
	epoch  time.Time
	logger logger.Logger
}

// NewStore creates a checkpoint store backed by the file at path.
// epoch is returned by Read while no checkpoint has been written.
func NewStore(path string, epoch time.Time, log logger.Logger) *Store {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Store{
		path:   path,
		epoch:  dates.Day(epoch),
		logger: log,
	}
}

// Path returns the checkpoint file location
func (s *Store) Path() string {
	return s.path
}

// Exists checks if a non-empty checkpoint file exists
func (s *Store) Exists() bool {
	info, err := os.Stat(s.path)
	return err == nil && info.Size() > 0
}

// Read returns the last completed crawl date.
// A missing or empty file means first run and yields the epoch.
func (s *Store) Read() (time.Time, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.InfoWithFields("No checkpoint found, first run", map[string]interface{}{
				"path":  s.path,
				"epoch": dates.Format(s.epoch),
			})
			return s.epoch, nil
		}
		return time.Time{}, fmt.Errorf("failed to read checkpoint file: %w", err)
	}

	content := strings.TrimSpace(string(data))
	if content == "" {
		s.logger.InfoWithFields("Checkpoint file is empty, first run", map[string]interface{}{
			"path": s.path,
		})
		return s.epoch, nil
	}

	day, err := dates.Parse(content)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to decode checkpoint: %w", err)
	}

	s.logger.InfoWithFields("Checkpoint loaded", map[string]interface{}{
		"path":           s.path,
		"last_completed": content,
	})
	return day, nil
}

// Write replaces the stored date atomically
func (s *Store) Write(day time.Time) error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create checkpoint directory: %w", err)
		}
	}

	tempPath := s.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}

	if _, err := file.WriteString(dates.Format(day)); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	s.logger.InfoWithFields("Checkpoint saved", map[string]interface{}{
		"path":           s.path,
		"last_completed": dates.Format(day),
	})
	return nil
}
