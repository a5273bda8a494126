package logging

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultRetentionDays is how long log files are kept when nothing is configured
const DefaultRetentionDays = 30

// Cleaner removes *.log files older than the retention period
type Cleaner struct {
	dir       string
	retention time.Duration
	now       func() time.Time
	logger    *logrus.Entry
}

// NewCleaner creates a cleaner for dir; non-positive retentionDays means DefaultRetentionDays
func NewCleaner(dir string, retentionDays int, logger *logrus.Entry) *Cleaner {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	return &Cleaner{
		dir:       dir,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		now:       time.Now,
		logger:    logger,
	}
}

// Clean deletes expired log files and returns how many were removed.
// A missing directory is not an error.
func (c *Cleaner) Clean() (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read log directory: %w", err)
	}

	cutoff := c.now().Add(-c.retention)
	deleted := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".log") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(c.dir, entry.Name())); err != nil {
				c.logger.WithError(err).WithField("file", entry.Name()).Warn("Failed to remove old log file")
				continue
			}
			deleted++
		}
	}

	if deleted > 0 {
		c.logger.WithFields(logrus.Fields{
			"deleted_files":  deleted,
			"retention_days": int(c.retention / (24 * time.Hour)),
		}).Info("Removed old log files")
	}

	return deleted, nil
}

// Run cleans every interval until ctx is done. The first pass happens after
// one interval; callers clean once themselves at startup.
func (c *Cleaner) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := c.Clean(); err != nil {
				c.logger.WithError(err).Warn("Scheduled log cleanup failed")
			}
		}
	}
}
