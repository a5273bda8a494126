package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DailyFileHook appends every entry to app-YYYY-MM-DD.log and error-level
// entries additionally to errors-YYYY-MM-DD.log
type DailyFileHook struct {
	dir       string
	formatter logrus.Formatter
	now       func() time.Time

	mu sync.Mutex
}

// NewDailyFileHook creates dir if needed and returns a hook writing into it
func NewDailyFileHook(dir string) (*DailyFileHook, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return &DailyFileHook{
		dir:       dir,
		formatter: &logrus.JSONFormatter{},
		now:       time.Now,
	}, nil
}

// Levels implements logrus.Hook
func (h *DailyFileHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements logrus.Hook
func (h *DailyFileHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	date := h.now().Format("2006-01-02")
	if err := appendFile(filepath.Join(h.dir, "app-"+date+".log"), line); err != nil {
		return err
	}
	if entry.Level <= logrus.ErrorLevel {
		return appendFile(filepath.Join(h.dir, "errors-"+date+".log"), line)
	}
	return nil
}

func appendFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
