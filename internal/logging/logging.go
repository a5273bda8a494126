// Package logging configures the process-wide logrus logger and its optional
// daily log files.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Options configure Setup
type Options struct {
	// Verbose forces debug level regardless of Level
	Verbose bool
	// Level is a logrus level name; empty means info
	Level string
	// Dir enables daily JSON log files in this directory
	Dir string
	// Output receives console logs; defaults to stderr so stdout stays free for results
	Output io.Writer
}

// Setup configures the standard logrus logger and returns the base entry
func Setup(opts Options) (*logrus.Entry, error) {
	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}
	if opts.Verbose {
		level = logrus.DebugLevel
	}
	logrus.SetLevel(level)

	// Use JSON logging format
	logrus.SetFormatter(&logrus.JSONFormatter{})

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	logrus.SetOutput(out)

	logrus.StandardLogger().ReplaceHooks(make(logrus.LevelHooks))
	if opts.Dir != "" {
		hook, err := NewDailyFileHook(opts.Dir)
		if err != nil {
			return nil, err
		}
		logrus.AddHook(hook)
	}

	return logrus.WithField("service", "tgreport"), nil
}
