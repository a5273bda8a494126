// Package app wires configuration, logging and the Telegram notifier together
// for the CLI commands.
package app

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"tgreport/internal/config"
	"tgreport/internal/logging"
	"tgreport/internal/notification"
	"tgreport/internal/report"
)

// Runtime holds everything a sending command needs
type Runtime struct {
	Config   *config.Config
	Logger   *logrus.Entry
	Notifier *notification.TelegramNotifier
}

// Setup loads configuration, configures logging and builds the notifier
func Setup() (*Runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.Setup(logging.Options{
		Verbose: cfg.Verbose,
		Level:   cfg.LogLevel,
		Dir:     cfg.LogDir,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	for _, warning := range cfg.Warnings {
		logger.Warn(warning)
	}

	if cfg.LogDir != "" {
		cleaner := logging.NewCleaner(cfg.LogDir, cfg.LogRetentionDays, logger.WithField("component", "log_cleaner"))
		if _, err := cleaner.Clean(); err != nil {
			logger.WithError(err).Warn("Failed to clean old log files")
		}
	}

	notifier := notification.NewTelegramNotifierWithClient(
		cfg.Token,
		cfg.ChatID,
		cfg.APIURL,
		&http.Client{Timeout: cfg.Timeout},
		logger.WithField("component", "telegram"),
	)

	return &Runtime{
		Config:   cfg,
		Logger:   logger,
		Notifier: notifier,
	}, nil
}

// ResolveMessage picks the text to send: the message setting, then the
// message file ("-" for stdin), then the built-in report.
func ResolveMessage(cfg *config.Config, stdin io.Reader) (string, error) {
	if cfg.Message != "" {
		return cfg.Message, nil
	}
	if cfg.MessageFile != "" {
		return ReadSource(cfg.MessageFile, stdin)
	}
	return report.Default(), nil
}

// ReadSource reads a file, or stdin when path is "-"
func ReadSource(path string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read message from %s: %w", path, err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}
