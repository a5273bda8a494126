package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"tgreport/internal/app"
	"tgreport/internal/logging"
	"tgreport/internal/mcpserver"
	"tgreport/internal/notification"
)

// logCleanupInterval is how often serve mode sweeps the log directory
const logCleanupInterval = 24 * time.Hour

// NewServeCmd creates the serve subcommand
func NewServeCmd(version string) *cobra.Command {
	c := &cobra.Command{
		Use:   "serve",
		Short: "Run an MCP server on stdio exposing the send operations as tools",
		Long: `Serve the Model Context Protocol over stdin/stdout.

The tools send_telegram_text, send_telegram_markdown, send_telegram_photo and
send_telegram_with_buttons use the configured bot. Each accepts an optional
chatId that overrides the configured chat for that call. Logs go to stderr
and the log directory, never to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, version)
		},
	}

	c.Flags().Bool("skip-validation", false, "Do not check photo URLs before sending")

	return c
}

func runServe(cmd *cobra.Command, version string) error {
	rt, err := app.Setup()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if rt.Config.LogDir != "" {
		cleaner := logging.NewCleaner(rt.Config.LogDir, rt.Config.LogRetentionDays, rt.Logger.WithField("component", "log_cleaner"))
		go cleaner.Run(ctx, logCleanupInterval)
	}

	skipValidation, _ := cmd.Flags().GetBool("skip-validation")
	var validator *notification.ImageValidator
	if !skipValidation {
		validator = notification.NewImageValidator(
			&http.Client{Timeout: rt.Config.Timeout},
			rt.Logger.WithField("component", "image_validator"),
		)
	}

	srv := mcpserver.New(rt.Notifier, mcpserver.Options{
		Name:           "tgreport",
		Version:        version,
		ParseMode:      rt.Config.ParseMode,
		FallbackToText: rt.Config.FallbackToText,
		ChunkDelay:     rt.Config.ChunkDelay,
		Validator:      validator,
	}, rt.Logger.WithField("component", "mcp"))

	err = srv.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
