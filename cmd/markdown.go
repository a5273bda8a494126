package cmd

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"tgreport/internal/app"
	"tgreport/internal/notification"
)

// NewMarkdownCmd creates the markdown subcommand
func NewMarkdownCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "markdown [file|-]",
		Short: "Convert a Markdown document to Telegram HTML and send it",
		Long: `Convert Markdown to the HTML subset Telegram understands and send it.

Documents longer than one Telegram message are split into numbered parts
that are sent in order. Parts Telegram rejects are resent as plain text
unless --no-fallback is given. Without a file argument the configured
message (or the built-in report) is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runMarkdown,
	}

	c.Flags().Bool("no-fallback", false, "Fail instead of resending rejected parts as plain text")

	return c
}

func runMarkdown(cmd *cobra.Command, args []string) error {
	rt, err := app.Setup()
	if err != nil {
		return err
	}

	var text string
	if len(args) == 1 {
		text, err = app.ReadSource(args[0], cmd.InOrStdin())
	} else {
		text, err = app.ResolveMessage(rt.Config, cmd.InOrStdin())
	}
	if err != nil {
		return err
	}

	noFallback, _ := cmd.Flags().GetBool("no-fallback")
	opts := notification.MarkdownOptions{
		FallbackToText: rt.Config.FallbackToText && !noFallback,
		ChunkDelay:     rt.Config.ChunkDelay,
	}

	result, err := rt.Notifier.SendMarkdown(cmd.Context(), text, opts)
	if err != nil {
		return fmt.Errorf("failed to send markdown: %w", err)
	}

	rt.Logger.WithFields(logrus.Fields{
		"total_chunks":  result.TotalChunks,
		"used_fallback": result.UsedFallback,
	}).Info("Markdown message delivered")

	ids := make([]string, len(result.MessageIDs))
	for i, id := range result.MessageIDs {
		ids[i] = fmt.Sprint(id)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "parts: %d\n", result.TotalChunks)
	fmt.Fprintf(cmd.OutOrStdout(), "message ids: %s\n", strings.Join(ids, ", "))
	if result.UsedFallback {
		fmt.Fprintln(cmd.OutOrStdout(), "note: some parts were sent as plain text")
	}

	return nil
}
