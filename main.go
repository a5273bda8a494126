package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"tgreport/cmd"
	"tgreport/internal/app"
	"tgreport/internal/markdown"
	"tgreport/internal/notification"
)

var (
	version = "dev"
	commit  = "unknown"
)

// flagBindings maps config keys to the flags that override them
var flagBindings = map[string]string{
	"config":       "config",
	"token":        "token",
	"chat_id":      "chat-id",
	"parse_mode":   "parse-mode",
	"api_url":      "api-url",
	"timeout":      "timeout",
	"message":      "message",
	"message_file": "message-file",
	"log_dir":      "log-dir",
	"verbose":      "verbose",
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logrus.Fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	var rootCmd = &cobra.Command{
		Use:   "tgreport",
		Short: "Send status reports to a Telegram chat",
		Long: `tgreport posts a message to a Telegram chat through the Bot API and prints
the HTTP status and the raw JSON reply.

Without a message it sends the built-in completion report. Subcommands send
Markdown documents, photos and messages with inline keyboards.`,
		Args:          cobra.NoArgs,
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tgreport version %s (commit: %s)\n", version, commit)
		},
	})
	rootCmd.AddCommand(
		cmd.NewConfigureCmd(),
		cmd.NewMarkdownCmd(),
		cmd.NewPhotoCmd(),
		cmd.NewButtonsCmd(),
		cmd.NewServeCmd(version),
	)

	// Add flags
	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "Configuration file path")
	flags.String("token", "", "Telegram bot token (env: TGR_TOKEN or TELEGRAM_BOT_TOKEN)")
	flags.String("chat-id", "", "Destination chat id or @channel (env: TGR_CHAT_ID or TELEGRAM_CHAT_ID)")
	flags.String("parse-mode", notification.ParseModeHTML, "Parse mode: 'HTML', 'MarkdownV2', 'Markdown' or empty for plain text")
	flags.String("api-url", notification.DefaultAPIURL, "Bot API base URL")
	flags.Duration("timeout", notification.DefaultHTTPTimeout, "HTTP timeout for Bot API calls")
	flags.StringP("message", "m", "", "Message text (defaults to the built-in report)")
	flags.String("message-file", "", "Read the message from a file, or '-' for stdin")
	flags.String("log-dir", "", "Directory for daily log files (disabled when empty)")
	flags.BoolP("verbose", "v", false, "Enable verbose logging")

	// Bind flags to viper
	for key, name := range flagBindings {
		if err := viper.BindPFlag(key, lookupFlag(rootCmd, name)); err != nil {
			logrus.WithError(err).Fatal("Failed to bind flags")
		}
	}

	return rootCmd
}

func lookupFlag(c *cobra.Command, name string) *pflag.Flag {
	if f := c.PersistentFlags().Lookup(name); f != nil {
		return f
	}
	return c.Flags().Lookup(name)
}

func run(c *cobra.Command, args []string) error {
	rt, err := app.Setup()
	if err != nil {
		return err
	}

	text, err := app.ResolveMessage(rt.Config, c.InOrStdin())
	if err != nil {
		return err
	}

	// HTML mode sends Markdown syntax literally; point it out rather than rewrite the text
	if rt.Config.ParseMode == notification.ParseModeHTML && markdown.LooksLikeMarkdown(text) {
		rt.Logger.Warn("Message looks like Markdown but parse_mode is HTML; it is sent unchanged (use 'tgreport markdown' to convert it)")
	}

	start := time.Now()
	res, err := rt.Notifier.Send(c.Context(), text, rt.Config.ParseMode)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	rt.Logger.WithFields(logrus.Fields{
		"status_code": res.StatusCode,
		"elapsed":     time.Since(start).String(),
	}).Debug("Send completed")

	printResult(c.OutOrStdout(), res)
	return nil
}

// printResult writes the two result lines: status code and raw reply body
func printResult(w io.Writer, res *notification.Result) {
	fmt.Fprintf(w, "status: %d\n", res.StatusCode)
	fmt.Fprintf(w, "response: %s\n", res.String())
}
