package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tgreport/internal/app"
	"tgreport/internal/notification"
)

// NewButtonsCmd creates the buttons subcommand
func NewButtonsCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "buttons",
		Short: "Send a message with an inline keyboard",
		Long: `Send the configured message with inline keyboard buttons.

Each --row flag adds one row of buttons. Buttons in a row are separated by ";"
and written as "Label|target": targets starting with http:// or https:// become
URL buttons, anything else is sent as callback data.

Example:
  tgreport buttons -m "Deploy finished" --row "Open|https://ci.example.com;Ack|ack:42"`,
		Args: cobra.NoArgs,
		RunE: runButtons,
	}

	c.Flags().StringArray("row", nil, "Row of buttons: \"Label|target;Label|target\" (repeatable)")

	return c
}

func runButtons(cmd *cobra.Command, args []string) error {
	rawRows, _ := cmd.Flags().GetStringArray("row")
	rows, err := parseButtonRows(rawRows)
	if err != nil {
		return err
	}

	rt, err := app.Setup()
	if err != nil {
		return err
	}

	text, err := app.ResolveMessage(rt.Config, cmd.InOrStdin())
	if err != nil {
		return err
	}

	res, err := rt.Notifier.SendWithButtons(cmd.Context(), text, rt.Config.ParseMode, rows)
	if err != nil {
		return fmt.Errorf("failed to send message with buttons: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "message id: %d\n", res.MessageID())
	return nil
}

// parseButtonRows turns --row values into an inline keyboard
func parseButtonRows(rawRows []string) ([][]notification.InlineKeyboardButton, error) {
	rows := make([][]notification.InlineKeyboardButton, 0, len(rawRows))
	for _, raw := range rawRows {
		var row []notification.InlineKeyboardButton
		for _, entry := range strings.Split(raw, ";") {
			entry = strings.TrimSpace(entry)
			if entry == "" {
				continue
			}
			label, target, ok := strings.Cut(entry, "|")
			label, target = strings.TrimSpace(label), strings.TrimSpace(target)
			if !ok || label == "" || target == "" {
				return nil, fmt.Errorf("invalid button %q: expected \"Label|target\"", entry)
			}

			button := notification.InlineKeyboardButton{Text: label}
			if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
				button.URL = target
			} else {
				button.CallbackData = target
			}
			row = append(row, button)
		}
		rows = append(rows, row)
	}

	if err := notification.ValidateKeyboard(rows); err != nil {
		return nil, err
	}
	return rows, nil
}
