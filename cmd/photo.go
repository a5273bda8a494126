package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"tgreport/internal/app"
	"tgreport/internal/notification"
)

// NewPhotoCmd creates the photo subcommand
func NewPhotoCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "photo <url|file_id>",
		Short: "Send a photo by URL or Telegram file_id",
		Long: `Send a photo to the configured chat.

Image URLs are checked with a HEAD request first: the server must answer 2xx
with an image/* content type and at most 5 MiB. File ids are sent as-is.`,
		Args: cobra.ExactArgs(1),
		RunE: runPhoto,
	}

	c.Flags().String("caption", "", "Photo caption, rendered with --parse-mode")
	c.Flags().Bool("skip-validation", false, "Do not check image URLs before sending")

	return c
}

func runPhoto(cmd *cobra.Command, args []string) error {
	rt, err := app.Setup()
	if err != nil {
		return err
	}

	caption, _ := cmd.Flags().GetString("caption")
	skipValidation, _ := cmd.Flags().GetBool("skip-validation")

	var validator *notification.ImageValidator
	if !skipValidation {
		validator = notification.NewImageValidator(
			&http.Client{Timeout: rt.Config.Timeout},
			rt.Logger.WithField("component", "image_validator"),
		)
	}

	res, err := rt.Notifier.SendPhoto(cmd.Context(), notification.Photo{
		Photo:               args[0],
		Caption:             caption,
		ParseMode:           rt.Config.ParseMode,
		DisableNotification: rt.Config.DisableNotification,
	}, validator)
	if err != nil {
		return fmt.Errorf("failed to send photo: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "message id: %d\n", res.MessageID())
	return nil
}
