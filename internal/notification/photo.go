package notification

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
)

// Photo describes a sendPhoto call
type Photo struct {
	// Photo is an HTTP(S) URL or a Telegram file_id
	Photo               string
	Caption             string
	ParseMode           string
	DisableNotification bool
}

type sendPhotoPayload struct {
	ChatID              string `json:"chat_id"`
	Photo               string `json:"photo"`
	Caption             string `json:"caption,omitempty"`
	ParseMode           string `json:"parse_mode,omitempty"`
	DisableNotification bool   `json:"disable_notification,omitempty"`
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// SendPhoto sends a photo with an optional caption. URLs are checked with
// validator first; file_ids are passed through. A nil validator skips the check.
func (n *TelegramNotifier) SendPhoto(ctx context.Context, photo Photo, validator *ImageValidator) (*Result, error) {
	if strings.TrimSpace(photo.Photo) == "" {
		return nil, ErrMissingPhoto
	}
	if err := n.checkDestination(); err != nil {
		return nil, err
	}

	logger := n.logger.WithFields(logrus.Fields{
		"chat_id":        n.chatID,
		"caption_length": len(photo.Caption),
	})

	if validator != nil && isURL(photo.Photo) {
		if err := validator.Validate(ctx, photo.Photo); err != nil {
			return nil, err
		}
	}

	payload := sendPhotoPayload{
		ChatID:              n.chatID,
		Photo:               photo.Photo,
		DisableNotification: photo.DisableNotification,
	}
	// parse_mode only means something when there is a caption to render
	if photo.Caption != "" {
		payload.Caption = photo.Caption
		payload.ParseMode = photo.ParseMode
	}

	logger.Debug("Sending Telegram photo")

	res, err := n.call(ctx, "sendPhoto", payload)
	if err != nil {
		logger.WithError(err).Error("Failed to send Telegram photo")
		return nil, err
	}
	if err := res.Err(); err != nil {
		logger.WithError(err).Error("Telegram rejected photo")
		return res, err
	}

	logger.WithField("message_id", res.MessageID()).Info("Telegram photo sent")
	return res, nil
}
