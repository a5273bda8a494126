package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// InlineKeyboardButton is one button under a message
type InlineKeyboardButton struct {
	Text              string `json:"text"`
	URL               string `json:"url,omitempty"`
	CallbackData      string `json:"callback_data,omitempty"`
	SwitchInlineQuery string `json:"switch_inline_query,omitempty"`
}

// InlineKeyboardMarkup is the reply_markup object for inline keyboards
type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

type sendButtonsPayload struct {
	ChatID      string               `json:"chat_id"`
	Text        string               `json:"text"`
	ParseMode   string               `json:"parse_mode,omitempty"`
	ReplyMarkup InlineKeyboardMarkup `json:"reply_markup"`
}

// ValidateKeyboard checks that rows form a usable inline keyboard
func ValidateKeyboard(rows [][]InlineKeyboardButton) error {
	if len(rows) == 0 {
		return fmt.Errorf("%w: at least one row of buttons is required", ErrInvalidButtons)
	}

	for i, row := range rows {
		if len(row) == 0 {
			return fmt.Errorf("%w: row %d is empty", ErrInvalidButtons, i+1)
		}
		for j, button := range row {
			if strings.TrimSpace(button.Text) == "" {
				return fmt.Errorf("%w: button %d in row %d has no text", ErrInvalidButtons, j+1, i+1)
			}
			if button.URL == "" && button.CallbackData == "" && button.SwitchInlineQuery == "" {
				return fmt.Errorf("%w: button %q needs a url, callback_data or switch_inline_query", ErrInvalidButtons, button.Text)
			}
		}
	}

	return nil
}

// SendWithButtons sends text with an inline keyboard attached.
// Unlike Send, an "ok": false reply is returned as an *APIError.
func (n *TelegramNotifier) SendWithButtons(ctx context.Context, text, parseMode string, rows [][]InlineKeyboardButton) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if err := n.checkDestination(); err != nil {
		return nil, err
	}
	if err := ValidateKeyboard(rows); err != nil {
		return nil, err
	}

	payload := sendButtonsPayload{
		ChatID:      n.chatID,
		Text:        text,
		ParseMode:   parseMode,
		ReplyMarkup: InlineKeyboardMarkup{InlineKeyboard: rows},
	}

	logger := n.logger.WithFields(logrus.Fields{
		"chat_id":     n.chatID,
		"text_length": len(text),
		"button_rows": len(rows),
	})
	logger.Debug("Sending Telegram message with buttons")

	res, err := n.call(ctx, "sendMessage", payload)
	if err != nil {
		logger.WithError(err).Error("Failed to send Telegram message with buttons")
		return nil, err
	}
	if err := res.Err(); err != nil {
		logger.WithError(err).Error("Telegram rejected message with buttons")
		return res, err
	}

	logger.WithField("message_id", res.MessageID()).Info("Telegram message with buttons sent")
	return res, nil
}
