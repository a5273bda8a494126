package notification

import (
	"context"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultAPIURL is the public Bot API host
	DefaultAPIURL = "https://api.telegram.org"

	// ParseModeHTML asks Telegram to render the text as its HTML subset
	ParseModeHTML = "HTML"
	// ParseModeMarkdownV2 asks Telegram to render the text as MarkdownV2
	ParseModeMarkdownV2 = "MarkdownV2"
	// ParseModeMarkdown is the legacy Markdown mode
	ParseModeMarkdown = "Markdown"
)

// sendMessagePayload is the sendMessage request body. Field order is the wire order.
type sendMessagePayload struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

// TelegramNotifier sends messages to one chat through the Bot API
type TelegramNotifier struct {
	*HTTPNotifier
	token   string
	chatID  string
	baseURL string
}

// NewTelegramNotifier creates a new Telegram notifier against the public Bot API
func NewTelegramNotifier(token, chatID string, logger *logrus.Entry) *TelegramNotifier {
	return NewTelegramNotifierWithClient(token, chatID, DefaultAPIURL, nil, logger)
}

// NewTelegramNotifierWithClient creates a new Telegram notifier with a custom API host and HTTP client
func NewTelegramNotifierWithClient(token, chatID, baseURL string, httpClient *http.Client, logger *logrus.Entry) *TelegramNotifier {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}

	return &TelegramNotifier{
		HTTPNotifier: NewHTTPNotifier(httpClient, logger),
		token:        token,
		chatID:       chatID,
		baseURL:      baseURL,
	}
}

// EndpointURL builds <base>/bot<token>/<method>. The token is inserted verbatim.
func EndpointURL(baseURL, token, method string) string {
	return strings.TrimRight(baseURL, "/") + "/bot" + token + "/" + method
}

// ChatID returns the destination chat
func (n *TelegramNotifier) ChatID() string {
	return n.chatID
}

// WithChatID returns a copy of the notifier that sends to chatID instead.
// The HTTP client and logger are shared with n.
func (n *TelegramNotifier) WithChatID(chatID string) *TelegramNotifier {
	clone := *n
	clone.chatID = chatID
	return &clone
}

// Send posts text to the configured chat once (implements Notifier interface).
// The returned Result carries whatever status and body Telegram answered with,
// including non-2xx replies; only local, transport and decoding faults are errors.
func (n *TelegramNotifier) Send(ctx context.Context, text, parseMode string) (*Result, error) {
	if err := n.checkDestination(); err != nil {
		return nil, err
	}

	payload := sendMessagePayload{
		ChatID:    n.chatID,
		Text:      text,
		ParseMode: parseMode,
	}

	n.logger.WithFields(logrus.Fields{
		"chat_id":     n.chatID,
		"parse_mode":  parseMode,
		"text_length": len(text),
	}).Debug("Sending Telegram message")

	res, err := n.call(ctx, "sendMessage", payload)
	if err != nil {
		n.logger.WithError(err).WithField("chat_id", n.chatID).Error("Failed to send Telegram message")
		return nil, err
	}

	n.logger.WithFields(logrus.Fields{
		"chat_id":     n.chatID,
		"status_code": res.StatusCode,
		"ok":          res.OK(),
		"message_id":  res.MessageID(),
	}).Info("Telegram message sent")

	return res, nil
}

// call posts payload to a Bot API method and scrubs the token out of any error
func (n *TelegramNotifier) call(ctx context.Context, method string, payload interface{}) (*Result, error) {
	res, err := n.PostJSON(ctx, EndpointURL(n.baseURL, n.token, method), payload)
	if err != nil {
		return nil, n.redact(err)
	}
	return res, nil
}

func (n *TelegramNotifier) checkDestination() error {
	if n.token == "" {
		return ErrMissingToken
	}
	if n.chatID == "" {
		return ErrMissingChatID
	}
	return nil
}

// redact replaces the /bot<token>/ path segment that net/http embeds in *url.Error messages
func (n *TelegramNotifier) redact(err error) error {
	if err == nil || n.token == "" {
		return err
	}
	segment := "/bot" + n.token + "/"
	if !strings.Contains(err.Error(), segment) {
		return err
	}
	return &redactedError{
		msg: strings.ReplaceAll(err.Error(), segment, "/bot<redacted>/"),
		err: err,
	}
}
