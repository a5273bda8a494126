package notification

import (
	"errors"
	"fmt"
)

// Common errors that can be checked with errors.Is()
var (
	// ErrMissingToken indicates that no bot token was configured
	ErrMissingToken = errors.New("bot token is required")

	// ErrMissingChatID indicates that no destination chat was configured
	ErrMissingChatID = errors.New("chat ID is required")

	// ErrEmptyText indicates that a message body was blank where one is required
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrMissingPhoto indicates that neither a photo URL nor a file_id was given
	ErrMissingPhoto = errors.New("photo URL or file_id is required")

	// ErrNonJSONResponse indicates that the Bot API answered with something other than JSON
	ErrNonJSONResponse = errors.New("response body is not valid JSON")

	// ErrInvalidButtons indicates a malformed inline keyboard
	ErrInvalidButtons = errors.New("invalid inline keyboard")

	// ErrInvalidImage indicates that a photo URL failed the pre-flight check
	ErrInvalidImage = errors.New("invalid image URL")
)

// APIError is a reply from the Bot API with "ok": false
type APIError struct {
	StatusCode  int
	ErrorCode   int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram API error (status %d, code %d): %s", e.StatusCode, e.ErrorCode, e.Description)
}

// redactedError hides the bot token that net/http embeds in *url.Error messages
type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }

func (e *redactedError) Unwrap() error { return e.err }
