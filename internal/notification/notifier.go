package notification

import "context"

// Notifier delivers one preformatted message to a fixed chat
type Notifier interface {
	Send(ctx context.Context, text, parseMode string) (*Result, error)
}
