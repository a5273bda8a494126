package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"tgreport/internal/markdown"
)

// DefaultChunkDelay is the pause between consecutive parts of a split message
const DefaultChunkDelay = time.Second

// MarkdownOptions control SendMarkdown
type MarkdownOptions struct {
	// FallbackToText resends a part as plain text when HTML conversion or delivery fails
	FallbackToText bool
	// ChunkDelay is waited between parts; zero sends back to back
	ChunkDelay time.Duration
}

// MarkdownResult summarises a markdown delivery
type MarkdownResult struct {
	MessageIDs   []int64
	IsSplit      bool
	TotalChunks  int
	UsedFallback bool
}

// SendMarkdown converts Markdown to Telegram HTML and sends it, splitting
// documents that exceed the message limit into numbered parts sent in order.
// It stops at the first part that cannot be delivered.
func (n *TelegramNotifier) SendMarkdown(ctx context.Context, md string, opts MarkdownOptions) (*MarkdownResult, error) {
	if strings.TrimSpace(md) == "" {
		return nil, markdown.ErrEmptyMarkdown
	}
	if err := n.checkDestination(); err != nil {
		return nil, err
	}

	chunks := markdown.PrepareChunks(md)
	result := &MarkdownResult{
		IsSplit:     len(chunks) > 1,
		TotalChunks: len(chunks),
	}

	n.logger.WithFields(logrus.Fields{
		"chat_id":         n.chatID,
		"total_chunks":    len(chunks),
		"original_length": len(md),
	}).Info("Sending Markdown message")

	for i, chunk := range chunks {
		if i > 0 && opts.ChunkDelay > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(opts.ChunkDelay):
			}
		}

		chunkLogger := n.logger.WithFields(logrus.Fields{
			"chunk":        i + 1,
			"total_chunks": len(chunks),
		})

		id, usedFallback, err := n.sendMarkdownChunk(ctx, chunk, opts.FallbackToText, chunkLogger)
		if err != nil {
			chunkLogger.WithError(err).WithField("sent_so_far", len(result.MessageIDs)).Error("Failed to send Markdown chunk")
			return result, fmt.Errorf("failed to send part %d/%d: %w", i+1, len(chunks), err)
		}

		result.MessageIDs = append(result.MessageIDs, id)
		result.UsedFallback = result.UsedFallback || usedFallback
		chunkLogger.WithField("message_id", id).Debug("Markdown chunk sent")
	}

	return result, nil
}

func (n *TelegramNotifier) sendMarkdownChunk(ctx context.Context, chunk string, fallback bool, logger *logrus.Entry) (int64, bool, error) {
	html, err := markdown.ToTelegramHTML(chunk)
	if err == nil {
		err = markdown.Validate(html)
	}
	if err != nil {
		if !fallback {
			return 0, false, fmt.Errorf("failed to convert markdown: %w", err)
		}
		logger.WithError(err).Warn("Markdown conversion failed, falling back to plain text")
		id, err := n.sendPlain(ctx, chunk)
		return id, true, err
	}

	res, err := n.Send(ctx, html, ParseModeHTML)
	if err == nil {
		err = res.Err()
	}
	if err != nil {
		if !fallback || ctx.Err() != nil {
			return 0, false, fmt.Errorf("markdown send failed: %w", err)
		}
		logger.WithError(err).Warn("HTML send failed, falling back to plain text")
		id, err := n.sendPlain(ctx, chunk)
		return id, true, err
	}

	return res.MessageID(), false, nil
}

func (n *TelegramNotifier) sendPlain(ctx context.Context, text string) (int64, error) {
	res, err := n.Send(ctx, text, "")
	if err != nil {
		return 0, fmt.Errorf("fallback send failed: %w", err)
	}
	if err := res.Err(); err != nil {
		return 0, fmt.Errorf("fallback send failed: %w", err)
	}
	return res.MessageID(), nil
}
