// Package mcpserver exposes the Telegram send operations as Model Context
// Protocol tools served over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"tgreport/internal/notification"
)

// Tool names, as registered with the MCP server
const (
	ToolSendText        = "send_telegram_text"
	ToolSendMarkdown    = "send_telegram_markdown"
	ToolSendPhoto       = "send_telegram_photo"
	ToolSendWithButtons = "send_telegram_with_buttons"
)

// Options control tool defaults
type Options struct {
	Name    string
	Version string

	// ParseMode is used for photo captions and button messages when the call gives none
	ParseMode      string
	FallbackToText bool
	ChunkDelay     time.Duration

	// Validator checks photo URLs; nil skips the check
	Validator *notification.ImageValidator
}

// Server binds a notifier to an MCP tool server
type Server struct {
	notifier *notification.TelegramNotifier
	opts     Options
	logger   *logrus.Entry
	mcp      *server.MCPServer
}

// New creates the server and registers the four tools
func New(notifier *notification.TelegramNotifier, opts Options, logger *logrus.Entry) *Server {
	if opts.Name == "" {
		opts.Name = "tgreport"
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	s := &Server{
		notifier: notifier,
		opts:     opts,
		logger:   logger,
		mcp: server.NewMCPServer(opts.Name, opts.Version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
	}
	s.registerTools()
	return s
}

// MCP returns the underlying protocol server
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// Serve speaks JSON-RPC on in/out until in is exhausted or ctx is done
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	errWriter := s.logger.WriterLevel(logrus.ErrorLevel)
	defer errWriter.Close()

	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(log.New(errWriter, "", 0))

	s.logger.WithField("chat_id", s.notifier.ChatID()).Info("MCP server listening on stdio")
	return stdio.Listen(ctx, in, out)
}

func (s *Server) registerTools() {
	chatIDOption := mcp.WithString("chatId",
		mcp.Description("Destination chat id or @channel; defaults to the configured chat"),
	)

	s.mcp.AddTool(mcp.NewTool(ToolSendText,
		mcp.WithDescription("Send a plain text message to the configured Telegram chat"),
		mcp.WithString("text", mcp.Required(), mcp.Description("Message text, sent as-is")),
		chatIDOption,
	), s.sendText)

	s.mcp.AddTool(mcp.NewTool(ToolSendMarkdown,
		mcp.WithDescription("Convert Markdown to Telegram HTML and send it. Long documents are split into numbered parts; rejected parts fall back to plain text."),
		mcp.WithString("markdown", mcp.Required(), mcp.Description("Markdown document")),
		mcp.WithBoolean("fallbackToText", mcp.Description("Resend rejected parts as plain text")),
		chatIDOption,
	), s.sendMarkdown)

	s.mcp.AddTool(mcp.NewTool(ToolSendPhoto,
		mcp.WithDescription("Send a photo by HTTP(S) URL or Telegram file_id"),
		mcp.WithString("photo", mcp.Required(), mcp.Description("Image URL or file_id")),
		mcp.WithString("caption", mcp.Description("Optional caption")),
		mcp.WithString("parseMode", mcp.Description("Caption parse mode: HTML or MarkdownV2")),
		mcp.WithBoolean("disableNotification", mcp.Description("Send silently")),
		chatIDOption,
	), s.sendPhoto)

	s.mcp.AddTool(mcp.NewTool(ToolSendWithButtons,
		mcp.WithDescription("Send a message with an inline keyboard"),
		mcp.WithString("text", mcp.Required(), mcp.Description("Message text")),
		mcp.WithArray("buttons", mcp.Required(),
			mcp.Description("Rows of buttons; each button has text and one of url, callback_data, switch_inline_query"),
			mcp.Items(map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"text":                map[string]interface{}{"type": "string"},
						"url":                 map[string]interface{}{"type": "string"},
						"callback_data":       map[string]interface{}{"type": "string"},
						"switch_inline_query": map[string]interface{}{"type": "string"},
					},
					"required": []string{"text"},
				},
			}),
		),
		mcp.WithString("parseMode", mcp.Description("HTML or MarkdownV2")),
		chatIDOption,
	), s.sendWithButtons)
}

type textResult struct {
	Success   bool  `json:"success"`
	MessageID int64 `json:"messageId,omitempty"`
}

type markdownResult struct {
	Success      bool    `json:"success"`
	MessageID    int64   `json:"messageId,omitempty"`
	UsedFallback bool    `json:"usedFallback"`
	IsSplit      bool    `json:"isSplit"`
	TotalChunks  int     `json:"totalChunks"`
	MessageIDs   []int64 `json:"messageIds"`
}

func (s *Server) sendText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if strings.TrimSpace(text) == "" {
		return s.toolError(ToolSendText, notification.ErrEmptyText), nil
	}

	res, err := s.target(req).Send(ctx, text, "")
	if err == nil {
		err = res.Err()
	}
	if err != nil {
		return s.toolError(ToolSendText, err), nil
	}

	return jsonResult(textResult{Success: true, MessageID: res.MessageID()})
}

func (s *Server) sendMarkdown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	md, err := req.RequireString("markdown")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.target(req).SendMarkdown(ctx, md, notification.MarkdownOptions{
		FallbackToText: req.GetBool("fallbackToText", s.opts.FallbackToText),
		ChunkDelay:     s.opts.ChunkDelay,
	})
	if err != nil {
		return s.toolError(ToolSendMarkdown, err), nil
	}

	out := markdownResult{
		Success:      true,
		UsedFallback: result.UsedFallback,
		IsSplit:      result.IsSplit,
		TotalChunks:  result.TotalChunks,
		MessageIDs:   result.MessageIDs,
	}
	if len(result.MessageIDs) > 0 {
		out.MessageID = result.MessageIDs[0]
	}
	return jsonResult(out)
}

func (s *Server) sendPhoto(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	photo, err := req.RequireString("photo")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := s.target(req).SendPhoto(ctx, notification.Photo{
		Photo:               photo,
		Caption:             req.GetString("caption", ""),
		ParseMode:           req.GetString("parseMode", s.opts.ParseMode),
		DisableNotification: req.GetBool("disableNotification", false),
	}, s.opts.Validator)
	if err != nil {
		return s.toolError(ToolSendPhoto, err), nil
	}

	return jsonResult(textResult{Success: true, MessageID: res.MessageID()})
}

func (s *Server) sendWithButtons(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rows, err := decodeButtons(req.GetArguments()["buttons"])
	if err != nil {
		return s.toolError(ToolSendWithButtons, err), nil
	}

	res, err := s.target(req).SendWithButtons(ctx, text, req.GetString("parseMode", s.opts.ParseMode), rows)
	if err != nil {
		return s.toolError(ToolSendWithButtons, err), nil
	}

	return jsonResult(textResult{Success: true, MessageID: res.MessageID()})
}

// target honours the per-call chatId override
func (s *Server) target(req mcp.CallToolRequest) *notification.TelegramNotifier {
	if chatID := chatIDArgument(req.GetArguments()["chatId"]); chatID != "" {
		return s.notifier.WithChatID(chatID)
	}
	return s.notifier
}

// chatIDArgument accepts the chat id as a string or as a JSON number
func chatIDArgument(v interface{}) string {
	switch v := v.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	}
	return ""
}

// decodeButtons converts the loosely typed buttons argument into keyboard rows
func decodeButtons(v interface{}) ([][]notification.InlineKeyboardButton, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: buttons are required", notification.ErrInvalidButtons)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", notification.ErrInvalidButtons, err)
	}
	var rows [][]notification.InlineKeyboardButton
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("%w: buttons must be an array of rows of button objects", notification.ErrInvalidButtons)
	}
	return rows, nil
}

func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	s.logger.WithError(err).WithField("tool", tool).Error("Tool call failed")
	return mcp.NewToolResultError("Error: " + err.Error())
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
