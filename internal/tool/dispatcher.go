package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"

	perrors "github.com/p-blackswan/telegram-mcp/internal/errors"
	"github.com/p-blackswan/telegram-mcp/internal/mcp"
	"github.com/p-blackswan/telegram-mcp/internal/metrics"
	"github.com/p-blackswan/telegram-mcp/internal/requestid"
	"github.com/p-blackswan/telegram-mcp/internal/telegram"
)

// Messenger is the part of the Bot API client the tools need.
type Messenger interface {
	SendMessage(ctx context.Context, chatID, text string, parseMode telegram.ParseMode) (json.RawMessage, error)
	SetMessageReaction(ctx context.Context, chatID string, messageID int64, reaction *telegram.ReactionType, isBig *bool) (json.RawMessage, error)
}

// Dispatcher serves tools/list and tools/call for the Telegram tools.
type Dispatcher struct {
	client  Messenger
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewDispatcher creates a Dispatcher. m may be nil.
func NewDispatcher(client Messenger, m *metrics.Metrics, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		client:  client,
		logger:  logger.With().Str("component", "dispatcher").Logger(),
		metrics: m,
	}
}

// ListTools returns the static registry.
func (d *Dispatcher) ListTools(_ context.Context) []mcp.Tool {
	return Descriptors()
}

// CallTool runs one tool. Every failure, from missing arguments to a dead
// network, comes back as a {"error": ...} text block.
func (d *Dispatcher) CallTool(ctx context.Context, params mcp.ToolCallParams) mcp.ToolResponse {
	ctx, _ = requestid.Ensure(ctx)
	logger := requestid.Logger(ctx, d.logger)

	label := "unknown"
	if kind, ok := ParseKind(params.Name); ok {
		label = kind.String()
	}

	start := time.Now()
	if d.metrics != nil {
		d.metrics.ToolCallStarted()
		defer d.metrics.ToolCallFinished()
	}

	raw, err := d.dispatch(ctx, params)

	if d.metrics != nil {
		d.metrics.RecordToolCall(label, perrors.Kind(err))
		d.metrics.ObserveToolCall(label, time.Since(start).Seconds())
	}

	if err != nil {
		logger.Warn().Err(err).Str("tool", params.Name).Msg("tool call failed")
		return ErrorResponse(err)
	}

	logger.Info().
		Str("tool", params.Name).
		Dur("took", time.Since(start)).
		Msg("tool call completed")
	return mcp.TextResponse(compact(raw))
}

func (d *Dispatcher) dispatch(ctx context.Context, params mcp.ToolCallParams) (json.RawMessage, error) {
	if params.Arguments == nil {
		return nil, perrors.ErrNoArguments
	}

	kind, ok := ParseKind(params.Name)
	if !ok {
		return nil, &perrors.UnknownToolError{Name: params.Name}
	}

	switch kind {
	case KindSendMessage:
		var args SendMessageArgs
		if err := decodeArgs(kind, params.Arguments, &args); err != nil {
			return nil, err
		}
		return d.client.SendMessage(ctx, string(args.ChatID), args.Text, args.ParseMode)

	case KindSetMessageReaction:
		var args SetMessageReactionArgs
		if err := decodeArgs(kind, params.Arguments, &args); err != nil {
			return nil, err
		}
		messageID, err := args.ID()
		if err != nil {
			return nil, err
		}
		return d.client.SetMessageReaction(ctx, string(args.ChatID), messageID, args.ReactionType(), args.IsBig)
	}

	return nil, &perrors.UnknownToolError{Name: params.Name}
}

// ErrorResponse wraps err as {"error": err.Error()} in a single text block.
func ErrorResponse(err error) mcp.ToolResponse {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if encErr := enc.Encode(map[string]string{"error": err.Error()}); encErr != nil {
		return mcp.TextResponse(`{"error":"internal error"}`)
	}
	return mcp.TextResponse(strings.TrimRight(buf.String(), "\n"))
}

func compact(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
