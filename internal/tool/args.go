package tool

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	perrors "github.com/p-blackswan/telegram-mcp/internal/errors"
	"github.com/p-blackswan/telegram-mcp/internal/telegram"
)

// ChatID is a chat identifier or @username. Hosts sometimes send numeric
// ids as JSON numbers; those are kept in their decimal form.
type ChatID string

func (c *ChatID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = ChatID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("chat_id must be a string or number")
	}
	*c = ChatID(n.String())
	return nil
}

// MessageID accepts any integral JSON number, including 45.0.
type MessageID int64

func (m *MessageID) UnmarshalJSON(b []byte) error {
	if string(bytes.TrimSpace(b)) == "null" {
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("message_id must be a number")
	}
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		*m = MessageID(i)
		return nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) {
		return fmt.Errorf("message_id must be an integer, got %s", n)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return fmt.Errorf("message_id out of range: %s", n)
	}
	*m = MessageID(f)
	return nil
}

// SendMessageArgs are the arguments of telegram_send_message.
type SendMessageArgs struct {
	ChatID    ChatID             `json:"chat_id"`
	Text      string             `json:"text"`
	ParseMode telegram.ParseMode `json:"parse_mode,omitempty"`
}

// ReactionArg is the tagged reaction argument, {"type":"emoji","emoji":...}.
type ReactionArg struct {
	Type  string `json:"type"`
	Emoji string `json:"emoji"`
}

// SetMessageReactionArgs are the arguments of telegram_set_message_reaction.
type SetMessageReactionArgs struct {
	ChatID    ChatID       `json:"chat_id"`
	MessageID *MessageID   `json:"message_id"`
	Reaction  *ReactionArg `json:"reaction,omitempty"`
	IsBig     *bool        `json:"is_big,omitempty"`
}

// ID returns the message id. Absent and null ids are rejected, since
// there is no message to react to.
func (a *SetMessageReactionArgs) ID() (int64, error) {
	if a.MessageID == nil {
		return 0, fmt.Errorf("%w: %s: message_id is required", perrors.ErrInvalidInput, KindSetMessageReaction)
	}
	return int64(*a.MessageID), nil
}

// ReactionType converts the argument into the wire reaction. The value is
// passed through; the host enforces the schema's emoji enum.
func (a *SetMessageReactionArgs) ReactionType() *telegram.ReactionType {
	if a.Reaction == nil {
		return nil
	}
	typ := a.Reaction.Type
	if typ == "" {
		typ = telegram.ReactionTypeEmoji
	}
	return &telegram.ReactionType{Type: typ, Emoji: a.Reaction.Emoji}
}

// decodeArgs casts the argument bag into dst. Only JSON type mismatches
// fail; required fields and enums are not checked here.
func decodeArgs(kind Kind, args map[string]any, dst any) error {
	b, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", perrors.ErrInvalidInput, kind, err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", perrors.ErrInvalidInput, kind, err)
	}
	return nil
}
