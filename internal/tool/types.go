// Package tool defines the Telegram tools exposed over MCP: the static
// descriptor registry, the argument shapes and the dispatcher.
package tool

import (
	"github.com/p-blackswan/telegram-mcp/internal/mcp"
	"github.com/p-blackswan/telegram-mcp/internal/telegram"
)

// Kind enumerates the tools. The set is closed; dispatch switches on it.
type Kind int

const (
	KindSendMessage Kind = iota + 1
	KindSetMessageReaction
)

// Tool names as advertised to the agent host.
const (
	NameSendMessage        = "telegram_send_message"
	NameSetMessageReaction = "telegram_set_message_reaction"
)

// String returns the advertised tool name.
func (k Kind) String() string {
	switch k {
	case KindSendMessage:
		return NameSendMessage
	case KindSetMessageReaction:
		return NameSetMessageReaction
	default:
		return "unknown"
	}
}

// ParseKind resolves an exact tool name.
func ParseKind(name string) (Kind, bool) {
	switch name {
	case NameSendMessage:
		return KindSendMessage, true
	case NameSetMessageReaction:
		return KindSetMessageReaction, true
	default:
		return 0, false
	}
}

// Descriptors returns the fixed tool list served on tools/list.
func Descriptors() []mcp.Tool {
	return []mcp.Tool{sendMessageTool(), setMessageReactionTool()}
}

func sendMessageTool() mcp.Tool {
	parseModes := make([]string, 0, len(telegram.ParseModes))
	for _, m := range telegram.ParseModes {
		parseModes = append(parseModes, string(m))
	}

	return mcp.Tool{
		Name:        NameSendMessage,
		Description: "Send a text message to a Telegram chat, group or channel via the bot.",
		InputSchema: mcp.InputSchema{
			Type: "object",
			Properties: map[string]any{
				"chat_id": map[string]any{
					"type":        "string",
					"description": "Unique identifier for the target chat or username of the target channel (in the format @channelusername)",
				},
				"text": map[string]any{
					"type":        "string",
					"description": "Text of the message to be sent, 1-4096 characters after entities parsing",
				},
				"parse_mode": map[string]any{
					"type":        "string",
					"enum":        parseModes,
					"description": "Mode for parsing entities in the message text",
				},
			},
			Required: []string{"chat_id", "text"},
		},
	}
}

func setMessageReactionTool() mcp.Tool {
	return mcp.Tool{
		Name:        NameSetMessageReaction,
		Description: "Set or clear the bot's reaction on a message in a Telegram chat.",
		InputSchema: mcp.InputSchema{
			Type: "object",
			Properties: map[string]any{
				"chat_id": map[string]any{
					"type":        "string",
					"description": "Unique identifier for the target chat or username of the target channel (in the format @channelusername)",
				},
				"message_id": map[string]any{
					"type":        "integer",
					"description": "Identifier of the target message",
				},
				"reaction": map[string]any{
					"type":        "object",
					"description": "Reaction to set on the message. Omit to remove the bot's reaction",
					"properties": map[string]any{
						"type": map[string]any{
							"type": "string",
							"enum": []string{telegram.ReactionTypeEmoji},
						},
						"emoji": map[string]any{
							"type": "string",
							"enum": telegram.ReactionEmoji,
						},
					},
					"required": []string{"type", "emoji"},
				},
				"is_big": map[string]any{
					"type":        "boolean",
					"description": "Pass true to set the reaction with a big animation",
				},
			},
			Required: []string{"chat_id", "message_id"},
		},
	}
}
