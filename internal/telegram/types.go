package telegram

import "slices"

// ParseMode selects how the Bot API formats message text.
type ParseMode string

const (
	ParseModeMarkdown   ParseMode = "Markdown"
	ParseModeMarkdownV2 ParseMode = "MarkdownV2"
	ParseModeHTML       ParseMode = "HTML"
)

// ParseModes lists every parse mode accepted by sendMessage.
var ParseModes = []ParseMode{ParseModeMarkdown, ParseModeMarkdownV2, ParseModeHTML}

// ReactionTypeEmoji is the only reaction kind the adapter sends.
const ReactionTypeEmoji = "emoji"

// ReactionType is a reaction as the Bot API encodes it.
type ReactionType struct {
	Type  string `json:"type"`
	Emoji string `json:"emoji"`
}

// EmojiReaction builds an emoji reaction.
func EmojiReaction(emoji string) *ReactionType {
	return &ReactionType{Type: ReactionTypeEmoji, Emoji: emoji}
}

// ReactionEmoji is the fixed set of emoji the Bot API accepts as reactions.
var ReactionEmoji = []string{
	"👍", "👎", "❤", "🔥", "🥰", "👏", "😁", "🤔", "🤯", "😱", "🤬", "😢", "🎉", "🤩",
	"🤮", "💩", "🙏", "👌", "🕊", "🤡", "🥱", "🥴", "😍", "🐳", "❤‍🔥", "🌚", "🌭", "💯",
	"🤣", "⚡", "🍌", "🏆", "💔", "🤨", "😐", "🍓", "🍾", "💋", "🖕", "😈", "😴", "😭",
	"🤓", "👻", "👨‍💻", "👀", "🎃", "🙈", "😇", "😨", "🤝", "✍", "🤗", "🫡", "🎅", "🎄",
	"☃", "💅", "🤪", "🗿", "🆒", "💘", "🙉", "🦄", "😘", "💊", "🙊", "😎", "👾", "🤷‍♂",
	"🤷", "🤷‍♀", "😡",
}

// IsReactionEmoji reports whether e belongs to ReactionEmoji.
func IsReactionEmoji(e string) bool {
	return slices.Contains(ReactionEmoji, e)
}

// User is the subset of the Bot API User object returned by getMe.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

// Envelope is the Bot API response wrapper. The adapter only inspects it
// for getMe; tool results are passed through untouched.
type Envelope[T any] struct {
	OK          bool   `json:"ok"`
	Result      T      `json:"result"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
}
