package chat

// Author identifies who wrote a message.
type Author string

const (
	AuthorUser      Author = "user"
	AuthorAssistant Author = "assistant"
)

// Message is immutable once created; edits are not supported.
type Message struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Author    Author `json:"author"`
	Timestamp int64  `json:"timestamp"` // milliseconds since epoch
	ChatID    string `json:"chat_id"`
}

// Chat is one conversation thread. Messages are insertion-ordered and owned
// exclusively by the chat; every message carries ChatID == Chat.ID.
type Chat struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt int64     `json:"created_at"`
	Messages  []Message `json:"messages"`
}

// State is the full conversation state for one identity namespace. Chats are
// kept in insertion order; if Chats is non-empty, ActiveChatID references one
// of them.
type State struct {
	Version      int    `json:"version"`
	Chats        []Chat `json:"chats"`
	ActiveChatID string `json:"active_chat_id,omitempty"`
}

const (
	stateVersion = 1

	// DefaultTitle is the title of a chat before its first message.
	DefaultTitle = "New Chat"

	// ErrorReplyText is appended in place of an assistant reply when the
	// remote call fails.
	ErrorReplyText = "Sorry, there was an error processing your message."

	// DefaultTitleLimit bounds a derived chat title, in runes.
	DefaultTitleLimit = 20
)
