package models

import "time"

// Sender identifies who wrote a message
type Sender string

const (
	SenderUser   Sender = "user"
	SenderSystem Sender = "system"
)

// Message is a single immutable chat entry. Messages are only ever appended.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is an independently titled thread of messages.
type Conversation struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Messages    []Message `json:"messages"`
	LastUpdated time.Time `json:"last_updated"`
	ChatTypeID  *string   `json:"chat_type_id"`
}

// Clone returns a deep copy safe to hand outside the owning store.
func (c *Conversation) Clone() Conversation {
	out := *c
	out.Messages = append([]Message(nil), c.Messages...)
	if c.ChatTypeID != nil {
		id := *c.ChatTypeID
		out.ChatTypeID = &id
	}
	return out
}

// HasUserMessage reports whether any message in the conversation came from the user.
func (c *Conversation) HasUserMessage() bool {
	for _, m := range c.Messages {
		if m.Sender == SenderUser {
			return true
		}
	}
	return false
}

// ConversationSummary is the list view of a conversation (no messages).
type ConversationSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
	LastUpdated  time.Time `json:"last_updated"`
	ChatTypeID   *string   `json:"chat_type_id"`
}
