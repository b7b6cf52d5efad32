package services

import (
	"context"

	"gauntlet/internal/domain/models"
)

// SendMessageRequest is a chat message from the browser
type SendMessageRequest struct {
	Message    string  `json:"message"`
	ChatTypeID *string `json:"chat_type_id"` // overrides the registry's selected type
}

// SendMessageResult carries both sides of a round-trip
type SendMessageResult struct {
	ConversationID string          `json:"conversation_id"`
	UserMessage    models.Message  `json:"user_message"`
	SystemMessage  *models.Message `json:"system_message"`
	Reply          *Reply          `json:"reply,omitempty"`
	ChatType       string          `json:"chat_type,omitempty"`
}

// ChatService appends a user message, dispatches it and records the reply
type ChatService interface {
	SendMessage(ctx context.Context, owner models.Identity, req *SendMessageRequest) (*SendMessageResult, error)
}
