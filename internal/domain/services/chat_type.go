package services

import (
	"context"

	"gauntlet/internal/domain/models"
)

// CreateChatTypeRequest is the input of ChatTypeRegistry.Add
type CreateChatTypeRequest struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`        // derived from Name when blank
	WebhookURL *string `json:"webhook_url"` // optional dedicated endpoint
}

// UpdateChatTypeRequest is the input of ChatTypeRegistry.Edit
type UpdateChatTypeRequest struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	WebhookURL *string `json:"webhook_url"`
}

// ChatTypeRegistry manages an owner's chat types and the selected pointer.
// Every mutation reloads the full list afterwards and returns it.
type ChatTypeRegistry interface {
	Load(ctx context.Context, owner models.Identity) (*models.ChatTypeList, error)
	Add(ctx context.Context, owner models.Identity, req *CreateChatTypeRequest) (*models.ChatTypeList, error)
	Edit(ctx context.Context, owner models.Identity, id string, req *UpdateChatTypeRequest) (*models.ChatTypeList, error)
	Delete(ctx context.Context, owner models.Identity, id string) (*models.ChatTypeList, error)
	SetDefault(ctx context.Context, owner models.Identity, id string) (*models.ChatTypeList, error)

	// Select moves the selected pointer; the chat type itself is untouched
	Select(ctx context.Context, owner models.Identity, id string) (*models.ChatTypeList, error)

	// Selected returns the chat type outgoing messages are tagged with, or nil
	Selected(ctx context.Context, owner models.Identity) (*models.ChatType, error)

	// Get returns one chat type of the owner
	Get(ctx context.Context, owner models.Identity, id string) (*models.ChatType, error)
}
