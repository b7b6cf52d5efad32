package models

import "time"

// ChatType is a named routing tag. Its Type slug is sent with chat queries;
// WebhookURL, when set, overrides the owner's default chat webhook.
type ChatType struct {
	ID         string    `json:"id" db:"id"`
	OwnerID    string    `json:"-" db:"user_id"`
	Name       string    `json:"name" db:"name"`
	Type       string    `json:"type" db:"type"`
	WebhookURL *string   `json:"webhook_url" db:"webhook_url"`
	IsDefault  bool      `json:"is_default" db:"is_default"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// HasWebhook reports whether the type carries its own endpoint
func (t *ChatType) HasWebhook() bool {
	return t.WebhookURL != nil && *t.WebhookURL != ""
}

// ChatTypeList is a freshly loaded view of an owner's chat types.
type ChatTypeList struct {
	ChatTypes      []ChatType `json:"chat_types"`
	SelectedTypeID *string    `json:"selected_type_id"`
	DefaultTypeID  *string    `json:"default_type_id"`
	Max            int        `json:"max"`
}
