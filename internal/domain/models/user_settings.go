package models

import "time"

// UserSettings holds an owner's webhook endpoints. Empty string means unset.
type UserSettings struct {
	OwnerID               string    `json:"-" db:"user_id"`
	FileProcessingWebhook string    `json:"file_processing_webhook" db:"file_processing_webhook"`
	ChatRagWebhook        string    `json:"chat_rag_webhook" db:"chat_rag_webhook"`
	YoutubeWebhook        string    `json:"youtube_webhook" db:"youtube_webhook"`
	NewsWebhook           string    `json:"news_webhook" db:"news_webhook"`
	CreatedAt             time.Time `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time `json:"updated_at" db:"updated_at"`
}

// OptionalField tracks tri-state semantics for PATCH updates (RFC 7396).
// Transport-agnostic: the handler maps from httputil.OptionalString.
//   - Present=false: field absent from request (don't change)
//   - Present=true, Value=nil: field is null (clear)
//   - Present=true, Value=&"...": set (empty string clears too)
type OptionalField struct {
	Present bool
	Value   *string
}

// Apply returns the new value of a field given its current value.
func (o OptionalField) Apply(current string) string {
	if !o.Present {
		return current
	}
	if o.Value == nil {
		return ""
	}
	return *o.Value
}

// UpdateSettingsRequest is a partial update of UserSettings
type UpdateSettingsRequest struct {
	FileProcessingWebhook OptionalField
	ChatRagWebhook        OptionalField
	YoutubeWebhook        OptionalField
	NewsWebhook           OptionalField
}
