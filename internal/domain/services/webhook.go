package services

import "context"

// Reply is what a chat webhook answered, reduced to displayable text.
type Reply struct {
	// Text is the extracted field value, or the raw body
	Text string `json:"text"`
	// Field names the JSON field Text came from; empty when Text is the raw body
	Field string `json:"field,omitempty"`
	// Candidates lists every configured field present in the JSON body, in
	// precedence order. More than one entry means the shape was ambiguous.
	Candidates []string `json:"candidates,omitempty"`
}

// Ambiguous reports whether more than one known field was present
func (r *Reply) Ambiguous() bool {
	return len(r.Candidates) > 1
}

// WebhookDispatcher performs single, unretried POSTs to user endpoints.
type WebhookDispatcher interface {
	// Send posts payload as JSON and interprets the response body.
	// Non-2xx status or a transport failure returns an error wrapping
	// domain.ErrWebhookFailed.
	Send(ctx context.Context, url string, payload any) (*Reply, error)

	// Notify posts payload as JSON and discards the body.
	Notify(ctx context.Context, url string, payload any) error
}

// ChatPayload is the body sent to chat webhooks
type ChatPayload struct {
	Query string `json:"query"`
	Type  string `json:"type,omitempty"`
}

// FilePayload is the body sent to the file processing webhook
type FilePayload struct {
	StoragePath      string `json:"storagePath"`
	OriginalFilename string `json:"originalFilename"`
	DownloadURL      string `json:"downloadUrl"`
}

// YoutubePayload is the body sent to the YouTube webhook
type YoutubePayload struct {
	YoutubeURL string `json:"youtubeUrl"`
	Timestamp  string `json:"timestamp"`
}

// NewsPayload is the body sent to the news webhook
type NewsPayload struct {
	NewsQuery string `json:"newsQuery"`
	Timestamp string `json:"timestamp"`
}
