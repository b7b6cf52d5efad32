package config

import "time"

const (
	// MaxChatTypesPerOwner caps how many chat types one owner may create.
	MaxChatTypesPerOwner = 6

	// MaxChatTypeNameLength fits chat_types.name VARCHAR(100).
	MaxChatTypeNameLength = 100

	// MaxChatTypeSlugLength fits chat_types.type VARCHAR(100).
	MaxChatTypeSlugLength = 100

	// MaxWebhookURLLength bounds stored webhook URLs.
	MaxWebhookURLLength = 2048

	// MaxChatMessageLength bounds a single outgoing query.
	MaxChatMessageLength = 32000

	// MaxNewsQueryLength bounds a news submission.
	MaxNewsQueryLength = 500

	// ConversationTitleLength is how many characters of the first user
	// message become the conversation title.
	ConversationTitleLength = 20

	// DefaultMaxUploadBytes is used when MAX_UPLOAD_BYTES is unset (50MB).
	DefaultMaxUploadBytes = 50 << 20

	// MaxFilesPerUpload bounds one multipart request; the request body is
	// capped at MaxFilesPerUpload * MAX_UPLOAD_BYTES.
	MaxFilesPerUpload = 10

	// DefaultWebhookTimeout is used when WEBHOOK_TIMEOUT is unset.
	DefaultWebhookTimeout = 60 * time.Second

	// DefaultUploadTimeout bounds reading one multipart upload body.
	DefaultUploadTimeout = 10 * time.Minute

	// DefaultStorageBucket matches the bucket the dashboard uploads into.
	DefaultStorageBucket = "file_uploads"
)
