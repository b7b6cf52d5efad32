package models

import "time"

// UploadStatus is the state of one file in the upload pipeline.
// Transitions: uploading -> complete, uploading -> error.
type UploadStatus string

const (
	UploadStatusUploading UploadStatus = "uploading"
	UploadStatusComplete  UploadStatus = "complete"
	UploadStatusError     UploadStatus = "error"
)

// UploadingFile is the session-scoped view of a file being uploaded.
// It is never persisted.
type UploadingFile struct {
	ID          string       `json:"id"`
	Filename    string       `json:"filename"`
	ContentType string       `json:"content_type"`
	Size        int64        `json:"size"`
	Progress    int          `json:"progress"`
	Status      UploadStatus `json:"status"`
	Color       string       `json:"color"`
	Error       string       `json:"error,omitempty"`
	StoragePath string       `json:"storage_path,omitempty"`
	DownloadURL string       `json:"download_url,omitempty"`
	// Notified is set once the file processing webhook accepted the file
	Notified  bool      `json:"webhook_notified"`
	CreatedAt time.Time `json:"created_at"`
}

// QueuedFile is a row of the file processing queue
type QueuedFile struct {
	ID               string    `json:"id" db:"id"`
	OwnerID          string    `json:"owner_id" db:"user_id"`
	StoragePath      string    `json:"storage_path" db:"storage_path"`
	OriginalFilename string    `json:"original_filename" db:"original_filename"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}
