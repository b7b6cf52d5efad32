package services

import (
	"context"
	"io"

	"gauntlet/internal/domain/models"
)

// UploadInput is one file handed to the upload pipeline
type UploadInput struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// Rejection is a file refused before any network call
type Rejection struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

// UploadBatch is the outcome of one multi-file upload
type UploadBatch struct {
	Files    []models.UploadingFile `json:"files"`
	Rejected []Rejection            `json:"rejected"`
}

// UploadPipeline validates, stores, queues and announces uploaded files
type UploadPipeline interface {
	// Upload runs every valid file through the pipeline and returns final states
	Upload(ctx context.Context, owner models.Identity, files []UploadInput) (*UploadBatch, error)

	// List returns the owner's tracked uploads, oldest first
	List(owner models.Identity) []models.UploadingFile

	// Remove drops a tracked upload from the list
	Remove(owner models.Identity, id string) error
}

// ObjectStorage is the storage collaborator: upload-by-path and public URL by path
type ObjectStorage interface {
	Upload(ctx context.Context, path, contentType string, content io.Reader) error
	PublicURL(path string) string
}
