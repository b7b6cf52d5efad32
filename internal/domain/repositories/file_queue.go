package repositories

import (
	"context"

	"gauntlet/internal/domain/models"
)

// FileQueueRepository records uploaded files awaiting external processing
type FileQueueRepository interface {
	// Record inserts a queue row, filling ID and CreatedAt
	Record(ctx context.Context, file *models.QueuedFile) error
}
