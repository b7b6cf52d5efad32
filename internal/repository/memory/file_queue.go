package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"gauntlet/internal/domain/models"
	"gauntlet/internal/domain/repositories"
)

// FileQueueRepository records queued files in memory.
// Guests have no auth.users row, so their uploads are queued here.
type FileQueueRepository struct {
	mu    sync.Mutex
	files []models.QueuedFile
}

// NewFileQueueRepository creates an empty queue
func NewFileQueueRepository() *FileQueueRepository {
	return &FileQueueRepository{}
}

var _ repositories.FileQueueRepository = (*FileQueueRepository)(nil)

// Record appends a file to the queue
func (r *FileQueueRepository) Record(ctx context.Context, file *models.QueuedFile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if file.ID == "" {
		file.ID = uuid.NewString()
	}
	r.files = append(r.files, *file)
	return nil
}

// Files returns a copy of everything recorded so far
func (r *FileQueueRepository) Files() []models.QueuedFile {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.QueuedFile(nil), r.files...)
}
