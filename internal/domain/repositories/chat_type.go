package repositories

import (
	"context"

	"gauntlet/internal/domain/models"
)

// ChatTypeRepository defines data access for chat types
type ChatTypeRepository interface {
	// List returns an owner's chat types ordered by name
	List(ctx context.Context, ownerID string) ([]models.ChatType, error)

	// Get returns a single chat type owned by ownerID.
	// Returns domain.ErrNotFound if missing.
	Get(ctx context.Context, id, ownerID string) (*models.ChatType, error)

	// Count returns how many chat types an owner has
	Count(ctx context.Context, ownerID string) (int, error)

	// Create inserts a chat type, filling ID and timestamps
	Create(ctx context.Context, chatType *models.ChatType) error

	// Update persists name, type and webhook URL
	Update(ctx context.Context, chatType *models.ChatType) error

	// Delete removes a chat type
	Delete(ctx context.Context, id, ownerID string) error

	// SetDefault marks id as the owner's only default
	SetDefault(ctx context.Context, id, ownerID string) error

	// LockOwner serializes writers of one owner's chat types until the
	// surrounding transaction ends. A no-op for stores without transactions.
	LockOwner(ctx context.Context, ownerID string) error
}
