package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"gauntlet/internal/domain"
	"gauntlet/internal/domain/models"
	"gauntlet/internal/domain/repositories"
)

// ChatTypeRepository keeps chat types in process memory.
// Used for guest sessions, which have no database row to own them.
type ChatTypeRepository struct {
	mu      sync.Mutex
	byOwner map[string][]models.ChatType
	now     func() time.Time
}

// NewChatTypeRepository creates an empty repository
func NewChatTypeRepository() *ChatTypeRepository {
	return &ChatTypeRepository{
		byOwner: make(map[string][]models.ChatType),
		now:     time.Now,
	}
}

var _ repositories.ChatTypeRepository = (*ChatTypeRepository)(nil)

// List returns an owner's chat types ordered by name
func (r *ChatTypeRepository) List(ctx context.Context, ownerID string) ([]models.ChatType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.ChatType, 0, len(r.byOwner[ownerID]))
	for _, ct := range r.byOwner[ownerID] {
		out = append(out, copyChatType(ct))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Get returns a single chat type
func (r *ChatTypeRepository) Get(ctx context.Context, id, ownerID string) (*models.ChatType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexLocked(id, ownerID)
	if idx < 0 {
		return nil, fmt.Errorf("chat type %s: %w", id, domain.ErrNotFound)
	}
	ct := copyChatType(r.byOwner[ownerID][idx])
	return &ct, nil
}

// Count returns how many chat types an owner has
func (r *ChatTypeRepository) Count(ctx context.Context, ownerID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byOwner[ownerID]), nil
}

// Create stores a chat type, filling ID and timestamps
func (r *ChatTypeRepository) Create(ctx context.Context, chatType *models.ChatType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.byOwner[chatType.OwnerID] {
		if existing.Name == chatType.Name {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("chat type '%s' already exists", chatType.Name),
				ResourceType: "chat_type",
				ResourceID:   existing.ID,
			}
		}
	}

	now := r.now()
	if chatType.ID == "" {
		chatType.ID = uuid.NewString()
	}
	chatType.CreatedAt = now
	chatType.UpdatedAt = now

	r.byOwner[chatType.OwnerID] = append(r.byOwner[chatType.OwnerID], copyChatType(*chatType))
	return nil
}

// Update persists name, type and webhook URL
func (r *ChatTypeRepository) Update(ctx context.Context, chatType *models.ChatType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexLocked(chatType.ID, chatType.OwnerID)
	if idx < 0 {
		return fmt.Errorf("chat type %s: %w", chatType.ID, domain.ErrNotFound)
	}

	for i, existing := range r.byOwner[chatType.OwnerID] {
		if i != idx && existing.Name == chatType.Name {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("chat type '%s' already exists", chatType.Name),
				ResourceType: "chat_type",
				ResourceID:   existing.ID,
			}
		}
	}

	stored := &r.byOwner[chatType.OwnerID][idx]
	stored.Name = chatType.Name
	stored.Type = chatType.Type
	stored.WebhookURL = copyString(chatType.WebhookURL)
	stored.UpdatedAt = r.now()
	chatType.UpdatedAt = stored.UpdatedAt
	return nil
}

// Delete removes a chat type
func (r *ChatTypeRepository) Delete(ctx context.Context, id, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexLocked(id, ownerID)
	if idx < 0 {
		return fmt.Errorf("chat type %s: %w", id, domain.ErrNotFound)
	}

	list := r.byOwner[ownerID]
	r.byOwner[ownerID] = append(list[:idx:idx], list[idx+1:]...)
	return nil
}

// SetDefault marks id as the owner's only default
func (r *ChatTypeRepository) SetDefault(ctx context.Context, id, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexLocked(id, ownerID) < 0 {
		return fmt.Errorf("chat type %s: %w", id, domain.ErrNotFound)
	}

	now := r.now()
	list := r.byOwner[ownerID]
	for i := range list {
		isDefault := list[i].ID == id
		if list[i].IsDefault != isDefault {
			list[i].IsDefault = isDefault
			list[i].UpdatedAt = now
		}
	}
	return nil
}

// LockOwner is a no-op; every method already holds the store mutex
func (r *ChatTypeRepository) LockOwner(ctx context.Context, ownerID string) error {
	return nil
}

// Seeded reports whether the owner's list has ever been populated
func (r *ChatTypeRepository) Seeded(ownerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byOwner[ownerID]
	return ok
}

// Seed installs an initial list for an owner unless one exists already.
// Returns false when the owner was already seeded.
func (r *ChatTypeRepository) Seed(ownerID string, chatTypes []models.ChatType) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byOwner[ownerID]; ok {
		return false
	}

	now := r.now()
	list := make([]models.ChatType, 0, len(chatTypes))
	for _, ct := range chatTypes {
		ct = copyChatType(ct)
		ct.OwnerID = ownerID
		if ct.ID == "" {
			ct.ID = uuid.NewString()
		}
		ct.CreatedAt = now
		ct.UpdatedAt = now
		list = append(list, ct)
	}
	r.byOwner[ownerID] = list
	return true
}

func (r *ChatTypeRepository) indexLocked(id, ownerID string) int {
	for i, ct := range r.byOwner[ownerID] {
		if ct.ID == id {
			return i
		}
	}
	return -1
}

func copyChatType(ct models.ChatType) models.ChatType {
	ct.WebhookURL = copyString(ct.WebhookURL)
	return ct
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
