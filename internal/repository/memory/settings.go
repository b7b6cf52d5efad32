package memory

import (
	"context"
	"sync"
	"time"

	"gauntlet/internal/domain/models"
	"gauntlet/internal/domain/repositories"
)

// SettingsRepository keeps webhook settings in process memory.
// Guest settings fall back to it when Redis is not configured.
type SettingsRepository struct {
	mu       sync.Mutex
	settings map[string]models.UserSettings
}

// NewSettingsRepository creates an empty repository
func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{settings: make(map[string]models.UserSettings)}
}

var _ repositories.SettingsRepository = (*SettingsRepository)(nil)

// Get returns nil, nil when the owner has saved nothing
func (r *SettingsRepository) Get(ctx context.Context, ownerID string) (*models.UserSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.settings[ownerID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

// Upsert replaces the owner's settings
func (r *SettingsRepository) Upsert(ctx context.Context, settings *models.UserSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.settings[settings.OwnerID]; ok {
		settings.CreatedAt = existing.CreatedAt
	} else if settings.CreatedAt.IsZero() {
		settings.CreatedAt = time.Now()
	}
	r.settings[settings.OwnerID] = *settings
	return nil
}
