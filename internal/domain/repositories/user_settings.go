package repositories

import (
	"context"

	"gauntlet/internal/domain/models"
)

// SettingsRepository defines data access for an owner's webhook settings.
// Implemented by Postgres (users) and the guest settings store (guests).
type SettingsRepository interface {
	// Get retrieves settings for an owner.
	// Returns nil, nil if the owner has not saved any yet.
	Get(ctx context.Context, ownerID string) (*models.UserSettings, error)

	// Upsert creates or replaces the owner's settings row.
	Upsert(ctx context.Context, settings *models.UserSettings) error
}
