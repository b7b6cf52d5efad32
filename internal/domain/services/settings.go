package services

import (
	"context"

	"gauntlet/internal/domain/models"
)

// SettingsService reads and writes an owner's webhook settings
type SettingsService interface {
	// GetSettings returns saved settings, or empty settings if none exist
	GetSettings(ctx context.Context, owner models.Identity) (*models.UserSettings, error)

	// UpdateSettings applies a partial update and upserts the row
	UpdateSettings(ctx context.Context, owner models.Identity, req *models.UpdateSettingsRequest) (*models.UserSettings, error)
}
