package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"gauntlet/internal/domain/models"
	"gauntlet/internal/domain/repositories"
)

const (
	settingsKeyPrefix = "guest_settings:"

	// DefaultSettingsTTL is how long an idle guest's settings are kept
	DefaultSettingsTTL = 30 * 24 * time.Hour
)

// SettingsRepository stores guest webhook settings as JSON values.
// Each write refreshes the TTL so active guests keep their settings.
type SettingsRepository struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewSettingsRepository creates a Redis-backed settings store
func NewSettingsRepository(client *redis.Client, ttl time.Duration, logger *slog.Logger) *SettingsRepository {
	if ttl <= 0 {
		ttl = DefaultSettingsTTL
	}
	return &SettingsRepository{client: client, ttl: ttl, logger: logger}
}

var _ repositories.SettingsRepository = (*SettingsRepository)(nil)

// SettingsKey returns the Redis key holding a guest's settings
func SettingsKey(ownerID string) string {
	return settingsKeyPrefix + ownerID
}

// Get returns nil, nil when the guest has saved nothing or the key expired
func (r *SettingsRepository) Get(ctx context.Context, ownerID string) (*models.UserSettings, error) {
	raw, err := r.client.Get(ctx, SettingsKey(ownerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get guest settings: %w", err)
	}

	var settings models.UserSettings
	if err := json.Unmarshal(raw, &settings); err != nil {
		// A corrupt value is treated as missing so the guest can overwrite it
		r.logger.Warn("discarding unreadable guest settings", "owner", ownerID, "error", err)
		return nil, nil
	}
	settings.OwnerID = ownerID

	return &settings, nil
}

// Upsert overwrites the guest's settings and refreshes the TTL
func (r *SettingsRepository) Upsert(ctx context.Context, settings *models.UserSettings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal guest settings: %w", err)
	}

	if err := r.client.Set(ctx, SettingsKey(settings.OwnerID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("set guest settings: %w", err)
	}

	return nil
}
