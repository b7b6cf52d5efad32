package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"gauntlet/internal/domain"
	"gauntlet/internal/domain/models"
	"gauntlet/internal/domain/repositories"
)

// PostgresSettingsRepository implements the SettingsRepository interface
type PostgresSettingsRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewSettingsRepository creates a new PostgresSettingsRepository
func NewSettingsRepository(config *RepositoryConfig) repositories.SettingsRepository {
	return &PostgresSettingsRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Get retrieves the webhook settings row of a user
func (r *PostgresSettingsRepository) Get(ctx context.Context, ownerID string) (*models.UserSettings, error) {
	query := fmt.Sprintf(`
		SELECT user_id,
		       COALESCE(file_processing_webhook, ''),
		       COALESCE(chat_rag_webhook, ''),
		       COALESCE(youtube_webhook, ''),
		       COALESCE(news_webhook, ''),
		       created_at, updated_at
		FROM %s
		WHERE user_id = $1
	`, r.tables.UserSettings)

	var settings models.UserSettings
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, ownerID).Scan(
		&settings.OwnerID,
		&settings.FileProcessingWebhook,
		&settings.ChatRagWebhook,
		&settings.YoutubeWebhook,
		&settings.NewsWebhook,
		&settings.CreatedAt,
		&settings.UpdatedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			// Nothing saved yet
			return nil, nil
		}
		return nil, fmt.Errorf("get user settings: %w", err)
	}

	return &settings, nil
}

// Upsert creates or replaces the settings row keyed by user_id.
// Empty strings are stored as NULL.
func (r *PostgresSettingsRepository) Upsert(ctx context.Context, settings *models.UserSettings) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, file_processing_webhook, chat_rag_webhook, youtube_webhook, news_webhook, created_at, updated_at)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			file_processing_webhook = EXCLUDED.file_processing_webhook,
			chat_rag_webhook = EXCLUDED.chat_rag_webhook,
			youtube_webhook = EXCLUDED.youtube_webhook,
			news_webhook = EXCLUDED.news_webhook,
			updated_at = EXCLUDED.updated_at
		RETURNING created_at, updated_at
	`, r.tables.UserSettings)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		settings.OwnerID,
		settings.FileProcessingWebhook,
		settings.ChatRagWebhook,
		settings.YoutubeWebhook,
		settings.NewsWebhook,
		settings.CreatedAt,
		settings.UpdatedAt,
	).Scan(&settings.CreatedAt, &settings.UpdatedAt)

	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("user %s: %w", settings.OwnerID, domain.ErrUnauthorized)
		}
		return fmt.Errorf("upsert user settings: %w", err)
	}

	r.logger.Debug("user settings saved", "user_id", settings.OwnerID)
	return nil
}
