package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"gauntlet/internal/domain/models"
	"gauntlet/internal/domain/repositories"
)

// PostgresFileQueueRepository implements the FileQueueRepository interface
type PostgresFileQueueRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewFileQueueRepository creates a new PostgresFileQueueRepository
func NewFileQueueRepository(config *RepositoryConfig) repositories.FileQueueRepository {
	return &PostgresFileQueueRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Record inserts an uploaded file into the processing queue
func (r *PostgresFileQueueRepository) Record(ctx context.Context, file *models.QueuedFile) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, storage_path, original_filename, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, r.tables.FileProcessingQueue)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		file.OwnerID,
		file.StoragePath,
		file.OriginalFilename,
		file.CreatedAt,
	).Scan(&file.ID, &file.CreatedAt)

	if err != nil {
		return fmt.Errorf("record queued file: %w", err)
	}

	r.logger.Debug("file queued for processing",
		"id", file.ID,
		"storage_path", file.StoragePath,
	)
	return nil
}
