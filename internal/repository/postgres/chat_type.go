package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"gauntlet/internal/domain"
	"gauntlet/internal/domain/models"
	"gauntlet/internal/domain/repositories"
)

// PostgresChatTypeRepository implements the ChatTypeRepository interface
type PostgresChatTypeRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewChatTypeRepository creates a new PostgresChatTypeRepository
func NewChatTypeRepository(config *RepositoryConfig) repositories.ChatTypeRepository {
	return &PostgresChatTypeRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// oneDefaultIndex is the partial unique index allowing one default per user
const oneDefaultIndex = "chat_types_one_default"

const chatTypeColumns = `id, user_id, name, type, webhook_url, is_default, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChatType(row rowScanner) (*models.ChatType, error) {
	var ct models.ChatType
	err := row.Scan(
		&ct.ID,
		&ct.OwnerID,
		&ct.Name,
		&ct.Type,
		&ct.WebhookURL,
		&ct.IsDefault,
		&ct.CreatedAt,
		&ct.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ct, nil
}

// List returns a user's chat types ordered by name
func (r *PostgresChatTypeRepository) List(ctx context.Context, ownerID string) ([]models.ChatType, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE user_id = $1
		ORDER BY name
	`, chatTypeColumns, r.tables.ChatTypes)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list chat types: %w", err)
	}
	defer rows.Close()

	chatTypes := make([]models.ChatType, 0)
	for rows.Next() {
		ct, err := scanChatType(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chat type: %w", err)
		}
		chatTypes = append(chatTypes, *ct)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat types: %w", err)
	}

	return chatTypes, nil
}

// Get retrieves a chat type by ID
func (r *PostgresChatTypeRepository) Get(ctx context.Context, id, ownerID string) (*models.ChatType, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1 AND user_id = $2
	`, chatTypeColumns, r.tables.ChatTypes)

	executor := GetExecutor(ctx, r.pool)
	ct, err := scanChatType(executor.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("chat type %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get chat type: %w", err)
	}

	return ct, nil
}

// Count returns the number of chat types a user has
func (r *PostgresChatTypeRepository) Count(ctx context.Context, ownerID string) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE user_id = $1`, r.tables.ChatTypes)

	var count int
	executor := GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, ownerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count chat types: %w", err)
	}

	return count, nil
}

// Create inserts a new chat type
func (r *PostgresChatTypeRepository) Create(ctx context.Context, chatType *models.ChatType) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, name, type, webhook_url, is_default, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, r.tables.ChatTypes)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		chatType.OwnerID,
		chatType.Name,
		chatType.Type,
		chatType.WebhookURL,
		chatType.IsDefault,
		chatType.CreatedAt,
		chatType.UpdatedAt,
	).Scan(&chatType.ID, &chatType.CreatedAt, &chatType.UpdatedAt)

	if err != nil {
		if IsPgDuplicateError(err) && PgConstraintName(err) == oneDefaultIndex {
			return fmt.Errorf("user already has a default chat type: %w", domain.ErrConflict)
		}
		if IsPgDuplicateError(err) {
			existingID, queryErr := r.getExistingID(ctx, chatType.OwnerID, chatType.Name)
			if queryErr != nil {
				return fmt.Errorf("chat type '%s' already exists: %w", chatType.Name, domain.ErrConflict)
			}

			return &domain.ConflictError{
				Message:      fmt.Sprintf("chat type '%s' already exists", chatType.Name),
				ResourceType: "chat_type",
				ResourceID:   existingID,
			}
		}
		return fmt.Errorf("create chat type: %w", err)
	}

	return nil
}

// getExistingID retrieves the ID of a chat type with the same name
func (r *PostgresChatTypeRepository) getExistingID(ctx context.Context, ownerID, name string) (string, error) {
	query := fmt.Sprintf(`SELECT id FROM %s WHERE user_id = $1 AND name = $2`, r.tables.ChatTypes)

	var id string
	executor := GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, ownerID, name).Scan(&id); err != nil {
		return "", err
	}

	return id, nil
}

// Update persists name, type and webhook URL of a chat type
func (r *PostgresChatTypeRepository) Update(ctx context.Context, chatType *models.ChatType) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, type = $2, webhook_url = $3, updated_at = $4
		WHERE id = $5 AND user_id = $6
		RETURNING updated_at
	`, r.tables.ChatTypes)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		chatType.Name,
		chatType.Type,
		chatType.WebhookURL,
		chatType.UpdatedAt,
		chatType.ID,
		chatType.OwnerID,
	).Scan(&chatType.UpdatedAt)

	if err != nil {
		if IsPgNoRowsError(err) {
			return fmt.Errorf("chat type %s: %w", chatType.ID, domain.ErrNotFound)
		}
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("chat type '%s' already exists", chatType.Name),
				ResourceType: "chat_type",
			}
		}
		return fmt.Errorf("update chat type: %w", err)
	}

	return nil
}

// Delete removes a chat type
func (r *PostgresChatTypeRepository) Delete(ctx context.Context, id, ownerID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND user_id = $2`, r.tables.ChatTypes)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete chat type: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("chat type %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// SetDefault clears the user's other defaults and marks id as default.
// Run it inside ExecTx so both statements commit together.
func (r *PostgresChatTypeRepository) SetDefault(ctx context.Context, id, ownerID string) error {
	now := time.Now()
	executor := GetExecutor(ctx, r.pool)

	clearQuery := fmt.Sprintf(`
		UPDATE %s
		SET is_default = false, updated_at = $1
		WHERE user_id = $2 AND is_default AND id <> $3
	`, r.tables.ChatTypes)
	if _, err := executor.Exec(ctx, clearQuery, now, ownerID, id); err != nil {
		return fmt.Errorf("clear default chat type: %w", err)
	}

	setQuery := fmt.Sprintf(`
		UPDATE %s
		SET is_default = true, updated_at = $1
		WHERE id = $2 AND user_id = $3
	`, r.tables.ChatTypes)
	result, err := executor.Exec(ctx, setQuery, now, id, ownerID)
	if err != nil {
		return fmt.Errorf("set default chat type: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("chat type %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// LockOwner takes a transaction-scoped advisory lock keyed by the user.
// Outside ExecTx the lock is released as soon as the statement ends.
func (r *PostgresChatTypeRepository) LockOwner(ctx context.Context, ownerID string) error {
	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, ownerID); err != nil {
		return fmt.Errorf("lock chat types: %w", err)
	}
	return nil
}
