package settings

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"gauntlet/internal/config"
	"gauntlet/internal/domain"
	"gauntlet/internal/domain/models"
	"gauntlet/internal/domain/repositories"
	"gauntlet/internal/domain/services"
)

// settingsService implements the SettingsService interface.
// Users are persisted through userRepo; guests through guestRepo.
type settingsService struct {
	userRepo  repositories.SettingsRepository
	guestRepo repositories.SettingsRepository
	logger    *slog.Logger
}

// NewService creates a settings service. userRepo may be nil when no
// database is configured; only guests are served then.
func NewService(
	userRepo repositories.SettingsRepository,
	guestRepo repositories.SettingsRepository,
	logger *slog.Logger,
) services.SettingsService {
	return &settingsService{
		userRepo:  userRepo,
		guestRepo: guestRepo,
		logger:    logger,
	}
}

func (s *settingsService) repoFor(owner models.Identity) (repositories.SettingsRepository, error) {
	if owner.Guest {
		return s.guestRepo, nil
	}
	if s.userRepo == nil {
		return nil, fmt.Errorf("settings unavailable without a database: %w", domain.ErrUnauthorized)
	}
	return s.userRepo, nil
}

// GetSettings returns saved settings, or empty settings if none exist
func (s *settingsService) GetSettings(ctx context.Context, owner models.Identity) (*models.UserSettings, error) {
	repo, err := s.repoFor(owner)
	if err != nil {
		return nil, err
	}

	settings, err := repo.Get(ctx, owner.ID)
	if err != nil {
		return nil, err
	}

	if settings == nil {
		now := time.Now()
		return &models.UserSettings{
			OwnerID:   owner.ID,
			CreatedAt: now,
			UpdatedAt: now,
		}, nil
	}

	return settings, nil
}

// UpdateSettings merges a partial update into the stored row and upserts it
func (s *settingsService) UpdateSettings(ctx context.Context, owner models.Identity, req *models.UpdateSettingsRequest) (*models.UserSettings, error) {
	current, err := s.GetSettings(ctx, owner)
	if err != nil {
		return nil, err
	}

	next := *current
	next.OwnerID = owner.ID
	next.FileProcessingWebhook = strings.TrimSpace(req.FileProcessingWebhook.Apply(current.FileProcessingWebhook))
	next.ChatRagWebhook = strings.TrimSpace(req.ChatRagWebhook.Apply(current.ChatRagWebhook))
	next.YoutubeWebhook = strings.TrimSpace(req.YoutubeWebhook.Apply(current.YoutubeWebhook))
	next.NewsWebhook = strings.TrimSpace(req.NewsWebhook.Apply(current.NewsWebhook))
	next.UpdatedAt = time.Now()

	if err := validateSettings(&next); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	repo, err := s.repoFor(owner)
	if err != nil {
		return nil, err
	}
	if err := repo.Upsert(ctx, &next); err != nil {
		return nil, err
	}

	s.logger.Info("settings updated",
		"owner", owner.OwnerKey(),
		"chat_webhook_set", next.ChatRagWebhook != "",
		"file_webhook_set", next.FileProcessingWebhook != "",
	)

	return &next, nil
}

// validateSettings accepts empty values (unset) or absolute URLs
func validateSettings(settings *models.UserSettings) error {
	urlRules := []validation.Rule{
		validation.Length(0, config.MaxWebhookURLLength),
		is.URL,
	}
	return validation.ValidateStruct(settings,
		validation.Field(&settings.FileProcessingWebhook, urlRules...),
		validation.Field(&settings.ChatRagWebhook, urlRules...),
		validation.Field(&settings.YoutubeWebhook, urlRules...),
		validation.Field(&settings.NewsWebhook, urlRules...),
	)
}
