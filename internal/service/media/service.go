package media

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
	"gauntlet/internal/domain/services"
)

// mediaService implements the MediaService interface
type mediaService struct {
	settings   services.SettingsService
	dispatcher services.WebhookDispatcher
	now        func() time.Time
	logger     *slog.Logger
}

// NewService creates a media service
func NewService(
	settings services.SettingsService,
	dispatcher services.WebhookDispatcher,
	logger *slog.Logger,
) services.MediaService {
	return &mediaService{
		settings:   settings,
		dispatcher: dispatcher,
		now:        time.Now,
		logger:     logger,
	}
}

// SubmitYoutube forwards a video link to the owner's YouTube webhook
func (s *mediaService) SubmitYoutube(ctx context.Context, owner models.Identity, youtubeURL string) error {
	youtubeURL = strings.TrimSpace(youtubeURL)
	err := validation.Validate(youtubeURL,
		validation.Required.Error("youtube url cannot be empty"),
		validation.Length(1, config.MaxWebhookURLLength),
		is.URL,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	settings, err := s.settings.GetSettings(ctx, owner)
	if err != nil {
		return err
	}
	if settings.YoutubeWebhook == "" {
		return fmt.Errorf("youtube: %w", domain.ErrWebhookNotConfigured)
	}

	payload := services.YoutubePayload{
		YoutubeURL: youtubeURL,
		Timestamp:  s.timestamp(),
	}
	if err := s.dispatcher.Notify(ctx, settings.YoutubeWebhook, payload); err != nil {
		return err
	}

	s.logger.Info("youtube link submitted", "owner", owner.OwnerKey(), "url", youtubeURL)
	return nil
}

// SubmitNews forwards a research query to the owner's news webhook
func (s *mediaService) SubmitNews(ctx context.Context, owner models.Identity, newsQuery string) error {
	newsQuery = strings.TrimSpace(newsQuery)
	err := validation.Validate(newsQuery,
		validation.Required.Error("news query cannot be empty"),
		validation.RuneLength(1, config.MaxNewsQueryLength),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	settings, err := s.settings.GetSettings(ctx, owner)
	if err != nil {
		return err
	}
	if settings.NewsWebhook == "" {
		return fmt.Errorf("news: %w", domain.ErrWebhookNotConfigured)
	}

	payload := services.NewsPayload{
		NewsQuery: newsQuery,
		Timestamp: s.timestamp(),
	}
	if err := s.dispatcher.Notify(ctx, settings.NewsWebhook, payload); err != nil {
		return err
	}

	s.logger.Info("news query submitted", "owner", owner.OwnerKey())
	return nil
}

// timestamp renders the submission time like JavaScript's toISOString
func (s *mediaService) timestamp() string {
	return s.now().UTC().Format("2006-01-02T15:04:05.000Z")
}
