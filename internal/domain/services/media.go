package services

import (
	"context"

	"gauntlet/internal/domain/models"
)

// MediaService forwards YouTube links and news queries to their webhooks
type MediaService interface {
	SubmitYoutube(ctx context.Context, owner models.Identity, youtubeURL string) error
	SubmitNews(ctx context.Context, owner models.Identity, newsQuery string) error
}
