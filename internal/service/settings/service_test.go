package settings

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gauntlet/internal/domain"
	"gauntlet/internal/domain/models"
	"gauntlet/internal/repository/memory"
)

func set(v string) models.OptionalField { return models.OptionalField{Present: true, Value: &v} }
func unset() models.OptionalField       { return models.OptionalField{Present: true} }
func absent() models.OptionalField      { return models.OptionalField{} }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var (
	user  = models.Identity{ID: "11111111-1111-1111-1111-111111111111"}
	guest = models.Identity{ID: "guest-1", Guest: true}
)

func TestGetSettings_EmptyWhenNothingSaved(t *testing.T) {
	svc := NewService(memory.NewSettingsRepository(), memory.NewSettingsRepository(), testLogger())

	settings, err := svc.GetSettings(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, user.ID, settings.OwnerID)
	assert.Empty(t, settings.ChatRagWebhook)
}

func TestUpdateSettings_PartialUpdate(t *testing.T) {
	svc := NewService(memory.NewSettingsRepository(), memory.NewSettingsRepository(), testLogger())
	ctx := context.Background()

	_, err := svc.UpdateSettings(ctx, user, &models.UpdateSettingsRequest{
		ChatRagWebhook: set("https://hooks.example.com/chat"),
		NewsWebhook:    set("https://hooks.example.com/news"),
	})
	require.NoError(t, err)

	updated, err := svc.UpdateSettings(ctx, user, &models.UpdateSettingsRequest{
		ChatRagWebhook: absent(),
		NewsWebhook:    unset(),
		YoutubeWebhook: set("  https://hooks.example.com/yt  "),
	})
	require.NoError(t, err)

	assert.Equal(t, "https://hooks.example.com/chat", updated.ChatRagWebhook)
	assert.Empty(t, updated.NewsWebhook)
	assert.Equal(t, "https://hooks.example.com/yt", updated.YoutubeWebhook)

	reloaded, err := svc.GetSettings(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, *updated, *reloaded)
}

func TestUpdateSettings_RejectsInvalidURL(t *testing.T) {
	svc := NewService(memory.NewSettingsRepository(), memory.NewSettingsRepository(), testLogger())

	_, err := svc.UpdateSettings(context.Background(), user, &models.UpdateSettingsRequest{
		FileProcessingWebhook: set("://bad"),
	})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestGuestAndUserAreSeparate(t *testing.T) {
	guestRepo := memory.NewSettingsRepository()
	svc := NewService(memory.NewSettingsRepository(), guestRepo, testLogger())
	ctx := context.Background()

	_, err := svc.UpdateSettings(ctx, guest, &models.UpdateSettingsRequest{
		ChatRagWebhook: set("https://hooks.example.com/guest"),
	})
	require.NoError(t, err)

	stored, err := guestRepo.Get(ctx, guest.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "https://hooks.example.com/guest", stored.ChatRagWebhook)

	userSettings, err := svc.GetSettings(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, userSettings.ChatRagWebhook)
}

func TestUserWithoutDatabase(t *testing.T) {
	svc := NewService(nil, memory.NewSettingsRepository(), testLogger())
	_, err := svc.GetSettings(context.Background(), user)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}
