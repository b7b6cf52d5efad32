package media

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gauntlet/internal/domain"
	"gauntlet/internal/domain/models"
	"gauntlet/internal/domain/services"
	"gauntlet/internal/repository/memory"
	"gauntlet/internal/service/settings"
)

type call struct {
	url     string
	payload any
}

// fakeDispatcher records calls instead of making them
type fakeDispatcher struct {
	mu    sync.Mutex
	calls []call
	err   error
}

func (f *fakeDispatcher) Send(ctx context.Context, url string, payload any) (*services.Reply, error) {
	return nil, errors.New("not used")
}

func (f *fakeDispatcher) Notify(ctx context.Context, url string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{url: url, payload: payload})
	return f.err
}

var guest = models.Identity{ID: "guest-1", Guest: true}

func newTestService(t *testing.T, youtube, news string) (*mediaService, *fakeDispatcher) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := memory.NewSettingsRepository()
	require.NoError(t, repo.Upsert(context.Background(), &models.UserSettings{
		OwnerID:        guest.ID,
		YoutubeWebhook: youtube,
		NewsWebhook:    news,
	}))

	dispatcher := &fakeDispatcher{}
	svc := NewService(settings.NewService(nil, repo, logger), dispatcher, logger).(*mediaService)
	svc.now = func() time.Time { return time.Date(2025, 3, 4, 5, 6, 7, 8_000_000, time.UTC) }
	return svc, dispatcher
}

func TestSubmitYoutube(t *testing.T) {
	svc, dispatcher := newTestService(t, "https://hooks.example.com/yt", "")

	err := svc.SubmitYoutube(context.Background(), guest, " https://youtu.be/abc ")
	require.NoError(t, err)

	require.Len(t, dispatcher.calls, 1)
	assert.Equal(t, "https://hooks.example.com/yt", dispatcher.calls[0].url)
	assert.Equal(t, services.YoutubePayload{
		YoutubeURL: "https://youtu.be/abc",
		Timestamp:  "2025-03-04T05:06:07.008Z",
	}, dispatcher.calls[0].payload)
}

func TestSubmitNews(t *testing.T) {
	svc, dispatcher := newTestService(t, "", "https://hooks.example.com/news")

	require.NoError(t, svc.SubmitNews(context.Background(), guest, "chip supply"))
	require.Len(t, dispatcher.calls, 1)
	payload, ok := dispatcher.calls[0].payload.(services.NewsPayload)
	require.True(t, ok)
	assert.Equal(t, "chip supply", payload.NewsQuery)
}

func TestSubmit_BlankInput(t *testing.T) {
	svc, dispatcher := newTestService(t, "https://hooks.example.com/yt", "https://hooks.example.com/news")

	assert.True(t, errors.Is(svc.SubmitYoutube(context.Background(), guest, "  "), domain.ErrValidation))
	assert.True(t, errors.Is(svc.SubmitNews(context.Background(), guest, ""), domain.ErrValidation))
	assert.Empty(t, dispatcher.calls)
}

func TestSubmit_NotConfigured(t *testing.T) {
	svc, dispatcher := newTestService(t, "", "")

	err := svc.SubmitYoutube(context.Background(), guest, "https://youtu.be/abc")
	assert.True(t, errors.Is(err, domain.ErrWebhookNotConfigured))
	err = svc.SubmitNews(context.Background(), guest, "q")
	assert.True(t, errors.Is(err, domain.ErrWebhookNotConfigured))
	assert.Empty(t, dispatcher.calls, "no network call without a URL")
}

func TestSubmit_WebhookFailure(t *testing.T) {
	svc, dispatcher := newTestService(t, "https://hooks.example.com/yt", "")
	dispatcher.err = &domain.WebhookStatusError{Status: 500}

	err := svc.SubmitYoutube(context.Background(), guest, "https://youtu.be/abc")
	assert.True(t, errors.Is(err, domain.ErrWebhookFailed))
}
