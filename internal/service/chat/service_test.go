package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gauntlet/internal/config"
	"gauntlet/internal/domain"
	"gauntlet/internal/domain/models"
	"gauntlet/internal/domain/services"
	"gauntlet/internal/repository/memory"
	"gauntlet/internal/service/chattype"
	"gauntlet/internal/service/conversation"
	"gauntlet/internal/service/settings"
	"gauntlet/internal/service/webhook"
)

var guest = models.Identity{ID: "g1", Guest: true}

// webhookServer captures payloads and answers with a fixed body
type webhookServer struct {
	*httptest.Server
	calls    atomic.Int32
	payloads chan map[string]any
}

func newWebhookServer(t *testing.T, status int, body string) *webhookServer {
	t.Helper()
	ws := &webhookServer{payloads: make(chan map[string]any, 10)}
	ws.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws.calls.Add(1)
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		ws.payloads <- payload
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ws.Close)
	return ws
}

type fixture struct {
	svc           services.ChatService
	conversations *conversation.Registry
	registry      *chattype.Registry
	settingsRepo  *memory.SettingsRepository
}

// newFixture builds a chat service for a guest whose seeded chat types have no webhook
func newFixture(t *testing.T, defaultWebhook string) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	settingsRepo := memory.NewSettingsRepository()
	if defaultWebhook != "" {
		require.NoError(t, settingsRepo.Upsert(context.Background(), &models.UserSettings{
			OwnerID:        guest.ID,
			ChatRagWebhook: defaultWebhook,
		}))
	}

	registry := chattype.NewRegistry(chattype.Options{
		GuestSeed: []config.GuestChatType{
			{Name: "Personal Business", Type: "personal_business", Default: true},
			{Name: "AI", Type: "ai"},
		},
	}, logger)

	conversations := conversation.NewRegistry(conversation.Options{Greeting: "hi"}, logger)
	svc := NewService(
		conversations,
		registry,
		settings.NewService(nil, settingsRepo, logger),
		webhook.NewDispatcher(webhook.Options{}, logger),
		logger,
	)

	return &fixture{
		svc:           svc,
		conversations: conversations,
		registry:      registry,
		settingsRepo:  settingsRepo,
	}
}

func TestSendMessage_JSONAnswer(t *testing.T) {
	ws := newWebhookServer(t, http.StatusOK, `{"answer":"42"}`)
	f := newFixture(t, ws.URL)

	result, err := f.svc.SendMessage(context.Background(), guest, &services.SendMessageRequest{Message: "meaning of life?"})
	require.NoError(t, err)

	require.NotNil(t, result.SystemMessage)
	assert.Equal(t, "42", result.SystemMessage.Content)
	assert.Equal(t, models.SenderSystem, result.SystemMessage.Sender)
	assert.Equal(t, "meaning of life?", result.UserMessage.Content)

	active := f.conversations.For(guest).Active()
	require.Len(t, active.Messages, 3)
	assert.Equal(t, "42", active.Messages[2].Content)
	assert.Equal(t, "meaning of life?", active.Title)
}

func TestSendMessage_PlainTextAnswer(t *testing.T) {
	ws := newWebhookServer(t, http.StatusOK, "hello")
	f := newFixture(t, ws.URL)

	result, err := f.svc.SendMessage(context.Background(), guest, &services.SendMessageRequest{Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hello", result.SystemMessage.Content)
}

func TestSendMessage_FallbackOmitsType(t *testing.T) {
	ws := newWebhookServer(t, http.StatusOK, "ok")
	f := newFixture(t, ws.URL)

	_, err := f.svc.SendMessage(context.Background(), guest, &services.SendMessageRequest{Message: "q"})
	require.NoError(t, err)

	payload := <-ws.payloads
	assert.Equal(t, "q", payload["query"])
	_, hasType := payload["type"]
	assert.False(t, hasType, "default webhook payload must not carry a type")
}

func TestSendMessage_ChatTypeWebhookTagsSlug(t *testing.T) {
	typeHook := newWebhookServer(t, http.StatusOK, `{"output":"from type"}`)
	defaultHook := newWebhookServer(t, http.StatusOK, "from default")
	f := newFixture(t, defaultHook.URL)
	ctx := context.Background()

	list, err := f.registry.Load(ctx, guest)
	require.NoError(t, err)
	var aiID string
	for _, ct := range list.ChatTypes {
		if ct.Type == "ai" {
			aiID = ct.ID
		}
	}
	_, err = f.registry.Edit(ctx, guest, aiID, &services.UpdateChatTypeRequest{Name: "AI", WebhookURL: &typeHook.URL})
	require.NoError(t, err)
	_, err = f.registry.Select(ctx, guest, aiID)
	require.NoError(t, err)

	result, err := f.svc.SendMessage(ctx, guest, &services.SendMessageRequest{Message: "q"})
	require.NoError(t, err)

	assert.Equal(t, "from type", result.SystemMessage.Content)
	assert.Equal(t, "ai", result.ChatType)
	payload := <-typeHook.payloads
	assert.Equal(t, "ai", payload["type"])
	assert.Equal(t, int32(0), defaultHook.calls.Load())
}

func TestSendMessage_ExplicitChatTypeOverridesSelection(t *testing.T) {
	typeHook := newWebhookServer(t, http.StatusOK, "typed")
	f := newFixture(t, "")
	ctx := context.Background()

	list, err := f.registry.Load(ctx, guest)
	require.NoError(t, err)
	var aiID string
	for _, ct := range list.ChatTypes {
		if ct.Type == "ai" {
			aiID = ct.ID
		}
	}
	_, err = f.registry.Edit(ctx, guest, aiID, &services.UpdateChatTypeRequest{Name: "AI", WebhookURL: &typeHook.URL})
	require.NoError(t, err)

	result, err := f.svc.SendMessage(ctx, guest, &services.SendMessageRequest{Message: "q", ChatTypeID: &aiID})
	require.NoError(t, err)
	assert.Equal(t, "typed", result.SystemMessage.Content)

	missing := "missing"
	_, err = f.svc.SendMessage(ctx, guest, &services.SendMessageRequest{Message: "q", ChatTypeID: &missing})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestSendMessage_NotConfigured(t *testing.T) {
	f := newFixture(t, "")

	_, err := f.svc.SendMessage(context.Background(), guest, &services.SendMessageRequest{Message: "q"})
	assert.True(t, errors.Is(err, domain.ErrWebhookNotConfigured))

	// Nothing was appended
	assert.Len(t, f.conversations.For(guest).Active().Messages, 1)
}

func TestSendMessage_WebhookFailure(t *testing.T) {
	ws := newWebhookServer(t, http.StatusInternalServerError, "boom")
	f := newFixture(t, ws.URL)

	_, err := f.svc.SendMessage(context.Background(), guest, &services.SendMessageRequest{Message: "q"})
	assert.True(t, errors.Is(err, domain.ErrWebhookFailed))
	assert.Equal(t, int32(1), ws.calls.Load())

	messages := f.conversations.For(guest).Active().Messages
	require.Len(t, messages, 2, "user message stays, no reply")
	assert.Equal(t, models.SenderUser, messages[1].Sender)
}

func TestSendMessage_EmptyMessage(t *testing.T) {
	f := newFixture(t, "https://hooks.example.com/chat")

	_, err := f.svc.SendMessage(context.Background(), guest, &services.SendMessageRequest{Message: "   "})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestSendMessage_ReplyLandsInOriginConversation(t *testing.T) {
	f := newFixture(t, "")
	store := f.conversations.For(guest)
	origin := store.ActiveID()

	// Switch away while the webhook is running
	ws := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		store.Create(nil)
		_, _ = w.Write([]byte("late"))
	}))
	defer ws.Close()
	require.NoError(t, f.settingsRepo.Upsert(context.Background(), &models.UserSettings{
		OwnerID:        guest.ID,
		ChatRagWebhook: ws.URL,
	}))

	result, err := f.svc.SendMessage(context.Background(), guest, &services.SendMessageRequest{Message: "q"})
	require.NoError(t, err)
	assert.Equal(t, origin, result.ConversationID)

	conv, err := store.Get(origin)
	require.NoError(t, err)
	assert.Equal(t, "late", conv.Messages[len(conv.Messages)-1].Content)
	assert.Len(t, store.Active().Messages, 1, "new active conversation only has its greeting")
}
