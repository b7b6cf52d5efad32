package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gauntlet/internal/config"
	"gauntlet/internal/domain/models"
	"gauntlet/internal/middleware"
	"gauntlet/internal/repository/memory"
	"gauntlet/internal/service/chat"
	"gauntlet/internal/service/chattype"
	"gauntlet/internal/service/conversation"
	"gauntlet/internal/service/media"
	"gauntlet/internal/service/settings"
	"gauntlet/internal/service/upload"
	"gauntlet/internal/service/webhook"
)

// memoryStorage is an in-process object store
type memoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (s *memoryStorage) Upload(ctx context.Context, path, contentType string, content io.Reader) error {
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path] = data
	return nil
}

func (s *memoryStorage) PublicURL(path string) string {
	return "https://cdn.example.com/" + path
}

// testAPI serves the full API for guests over an in-process server
type testAPI struct {
	server  *httptest.Server
	storage *memoryStorage
	session string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	dispatch, err := config.LoadDispatch()
	require.NoError(t, err)

	guestSettings := memory.NewSettingsRepository()
	settingsSvc := settings.NewService(nil, guestSettings, logger)
	dispatcher := webhook.NewDispatcher(webhook.Options{ResponseFields: dispatch.ResponseFields}, logger)
	chatTypes := chattype.NewRegistry(chattype.Options{
		GuestSeed:     dispatch.GuestChatTypes,
		GuestSettings: guestSettings,
	}, logger)
	conversations := conversation.NewRegistry(conversation.Options{
		Greeting:     dispatch.Greeting,
		DefaultTitle: dispatch.DefaultTitle,
	}, logger)
	storage := &memoryStorage{objects: make(map[string][]byte)}
	pipeline := upload.NewPipeline(upload.Options{
		Storage:    storage,
		GuestQueue: memory.NewFileQueueRepository(),
		Settings:   settingsSvc,
		Dispatcher: dispatcher,
		Validator:  upload.NewValidator(dispatch.FileTypes, config.DefaultMaxUploadBytes),
		Colors:     dispatch.StoneColors,
	}, logger)

	handlers := &Handlers{
		Conversations: NewConversationHandler(conversations, chatTypes, logger),
		Chat:          NewChatHandler(chat.NewService(conversations, chatTypes, settingsSvc, dispatcher, logger), logger),
		ChatTypes:     NewChatTypeHandler(chatTypes, logger),
		Settings:      NewSettingsHandler(settingsSvc, logger),
		Uploads:       NewUploadHandler(pipeline, 5<<20, time.Minute, logger),
		Media:         NewMediaHandler(media.NewService(settingsSvc, dispatcher, logger), logger),
	}
	mux := http.NewServeMux()
	handlers.Register(mux)

	server := httptest.NewServer(middleware.Identity(nil, logger)(mux))
	t.Cleanup(server.Close)

	return &testAPI{server: server, storage: storage}
}

// do sends a JSON request as the test guest and decodes the response into out
func (a *testAPI) do(t *testing.T, method, path string, body any, out any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	return a.send(t, req, out)
}

func (a *testAPI) send(t *testing.T, req *http.Request, out any) *http.Response {
	t.Helper()
	if a.session != "" {
		req.Header.Set(middleware.GuestSessionHeader, a.session)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	a.session = resp.Header.Get(middleware.GuestSessionHeader)
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

// webhookStub answers every POST with body and records the payloads
func webhookStub(t *testing.T, status int, body string) (*httptest.Server, *[]map[string]any) {
	t.Helper()
	var mu sync.Mutex
	payloads := &[]map[string]any{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		mu.Lock()
		*payloads = append(*payloads, payload)
		mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, payloads
}

func TestConversationLifecycle(t *testing.T) {
	api := newTestAPI(t)

	var list ConversationList
	resp := api.do(t, http.MethodGet, "/api/conversations", nil, &list)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, list.Conversations, 1)
	first := list.ActiveID

	var created models.Conversation
	resp = api.do(t, http.MethodPost, "/api/conversations", nil, &created)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, created.Messages, 1)
	assert.Equal(t, models.SenderSystem, created.Messages[0].Sender)

	api.do(t, http.MethodGet, "/api/conversations", nil, &list)
	assert.Len(t, list.Conversations, 2)
	assert.Equal(t, created.ID, list.ActiveID)

	var active models.Conversation
	resp = api.do(t, http.MethodPut, "/api/conversations/active", map[string]string{"id": first}, &active)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, first, active.ID)

	resp = api.do(t, http.MethodPut, "/api/conversations/active", map[string]string{"id": "missing"}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = api.do(t, http.MethodDelete, "/api/conversations/"+first, nil, &list)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, list.Conversations, 1)
	assert.Equal(t, created.ID, list.ActiveID)

	resp = api.do(t, http.MethodGet, "/api/conversations/"+first, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateConversation_UnknownChatType(t *testing.T) {
	api := newTestAPI(t)
	resp := api.do(t, http.MethodPost, "/api/conversations", map[string]string{"chat_type_id": "missing"}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestChat_RoundTrip(t *testing.T) {
	api := newTestAPI(t)
	hook, payloads := webhookStub(t, http.StatusOK, `{"answer":"42"}`)

	resp := api.do(t, http.MethodPatch, "/api/settings", map[string]any{"chat_rag_webhook": hook.URL}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		ConversationID string          `json:"conversation_id"`
		UserMessage    models.Message  `json:"user_message"`
		SystemMessage  *models.Message `json:"system_message"`
	}
	resp = api.do(t, http.MethodPost, "/api/chat", map[string]string{"message": "meaning of life?"}, &result)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, result.SystemMessage)
	assert.Equal(t, "42", result.SystemMessage.Content)

	require.Len(t, *payloads, 1)
	assert.Equal(t, "meaning of life?", (*payloads)[0]["query"])

	var conv models.Conversation
	api.do(t, http.MethodGet, "/api/conversations/"+result.ConversationID, nil, &conv)
	assert.Equal(t, "meaning of life?", conv.Title)
	assert.Len(t, conv.Messages, 3)
}

func TestChat_Errors(t *testing.T) {
	api := newTestAPI(t)

	// No webhook anywhere
	var problem map[string]any
	resp := api.do(t, http.MethodPost, "/api/chat", map[string]string{"message": "hi"}, &problem)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, float64(http.StatusUnprocessableEntity), problem["status"])

	// Webhook answers 500
	hook, _ := webhookStub(t, http.StatusInternalServerError, "boom")
	api.do(t, http.MethodPatch, "/api/settings", map[string]any{"chat_rag_webhook": hook.URL}, nil)
	resp = api.do(t, http.MethodPost, "/api/chat", map[string]string{"message": "hi"}, &problem)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, float64(http.StatusInternalServerError), problem["webhook_status"])

	// Empty message
	resp = api.do(t, http.MethodPost, "/api/chat", map[string]string{"message": ""}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Malformed body
	req, err := http.NewRequest(http.MethodPost, api.server.URL+"/api/chat", strings.NewReader("{"))
	require.NoError(t, err)
	resp = api.send(t, req, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChatTypes_Endpoints(t *testing.T) {
	api := newTestAPI(t)

	var list models.ChatTypeList
	resp := api.do(t, http.MethodGet, "/api/chat-types", nil, &list)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, list.ChatTypes, 2, "guests start with the seeded types")
	defaultID := *list.DefaultTypeID

	resp = api.do(t, http.MethodPost, "/api/chat-types", map[string]string{"name": "Deep Research"}, &list)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var researchID string
	for _, ct := range list.ChatTypes {
		if ct.Type == "deep_research" {
			researchID = ct.ID
		}
	}
	require.NotEmpty(t, researchID)

	resp = api.do(t, http.MethodPost, "/api/chat-types", map[string]string{"name": "Deep Research"}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = api.do(t, http.MethodPatch, "/api/chat-types/"+researchID, map[string]string{"name": "Research"}, &list)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = api.do(t, http.MethodPut, "/api/chat-types/selected", map[string]string{"id": researchID}, &list)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, researchID, *list.SelectedTypeID)

	var problem map[string]any
	resp = api.do(t, http.MethodDelete, "/api/chat-types/"+defaultID, nil, &problem)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, defaultID, problem["resource_id"])

	resp = api.do(t, http.MethodPost, "/api/chat-types/"+researchID+"/default", nil, &list)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, researchID, *list.DefaultTypeID)

	resp = api.do(t, http.MethodDelete, "/api/chat-types/"+defaultID, nil, &list)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, list.ChatTypes, 2)
}

func TestSettings_PatchSemantics(t *testing.T) {
	api := newTestAPI(t)

	var s models.UserSettings
	resp := api.do(t, http.MethodGet, "/api/settings", nil, &s)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, s.ChatRagWebhook)

	api.do(t, http.MethodPatch, "/api/settings", map[string]any{
		"chat_rag_webhook": "https://hooks.example.com/chat",
		"news_webhook":     "https://hooks.example.com/news",
	}, &s)
	assert.Equal(t, "https://hooks.example.com/chat", s.ChatRagWebhook)

	// Absent fields keep their value, null clears
	api.do(t, http.MethodPatch, "/api/settings", map[string]any{"news_webhook": nil}, &s)
	assert.Equal(t, "https://hooks.example.com/chat", s.ChatRagWebhook)
	assert.Empty(t, s.NewsWebhook)

	resp = api.do(t, http.MethodPatch, "/api/settings", map[string]any{"youtube_webhook": "://bad"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMedia_Submit(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(t, http.MethodPost, "/api/media/news", map[string]string{"news_query": "rates"}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	hook, payloads := webhookStub(t, http.StatusOK, "")
	api.do(t, http.MethodPatch, "/api/settings", map[string]any{"news_webhook": hook.URL}, nil)

	resp = api.do(t, http.MethodPost, "/api/media/news", map[string]string{"news_query": "rates"}, nil)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Len(t, *payloads, 1)
	assert.Equal(t, "rates", (*payloads)[0]["newsQuery"])
	assert.NotEmpty(t, (*payloads)[0]["timestamp"])
}

// multipartRequest builds a POST /api/uploads request with the given files
func multipartRequest(t *testing.T, url string, files map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, url+"/api/uploads", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploads_Endpoints(t *testing.T) {
	api := newTestAPI(t)
	hook, payloads := webhookStub(t, http.StatusOK, "")
	api.do(t, http.MethodPatch, "/api/settings", map[string]any{"file_processing_webhook": hook.URL}, nil)

	var batch struct {
		Files    []models.UploadingFile `json:"files"`
		Rejected []struct {
			Filename string `json:"filename"`
			Reason   string `json:"reason"`
		} `json:"rejected"`
	}
	resp := api.send(t, multipartRequest(t, api.server.URL, map[string]string{
		"notes.txt": "hello",
		"setup.exe": "MZ",
	}), &batch)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Len(t, batch.Files, 1)
	assert.Equal(t, "notes.txt", batch.Files[0].Filename)
	assert.Equal(t, models.UploadStatusComplete, batch.Files[0].Status)
	assert.True(t, batch.Files[0].Notified)
	require.Len(t, batch.Rejected, 1)
	assert.Equal(t, "setup.exe", batch.Rejected[0].Filename)

	assert.Equal(t, []byte("hello"), api.storage.objects[batch.Files[0].StoragePath])
	require.Len(t, *payloads, 1)
	assert.Equal(t, "notes.txt", (*payloads)[0]["originalFilename"])

	var listed struct {
		Files []models.UploadingFile `json:"files"`
	}
	api.do(t, http.MethodGet, "/api/uploads", nil, &listed)
	require.Len(t, listed.Files, 1)

	resp = api.do(t, http.MethodDelete, "/api/uploads/"+listed.Files[0].ID, nil, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = api.do(t, http.MethodDelete, "/api/uploads/"+listed.Files[0].ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUploads_BadForm(t *testing.T) {
	api := newTestAPI(t)
	resp := api.do(t, http.MethodPost, "/api/uploads", map[string]string{"not": "multipart"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGuestSessionsAreIsolated(t *testing.T) {
	api := newTestAPI(t)

	api.do(t, http.MethodPost, "/api/conversations", nil, nil)
	var list ConversationList
	api.do(t, http.MethodGet, "/api/conversations", nil, &list)
	assert.Len(t, list.Conversations, 2)

	// A new guest starts fresh
	api.session = ""
	api.do(t, http.MethodGet, "/api/conversations", nil, &list)
	assert.Len(t, list.Conversations, 1)
}
