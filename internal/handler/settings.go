package handler

import (
	"log/slog"
	"net/http"

	"gauntlet/internal/domain/models"
	"gauntlet/internal/domain/services"
	"gauntlet/internal/httputil"
)

// SettingsHandler handles webhook settings HTTP requests
type SettingsHandler struct {
	service services.SettingsService
	logger  *slog.Logger
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(service services.SettingsService, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{
		service: service,
		logger:  logger,
	}
}

// updateSettingsBody distinguishes absent, null and set fields
type updateSettingsBody struct {
	FileProcessingWebhook httputil.OptionalString `json:"file_processing_webhook"`
	ChatRagWebhook        httputil.OptionalString `json:"chat_rag_webhook"`
	YoutubeWebhook        httputil.OptionalString `json:"youtube_webhook"`
	NewsWebhook           httputil.OptionalString `json:"news_webhook"`
}

// GetSettings retrieves the caller's webhook settings
// GET /api/settings
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	owner, ok := identityFrom(w, r)
	if !ok {
		return
	}

	settings, err := h.service.GetSettings(r.Context(), owner)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, settings)
}

// UpdateSettings applies a partial update to the caller's settings
// PATCH /api/settings
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	owner, ok := identityFrom(w, r)
	if !ok {
		return
	}

	var body updateSettingsBody
	if !parseBody(w, r, &body) {
		return
	}

	settings, err := h.service.UpdateSettings(r.Context(), owner, &models.UpdateSettingsRequest{
		FileProcessingWebhook: body.FileProcessingWebhook.Field(),
		ChatRagWebhook:        body.ChatRagWebhook.Field(),
		YoutubeWebhook:        body.YoutubeWebhook.Field(),
		NewsWebhook:           body.NewsWebhook.Field(),
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, settings)
}
