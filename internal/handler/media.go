package handler

import (
	"log/slog"
	"net/http"

	"gauntlet/internal/domain/services"
	"gauntlet/internal/httputil"
)

// MediaHandler handles YouTube and news submissions
type MediaHandler struct {
	service services.MediaService
	logger  *slog.Logger
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(service services.MediaService, logger *slog.Logger) *MediaHandler {
	return &MediaHandler{
		service: service,
		logger:  logger,
	}
}

type youtubeBody struct {
	YoutubeURL string `json:"youtube_url"`
}

type newsBody struct {
	NewsQuery string `json:"news_query"`
}

// SubmitYoutube forwards a YouTube link to the owner's YouTube webhook
// POST /api/media/youtube
func (h *MediaHandler) SubmitYoutube(w http.ResponseWriter, r *http.Request) {
	owner, ok := identityFrom(w, r)
	if !ok {
		return
	}

	var body youtubeBody
	if !parseBody(w, r, &body) {
		return
	}

	if err := h.service.SubmitYoutube(r.Context(), owner, body.YoutubeURL); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusAccepted, map[string]string{"status": "submitted"})
}

// SubmitNews forwards a news query to the owner's news webhook
// POST /api/media/news
func (h *MediaHandler) SubmitNews(w http.ResponseWriter, r *http.Request) {
	owner, ok := identityFrom(w, r)
	if !ok {
		return
	}

	var body newsBody
	if !parseBody(w, r, &body) {
		return
	}

	if err := h.service.SubmitNews(r.Context(), owner, body.NewsQuery); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusAccepted, map[string]string{"status": "submitted"})
}
