package handler

import (
	"log/slog"
	"net/http"

	"gauntlet/internal/domain/services"
	"gauntlet/internal/httputil"
)

// ChatHandler handles chat HTTP requests
type ChatHandler struct {
	service services.ChatService
	logger  *slog.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(service services.ChatService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		service: service,
		logger:  logger,
	}
}

// SendMessage appends a message to the active conversation, forwards it
// to the resolved chat webhook and returns both sides of the exchange
// POST /api/chat
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	owner, ok := identityFrom(w, r)
	if !ok {
		return
	}

	var req services.SendMessageRequest
	if !parseBody(w, r, &req) {
		return
	}

	result, err := h.service.SendMessage(r.Context(), owner, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}
