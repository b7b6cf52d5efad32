package handler

import (
	"log/slog"
	"net/http"

	"gauntlet/internal/domain/services"
	"gauntlet/internal/httputil"
)

// ChatTypeHandler handles chat type HTTP requests.
// Every endpoint answers with the freshly loaded list.
type ChatTypeHandler struct {
	registry services.ChatTypeRegistry
	logger   *slog.Logger
}

// NewChatTypeHandler creates a new chat type handler
func NewChatTypeHandler(registry services.ChatTypeRegistry, logger *slog.Logger) *ChatTypeHandler {
	return &ChatTypeHandler{
		registry: registry,
		logger:   logger,
	}
}

type selectChatTypeBody struct {
	ID string `json:"id"`
}

// ListChatTypes returns the caller's chat types
// GET /api/chat-types
func (h *ChatTypeHandler) ListChatTypes(w http.ResponseWriter, r *http.Request) {
	owner, ok := identityFrom(w, r)
	if !ok {
		return
	}

	list, err := h.registry.Load(r.Context(), owner)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, list)
}

// CreateChatType adds a chat type
// POST /api/chat-types
func (h *ChatTypeHandler) CreateChatType(w http.ResponseWriter, r *http.Request) {
	owner, ok := identityFrom(w, r)
	if !ok {
		return
	}

	var req services.CreateChatTypeRequest
	if !parseBody(w, r, &req) {
		return
	}

	list, err := h.registry.Add(r.Context(), owner, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, list)
}

// UpdateChatType edits name, slug and webhook of a chat type
// PATCH /api/chat-types/{id}
func (h *ChatTypeHandler) UpdateChatType(w http.ResponseWriter, r *http.Request) {
	owner, ok := identityFrom(w, r)
	if !ok {
		return
	}

	var req services.UpdateChatTypeRequest
	if !parseBody(w, r, &req) {
		return
	}

	list, err := h.registry.Edit(r.Context(), owner, r.PathValue("id"), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, list)
}

// DeleteChatType removes a chat type
// DELETE /api/chat-types/{id}
func (h *ChatTypeHandler) DeleteChatType(w http.ResponseWriter, r *http.Request) {
	owner, ok := identityFrom(w, r)
	if !ok {
		return
	}

	list, err := h.registry.Delete(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, list)
}

// SetDefaultChatType makes a chat type the owner's default
// POST /api/chat-types/{id}/default
func (h *ChatTypeHandler) SetDefaultChatType(w http.ResponseWriter, r *http.Request) {
	owner, ok := identityFrom(w, r)
	if !ok {
		return
	}

	list, err := h.registry.SetDefault(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, list)
}

// SelectChatType moves the selected pointer
// PUT /api/chat-types/selected
func (h *ChatTypeHandler) SelectChatType(w http.ResponseWriter, r *http.Request) {
	owner, ok := identityFrom(w, r)
	if !ok {
		return
	}

	var body selectChatTypeBody
	if !parseBody(w, r, &body) {
		return
	}

	list, err := h.registry.Select(r.Context(), owner, body.ID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, list)
}
