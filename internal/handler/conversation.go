package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"gauntlet/internal/domain/models"
	"gauntlet/internal/domain/services"
	"gauntlet/internal/httputil"
	"gauntlet/internal/service/conversation"
)

// ConversationHandler handles conversation HTTP requests
type ConversationHandler struct {
	conversations *conversation.Registry
	chatTypes     services.ChatTypeRegistry
	logger        *slog.Logger
}

// NewConversationHandler creates a new conversation handler
func NewConversationHandler(conversations *conversation.Registry, chatTypes services.ChatTypeRegistry, logger *slog.Logger) *ConversationHandler {
	return &ConversationHandler{
		conversations: conversations,
		chatTypes:     chatTypes,
		logger:        logger,
	}
}

// ConversationList is the sidebar view of an owner's conversations
type ConversationList struct {
	Conversations []models.ConversationSummary `json:"conversations"`
	ActiveID      string                       `json:"active_id"`
}

type createConversationBody struct {
	ChatTypeID *string `json:"chat_type_id"`
}

type switchConversationBody struct {
	ID string `json:"id"`
}

// ListConversations returns conversation summaries and the active id
// GET /api/conversations
func (h *ConversationHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	owner, ok := identityFrom(w, r)
	if !ok {
		return
	}

	httputil.RespondJSON(w, http.StatusOK, h.listFor(owner))
}

// CreateConversation starts a new conversation and makes it active.
// The body is optional.
// POST /api/conversations
func (h *ConversationHandler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	owner, ok := identityFrom(w, r)
	if !ok {
		return
	}

	var body createConversationBody
	if err := httputil.ParseJSON(w, r, &body); err != nil && !errors.Is(err, io.EOF) {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if body.ChatTypeID != nil {
		if _, err := h.chatTypes.Get(r.Context(), owner, *body.ChatTypeID); err != nil {
			handleError(w, err)
			return
		}
	}

	conv := h.conversations.For(owner).Create(body.ChatTypeID)
	h.logger.Debug("conversation created", "id", conv.ID, "owner", owner.OwnerKey())

	httputil.RespondJSON(w, http.StatusCreated, conv)
}

// SwitchConversation makes another conversation active
// PUT /api/conversations/active
func (h *ConversationHandler) SwitchConversation(w http.ResponseWriter, r *http.Request) {
	owner, ok := identityFrom(w, r)
	if !ok {
		return
	}

	var body switchConversationBody
	if !parseBody(w, r, &body) {
		return
	}

	store := h.conversations.For(owner)
	if err := store.Switch(body.ID); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, store.Active())
}

// GetConversation returns one conversation with its messages
// GET /api/conversations/{id}
func (h *ConversationHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	owner, ok := identityFrom(w, r)
	if !ok {
		return
	}

	conv, err := h.conversations.For(owner).Get(r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, conv)
}

// DeleteConversation removes a conversation and returns the updated list
// DELETE /api/conversations/{id}
func (h *ConversationHandler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	owner, ok := identityFrom(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	if err := h.conversations.For(owner).Delete(id); err != nil {
		handleError(w, err)
		return
	}
	h.logger.Debug("conversation deleted", "id", id, "owner", owner.OwnerKey())

	httputil.RespondJSON(w, http.StatusOK, h.listFor(owner))
}

func (h *ConversationHandler) listFor(owner models.Identity) ConversationList {
	store := h.conversations.For(owner)
	return ConversationList{
		Conversations: store.Summaries(),
		ActiveID:      store.ActiveID(),
	}
}
