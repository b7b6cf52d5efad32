package handler

import "net/http"

// Handlers bundles every HTTP handler of the API
type Handlers struct {
	Conversations *ConversationHandler
	Chat          *ChatHandler
	ChatTypes     *ChatTypeHandler
	Settings      *SettingsHandler
	Uploads       *UploadHandler
	Media         *MediaHandler
}

// Register mounts the API routes on mux
func (h *Handlers) Register(mux *http.ServeMux) {
	// Conversations
	mux.HandleFunc("GET /api/conversations", h.Conversations.ListConversations)
	mux.HandleFunc("POST /api/conversations", h.Conversations.CreateConversation)
	mux.HandleFunc("PUT /api/conversations/active", h.Conversations.SwitchConversation)
	mux.HandleFunc("GET /api/conversations/{id}", h.Conversations.GetConversation)
	mux.HandleFunc("DELETE /api/conversations/{id}", h.Conversations.DeleteConversation)

	// Chat
	mux.HandleFunc("POST /api/chat", h.Chat.SendMessage)

	// Chat types
	mux.HandleFunc("GET /api/chat-types", h.ChatTypes.ListChatTypes)
	mux.HandleFunc("POST /api/chat-types", h.ChatTypes.CreateChatType)
	mux.HandleFunc("PUT /api/chat-types/selected", h.ChatTypes.SelectChatType)
	mux.HandleFunc("PATCH /api/chat-types/{id}", h.ChatTypes.UpdateChatType)
	mux.HandleFunc("DELETE /api/chat-types/{id}", h.ChatTypes.DeleteChatType)
	mux.HandleFunc("POST /api/chat-types/{id}/default", h.ChatTypes.SetDefaultChatType)

	// Settings
	mux.HandleFunc("GET /api/settings", h.Settings.GetSettings)
	mux.HandleFunc("PATCH /api/settings", h.Settings.UpdateSettings)

	// Uploads
	mux.HandleFunc("POST /api/uploads", h.Uploads.UploadFiles)
	mux.HandleFunc("GET /api/uploads", h.Uploads.ListUploads)
	mux.HandleFunc("DELETE /api/uploads/{id}", h.Uploads.RemoveUpload)

	// Media
	mux.HandleFunc("POST /api/media/youtube", h.Media.SubmitYoutube)
	mux.HandleFunc("POST /api/media/news", h.Media.SubmitNews)
}
