package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"gauntlet/internal/config"
	"gauntlet/internal/domain"
	"gauntlet/internal/domain/models"
	"gauntlet/internal/domain/services"
	"gauntlet/internal/service/chattype"
	"gauntlet/internal/service/conversation"
)

// chatService implements the ChatService interface
type chatService struct {
	conversations *conversation.Registry
	chatTypes     services.ChatTypeRegistry
	settings      services.SettingsService
	dispatcher    services.WebhookDispatcher
	logger        *slog.Logger
}

// NewService creates a chat service
func NewService(
	conversations *conversation.Registry,
	chatTypes services.ChatTypeRegistry,
	settings services.SettingsService,
	dispatcher services.WebhookDispatcher,
	logger *slog.Logger,
) services.ChatService {
	return &chatService{
		conversations: conversations,
		chatTypes:     chatTypes,
		settings:      settings,
		dispatcher:    dispatcher,
		logger:        logger,
	}
}

// target is where a chat message goes
type target struct {
	URL     string
	Payload services.ChatPayload
	// ChatType is the slug of the type whose webhook was used, if any
	ChatType string
}

// SendMessage appends the user message to the active conversation, posts it
// to the resolved webhook and appends the reply to the same conversation.
//
// The target is resolved before anything is appended, so a missing webhook
// leaves the conversation untouched. A failed webhook call leaves the user
// message in place without a reply.
func (s *chatService) SendMessage(ctx context.Context, owner models.Identity, req *services.SendMessageRequest) (*services.SendMessageResult, error) {
	message := strings.TrimSpace(req.Message)
	err := validation.Validate(message,
		validation.Required.Error("message cannot be empty"),
		validation.RuneLength(1, config.MaxChatMessageLength),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	dest, err := s.resolveTarget(ctx, owner, req.ChatTypeID, message)
	if err != nil {
		return nil, err
	}

	store := s.conversations.For(owner)
	conversationID, userMessage := store.AddUserMessage(message)

	result := &services.SendMessageResult{
		ConversationID: conversationID,
		UserMessage:    userMessage,
		ChatType:       dest.ChatType,
	}

	s.logger.Debug("dispatching chat message",
		"owner", owner.OwnerKey(),
		"conversation_id", conversationID,
		"chat_type", dest.ChatType,
	)

	reply, err := s.dispatcher.Send(ctx, dest.URL, dest.Payload)
	if err != nil {
		s.logger.Warn("chat webhook failed",
			"owner", owner.OwnerKey(),
			"conversation_id", conversationID,
			"error", err,
		)
		return nil, err
	}

	// The user may have switched conversations while the webhook ran
	systemMessage, err := store.AppendSystemMessageTo(conversationID, reply.Text)
	if err != nil {
		// Conversation was deleted meanwhile; the reply is still returned
		s.logger.Info("conversation gone before reply arrived", "conversation_id", conversationID)
	} else {
		result.SystemMessage = &systemMessage
	}
	result.Reply = reply

	return result, nil
}

// resolveTarget applies the dispatch order: the chat type's own webhook
// (tagged with its slug), then the owner's default chat webhook (untagged).
func (s *chatService) resolveTarget(ctx context.Context, owner models.Identity, chatTypeID *string, message string) (*target, error) {
	chatType, err := s.resolveChatType(ctx, owner, chatTypeID)
	if err != nil {
		return nil, err
	}

	if chatType != nil && chatType.HasWebhook() {
		slug := chatType.Type
		if slug == "" {
			slug = chattype.Slugify(chatType.Name)
		}
		return &target{
			URL:      *chatType.WebhookURL,
			Payload:  services.ChatPayload{Query: message, Type: slug},
			ChatType: slug,
		}, nil
	}

	settings, err := s.settings.GetSettings(ctx, owner)
	if err != nil {
		return nil, err
	}
	if settings.ChatRagWebhook == "" {
		return nil, fmt.Errorf("chat: %w", domain.ErrWebhookNotConfigured)
	}

	return &target{
		URL:     settings.ChatRagWebhook,
		Payload: services.ChatPayload{Query: message},
	}, nil
}

// resolveChatType uses the explicit id when given, else the registry's selection
func (s *chatService) resolveChatType(ctx context.Context, owner models.Identity, chatTypeID *string) (*models.ChatType, error) {
	if chatTypeID != nil && *chatTypeID != "" {
		return s.chatTypes.Get(ctx, owner, *chatTypeID)
	}
	return s.chatTypes.Selected(ctx, owner)
}
