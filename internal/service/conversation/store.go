package conversation

import (
	"fmt"
	"sort"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"gauntlet/internal/config"
	"gauntlet/internal/domain"
	"gauntlet/internal/domain/models"
)

// Options configures the seeded content of new conversations
type Options struct {
	Greeting     string
	DefaultTitle string
	Now          func() time.Time
}

// Store holds one owner's conversations in memory.
//
// Invariant: exactly one conversation is active and activeID always names
// an existing conversation. The list is ordered newest-created first.
// All methods take the lock for the whole read-modify-write and return
// copies, so callers never share slices with the store.
type Store struct {
	mu            sync.Mutex
	opts          Options
	conversations []*models.Conversation
	activeID      string
}

// NewStore creates a store seeded with one fresh conversation
func NewStore(opts Options) *Store {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.DefaultTitle == "" {
		opts.DefaultTitle = "New Conversation"
	}

	s := &Store{opts: opts}
	s.createLocked(nil)
	return s
}

// Create inserts a new conversation at the front and makes it active
func (s *Store) Create(chatTypeID *string) models.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.createLocked(chatTypeID).Clone()
}

func (s *Store) createLocked(chatTypeID *string) *models.Conversation {
	now := s.opts.Now()

	var typeID *string
	if chatTypeID != nil && *chatTypeID != "" {
		id := *chatTypeID
		typeID = &id
	}

	conv := &models.Conversation{
		ID:    uuid.NewString(),
		Title: s.opts.DefaultTitle,
		Messages: []models.Message{{
			ID:        uuid.NewString(),
			Content:   s.opts.Greeting,
			Sender:    models.SenderSystem,
			Timestamp: now,
		}},
		LastUpdated: now,
		ChatTypeID:  typeID,
	}

	s.conversations = append([]*models.Conversation{conv}, s.conversations...)
	s.activeID = conv.ID
	return conv
}

// Switch makes id the active conversation. Callers are expected to pass
// ids they got from this store; unknown ids leave the pointer unchanged.
func (s *Store) Switch(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findLocked(id) == nil {
		return fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}
	s.activeID = id
	return nil
}

// AddUserMessage appends a user message to the active conversation.
// The first user message of a conversation also becomes its title.
func (s *Store) AddUserMessage(content string) (string, models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.activeLocked()
	first := !conv.HasUserMessage()
	msg := s.appendLocked(conv, models.SenderUser, content)
	if first {
		conv.Title = DeriveTitle(content)
	}
	return conv.ID, msg
}

// AppendSystemMessage appends a system message to the active conversation
func (s *Store) AppendSystemMessage(content string) (string, models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.activeLocked()
	return conv.ID, s.appendLocked(conv, models.SenderSystem, content)
}

// AppendSystemMessageTo appends a system message to a specific conversation,
// used when a webhook reply lands after the user switched away.
func (s *Store) AppendSystemMessageTo(id, content string) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.findLocked(id)
	if conv == nil {
		return models.Message{}, fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}
	return s.appendLocked(conv, models.SenderSystem, content), nil
}

func (s *Store) appendLocked(conv *models.Conversation, sender models.Sender, content string) models.Message {
	now := s.opts.Now()
	msg := models.Message{
		ID:        uuid.NewString(),
		Content:   content,
		Sender:    sender,
		Timestamp: now,
	}
	conv.Messages = append(conv.Messages, msg)
	conv.LastUpdated = now
	return msg
}

// Delete removes a conversation. Deleting the active one promotes the
// remaining conversation with the latest LastUpdated, or creates a fresh
// conversation when none remain.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, c := range s.conversations {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}

	remaining := make([]*models.Conversation, 0, len(s.conversations)-1)
	remaining = append(remaining, s.conversations[:idx]...)
	remaining = append(remaining, s.conversations[idx+1:]...)
	s.conversations = remaining

	if id != s.activeID {
		return nil
	}

	if len(s.conversations) == 0 {
		s.createLocked(nil)
		return nil
	}

	latest := s.conversations[0]
	for _, c := range s.conversations[1:] {
		if c.LastUpdated.After(latest.LastUpdated) {
			latest = c
		}
	}
	s.activeID = latest.ID
	return nil
}

// ActiveID returns the id of the active conversation
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Active returns a copy of the active conversation
func (s *Store) Active() models.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeLocked().Clone()
}

// Get returns a copy of one conversation
func (s *Store) Get(id string) (models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.findLocked(id)
	if conv == nil {
		return models.Conversation{}, fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}
	return conv.Clone(), nil
}

// List returns conversations in store order (newest created first)
func (s *Store) List() []models.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Conversation, len(s.conversations))
	for i, c := range s.conversations {
		out[i] = c.Clone()
	}
	return out
}

// Summaries returns list-view entries ordered by LastUpdated, newest first
func (s *Store) Summaries() []models.ConversationSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.ConversationSummary, len(s.conversations))
	for i, c := range s.conversations {
		out[i] = models.ConversationSummary{
			ID:           c.ID,
			Title:        c.Title,
			MessageCount: len(c.Messages),
			LastUpdated:  c.LastUpdated,
			ChatTypeID:   c.ChatTypeID,
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastUpdated.After(out[j].LastUpdated)
	})
	return out
}

func (s *Store) activeLocked() *models.Conversation {
	if conv := s.findLocked(s.activeID); conv != nil {
		return conv
	}
	// Unreachable while the invariant holds
	return s.createLocked(nil)
}

func (s *Store) findLocked(id string) *models.Conversation {
	for _, c := range s.conversations {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// DeriveTitle returns the first ConversationTitleLength characters of the
// message, with "..." appended iff the message was longer.
func DeriveTitle(message string) string {
	if utf8.RuneCountInString(message) <= config.ConversationTitleLength {
		return message
	}
	runes := []rune(message)
	return string(runes[:config.ConversationTitleLength]) + "..."
}
