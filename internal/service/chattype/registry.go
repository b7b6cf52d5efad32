package chattype

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"gauntlet/internal/config"
	"gauntlet/internal/domain"
	"gauntlet/internal/domain/models"
	"gauntlet/internal/domain/repositories"
	"gauntlet/internal/domain/services"
	"gauntlet/internal/repository/memory"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Slugify derives a chat type slug from its display name:
// lowercase, each whitespace run replaced by "_".
func Slugify(name string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
}

// Options configures a Registry
type Options struct {
	// UserRepo stores chat types of authenticated users; nil disables them
	UserRepo repositories.ChatTypeRepository
	// TxManager wraps SetDefault; nil runs it without a transaction
	TxManager repositories.TransactionManager
	// GuestRepo holds guest chat types, seeded on first load
	GuestRepo *memory.ChatTypeRepository
	GuestSeed []config.GuestChatType
	// GuestSettings provides the webhook seeded guest types point at
	GuestSettings repositories.SettingsRepository
}

// Registry implements services.ChatTypeRegistry.
// The selected pointer is session state and lives only in memory.
type Registry struct {
	opts     Options
	logger   *slog.Logger
	mu       sync.Mutex
	selected map[string]string      // owner key -> chat type id
	writers  map[string]*sync.Mutex // owner key -> write lock
}

// NewRegistry creates a chat type registry
func NewRegistry(opts Options, logger *slog.Logger) *Registry {
	if opts.GuestRepo == nil {
		opts.GuestRepo = memory.NewChatTypeRepository()
	}
	return &Registry{
		opts:     opts,
		logger:   logger,
		selected: make(map[string]string),
		writers:  make(map[string]*sync.Mutex),
	}
}

var _ services.ChatTypeRegistry = (*Registry)(nil)

// repoFor returns the repository backing an owner
func (r *Registry) repoFor(ctx context.Context, owner models.Identity) (repositories.ChatTypeRepository, error) {
	if owner.Guest {
		r.seedGuest(ctx, owner)
		return r.opts.GuestRepo, nil
	}
	if r.opts.UserRepo == nil {
		return nil, fmt.Errorf("chat types unavailable without a database: %w", domain.ErrUnauthorized)
	}
	return r.opts.UserRepo, nil
}

// lockOwner serializes count-then-write sequences for one owner in this process
func (r *Registry) lockOwner(owner models.Identity) func() {
	key := owner.OwnerKey()

	r.mu.Lock()
	m, ok := r.writers[key]
	if !ok {
		m = &sync.Mutex{}
		r.writers[key] = m
	}
	r.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// writeTx runs fn under the owner's lock, inside a transaction for users.
// The repository lock covers other server processes sharing the database.
func (r *Registry) writeTx(ctx context.Context, owner models.Identity, repo repositories.ChatTypeRepository, fn repositories.TxFn) error {
	unlock := r.lockOwner(owner)
	defer unlock()

	locked := func(ctx context.Context) error {
		if err := repo.LockOwner(ctx, owner.ID); err != nil {
			return err
		}
		return fn(ctx)
	}

	if owner.Guest || r.opts.TxManager == nil {
		return locked(ctx)
	}
	return r.opts.TxManager.ExecTx(ctx, locked)
}

// seedGuest installs the configured starter types for a new guest
func (r *Registry) seedGuest(ctx context.Context, owner models.Identity) {
	if r.opts.GuestRepo.Seeded(owner.ID) {
		return
	}

	var webhook *string
	if r.opts.GuestSettings != nil {
		settings, err := r.opts.GuestSettings.Get(ctx, owner.ID)
		if err != nil {
			r.logger.Warn("guest settings unavailable while seeding chat types", "owner", owner.ID, "error", err)
		} else if settings != nil && settings.ChatRagWebhook != "" {
			url := settings.ChatRagWebhook
			webhook = &url
		}
	}

	seed := make([]models.ChatType, 0, len(r.opts.GuestSeed))
	for _, gct := range r.opts.GuestSeed {
		slug := gct.Type
		if slug == "" {
			slug = Slugify(gct.Name)
		}
		seed = append(seed, models.ChatType{
			Name:       gct.Name,
			Type:       slug,
			WebhookURL: webhook,
			IsDefault:  gct.Default,
		})
	}

	if r.opts.GuestRepo.Seed(owner.ID, seed) {
		r.logger.Debug("guest chat types seeded", "owner", owner.ID, "count", len(seed))
	}
}

// Load returns the owner's chat types and resolves the selected pointer
func (r *Registry) Load(ctx context.Context, owner models.Identity) (*models.ChatTypeList, error) {
	repo, err := r.repoFor(ctx, owner)
	if err != nil {
		return nil, err
	}

	chatTypes, err := repo.List(ctx, owner.ID)
	if err != nil {
		return nil, err
	}

	list := &models.ChatTypeList{
		ChatTypes: chatTypes,
		Max:       config.MaxChatTypesPerOwner,
	}
	for i := range chatTypes {
		if chatTypes[i].IsDefault {
			id := chatTypes[i].ID
			list.DefaultTypeID = &id
			break
		}
	}

	list.SelectedTypeID = r.resolveSelected(owner, chatTypes, list.DefaultTypeID)
	return list, nil
}

// resolveSelected keeps the stored selection while it still exists,
// otherwise falls back to the default, then the first type.
func (r *Registry) resolveSelected(owner models.Identity, chatTypes []models.ChatType, defaultID *string) *string {
	key := owner.OwnerKey()

	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.selected[key]; ok {
		for i := range chatTypes {
			if chatTypes[i].ID == current {
				return &current
			}
		}
	}

	var next string
	switch {
	case defaultID != nil:
		next = *defaultID
	case len(chatTypes) > 0:
		next = chatTypes[0].ID
	default:
		delete(r.selected, key)
		return nil
	}

	r.selected[key] = next
	return &next
}

// Add creates a chat type. The first type of an owner becomes the default.
func (r *Registry) Add(ctx context.Context, owner models.Identity, req *services.CreateChatTypeRequest) (*models.ChatTypeList, error) {
	if err := validateChatType(req.Name, req.Type, req.WebhookURL); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	repo, err := r.repoFor(ctx, owner)
	if err != nil {
		return nil, err
	}

	chatType := &models.ChatType{
		OwnerID:    owner.ID,
		Name:       strings.TrimSpace(req.Name),
		Type:       resolveSlug(req.Type, req.Name),
		WebhookURL: normalizeURL(req.WebhookURL),
	}

	err = r.writeTx(ctx, owner, repo, func(ctx context.Context) error {
		count, err := repo.Count(ctx, owner.ID)
		if err != nil {
			return err
		}
		if count >= config.MaxChatTypesPerOwner {
			return fmt.Errorf("%w: maximum of %d chat types reached", domain.ErrValidation, config.MaxChatTypesPerOwner)
		}

		now := time.Now()
		chatType.IsDefault = count == 0
		chatType.CreatedAt = now
		chatType.UpdatedAt = now
		return repo.Create(ctx, chatType)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("chat type created",
		"id", chatType.ID,
		"name", chatType.Name,
		"type", chatType.Type,
		"owner", owner.OwnerKey(),
	)

	return r.Load(ctx, owner)
}

// Edit updates name, slug and webhook of a chat type
func (r *Registry) Edit(ctx context.Context, owner models.Identity, id string, req *services.UpdateChatTypeRequest) (*models.ChatTypeList, error) {
	if err := validateChatType(req.Name, req.Type, req.WebhookURL); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	repo, err := r.repoFor(ctx, owner)
	if err != nil {
		return nil, err
	}

	chatType, err := repo.Get(ctx, id, owner.ID)
	if err != nil {
		return nil, err
	}

	chatType.Name = strings.TrimSpace(req.Name)
	chatType.Type = resolveSlug(req.Type, req.Name)
	chatType.WebhookURL = normalizeURL(req.WebhookURL)
	chatType.UpdatedAt = time.Now()

	if err := repo.Update(ctx, chatType); err != nil {
		return nil, err
	}

	r.logger.Info("chat type updated",
		"id", chatType.ID,
		"name", chatType.Name,
		"type", chatType.Type,
		"owner", owner.OwnerKey(),
	)

	return r.Load(ctx, owner)
}

// Delete removes a chat type. The default cannot be deleted while other types exist.
func (r *Registry) Delete(ctx context.Context, owner models.Identity, id string) (*models.ChatTypeList, error) {
	repo, err := r.repoFor(ctx, owner)
	if err != nil {
		return nil, err
	}

	err = r.writeTx(ctx, owner, repo, func(ctx context.Context) error {
		chatType, err := repo.Get(ctx, id, owner.ID)
		if err != nil {
			return err
		}

		if chatType.IsDefault {
			count, err := repo.Count(ctx, owner.ID)
			if err != nil {
				return err
			}
			if count > 1 {
				return &domain.ConflictError{
					Message:      "cannot delete the default chat type while other types exist",
					ResourceType: "chat_type",
					ResourceID:   chatType.ID,
				}
			}
		}

		return repo.Delete(ctx, id, owner.ID)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("chat type deleted",
		"id", id,
		"owner", owner.OwnerKey(),
	)

	return r.Load(ctx, owner)
}

// SetDefault makes id the owner's only default chat type
func (r *Registry) SetDefault(ctx context.Context, owner models.Identity, id string) (*models.ChatTypeList, error) {
	repo, err := r.repoFor(ctx, owner)
	if err != nil {
		return nil, err
	}

	err = r.writeTx(ctx, owner, repo, func(ctx context.Context) error {
		return repo.SetDefault(ctx, id, owner.ID)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("default chat type changed",
		"id", id,
		"owner", owner.OwnerKey(),
	)

	return r.Load(ctx, owner)
}

// Select moves the selected pointer
func (r *Registry) Select(ctx context.Context, owner models.Identity, id string) (*models.ChatTypeList, error) {
	repo, err := r.repoFor(ctx, owner)
	if err != nil {
		return nil, err
	}

	if _, err := repo.Get(ctx, id, owner.ID); err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.selected[owner.OwnerKey()] = id
	r.mu.Unlock()

	return r.Load(ctx, owner)
}

// Selected returns the chat type outgoing messages are tagged with
func (r *Registry) Selected(ctx context.Context, owner models.Identity) (*models.ChatType, error) {
	list, err := r.Load(ctx, owner)
	if err != nil {
		return nil, err
	}
	if list.SelectedTypeID == nil {
		return nil, nil
	}

	for i := range list.ChatTypes {
		if list.ChatTypes[i].ID == *list.SelectedTypeID {
			ct := list.ChatTypes[i]
			return &ct, nil
		}
	}
	return nil, nil
}

// Get returns one chat type of the owner
func (r *Registry) Get(ctx context.Context, owner models.Identity, id string) (*models.ChatType, error) {
	repo, err := r.repoFor(ctx, owner)
	if err != nil {
		return nil, err
	}
	return repo.Get(ctx, id, owner.ID)
}

// chatTypeInput is the validated shape shared by create and update
type chatTypeInput struct {
	Name       string
	Type       string
	WebhookURL string
}

func validateChatType(name, slug string, webhookURL *string) error {
	input := chatTypeInput{
		Name: strings.TrimSpace(name),
		Type: strings.TrimSpace(slug),
	}
	if webhookURL != nil {
		input.WebhookURL = strings.TrimSpace(*webhookURL)
	}

	return validation.ValidateStruct(&input,
		validation.Field(&input.Name,
			validation.Required.Error("name cannot be empty"),
			validation.RuneLength(1, config.MaxChatTypeNameLength),
		),
		validation.Field(&input.Type,
			validation.RuneLength(0, config.MaxChatTypeSlugLength),
		),
		validation.Field(&input.WebhookURL,
			validation.Length(0, config.MaxWebhookURLLength),
			is.URL,
		),
	)
}

// resolveSlug uses the explicit slug when given, otherwise derives it from name
func resolveSlug(slug, name string) string {
	if s := strings.TrimSpace(slug); s != "" {
		return s
	}
	return Slugify(name)
}

// normalizeURL maps blank URLs to nil
func normalizeURL(url *string) *string {
	if url == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*url)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
