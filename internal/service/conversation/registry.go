package conversation

import (
	"log/slog"
	"sync"

	"gauntlet/internal/domain/models"
)

// Registry owns one Store per owner, created on first use.
// Stores live for the lifetime of the process and are not persisted.
type Registry struct {
	mu     sync.Mutex
	stores map[string]*Store
	opts   Options
	logger *slog.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(opts Options, logger *slog.Logger) *Registry {
	return &Registry{
		stores: make(map[string]*Store),
		opts:   opts,
		logger: logger,
	}
}

// For returns the owner's store, creating it with a seeded conversation if needed
func (r *Registry) For(owner models.Identity) *Store {
	key := owner.OwnerKey()

	r.mu.Lock()
	defer r.mu.Unlock()

	if store, ok := r.stores[key]; ok {
		return store
	}

	store := NewStore(r.opts)
	r.stores[key] = store
	r.logger.Debug("conversation store created", "owner", key)
	return store
}

// Len returns how many owners currently have a store
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}
