package upload

import (
	"fmt"
	"sync"

	"gauntlet/internal/domain"
	"gauntlet/internal/domain/models"
)

// Tracker is one owner's list of uploads in arrival order.
// Entries are only changed through Update so every read is a consistent copy.
type Tracker struct {
	mu    sync.Mutex
	files []*models.UploadingFile
}

// Add appends entries
func (t *Tracker) Add(files ...models.UploadingFile) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range files {
		f := files[i]
		t.files = append(t.files, &f)
	}
}

// Update applies fn to an entry and returns the updated copy.
// Returns false if the entry was removed meanwhile.
func (t *Tracker) Update(id string, fn func(f *models.UploadingFile)) (models.UploadingFile, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, f := range t.files {
		if f.ID == id {
			fn(f)
			return *f, true
		}
	}
	return models.UploadingFile{}, false
}

// Get returns a copy of one entry
func (t *Tracker) Get(id string) (models.UploadingFile, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, f := range t.files {
		if f.ID == id {
			return *f, true
		}
	}
	return models.UploadingFile{}, false
}

// List returns copies of all entries, oldest first
func (t *Tracker) List() []models.UploadingFile {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]models.UploadingFile, len(t.files))
	for i, f := range t.files {
		out[i] = *f
	}
	return out
}

// Remove drops an entry from the list. An in-flight upload keeps running;
// its later updates are ignored.
func (t *Tracker) Remove(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, f := range t.files {
		if f.ID == id {
			t.files = append(t.files[:i:i], t.files[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("upload %s: %w", id, domain.ErrNotFound)
}

// trackers hands out one Tracker per owner
type trackers struct {
	mu     sync.Mutex
	byUser map[string]*Tracker
}

func (ts *trackers) forOwner(key string) *Tracker {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.byUser == nil {
		ts.byUser = make(map[string]*Tracker)
	}
	t, ok := ts.byUser[key]
	if !ok {
		t = &Tracker{}
		ts.byUser[key] = t
	}
	return t
}
