// Package editor holds one scoped, ordered list of catalog entities in
// memory and reconciles it with the remote catalog via an explicit save.
// The same editor drives the category display order, the homepage slots,
// and the trend sections; only the Scope differs.
package editor

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Entity is the minimal shape shared by AI services, videos, and
// curations: an id, a display name, and an optional logo or thumbnail.
type Entity struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// Entry is an Entity placed in a scoped list. DisplayOrder is 1-based and
// dense within the list.
type Entry struct {
	Entity
	DisplayOrder int  `json:"display_order"`
	IsFeatured   bool `json:"is_featured"`
	IsActive     bool `json:"is_active"`
}

// Scope identifies which list the editor manages: a feature (URL segment,
// e.g. "category-display-order" or "homepage-settings/videos") and a key
// within it (a category id, a trend-section id, or empty for fixed slots).
// MaxSize of 0 means uncapped.
type Scope struct {
	Feature string
	Key     string
	MaxSize int
}

func (s Scope) String() string {
	if s.Key == "" {
		return s.Feature
	}
	return s.Feature + "/" + s.Key
}

// Backend is the remote catalog the editor loads from and commits to.
// Commit replaces the stored list for the scope in full.
type Backend interface {
	Load(ctx context.Context, scope Scope) ([]Entry, error)
	Commit(ctx context.Context, scope Scope, entries []Entry) error
	Available(ctx context.Context, scope Scope, query string, limit int) ([]Entity, error)
}

// Editor owns the in-memory list for one scope. Local mutations are
// synchronous; Load, Commit, and Available hit the network and may overlap
// with further local mutations, so all state is guarded by a mutex and
// responses are checked against generation counters before being applied.
type Editor struct {
	backend Backend
	scope   Scope

	mu      sync.Mutex
	entries []Entry
	dirty   bool
	loaded  bool
	loadGen uint64
	mutGen  uint64
}

func New(backend Backend, scope Scope) *Editor {
	return &Editor{backend: backend, scope: scope}
}

func (e *Editor) Scope() Scope { return e.scope }

// Load fetches the scoped list and replaces the in-memory state wholesale,
// clearing the unsaved-changes flag. On failure the previous state is kept.
// If a newer Load was issued while this one was in flight, the response is
// dropped and ErrStale is returned so the caller can ignore it silently.
func (e *Editor) Load(ctx context.Context) error {
	e.mu.Lock()
	e.loadGen++
	gen := e.loadGen
	e.mu.Unlock()

	entries, err := e.backend.Load(ctx, e.scope)
	if err != nil {
		return fmt.Errorf("load %s: %w", e.scope, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loadGen != gen {
		return ErrStale
	}

	next := make([]Entry, len(entries))
	copy(next, entries)
	// The server is the source of truth for order, but the in-memory list
	// must always be dense 1..N.
	sort.SliceStable(next, func(i, j int) bool {
		return next[i].DisplayOrder < next[j].DisplayOrder
	})
	for i := range next {
		next[i].DisplayOrder = i + 1
	}
	e.entries = next
	e.dirty = false
	e.loaded = true
	return nil
}

// Discard re-fetches the scope, throwing away local edits. Callers are
// expected to confirm with the user first when Dirty() reports true.
func (e *Editor) Discard(ctx context.Context) error {
	return e.Load(ctx)
}

// Add appends entity at the end of the list. The new entry starts active,
// not featured. Duplicates and additions beyond a capped scope's MaxSize
// are rejected without touching the list or the network.
func (e *Editor) Add(entity Entity) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.indexOf(entity.ID) >= 0 {
		return fmt.Errorf("add %d to %s: %w", entity.ID, e.scope, ErrDuplicate)
	}
	if e.scope.MaxSize > 0 && len(e.entries) >= e.scope.MaxSize {
		return fmt.Errorf("add %d to %s: %w", entity.ID, e.scope, ErrCapacity)
	}
	e.entries = append(e.entries, Entry{
		Entity:       entity,
		DisplayOrder: len(e.entries) + 1,
		IsActive:     true,
	})
	e.markMutated()
	return nil
}

// Remove deletes the entry for entityID and reindexes the remaining
// entries. Returns false (and leaves the list untouched) if not present.
func (e *Editor) Remove(entityID int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.indexOf(entityID)
	if i < 0 {
		return false
	}
	e.entries = append(e.entries[:i], e.entries[i+1:]...)
	e.reindex()
	e.markMutated()
	return true
}

// Move removes the entry at from and reinserts it at to, shifting the
// entries between them by one, then reindexes the whole list.
func (e *Editor) Move(from, to int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if from < 0 || from >= len(e.entries) || to < 0 || to >= len(e.entries) {
		return fmt.Errorf("move %d to %d in %s: %w", from, to, e.scope, ErrOutOfRange)
	}
	if from == to {
		return nil
	}
	moved := e.entries[from]
	e.entries = append(e.entries[:from], e.entries[from+1:]...)
	e.entries = append(e.entries[:to], append([]Entry{moved}, e.entries[to:]...)...)
	e.reindex()
	e.markMutated()
	return nil
}

// ToggleFeatured flips the pinned flag on the matching entry. The flag is
// presentational only and never reorders the list.
func (e *Editor) ToggleFeatured(entityID int64) bool {
	return e.toggle(entityID, func(entry *Entry) { entry.IsFeatured = !entry.IsFeatured })
}

// ToggleActive flips the soft-visibility flag on the matching entry.
func (e *Editor) ToggleActive(entityID int64) bool {
	return e.toggle(entityID, func(entry *Entry) { entry.IsActive = !entry.IsActive })
}

func (e *Editor) toggle(entityID int64, apply func(*Entry)) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.indexOf(entityID)
	if i < 0 {
		return false
	}
	apply(&e.entries[i])
	e.markMutated()
	return true
}

// Commit sends the entire list, in current order with current flags, as a
// full replacement for the scope. On success the in-memory state becomes
// the new baseline. On failure everything is left as-is so the user can
// retry; there is no automatic retry. Mutations that land while the commit
// is in flight keep the unsaved-changes flag set.
func (e *Editor) Commit(ctx context.Context) error {
	e.mu.Lock()
	snapshot := make([]Entry, len(e.entries))
	copy(snapshot, e.entries)
	gen := e.mutGen
	e.mu.Unlock()

	if err := e.backend.Commit(ctx, e.scope, snapshot); err != nil {
		return fmt.Errorf("commit %s: %w", e.scope, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mutGen == gen {
		e.dirty = false
	}
	return nil
}

// Available searches the catalog for entities that can still be added to
// this scope. Entities already present are filtered out even if the server
// returned them. A result superseded by a reload of the scope is dropped
// with ErrStale.
func (e *Editor) Available(ctx context.Context, query string, limit int) ([]Entity, error) {
	e.mu.Lock()
	gen := e.loadGen
	e.mu.Unlock()

	found, err := e.backend.Available(ctx, e.scope, query, limit)
	if err != nil {
		return nil, fmt.Errorf("available %s: %w", e.scope, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loadGen != gen {
		return nil, ErrStale
	}
	candidates := make([]Entity, 0, len(found))
	for _, entity := range found {
		if e.indexOf(entity.ID) >= 0 {
			continue
		}
		candidates = append(candidates, entity)
	}
	return candidates, nil
}

// Entries returns a copy of the list in display order.
func (e *Editor) Entries() []Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Entry, len(e.entries))
	copy(out, e.entries)
	return out
}

// Featured returns the pinned entries in their relative display order.
// This is a computed view; the stored order is unaffected by the flag.
func (e *Editor) Featured() []Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Entry, 0)
	for _, entry := range e.entries {
		if entry.IsFeatured {
			out = append(out, entry)
		}
	}
	return out
}

func (e *Editor) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.entries)
}

// Dirty reports whether the in-memory list has diverged from the last
// loaded or committed baseline.
func (e *Editor) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirty
}

// Loaded reports whether a Load has ever succeeded for this scope.
func (e *Editor) Loaded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loaded
}

func (e *Editor) indexOf(entityID int64) int {
	for i, entry := range e.entries {
		if entry.ID == entityID {
			return i
		}
	}
	return -1
}

func (e *Editor) reindex() {
	for i := range e.entries {
		e.entries[i].DisplayOrder = i + 1
	}
}

func (e *Editor) markMutated() {
	e.dirty = true
	e.mutGen++
}
