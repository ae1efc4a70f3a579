package editor

import (
	"context"
	"errors"
	"testing"
)

type fakeBackend struct {
	loadFn      func(context.Context, Scope) ([]Entry, error)
	commitFn    func(context.Context, Scope, []Entry) error
	availableFn func(context.Context, Scope, string, int) ([]Entity, error)

	loadCalls      int
	commitCalls    int
	availableCalls int
}

func (f *fakeBackend) Load(ctx context.Context, scope Scope) ([]Entry, error) {
	f.loadCalls++
	if f.loadFn != nil {
		return f.loadFn(ctx, scope)
	}
	return nil, nil
}

func (f *fakeBackend) Commit(ctx context.Context, scope Scope, entries []Entry) error {
	f.commitCalls++
	if f.commitFn != nil {
		return f.commitFn(ctx, scope, entries)
	}
	return nil
}

func (f *fakeBackend) Available(ctx context.Context, scope Scope, query string, limit int) ([]Entity, error) {
	f.availableCalls++
	if f.availableFn != nil {
		return f.availableFn(ctx, scope, query, limit)
	}
	return nil, nil
}

func entriesOf(names ...string) []Entry {
	out := make([]Entry, len(names))
	for i, name := range names {
		out[i] = Entry{
			Entity:       Entity{ID: int64(i + 1), Name: name},
			DisplayOrder: i + 1,
			IsActive:     true,
		}
	}
	return out
}

func checkDense(t *testing.T, e *Editor) {
	t.Helper()
	entries := e.Entries()
	for i, entry := range entries {
		if entry.DisplayOrder != i+1 {
			t.Fatalf("display_order not dense: entry %d has order %d, entries %+v", i, entry.DisplayOrder, entries)
		}
	}
}

func loadedEditor(t *testing.T, backend *fakeBackend, scope Scope, names ...string) *Editor {
	t.Helper()
	seed := entriesOf(names...)
	prev := backend.loadFn
	backend.loadFn = func(context.Context, Scope) ([]Entry, error) {
		return seed, nil
	}
	e := New(backend, scope)
	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	backend.loadFn = prev
	return e
}

func TestLoadReplacesStateAndClearsDirty(t *testing.T) {
	backend := &fakeBackend{}
	e := loadedEditor(t, backend, Scope{Feature: "category-display-order", Key: "3"}, "A", "B")

	if e.Dirty() {
		t.Fatal("expected clean editor after load")
	}
	if err := e.Add(Entity{ID: 9, Name: "C"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if !e.Dirty() {
		t.Fatal("expected dirty editor after add")
	}

	backend.loadFn = func(context.Context, Scope) ([]Entry, error) {
		return entriesOf("A", "B"), nil
	}
	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if e.Dirty() || e.Len() != 2 {
		t.Fatalf("expected reload to restore baseline, dirty=%v len=%d", e.Dirty(), e.Len())
	}
}

func TestLoadNormalizesSparseServerOrder(t *testing.T) {
	backend := &fakeBackend{
		loadFn: func(context.Context, Scope) ([]Entry, error) {
			return []Entry{
				{Entity: Entity{ID: 7, Name: "G"}, DisplayOrder: 12},
				{Entity: Entity{ID: 3, Name: "C"}, DisplayOrder: 4},
			}, nil
		},
	}
	e := New(backend, Scope{Feature: "homepage-settings/videos"})
	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	entries := e.Entries()
	if entries[0].ID != 3 || entries[1].ID != 7 {
		t.Fatalf("expected server order preserved, got %+v", entries)
	}
	checkDense(t, e)
}

func TestLoadFailureKeepsPreviousState(t *testing.T) {
	backend := &fakeBackend{}
	e := loadedEditor(t, backend, Scope{Feature: "category-display-order", Key: "3"}, "A", "B")

	backend.loadFn = func(context.Context, Scope) ([]Entry, error) {
		return nil, errors.New("connection refused")
	}
	if err := e.Load(context.Background()); err == nil {
		t.Fatal("expected Load() to fail")
	}
	if e.Len() != 2 {
		t.Fatalf("expected previous state preserved, len=%d", e.Len())
	}
}

func TestStaleLoadResponseIsDiscarded(t *testing.T) {
	backend := &fakeBackend{}
	e := New(backend, Scope{Feature: "category-display-order", Key: "3"})

	release := make(chan struct{})
	backend.loadFn = func(context.Context, Scope) ([]Entry, error) {
		<-release
		return entriesOf("OLD"), nil
	}
	firstDone := make(chan error, 1)
	go func() {
		firstDone <- e.Load(context.Background())
	}()

	// A second load supersedes the first while it is still in flight.
	second := make(chan struct{})
	go func() {
		backendSecond := entriesOf("NEW-1", "NEW-2")
		backend.loadFn = func(context.Context, Scope) ([]Entry, error) {
			return backendSecond, nil
		}
		if err := e.Load(context.Background()); err != nil {
			t.Errorf("second Load() error = %v", err)
		}
		close(second)
		close(release)
	}()

	<-second
	if err := <-firstDone; !errors.Is(err, ErrStale) {
		t.Fatalf("expected ErrStale from superseded load, got %v", err)
	}
	entries := e.Entries()
	if len(entries) != 2 || entries[0].Name != "NEW-1" {
		t.Fatalf("expected newer load to win, got %+v", entries)
	}
}

func TestAddAppendsWithDefaults(t *testing.T) {
	backend := &fakeBackend{}
	e := loadedEditor(t, backend, Scope{Feature: "homepage-settings/step-pick"}, "A")

	if err := e.Add(Entity{ID: 5, Name: "B"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	entries := e.Entries()
	added := entries[len(entries)-1]
	if added.DisplayOrder != 2 || added.IsFeatured || !added.IsActive {
		t.Fatalf("unexpected defaults on added entry: %+v", added)
	}
	if !e.Dirty() {
		t.Fatal("expected dirty after add")
	}
	checkDense(t, e)
}

func TestAddRejectsDuplicate(t *testing.T) {
	backend := &fakeBackend{}
	e := loadedEditor(t, backend, Scope{Feature: "category-display-order", Key: "3"}, "A", "B")

	err := e.Add(Entity{ID: 1, Name: "A again"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if e.Len() != 2 {
		t.Fatalf("expected list unchanged, len=%d", e.Len())
	}
}

func TestAddRejectsAtCapacity(t *testing.T) {
	names := make([]string, 20)
	for i := range names {
		names[i] = "svc"
	}
	backend := &fakeBackend{}
	e := loadedEditor(t, backend, Scope{Feature: "category-display-order", Key: "3", MaxSize: 20}, names...)

	wasDirty := e.Dirty()
	err := e.Add(Entity{ID: 999, Name: "one too many"})
	if !errors.Is(err, ErrCapacity) {
		t.Fatalf("expected ErrCapacity, got %v", err)
	}
	if e.Len() != 20 {
		t.Fatalf("expected list still at 20, len=%d", e.Len())
	}
	if e.Dirty() != wasDirty {
		t.Fatal("rejected add must not change the dirty flag")
	}
	if backend.commitCalls != 0 {
		t.Fatal("rejected add must not hit the network")
	}
}

func TestRemoveReindexes(t *testing.T) {
	backend := &fakeBackend{}
	e := loadedEditor(t, backend, Scope{Feature: "category-display-order", Key: "3"}, "A", "B", "C")

	if !e.Remove(2) {
		t.Fatal("expected Remove() to find entry 2")
	}
	entries := e.Entries()
	if len(entries) != 2 || entries[0].ID != 1 || entries[1].ID != 3 {
		t.Fatalf("unexpected entries after remove: %+v", entries)
	}
	checkDense(t, e)
	if e.Remove(42) {
		t.Fatal("expected Remove() of unknown id to be a no-op")
	}
}

func TestAddThenRemoveRestoresContentButStaysDirty(t *testing.T) {
	backend := &fakeBackend{}
	e := loadedEditor(t, backend, Scope{Feature: "category-display-order", Key: "3"}, "A", "B")
	before := e.Entries()

	if err := e.Add(Entity{ID: 9, Name: "C"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if !e.Remove(9) {
		t.Fatal("expected Remove() to find the added entry")
	}

	after := e.Entries()
	if len(after) != len(before) {
		t.Fatalf("expected identity round-trip, before=%d after=%d", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("entry %d changed across round-trip: %+v != %+v", i, before[i], after[i])
		}
	}
	// Removal is itself a mutation, so the session stays dirty even though
	// the content matches the baseline.
	if !e.Dirty() {
		t.Fatal("expected dirty after add/remove round-trip")
	}
}

func TestMoveSpliceSemantics(t *testing.T) {
	backend := &fakeBackend{}
	e := loadedEditor(t, backend, Scope{Feature: "category-display-order", Key: "3"}, "A", "B", "C")

	// Move C to the front: [A B C] -> [C A B].
	if err := e.Move(2, 0); err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	entries := e.Entries()
	want := []string{"C", "A", "B"}
	for i, name := range want {
		if entries[i].Name != name || entries[i].DisplayOrder != i+1 {
			t.Fatalf("unexpected order after move: %+v", entries)
		}
	}
	checkDense(t, e)
}

func TestMovePreservesEntrySet(t *testing.T) {
	backend := &fakeBackend{}
	e := loadedEditor(t, backend, Scope{Feature: "homepage-settings/curations"}, "A", "B", "C", "D")
	e.ToggleFeatured(2)

	if err := e.Move(1, 3); err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	entries := e.Entries()
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}
	seen := map[int64]Entry{}
	for _, entry := range entries {
		seen[entry.ID] = entry
	}
	if !seen[2].IsFeatured {
		t.Fatal("expected featured flag to travel with the moved entry")
	}
	if entries[3].ID != 2 || entries[1].ID != 3 || entries[2].ID != 4 {
		t.Fatalf("unexpected splice result: %+v", entries)
	}
	checkDense(t, e)
}

func TestMoveOutOfRangeRejected(t *testing.T) {
	backend := &fakeBackend{}
	e := loadedEditor(t, backend, Scope{Feature: "category-display-order", Key: "3"}, "A", "B")
	before := e.Entries()

	for _, indices := range [][2]int{{-1, 0}, {0, 2}, {5, 1}} {
		if err := e.Move(indices[0], indices[1]); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("Move(%d, %d): expected ErrOutOfRange, got %v", indices[0], indices[1], err)
		}
	}
	after := e.Entries()
	for i := range before {
		if before[i] != after[i] {
			t.Fatal("rejected move must not mutate the list")
		}
	}
}

func TestToggleFlagsMarkDirty(t *testing.T) {
	backend := &fakeBackend{}
	e := loadedEditor(t, backend, Scope{Feature: "homepage-settings/trends", Key: "1"}, "A", "B")

	if !e.ToggleFeatured(1) {
		t.Fatal("expected ToggleFeatured() to find entry 1")
	}
	if !e.ToggleActive(2) {
		t.Fatal("expected ToggleActive() to find entry 2")
	}
	if e.ToggleFeatured(42) {
		t.Fatal("expected ToggleFeatured() of unknown id to be a no-op")
	}
	entries := e.Entries()
	if !entries[0].IsFeatured || entries[1].IsActive {
		t.Fatalf("flags not flipped: %+v", entries)
	}
	if !e.Dirty() {
		t.Fatal("expected dirty after toggles")
	}
	// Featured is a view, not a reordering.
	if entries[0].DisplayOrder != 1 || entries[1].DisplayOrder != 2 {
		t.Fatalf("toggle must not reorder: %+v", entries)
	}
	featured := e.Featured()
	if len(featured) != 1 || featured[0].ID != 1 {
		t.Fatalf("unexpected featured view: %+v", featured)
	}
}

func TestCommitSendsFullListAndClearsDirty(t *testing.T) {
	var committed []Entry
	backend := &fakeBackend{
		commitFn: func(_ context.Context, _ Scope, entries []Entry) error {
			committed = entries
			return nil
		},
	}
	e := loadedEditor(t, backend, Scope{Feature: "category-display-order", Key: "3"}, "A", "B", "C")
	if err := e.Move(2, 0); err != nil {
		t.Fatalf("Move() error = %v", err)
	}

	if err := e.Commit(context.Background()); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if e.Dirty() {
		t.Fatal("expected clean editor after successful commit")
	}
	if len(committed) != 3 || committed[0].Name != "C" || committed[0].DisplayOrder != 1 {
		t.Fatalf("unexpected committed payload: %+v", committed)
	}
}

func TestCommitFailureKeepsEditsAndDirty(t *testing.T) {
	backend := &fakeBackend{
		commitFn: func(context.Context, Scope, []Entry) error {
			return errors.New("502 bad gateway")
		},
	}
	e := loadedEditor(t, backend, Scope{Feature: "category-display-order", Key: "3"}, "A", "B")
	if err := e.Move(1, 0); err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	edited := e.Entries()

	if err := e.Commit(context.Background()); err == nil {
		t.Fatal("expected Commit() to fail")
	}
	if !e.Dirty() {
		t.Fatal("failed commit must keep the session dirty")
	}
	after := e.Entries()
	for i := range edited {
		if edited[i] != after[i] {
			t.Fatal("failed commit must not touch the entries")
		}
	}
}

func TestCommitDoesNotClearDirtyWhenMutatedInFlight(t *testing.T) {
	backend := &fakeBackend{}
	e := loadedEditor(t, backend, Scope{Feature: "homepage-settings/videos"}, "A", "B")
	if err := e.Move(1, 0); err != nil {
		t.Fatalf("Move() error = %v", err)
	}

	backend.commitFn = func(context.Context, Scope, []Entry) error {
		// The user keeps editing while the save request is in flight.
		if err := e.Add(Entity{ID: 77, Name: "C"}); err != nil {
			t.Errorf("Add() during commit error = %v", err)
		}
		return nil
	}
	if err := e.Commit(context.Background()); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if !e.Dirty() {
		t.Fatal("commit must not clear dirty when a mutation landed in flight")
	}
	if e.Len() != 3 {
		t.Fatalf("in-flight mutation lost, len=%d", e.Len())
	}
}

func TestAvailableExcludesPresentEntries(t *testing.T) {
	backend := &fakeBackend{
		availableFn: func(context.Context, Scope, string, int) ([]Entity, error) {
			return []Entity{{ID: 1, Name: "A"}, {ID: 8, Name: "H"}, {ID: 9, Name: "I"}}, nil
		},
	}
	e := loadedEditor(t, backend, Scope{Feature: "category-display-order", Key: "3"}, "A", "B")

	candidates, err := e.Available(context.Background(), "", 50)
	if err != nil {
		t.Fatalf("Available() error = %v", err)
	}
	for _, candidate := range candidates {
		if candidate.ID == 1 || candidate.ID == 2 {
			t.Fatalf("candidate %d is already in the list", candidate.ID)
		}
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %+v", candidates)
	}
}

func TestDensityHoldsAcrossOperationSequences(t *testing.T) {
	backend := &fakeBackend{}
	e := loadedEditor(t, backend, Scope{Feature: "category-display-order", Key: "3", MaxSize: 20},
		"A", "B", "C", "D", "E")

	steps := []func(){
		func() { _ = e.Add(Entity{ID: 10, Name: "F"}) },
		func() { e.Remove(2) },
		func() { _ = e.Move(0, 3) },
		func() { _ = e.Move(3, 1) },
		func() { e.Remove(10) },
		func() { _ = e.Add(Entity{ID: 11, Name: "G"}) },
		func() { _ = e.Move(e.Len() - 1, 0) },
	}
	for i, step := range steps {
		step()
		checkDense(t, e)
		if i >= 0 && !e.Dirty() {
			t.Fatalf("expected dirty after step %d", i)
		}
	}
}
