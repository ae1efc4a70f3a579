package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"stepai/admin/internal/editor"
)

func TestLoadParsesEnvelopeAndField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/category-display-order/3" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("unexpected Authorization header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"services":[
			{"id":7,"name":"ChatStep","display_order":1,"is_featured":true,"is_active":true},
			{"id":9,"name":"DrawStep","display_order":2,"is_featured":false,"is_active":true}
		]}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok-1")
	entries, err := c.Load(context.Background(), editor.Scope{Feature: "category-display-order", Key: "3"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(entries) != 2 || entries[0].ID != 7 || !entries[0].IsFeatured || entries[1].Name != "DrawStep" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestCommitSendsFullListInOrder(t *testing.T) {
	var got struct {
		Services []editor.Entry `json:"services"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/category-display-order/3/reorder" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok-1")
	entries := []editor.Entry{
		{Entity: editor.Entity{ID: 9, Name: "DrawStep"}, DisplayOrder: 1, IsActive: true},
		{Entity: editor.Entity{ID: 7, Name: "ChatStep"}, DisplayOrder: 2, IsActive: true},
	}
	err := c.Commit(context.Background(), editor.Scope{Feature: "category-display-order", Key: "3"}, entries)
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if len(got.Services) != 2 || got.Services[0].ID != 9 || got.Services[1].DisplayOrder != 2 {
		t.Fatalf("unexpected committed payload: %+v", got.Services)
	}
}

func TestEnvelopeFailureBeatsStatusOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":"max 20 services per category"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok-1")
	err := c.Commit(context.Background(), editor.Scope{Feature: "category-display-order", Key: "3"}, nil)
	if err == nil || !strings.Contains(err.Error(), "max 20 services") {
		t.Fatalf("expected envelope error to surface, got %v", err)
	}
}

func TestUnauthorizedMapsToAuthExpired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"error":"invalid token"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "stale")
	_, err := c.Load(context.Background(), editor.Scope{Feature: "homepage-settings/videos"})
	if !errors.Is(err, ErrAuthExpired) {
		t.Fatalf("expected ErrAuthExpired, got %v", err)
	}
}

func TestAvailableBuildsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/category-display-order/available-services" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("category_id") != "3" || q.Get("search") != "chat" || q.Get("limit") != "50" {
			t.Errorf("unexpected query %v", q)
		}
		_, _ = w.Write([]byte(`{"success":true,"data":[{"id":11,"name":"ChatStep Pro"}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok-1")
	found, err := c.Available(context.Background(), editor.Scope{Feature: "category-display-order", Key: "3"}, "chat", 50)
	if err != nil {
		t.Fatalf("Available() error = %v", err)
	}
	if len(found) != 1 || found[0].ID != 11 {
		t.Fatalf("unexpected candidates: %+v", found)
	}
}

func TestAvailableUnwrapsKeyedField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":{"videos":[{"id":4,"name":"Intro clip"}]}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok-1")
	found, err := c.Available(context.Background(), editor.Scope{Feature: "homepage-settings/videos"}, "", 0)
	if err != nil {
		t.Fatalf("Available() error = %v", err)
	}
	if len(found) != 1 || found[0].Name != "Intro clip" {
		t.Fatalf("unexpected candidates: %+v", found)
	}
}

func TestAddAndRemoveItemPaths(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok-1")
	scope := editor.Scope{Feature: "category-display-order", Key: "3"}
	if err := c.AddItem(context.Background(), scope, 7); err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}
	if err := c.RemoveItem(context.Background(), scope, 7); err != nil {
		t.Fatalf("RemoveItem() error = %v", err)
	}
	want := []string{
		"POST /api/category-display-order/3/services",
		"DELETE /api/category-display-order/3/services/7",
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("call %d = %q, want %q", i, calls[i], want[i])
		}
	}
}

func TestUnknownFeatureRejectedLocally(t *testing.T) {
	c := New("http://unused.invalid", "tok-1")
	if _, err := c.Load(context.Background(), editor.Scope{Feature: "nonsense"}); err == nil {
		t.Fatal("expected error for unknown feature")
	}
}

func TestSetTokenSafeDuringInFlightRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth != "Bearer tok-old" && auth != "Bearer tok-new" {
			t.Errorf("unexpected Authorization header %q", auth)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"services":[]}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok-old")
	scope := editor.Scope{Feature: "category-display-order", Key: "3"}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if _, err := c.Load(context.Background(), scope); err != nil {
					t.Errorf("Load() error = %v", err)
					return
				}
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 50; j++ {
			c.SetToken("tok-new")
			c.SetToken("tok-old")
		}
		c.SetToken("tok-new")
	}()
	wg.Wait()

	if _, err := c.Load(context.Background(), scope); err != nil {
		t.Fatalf("Load() after re-login error = %v", err)
	}
}
