// Package client implements editor.Backend against the catalog admin API.
// One Client serves every scope; the scope's feature and key decide the
// paths and the field name the entries travel under.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"stepai/admin/internal/editor"
)

// ErrAuthExpired is returned when the API rejects the bearer token. The
// caller is expected to send the user back through login; the client never
// refreshes or retries on its own.
var ErrAuthExpired = errors.New("authentication expired")

type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// SetToken swaps the bearer token after a re-login. Safe to call while
// requests are in flight; they pick up whichever token is current when
// they build their headers.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// routes maps a scope onto its API paths and the JSON field the entry
// list travels under. The layout mirrors the admin API surface:
//
//	category-display-order/{categoryID}           field "services"
//	homepage-settings/videos                      field "videos"
//	homepage-settings/curations                   field "curations"
//	homepage-settings/step-pick                   field "services"
//	homepage-settings/trends/{sectionID}          field "services"
type scopeRoutes struct {
	load      string
	commit    string
	available string
	field     string
}

func (c *Client) routes(scope editor.Scope) (scopeRoutes, error) {
	switch scope.Feature {
	case "category-display-order":
		if scope.Key == "" {
			return scopeRoutes{}, fmt.Errorf("scope %s: missing category id", scope)
		}
		base := "/api/category-display-order/" + url.PathEscape(scope.Key)
		return scopeRoutes{
			load:      base,
			commit:    base + "/reorder",
			available: "/api/category-display-order/available-services?category_id=" + url.QueryEscape(scope.Key),
			field:     "services",
		}, nil
	case "homepage-settings/videos":
		return scopeRoutes{
			load:      "/api/homepage-settings/videos",
			commit:    "/api/homepage-settings/videos",
			available: "/api/homepage-settings/available-videos?",
			field:     "videos",
		}, nil
	case "homepage-settings/curations":
		return scopeRoutes{
			load:      "/api/homepage-settings/curations",
			commit:    "/api/homepage-settings/curations",
			available: "/api/homepage-settings/available-curations?",
			field:     "curations",
		}, nil
	case "homepage-settings/step-pick":
		return scopeRoutes{
			load:      "/api/homepage-settings/step-pick",
			commit:    "/api/homepage-settings/step-pick",
			available: "/api/homepage-settings/available-services?",
			field:     "services",
		}, nil
	case "homepage-settings/trends":
		if scope.Key == "" {
			return scopeRoutes{}, fmt.Errorf("scope %s: missing trend section id", scope)
		}
		base := "/api/homepage-settings/trends/" + url.PathEscape(scope.Key) + "/services"
		return scopeRoutes{
			load:      base,
			commit:    base,
			available: "/api/homepage-settings/available-services?section_id=" + url.QueryEscape(scope.Key),
			field:     "services",
		}, nil
	}
	return scopeRoutes{}, fmt.Errorf("scope %s: unknown feature", scope)
}

// Load fetches the scoped list from the API.
func (c *Client) Load(ctx context.Context, scope editor.Scope) ([]editor.Entry, error) {
	r, err := c.routes(scope)
	if err != nil {
		return nil, err
	}
	data, err := c.do(ctx, http.MethodGet, r.load, nil)
	if err != nil {
		return nil, err
	}
	entries, err := decodeEntries(data, r.field)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", scope, err)
	}
	return entries, nil
}

// Commit sends the whole list as a full replacement for the scope.
func (c *Client) Commit(ctx context.Context, scope editor.Scope, entries []editor.Entry) error {
	r, err := c.routes(scope)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []editor.Entry{}
	}
	body := map[string]any{r.field: entries}
	if _, err := c.do(ctx, http.MethodPut, r.commit, body); err != nil {
		return fmt.Errorf("commit %s: %w", scope, err)
	}
	return nil
}

// Available searches the catalog for candidates that can be added to the
// scope. The server already excludes entities in the committed list; the
// editor filters locally added ones afterwards.
func (c *Client) Available(ctx context.Context, scope editor.Scope, query string, limit int) ([]editor.Entity, error) {
	r, err := c.routes(scope)
	if err != nil {
		return nil, err
	}
	path := r.available
	if !strings.HasSuffix(path, "?") && !strings.HasSuffix(path, "&") {
		path += "&"
	}
	params := url.Values{}
	if query != "" {
		params.Set("search", query)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	path += params.Encode()
	path = strings.TrimRight(path, "?&")

	data, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("available %s: %w", scope, err)
	}
	var entities []editor.Entity
	if err := json.Unmarshal(data, &entities); err != nil {
		// Some listings wrap the array in a field keyed by entity kind.
		fields := map[string]json.RawMessage{}
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, fmt.Errorf("available %s: decode: %w", scope, err)
		}
		for _, raw := range fields {
			var inner []editor.Entity
			if json.Unmarshal(raw, &inner) == nil {
				return inner, nil
			}
		}
		return nil, fmt.Errorf("available %s: no entity list in response", scope)
	}
	return entities, nil
}

// AddItem registers a single entity with the scope server-side, outside
// the commit flow. Only the category display order exposes this.
func (c *Client) AddItem(ctx context.Context, scope editor.Scope, entityID int64) error {
	r, err := c.routes(scope)
	if err != nil {
		return err
	}
	body := map[string]any{"service_id": entityID}
	if _, err := c.do(ctx, http.MethodPost, r.load+"/services", body); err != nil {
		return fmt.Errorf("add %d to %s: %w", entityID, scope, err)
	}
	return nil
}

// RemoveItem deletes a single entity from the scope server-side.
func (c *Client) RemoveItem(ctx context.Context, scope editor.Scope, entityID int64) error {
	r, err := c.routes(scope)
	if err != nil {
		return err
	}
	path := r.load + "/services/" + strconv.FormatInt(entityID, 10)
	if _, err := c.do(ctx, http.MethodDelete, path, nil); err != nil {
		return fmt.Errorf("remove %d from %s: %w", entityID, scope, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrAuthExpired
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", method, path, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%s %s: status %d: decode: %w", method, path, resp.StatusCode, err)
	}
	// A 200 with success=false is still a failure; trust the envelope over
	// the status line.
	if resp.StatusCode >= 400 || !env.Success {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("%s %s: %s", method, path, msg)
	}
	return env.Data, nil
}

func decodeEntries(data json.RawMessage, field string) ([]editor.Entry, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var entries []editor.Entry
	if err := json.Unmarshal(data, &entries); err == nil {
		return entries, nil
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	raw, ok := fields[field]
	if !ok {
		return nil, fmt.Errorf("decode: missing %q field", field)
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode %q: %w", field, err)
	}
	return entries, nil
}
