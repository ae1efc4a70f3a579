package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stepai/admin/internal/auth"
	"stepai/admin/internal/store"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

func newTestHandler(t *testing.T, fs *fakeStore) (http.Handler, *Service) {
	t.Helper()
	svc := newTestService(fs, newFakeSessions(), &fakeSearch{})
	return NewHTTPServer(svc, "*", nil, nil).Handler(), svc
}

func doRequest(t *testing.T, handler http.Handler, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("response is not an envelope: %v (body %q)", err, rec.Body.String())
	}
	return rec, env
}

func adminToken(t *testing.T, svc *Service, fs *fakeStore) string {
	t.Helper()
	fs.addAdmin(1, "ops@stepai.io", "correct-horse")
	session, err := svc.Login(context.Background(), "ops@stepai.io", "correct-horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return session.Token
}

func TestHealthEndpoint(t *testing.T) {
	handler, _ := newTestHandler(t, newFakeStore())
	rec, env := doRequest(t, handler, http.MethodGet, "/api/health", "", nil)
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("status %d, success %v", rec.Code, env.Success)
	}
}

func TestAdminRoutesRequireAuth(t *testing.T) {
	handler, _ := newTestHandler(t, newFakeStore())
	rec, env := doRequest(t, handler, http.MethodGet, "/api/categories", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d", rec.Code)
	}
	if env.Success {
		t.Error("error envelope must have success=false")
	}
	if env.Code != "UNAUTHORIZED" {
		t.Errorf("code %q", env.Code)
	}
}

func TestNonAdminTokenForbidden(t *testing.T) {
	fs := newFakeStore()
	handler, svc := newTestHandler(t, fs)

	token, err := auth.IssueToken([]byte(svc.cfg.JWTSecret), auth.Claims{
		Sub: "9", Name: "member", UserType: "member", JTI: "jti_x",
		Exp: time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	rec, _ := doRequest(t, handler, http.MethodGet, "/api/categories", token, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status %d, want 403", rec.Code)
	}
}

func TestLoginEndpointReturnsSessionEnvelope(t *testing.T) {
	fs := newFakeStore()
	fs.addAdmin(1, "ops@stepai.io", "correct-horse")
	handler, _ := newTestHandler(t, fs)

	rec, env := doRequest(t, handler, http.MethodPost, "/api/admin/login", "", map[string]string{
		"email": "ops@stepai.io", "password": "correct-horse",
	})
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
	var data struct {
		Token        string `json:"token"`
		RefreshToken string `json:"refresh_token"`
		User         struct {
			ID int64 `json:"id"`
		} `json:"user"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.Token == "" || data.RefreshToken == "" || data.User.ID != 1 {
		t.Errorf("incomplete session payload: %+v", data)
	}
}

func TestLoginEndpointBadCredentials(t *testing.T) {
	fs := newFakeStore()
	fs.addAdmin(1, "ops@stepai.io", "correct-horse")
	handler, _ := newTestHandler(t, fs)

	rec, env := doRequest(t, handler, http.MethodPost, "/api/admin/login", "", map[string]string{
		"email": "ops@stepai.io", "password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized || env.Success {
		t.Fatalf("status %d, success %v", rec.Code, env.Success)
	}
	if env.Code != "INVALID_CREDENTIALS" {
		t.Errorf("code %q", env.Code)
	}
}

func TestReorderEndpoint(t *testing.T) {
	fs := newFakeStore()
	fs.categories[3] = store.Category{ID: 3, Name: "Coding"}
	seedLineup(fs, 3, 3)
	handler, svc := newTestHandler(t, fs)
	token := adminToken(t, svc, fs)

	body := map[string]any{"services": []map[string]any{
		{"id": 3}, {"id": 1}, {"id": 2},
	}}
	rec, env := doRequest(t, handler, http.MethodPut, "/api/category-display-order/3/reorder", token, body)
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}

	var data struct {
		Services []LineupEntry `json:"services"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	wantIDs := []int64{3, 1, 2}
	for i, entry := range data.Services {
		if entry.ID != wantIDs[i] || entry.DisplayOrder != i+1 {
			t.Errorf("position %d: %+v", i, entry)
		}
	}
}

func TestAddDuplicateServiceConflict(t *testing.T) {
	fs := newFakeStore()
	fs.categories[3] = store.Category{ID: 3}
	seedLineup(fs, 3, 1)
	handler, svc := newTestHandler(t, fs)
	token := adminToken(t, svc, fs)

	rec, env := doRequest(t, handler, http.MethodPost, "/api/category-display-order/3/services", token,
		map[string]int64{"service_id": 1})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status %d, want 409", rec.Code)
	}
	if env.Code != "DUPLICATE_ENTRY" {
		t.Errorf("code %q", env.Code)
	}
}

func TestAvailableServicesRouteBeatsIDRoute(t *testing.T) {
	fs := newFakeStore()
	fs.available = []store.ListedEntity{{ID: 42, Name: "candidate"}}
	handler, svc := newTestHandler(t, fs)
	token := adminToken(t, svc, fs)

	rec, env := doRequest(t, handler, http.MethodGet,
		"/api/category-display-order/available-services?category_id=3", token, nil)
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
	var found []store.ListedEntity
	if err := json.Unmarshal(env.Data, &found); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(found) != 1 || found[0].ID != 42 {
		t.Errorf("results %+v", found)
	}
}

func TestUnknownCategoryIs404(t *testing.T) {
	fs := newFakeStore()
	handler, svc := newTestHandler(t, fs)
	token := adminToken(t, svc, fs)

	rec, env := doRequest(t, handler, http.MethodGet, "/api/category-display-order/77", token, nil)
	if rec.Code != http.StatusNotFound || env.Code != "NOT_FOUND" {
		t.Fatalf("status %d code %q", rec.Code, env.Code)
	}
}

func TestHomepageSlotBodyField(t *testing.T) {
	fs := newFakeStore()
	handler, svc := newTestHandler(t, fs)
	token := adminToken(t, svc, fs)

	// videos slot expects "videos"; a wrong key is a validation error.
	rec, _ := doRequest(t, handler, http.MethodPut, "/api/homepage-settings/videos", token,
		map[string]any{"services": []map[string]any{{"id": 1}}})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status %d, want 422", rec.Code)
	}

	rec, env := doRequest(t, handler, http.MethodPut, "/api/homepage-settings/videos", token,
		map[string]any{"videos": []map[string]any{{"id": 1}}})
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestPublicInquirySubmission(t *testing.T) {
	handler, _ := newTestHandler(t, newFakeStore())
	rec, env := doRequest(t, handler, http.MethodPost, "/api/inquiries", "", map[string]string{
		"name": "Visitor", "email": "v@example.com", "message": "Hello",
	})
	if rec.Code != http.StatusCreated || !env.Success {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestUnknownRouteEnvelope(t *testing.T) {
	fs := newFakeStore()
	handler, svc := newTestHandler(t, fs)
	token := adminToken(t, svc, fs)

	rec, env := doRequest(t, handler, http.MethodGet, "/api/nope", token, nil)
	if rec.Code != http.StatusNotFound || env.Success {
		t.Fatalf("status %d, success %v", rec.Code, env.Success)
	}
}

func TestCORSAndRequestIDHeaders(t *testing.T) {
	handler, _ := newTestHandler(t, newFakeStore())
	req := httptest.NewRequest(http.MethodOptions, "/api/categories", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS origin header")
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing request id header")
	}
}
