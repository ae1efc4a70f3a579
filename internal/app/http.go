package app

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"stepai/admin/internal/auth"
	"stepai/admin/internal/export"
	"stepai/admin/internal/store"
	"stepai/admin/internal/uploads"
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
	uploads    *uploads.Store
	exporter   *export.Service
}

func NewHTTPServer(service *Service, corsOrigin string, uploadStore *uploads.Store, exporter *export.Service) *HTTPServer {
	return &HTTPServer{
		service:    service,
		corsOrigin: corsOrigin,
		uploads:    uploadStore,
		exporter:   exporter,
	}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeData(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := s.service.Ping(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "NOT_READY", "Database unavailable", nil)
			return
		}
		writeData(w, http.StatusOK, map[string]any{"status": "ready"})
		return
	}

	parts := splitPath(r.URL.Path)

	// Served from object storage, no auth: logos and thumbnails are public.
	if len(parts) >= 2 && parts[0] == "uploads" && r.Method == http.MethodGet {
		s.handleDownload(w, r, strings.Join(parts[1:], "/"))
		return
	}

	if len(parts) < 2 || parts[0] != "api" {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}
	rest := parts[1:]

	switch rest[0] {
	case "admin":
		s.handleAdminAuth(w, r, rest[1:])
		return
	case "inquiries":
		if r.Method == http.MethodPost && len(rest) == 1 {
			s.handleSubmitInquiry(w, r)
			return
		}
	case "ad-partnerships":
		if r.Method == http.MethodPost && len(rest) == 1 {
			s.handleSubmitAdPartnership(w, r)
			return
		}
	}

	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}

	switch rest[0] {
	case "dashboard":
		if r.Method == http.MethodGet && len(rest) == 2 && rest[1] == "stats" {
			stats, err := s.service.DashboardStats(r.Context())
			s.respond(w, stats, err)
			return
		}
	case "categories":
		s.handleCategories(w, r, rest[1:])
		return
	case "main-categories":
		if r.Method == http.MethodGet && len(rest) == 1 {
			categories, err := s.service.ListMainCategories(r.Context())
			s.respond(w, categories, err)
			return
		}
	case "category-display-order":
		s.handleCategoryDisplayOrder(w, r, rest[1:])
		return
	case "homepage-settings":
		s.handleHomepageSettings(w, r, rest[1:])
		return
	case "ai-services":
		s.handleServices(w, r, rest[1:])
		return
	case "ai-videos":
		s.handleVideos(w, r, rest[1:])
		return
	case "curations":
		s.handleCurations(w, r, rest[1:])
		return
	case "users":
		if r.Method == http.MethodGet && len(rest) == 1 {
			users, err := s.service.ListUsers(r.Context(), queryParam(r, "search"), intParam(r, "limit", 50), intParam(r, "offset", 0))
			s.respond(w, users, err)
			return
		}
	case "tags":
		s.handleTags(w, r, rest[1:])
		return
	case "site-settings":
		s.handleSiteSettings(w, r, rest[1:])
		return
	case "inquiries":
		s.handleInquiries(w, r, rest[1:])
		return
	case "ad-partnerships":
		s.handleAdPartnerships(w, r, rest[1:])
		return
	case "setup":
		s.handleSetup(w, r, rest[1:])
		return
	case "uploads":
		if r.Method == http.MethodPost && len(rest) == 1 {
			s.handleUpload(w, r)
			return
		}
	case "export":
		if r.Method == http.MethodGet && len(rest) == 2 && rest[1] == "catalog.pdf" {
			s.handleExportCatalog(w, r)
			return
		}
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleAdminAuth(w http.ResponseWriter, r *http.Request, rest []string) {
	if r.Method != http.MethodPost || len(rest) != 1 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}

	switch rest[0] {
	case "check-email":
		var body struct {
			Email string `json:"email"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		result, err := s.service.CheckEmail(r.Context(), strings.TrimSpace(body.Email))
		if err != nil {
			s.respond(w, nil, err)
			return
		}
		writeData(w, http.StatusOK, map[string]any{
			"exists":       result.Exists,
			"has_password": result.HasPassword,
		})
	case "set-password":
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		if err := s.service.SetPassword(r.Context(), strings.TrimSpace(body.Email), body.Password); err != nil {
			s.respond(w, nil, err)
			return
		}
		writeData(w, http.StatusOK, map[string]any{"ok": true})
	case "login":
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		session, err := s.service.Login(r.Context(), strings.TrimSpace(body.Email), body.Password)
		if err != nil {
			s.respond(w, nil, err)
			return
		}
		writeData(w, http.StatusOK, sessionPayload(session))
	case "refresh":
		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		session, err := s.service.Refresh(r.Context(), body.RefreshToken)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Refresh token invalid", nil)
			return
		}
		writeData(w, http.StatusOK, sessionPayload(session))
	case "logout":
		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		_ = decodeBody(r, &body)
		_ = s.service.Logout(r.Context(), body.RefreshToken)
		writeData(w, http.StatusOK, map[string]any{"ok": true})
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func sessionPayload(session Session) map[string]any {
	return map[string]any{
		"token":         session.Token,
		"refresh_token": session.RefreshToken,
		"user": map[string]any{
			"id":        session.UserID,
			"name":      session.UserName,
			"user_type": session.UserType,
		},
	}
}

func (s *HTTPServer) handleCategories(w http.ResponseWriter, r *http.Request, rest []string) {
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		categories, err := s.service.ListCategories(r.Context())
		s.respond(w, categories, err)
	case len(rest) == 0 && r.Method == http.MethodPost:
		var body store.Category
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		created, err := s.service.CreateCategory(r.Context(), body)
		s.respondStatus(w, http.StatusCreated, created, err)
	case len(rest) == 1 && rest[0] == "reorder" && r.Method == http.MethodPut:
		var body struct {
			CategoryIDs []int64 `json:"category_ids"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		if err := s.service.ReorderCategories(r.Context(), body.CategoryIDs); err != nil {
			s.respond(w, nil, err)
			return
		}
		categories, err := s.service.ListCategories(r.Context())
		s.respond(w, categories, err)
	case len(rest) == 1 && r.Method == http.MethodPut:
		id, ok := parseID(w, rest[0])
		if !ok {
			return
		}
		var body store.Category
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		body.ID = id
		if err := s.service.UpdateCategory(r.Context(), body); err != nil {
			s.respond(w, nil, err)
			return
		}
		writeData(w, http.StatusOK, body)
	case len(rest) == 1 && r.Method == http.MethodDelete:
		id, ok := parseID(w, rest[0])
		if !ok {
			return
		}
		if err := s.service.DeleteCategory(r.Context(), id); err != nil {
			s.respond(w, nil, err)
			return
		}
		writeData(w, http.StatusOK, map[string]any{"ok": true})
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleCategoryDisplayOrder(w http.ResponseWriter, r *http.Request, rest []string) {
	if len(rest) == 1 && rest[0] == "available-services" && r.Method == http.MethodGet {
		categoryID, err := strconv.ParseInt(queryParam(r, "category_id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "category_id must be an integer", nil)
			return
		}
		found, err := s.service.AvailableServicesForCategory(r.Context(), categoryID, queryParam(r, "search"), intParam(r, "limit", 50))
		s.respond(w, found, err)
		return
	}

	if len(rest) == 0 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}
	categoryID, ok := parseID(w, rest[0])
	if !ok {
		return
	}

	switch {
	case len(rest) == 1 && r.Method == http.MethodGet:
		entries, err := s.service.GetCategoryDisplayOrder(r.Context(), categoryID, intParam(r, "limit", 0))
		s.respond(w, map[string]any{"services": entries}, err)
	case len(rest) == 2 && rest[1] == "services" && r.Method == http.MethodPost:
		var body struct {
			ServiceID int64 `json:"service_id"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		entry, err := s.service.AddServiceToCategory(r.Context(), categoryID, body.ServiceID)
		s.respondStatus(w, http.StatusCreated, entry, err)
	case len(rest) == 3 && rest[1] == "services" && r.Method == http.MethodDelete:
		serviceID, ok := parseID(w, rest[2])
		if !ok {
			return
		}
		if err := s.service.RemoveServiceFromCategory(r.Context(), categoryID, serviceID); err != nil {
			s.respond(w, nil, err)
			return
		}
		writeData(w, http.StatusOK, map[string]any{"ok": true})
	case len(rest) == 2 && rest[1] == "reorder" && r.Method == http.MethodPut:
		var body struct {
			Services []LineupEntry `json:"services"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		entries, err := s.service.ReorderCategoryServices(r.Context(), categoryID, body.Services)
		s.respond(w, map[string]any{"services": entries}, err)
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleHomepageSettings(w http.ResponseWriter, r *http.Request, rest []string) {
	if len(rest) == 0 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}

	switch rest[0] {
	case "videos", "curations", "step-pick":
		s.handleHomepageSlot(w, r, rest)
		return
	case "available-videos":
		if r.Method == http.MethodGet && len(rest) == 1 {
			found, err := s.service.AvailableForSlot(r.Context(), store.SlotVideos, queryParam(r, "search"), intParam(r, "limit", 50))
			s.respond(w, found, err)
			return
		}
	case "available-curations":
		if r.Method == http.MethodGet && len(rest) == 1 {
			found, err := s.service.AvailableForSlot(r.Context(), store.SlotCurations, queryParam(r, "search"), intParam(r, "limit", 50))
			s.respond(w, found, err)
			return
		}
	case "available-services":
		if r.Method == http.MethodGet && len(rest) == 1 {
			// With section_id the candidates are for a trend section's
			// lineup, otherwise for the step-pick slot.
			if raw := queryParam(r, "section_id"); raw != "" {
				sectionID, err := strconv.ParseInt(raw, 10, 64)
				if err != nil {
					writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "section_id must be an integer", nil)
					return
				}
				found, err := s.service.AvailableForTrendSection(r.Context(), sectionID, queryParam(r, "search"), intParam(r, "limit", 50))
				s.respond(w, found, err)
				return
			}
			found, err := s.service.AvailableForSlot(r.Context(), store.SlotStepPick, queryParam(r, "search"), intParam(r, "limit", 50))
			s.respond(w, found, err)
			return
		}
	case "trends":
		s.handleTrends(w, r, rest[1:])
		return
	}
	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

// slotField maps each homepage slot to the JSON field its entries travel
// under, mirroring what the admin UI sends and expects.
func slotField(slot string) string {
	switch slot {
	case store.SlotVideos:
		return "videos"
	case store.SlotCurations:
		return "curations"
	default:
		return "services"
	}
}

func (s *HTTPServer) handleHomepageSlot(w http.ResponseWriter, r *http.Request, rest []string) {
	slot := rest[0]
	field := slotField(slot)

	switch {
	case len(rest) == 1 && r.Method == http.MethodGet:
		entries, err := s.service.GetHomepageSlot(r.Context(), slot)
		s.respond(w, map[string]any{field: entries}, err)
	case len(rest) == 1 && r.Method == http.MethodPut:
		var body map[string][]LineupEntry
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		entries, ok := body[field]
		if !ok {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("%s is required", field), nil)
			return
		}
		updated, err := s.service.PutHomepageSlot(r.Context(), slot, entries)
		s.respond(w, map[string]any{field: updated}, err)
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleTrends(w http.ResponseWriter, r *http.Request, rest []string) {
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		sections, err := s.service.GetTrendSections(r.Context())
		s.respond(w, map[string]any{"sections": sections}, err)
	case len(rest) == 0 && r.Method == http.MethodPut:
		var body struct {
			Sections []store.TrendSection `json:"sections"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		sections, err := s.service.PutTrendSections(r.Context(), body.Sections)
		s.respond(w, map[string]any{"sections": sections}, err)
	case len(rest) == 1 && r.Method == http.MethodDelete:
		id, ok := parseID(w, rest[0])
		if !ok {
			return
		}
		if err := s.service.DeleteTrendSection(r.Context(), id); err != nil {
			s.respond(w, nil, err)
			return
		}
		writeData(w, http.StatusOK, map[string]any{"ok": true})
	case len(rest) == 2 && rest[1] == "services":
		sectionID, ok := parseID(w, rest[0])
		if !ok {
			return
		}
		switch r.Method {
		case http.MethodGet:
			entries, err := s.service.GetTrendSectionServices(r.Context(), sectionID)
			s.respond(w, map[string]any{"services": entries}, err)
		case http.MethodPut:
			var body struct {
				Services   []LineupEntry `json:"services"`
				CategoryID *int64        `json:"category_id"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			entries, err := s.service.PutTrendSectionServices(r.Context(), sectionID, body.Services, body.CategoryID)
			s.respond(w, map[string]any{"services": entries}, err)
		default:
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		}
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleServices(w http.ResponseWriter, r *http.Request, rest []string) {
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		services, err := s.service.ListServices(r.Context(), queryParam(r, "search"), intParam(r, "limit", 50), intParam(r, "offset", 0))
		s.respond(w, services, err)
	case len(rest) == 0 && r.Method == http.MethodPost:
		var body store.AIService
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		created, err := s.service.CreateService(r.Context(), body)
		s.respondStatus(w, http.StatusCreated, created, err)
	case len(rest) == 1 && rest[0] == "admin-search" && r.Method == http.MethodGet:
		results, err := s.service.AdminSearchServices(r.Context(), queryParam(r, "q"), intParam(r, "limit", 20))
		s.respond(w, results, err)
	case len(rest) == 1 && r.Method == http.MethodPut:
		id, ok := parseID(w, rest[0])
		if !ok {
			return
		}
		var body store.AIService
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		body.ID = id
		if err := s.service.UpdateService(r.Context(), body); err != nil {
			s.respond(w, nil, err)
			return
		}
		writeData(w, http.StatusOK, body)
	case len(rest) == 1 && r.Method == http.MethodDelete:
		id, ok := parseID(w, rest[0])
		if !ok {
			return
		}
		if err := s.service.DeleteService(r.Context(), id); err != nil {
			s.respond(w, nil, err)
			return
		}
		writeData(w, http.StatusOK, map[string]any{"ok": true})
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleVideos(w http.ResponseWriter, r *http.Request, rest []string) {
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		videos, err := s.service.ListVideos(r.Context())
		s.respond(w, videos, err)
	case len(rest) == 0 && r.Method == http.MethodPost:
		var body store.AIVideo
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		created, err := s.service.CreateVideo(r.Context(), body)
		s.respondStatus(w, http.StatusCreated, created, err)
	case len(rest) == 1 && r.Method == http.MethodDelete:
		id, ok := parseID(w, rest[0])
		if !ok {
			return
		}
		if err := s.service.DeleteVideo(r.Context(), id); err != nil {
			s.respond(w, nil, err)
			return
		}
		writeData(w, http.StatusOK, map[string]any{"ok": true})
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleCurations(w http.ResponseWriter, r *http.Request, rest []string) {
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		curations, err := s.service.ListCurations(r.Context())
		s.respond(w, curations, err)
	case len(rest) == 0 && r.Method == http.MethodPost:
		var body store.Curation
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		created, err := s.service.CreateCuration(r.Context(), body)
		s.respondStatus(w, http.StatusCreated, created, err)
	case len(rest) == 2 && rest[1] == "services":
		curationID, ok := parseID(w, rest[0])
		if !ok {
			return
		}
		switch r.Method {
		case http.MethodGet:
			services, err := s.service.GetCurationServices(r.Context(), curationID)
			s.respond(w, map[string]any{"services": services}, err)
		case http.MethodPut:
			var body struct {
				ServiceIDs []int64 `json:"service_ids"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			services, err := s.service.PutCurationServices(r.Context(), curationID, body.ServiceIDs)
			s.respond(w, map[string]any{"services": services}, err)
		default:
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		}
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleTags(w http.ResponseWriter, r *http.Request, rest []string) {
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		tags, err := s.service.ListTags(r.Context())
		s.respond(w, tags, err)
	case len(rest) == 0 && r.Method == http.MethodPost:
		var body store.Tag
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		created, err := s.service.CreateTag(r.Context(), body)
		s.respondStatus(w, http.StatusCreated, created, err)
	case len(rest) == 1 && r.Method == http.MethodDelete:
		id, ok := parseID(w, rest[0])
		if !ok {
			return
		}
		if err := s.service.DeleteTag(r.Context(), id); err != nil {
			s.respond(w, nil, err)
			return
		}
		writeData(w, http.StatusOK, map[string]any{"ok": true})
	case len(rest) == 2 && rest[1] == "items":
		tagID, ok := parseID(w, rest[0])
		if !ok {
			return
		}
		switch r.Method {
		case http.MethodGet:
			items, err := s.service.ListTagItems(r.Context(), tagID)
			s.respond(w, items, err)
		case http.MethodPost:
			var body struct {
				ServiceID int64 `json:"service_id"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			if err := s.service.AttachTagItem(r.Context(), tagID, body.ServiceID); err != nil {
				s.respond(w, nil, err)
				return
			}
			writeData(w, http.StatusCreated, map[string]any{"ok": true})
		default:
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		}
	case len(rest) == 3 && rest[1] == "items" && r.Method == http.MethodDelete:
		tagID, ok := parseID(w, rest[0])
		if !ok {
			return
		}
		serviceID, ok := parseID(w, rest[2])
		if !ok {
			return
		}
		if err := s.service.DetachTagItem(r.Context(), tagID, serviceID); err != nil {
			s.respond(w, nil, err)
			return
		}
		writeData(w, http.StatusOK, map[string]any{"ok": true})
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleSiteSettings(w http.ResponseWriter, r *http.Request, rest []string) {
	if len(rest) != 0 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}
	switch r.Method {
	case http.MethodGet:
		settings, err := s.service.GetSiteSettings(r.Context())
		s.respond(w, settings, err)
	case http.MethodPut:
		var body store.SiteSettings
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		if err := s.service.UpdateSiteSettings(r.Context(), body); err != nil {
			s.respond(w, nil, err)
			return
		}
		writeData(w, http.StatusOK, body)
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleInquiries(w http.ResponseWriter, r *http.Request, rest []string) {
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		inquiries, err := s.service.ListInquiries(r.Context(), queryParam(r, "status"), intParam(r, "limit", 50), intParam(r, "offset", 0))
		s.respond(w, inquiries, err)
	case len(rest) == 2 && rest[1] == "status" && r.Method == http.MethodPut:
		id, ok := parseID(w, rest[0])
		if !ok {
			return
		}
		var body struct {
			Status string `json:"status"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		if err := s.service.UpdateInquiryStatus(r.Context(), id, body.Status); err != nil {
			s.respond(w, nil, err)
			return
		}
		writeData(w, http.StatusOK, map[string]any{"ok": true})
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleAdPartnerships(w http.ResponseWriter, r *http.Request, rest []string) {
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		partnerships, err := s.service.ListAdPartnerships(r.Context(), queryParam(r, "status"), intParam(r, "limit", 50), intParam(r, "offset", 0))
		s.respond(w, partnerships, err)
	case len(rest) == 2 && rest[1] == "status" && r.Method == http.MethodPut:
		id, ok := parseID(w, rest[0])
		if !ok {
			return
		}
		var body struct {
			Status string `json:"status"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		if err := s.service.UpdateAdPartnershipStatus(r.Context(), id, body.Status); err != nil {
			s.respond(w, nil, err)
			return
		}
		writeData(w, http.StatusOK, map[string]any{"ok": true})
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleSetup(w http.ResponseWriter, r *http.Request, rest []string) {
	if r.Method != http.MethodPost || len(rest) != 1 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}
	switch rest[0] {
	case "category-display-order":
		created, err := s.service.SetupCategoryDisplayOrder(r.Context())
		s.respond(w, map[string]any{"created": created}, err)
	case "homepage-settings":
		created, err := s.service.SetupHomepageSettings(r.Context())
		s.respond(w, map[string]any{"created": created}, err)
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleSubmitInquiry(w http.ResponseWriter, r *http.Request) {
	var body store.Inquiry
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	created, err := s.service.SubmitInquiry(r.Context(), body)
	s.respondStatus(w, http.StatusCreated, created, err)
}

func (s *HTTPServer) handleSubmitAdPartnership(w http.ResponseWriter, r *http.Request) {
	var body store.AdPartnership
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	created, err := s.service.SubmitAdPartnership(r.Context(), body)
	s.respondStatus(w, http.StatusCreated, created, err)
}

func (s *HTTPServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.uploads == nil {
		writeError(w, http.StatusServiceUnavailable, "UPLOADS_UNAVAILABLE", "Object storage not configured", nil)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "file field is required", nil)
		return
	}
	defer file.Close()

	object, err := s.uploads.Put(r.Context(), header.Filename, header.Header.Get("Content-Type"), file, header.Size)
	if err != nil {
		s.respond(w, nil, err)
		return
	}
	writeData(w, http.StatusCreated, map[string]any{
		"object": object,
		"url":    "/uploads/" + object,
	})
}

func (s *HTTPServer) handleDownload(w http.ResponseWriter, r *http.Request, object string) {
	if s.uploads == nil {
		writeError(w, http.StatusServiceUnavailable, "UPLOADS_UNAVAILABLE", "Object storage not configured", nil)
		return
	}
	reader, contentType, err := s.uploads.Get(r.Context(), object)
	if err != nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}
	defer reader.Close()
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = io.Copy(w, reader)
}

func (s *HTTPServer) handleExportCatalog(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		writeError(w, http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "PDF export not configured", nil)
		return
	}
	categories, err := s.service.ListCategories(r.Context())
	if err != nil {
		s.respond(w, nil, err)
		return
	}
	lineups := make(map[int64][]LineupEntry, len(categories))
	for _, category := range categories {
		entries, err := s.service.GetCategoryDisplayOrder(r.Context(), category.ID, 0)
		if err != nil {
			s.respond(w, nil, err)
			return
		}
		lineups[category.ID] = entries
	}

	doc := export.CatalogDocument{GeneratedAt: time.Now()}
	for _, category := range categories {
		section := export.CatalogSection{Title: category.Name}
		for _, entry := range lineups[category.ID] {
			section.Rows = append(section.Rows, export.CatalogRow{
				Order:    entry.DisplayOrder,
				Name:     entry.Name,
				Featured: entry.IsFeatured,
				Active:   entry.IsActive,
			})
		}
		doc.Sections = append(doc.Sections, section)
	}

	pdf, err := s.exporter.CatalogPDF(r.Context(), doc)
	if err != nil {
		s.respond(w, nil, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="catalog.pdf"`)
	_, _ = w.Write(pdf)
}

// respond writes data with 200 or maps err onto the error envelope.
func (s *HTTPServer) respond(w http.ResponseWriter, data any, err error) {
	s.respondStatus(w, http.StatusOK, data, err)
}

func (s *HTTPServer) respondStatus(w http.ResponseWriter, status int, data any, err error) {
	if err != nil {
		errStatus, code, message, details := mapError(err)
		writeError(w, errStatus, code, message, details)
		return
	}
	writeData(w, status, data)
}

func (s *HTTPServer) requireAdmin(w http.ResponseWriter, r *http.Request) (Session, bool) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return Session{}, false
	}
	session, err := s.service.SessionFromToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) || errors.Is(err, auth.ErrInvalidToken) {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
			return Session{}, false
		}
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Session lookup failed", nil)
		return Session{}, false
	}
	if session.UserType != "admin" {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
		return Session{}, false
	}
	return session, true
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, map[string]any{
		"success": true,
		"data":    data,
	})
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"success": false,
		"code":    code,
		"error":   message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is required")
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func parseID(w http.ResponseWriter, raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "id must be a positive integer", nil)
		return 0, false
	}
	return id, true
}

func queryParam(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

func intParam(r *http.Request, key string, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	}
	if errors.Is(err, store.ErrAlreadyListed) {
		return http.StatusConflict, "DUPLICATE_ENTRY", "Already in display order", nil
	}
	if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrExpiredToken) {
		return http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
