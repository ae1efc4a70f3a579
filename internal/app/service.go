package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"stepai/admin/internal/auth"
	"stepai/admin/internal/authpw"
	"stepai/admin/internal/config"
	"stepai/admin/internal/search"
	"stepai/admin/internal/session"
	"stepai/admin/internal/store"
	"stepai/admin/internal/util"
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       int64
	UserName     string
	UserType     string
	JTI          string
	ExpiresAt    time.Time
}

// LineupEntry is the wire shape of one display-order entry, shared by all
// scoped lists (category lineups, homepage slots, trend sections).
type LineupEntry struct {
	ID           int64  `json:"id"`
	Name         string `json:"name,omitempty"`
	Image        string `json:"image,omitempty"`
	DisplayOrder int    `json:"display_order"`
	IsFeatured   bool   `json:"is_featured"`
	IsActive     bool   `json:"is_active"`
}

type dataStore interface {
	GetUserByEmail(context.Context, string) (store.User, error)
	GetUserByID(context.Context, int64) (store.User, error)
	UpdateUserPassword(context.Context, int64, string) error
	TouchUserLogin(context.Context, int64) error
	ListUsers(context.Context, string, int, int) ([]store.User, error)

	ListCategories(context.Context) ([]store.Category, error)
	ListMainCategories(context.Context) ([]store.Category, error)
	GetCategory(context.Context, int64) (store.Category, error)
	CreateCategory(context.Context, store.Category) (store.Category, error)
	UpdateCategory(context.Context, store.Category) error
	DeleteCategory(context.Context, int64) error
	ReorderCategories(context.Context, []int64) error

	ListServices(context.Context, string, int, int) ([]store.AIService, error)
	GetService(context.Context, int64) (store.AIService, error)
	CreateService(context.Context, store.AIService) (store.AIService, error)
	UpdateService(context.Context, store.AIService) error
	DeleteService(context.Context, int64) error

	ListVideos(context.Context) ([]store.AIVideo, error)
	CreateVideo(context.Context, store.AIVideo) (store.AIVideo, error)
	DeleteVideo(context.Context, int64) error

	ListCurations(context.Context) ([]store.Curation, error)
	CreateCuration(context.Context, store.Curation) (store.Curation, error)
	ListCurationServices(context.Context, int64) ([]store.ListedEntity, error)
	ReplaceCurationServices(context.Context, int64, []int64) error

	ListTags(context.Context) ([]store.Tag, error)
	CreateTag(context.Context, store.Tag) (store.Tag, error)
	DeleteTag(context.Context, int64) error
	AttachTagItem(context.Context, int64, int64) error
	DetachTagItem(context.Context, int64, int64) error
	ListTagItems(context.Context, int64) ([]store.ListedEntity, error)

	ListCategoryDisplayOrder(context.Context, int64, int) ([]store.DisplayItem, error)
	AddCategoryService(context.Context, int64, int64) (store.DisplayItem, error)
	RemoveCategoryService(context.Context, int64, int64) error
	ReplaceCategoryDisplayOrder(context.Context, int64, []store.DisplayItem) error
	ListAvailableServices(context.Context, int64, string, int) ([]store.ListedEntity, error)

	ListHomepageSlot(context.Context, string) ([]store.DisplayItem, error)
	ReplaceHomepageSlot(context.Context, string, []store.DisplayItem) error
	ListAvailableForSlot(context.Context, string, string, int) ([]store.ListedEntity, error)

	ListTrendSections(context.Context) ([]store.TrendSection, error)
	ReplaceTrendSections(context.Context, []store.TrendSection) ([]store.TrendSection, error)
	DeleteTrendSection(context.Context, int64) error
	ListTrendSectionServices(context.Context, int64) ([]store.DisplayItem, error)
	ReplaceTrendSectionServices(context.Context, int64, []store.DisplayItem, *int64) error
	ListAvailableForTrendSection(context.Context, int64, string, int) ([]store.ListedEntity, error)

	GetSiteSettings(context.Context) (store.SiteSettings, error)
	UpdateSiteSettings(context.Context, store.SiteSettings) error

	ListInquiries(context.Context, string, int, int) ([]store.Inquiry, error)
	CreateInquiry(context.Context, store.Inquiry) (store.Inquiry, error)
	UpdateInquiryStatus(context.Context, int64, string) error

	ListAdPartnerships(context.Context, string, int, int) ([]store.AdPartnership, error)
	CreateAdPartnership(context.Context, store.AdPartnership) (store.AdPartnership, error)
	UpdateAdPartnershipStatus(context.Context, int64, string) error

	GetDashboardStats(context.Context) (store.DashboardStats, error)
	SeedCategoryDisplayOrder(context.Context, int) (int64, error)
	SeedHomepageSettings(context.Context, []string) (int64, error)

	Ping(ctx context.Context) error
}

type sessionStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash string, user store.User, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID int64) error
}

type searcher interface {
	Search(q search.Query) search.Response
	IndexService(rec search.ServiceRecord)
	IndexVideo(rec search.VideoRecord)
	IndexCuration(rec search.CurationRecord)
	DeleteService(id int64)
}

type Service struct {
	cfg      config.Config
	store    dataStore
	sessions sessionStore
	search   searcher
	auth     *authpw.Service
}

func New(cfg config.Config, dataStore *store.PostgresStore, sessions *session.RedisStore, searchSvc *search.Service) *Service {
	return &Service{
		cfg:      cfg,
		store:    dataStore,
		sessions: sessions,
		search:   searchSvc,
		auth:     authpw.NewService(dataStore),
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// CheckEmail reports whether an admin account exists for the email and
// whether first-time password setup is still pending.
func (s *Service) CheckEmail(ctx context.Context, email string) (*authpw.CheckEmailResult, error) {
	result, err := s.auth.CheckEmail(ctx, email)
	if err != nil {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
	}
	return result, nil
}

// SetPassword completes first-time password setup for an admin account.
// Any refresh sessions issued for the account before the password existed
// are revoked, so the new credential is the only way in.
func (s *Service) SetPassword(ctx context.Context, email, password string) error {
	if err := s.auth.SetPassword(ctx, email, password); err != nil {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
	}
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	return s.sessions.RevokeAllForUser(ctx, user.ID)
}

// Login authenticates an admin and issues an access/refresh token pair.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	user, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return Session{}, domainError(http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil)
	}
	if err := s.store.TouchUserLogin(ctx, user.ID); err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

// Refresh rotates a refresh token. The old token is revoked before the
// new pair is issued.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	user, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, auth.ErrInvalidToken
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:      fmt.Sprintf("%d", user.ID),
		Name:     user.Name,
		UserType: user.UserType,
		JTI:      jti,
		Exp:      expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewToken()
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), user, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		UserName:     user.Name,
		UserType:     user.UserType,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}

	var userID int64
	if _, err := fmt.Sscanf(claims.Sub, "%d", &userID); err != nil {
		return Session{}, auth.ErrInvalidToken
	}

	return Session{
		Token:     token,
		UserID:    userID,
		UserName:  claims.Name,
		UserType:  claims.UserType,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken != "" {
		_ = s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	return nil
}

// validateLineup rejects payloads the editor should never produce:
// duplicate ids, missing ids, or more entries than the scope allows.
func validateLineup(entries []LineupEntry, maxSize int) error {
	if maxSize > 0 && len(entries) > maxSize {
		return domainError(http.StatusUnprocessableEntity, "LIMIT_EXCEEDED",
			fmt.Sprintf("at most %d entries allowed", maxSize), nil)
	}
	seen := make(map[int64]struct{}, len(entries))
	for _, entry := range entries {
		if entry.ID == 0 {
			return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "entry id is required", nil)
		}
		if _, ok := seen[entry.ID]; ok {
			return domainError(http.StatusConflict, "DUPLICATE_ENTRY",
				fmt.Sprintf("entry %d appears more than once", entry.ID), nil)
		}
		seen[entry.ID] = struct{}{}
	}
	return nil
}

func lineupToItems(entries []LineupEntry) []store.DisplayItem {
	items := make([]store.DisplayItem, len(entries))
	for i, entry := range entries {
		items[i] = store.DisplayItem{
			ID:           entry.ID,
			Name:         entry.Name,
			Image:        entry.Image,
			DisplayOrder: i + 1,
			IsFeatured:   entry.IsFeatured,
			IsActive:     entry.IsActive,
		}
	}
	return items
}

func itemsToLineup(items []store.DisplayItem) []LineupEntry {
	entries := make([]LineupEntry, len(items))
	for i, item := range items {
		entries[i] = LineupEntry{
			ID:           item.ID,
			Name:         item.Name,
			Image:        item.Image,
			DisplayOrder: item.DisplayOrder,
			IsFeatured:   item.IsFeatured,
			IsActive:     item.IsActive,
		}
	}
	return entries
}

// GetCategoryDisplayOrder returns a category's lineup. Limit 0 means all.
func (s *Service) GetCategoryDisplayOrder(ctx context.Context, categoryID int64, limit int) ([]LineupEntry, error) {
	if _, err := s.store.GetCategory(ctx, categoryID); err != nil {
		return nil, err
	}
	items, err := s.store.ListCategoryDisplayOrder(ctx, categoryID, limit)
	if err != nil {
		return nil, err
	}
	return itemsToLineup(items), nil
}

// AddServiceToCategory appends one service to the lineup, enforcing the
// per-category cap and rejecting duplicates.
func (s *Service) AddServiceToCategory(ctx context.Context, categoryID, serviceID int64) (LineupEntry, error) {
	if _, err := s.store.GetCategory(ctx, categoryID); err != nil {
		return LineupEntry{}, err
	}
	current, err := s.store.ListCategoryDisplayOrder(ctx, categoryID, 0)
	if err != nil {
		return LineupEntry{}, err
	}
	if len(current) >= s.cfg.DisplayOrderMax {
		return LineupEntry{}, domainError(http.StatusUnprocessableEntity, "LIMIT_EXCEEDED",
			fmt.Sprintf("at most %d services per category", s.cfg.DisplayOrderMax), nil)
	}
	item, err := s.store.AddCategoryService(ctx, categoryID, serviceID)
	if err != nil {
		if err == store.ErrAlreadyListed {
			return LineupEntry{}, domainError(http.StatusConflict, "DUPLICATE_ENTRY", "Service already in display order", nil)
		}
		return LineupEntry{}, err
	}
	entries := itemsToLineup([]store.DisplayItem{item})
	return entries[0], nil
}

func (s *Service) RemoveServiceFromCategory(ctx context.Context, categoryID, serviceID int64) error {
	return s.store.RemoveCategoryService(ctx, categoryID, serviceID)
}

// ReorderCategoryServices replaces the category's whole lineup. The order
// stored is the order given; display orders are rewritten 1..N.
func (s *Service) ReorderCategoryServices(ctx context.Context, categoryID int64, entries []LineupEntry) ([]LineupEntry, error) {
	if _, err := s.store.GetCategory(ctx, categoryID); err != nil {
		return nil, err
	}
	if err := validateLineup(entries, s.cfg.DisplayOrderMax); err != nil {
		return nil, err
	}
	if err := s.store.ReplaceCategoryDisplayOrder(ctx, categoryID, lineupToItems(entries)); err != nil {
		return nil, err
	}
	items, err := s.store.ListCategoryDisplayOrder(ctx, categoryID, 0)
	if err != nil {
		return nil, err
	}
	return itemsToLineup(items), nil
}

// AvailableServicesForCategory returns addition candidates for a category
// lineup. With a search query the search service handles matching and the
// present entries are excluded; otherwise the database lists directly.
func (s *Service) AvailableServicesForCategory(ctx context.Context, categoryID int64, query string, limit int) ([]store.ListedEntity, error) {
	if limit <= 0 {
		limit = 50
	}
	if query == "" {
		return s.store.ListAvailableServices(ctx, categoryID, "", limit)
	}
	current, err := s.store.ListCategoryDisplayOrder(ctx, categoryID, 0)
	if err != nil {
		return nil, err
	}
	exclude := make([]int64, len(current))
	for i, item := range current {
		exclude[i] = item.ID
	}
	resp := s.search.Search(search.Query{
		Text:       query,
		Kind:       search.KindService,
		ExcludeIDs: exclude,
		Limit:      limit,
	})
	return resultsToEntities(resp.Results), nil
}

func resultsToEntities(results []search.Result) []store.ListedEntity {
	entities := make([]store.ListedEntity, len(results))
	for i, r := range results {
		entities[i] = store.ListedEntity{ID: r.ID, Name: r.Name, Image: r.Image}
	}
	return entities
}

// GetHomepageSlot returns one homepage slot's lineup.
func (s *Service) GetHomepageSlot(ctx context.Context, slot string) ([]LineupEntry, error) {
	items, err := s.store.ListHomepageSlot(ctx, slot)
	if err != nil {
		return nil, err
	}
	return itemsToLineup(items), nil
}

// PutHomepageSlot replaces one homepage slot's lineup in full.
func (s *Service) PutHomepageSlot(ctx context.Context, slot string, entries []LineupEntry) ([]LineupEntry, error) {
	if err := validateLineup(entries, s.cfg.DisplayOrderMax); err != nil {
		return nil, err
	}
	if err := s.store.ReplaceHomepageSlot(ctx, slot, lineupToItems(entries)); err != nil {
		return nil, err
	}
	return s.GetHomepageSlot(ctx, slot)
}

// AvailableForSlot lists candidates that are not yet placed in the slot.
func (s *Service) AvailableForSlot(ctx context.Context, slot, query string, limit int) ([]store.ListedEntity, error) {
	if limit <= 0 {
		limit = 50
	}
	if query == "" {
		return s.store.ListAvailableForSlot(ctx, slot, "", limit)
	}
	current, err := s.store.ListHomepageSlot(ctx, slot)
	if err != nil {
		return nil, err
	}
	exclude := make([]int64, len(current))
	for i, item := range current {
		exclude[i] = item.ID
	}
	kind := search.KindService
	switch slot {
	case store.SlotVideos:
		kind = search.KindVideo
	case store.SlotCurations:
		kind = search.KindCuration
	}
	resp := s.search.Search(search.Query{
		Text:       query,
		Kind:       kind,
		ExcludeIDs: exclude,
		Limit:      limit,
	})
	return resultsToEntities(resp.Results), nil
}

func (s *Service) GetTrendSections(ctx context.Context) ([]store.TrendSection, error) {
	return s.store.ListTrendSections(ctx)
}

// PutTrendSections replaces the trend section list wholesale. Sections
// omitted from the payload are deleted along with their lineups.
func (s *Service) PutTrendSections(ctx context.Context, sections []store.TrendSection) ([]store.TrendSection, error) {
	seen := make(map[int64]struct{}, len(sections))
	for _, section := range sections {
		if section.Title == "" {
			return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "section title is required", nil)
		}
		if section.ID != 0 {
			if _, ok := seen[section.ID]; ok {
				return nil, domainError(http.StatusConflict, "DUPLICATE_ENTRY",
					fmt.Sprintf("section %d appears more than once", section.ID), nil)
			}
			seen[section.ID] = struct{}{}
		}
	}
	return s.store.ReplaceTrendSections(ctx, sections)
}

func (s *Service) DeleteTrendSection(ctx context.Context, id int64) error {
	return s.store.DeleteTrendSection(ctx, id)
}

func (s *Service) GetTrendSectionServices(ctx context.Context, sectionID int64) ([]LineupEntry, error) {
	items, err := s.store.ListTrendSectionServices(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	return itemsToLineup(items), nil
}

// PutTrendSectionServices replaces a trend section's lineup, optionally
// repointing it at another category.
func (s *Service) PutTrendSectionServices(ctx context.Context, sectionID int64, entries []LineupEntry, categoryID *int64) ([]LineupEntry, error) {
	if err := validateLineup(entries, s.cfg.DisplayOrderMax); err != nil {
		return nil, err
	}
	if err := s.store.ReplaceTrendSectionServices(ctx, sectionID, lineupToItems(entries), categoryID); err != nil {
		return nil, err
	}
	return s.GetTrendSectionServices(ctx, sectionID)
}

func (s *Service) AvailableForTrendSection(ctx context.Context, sectionID int64, query string, limit int) ([]store.ListedEntity, error) {
	if limit <= 0 {
		limit = 50
	}
	if query == "" {
		return s.store.ListAvailableForTrendSection(ctx, sectionID, "", limit)
	}
	current, err := s.store.ListTrendSectionServices(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	exclude := make([]int64, len(current))
	for i, item := range current {
		exclude[i] = item.ID
	}
	resp := s.search.Search(search.Query{
		Text:       query,
		Kind:       search.KindService,
		ExcludeIDs: exclude,
		Limit:      limit,
	})
	return resultsToEntities(resp.Results), nil
}

func (s *Service) ListCategories(ctx context.Context) ([]store.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *Service) ListMainCategories(ctx context.Context) ([]store.Category, error) {
	return s.store.ListMainCategories(ctx)
}

func (s *Service) CreateCategory(ctx context.Context, c store.Category) (store.Category, error) {
	if c.Name == "" || c.Slug == "" {
		return store.Category{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name and slug are required", nil)
	}
	return s.store.CreateCategory(ctx, c)
}

func (s *Service) UpdateCategory(ctx context.Context, c store.Category) error {
	if c.Name == "" || c.Slug == "" {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name and slug are required", nil)
	}
	return s.store.UpdateCategory(ctx, c)
}

func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	return s.store.DeleteCategory(ctx, id)
}

func (s *Service) ReorderCategories(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "category_ids is required", nil)
	}
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return domainError(http.StatusConflict, "DUPLICATE_ENTRY",
				fmt.Sprintf("category %d appears more than once", id), nil)
		}
		seen[id] = struct{}{}
	}
	return s.store.ReorderCategories(ctx, ids)
}

func (s *Service) ListServices(ctx context.Context, query string, limit, offset int) ([]store.AIService, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.ListServices(ctx, query, limit, offset)
}

// AdminSearchServices backs the curation editor's service picker.
func (s *Service) AdminSearchServices(ctx context.Context, query string, limit int) ([]search.Result, error) {
	if limit <= 0 {
		limit = 20
	}
	resp := s.search.Search(search.Query{
		Text:  query,
		Kind:  search.KindService,
		Limit: limit,
	})
	return resp.Results, nil
}

func (s *Service) CreateService(ctx context.Context, svc store.AIService) (store.AIService, error) {
	if svc.Name == "" || svc.Slug == "" || svc.CategoryID == 0 {
		return store.AIService{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR",
			"name, slug and category_id are required", nil)
	}
	created, err := s.store.CreateService(ctx, svc)
	if err != nil {
		return store.AIService{}, err
	}
	s.search.IndexService(search.ServiceRecord{
		ID: created.ID, Name: created.Name, Summary: created.Summary,
		LogoURL: created.LogoURL, CategoryID: created.CategoryID, IsActive: created.IsActive,
	})
	return created, nil
}

func (s *Service) UpdateService(ctx context.Context, svc store.AIService) error {
	if err := s.store.UpdateService(ctx, svc); err != nil {
		return err
	}
	s.search.IndexService(search.ServiceRecord{
		ID: svc.ID, Name: svc.Name, Summary: svc.Summary,
		LogoURL: svc.LogoURL, CategoryID: svc.CategoryID, IsActive: svc.IsActive,
	})
	return nil
}

func (s *Service) DeleteService(ctx context.Context, id int64) error {
	if err := s.store.DeleteService(ctx, id); err != nil {
		return err
	}
	s.search.DeleteService(id)
	return nil
}

func (s *Service) ListVideos(ctx context.Context) ([]store.AIVideo, error) {
	return s.store.ListVideos(ctx)
}

func (s *Service) CreateVideo(ctx context.Context, v store.AIVideo) (store.AIVideo, error) {
	if v.Title == "" || v.VideoURL == "" {
		return store.AIVideo{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR",
			"title and video_url are required", nil)
	}
	created, err := s.store.CreateVideo(ctx, v)
	if err != nil {
		return store.AIVideo{}, err
	}
	s.search.IndexVideo(search.VideoRecord{
		ID: created.ID, Title: created.Title, ThumbnailURL: created.ThumbnailURL, IsActive: created.IsActive,
	})
	return created, nil
}

func (s *Service) DeleteVideo(ctx context.Context, id int64) error {
	return s.store.DeleteVideo(ctx, id)
}

func (s *Service) ListCurations(ctx context.Context) ([]store.Curation, error) {
	return s.store.ListCurations(ctx)
}

func (s *Service) CreateCuration(ctx context.Context, c store.Curation) (store.Curation, error) {
	if c.Title == "" {
		return store.Curation{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title is required", nil)
	}
	created, err := s.store.CreateCuration(ctx, c)
	if err != nil {
		return store.Curation{}, err
	}
	s.search.IndexCuration(search.CurationRecord{
		ID: created.ID, Title: created.Title, Subtitle: created.Subtitle,
		CoverImage: created.CoverImage, IsActive: created.IsActive,
	})
	return created, nil
}

func (s *Service) GetCurationServices(ctx context.Context, curationID int64) ([]store.ListedEntity, error) {
	return s.store.ListCurationServices(ctx, curationID)
}

func (s *Service) PutCurationServices(ctx context.Context, curationID int64, serviceIDs []int64) ([]store.ListedEntity, error) {
	seen := make(map[int64]struct{}, len(serviceIDs))
	for _, id := range serviceIDs {
		if _, ok := seen[id]; ok {
			return nil, domainError(http.StatusConflict, "DUPLICATE_ENTRY",
				fmt.Sprintf("service %d appears more than once", id), nil)
		}
		seen[id] = struct{}{}
	}
	if err := s.store.ReplaceCurationServices(ctx, curationID, serviceIDs); err != nil {
		return nil, err
	}
	return s.store.ListCurationServices(ctx, curationID)
}

func (s *Service) ListUsers(ctx context.Context, query string, limit, offset int) ([]store.User, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.ListUsers(ctx, query, limit, offset)
}

func (s *Service) ListTags(ctx context.Context) ([]store.Tag, error) {
	return s.store.ListTags(ctx)
}

func (s *Service) CreateTag(ctx context.Context, t store.Tag) (store.Tag, error) {
	if t.Name == "" || t.Slug == "" {
		return store.Tag{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name and slug are required", nil)
	}
	return s.store.CreateTag(ctx, t)
}

func (s *Service) DeleteTag(ctx context.Context, id int64) error {
	return s.store.DeleteTag(ctx, id)
}

func (s *Service) ListTagItems(ctx context.Context, tagID int64) ([]store.ListedEntity, error) {
	return s.store.ListTagItems(ctx, tagID)
}

func (s *Service) AttachTagItem(ctx context.Context, tagID, serviceID int64) error {
	return s.store.AttachTagItem(ctx, tagID, serviceID)
}

func (s *Service) DetachTagItem(ctx context.Context, tagID, serviceID int64) error {
	return s.store.DetachTagItem(ctx, tagID, serviceID)
}

func (s *Service) GetSiteSettings(ctx context.Context) (store.SiteSettings, error) {
	return s.store.GetSiteSettings(ctx)
}

func (s *Service) UpdateSiteSettings(ctx context.Context, settings store.SiteSettings) error {
	if settings.SiteName == "" {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "site_name is required", nil)
	}
	return s.store.UpdateSiteSettings(ctx, settings)
}

var allowedInquiryStatus = map[string]struct{}{
	"pending":  {},
	"answered": {},
	"closed":   {},
}

func (s *Service) ListInquiries(ctx context.Context, status string, limit, offset int) ([]store.Inquiry, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.ListInquiries(ctx, status, limit, offset)
}

func (s *Service) SubmitInquiry(ctx context.Context, q store.Inquiry) (store.Inquiry, error) {
	if q.Name == "" || q.Email == "" || q.Message == "" {
		return store.Inquiry{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR",
			"name, email and message are required", nil)
	}
	return s.store.CreateInquiry(ctx, q)
}

func (s *Service) UpdateInquiryStatus(ctx context.Context, id int64, status string) error {
	if _, ok := allowedInquiryStatus[status]; !ok {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "unknown status", nil)
	}
	return s.store.UpdateInquiryStatus(ctx, id, status)
}

func (s *Service) ListAdPartnerships(ctx context.Context, status string, limit, offset int) ([]store.AdPartnership, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.ListAdPartnerships(ctx, status, limit, offset)
}

func (s *Service) SubmitAdPartnership(ctx context.Context, p store.AdPartnership) (store.AdPartnership, error) {
	if p.CompanyName == "" || p.Email == "" || p.Message == "" {
		return store.AdPartnership{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR",
			"company_name, email and message are required", nil)
	}
	return s.store.CreateAdPartnership(ctx, p)
}

func (s *Service) UpdateAdPartnershipStatus(ctx context.Context, id int64, status string) error {
	if _, ok := allowedInquiryStatus[status]; !ok {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "unknown status", nil)
	}
	return s.store.UpdateAdPartnershipStatus(ctx, id, status)
}

func (s *Service) DashboardStats(ctx context.Context) (store.DashboardStats, error) {
	return s.store.GetDashboardStats(ctx)
}

var defaultTrendTitles = []string{"Weekly Rising", "Editor's Choice", "New on StepAI"}

// SetupCategoryDisplayOrder seeds empty category lineups from each
// category's own active services.
func (s *Service) SetupCategoryDisplayOrder(ctx context.Context) (int64, error) {
	return s.store.SeedCategoryDisplayOrder(ctx, s.cfg.DisplayOrderMax)
}

// SetupHomepageSettings creates the default trend sections when none exist.
func (s *Service) SetupHomepageSettings(ctx context.Context) (int64, error) {
	return s.store.SeedHomepageSettings(ctx, defaultTrendTitles)
}
