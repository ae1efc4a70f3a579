package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrNotFound = errors.New("not found")

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	const query = `
		SELECT id, email, name, COALESCE(password_hash, ''), user_type, is_active, last_login_at, created_at
		FROM users WHERE email = $1
	`
	var user User
	err := s.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.Name, &user.PasswordHash,
		&user.UserType, &user.IsActive, &user.LastLoginAt, &user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("lookup user by email: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID int64) (User, error) {
	const query = `
		SELECT id, email, name, COALESCE(password_hash, ''), user_type, is_active, last_login_at, created_at
		FROM users WHERE id = $1
	`
	var user User
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&user.ID, &user.Email, &user.Name, &user.PasswordHash,
		&user.UserType, &user.IsActive, &user.LastLoginAt, &user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) UpdateUserPassword(ctx context.Context, userID int64, passwordHash string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash=$2 WHERE id=$1`, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) TouchUserLogin(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET last_login_at=NOW() WHERE id=$1`, userID)
	if err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListUsers(ctx context.Context, search string, limit, offset int) ([]User, error) {
	query := `
		SELECT id, email, name, '', user_type, is_active, last_login_at, created_at
		FROM users
	`
	args := []any{}
	if search != "" {
		query += ` WHERE email ILIKE $1 OR name ILIKE $1`
		args = append(args, "%"+search+"%")
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash,
			&user.UserType, &user.IsActive, &user.LastLoginAt, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *PostgresStore) ListCategories(ctx context.Context) ([]Category, error) {
	const query = `
		SELECT id, name, slug, COALESCE(icon, ''), display_order, is_main, is_active, created_at
		FROM categories ORDER BY display_order, id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Icon, &c.DisplayOrder, &c.IsMain, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *PostgresStore) ListMainCategories(ctx context.Context) ([]Category, error) {
	const query = `
		SELECT id, name, slug, COALESCE(icon, ''), display_order, is_main, is_active, created_at
		FROM categories WHERE is_main AND is_active ORDER BY display_order, id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list main categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Icon, &c.DisplayOrder, &c.IsMain, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *PostgresStore) GetCategory(ctx context.Context, id int64) (Category, error) {
	const query = `
		SELECT id, name, slug, COALESCE(icon, ''), display_order, is_main, is_active, created_at
		FROM categories WHERE id = $1
	`
	var c Category
	err := s.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.Slug, &c.Icon, &c.DisplayOrder, &c.IsMain, &c.IsActive, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Category{}, ErrNotFound
	}
	if err != nil {
		return Category{}, fmt.Errorf("lookup category: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) CreateCategory(ctx context.Context, c Category) (Category, error) {
	const query = `
		INSERT INTO categories (name, slug, icon, display_order, is_main, is_active)
		VALUES ($1, $2, $3, COALESCE((SELECT MAX(display_order) FROM categories), 0) + 1, $4, $5)
		RETURNING id, display_order, created_at
	`
	err := s.db.QueryRowContext(ctx, query, c.Name, c.Slug, c.Icon, c.IsMain, c.IsActive).
		Scan(&c.ID, &c.DisplayOrder, &c.CreatedAt)
	if err != nil {
		return Category{}, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) UpdateCategory(ctx context.Context, c Category) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE categories SET name=$2, slug=$3, icon=$4, is_main=$5, is_active=$6 WHERE id=$1
	`, c.ID, c.Name, c.Slug, c.Icon, c.IsMain, c.IsActive)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteCategory(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ReorderCategories rewrites the display order of all categories from the
// given id sequence, first id first.
func (s *PostgresStore) ReorderCategories(ctx context.Context, ids []int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reorder tx: %w", err)
	}
	defer tx.Rollback()

	for i, id := range ids {
		res, err := tx.ExecContext(ctx, `UPDATE categories SET display_order=$2 WHERE id=$1`, id, i+1)
		if err != nil {
			return fmt.Errorf("reorder category %d: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("reorder category %d: %w", id, ErrNotFound)
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) ListServices(ctx context.Context, search string, limit, offset int) ([]AIService, error) {
	query := `
		SELECT id, name, slug, COALESCE(summary, ''), COALESCE(logo_url, ''), COALESCE(site_url, ''),
		       category_id, COALESCE(pricing_type, ''), is_active, created_at, updated_at
		FROM ai_services
	`
	args := []any{}
	if search != "" {
		query += ` WHERE name ILIKE $1 OR summary ILIKE $1`
		args = append(args, "%"+search+"%")
	}
	query += fmt.Sprintf(` ORDER BY name LIMIT %d OFFSET %d`, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()
	return scanServices(rows)
}

func scanServices(rows *sql.Rows) ([]AIService, error) {
	var services []AIService
	for rows.Next() {
		var svc AIService
		if err := rows.Scan(&svc.ID, &svc.Name, &svc.Slug, &svc.Summary, &svc.LogoURL, &svc.SiteURL,
			&svc.CategoryID, &svc.PricingType, &svc.IsActive, &svc.CreatedAt, &svc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		services = append(services, svc)
	}
	return services, rows.Err()
}

func (s *PostgresStore) GetService(ctx context.Context, id int64) (AIService, error) {
	const query = `
		SELECT id, name, slug, COALESCE(summary, ''), COALESCE(logo_url, ''), COALESCE(site_url, ''),
		       category_id, COALESCE(pricing_type, ''), is_active, created_at, updated_at
		FROM ai_services WHERE id = $1
	`
	var svc AIService
	err := s.db.QueryRowContext(ctx, query, id).Scan(&svc.ID, &svc.Name, &svc.Slug, &svc.Summary,
		&svc.LogoURL, &svc.SiteURL, &svc.CategoryID, &svc.PricingType, &svc.IsActive, &svc.CreatedAt, &svc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return AIService{}, ErrNotFound
	}
	if err != nil {
		return AIService{}, fmt.Errorf("lookup service: %w", err)
	}
	return svc, nil
}

func (s *PostgresStore) CreateService(ctx context.Context, svc AIService) (AIService, error) {
	const query = `
		INSERT INTO ai_services (name, slug, summary, logo_url, site_url, category_id, pricing_type, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	err := s.db.QueryRowContext(ctx, query, svc.Name, svc.Slug, svc.Summary, svc.LogoURL, svc.SiteURL,
		svc.CategoryID, svc.PricingType, svc.IsActive).Scan(&svc.ID, &svc.CreatedAt, &svc.UpdatedAt)
	if err != nil {
		return AIService{}, fmt.Errorf("insert service: %w", err)
	}
	return svc, nil
}

func (s *PostgresStore) UpdateService(ctx context.Context, svc AIService) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE ai_services
		SET name=$2, slug=$3, summary=$4, logo_url=$5, site_url=$6, category_id=$7, pricing_type=$8, is_active=$9, updated_at=NOW()
		WHERE id=$1
	`, svc.ID, svc.Name, svc.Slug, svc.Summary, svc.LogoURL, svc.SiteURL, svc.CategoryID, svc.PricingType, svc.IsActive)
	if err != nil {
		return fmt.Errorf("update service: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteService(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM ai_services WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete service: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListVideos(ctx context.Context) ([]AIVideo, error) {
	const query = `
		SELECT id, title, COALESCE(thumbnail_url, ''), video_url, is_active, created_at
		FROM ai_videos ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	var videos []AIVideo
	for rows.Next() {
		var v AIVideo
		if err := rows.Scan(&v.ID, &v.Title, &v.ThumbnailURL, &v.VideoURL, &v.IsActive, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

func (s *PostgresStore) CreateVideo(ctx context.Context, v AIVideo) (AIVideo, error) {
	const query = `
		INSERT INTO ai_videos (title, thumbnail_url, video_url, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := s.db.QueryRowContext(ctx, query, v.Title, v.ThumbnailURL, v.VideoURL, v.IsActive).Scan(&v.ID, &v.CreatedAt)
	if err != nil {
		return AIVideo{}, fmt.Errorf("insert video: %w", err)
	}
	return v, nil
}

func (s *PostgresStore) DeleteVideo(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM ai_videos WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListCurations(ctx context.Context) ([]Curation, error) {
	const query = `
		SELECT id, title, COALESCE(subtitle, ''), COALESCE(cover_image, ''), is_active, created_at
		FROM curations ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list curations: %w", err)
	}
	defer rows.Close()

	var curations []Curation
	for rows.Next() {
		var c Curation
		if err := rows.Scan(&c.ID, &c.Title, &c.Subtitle, &c.CoverImage, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan curation: %w", err)
		}
		curations = append(curations, c)
	}
	return curations, rows.Err()
}

func (s *PostgresStore) CreateCuration(ctx context.Context, c Curation) (Curation, error) {
	const query = `
		INSERT INTO curations (title, subtitle, cover_image, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := s.db.QueryRowContext(ctx, query, c.Title, c.Subtitle, c.CoverImage, c.IsActive).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return Curation{}, fmt.Errorf("insert curation: %w", err)
	}
	return c, nil
}

// ListCurationServices returns the services attached to a curation in
// display order.
func (s *PostgresStore) ListCurationServices(ctx context.Context, curationID int64) ([]ListedEntity, error) {
	const query = `
		SELECT svc.id, svc.name, COALESCE(svc.logo_url, '')
		FROM curation_services cs
		JOIN ai_services svc ON svc.id = cs.service_id
		WHERE cs.curation_id = $1
		ORDER BY cs.display_order
	`
	rows, err := s.db.QueryContext(ctx, query, curationID)
	if err != nil {
		return nil, fmt.Errorf("list curation services: %w", err)
	}
	defer rows.Close()
	return scanEntities(rows)
}

// ReplaceCurationServices swaps a curation's service list in one transaction.
func (s *PostgresStore) ReplaceCurationServices(ctx context.Context, curationID int64, serviceIDs []int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace tx: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM curations WHERE id=$1)`, curationID).Scan(&exists); err != nil {
		return fmt.Errorf("check curation: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM curation_services WHERE curation_id=$1`, curationID); err != nil {
		return fmt.Errorf("clear curation services: %w", err)
	}
	for i, serviceID := range serviceIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO curation_services (curation_id, service_id, display_order) VALUES ($1, $2, $3)
		`, curationID, serviceID, i+1); err != nil {
			return fmt.Errorf("insert curation service %d: %w", serviceID, err)
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) ListTags(ctx context.Context) ([]Tag, error) {
	const query = `
		SELECT t.id, t.name, t.slug, COUNT(ti.service_id), t.created_at
		FROM tags t
		LEFT JOIN tag_items ti ON ti.tag_id = t.id
		GROUP BY t.id
		ORDER BY t.name
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.ItemCount, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (s *PostgresStore) CreateTag(ctx context.Context, t Tag) (Tag, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO tags (name, slug) VALUES ($1, $2) RETURNING id, created_at
	`, t.Name, t.Slug).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return Tag{}, fmt.Errorf("insert tag: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) DeleteTag(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tags WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) AttachTagItem(ctx context.Context, tagID, serviceID int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tag_items (tag_id, service_id) VALUES ($1, $2)
		ON CONFLICT (tag_id, service_id) DO NOTHING
	`, tagID, serviceID)
	if err != nil {
		return fmt.Errorf("attach tag item: %w", err)
	}
	return nil
}

func (s *PostgresStore) DetachTagItem(ctx context.Context, tagID, serviceID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM tag_items WHERE tag_id=$1 AND service_id=$2`, tagID, serviceID)
	if err != nil {
		return fmt.Errorf("detach tag item: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListTagItems(ctx context.Context, tagID int64) ([]ListedEntity, error) {
	const query = `
		SELECT svc.id, svc.name, COALESCE(svc.logo_url, '')
		FROM tag_items ti
		JOIN ai_services svc ON svc.id = ti.service_id
		WHERE ti.tag_id = $1
		ORDER BY svc.name
	`
	rows, err := s.db.QueryContext(ctx, query, tagID)
	if err != nil {
		return nil, fmt.Errorf("list tag items: %w", err)
	}
	defer rows.Close()
	return scanEntities(rows)
}

func scanEntities(rows *sql.Rows) ([]ListedEntity, error) {
	var entities []ListedEntity
	for rows.Next() {
		var e ListedEntity
		if err := rows.Scan(&e.ID, &e.Name, &e.Image); err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

// GetSiteSettings reads the single jsonb settings row, returning zero-value
// settings when none has been written yet.
func (s *PostgresStore) GetSiteSettings(ctx context.Context) (SiteSettings, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM site_settings WHERE id = 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return SiteSettings{}, nil
	}
	if err != nil {
		return SiteSettings{}, fmt.Errorf("read site settings: %w", err)
	}
	var settings SiteSettings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return SiteSettings{}, fmt.Errorf("decode site settings: %w", err)
	}
	return settings, nil
}

func (s *PostgresStore) UpdateSiteSettings(ctx context.Context, settings SiteSettings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode site settings: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO site_settings (id, data, updated_at) VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data, updated_at=NOW()
	`, raw)
	if err != nil {
		return fmt.Errorf("write site settings: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListInquiries(ctx context.Context, status string, limit, offset int) ([]Inquiry, error) {
	query := `
		SELECT id, name, email, subject, message, status, created_at
		FROM inquiries
	`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list inquiries: %w", err)
	}
	defer rows.Close()

	var inquiries []Inquiry
	for rows.Next() {
		var q Inquiry
		if err := rows.Scan(&q.ID, &q.Name, &q.Email, &q.Subject, &q.Message, &q.Status, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan inquiry: %w", err)
		}
		inquiries = append(inquiries, q)
	}
	return inquiries, rows.Err()
}

func (s *PostgresStore) CreateInquiry(ctx context.Context, q Inquiry) (Inquiry, error) {
	const query = `
		INSERT INTO inquiries (name, email, subject, message, status)
		VALUES ($1, $2, $3, $4, 'pending')
		RETURNING id, status, created_at
	`
	err := s.db.QueryRowContext(ctx, query, q.Name, q.Email, q.Subject, q.Message).Scan(&q.ID, &q.Status, &q.CreatedAt)
	if err != nil {
		return Inquiry{}, fmt.Errorf("insert inquiry: %w", err)
	}
	return q, nil
}

func (s *PostgresStore) UpdateInquiryStatus(ctx context.Context, id int64, status string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE inquiries SET status=$2 WHERE id=$1`, id, status)
	if err != nil {
		return fmt.Errorf("update inquiry status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListAdPartnerships(ctx context.Context, status string, limit, offset int) ([]AdPartnership, error) {
	query := `
		SELECT id, company_name, contact_name, email, COALESCE(phone, ''), message, status, created_at
		FROM ad_partnerships
	`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ad partnerships: %w", err)
	}
	defer rows.Close()

	var partnerships []AdPartnership
	for rows.Next() {
		var p AdPartnership
		if err := rows.Scan(&p.ID, &p.CompanyName, &p.ContactName, &p.Email, &p.Phone, &p.Message, &p.Status, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ad partnership: %w", err)
		}
		partnerships = append(partnerships, p)
	}
	return partnerships, rows.Err()
}

func (s *PostgresStore) CreateAdPartnership(ctx context.Context, p AdPartnership) (AdPartnership, error) {
	const query = `
		INSERT INTO ad_partnerships (company_name, contact_name, email, phone, message, status)
		VALUES ($1, $2, $3, $4, $5, 'pending')
		RETURNING id, status, created_at
	`
	err := s.db.QueryRowContext(ctx, query, p.CompanyName, p.ContactName, p.Email, p.Phone, p.Message).
		Scan(&p.ID, &p.Status, &p.CreatedAt)
	if err != nil {
		return AdPartnership{}, fmt.Errorf("insert ad partnership: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) UpdateAdPartnershipStatus(ctx context.Context, id int64, status string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE ad_partnerships SET status=$2 WHERE id=$1`, id, status)
	if err != nil {
		return fmt.Errorf("update ad partnership status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) GetDashboardStats(ctx context.Context) (DashboardStats, error) {
	const query = `
		SELECT
			(SELECT COUNT(*) FROM ai_services),
			(SELECT COUNT(*) FROM ai_services WHERE is_active),
			(SELECT COUNT(*) FROM categories),
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM ai_videos),
			(SELECT COUNT(*) FROM curations),
			(SELECT COUNT(*) FROM inquiries),
			(SELECT COUNT(*) FROM inquiries WHERE status = 'pending')
	`
	var stats DashboardStats
	err := s.db.QueryRowContext(ctx, query).Scan(
		&stats.TotalServices, &stats.ActiveServices, &stats.TotalCategories, &stats.TotalUsers,
		&stats.TotalVideos, &stats.TotalCurations, &stats.TotalInquiries, &stats.PendingInquiries,
	)
	if err != nil {
		return DashboardStats{}, fmt.Errorf("dashboard stats: %w", err)
	}
	return stats, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// searchPattern turns a raw user query into an ILIKE pattern.
func searchPattern(query string) string {
	return "%" + strings.TrimSpace(query) + "%"
}
