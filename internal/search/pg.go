package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PG is the Postgres fallback searcher, used whenever Meilisearch is
// unreachable. Plain ILIKE matching, no ranking.
type PG struct {
	db *sql.DB
}

func NewPG(db *sql.DB) *PG {
	return &PG{db: db}
}

// Healthy reports whether the database answers.
func (p *PG) Healthy() bool {
	return p.db.Ping() == nil
}

// Search runs an ILIKE query per requested kind and merges the results.
func (p *PG) Search(q Query) ([]Result, int, error) {
	limit := q.Limit
	if limit == 0 {
		limit = 20
	}

	var results []Result
	if q.Kind == "" || q.Kind == KindService {
		found, err := p.searchServices(q, limit)
		if err != nil {
			return nil, 0, err
		}
		results = append(results, found...)
	}
	if q.Kind == "" || q.Kind == KindVideo {
		found, err := p.searchSimple(q, limit, idxVideos)
		if err != nil {
			return nil, 0, err
		}
		results = append(results, found...)
	}
	if q.Kind == "" || q.Kind == KindCuration {
		found, err := p.searchSimple(q, limit, idxCurations)
		if err != nil {
			return nil, 0, err
		}
		results = append(results, found...)
	}
	return results, len(results), nil
}

func (p *PG) searchServices(q Query, limit int) ([]Result, error) {
	query := `
		SELECT id, name, COALESCE(summary, ''), COALESCE(logo_url, ''), category_id
		FROM ai_services
		WHERE is_active
	`
	args := []any{}
	n := 1
	if q.Text != "" {
		query += fmt.Sprintf(` AND (name ILIKE $%d OR summary ILIKE $%d)`, n, n)
		args = append(args, "%"+strings.TrimSpace(q.Text)+"%")
		n++
	}
	if q.CategoryID != 0 {
		query += fmt.Sprintf(` AND category_id = $%d`, n)
		args = append(args, q.CategoryID)
		n++
	}
	if len(q.ExcludeIDs) > 0 {
		query += fmt.Sprintf(` AND NOT (id = ANY($%d))`, n)
		args = append(args, q.ExcludeIDs)
	}
	query += fmt.Sprintf(` ORDER BY name LIMIT %d OFFSET %d`, limit, q.Offset)

	rows, err := p.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("pg search services: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		r := Result{Kind: KindService}
		if err := rows.Scan(&r.ID, &r.Name, &r.Snippet, &r.Image, &r.CategoryID); err != nil {
			return nil, fmt.Errorf("pg scan service: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (p *PG) searchSimple(q Query, limit int, index string) ([]Result, error) {
	var table, imageCol string
	var kind Kind
	switch index {
	case idxVideos:
		table, imageCol, kind = "ai_videos", "COALESCE(thumbnail_url, '')", KindVideo
	case idxCurations:
		table, imageCol, kind = "curations", "COALESCE(cover_image, '')", KindCuration
	default:
		return nil, fmt.Errorf("pg search: unknown index %s", index)
	}

	query := fmt.Sprintf(`SELECT id, title, %s FROM %s WHERE is_active`, imageCol, table)
	args := []any{}
	n := 1
	if q.Text != "" {
		query += fmt.Sprintf(` AND title ILIKE $%d`, n)
		args = append(args, "%"+strings.TrimSpace(q.Text)+"%")
		n++
	}
	if len(q.ExcludeIDs) > 0 {
		query += fmt.Sprintf(` AND NOT (id = ANY($%d))`, n)
		args = append(args, q.ExcludeIDs)
	}
	query += fmt.Sprintf(` ORDER BY title LIMIT %d OFFSET %d`, limit, q.Offset)

	rows, err := p.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("pg search %s: %w", table, err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		r := Result{Kind: kind}
		if err := rows.Scan(&r.ID, &r.Name, &r.Image); err != nil {
			return nil, fmt.Errorf("pg scan %s: %w", table, err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// LoadAllRecords reads every active entity for bulk reindexing.
func (p *PG) LoadAllRecords(ctx context.Context) ([]ServiceRecord, []VideoRecord, []CurationRecord, error) {
	services, err := p.loadServiceRecords(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	videos, err := p.loadVideoRecords(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	curations, err := p.loadCurationRecords(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	return services, videos, curations, nil
}

func (p *PG) loadServiceRecords(ctx context.Context) ([]ServiceRecord, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(summary, ''), COALESCE(logo_url, ''), category_id, is_active
		FROM ai_services
	`)
	if err != nil {
		return nil, fmt.Errorf("load service records: %w", err)
	}
	defer rows.Close()

	var records []ServiceRecord
	for rows.Next() {
		var rec ServiceRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Summary, &rec.LogoURL, &rec.CategoryID, &rec.IsActive); err != nil {
			return nil, fmt.Errorf("scan service record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (p *PG) loadVideoRecords(ctx context.Context) ([]VideoRecord, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, title, COALESCE(thumbnail_url, ''), is_active FROM ai_videos
	`)
	if err != nil {
		return nil, fmt.Errorf("load video records: %w", err)
	}
	defer rows.Close()

	var records []VideoRecord
	for rows.Next() {
		var rec VideoRecord
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.ThumbnailURL, &rec.IsActive); err != nil {
			return nil, fmt.Errorf("scan video record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (p *PG) loadCurationRecords(ctx context.Context) ([]CurationRecord, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, title, COALESCE(subtitle, ''), COALESCE(cover_image, ''), is_active FROM curations
	`)
	if err != nil {
		return nil, fmt.Errorf("load curation records: %w", err)
	}
	defer rows.Close()

	var records []CurationRecord
	for rows.Next() {
		var rec CurationRecord
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.Subtitle, &rec.CoverImage, &rec.IsActive); err != nil {
			return nil, fmt.Errorf("scan curation record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
