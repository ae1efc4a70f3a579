package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrAlreadyListed is returned when adding an entity that is already part
// of the scoped list.
var ErrAlreadyListed = errors.New("already in display order")

// ListCategoryDisplayOrder returns a category's service lineup in display
// order. A limit of 0 means no limit.
func (s *PostgresStore) ListCategoryDisplayOrder(ctx context.Context, categoryID int64, limit int) ([]DisplayItem, error) {
	query := `
		SELECT svc.id, svc.name, COALESCE(svc.logo_url, ''), cdo.display_order, cdo.is_featured, cdo.is_active
		FROM category_display_order cdo
		JOIN ai_services svc ON svc.id = cdo.service_id
		WHERE cdo.category_id = $1
		ORDER BY cdo.display_order
	`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list category display order: %w", err)
	}
	defer rows.Close()
	return scanDisplayItems(rows)
}

func scanDisplayItems(rows *sql.Rows) ([]DisplayItem, error) {
	var items []DisplayItem
	for rows.Next() {
		var item DisplayItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Image, &item.DisplayOrder, &item.IsFeatured, &item.IsActive); err != nil {
			return nil, fmt.Errorf("scan display item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// AddCategoryService appends a service at the end of a category's lineup.
func (s *PostgresStore) AddCategoryService(ctx context.Context, categoryID, serviceID int64) (DisplayItem, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return DisplayItem{}, fmt.Errorf("begin add tx: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM category_display_order WHERE category_id=$1 AND service_id=$2)
	`, categoryID, serviceID).Scan(&exists)
	if err != nil {
		return DisplayItem{}, fmt.Errorf("check listed: %w", err)
	}
	if exists {
		return DisplayItem{}, ErrAlreadyListed
	}

	var item DisplayItem
	err = tx.QueryRowContext(ctx, `
		INSERT INTO category_display_order (category_id, service_id, display_order, is_featured, is_active)
		SELECT $1, svc.id,
		       COALESCE((SELECT MAX(display_order) FROM category_display_order WHERE category_id=$1), 0) + 1,
		       FALSE, TRUE
		FROM ai_services svc WHERE svc.id = $2
		RETURNING service_id, display_order, is_featured, is_active
	`, categoryID, serviceID).Scan(&item.ID, &item.DisplayOrder, &item.IsFeatured, &item.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return DisplayItem{}, ErrNotFound
	}
	if err != nil {
		return DisplayItem{}, fmt.Errorf("insert display entry: %w", err)
	}
	if err := tx.QueryRowContext(ctx, `SELECT name FROM ai_services WHERE id=$1`, serviceID).Scan(&item.Name); err != nil {
		return DisplayItem{}, fmt.Errorf("read service name: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return DisplayItem{}, fmt.Errorf("commit add: %w", err)
	}
	return item, nil
}

// RemoveCategoryService deletes one entry and closes the gap so the
// remaining orders stay dense.
func (s *PostgresStore) RemoveCategoryService(ctx context.Context, categoryID, serviceID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin remove tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		DELETE FROM category_display_order WHERE category_id=$1 AND service_id=$2
	`, categoryID, serviceID)
	if err != nil {
		return fmt.Errorf("delete display entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if err := resequence(ctx, tx, "category_display_order", "category_id", "service_id", categoryID); err != nil {
		return err
	}
	return tx.Commit()
}

// ReplaceCategoryDisplayOrder swaps the whole lineup for a category in one
// transaction. Items are stored in slice order, first item first.
func (s *PostgresStore) ReplaceCategoryDisplayOrder(ctx context.Context, categoryID int64, items []DisplayItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM category_display_order WHERE category_id=$1`, categoryID); err != nil {
		return fmt.Errorf("clear display order: %w", err)
	}
	for i, item := range items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO category_display_order (category_id, service_id, display_order, is_featured, is_active)
			VALUES ($1, $2, $3, $4, $5)
		`, categoryID, item.ID, i+1, item.IsFeatured, item.IsActive); err != nil {
			return fmt.Errorf("insert display entry %d: %w", item.ID, err)
		}
	}
	return tx.Commit()
}

// ListAvailableServices returns active services not yet listed in the
// category's lineup, matched by name or summary.
func (s *PostgresStore) ListAvailableServices(ctx context.Context, categoryID int64, search string, limit int) ([]ListedEntity, error) {
	query := `
		SELECT svc.id, svc.name, COALESCE(svc.logo_url, '')
		FROM ai_services svc
		WHERE svc.is_active
		  AND NOT EXISTS (
			SELECT 1 FROM category_display_order cdo
			WHERE cdo.category_id = $1 AND cdo.service_id = svc.id
		  )
	`
	args := []any{categoryID}
	if search != "" {
		query += ` AND (svc.name ILIKE $2 OR svc.summary ILIKE $2)`
		args = append(args, searchPattern(search))
	}
	query += fmt.Sprintf(` ORDER BY svc.name LIMIT %d`, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list available services: %w", err)
	}
	defer rows.Close()
	return scanEntities(rows)
}

// slotSource maps a homepage slot to the table holding its entities.
func slotSource(slot string) (table, nameCol, imageCol string, err error) {
	switch slot {
	case SlotVideos:
		return "ai_videos", "title", "COALESCE(thumbnail_url, '')", nil
	case SlotCurations:
		return "curations", "title", "COALESCE(cover_image, '')", nil
	case SlotStepPick:
		return "ai_services", "name", "COALESCE(logo_url, '')", nil
	}
	return "", "", "", fmt.Errorf("unknown homepage slot %q", slot)
}

// ListHomepageSlot returns the entries of one homepage slot in display order.
func (s *PostgresStore) ListHomepageSlot(ctx context.Context, slot string) ([]DisplayItem, error) {
	table, nameCol, imageCol, err := slotSource(slot)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT e.id, e.%s, %s, hs.display_order, hs.is_featured, hs.is_active
		FROM homepage_slots hs
		JOIN %s e ON e.id = hs.entity_id
		WHERE hs.slot = $1
		ORDER BY hs.display_order
	`, nameCol, imageCol, table)
	rows, err := s.db.QueryContext(ctx, query, slot)
	if err != nil {
		return nil, fmt.Errorf("list homepage slot %s: %w", slot, err)
	}
	defer rows.Close()
	return scanDisplayItems(rows)
}

// ReplaceHomepageSlot swaps a slot's whole list in one transaction.
func (s *PostgresStore) ReplaceHomepageSlot(ctx context.Context, slot string, items []DisplayItem) error {
	if _, _, _, err := slotSource(slot); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM homepage_slots WHERE slot=$1`, slot); err != nil {
		return fmt.Errorf("clear homepage slot: %w", err)
	}
	for i, item := range items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO homepage_slots (slot, entity_id, display_order, is_featured, is_active)
			VALUES ($1, $2, $3, $4, $5)
		`, slot, item.ID, i+1, item.IsFeatured, item.IsActive); err != nil {
			return fmt.Errorf("insert slot entry %d: %w", item.ID, err)
		}
	}
	return tx.Commit()
}

// ListAvailableForSlot returns entities not yet placed in the slot.
func (s *PostgresStore) ListAvailableForSlot(ctx context.Context, slot, search string, limit int) ([]ListedEntity, error) {
	table, nameCol, imageCol, err := slotSource(slot)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT e.id, e.%s, %s
		FROM %s e
		WHERE e.is_active
		  AND NOT EXISTS (
			SELECT 1 FROM homepage_slots hs WHERE hs.slot = $1 AND hs.entity_id = e.id
		  )
	`, nameCol, imageCol, table)
	args := []any{slot}
	if search != "" {
		query += fmt.Sprintf(` AND e.%s ILIKE $2`, nameCol)
		args = append(args, searchPattern(search))
	}
	query += fmt.Sprintf(` ORDER BY e.%s LIMIT %d`, nameCol, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list available for slot %s: %w", slot, err)
	}
	defer rows.Close()
	return scanEntities(rows)
}

func (s *PostgresStore) ListTrendSections(ctx context.Context) ([]TrendSection, error) {
	const query = `
		SELECT id, title, category_id, display_order, is_active, created_at
		FROM trend_sections ORDER BY display_order, id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list trend sections: %w", err)
	}
	defer rows.Close()

	var sections []TrendSection
	for rows.Next() {
		var section TrendSection
		if err := rows.Scan(&section.ID, &section.Title, &section.CategoryID, &section.DisplayOrder, &section.IsActive, &section.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan trend section: %w", err)
		}
		sections = append(sections, section)
	}
	return sections, rows.Err()
}

// ReplaceTrendSections upserts the given sections in order and deletes any
// section not mentioned. New sections have ID 0 and are inserted.
func (s *PostgresStore) ReplaceTrendSections(ctx context.Context, sections []TrendSection) ([]TrendSection, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin replace tx: %w", err)
	}
	defer tx.Rollback()

	kept := make([]int64, 0, len(sections))
	out := make([]TrendSection, 0, len(sections))
	for i, section := range sections {
		section.DisplayOrder = i + 1
		if section.ID == 0 {
			err := tx.QueryRowContext(ctx, `
				INSERT INTO trend_sections (title, category_id, display_order, is_active)
				VALUES ($1, $2, $3, $4)
				RETURNING id, created_at
			`, section.Title, section.CategoryID, section.DisplayOrder, section.IsActive).
				Scan(&section.ID, &section.CreatedAt)
			if err != nil {
				return nil, fmt.Errorf("insert trend section: %w", err)
			}
		} else {
			res, err := tx.ExecContext(ctx, `
				UPDATE trend_sections SET title=$2, category_id=$3, display_order=$4, is_active=$5 WHERE id=$1
			`, section.ID, section.Title, section.CategoryID, section.DisplayOrder, section.IsActive)
			if err != nil {
				return nil, fmt.Errorf("update trend section %d: %w", section.ID, err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return nil, fmt.Errorf("update trend section %d: %w", section.ID, ErrNotFound)
			}
		}
		kept = append(kept, section.ID)
		out = append(out, section)
	}

	query := `DELETE FROM trend_sections`
	args := []any{}
	if len(kept) > 0 {
		query += ` WHERE NOT (id = ANY($1))`
		args = append(args, kept)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("prune trend sections: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit replace: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) DeleteTrendSection(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM trend_sections WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete trend section: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE trend_sections ts SET display_order = ranked.rn
		FROM (SELECT id, ROW_NUMBER() OVER (ORDER BY display_order) AS rn FROM trend_sections) ranked
		WHERE ts.id = ranked.id
	`); err != nil {
		return fmt.Errorf("resequence trend sections: %w", err)
	}
	return tx.Commit()
}

// ListTrendSectionServices returns a trend section's lineup in display order.
func (s *PostgresStore) ListTrendSectionServices(ctx context.Context, sectionID int64) ([]DisplayItem, error) {
	const query = `
		SELECT svc.id, svc.name, COALESCE(svc.logo_url, ''), tss.display_order, tss.is_featured, tss.is_active
		FROM trend_section_services tss
		JOIN ai_services svc ON svc.id = tss.service_id
		WHERE tss.section_id = $1
		ORDER BY tss.display_order
	`
	rows, err := s.db.QueryContext(ctx, query, sectionID)
	if err != nil {
		return nil, fmt.Errorf("list trend section services: %w", err)
	}
	defer rows.Close()
	return scanDisplayItems(rows)
}

// ReplaceTrendSectionServices swaps a trend section's lineup and optionally
// repoints the section at another category.
func (s *PostgresStore) ReplaceTrendSectionServices(ctx context.Context, sectionID int64, items []DisplayItem, categoryID *int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace tx: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM trend_sections WHERE id=$1)`, sectionID).Scan(&exists); err != nil {
		return fmt.Errorf("check trend section: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	if categoryID != nil {
		if _, err := tx.ExecContext(ctx, `UPDATE trend_sections SET category_id=$2 WHERE id=$1`, sectionID, *categoryID); err != nil {
			return fmt.Errorf("update trend section category: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM trend_section_services WHERE section_id=$1`, sectionID); err != nil {
		return fmt.Errorf("clear trend section services: %w", err)
	}
	for i, item := range items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO trend_section_services (section_id, service_id, display_order, is_featured, is_active)
			VALUES ($1, $2, $3, $4, $5)
		`, sectionID, item.ID, i+1, item.IsFeatured, item.IsActive); err != nil {
			return fmt.Errorf("insert trend entry %d: %w", item.ID, err)
		}
	}
	return tx.Commit()
}

// ListAvailableForTrendSection returns active services not yet in the
// section's lineup.
func (s *PostgresStore) ListAvailableForTrendSection(ctx context.Context, sectionID int64, search string, limit int) ([]ListedEntity, error) {
	query := `
		SELECT svc.id, svc.name, COALESCE(svc.logo_url, '')
		FROM ai_services svc
		WHERE svc.is_active
		  AND NOT EXISTS (
			SELECT 1 FROM trend_section_services tss
			WHERE tss.section_id = $1 AND tss.service_id = svc.id
		  )
	`
	args := []any{sectionID}
	if search != "" {
		query += ` AND svc.name ILIKE $2`
		args = append(args, searchPattern(search))
	}
	query += fmt.Sprintf(` ORDER BY svc.name LIMIT %d`, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list available for trend section: %w", err)
	}
	defer rows.Close()
	return scanEntities(rows)
}

// SeedCategoryDisplayOrder fills the lineup of every category that has no
// entries yet with its own active services, capped at maxPerCategory.
func (s *PostgresStore) SeedCategoryDisplayOrder(ctx context.Context, maxPerCategory int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO category_display_order (category_id, service_id, display_order, is_featured, is_active)
		SELECT c.id, ranked.id, ranked.rn, FALSE, TRUE
		FROM categories c
		JOIN LATERAL (
			SELECT svc.id, ROW_NUMBER() OVER (ORDER BY svc.name) AS rn
			FROM ai_services svc
			WHERE svc.category_id = c.id AND svc.is_active
			LIMIT $1
		) ranked ON TRUE
		WHERE NOT EXISTS (
			SELECT 1 FROM category_display_order cdo WHERE cdo.category_id = c.id
		)
	`, maxPerCategory)
	if err != nil {
		return 0, fmt.Errorf("seed category display order: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// SeedHomepageSettings creates the default trend sections when none exist.
func (s *PostgresStore) SeedHomepageSettings(ctx context.Context, titles []string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed tx: %w", err)
	}
	defer tx.Rollback()

	var count int64
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM trend_sections`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count trend sections: %w", err)
	}
	if count > 0 {
		return 0, nil
	}
	var created int64
	for i, title := range titles {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO trend_sections (title, display_order, is_active) VALUES ($1, $2, TRUE)
		`, title, i+1); err != nil {
			return 0, fmt.Errorf("seed trend section %q: %w", title, err)
		}
		created++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed: %w", err)
	}
	return created, nil
}

// resequence closes gaps in a scope's display_order after a delete.
func resequence(ctx context.Context, tx *sql.Tx, table, scopeCol, idCol string, scopeID int64) error {
	query := fmt.Sprintf(`
		UPDATE %[1]s t SET display_order = ranked.rn
		FROM (
			SELECT %[3]s AS id, ROW_NUMBER() OVER (ORDER BY display_order) AS rn
			FROM %[1]s WHERE %[2]s = $1
		) ranked
		WHERE t.%[2]s = $1 AND t.%[3]s = ranked.id
	`, table, scopeCol, idCol)
	if _, err := tx.ExecContext(ctx, query, scopeID); err != nil {
		return fmt.Errorf("resequence %s: %w", table, err)
	}
	return nil
}
