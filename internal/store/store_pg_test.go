package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// openTestDB connects to the Postgres named by STEPAI_TEST_DATABASE_URL,
// resets the public schema, and applies the migrations. Tests that need a
// real database skip when the variable is unset.
func openTestDB(t *testing.T) (*sql.DB, context.Context) {
	t.Helper()
	dsn := strings.TrimSpace(os.Getenv("STEPAI_TEST_DATABASE_URL"))
	if dsn == "" {
		t.Skip("STEPAI_TEST_DATABASE_URL is not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("ping postgres: %v", err)
	}
	if _, err := db.ExecContext(ctx, `DROP SCHEMA IF EXISTS public CASCADE; CREATE SCHEMA public;`); err != nil {
		t.Fatalf("reset schema: %v", err)
	}
	if err := ApplyMigrations(ctx, db, migrationsDir()); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return db, ctx
}

func TestMigrationsRoundTripPostgres(t *testing.T) {
	db, ctx := openTestDB(t)

	downSQL, err := os.ReadFile(filepath.Join(migrationsDir(), "0001_init.down.sql"))
	if err != nil {
		t.Fatalf("read down migration: %v", err)
	}
	if _, err := db.ExecContext(ctx, string(downSQL)); err != nil {
		t.Fatalf("apply down migration: %v", err)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM schema_migrations`); err != nil {
		t.Fatalf("clear schema_migrations: %v", err)
	}
	if err := ApplyMigrations(ctx, db, migrationsDir()); err != nil {
		t.Fatalf("re-apply up migrations: %v", err)
	}
}

// seedCategoryWithServices creates one category with n active services
// and returns the category id and service ids in creation order.
func seedCategoryWithServices(t *testing.T, ctx context.Context, s *PostgresStore, n int) (int64, []int64) {
	t.Helper()
	category, err := s.CreateCategory(ctx, Category{Name: "Coding", Slug: "coding", IsActive: true})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		svc, err := s.CreateService(ctx, AIService{
			Name:       "svc-" + string(rune('a'+i)),
			Slug:       "svc-" + string(rune('a'+i)),
			CategoryID: category.ID,
			IsActive:   true,
		})
		if err != nil {
			t.Fatalf("create service %d: %v", i, err)
		}
		ids = append(ids, svc.ID)
	}
	return category.ID, ids
}

func lineupOrders(t *testing.T, ctx context.Context, s *PostgresStore, categoryID int64) ([]int64, []int) {
	t.Helper()
	items, err := s.ListCategoryDisplayOrder(ctx, categoryID, 0)
	if err != nil {
		t.Fatalf("list lineup: %v", err)
	}
	ids := make([]int64, len(items))
	orders := make([]int, len(items))
	for i, item := range items {
		ids[i] = item.ID
		orders[i] = item.DisplayOrder
	}
	return ids, orders
}

func assertDense(t *testing.T, orders []int) {
	t.Helper()
	for i, order := range orders {
		if order != i+1 {
			t.Fatalf("display_order not dense: got %v", orders)
		}
	}
}

func TestReplaceCategoryDisplayOrderIsAtomic(t *testing.T) {
	db, ctx := openTestDB(t)
	s := NewPostgresStore(db)
	categoryID, serviceIDs := seedCategoryWithServices(t, ctx, s, 3)

	original := []DisplayItem{
		{ID: serviceIDs[0]}, {ID: serviceIDs[1]}, {ID: serviceIDs[2]},
	}
	if err := s.ReplaceCategoryDisplayOrder(ctx, categoryID, original); err != nil {
		t.Fatalf("initial replace: %v", err)
	}

	// A replacement containing an unknown service id violates the foreign
	// key mid-insert; the whole transaction must roll back.
	bad := []DisplayItem{
		{ID: serviceIDs[2]}, {ID: 999999}, {ID: serviceIDs[0]},
	}
	if err := s.ReplaceCategoryDisplayOrder(ctx, categoryID, bad); err == nil {
		t.Fatal("expected replace with unknown service to fail")
	}

	ids, orders := lineupOrders(t, ctx, s, categoryID)
	if len(ids) != 3 {
		t.Fatalf("lineup length %d after failed replace, want 3", len(ids))
	}
	for i, id := range ids {
		if id != serviceIDs[i] {
			t.Fatalf("lineup changed after failed replace: got %v, want %v", ids, serviceIDs)
		}
	}
	assertDense(t, orders)

	// A valid replacement stores exactly the order given.
	reordered := []DisplayItem{
		{ID: serviceIDs[2]}, {ID: serviceIDs[0]}, {ID: serviceIDs[1]},
	}
	if err := s.ReplaceCategoryDisplayOrder(ctx, categoryID, reordered); err != nil {
		t.Fatalf("replace: %v", err)
	}
	ids, orders = lineupOrders(t, ctx, s, categoryID)
	want := []int64{serviceIDs[2], serviceIDs[0], serviceIDs[1]}
	for i, id := range ids {
		if id != want[i] {
			t.Fatalf("stored order %v, want %v", ids, want)
		}
	}
	assertDense(t, orders)
}

func TestRemoveCategoryServiceKeepsOrderDense(t *testing.T) {
	db, ctx := openTestDB(t)
	s := NewPostgresStore(db)
	categoryID, serviceIDs := seedCategoryWithServices(t, ctx, s, 4)

	lineup := make([]DisplayItem, len(serviceIDs))
	for i, id := range serviceIDs {
		lineup[i] = DisplayItem{ID: id}
	}
	if err := s.ReplaceCategoryDisplayOrder(ctx, categoryID, lineup); err != nil {
		t.Fatalf("replace: %v", err)
	}

	// Remove from the middle; the gap must close.
	if err := s.RemoveCategoryService(ctx, categoryID, serviceIDs[1]); err != nil {
		t.Fatalf("remove: %v", err)
	}
	ids, orders := lineupOrders(t, ctx, s, categoryID)
	want := []int64{serviceIDs[0], serviceIDs[2], serviceIDs[3]}
	for i, id := range ids {
		if id != want[i] {
			t.Fatalf("lineup after remove %v, want %v", ids, want)
		}
	}
	assertDense(t, orders)

	if err := s.RemoveCategoryService(ctx, categoryID, serviceIDs[1]); !errors.Is(err, ErrNotFound) {
		t.Fatalf("removing absent service: got %v, want ErrNotFound", err)
	}
}

func TestAddCategoryServiceAppendsAndRejectsDuplicates(t *testing.T) {
	db, ctx := openTestDB(t)
	s := NewPostgresStore(db)
	categoryID, serviceIDs := seedCategoryWithServices(t, ctx, s, 3)

	for i, id := range serviceIDs {
		item, err := s.AddCategoryService(ctx, categoryID, id)
		if err != nil {
			t.Fatalf("add %d: %v", id, err)
		}
		if item.DisplayOrder != i+1 {
			t.Fatalf("add %d: display_order %d, want %d", id, item.DisplayOrder, i+1)
		}
	}

	if _, err := s.AddCategoryService(ctx, categoryID, serviceIDs[0]); !errors.Is(err, ErrAlreadyListed) {
		t.Fatalf("duplicate add: got %v, want ErrAlreadyListed", err)
	}
	if _, err := s.AddCategoryService(ctx, categoryID, 999999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown service add: got %v, want ErrNotFound", err)
	}

	_, orders := lineupOrders(t, ctx, s, categoryID)
	assertDense(t, orders)
}
