package store

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

func migrationsDir() string {
	return filepath.Join("..", "..", "db", "migrations")
}

func TestMigrationsHaveMatchingUpAndDownFiles(t *testing.T) {
	entries, err := os.ReadDir(migrationsDir())
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}

	pattern := regexp.MustCompile(`^(\d{4})_[a-z0-9_]+\.(up|down)\.sql$`)
	byVersion := map[string]map[string]bool{}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		match := pattern.FindStringSubmatch(name)
		if match == nil {
			t.Fatalf("migration file %q does not follow NNNN_name.up.sql / .down.sql", name)
		}
		version, direction := match[1], match[2]
		if byVersion[version] == nil {
			byVersion[version] = map[string]bool{}
		}
		if byVersion[version][direction] {
			t.Fatalf("duplicate %s migration for version %s", direction, version)
		}
		byVersion[version][direction] = true
	}

	if len(byVersion) == 0 {
		t.Fatal("no migrations discovered")
	}
	for version, dirs := range byVersion {
		if !dirs["up"] || !dirs["down"] {
			t.Fatalf("version %s must have both up and down files", version)
		}
	}
}

func TestListUpMigrationsOrdersByVersion(t *testing.T) {
	files, err := listUpMigrations(migrationsDir())
	if err != nil {
		t.Fatalf("list migrations: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("no up migrations discovered")
	}
	for i := 1; i < len(files); i++ {
		if files[i].version <= files[i-1].version {
			t.Fatalf("migrations out of order: %s after %s", files[i].version, files[i-1].version)
		}
	}
}

func TestMigrationsAreNonEmptyAndIdempotentStyle(t *testing.T) {
	files, err := listUpMigrations(migrationsDir())
	if err != nil {
		t.Fatalf("list migrations: %v", err)
	}
	for _, m := range files {
		contents, err := os.ReadFile(m.path)
		if err != nil {
			t.Fatalf("read %s: %v", m.path, err)
		}
		text := strings.TrimSpace(string(contents))
		if text == "" {
			t.Errorf("migration %s is empty", m.version)
		}
		if strings.Contains(text, "CREATE TABLE ") && !strings.Contains(text, "CREATE TABLE IF NOT EXISTS") {
			t.Errorf("migration %s creates tables without IF NOT EXISTS", m.version)
		}
	}
}
