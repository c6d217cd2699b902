package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"iromo/internal/modules/collection/adapter/out"
	"iromo/internal/modules/collection/service"
	"iromo/internal/platform/config"
	apperrors "iromo/internal/platform/errors"

	_ "modernc.org/sqlite"
)

func openCollection(t *testing.T, path string) (*service.Service, config.Config) {
	t.Helper()
	cfg, err := config.New(path)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	return service.NewService(out.Migrations(), nil), cfg
}

func TestOpenCreatesLayoutAndSchema(t *testing.T) {
	t.Parallel()
	root := filepath.Join(t.TempDir(), "col")
	svc, cfg := openCollection(t, root)

	collection, err := svc.Open(context.Background(), cfg, true)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = collection.Close() }()

	if _, err := os.Stat(cfg.ManifestPath); err != nil {
		t.Fatalf("manifest missing: %v", err)
	}
	if info, err := os.Stat(cfg.BodiesPath); err != nil || !info.IsDir() {
		t.Fatalf("bodies dir missing: %v", err)
	}

	for _, table := range []string{"topics", "extractions", "schema_migrations"} {
		var name string
		err := collection.DB.QueryRow(
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Fatalf("table %s not created: %v", table, err)
		}
	}

	var versions int
	if err := collection.DB.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&versions); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if versions != 2 {
		t.Fatalf("expected 2 recorded migrations, got %d", versions)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	t.Parallel()
	root := filepath.Join(t.TempDir(), "col")
	svc, cfg := openCollection(t, root)

	first, err := svc.Open(context.Background(), cfg, true)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if _, err := first.DB.Exec(
		`INSERT INTO topics (id, title, text_file_uuid, created_at, updated_at) VALUES ('a', 'A', 'a.txt', '2024-01-01', '2024-01-01')`); err != nil {
		t.Fatalf("seed topic: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := svc.Open(context.Background(), cfg, false)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer func() { _ = second.Close() }()

	var count int
	if err := second.DB.QueryRow(`SELECT COUNT(*) FROM topics`).Scan(&count); err != nil {
		t.Fatalf("count topics: %v", err)
	}
	if count != 1 {
		t.Fatalf("reopen should preserve data, got %d topics", count)
	}
}

func TestOpenRejectsDirectoryWithoutManifest(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	svc, cfg := openCollection(t, root)

	_, err := svc.Open(context.Background(), cfg, false)
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOpenRejectsForeignManifest(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	svc, cfg := openCollection(t, root)
	if err := os.WriteFile(cfg.ManifestPath, []byte(`{"type":"something_else","version":"1.0"}`), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	_, err := svc.Open(context.Background(), cfg, false)
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestInitOnExistingCollectionKeepsManifest(t *testing.T) {
	t.Parallel()
	root := filepath.Join(t.TempDir(), "col")
	svc, cfg := openCollection(t, root)

	first, err := svc.Open(context.Background(), cfg, true)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	_ = first.Close()
	before, err := os.ReadFile(cfg.ManifestPath)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}

	second, err := svc.Open(context.Background(), cfg, true)
	if err != nil {
		t.Fatalf("re-init open: %v", err)
	}
	_ = second.Close()
	after, err := os.ReadFile(cfg.ManifestPath)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if string(before) != string(after) {
		t.Fatalf("re-init must not rewrite the manifest")
	}
}
