package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

func createTestDocument(t *testing.T, repo *DocumentRepo, source string) *DocumentRecord {
	t.Helper()
	doc := &DocumentRecord{SourceName: source, SourcePath: "/uploads/" + source, Hash: "hash-" + source, Chars: 500}
	if err := repo.Upsert(context.Background(), doc); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	return doc
}
