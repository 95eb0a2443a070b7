package storage

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{
			name: "valid path",
			path: filepath.Join(t.TempDir(), "catalog.db"),
		},
		{
			name:    "missing directory",
			path:    "/nonexistent/uploads/catalog.db",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := New(tt.path)
			if tt.wantErr {
				if err == nil {
					_ = db.Close()
					t.Fatal("New() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() unexpected error: %v", err)
			}
			defer func() {
				_ = db.Close()
			}()

			if got := db.Stats().MaxOpenConnections; got != 25 {
				t.Errorf("MaxOpenConnections = %v, want 25", got)
			}
			var fkEnabled int
			if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled); err != nil {
				t.Fatalf("PRAGMA foreign_keys: %v", err)
			}
			if fkEnabled != 1 {
				t.Error("New() should enable foreign keys")
			}
		})
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t)

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() second run error = %v", err)
	}

	objects := []struct{ kind, name string }{
		{"table", "documents"},
		{"table", "chunks"},
		{"index", "idx_chunks_document"},
	}
	for _, obj := range objects {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type=? AND name=?", obj.kind, obj.name).Scan(&count)
		if err != nil {
			t.Fatalf("lookup %s %s: %v", obj.kind, obj.name, err)
		}
		if count != 1 {
			t.Errorf("Migrate() %s %s count = %d, want 1", obj.kind, obj.name, count)
		}
	}
}

func TestMigrate_DocumentColumns(t *testing.T) {
	db := newTestDB(t)

	rows, err := db.Query("SELECT name FROM pragma_table_info('documents')")
	if err != nil {
		t.Fatalf("table_info: %v", err)
	}
	defer rows.Close()

	got := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatal(err)
		}
		got[name] = true
	}
	for _, col := range []string{"id", "source_name", "source_path", "hash", "chars", "ingested_at"} {
		if !got[col] {
			t.Errorf("documents table missing column %s", col)
		}
	}
}

func TestMigrate_SourceNameIsUnique(t *testing.T) {
	db := newTestDB(t)

	insert := "INSERT INTO documents (id, source_name, source_path, hash, chars) VALUES (?, ?, ?, ?, ?)"
	if _, err := db.Exec(insert, "d1", "Curriculo.txt", "/uploads/Curriculo.txt", "h1", 900); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	_, err := db.Exec(insert, "d2", "Curriculo.txt", "/uploads/Curriculo.txt", "h2", 950)
	if err == nil {
		t.Fatal("expected UNIQUE violation for a second row with the same source_name")
	}
	if !strings.Contains(err.Error(), "UNIQUE") {
		t.Errorf("error = %v, want UNIQUE constraint failure", err)
	}
}

func TestMigrate_ChunksIndexedByDocument(t *testing.T) {
	db := newTestDB(t)

	var sql string
	if err := db.QueryRow("SELECT sql FROM sqlite_master WHERE type='index' AND name='idx_chunks_document'").Scan(&sql); err != nil {
		t.Fatalf("index lookup: %v", err)
	}
	if !strings.Contains(sql, "chunks(document_id)") {
		t.Errorf("idx_chunks_document = %q, want it on chunks(document_id)", sql)
	}
}

func TestMigrate_DeletingDocumentDeletesChunks(t *testing.T) {
	db := newTestDB(t)

	if _, err := db.Exec("INSERT INTO documents (id, source_name, source_path, hash, chars) VALUES ('d1', 'projects.md', '/uploads/projects.md', 'h', 300)"); err != nil {
		t.Fatal(err)
	}
	for i, text := range []string{"first chunk", "second chunk"} {
		if _, err := db.Exec("INSERT INTO chunks (id, document_id, chunk_index, source_name, text) VALUES (?, 'd1', ?, 'projects.md', ?)",
			"c"+string(rune('0'+i)), i, text); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := db.Exec("DELETE FROM documents WHERE id = 'd1'"); err != nil {
		t.Fatal(err)
	}
	var remaining int
	if err := db.QueryRow("SELECT COUNT(*) FROM chunks").Scan(&remaining); err != nil {
		t.Fatal(err)
	}
	if remaining != 0 {
		t.Errorf("chunks after document delete = %d, want 0", remaining)
	}
}

func TestMigrate_ChunkRequiresDocument(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Exec("INSERT INTO chunks (id, document_id, chunk_index, source_name, text) VALUES ('c1', 'missing', 0, 'x.md', 'orphan')")
	if err == nil {
		t.Error("expected foreign key failure for a chunk without a document")
	}
}
