package storage

import (
	"context"
	"errors"
	"testing"
)

func TestDocumentRepo_GetBySource_NotFound(t *testing.T) {
	repo := NewDocumentRepo(newTestDB(t))

	_, err := repo.GetBySource(context.Background(), "missing.txt")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetBySource() error = %v, want ErrNotFound", err)
	}
}

func TestDocumentRepo_Upsert(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepo(newTestDB(t))

	doc := createTestDocument(t, repo, "Curriculo.txt")
	if doc.ID == "" {
		t.Fatal("Upsert() did not assign an ID")
	}

	got, err := repo.GetBySource(ctx, "Curriculo.txt")
	if err != nil {
		t.Fatalf("GetBySource() error = %v", err)
	}
	if got.Hash != "hash-Curriculo.txt" || got.Chars != 500 {
		t.Errorf("GetBySource() = %+v", got)
	}
	if got.IngestedAt.IsZero() {
		t.Error("IngestedAt not set")
	}

	update := &DocumentRecord{SourceName: "Curriculo.txt", SourcePath: "/new/Curriculo.txt", Hash: "changed", Chars: 42}
	if err := repo.Upsert(ctx, update); err != nil {
		t.Fatalf("Upsert() update error = %v", err)
	}
	if update.ID != doc.ID {
		t.Errorf("Upsert() changed ID from %s to %s", doc.ID, update.ID)
	}

	got, err = repo.GetBySource(ctx, "Curriculo.txt")
	if err != nil {
		t.Fatalf("GetBySource() error = %v", err)
	}
	if got.Hash != "changed" || got.SourcePath != "/new/Curriculo.txt" || got.Chars != 42 {
		t.Errorf("GetBySource() after update = %+v", got)
	}
}

func TestDocumentRepo_ListAllAndDelete(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewDocumentRepo(db)
	chunks := NewChunkRepo(db)

	b := createTestDocument(t, repo, "b.md")
	createTestDocument(t, repo, "a.md")

	if err := chunks.InsertBatch(ctx, []ChunkRecord{{ID: "c1", DocumentID: b.ID, SourceName: "b.md", Text: "x"}}); err != nil {
		t.Fatalf("InsertBatch() error = %v", err)
	}

	docs, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(docs) != 2 || docs[0].SourceName != "a.md" || docs[1].SourceName != "b.md" {
		t.Fatalf("ListAll() = %+v", docs)
	}

	if err := repo.Delete(ctx, b.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	n, err := chunks.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 0 {
		t.Errorf("chunks left after document delete = %d, want 0", n)
	}

	if err := repo.DeleteAll(ctx); err != nil {
		t.Fatalf("DeleteAll() error = %v", err)
	}
	docs, err = repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("ListAll() after DeleteAll = %d docs", len(docs))
	}
}
