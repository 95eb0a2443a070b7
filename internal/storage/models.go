package storage

import "time"

// DocumentRecord is one ingested upload. SourceName is the file name shown to users as a source.
type DocumentRecord struct {
	ID         string // UUID
	SourceName string
	SourcePath string
	Hash       string // SHA256 hex string of the normalized text
	Chars      int
	IngestedAt time.Time
}

// ChunkRecord is a chunk of a document, indexed for vector search.
type ChunkRecord struct {
	ID         string // UUID (same as Qdrant point ID)
	DocumentID string
	ChunkIndex int
	SourceName string
	Text       string
}
