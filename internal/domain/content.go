package domain

import (
	"context"
	"time"
)

// Content is one deduplicated, compressed payload keyed by the digest of its
// canonical serialization. Rows are immutable and shared by reference across
// unrelated owners; there is no reference counting and no deletion.
type Content struct {
	Hash      string    `json:"hash"`
	Data      []byte    `json:"-"` // compressed bytes
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// ContentHistoryEntry records one content assignment to an owning file.
// Entries are append-only and never mutated.
type ContentHistoryEntry struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	ContentHash string    `json:"content_hash"`
	Actor       string    `json:"actor"`
	CreatedAt   time.Time `json:"created_at"`
}

// ContentRepository persists content rows. Insert is a no-op when a row for
// the hash already exists; two writers racing on the same payload both
// succeed and leave one row behind.
type ContentRepository interface {
	Exists(ctx context.Context, hash string) (bool, error)
	Insert(ctx context.Context, content *Content) error
	Get(ctx context.Context, hash string) (*Content, error)
	InsertHistory(ctx context.Context, entry *ContentHistoryEntry) error
	ListHistory(ctx context.Context, ownerID string) ([]*ContentHistoryEntry, error)
}

type PutContentParams struct {
	Payload   any
	CreatedBy string
}

// ContentManager is the content-addressable store: serialize, hash over the
// uncompressed bytes, compress, and insert exactly once per distinct payload.
type ContentManager interface {
	Put(ctx context.Context, params PutContentParams) (string, error)
	Get(ctx context.Context, hash string) ([]byte, error)
	RecordHistory(ctx context.Context, ownerID, contentHash, actor string) error
	ListHistory(ctx context.Context, ownerID string) ([]*ContentHistoryEntry, error)
}
