package managers

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rs/xid"

	"github.com/docktree/docktree/internal/domain"
)

// contentManager stores each distinct payload exactly once. The hash is
// computed over the canonical serialized bytes before compression, so two
// byte-identical serializations always resolve to the same row regardless of
// who wrote it first. Unreferenced rows are never collected.
type contentManager struct {
	contents domain.ContentRepository
}

type ContentManagerDependencies struct {
	ContentRepository domain.ContentRepository
}

func NewContentManager(deps ContentManagerDependencies) domain.ContentManager {
	return &contentManager{
		contents: deps.ContentRepository,
	}
}

func (m *contentManager) Put(ctx context.Context, params domain.PutContentParams) (string, error) {
	serialized, err := json.Marshal(params.Payload)
	if err != nil {
		return "", fmt.Errorf("failed to serialize payload: %w", err)
	}

	sum := sha256.Sum256(serialized)
	hash := hex.EncodeToString(sum[:])

	exists, err := m.contents.Exists(ctx, hash)
	if err != nil {
		return "", fmt.Errorf("failed to check content existence: %w", err)
	}
	if exists {
		return hash, nil
	}

	compressed, err := compress(serialized)
	if err != nil {
		return "", fmt.Errorf("failed to compress payload: %w", err)
	}

	err = m.contents.Insert(ctx, &domain.Content{
		Hash:      hash,
		Data:      compressed,
		CreatedBy: params.CreatedBy,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to insert content: %w", err)
	}

	return hash, nil
}

func (m *contentManager) Get(ctx context.Context, hash string) ([]byte, error) {
	content, err := m.contents.Get(ctx, hash)
	if err != nil {
		return nil, err
	}

	serialized, err := decompress(content.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress content %s: %w", hash, err)
	}

	return serialized, nil
}

func (m *contentManager) RecordHistory(ctx context.Context, ownerID, contentHash, actor string) error {
	entry := &domain.ContentHistoryEntry{
		ID:          xid.New().String(),
		OwnerID:     ownerID,
		ContentHash: contentHash,
		Actor:       actor,
		CreatedAt:   time.Now().UTC(),
	}

	if err := m.contents.InsertHistory(ctx, entry); err != nil {
		return fmt.Errorf("failed to record content history: %w", err)
	}

	return nil
}

func (m *contentManager) ListHistory(ctx context.Context, ownerID string) ([]*domain.ContentHistoryEntry, error) {
	return m.contents.ListHistory(ctx, ownerID)
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return io.ReadAll(r)
}
