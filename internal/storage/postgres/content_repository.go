package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/docktree/docktree/internal/domain"
)

type ContentRepository struct {
	tx *TxManager
}

func NewContentRepository(tx *TxManager) domain.ContentRepository {
	return &ContentRepository{tx: tx}
}

func (r *ContentRepository) Exists(ctx context.Context, hash string) (bool, error) {
	var exists bool

	query := `SELECT EXISTS (SELECT 1 FROM content WHERE hash = $1)`
	if err := r.tx.querier(ctx).QueryRow(ctx, query, hash).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check content existence: %w", err)
	}

	return exists, nil
}

func (r *ContentRepository) Insert(ctx context.Context, content *domain.Content) error {
	// Two writers racing on the same payload both succeed; the row is
	// identical either way.
	query := `
		INSERT INTO content (hash, data, created_by, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (hash) DO NOTHING
	`

	_, err := r.tx.querier(ctx).Exec(ctx, query,
		content.Hash,
		content.Data,
		content.CreatedBy,
		content.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert content: %w", err)
	}

	return nil
}

func (r *ContentRepository) Get(ctx context.Context, hash string) (*domain.Content, error) {
	query := `SELECT hash, data, created_by, created_at FROM content WHERE hash = $1`

	var content domain.Content
	err := r.tx.querier(ctx).QueryRow(ctx, query, hash).Scan(
		&content.Hash,
		&content.Data,
		&content.CreatedBy,
		&content.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrContentNotFound, hash)
		}
		return nil, fmt.Errorf("failed to get content: %w", err)
	}

	return &content, nil
}

func (r *ContentRepository) InsertHistory(ctx context.Context, entry *domain.ContentHistoryEntry) error {
	query := `
		INSERT INTO content_history (id, owner_id, content_hash, actor, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.tx.querier(ctx).Exec(ctx, query,
		entry.ID,
		entry.OwnerID,
		entry.ContentHash,
		entry.Actor,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert content history: %w", err)
	}

	return nil
}

func (r *ContentRepository) ListHistory(ctx context.Context, ownerID string) ([]*domain.ContentHistoryEntry, error) {
	query := `
		SELECT id, owner_id, content_hash, actor, created_at
		FROM content_history
		WHERE owner_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.tx.querier(ctx).Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list content history: %w", err)
	}
	defer rows.Close()

	var entries []*domain.ContentHistoryEntry
	for rows.Next() {
		var entry domain.ContentHistoryEntry
		err := rows.Scan(&entry.ID, &entry.OwnerID, &entry.ContentHash, &entry.Actor, &entry.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan content history entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
