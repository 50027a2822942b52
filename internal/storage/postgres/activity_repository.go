package postgres

import (
	"context"
	"fmt"

	"github.com/docktree/docktree/internal/domain"
)

type FavoriteRepository struct {
	tx *TxManager
}

func NewFavoriteRepository(tx *TxManager) domain.FavoriteRepository {
	return &FavoriteRepository{tx: tx}
}

func (r *FavoriteRepository) Upsert(ctx context.Context, favorite *domain.Favorite) error {
	// Favoriting an already-favorited node keeps the original created_at.
	query := `
		INSERT INTO favorite (user_id, node_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, node_id) DO NOTHING
	`

	_, err := r.tx.querier(ctx).Exec(ctx, query, favorite.UserID, favorite.NodeID, favorite.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert favorite: %w", err)
	}

	return nil
}

func (r *FavoriteRepository) Delete(ctx context.Context, userID, nodeID string) error {
	query := `DELETE FROM favorite WHERE user_id = $1 AND node_id = $2`

	if _, err := r.tx.querier(ctx).Exec(ctx, query, userID, nodeID); err != nil {
		return fmt.Errorf("failed to delete favorite: %w", err)
	}

	return nil
}

func (r *FavoriteRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Node, error) {
	query := `
		SELECT ` + nodeColumns + `
		FROM favorite f
		JOIN node ON node.id = f.node_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC
	`

	rows, err := r.tx.querier(ctx).Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()

	var nodes []*domain.Node
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan favorite node: %w", err)
		}
		nodes = append(nodes, node)
	}

	return nodes, rows.Err()
}

type VisitRepository struct {
	tx *TxManager
}

func NewVisitRepository(tx *TxManager) domain.VisitRepository {
	return &VisitRepository{tx: tx}
}

func (r *VisitRepository) Upsert(ctx context.Context, visit *domain.VisitActivity) error {
	// GREATEST keeps the timestamp non-decreasing when workers apply visits
	// out of order.
	query := `
		INSERT INTO visit_activity (user_id, node_id, last_visited_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, node_id)
		DO UPDATE SET last_visited_at = GREATEST(visit_activity.last_visited_at, EXCLUDED.last_visited_at)
	`

	_, err := r.tx.querier(ctx).Exec(ctx, query, visit.UserID, visit.NodeID, visit.LastVisitedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert visit: %w", err)
	}

	return nil
}

func (r *VisitRepository) ListRecentlyVisited(ctx context.Context, userID string, limit int) ([]*domain.Node, error) {
	query := `
		SELECT ` + nodeColumns + `
		FROM visit_activity v
		JOIN node ON node.id = v.node_id
		WHERE v.user_id = $1
		ORDER BY v.last_visited_at DESC
		LIMIT $2
	`

	rows, err := r.tx.querier(ctx).Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recently visited: %w", err)
	}
	defer rows.Close()

	var nodes []*domain.Node
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan visited node: %w", err)
		}
		nodes = append(nodes, node)
	}

	return nodes, rows.Err()
}
