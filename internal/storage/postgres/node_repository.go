package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/docktree/docktree/internal/domain"
)

const nodeColumns = `id, name, slug, path, path_hash, parent_path_hash, kind, content_hash, created_by, created_at, updated_by, updated_at`

type NodeRepository struct {
	tx *TxManager
}

func NewNodeRepository(tx *TxManager) domain.NodeRepository {
	return &NodeRepository{tx: tx}
}

func (r *NodeRepository) Insert(ctx context.Context, node *domain.Node) error {
	query := `
		INSERT INTO node (` + nodeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.tx.querier(ctx).Exec(ctx, query,
		node.ID,
		node.Name,
		node.Slug,
		node.Path,
		node.PathHash,
		node.ParentPathHash,
		node.Kind,
		nullableText(node.ContentHash),
		node.CreatedBy,
		node.CreatedAt,
		node.UpdatedBy,
		node.UpdatedAt,
	)
	if err != nil {
		return mapNodeInsertError(err, node.Path)
	}

	return nil
}

func (r *NodeRepository) Update(ctx context.Context, node *domain.Node) error {
	query := `
		UPDATE node
		SET name = $2, slug = $3, path = $4, path_hash = $5, parent_path_hash = $6,
		    content_hash = $7, updated_by = $8, updated_at = $9
		WHERE id = $1
	`

	tag, err := r.tx.querier(ctx).Exec(ctx, query,
		node.ID,
		node.Name,
		node.Slug,
		node.Path,
		node.PathHash,
		node.ParentPathHash,
		nullableText(node.ContentHash),
		node.UpdatedBy,
		node.UpdatedAt,
	)
	if err != nil {
		return mapNodeInsertError(err, node.Path)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, node.ID)
	}

	return nil
}

func (r *NodeRepository) GetByID(ctx context.Context, id string) (*domain.Node, error) {
	query := `SELECT ` + nodeColumns + ` FROM node WHERE id = $1`

	node, err := scanNode(r.tx.querier(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
		}
		return nil, fmt.Errorf("failed to get node by id: %w", err)
	}

	return node, nil
}

func (r *NodeRepository) GetByPathHash(ctx context.Context, pathHash string) (*domain.Node, error) {
	query := `SELECT ` + nodeColumns + ` FROM node WHERE path_hash = $1`

	node, err := scanNode(r.tx.querier(ctx).QueryRow(ctx, query, pathHash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: hash %s", domain.ErrNodeNotFound, pathHash)
		}
		return nil, fmt.Errorf("failed to get node by path hash: %w", err)
	}

	return node, nil
}

func (r *NodeRepository) ListChildren(ctx context.Context, parentPathHash string) ([]*domain.Node, error) {
	if parentPathHash == "" {
		return nil, nil
	}

	query := `SELECT ` + nodeColumns + ` FROM node WHERE parent_path_hash = $1 ORDER BY id`

	rows, err := r.tx.querier(ctx).Query(ctx, query, parentPathHash)
	if err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}
	defer rows.Close()

	var children []*domain.Node
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan child node: %w", err)
		}
		children = append(children, node)
	}

	return children, rows.Err()
}

func scanNode(row pgx.Row) (*domain.Node, error) {
	var node domain.Node
	var contentHash sql.NullString

	err := row.Scan(
		&node.ID,
		&node.Name,
		&node.Slug,
		&node.Path,
		&node.PathHash,
		&node.ParentPathHash,
		&node.Kind,
		&contentHash,
		&node.CreatedBy,
		&node.CreatedAt,
		&node.UpdatedBy,
		&node.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	node.ContentHash = contentHash.String
	return &node, nil
}

func nullableText(s string) any {
	if s == "" {
		return nil
	}
	return s
}
