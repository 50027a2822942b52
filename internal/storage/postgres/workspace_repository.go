package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/docktree/docktree/internal/domain"
)

type WorkspaceRepository struct {
	tx *TxManager
}

func NewWorkspaceRepository(tx *TxManager) domain.WorkspaceRepository {
	return &WorkspaceRepository{tx: tx}
}

func (r *WorkspaceRepository) GetByAlias(ctx context.Context, alias string) (*domain.Workspace, error) {
	query := `SELECT id, alias, name, created_at FROM workspace WHERE alias = $1`

	var workspace domain.Workspace
	err := r.tx.querier(ctx).QueryRow(ctx, query, alias).Scan(
		&workspace.ID,
		&workspace.Alias,
		&workspace.Name,
		&workspace.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrWorkspaceNotFound, alias)
		}
		return nil, fmt.Errorf("failed to get workspace: %w", err)
	}

	memberQuery := `SELECT user_id FROM workspace_member WHERE workspace_id = $1 ORDER BY user_id`

	rows, err := r.tx.querier(ctx).Query(ctx, memberQuery, workspace.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspace members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan workspace member: %w", err)
		}
		workspace.MemberIDs = append(workspace.MemberIDs, userID)
	}

	return &workspace, rows.Err()
}

func (r *WorkspaceRepository) ListByMember(ctx context.Context, userID string) ([]*domain.Workspace, error) {
	query := `
		SELECT w.id, w.alias, w.name, w.created_at
		FROM workspace w
		JOIN workspace_member m ON m.workspace_id = w.id
		WHERE m.user_id = $1
		ORDER BY w.alias
	`

	rows, err := r.tx.querier(ctx).Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}
	defer rows.Close()

	var workspaces []*domain.Workspace
	for rows.Next() {
		var workspace domain.Workspace
		err := rows.Scan(&workspace.ID, &workspace.Alias, &workspace.Name, &workspace.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workspace: %w", err)
		}
		workspaces = append(workspaces, &workspace)
	}

	return workspaces, rows.Err()
}
