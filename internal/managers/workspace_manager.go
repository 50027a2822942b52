package managers

import (
	"context"
	"fmt"

	"github.com/docktree/docktree/internal/domain"
)

type workspaceManager struct {
	workspaces domain.WorkspaceRepository
	cache      domain.WorkspaceCache
}

type WorkspaceManagerDependencies struct {
	WorkspaceRepository domain.WorkspaceRepository
	Cache               domain.WorkspaceCache // optional
}

func NewWorkspaceManager(deps WorkspaceManagerDependencies) domain.WorkspaceManager {
	return &workspaceManager{
		workspaces: deps.WorkspaceRepository,
		cache:      deps.Cache,
	}
}

func (m *workspaceManager) GetByAlias(ctx context.Context, alias string) (*domain.Workspace, error) {
	if m.cache != nil {
		if workspace, ok := m.cache.Get(ctx, alias); ok {
			return workspace, nil
		}
	}

	workspace, err := m.workspaces.GetByAlias(ctx, alias)
	if err != nil {
		return nil, err
	}

	if m.cache != nil {
		m.cache.Set(ctx, workspace)
	}

	return workspace, nil
}

func (m *workspaceManager) ListForUser(ctx context.Context, userID string) ([]*domain.Workspace, error) {
	return m.workspaces.ListByMember(ctx, userID)
}

// Authorize decides whether a principal may mutate under a root. User scopes
// degenerate to identity equality with the path's user segment; workspace
// scopes require membership.
func (m *workspaceManager) Authorize(ctx context.Context, root domain.RootDescriptor, principal string) error {
	switch root.Scope {
	case domain.PathScopeUser:
		if root.Owner != principal {
			return fmt.Errorf("%w: %s is not %s", domain.ErrForbidden, principal, root.Owner)
		}
		return nil
	case domain.PathScopeWorkspace:
		workspace, err := m.GetByAlias(ctx, root.Owner)
		if err != nil {
			return err
		}
		if !workspace.HasMember(principal) {
			return fmt.Errorf("%w: %s is not a member of %s", domain.ErrForbidden, principal, root.Owner)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown scope %q", domain.ErrInvalidPath, root.Scope)
	}
}
