package managers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docktree/docktree/internal/cache"
	"github.com/docktree/docktree/internal/domain"
	"github.com/docktree/docktree/internal/storage/memory"
)

func newWorkspaceFixture(workspaceCache domain.WorkspaceCache) (domain.WorkspaceManager, *memory.Store) {
	store := memory.NewStore()
	store.AddWorkspace(&domain.Workspace{
		ID:        "ws1",
		Alias:     "acme",
		Name:      "Acme Inc",
		MemberIDs: []string{"u1", "u2"},
	})
	store.AddWorkspace(&domain.Workspace{
		ID:        "ws2",
		Alias:     "globex",
		Name:      "Globex",
		MemberIDs: []string{"u2"},
	})

	manager := NewWorkspaceManager(WorkspaceManagerDependencies{
		WorkspaceRepository: store.Workspaces(),
		Cache:               workspaceCache,
	})

	return manager, store
}

func TestWorkspaceManager_GetByAlias(t *testing.T) {
	manager, _ := newWorkspaceFixture(nil)

	workspace, err := manager.GetByAlias(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme Inc", workspace.Name)

	_, err = manager.GetByAlias(context.Background(), "ghost")
	require.ErrorIs(t, err, domain.ErrWorkspaceNotFound)
}

func TestWorkspaceManager_GetByAliasFillsCache(t *testing.T) {
	workspaceCache := cache.NewMemoryWorkspaceCache(time.Minute)
	manager, _ := newWorkspaceFixture(workspaceCache)

	_, ok := workspaceCache.Get(context.Background(), "acme")
	require.False(t, ok)

	workspace, err := manager.GetByAlias(context.Background(), "acme")
	require.NoError(t, err)

	cached, ok := workspaceCache.Get(context.Background(), "acme")
	require.True(t, ok)
	assert.Equal(t, workspace.ID, cached.ID)
	assert.Equal(t, workspace.MemberIDs, cached.MemberIDs)
}

func TestWorkspaceManager_ListForUser(t *testing.T) {
	manager, _ := newWorkspaceFixture(nil)

	workspaces, err := manager.ListForUser(context.Background(), "u2")
	require.NoError(t, err)
	require.Len(t, workspaces, 2)
	assert.Equal(t, "acme", workspaces[0].Alias)
	assert.Equal(t, "globex", workspaces[1].Alias)

	workspaces, err = manager.ListForUser(context.Background(), "u9")
	require.NoError(t, err)
	assert.Empty(t, workspaces)
}

func TestWorkspaceManager_Authorize(t *testing.T) {
	manager, _ := newWorkspaceFixture(nil)
	ctx := context.Background()

	tests := []struct {
		name      string
		root      domain.RootDescriptor
		principal string
		wantErr   error
	}{
		{
			name:      "user scope owner",
			root:      domain.RootDescriptor{Scope: domain.PathScopeUser, Owner: "u1"},
			principal: "u1",
		},
		{
			name:      "user scope stranger",
			root:      domain.RootDescriptor{Scope: domain.PathScopeUser, Owner: "u1"},
			principal: "u2",
			wantErr:   domain.ErrForbidden,
		},
		{
			name:      "workspace member",
			root:      domain.RootDescriptor{Scope: domain.PathScopeWorkspace, Owner: "acme"},
			principal: "u1",
		},
		{
			name:      "workspace non-member",
			root:      domain.RootDescriptor{Scope: domain.PathScopeWorkspace, Owner: "globex"},
			principal: "u1",
			wantErr:   domain.ErrForbidden,
		},
		{
			name:      "unknown workspace",
			root:      domain.RootDescriptor{Scope: domain.PathScopeWorkspace, Owner: "ghost"},
			principal: "u1",
			wantErr:   domain.ErrWorkspaceNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := manager.Authorize(ctx, tt.root, tt.principal)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}
