package domain

import (
	"context"
	"time"
)

// Workspace is a shared namespace owning its own folder tree. Members may
// mutate nodes under the workspace root.
type Workspace struct {
	ID        string    `json:"id"`
	Alias     string    `json:"alias"`
	Name      string    `json:"name"`
	MemberIDs []string  `json:"member_ids"`
	CreatedAt time.Time `json:"created_at"`
}

func (w *Workspace) HasMember(userID string) bool {
	for _, id := range w.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

type WorkspaceRepository interface {
	GetByAlias(ctx context.Context, alias string) (*Workspace, error)
	ListByMember(ctx context.Context, userID string) ([]*Workspace, error)
}

// WorkspaceCache is an injected lookup cache for workspace records. Both
// implementations (redis, in-process) are constructed explicitly and passed
// in; a nil cache disables caching.
type WorkspaceCache interface {
	Get(ctx context.Context, alias string) (*Workspace, bool)
	Set(ctx context.Context, workspace *Workspace)
}

// WorkspaceManager resolves workspaces and decides authorization against a
// resolved root: identity equality for user scopes, membership for
// workspace scopes.
type WorkspaceManager interface {
	GetByAlias(ctx context.Context, alias string) (*Workspace, error)
	ListForUser(ctx context.Context, userID string) ([]*Workspace, error)
	Authorize(ctx context.Context, root RootDescriptor, principal string) error
}
