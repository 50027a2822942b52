package memory

import (
	"context"

	"github.com/docktree/docktree/internal/domain"
)

// The repository views share one Store so that a transaction snapshot covers
// every aggregate at once.

func (s *Store) Nodes() domain.NodeRepository           { return &nodeRepository{s: s} }
func (s *Store) Contents() domain.ContentRepository     { return &contentRepository{s: s} }
func (s *Store) Favorites() domain.FavoriteRepository   { return &favoriteRepository{s: s} }
func (s *Store) Visits() domain.VisitRepository         { return &visitRepository{s: s} }
func (s *Store) Workspaces() domain.WorkspaceRepository { return &workspaceRepository{s: s} }

type nodeRepository struct{ s *Store }

func (r *nodeRepository) Insert(ctx context.Context, node *domain.Node) error {
	return r.s.Insert(ctx, node)
}

func (r *nodeRepository) Update(ctx context.Context, node *domain.Node) error {
	return r.s.Update(ctx, node)
}

func (r *nodeRepository) GetByID(ctx context.Context, id string) (*domain.Node, error) {
	return r.s.GetByID(ctx, id)
}

func (r *nodeRepository) GetByPathHash(ctx context.Context, pathHash string) (*domain.Node, error) {
	return r.s.GetByPathHash(ctx, pathHash)
}

func (r *nodeRepository) ListChildren(ctx context.Context, parentPathHash string) ([]*domain.Node, error) {
	return r.s.ListChildren(ctx, parentPathHash)
}

type contentRepository struct{ s *Store }

func (r *contentRepository) Exists(ctx context.Context, hash string) (bool, error) {
	return r.s.Exists(ctx, hash)
}

func (r *contentRepository) Insert(ctx context.Context, content *domain.Content) error {
	return r.s.InsertContent(ctx, content)
}

func (r *contentRepository) Get(ctx context.Context, hash string) (*domain.Content, error) {
	return r.s.GetContent(ctx, hash)
}

func (r *contentRepository) InsertHistory(ctx context.Context, entry *domain.ContentHistoryEntry) error {
	return r.s.InsertHistory(ctx, entry)
}

func (r *contentRepository) ListHistory(ctx context.Context, ownerID string) ([]*domain.ContentHistoryEntry, error) {
	return r.s.ListHistory(ctx, ownerID)
}

type favoriteRepository struct{ s *Store }

func (r *favoriteRepository) Upsert(ctx context.Context, favorite *domain.Favorite) error {
	return r.s.UpsertFavorite(ctx, favorite)
}

func (r *favoriteRepository) Delete(ctx context.Context, userID, nodeID string) error {
	return r.s.DeleteFavorite(ctx, userID, nodeID)
}

func (r *favoriteRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Node, error) {
	return r.s.ListFavoritesByUser(ctx, userID)
}

type visitRepository struct{ s *Store }

func (r *visitRepository) Upsert(ctx context.Context, visit *domain.VisitActivity) error {
	return r.s.UpsertVisit(ctx, visit)
}

func (r *visitRepository) ListRecentlyVisited(ctx context.Context, userID string, limit int) ([]*domain.Node, error) {
	return r.s.ListRecentlyVisited(ctx, userID, limit)
}

type workspaceRepository struct{ s *Store }

func (r *workspaceRepository) GetByAlias(ctx context.Context, alias string) (*domain.Workspace, error) {
	return r.s.GetByAlias(ctx, alias)
}

func (r *workspaceRepository) ListByMember(ctx context.Context, userID string) ([]*domain.Workspace, error) {
	return r.s.ListByMember(ctx, userID)
}
