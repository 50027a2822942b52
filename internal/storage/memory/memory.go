// Package memory provides in-memory implementations of the storage
// interfaces. They back the manager tests and small single-process
// deployments; the postgres package is the production twin.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/docktree/docktree/internal/domain"
)

type Store struct {
	mu sync.RWMutex

	nodes       map[string]domain.Node // by id
	nodesByHash map[string]string      // path hash -> id
	contents    map[string]domain.Content
	history     []domain.ContentHistoryEntry
	favorites   map[string]domain.Favorite // userID + "\x00" + nodeID
	visits      map[string]domain.VisitActivity
	workspaces  map[string]domain.Workspace // by alias
}

func NewStore() *Store {
	return &Store{
		nodes:       make(map[string]domain.Node),
		nodesByHash: make(map[string]string),
		contents:    make(map[string]domain.Content),
		favorites:   make(map[string]domain.Favorite),
		visits:      make(map[string]domain.VisitActivity),
		workspaces:  make(map[string]domain.Workspace),
	}
}

// AddWorkspace seeds a workspace record. Workspace CRUD itself is external
// to this core, so the repository interface stays read-only.
func (s *Store) AddWorkspace(workspace *domain.Workspace) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workspaces[workspace.Alias] = *workspace
}

// ContentCount reports the number of stored content rows. Test helper.
func (s *Store) ContentCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.contents)
}

// --- TxManager ---

type snapshot struct {
	nodes       map[string]domain.Node
	nodesByHash map[string]string
	contents    map[string]domain.Content
	history     []domain.ContentHistoryEntry
	favorites   map[string]domain.Favorite
	visits      map[string]domain.VisitActivity
}

// WithinTransaction snapshots the store, runs fn, and restores the snapshot
// when fn fails. Writes of a failed operation are therefore never
// observable, mirroring the rollback behavior of the postgres store.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := s.takeSnapshot()

	if err := fn(ctx); err != nil {
		s.restoreSnapshot(snap)
		return err
	}

	return nil
}

func (s *Store) takeSnapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := snapshot{
		nodes:       make(map[string]domain.Node, len(s.nodes)),
		nodesByHash: make(map[string]string, len(s.nodesByHash)),
		contents:    make(map[string]domain.Content, len(s.contents)),
		history:     append([]domain.ContentHistoryEntry(nil), s.history...),
		favorites:   make(map[string]domain.Favorite, len(s.favorites)),
		visits:      make(map[string]domain.VisitActivity, len(s.visits)),
	}
	for k, v := range s.nodes {
		snap.nodes[k] = v
	}
	for k, v := range s.nodesByHash {
		snap.nodesByHash[k] = v
	}
	for k, v := range s.contents {
		snap.contents[k] = v
	}
	for k, v := range s.favorites {
		snap.favorites[k] = v
	}
	for k, v := range s.visits {
		snap.visits[k] = v
	}

	return snap
}

func (s *Store) restoreSnapshot(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nodes = snap.nodes
	s.nodesByHash = snap.nodesByHash
	s.contents = snap.contents
	s.history = snap.history
	s.favorites = snap.favorites
	s.visits = snap.visits
}

// --- NodeRepository ---

func (s *Store) Insert(ctx context.Context, node *domain.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodesByHash[node.PathHash]; ok {
		return fmt.Errorf("%w: %s", domain.ErrPathExists, node.Path)
	}

	s.nodes[node.ID] = *node
	s.nodesByHash[node.PathHash] = node.ID
	return nil
}

func (s *Store) Update(ctx context.Context, node *domain.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.nodes[node.ID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, node.ID)
	}

	if id, ok := s.nodesByHash[node.PathHash]; ok && id != node.ID {
		return fmt.Errorf("%w: %s", domain.ErrPathExists, node.Path)
	}

	delete(s.nodesByHash, stored.PathHash)
	s.nodes[node.ID] = *node
	s.nodesByHash[node.PathHash] = node.ID
	return nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*domain.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
	}

	copied := node
	return &copied, nil
}

func (s *Store) GetByPathHash(ctx context.Context, pathHash string) (*domain.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.nodesByHash[pathHash]
	if !ok {
		return nil, fmt.Errorf("%w: hash %s", domain.ErrNodeNotFound, pathHash)
	}

	node := s.nodes[id]
	return &node, nil
}

func (s *Store) ListChildren(ctx context.Context, parentPathHash string) ([]*domain.Node, error) {
	if parentPathHash == "" {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var children []*domain.Node
	for _, node := range s.nodes {
		if node.ParentPathHash == parentPathHash {
			copied := node
			children = append(children, &copied)
		}
	}

	sort.Slice(children, func(i, j int) bool {
		return children[i].ID < children[j].ID
	})

	return children, nil
}

// --- ContentRepository ---

func (s *Store) Exists(ctx context.Context, hash string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.contents[hash]
	return ok, nil
}

func (s *Store) InsertContent(ctx context.Context, content *domain.Content) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.contents[content.Hash]; ok {
		return nil
	}

	s.contents[content.Hash] = *content
	return nil
}

func (s *Store) GetContent(ctx context.Context, hash string) (*domain.Content, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	content, ok := s.contents[hash]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrContentNotFound, hash)
	}

	copied := content
	copied.Data = append([]byte(nil), content.Data...)
	return &copied, nil
}

func (s *Store) InsertHistory(ctx context.Context, entry *domain.ContentHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, *entry)
	return nil
}

func (s *Store) ListHistory(ctx context.Context, ownerID string) ([]*domain.ContentHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []*domain.ContentHistoryEntry
	for i := range s.history {
		if s.history[i].OwnerID == ownerID {
			copied := s.history[i]
			entries = append(entries, &copied)
		}
	}

	return entries, nil
}

// --- FavoriteRepository ---

func activityKey(userID, nodeID string) string {
	return userID + "\x00" + nodeID
}

func (s *Store) UpsertFavorite(ctx context.Context, favorite *domain.Favorite) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := activityKey(favorite.UserID, favorite.NodeID)
	if _, ok := s.favorites[key]; ok {
		return nil
	}

	s.favorites[key] = *favorite
	return nil
}

func (s *Store) DeleteFavorite(ctx context.Context, userID, nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.favorites, activityKey(userID, nodeID))
	return nil
}

func (s *Store) ListFavoritesByUser(ctx context.Context, userID string) ([]*domain.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var favorites []domain.Favorite
	for _, favorite := range s.favorites {
		if favorite.UserID == userID {
			favorites = append(favorites, favorite)
		}
	}

	sort.Slice(favorites, func(i, j int) bool {
		return favorites[i].CreatedAt.After(favorites[j].CreatedAt)
	})

	var nodes []*domain.Node
	for _, favorite := range favorites {
		if node, ok := s.nodes[favorite.NodeID]; ok {
			copied := node
			nodes = append(nodes, &copied)
		}
	}

	return nodes, nil
}

// --- VisitRepository ---

func (s *Store) UpsertVisit(ctx context.Context, visit *domain.VisitActivity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := activityKey(visit.UserID, visit.NodeID)
	if existing, ok := s.visits[key]; ok && existing.LastVisitedAt.After(visit.LastVisitedAt) {
		return nil
	}

	s.visits[key] = *visit
	return nil
}

func (s *Store) ListRecentlyVisited(ctx context.Context, userID string, limit int) ([]*domain.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var visits []domain.VisitActivity
	for _, visit := range s.visits {
		if visit.UserID == userID {
			visits = append(visits, visit)
		}
	}

	sort.Slice(visits, func(i, j int) bool {
		return visits[i].LastVisitedAt.After(visits[j].LastVisitedAt)
	})

	if limit > 0 && len(visits) > limit {
		visits = visits[:limit]
	}

	var nodes []*domain.Node
	for _, visit := range visits {
		if node, ok := s.nodes[visit.NodeID]; ok {
			copied := node
			nodes = append(nodes, &copied)
		}
	}

	return nodes, nil
}

// --- WorkspaceRepository ---

func (s *Store) GetByAlias(ctx context.Context, alias string) (*domain.Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	workspace, ok := s.workspaces[alias]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrWorkspaceNotFound, alias)
	}

	copied := workspace
	copied.MemberIDs = append([]string(nil), workspace.MemberIDs...)
	return &copied, nil
}

func (s *Store) ListByMember(ctx context.Context, userID string) ([]*domain.Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var workspaces []*domain.Workspace
	for _, workspace := range s.workspaces {
		if workspace.HasMember(userID) {
			copied := workspace
			copied.MemberIDs = append([]string(nil), workspace.MemberIDs...)
			workspaces = append(workspaces, &copied)
		}
	}

	sort.Slice(workspaces, func(i, j int) bool {
		return workspaces[i].Alias < workspaces[j].Alias
	})

	return workspaces, nil
}
