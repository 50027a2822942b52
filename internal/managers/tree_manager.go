package managers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog/log"

	"github.com/docktree/docktree/internal/domain"
)

const collisionRenamePrefix = "Copy of "

type treeManager struct {
	nodes      domain.NodeRepository
	paths      *domain.PathManager
	contents   domain.ContentManager
	workspaces domain.WorkspaceManager
	activity   domain.ActivityManager
	tx         domain.TxManager
}

type TreeManagerDependencies struct {
	NodeRepository   domain.NodeRepository
	PathManager      *domain.PathManager
	ContentManager   domain.ContentManager
	WorkspaceManager domain.WorkspaceManager
	ActivityManager  domain.ActivityManager
	TxManager        domain.TxManager
}

func NewTreeManager(deps TreeManagerDependencies) domain.TreeManager {
	return &treeManager{
		nodes:      deps.NodeRepository,
		paths:      deps.PathManager,
		contents:   deps.ContentManager,
		workspaces: deps.WorkspaceManager,
		activity:   deps.ActivityManager,
		tx:         deps.TxManager,
	}
}

func (m *treeManager) Create(ctx context.Context, params domain.CreateNodeParams) (*domain.Node, error) {
	var created *domain.Node

	err := m.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		parent, err := m.resolveParent(ctx, params)
		if err != nil {
			return err
		}

		parsed, err := m.paths.Parse(parent.Path)
		if err != nil {
			return err
		}

		if err := m.workspaces.Authorize(ctx, parsed.Root(), params.Principal); err != nil {
			return err
		}

		childPath, err := m.paths.ChildPath(parent.Path, params.Name)
		if err != nil {
			return err
		}

		childSlug, err := m.paths.Slugify(params.Name)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		node := &domain.Node{
			ID:             xid.New().String(),
			Name:           params.Name,
			Slug:           childSlug,
			Path:           childPath,
			PathHash:       m.paths.Hash(childPath),
			ParentPathHash: parent.PathHash,
			Kind:           params.Kind,
			CreatedBy:      params.Principal,
			CreatedAt:      now,
			UpdatedBy:      params.Principal,
			UpdatedAt:      now,
		}

		if params.Kind == domain.NodeKindFile && params.Content != nil {
			hash, err := m.contents.Put(ctx, domain.PutContentParams{
				Payload:   params.Content,
				CreatedBy: params.Principal,
			})
			if err != nil {
				return err
			}
			node.ContentHash = hash
		}

		if err := m.nodes.Insert(ctx, node); err != nil {
			return err
		}

		if node.ContentHash != "" {
			if err := m.contents.RecordHistory(ctx, node.ID, node.ContentHash, params.Principal); err != nil {
				return err
			}
		}

		created = node
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("node_id", created.ID).
		Str("path", created.Path).
		Str("kind", string(created.Kind)).
		Msg("Node created")

	return created, nil
}

// resolveParent returns the parent node for a create call: the node with the
// given id, or the (lazily created) root folder of the given scope.
func (m *treeManager) resolveParent(ctx context.Context, params domain.CreateNodeParams) (*domain.Node, error) {
	if params.ParentID != "" {
		parent, err := m.nodes.GetByID(ctx, params.ParentID)
		if err != nil {
			return nil, err
		}
		if !parent.IsFolder() {
			return nil, fmt.Errorf("%w: parent %s is a file", domain.ErrNotAFolder, parent.ID)
		}
		return parent, nil
	}

	return m.ensureRoot(ctx, params.Root, params.Principal)
}

// ensureRoot fetches the root folder node of a scope, creating it on first
// use. Must run inside a transaction when called from a mutation.
func (m *treeManager) ensureRoot(ctx context.Context, root domain.RootDescriptor, principal string) (*domain.Node, error) {
	var rootPath, rootName string

	switch root.Scope {
	case domain.PathScopeUser:
		rootPath = m.paths.UserRoot(root.Owner)
		rootName = root.Owner
	case domain.PathScopeWorkspace:
		workspace, err := m.workspaces.GetByAlias(ctx, root.Owner)
		if err != nil {
			return nil, err
		}
		rootPath = m.paths.WorkspaceRoot(workspace.Alias)
		rootName = workspace.Name
	default:
		return nil, fmt.Errorf("%w: unknown scope %q", domain.ErrInvalidPath, root.Scope)
	}

	rootHash := m.paths.Hash(rootPath)

	node, err := m.nodes.GetByPathHash(ctx, rootHash)
	if err == nil {
		return node, nil
	}
	if !errors.Is(err, domain.ErrNodeNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	node = &domain.Node{
		ID:        xid.New().String(),
		Name:      rootName,
		Slug:      root.Owner,
		Path:      rootPath,
		PathHash:  rootHash,
		Kind:      domain.NodeKindFolder,
		CreatedBy: principal,
		CreatedAt: now,
		UpdatedBy: principal,
		UpdatedAt: now,
	}

	if err := m.nodes.Insert(ctx, node); err != nil {
		return nil, err
	}

	return node, nil
}

func (m *treeManager) GetByID(ctx context.Context, id string) (*domain.Node, error) {
	return m.nodes.GetByID(ctx, id)
}

func (m *treeManager) GetByPath(ctx context.Context, path string) (*domain.Node, error) {
	if _, err := m.paths.Parse(path); err != nil {
		return nil, err
	}
	return m.nodes.GetByPathHash(ctx, m.paths.Hash(path))
}

func (m *treeManager) ListChildren(ctx context.Context, parentID string) ([]*domain.Node, error) {
	parent, err := m.nodes.GetByID(ctx, parentID)
	if err != nil {
		return nil, err
	}
	return m.nodes.ListChildren(ctx, parent.PathHash)
}

func (m *treeManager) Rename(ctx context.Context, params domain.RenameNodeParams) (*domain.Node, error) {
	var renamed *domain.Node

	err := m.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		node, err := m.nodes.GetByID(ctx, params.NodeID)
		if err != nil {
			return err
		}

		parsed, err := m.paths.Parse(node.Path)
		if err != nil {
			return err
		}

		if err := m.workspaces.Authorize(ctx, parsed.Root(), params.Principal); err != nil {
			return err
		}

		newPath, err := m.paths.SetLeaf(node.Path, params.NewName)
		if err != nil {
			return err
		}

		newSlug, err := m.paths.Slugify(params.NewName)
		if err != nil {
			return err
		}

		oldPath := node.Path
		oldHash := node.PathHash

		node.Name = params.NewName
		node.Slug = newSlug
		node.Path = newPath
		node.PathHash = m.paths.Hash(newPath)
		node.UpdatedBy = params.Principal
		node.UpdatedAt = time.Now().UTC()

		if node.PathHash != oldHash {
			existing, err := m.nodes.GetByPathHash(ctx, node.PathHash)
			if err != nil && !errors.Is(err, domain.ErrNodeNotFound) {
				return err
			}
			if existing != nil {
				return fmt.Errorf("%w: %s", domain.ErrPathExists, newPath)
			}
		}

		if err := m.nodes.Update(ctx, node); err != nil {
			return err
		}

		if err := m.readdressSubtree(ctx, node, oldPath, oldHash, params.Principal); err != nil {
			return err
		}

		renamed = node
		return nil
	})
	if err != nil {
		return nil, err
	}

	return renamed, nil
}

func (m *treeManager) Move(ctx context.Context, params domain.MoveNodeParams) (*domain.Node, error) {
	var moved *domain.Node

	err := m.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		source, err := m.nodes.GetByID(ctx, params.SourceID)
		if err != nil {
			return err
		}

		destination, err := m.nodes.GetByID(ctx, params.DestinationID)
		if err != nil {
			return err
		}

		if !destination.IsFolder() {
			return fmt.Errorf("%w: %s", domain.ErrNotAFolder, destination.Path)
		}

		sourceParsed, err := m.paths.Parse(source.Path)
		if err != nil {
			return err
		}
		destinationParsed, err := m.paths.Parse(destination.Path)
		if err != nil {
			return err
		}

		// Source and destination roots may differ, e.g. moving a personal
		// folder into a shared workspace. Both must allow the actor.
		if err := m.workspaces.Authorize(ctx, sourceParsed.Root(), params.Principal); err != nil {
			return err
		}
		if err := m.workspaces.Authorize(ctx, destinationParsed.Root(), params.Principal); err != nil {
			return err
		}

		if source.Path == destination.Path {
			moved = source
			return nil
		}

		if m.paths.IsAncestor(source.Path, destination.Path) {
			return fmt.Errorf("%w: %s is under %s", domain.ErrMoveIntoDescendant, destination.Path, source.Path)
		}

		newName := source.Name
		candidatePath, err := m.paths.ChildPath(destination.Path, newName)
		if err != nil {
			return err
		}

		// Collision policy: an existing child occupying exactly the candidate
		// path renames the moved node, it never fails the move. Repeated
		// collisions accumulate the prefix.
		siblings, err := m.nodes.ListChildren(ctx, destination.PathHash)
		if err != nil {
			return err
		}
		for _, sibling := range siblings {
			if sibling.Path == candidatePath {
				newName = collisionRenamePrefix + source.Name
				candidatePath, err = m.paths.ChildPath(destination.Path, newName)
				if err != nil {
					return err
				}
				break
			}
		}

		newSlug, err := m.paths.Slugify(newName)
		if err != nil {
			return err
		}

		oldPath := source.Path
		oldHash := source.PathHash

		source.Name = newName
		source.Slug = newSlug
		source.Path = candidatePath
		source.PathHash = m.paths.Hash(candidatePath)
		source.ParentPathHash = destination.PathHash
		source.UpdatedBy = params.Principal
		source.UpdatedAt = time.Now().UTC()

		if err := m.nodes.Update(ctx, source); err != nil {
			return err
		}

		if err := m.readdressSubtree(ctx, source, oldPath, oldHash, params.Principal); err != nil {
			return err
		}

		moved = source
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("node_id", moved.ID).
		Str("path", moved.Path).
		Msg("Node moved")

	return moved, nil
}

// relocation is one worklist entry of a subtree re-addressing pass: a node
// whose own path has already been rewritten, together with its pre-mutation
// path and hash. Children are still addressed by the old hash and must be
// fetched with it before their own hashes are overwritten.
type relocation struct {
	node    *domain.Node
	oldPath string
	oldHash string
}

// readdressSubtree rewrites path, path hash and parent hash of every
// descendant of a moved or renamed node. The traversal is an explicit
// breadth-first worklist rather than recursion, keeping deep trees off the
// call stack. Runs inside the caller's transaction.
func (m *treeManager) readdressSubtree(ctx context.Context, node *domain.Node, oldPath, oldHash, actor string) error {
	queue := []relocation{{node: node, oldPath: oldPath, oldHash: oldHash}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		children, err := m.nodes.ListChildren(ctx, current.oldHash)
		if err != nil {
			return err
		}

		for _, child := range children {
			childOldPath := child.Path
			childOldHash := child.PathHash

			child.Path = current.node.Path + childOldPath[len(current.oldPath):]
			child.PathHash = m.paths.Hash(child.Path)
			child.ParentPathHash = current.node.PathHash
			child.UpdatedBy = actor
			child.UpdatedAt = time.Now().UTC()

			if err := m.nodes.Update(ctx, child); err != nil {
				return err
			}

			queue = append(queue, relocation{node: child, oldPath: childOldPath, oldHash: childOldHash})
		}
	}

	return nil
}

func (m *treeManager) SaveFileContent(ctx context.Context, params domain.SaveFileContentParams) (*domain.Node, error) {
	var saved *domain.Node

	err := m.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		node, err := m.nodes.GetByID(ctx, params.NodeID)
		if err != nil {
			return err
		}

		if node.IsFolder() {
			return fmt.Errorf("%w: %s", domain.ErrNotAFile, node.Path)
		}

		parsed, err := m.paths.Parse(node.Path)
		if err != nil {
			return err
		}

		if err := m.workspaces.Authorize(ctx, parsed.Root(), params.Principal); err != nil {
			return err
		}

		hash, err := m.contents.Put(ctx, domain.PutContentParams{
			Payload:   params.Content,
			CreatedBy: params.Principal,
		})
		if err != nil {
			return err
		}

		// Saving with an unchanged hash is a no-op: no node write, no
		// history row.
		if hash == node.ContentHash {
			saved = node
			return nil
		}

		node.ContentHash = hash
		node.UpdatedBy = params.Principal
		node.UpdatedAt = time.Now().UTC()

		if err := m.nodes.Update(ctx, node); err != nil {
			return err
		}

		if err := m.contents.RecordHistory(ctx, node.ID, hash, params.Principal); err != nil {
			return err
		}

		saved = node
		return nil
	})
	if err != nil {
		return nil, err
	}

	return saved, nil
}

func (m *treeManager) ReadFile(ctx context.Context, params domain.ReadFileParams) (*domain.FileReadResult, error) {
	node, err := m.nodes.GetByID(ctx, params.NodeID)
	if err != nil {
		return nil, err
	}

	if node.IsFolder() {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotAFile, node.Path)
	}

	result := &domain.FileReadResult{Node: node}

	if node.ContentHash != "" {
		payload, err := m.contents.Get(ctx, node.ContentHash)
		if err != nil {
			return nil, err
		}
		result.Content = payload
	}

	// The visit write happens off the request path; the read never waits on
	// it and never observes its failure.
	m.activity.RecordVisit(params.Principal, node.ID)

	return result, nil
}

func (m *treeManager) GetUserFolder(ctx context.Context, userID string) (*domain.UserFolder, error) {
	folder := &domain.UserFolder{}

	err := m.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		personal, err := m.ensureRoot(ctx, domain.RootDescriptor{Scope: domain.PathScopeUser, Owner: userID}, userID)
		if err != nil {
			return err
		}
		folder.PersonalRoot = personal

		workspaces, err := m.workspaces.ListForUser(ctx, userID)
		if err != nil {
			return err
		}

		for _, workspace := range workspaces {
			root, err := m.ensureRoot(ctx, domain.RootDescriptor{Scope: domain.PathScopeWorkspace, Owner: workspace.Alias}, userID)
			if err != nil {
				return err
			}
			folder.WorkspaceRoots = append(folder.WorkspaceRoots, root)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return folder, nil
}

func (m *treeManager) GetWorkspaceFolder(ctx context.Context, alias, principal string) (*domain.Node, error) {
	var root *domain.Node

	err := m.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		descriptor := domain.RootDescriptor{Scope: domain.PathScopeWorkspace, Owner: alias}

		if err := m.workspaces.Authorize(ctx, descriptor, principal); err != nil {
			return err
		}

		var err error
		root, err = m.ensureRoot(ctx, descriptor, principal)
		return err
	})
	if err != nil {
		return nil, err
	}

	return root, nil
}
