package managers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docktree/docktree/internal/domain"
	"github.com/docktree/docktree/internal/storage/memory"
)

type treeFixture struct {
	store    *memory.Store
	paths    *domain.PathManager
	tree     domain.TreeManager
	content  domain.ContentManager
	activity domain.ActivityManager
}

func newTreeFixture(t *testing.T) *treeFixture {
	t.Helper()

	store := memory.NewStore()
	store.AddWorkspace(&domain.Workspace{
		ID:        "ws1",
		Alias:     "acme",
		Name:      "Acme Inc",
		MemberIDs: []string{"u1", "u3"},
	})

	contentManager := NewContentManager(ContentManagerDependencies{
		ContentRepository: store.Contents(),
	})

	activityManager := NewActivityManager(ActivityManagerDependencies{
		FavoriteRepository: store.Favorites(),
		VisitRepository:    store.Visits(),
		NodeRepository:     store.Nodes(),
		WorkerCount:        1,
	})
	t.Cleanup(activityManager.Close)

	workspaceManager := NewWorkspaceManager(WorkspaceManagerDependencies{
		WorkspaceRepository: store.Workspaces(),
	})

	treeManager := NewTreeManager(TreeManagerDependencies{
		NodeRepository:   store.Nodes(),
		PathManager:      domain.NewPathManager(),
		ContentManager:   contentManager,
		WorkspaceManager: workspaceManager,
		ActivityManager:  activityManager,
		TxManager:        store,
	})

	return &treeFixture{
		store:    store,
		paths:    domain.NewPathManager(),
		tree:     treeManager,
		content:  contentManager,
		activity: activityManager,
	}
}

func (f *treeFixture) createFolder(t *testing.T, principal, parentID, name string) *domain.Node {
	t.Helper()

	node, err := f.tree.Create(context.Background(), domain.CreateNodeParams{
		Principal: principal,
		ParentID:  parentID,
		Root:      domain.RootDescriptor{Scope: domain.PathScopeUser, Owner: principal},
		Name:      name,
		Kind:      domain.NodeKindFolder,
	})
	require.NoError(t, err)
	return node
}

func (f *treeFixture) createFile(t *testing.T, principal, parentID, name string, content any) *domain.Node {
	t.Helper()

	node, err := f.tree.Create(context.Background(), domain.CreateNodeParams{
		Principal: principal,
		ParentID:  parentID,
		Root:      domain.RootDescriptor{Scope: domain.PathScopeUser, Owner: principal},
		Name:      name,
		Kind:      domain.NodeKindFile,
		Content:   content,
	})
	require.NoError(t, err)
	return node
}

// checkParentHashInvariant walks the subtree under node and verifies that
// every child's parent hash matches its parent's path hash.
func (f *treeFixture) checkParentHashInvariant(t *testing.T, node *domain.Node) {
	t.Helper()

	children, err := f.store.ListChildren(context.Background(), node.PathHash)
	require.NoError(t, err)

	for _, child := range children {
		assert.Equal(t, node.PathHash, child.ParentPathHash,
			"child %s parent hash does not match parent %s", child.Path, node.Path)
		assert.Equal(t, f.paths.Hash(child.Path), child.PathHash,
			"child %s hash is not the hash of its path", child.Path)
		f.checkParentHashInvariant(t, child)
	}
}

func TestTreeManager_CreateFolderInUserRoot(t *testing.T) {
	f := newTreeFixture(t)

	folder := f.createFolder(t, "u1", "", "Reports")

	assert.Equal(t, "Reports", folder.Name)
	assert.Equal(t, "reports", folder.Slug)
	assert.Equal(t, "/users/u1/reports", folder.Path)
	assert.Equal(t, f.paths.Hash("/users/u1/reports"), folder.PathHash)
	assert.Equal(t, f.paths.Hash("/users/u1"), folder.ParentPathHash)
	assert.Equal(t, "u1", folder.CreatedBy)

	root, err := f.tree.GetByPath(context.Background(), "/users/u1")
	require.NoError(t, err)
	assert.True(t, root.IsRoot())
	f.checkParentHashInvariant(t, root)
}

func TestTreeManager_CreateDuplicatePathConflicts(t *testing.T) {
	f := newTreeFixture(t)

	f.createFolder(t, "u1", "", "Reports")

	_, err := f.tree.Create(context.Background(), domain.CreateNodeParams{
		Principal: "u1",
		Root:      domain.RootDescriptor{Scope: domain.PathScopeUser, Owner: "u1"},
		Name:      "Reports",
		Kind:      domain.NodeKindFolder,
	})
	require.ErrorIs(t, err, domain.ErrPathExists)
}

func TestTreeManager_CreateUnderMissingParent(t *testing.T) {
	f := newTreeFixture(t)

	_, err := f.tree.Create(context.Background(), domain.CreateNodeParams{
		Principal: "u1",
		ParentID:  "missing",
		Name:      "Reports",
		Kind:      domain.NodeKindFolder,
	})
	require.ErrorIs(t, err, domain.ErrNodeNotFound)
}

func TestTreeManager_CreateUnderOtherUserRootForbidden(t *testing.T) {
	f := newTreeFixture(t)

	_, err := f.tree.Create(context.Background(), domain.CreateNodeParams{
		Principal: "u2",
		Root:      domain.RootDescriptor{Scope: domain.PathScopeUser, Owner: "u1"},
		Name:      "Intrusion",
		Kind:      domain.NodeKindFolder,
	})
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestTreeManager_CreateFileDeduplicatesContent(t *testing.T) {
	f := newTreeFixture(t)

	reports := f.createFolder(t, "u1", "", "Reports")
	payload := map[string]string{"k": "v"}

	q1 := f.createFile(t, "u1", reports.ID, "Q1", payload)
	require.NotEmpty(t, q1.ContentHash)

	elsewhere := f.createFolder(t, "u1", "", "Archive")
	other := f.createFile(t, "u1", elsewhere.ID, "Q1 Backup", payload)

	assert.Equal(t, q1.ContentHash, other.ContentHash)
	assert.Equal(t, 1, f.store.ContentCount())

	historyQ1, err := f.content.ListHistory(context.Background(), q1.ID)
	require.NoError(t, err)
	require.Len(t, historyQ1, 1)
	assert.Equal(t, q1.ContentHash, historyQ1[0].ContentHash)
	assert.Equal(t, "u1", historyQ1[0].Actor)
}

func TestTreeManager_SaveFileContent(t *testing.T) {
	f := newTreeFixture(t)

	reports := f.createFolder(t, "u1", "", "Reports")
	file := f.createFile(t, "u1", reports.ID, "Q1", map[string]string{"k": "v"})

	t.Run("unchanged content is a no-op", func(t *testing.T) {
		saved, err := f.tree.SaveFileContent(context.Background(), domain.SaveFileContentParams{
			Principal: "u1",
			NodeID:    file.ID,
			Content:   map[string]string{"k": "v"},
		})
		require.NoError(t, err)
		assert.Equal(t, file.ContentHash, saved.ContentHash)

		history, err := f.content.ListHistory(context.Background(), file.ID)
		require.NoError(t, err)
		assert.Len(t, history, 1)
	})

	t.Run("changed content appends history", func(t *testing.T) {
		saved, err := f.tree.SaveFileContent(context.Background(), domain.SaveFileContentParams{
			Principal: "u1",
			NodeID:    file.ID,
			Content:   map[string]string{"k": "v2"},
		})
		require.NoError(t, err)
		assert.NotEqual(t, file.ContentHash, saved.ContentHash)

		history, err := f.content.ListHistory(context.Background(), file.ID)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, saved.ContentHash, history[1].ContentHash)
	})

	t.Run("folders carry no content", func(t *testing.T) {
		_, err := f.tree.SaveFileContent(context.Background(), domain.SaveFileContentParams{
			Principal: "u1",
			NodeID:    reports.ID,
			Content:   map[string]string{"k": "v"},
		})
		require.ErrorIs(t, err, domain.ErrNotAFile)
	})
}

func TestTreeManager_MoveSubtree(t *testing.T) {
	f := newTreeFixture(t)
	ctx := context.Background()

	a := f.createFolder(t, "u1", "", "A")
	b := f.createFolder(t, "u1", a.ID, "B")
	cNode := f.createFolder(t, "u1", b.ID, "C")
	d := f.createFolder(t, "u1", "", "D")

	moved, err := f.tree.Move(ctx, domain.MoveNodeParams{
		Principal:     "u1",
		SourceID:      a.ID,
		DestinationID: d.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, "/users/u1/d/a", moved.Path)
	assert.Equal(t, d.PathHash, moved.ParentPathHash)

	movedB, err := f.tree.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "/users/u1/d/a/b", movedB.Path)
	assert.Equal(t, moved.PathHash, movedB.ParentPathHash)

	movedC, err := f.tree.GetByID(ctx, cNode.ID)
	require.NoError(t, err)
	assert.Equal(t, "/users/u1/d/a/b/c", movedC.Path)
	assert.Equal(t, movedB.PathHash, movedC.ParentPathHash)

	// Old addresses no longer resolve.
	_, err = f.tree.GetByPath(ctx, "/users/u1/a")
	require.ErrorIs(t, err, domain.ErrNodeNotFound)
	_, err = f.tree.GetByPath(ctx, "/users/u1/a/b/c")
	require.ErrorIs(t, err, domain.ErrNodeNotFound)

	root, err := f.tree.GetByPath(ctx, "/users/u1")
	require.NoError(t, err)
	f.checkParentHashInvariant(t, root)
}

func TestTreeManager_MoveCollisionRenames(t *testing.T) {
	f := newTreeFixture(t)
	ctx := context.Background()

	d := f.createFolder(t, "u1", "", "D")
	f.createFolder(t, "u1", d.ID, "X")

	elsewhere := f.createFolder(t, "u1", "", "Elsewhere")
	x2 := f.createFolder(t, "u1", elsewhere.ID, "X")
	child := f.createFolder(t, "u1", x2.ID, "Inside")

	moved, err := f.tree.Move(ctx, domain.MoveNodeParams{
		Principal:     "u1",
		SourceID:      x2.ID,
		DestinationID: d.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, "Copy of X", moved.Name)
	assert.Equal(t, "copy-of-x", moved.Slug)
	assert.Equal(t, "/users/u1/d/copy-of-x", moved.Path)

	movedChild, err := f.tree.GetByID(ctx, child.ID)
	require.NoError(t, err)
	assert.Equal(t, "/users/u1/d/copy-of-x/inside", movedChild.Path)
}

func TestTreeManager_RepeatedCollisionsAccumulatePrefix(t *testing.T) {
	f := newTreeFixture(t)
	ctx := context.Background()

	d := f.createFolder(t, "u1", "", "D")
	f.createFolder(t, "u1", d.ID, "X")
	f.createFolder(t, "u1", d.ID, "Copy of X")

	e := f.createFolder(t, "u1", "", "E")
	f.createFolder(t, "u1", e.ID, "Copy of X")

	copyOfX, err := f.tree.GetByPath(ctx, "/users/u1/e/copy-of-x")
	require.NoError(t, err)

	// "Copy of X" collides in D and becomes "Copy of Copy of X", not a
	// numbered variant.
	moved, err := f.tree.Move(ctx, domain.MoveNodeParams{
		Principal:     "u1",
		SourceID:      copyOfX.ID,
		DestinationID: d.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Copy of Copy of X", moved.Name)
	assert.Equal(t, "/users/u1/d/copy-of-copy-of-x", moved.Path)
}

func TestTreeManager_MoveIntoOwnDescendantRejected(t *testing.T) {
	f := newTreeFixture(t)
	ctx := context.Background()

	a := f.createFolder(t, "u1", "", "A")
	b := f.createFolder(t, "u1", a.ID, "B")

	_, err := f.tree.Move(ctx, domain.MoveNodeParams{
		Principal:     "u1",
		SourceID:      a.ID,
		DestinationID: b.ID,
	})
	require.ErrorIs(t, err, domain.ErrMoveIntoDescendant)

	// Tree untouched.
	unchangedA, err := f.tree.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "/users/u1/a", unchangedA.Path)

	unchangedB, err := f.tree.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "/users/u1/a/b", unchangedB.Path)
	assert.Equal(t, unchangedA.PathHash, unchangedB.ParentPathHash)
}

func TestTreeManager_MoveIntoItselfIsNoop(t *testing.T) {
	f := newTreeFixture(t)

	a := f.createFolder(t, "u1", "", "A")

	moved, err := f.tree.Move(context.Background(), domain.MoveNodeParams{
		Principal:     "u1",
		SourceID:      a.ID,
		DestinationID: a.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, a.Path, moved.Path)
	assert.Equal(t, a.UpdatedAt, moved.UpdatedAt)
}

func TestTreeManager_MoveIntoFileRejected(t *testing.T) {
	f := newTreeFixture(t)

	a := f.createFolder(t, "u1", "", "A")
	file := f.createFile(t, "u1", "", "Notes", map[string]string{"text": "hi"})

	_, err := f.tree.Move(context.Background(), domain.MoveNodeParams{
		Principal:     "u1",
		SourceID:      a.ID,
		DestinationID: file.ID,
	})
	require.ErrorIs(t, err, domain.ErrNotAFolder)
}

func TestTreeManager_MoveRollsBackOnMidSubtreeFailure(t *testing.T) {
	f := newTreeFixture(t)
	ctx := context.Background()

	// D already holds both "x" and "copy-of-x"; the collision rename picks
	// "Copy of X" exactly once, which then collides again and fails the
	// whole transaction.
	d := f.createFolder(t, "u1", "", "D")
	f.createFolder(t, "u1", d.ID, "X")
	f.createFolder(t, "u1", d.ID, "Copy of X")

	e := f.createFolder(t, "u1", "", "E")
	source := f.createFolder(t, "u1", e.ID, "X")
	child := f.createFolder(t, "u1", source.ID, "Inside")

	_, err := f.tree.Move(ctx, domain.MoveNodeParams{
		Principal:     "u1",
		SourceID:      source.ID,
		DestinationID: d.ID,
	})
	require.ErrorIs(t, err, domain.ErrPathExists)

	// Every node is exactly where it was.
	unchangedSource, err := f.tree.GetByID(ctx, source.ID)
	require.NoError(t, err)
	assert.Equal(t, "/users/u1/e/x", unchangedSource.Path)
	assert.Equal(t, "X", unchangedSource.Name)

	unchangedChild, err := f.tree.GetByID(ctx, child.ID)
	require.NoError(t, err)
	assert.Equal(t, "/users/u1/e/x/inside", unchangedChild.Path)
}

func TestTreeManager_MoveAcrossRoots(t *testing.T) {
	f := newTreeFixture(t)
	ctx := context.Background()

	personal := f.createFolder(t, "u1", "", "Shared Plans")

	workspaceRoot, err := f.tree.GetWorkspaceFolder(ctx, "acme", "u1")
	require.NoError(t, err)

	moved, err := f.tree.Move(ctx, domain.MoveNodeParams{
		Principal:     "u1",
		SourceID:      personal.ID,
		DestinationID: workspaceRoot.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "/workspaces/acme/shared-plans", moved.Path)
}

func TestTreeManager_MoveRequiresMembershipOnDestination(t *testing.T) {
	f := newTreeFixture(t)
	ctx := context.Background()

	personal := f.createFolder(t, "u2", "", "Plans")

	workspaceRoot, err := f.tree.GetWorkspaceFolder(ctx, "acme", "u1")
	require.NoError(t, err)

	// u2 is not a member of acme.
	_, err = f.tree.Move(ctx, domain.MoveNodeParams{
		Principal:     "u2",
		SourceID:      personal.ID,
		DestinationID: workspaceRoot.ID,
	})
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestTreeManager_RenamePropagatesToDescendants(t *testing.T) {
	f := newTreeFixture(t)
	ctx := context.Background()

	a := f.createFolder(t, "u1", "", "Projects")
	b := f.createFolder(t, "u1", a.ID, "Alpha")
	file := f.createFile(t, "u1", b.ID, "Spec", map[string]string{"v": "1"})

	renamed, err := f.tree.Rename(ctx, domain.RenameNodeParams{
		Principal: "u1",
		NodeID:    a.ID,
		NewName:   "Archived Projects",
	})
	require.NoError(t, err)
	assert.Equal(t, "Archived Projects", renamed.Name)
	assert.Equal(t, "/users/u1/archived-projects", renamed.Path)

	renamedB, err := f.tree.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "/users/u1/archived-projects/alpha", renamedB.Path)

	renamedFile, err := f.tree.GetByID(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, "/users/u1/archived-projects/alpha/spec", renamedFile.Path)

	root, err := f.tree.GetByPath(ctx, "/users/u1")
	require.NoError(t, err)
	f.checkParentHashInvariant(t, root)
}

func TestTreeManager_RenameRootRejected(t *testing.T) {
	f := newTreeFixture(t)
	ctx := context.Background()

	f.createFolder(t, "u1", "", "Anything")
	root, err := f.tree.GetByPath(ctx, "/users/u1")
	require.NoError(t, err)

	_, err = f.tree.Rename(ctx, domain.RenameNodeParams{
		Principal: "u1",
		NodeID:    root.ID,
		NewName:   "New Root",
	})
	require.ErrorIs(t, err, domain.ErrRootNotRenamable)
}

func TestTreeManager_RenameOntoExistingPathConflicts(t *testing.T) {
	f := newTreeFixture(t)

	f.createFolder(t, "u1", "", "A")
	b := f.createFolder(t, "u1", "", "B")

	_, err := f.tree.Rename(context.Background(), domain.RenameNodeParams{
		Principal: "u1",
		NodeID:    b.ID,
		NewName:   "A",
	})
	require.ErrorIs(t, err, domain.ErrPathExists)
}

func TestTreeManager_ListChildrenOrderedByID(t *testing.T) {
	f := newTreeFixture(t)

	parent := f.createFolder(t, "u1", "", "Parent")
	first := f.createFolder(t, "u1", parent.ID, "Zebra")
	second := f.createFolder(t, "u1", parent.ID, "Aardvark")

	children, err := f.tree.ListChildren(context.Background(), parent.ID)
	require.NoError(t, err)
	require.Len(t, children, 2)

	// Creation order, not name order: ids are k-sortable.
	assert.Equal(t, first.ID, children[0].ID)
	assert.Equal(t, second.ID, children[1].ID)
}

func TestTreeManager_GetUserFolderAggregatesRoots(t *testing.T) {
	f := newTreeFixture(t)

	folder, err := f.tree.GetUserFolder(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, "/users/u1", folder.PersonalRoot.Path)
	require.Len(t, folder.WorkspaceRoots, 1)
	assert.Equal(t, "/workspaces/acme", folder.WorkspaceRoots[0].Path)
	assert.Equal(t, "Acme Inc", folder.WorkspaceRoots[0].Name)
}

func TestTreeManager_GetWorkspaceFolderUnknownAlias(t *testing.T) {
	f := newTreeFixture(t)

	_, err := f.tree.GetWorkspaceFolder(context.Background(), "ghost", "u1")
	require.ErrorIs(t, err, domain.ErrWorkspaceNotFound)
}

func TestTreeManager_GetWorkspaceFolderRequiresMembership(t *testing.T) {
	f := newTreeFixture(t)

	_, err := f.tree.GetWorkspaceFolder(context.Background(), "acme", "u2")
	require.ErrorIs(t, err, domain.ErrForbidden)
}
