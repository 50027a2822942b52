package domain

import (
	"context"
	"encoding/json"
	"time"
)

type NodeKind string

const (
	NodeKindFolder NodeKind = "folder"
	NodeKindFile   NodeKind = "file"
)

// Node is one element of the addressable tree: a folder, or a file carrying
// a content reference. Ids are generated once and never reused; paths and
// their hashes are rewritten on rename and move.
//
// Invariant: for every non-root node, ParentPathHash equals the path hash of
// its parent. Root nodes carry an empty ParentPathHash.
type Node struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	Path           string    `json:"path"`
	PathHash       string    `json:"path_hash"`
	ParentPathHash string    `json:"parent_path_hash,omitempty"`
	Kind           NodeKind  `json:"kind"`
	ContentHash    string    `json:"content_hash,omitempty"`
	CreatedBy      string    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedBy      string    `json:"updated_by"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (n *Node) IsFolder() bool {
	return n.Kind == NodeKindFolder
}

func (n *Node) IsRoot() bool {
	return n.ParentPathHash == ""
}

// NodeRepository is the persistence boundary of the tree. Insert and Update
// report ErrPathExists when the unique path hash index rejects the write.
type NodeRepository interface {
	Insert(ctx context.Context, node *Node) error
	Update(ctx context.Context, node *Node) error
	GetByID(ctx context.Context, id string) (*Node, error)
	GetByPathHash(ctx context.Context, pathHash string) (*Node, error)
	ListChildren(ctx context.Context, parentPathHash string) ([]*Node, error)
}

type CreateNodeParams struct {
	Principal string
	ParentID  string         // optional; when empty Root resolves the parent
	Root      RootDescriptor // used when ParentID is empty
	Name      string
	Kind      NodeKind
	Content   any // files only, may be nil
}

type RenameNodeParams struct {
	Principal string
	NodeID    string
	NewName   string
}

type MoveNodeParams struct {
	Principal     string
	SourceID      string
	DestinationID string
}

type SaveFileContentParams struct {
	Principal string
	NodeID    string
	Content   any
}

type ReadFileParams struct {
	Principal string
	NodeID    string
}

// FileReadResult carries a file node together with its decompressed payload.
type FileReadResult struct {
	Node    *Node           `json:"node"`
	Content json.RawMessage `json:"content"`
}

// UserFolder aggregates a user's personal root with the root of each
// workspace the user belongs to.
type UserFolder struct {
	PersonalRoot   *Node   `json:"personal_root"`
	WorkspaceRoots []*Node `json:"workspace_roots"`
}

// TreeManager maintains the addressable folder/file tree and its move and
// rename invariants. All writes of one call happen in a single transaction.
type TreeManager interface {
	Create(ctx context.Context, params CreateNodeParams) (*Node, error)
	GetByID(ctx context.Context, id string) (*Node, error)
	GetByPath(ctx context.Context, path string) (*Node, error)
	ListChildren(ctx context.Context, parentID string) ([]*Node, error)
	Rename(ctx context.Context, params RenameNodeParams) (*Node, error)
	Move(ctx context.Context, params MoveNodeParams) (*Node, error)
	SaveFileContent(ctx context.Context, params SaveFileContentParams) (*Node, error)
	ReadFile(ctx context.Context, params ReadFileParams) (*FileReadResult, error)
	GetUserFolder(ctx context.Context, userID string) (*UserFolder, error)
	GetWorkspaceFolder(ctx context.Context, alias, principal string) (*Node, error)
}

// TxManager scopes a function to one storage transaction. The transaction is
// committed when fn returns nil and rolled back otherwise; repositories pick
// the transaction up from the context.
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
