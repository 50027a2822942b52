package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
)

// PathScope identifies which kind of root a path hangs under.
type PathScope string

const (
	PathScopeUser      PathScope = "user"
	PathScopeWorkspace PathScope = "workspace"
)

const (
	userRootPrefix      = "/users/"
	workspaceRootPrefix = "/workspaces/"

	pathSeparator = "/"
)

// ParsedPath is the decomposed form of a canonical node path.
type ParsedPath struct {
	Scope    PathScope
	Owner    string   // user id or workspace alias, depending on scope
	Segments []string // path segments below the root, may be empty
}

// Root returns the root descriptor the path hangs under.
func (p ParsedPath) Root() RootDescriptor {
	return RootDescriptor{Scope: p.Scope, Owner: p.Owner}
}

// IsRoot reports whether the path addresses the root folder itself.
func (p ParsedPath) IsRoot() bool {
	return len(p.Segments) == 0
}

// RootDescriptor names the top-level scope a path belongs to. Authorization
// decisions are made against it.
type RootDescriptor struct {
	Scope PathScope
	Owner string
}

// PathManager canonicalizes and hashes hierarchical node addresses. Children
// of a node are located by an indexed equality lookup on the parent's path
// hash rather than by tree traversal, so writing and querying must hash
// identically.
//
// Path format examples:
//   - User root: "/users/u_01h2xce"
//   - Workspace file: "/workspaces/acme/reports/q1"
type PathManager struct{}

// NewPathManager creates a new PathManager instance.
func NewPathManager() *PathManager {
	return &PathManager{}
}

// UserRoot returns the canonical root path for a user's personal space.
func (p *PathManager) UserRoot(userID string) string {
	return userRootPrefix + userID
}

// WorkspaceRoot returns the canonical root path for a shared workspace.
func (p *PathManager) WorkspaceRoot(alias string) string {
	return workspaceRootPrefix + alias
}

// Parse validates and decomposes a canonical path string. The string must
// begin with a recognized root prefix and contain no empty segments.
func (p *PathManager) Parse(path string) (ParsedPath, error) {
	var scope PathScope
	var rest string

	switch {
	case strings.HasPrefix(path, userRootPrefix):
		scope = PathScopeUser
		rest = strings.TrimPrefix(path, userRootPrefix)
	case strings.HasPrefix(path, workspaceRootPrefix):
		scope = PathScopeWorkspace
		rest = strings.TrimPrefix(path, workspaceRootPrefix)
	default:
		return ParsedPath{}, fmt.Errorf("%w: %q has no recognized root prefix", ErrInvalidPath, path)
	}

	parts := strings.Split(rest, pathSeparator)
	for _, part := range parts {
		if part == "" {
			return ParsedPath{}, fmt.Errorf("%w: %q contains an empty segment", ErrInvalidPath, path)
		}
	}

	return ParsedPath{
		Scope:    scope,
		Owner:    parts[0],
		Segments: parts[1:],
	}, nil
}

// Hash returns the deterministic digest of a canonical path. The same
// function is used for writing path hashes and for querying by path.
func (p *PathManager) Hash(path string) string {
	sum := sha256.Sum256([]byte(path))
	return hex.EncodeToString(sum[:])
}

// Slugify renders a display name as a path-safe segment.
func (p *PathManager) Slugify(name string) (string, error) {
	s := slug.Make(name)
	if s == "" {
		return "", fmt.Errorf("%w: %q produces an empty slug", ErrInvalidNodeName, name)
	}
	return s, nil
}

// ChildPath appends the slugified leaf name to a parent path.
func (p *PathManager) ChildPath(parent, leafName string) (string, error) {
	leaf, err := p.Slugify(leafName)
	if err != nil {
		return "", err
	}
	return parent + pathSeparator + leaf, nil
}

// IsAncestor reports whether b is strictly nested under a. The comparison
// matches on segment boundaries: "/users/u1/a" is not an ancestor of
// "/users/u1/ab".
func (p *PathManager) IsAncestor(a, b string) bool {
	if a == b {
		return false
	}
	return strings.HasPrefix(b, a+pathSeparator)
}

// SetLeaf replaces the final segment of a path with the slugified new name.
// Root paths have no leaf to replace and are rejected.
func (p *PathManager) SetLeaf(path, newName string) (string, error) {
	parsed, err := p.Parse(path)
	if err != nil {
		return "", err
	}

	if parsed.IsRoot() {
		return "", ErrRootNotRenamable
	}

	leaf, err := p.Slugify(newName)
	if err != nil {
		return "", err
	}

	idx := strings.LastIndex(path, pathSeparator)
	return path[:idx+1] + leaf, nil
}

// ParentPath returns the path with its final segment removed. Root paths
// return themselves.
func (p *PathManager) ParentPath(path string) string {
	parsed, err := p.Parse(path)
	if err != nil || parsed.IsRoot() {
		return path
	}
	idx := strings.LastIndex(path, pathSeparator)
	return path[:idx]
}
