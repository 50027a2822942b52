package domain

import "errors"

var (
	ErrNodeNotFound      = errors.New("node not found")
	ErrContentNotFound   = errors.New("content not found")
	ErrWorkspaceNotFound = errors.New("workspace not found")

	// ErrPathExists signals a duplicate path hash. Create and rename surface
	// it directly; move never does, it renames the source instead.
	ErrPathExists = errors.New("path already exists")

	ErrInvalidPath        = errors.New("invalid path")
	ErrInvalidNodeName    = errors.New("invalid node name")
	ErrNotAFolder         = errors.New("destination is not a folder")
	ErrNotAFile           = errors.New("node is not a file")
	ErrMoveIntoDescendant = errors.New("cannot move a node under its own descendant")
	ErrRootNotRenamable   = errors.New("root folders cannot be renamed")

	ErrForbidden = errors.New("forbidden")
)
