package domain

import (
	"context"
	"time"
)

// Favorite is a user's explicit bookmark on a node, unique per (user, node).
type Favorite struct {
	UserID    string    `json:"user_id"`
	NodeID    string    `json:"node_id"`
	CreatedAt time.Time `json:"created_at"`
}

// VisitActivity is the per-user "last visited" marker on a node. One row per
// (user, node), upserted on every successful file read; prior visits keep no
// history.
type VisitActivity struct {
	UserID        string    `json:"user_id"`
	NodeID        string    `json:"node_id"`
	LastVisitedAt time.Time `json:"last_visited_at"`
}

type FavoriteRepository interface {
	Upsert(ctx context.Context, favorite *Favorite) error
	Delete(ctx context.Context, userID, nodeID string) error
	ListByUser(ctx context.Context, userID string) ([]*Node, error)
}

type VisitRepository interface {
	Upsert(ctx context.Context, visit *VisitActivity) error
	ListRecentlyVisited(ctx context.Context, userID string, limit int) ([]*Node, error)
}

// ActivityManager tracks favorites and visit recency. RecordVisit is
// fire-and-forget: it hands the upsert to a background worker pool and the
// caller never waits on or learns about the write.
type ActivityManager interface {
	Favorite(ctx context.Context, userID, nodeID string) error
	Unfavorite(ctx context.Context, userID, nodeID string) error
	ListFavorites(ctx context.Context, userID string) ([]*Node, error)
	ListRecentlyVisited(ctx context.Context, userID string, limit int) ([]*Node, error)
	RecordVisit(userID, nodeID string)
	Close()
}
