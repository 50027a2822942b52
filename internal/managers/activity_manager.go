package managers

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/docktree/docktree/internal/domain"
)

const (
	defaultVisitWorkers   = 2
	defaultVisitQueueSize = 256

	visitWriteTimeout = 5 * time.Second
)

type visitEvent struct {
	userID    string
	nodeID    string
	visitedAt time.Time
}

// activityManager tracks favorites synchronously and visit recency through a
// fixed-size worker pool. Visit writes are at-most-once: a full queue drops
// the event, and a failed upsert is logged and dropped, never retried and
// never surfaced to the reader.
type activityManager struct {
	favorites domain.FavoriteRepository
	visits    domain.VisitRepository
	nodes     domain.NodeRepository

	visitCh chan visitEvent
	wg      sync.WaitGroup
}

type ActivityManagerDependencies struct {
	FavoriteRepository domain.FavoriteRepository
	VisitRepository    domain.VisitRepository
	NodeRepository     domain.NodeRepository
	WorkerCount        int
	QueueSize          int
}

func NewActivityManager(deps ActivityManagerDependencies) domain.ActivityManager {
	workerCount := deps.WorkerCount
	if workerCount <= 0 {
		workerCount = defaultVisitWorkers
	}

	queueSize := deps.QueueSize
	if queueSize <= 0 {
		queueSize = defaultVisitQueueSize
	}

	m := &activityManager{
		favorites: deps.FavoriteRepository,
		visits:    deps.VisitRepository,
		nodes:     deps.NodeRepository,
		visitCh:   make(chan visitEvent, queueSize),
	}

	m.wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go m.visitWorker()
	}

	return m
}

func (m *activityManager) visitWorker() {
	defer m.wg.Done()

	for event := range m.visitCh {
		ctx, cancel := context.WithTimeout(context.Background(), visitWriteTimeout)

		err := m.visits.Upsert(ctx, &domain.VisitActivity{
			UserID:        event.userID,
			NodeID:        event.nodeID,
			LastVisitedAt: event.visitedAt,
		})
		if err != nil {
			log.Error().
				Err(err).
				Str("user_id", event.userID).
				Str("node_id", event.nodeID).
				Msg("Failed to record visit")
		}

		cancel()
	}
}

func (m *activityManager) RecordVisit(userID, nodeID string) {
	event := visitEvent{
		userID:    userID,
		nodeID:    nodeID,
		visitedAt: time.Now().UTC(),
	}

	select {
	case m.visitCh <- event:
	default:
		log.Warn().
			Str("user_id", userID).
			Str("node_id", nodeID).
			Msg("Visit queue full, dropping visit")
	}
}

// Close stops accepting visits and waits for queued upserts to drain.
func (m *activityManager) Close() {
	close(m.visitCh)
	m.wg.Wait()
}

func (m *activityManager) Favorite(ctx context.Context, userID, nodeID string) error {
	if _, err := m.nodes.GetByID(ctx, nodeID); err != nil {
		return err
	}

	return m.favorites.Upsert(ctx, &domain.Favorite{
		UserID:    userID,
		NodeID:    nodeID,
		CreatedAt: time.Now().UTC(),
	})
}

func (m *activityManager) Unfavorite(ctx context.Context, userID, nodeID string) error {
	if _, err := m.nodes.GetByID(ctx, nodeID); err != nil {
		return err
	}

	return m.favorites.Delete(ctx, userID, nodeID)
}

func (m *activityManager) ListFavorites(ctx context.Context, userID string) ([]*domain.Node, error) {
	return m.favorites.ListByUser(ctx, userID)
}

func (m *activityManager) ListRecentlyVisited(ctx context.Context, userID string, limit int) ([]*domain.Node, error) {
	return m.visits.ListRecentlyVisited(ctx, userID, limit)
}
