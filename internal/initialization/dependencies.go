package initialization

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/docktree/docktree/internal/cache"
	"github.com/docktree/docktree/internal/config"
	"github.com/docktree/docktree/internal/controllers"
	"github.com/docktree/docktree/internal/domain"
	"github.com/docktree/docktree/internal/managers"
	"github.com/docktree/docktree/internal/storage/postgres"
)

// Dependencies contains every constructed collaborator of the service. The
// container owns the pool and the activity worker pool; Close releases both.
type Dependencies struct {
	Pool               *pgxpool.Pool
	TreeManager        domain.TreeManager
	ContentManager     domain.ContentManager
	ActivityManager    domain.ActivityManager
	WorkspaceManager   domain.WorkspaceManager
	TreeController     *controllers.TreeController
	ActivityController *controllers.ActivityController
}

// BuildDependencies creates and wires up all service dependencies.
func BuildDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	log.Info().Msg("Building service dependencies")

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	txManager := postgres.NewTxManager(pool)
	nodeRepository := postgres.NewNodeRepository(txManager)
	contentRepository := postgres.NewContentRepository(txManager)
	favoriteRepository := postgres.NewFavoriteRepository(txManager)
	visitRepository := postgres.NewVisitRepository(txManager)
	workspaceRepository := postgres.NewWorkspaceRepository(txManager)

	var workspaceCache domain.WorkspaceCache
	if cfg.RedisAddress != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
		})
		workspaceCache = cache.NewRedisWorkspaceCache(cache.RedisWorkspaceCacheDependencies{
			Client: client,
		})
		log.Info().Str("address", cfg.RedisAddress).Msg("Using redis workspace cache")
	} else {
		workspaceCache = cache.NewMemoryWorkspaceCache(5 * time.Minute)
	}

	workspaceManager := managers.NewWorkspaceManager(managers.WorkspaceManagerDependencies{
		WorkspaceRepository: workspaceRepository,
		Cache:               workspaceCache,
	})

	contentManager := managers.NewContentManager(managers.ContentManagerDependencies{
		ContentRepository: contentRepository,
	})

	activityManager := managers.NewActivityManager(managers.ActivityManagerDependencies{
		FavoriteRepository: favoriteRepository,
		VisitRepository:    visitRepository,
		NodeRepository:     nodeRepository,
		WorkerCount:        cfg.VisitWorkers,
		QueueSize:          cfg.VisitQueueSize,
	})

	treeManager := managers.NewTreeManager(managers.TreeManagerDependencies{
		NodeRepository:   nodeRepository,
		PathManager:      domain.NewPathManager(),
		ContentManager:   contentManager,
		WorkspaceManager: workspaceManager,
		ActivityManager:  activityManager,
		TxManager:        txManager,
	})

	treeController := controllers.NewTreeController(controllers.TreeControllerDependencies{
		TreeManager:    treeManager,
		ContentManager: contentManager,
	})

	activityController := controllers.NewActivityController(controllers.ActivityControllerDependencies{
		ActivityManager: activityManager,
	})

	return &Dependencies{
		Pool:               pool,
		TreeManager:        treeManager,
		ContentManager:     contentManager,
		ActivityManager:    activityManager,
		WorkspaceManager:   workspaceManager,
		TreeController:     treeController,
		ActivityController: activityController,
	}, nil
}

// Close drains the visit worker pool and releases the connection pool.
func (d *Dependencies) Close() {
	d.ActivityManager.Close()
	d.Pool.Close()
}
