// Package cache provides injected lookup caches for workspace records.
// Caches are constructed explicitly and passed to the workspace manager; no
// process-wide cache state exists.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/docktree/docktree/internal/domain"
)

const workspaceKeyPrefix = "docktree:workspace:"

// RedisWorkspaceCache caches workspace records in redis. Cache failures are
// logged and treated as misses; the repository remains the source of truth.
type RedisWorkspaceCache struct {
	client *redis.Client
	ttl    time.Duration
}

type RedisWorkspaceCacheDependencies struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisWorkspaceCache(deps RedisWorkspaceCacheDependencies) *RedisWorkspaceCache {
	ttl := deps.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &RedisWorkspaceCache{
		client: deps.Client,
		ttl:    ttl,
	}
}

func (c *RedisWorkspaceCache) Get(ctx context.Context, alias string) (*domain.Workspace, bool) {
	data, err := c.client.Get(ctx, workspaceKeyPrefix+alias).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Str("alias", alias).Msg("Workspace cache read failed")
		}
		return nil, false
	}

	var workspace domain.Workspace
	if err := json.Unmarshal(data, &workspace); err != nil {
		log.Warn().Err(err).Str("alias", alias).Msg("Workspace cache entry is corrupt")
		return nil, false
	}

	return &workspace, true
}

func (c *RedisWorkspaceCache) Set(ctx context.Context, workspace *domain.Workspace) {
	data, err := json.Marshal(workspace)
	if err != nil {
		return
	}

	if err := c.client.Set(ctx, workspaceKeyPrefix+workspace.Alias, data, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("alias", workspace.Alias).Msg("Workspace cache write failed")
	}
}

// MemoryWorkspaceCache is the in-process fallback for deployments without
// redis.
type MemoryWorkspaceCache struct {
	mu      sync.RWMutex
	entries map[string]memoryCacheEntry
	ttl     time.Duration
}

type memoryCacheEntry struct {
	workspace domain.Workspace
	expiresAt time.Time
}

func NewMemoryWorkspaceCache(ttl time.Duration) *MemoryWorkspaceCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &MemoryWorkspaceCache{
		entries: make(map[string]memoryCacheEntry),
		ttl:     ttl,
	}
}

func (c *MemoryWorkspaceCache) Get(ctx context.Context, alias string) (*domain.Workspace, bool) {
	c.mu.RLock()
	entry, ok := c.entries[alias]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}

	workspace := entry.workspace
	return &workspace, true
}

func (c *MemoryWorkspaceCache) Set(ctx context.Context, workspace *domain.Workspace) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[workspace.Alias] = memoryCacheEntry{
		workspace: *workspace,
		expiresAt: time.Now().Add(c.ttl),
	}
}
