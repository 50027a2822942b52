package managers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docktree/docktree/internal/domain"
	"github.com/docktree/docktree/internal/storage/memory"
)

func newContentFixture() (domain.ContentManager, *memory.Store) {
	store := memory.NewStore()
	manager := NewContentManager(ContentManagerDependencies{
		ContentRepository: store.Contents(),
	})
	return manager, store
}

func TestContentManager_PutAndGetRoundTrip(t *testing.T) {
	manager, _ := newContentFixture()
	ctx := context.Background()

	payload := map[string]any{"title": "Q1 Report", "rows": []any{"a", "b"}}

	hash, err := manager.Put(ctx, domain.PutContentParams{
		Payload:   payload,
		CreatedBy: "u1",
	})
	require.NoError(t, err)
	assert.Len(t, hash, 64)

	got, err := manager.Get(ctx, hash)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(got, &decoded))
	assert.Equal(t, "Q1 Report", decoded["title"])
}

func TestContentManager_PutIsIdempotent(t *testing.T) {
	manager, store := newContentFixture()
	ctx := context.Background()

	payload := map[string]string{"k": "v"}

	first, err := manager.Put(ctx, domain.PutContentParams{Payload: payload, CreatedBy: "u1"})
	require.NoError(t, err)

	second, err := manager.Put(ctx, domain.PutContentParams{Payload: payload, CreatedBy: "u2"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.ContentCount())
}

func TestContentManager_DistinctPayloadsDistinctHashes(t *testing.T) {
	manager, store := newContentFixture()
	ctx := context.Background()

	first, err := manager.Put(ctx, domain.PutContentParams{Payload: map[string]string{"k": "v1"}, CreatedBy: "u1"})
	require.NoError(t, err)

	second, err := manager.Put(ctx, domain.PutContentParams{Payload: map[string]string{"k": "v2"}, CreatedBy: "u1"})
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, 2, store.ContentCount())
}

func TestContentManager_GetUnknownHash(t *testing.T) {
	manager, _ := newContentFixture()

	_, err := manager.Get(context.Background(), "deadbeef")
	require.ErrorIs(t, err, domain.ErrContentNotFound)
}

func TestContentManager_History(t *testing.T) {
	manager, _ := newContentFixture()
	ctx := context.Background()

	hash, err := manager.Put(ctx, domain.PutContentParams{Payload: map[string]string{"v": "1"}, CreatedBy: "u1"})
	require.NoError(t, err)

	require.NoError(t, manager.RecordHistory(ctx, "node1", hash, "u1"))
	require.NoError(t, manager.RecordHistory(ctx, "node1", hash, "u2"))
	require.NoError(t, manager.RecordHistory(ctx, "node2", hash, "u1"))

	history, err := manager.ListHistory(ctx, "node1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "u1", history[0].Actor)
	assert.Equal(t, "u2", history[1].Actor)
	for _, entry := range history {
		assert.Equal(t, "node1", entry.OwnerID)
		assert.Equal(t, hash, entry.ContentHash)
		assert.NotEmpty(t, entry.ID)
	}
}

func TestCompressRoundTrip(t *testing.T) {
	original := []byte(`{"key":"value","nested":{"list":[1,2,3]}}`)

	compressed, err := compress(original)
	require.NoError(t, err)

	restored, err := decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, original, restored)
}
