package badger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/symfind/core"
	"github.com/poiesic/symfind/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	defer backend.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOpenBackend_NotADirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	_, err := OpenBackend(path, false)
	assert.Error(t, err)
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())
}

func testShard(key core.ShardKey, names ...string) *core.Shard {
	shard := &core.Shard{Key: key}
	for _, name := range names {
		shard.Entries = append(shard.Entries, core.NewEntry(name, core.Target{
			Label:  name,
			Anchor: "group__" + name + ".html",
			Kind:   core.KindNamespace,
		}))
	}
	return shard
}

func TestShardCache_PutGet(t *testing.T) {
	cache, backend, err := NewMemoryShardCache("ns1")
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()

	_, err = cache.GetShard(ctx, "a")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	shard := testShard("a", "acia6850", "addr_control_status")
	require.NoError(t, cache.PutShard(ctx, shard))

	got, err := cache.GetShard(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, shard.Key, got.Key)
	assert.Equal(t, shard.Entries, got.Entries)
}

func TestShardCache_NamespacesAreIsolated(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	first := NewShardCache(backend, "first")
	second := NewShardCache(backend, "second")

	require.NoError(t, first.PutShard(ctx, testShard("a", "apple")))

	_, err = second.GetShard(ctx, "a")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, second.PutShard(ctx, testShard("a", "azure")))
	require.NoError(t, first.Purge(ctx))

	_, err = first.GetShard(ctx, "a")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	got, err := second.GetShard(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "azure", got.Entries[0].Name)
}

func TestShardCache_Closed(t *testing.T) {
	cache, backend, err := NewMemoryShardCache("ns")
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	ctx := context.Background()
	_, err = cache.GetShard(ctx, "a")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	assert.ErrorIs(t, cache.PutShard(ctx, testShard("a")), storage.ErrStorageClosed)
	assert.ErrorIs(t, cache.Purge(ctx), storage.ErrStorageClosed)
	assert.NoError(t, cache.Close())
}

func TestOpenShardCache_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	cache, err := OpenShardCache(dir, "docs")
	require.NoError(t, err)
	require.NoError(t, cache.PutShard(ctx, testShard("t", "timer")))
	require.NoError(t, cache.Close())

	reopened, err := OpenShardCache(dir, "docs")
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetShard(ctx, "t")
	require.NoError(t, err)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, "timer", got.Entries[0].Name)
}
