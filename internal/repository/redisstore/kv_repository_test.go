package redisstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKVTest(t *testing.T) (*KVRepository, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return NewKVRepository(rdb, "test:"), mr
}

func TestKVRepository_SetGetRemove(t *testing.T) {
	ctx := context.Background()
	repo, mr := newKVTest(t)

	_, found, err := repo.Get(ctx, "userData")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repo.Set(ctx, "userData", `{"token":"abc"}`))
	raw, err := mr.Get("test:kv:userData")
	require.NoError(t, err)
	assert.Equal(t, `{"token":"abc"}`, raw)

	value, found, err := repo.Get(ctx, "userData")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"token":"abc"}`, value)

	require.NoError(t, repo.Remove(ctx, "userData"))
	require.NoError(t, repo.Remove(ctx, "userData"))
	assert.False(t, mr.Exists("test:kv:userData"))
}

func TestKVRepository_ServerDown(t *testing.T) {
	ctx := context.Background()
	repo, mr := newKVTest(t)
	mr.Close()

	_, _, err := repo.Get(ctx, "userData")
	assert.Error(t, err)
	assert.Error(t, repo.Set(ctx, "userData", "x"))
}
