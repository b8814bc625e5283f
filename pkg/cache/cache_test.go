package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/stockroom/pkg/cache"
)

func TestSetGetDel(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	c, err := cache.Connect(ctx, mr.Addr(), "")
	require.NoError(t, err)
	defer c.Close()

	type payload struct {
		Name  string
		Count int
	}
	require.NoError(t, c.Set(ctx, "k", payload{"a", 2}, time.Minute))
	assert.True(t, mr.Exists("stockroom:k"))

	var got payload
	require.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, payload{"a", 2}, got)

	require.NoError(t, c.Del(ctx, "k"))
	assert.ErrorIs(t, c.Get(ctx, "k", &got), cache.ErrMiss)
}

func TestExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	c, err := cache.Connect(ctx, mr.Addr(), "")
	require.NoError(t, err)

	require.NoError(t, c.Set(ctx, "short", 1, time.Second))
	mr.FastForward(2 * time.Second)

	var n int
	assert.ErrorIs(t, c.Get(ctx, "short", &n), cache.ErrMiss)
}

func TestConnectFailure(t *testing.T) {
	_, err := cache.Connect(context.Background(), "127.0.0.1:1", "")
	assert.Error(t, err)
}
