package cartstatus

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/factorysim/core/model"
)

func stores(t *testing.T) map[string]Store {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  NewRedisStore(client),
	}
}

func TestStore_SetGetFilter(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Set(ctx, Status{CartID: "cart-2", CurrentStatus: "moving", Position: model.Pos(10, 20)}))
			require.NoError(t, s.Set(ctx, Status{CartID: "cart-1", CurrentStatus: "idle"}))

			st, ok, err := s.Get(ctx, "cart-2")
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, model.Pos(10, 20), st.Position)

			_, ok, err = s.Get(ctx, "cart-9")
			require.NoError(t, err)
			require.False(t, ok)

			all, err := s.List(ctx, Filter{})
			require.NoError(t, err)
			require.Len(t, all, 2)
			require.Equal(t, "cart-1", all[0].CartID)

			moving, err := s.List(ctx, Filter{Status: "moving"})
			require.NoError(t, err)
			require.Len(t, moving, 1)
			require.Equal(t, "cart-2", moving[0].CartID)
		})
	}
}

func TestStore_CompletedSurvivesSet(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			n, err := s.IncrementCompleted(ctx, "cart-1")
			require.NoError(t, err)
			require.EqualValues(t, 1, n)
			n, err = s.IncrementCompleted(ctx, "cart-1")
			require.NoError(t, err)
			require.EqualValues(t, 2, n)

			require.NoError(t, s.Set(ctx, Status{CartID: "cart-1", CurrentStatus: "idle", Completed: 99}))
			st, ok, err := s.Get(ctx, "cart-1")
			require.NoError(t, err)
			require.True(t, ok)
			require.EqualValues(t, 2, st.Completed)
		})
	}
}

func TestRedisStore_Remove(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	ctx := context.Background()
	s := NewRedisStore(client)

	require.NoError(t, s.Set(ctx, Status{CartID: "cart-1", CurrentStatus: "idle"}))
	require.True(t, mr.Exists("factorysim:cart:cart-1:status"))
	require.NoError(t, s.Remove(ctx, "cart-1"))
	require.False(t, mr.Exists("factorysim:cart:cart-1:status"))

	all, err := s.List(ctx, Filter{})
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestNewRedisStoreAddr_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	if _, err := NewRedisStoreAddr(context.Background(), addr); err == nil {
		t.Fatalf("expected ping error")
	}
}
