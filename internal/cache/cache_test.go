package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type snapshot struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestGetOrLoadReadsThrough(t *testing.T) {
	c := New(NewMemory(), time.Minute)
	ctx := context.Background()
	id := uuid.New()

	loads := 0
	load := func(context.Context) (snapshot, error) {
		loads++
		return snapshot{Name: "cup", Count: loads}, nil
	}

	first, err := GetOrLoad(ctx, c, id, "snapshot", load)
	require.NoError(t, err)
	second, err := GetOrLoad(ctx, c, id, "snapshot", load)
	require.NoError(t, err)

	assert.Equal(t, 1, loads)
	assert.Equal(t, first, second)

	require.NoError(t, c.Invalidate(ctx, id))
	third, err := GetOrLoad(ctx, c, id, "snapshot", load)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
	assert.Equal(t, 2, third.Count)
}

func TestInvalidateIsPerTournament(t *testing.T) {
	c := New(NewMemory(), time.Minute)
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()

	loads := map[uuid.UUID]int{}
	loader := func(id uuid.UUID) func(context.Context) (int, error) {
		return func(context.Context) (int, error) {
			loads[id]++
			return loads[id], nil
		}
	}

	for _, id := range []uuid.UUID{a, b} {
		_, err := GetOrLoad(ctx, c, id, "standings", loader(id))
		require.NoError(t, err)
	}
	require.NoError(t, c.Invalidate(ctx, a))
	for _, id := range []uuid.UUID{a, b} {
		_, err := GetOrLoad(ctx, c, id, "standings", loader(id))
		require.NoError(t, err)
	}

	assert.Equal(t, 2, loads[a])
	assert.Equal(t, 1, loads[b])
}

func TestLoadErrorIsNotCached(t *testing.T) {
	c := New(NewMemory(), time.Minute)
	ctx := context.Background()
	id := uuid.New()
	boom := errors.New("store unreachable")

	_, err := GetOrLoad(ctx, c, id, "snapshot", func(context.Context) (snapshot, error) {
		return snapshot{}, boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := GetOrLoad(ctx, c, id, "snapshot", func(context.Context) (snapshot, error) {
		return snapshot{Name: "ok"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got.Name)
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory()
	now := time.Now()
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Second))
	v, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)

	now = now.Add(2 * time.Second)
	_, ok, err = m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}
