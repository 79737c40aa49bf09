package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asis-server/internal/domain"
)

func TestDocuments(t *testing.T) {
	ctx := context.Background()
	s := NewStore(10, time.Hour)
	raw := []byte("HTTP/1.1 200 OK\n\nhello")
	s.Put("basic/basic.asis", raw)
	raw[0] = 'X'

	doc, err := s.Open(ctx, "/basic/basic.asis")
	require.NoError(t, err)
	assert.Equal(t, "HTTP/1.1 200 OK\n\nhello", string(doc.Raw))

	doc.Raw[0] = 'Y'
	again, err := s.Open(ctx, "/basic//basic.asis")
	require.NoError(t, err)
	assert.Equal(t, byte('H'), again.Raw[0])

	s.Delete("/basic/basic.asis")
	_, err = s.Open(ctx, "/basic/basic.asis")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestServedHistoryCapacity(t *testing.T) {
	ctx := context.Background()
	s := NewStore(3, 0)
	for _, p := range []string{"/a", "/b", "/c", "/d"} {
		require.NoError(t, s.AppendServed(ctx, domain.ServedDocument{Path: p, StartedAt: time.Now()}))
	}

	all, err := s.ListServed(ctx, 0)
	require.NoError(t, err)
	paths := make([]string, 0, len(all))
	for _, d := range all {
		paths = append(paths, d.Path)
	}
	assert.Equal(t, []string{"/d", "/c", "/b"}, paths)
	assert.Equal(t, 1, s.Evictions())

	two, err := s.ListServed(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, two, 2)

	require.NoError(t, s.ClearServed(ctx))
	all, err = s.ListServed(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestServedHistoryTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore(10, time.Minute)
	s.now = func() time.Time { return now }

	require.NoError(t, s.AppendServed(ctx, domain.ServedDocument{Path: "/old", StartedAt: now.Add(-2 * time.Minute)}))
	require.NoError(t, s.AppendServed(ctx, domain.ServedDocument{Path: "/new", StartedAt: now}))

	all, err := s.ListServed(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "/new", all[0].Path)
}
