package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asis-server/internal/domain"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newStore(t *testing.T) (*Store, string) {
	t.Helper()
	base := t.TempDir()
	root := filepath.Join(base, "root")
	writeFile(t, filepath.Join(root, "basic", "basic.asis"), "HTTP/1.1 200 OK\n\ntest page")
	writeFile(t, filepath.Join(base, "secret.asis"), "HTTP/1.1 200 OK\n\nsecret")
	store, err := NewStore(root)
	require.NoError(t, err)
	return store, base
}

func TestOpen(t *testing.T) {
	store, _ := newStore(t)

	doc, err := store.Open(context.Background(), "/basic/basic.asis")
	require.NoError(t, err)
	assert.Equal(t, "/basic/basic.asis", doc.Path)
	assert.Equal(t, "HTTP/1.1 200 OK\n\ntest page", string(doc.Raw))
}

func TestOpenNotFound(t *testing.T) {
	store, base := newStore(t)
	require.NoError(t, os.Symlink(filepath.Join(base, "secret.asis"), filepath.Join(store.Root(), "escape.asis")))
	require.NoError(t, os.Symlink(base, filepath.Join(store.Root(), "up")))

	paths := []string{
		"/basis/alksjdlfwoieuroaksjd;lfkjas",
		"/basic",
		"/basic/",
		"/",
		"",
		"/../secret.asis",
		"/basic/../../secret.asis",
		"..",
		"/escape.asis",
		"/up/secret.asis",
		"/basic/basic.asis\x00",
	}
	for _, p := range paths {
		t.Run(p, func(t *testing.T) {
			_, err := store.Open(context.Background(), p)
			assert.ErrorIs(t, err, domain.ErrNotFound)
		})
	}
}

func TestResolveFollowsSymlinksInsideRoot(t *testing.T) {
	store, _ := newStore(t)
	require.NoError(t, os.Symlink(filepath.Join(store.Root(), "basic", "basic.asis"), filepath.Join(store.Root(), "alias.asis")))

	p, err := store.Resolve("/alias.asis")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(store.Root(), "basic", "basic.asis"), p)
}

func TestOpenCanceled(t *testing.T) {
	store, _ := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Open(ctx, "/basic/basic.asis")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewStoreRejectsFile(t *testing.T) {
	_, base := newStore(t)
	_, err := NewStore(filepath.Join(base, "secret.asis"))
	assert.Error(t, err)

	_, err = NewStore(filepath.Join(base, "missing"))
	assert.Error(t, err)
}
