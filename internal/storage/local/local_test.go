package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yepcord/server-sub002/internal/model"
)

func TestFileStore_RoundTrip(t *testing.T) {
	root := t.TempDir()
	s, err := New(filepath.Join(root, "files"))
	require.NoError(t, err)
	ctx := context.Background()

	key := "attachments/1/2/cat.txt"
	require.NoError(t, s.Upload(ctx, key, strings.NewReader("meow")))

	ok, err := s.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := s.Download(ctx, key)
	require.NoError(t, err)
	raw, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "meow", string(raw))

	entries, err := os.ReadDir(filepath.Join(root, "files", "attachments", "1", "2"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, s.Delete(ctx, key))
	ok, err = s.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, s.Delete(ctx, key))
}

func TestFileStore_Missing(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = s.Download(context.Background(), "nope")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestFileStore_InvalidKeys(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "/", "../secret", "a/../../b"} {
		t.Run(key, func(t *testing.T) {
			assert.ErrorIs(t, s.Upload(context.Background(), key, strings.NewReader("x")), ErrInvalidKey)
			_, err := s.Exists(context.Background(), key)
			assert.ErrorIs(t, err, ErrInvalidKey)
		})
	}
}
