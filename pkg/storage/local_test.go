package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageLifecycle(t *testing.T) {
	ctx := context.Background()
	s, err := New(ctx, Config{Driver: "local", Local: LocalConfig{BasePath: t.TempDir()}})
	require.NoError(t, err)

	ok, err := s.Exists(ctx, "avatars/u-1.jpg")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Write(ctx, "avatars/u-1.jpg", strings.NewReader("jpeg-bytes"), 10, "image/jpeg"))

	ok, err = s.Exists(ctx, "avatars/u-1.jpg")
	require.NoError(t, err)
	assert.True(t, ok)

	obj, err := s.Read(ctx, "avatars/u-1.jpg")
	require.NoError(t, err)
	data, err := io.ReadAll(obj.Body)
	require.NoError(t, obj.Body.Close())
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))
	assert.Equal(t, int64(10), obj.Size)
	assert.Equal(t, "image/jpeg", obj.ContentType)

	require.NoError(t, s.Delete(ctx, "avatars/u-1.jpg"))
	require.NoError(t, s.Delete(ctx, "avatars/u-1.jpg"))

	_, err = s.Read(ctx, "avatars/u-1.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStorageKeysStayInsideBase(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	s, err := NewLocalStorage(LocalConfig{BasePath: base})
	require.NoError(t, err)

	require.NoError(t, s.Write(ctx, "../../escape.txt", strings.NewReader("x"), 1, ""))
	ok, err := s.Exists(ctx, "escape.txt")
	require.NoError(t, err)
	assert.True(t, ok, "traversal is folded back under the base path")

	assert.Error(t, s.Write(ctx, "", strings.NewReader("x"), 1, ""))
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New(context.Background(), Config{Driver: "ftp"})
	assert.Error(t, err)
}
