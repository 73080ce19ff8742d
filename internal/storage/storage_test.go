package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSizeDelete(t *testing.T) {
	ctx := context.Background()
	b := NewMemBucket()
	p := "recordings/u1/r1/source.mp4"

	n, err := b.Write(ctx, p, strings.NewReader("0123456789"))
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)

	size, err := b.Size(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, int64(10), size)

	rc, err := b.Open(ctx, p)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(body))

	require.NoError(t, b.Delete(ctx, p))
	require.NoError(t, b.Delete(ctx, p), "deleting a missing object is fine")

	ok, err := b.Exists(ctx, p)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = b.Size(ctx, p)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestFailedWriteLeavesNoObject(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	b := New(fs)

	_, err := b.Write(ctx, "recordings/u1/r1/source.mp4", io.MultiReader(strings.NewReader("partial"), failingReader{}))
	require.Error(t, err)

	ok, err := b.Exists(ctx, "recordings/u1/r1/source.mp4")
	require.NoError(t, err)
	assert.False(t, ok)

	entries, err := afero.ReadDir(fs, "recordings/u1/r1")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRejectsEscapingPaths(t *testing.T) {
	_, err := NewMemBucket().Write(context.Background(), "../etc/passwd", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestHealthCheck(t *testing.T) {
	b := NewMemBucket()
	require.NoError(t, b.HealthCheck(context.Background()))

	ok, err := b.Exists(context.Background(), healthCheckObject)
	require.NoError(t, err)
	assert.True(t, ok)
}
