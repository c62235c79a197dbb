package sync

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/storefront/catalogsync/internal/domain/catalog"
)

func writeImage(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("\xff\xd8\xff"), 0o644))
	return path
}

func TestMediaResolver_EmptyRefNoCall(t *testing.T) {
	remote := newFakeRemote()
	resolver := NewMediaResolver(remote, testLimiter(), t.TempDir(), zap.NewNop())

	id, url, err := resolver.Resolve(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Zero(t, id)
	assert.Empty(t, url)
	assert.Empty(t, remote.calls)
}

func TestMediaResolver_MissingFileProceedsWithoutImage(t *testing.T) {
	remote := newFakeRemote()
	resolver := NewMediaResolver(remote, testLimiter(), t.TempDir(), zap.NewNop())

	id, url, err := resolver.Resolve(context.Background(), "nope.jpg", nil)
	require.NoError(t, err, "a missing local file is not a record failure")
	assert.Zero(t, id)
	assert.Empty(t, url)
	assert.Empty(t, remote.calls)
}

func TestMediaResolver_UploadsNewFile(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "laptop.jpg")
	remote := newFakeRemote()
	resolver := NewMediaResolver(remote, testLimiter(), dir, zap.NewNop())

	id, url, err := resolver.Resolve(context.Background(), "laptop.jpg", nil)
	require.NoError(t, err)
	assert.NotZero(t, id)
	assert.NotEmpty(t, url)
	assert.Len(t, remote.callsWithPrefix("upload-media:"), 1)
}

func TestMediaResolver_ReusesExistingRemote(t *testing.T) {
	dir := t.TempDir()
	path := writeImage(t, dir, "laptop.jpg")
	remote := newFakeRemote()
	resolver := NewMediaResolver(remote, testLimiter(), dir, zap.NewNop())

	existing := []catalog.RemoteMedia{{ID: 9, SourceURL: path}}
	id, url, err := resolver.Resolve(context.Background(), "laptop.jpg", existing)
	require.NoError(t, err)

	assert.Equal(t, int64(9), id)
	assert.Equal(t, path, url)
	assert.Empty(t, remote.callsWithPrefix("upload-media:"))
}

func TestMediaResolver_DedupWithinRun(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "shared.jpg")
	remote := newFakeRemote()
	resolver := NewMediaResolver(remote, testLimiter(), dir, zap.NewNop())

	firstID, firstURL, err := resolver.Resolve(context.Background(), "shared.jpg", nil)
	require.NoError(t, err)
	secondID, secondURL, err := resolver.Resolve(context.Background(), "shared.jpg", nil)
	require.NoError(t, err)

	assert.Equal(t, firstID, secondID)
	assert.Equal(t, firstURL, secondURL)
	assert.Len(t, remote.callsWithPrefix("upload-media:"), 1, "same path must upload once per run")
}

func TestMediaResolver_UploadConflictDegrades(t *testing.T) {
	dir := t.TempDir()
	path := writeImage(t, dir, "laptop.jpg")
	remote := newFakeRemote()
	remote.uploadErr[path] = conflictErr("media", "term_exists")
	resolver := NewMediaResolver(remote, testLimiter(), dir, zap.NewNop())

	id, url, err := resolver.Resolve(context.Background(), "laptop.jpg", nil)
	require.NoError(t, err, "an upload conflict must not fail the record")
	assert.Zero(t, id)
	assert.Empty(t, url)
}

func TestMediaResolver_UploadErrorPropagates(t *testing.T) {
	dir := t.TempDir()
	path := writeImage(t, dir, "laptop.jpg")
	remote := newFakeRemote()
	remote.uploadErr[path] = errors.New("connection reset")
	resolver := NewMediaResolver(remote, testLimiter(), dir, zap.NewNop())

	_, _, err := resolver.Resolve(context.Background(), "laptop.jpg", nil)
	require.Error(t, err)
}

func TestMediaResolver_AcquiresLimiterPerUpload(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "a.jpg")
	writeImage(t, dir, "b.jpg")
	remote := newFakeRemote()
	limiter := &countingLimiter{}
	resolver := NewMediaResolver(remote, limiter, dir, zap.NewNop())

	_, _, err := resolver.Resolve(context.Background(), "a.jpg", nil)
	require.NoError(t, err)
	_, _, err = resolver.Resolve(context.Background(), "b.jpg", nil)
	require.NoError(t, err)
	_, _, err = resolver.Resolve(context.Background(), "a.jpg", nil)
	require.NoError(t, err)

	assert.Equal(t, 2, limiter.count(), "only real uploads pass through the limiter")
}
