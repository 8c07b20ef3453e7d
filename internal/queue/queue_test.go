package queue

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shorts-pipeline/internal/types"
)

func writeAged(t *testing.T, dir, name string, mtime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("data-"+name), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
	return path
}

func names(artifacts []types.Artifact) []string {
	out := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		out = append(out, a.Name)
	}
	return out
}

func TestListPendingMissingDirIsEmpty(t *testing.T) {
	q := New(filepath.Join(t.TempDir(), "does-not-exist"), ".mp4")

	got := q.ListPending()
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestListPendingUnreadableDirIsEmpty(t *testing.T) {
	notDir := filepath.Join(t.TempDir(), "queue")
	require.NoError(t, os.WriteFile(notDir, []byte("not a directory"), 0o644))
	q := New(notDir, ".mp4")

	got := q.ListPending()
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestListPendingOrdersOldestFirstAndFilters(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	writeAged(t, dir, "c.mp4", base.Add(3*time.Minute))
	writeAged(t, dir, "a.mp4", base.Add(1*time.Minute))
	writeAged(t, dir, "b.MP4", base.Add(2*time.Minute))
	writeAged(t, dir, "notes.txt", base)
	writeAged(t, dir, "a.json", base)
	writeAged(t, dir, ".partial-123.mp4", base)
	writeAged(t, dir, ".hidden.mp4", base)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.mp4"), 0o755))

	got := New(dir, "mp4").ListPending()
	assert.Equal(t, []string{"a.mp4", "b.MP4", "c.mp4"}, names(got))
	for _, a := range got {
		assert.True(t, filepath.IsAbs(a.Path))
		assert.NotZero(t, a.SizeBytes)
	}
}

func TestListPendingTiesAreStableByName(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	writeAged(t, dir, "y.mp4", at)
	writeAged(t, dir, "x.mp4", at)
	writeAged(t, dir, "z.mp4", at)

	q := New(dir, ".mp4")
	first := names(q.ListPending())
	assert.Equal(t, []string{"x.mp4", "y.mp4", "z.mp4"}, first)
	assert.Equal(t, first, names(q.ListPending()))
}

func TestRemoveIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeAged(t, dir, "a.mp4", time.Now())
	q := New(dir, ".mp4")
	require.NoError(t, q.WriteMetadata("a.mp4", types.VideoMetadata{Title: "A"}))

	pending := q.ListPending()
	require.Len(t, pending, 1)

	require.NoError(t, q.Remove(pending[0]))
	require.NoError(t, q.Remove(pending[0]))

	assert.Empty(t, q.ListPending())
	_, err := os.Stat(filepath.Join(dir, "a.json"))
	assert.True(t, os.IsNotExist(err), "sidecar removed with the artifact")
}

func TestCommitPlacesFileAtomically(t *testing.T) {
	work := t.TempDir()
	src := filepath.Join(work, "render.mp4")
	require.NoError(t, os.WriteFile(src, []byte("rendered video"), 0o644))

	dir := filepath.Join(t.TempDir(), "queue")
	q := New(dir, ".mp4")

	a, err := q.Commit(src, "short-1")
	require.NoError(t, err)
	assert.Equal(t, "short-1.mp4", a.Name)

	data, err := os.ReadFile(a.Path)
	require.NoError(t, err)
	assert.Equal(t, "rendered video", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no partial files left behind")

	_, err = q.Commit(src, "short-1.mp4")
	assert.Error(t, err, "committing over an existing artifact is refused")
}

func TestQueuedAndRemoveMetadata(t *testing.T) {
	dir := t.TempDir()
	q := New(dir, ".mp4")
	writeAged(t, dir, "clip.mp4", time.Now())
	require.NoError(t, q.WriteMetadata("clip", types.VideoMetadata{Title: "t"}))

	assert.True(t, q.Queued("clip"))
	assert.True(t, q.Queued("clip.mp4"))
	assert.False(t, q.Queued("other.mp4"))

	require.NoError(t, q.RemoveMetadata("clip.mp4"))
	require.NoError(t, q.RemoveMetadata("clip.mp4"))
	assert.NoFileExists(t, filepath.Join(dir, "clip.json"))
	assert.FileExists(t, filepath.Join(dir, "clip.mp4"), "artifact kept")
}

func TestCommitMissingSourceLeavesQueueUntouched(t *testing.T) {
	dir := t.TempDir()
	q := New(dir, ".mp4")

	_, err := q.Commit(filepath.Join(dir, "nope.mp4"), "")
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMetadataRoundTripAndAbsence(t *testing.T) {
	dir := t.TempDir()
	q := New(dir, ".mp4")
	path := writeAged(t, dir, "clip.mp4", time.Now())
	a := types.Artifact{Path: path, Name: "clip.mp4"}

	_, ok, err := q.ReadMetadata(a)
	require.NoError(t, err)
	assert.False(t, ok)

	meta := types.VideoMetadata{Title: "Top memes", Tags: []string{"memes"}, Credits: []string{"u/someone"}}
	require.NoError(t, q.WriteMetadata("clip", meta))

	got, ok, err := q.ReadMetadata(a)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, meta, got)
	assert.Len(t, q.ListPending(), 1, "sidecar is not an artifact")
}
