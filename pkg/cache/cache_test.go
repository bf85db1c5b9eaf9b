package cache

import (
	"bytes"
	"crypto/sha256"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/glorpus-work/cratesync/pkg/digest"
	"github.com/glorpus-work/cratesync/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := New(filepath.Join(t.TempDir(), "mirror"))
	require.NoError(t, err)
	return c
}

func testEntry(t *testing.T, name, version string, payload []byte) (*model.PackageEntry, []byte) {
	t.Helper()
	sum := sha256.Sum256(payload)
	var d digest.Digest
	copy(d[:], sum[:])
	return &model.PackageEntry{
		Name:     name,
		Version:  version,
		Checksum: d,
		Size:     int64(len(payload)),
	}, payload
}

func TestNew(t *testing.T) {
	t.Run("creates crates subtree", func(t *testing.T) {
		c := newTestCache(t)
		info, err := os.Stat(c.CratesPath())
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("empty path rejected", func(t *testing.T) {
		_, err := New("")
		assert.Error(t, err)
	})
}

func TestArchivePath(t *testing.T) {
	c := newTestCache(t)
	entry, _ := testEntry(t, "serde", "1.0.0", []byte("bytes"))
	assert.Equal(t, filepath.Join(c.CratesPath(), "serde", "1.0.0", "download"), c.ArchivePath(entry))
}

func TestLookup(t *testing.T) {
	c := newTestCache(t)
	entry, payload := testEntry(t, "serde", "1.0.0", []byte("serde archive bytes"))

	t.Run("absent", func(t *testing.T) {
		rec, err := c.Lookup(entry)
		require.NoError(t, err)
		assert.Nil(t, rec)
	})

	t.Run("present after commit", func(t *testing.T) {
		staged, err := c.Stage(entry, bytes.NewReader(payload))
		require.NoError(t, err)
		require.NoError(t, staged.Commit())

		rec, err := c.Lookup(entry)
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, int64(len(payload)), rec.Size)

		d, err := rec.Digest()
		require.NoError(t, err)
		assert.Equal(t, entry.Checksum, d)

		// Second digest call hits the memoized value even if the file
		// changes underneath.
		require.NoError(t, os.WriteFile(rec.Path, []byte("tampered"), 0o644))
		d2, err := rec.Digest()
		require.NoError(t, err)
		assert.Equal(t, d, d2)
	})
}

func TestStage(t *testing.T) {
	c := newTestCache(t)
	entry, payload := testEntry(t, "tokio", "1.38.0", []byte("tokio archive bytes"))

	staged, err := c.Stage(entry, bytes.NewReader(payload))
	require.NoError(t, err)

	assert.Equal(t, entry.Checksum, staged.Digest)
	assert.Equal(t, int64(len(payload)), staged.Size)

	// Nothing visible at the canonical path before commit.
	_, err = os.Stat(c.ArchivePath(entry))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, staged.Commit())

	data, err := os.ReadFile(c.ArchivePath(entry))
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestStageDiscard(t *testing.T) {
	c := newTestCache(t)
	entry, payload := testEntry(t, "rand", "0.8.5", []byte("rand archive bytes"))

	staged, err := c.Stage(entry, bytes.NewReader(payload))
	require.NoError(t, err)
	staged.Discard()

	// Neither the canonical path nor the temp file survive.
	_, err = os.Stat(c.ArchivePath(entry))
	assert.True(t, os.IsNotExist(err))

	entries, err := os.ReadDir(filepath.Dir(c.ArchivePath(entry)))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCommitOverwritesExisting(t *testing.T) {
	c := newTestCache(t)
	entry, payload := testEntry(t, "serde", "1.0.0", []byte("correct bytes"))

	// Simulate a tampered archive at the canonical path.
	require.NoError(t, os.MkdirAll(filepath.Dir(c.ArchivePath(entry)), 0o755))
	require.NoError(t, os.WriteFile(c.ArchivePath(entry), []byte("tampered bytes"), 0o644))

	staged, err := c.Stage(entry, bytes.NewReader(payload))
	require.NoError(t, err)
	require.NoError(t, staged.Commit())

	data, err := os.ReadFile(c.ArchivePath(entry))
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestRemoveOrphans(t *testing.T) {
	c := newTestCache(t)
	entry, payload := testEntry(t, "serde", "1.0.0", []byte("bytes"))

	staged, err := c.Stage(entry, bytes.NewReader(payload))
	require.NoError(t, err)
	require.NoError(t, staged.Commit())

	// An abandoned temp file from an interrupted run.
	orphan := filepath.Join(filepath.Dir(c.ArchivePath(entry)), ".dl-123456")
	require.NoError(t, os.WriteFile(orphan, []byte("partial"), 0o644))

	// An untracked file an operator dropped into the tree.
	untracked := filepath.Join(c.CratesPath(), "README")
	require.NoError(t, os.WriteFile(untracked, []byte("notes"), 0o644))

	removed, err := c.RemoveOrphans()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = os.Stat(orphan)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(untracked)
	assert.NoError(t, err)
	_, err = os.Stat(c.ArchivePath(entry))
	assert.NoError(t, err)
}

func TestStageFailurePropagates(t *testing.T) {
	c := newTestCache(t)
	entry, _ := testEntry(t, "serde", "1.0.0", []byte("bytes"))

	_, err := c.Stage(entry, &failingReader{})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "could not write archive"))
}

type failingReader struct{}

func (f *failingReader) Read([]byte) (int, error) {
	return 0, assert.AnError
}

func TestCommitSurvivesChmodFailure(t *testing.T) {
	orig := chmod
	chmod = func(string, os.FileMode) error { return os.ErrPermission }
	defer func() { chmod = orig }()

	c := newTestCache(t)
	entry, payload := testEntry(t, "serde", "1.0.0", []byte("archive bytes"))

	staged, err := c.Stage(entry, bytes.NewReader(payload))
	require.NoError(t, err)

	// The rename already made the archive durable.
	require.NoError(t, staged.Commit())

	data, err := os.ReadFile(c.ArchivePath(entry))
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestUntracked(t *testing.T) {
	c := newTestCache(t)

	listed, payload := testEntry(t, "serde", "1.0.0", []byte("serde bytes"))
	staged, err := c.Stage(listed, bytes.NewReader(payload))
	require.NoError(t, err)
	require.NoError(t, staged.Commit())

	unlisted, payload := testEntry(t, "legacy", "0.1.0", []byte("legacy bytes"))
	staged, err = c.Stage(unlisted, bytes.NewReader(payload))
	require.NoError(t, err)
	require.NoError(t, staged.Commit())

	// A stray file that is not shaped like a canonical archive path.
	stray := filepath.Join(c.CratesPath(), "download")
	require.NoError(t, os.WriteFile(stray, []byte("stray"), 0o644))

	known := map[model.EntryKey]struct{}{listed.Key(): {}}
	paths, err := c.Untracked(known)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{c.ArchivePath(unlisted), stray}, paths)
}

func TestUntrackedIgnoresTempFiles(t *testing.T) {
	c := newTestCache(t)

	entry, payload := testEntry(t, "serde", "1.0.0", []byte("serde bytes"))
	staged, err := c.Stage(entry, bytes.NewReader(payload))
	require.NoError(t, err)
	defer staged.Discard()

	paths, err := c.Untracked(map[model.EntryKey]struct{}{})
	require.NoError(t, err)
	assert.Empty(t, paths)
}
