//go:build integration

package main

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/glorpus-work/cratesync/internal/cli"
	"github.com/glorpus-work/cratesync/test/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ClonesIndex(t *testing.T) {
	reg := testutil.NewRegistry(t)
	cacheDir := newMirror(t, reg)

	// The index working copy and the archive root both exist.
	assert.FileExists(t, filepath.Join(cacheDir, "index", "config.json"))
	assert.DirExists(t, filepath.Join(cacheDir, "crates"))
}

func TestNew_FailsOnExistingIndex(t *testing.T) {
	reg := testutil.NewRegistry(t)
	cacheDir := newMirror(t, reg)

	err := runCLI(t, "--path", cacheDir, "new", "--url", reg.IndexDir)
	assert.Error(t, err)
}

func TestSync_DownloadsListedArchives(t *testing.T) {
	reg := testutil.NewRegistry(t)
	serde := reg.AddCrate("serde", "1.0.0", map[string]string{"src/lib.rs": "pub fn serialise() {}"})
	rand := reg.AddCrate("rand", "0.8.5", map[string]string{"src/lib.rs": "pub fn random() {}"})
	reg.Commit("add serde and rand")

	cacheDir := newMirror(t, reg)
	require.NoError(t, runCLI(t, "--path", cacheDir, "sync"))

	requireArchive(t, cacheDir, serde)
	requireArchive(t, cacheDir, rand)
}

func TestSync_SecondRunIsIdempotent(t *testing.T) {
	reg := testutil.NewRegistry(t)
	serde := reg.AddCrate("serde", "1.0.0", map[string]string{"src/lib.rs": "pub fn serialise() {}"})
	reg.Commit("add serde")

	cacheDir := newMirror(t, reg)
	require.NoError(t, runCLI(t, "--path", cacheDir, "sync"))

	first, err := os.Stat(archivePath(cacheDir, serde))
	require.NoError(t, err)

	require.NoError(t, runCLI(t, "--path", cacheDir, "sync"))

	second, err := os.Stat(archivePath(cacheDir, serde))
	require.NoError(t, err)
	assert.Equal(t, first.ModTime(), second.ModTime(), "present archive was rewritten")
}

func TestSync_PicksUpNewIndexEntries(t *testing.T) {
	reg := testutil.NewRegistry(t)
	serde := reg.AddCrate("serde", "1.0.0", map[string]string{"src/lib.rs": "pub fn serialise() {}"})
	reg.Commit("add serde")

	cacheDir := newMirror(t, reg)
	require.NoError(t, runCLI(t, "--path", cacheDir, "sync"))

	serde2 := reg.AddCrate("serde", "1.0.1", map[string]string{"src/lib.rs": "pub fn serialise_more() {}"})
	reg.Commit("add serde 1.0.1")

	require.NoError(t, runCLI(t, "--path", cacheDir, "sync"))
	requireArchive(t, cacheDir, serde)
	requireArchive(t, cacheDir, serde2)
}

func TestSync_PartialFailureIsResumable(t *testing.T) {
	reg := testutil.NewRegistry(t)
	serde := reg.AddCrate("serde", "1.0.0", map[string]string{"src/lib.rs": "pub fn serialise() {}"})
	rand := reg.AddCrate("rand", "0.8.5", map[string]string{"src/lib.rs": "pub fn random() {}"})
	reg.Commit("add serde and rand")
	reg.DropArchive(rand)

	cacheDir := newMirror(t, reg)

	err := runCLI(t, "--path", cacheDir, "sync")
	require.Error(t, err)
	var partial *cli.PartialFailureError
	require.True(t, errors.As(err, &partial))
	assert.Equal(t, 1, partial.Failed)

	// The healthy sibling was still committed.
	requireArchive(t, cacheDir, serde)
	assert.NoFileExists(t, archivePath(cacheDir, rand))

	// Once upstream recovers, a re-run fetches only the missing archive.
	reg.AddCrate("rand", "0.8.5", map[string]string{"src/lib.rs": "pub fn random() {}"})
	require.NoError(t, runCLI(t, "--path", cacheDir, "sync"))
	requireArchive(t, cacheDir, rand)
}

func TestSync_CorruptUpstreamNeverCommits(t *testing.T) {
	reg := testutil.NewRegistry(t)
	serde := reg.AddCrate("serde", "1.0.0", map[string]string{"src/lib.rs": "pub fn serialise() {}"})
	reg.Commit("add serde")
	reg.CorruptArchive(serde)

	cacheDir := newMirror(t, reg)

	err := runCLI(t, "--path", cacheDir, "sync")
	require.Error(t, err)

	// No archive and no leaked temp files.
	assert.NoFileExists(t, archivePath(cacheDir, serde))
	require.NoError(t, filepath.WalkDir(filepath.Join(cacheDir, "crates"), func(path string, d fs.DirEntry, err error) error {
		require.NoError(t, err)
		assert.NotContains(t, d.Name(), ".dl-")
		return nil
	}))
}
