//go:build integration

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/glorpus-work/cratesync/pkg/model"
	"github.com/glorpus-work/cratesync/test/testutil"
	"github.com/stretchr/testify/require"
)

// runCLI executes the root command in-process with the given arguments.
func runCLI(t *testing.T, args ...string) error {
	t.Helper()
	cmd := newRootCmd()
	cmd.SetArgs(args)
	return cmd.ExecuteContext(context.Background())
}

// newMirror creates a fresh cache against the registry and returns its path.
func newMirror(t *testing.T, reg *testutil.Registry) string {
	t.Helper()
	cacheDir := filepath.Join(t.TempDir(), "mirror")
	require.NoError(t, runCLI(t, "--path", cacheDir, "new", "--url", reg.IndexDir))
	return cacheDir
}

// archivePath returns where the mirror stores an entry's archive.
func archivePath(cacheDir string, entry model.PackageEntry) string {
	return filepath.Join(cacheDir, "crates", entry.Name, entry.Version, "download")
}

// requireArchive asserts the archive exists and carries the entry's checksum.
func requireArchive(t *testing.T, cacheDir string, entry model.PackageEntry) {
	t.Helper()
	body, err := os.ReadFile(archivePath(cacheDir, entry))
	require.NoError(t, err)
	require.Equal(t, entry.Size, int64(len(body)))

	sum := testutil.HashBytes(t, body)
	require.True(t, entry.Checksum.Equal(sum), "archive content does not match index checksum")
}
