// Package testutil provides a complete fake upstream registry for integration
// tests: a git index repository plus an HTTP server for the archives it lists.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/mholt/archives"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/cratesync/pkg/digest"
	"github.com/glorpus-work/cratesync/pkg/model"
)

// Registry is a fake upstream registry. IndexDir can be cloned with a local
// path URL; Server serves the registered archives.
type Registry struct {
	t        *testing.T
	IndexDir string
	Server   *httptest.Server

	repo *git.Repository

	mu       sync.Mutex
	archives map[string][]byte // request path -> archive bytes
}

// NewRegistry initialises an index repository with a config.json pointing at
// the registry's own archive server.
func NewRegistry(t *testing.T) *Registry {
	t.Helper()

	r := &Registry{
		t:        t,
		IndexDir: t.TempDir(),
		archives: make(map[string][]byte),
	}

	r.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.mu.Lock()
		body, ok := r.archives[req.URL.Path]
		r.mu.Unlock()
		if !ok {
			http.NotFound(w, req)
			return
		}
		_, _ = w.Write(body)
	}))
	t.Cleanup(r.Server.Close)

	repo, err := git.PlainInit(r.IndexDir, false)
	require.NoError(t, err)
	r.repo = repo

	r.writeFile("config.json", []byte(`{"dl":"`+r.Server.URL+`"}`))
	r.Commit("initialise index")
	return r
}

// AddCrate builds a crate archive from the given files, serves it, and
// appends its row to the index. The caller still has to Commit.
func (r *Registry) AddCrate(name, version string, files map[string]string) model.PackageEntry {
	r.t.Helper()

	body := BuildCrateArchive(r.t, files)
	sum, size, err := digest.Sum(bytes.NewReader(body))
	require.NoError(r.t, err)

	entry := model.PackageEntry{Name: name, Version: version, Checksum: sum, Size: size}

	r.mu.Lock()
	r.archives["/"+name+"/"+version+"/download"] = body
	r.mu.Unlock()

	row, err := json.Marshal(entry)
	require.NoError(r.t, err)
	r.appendLine(filepath.Join(entry.Prefix(), entry.Name), row)
	return entry
}

// CorruptArchive swaps the served bytes for an entry without touching the
// index, so downloads will fail their checksum gate.
func (r *Registry) CorruptArchive(entry model.PackageEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.archives["/"+entry.Name+"/"+entry.Version+"/download"] = []byte("not the real archive")
}

// DropArchive makes the server return 404 for an entry.
func (r *Registry) DropArchive(entry model.PackageEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.archives, "/"+entry.Name+"/"+entry.Version+"/download")
}

// Commit commits all pending index changes.
func (r *Registry) Commit(msg string) {
	r.t.Helper()
	wt, err := r.repo.Worktree()
	require.NoError(r.t, err)
	require.NoError(r.t, wt.AddGlob("."))
	_, err = wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(r.t, err)
}

func (r *Registry) writeFile(rel string, contents []byte) {
	r.t.Helper()
	path := filepath.Join(r.IndexDir, rel)
	require.NoError(r.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(r.t, os.WriteFile(path, contents, 0o644))
}

func (r *Registry) appendLine(rel string, row []byte) {
	r.t.Helper()
	existing, err := os.ReadFile(filepath.Join(r.IndexDir, rel))
	if err != nil {
		existing = nil
	}
	r.writeFile(rel, append(existing, append(row, '\n')...))
}

// HashBytes returns the digest of a byte slice.
func HashBytes(t *testing.T, body []byte) digest.Digest {
	t.Helper()
	sum, _, err := digest.Sum(bytes.NewReader(body))
	require.NoError(t, err)
	return sum
}

// BuildCrateArchive produces a gzipped tar archive holding the given files,
// the same shape cargo publishes.
func BuildCrateArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()

	srcDir := t.TempDir()
	for rel, contents := range files {
		path := filepath.Join(srcDir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	}

	ctx := context.Background()
	archiveFiles, err := archives.FilesFromDisk(ctx, nil, map[string]string{
		srcDir + string(os.PathSeparator): "",
	})
	require.NoError(t, err)

	format := archives.CompressedArchive{
		Compression: archives.Gz{},
		Archival:    archives.Tar{},
	}

	var buf bytes.Buffer
	require.NoError(t, format.Archive(ctx, &buf, archiveFiles))
	return buf.Bytes()
}
