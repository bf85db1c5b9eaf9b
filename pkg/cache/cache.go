// Package cache owns the on-disk layout of a registry mirror: the index
// working copy and the tree of downloaded archives.
package cache

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/glorpus-work/cratesync/internal/logger"
	"github.com/glorpus-work/cratesync/pkg/digest"
	"github.com/glorpus-work/cratesync/pkg/errors"
	"github.com/glorpus-work/cratesync/pkg/fsutil"
	"github.com/glorpus-work/cratesync/pkg/model"
)

const (
	// IndexSubdirectory holds the index working copy.
	IndexSubdirectory = "index"

	// CratesSubdirectory holds the downloaded archives.
	CratesSubdirectory = "crates"

	// archiveFilename is the final path component of every archive, mirroring
	// the download URL shape static servers expose.
	archiveFilename = "download"

	// tempPrefix marks in-flight downloads. Temp files live next to the
	// crates tree so the final rename never crosses a filesystem boundary.
	tempPrefix = ".dl-"
)

// Cache is a local mirror directory. The engine exclusively owns writes to
// the crates subtree and only reads the index subtree.
type Cache struct {
	path string
}

// New returns a cache rooted at path, creating the crates subtree if needed.
func New(path string) (*Cache, error) {
	if path == "" {
		return nil, errors.ErrCacheDirectory
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidPath, err.Error())
	}
	if err := os.MkdirAll(filepath.Join(abs, CratesSubdirectory), fsutil.DirModeDefault); err != nil {
		return nil, errors.Wrap(err, "could not create crates directory")
	}
	return &Cache{path: abs}, nil
}

// Path returns the cache root.
func (c *Cache) Path() string {
	return c.path
}

// IndexPath returns the location of the index working copy.
func (c *Cache) IndexPath() string {
	return filepath.Join(c.path, IndexSubdirectory)
}

// CratesPath returns the root of the archives tree.
func (c *Cache) CratesPath() string {
	return filepath.Join(c.path, CratesSubdirectory)
}

// ArchivePath returns the canonical path for an entry's archive. The archive
// is not guaranteed to exist.
func (c *Cache) ArchivePath(entry *model.PackageEntry) string {
	return filepath.Join(c.CratesPath(), entry.Name, entry.Version, archiveFilename)
}

// Record describes an archive present on disk. The digest is computed lazily
// because sync trusts presence while verify recomputes.
type Record struct {
	Path string
	Size int64

	digest   digest.Digest
	digested bool
}

// Digest returns the archive's content digest, computing and memoizing it on
// first use.
func (r *Record) Digest() (digest.Digest, error) {
	if r.digested {
		return r.digest, nil
	}
	d, _, err := digest.SumFile(r.Path)
	if err != nil {
		return digest.Digest{}, err
	}
	r.digest = d
	r.digested = true
	return d, nil
}

// Lookup stats the canonical path for an entry. A nil record means the
// archive is absent.
func (c *Cache) Lookup(entry *model.PackageEntry) (*Record, error) {
	path := c.ArchivePath(entry)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to stat archive for %s", entry.ID())
	}
	if info.IsDir() {
		return nil, errors.Wrapf(errors.ErrInvalidPath, "archive path for %s is a directory", entry.ID())
	}
	return &Record{Path: path, Size: info.Size()}, nil
}

// Staged is an archive written to a temporary location but not yet visible at
// its canonical path. Callers verify the digest and size, then either Commit
// or Discard.
type Staged struct {
	cache    *Cache
	entry    *model.PackageEntry
	tempPath string

	// Digest and Size describe the staged bytes.
	Digest digest.Digest
	Size   int64
}

// Stage streams r into a temporary file inside the crates tree, hashing as it
// writes. Nothing is observable at the canonical path until Commit.
func (c *Cache) Stage(entry *model.PackageEntry, r io.Reader) (*Staged, error) {
	dir := filepath.Dir(c.ArchivePath(entry))
	if err := os.MkdirAll(dir, fsutil.DirModeDefault); err != nil {
		return nil, errors.Wrap(err, "could not create archive directory")
	}

	tmp, err := os.CreateTemp(dir, tempPrefix+"*")
	if err != nil {
		return nil, errors.Wrap(err, "could not create temp file")
	}
	tempPath := tmp.Name()

	dw := digest.NewWriter(tmp)
	if _, err := io.Copy(dw, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tempPath)
		return nil, errors.Wrap(err, "could not write archive")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tempPath)
		return nil, errors.Wrap(err, "could not sync archive")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return nil, errors.Wrap(err, "could not close archive")
	}

	return &Staged{
		cache:    c,
		entry:    entry,
		tempPath: tempPath,
		Digest:   dw.Digest(),
		Size:     dw.Written(),
	}, nil
}

// chmod is swapped out in tests.
var chmod = os.Chmod

// Commit atomically renames the staged file onto the canonical path. A crash
// before the rename leaves only an orphaned temp file; readers never observe
// a partial archive.
func (s *Staged) Commit() error {
	path := s.cache.ArchivePath(s.entry)
	if err := fsutil.Move(s.tempPath, path); err != nil {
		_ = os.Remove(s.tempPath)
		return errors.Wrap(err, "could not finalize archive")
	}
	// The rename made the verified archive durable; failing to widen its
	// permissions must not report the item as uncommitted.
	if err := chmod(path, fsutil.FileModeDefault); err != nil {
		logger.Warn("could not set archive permissions", logger.Fields{
			"path":  path,
			"error": err.Error(),
		})
	}
	return nil
}

// Discard removes the staged file without touching the canonical path.
func (s *Staged) Discard() {
	_ = os.Remove(s.tempPath)
}

// Untracked returns the canonical archive paths whose (name, version) is not
// in known. Used to report entries the index no longer lists; the cache is
// append/repair-only, so callers log these and keep them.
func (c *Cache) Untracked(known map[model.EntryKey]struct{}) ([]string, error) {
	root := c.CratesPath()
	var untracked []string

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() != archiveFilename {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		// Canonical paths are crates/<name>/<version>/download; anything
		// shaped differently is untracked by definition.
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) != 3 {
			untracked = append(untracked, path)
			return nil
		}
		if _, ok := known[model.EntryKey{Name: parts[0], Version: parts[1]}]; !ok {
			untracked = append(untracked, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan for untracked archives")
	}
	return untracked, nil
}

// RemoveOrphans deletes leftover temp files from interrupted runs. Committed
// archives and untracked files are never touched.
func (c *Cache) RemoveOrphans() (int, error) {
	removed := 0
	err := filepath.WalkDir(c.CratesPath(), func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if len(d.Name()) > len(tempPrefix) && d.Name()[:len(tempPrefix)] == tempPrefix {
			if err := os.Remove(path); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return removed, errors.Wrap(err, "failed to sweep orphaned downloads")
	}
	return removed, nil
}
