// Package index reads the git-hosted registry index: it maintains the local
// working copy and parses it into a catalog of package entries.
package index

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"

	"github.com/glorpus-work/cratesync/internal/logger"
	"github.com/glorpus-work/cratesync/pkg/errors"
	"github.com/glorpus-work/cratesync/pkg/model"
)

// ConfigurationFilename is the name of the registry configuration file at the
// index root.
const ConfigurationFilename = "config.json"

// Index is a local working copy of a registry index repository.
type Index struct {
	path string
	repo *git.Repository
}

// Clone materializes a working copy of the index at url into dir.
func Clone(ctx context.Context, url, dir string) (*Index, error) {
	repo, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL: url,
	})
	if err != nil {
		if err == git.ErrRepositoryAlreadyExists {
			return nil, errors.Wrapf(errors.ErrIndexExists, "index already cloned at %s", dir)
		}
		return nil, errors.Wrapf(errors.ErrIndexUnavailable, "failed to clone index from %s: %v", url, err)
	}

	logger.Debug("cloned index", logger.Fields{"url": url, "path": dir})
	return &Index{path: dir, repo: repo}, nil
}

// Open opens an existing index working copy at dir.
func Open(dir string) (*Index, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		if err == git.ErrRepositoryNotExists {
			return nil, errors.Wrapf(errors.ErrIndexNotFound, "no index working copy at %s", dir)
		}
		return nil, errors.Wrapf(errors.ErrIndexCorrupt, "failed to open index at %s: %v", dir, err)
	}
	return &Index{path: dir, repo: repo}, nil
}

// Path returns the location of the working copy.
func (idx *Index) Path() string {
	return idx.path
}

// Refresh fast-forwards the working copy from its origin. Refreshing an
// already current index is a no-op beyond the network round trip.
func (idx *Index) Refresh(ctx context.Context) error {
	wt, err := idx.repo.Worktree()
	if err != nil {
		return errors.Wrap(errors.ErrIndexCorrupt, err.Error())
	}

	err = wt.PullContext(ctx, &git.PullOptions{RemoteName: git.DefaultRemoteName})
	switch {
	case err == nil:
		logger.Debug("fast-forwarded index", logger.Fields{"path": idx.path})
		return nil
	case err == git.NoErrAlreadyUpToDate:
		logger.Debug("index already up to date", logger.Fields{"path": idx.path})
		return nil
	case isLocalStateError(err):
		// The working copy has diverged from upstream. Recovering requires
		// operator intervention (recreating the index working copy).
		return errors.Wrap(errors.ErrIndexCorrupt, err.Error())
	default:
		return errors.Wrap(errors.ErrIndexUnavailable, err.Error())
	}
}

// isLocalStateError reports whether a pull failure is caused by local
// repository state rather than the network.
func isLocalStateError(err error) bool {
	switch err {
	case git.ErrNonFastForwardUpdate, git.ErrUnstagedChanges, git.ErrWorktreeNotClean:
		return true
	}
	return false
}

// Configuration parses the registry configuration from the working copy.
func (idx *Index) Configuration() (*Configuration, error) {
	data, err := os.ReadFile(filepath.Join(idx.path, ConfigurationFilename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.ErrConfigNotFound, "index at %s has no %s", idx.path, ConfigurationFilename)
		}
		return nil, errors.Wrap(err, "failed to read index configuration")
	}
	return ParseConfiguration(data)
}

// Catalog walks the working copy and parses every entry file into package
// entries. Hidden files and the configuration file are skipped, as is the
// .git directory. Entries are duplicate-free per (name, version); later rows
// for the same key replace earlier ones, matching the registry convention
// that the last line for a version is authoritative.
func (idx *Index) Catalog(ctx context.Context) ([]model.PackageEntry, error) {
	byKey := make(map[model.EntryKey]model.PackageEntry)
	skipped := 0

	err := filepath.WalkDir(idx.path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		name := d.Name()
		if d.IsDir() {
			if name == git.GitDirName || (strings.HasPrefix(name, ".") && path != idx.path) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || name == ConfigurationFilename {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return errors.Wrapf(err, "failed to open index file %s", path)
		}
		defer func() { _ = f.Close() }()

		rel, err := filepath.Rel(idx.path, path)
		if err != nil {
			rel = path
		}

		entries, bad := ParseEntries(f, rel)
		skipped += bad
		for _, entry := range entries {
			byKey[entry.Key()] = entry
		}
		return nil
	})
	if err != nil {
		// A cancelled walk is the caller's doing, not a damaged working copy.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errors.Wrap(errors.ErrIndexCorrupt, err.Error())
	}

	catalog := make([]model.PackageEntry, 0, len(byKey))
	for _, entry := range byKey {
		catalog = append(catalog, entry)
	}

	if skipped > 0 {
		logger.Warn("catalog parsed with skipped entries", logger.Fields{
			"entries": len(catalog),
			"skipped": skipped,
		})
	} else {
		logger.Debug("catalog parsed", logger.Fields{"entries": len(catalog)})
	}

	return catalog, nil
}
