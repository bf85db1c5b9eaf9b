// Package reconcile diffs the index catalog against the archives on disk and
// produces the work list a sync or verify pass must execute.
package reconcile

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/glorpus-work/cratesync/internal/logger"
	"github.com/glorpus-work/cratesync/pkg/cache"
	"github.com/glorpus-work/cratesync/pkg/errors"
	"github.com/glorpus-work/cratesync/pkg/model"
)

// Policy selects how much an existing archive is trusted.
type Policy int

const (
	// PolicySync trusts presence: integrity was checked when the archive was
	// written, so only absent archives produce work.
	PolicySync Policy = iota

	// PolicyVerify trusts nothing: every archive's size and digest are
	// rechecked against the catalog.
	PolicyVerify
)

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case PolicySync:
		return "sync"
	case PolicyVerify:
		return "verify"
	default:
		return "unknown"
	}
}

// Inventory answers what is currently on disk for an entry.
type Inventory interface {
	Lookup(entry *model.PackageEntry) (*cache.Record, error)
	Untracked(known map[model.EntryKey]struct{}) ([]string, error)
}

// Reconciler computes work lists.
type Reconciler struct {
	inventory Inventory
	hashJobs  int
}

// New creates a reconciler over the given inventory. hashJobs bounds how many
// archives are hashed concurrently under the verify policy.
func New(inventory Inventory, hashJobs int) *Reconciler {
	if hashJobs < 1 {
		hashJobs = 1
	}
	return &Reconciler{inventory: inventory, hashJobs: hashJobs}
}

// Plan returns the duplicate-free set of work items needed to bring the
// inventory into agreement with the catalog under the given policy. Item
// order is unspecified.
func (r *Reconciler) Plan(ctx context.Context, catalog []model.PackageEntry, policy Policy) ([]model.WorkItem, error) {
	unique := dedupe(catalog)

	var (
		mu    sync.Mutex
		items []model.WorkItem
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.hashJobs)

	for i := range unique {
		entry := unique[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			item, err := r.planOne(&entry, policy)
			if err != nil {
				return err
			}
			if item == nil {
				return nil
			}

			mu.Lock()
			items = append(items, *item)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "reconciliation failed")
	}

	r.reportUntracked(unique)

	logger.Debug("reconciliation complete", logger.Fields{
		"policy":  policy.String(),
		"catalog": len(unique),
		"work":    len(items),
	})
	return items, nil
}

// reportUntracked logs archives the index no longer lists. The cache is
// append/repair-only, so these are kept, never deleted.
func (r *Reconciler) reportUntracked(catalog []model.PackageEntry) {
	known := make(map[model.EntryKey]struct{}, len(catalog))
	for i := range catalog {
		known[catalog[i].Key()] = struct{}{}
	}

	paths, err := r.inventory.Untracked(known)
	if err != nil {
		logger.Warn("failed to scan for unlisted archives", logger.Fields{"error": err.Error()})
		return
	}
	for _, path := range paths {
		logger.Warn("archive is no longer listed by the index; keeping it", logger.Fields{"path": path})
	}
}

func (r *Reconciler) planOne(entry *model.PackageEntry, policy Policy) (*model.WorkItem, error) {
	record, err := r.inventory.Lookup(entry)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return &model.WorkItem{Entry: *entry, Reason: model.ReasonMissing}, nil
	}
	if policy == PolicySync {
		// Trust on presence.
		return nil, nil
	}

	// A declared size lets us catch truncation without hashing.
	if entry.Size > 0 && record.Size != entry.Size {
		return &model.WorkItem{Entry: *entry, Reason: model.ReasonTruncated}, nil
	}

	got, err := record.Digest()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to hash archive for %s", entry.ID())
	}
	if !got.Equal(entry.Checksum) {
		logger.Warn("archive digest disagrees with index", logger.Fields{
			"entry":    entry.ID(),
			"expected": entry.Checksum.String(),
			"actual":   got.String(),
		})
		return &model.WorkItem{Entry: *entry, Reason: model.ReasonChecksumMismatch}, nil
	}

	return nil, nil
}

// dedupe keeps the last entry for each (name, version) key.
func dedupe(catalog []model.PackageEntry) []model.PackageEntry {
	byKey := make(map[model.EntryKey]int, len(catalog))
	unique := make([]model.PackageEntry, 0, len(catalog))
	for _, entry := range catalog {
		if i, seen := byKey[entry.Key()]; seen {
			unique[i] = entry
			continue
		}
		byKey[entry.Key()] = len(unique)
		unique = append(unique, entry)
	}
	return unique
}
