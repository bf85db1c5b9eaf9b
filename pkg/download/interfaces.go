package download

import (
	"context"
	"io"
	"net/url"

	"github.com/glorpus-work/cratesync/pkg/cache"
	"github.com/glorpus-work/cratesync/pkg/model"
)

// Manager defines the interface for executing a work list of archive
// downloads under a bounded concurrency budget.
type Manager interface {
	// FetchAll executes every item and returns the per-item outcomes. A
	// failed item never aborts its siblings; partial success is a normal
	// result, not an error.
	FetchAll(ctx context.Context, items []Item, opts Options) *Result
}

// Store is the slice of the cache the scheduler writes through.
type Store interface {
	// Stage writes bytes to a temporary file inside the cache, hashing as it
	// goes.
	Stage(entry *model.PackageEntry, r io.Reader) (*cache.Staged, error)

	// ArchivePath returns the canonical path for an entry's archive.
	ArchivePath(entry *model.PackageEntry) string
}

// Item is one archive to download and commit.
type Item struct {
	Entry  model.PackageEntry
	URL    *url.URL
	Reason model.Reason
}

// Options control a FetchAll run.
type Options struct {
	// Concurrency is the number of parallel downloads; values below 1 are
	// raised to 1.
	Concurrency int

	// VerifyCommitted re-reads and re-hashes each archive at its final path
	// after the rename, as a second integrity gate. Used by verify runs.
	VerifyCommitted bool
}

// Outcome records how a single item ended.
type Outcome struct {
	Item Item
	// Err is nil when the archive was committed. Otherwise it wraps one of
	// the classification sentinels in pkg/errors.
	Err error
}

// Result aggregates the outcomes of one run.
type Result struct {
	Committed []Item
	Failed    []Outcome
}

// Ok reports whether every item committed.
func (r *Result) Ok() bool {
	return len(r.Failed) == 0
}
