//go:generate mockgen -destination=./mocks/orchestrator.go . IndexSource,Planner,Fetcher

package orchestrator

import (
	"context"

	"github.com/glorpus-work/cratesync/pkg/download"
	"github.com/glorpus-work/cratesync/pkg/index"
	"github.com/glorpus-work/cratesync/pkg/model"
	"github.com/glorpus-work/cratesync/pkg/reconcile"
)

// IndexSource is the subset of the index reader used by the orchestrator.
type IndexSource interface {
	Refresh(ctx context.Context) error
	Configuration() (*index.Configuration, error)
	Catalog(ctx context.Context) ([]model.PackageEntry, error)
}

// Planner computes the work list for a pass.
type Planner interface {
	Plan(ctx context.Context, catalog []model.PackageEntry, policy reconcile.Policy) ([]model.WorkItem, error)
}

// Fetcher executes a work list of downloads.
type Fetcher interface {
	FetchAll(ctx context.Context, items []download.Item, opts download.Options) *download.Result
}

// Orchestrator drives sync and verify passes over the index, reconciler, and
// download manager.
type Orchestrator struct {
	Index   IndexSource
	Planner Planner
	DL      Fetcher
	Hooks   Hooks
}

// Event represents a simple progress notification.
type Event struct {
	Phase string // refreshing|reconciling|downloading|reporting
	ID    string // entry ID, where applicable
	Msg   string
}

// Hooks carries callbacks for progress events.
type Hooks struct {
	OnEvent func(Event)
}

// Options control a pass.
type Options struct {
	// Concurrency is the number of parallel downloads (the jobs count).
	Concurrency int
}

// Report aggregates the outcome of one pass.
type Report struct {
	// Catalog is the number of entries in the index catalog.
	Catalog int
	// Planned is the number of work items the pass scheduled.
	Planned int
	// Committed lists the entries whose archives were downloaded, verified,
	// and committed during this pass.
	Committed []model.PackageEntry
	// Failed lists the items that did not commit, with classified causes.
	Failed []download.Outcome
}

// Ok reports whether the pass succeeded: an empty work list, or every item
// committed.
func (r *Report) Ok() bool {
	return len(r.Failed) == 0
}
