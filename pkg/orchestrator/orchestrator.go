// Package orchestrator ties the index reader, reconciler, and download
// manager together into the sync and verify operations.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/glorpus-work/cratesync/internal/logger"
	"github.com/glorpus-work/cratesync/pkg/download"
	"github.com/glorpus-work/cratesync/pkg/reconcile"
)

// Sync brings the cache up to date with the index: the index working copy is
// fast-forwarded, absent archives are downloaded, and archives already
// present are trusted.
//
// Re-running after a partial failure is always safe: previously committed
// archives are excluded by reconciliation and only the remaining work is
// retried.
func (o *Orchestrator) Sync(ctx context.Context, opts Options) (*Report, error) {
	return o.run(ctx, reconcile.PolicySync, opts)
}

// Verify recomputes the digest of every cached archive against the index and
// re-downloads anything missing, truncated, or mismatched. Untracked files
// are never touched.
func (o *Orchestrator) Verify(ctx context.Context, opts Options) (*Report, error) {
	return o.run(ctx, reconcile.PolicyVerify, opts)
}

// run drives the shared phase sequence: refresh, reconcile, download, report.
// Index-phase failures are terminal; download failures are contained per item
// and aggregated into the report.
func (o *Orchestrator) run(ctx context.Context, policy reconcile.Policy, opts Options) (*Report, error) {
	if o.Index == nil || o.Planner == nil || o.DL == nil {
		return nil, fmt.Errorf("orchestrator is not fully configured")
	}

	emit(o.Hooks, Event{Phase: "refreshing"})
	if err := o.Index.Refresh(ctx); err != nil {
		return nil, err
	}

	configuration, err := o.Index.Configuration()
	if err != nil {
		return nil, err
	}

	catalog, err := o.Index.Catalog(ctx)
	if err != nil {
		return nil, err
	}

	emit(o.Hooks, Event{Phase: "reconciling", Msg: policy.String()})
	work, err := o.Planner.Plan(ctx, catalog, policy)
	if err != nil {
		return nil, err
	}

	report := &Report{Catalog: len(catalog), Planned: len(work)}
	if len(work) == 0 {
		logger.Debug("nothing to download", logger.Fields{"policy": policy.String()})
		return report, nil
	}

	items := make([]download.Item, 0, len(work))
	for _, w := range work {
		u, err := configuration.Locate(&w.Entry)
		if err != nil {
			// A template that cannot produce a URL for this entry fails the
			// item, not the run.
			report.Failed = append(report.Failed, download.Outcome{
				Item: download.Item{Entry: w.Entry, Reason: w.Reason},
				Err:  err,
			})
			continue
		}
		items = append(items, download.Item{Entry: w.Entry, URL: u, Reason: w.Reason})
	}

	emit(o.Hooks, Event{Phase: "downloading", Msg: fmt.Sprintf("%d archives", len(items))})
	result := o.DL.FetchAll(ctx, items, download.Options{
		Concurrency:     opts.Concurrency,
		VerifyCommitted: policy == reconcile.PolicyVerify,
	})

	for _, item := range result.Committed {
		report.Committed = append(report.Committed, item.Entry)
	}
	report.Failed = append(report.Failed, result.Failed...)

	emit(o.Hooks, Event{Phase: "reporting"})
	for _, failed := range report.Failed {
		logger.Error("archive not committed", logger.Fields{
			"entry":  failed.Item.Entry.ID(),
			"reason": string(failed.Item.Reason),
			"error":  failed.Err.Error(),
		})
	}
	logger.Info("pass finished", logger.Fields{
		"policy":    policy.String(),
		"catalog":   report.Catalog,
		"planned":   report.Planned,
		"committed": len(report.Committed),
		"failed":    len(report.Failed),
	})

	return report, nil
}

func emit(h Hooks, e Event) {
	if h.OnEvent != nil {
		h.OnEvent(e)
	}
}
