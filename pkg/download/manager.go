// Package download executes archive fetches against the registry's download
// endpoint: streaming GET, integrity gates, and atomic commit into the cache,
// all under a bounded worker pool.
package download

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/glorpus-work/cratesync/internal/logger"
	"github.com/glorpus-work/cratesync/pkg/digest"
	pkgerrors "github.com/glorpus-work/cratesync/pkg/errors"
)

// DefaultTimeout bounds a single archive request.
const DefaultTimeout = 5 * time.Minute

// ManagerImpl downloads archives over HTTP and commits them through a Store.
type ManagerImpl struct {
	client    *http.Client
	userAgent string
	store     Store
}

// NewManager creates a download manager. An empty userAgent falls back to a
// sensible default; contact details can be folded in by the caller.
func NewManager(store Store, timeout time.Duration, userAgent string) *ManagerImpl {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if userAgent == "" {
		userAgent = "cratesync/1.0"
	}
	return &ManagerImpl{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		store:     store,
	}
}

// FetchAll executes the work list under opts.Concurrency workers. Outcomes
// are aggregated per item; sibling failures never cancel each other.
func (m *ManagerImpl) FetchAll(ctx context.Context, items []Item, opts Options) *Result {
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	result := &Result{}
	var mu sync.Mutex

	tasks := make(chan Item)
	var wg sync.WaitGroup

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range tasks {
				err := m.fetchOne(ctx, item, opts)
				mu.Lock()
				if err != nil {
					result.Failed = append(result.Failed, Outcome{Item: item, Err: err})
				} else {
					result.Committed = append(result.Committed, item)
				}
				mu.Unlock()
			}
		}()
	}

	for _, item := range items {
		tasks <- item
	}
	close(tasks)
	wg.Wait()

	return result
}

// fetchOne runs the strictly ordered per-item sequence: fetch, size gate,
// digest gate, temp write, rename, optional post-commit re-hash.
func (m *ManagerImpl) fetchOne(ctx context.Context, item Item, opts Options) error {
	entry := &item.Entry

	resp, err := m.doRequest(ctx, item)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	// The declared length is checked before any bytes are written so a
	// truncated response never costs a full hash pass.
	if entry.Size > 0 && resp.ContentLength >= 0 && resp.ContentLength != entry.Size {
		return pkgerrors.Wrapf(pkgerrors.ErrSizeMismatch,
			"%s: declared %d bytes, response advertises %d", entry.ID(), entry.Size, resp.ContentLength)
	}

	staged, err := m.store.Stage(entry, transientBody{resp.Body})
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to stage %s", entry.ID())
	}

	if entry.Size > 0 && staged.Size != entry.Size {
		staged.Discard()
		return pkgerrors.Wrapf(pkgerrors.ErrSizeMismatch,
			"%s: declared %d bytes, received %d", entry.ID(), entry.Size, staged.Size)
	}
	if !staged.Digest.Equal(entry.Checksum) {
		staged.Discard()
		return pkgerrors.Wrapf(pkgerrors.ErrChecksumMismatch,
			"%s: expected %s, downloaded %s", entry.ID(), entry.Checksum.String(), staged.Digest.String())
	}

	if err := staged.Commit(); err != nil {
		return pkgerrors.Wrapf(err, "failed to commit %s", entry.ID())
	}

	if opts.VerifyCommitted {
		committed, _, err := digest.SumFile(m.store.ArchivePath(entry))
		if err != nil {
			return pkgerrors.Wrapf(err, "failed to re-read committed archive for %s", entry.ID())
		}
		if !committed.Equal(entry.Checksum) {
			return pkgerrors.Wrapf(pkgerrors.ErrChecksumMismatch,
				"%s: committed archive hashes to %s", entry.ID(), committed.String())
		}
	}

	logger.Debug("committed archive", logger.Fields{
		"entry":  entry.ID(),
		"reason": string(item.Reason),
	})
	return nil
}

// transientBody tags read errors from a response body so a connection reset
// or timeout mid-stream classifies the same way as a dial failure.
type transientBody struct {
	r io.Reader
}

func (b transientBody) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	if err != nil && err != io.EOF {
		return n, pkgerrors.Wrapf(pkgerrors.ErrTransient, "%v", err)
	}
	return n, err
}

func (m *ManagerImpl) doRequest(ctx context.Context, item Item) (*http.Response, error) {
	if item.URL == nil {
		return nil, pkgerrors.Wrapf(pkgerrors.ErrDownloadFailed, "%s has no download URL", item.Entry.ID())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, item.URL.String(), http.NoBody)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", m.userAgent)

	resp, err := m.client.Do(req)
	if err != nil {
		// Connection failures, resets, and timeouts all land here.
		return nil, pkgerrors.Wrapf(pkgerrors.ErrTransient, "%s: %v", item.Entry.ID(), err)
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		if isTransientStatus(resp.StatusCode) {
			return nil, pkgerrors.Wrapf(pkgerrors.ErrTransient,
				"%s: unexpected status code %d", item.Entry.ID(), resp.StatusCode)
		}
		// Registries are known to refuse individual archives that their
		// index still lists; surfaced distinctly so repeated occurrences
		// stand out.
		return nil, pkgerrors.Wrapf(pkgerrors.ErrDownloadFailed,
			"%s: unexpected status code %d", item.Entry.ID(), resp.StatusCode)
	}

	return resp, nil
}

func isTransientStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}
	return code >= 500
}
