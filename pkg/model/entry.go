// Package model provides the data structures shared between the index,
// reconciliation, and download layers of the registry mirror.
package model

import (
	"fmt"
	"strings"

	"github.com/glorpus-work/cratesync/pkg/digest"
	"github.com/hashicorp/go-version"
)

// PackageEntry is one (name, version) row parsed from the registry index.
// Entries are immutable once parsed; a sync pass works against a single
// consistent catalog snapshot.
type PackageEntry struct {
	Name     string        `json:"name"`
	Version  string        `json:"vers"`
	Checksum digest.Digest `json:"cksum"`
	Size     int64         `json:"size,omitempty"`
	Yanked   bool          `json:"yanked,omitempty"`
}

// EntryKey identifies an entry by name and version only, without its
// integrity metadata.
type EntryKey struct {
	Name    string
	Version string
}

// Key returns the entry's identity key.
func (e *PackageEntry) Key() EntryKey {
	return EntryKey{Name: e.Name, Version: e.Version}
}

// ID returns a stable human-readable identifier for logs and reports.
func (e *PackageEntry) ID() string {
	return e.Name + "@" + e.Version
}

// Validate checks that the entry carries everything a download needs.
// The version must parse so the mirror does not propagate rows that
// downstream tooling would reject.
func (e *PackageEntry) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("entry has no name")
	}
	if _, err := version.NewVersion(e.Version); err != nil {
		return fmt.Errorf("entry %s has unparseable version %q: %w", e.Name, e.Version, err)
	}
	if e.Checksum.IsZero() {
		return fmt.Errorf("entry %s has no checksum", e.ID())
	}
	return nil
}

// Prefix returns the registry path prefix for the entry's name. The scheme
// matches the index layout: 1-character names under "1", 2 under "2",
// 3 under "3/<first letter>", everything else under the first two pairs of
// characters.
func (e *PackageEntry) Prefix() string {
	name := e.Name
	switch {
	case len(name) == 0:
		return ""
	case len(name) == 1:
		return "1"
	case len(name) == 2:
		return "2"
	case len(name) == 3:
		return "3/" + name[:1]
	default:
		return name[:2] + "/" + name[2:4]
	}
}

// LowerPrefix returns the prefix in lower case, for registries that use
// case-insensitive storage.
func (e *PackageEntry) LowerPrefix() string {
	return strings.ToLower(e.Prefix())
}

// Reason explains why a work item was scheduled.
type Reason string

const (
	// ReasonMissing means no archive exists at the canonical path.
	ReasonMissing Reason = "missing"
	// ReasonChecksumMismatch means the on-disk digest disagrees with the index.
	ReasonChecksumMismatch Reason = "checksum-mismatch"
	// ReasonTruncated means the on-disk size disagrees with the index.
	ReasonTruncated Reason = "truncated"
)

// WorkItem is one unit of fetch/repair work produced by reconciliation.
// Work items are transient; they exist only for the duration of one pass.
type WorkItem struct {
	Entry  PackageEntry
	Reason Reason
}
