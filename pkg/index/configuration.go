package index

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/glorpus-work/cratesync/pkg/errors"
	"github.com/glorpus-work/cratesync/pkg/model"
)

// Configuration is the registry index configuration, stored as config.json at
// the root of the index.
type Configuration struct {
	// Download is the template for archive download URLs. It may contain
	// {crate}, {version}, {prefix}, {lowerprefix}, and {sha256-checksum}
	// markers; if none are present, "/{name}/{version}/download" is appended.
	Download string `json:"dl"`

	// API is the registry API root. The mirror does not use it, but it is
	// parsed so a configuration can be round-tripped.
	API string `json:"api,omitempty"`
}

// ParseConfiguration parses a registry configuration from JSON.
func ParseConfiguration(data []byte) (*Configuration, error) {
	var cfg Configuration
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse index configuration")
	}
	if cfg.Download == "" {
		return nil, errors.Wrap(errors.ErrIndexCorrupt, "index configuration has no download template")
	}
	return &cfg, nil
}

// Locate resolves the download URL for an entry against the configured
// template.
func (c *Configuration) Locate(entry *model.PackageEntry) (*url.URL, error) {
	replacer := strings.NewReplacer(
		"{crate}", entry.Name,
		"{version}", entry.Version,
		"{prefix}", entry.Prefix(),
		"{lowerprefix}", entry.LowerPrefix(),
		"{sha256-checksum}", entry.Checksum.String(),
	)

	resolved := replacer.Replace(c.Download)
	if resolved == c.Download {
		// No markers in the template: the registry convention is to append
		// /{name}/{version}/download to the base URL.
		resolved = strings.TrimSuffix(c.Download, "/") + "/" + entry.Name + "/" + entry.Version + "/download"
	}

	u, err := url.Parse(resolved)
	if err != nil {
		return nil, errors.Wrapf(err, "download template produced an invalid URL for %s", entry.ID())
	}
	return u, nil
}
