package index

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"

	"github.com/glorpus-work/cratesync/internal/logger"
	"github.com/glorpus-work/cratesync/pkg/model"
)

// maxEntryLineBytes bounds a single index line; metadata rows are small but
// some registries ship large feature tables.
const maxEntryLineBytes = 4 * 1024 * 1024

// ParseEntries reads line-delimited JSON entries from r. Malformed lines are
// logged and skipped so one bad row cannot block mirroring the rest of the
// file; the number of skipped lines is returned alongside the entries.
func ParseEntries(r io.Reader, source string) ([]model.PackageEntry, int) {
	var entries []model.PackageEntry
	skipped := 0

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxEntryLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var entry model.PackageEntry
		if err := json.Unmarshal([]byte(text), &entry); err != nil {
			logger.Warn("skipping malformed index entry", logger.Fields{
				"file":  source,
				"line":  line,
				"error": err.Error(),
			})
			skipped++
			continue
		}
		if err := entry.Validate(); err != nil {
			logger.Warn("skipping invalid index entry", logger.Fields{
				"file":  source,
				"line":  line,
				"error": err.Error(),
			})
			skipped++
			continue
		}

		entries = append(entries, entry)
	}

	if err := scanner.Err(); err != nil {
		logger.Warn("stopped reading index file early", logger.Fields{
			"file":  source,
			"error": err.Error(),
		})
		skipped++
	}

	return entries, skipped
}
