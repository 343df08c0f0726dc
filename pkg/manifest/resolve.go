package manifest

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/go-hclog"

	muleerrors "github.com/packmule-io/packmule/pkg/errors"
)

// Resolver decorates manifest entries with size, permission bits,
// modification time and fully-buffered content.
//
// Content is read in one pass per file and held in memory until the archive
// is written; payloads are whole application bundles, not arbitrarily large
// datasets, so memory is traded for a single sequential write.
type Resolver struct {
	logger hclog.Logger
}

// NewResolver creates a resolver.
func NewResolver(logger hclog.Logger) *Resolver {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Resolver{logger: logger}
}

// Resolve fills in metadata and content for every entry in the manifest.
// Any unreadable source is fatal: no partial archive is ever produced.
func (r *Resolver) Resolve(m *Manifest) error {
	now := resolutionTime().UnixMilli()

	for _, entry := range m.Entries() {
		if entry.Synthetic {
			entry.Size = int64(len(entry.Content))
			entry.ModMillis = now
			continue
		}

		info, err := os.Stat(entry.Source)
		if err != nil {
			return fmt.Errorf("%w: %s", muleerrors.ErrSourceUnreadable, entry.Source)
		}

		content, err := os.ReadFile(entry.Source)
		if err != nil {
			return fmt.Errorf("%w: %s", muleerrors.ErrSourceUnreadable, entry.Source)
		}

		entry.Size = info.Size()
		entry.Mode = info.Mode().Perm()
		entry.ModMillis = info.ModTime().UnixMilli()
		entry.Content = content

		r.logger.Trace("📊 Entry resolved", "dest", entry.Dest, "size", entry.Size, "mode", fmt.Sprintf("%04o", entry.Mode))
	}

	return nil
}

// resolutionTime is the timestamp stamped on synthetic entries. It honors
// SOURCE_DATE_EPOCH for reproducible builds.
func resolutionTime() time.Time {
	if epochStr := os.Getenv("SOURCE_DATE_EPOCH"); epochStr != "" {
		if epoch, err := strconv.ParseInt(epochStr, 10, 64); err == nil {
			return time.Unix(epoch, 0).UTC()
		}
	}
	return time.Now().UTC()
}
