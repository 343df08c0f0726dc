// Package archive serializes a resolved manifest into a tar container and
// pipes the whole byte stream through the selected compression chain.
package archive

import (
	"archive/tar"
	"bytes"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/packmule-io/packmule/pkg/archive/operations"
	_ "github.com/packmule-io/packmule/pkg/archive/operations/compress"
	muleerrors "github.com/packmule-io/packmule/pkg/errors"
	"github.com/packmule-io/packmule/pkg/manifest"
)

// Writer assembles archives in memory. Every entry is written in manifest
// iteration order; the output is deterministic for a fixed manifest.
type Writer struct {
	logger hclog.Logger
}

// NewWriter creates a writer.
func NewWriter(logger hclog.Logger) *Writer {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Writer{logger: logger}
}

// Write serializes the manifest and applies the named compression chain
// (e.g., "tar", "tar.gz"). It returns the archive bytes and the filename
// extension the chain implies.
func (w *Writer) Write(m *manifest.Manifest, chain string) ([]byte, string, error) {
	ops, err := operations.ParseChain(chain)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", muleerrors.ErrConfiguration, err)
	}

	ext, err := operations.ChainExt(ops)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", muleerrors.ErrConfiguration, err)
	}

	raw, err := w.Serialize(m)
	if err != nil {
		return nil, "", err
	}

	out, err := operations.ApplyChain(raw, ops)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", muleerrors.ErrEncoding, err)
	}

	w.logger.Debug("📦 Archive encoded", "entries", m.Len(), "raw_size", len(raw), "size", len(out), "chain", chain)
	return out, ext, nil
}

// Serialize writes all manifest entries into an uncompressed tar stream:
// one header block plus padded payload per entry, then the end-of-archive
// blocks. Entries must already be resolved.
func (w *Writer) Serialize(m *manifest.Manifest) ([]byte, error) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	for _, entry := range m.Entries() {
		header := &tar.Header{
			Name:     entry.Dest,
			Size:     entry.Size,
			Mode:     int64(entry.Mode),
			ModTime:  time.UnixMilli(entry.ModMillis),
			Typeflag: tar.TypeReg,
		}

		if err := tw.WriteHeader(header); err != nil {
			return nil, fmt.Errorf("%w: header for %s: %v", muleerrors.ErrEncoding, entry.Dest, err)
		}

		if _, err := tw.Write(entry.Content); err != nil {
			return nil, fmt.Errorf("%w: payload for %s: %v", muleerrors.ErrEncoding, entry.Dest, err)
		}

		w.logger.Trace("✍️ Entry written", "dest", entry.Dest, "size", entry.Size)
	}

	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("%w: closing archive: %v", muleerrors.ErrEncoding, err)
	}

	return buf.Bytes(), nil
}
