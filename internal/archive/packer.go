// Package archive packages a set of named binary payloads into a
// single downloadable zip, reporting packing progress as a percentage.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/klauspost/compress/zip"
)

// ErrNoItems is returned when there is nothing to pack.
var ErrNoItems = errors.New("no items to archive")

// Item is one named payload in the archive.
type Item struct {
	Name string
	Data []byte
}

// ProgressFunc receives the packing progress, 0–100.
type ProgressFunc func(percent int)

// Packer builds zip archives.
type Packer struct {
	logger *slog.Logger
}

// NewPacker creates a Packer.
func NewPacker(logger *slog.Logger) *Packer {
	return &Packer{logger: logger.With("component", "archive_packer")}
}

// Pack writes every item into a zip archive and returns its bytes. The
// progress callback, when non-nil, is invoked after each entry and is
// guaranteed to end at 100 on success.
func (p *Packer) Pack(ctx context.Context, items []Item, progress ProgressFunc) ([]byte, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("archive packing cancelled: %w", err)
		}

		w, err := zw.Create(item.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to create archive entry %q: %w", item.Name, err)
		}
		if _, err := w.Write(item.Data); err != nil {
			return nil, fmt.Errorf("failed to write archive entry %q: %w", item.Name, err)
		}

		if progress != nil {
			progress((i + 1) * 100 / len(items))
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}

	p.logger.Debug("archive packed", "entries", len(items), "size_bytes", buf.Len())
	return buf.Bytes(), nil
}
