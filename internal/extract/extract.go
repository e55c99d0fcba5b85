// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract pulls text, links, images, and tables out of PDF, DOCX,
// and PPTX files. Each format has one strategy registered in a table keyed
// by types.Format; every strategy implements the same capability set.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pdiddy/docextract/pkg/types"
)

// Source is an opened document exposing the extraction capability set.
type Source interface {
	// Text returns the document text as location-tagged blocks.
	Text() ([]types.TextBlock, error)

	// Links returns hyperlink targets in document order.
	Links() ([]types.Link, error)

	// Images returns embedded images in document order.
	Images() ([]types.Image, error)

	// Tables returns tables in document order.
	Tables() ([]types.Table, error)

	// Close releases the underlying file.
	Close() error
}

// Opener opens a file of one format as a Source.
type Opener func(path string, logger *slog.Logger) (Source, error)

// strategies maps every supported format to its opener.
var strategies = map[types.Format]Opener{
	types.FormatPDF:  openPDF,
	types.FormatDOCX: openDOCX,
	types.FormatPPTX: openPPTX,
}

// Detect returns the format for the file name's extension.
func Detect(name string) (types.Format, error) {
	ext := filepath.Ext(name)
	format, ok := types.FormatFromExtension(ext)
	if !ok {
		if ext == "" {
			ext = "(none)"
		}
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	return format, nil
}

// Extractor runs format strategies against files on disk.
type Extractor struct {
	logger *slog.Logger
}

// New creates an Extractor. A nil logger uses slog.Default().
func New(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract detects the format of path, opens it with the matching strategy,
// and runs the full capability set. The returned document is normalized;
// ID and ExtractedAt are left for the caller to assign.
func (e *Extractor) Extract(ctx context.Context, path string) (*types.ExtractedDocument, error) {
	format, err := Detect(path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrFileNotFound, path)
	}

	open, ok := strategies[format]
	if !ok {
		return nil, fmt.Errorf("%w: no strategy for %s", ErrUnsupportedFormat, format)
	}

	e.logger.Debug("extracting document", "path", path, "format", format, "size", info.Size())

	src, err := open(path, e.logger)
	if err != nil {
		return nil, fmt.Errorf("opening %s (%s): %w", path, format, err)
	}
	defer src.Close()

	doc := &types.ExtractedDocument{
		SourceFile: filepath.Base(path),
		Format:     format,
	}

	steps := []struct {
		name string
		run  func() error
	}{
		{"text", func() (err error) { doc.Blocks, err = src.Text(); return err }},
		{"links", func() (err error) { doc.Links, err = src.Links(); return err }},
		{"images", func() (err error) { doc.Images, err = src.Images(); return err }},
		{"tables", func() (err error) { doc.Tables, err = src.Tables(); return err }},
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := step.run(); err != nil {
			return nil, fmt.Errorf("extracting %s from %s: %w", step.name, path, err)
		}
	}

	doc.Normalize()

	e.logger.Debug("extracted document",
		"path", path,
		"blocks", len(doc.Blocks),
		"links", len(doc.Links),
		"images", len(doc.Images),
		"tables", len(doc.Tables),
	)
	return doc, nil
}
