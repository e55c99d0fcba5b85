// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package output writes an extracted document to the local filesystem under
// <base>/<FORMAT>/<name>/. The directory holds a canonical document.json
// plus human-readable text, link, image, and table files.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/docextract/pkg/types"
)

const (
	documentFile = "document.json"
	textFile     = "extracted_text.txt"
	linksFile    = "extracted_links.txt"

	// unknownLocation names tables that carry no page or slide number.
	unknownLocation = "unknown_location"
)

// ImageMeta is the sidecar written next to each image.
type ImageMeta struct {
	Index     int    `yaml:"index"`
	Source    string `yaml:"source"`
	Location  string `yaml:"location,omitempty"`
	Extension string `yaml:"extension"`
	SizeBytes int    `yaml:"size_bytes"`
	Width     int    `yaml:"width,omitempty"`
	Height    int    `yaml:"height,omitempty"`

	// File is empty when the image bytes could not be decoded and only the
	// reference was kept.
	File string `yaml:"file,omitempty"`
}

// TableMeta is the sidecar written next to each table CSV.
type TableMeta struct {
	Index    int    `yaml:"index"`
	Source   string `yaml:"source"`
	Location string `yaml:"location,omitempty"`
	Rows     int    `yaml:"rows"`
	Columns  int    `yaml:"columns"`
	File     string `yaml:"file"`
}

// Writer persists documents below a base directory.
type Writer struct {
	baseDir string
}

// NewWriter creates a Writer rooted at baseDir.
func NewWriter(baseDir string) *Writer {
	return &Writer{baseDir: baseDir}
}

// Dir returns the directory Write uses for doc.
func (w *Writer) Dir(doc *types.ExtractedDocument) string {
	name := strings.TrimSuffix(doc.SourceFile, filepath.Ext(doc.SourceFile))
	return filepath.Join(w.baseDir, string(doc.Format), name)
}

// Write replaces the document's output directory with a fresh rendering of
// doc and returns the directory path.
func (w *Writer) Write(doc *types.ExtractedDocument) (string, error) {
	if err := doc.Validate(); err != nil {
		return "", err
	}
	dir := w.Dir(doc)

	if err := os.RemoveAll(dir); err != nil {
		return "", fmt.Errorf("clearing %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding document: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, documentFile), data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", documentFile, err)
	}

	if err := writeText(dir, doc); err != nil {
		return "", err
	}
	if err := writeLinks(dir, doc); err != nil {
		return "", err
	}
	if err := writeImages(dir, doc); err != nil {
		return "", err
	}
	if err := writeTables(dir, doc); err != nil {
		return "", err
	}
	return dir, nil
}

// Load reads the canonical record from a directory produced by Write.
func Load(dir string) (*types.ExtractedDocument, error) {
	data, err := os.ReadFile(filepath.Join(dir, documentFile))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", documentFile, err)
	}
	var doc types.ExtractedDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", documentFile, err)
	}
	return &doc, nil
}

func writeText(dir string, doc *types.ExtractedDocument) error {
	text := doc.Text
	if text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if err := os.WriteFile(filepath.Join(dir, textFile), []byte(text), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", textFile, err)
	}
	return nil
}

func writeLinks(dir string, doc *types.ExtractedDocument) error {
	var b strings.Builder
	for _, l := range doc.Links {
		fmt.Fprintf(&b, "%s -> %s\n", l.Location, l.URL)
	}
	if err := os.WriteFile(filepath.Join(dir, linksFile), []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", linksFile, err)
	}
	return nil
}

func writeImages(dir string, doc *types.ExtractedDocument) error {
	for i, img := range doc.Images {
		ext := img.Extension
		if ext == "" {
			ext = "png"
		}
		meta := ImageMeta{
			Index:     i,
			Source:    sourceLabel(doc.Format),
			Location:  img.Location.String(),
			Extension: ext,
			SizeBytes: len(img.Data),
			Width:     img.Width,
			Height:    img.Height,
		}
		if img.Data != nil {
			meta.File = fmt.Sprintf("image_%d.%s", i, ext)
			if err := os.WriteFile(filepath.Join(dir, meta.File), img.Data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", meta.File, err)
			}
		}
		if err := writeYAML(filepath.Join(dir, fmt.Sprintf("image_%d.yaml", i)), &meta); err != nil {
			return err
		}
	}
	return nil
}

func writeTables(dir string, doc *types.ExtractedDocument) error {
	for i, tbl := range doc.Tables {
		meta := TableMeta{
			Index:    i,
			Source:   sourceLabel(doc.Format),
			Location: tbl.Location.String(),
			Rows:     len(tbl.Rows),
			Columns:  tbl.Columns(),
			File:     fmt.Sprintf("table_%d_location_%s.csv", i, tableLocation(tbl.Location)),
		}
		if err := writeCSV(filepath.Join(dir, meta.File), tbl.Rows); err != nil {
			return err
		}
		if err := writeYAML(filepath.Join(dir, fmt.Sprintf("table_%d.yaml", i)), &meta); err != nil {
			return err
		}
	}
	return nil
}

func writeCSV(path string, rows [][]string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	cw := csv.NewWriter(f)
	// Rows may be ragged; csv.Writer does not enforce a field count.
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ReadTable reads a table CSV written by Write.
func ReadTable(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	if rows == nil {
		rows = [][]string{}
	}
	return rows, nil
}

// ReadImageMeta reads an image sidecar written by Write.
func ReadImageMeta(path string) (*ImageMeta, error) {
	var meta ImageMeta
	if err := readYAML(path, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// ReadTableMeta reads a table sidecar written by Write.
func ReadTableMeta(path string) (*TableMeta, error) {
	var meta TableMeta
	if err := readYAML(path, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func readYAML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return nil
}

func tableLocation(loc types.Location) string {
	switch {
	case loc.Page > 0:
		return fmt.Sprint(loc.Page)
	case loc.Slide > 0:
		return fmt.Sprint(loc.Slide)
	}
	return unknownLocation
}

func sourceLabel(f types.Format) string {
	switch f {
	case types.FormatPDF:
		return "PDF"
	case types.FormatPPTX:
		return "PowerPoint"
	case types.FormatDOCX:
		return "Word document"
	}
	return string(f)
}
