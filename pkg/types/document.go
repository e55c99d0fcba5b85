// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Format identifies the container format of a source document.
type Format string

const (
	FormatPDF  Format = "PDF"
	FormatDOCX Format = "DOCX"
	FormatPPTX Format = "PPTX"
)

// Formats returns every supported format in a stable order.
func Formats() []Format {
	return []Format{FormatPDF, FormatDOCX, FormatPPTX}
}

// FormatFromExtension maps a file extension (".pdf", "docx", ".PPTX", ...)
// to its Format. It reports false for unsupported extensions.
func FormatFromExtension(ext string) (Format, bool) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "pdf":
		return FormatPDF, true
	case "docx":
		return FormatDOCX, true
	case "pptx":
		return FormatPPTX, true
	}
	return "", false
}

// Extension returns the lowercase file extension for the format, without the dot.
func (f Format) Extension() string {
	return strings.ToLower(string(f))
}

// Valid reports whether f is one of the supported formats.
func (f Format) Valid() bool {
	_, ok := FormatFromExtension(string(f))
	return ok
}

// Location records where in the source document an element was found.
// At most one field is set: Page for PDF, Slide for PPTX, Paragraph for
// DOCX links. DOCX tables and images carry no location.
type Location struct {
	Page      int `json:"page,omitempty" yaml:"page,omitempty"`
	Slide     int `json:"slide,omitempty" yaml:"slide,omitempty"`
	Paragraph int `json:"paragraph,omitempty" yaml:"paragraph,omitempty"`
}

// String renders the location as "Page 1", "Slide 2", "Paragraph 3", or "".
func (l Location) String() string {
	switch {
	case l.Page > 0:
		return fmt.Sprintf("Page %d", l.Page)
	case l.Slide > 0:
		return fmt.Sprintf("Slide %d", l.Slide)
	case l.Paragraph > 0:
		return fmt.Sprintf("Paragraph %d", l.Paragraph)
	}
	return ""
}

// TextBlock is a unit of text: one PDF page, one PPTX slide, or one DOCX paragraph.
type TextBlock struct {
	Location
	Text string `json:"text" yaml:"text"`

	// Style is the DOCX paragraph style id (e.g. "Heading1").
	Style string `json:"style,omitempty" yaml:"style,omitempty"`
}

// Link is a hyperlink target found in the document.
type Link struct {
	Location
	URL string `json:"url" yaml:"url"`
}

// Image is an embedded picture. Data is nil when the image is recorded by
// reference only (its encoding could not be decoded).
type Image struct {
	Location
	Extension string `json:"extension" yaml:"extension"`
	Width     int    `json:"width,omitempty" yaml:"width,omitempty"`
	Height    int    `json:"height,omitempty" yaml:"height,omitempty"`
	Data      []byte `json:"data,omitempty" yaml:"-"`
}

// Table is a row/column grid of cell text.
type Table struct {
	Location
	Rows [][]string `json:"rows" yaml:"rows"`
}

// Columns returns the width of the first row, or 0 for an empty table.
func (t Table) Columns() int {
	if len(t.Rows) == 0 {
		return 0
	}
	return len(t.Rows[0])
}

// ExtractedDocument is the normalized record produced from one source file.
type ExtractedDocument struct {
	ID          string      `json:"id" yaml:"id"`
	SourceFile  string      `json:"source_file" yaml:"source_file"`
	Format      Format      `json:"format" yaml:"format"`
	Text        string      `json:"text" yaml:"text"`
	Blocks      []TextBlock `json:"blocks" yaml:"blocks"`
	Links       []Link      `json:"links" yaml:"links"`
	Images      []Image     `json:"images" yaml:"images"`
	Tables      []Table     `json:"tables" yaml:"tables"`
	ExtractedAt time.Time   `json:"extracted_at" yaml:"extracted_at"`
}

// LinkURLs returns the link targets in document order.
func (d *ExtractedDocument) LinkURLs() []string {
	urls := make([]string, len(d.Links))
	for i, l := range d.Links {
		urls[i] = l.URL
	}
	return urls
}

// Normalize replaces nil sequences with empty ones, drops zero-length image
// payloads, and derives Text from Blocks when Text is empty.
func (d *ExtractedDocument) Normalize() {
	if d.Blocks == nil {
		d.Blocks = []TextBlock{}
	}
	if d.Links == nil {
		d.Links = []Link{}
	}
	if d.Images == nil {
		d.Images = []Image{}
	}
	if d.Tables == nil {
		d.Tables = []Table{}
	}
	for i := range d.Images {
		if len(d.Images[i].Data) == 0 {
			d.Images[i].Data = nil
		}
	}
	for i := range d.Tables {
		if d.Tables[i].Rows == nil {
			d.Tables[i].Rows = [][]string{}
		}
		for j := range d.Tables[i].Rows {
			if d.Tables[i].Rows[j] == nil {
				d.Tables[i].Rows[j] = []string{}
			}
		}
	}
	if d.Text == "" && len(d.Blocks) > 0 {
		parts := make([]string, len(d.Blocks))
		for i, b := range d.Blocks {
			parts[i] = b.Text
		}
		d.Text = strings.Join(parts, "\n")
	}
}

// Validate checks that the document is complete enough to persist.
func (d *ExtractedDocument) Validate() error {
	var errs []error
	if d.SourceFile == "" {
		errs = append(errs, errors.New("source file is empty"))
	}
	if !d.Format.Valid() {
		errs = append(errs, fmt.Errorf("unknown format %q", d.Format))
	}
	if d.Blocks == nil || d.Links == nil || d.Images == nil || d.Tables == nil {
		errs = append(errs, errors.New("document has unpopulated sequences"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid document: %w", errors.Join(errs...))
	}
	return nil
}
