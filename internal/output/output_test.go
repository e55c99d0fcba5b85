// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package output

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/docextract/pkg/types"
)

func sampleDocument() *types.ExtractedDocument {
	doc := &types.ExtractedDocument{
		ID:         "7f1c2a4e-0000-4000-8000-000000000001",
		SourceFile: "report.pdf",
		Format:     types.FormatPDF,
		Blocks: []types.TextBlock{
			{Location: types.Location{Page: 1}, Text: "Page one"},
			{Location: types.Location{Page: 2}, Text: "Page two"},
		},
		Links: []types.Link{
			{Location: types.Location{Page: 1}, URL: "https://example.com/a"},
			{Location: types.Location{Page: 2}, URL: "https://example.com/b"},
		},
		Images: []types.Image{
			{Location: types.Location{Page: 1}, Extension: "png", Width: 1, Height: 1, Data: []byte{0x89, 'P', 'N', 'G'}},
			{Location: types.Location{Page: 2}, Extension: "raw", Width: 640, Height: 480},
		},
		Tables: []types.Table{
			{Location: types.Location{Page: 2}, Rows: [][]string{{"Region", "Revenue"}, {"North", "1,000"}, {"South", "said \"hi\""}}},
		},
		ExtractedAt: time.Date(2026, 3, 14, 9, 26, 53, 589793000, time.UTC),
	}
	doc.Normalize()
	return doc
}

func TestWriteAndLoadRoundTrip(t *testing.T) {
	w := NewWriter(t.TempDir())
	doc := sampleDocument()

	dir, err := w.Write(doc)
	require.NoError(t, err)
	assert.Equal(t, w.Dir(doc), dir)
	assert.Equal(t, filepath.Join("PDF", "report"), filepath.Join(filepath.Base(filepath.Dir(dir)), filepath.Base(dir)))

	got, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestWriteFiles(t *testing.T) {
	w := NewWriter(t.TempDir())
	dir, err := w.Write(sampleDocument())
	require.NoError(t, err)

	text, err := os.ReadFile(filepath.Join(dir, "extracted_text.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Page one\nPage two\n", string(text))

	links, err := os.ReadFile(filepath.Join(dir, "extracted_links.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Page 1 -> https://example.com/a\nPage 2 -> https://example.com/b\n", string(links))

	img, err := os.ReadFile(filepath.Join(dir, "image_0.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, img)

	meta0, err := ReadImageMeta(filepath.Join(dir, "image_0.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ImageMeta{Index: 0, Source: "PDF", Location: "Page 1", Extension: "png", SizeBytes: 4, Width: 1, Height: 1, File: "image_0.png"}, *meta0)

	// Reference-only images get metadata but no payload file.
	_, err = os.Stat(filepath.Join(dir, "image_1.raw"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	meta1, err := ReadImageMeta(filepath.Join(dir, "image_1.yaml"))
	require.NoError(t, err)
	assert.Empty(t, meta1.File)
	assert.Equal(t, 640, meta1.Width)

	rows, err := ReadTable(filepath.Join(dir, "table_0_location_2.csv"))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Region", "Revenue"}, {"North", "1,000"}, {"South", "said \"hi\""}}, rows)

	tmeta, err := ReadTableMeta(filepath.Join(dir, "table_0.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 3, tmeta.Rows)
	assert.Equal(t, 2, tmeta.Columns)
	assert.Equal(t, "Page 2", tmeta.Location)
}

func TestWriteClearsPreviousOutput(t *testing.T) {
	w := NewWriter(t.TempDir())
	doc := sampleDocument()
	dir, err := w.Write(doc)
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(dir, "image_0.png"))

	doc.Images = []types.Image{}
	doc.Tables = []types.Table{}
	_, err = w.Write(doc)
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(dir, "image_0.png"))
	assert.NoFileExists(t, filepath.Join(dir, "table_0_location_2.csv"))
	assert.FileExists(t, filepath.Join(dir, "document.json"))
}

func TestWriteDOCXTableLocation(t *testing.T) {
	w := NewWriter(t.TempDir())
	doc := &types.ExtractedDocument{
		SourceFile: "notes.docx",
		Format:     types.FormatDOCX,
		Tables:     []types.Table{{Rows: [][]string{{"a", "b"}}}},
	}
	doc.Normalize()

	dir, err := w.Write(doc)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "table_0_location_unknown_location.csv"))

	meta, err := ReadTableMeta(filepath.Join(dir, "table_0.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "Word document", meta.Source)
	assert.Empty(t, meta.Location)

	text, err := os.ReadFile(filepath.Join(dir, "extracted_text.txt"))
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestWriteRejectsInvalidDocument(t *testing.T) {
	w := NewWriter(t.TempDir())
	_, err := w.Write(&types.ExtractedDocument{Format: types.FormatPDF})
	require.Error(t, err)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(t.TempDir())
	require.ErrorIs(t, err, os.ErrNotExist)
}
