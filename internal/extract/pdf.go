// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/ledongthuc/pdf"

	"github.com/pdiddy/docextract/pkg/types"
)

// pdfSource reads pages through ledongthuc/pdf. The parser panics on some
// malformed input; every page-level call goes through guard so a bad page
// is skipped instead of aborting the run.
type pdfSource struct {
	f      *os.File
	size   int64
	r      *pdf.Reader
	logger *slog.Logger

	// raw caches the file contents for locating undecoded streams.
	raw []byte
}

func openPDF(filePath string, logger *slog.Logger) (Source, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	var r *pdf.Reader
	if gerr := guard(func() error {
		var nerr error
		r, nerr = pdf.NewReader(f, info.Size())
		return nerr
	}); gerr != nil {
		f.Close()
		return nil, fmt.Errorf("reading PDF structure: %w", gerr)
	}
	return &pdfSource{f: f, size: info.Size(), r: r, logger: logger}, nil
}

func (p *pdfSource) Close() error {
	return p.f.Close()
}

// guard runs fn and converts a parser panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf parser: %v", rec)
		}
	}()
	return fn()
}

// pages calls fn for every page that exists, 1-indexed.
func (p *pdfSource) pages(what string, fn func(num int, page pdf.Page) error) {
	n := p.r.NumPage()
	for i := 1; i <= n; i++ {
		page := p.r.Page(i)
		if page.V.IsNull() {
			continue
		}
		if err := guard(func() error { return fn(i, page) }); err != nil {
			p.logger.Warn("skipping page", "what", what, "page", i, "error", err)
		}
	}
}

func (p *pdfSource) Text() ([]types.TextBlock, error) {
	var blocks []types.TextBlock
	p.pages("text", func(num int, page pdf.Page) error {
		text, err := page.GetPlainText(nil)
		if err != nil {
			return err
		}
		blocks = append(blocks, types.TextBlock{
			Location: types.Location{Page: num},
			Text:     text,
		})
		return nil
	})
	return blocks, nil
}

func (p *pdfSource) Links() ([]types.Link, error) {
	var links []types.Link
	p.pages("links", func(num int, page pdf.Page) error {
		annots := page.V.Key("Annots")
		for i := 0; i < annots.Len(); i++ {
			a := annots.Index(i)
			if a.Key("Subtype").Name() != "Link" {
				continue
			}
			action := a.Key("A")
			if action.Key("S").Name() != "URI" {
				continue
			}
			uri := action.Key("URI").Text()
			if uri == "" {
				continue
			}
			links = append(links, types.Link{Location: types.Location{Page: num}, URL: uri})
		}
		return nil
	})
	return links, nil
}

func (p *pdfSource) Images() ([]types.Image, error) {
	var images []types.Image
	p.pages("images", func(num int, page pdf.Page) error {
		xobjects := page.Resources().Key("XObject")
		names := xobjects.Keys()
		sort.Strings(names)
		for _, name := range names {
			x := xobjects.Key(name)
			if x.Key("Subtype").Name() != "Image" {
				continue
			}
			img := types.Image{
				Location: types.Location{Page: num},
				Width:    int(x.Key("Width").Int64()),
				Height:   int(x.Key("Height").Int64()),
			}
			filter := x.Key("Filter")
			img.Extension = filterExtension(lastFilter(filter))
			switch img.Extension {
			case "png":
				data, err := encodeSamplesPNG(x, img.Width, img.Height)
				if err != nil {
					p.logger.Debug("image kept as reference", "page", num, "name", name, "error", err)
					img.Extension = "raw"
				} else {
					img.Data = data
				}
			case "jpg", "jp2":
				// The stream of a single DCT or JPX filter is the image file.
				if filterCount(filter) != 1 {
					p.logger.Debug("image kept as reference", "page", num, "name", name, "filters", filterCount(filter))
					break
				}
				data, err := p.rawStream(x, xobjects, name, encodedSignature[img.Extension])
				if err != nil {
					p.logger.Debug("image kept as reference", "page", num, "name", name, "error", err)
				} else {
					img.Data = data
				}
			}
			images = append(images, img)
		}
		return nil
	})
	return images, nil
}

func (p *pdfSource) Tables() ([]types.Table, error) {
	var tables []types.Table
	p.pages("tables", func(num int, page pdf.Page) error {
		rows, err := page.GetTextByRow()
		if err != nil {
			return err
		}
		lines := make([]textLine, 0, len(rows))
		for _, row := range rows {
			line := textLine{y: row.Position}
			for _, t := range row.Content {
				line.spans = append(line.spans, textSpan{x: t.X, w: t.W, size: t.FontSize, s: t.S})
			}
			lines = append(lines, line)
		}
		for _, grid := range detectTables(lines) {
			tables = append(tables, types.Table{Location: types.Location{Page: num}, Rows: grid})
		}
		return nil
	})
	return tables, nil
}

// lastFilter returns the final decode filter name, which determines the
// encoding of the image bytes.
func lastFilter(v pdf.Value) string {
	switch v.Kind() {
	case pdf.Name:
		return v.Name()
	case pdf.Array:
		if n := v.Len(); n > 0 {
			return v.Index(n - 1).Name()
		}
	}
	return ""
}

// filterCount returns the number of decode filters applied to a stream.
func filterCount(v pdf.Value) int {
	switch v.Kind() {
	case pdf.Name:
		return 1
	case pdf.Array:
		return v.Len()
	}
	return 0
}

// filterExtension maps an image filter to the extension the image is
// stored under. Sample data (no filter or Flate) is re-encoded as PNG.
func filterExtension(filter string) string {
	switch filter {
	case "", "FlateDecode":
		return "png"
	case "DCTDecode":
		return "jpg"
	case "JPXDecode":
		return "jp2"
	case "JBIG2Decode":
		return "jb2"
	case "CCITTFaxDecode":
		return "tiff"
	}
	return "raw"
}

// maxImagePixels bounds the sample buffer allocated for one image.
const maxImagePixels = 1 << 26

// encodeSamplesPNG decodes an 8-bit DeviceGray or DeviceRGB image stream
// and re-encodes it as PNG.
func encodeSamplesPNG(x pdf.Value, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 || width > maxImagePixels || height > maxImagePixels ||
		int64(width)*int64(height) > maxImagePixels {
		return nil, fmt.Errorf("invalid dimensions %dx%d", width, height)
	}
	if bpc := x.Key("BitsPerComponent").Int64(); bpc != 8 {
		return nil, fmt.Errorf("unsupported bits per component %d", bpc)
	}

	var components int
	switch x.Key("ColorSpace").Name() {
	case "DeviceGray":
		components = 1
	case "DeviceRGB":
		components = 3
	default:
		return nil, fmt.Errorf("unsupported color space")
	}
	if err := checkPredictor(x.Key("DecodeParms"), width, components); err != nil {
		return nil, err
	}

	var samples []byte
	if err := guard(func() error {
		rc := x.Reader()
		defer rc.Close()
		var rerr error
		samples, rerr = io.ReadAll(rc)
		return rerr
	}); err != nil {
		return nil, err
	}
	if len(samples) < width*height*components {
		return nil, fmt.Errorf("short sample data: %d bytes", len(samples))
	}

	var img image.Image
	if components == 1 {
		gray := image.NewGray(image.Rect(0, 0, width, height))
		copy(gray.Pix, samples)
		img = gray
	} else {
		rgba := image.NewRGBA(image.Rect(0, 0, width, height))
		for i := 0; i < width*height; i++ {
			rgba.Set(i%width, i/width, color.RGBA{samples[3*i], samples[3*i+1], samples[3*i+2], 0xff})
		}
		img = rgba
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// checkPredictor accepts Flate streams the parser can undo: no predictor,
// or the PNG Up predictor (12) over single-component rows of the full
// image width. The parser sizes predictor rows by /Columns alone, so any
// other layout would decode to shifted samples.
func checkPredictor(parms pdf.Value, width, components int) error {
	if parms.Kind() == pdf.Array {
		if parms.Len() != 1 {
			return fmt.Errorf("unsupported decode parameters")
		}
		parms = parms.Index(0)
	}
	if parms.Kind() != pdf.Dict {
		return nil
	}
	pred := parms.Key("Predictor").Int64()
	if pred <= 1 {
		return nil
	}
	colors := int64(1)
	if c := parms.Key("Colors"); c.Kind() != pdf.Null {
		colors = c.Int64()
	}
	columns := int64(1)
	if c := parms.Key("Columns"); c.Kind() != pdf.Null {
		columns = c.Int64()
	}
	if pred != 12 || colors != 1 || components != 1 || columns != int64(width) {
		return fmt.Errorf("unsupported predictor %d (colors %d, columns %d)", pred, colors, columns)
	}
	return nil
}

var _ Source = (*pdfSource)(nil)
