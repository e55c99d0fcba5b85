// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fixtures builds small but structurally valid DOCX, PPTX, and PDF
// files for tests.
package fixtures

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"strings"
)

const (
	nsW    = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsR    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsP    = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsA    = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsRels = "http://schemas.openxmlformats.org/package/2006/relationships"

	relHyperlink = nsR + "/hyperlink"
	relImage     = nsR + "/image"
	relSlide     = nsR + "/slide"
)

// PNGBytes is a stand-in image payload. Extraction copies media bytes
// verbatim, so they need not decode.
var PNGBytes = []byte("\x89PNG\r\n\x1a\nfixture")

// Paragraph is one DOCX body paragraph.
type Paragraph struct {
	Style string
	Text  string

	// LinkText and LinkURL append an external hyperlink run.
	LinkText string
	LinkURL  string
}

// DOCXSpec describes a Word document.
type DOCXSpec struct {
	Paragraphs []Paragraph
	Tables     [][][]string
	Images     int
}

// Slide is one PPTX slide.
type Slide struct {
	Texts   []string
	LinkURL string
	Table   [][]string
	Image   bool
}

// PPTXSpec describes a presentation. Slides are stored under reversed part
// names (the first slide lives in the highest-numbered part) so that
// readers must follow presentation order rather than file names.
type PPTXSpec struct {
	Slides []Slide
}

// PDFSpec describes a single-page PDF.
type PDFSpec struct {
	Text    string
	LinkURL string

	// Image embeds a 1x1 unfiltered DeviceRGB image named Im1.
	Image bool

	// XObjects are added to the page resources as X1, X2, ...
	XObjects []PDFImage
}

// PDFImage is an image XObject written verbatim. Dict holds the dictionary
// entries other than /Type, /Subtype, and /Length.
type PDFImage struct {
	Dict string
	Data []byte
}

// JPEGBytes encodes a solid blue w x h JPEG.
func JPEGBytes(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{0, 0, 0xff, 0xff})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// JPEGImage is a w x h DCTDecode XObject.
func JPEGImage(w, h int) PDFImage {
	return PDFImage{
		Dict: fmt.Sprintf("/Width %d /Height %d /ColorSpace /DeviceRGB /BitsPerComponent 8 /Filter /DCTDecode", w, h),
		Data: JPEGBytes(w, h),
	}
}

type rel struct {
	id, typ, target string
	external        bool
}

func relsXML(rels []rel) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?><Relationships xmlns="%s">`, nsRels)
	for _, r := range rels {
		mode := ""
		if r.external {
			mode = ` TargetMode="External"`
		}
		fmt.Fprintf(&b, `<Relationship Id="%s" Type="%s" Target="%s"%s/>`, r.id, r.typ, xmlEscape(r.target), mode)
	}
	b.WriteString(`</Relationships>`)
	return b.String()
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			buf.WriteString("&quot;")
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}

func writeZip(path string, parts map[string][]byte, order []string) error {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range order {
		w, err := zw.Create(name)
		if err != nil {
			return err
		}
		if _, err := w.Write(parts[name]); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// WriteDOCX writes a Word document built from spec to path.
func WriteDOCX(path string, spec DOCXSpec) error {
	var (
		body strings.Builder
		rels []rel
	)
	for _, p := range spec.Paragraphs {
		body.WriteString("<w:p>")
		if p.Style != "" {
			fmt.Fprintf(&body, `<w:pPr><w:pStyle w:val="%s"/></w:pPr>`, p.Style)
		}
		if p.Text != "" {
			fmt.Fprintf(&body, `<w:r><w:t xml:space="preserve">%s</w:t></w:r>`, xmlEscape(p.Text))
		}
		if p.LinkURL != "" {
			id := fmt.Sprintf("rIdLink%d", len(rels)+1)
			rels = append(rels, rel{id: id, typ: relHyperlink, target: p.LinkURL, external: true})
			fmt.Fprintf(&body, `<w:hyperlink r:id="%s"><w:r><w:t>%s</w:t></w:r></w:hyperlink>`, id, xmlEscape(p.LinkText))
		}
		body.WriteString("</w:p>")
	}
	for _, tbl := range spec.Tables {
		body.WriteString("<w:tbl>")
		for _, row := range tbl {
			body.WriteString("<w:tr>")
			for _, cell := range row {
				fmt.Fprintf(&body, `<w:tc><w:p><w:r><w:t>%s</w:t></w:r></w:p></w:tc>`, xmlEscape(cell))
			}
			body.WriteString("</w:tr>")
		}
		body.WriteString("</w:tbl>")
	}

	parts := map[string][]byte{}
	order := []string{"[Content_Types].xml", "word/document.xml", "word/_rels/document.xml.rels"}
	for i := 1; i <= spec.Images; i++ {
		name := fmt.Sprintf("media/image%d.png", i)
		rels = append(rels, rel{id: fmt.Sprintf("rIdImg%d", i), typ: relImage, target: name})
		parts["word/"+name] = PNGBytes
		order = append(order, "word/"+name)
	}

	parts["[Content_Types].xml"] = []byte(`<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`)
	parts["word/document.xml"] = []byte(fmt.Sprintf(
		`<?xml version="1.0" encoding="UTF-8" standalone="yes"?><w:document xmlns:w="%s" xmlns:r="%s"><w:body>%s<w:sectPr/></w:body></w:document>`,
		nsW, nsR, body.String()))
	parts["word/_rels/document.xml.rels"] = []byte(relsXML(rels))
	return writeZip(path, parts, order)
}

// WritePPTX writes a presentation built from spec to path.
func WritePPTX(path string, spec PPTXSpec) error {
	parts := map[string][]byte{}
	order := []string{"[Content_Types].xml", "ppt/presentation.xml", "ppt/_rels/presentation.xml.rels"}

	var (
		sldIDs   strings.Builder
		presRels []rel
	)
	n := len(spec.Slides)
	for i, s := range spec.Slides {
		partNum := n - i
		slidePart := fmt.Sprintf("slides/slide%d.xml", partNum)
		relID := fmt.Sprintf("rId%d", i+10)
		presRels = append(presRels, rel{id: relID, typ: relSlide, target: slidePart})
		fmt.Fprintf(&sldIDs, `<p:sldId id="%d" r:id="%s"/>`, 256+i, relID)

		var (
			tree      strings.Builder
			slideRels []rel
		)
		for _, text := range s.Texts {
			fmt.Fprintf(&tree, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="Text"/></p:nvSpPr><p:txBody><a:bodyPr/><a:p><a:r><a:rPr lang="en-US"/><a:t>%s</a:t></a:r></a:p></p:txBody></p:sp>`,
				tree.Len()+2, xmlEscape(text))
		}
		if s.LinkURL != "" {
			slideRels = append(slideRels, rel{id: "rIdLink", typ: relHyperlink, target: s.LinkURL, external: true})
			tree.WriteString(`<p:sp><p:txBody><a:p><a:r><a:rPr><a:hlinkClick r:id="rIdLink"/></a:rPr><a:t>link</a:t></a:r></a:p></p:txBody></p:sp>`)
		}
		if len(s.Table) > 0 {
			tree.WriteString(`<p:graphicFrame><a:graphic><a:graphicData><a:tbl>`)
			for _, row := range s.Table {
				tree.WriteString("<a:tr>")
				for _, cell := range row {
					fmt.Fprintf(&tree, `<a:tc><a:txBody><a:bodyPr/><a:p><a:r><a:t>%s</a:t></a:r></a:p></a:txBody></a:tc>`, xmlEscape(cell))
				}
				tree.WriteString("</a:tr>")
			}
			tree.WriteString(`</a:tbl></a:graphicData></a:graphic></p:graphicFrame>`)
		}
		if s.Image {
			media := fmt.Sprintf("ppt/media/image%d.png", partNum)
			slideRels = append(slideRels, rel{id: "rIdImg", typ: relImage, target: fmt.Sprintf("../media/image%d.png", partNum)})
			parts[media] = PNGBytes
			order = append(order, media)
			tree.WriteString(`<p:pic><p:blipFill><a:blip r:embed="rIdImg"/></p:blipFill></p:pic>`)
		}

		name := "ppt/" + slidePart
		parts[name] = []byte(fmt.Sprintf(
			`<?xml version="1.0" encoding="UTF-8" standalone="yes"?><p:sld xmlns:p="%s" xmlns:a="%s" xmlns:r="%s"><p:cSld><p:spTree>%s</p:spTree></p:cSld></p:sld>`,
			nsP, nsA, nsR, tree.String()))
		relsName := fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", partNum)
		parts[relsName] = []byte(relsXML(slideRels))
		order = append(order, name, relsName)
	}

	parts["[Content_Types].xml"] = []byte(`<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`)
	parts["ppt/presentation.xml"] = []byte(fmt.Sprintf(
		`<?xml version="1.0" encoding="UTF-8" standalone="yes"?><p:presentation xmlns:p="%s" xmlns:r="%s"><p:sldIdLst>%s</p:sldIdLst></p:presentation>`,
		nsP, nsR, sldIDs.String()))
	parts["ppt/_rels/presentation.xml.rels"] = []byte(relsXML(presRels))
	return writeZip(path, parts, order)
}

// WritePDF writes a one-page PDF built from spec to path.
func WritePDF(path string, spec PDFSpec) error {
	content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", pdfEscape(spec.Text))

	xobjects := ""
	if spec.Image {
		xobjects += " /Im1 7 0 R"
	}
	for i := range spec.XObjects {
		xobjects += fmt.Sprintf(" /X%d %d 0 R", i+1, 8+i)
	}
	resources := "/Font << /F1 5 0 R >>"
	if xobjects != "" {
		resources += " /XObject <<" + xobjects + " >>"
	}
	page := "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << " + resources + " >> /Contents 4 0 R"
	if spec.LinkURL != "" {
		page += " /Annots [6 0 R]"
	}
	page += " >>"

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		page,
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		fmt.Sprintf("<< /Type /Annot /Subtype /Link /Rect [72 700 300 730] /Border [0 0 0] /A << /S /URI /URI (%s) >> >>", pdfEscape(spec.LinkURL)),
		"<< /Type /XObject /Subtype /Image /Width 1 /Height 1 /ColorSpace /DeviceRGB /BitsPerComponent 8 /Length 3 >>\nstream\n\xff\x00\x00\nendstream",
	}
	for _, x := range spec.XObjects {
		objects = append(objects, fmt.Sprintf("<< /Type /XObject /Subtype /Image %s /Length %d >>\nstream\n%s\nendstream", x.Dict, len(x.Data), x.Data))
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func pdfEscape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
