// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"errors"
	"log/slog"
	"path"
	"regexp"
	"strings"

	"github.com/pdiddy/docextract/internal/ooxml"
	"github.com/pdiddy/docextract/pkg/types"
)

const docxMainPart = "word/document.xml"

// hyperlinkField matches the target of a HYPERLINK field instruction, e.g.
// ` HYPERLINK "https://example.com" \o "tip" `.
var hyperlinkField = regexp.MustCompile(`HYPERLINK\s+"([^"]+)"`)

type docxSource struct {
	pkg    *ooxml.Package
	body   *ooxml.Node
	rels   *ooxml.Relationships
	logger *slog.Logger
}

func openDOCX(filePath string, logger *slog.Logger) (Source, error) {
	pkg, err := ooxml.Open(filePath)
	if err != nil {
		return nil, err
	}
	if !pkg.Has(docxMainPart) {
		pkg.Close()
		return nil, errors.New("not a DOCX package: word/document.xml missing")
	}

	root, err := pkg.ParsePart(docxMainPart)
	if err != nil {
		pkg.Close()
		return nil, err
	}
	body := root.Child("body")
	if body == nil {
		pkg.Close()
		return nil, errors.New("document.xml has no body")
	}

	rels, err := pkg.Relationships(docxMainPart)
	if err != nil {
		pkg.Close()
		return nil, err
	}

	return &docxSource{pkg: pkg, body: body, rels: rels, logger: logger}, nil
}

func (d *docxSource) Close() error {
	return d.pkg.Close()
}

// paragraphs returns the top-level body paragraphs; paragraphs inside
// tables belong to the table cells.
func (d *docxSource) paragraphs() []*ooxml.Node {
	return d.body.ChildrenNamed("p")
}

func (d *docxSource) Text() ([]types.TextBlock, error) {
	paras := d.paragraphs()
	blocks := make([]types.TextBlock, 0, len(paras))
	for i, p := range paras {
		blocks = append(blocks, types.TextBlock{
			Location: types.Location{Paragraph: i + 1},
			Text:     docxParagraphText(p),
			Style:    p.Child("pPr").Child("pStyle").Attr("val"),
		})
	}
	return blocks, nil
}

// fieldCode is an open complex field. Its instruction may be split over
// several instrText runs between the begin and separate markers.
type fieldCode struct {
	loc   types.Location
	instr strings.Builder
	done  bool
}

func (d *docxSource) Links() ([]types.Link, error) {
	var (
		links  []types.Link
		fields []*fieldCode // innermost last
	)
	for i, p := range d.paragraphs() {
		loc := types.Location{Paragraph: i + 1}
		p.Walk(func(n *ooxml.Node) bool {
			switch {
			case n.Is("hyperlink"):
				if rel, ok := d.rels.Get(n.RelAttr("id")); ok && rel.External {
					links = append(links, types.Link{Location: loc, URL: rel.Target})
				}
			case n.Is("fldSimple"):
				links = appendFieldLink(links, loc, n.Attr("instr"))
			case n.Is("fldChar"):
				kind := n.Attr("fldCharType")
				if kind == "begin" {
					fields = append(fields, &fieldCode{loc: loc})
					break
				}
				if len(fields) == 0 {
					break
				}
				f := fields[len(fields)-1]
				if !f.done {
					f.done = true
					links = appendFieldLink(links, f.loc, f.instr.String())
				}
				if kind == "end" {
					fields = fields[:len(fields)-1]
				}
			case n.Is("instrText"):
				if len(fields) == 0 {
					links = appendFieldLink(links, loc, n.Text)
				} else if f := fields[len(fields)-1]; !f.done {
					f.instr.WriteString(n.Text)
				}
			}
			return true
		})
	}
	return links, nil
}

// appendFieldLink appends the target of a HYPERLINK field instruction.
func appendFieldLink(links []types.Link, loc types.Location, instr string) []types.Link {
	if m := hyperlinkField.FindStringSubmatch(instr); m != nil {
		links = append(links, types.Link{Location: loc, URL: m[1]})
	}
	return links
}

func (d *docxSource) Images() ([]types.Image, error) {
	var images []types.Image
	for _, rel := range d.rels.All() {
		if !rel.IsImage() || rel.External {
			continue
		}
		data, err := d.pkg.ReadPart(rel.Target)
		if err != nil {
			d.logger.Warn("skipping unreadable image", "part", rel.Target, "error", err)
			continue
		}
		images = append(images, types.Image{
			Extension: imageExtension(rel.Target),
			Data:      data,
		})
	}
	return images, nil
}

func (d *docxSource) Tables() ([]types.Table, error) {
	var tables []types.Table
	for _, tbl := range d.body.ChildrenNamed("tbl") {
		tables = append(tables, types.Table{Rows: docxTableRows(tbl)})
	}
	return tables, nil
}

func docxTableRows(tbl *ooxml.Node) [][]string {
	rows := [][]string{}
	for _, tr := range tbl.ChildrenNamed("tr") {
		row := []string{}
		for _, tc := range tr.ChildrenNamed("tc") {
			var parts []string
			for _, p := range tc.ChildrenNamed("p") {
				parts = append(parts, docxParagraphText(p))
			}
			row = append(row, strings.Join(parts, "\n"))
		}
		rows = append(rows, row)
	}
	return rows
}

// docxParagraphText concatenates run text, rendering tabs and breaks.
func docxParagraphText(p *ooxml.Node) string {
	var b strings.Builder
	p.Walk(func(n *ooxml.Node) bool {
		switch n.Name.Local {
		case "t":
			b.WriteString(n.Text)
			return false
		case "tab":
			b.WriteByte('\t')
		case "br", "cr":
			b.WriteByte('\n')
		case "pPr", "rPr", "instrText", "delText":
			return false
		}
		return true
	})
	return b.String()
}

// imageExtension derives the extension from a media part name, e.g.
// "word/media/image1.PNG" -> "png".
func imageExtension(part string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(part), "."))
	if ext == "" {
		return "bin"
	}
	return ext
}

var _ Source = (*docxSource)(nil)
