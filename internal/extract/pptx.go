// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pdiddy/docextract/internal/ooxml"
	"github.com/pdiddy/docextract/pkg/types"
)

const pptxPresentationPart = "ppt/presentation.xml"

type pptxSlide struct {
	number int
	part   string
	root   *ooxml.Node
	rels   *ooxml.Relationships
}

type pptxSource struct {
	pkg    *ooxml.Package
	slides []pptxSlide
	logger *slog.Logger
}

func openPPTX(filePath string, logger *slog.Logger) (Source, error) {
	pkg, err := ooxml.Open(filePath)
	if err != nil {
		return nil, err
	}
	if !pkg.Has(pptxPresentationPart) {
		pkg.Close()
		return nil, errors.New("not a PPTX package: ppt/presentation.xml missing")
	}

	slides, err := loadSlides(pkg)
	if err != nil {
		pkg.Close()
		return nil, err
	}
	return &pptxSource{pkg: pkg, slides: slides, logger: logger}, nil
}

// loadSlides parses every slide in presentation order (p:sldIdLst).
func loadSlides(pkg *ooxml.Package) ([]pptxSlide, error) {
	pres, err := pkg.ParsePart(pptxPresentationPart)
	if err != nil {
		return nil, err
	}
	presRels, err := pkg.Relationships(pptxPresentationPart)
	if err != nil {
		return nil, err
	}

	var slides []pptxSlide
	for _, id := range pres.Child("sldIdLst").ChildrenNamed("sldId") {
		rel, ok := presRels.Get(id.RelAttr("id"))
		if !ok || rel.External {
			continue
		}
		root, err := pkg.ParsePart(rel.Target)
		if err != nil {
			return nil, fmt.Errorf("slide %d: %w", len(slides)+1, err)
		}
		rels, err := pkg.Relationships(rel.Target)
		if err != nil {
			return nil, fmt.Errorf("slide %d: %w", len(slides)+1, err)
		}
		slides = append(slides, pptxSlide{
			number: len(slides) + 1,
			part:   rel.Target,
			root:   root,
			rels:   rels,
		})
	}
	return slides, nil
}

func (p *pptxSource) Close() error {
	return p.pkg.Close()
}

func (p *pptxSource) Text() ([]types.TextBlock, error) {
	blocks := make([]types.TextBlock, 0, len(p.slides))
	for _, s := range p.slides {
		var shapeTexts []string
		for _, sp := range s.root.Find("sp") {
			body := sp.Child("txBody")
			if body == nil {
				continue
			}
			shapeTexts = append(shapeTexts, pptxBodyText(body))
		}
		blocks = append(blocks, types.TextBlock{
			Location: types.Location{Slide: s.number},
			Text:     strings.Join(shapeTexts, "\n"),
		})
	}
	return blocks, nil
}

func (p *pptxSource) Links() ([]types.Link, error) {
	var links []types.Link
	for _, s := range p.slides {
		for _, h := range s.root.Find("hlinkClick") {
			rel, ok := s.rels.Get(h.RelAttr("id"))
			if !ok || !rel.External {
				continue
			}
			links = append(links, types.Link{
				Location: types.Location{Slide: s.number},
				URL:      rel.Target,
			})
		}
	}
	return links, nil
}

func (p *pptxSource) Images() ([]types.Image, error) {
	var images []types.Image
	for _, s := range p.slides {
		for _, pic := range s.root.Find("pic") {
			blip := pic.Child("blipFill").Child("blip")
			rel, ok := s.rels.Get(blip.RelAttr("embed"))
			if !ok || rel.External {
				continue
			}
			data, err := p.pkg.ReadPart(rel.Target)
			if err != nil {
				p.logger.Warn("skipping unreadable image", "slide", s.number, "part", rel.Target, "error", err)
				continue
			}
			images = append(images, types.Image{
				Location:  types.Location{Slide: s.number},
				Extension: imageExtension(rel.Target),
				Data:      data,
			})
		}
	}
	return images, nil
}

func (p *pptxSource) Tables() ([]types.Table, error) {
	var tables []types.Table
	for _, s := range p.slides {
		for _, tbl := range s.root.Find("tbl") {
			rows := [][]string{}
			for _, tr := range tbl.ChildrenNamed("tr") {
				row := []string{}
				for _, tc := range tr.ChildrenNamed("tc") {
					row = append(row, pptxBodyText(tc.Child("txBody")))
				}
				rows = append(rows, row)
			}
			tables = append(tables, types.Table{
				Location: types.Location{Slide: s.number},
				Rows:     rows,
			})
		}
	}
	return tables, nil
}

// pptxBodyText joins the paragraphs of a text body with newlines.
func pptxBodyText(body *ooxml.Node) string {
	if body == nil {
		return ""
	}
	paras := body.ChildrenNamed("p")
	lines := make([]string, 0, len(paras))
	for _, para := range paras {
		var b strings.Builder
		para.Walk(func(n *ooxml.Node) bool {
			switch n.Name.Local {
			case "t":
				b.WriteString(n.Text)
				return false
			case "br":
				b.WriteByte('\n')
			case "pPr", "rPr", "endParaRPr":
				return false
			}
			return true
		})
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}

var _ Source = (*pptxSource)(nil)
