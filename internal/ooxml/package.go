// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ooxml reads Office Open XML packages (DOCX, PPTX): zip parts,
// part relationships, and XML part trees.
package ooxml

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"strings"
)

// Package is an opened OOXML zip container.
type Package struct {
	zr    *zip.ReadCloser
	files map[string]*zip.File
}

// Open opens the OOXML package at filePath.
func Open(filePath string) (*Package, error) {
	zr, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening package %s: %w", filePath, err)
	}
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[normalizePartName(f.Name)] = f
	}
	return &Package{zr: zr, files: files}, nil
}

// Close releases the underlying file.
func (p *Package) Close() error {
	return p.zr.Close()
}

// Has reports whether the package contains the named part.
func (p *Package) Has(name string) bool {
	_, ok := p.files[normalizePartName(name)]
	return ok
}

// ReadPart returns the raw bytes of the named part.
func (p *Package) ReadPart(name string) ([]byte, error) {
	f, ok := p.files[normalizePartName(name)]
	if !ok {
		return nil, fmt.Errorf("part %s not found", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening part %s: %w", name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading part %s: %w", name, err)
	}
	return data, nil
}

// ParsePart parses the named XML part into a node tree.
func (p *Package) ParsePart(name string) (*Node, error) {
	f, ok := p.files[normalizePartName(name)]
	if !ok {
		return nil, fmt.Errorf("part %s not found", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening part %s: %w", name, err)
	}
	defer rc.Close()

	root, err := Parse(rc)
	if err != nil {
		return nil, fmt.Errorf("parsing part %s: %w", name, err)
	}
	return root, nil
}

// Relationships returns the relationships of the named part, read from
// <dir>/_rels/<base>.rels. A part without a relationships file has none.
func (p *Package) Relationships(part string) (*Relationships, error) {
	relsName := path.Join(path.Dir(normalizePartName(part)), "_rels", path.Base(part)+".rels")
	if !p.Has(relsName) {
		return &Relationships{byID: map[string]Relationship{}}, nil
	}
	root, err := p.ParsePart(relsName)
	if err != nil {
		return nil, err
	}
	return parseRelationships(part, root), nil
}

func normalizePartName(name string) string {
	return strings.TrimPrefix(strings.ReplaceAll(name, "\\", "/"), "/")
}
