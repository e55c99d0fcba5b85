// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ooxml

import (
	"path"
	"strings"
)

// Relationship is one entry of a part's .rels file.
type Relationship struct {
	ID   string
	Type string

	// Target is the raw target for external relationships, or the
	// package-absolute part name for internal ones.
	Target   string
	External bool
}

// IsImage reports whether the relationship points at an image part.
func (r Relationship) IsImage() bool {
	return strings.HasSuffix(r.Type, "/image")
}

// IsHyperlink reports whether the relationship is a hyperlink.
func (r Relationship) IsHyperlink() bool {
	return strings.HasSuffix(r.Type, "/hyperlink")
}

// Relationships is the ordered set of relationships for one part.
type Relationships struct {
	list []Relationship
	byID map[string]Relationship
}

// Get returns the relationship with the given id.
func (r *Relationships) Get(id string) (Relationship, bool) {
	rel, ok := r.byID[id]
	return rel, ok
}

// All returns relationships in file order.
func (r *Relationships) All() []Relationship {
	return r.list
}

func parseRelationships(part string, root *Node) *Relationships {
	rels := &Relationships{byID: map[string]Relationship{}}
	for _, n := range root.Find("Relationship") {
		rel := Relationship{
			ID:       n.Attr("Id"),
			Type:     n.Attr("Type"),
			Target:   n.Attr("Target"),
			External: strings.EqualFold(n.Attr("TargetMode"), "External"),
		}
		if !rel.External {
			rel.Target = ResolveTarget(part, rel.Target)
		}
		rels.list = append(rels.list, rel)
		rels.byID[rel.ID] = rel
	}
	return rels
}

// ResolveTarget resolves an internal relationship target against the
// directory of the source part. Targets starting with "/" are package-absolute.
func ResolveTarget(part, target string) string {
	target = strings.ReplaceAll(target, "\\", "/")
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return strings.TrimPrefix(path.Join(path.Dir(normalizePartName(part)), target), "/")
}
