// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ooxml

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

// Node is an element of a parsed XML part. Names are matched by local name;
// namespace prefixes in OOXML are fixed enough that collisions do not occur
// within the parts this package reads.
type Node struct {
	Name     xml.Name
	Attrs    []xml.Attr
	Children []*Node

	// Text is the character data directly inside the element.
	Text string
}

// Parse reads an XML document into a node tree and returns the root element.
func Parse(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	var (
		root  *Node
		stack []*Node
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Name: t.Name, Attrs: append([]xml.Attr(nil), t.Attr...)}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			} else if root == nil {
				root = n
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += string(t)
			}
		}
	}
	if root == nil {
		return nil, errors.New("empty XML document")
	}
	return root, nil
}

// Is reports whether the element has the given local name.
func (n *Node) Is(local string) bool {
	return n != nil && n.Name.Local == local
}

// Attr returns the value of the first attribute with the given local name.
func (n *Node) Attr(local string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attrs {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// Child returns the first direct child with the given local name, or nil.
func (n *Node) Child(local string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Name.Local == local {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns the direct children with the given local name.
func (n *Node) ChildrenNamed(local string) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, c := range n.Children {
		if c.Name.Local == local {
			out = append(out, c)
		}
	}
	return out
}

// Find returns every descendant with the given local name in document order.
// Matches are not searched further.
func (n *Node) Find(local string) []*Node {
	var out []*Node
	n.Walk(func(c *Node) bool {
		if c != n && c.Name.Local == local {
			out = append(out, c)
			return false
		}
		return true
	})
	return out
}

// Walk visits n and its descendants depth-first. Returning false from fn
// skips the children of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// JoinText concatenates the character data of every descendant named local.
func (n *Node) JoinText(local string) string {
	var b strings.Builder
	n.Walk(func(c *Node) bool {
		if c.Name.Local == local {
			b.WriteString(c.Text)
			return false
		}
		return true
	})
	return b.String()
}

// Relationship attribute namespaces (transitional and strict conformance).
const (
	RelationshipsNS       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	StrictRelationshipsNS = "http://purl.oclc.org/ooxml/officeDocument/relationships"
)

// RelAttr returns a relationship-namespace attribute such as r:id or r:embed.
func (n *Node) RelAttr(local string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attrs {
		if a.Name.Local == local && (a.Name.Space == RelationshipsNS || a.Name.Space == StrictRelationshipsNS) {
			return a.Value
		}
	}
	return ""
}
