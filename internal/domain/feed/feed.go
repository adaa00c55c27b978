// Package feed holds a parsed GameDay XML document as a navigable element
// tree.
//
// The extractors only need element names, attributes and parent links, so
// character data is discarded while parsing. Lookups walk the tree in
// document order (depth first, pre-order).
package feed

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"golang.org/x/net/html/charset"
)

// Node is one element of a parsed document. The root returned by Parse is a
// nameless document node whose children are the top-level elements.
type Node struct {
	Name     string
	Attrs    map[string]string
	Children []*Node
	Parent   *Node
}

// Parse builds the element tree of data.
func Parse(data []byte) (*Node, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyDocument
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel
	dec.Strict = false

	root := &Node{}
	cur := root
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Name: t.Name.Local, Parent: cur}
			if len(t.Attr) > 0 {
				n.Attrs = make(map[string]string, len(t.Attr))
				for _, a := range t.Attr {
					n.Attrs[a.Name.Local] = a.Value
				}
			}
			cur.Children = append(cur.Children, n)
			cur = n
		case xml.EndElement:
			if cur.Parent != nil {
				cur = cur.Parent
			}
		}
	}

	if len(root.Children) == 0 {
		return nil, ErrEmptyDocument
	}
	return root, nil
}

// Attr returns the attribute value and whether it was present.
func (n *Node) Attr(key string) (string, bool) {
	if n == nil || n.Attrs == nil {
		return "", false
	}
	v, ok := n.Attrs[key]
	return v, ok
}

// Get returns the attribute value, or "" when absent.
func (n *Node) Get(key string) string {
	v, _ := n.Attr(key)
	return v
}

// Find returns the first descendant named name, or nil.
func (n *Node) Find(name string) *Node {
	return n.FindWhere(name, "", "")
}

// FindWhere returns the first descendant named name whose attribute key
// equals value. An empty key matches any element with that name.
func (n *Node) FindWhere(name, key, value string) *Node {
	var found *Node
	n.walk(func(c *Node) bool {
		if c.Name == name && (key == "" || c.Get(key) == value) {
			found = c
			return false
		}
		return true
	})
	return found
}

// FindAll returns every descendant named name in document order.
func (n *Node) FindAll(name string) []*Node {
	var out []*Node
	n.walk(func(c *Node) bool {
		if c.Name == name {
			out = append(out, c)
		}
		return true
	})
	return out
}

// walk visits descendants of n in pre-order until fn returns false.
func (n *Node) walk(fn func(*Node) bool) bool {
	if n == nil {
		return true
	}
	for _, c := range n.Children {
		if !fn(c) || !c.walk(fn) {
			return false
		}
	}
	return true
}

// Graft places the top-level elements of each document under a single
// synthetic element named name, keeping their relative order. Nil documents
// are skipped. The grafted documents must not be used independently after.
func Graft(name string, docs ...*Node) *Node {
	root := &Node{}
	holder := &Node{Name: name, Parent: root}
	root.Children = []*Node{holder}
	for _, d := range docs {
		if d == nil {
			continue
		}
		for _, c := range d.Children {
			c.Parent = holder
			holder.Children = append(holder.Children, c)
		}
	}
	return root
}
