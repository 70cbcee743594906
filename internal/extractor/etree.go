// Package extractor provides the parsed-tree abstraction shared by the EPO
// and USPTO field extractors, plus the discard taxonomy both report.
//
// The patent offices publish loosely-structured XML: elements appear in
// varying order, optional everywhere, occasionally namespaced.  Extractors
// therefore never address absolute paths; they search the tree by tag name
// and treat absence as an empty value, never as an error.
package extractor

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Node is one element of a parsed XML document.  Tag is the namespace-
// stripped local name.  Character data and child elements are kept
// interleaved in document order so that full-text collection preserves the
// source ordering.
type Node struct {
	Tag   string
	Attrs map[string]string
	parts []part
}

type part struct {
	text  string
	child *Node
}

// Attr returns the value of the named attribute, or "" when absent.
func (n *Node) Attr(name string) string {
	if n == nil {
		return ""
	}
	return n.Attrs[name]
}

// Children returns the direct child elements in document order.
func (n *Node) Children() []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, p := range n.parts {
		if p.child != nil {
			out = append(out, p.child)
		}
	}
	return out
}

// ChildrenByTag returns the direct children with the given tag.
func (n *Node) ChildrenByTag(tag string) []*Node {
	var out []*Node
	for _, c := range n.Children() {
		if c.Tag == tag {
			out = append(out, c)
		}
	}
	return out
}

// Text returns the element's own character data (direct text segments
// concatenated), trimmed.  Child element text is not included.
func (n *Node) Text() string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range n.parts {
		if p.child == nil {
			sb.WriteString(p.text)
		}
	}
	return strings.TrimSpace(sb.String())
}

// AllText returns every character-data segment in the subtree, in document
// order, concatenated without separators.
func (n *Node) AllText() string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	n.appendAllText(&sb)
	return sb.String()
}

func (n *Node) appendAllText(sb *strings.Builder) {
	for _, p := range n.parts {
		if p.child != nil {
			p.child.appendAllText(sb)
		} else {
			sb.WriteString(p.text)
		}
	}
}

// TextParts returns every character-data segment in the subtree in document
// order as separate strings, for callers that need to re-join with their own
// separator.
func (n *Node) TextParts() []string {
	if n == nil {
		return nil
	}
	var out []string
	var collect func(*Node)
	collect = func(m *Node) {
		for _, p := range m.parts {
			if p.child != nil {
				collect(p.child)
			} else if p.text != "" {
				out = append(out, p.text)
			}
		}
	}
	collect(n)
	return out
}

// Walk visits n and every descendant depth-first in document order.
func (n *Node) Walk(fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, p := range n.parts {
		if p.child != nil {
			p.child.Walk(fn)
		}
	}
}

// Find returns the first node matching path anywhere in the subtree: the
// path head may match at any depth, each subsequent segment must be a direct
// child.  Returns nil when nothing matches.
func (n *Node) Find(path ...string) *Node {
	nodes := n.FindAll(path...)
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

// FindAll returns every node matching path, in document order.
func (n *Node) FindAll(path ...string) []*Node {
	if n == nil || len(path) == 0 {
		return nil
	}
	var heads []*Node
	n.Walk(func(m *Node) {
		if m.Tag == path[0] {
			heads = append(heads, m)
		}
	})

	var out []*Node
	for _, h := range heads {
		out = append(out, h.childPathAll(path[1:])...)
	}
	return out
}

// childPathAll resolves a direct-child chain from the receiver.
func (n *Node) childPathAll(path []string) []*Node {
	current := []*Node{n}
	for _, seg := range path {
		var next []*Node
		for _, c := range current {
			next = append(next, c.ChildrenByTag(seg)...)
		}
		current = next
		if len(current) == 0 {
			return nil
		}
	}
	return current
}

// FindText returns the trimmed text of the first node matching path, or "".
func (n *Node) FindText(path ...string) string {
	return n.Find(path...).Text()
}

// FindWithAttr returns the first node with the given tag (at any depth)
// carrying the given attribute value.
func (n *Node) FindWithAttr(tag, attr, value string) *Node {
	var found *Node
	n.Walk(func(m *Node) {
		if found == nil && m.Tag == tag && m.Attrs[attr] == value {
			found = m
		}
	})
	return found
}

// ChildText returns the trimmed text of the element reached from the
// receiver by a direct-child chain, or "" when the chain breaks.
func (n *Node) ChildText(path ...string) string {
	if n == nil {
		return ""
	}
	nodes := n.childPathAll(path)
	if len(nodes) == 0 {
		return ""
	}
	return nodes[0].Text()
}

// Parse builds a Node tree from raw document bytes.  The decoder is
// deliberately lenient: unknown DOCTYPE declarations and entities are
// tolerated, and legacy Latin-1 declarations are honoured, because archive
// members predate consistent UTF-8 publication.
func Parse(data []byte) (*Node, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.CharsetReader = charsetReader

	var root *Node
	var stack []*Node

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
			node := &Node{Tag: t.Name.Local}
			if len(t.Attr) > 0 {
				node.Attrs = make(map[string]string, len(t.Attr))
				for _, a := range t.Attr {
					node.Attrs[a.Name.Local] = a.Value
				}
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.parts = append(parent.parts, part{child: node})
			} else if root == nil {
				root = node
			}
			stack = append(stack, node)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				top.parts = append(top.parts, part{text: string(t)})
			}
		}
	}

	if root == nil {
		return nil, io.ErrUnexpectedEOF
	}
	return root, nil
}

// charsetReader maps the encodings seen in office archives onto readers.
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(charset) {
	case "iso-8859-1", "latin-1", "latin1", "windows-1252":
		return charmap.ISO8859_1.NewDecoder().Reader(input), nil
	default:
		return input, nil
	}
}
