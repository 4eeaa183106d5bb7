package ir

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
)

// ParseXHTML parses an XHTML document's serialized form into a DOM.
// Returns a ParseError-shaped error (wrapped by the caller) if the
// document is not well-formed (see InvariantWellFormedXHTML).
func ParseXHTML(doc string) (*xmlquery.Node, error) {
	root, err := xmlquery.Parse(strings.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("xhtml: not well-formed: %w", err)
	}
	return root, nil
}

// SerializeXHTML renders a parsed document back to its string form.
func SerializeXHTML(root *xmlquery.Node) string {
	return root.OutputXML(true)
}

// WellFormed reports whether doc parses as well-formed XML, the check
// behind InvariantWellFormedXHTML. It is intentionally independent of
// ParseXHTML so validate.go can check well-formedness without building
// a full DOM.
func WellFormed(doc string) bool {
	decoder := xml.NewDecoder(strings.NewReader(doc))
	decoder.Entity = map[string]string{} // no external entity expansion
	for {
		_, err := decoder.Token()
		if err != nil {
			return err.Error() == "EOF"
		}
	}
}

// EscapeXMLAttr escapes text for safe inclusion in an XML attribute
// value.
func EscapeXMLAttr(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return strings.ReplaceAll(buf.String(), "'", "&apos;")
}

// WalkElements calls fn for every element node in the tree rooted at n,
// in document order, including n itself if it is an element.
func WalkElements(n *xmlquery.Node, fn func(*xmlquery.Node)) {
	if n == nil {
		return
	}
	if n.Type == xmlquery.ElementNode {
		fn(n)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		WalkElements(child, fn)
	}
}

// WalkTextNodes calls fn for every text node in the tree rooted at n.
// Attribute values and element names are never visited.
func WalkTextNodes(n *xmlquery.Node, fn func(*xmlquery.Node)) {
	if n == nil {
		return
	}
	if n.Type == xmlquery.TextNode {
		fn(n)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		WalkTextNodes(child, fn)
	}
}

// SetAttr sets (or replaces) an attribute on an element node.
func SetAttr(n *xmlquery.Node, name, value string) {
	for i := range n.Attr {
		if n.Attr[i].Name.Local == name {
			n.Attr[i].Value = value
			return
		}
	}
	n.Attr = append(n.Attr, xml.Attr{Name: xml.Name{Local: name}, Value: value})
}

// RemoveAttr removes an attribute from an element node, if present.
func RemoveAttr(n *xmlquery.Node, name string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Name.Local != name {
			out = append(out, a)
		}
	}
	n.Attr = out
}

// Attr returns the value of the named attribute, or "" if absent.
func Attr(n *xmlquery.Node, name string) string {
	return n.SelectAttr(name)
}

// RemoveNode detaches n from its parent.
func RemoveNode(n *xmlquery.Node) {
	xmlquery.RemoveFromTree(n)
}

// ReplaceNode replaces old with replacement in the tree.
func ReplaceNode(old, replacement *xmlquery.Node) {
	parent := old.Parent
	if parent == nil {
		return
	}
	replacement.Parent = parent
	replacement.PrevSibling = old.PrevSibling
	replacement.NextSibling = old.NextSibling
	if old.PrevSibling != nil {
		old.PrevSibling.NextSibling = replacement
	} else {
		parent.FirstChild = replacement
	}
	if old.NextSibling != nil {
		old.NextSibling.PrevSibling = replacement
	} else {
		parent.LastChild = replacement
	}
}
