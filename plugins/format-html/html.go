// Package html implements the "html" input and output plugins. Input
// parsing uses golang.org/x/net/html for tolerant HTML5 parsing of
// arbitrary source documents; the parsed tree is re-serialized as
// strict, self-closed XHTML so every later transform can rely on
// ir.ParseXHTML succeeding.
package html

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/antchfx/xmlquery"
	"golang.org/x/net/html"

	apperrors "github.com/inkwell-press/inkwell/core/errors"
	"github.com/inkwell-press/inkwell/core/ir"
	"github.com/inkwell-press/inkwell/core/options"
	"github.com/inkwell-press/inkwell/core/plugins"
)

type plugin struct{}

func (plugin) Formats() []string { return []string{"html", "htm"} }

func init() {
	p := plugin{}
	plugins.RegisterInput(p)
	plugins.RegisterOutput(p)
}

// voidElements never have closing tags or children in HTML5 but must
// be self-closed to parse as XML.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// Parse reads an HTML document and produces a single XHTML spine item
// with the source's <body> content, headings left in place for
// DetectStructure.
func (plugin) Parse(ctx context.Context, path string, o *options.Options) (*ir.BookIR, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &apperrors.IOError{Operation: "read", Path: path, Err: err}
	}
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, &apperrors.ParseError{Plugin: "html", Message: "malformed HTML", Err: err}
	}

	var head, body *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "head":
				head = n
			case "body":
				body = n
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	var buf strings.Builder
	buf.WriteString("<html><head>")
	if head != nil {
		for c := head.FirstChild; c != nil; c = c.NextSibling {
			renderXHTML(&buf, c)
		}
	}
	buf.WriteString("</head><body>")
	if body != nil {
		for c := body.FirstChild; c != nil; c = c.NextSibling {
			renderXHTML(&buf, c)
		}
	}
	buf.WriteString("</body></html>")

	b := ir.NewBookIR()
	if err := b.Manifest.Add(&ir.ManifestItem{ID: "body", Href: "body.xhtml", MediaType: ir.MediaTypeXHTML, Data: ir.XhtmlData(buf.String())}); err != nil {
		return nil, &apperrors.ParseError{Plugin: "html", Message: err.Error()}
	}
	if err := b.Spine.Add("body", true); err != nil {
		return nil, &apperrors.ParseError{Plugin: "html", Message: err.Error()}
	}
	return b, nil
}

// renderXHTML serializes an *html.Node subtree as strict XHTML,
// self-closing void elements and XML-escaping text and attribute
// values.
func renderXHTML(buf *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		buf.WriteString(ir.EscapeXMLAttr(n.Data))
	case html.CommentNode:
		// dropped: comments carry no visible content and complicate
		// well-formedness guarantees downstream.
	case html.ElementNode:
		buf.WriteByte('<')
		buf.WriteString(n.Data)
		for _, a := range n.Attr {
			fmt.Fprintf(buf, ` %s="%s"`, a.Key, ir.EscapeXMLAttr(a.Val))
		}
		if voidElements[n.Data] {
			buf.WriteString("/>")
			return
		}
		buf.WriteByte('>')
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			renderXHTML(buf, c)
		}
		buf.WriteString("</")
		buf.WriteString(n.Data)
		buf.WriteByte('>')
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			renderXHTML(buf, c)
		}
	}
}

// Write concatenates every spine item's XHTML body into one HTML
// document.
func (plugin) Write(ctx context.Context, b *ir.BookIR, path string, o *options.Options) error {
	var buf strings.Builder
	buf.WriteString("<!DOCTYPE html>\n<html>\n<head><meta charset=\"utf-8\"/></head>\n<body>\n")
	for _, se := range b.Spine.Entries() {
		item := b.Manifest.Get(se.ID)
		if item == nil {
			continue
		}
		x, ok := item.Data.(ir.XhtmlData)
		if !ok {
			continue
		}
		root, err := ir.ParseXHTML(string(x))
		if err != nil {
			return &apperrors.ParseError{Plugin: "html", Message: "spine item not well-formed", Err: err}
		}
		writeSpineBody(&buf, root)
	}
	buf.WriteString("</body>\n</html>\n")
	if err := os.WriteFile(path, []byte(buf.String()), 0o644); err != nil {
		return &apperrors.IOError{Operation: "write", Path: path, Err: err}
	}
	return nil
}

// writeSpineBody appends the serialized children of root's <body> to
// buf, preserving markup rather than flattening to plain text.
func writeSpineBody(buf *strings.Builder, root *xmlquery.Node) {
	var body *xmlquery.Node
	ir.WalkElements(root, func(n *xmlquery.Node) {
		if body == nil && n.Data == "body" {
			body = n
		}
	})
	if body == nil {
		return
	}
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		buf.WriteString(c.OutputXML(true))
	}
}
