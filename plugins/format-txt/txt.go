// Package txt implements the "txt" input and output plugins: plain
// text in, one XHTML spine item out, with blank-line-delimited
// paragraphs and a stipulated chapter heuristic (see Parse).
package txt

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/antchfx/xmlquery"

	apperrors "github.com/inkwell-press/inkwell/core/errors"
	"github.com/inkwell-press/inkwell/core/ir"
	"github.com/inkwell-press/inkwell/core/options"
	"github.com/inkwell-press/inkwell/core/plugins"
)

type plugin struct{}

func (plugin) Formats() []string { return []string{"txt", "text"} }

func init() {
	p := plugin{}
	plugins.RegisterInput(p)
	plugins.RegisterOutput(p)
}

// chapterLine matches a paragraph-leading line that should become an
// <h1>. The reference implementation's exact chapter-detection
// heuristic is unspecified beyond this rule.
var chapterLine = regexp.MustCompile(`^Chapter \d+\s*$`)

// Parse splits the source on blank lines into paragraphs. A paragraph
// whose sole line matches chapterLine becomes an <h1>; every other
// paragraph becomes a <p>. The whole document is a single spine item;
// DetectStructure is responsible for building a TOC from the
// resulting headings.
func (plugin) Parse(ctx context.Context, path string, o *options.Options) (*ir.BookIR, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &apperrors.IOError{Operation: "read", Path: path, Err: err}
	}

	paragraphs := splitParagraphs(string(data))
	var body strings.Builder
	for _, p := range paragraphs {
		if chapterLine.MatchString(p) {
			fmt.Fprintf(&body, "<h1>%s</h1>\n", ir.EscapeXMLAttr(p))
		} else {
			fmt.Fprintf(&body, "<p>%s</p>\n", ir.EscapeXMLAttr(p))
		}
	}

	doc := "<html><head></head><body>\n" + body.String() + "</body></html>"
	b := ir.NewBookIR()
	if err := b.Manifest.Add(&ir.ManifestItem{ID: "body", Href: "body.xhtml", MediaType: ir.MediaTypeXHTML, Data: ir.XhtmlData(doc)}); err != nil {
		return nil, &apperrors.ParseError{Plugin: "txt", Message: err.Error()}
	}
	if err := b.Spine.Add("body", true); err != nil {
		return nil, &apperrors.ParseError{Plugin: "txt", Message: err.Error()}
	}
	return b, nil
}

// splitParagraphs splits s on one-or-more blank lines and trims
// surrounding whitespace from each paragraph, dropping empty results.
func splitParagraphs(s string) []string {
	var out []string
	var cur []string
	scanner := bufio.NewScanner(strings.NewReader(s))
	flush := func() {
		if p := strings.TrimSpace(strings.Join(cur, " ")); p != "" {
			out = append(out, p)
		}
		cur = cur[:0]
	}
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		cur = append(cur, strings.TrimSpace(line))
	}
	flush()
	return out
}

// Write renders b to a single plain-text file: each spine item
// contributes one text block per top-level body element, blocks
// joined by a blank line. A linearized table row (see
// transform.LinearizeTables) is the one exception: its cells join with
// a single newline rather than a blank line, row-major.
func (plugin) Write(ctx context.Context, b *ir.BookIR, path string, o *options.Options) error {
	var blocks []string
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
			return &apperrors.ParseError{Plugin: "txt", Message: "output item not well-formed", Err: err}
		}
		blocks = append(blocks, bodyBlocks(root)...)
	}
	out := strings.Join(blocks, "\n\n")
	if out != "" {
		out += "\n"
	}
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return &apperrors.IOError{Operation: "write", Path: path, Err: err}
	}
	return nil
}

// bodyBlocks returns one text block per direct child element of
// <body>.
func bodyBlocks(root *xmlquery.Node) []string {
	var body *xmlquery.Node
	ir.WalkElements(root, func(n *xmlquery.Node) {
		if body == nil && n.Data == "body" {
			body = n
		}
	})
	if body == nil {
		return nil
	}
	var blocks []string
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != xmlquery.ElementNode {
			continue
		}
		if b := elementBlock(c); b != "" {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

// elementBlock renders one top-level body element to its text block.
func elementBlock(n *xmlquery.Node) string {
	if hasLocalClass(n, "_tableRow_") {
		var cells []string
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == xmlquery.ElementNode && hasLocalClass(c, "_tableCell_") {
				cells = append(cells, elementText(c))
			}
		}
		return strings.Join(cells, "\n")
	}
	return elementText(n)
}

func elementText(n *xmlquery.Node) string {
	var b strings.Builder
	ir.WalkTextNodes(n, func(t *xmlquery.Node) { b.WriteString(t.Data) })
	return strings.TrimSpace(b.String())
}

func hasLocalClass(n *xmlquery.Node, class string) bool {
	for _, c := range strings.Fields(ir.Attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}
