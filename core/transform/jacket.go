package transform

import (
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/inkwell-press/inkwell/core/ir"
	"github.com/inkwell-press/inkwell/core/options"
)

// Jacket inserts a synthetic title-page document at the front of the
// spine, built from the book's metadata. Runs only when
// insert_metadata is enabled.
type Jacket struct{}

func (Jacket) Name() string { return "jacket" }
func (Jacket) ShouldRun(o *options.Options) bool {
	return o.InsertMetadata
}

const jacketHref = "jacket.xhtml"

func (Jacket) Apply(b *ir.BookIR, o *options.Options, progress ProgressFunc) error {
	html := renderJacket(b.Metadata)
	item := &ir.ManifestItem{
		ID:        "jacket",
		Href:      jacketHref,
		MediaType: ir.MediaTypeXHTML,
		Data:      ir.XhtmlData(html),
	}
	if err := b.Manifest.Add(item); err != nil {
		return fmt.Errorf("jacket: %w", err)
	}
	if err := b.Spine.InsertAt(0, ir.SpineEntry{ID: item.ID, Linear: true}); err != nil {
		return fmt.Errorf("jacket: %w", err)
	}
	progress(0.5)

	hasTitlePage := false
	for _, g := range b.Guide {
		if g.Type == ir.GuideTitlePage {
			hasTitlePage = true
			break
		}
	}
	if !hasTitlePage {
		b.Guide = append(b.Guide, ir.GuideEntry{Type: ir.GuideTitlePage, Title: "Title Page", Href: jacketHref})
	}

	if o.RemoveFirstImageAfterJacket {
		entries := b.Spine.Entries()
		if len(entries) > 1 {
			removeLeadingImage(b, entries[1].ID)
		}
	}
	progress(1)
	return nil
}

func renderJacket(m ir.Metadata) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<html xmlns="http://www.w3.org/1999/xhtml"><head><title>`)
	b.WriteString(ir.EscapeXMLAttr(m.Title))
	b.WriteString(`</title></head><body><div class="_jacket_">`)
	b.WriteString(`<h1 class="_jacketTitle_">` + ir.EscapeXMLAttr(m.Title) + `</h1>`)
	if len(m.Authors) > 0 {
		b.WriteString(`<p class="_jacketAuthors_">` + ir.EscapeXMLAttr(strings.Join(m.Authors, ", ")) + `</p>`)
	}
	if m.Publisher != "" {
		b.WriteString(`<p class="_jacketPublisher_">` + ir.EscapeXMLAttr(m.Publisher) + `</p>`)
	}
	if m.Description != "" {
		b.WriteString(`<p class="_jacketDescription_">` + ir.EscapeXMLAttr(m.Description) + `</p>`)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

// removeLeadingImage drops the top-level image element that opens the
// given spine item's document, if one is present before any other
// meaningful content.
func removeLeadingImage(b *ir.BookIR, spineID string) {
	item := b.Manifest.Get(spineID)
	if item == nil {
		return
	}
	x, ok := item.Data.(ir.XhtmlData)
	if !ok {
		return
	}
	root, err := ir.ParseXHTML(string(x))
	if err != nil {
		return
	}
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
		if c.Type == xmlquery.TextNode && strings.TrimSpace(c.Data) == "" {
			continue
		}
		if c.Type == xmlquery.ElementNode && c.Data == "img" {
			ir.RemoveNode(c)
		}
		break
	}
	item.Data = ir.XhtmlData(ir.SerializeXHTML(root))
}
