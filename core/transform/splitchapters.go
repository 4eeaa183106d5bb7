package transform

import (
	"fmt"
	"path"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/inkwell-press/inkwell/core/ir"
	"github.com/inkwell-press/inkwell/core/options"
)

// splitThreshold is the serialized-size boundary above which a spine
// item becomes eligible for splitting.
const splitThreshold = 10 * 1024

// SplitChapters breaks any spine item whose serialized size exceeds
// 10 KiB into several manifest items, split at heading or page-break
// boundaries. Anchors that pointed into the original document are
// rewritten to the part that now contains their target id.
type SplitChapters struct{}

func (SplitChapters) Name() string                  { return "split_chapters" }
func (SplitChapters) ShouldRun(*options.Options) bool { return true }

func (SplitChapters) Apply(b *ir.BookIR, o *options.Options, progress ProgressFunc) error {
	entries := append([]ir.SpineEntry(nil), b.Spine.Entries()...)
	idToNewHref := map[string]string{}
	origHrefs := map[string]bool{}

	offset := 0
	total := len(entries)
	for i, se := range entries {
		item := b.Manifest.Get(se.ID)
		if item == nil {
			continue
		}
		x, ok := item.Data.(ir.XhtmlData)
		if !ok || len(x) <= splitThreshold {
			if total > 0 {
				progress(float64(i+1) / float64(total))
			}
			continue
		}

		parts, ids, err := splitDocument(string(x), item.Href, item.ID)
		if err != nil || len(parts) < 2 {
			if total > 0 {
				progress(float64(i+1) / float64(total))
			}
			continue
		}

		origHrefs[item.Href] = true
		var replacements []ir.SpineEntry
		for k, part := range parts {
			if err := b.Manifest.Add(&ir.ManifestItem{
				ID:        part.id,
				Href:      part.href,
				MediaType: ir.MediaTypeXHTML,
				Data:      ir.XhtmlData(part.html),
			}); err != nil {
				return fmt.Errorf("split_chapters: %w", err)
			}
			replacements = append(replacements, ir.SpineEntry{ID: part.id, Linear: se.Linear})
			for id := range ids[k] {
				idToNewHref[id] = part.href
			}
		}
		b.Manifest.Remove(item.ID)
		if err := b.Spine.Replace(i+offset, replacements); err != nil {
			return fmt.Errorf("split_chapters: %w", err)
		}
		offset += len(replacements) - 1
		if total > 0 {
			progress(float64(i+1) / float64(total))
		}
	}

	if len(idToNewHref) > 0 {
		rewriteSplitAnchors(b, origHrefs, idToNewHref)
	}
	return nil
}

type splitPart struct {
	id   string
	href string
	html string
}

// splitDocument splits doc's body at heading/page-break boundaries.
// Returns the parts in order and, per part, the set of element ids it
// carries (so callers can redirect anchors). A nil/short result means
// no suitable boundary existed.
func splitDocument(doc, href, baseID string) ([]splitPart, []map[string]bool, error) {
	root, err := ir.ParseXHTML(doc)
	if err != nil {
		return nil, nil, err
	}
	body := findBody(root)
	if body == nil {
		return nil, nil, nil
	}
	groups := groupByBoundary(body)
	if len(groups) < 2 {
		return nil, nil, nil
	}

	headInner := ""
	ir.WalkElements(root, func(n *xmlquery.Node) {
		if n.Data == "head" && headInner == "" {
			var b strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				b.WriteString(c.OutputXML(true))
			}
			headInner = b.String()
		}
	})

	stem := strings.TrimSuffix(href, path.Ext(href))
	var parts []splitPart
	var idSets []map[string]bool
	for k, group := range groups {
		var bodyContent strings.Builder
		ids := map[string]bool{}
		for _, n := range group {
			bodyContent.WriteString(n.OutputXML(true))
			if n.Type == xmlquery.ElementNode {
				ir.WalkElements(n, func(el *xmlquery.Node) {
					if id := el.SelectAttr("id"); id != "" {
						ids[id] = true
					}
				})
			}
		}
		partHref := fmt.Sprintf("%s-split-%d.xhtml", stem, k+1)
		html := `<?xml version="1.0" encoding="UTF-8"?>` + "\n" +
			`<html xmlns="http://www.w3.org/1999/xhtml"><head>` + headInner + `</head><body>` +
			bodyContent.String() + `</body></html>`
		parts = append(parts, splitPart{
			id:   fmt.Sprintf("%s-split-%d", baseID, k+1),
			href: partHref,
			html: html,
		})
		idSets = append(idSets, ids)
	}
	return parts, idSets, nil
}

// groupByBoundary partitions body's direct children into parts at
// heading elements (h1/h2) or explicit page-break markers.
func groupByBoundary(body *xmlquery.Node) [][]*xmlquery.Node {
	var groups [][]*xmlquery.Node
	var current []*xmlquery.Node
	started := false

	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.TextNode && strings.TrimSpace(c.Data) == "" {
			if started {
				current = append(current, c)
			}
			continue
		}
		if c.Type == xmlquery.ElementNode && isSplitBoundary(c) {
			if started {
				groups = append(groups, current)
			}
			current = nil
			started = true
			if !(c.Data == "hr" && hasLocalClass(c, "pagebreak")) {
				current = append(current, c)
			}
			continue
		}
		if !started {
			started = true
		}
		current = append(current, c)
	}
	if started {
		groups = append(groups, current)
	}
	return groups
}

func isSplitBoundary(n *xmlquery.Node) bool {
	if n.Data == "h1" || n.Data == "h2" {
		return true
	}
	if n.Data == "hr" && hasLocalClass(n, "pagebreak") {
		return true
	}
	style := strings.ReplaceAll(n.SelectAttr("style"), " ", "")
	return strings.Contains(style, "page-break-before:always")
}

func hasLocalClass(n *xmlquery.Node, class string) bool {
	for _, c := range strings.Fields(n.SelectAttr("class")) {
		if c == class {
			return true
		}
	}
	return false
}

// rewriteSplitAnchors redirects <a href> values that pointed at one of
// the split documents' original hrefs (or a same-document fragment
// inside them) to the new part that carries the target id.
func rewriteSplitAnchors(b *ir.BookIR, origHrefs map[string]bool, idToNewHref map[string]string) {
	for _, item := range xhtmlItems(b) {
		html := string(item.Data.(ir.XhtmlData))
		root, err := ir.ParseXHTML(html)
		if err != nil {
			continue
		}
		changed := false
		ir.WalkElements(root, func(n *xmlquery.Node) {
			if n.Data != "a" {
				return
			}
			href := n.SelectAttr("href")
			if href == "" {
				return
			}
			base, frag := href, ""
			if i := strings.IndexByte(href, '#'); i >= 0 {
				base, frag = href[:i], href[i+1:]
			}
			if frag == "" {
				return
			}
			newHref, ok := idToNewHref[frag]
			if !ok {
				return
			}
			if base != "" && !origHrefs[base] {
				return
			}
			if base == "" && newHref == item.Href {
				return // still the same document after splitting
			}
			ir.SetAttr(n, "href", newHref+"#"+frag)
			changed = true
		})
		if changed {
			item.Data = ir.XhtmlData(ir.SerializeXHTML(root))
		}
	}
}
