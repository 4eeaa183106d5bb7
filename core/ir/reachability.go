package ir

import (
	"regexp"
	"strings"

	"github.com/antchfx/xmlquery"
)

// cssURLPattern matches url(...) references in CSS text, with or
// without quotes.
var cssURLPattern = regexp.MustCompile(`url\(\s*['"]?([^'")]+)['"]?\s*\)`)

// ReachableHrefs computes the set of manifest hrefs reachable from the
// spine by following <img src>, <link rel="stylesheet">, <script src>,
// CSS url(...), the guide, and the TOC — the traversal ManifestTrimmer
// (transform 12) uses to decide what to keep. The href graph is
// implicit (hrefs, not pointers), so this traversal can never cycle
// back into an owner and is always safe to run to completion.
func ReachableHrefs(b *BookIR) map[string]bool {
	reachable := map[string]bool{}
	var visit func(href string)
	visit = func(href string) {
		base := hrefBase(href)
		if base == "" || reachable[base] {
			return
		}
		item := b.Manifest.GetByHref(base)
		if item == nil {
			return
		}
		reachable[base] = true
		visitItem(b, item, visit)
	}

	for _, entry := range b.Spine.Entries() {
		item := b.Manifest.Get(entry.ID)
		if item == nil {
			continue
		}
		if !reachable[item.Href] {
			reachable[item.Href] = true
			visitItem(b, item, visit)
		}
	}
	for _, g := range b.Guide {
		visit(g.Href)
	}
	visitTocHrefs(b.TOC, visit)

	return reachable
}

func visitTocHrefs(entries []*TocEntry, visit func(string)) {
	for _, e := range entries {
		if e.Href != "" {
			visit(e.Href)
		}
		visitTocHrefs(e.Children, visit)
	}
}

// visitItem finds further hrefs referenced from item's content and
// recurses into them via visit.
func visitItem(b *BookIR, item *ManifestItem, visit func(string)) {
	switch d := item.Data.(type) {
	case XhtmlData:
		root, err := ParseXHTML(string(d))
		if err != nil {
			return
		}
		WalkElements(root, func(n *xmlquery.Node) {
			switch localName(n.Data) {
			case "img":
				if v := n.SelectAttr("src"); v != "" {
					visit(v)
				}
			case "link":
				rel := strings.ToLower(n.SelectAttr("rel"))
				if rel == "stylesheet" || rel == "" {
					if v := n.SelectAttr("href"); v != "" {
						visit(v)
					}
				}
			case "script":
				if v := n.SelectAttr("src"); v != "" {
					visit(v)
				}
			}
		})
	case CssData:
		for _, m := range cssURLPattern.FindAllStringSubmatch(string(d), -1) {
			visit(m[1])
		}
	}
}
