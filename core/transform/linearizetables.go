package transform

import (
	"github.com/antchfx/xmlquery"

	"github.com/inkwell-press/inkwell/core/ir"
	"github.com/inkwell-press/inkwell/core/options"
)

// LinearizeTables replaces every <table> with a row-major stack of
// <div class="_tableRow_">/<div class="_tableCell_"> elements. Nested
// tables are flattened recursively; colspan/rowspan are ignored, so
// a spanning cell is emitted exactly once. Runs only when
// linearize_tables is enabled.
type LinearizeTables struct{}

func (LinearizeTables) Name() string { return "linearize_tables" }
func (LinearizeTables) ShouldRun(o *options.Options) bool {
	return o.LinearizeTables
}

func (LinearizeTables) Apply(b *ir.BookIR, o *options.Options, progress ProgressFunc) error {
	items := xhtmlItems(b)
	type outcome struct{ html string }
	pool := NewPool[*ir.ManifestItem, outcome](len(items))
	results := pool.Run(items, func(item *ir.ManifestItem) outcome {
		html := string(item.Data.(ir.XhtmlData))
		root, err := ir.ParseXHTML(html)
		if err != nil {
			return outcome{html: html}
		}
		for {
			table := findFirstTable(root)
			if table == nil {
				break
			}
			linearizeTable(table)
		}
		return outcome{html: ir.SerializeXHTML(root)}
	})

	total := len(results)
	for i, r := range results {
		items[i].Data = ir.XhtmlData(r.html)
		if total > 0 {
			progress(float64(i+1) / float64(total))
		}
	}
	return nil
}

func findFirstTable(root *xmlquery.Node) *xmlquery.Node {
	var found *xmlquery.Node
	ir.WalkElements(root, func(n *xmlquery.Node) {
		if found == nil && n.Data == "table" {
			found = n
		}
	})
	return found
}

// linearizeTable converts a single <table> node into a flat sequence
// of row divs spliced directly into the table's former position (no
// wrapping container), so a row div's parent is always whatever held
// the table, not an intermediate element. Leaves any nested <table>
// intact (a subsequent call picks it up once it has a new, non-table
// parent).
func linearizeTable(table *xmlquery.Node) {
	var rows []*xmlquery.Node
	for _, row := range collectDirect(table, "tr") {
		rowDiv := newElement("div")
		ir.SetAttr(rowDiv, "class", "_tableRow_")
		for _, cell := range collectDirect(row, "td", "th") {
			cellDiv := newElement("div")
			ir.SetAttr(cellDiv, "class", "_tableCell_")
			moveChildren(cell, cellDiv)
			appendChild(rowDiv, cellDiv)
		}
		rows = append(rows, rowDiv)
	}
	replaceWithSiblings(table, rows)
}

// replaceWithSiblings splices nodes into the tree at old's position,
// in place of old, as direct siblings of whatever old's siblings were.
// If nodes is empty, old is simply removed.
func replaceWithSiblings(old *xmlquery.Node, nodes []*xmlquery.Node) {
	parent := old.Parent
	if parent == nil {
		return
	}
	if len(nodes) == 0 {
		ir.RemoveNode(old)
		return
	}
	for i, n := range nodes {
		n.Parent = parent
		if i > 0 {
			n.PrevSibling = nodes[i-1]
			nodes[i-1].NextSibling = n
		}
	}
	first, last := nodes[0], nodes[len(nodes)-1]
	first.PrevSibling = old.PrevSibling
	last.NextSibling = old.NextSibling
	if old.PrevSibling != nil {
		old.PrevSibling.NextSibling = first
	} else {
		parent.FirstChild = first
	}
	if old.NextSibling != nil {
		old.NextSibling.PrevSibling = last
	} else {
		parent.LastChild = last
	}
}

// collectDirect gathers elements with the given tag names from within
// n, descending through plain wrapper elements (like <tbody>) but never
// descending into a nested <table> — that subtree belongs to its own,
// later conversion.
func collectDirect(n *xmlquery.Node, tags ...string) []*xmlquery.Node {
	wants := map[string]bool{}
	for _, t := range tags {
		wants[t] = true
	}
	var out []*xmlquery.Node
	var walk func(*xmlquery.Node, bool)
	walk = func(cur *xmlquery.Node, top bool) {
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != xmlquery.ElementNode {
				continue
			}
			if wants[c.Data] {
				out = append(out, c)
				continue
			}
			if c.Data == "table" {
				continue
			}
			walk(c, false)
		}
	}
	walk(n, true)
	return out
}

func newElement(tag string) *xmlquery.Node {
	return &xmlquery.Node{Type: xmlquery.ElementNode, Data: tag}
}

func appendChild(parent, child *xmlquery.Node) {
	child.Parent = parent
	child.PrevSibling = parent.LastChild
	child.NextSibling = nil
	if parent.LastChild != nil {
		parent.LastChild.NextSibling = child
	} else {
		parent.FirstChild = child
	}
	parent.LastChild = child
}

func moveChildren(src, dst *xmlquery.Node) {
	c := src.FirstChild
	for c != nil {
		next := c.NextSibling
		appendChild(dst, c)
		c = next
	}
	src.FirstChild = nil
	src.LastChild = nil
}
