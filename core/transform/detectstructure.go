package transform

import (
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/inkwell-press/inkwell/core/ir"
	"github.com/inkwell-press/inkwell/core/options"
)

// DetectStructure builds a TOC from heading elements when the book
// arrived with none. Within a spine item, every heading at or above
// the primary level (the level of the first h1, or first h2 if there
// is no h1) starts its own top-level entry; headings below that level
// nest under the nearest preceding entry, up to depth 4.
type DetectStructure struct{}

func (DetectStructure) Name() string                  { return "detect_structure" }
func (DetectStructure) ShouldRun(*options.Options) bool { return true }

type headingNode struct {
	node  *xmlquery.Node
	level int
}

func (DetectStructure) Apply(b *ir.BookIR, o *options.Options, progress ProgressFunc) error {
	if len(b.TOC) > 0 {
		progress(1)
		return nil
	}

	spineEntries := b.Spine.Entries()
	var toc []*ir.TocEntry
	total := len(spineEntries)
	for idx, se := range spineEntries {
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
			continue
		}
		headings := collectHeadings(root)
		entries := buildTocSubtree(headings, item.Href, idx+1)
		if len(entries) > 0 {
			toc = append(toc, entries...)
			item.Data = ir.XhtmlData(ir.SerializeXHTML(root))
		}
		if total > 0 {
			progress(float64(idx+1) / float64(total))
		}
	}
	b.TOC = toc
	return nil
}

func collectHeadings(root *xmlquery.Node) []headingNode {
	var out []headingNode
	ir.WalkElements(root, func(n *xmlquery.Node) {
		switch n.Data {
		case "h1":
			out = append(out, headingNode{n, 1})
		case "h2":
			out = append(out, headingNode{n, 2})
		case "h3":
			out = append(out, headingNode{n, 3})
		case "h4":
			out = append(out, headingNode{n, 4})
		}
	})
	return out
}

// buildTocSubtree finds the primary heading level (first h1, else
// first h2) and walks every heading from there on. A heading at or
// above that level starts a new top-level entry; anything deeper
// nests under the nearest preceding entry at a shallower level.
func buildTocSubtree(headings []headingNode, href string, spineN int) []*ir.TocEntry {
	primary := -1
	for i, h := range headings {
		if h.level == 1 {
			primary = i
			break
		}
	}
	if primary < 0 {
		for i, h := range headings {
			if h.level == 2 {
				primary = i
				break
			}
		}
	}
	if primary < 0 {
		return nil
	}

	type frame struct {
		entry *ir.TocEntry
		level int
	}
	baseLevel := headings[primary].level
	chapCounter := 0
	secCounter := 0
	var topLevel []*ir.TocEntry
	var stack []frame

	for i := primary; i < len(headings); i++ {
		h := headings[i]
		rel := h.level - baseLevel + 1
		if rel < 1 {
			rel = 1
		}
		if rel > 4 {
			rel = 4
		}

		id := ir.Attr(h.node, "id")
		if id == "" {
			if rel == 1 {
				chapCounter++
				id = fmt.Sprintf("ch-%d-%d", spineN, chapCounter)
			} else {
				secCounter++
				id = fmt.Sprintf("sec-%d-%d", spineN, secCounter)
			}
			ir.SetAttr(h.node, "id", id)
		}

		entry := &ir.TocEntry{Title: headingText(h.node), Href: href + "#" + id}
		if rel == 1 {
			topLevel = append(topLevel, entry)
			stack = []frame{{entry, 1}}
			continue
		}
		for len(stack) > 0 && stack[len(stack)-1].level >= rel {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			// Guard only: the walk starts at the primary heading, which
			// always seeds the stack (headings before it are skipped), so
			// this is not reached. Attach to the most recent top-level
			// entry.
			stack = []frame{{topLevel[len(topLevel)-1], 1}}
		}
		parent := stack[len(stack)-1].entry
		parent.Children = append(parent.Children, entry)
		stack = append(stack, frame{entry, rel})
	}
	return topLevel
}

func headingText(n *xmlquery.Node) string {
	var b strings.Builder
	ir.WalkTextNodes(n, func(t *xmlquery.Node) {
		b.WriteString(t.Data)
	})
	return strings.TrimSpace(b.String())
}
