package transform

import (
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/inkwell-press/inkwell/core/css"
	"github.com/inkwell-press/inkwell/core/ir"
	"github.com/inkwell-press/inkwell/core/options"
)

// PageMargin finds a margin declaration shared by at least half the
// book's documents and strips it from each. The stripped value is not
// recorded in the BookIR, so no book-wide margin is passed on to the
// output plugin. A margin_* option overrides detection entirely.
type PageMargin struct{}

func (PageMargin) Name() string                  { return "page_margin" }
func (PageMargin) ShouldRun(*options.Options) bool { return true }

func isMarginProperty(p string) bool {
	switch p {
	case "margin-top", "margin-bottom", "margin-left", "margin-right":
		return true
	}
	return false
}

func (PageMargin) Apply(b *ir.BookIR, o *options.Options, progress ProgressFunc) error {
	if o.MarginTop != nil || o.MarginBottom != nil || o.MarginLeft != nil || o.MarginRight != nil {
		progress(1)
		return nil
	}

	items := xhtmlItems(b)
	total := len(items)
	roots := make([]*xmlquery.Node, total)
	bodies := make([]*xmlquery.Node, total)
	counts := map[string]map[string]int{}

	for i, item := range items {
		root, err := ir.ParseXHTML(string(item.Data.(ir.XhtmlData)))
		if err != nil {
			continue
		}
		roots[i] = root
		body := findBody(root)
		bodies[i] = body
		if body == nil {
			continue
		}
		for _, d := range css.ParseDeclarationBlock(body.SelectAttr("style")) {
			if !isMarginProperty(d.Property) {
				continue
			}
			if counts[d.Property] == nil {
				counts[d.Property] = map[string]int{}
			}
			counts[d.Property][d.Value]++
		}
	}

	toRemove := map[string]string{}
	if total > 0 {
		for prop, values := range counts {
			for value, count := range values {
				if float64(count)/float64(total) >= 0.5 {
					toRemove[prop] = value
					break
				}
			}
		}
	}
	if len(toRemove) == 0 {
		progress(1)
		return nil
	}

	for i, item := range items {
		body := bodies[i]
		if body != nil {
			var kept []string
			for _, d := range css.ParseDeclarationBlock(body.SelectAttr("style")) {
				if v, ok := toRemove[d.Property]; ok && d.Value == v {
					continue
				}
				kept = append(kept, d.Property+": "+d.Value+";")
			}
			if len(kept) > 0 {
				ir.SetAttr(body, "style", strings.Join(kept, " "))
			} else {
				ir.RemoveAttr(body, "style")
			}
			item.Data = ir.XhtmlData(ir.SerializeXHTML(roots[i]))
		}
		if total > 0 {
			progress(float64(i+1) / float64(total))
		}
	}
	return nil
}

func findBody(root *xmlquery.Node) *xmlquery.Node {
	var body *xmlquery.Node
	ir.WalkElements(root, func(n *xmlquery.Node) {
		if body == nil && n.Data == "body" {
			body = n
		}
	})
	return body
}
