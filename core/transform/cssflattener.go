package transform

import (
	"fmt"
	"sort"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/inkwell-press/inkwell/core/css"
	"github.com/inkwell-press/inkwell/core/ir"
	"github.com/inkwell-press/inkwell/core/options"
)

// CSSFlattener resolves every stylesheet and inline <style> reachable
// from a document, cascades declarations onto each element as a style
// attribute, and keeps only what it could not inline (media queries,
// unsupported pseudo-classes, keyframes) as a trailing verbatim
// stylesheet.
type CSSFlattener struct{}

func (CSSFlattener) Name() string                  { return "css_flattener" }
func (CSSFlattener) ShouldRun(*options.Options) bool { return true }

func (CSSFlattener) Apply(b *ir.BookIR, o *options.Options, progress ProgressFunc) error {
	items := xhtmlItems(b)
	type outcome struct{ html string }
	pool := NewPool[*ir.ManifestItem, outcome](len(items))
	results := pool.Run(items, func(item *ir.ManifestItem) outcome {
		html := string(item.Data.(ir.XhtmlData))
		root, err := ir.ParseXHTML(html)
		if err != nil {
			return outcome{html: html}
		}
		flattenDocument(b, root, o.ExtraCSS)
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

func flattenDocument(b *ir.BookIR, root *xmlquery.Node, extraCSS string) {
	var rules []css.Rule
	var verbatim []string
	var styleNodes, linkNodes []*xmlquery.Node

	ir.WalkElements(root, func(n *xmlquery.Node) {
		switch n.Data {
		case "link":
			if !strings.EqualFold(n.SelectAttr("rel"), "stylesheet") {
				return
			}
			linkNodes = append(linkNodes, n)
			sheet := resolveStylesheetHref(b, n.SelectAttr("href"), map[string]bool{})
			rules = append(rules, sheet.Rules...)
			verbatim = append(verbatim, sheet.VerbatimAtRules...)
		case "style":
			styleNodes = append(styleNodes, n)
			sheet, err := css.ParseStylesheet(elementText(n))
			if err == nil {
				rules = append(rules, sheet.Rules...)
				verbatim = append(verbatim, sheet.VerbatimAtRules...)
			}
		}
	})

	if strings.TrimSpace(extraCSS) != "" {
		if sheet, err := css.ParseStylesheet(extraCSS); err == nil {
			rules = append(rules, sheet.Rules...)
			verbatim = append(verbatim, sheet.VerbatimAtRules...)
		}
	}

	inlineCascade(root, rules, css.BaseFontSizePt)

	for _, n := range linkNodes {
		ir.RemoveNode(n)
	}
	for _, n := range styleNodes {
		ir.RemoveNode(n)
	}
	if len(verbatim) > 0 {
		appendVerbatimStyle(root, dedupeStrings(verbatim))
	}
}

// inlineCascade applies the matching declarations (in specificity
// order, lowest first, so later/higher-specificity rules and finally
// the element's own style attribute win) onto each element, tracking
// the inherited font size down the tree for font-size keyword
// resolution.
func inlineCascade(n *xmlquery.Node, rules []css.Rule, parentFontPt float64) {
	fontPt := parentFontPt
	if n.Type == xmlquery.ElementNode {
		type matched struct {
			spec int
			decl css.Declaration
		}
		var applicable []matched
		for _, r := range rules {
			if !css.Matches(r.Selector, n) {
				continue
			}
			spec := css.Specificity(r.Selector)
			for _, d := range r.Declarations {
				applicable = append(applicable, matched{spec, d})
			}
		}
		sort.SliceStable(applicable, func(i, j int) bool { return applicable[i].spec < applicable[j].spec })

		merged := map[string]string{}
		var order []string
		apply := func(prop, val string) {
			if _, ok := merged[prop]; !ok {
				order = append(order, prop)
			}
			merged[prop] = val
		}
		for _, m := range applicable {
			apply(m.decl.Property, m.decl.Value)
		}
		for _, d := range css.ParseDeclarationBlock(n.SelectAttr("style")) {
			apply(d.Property, d.Value)
		}

		if fs, ok := merged["font-size"]; ok {
			fontPt = css.ResolveFontSize(fs, parentFontPt)
			merged["font-size"] = fmt.Sprintf("%gpt", fontPt)
		}

		if len(merged) > 0 {
			var sb strings.Builder
			for _, p := range order {
				sb.WriteString(p)
				sb.WriteString(": ")
				sb.WriteString(merged[p])
				sb.WriteString("; ")
			}
			ir.SetAttr(n, "style", strings.TrimSpace(sb.String()))
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		inlineCascade(c, rules, fontPt)
	}
}

// resolveStylesheetHref loads and recursively resolves @import targets
// for the CSS manifest item at href. A cycle (an import chain that
// revisits an href) resolves to an empty stylesheet rather than
// recursing forever.
func resolveStylesheetHref(b *ir.BookIR, href string, seen map[string]bool) *css.Stylesheet {
	if href == "" || seen[href] {
		return &css.Stylesheet{}
	}
	seen[href] = true
	item := b.Manifest.GetByHref(href)
	if item == nil {
		return &css.Stylesheet{}
	}
	text, ok := item.Data.(ir.CssData)
	if !ok {
		return &css.Stylesheet{}
	}
	sheet, err := css.ParseStylesheet(string(text))
	if err != nil {
		return &css.Stylesheet{}
	}
	merged := &css.Stylesheet{}
	for _, imp := range sheet.Imports {
		sub := resolveStylesheetHref(b, imp, seen)
		merged.Rules = append(merged.Rules, sub.Rules...)
		merged.VerbatimAtRules = append(merged.VerbatimAtRules, sub.VerbatimAtRules...)
	}
	merged.Rules = append(merged.Rules, sheet.Rules...)
	merged.VerbatimAtRules = append(merged.VerbatimAtRules, sheet.VerbatimAtRules...)
	return merged
}

func elementText(n *xmlquery.Node) string {
	var b strings.Builder
	ir.WalkTextNodes(n, func(t *xmlquery.Node) { b.WriteString(t.Data) })
	return b.String()
}

func dedupeStrings(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// appendVerbatimStyle adds a <style> element containing the retained
// at-rules to the document's <head>, creating one if absent.
func appendVerbatimStyle(root *xmlquery.Node, verbatim []string) {
	var head *xmlquery.Node
	ir.WalkElements(root, func(n *xmlquery.Node) {
		if head == nil && n.Data == "head" {
			head = n
		}
	})
	if head == nil {
		return
	}
	style := newElement("style")
	text := &xmlquery.Node{Type: xmlquery.TextNode, Data: strings.Join(verbatim, "\n")}
	appendChild(style, text)
	appendChild(head, style)
}
