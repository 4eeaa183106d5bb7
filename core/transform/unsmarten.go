package transform

import (
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/inkwell-press/inkwell/core/ir"
	"github.com/inkwell-press/inkwell/core/options"
)

// UnsmartenPunctuation rewrites curly quotes, en/em dashes, and
// ellipses to their plain-ASCII equivalents in text content only —
// attribute values and element names are left untouched. Idempotent:
// its output contains none of the characters it looks for. Runs only
// when unsmarten_punctuation is enabled.
type UnsmartenPunctuation struct{}

func (UnsmartenPunctuation) Name() string { return "unsmarten_punctuation" }
func (UnsmartenPunctuation) ShouldRun(o *options.Options) bool {
	return o.UnsmartenPunctuation
}

var unsmartenReplacer = strings.NewReplacer(
	"‘", "'",
	"’", "'",
	"“", "\"",
	"”", "\"",
	"–", "-",
	"—", "--",
	"…", "...",
)

func (UnsmartenPunctuation) Apply(b *ir.BookIR, o *options.Options, progress ProgressFunc) error {
	items := xhtmlItems(b)
	type outcome struct{ html string }
	pool := NewPool[*ir.ManifestItem, outcome](len(items))
	results := pool.Run(items, func(item *ir.ManifestItem) outcome {
		html := string(item.Data.(ir.XhtmlData))
		root, err := ir.ParseXHTML(html)
		if err != nil {
			return outcome{html: html}
		}
		ir.WalkTextNodes(root, func(n *xmlquery.Node) {
			n.Data = unsmartenReplacer.Replace(n.Data)
		})
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
