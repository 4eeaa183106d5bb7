package transform

import (
	"strings"
	"testing"

	"github.com/inkwell-press/inkwell/core/ir"
	"github.com/inkwell-press/inkwell/core/options"
)

func TestUnsmartenPunctuationSkippedWhenDisabled(t *testing.T) {
	o := options.Default()
	if (UnsmartenPunctuation{}).ShouldRun(o) {
		t.Fatalf("expected ShouldRun false by default")
	}
}

func TestUnsmartenPunctuationRewritesTextOnly(t *testing.T) {
	b := ir.NewBookIR()
	html := `<?xml version="1.0"?><html><body><p data-note="keep “this”">` +
		"“Hello” — it’s a … test" +
		`</p></body></html>`
	_ = b.Manifest.Add(&ir.ManifestItem{ID: "ch1", Href: "ch1.xhtml", MediaType: ir.MediaTypeXHTML, Data: ir.XhtmlData(html)})
	_ = b.Spine.Add("ch1", true)

	o := options.Default()
	o.UnsmartenPunctuation = true
	if err := (UnsmartenPunctuation{}).Apply(b, o, func(float64) {}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	got := string(b.Manifest.Get("ch1").Data.(ir.XhtmlData))
	if !strings.Contains(got, "keep “this”") {
		t.Fatalf("expected attribute value left untouched, got %q", got)
	}
	if !strings.Contains(got, `"Hello" -- it's a ... test`) {
		t.Fatalf("expected text content unsmartened, got %q", got)
	}
}
