package transform

import (
	"strings"
	"testing"

	"github.com/inkwell-press/inkwell/core/ir"
	"github.com/inkwell-press/inkwell/core/options"
)

func TestCSSFlattenerInlinesLinkedAndInlineStyles(t *testing.T) {
	b := ir.NewBookIR()
	_ = b.Manifest.Add(&ir.ManifestItem{ID: "style", Href: "style.css", MediaType: ir.MediaTypeCSS, Data: ir.CssData(`p { color: red; }`)})
	html := `<?xml version="1.0"?><html><head><link rel="stylesheet" href="style.css"/><style>.big{font-size:larger;}</style></head><body><p class="big">hi</p></body></html>`
	_ = b.Manifest.Add(&ir.ManifestItem{ID: "ch1", Href: "ch1.xhtml", MediaType: ir.MediaTypeXHTML, Data: ir.XhtmlData(html)})
	_ = b.Spine.Add("ch1", true)

	if err := (CSSFlattener{}).Apply(b, options.Default(), func(float64) {}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	got := string(b.Manifest.Get("ch1").Data.(ir.XhtmlData))
	if strings.Contains(got, "<link") || strings.Contains(got, "<style>.big") {
		t.Fatalf("expected link/inline style elements removed, got %q", got)
	}
	if !strings.Contains(got, "color: red") {
		t.Fatalf("expected linked stylesheet rule inlined, got %q", got)
	}
}

func TestCSSFlattenerRetainsUnsupportedAtRulesVerbatim(t *testing.T) {
	b := ir.NewBookIR()
	html := `<?xml version="1.0"?><html><head><style>@media print { p { color: blue; } }</style></head><body><p>hi</p></body></html>`
	_ = b.Manifest.Add(&ir.ManifestItem{ID: "ch1", Href: "ch1.xhtml", MediaType: ir.MediaTypeXHTML, Data: ir.XhtmlData(html)})
	_ = b.Spine.Add("ch1", true)

	if err := (CSSFlattener{}).Apply(b, options.Default(), func(float64) {}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	got := string(b.Manifest.Get("ch1").Data.(ir.XhtmlData))
	if !strings.Contains(got, "@media print") {
		t.Fatalf("expected @media rule retained verbatim, got %q", got)
	}
}

func TestCSSFlattenerElementStyleWinsOverCascade(t *testing.T) {
	b := ir.NewBookIR()
	html := `<?xml version="1.0"?><html><head><style>p{color:red;}</style></head><body><p style="color:green;">hi</p></body></html>`
	_ = b.Manifest.Add(&ir.ManifestItem{ID: "ch1", Href: "ch1.xhtml", MediaType: ir.MediaTypeXHTML, Data: ir.XhtmlData(html)})
	_ = b.Spine.Add("ch1", true)

	if err := (CSSFlattener{}).Apply(b, options.Default(), func(float64) {}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	got := string(b.Manifest.Get("ch1").Data.(ir.XhtmlData))
	if !strings.Contains(got, "color: green") {
		t.Fatalf("expected the element's own style attribute to win, got %q", got)
	}
}
