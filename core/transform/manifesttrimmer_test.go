package transform

import (
	"testing"

	"github.com/inkwell-press/inkwell/core/ir"
	"github.com/inkwell-press/inkwell/core/options"
)

func TestManifestTrimmerDropsUnreachableItems(t *testing.T) {
	b := ir.NewBookIR()
	_ = b.Manifest.Add(&ir.ManifestItem{ID: "ch1", Href: "ch1.xhtml", MediaType: ir.MediaTypeXHTML, Data: ir.XhtmlData(`<?xml version="1.0"?><html><body><img src="cover.jpg"/></body></html>`)})
	_ = b.Spine.Add("ch1", true)
	_ = b.Manifest.Add(&ir.ManifestItem{ID: "cover", Href: "cover.jpg", MediaType: "image/jpeg", Data: ir.BinaryData([]byte{1})})
	_ = b.Manifest.Add(&ir.ManifestItem{ID: "orphan", Href: "orphan.jpg", MediaType: "image/jpeg", Data: ir.BinaryData([]byte{2})})

	if err := (ManifestTrimmer{}).Apply(b, options.Default(), func(float64) {}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if b.Manifest.Get("orphan") != nil {
		t.Fatalf("expected unreachable orphan item removed")
	}
	if b.Manifest.Get("cover") == nil {
		t.Fatalf("expected reachable cover item kept")
	}
	if b.Manifest.Get("ch1") == nil {
		t.Fatalf("expected spine item kept")
	}
}

func TestManifestTrimmerIsIdempotent(t *testing.T) {
	b := ir.NewBookIR()
	_ = b.Manifest.Add(&ir.ManifestItem{ID: "ch1", Href: "ch1.xhtml", MediaType: ir.MediaTypeXHTML, Data: ir.XhtmlData(`<?xml version="1.0"?><html><body/></html>`)})
	_ = b.Spine.Add("ch1", true)
	_ = b.Manifest.Add(&ir.ManifestItem{ID: "orphan", Href: "orphan.jpg", MediaType: "image/jpeg", Data: ir.BinaryData([]byte{2})})

	trimmer := ManifestTrimmer{}
	if err := trimmer.Apply(b, options.Default(), func(float64) {}); err != nil {
		t.Fatalf("first Apply: %v", err)
	}
	before := b.Manifest.Len()
	if err := trimmer.Apply(b, options.Default(), func(float64) {}); err != nil {
		t.Fatalf("second Apply: %v", err)
	}
	if b.Manifest.Len() != before {
		t.Fatalf("expected second trim to be a no-op, before=%d after=%d", before, b.Manifest.Len())
	}
}
