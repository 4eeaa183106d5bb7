package ir

import "testing"

func TestReachableHrefsDropsUnreferencedCSS(t *testing.T) {
	b := NewBookIR()
	_ = b.Manifest.Add(&ManifestItem{
		ID: "ch1", Href: "ch1.xhtml", MediaType: MediaTypeXHTML,
		Data: XhtmlData(`<html><head><link rel="stylesheet" href="used.css"/></head><body><p>hi</p></body></html>`),
	})
	_ = b.Manifest.Add(&ManifestItem{ID: "used", Href: "used.css", MediaType: MediaTypeCSS, Data: CssData("p{}")})
	_ = b.Manifest.Add(&ManifestItem{ID: "unused", Href: "unused.css", MediaType: MediaTypeCSS, Data: CssData("p{}")})
	_ = b.Spine.Add("ch1", true)

	reachable := ReachableHrefs(b)
	if !reachable["ch1.xhtml"] || !reachable["used.css"] {
		t.Fatalf("expected ch1.xhtml and used.css reachable, got %v", reachable)
	}
	if reachable["unused.css"] {
		t.Fatalf("expected unused.css NOT reachable, got %v", reachable)
	}
}

func TestReachableHrefsFollowsCSSURL(t *testing.T) {
	b := NewBookIR()
	_ = b.Manifest.Add(&ManifestItem{
		ID: "ch1", Href: "ch1.xhtml", MediaType: MediaTypeXHTML,
		Data: XhtmlData(`<html><head><link rel="stylesheet" href="main.css"/></head><body/></html>`),
	})
	_ = b.Manifest.Add(&ManifestItem{ID: "main", Href: "main.css", MediaType: MediaTypeCSS,
		Data: CssData(`body { background: url("images/bg.png"); }`)})
	_ = b.Manifest.Add(&ManifestItem{ID: "bg", Href: "images/bg.png", MediaType: "image/png", Data: BinaryData{1, 2, 3}})
	_ = b.Spine.Add("ch1", true)

	reachable := ReachableHrefs(b)
	if !reachable["images/bg.png"] {
		t.Fatalf("expected images/bg.png reachable via CSS url(), got %v", reachable)
	}
}

func TestReachableHrefsFollowsGuideAndTOC(t *testing.T) {
	b := NewBookIR()
	_ = b.Manifest.Add(&ManifestItem{ID: "ch1", Href: "ch1.xhtml", MediaType: MediaTypeXHTML, Data: XhtmlData(`<html/>`)})
	_ = b.Manifest.Add(&ManifestItem{ID: "cover", Href: "cover.xhtml", MediaType: MediaTypeXHTML, Data: XhtmlData(`<html/>`)})
	_ = b.Spine.Add("ch1", true)
	b.Guide = append(b.Guide, GuideEntry{Type: GuideCover, Href: "cover.xhtml"})

	reachable := ReachableHrefs(b)
	if !reachable["cover.xhtml"] {
		t.Fatalf("expected cover.xhtml reachable via guide, got %v", reachable)
	}
}
