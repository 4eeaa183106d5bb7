package ir

import "testing"

func TestNewBookIRDefaults(t *testing.T) {
	b := NewBookIR()
	if b.Metadata.Language != "en" {
		t.Fatalf("expected default language en, got %q", b.Metadata.Language)
	}
	if b.Manifest.Len() != 0 {
		t.Fatalf("expected empty manifest")
	}
}

func TestMetadataIdentifierFolding(t *testing.T) {
	var m Metadata
	m.SetIdentifier("UUID", "abc-123")
	v, ok := m.Identifier("uuid")
	if !ok || v != "abc-123" {
		t.Fatalf("expected case-folded lookup to find scheme, got %q %v", v, ok)
	}
}

func TestManifestUniqueIDAndHref(t *testing.T) {
	m := NewManifest()
	if err := m.Add(&ManifestItem{ID: "a", Href: "a.xhtml", MediaType: MediaTypeXHTML, Data: XhtmlData("<html/>")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Add(&ManifestItem{ID: "a", Href: "b.xhtml", MediaType: MediaTypeXHTML, Data: XhtmlData("<html/>")}); err == nil {
		t.Fatalf("expected duplicate id error")
	}
	if err := m.Add(&ManifestItem{ID: "b", Href: "a.xhtml", MediaType: MediaTypeXHTML, Data: XhtmlData("<html/>")}); err == nil {
		t.Fatalf("expected duplicate href error")
	}
}

func TestSpineNoDuplicateIDs(t *testing.T) {
	s := &Spine{}
	if err := s.Add("ch1", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Add("ch1", true); err == nil {
		t.Fatalf("expected error for duplicate spine id")
	}
}

func TestSpineReplace(t *testing.T) {
	s := &Spine{}
	_ = s.Add("ch1", true)
	_ = s.Add("ch2", true)
	if err := s.Replace(0, []SpineEntry{{ID: "ch1-split-1", Linear: true}, {ID: "ch1-split-2", Linear: true}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := s.Entries()
	want := []string{"ch1-split-1", "ch1-split-2", "ch2"}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].ID != w {
			t.Fatalf("entry %d: expected %q, got %q", i, w, got[i].ID)
		}
	}
}

func TestBookIRCloneIndependence(t *testing.T) {
	b := NewBookIR()
	b.Metadata.Title = "Original"
	_ = b.Manifest.Add(&ManifestItem{ID: "a", Href: "a.xhtml", MediaType: MediaTypeXHTML, Data: XhtmlData("<html/>")})

	clone := b.Clone()
	clone.Metadata.Title = "Changed"
	if b.Metadata.Title != "Original" {
		t.Fatalf("mutating clone metadata affected original")
	}

	_ = clone.Manifest.Add(&ManifestItem{ID: "b", Href: "b.xhtml", MediaType: MediaTypeXHTML, Data: XhtmlData("<html/>")})
	if b.Manifest.Len() != 1 {
		t.Fatalf("mutating clone manifest affected original")
	}
}
