package transform

import "testing"

func TestOrderRunsManifestTrimmerLast(t *testing.T) {
	if len(Order) == 0 {
		t.Fatalf("expected a non-empty transform order")
	}
	last := Order[len(Order)-1]
	if last.Name() != "manifest_trimmer" {
		t.Fatalf("expected manifest_trimmer last, got %q", last.Name())
	}
}

func TestOrderNamesAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, tr := range Order {
		if seen[tr.Name()] {
			t.Fatalf("duplicate transform name %q", tr.Name())
		}
		seen[tr.Name()] = true
	}
}

func TestOrderDetectStructurePrecedesSplitChapters(t *testing.T) {
	detectIdx, splitIdx := -1, -1
	for i, tr := range Order {
		switch tr.Name() {
		case "detect_structure":
			detectIdx = i
		case "split_chapters":
			splitIdx = i
		}
	}
	if detectIdx < 0 || splitIdx < 0 {
		t.Fatalf("expected both detect_structure and split_chapters in Order")
	}
	if detectIdx >= splitIdx {
		t.Fatalf("expected detect_structure (%d) before split_chapters (%d)", detectIdx, splitIdx)
	}
}

func TestOrderCSSFlattenerPrecedesPageMargin(t *testing.T) {
	cssIdx, marginIdx := -1, -1
	for i, tr := range Order {
		switch tr.Name() {
		case "css_flattener":
			cssIdx = i
		case "page_margin":
			marginIdx = i
		}
	}
	if cssIdx < 0 || marginIdx < 0 {
		t.Fatalf("expected both css_flattener and page_margin in Order")
	}
	if cssIdx >= marginIdx {
		t.Fatalf("expected css_flattener (%d) before page_margin (%d)", cssIdx, marginIdx)
	}
}
