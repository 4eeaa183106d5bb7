package ir

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// dumpManifestItem is the JSON shape of one manifest entry in a debug
// dump: text variants are inlined, BinaryData is written to a companion
// file alongside the dump and referenced by name, and LazyData is
// referenced by its source path without being read.
type dumpManifestItem struct {
	ID        string `json:"id"`
	Href      string `json:"href"`
	MediaType string `json:"media_type"`
	Variant   string `json:"variant"`
	Text      string `json:"text,omitempty"`
	File      string `json:"file,omitempty"`
	LazyPath  string `json:"lazy_path,omitempty"`
}

type dumpDoc struct {
	Metadata Metadata            `json:"metadata"`
	Manifest []dumpManifestItem  `json:"manifest"`
	Spine    []SpineEntry        `json:"spine"`
	TOC      []*TocEntry         `json:"toc"`
	Guide    []GuideEntry        `json:"guide"`
}

// Dump writes a diagnostic (non-persistence) snapshot of b as
// dir/filename, plus one companion file per BinaryData item
// (dir/filename-<id>.bin). The JSON shape matches the pipeline's
// between-phase debug dumps: manifest items carry id/href/media_type/
// variant, with decoded text inlined for non-binary data.
func Dump(b *BookIR, dir, filename string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ir: dump: %w", err)
	}
	doc := dumpDoc{Metadata: b.Metadata, Spine: b.Spine.Entries(), TOC: b.TOC, Guide: b.Guide}
	for _, id := range sortedIDs(b) {
		item := b.Manifest.Get(id)
		entry := dumpManifestItem{ID: item.ID, Href: item.Href, MediaType: item.MediaType}
		switch d := item.Data.(type) {
		case XhtmlData:
			entry.Variant = "xhtml"
			entry.Text = string(d)
		case CssData:
			entry.Variant = "css"
			entry.Text = string(d)
		case BinaryData:
			entry.Variant = "binary"
			companion := fmt.Sprintf("%s-%s.bin", filename, item.ID)
			entry.File = companion
			if err := os.WriteFile(filepath.Join(dir, companion), d, 0o644); err != nil {
				return fmt.Errorf("ir: dump companion for %q: %w", item.ID, err)
			}
		case LazyData:
			entry.Variant = "lazy"
			entry.LazyPath = d.Path
		}
		doc.Manifest = append(doc.Manifest, entry)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("ir: dump: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, filename), data, 0o644)
}

// sortedIDs returns the manifest's ids in a stable, deterministic order
// so dumps are reproducible across runs.
func sortedIDs(b *BookIR) []string {
	ids := b.Manifest.IDs()
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	return ids
}
