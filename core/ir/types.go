package ir

import "fmt"

// BookIR is the complete in-memory representation of a book being
// converted. It is exclusively owned by the pipeline for the duration
// of a single run; transforms receive exclusive access in sequence.
type BookIR struct {
	Metadata Metadata
	Manifest *Manifest
	Spine    *Spine
	TOC      []*TocEntry
	Guide    []GuideEntry
}

// NewBookIR returns an empty BookIR with an initialized manifest and
// spine, and Language defaulted to "en".
func NewBookIR() *BookIR {
	return &BookIR{
		Metadata: Metadata{Language: "en", Identifiers: map[string]string{}},
		Manifest: NewManifest(),
		Spine:    &Spine{},
	}
}

// Clone returns a deep copy of the book, used by tests that need to
// assert a transform did not mutate an input it wasn't supposed to.
func (b *BookIR) Clone() *BookIR {
	if b == nil {
		return nil
	}
	out := &BookIR{
		Metadata: b.Metadata.clone(),
		Manifest: b.Manifest.clone(),
		Spine:    b.Spine.clone(),
	}
	out.TOC = cloneTocEntries(b.TOC)
	out.Guide = append([]GuideEntry(nil), b.Guide...)
	return out
}

// Metadata holds the book's Dublin-Core-ish descriptive fields.
type Metadata struct {
	Title       string
	Authors     []string
	Language    string // BCP-47 tag, defaults to "en"
	Description string
	Publisher   string
	Date        string // ISO-8601 date-time
	// Identifiers maps a case-folded scheme name (e.g. "uuid", "isbn")
	// to its value.
	Identifiers map[string]string
}

// SetIdentifier stores value under the case-folded scheme name.
func (m *Metadata) SetIdentifier(scheme, value string) {
	if m.Identifiers == nil {
		m.Identifiers = map[string]string{}
	}
	m.Identifiers[foldScheme(scheme)] = value
}

// Identifier returns the value stored under the case-folded scheme
// name, and whether it was present.
func (m *Metadata) Identifier(scheme string) (string, bool) {
	if m.Identifiers == nil {
		return "", false
	}
	v, ok := m.Identifiers[foldScheme(scheme)]
	return v, ok
}

func foldScheme(scheme string) string {
	out := make([]byte, len(scheme))
	for i := 0; i < len(scheme); i++ {
		c := scheme[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

func (m Metadata) clone() Metadata {
	out := m
	out.Authors = append([]string(nil), m.Authors...)
	out.Identifiers = make(map[string]string, len(m.Identifiers))
	for k, v := range m.Identifiers {
		out.Identifiers[k] = v
	}
	return out
}

// MediaType constants used throughout the pipeline. The variant tag of
// a ManifestItem's Data must agree with its MediaType (see
// InvariantMediaTypeMatch).
const (
	MediaTypeXHTML = "application/xhtml+xml"
	MediaTypeCSS   = "text/css"
)

// ItemData is the sum type for a ManifestItem's payload. Exactly one of
// XhtmlData, CssData, BinaryData, LazyData implements it.
type ItemData interface {
	isItemData()
}

// XhtmlData is a manifest item's payload when MediaType is
// application/xhtml+xml: the serialized XHTML document.
type XhtmlData string

func (XhtmlData) isItemData() {}

// CssData is a manifest item's payload when MediaType is text/css.
type CssData string

func (CssData) isItemData() {}

// BinaryData is an opaque byte payload (images, fonts, ...).
type BinaryData []byte

func (BinaryData) isItemData() {}

// LazyData is a manifest item whose bytes live on disk and are read on
// demand; the IR never caches the bytes once read.
type LazyData struct {
	Path string // absolute filesystem path
}

func (LazyData) isItemData() {}

// ManifestItem is one resource in the book: an XHTML document, a CSS
// stylesheet, or a binary resource (image, font).
type ManifestItem struct {
	ID        string
	Href      string
	MediaType string
	Data      ItemData
}

// Manifest maps a manifest id to a ManifestItem, while enforcing
// InvariantUniqueHref: both ids and hrefs are unique within the
// manifest.
type Manifest struct {
	items    map[string]*ManifestItem
	hrefToID map[string]string
}

// NewManifest returns an empty Manifest.
func NewManifest() *Manifest {
	return &Manifest{items: map[string]*ManifestItem{}, hrefToID: map[string]string{}}
}

// Add inserts item into the manifest. It returns an error if the id or
// href already exists, preserving uniqueness.
func (m *Manifest) Add(item *ManifestItem) error {
	if _, exists := m.items[item.ID]; exists {
		return fmt.Errorf("manifest: duplicate id %q", item.ID)
	}
	if existingID, exists := m.hrefToID[item.Href]; exists {
		return fmt.Errorf("manifest: duplicate href %q (already used by id %q)", item.Href, existingID)
	}
	m.items[item.ID] = item
	m.hrefToID[item.Href] = item.ID
	return nil
}

// Get returns the item with the given id, or nil if absent.
func (m *Manifest) Get(id string) *ManifestItem {
	return m.items[id]
}

// GetByHref returns the item with the given href, or nil if absent.
func (m *Manifest) GetByHref(href string) *ManifestItem {
	id, ok := m.hrefToID[href]
	if !ok {
		return nil
	}
	return m.items[id]
}

// Remove deletes the item with the given id, if present.
func (m *Manifest) Remove(id string) {
	item, ok := m.items[id]
	if !ok {
		return
	}
	delete(m.hrefToID, item.Href)
	delete(m.items, id)
}

// Rehref changes an existing item's href, keeping the uniqueness index
// consistent. Returns an error if newHref is already in use.
func (m *Manifest) Rehref(id, newHref string) error {
	item, ok := m.items[id]
	if !ok {
		return fmt.Errorf("manifest: no such id %q", id)
	}
	if existingID, exists := m.hrefToID[newHref]; exists && existingID != id {
		return fmt.Errorf("manifest: duplicate href %q (already used by id %q)", newHref, existingID)
	}
	delete(m.hrefToID, item.Href)
	item.Href = newHref
	m.hrefToID[newHref] = id
	return nil
}

// Len returns the number of items in the manifest.
func (m *Manifest) Len() int { return len(m.items) }

// IDs returns all manifest ids, in no particular order.
func (m *Manifest) IDs() []string {
	out := make([]string, 0, len(m.items))
	for id := range m.items {
		out = append(out, id)
	}
	return out
}

// Items returns all manifest items, in no particular order.
func (m *Manifest) Items() []*ManifestItem {
	out := make([]*ManifestItem, 0, len(m.items))
	for _, item := range m.items {
		out = append(out, item)
	}
	return out
}

func (m *Manifest) clone() *Manifest {
	out := NewManifest()
	for id, item := range m.items {
		clonedItem := &ManifestItem{ID: item.ID, Href: item.Href, MediaType: item.MediaType}
		switch d := item.Data.(type) {
		case BinaryData:
			clonedItem.Data = append(BinaryData(nil), d...)
		default:
			clonedItem.Data = item.Data
		}
		out.items[id] = clonedItem
		out.hrefToID[item.Href] = id
	}
	return out
}

// SpineEntry is one entry in the reading order.
type SpineEntry struct {
	ID     string // manifest id of an XHTML item
	Linear bool   // defaults to true
}

// Spine is the ordered reading-order list. A manifest id may appear at
// most once.
type Spine struct {
	entries []SpineEntry
	seen    map[string]bool
}

// Add appends an entry, returning an error if id is already present
// (a spine id may appear at most once).
func (s *Spine) Add(id string, linear bool) error {
	if s.seen == nil {
		s.seen = map[string]bool{}
	}
	if s.seen[id] {
		return fmt.Errorf("spine: id %q already present", id)
	}
	s.seen[id] = true
	s.entries = append(s.entries, SpineEntry{ID: id, Linear: linear})
	return nil
}

// Entries returns the ordered spine entries.
func (s *Spine) Entries() []SpineEntry { return s.entries }

// Len returns the number of spine entries.
func (s *Spine) Len() int { return len(s.entries) }

// Replace swaps the entry currently at index i for replacements,
// preserving overall order (used by SplitChapters).
func (s *Spine) Replace(i int, replacements []SpineEntry) error {
	if i < 0 || i >= len(s.entries) {
		return fmt.Errorf("spine: index %d out of range", i)
	}
	delete(s.seen, s.entries[i].ID)
	for _, r := range replacements {
		if s.seen[r.ID] {
			return fmt.Errorf("spine: id %q already present", r.ID)
		}
		s.seen[r.ID] = true
	}
	out := make([]SpineEntry, 0, len(s.entries)-1+len(replacements))
	out = append(out, s.entries[:i]...)
	out = append(out, replacements...)
	out = append(out, s.entries[i+1:]...)
	s.entries = out
	return nil
}

// InsertAt inserts an entry at index i (used by Jacket to insert at 0).
func (s *Spine) InsertAt(i int, entry SpineEntry) error {
	if s.seen == nil {
		s.seen = map[string]bool{}
	}
	if s.seen[entry.ID] {
		return fmt.Errorf("spine: id %q already present", entry.ID)
	}
	if i < 0 || i > len(s.entries) {
		return fmt.Errorf("spine: index %d out of range", i)
	}
	s.seen[entry.ID] = true
	out := make([]SpineEntry, 0, len(s.entries)+1)
	out = append(out, s.entries[:i]...)
	out = append(out, entry)
	out = append(out, s.entries[i:]...)
	s.entries = out
	return nil
}

// RemoveID removes the entry with the given manifest id, if present
// (used by ManifestTrimmer for entries whose item vanished, though in
// practice the spine is the root of reachability so this rarely fires).
func (s *Spine) RemoveID(id string) {
	if !s.seen[id] {
		return
	}
	delete(s.seen, id)
	out := s.entries[:0]
	for _, e := range s.entries {
		if e.ID != id {
			out = append(out, e)
		}
	}
	s.entries = out
}

func (s *Spine) clone() *Spine {
	if s == nil {
		return &Spine{}
	}
	out := &Spine{entries: append([]SpineEntry(nil), s.entries...), seen: map[string]bool{}}
	for k, v := range s.seen {
		out.seen[k] = v
	}
	return out
}

// TocEntry is one node in the hierarchical table of contents.
type TocEntry struct {
	Title    string
	Href     string // path, optionally with a #fragment
	Children []*TocEntry
}

func cloneTocEntries(entries []*TocEntry) []*TocEntry {
	if entries == nil {
		return nil
	}
	out := make([]*TocEntry, len(entries))
	for i, e := range entries {
		out[i] = &TocEntry{Title: e.Title, Href: e.Href, Children: cloneTocEntries(e.Children)}
	}
	return out
}

// GuideType is one of the fixed semantic landmark types.
type GuideType string

// Guide type constants.
const (
	GuideCover         GuideType = "cover"
	GuideTitlePage     GuideType = "title-page"
	GuideTOC           GuideType = "toc"
	GuideText          GuideType = "text"
	GuideCopyrightPage GuideType = "copyright-page"
	GuideColophon      GuideType = "colophon"
	GuideIndex         GuideType = "index"
	GuideGlossary      GuideType = "glossary"
	GuideBibliography  GuideType = "bibliography"
)

// GuideEntry is one semantic landmark. At most one entry per Type may
// exist in a BookIR's Guide.
type GuideEntry struct {
	Type  GuideType
	Title string
	Href  string
}
