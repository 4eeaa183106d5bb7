package ir

import (
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
)

// Invariant names used in ValidationError, one per rule Validate checks.
const (
	InvariantReferenceResolves = "reference-resolves"
	InvariantUniqueHref        = "unique-href"
	InvariantWellFormedXHTML   = "well-formed-xhtml"
	InvariantMediaTypeMatch    = "media-type-match"
)

// ValidationError reports a single invariant violation at a path within
// the book.
type ValidationError struct {
	Invariant string
	Path      string
	Message   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s at %s: %s", e.Invariant, e.Path, e.Message)
}

// hrefBase strips a #fragment from href.
func hrefBase(href string) string {
	if i := strings.IndexByte(href, '#'); i >= 0 {
		return href[:i]
	}
	return href
}

// isExternal reports whether href points outside the manifest (has a
// scheme, or is empty). A bare fragment is not external: it resolves
// against the owning item.
func isExternal(href string) bool {
	if href == "" {
		return true
	}
	if strings.HasPrefix(href, "#") {
		return false // same-document fragment, resolved against the owning item
	}
	for i := 0; i < len(href); i++ {
		c := href[i]
		if c == ':' {
			return true
		}
		if c == '/' || c == '#' || c == '?' {
			break
		}
	}
	return false
}

// Validate checks every book-wide invariant against b and returns every
// violation found (it does not stop at the first one).
func Validate(b *BookIR) []error {
	var errs []error

	// Href uniqueness is enforced structurally by Manifest's uniqueness
	// index, but we double-check here in case a caller mutated fields
	// directly.
	seenHref := map[string]string{}
	for _, item := range b.Manifest.Items() {
		if prior, ok := seenHref[item.Href]; ok && prior != item.ID {
			errs = append(errs, &ValidationError{Invariant: InvariantUniqueHref, Path: "manifest." + item.ID,
				Message: fmt.Sprintf("href %q shared with id %q", item.Href, prior)})
		}
		seenHref[item.Href] = item.ID

		if msg := mediaTypeMismatch(item); msg != "" {
			errs = append(errs, &ValidationError{Invariant: InvariantMediaTypeMatch, Path: "manifest." + item.ID, Message: msg})
		}

		if x, ok := item.Data.(XhtmlData); ok {
			if !WellFormed(string(x)) {
				errs = append(errs, &ValidationError{Invariant: InvariantWellFormedXHTML, Path: "manifest." + item.ID,
					Message: "not well-formed XML"})
			}
		}
	}

	for i, entry := range b.Spine.Entries() {
		if b.Manifest.Get(entry.ID) == nil {
			errs = append(errs, &ValidationError{Invariant: InvariantReferenceResolves, Path: fmt.Sprintf("spine[%d]", i),
				Message: fmt.Sprintf("manifest id %q does not exist", entry.ID)})
		}
	}

	for i, g := range b.Guide {
		if !hrefResolves(b, g.Href) {
			errs = append(errs, &ValidationError{Invariant: InvariantReferenceResolves, Path: fmt.Sprintf("guide[%d]", i),
				Message: fmt.Sprintf("href %q does not resolve", g.Href)})
		}
	}

	validateTocHrefs(b, b.TOC, "toc", &errs)

	// References inside XHTML content must resolve or be external.
	for _, item := range b.Manifest.Items() {
		x, ok := item.Data.(XhtmlData)
		if !ok {
			continue
		}
		root, err := ParseXHTML(string(x))
		if err != nil {
			continue // already reported as a well-formedness violation
		}
		WalkElements(root, func(n *xmlquery.Node) {
			attr, href := internalRefAttr(n)
			if attr == "" || href == "" || isExternal(href) {
				return
			}
			base := hrefBase(href)
			if base == "" {
				return // same-document fragment
			}
			if !hrefResolves(b, base) {
				errs = append(errs, &ValidationError{Invariant: InvariantReferenceResolves,
					Path:    "manifest." + item.ID + "/" + n.Data + "@" + attr,
					Message: fmt.Sprintf("href %q does not resolve", href)})
			}
		})
	}

	return errs
}

func validateTocHrefs(b *BookIR, entries []*TocEntry, path string, errs *[]error) {
	for i, e := range entries {
		p := fmt.Sprintf("%s[%d]", path, i)
		if e.Href != "" && !hrefResolves(b, hrefBase(e.Href)) {
			*errs = append(*errs, &ValidationError{Invariant: InvariantReferenceResolves, Path: p,
				Message: fmt.Sprintf("href %q does not resolve", e.Href)})
		}
		validateTocHrefs(b, e.Children, p+".children", errs)
	}
}

func hrefResolves(b *BookIR, href string) bool {
	if href == "" {
		return true
	}
	return b.Manifest.GetByHref(href) != nil
}

// internalRefAttr returns the URL-valued attribute name and value this
// element carries: <img src>, <link href>, <a href>.
func internalRefAttr(n *xmlquery.Node) (attr, value string) {
	name := localName(n.Data)
	switch name {
	case "img":
		if v := n.SelectAttr("src"); v != "" {
			return "src", v
		}
	case "link":
		if v := n.SelectAttr("href"); v != "" {
			return "href", v
		}
	case "a":
		if v := n.SelectAttr("href"); v != "" {
			return "href", v
		}
	}
	return "", ""
}

func localName(name string) string {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[i+1:]
	}
	return name
}

func mediaTypeMismatch(item *ManifestItem) string {
	switch item.Data.(type) {
	case XhtmlData:
		if item.MediaType != MediaTypeXHTML {
			return fmt.Sprintf("Xhtml data with media type %q", item.MediaType)
		}
	case CssData:
		if item.MediaType != MediaTypeCSS {
			return fmt.Sprintf("Css data with media type %q", item.MediaType)
		}
	case BinaryData, LazyData:
		if item.MediaType == MediaTypeXHTML || item.MediaType == MediaTypeCSS {
			return fmt.Sprintf("binary data with media type %q", item.MediaType)
		}
	}
	return ""
}
