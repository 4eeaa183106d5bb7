package epub

import (
	"encoding/xml"
	"fmt"
	"strings"

	apperrors "github.com/inkwell-press/inkwell/core/errors"
)

type opfPackage struct {
	XMLName  xml.Name    `xml:"package"`
	Version  string      `xml:"version,attr"`
	Metadata opfMetadata `xml:"metadata"`
	Manifest opfManifest `xml:"manifest"`
	Spine    opfSpine    `xml:"spine"`
}

type opfMetadata struct {
	Titles      []string `xml:"http://purl.org/dc/elements/1.1/ title"`
	Creators    []string `xml:"http://purl.org/dc/elements/1.1/ creator"`
	Languages   []string `xml:"http://purl.org/dc/elements/1.1/ language"`
	Identifiers []string `xml:"http://purl.org/dc/elements/1.1/ identifier"`
	Publishers  []string `xml:"http://purl.org/dc/elements/1.1/ publisher"`
	Dates       []string `xml:"http://purl.org/dc/elements/1.1/ date"`
	Description string   `xml:"http://purl.org/dc/elements/1.1/ description"`
}

type opfManifest struct {
	Items []opfManifestItem `xml:"item"`
}

type opfManifestItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr"`
}

type opfSpine struct {
	TocAttr  string            `xml:"toc,attr"`
	ItemRefs []opfSpineItemRef `xml:"itemref"`
}

type opfSpineItemRef struct {
	IDRef  string `xml:"idref,attr"`
	Linear string `xml:"linear,attr"`
}

func parseOPF(data []byte) (*opfPackage, error) {
	var pkg opfPackage
	if err := xml.Unmarshal(data, &pkg); err != nil {
		return nil, &apperrors.ParseError{Plugin: "epub", Message: "malformed content.opf", Err: err}
	}
	if pkg.Version == "" {
		pkg.Version = "2.0"
	}
	return &pkg, nil
}

// navItem returns the manifest item whose properties list contains
// "nav" (the EPUB3 navigation document), or nil.
func (p *opfPackage) navItem() *opfManifestItem {
	for i := range p.Manifest.Items {
		for _, prop := range strings.Fields(p.Manifest.Items[i].Properties) {
			if prop == "nav" {
				return &p.Manifest.Items[i]
			}
		}
	}
	return nil
}

// ncxItem returns the manifest item referenced by spine/@toc, or the
// first application/x-dtbncx+xml item found.
func (p *opfPackage) ncxItem() *opfManifestItem {
	if p.Spine.TocAttr != "" {
		for i := range p.Manifest.Items {
			if p.Manifest.Items[i].ID == p.Spine.TocAttr {
				return &p.Manifest.Items[i]
			}
		}
	}
	for i := range p.Manifest.Items {
		if p.Manifest.Items[i].MediaType == "application/x-dtbncx+xml" {
			return &p.Manifest.Items[i]
		}
	}
	return nil
}

func first(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	return ss[0]
}

// buildOPF renders an OPF 2.0 or 3.0 content.opf document for the given
// manifest and spine. navHref is the href of the generated navigation
// document (EPUB3 only, empty for EPUB2). ncxHref is the href of the
// generated toc.ncx, always present so EPUB2 reading systems work.
func buildOPF(identifiers map[string]string, title, language string, items []opfManifestItem, spineIDs []string, version string, navHref, ncxHref string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	fmt.Fprintf(&b, `<package xmlns="http://www.idpf.org/2007/opf" version="%s" unique-identifier="book-id">`+"\n", version)
	b.WriteString(`  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">` + "\n")
	uid, ok := identifiers["uuid"]
	if !ok {
		uid, ok = identifiers["isbn"]
	}
	if !ok {
		uid = "urn:uuid:00000000-0000-0000-0000-000000000000"
	}
	fmt.Fprintf(&b, `    <dc:identifier id="book-id">%s</dc:identifier>`+"\n", escapeXML(uid))
	fmt.Fprintf(&b, `    <dc:title>%s</dc:title>`+"\n", escapeXML(title))
	fmt.Fprintf(&b, `    <dc:language>%s</dc:language>`+"\n", escapeXML(language))
	if version == "3.0" {
		b.WriteString(`    <meta property="dcterms:modified">2024-01-01T00:00:00Z</meta>` + "\n")
	}
	b.WriteString(`  </metadata>` + "\n")

	b.WriteString(`  <manifest>` + "\n")
	if navHref != "" {
		fmt.Fprintf(&b, `    <item id="nav" href="%s" media-type="application/xhtml+xml" properties="nav"/>`+"\n", navHref)
	}
	if ncxHref != "" {
		b.WriteString(`    <item id="ncx" href="` + ncxHref + `" media-type="application/x-dtbncx+xml"/>` + "\n")
	}
	for _, it := range items {
		fmt.Fprintf(&b, `    <item id="%s" href="%s" media-type="%s"/>`+"\n", it.ID, it.Href, it.MediaType)
	}
	b.WriteString(`  </manifest>` + "\n")

	b.WriteString(`  <spine` + tocAttr(ncxHref) + `>` + "\n")
	for _, id := range spineIDs {
		fmt.Fprintf(&b, `    <itemref idref="%s"/>`+"\n", id)
	}
	b.WriteString(`  </spine>` + "\n")
	b.WriteString(`</package>` + "\n")
	return b.String()
}

func tocAttr(ncxHref string) string {
	if ncxHref == "" {
		return ""
	}
	return ` toc="ncx"`
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}
