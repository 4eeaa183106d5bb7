package epub

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/inkwell-press/inkwell/core/ir"
)

type ncxDoc struct {
	XMLName xml.Name    `xml:"ncx"`
	NavMap  ncxNavPoint `xml:"navMap"`
}

type ncxNavPoint struct {
	NavLabel   ncxNavLabel   `xml:"navLabel"`
	Content    ncxContent    `xml:"content"`
	NavPoints  []ncxNavPoint `xml:"navPoint"`
}

type ncxNavLabel struct {
	Text string `xml:"text"`
}

type ncxContent struct {
	Src string `xml:"src,attr"`
}

func parseNCX(data []byte) ([]*ir.TocEntry, error) {
	var doc ncxDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return ncxPointsToTOC(doc.NavMap.NavPoints), nil
}

func ncxPointsToTOC(points []ncxNavPoint) []*ir.TocEntry {
	if len(points) == 0 {
		return nil
	}
	out := make([]*ir.TocEntry, 0, len(points))
	for _, p := range points {
		out = append(out, &ir.TocEntry{
			Title:    strings.TrimSpace(p.NavLabel.Text),
			Href:     p.Content.Src,
			Children: ncxPointsToTOC(p.NavPoints),
		})
	}
	return out
}

// parseNavTOC extracts a table of contents from an EPUB3 nav document:
// the first <nav> whose epub:type is "toc" (or the first <nav> found,
// if none is so marked), read as a nested <ol>/<li>/<a> list.
func parseNavTOC(data []byte) ([]*ir.TocEntry, error) {
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	nav := findTOCNav(root)
	if nav == nil {
		return nil, nil
	}
	ol := findChildElement(nav, "ol")
	if ol == nil {
		return nil, nil
	}
	return navOlToTOC(ol), nil
}

func findTOCNav(n *html.Node) *html.Node {
	var fallback *html.Node
	found := false
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found {
			return
		}
		if n.Type == html.ElementNode && n.Data == "nav" {
			if fallback == nil {
				fallback = n
			}
			for _, a := range n.Attr {
				if strings.EqualFold(a.Key, "epub:type") && strings.Contains(a.Val, "toc") {
					fallback = n
					found = true
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return fallback
}

func findChildElement(n *html.Node, name string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == name {
			return c
		}
		if found := findChildElement(c, name); found != nil {
			return found
		}
	}
	return nil
}

func navOlToTOC(ol *html.Node) []*ir.TocEntry {
	var out []*ir.TocEntry
	for li := ol.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.Data != "li" {
			continue
		}
		a := findChildElement(li, "a")
		entry := &ir.TocEntry{}
		if a != nil {
			entry.Title = strings.TrimSpace(textContent(a))
			for _, attr := range a.Attr {
				if attr.Key == "href" {
					entry.Href = attr.Val
				}
			}
		}
		if childOl := findChildElement(li, "ol"); childOl != nil {
			entry.Children = navOlToTOC(childOl)
		}
		out = append(out, entry)
	}
	return out
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// buildNavXHTML renders an EPUB3 navigation document from the book's
// table of contents.
func buildNavXHTML(title string, toc []*ir.TocEntry) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<!DOCTYPE html>` + "\n")
	b.WriteString(`<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">` + "\n")
	fmt.Fprintf(&b, "<head><title>%s</title></head>\n", escapeXML(title))
	b.WriteString("<body>\n  <nav epub:type=\"toc\">\n    <ol>\n")
	writeNavOl(&b, toc, 2)
	b.WriteString("    </ol>\n  </nav>\n</body>\n</html>\n")
	return b.String()
}

func writeNavOl(b *strings.Builder, entries []*ir.TocEntry, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, e := range entries {
		fmt.Fprintf(b, "%s<li><a href=\"%s\">%s</a>", indent, escapeXML(e.Href), escapeXML(e.Title))
		if len(e.Children) > 0 {
			b.WriteString("\n" + indent + "  <ol>\n")
			writeNavOl(b, e.Children, depth+2)
			b.WriteString(indent + "  </ol>\n" + indent)
		}
		b.WriteString("</li>\n")
	}
}

// buildNCX renders an EPUB2-compatible toc.ncx from the book's table of
// contents.
func buildNCX(uid, title string, toc []*ir.TocEntry) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">` + "\n")
	fmt.Fprintf(&b, "  <head>\n    <meta name=\"dtb:uid\" content=\"%s\"/>\n  </head>\n", escapeXML(uid))
	fmt.Fprintf(&b, "  <docTitle><text>%s</text></docTitle>\n", escapeXML(title))
	b.WriteString("  <navMap>\n")
	order := 0
	writeNavPoints(&b, toc, 2, &order)
	b.WriteString("  </navMap>\n</ncx>\n")
	return b.String()
}

func writeNavPoints(b *strings.Builder, entries []*ir.TocEntry, depth int, order *int) {
	indent := strings.Repeat("  ", depth)
	for _, e := range entries {
		*order++
		fmt.Fprintf(b, "%s<navPoint id=\"np-%d\" playOrder=\"%d\">\n", indent, *order, *order)
		fmt.Fprintf(b, "%s  <navLabel><text>%s</text></navLabel>\n", indent, escapeXML(e.Title))
		fmt.Fprintf(b, "%s  <content src=\"%s\"/>\n", indent, escapeXML(e.Href))
		if len(e.Children) > 0 {
			writeNavPoints(b, e.Children, depth+1, order)
		}
		fmt.Fprintf(b, "%s</navPoint>\n", indent)
	}
}
