package transform

import (
	"encoding/base64"
	"fmt"
	"sort"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/inkwell-press/inkwell/core/ir"
	"github.com/inkwell-press/inkwell/core/options"
)

// DataURL extracts data: URIs embedded in XHTML attributes into their
// own manifest items, keyed by content hash so identical payloads
// dedupe to a single resource.
type DataURL struct{}

func (DataURL) Name() string                     { return "data_url" }
func (DataURL) ShouldRun(*options.Options) bool { return true }

type pendingResource struct {
	href      string
	mediaType string
	data      []byte
}

func (DataURL) Apply(b *ir.BookIR, o *options.Options, progress ProgressFunc) error {
	items := xhtmlItems(b)
	type outcome struct {
		html      string
		resources []pendingResource
	}
	pool := NewPool[*ir.ManifestItem, outcome](len(items))
	results := pool.Run(items, func(item *ir.ManifestItem) outcome {
		html := string(item.Data.(ir.XhtmlData))
		root, err := ir.ParseXHTML(html)
		if err != nil {
			return outcome{html: html}
		}
		var resources []pendingResource
		ir.WalkElements(root, func(n *xmlquery.Node) {
			for _, attrName := range []string{"src", "href"} {
				v := n.SelectAttr(attrName)
				if !strings.HasPrefix(v, "data:") {
					continue
				}
				res, ok := decodeDataURI(v)
				if !ok {
					continue
				}
				ir.SetAttr(n, attrName, res.href)
				resources = append(resources, res)
			}
		})
		return outcome{html: ir.SerializeXHTML(root), resources: resources}
	})

	seen := map[string]bool{}
	total := len(results)
	for i, r := range results {
		if total > 0 {
			progress(float64(i+1) / float64(total))
		}
		items[i].Data = ir.XhtmlData(r.html)
		for _, res := range r.resources {
			if seen[res.href] {
				continue
			}
			seen[res.href] = true
			if b.Manifest.GetByHref(res.href) != nil {
				continue
			}
			id := "res-" + strings.TrimSuffix(strings.TrimPrefix(res.href, "resources/data-"), extOf(res.href))
			if err := b.Manifest.Add(&ir.ManifestItem{
				ID:        id,
				Href:      res.href,
				MediaType: res.mediaType,
				Data:      ir.BinaryData(res.data),
			}); err != nil {
				return fmt.Errorf("data_url: %w", err)
			}
		}
	}
	return nil
}

// decodeDataURI parses a data: URI into its decoded bytes and the
// manifest href it should live at. Returns ok=false for malformed URIs,
// which are left untouched in the DOM.
func decodeDataURI(uri string) (pendingResource, bool) {
	rest := strings.TrimPrefix(uri, "data:")
	comma := strings.IndexByte(rest, ',')
	if comma < 0 {
		return pendingResource{}, false
	}
	meta, payload := rest[:comma], rest[comma+1:]
	mediaType := "text/plain"
	isBase64 := false
	for _, part := range strings.Split(meta, ";") {
		switch {
		case part == "base64":
			isBase64 = true
		case part != "":
			mediaType = part
		}
	}

	var data []byte
	if isBase64 {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return pendingResource{}, false
		}
		data = decoded
	} else {
		data = []byte(percentDecode(payload))
	}

	hash8 := ir.ContentHash8(data)
	ext := extForMediaType(mediaType)
	href := fmt.Sprintf("resources/data-%s.%s", hash8, ext)
	return pendingResource{href: href, mediaType: mediaType, data: data}, true
}

func percentDecode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			hi, hiOK := hexDigit(s[i+1])
			lo, loOK := hexDigit(s[i+2])
			if hiOK && loOK {
				b.WriteByte(byte(hi<<4 | lo))
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func hexDigit(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10, true
	}
	return -1, false
}

func extForMediaType(mt string) string {
	switch strings.ToLower(strings.TrimSpace(mt)) {
	case "image/png":
		return "png"
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/gif":
		return "gif"
	case "image/svg+xml":
		return "svg"
	case "image/webp":
		return "webp"
	case "font/woff":
		return "woff"
	case "font/woff2":
		return "woff2"
	case "text/css":
		return "css"
	default:
		return "bin"
	}
}

func extOf(href string) string {
	if i := strings.LastIndexByte(href, '.'); i >= 0 {
		return href[i+1:]
	}
	return ""
}

// xhtmlItems returns the manifest's XHTML items, in a stable order, for
// transforms that parallelize over documents.
func xhtmlItems(b *ir.BookIR) []*ir.ManifestItem {
	var out []*ir.ManifestItem
	for _, id := range sortedIDs(b) {
		item := b.Manifest.Get(id)
		if _, ok := item.Data.(ir.XhtmlData); ok {
			out = append(out, item)
		}
	}
	return out
}

func sortedIDs(b *ir.BookIR) []string {
	ids := b.Manifest.IDs()
	sort.Strings(ids)
	return ids
}
