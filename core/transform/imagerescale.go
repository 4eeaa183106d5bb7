package transform

import (
	"bytes"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/disintegration/imaging"

	"github.com/inkwell-press/inkwell/core/cache"
	"github.com/inkwell-press/inkwell/core/ir"
	"github.com/inkwell-press/inkwell/core/options"
)

// ImageRescale downscales images that exceed max_image_size (never
// upscaling) and transcodes formats the output side can't consume
// directly to JPEG. Results are memoized in an on-disk cache keyed by
// source content hash and target parameters when cache_dir is set.
type ImageRescale struct{}

func (ImageRescale) Name() string                  { return "image_rescale" }
func (ImageRescale) ShouldRun(*options.Options) bool { return true }

// supportedImageFormats are the encodings an output plugin is assumed
// to accept directly; anything else is transcoded to JPEG.
var supportedImageFormats = map[string]bool{"jpeg": true, "png": true, "gif": true}

type rescaleOutcome struct {
	id        string
	changed   bool
	newHref   string
	mediaType string
	data      []byte
	warning   string
}

func (ImageRescale) Apply(b *ir.BookIR, o *options.Options, progress ProgressFunc) error {
	imgCache, err := cache.Open(o.CacheDir)
	if err != nil {
		return err
	}
	defer imgCache.Close()

	var jobs []*ir.ManifestItem
	for _, id := range sortedIDs(b) {
		item := b.Manifest.Get(id)
		if strings.HasPrefix(item.MediaType, "image/") {
			jobs = append(jobs, item)
		}
	}

	pool := NewPool[*ir.ManifestItem, rescaleOutcome](len(jobs))
	results := pool.Run(jobs, func(item *ir.ManifestItem) rescaleOutcome {
		return rescaleOne(item, o, imgCache)
	})

	renames := map[string]string{}
	total := len(results)
	for i, r := range results {
		if total > 0 {
			progress(float64(i+1) / float64(total))
		}
		if r.warning != "" {
			slog.Warn("image_rescale: "+r.warning, "item", r.id)
		}
		if !r.changed {
			continue
		}
		item := b.Manifest.Get(r.id)
		item.Data = ir.BinaryData(r.data)
		item.MediaType = r.mediaType
		if r.newHref != "" && r.newHref != item.Href {
			old := item.Href
			if err := b.Manifest.Rehref(r.id, r.newHref); err == nil {
				renames[old] = r.newHref
			}
		}
	}
	if len(renames) == 0 {
		return nil
	}
	rewriteImageReferences(b, renames)
	return nil
}

func rescaleOne(item *ir.ManifestItem, o *options.Options, imgCache *cache.Cache) rescaleOutcome {
	raw, err := readItemBytes(item)
	if err != nil {
		return rescaleOutcome{id: item.ID, warning: "could not read image: " + err.Error()}
	}

	srcImg, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		// Undecodable (e.g. an SVG or a format imaging doesn't support):
		// leave it untouched rather than failing the whole run.
		return rescaleOutcome{id: item.ID}
	}
	bounds := srcImg.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return rescaleOutcome{id: item.ID, warning: "image has zero dimension, left unchanged"}
	}

	hash8 := ir.ContentHash8(raw)
	targetFormat := format
	if !supportedImageFormats[format] {
		targetFormat = "jpeg"
	}

	targetW, targetH := bounds.Dx(), bounds.Dy()
	if o.MaxImageSize != nil {
		targetW, targetH = o.MaxImageSize.Width, o.MaxImageSize.Height
	}

	key := cache.Key{SourceHash8: hash8, Width: targetW, Height: targetH, MediaType: "image/" + targetFormat, Quality: o.JPEGQuality}
	if cached, mt, ok := imgCache.Get(key); ok {
		return rescaleOutcome{id: item.ID, changed: true, mediaType: mt, data: cached, newHref: rehrefFor(item.Href, targetFormat)}
	}

	out := srcImg
	if o.MaxImageSize != nil && (bounds.Dx() > o.MaxImageSize.Width || bounds.Dy() > o.MaxImageSize.Height) {
		out = imaging.Fit(srcImg, o.MaxImageSize.Width, o.MaxImageSize.Height, imaging.Lanczos)
	}

	resized := out.Bounds().Dx() != bounds.Dx() || out.Bounds().Dy() != bounds.Dy()
	if !resized && targetFormat == format {
		return rescaleOutcome{id: item.ID}
	}

	encoded, mediaType, err := encodeImage(out, targetFormat, o.JPEGQuality)
	if err != nil {
		return rescaleOutcome{id: item.ID, warning: "re-encode failed: " + err.Error()}
	}
	_ = imgCache.Put(key, mediaType, encoded)

	return rescaleOutcome{
		id:        item.ID,
		changed:   true,
		mediaType: mediaType,
		data:      encoded,
		newHref:   rehrefFor(item.Href, targetFormat),
	}
}

func readItemBytes(item *ir.ManifestItem) ([]byte, error) {
	switch d := item.Data.(type) {
	case ir.BinaryData:
		return d, nil
	case ir.LazyData:
		return os.ReadFile(d.Path)
	default:
		return nil, nil
	}
}

func encodeImage(img image.Image, format string, quality int) ([]byte, string, error) {
	var buf bytes.Buffer
	switch format {
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/png", nil
	case "gif":
		if err := gif.Encode(&buf, img, nil); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/gif", nil
	default:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/jpeg", nil
	}
}

func rehrefFor(href, format string) string {
	ext := format
	if ext == "jpeg" {
		ext = "jpg"
	}
	if i := strings.LastIndexByte(href, '.'); i >= 0 {
		return href[:i+1] + ext
	}
	return href + "." + ext
}

// rewriteImageReferences updates every <img src> that pointed at a
// renamed image to its new href, across all XHTML items. Other
// references (href attributes, CSS url()) are not rewritten.
func rewriteImageReferences(b *ir.BookIR, renames map[string]string) {
	for _, item := range xhtmlItems(b) {
		html := string(item.Data.(ir.XhtmlData))
		root, err := ir.ParseXHTML(html)
		if err != nil {
			continue
		}
		changed := false
		ir.WalkElements(root, func(n *xmlquery.Node) {
			if n.Data != "img" {
				return
			}
			if newHref, ok := renames[n.SelectAttr("src")]; ok {
				ir.SetAttr(n, "src", newHref)
				changed = true
			}
		})
		if changed {
			item.Data = ir.XhtmlData(ir.SerializeXHTML(root))
		}
	}
}
