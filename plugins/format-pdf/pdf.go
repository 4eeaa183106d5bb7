// Package pdf implements the "pdf" input plugin. There is no PDF
// output plugin: rendering a BookIR back to PDF is out of scope.
//
// Two extraction strategies are available, selected by
// options.Options.PDFEngine: text-only shells out to pdftohtml to
// recover per-page text, image-only shells out to pdftoppm to
// rasterize each page as a JPEG. auto tries text extraction first and
// falls back to rasterization if no page yielded visible text (a
// common symptom of a scanned, image-only PDF).
package pdf

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	apperrors "github.com/inkwell-press/inkwell/core/errors"
	"github.com/inkwell-press/inkwell/core/ir"
	"github.com/inkwell-press/inkwell/core/options"
	"github.com/inkwell-press/inkwell/core/plugins"
)

type plugin struct{}

func (plugin) Formats() []string { return []string{"pdf"} }

func init() {
	plugins.RegisterInput(plugin{})
}

func (plugin) Parse(ctx context.Context, path string, o *options.Options) (*ir.BookIR, error) {
	engine := o.PDFEngine
	if engine == "" {
		engine = options.PDFEngineAuto
	}

	if engine == options.PDFEngineImageOnly {
		return parseImageOnly(ctx, path, o)
	}

	b, err := parseTextOnly(ctx, path)
	if err != nil {
		return nil, err
	}
	if engine == options.PDFEngineAuto && !hasVisibleText(b) {
		return parseImageOnly(ctx, path, o)
	}
	return b, nil
}

func hasVisibleText(b *ir.BookIR) bool {
	for _, item := range b.Manifest.Items() {
		if x, ok := item.Data.(ir.XhtmlData); ok && strings.TrimSpace(stripTags(string(x))) != "" {
			return true
		}
	}
	return false
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

func stripTags(s string) string { return tagPattern.ReplaceAllString(s, "") }

// pdf2xmlDoc models pdftohtml -xml's output closely enough to recover
// per-page plain text; font and position attributes are not modeled.
type pdf2xmlDoc struct {
	XMLName xml.Name  `xml:"pdf2xml"`
	Pages   []pdfPage `xml:"page"`
}

type pdfPage struct {
	Number int       `xml:"number,attr"`
	Texts  []pdfText `xml:"text"`
}

type pdfText struct {
	Content string `xml:",chardata"`
}

func parseTextOnly(ctx context.Context, path string) (*ir.BookIR, error) {
	if _, err := exec.LookPath("pdftohtml"); err != nil {
		return nil, &apperrors.ResourceError{Resource: "pdftohtml", Message: "not found on PATH", Err: err}
	}

	tmpDir, err := os.MkdirTemp("", "inkwell-pdf")
	if err != nil {
		return nil, &apperrors.IOError{Operation: "mkdtemp", Path: tmpDir, Err: err}
	}
	defer os.RemoveAll(tmpDir)

	outBase := filepath.Join(tmpDir, "out")
	cmd := exec.CommandContext(ctx, "pdftohtml", "-xml", "-i", "-q", path, outBase)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, &apperrors.ResourceError{Resource: "pdftohtml", Message: strings.TrimSpace(string(out)), Err: err}
	}

	data, err := os.ReadFile(outBase + ".xml")
	if err != nil {
		return nil, &apperrors.ResourceError{Resource: "pdftohtml", Message: "no XML output produced", Err: err}
	}

	var doc pdf2xmlDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, &apperrors.ParseError{Plugin: "pdf", Message: "malformed pdftohtml XML output", Err: err}
	}

	b := ir.NewBookIR()
	for _, page := range doc.Pages {
		var body strings.Builder
		for _, t := range page.Texts {
			text := strings.TrimSpace(t.Content)
			if text == "" {
				continue
			}
			fmt.Fprintf(&body, "<p>%s</p>\n", ir.EscapeXMLAttr(text))
		}
		id := fmt.Sprintf("page-%d", page.Number)
		href := id + ".xhtml"
		pageDoc := "<html><head></head><body>\n" + body.String() + "</body></html>"
		if err := b.Manifest.Add(&ir.ManifestItem{ID: id, Href: href, MediaType: ir.MediaTypeXHTML, Data: ir.XhtmlData(pageDoc)}); err != nil {
			return nil, &apperrors.ParseError{Plugin: "pdf", Message: err.Error()}
		}
		if err := b.Spine.Add(id, true); err != nil {
			return nil, &apperrors.ParseError{Plugin: "pdf", Message: err.Error()}
		}
	}
	return b, nil
}

func parseImageOnly(ctx context.Context, path string, o *options.Options) (*ir.BookIR, error) {
	if _, err := exec.LookPath("pdftoppm"); err != nil {
		return nil, &apperrors.ResourceError{Resource: "pdftoppm", Message: "not found on PATH", Err: err}
	}

	dpi := o.PDFDPI
	if dpi <= 0 {
		dpi = 200
	}

	tmpDir, err := os.MkdirTemp("", "inkwell-pdf")
	if err != nil {
		return nil, &apperrors.IOError{Operation: "mkdtemp", Path: tmpDir, Err: err}
	}
	defer os.RemoveAll(tmpDir)

	outBase := filepath.Join(tmpDir, "page")
	cmd := exec.CommandContext(ctx, "pdftoppm", "-jpeg", "-r", strconv.Itoa(dpi), path, outBase)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, &apperrors.ResourceError{Resource: "pdftoppm", Message: strings.TrimSpace(string(out)), Err: err}
	}

	pages, err := rasterizedPages(tmpDir)
	if err != nil {
		return nil, err
	}

	b := ir.NewBookIR()
	var body strings.Builder
	body.WriteString("<html><head></head><body>\n")
	for i, pagePath := range pages {
		data, err := os.ReadFile(pagePath)
		if err != nil {
			return nil, &apperrors.IOError{Operation: "read", Path: pagePath, Err: err}
		}
		n := i + 1
		id := fmt.Sprintf("page-%d", n)
		href := fmt.Sprintf("page-%d.jpg", n)
		if err := b.Manifest.Add(&ir.ManifestItem{ID: id, Href: href, MediaType: "image/jpeg", Data: ir.BinaryData(data)}); err != nil {
			return nil, &apperrors.ParseError{Plugin: "pdf", Message: err.Error()}
		}
		fmt.Fprintf(&body, `<img src="%s"/>`+"\n", href)
	}
	body.WriteString("</body></html>")

	if err := b.Manifest.Add(&ir.ManifestItem{ID: "body", Href: "body.xhtml", MediaType: ir.MediaTypeXHTML, Data: ir.XhtmlData(body.String())}); err != nil {
		return nil, &apperrors.ParseError{Plugin: "pdf", Message: err.Error()}
	}
	if err := b.Spine.Add("body", true); err != nil {
		return nil, &apperrors.ParseError{Plugin: "pdf", Message: err.Error()}
	}
	return b, nil
}

// rasterizedPages returns pdftoppm's page-N.jpg outputs from dir, sorted
// numerically by page number.
func rasterizedPages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &apperrors.IOError{Operation: "readdir", Path: dir, Err: err}
	}
	var numbered []struct {
		n    int
		path string
	}
	pagePattern := regexp.MustCompile(`^page-0*(\d+)\.jpg$`)
	for _, e := range entries {
		m := pagePattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		numbered = append(numbered, struct {
			n    int
			path string
		}{n, filepath.Join(dir, e.Name())})
	}
	sort.Slice(numbered, func(i, j int) bool { return numbered[i].n < numbered[j].n })
	out := make([]string, len(numbered))
	for i, e := range numbered {
		out[i] = e.path
	}
	return out, nil
}
