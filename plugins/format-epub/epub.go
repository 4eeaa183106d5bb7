// Package epub implements the "epub" input and output plugins: a real
// OCF/zip container with an OPF package document, optional NCX and
// EPUB3 navigation documents.
package epub

import (
	"archive/zip"
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	apperrors "github.com/inkwell-press/inkwell/core/errors"
	"github.com/inkwell-press/inkwell/core/ir"
	"github.com/inkwell-press/inkwell/core/options"
	"github.com/inkwell-press/inkwell/core/plugins"
)

type plugin struct{}

func (plugin) Formats() []string { return []string{"epub"} }

func init() {
	p := plugin{}
	plugins.RegisterInput(p)
	plugins.RegisterOutput(p)
}

// Parse reads an EPUB container into a BookIR: every manifest item
// other than the nav document and NCX becomes a manifest entry
// (XHTML/CSS/binary per its declared media type; items whose file is
// missing from the archive are skipped), the spine becomes the book's
// reading order, and the nav
// document or NCX (whichever is present) becomes the table of
// contents.
func (plugin) Parse(ctx context.Context, srcPath string, o *options.Options) (*ir.BookIR, error) {
	zr, err := zip.OpenReader(srcPath)
	if err != nil {
		return nil, &apperrors.ParseError{Plugin: "epub", Message: "not a valid ZIP archive", Err: err}
	}
	defer zr.Close()

	opfPath, err := parseContainer(&zr.Reader)
	if err != nil {
		return nil, err
	}
	opfDir := path.Dir(opfPath)

	opfFile := findZipFile(&zr.Reader, opfPath)
	if opfFile == nil {
		return nil, &apperrors.ParseError{Plugin: "epub", Message: fmt.Sprintf("OPF referenced at %q not found in archive", opfPath)}
	}
	opfData, err := readZipFile(opfFile)
	if err != nil {
		return nil, &apperrors.ParseError{Plugin: "epub", Message: "cannot read OPF", Err: err}
	}
	pkg, err := parseOPF(opfData)
	if err != nil {
		return nil, err
	}

	b := ir.NewBookIR()
	b.Metadata.Title = first(pkg.Metadata.Titles)
	b.Metadata.Authors = pkg.Metadata.Creators
	if lang := first(pkg.Metadata.Languages); lang != "" {
		b.Metadata.Language = lang
	}
	b.Metadata.Publisher = first(pkg.Metadata.Publishers)
	b.Metadata.Date = first(pkg.Metadata.Dates)
	b.Metadata.Description = pkg.Metadata.Description
	for _, id := range pkg.Metadata.Identifiers {
		scheme := "uuid"
		if strings.HasPrefix(strings.ToLower(id), "urn:isbn:") {
			scheme = "isbn"
		}
		b.Metadata.SetIdentifier(scheme, id)
	}

	navItem := pkg.navItem()
	ncxItem := pkg.ncxItem()

	for _, item := range pkg.Manifest.Items {
		if navItem != nil && item.ID == navItem.ID {
			continue // nav becomes the TOC, not a manifest resource
		}
		if ncxItem != nil && item.ID == ncxItem.ID {
			continue
		}
		zipPath := path.Join(opfDir, item.Href)
		f := findZipFile(&zr.Reader, zipPath)
		if f == nil {
			continue
		}
		data, err := readZipFile(f)
		if err != nil {
			return nil, &apperrors.ParseError{Plugin: "epub", Message: fmt.Sprintf("cannot read manifest item %q", item.Href), Err: err}
		}

		var itemData ir.ItemData
		switch item.MediaType {
		case ir.MediaTypeXHTML, "text/html":
			itemData = ir.XhtmlData(data)
		case ir.MediaTypeCSS:
			itemData = ir.CssData(data)
		default:
			itemData = ir.BinaryData(data)
		}
		mediaType := item.MediaType
		if mediaType == "text/html" {
			mediaType = ir.MediaTypeXHTML
		}
		if err := b.Manifest.Add(&ir.ManifestItem{ID: item.ID, Href: item.Href, MediaType: mediaType, Data: itemData}); err != nil {
			return nil, &apperrors.ParseError{Plugin: "epub", Message: err.Error()}
		}
	}

	for _, ref := range pkg.Spine.ItemRefs {
		if b.Manifest.Get(ref.IDRef) == nil {
			continue // nav/ncx referenced from the spine, already excluded above
		}
		if err := b.Spine.Add(ref.IDRef, ref.Linear != "no"); err != nil {
			return nil, &apperrors.ParseError{Plugin: "epub", Message: err.Error()}
		}
	}

	toc, err := parseTOC(&zr.Reader, opfDir, navItem, ncxItem)
	if err != nil {
		return nil, &apperrors.ParseError{Plugin: "epub", Message: "malformed table of contents", Err: err}
	}
	b.TOC = toc

	return b, nil
}

func parseTOC(zr *zip.Reader, opfDir string, navItem, ncxItem *opfManifestItem) ([]*ir.TocEntry, error) {
	if navItem != nil {
		if f := findZipFile(zr, path.Join(opfDir, navItem.Href)); f != nil {
			data, err := readZipFile(f)
			if err != nil {
				return nil, err
			}
			toc, err := parseNavTOC(data)
			if err != nil {
				return nil, err
			}
			if toc != nil {
				return toc, nil
			}
		}
	}
	if ncxItem != nil {
		if f := findZipFile(zr, path.Join(opfDir, ncxItem.Href)); f != nil {
			data, err := readZipFile(f)
			if err != nil {
				return nil, err
			}
			return parseNCX(data)
		}
	}
	return nil, nil
}

// Write serializes b to a fresh EPUB2 or EPUB3 container, chosen by
// o.EpubVersion (default EPUB2). The mimetype entry is written first
// and uncompressed, as the OCF spec requires.
func (plugin) Write(ctx context.Context, b *ir.BookIR, dstPath string, o *options.Options) error {
	f, err := os.Create(dstPath)
	if err != nil {
		return &apperrors.IOError{Operation: "create", Path: dstPath, Err: err}
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	defer zw.Close()

	mw, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		return &apperrors.IOError{Operation: "write", Path: "mimetype", Err: err}
	}
	if _, err := mw.Write([]byte("application/epub+zip")); err != nil {
		return &apperrors.IOError{Operation: "write", Path: "mimetype", Err: err}
	}

	if err := writeZipString(zw, containerPath, buildContainerXML("OEBPS/content.opf")); err != nil {
		return err
	}

	version := "2.0"
	if o.EpubVersion == options.EpubVersion3 {
		version = "3.0"
	}

	var items []opfManifestItem
	var spineIDs []string
	for _, se := range b.Spine.Entries() {
		spineIDs = append(spineIDs, se.ID)
	}
	for _, item := range b.Manifest.Items() {
		if err := writeManifestItem(zw, item); err != nil {
			return err
		}
		items = append(items, opfManifestItem{ID: item.ID, Href: item.Href, MediaType: item.MediaType})
	}

	uid, _ := b.Metadata.Identifier("uuid")
	if uid == "" {
		uid, _ = b.Metadata.Identifier("isbn")
	}

	navHref := ""
	if version == "3.0" {
		navHref = "nav.xhtml"
		if err := writeZipString(zw, "OEBPS/"+navHref, buildNavXHTML(b.Metadata.Title, b.TOC)); err != nil {
			return err
		}
	}
	ncxHref := "toc.ncx"
	if err := writeZipString(zw, "OEBPS/"+ncxHref, buildNCX(uid, b.Metadata.Title, b.TOC)); err != nil {
		return err
	}

	opfXML := buildOPF(b.Metadata.Identifiers, b.Metadata.Title, b.Metadata.Language, items, spineIDs, version, navHref, ncxHref)
	if err := writeZipString(zw, "OEBPS/content.opf", opfXML); err != nil {
		return err
	}

	return nil
}

func writeManifestItem(zw *zip.Writer, item *ir.ManifestItem) error {
	w, err := zw.Create("OEBPS/" + item.Href)
	if err != nil {
		return &apperrors.IOError{Operation: "write", Path: item.Href, Err: err}
	}
	var data []byte
	switch d := item.Data.(type) {
	case ir.XhtmlData:
		data = []byte(d)
	case ir.CssData:
		data = []byte(d)
	case ir.BinaryData:
		data = []byte(d)
	case ir.LazyData:
		b, err := os.ReadFile(d.Path)
		if err != nil {
			return &apperrors.IOError{Operation: "read", Path: d.Path, Err: err}
		}
		data = b
	}
	if _, err := w.Write(data); err != nil {
		return &apperrors.IOError{Operation: "write", Path: item.Href, Err: err}
	}
	return nil
}

func writeZipString(zw *zip.Writer, name, content string) error {
	w, err := zw.Create(name)
	if err != nil {
		return &apperrors.IOError{Operation: "write", Path: name, Err: err}
	}
	if _, err := w.Write([]byte(content)); err != nil {
		return &apperrors.IOError{Operation: "write", Path: name, Err: err}
	}
	return nil
}
