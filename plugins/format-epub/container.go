package epub

import (
	"archive/zip"
	"encoding/xml"
	"strings"

	apperrors "github.com/inkwell-press/inkwell/core/errors"
)

const containerPath = "META-INF/container.xml"

type containerXML struct {
	XMLName   xml.Name   `xml:"container"`
	RootFiles []rootFile `xml:"rootfiles>rootfile"`
}

type rootFile struct {
	FullPath  string `xml:"full-path,attr"`
	MediaType string `xml:"media-type,attr"`
}

// findZipFile looks up a ZIP entry by path, falling back to a
// case-insensitive match (some producers disagree on OPF/META-INF casing).
func findZipFile(r *zip.Reader, name string) *zip.File {
	for _, f := range r.File {
		if f.Name == name {
			return f
		}
	}
	lower := strings.ToLower(name)
	for _, f := range r.File {
		if strings.ToLower(f.Name) == lower {
			return f
		}
	}
	return nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	var buf strings.Builder
	if _, err := buf.ReadFrom(rc); err != nil {
		return nil, err
	}
	return []byte(buf.String()), nil
}

// parseContainer locates the OPF root file referenced by
// META-INF/container.xml.
func parseContainer(r *zip.Reader) (string, error) {
	f := findZipFile(r, containerPath)
	if f == nil {
		return "", &apperrors.ParseError{Plugin: "epub", Message: "archive has no META-INF/container.xml"}
	}
	data, err := readZipFile(f)
	if err != nil {
		return "", &apperrors.ParseError{Plugin: "epub", Message: "cannot read container.xml", Err: err}
	}
	var c containerXML
	if err := xml.Unmarshal(data, &c); err != nil {
		return "", &apperrors.ParseError{Plugin: "epub", Message: "malformed container.xml", Err: err}
	}
	for _, rf := range c.RootFiles {
		if p := strings.TrimSpace(rf.FullPath); p != "" {
			return p, nil
		}
	}
	return "", &apperrors.ParseError{Plugin: "epub", Message: "container.xml has no rootfile entry"}
}

func buildContainerXML(opfPath string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>` + "\n" +
		`<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">` + "\n" +
		`  <rootfiles>` + "\n" +
		`    <rootfile full-path="` + opfPath + `" media-type="application/oebps-package+xml"/>` + "\n" +
		`  </rootfiles>` + "\n" +
		`</container>` + "\n"
}
