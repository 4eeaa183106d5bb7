package pdf

import (
	"encoding/xml"
	"os/exec"
	"strings"
	"testing"

	apperrors "github.com/inkwell-press/inkwell/core/errors"
)

func TestHasVisibleTextDetectsEmptyPages(t *testing.T) {
	emptyBody := "<html><head></head><body>\n</body></html>"
	if strings.TrimSpace(stripTags(emptyBody)) != "" {
		t.Fatalf("expected stripTags to leave no visible text for an empty body")
	}
	textBody := "<html><head></head><body>\n<p>hello</p>\n</body></html>"
	if strings.TrimSpace(stripTags(textBody)) == "" {
		t.Fatalf("expected stripTags to retain paragraph text")
	}
}

func TestParsePDF2XMLPageOrdering(t *testing.T) {
	src := `<pdf2xml><page number="2"><text>second</text></page><page number="1"><text>first</text></page></pdf2xml>`
	var doc pdf2xmlDoc
	if err := xml.Unmarshal([]byte(src), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(doc.Pages) != 2 || doc.Pages[0].Number != 2 || doc.Pages[1].Number != 1 {
		t.Fatalf("expected page order preserved as parsed, got %+v", doc.Pages)
	}
}

// TestParseTextOnlyRequiresPdftohtml is skipped in every case: with no
// sample PDF bundled, the pdftohtml subprocess is not exercised here.
func TestParseTextOnlyRequiresPdftohtml(t *testing.T) {
	if _, err := exec.LookPath("pdftohtml"); err != nil {
		t.Skip("pdftohtml not installed")
	}
	t.Skip("no sample PDF fixture bundled")
}

func TestParseImageOnlyRequiresPdftoppm(t *testing.T) {
	if _, err := exec.LookPath("pdftoppm"); err != nil {
		t.Skip("pdftoppm not installed")
	}
	t.Skip("no sample PDF fixture bundled")
}

func TestParseTextOnlyMissingToolReturnsResourceError(t *testing.T) {
	if _, err := exec.LookPath("pdftohtml"); err == nil {
		t.Skip("pdftohtml is installed; cannot exercise the missing-tool path")
	}
	_, err := parseTextOnly(nil, "nonexistent.pdf")
	if err == nil || apperrors.KindOf(err) != apperrors.KindResourceError {
		t.Fatalf("expected a ResourceError when pdftohtml is missing, got %v", err)
	}
}
