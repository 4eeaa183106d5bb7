// Package options defines the conversion pipeline's configuration: the
// recognized conversion keys plus the ambient keys needed to run the
// program (logging, caching, the progress feed).
package options

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/inkwell-press/inkwell/core/errors"
)

// PDFEngine selects how the PDF input plugin extracts content.
type PDFEngine string

const (
	PDFEngineAuto      PDFEngine = "auto"
	PDFEngineTextOnly  PDFEngine = "text-only"
	PDFEngineImageOnly PDFEngine = "image-only"
)

// ChapterMark selects the marker style DetectStructure/SplitChapters
// look for in addition to headings.
type ChapterMark string

const (
	ChapterMarkPageBreak ChapterMark = "page-break"
	ChapterMarkRule      ChapterMark = "rule"
	ChapterMarkBoth      ChapterMark = "both"
	ChapterMarkNone      ChapterMark = "none"
)

// EpubVersion selects the output-side EPUB container version.
type EpubVersion string

const (
	EpubVersion2 EpubVersion = "2"
	EpubVersion3 EpubVersion = "3"
)

// LogFormat selects the structured logging output encoding.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

// Size is a WxH pixel bound, e.g. for max_image_size.
type Size struct {
	Width, Height int
}

// ParseSize parses a "WxH" string. Returns a ConfigError if malformed.
func ParseSize(key, s string) (Size, error) {
	parts := strings.SplitN(s, "x", 2)
	if len(parts) != 2 {
		return Size{}, &apperrors.ConfigError{Key: key, Value: s, Message: `expected "WxH"`}
	}
	w, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	h, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil || w <= 0 || h <= 0 {
		return Size{}, &apperrors.ConfigError{Key: key, Value: s, Message: `expected "WxH" with positive integers`}
	}
	return Size{Width: w, Height: h}, nil
}

// Options is the full set of recognized conversion configuration keys
// plus the ambient keys needed to run the program.
type Options struct {
	Verbose int

	ExtraCSS     string
	MaxImageSize *Size // nil means "use the output profile's default"
	JPEGQuality  int

	PDFEngine PDFEngine
	PDFDPI    int

	ChapterMark ChapterMark
	EpubVersion EpubVersion

	UnsmartenPunctuation       bool
	LinearizeTables            bool
	InsertMetadata             bool
	RemoveFirstImageAfterJacket bool

	MarginTop, MarginBottom, MarginLeft, MarginRight *float64 // pt, nil = autodetect

	PrettyPrint   bool
	DebugPipeline string // dump directory, "" disables dumping

	// Ambient / expansion keys.
	LogLevel  string
	LogFormat LogFormat
	WatchAddr string // host:port for the optional progress WebSocket feed
	CacheDir  string
}

// Default returns the option set with every documented default applied.
func Default() *Options {
	return &Options{
		JPEGQuality: 80,
		PDFEngine:   PDFEngineAuto,
		PDFDPI:      200,
		ChapterMark: ChapterMarkPageBreak,
		EpubVersion: EpubVersion2,
		LogLevel:    "info",
		LogFormat:   LogFormatJSON,
	}
}

// Validate checks every option is within range, returning the first
// ConfigError found (or nil).
func (o *Options) Validate() error {
	if o.JPEGQuality < 1 || o.JPEGQuality > 100 {
		return &apperrors.ConfigError{Key: "jpeg_quality", Value: fmt.Sprint(o.JPEGQuality), Message: "must be between 1 and 100"}
	}
	switch o.PDFEngine {
	case PDFEngineAuto, PDFEngineTextOnly, PDFEngineImageOnly, "":
	default:
		return &apperrors.ConfigError{Key: "pdf_engine", Value: string(o.PDFEngine), Message: "must be auto, text-only, or image-only"}
	}
	if o.PDFDPI <= 0 {
		return &apperrors.ConfigError{Key: "pdf_dpi", Value: fmt.Sprint(o.PDFDPI), Message: "must be positive"}
	}
	switch o.ChapterMark {
	case ChapterMarkPageBreak, ChapterMarkRule, ChapterMarkBoth, ChapterMarkNone, "":
	default:
		return &apperrors.ConfigError{Key: "chapter_mark", Value: string(o.ChapterMark), Message: "must be page-break, rule, both, or none"}
	}
	switch o.EpubVersion {
	case EpubVersion2, EpubVersion3, "":
	default:
		return &apperrors.ConfigError{Key: "epub_version", Value: string(o.EpubVersion), Message: "must be 2 or 3"}
	}
	return nil
}
