// Command bookctl converts an ebook from one format to another through
// the shared BookIR, reusing whichever input/output plugins are
// compiled into the binary.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	apperrors "github.com/inkwell-press/inkwell/core/errors"
	"github.com/inkwell-press/inkwell/core/options"
	"github.com/inkwell-press/inkwell/core/pipeline"
	"github.com/inkwell-press/inkwell/core/plugins"
	"github.com/inkwell-press/inkwell/core/progress"
	"github.com/inkwell-press/inkwell/internal/logging"

	_ "github.com/inkwell-press/inkwell/plugins/format-epub"
	_ "github.com/inkwell-press/inkwell/plugins/format-html"
	_ "github.com/inkwell-press/inkwell/plugins/format-pdf"
	_ "github.com/inkwell-press/inkwell/plugins/format-stub"
	_ "github.com/inkwell-press/inkwell/plugins/format-txt"
)

const version = "0.1.0"

// CLI defines bookctl's command-line interface.
var CLI struct {
	Convert ConvertCmd `cmd:"" help:"Convert a book from one format to another"`
	Formats FormatsCmd `cmd:"" help:"List registered input/output formats"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// ConvertCmd runs one end-to-end conversion.
type ConvertCmd struct {
	Source string `arg:"" help:"Source file path" type:"existingfile"`
	To     string `required:"" help:"Target format identifier"`
	Out    string `required:"" help:"Output file path" type:"path"`
	From   string `help:"Source format identifier (default: inferred from the source file's extension)"`

	ExtraCSS     string `name:"extra-css" help:"CSS appended to every XHTML item's <head> before CSSFlattener runs"`
	MaxImageSize string `name:"max-image-size" help:"Maximum \"WxH\" pixel bound for raster images (default: output profile decides)"`
	JPEGQuality  int    `name:"jpeg-quality" default:"80" help:"JPEG re-encode quality, 1-100"`

	PDFEngine string `name:"pdf-engine" default:"auto" enum:"auto,text-only,image-only" help:"PDF extraction strategy"`
	PDFDPI    int    `name:"pdf-dpi" default:"200" help:"Rasterization DPI for image-only PDF extraction"`

	ChapterMark string `name:"chapter-mark" default:"page-break" enum:"page-break,rule,both,none" help:"Marker style SplitChapters looks for besides headings"`
	EpubVersion string `name:"epub-version" default:"2" enum:"2,3" help:"EPUB container version to write"`

	UnsmartenPunctuation        bool `name:"unsmarten-punctuation" help:"Convert curly quotes and em/en dashes back to their ASCII form"`
	LinearizeTables              bool `name:"linearize-tables" help:"Flatten tables into a linear paragraph sequence"`
	InsertMetadata                bool `name:"insert-metadata" help:"Insert a generated metadata page at the front of the spine"`
	RemoveFirstImageAfterJacket bool `name:"remove-first-image-after-jacket" help:"Drop the first image encountered right after the cover/jacket image"`

	MarginTop    *float64 `name:"margin-top" help:"Top page margin in points (default: autodetect)"`
	MarginBottom *float64 `name:"margin-bottom" help:"Bottom page margin in points (default: autodetect)"`
	MarginLeft   *float64 `name:"margin-left" help:"Left page margin in points (default: autodetect)"`
	MarginRight  *float64 `name:"margin-right" help:"Right page margin in points (default: autodetect)"`

	PrettyPrint   bool   `name:"pretty-print" help:"Pretty-print generated markup"`
	DebugPipeline string `name:"debug-pipeline" type:"path" help:"Directory to dump the IR into after every pipeline stage"`

	LogLevel  string `name:"log-level" default:"info" enum:"debug,info,warn,error" help:"Minimum log level"`
	LogFormat string `name:"log-format" default:"json" enum:"json,text" help:"Log output encoding"`
	Watch     string `name:"watch" help:"host:port to serve a progress WebSocket feed on while converting"`
	CacheDir  string `name:"cache-dir" type:"path" help:"Directory for cached derived assets"`

	Verbose int `name:"verbose" short:"v" type:"counter" help:"Increase verbosity (repeatable)"`
}

func (c *ConvertCmd) Run() error {
	initLogging(c.LogLevel, c.LogFormat)

	o := options.Default()
	o.Verbose = c.Verbose
	o.ExtraCSS = c.ExtraCSS
	o.JPEGQuality = c.JPEGQuality
	o.PDFEngine = options.PDFEngine(c.PDFEngine)
	o.PDFDPI = c.PDFDPI
	o.ChapterMark = options.ChapterMark(c.ChapterMark)
	o.EpubVersion = options.EpubVersion(c.EpubVersion)
	o.UnsmartenPunctuation = c.UnsmartenPunctuation
	o.LinearizeTables = c.LinearizeTables
	o.InsertMetadata = c.InsertMetadata
	o.RemoveFirstImageAfterJacket = c.RemoveFirstImageAfterJacket
	o.MarginTop = c.MarginTop
	o.MarginBottom = c.MarginBottom
	o.MarginLeft = c.MarginLeft
	o.MarginRight = c.MarginRight
	o.PrettyPrint = c.PrettyPrint
	o.DebugPipeline = c.DebugPipeline
	o.LogLevel = c.LogLevel
	o.LogFormat = options.LogFormat(c.LogFormat)
	o.CacheDir = c.CacheDir

	if c.MaxImageSize != "" {
		size, err := options.ParseSize("max_image_size", c.MaxImageSize)
		if err != nil {
			return err
		}
		o.MaxImageSize = &size
	}

	if err := o.Validate(); err != nil {
		return err
	}

	fromFormat := c.From
	if fromFormat == "" {
		fromFormat = strings.TrimPrefix(filepath.Ext(c.Source), ".")
	}
	if fromFormat == "" {
		return &apperrors.ConfigError{Key: "from", Value: "", Message: "source file has no extension; pass --from explicitly"}
	}

	var reporter pipeline.Reporter
	var hub *progress.Hub
	var srv *http.Server
	if c.Watch != "" {
		hub = progress.NewHub()
		go hub.Run()
		mux := http.NewServeMux()
		mux.Handle("/progress", hub)
		srv = &http.Server{Addr: c.Watch, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("bookctl: progress server stopped", "error", err)
			}
		}()
		defer srv.Close()
		reporter = hub
		fmt.Fprintf(os.Stderr, "watching progress at ws://%s/progress\n", c.Watch)
	}

	err := pipeline.Run(context.Background(), c.Source, fromFormat, c.Out, c.To, o, reporter)
	if hub != nil {
		if err != nil {
			hub.Fail("pipeline", err.Error())
		} else {
			hub.Complete("conversion finished")
		}
	}
	if err != nil {
		return err
	}

	fmt.Printf("Converted %s -> %s (%s -> %s)\n", c.Source, c.Out, fromFormat, c.To)
	return nil
}

// FormatsCmd lists every format identifier compiled into the binary.
type FormatsCmd struct{}

func (c *FormatsCmd) Run() error {
	fmt.Println("Input formats:")
	for _, f := range plugins.RegisteredInputFormats() {
		fmt.Printf("  %s\n", f)
	}
	fmt.Println("Output formats:")
	for _, f := range plugins.RegisteredOutputFormats() {
		fmt.Printf("  %s\n", f)
	}
	return nil
}

// VersionCmd prints the bookctl version.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("bookctl version %s\n", version)
	return nil
}

func initLogging(level, format string) {
	var l logging.Level
	switch level {
	case "debug":
		l = logging.LevelDebug
	case "warn":
		l = logging.LevelWarn
	case "error":
		l = logging.LevelError
	default:
		l = logging.LevelInfo
	}
	f := logging.FormatJSON
	if format == "text" {
		f = logging.FormatText
	}
	logging.InitLogger(l, f)
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("bookctl"),
		kong.Description("Convert ebooks between formats through a shared intermediate representation."),
		kong.UsageOnError(),
	)
	err := kctx.Run()
	if err != nil {
		slog.Error("bookctl: command failed", "error", err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps an error's Kind to a process exit code, falling back
// to a generic failure code for errors outside core/errors' taxonomy.
func exitCodeFor(err error) int {
	switch apperrors.KindOf(err) {
	case apperrors.KindUnknownFormat, apperrors.KindConfigError:
		return 2
	case apperrors.KindCancelled:
		return 130
	case apperrors.KindResourceError:
		return 3
	default:
		return 1
	}
}
