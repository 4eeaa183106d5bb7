package transform

import (
	"github.com/inkwell-press/inkwell/core/ir"
	"github.com/inkwell-press/inkwell/core/options"
)

// ProgressFunc reports fractional progress (0.0–1.0) within a single
// transform's slot. Callers must treat arrivals as monotonic-by-maximum,
// since a transform's internal worker pool may report out of order.
type ProgressFunc func(float64)

// Transform is one named, ordered unit of IR mutation. A Transform must
// be pure with respect to the IR: no hidden state may influence its
// output beyond its inputs, and it must leave the manifest/spine/guide
// invariants intact on return.
type Transform interface {
	// Name is the stable identifier used in progress reporting and dump
	// filenames.
	Name() string
	// ShouldRun is consulted before Apply; unconditional transforms
	// always return true.
	ShouldRun(o *options.Options) bool
	// Apply mutates b in place.
	Apply(b *ir.BookIR, o *options.Options, progress ProgressFunc) error
}

// Order is the fixed transform execution order. The orchestrator must
// never reorder this list, even for transforms that look
// independent — DetectStructure's headings feed SplitChapters,
// CSSFlattener's resolved declarations feed PageMargin, and
// ManifestTrimmer must see every reference the earlier transforms can
// create.
var Order = []Transform{
	DataURL{},
	CleanGuide{},
	MergeMetadata{},
	DetectStructure{},
	Jacket{},
	LinearizeTables{},
	UnsmartenPunctuation{},
	CSSFlattener{},
	PageMargin{},
	ImageRescale{},
	SplitChapters{},
	ManifestTrimmer{},
}
