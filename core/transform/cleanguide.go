package transform

import (
	"strings"

	"github.com/inkwell-press/inkwell/core/ir"
	"github.com/inkwell-press/inkwell/core/options"
)

// CleanGuide drops guide entries whose href no longer resolves to a
// manifest item, preserving the order of the entries that remain.
type CleanGuide struct{}

func (CleanGuide) Name() string                  { return "clean_guide" }
func (CleanGuide) ShouldRun(*options.Options) bool { return true }

func (CleanGuide) Apply(b *ir.BookIR, o *options.Options, progress ProgressFunc) error {
	kept := b.Guide[:0]
	for _, g := range b.Guide {
		progress(1)
		base := g.Href
		if i := strings.IndexByte(base, '#'); i >= 0 {
			base = base[:i]
		}
		if b.Manifest.GetByHref(base) != nil {
			kept = append(kept, g)
		}
	}
	b.Guide = kept
	return nil
}
