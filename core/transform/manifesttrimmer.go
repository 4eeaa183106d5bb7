package transform

import (
	"github.com/inkwell-press/inkwell/core/ir"
	"github.com/inkwell-press/inkwell/core/options"
)

// ManifestTrimmer drops manifest items unreachable from the spine,
// guide, or TOC. It must run last: every earlier transform may rename
// items, insert new ones (Jacket, SplitChapters), or drop references
// (CleanGuide), and only once all of that has settled is "reachable"
// well defined. Running it twice is a no-op, since the second pass
// computes the same reachable set the first pass already converged to.
type ManifestTrimmer struct{}

func (ManifestTrimmer) Name() string                   { return "manifest_trimmer" }
func (ManifestTrimmer) ShouldRun(*options.Options) bool { return true }

func (ManifestTrimmer) Apply(b *ir.BookIR, o *options.Options, progress ProgressFunc) error {
	reachable := ir.ReachableHrefs(b)

	ids := sortedIDs(b)
	total := len(ids)
	for i, id := range ids {
		item := b.Manifest.Get(id)
		if item != nil && !reachable[item.Href] {
			b.Manifest.Remove(id)
		}
		if total > 0 {
			progress(float64(i+1) / float64(total))
		}
	}
	return nil
}
