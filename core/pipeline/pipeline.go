// Package pipeline implements the three-phase conversion orchestrator:
// Input (0.00-0.34) -> Transforms (0.34-0.90) -> Output (0.90-1.00).
// The orchestrator is single-threaded; parallelism lives inside
// individual transforms (see core/transform).
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/antchfx/xmlquery"
	apperrors "github.com/inkwell-press/inkwell/core/errors"
	"github.com/inkwell-press/inkwell/core/ir"
	"github.com/inkwell-press/inkwell/core/options"
	"github.com/inkwell-press/inkwell/core/plugins"
	"github.com/inkwell-press/inkwell/core/transform"
)

// Reporter receives fractional progress (0.0-1.0) against the whole
// run, with a phase label. A caller-supplied Reporter (e.g. a WebSocket
// hub) is optional. A transform's own sub-progress is clamped to 0-1
// and mapped into that transform's slot of the transforms band before
// it is forwarded.
type Reporter interface {
	Report(phase string, fraction float64)
}

// noopReporter is used when the caller passes a nil Reporter.
type noopReporter struct{}

func (noopReporter) Report(string, float64) {}

const (
	inputBandLo      = 0.00
	inputBandHi      = 0.34
	transformsBandLo = 0.34
	transformsBandHi = 0.90
	outputBandLo     = 0.90
	outputBandHi     = 1.00
)

// Run executes one conversion end to end: resolve the input/output
// plugins, parse the source, apply the fixed transform order, and
// write the result. Any failure from input, a transform, or output
// aborts the run and discards the IR.
func Run(ctx context.Context, sourcePath, inputFormat, sinkPath, outputFormat string, o *options.Options, reporter Reporter) error {
	if reporter == nil {
		reporter = noopReporter{}
	}
	if err := o.Validate(); err != nil {
		return err
	}

	in := plugins.LookupInput(inputFormat)
	if in == nil {
		return &apperrors.UnknownFormatError{Format: inputFormat, Registered: plugins.RegisteredInputFormats()}
	}
	out := plugins.LookupOutput(outputFormat)
	if out == nil {
		return &apperrors.UnknownFormatError{Format: outputFormat, Registered: plugins.RegisteredOutputFormats()}
	}

	if err := checkCancelled(ctx, "input"); err != nil {
		return err
	}

	reporter.Report("input", 0.05)
	slog.Debug("pipeline: parsing source", "format", inputFormat, "path", sourcePath)
	b, err := in.Parse(ctx, sourcePath, o)
	if err != nil {
		return apperrors.Wrap(err, "input plugin")
	}
	reporter.Report("input", 0.18)

	if o.ExtraCSS != "" {
		appendExtraCSS(b, o.ExtraCSS)
	}
	reporter.Report("input", 0.30)

	if o.DebugPipeline != "" {
		if err := ir.Dump(b, o.DebugPipeline, "01-after-input.json"); err != nil {
			return apperrors.Wrap(err, "debug dump after input")
		}
	}

	if err := checkCancelled(ctx, "transforms"); err != nil {
		return err
	}

	enabled := make([]transform.Transform, 0, len(transform.Order))
	for _, tr := range transform.Order {
		if tr.ShouldRun(o) {
			enabled = append(enabled, tr)
		}
	}
	span := transformsBandHi - transformsBandLo
	slot := 0.0
	if len(enabled) > 0 {
		slot = span / float64(len(enabled))
	}

	for i, tr := range enabled {
		if err := checkCancelled(ctx, tr.Name()); err != nil {
			return err
		}
		lo := transformsBandLo + float64(i)*slot
		progressFn := func(frac float64) {
			if frac < 0 {
				frac = 0
			} else if frac > 1 {
				frac = 1
			}
			reporter.Report(tr.Name(), lo+frac*slot)
		}
		slog.Debug("pipeline: running transform", "name", tr.Name())
		if err := tr.Apply(b, o, progressFn); err != nil {
			return apperrors.Wrap(err, fmt.Sprintf("transform %s", tr.Name()))
		}
		if o.DebugPipeline != "" {
			for _, verr := range ir.Validate(b) {
				return invariantError(tr.Name(), verr)
			}
			if err := ir.Dump(b, o.DebugPipeline, fmt.Sprintf("%02d-after-%s.json", i+2, tr.Name())); err != nil {
				return apperrors.Wrap(err, "debug dump after "+tr.Name())
			}
		}
		reporter.Report(tr.Name(), lo+slot)
	}

	if err := checkCancelled(ctx, "output"); err != nil {
		return err
	}

	reporter.Report("output", outputBandLo)
	slog.Debug("pipeline: writing sink", "format", outputFormat, "path", sinkPath)
	if err := out.Write(ctx, b, sinkPath, o); err != nil {
		return apperrors.Wrap(err, "output plugin")
	}
	reporter.Report("output", outputBandHi)
	return nil
}

func checkCancelled(ctx context.Context, phase string) error {
	select {
	case <-ctx.Done():
		return &apperrors.CancelledError{Phase: phase}
	default:
		return nil
	}
}

// invariantError adapts an *ir.ValidationError into the pipeline's
// InvariantViolationError, falling back to a generic message for any
// other error shape Validate might someday return.
func invariantError(transformName string, err error) error {
	if ve, ok := err.(*ir.ValidationError); ok {
		return &apperrors.InvariantViolationError{Invariant: ve.Invariant, Transform: transformName, Message: fmt.Sprintf("%s: %s", ve.Path, ve.Message)}
	}
	return &apperrors.InvariantViolationError{Invariant: "unknown", Transform: transformName, Message: err.Error()}
}

// appendExtraCSS appends o.ExtraCSS as an additional <style> block to
// every XHTML item's <head>, before CSSFlattener resolves declarations.
// Items with no <head> element are left untouched.
func appendExtraCSS(b *ir.BookIR, extraCSS string) {
	for _, id := range b.Manifest.IDs() {
		item := b.Manifest.Get(id)
		xhtml, ok := item.Data.(ir.XhtmlData)
		if !ok {
			continue
		}
		doc, err := ir.ParseXHTML(string(xhtml))
		if err != nil {
			continue
		}
		var head *xmlquery.Node
		ir.WalkElements(doc, func(n *xmlquery.Node) {
			if head == nil && n.Data == "head" {
				head = n
			}
		})
		if head == nil {
			continue
		}
		style := &xmlquery.Node{Type: xmlquery.ElementNode, Data: "style"}
		text := &xmlquery.Node{Type: xmlquery.TextNode, Data: extraCSS}
		style.FirstChild, style.LastChild = text, text
		text.Parent = style
		style.Parent = head
		style.PrevSibling = head.LastChild
		if head.LastChild != nil {
			head.LastChild.NextSibling = style
		} else {
			head.FirstChild = style
		}
		head.LastChild = style
		item.Data = ir.XhtmlData(ir.SerializeXHTML(doc))
	}
}
