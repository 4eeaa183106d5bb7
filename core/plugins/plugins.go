// Package plugins defines the InputPlugin/OutputPlugin contracts and a
// process-wide registry keyed by case-folded format identifier. Format
// packages register themselves from an init() via a blank import,
// mirroring the embedded-plugin pattern this package replaces: a plugin
// is a Go value compiled into the binary, not a subprocess reached over
// IPC.
package plugins

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/inkwell-press/inkwell/core/ir"
	"github.com/inkwell-press/inkwell/core/options"
)

// InputPlugin parses a source file into a BookIR.
type InputPlugin interface {
	// Formats returns the format identifiers this plugin handles (e.g.
	// "txt", "html"). Registered under each, case-folded.
	Formats() []string
	// Parse reads path and returns the resulting BookIR. Implementations
	// should return a *errors.ParseError on malformed input and a
	// *errors.ResourceError if a required external tool is missing.
	Parse(ctx context.Context, path string, o *options.Options) (*ir.BookIR, error)
}

// OutputPlugin renders a BookIR to a destination file.
type OutputPlugin interface {
	// Formats returns the format identifiers this plugin handles.
	Formats() []string
	// Write renders b to path.
	Write(ctx context.Context, b *ir.BookIR, path string, o *options.Options) error
}

type registry struct {
	mu     sync.Mutex
	input  map[string]InputPlugin
	output map[string]OutputPlugin
}

var reg = &registry{
	input:  map[string]InputPlugin{},
	output: map[string]OutputPlugin{},
}

func fold(format string) string { return strings.ToLower(strings.TrimSpace(format)) }

// RegisterInput registers p under every identifier it reports from
// Formats(). Intended to be called from a format package's init().
func RegisterInput(p InputPlugin) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	for _, f := range p.Formats() {
		reg.input[fold(f)] = p
	}
}

// RegisterOutput registers p under every identifier it reports from
// Formats().
func RegisterOutput(p OutputPlugin) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	for _, f := range p.Formats() {
		reg.output[fold(f)] = p
	}
}

// LookupInput returns the registered input plugin for format, or nil.
func LookupInput(format string) InputPlugin {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.input[fold(format)]
}

// LookupOutput returns the registered output plugin for format, or nil.
func LookupOutput(format string) OutputPlugin {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.output[fold(format)]
}

// RegisteredInputFormats returns every registered input format
// identifier, sorted, for UnknownFormatError messages.
func RegisteredInputFormats() []string {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	out := make([]string, 0, len(reg.input))
	for f := range reg.input {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// RegisteredOutputFormats returns every registered output format
// identifier, sorted.
func RegisteredOutputFormats() []string {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	out := make([]string, 0, len(reg.output))
	for f := range reg.output {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// clearForTest resets the registry. Unexported: only this package's own
// tests may call it, since production registration happens once via
// package init() and must not be undone at runtime.
func clearForTest() {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.input = map[string]InputPlugin{}
	reg.output = map[string]OutputPlugin{}
}
