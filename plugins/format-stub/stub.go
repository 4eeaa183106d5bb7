// Package stub registers placeholder input and output plugins for
// formats whose real readers/writers are not yet implemented: mobi,
// docx, fb2, rtf, odt. Each reports a ResourceError so the registry's
// format surface matches the full set of recognized identifiers
// without pretending an unimplemented format works.
package stub

import (
	"context"
	"fmt"

	apperrors "github.com/inkwell-press/inkwell/core/errors"
	"github.com/inkwell-press/inkwell/core/ir"
	"github.com/inkwell-press/inkwell/core/options"
	"github.com/inkwell-press/inkwell/core/plugins"
)

// formats is the set of identifiers registered as stubs. Each is
// pending a real reader/writer implementation.
var formats = []string{"mobi", "docx", "fb2", "rtf", "odt"}

type plugin struct {
	format string
}

func (p plugin) Formats() []string { return []string{p.format} }

func (p plugin) Parse(ctx context.Context, path string, o *options.Options) (*ir.BookIR, error) {
	return nil, &apperrors.ResourceError{
		Resource: p.format,
		Message:  fmt.Sprintf("%s input is not yet implemented", p.format),
	}
}

func (p plugin) Write(ctx context.Context, b *ir.BookIR, path string, o *options.Options) error {
	return &apperrors.ResourceError{
		Resource: p.format,
		Message:  fmt.Sprintf("%s output is not yet implemented", p.format),
	}
}

func init() {
	for _, f := range formats {
		p := plugin{format: f}
		plugins.RegisterInput(p)
		plugins.RegisterOutput(p)
	}
}
