// Package ir defines BookIR, the in-memory book intermediate
// representation shared by every input plugin, transform, and output
// plugin in the conversion pipeline.
//
// A BookIR owns exactly five things: Metadata, a Manifest of resources,
// a Spine (reading order), a TOC (table of contents), and a Guide
// (semantic landmarks). Manifest items are referenced elsewhere in the
// book by id or href, never by pointer, so the structure can never form
// an ownership cycle — see validate.go for the cross-reference checks
// this implies.
package ir
