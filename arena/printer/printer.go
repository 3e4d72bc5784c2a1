// Package printer renders memory maps, allocator statistics, and leak
// reports for human or machine consumption.
package printer

import (
	"fmt"
	"io"

	"github.com/joshuapare/arenakit/arena/adaptive"
)

// Format specifies the output format for printing.
type Format string

const (
	// FormatText outputs human-readable tables.
	FormatText Format = "text"

	// FormatJSON outputs a single JSON document.
	FormatJSON Format = "json"
)

// Options controls printing behavior.
type Options struct {
	// Format specifies output format (text, json).
	// Default: FormatText
	Format Format

	// ShowBlocks includes the full block-by-block memory map.
	// Default: true
	ShowBlocks bool

	// ShowPools includes per-pool statistics.
	// Default: true
	ShowPools bool

	// ShowParameters includes the controller's adaptive tuning state.
	// Default: true
	ShowParameters bool

	// ShowLeaks includes outstanding allocations from the leak tracker.
	// Default: false
	ShowLeaks bool
}

// DefaultOptions returns the default printing configuration.
func DefaultOptions() Options {
	return Options{
		Format:         FormatText,
		ShowBlocks:     true,
		ShowPools:      true,
		ShowParameters: true,
	}
}

// Printer writes controller state to an io.Writer.
type Printer struct {
	w    io.Writer
	opts Options
}

// New creates a printer writing to w.
func New(w io.Writer, opts Options) *Printer {
	if opts.Format == "" {
		opts.Format = FormatText
	}
	return &Printer{w: w, opts: opts}
}

// Print renders the controller's current state in the configured format.
func (p *Printer) Print(c *adaptive.Controller) error {
	switch p.opts.Format {
	case FormatJSON:
		return p.printJSON(c)
	case FormatText:
		return p.printText(c)
	default:
		return fmt.Errorf("printer: unknown format %q", p.opts.Format)
	}
}
