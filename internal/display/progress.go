package display

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// ProgressIndicator manages multi-step progress display
type ProgressIndicator struct {
	writer  io.Writer
	title   string
	total   int
	current int
}

// NewProgressIndicator creates a new progress indicator
func NewProgressIndicator(w io.Writer, title string, total int) *ProgressIndicator {
	return &ProgressIndicator{
		writer: w,
		title:  title,
		total:  total,
	}
}

// Start displays the header message
func (p *ProgressIndicator) Start() {
	fmt.Fprintf(p.writer, "%s:\n", p.title)
}

// Step displays progress for current item: [N/Total] label (cyan)
func (p *ProgressIndicator) Step(label string) {
	p.current++
	color.New(color.FgCyan).Fprintf(p.writer, "  [%d/%d] %s\n", p.current, p.total, label)
}

// Complete displays success message with green checkmark
func (p *ProgressIndicator) Complete(summary string) {
	fmt.Fprintf(p.writer, "%s %s\n", color.New(color.FgGreen).Sprint("✓"), summary)
}
