package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Warning represents a user-facing warning message
type Warning struct {
	Title      string   // Main warning title
	Message    string   // Detailed explanation (optional)
	Items      []string // Related question ids (optional)
	Suggestion string   // Action to take (optional)
}

// Display shows a formatted warning in yellow
func (w Warning) Display(out io.Writer) {
	w.render(out, "⚠️  Warning: ", color.New(color.FgYellow))
}

// Notice is a blocked-but-harmless message, shown in cyan. Validation
// failures use it: the position is unchanged and the command still succeeds.
type Notice Warning

// Display shows a formatted notice in cyan
func (n Notice) Display(out io.Writer) {
	Warning(n).render(out, "ℹ️  ", color.New(color.FgCyan))
}

func (w Warning) render(out io.Writer, prefix string, c *color.Color) {
	var b strings.Builder

	b.WriteString(prefix)
	b.WriteString(w.Title)
	b.WriteString("\n")

	if w.Message != "" {
		b.WriteString("    ")
		b.WriteString(w.Message)
		b.WriteString("\n")
	}

	if len(w.Items) > 0 {
		b.WriteString("    ")
		if len(w.Items) == 1 {
			b.WriteString("Unanswered question:\n")
		} else {
			b.WriteString("Unanswered questions:\n")
		}
		for i, item := range w.Items {
			b.WriteString(fmt.Sprintf("      %d. %s\n", i+1, item))
		}
	}

	if w.Suggestion != "" {
		b.WriteString("    Suggestion:\n")
		b.WriteString("    ")
		b.WriteString(w.Suggestion)
		b.WriteString("\n")
	}

	c.Fprint(out, b.String())
}

// ValidationNotice builds the notice shown when a move is blocked by
// unanswered questions.
func ValidationNotice(title, sectionID string, missing []string) Notice {
	return Notice{
		Title:      title,
		Message:    fmt.Sprintf("Answer the listed questions in section %s to continue.", sectionID),
		Items:      missing,
		Suggestion: fmt.Sprintf("microassess answer %s Yes|No [--explain TEXT]", firstOr(missing, "QID")),
	}
}

func firstOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return items[0]
}
