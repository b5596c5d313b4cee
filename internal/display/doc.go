// Package display provides terminal output helpers for the CLI: warnings,
// validation notices and step progress.
//
// Display warnings with optional components:
//
//	warning := display.Warning{
//	    Title:      "Section incomplete",
//	    Message:    "Answer every question in section 2 before moving on",
//	    Items:      []string{"2.1", "2.3"},
//	    Suggestion: "microassess goto 2",
//	}
//	warning.Display(os.Stderr)
//
// Colors come from fatih/color and switch off when the writer is not a
// terminal or NO_COLOR is set. All functions accept an io.Writer.
package display
