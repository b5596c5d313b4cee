package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/harrison/microassess/internal/models"
	"github.com/harrison/microassess/internal/session"
)

const walkHelp = `Type an answer and press Enter. Lines starting with ":" are commands:
  :prev           previous question
  :next           next question (current answer kept)
  :section        next section (current section must be complete)
  :goto ID        jump to section ID
  :status         show progress
  :quit           save and stop`

// errQuit ends the walk loop.
var errQuit = errors.New("quit")

// NewWalkCommand creates the walk subcommand
func NewWalkCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "walk",
		Short: "Answer the assessment interactively",
		Long: `Walk through the assessment one question at a time, reading answers from
standard input. Progress is saved after every answer, so a walk can be
stopped with :quit (or end of input) and resumed later.

` + walkHelp,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			noGenerate, _ := cmd.Flags().GetBool("no-generate")
			return withSession(cmd, func(a *app, s *session.Session) (bool, error) {
				w := &walker{
					a:           a,
					s:           s,
					cmd:         cmd,
					in:          bufio.NewScanner(cmd.InOrStdin()),
					interactive: isTerminal(cmd.InOrStdin()),
					width:       terminalWidth(cmd.OutOrStdout()),
					noGenerate:  noGenerate,
				}
				err := w.run()
				if errors.Is(err, errQuit) {
					err = nil
				}
				return true, err
			})
		},
	}
	cmd.Flags().Bool("no-generate", false, "Use static recommendation text only")
	return cmd
}

type walker struct {
	a           *app
	s           *session.Session
	cmd         *cobra.Command
	in          *bufio.Scanner
	interactive bool
	width       int
	noGenerate  bool
}

func (w *walker) run() error {
	if w.interactive {
		fmt.Fprintln(w.a.out, walkHelp)
		fmt.Fprintln(w.a.out)
	}
	for {
		var err error
		switch w.s.Stage() {
		case session.StageSummary:
			showFinalSummary(w.a.out, w.s)
			return nil
		case session.StageSectionSummary:
			err = w.sectionSummary()
		default:
			err = w.question()
		}
		if err != nil {
			return err
		}
		if err := w.a.save(w.cmd.Context(), w.s); err != nil {
			return err
		}
	}
}

// prompt prints label when reading from a terminal and returns the next
// input line. End of input quits.
func (w *walker) prompt(label string) (string, error) {
	if w.interactive {
		fmt.Fprint(w.a.out, label)
	}
	if !w.in.Scan() {
		if err := w.in.Err(); err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return "", errQuit
	}
	return strings.TrimSpace(w.in.Text()), nil
}

func (w *walker) question() error {
	fmt.Fprintln(w.a.out)
	showQuestion(w.a.out, w.s, w.width)
	fmt.Fprintln(w.a.out)

	q, ok := w.s.CurrentQuestion()
	if !ok {
		return w.move(next)
	}

	label := "Answer: "
	switch {
	case q.Type == models.TypeInfoOnly:
		label = "Press Enter to continue: "
	case q.Type.HasOptions():
		label = fmt.Sprintf("Answer [%s]: ", strings.Join(optionNames(q), "/"))
	}

	line, err := w.prompt(label)
	if err != nil {
		return err
	}
	if strings.HasPrefix(line, ":") {
		return w.command(line)
	}

	if !q.IsScored() {
		return w.move(next)
	}
	if line == "" {
		if w.s.QuestionStatus(q.ID) == session.Answered {
			return w.move(next)
		}
		fmt.Fprintln(w.a.out, "An answer is required.")
		return nil
	}

	if _, err := checkAnswer(q, line); err != nil {
		fmt.Fprintln(w.a.out, err)
		return nil
	}

	explanation := ""
	if q.Type.ExplanationBearing() {
		if explanation, err = w.prompt("Explanation (optional): "); err != nil {
			return err
		}
	}
	if err := recordAnswer(w.a, w.s, q.ID, line, explanation); err != nil {
		return err
	}
	return w.move(next)
}

func (w *walker) sectionSummary() error {
	fmt.Fprintln(w.a.out)
	sec := w.s.CurrentSection()
	score, _ := w.s.SectionScore(sec.ID)
	w.a.log.LogSectionScore(score)

	recs := w.a.compiler(w.s, w.noGenerate, nil).CompileSection(w.cmd.Context(), sec, w.s.Answers())
	showSectionSummary(w.a.out, w.s, recs, w.width)

	line, err := w.prompt("Press Enter to continue: ")
	if err != nil {
		return err
	}
	if strings.HasPrefix(line, ":") {
		return w.command(line)
	}
	return w.move(next)
}

func (w *walker) command(line string) error {
	fields := strings.Fields(strings.TrimPrefix(line, ":"))
	if len(fields) == 0 {
		fmt.Fprintln(w.a.out, walkHelp)
		return nil
	}

	switch fields[0] {
	case "quit", "q":
		return errQuit
	case "prev", "p":
		return w.move((*session.Session).RetreatQuestion)
	case "next", "n":
		return w.move(next)
	case "section", "s":
		return w.move(func(s *session.Session) error {
			_, err := s.AdvanceSection()
			return err
		})
	case "goto", "g":
		if len(fields) != 2 {
			fmt.Fprintln(w.a.out, "Usage: :goto SECTION_ID")
			return nil
		}
		return w.move(func(s *session.Session) error { return s.JumpToSection(fields[1]) })
	case "status":
		for i, sec := range w.s.Definition().Sections {
			p := sectionProgress(w.s)[i]
			fmt.Fprintf(w.a.out, "  %-3s %-50s %2d/%-2d\n", sec.ID, sec.Title, p[0], p[1])
		}
		return nil
	default:
		fmt.Fprintln(w.a.out, walkHelp)
		return nil
	}
}

// move applies a navigation step. Refusals are explained and the walk stays
// where it is; an unknown section is reported without ending the walk.
func (w *walker) move(step func(s *session.Session) error) error {
	before := positionLabel(w.s)
	err := step(w.s)
	if errors.Is(err, session.ErrUnknownSection) {
		fmt.Fprintln(w.a.out, capitalize(err.Error()))
		return nil
	}
	if err != nil {
		return explainNavigation(w.a, err)
	}
	w.a.log.LogNavigation(before, positionLabel(w.s))
	if w.s.Stage() == session.StageSummary {
		w.a.log.LogOverallScore(w.s.Scores())
	}
	return nil
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// terminalWidth returns the width of w when it is a terminal, else defaultWidth.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return defaultWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return defaultWidth
	}
	return width
}
