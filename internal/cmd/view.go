package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/harrison/microassess/internal/display"
	"github.com/harrison/microassess/internal/logger"
	"github.com/harrison/microassess/internal/models"
	"github.com/harrison/microassess/internal/recommend"
	"github.com/harrison/microassess/internal/report"
	"github.com/harrison/microassess/internal/session"
)

const defaultWidth = 80

// positionLabel names the current page for logs and prompts.
func positionLabel(s *session.Session) string {
	sec := s.CurrentSection()
	switch s.Stage() {
	case session.StageSectionSummary:
		return fmt.Sprintf("section %s summary", sec.ID)
	case session.StageSummary:
		return "final summary"
	}
	if q, ok := s.CurrentQuestion(); ok {
		return "question " + q.ID
	}
	return "section " + sec.ID
}

// showPage prints whatever the session is currently on. Section summaries
// use static recommendation text.
func showPage(ctx context.Context, w io.Writer, a *app, s *session.Session, width int) {
	switch s.Stage() {
	case session.StageSectionSummary:
		recs := a.compiler(s, true, nil).CompileSection(ctx, s.CurrentSection(), s.Answers())
		showSectionSummary(w, s, recs, width)
	case session.StageSummary:
		showFinalSummary(w, s)
	default:
		showQuestion(w, s, width)
	}
}

func showQuestion(w io.Writer, s *session.Session, width int) {
	def := s.Definition()
	_, qIdx := s.Position()
	sec := s.CurrentSection()
	bold := color.New(color.Bold)

	header := fmt.Sprintf("Section %s of %d: %s", sec.ID, len(def.Sections), sec.Title)
	if sec.ResponsibleDepartment != "" {
		header += " (" + sec.ResponsibleDepartment + ")"
	}
	fmt.Fprintf(w, "%s  [%d/%d]\n\n", bold.Sprint(header), qIdx+1, len(sec.Questions))

	q, ok := s.CurrentQuestion()
	if !ok {
		fmt.Fprintln(w, "This section has no questions.")
		return
	}

	label := "Question " + q.ID
	if q.IsKey {
		label += " (key question)"
	}
	fmt.Fprintln(w, bold.Sprint(label))
	printWrapped(w, "", q.Text, width)

	if q.Type == models.TypeInfoOnly {
		if q.InfoContent != "" {
			fmt.Fprintln(w)
			printWrapped(w, "", q.InfoContent, width)
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "No answer needed. Run \"microassess next\" to continue.")
		return
	}

	if q.Type.HasOptions() {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Options:")
		for _, key := range []models.OptionKey{models.OptionYes, models.OptionNo, models.OptionNA} {
			opt, ok := q.Options[key]
			if !ok {
				continue
			}
			fmt.Fprintf(w, "  %-4s %s risk\n", key, display.Risk(opt.Risk))
			hint := opt.Placeholder
			if hint == "" {
				hint = opt.PromptForDetails
			}
			if hint != "" {
				printWrapped(w, "       ", hint, width)
			}
		}
	}
	if q.ExampleComment != "" {
		fmt.Fprintln(w)
		printWrapped(w, "Example: ", q.ExampleComment, width)
	}

	fmt.Fprintln(w)
	if ans, ok := s.Answer(q.ID); ok && ans.Value.IsAnswered() {
		fmt.Fprintf(w, "Current answer: %s\n", ans.Display())
	} else {
		fmt.Fprintln(w, "Current answer: (unanswered)")
	}
	printProgress(w, s)
}

func printProgress(w io.Writer, s *session.Session) {
	answered, total := s.Progress()
	pb := logger.NewProgressBar(total, 20, !color.NoColor)
	pb.SetPrefix("Progress: ")
	pb.Update(answered)
	fmt.Fprintln(w, pb.Render())
}

func showSectionSummary(w io.Writer, s *session.Session, recs []recommend.Recommendation, width int) {
	sec := s.CurrentSection()
	score, _ := s.SectionScore(sec.ID)

	fmt.Fprintf(w, "%s\n\n", color.New(color.Bold).Sprintf("Section %s summary: %s", sec.ID, sec.Title))
	fmt.Fprintf(w, "Risk points: %d over %d questions (average %.2f)\n", score.TotalRiskPoints, score.ApplicableCount, score.AverageRiskScore)
	fmt.Fprintf(w, "Section rating: %s (%d)\n\n", display.Risk(score.AreaRiskRating), score.NumericRiskScore)

	if missing := s.MissingInSection(indexOf(s, sec.ID)); len(missing) > 0 {
		fmt.Fprintf(w, "Unanswered: %s\n\n", strings.Join(missing, ", "))
	}

	fmt.Fprintln(w, "Recommendations:")
	report.WriteRecommendations(w, recs, width)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run \"microassess next\" to continue or \"microassess prev\" to revise answers.")
}

func showFinalSummary(w io.Writer, s *session.Session) {
	title := "Assessment summary"
	if s.OrganizationName != "" {
		title += ": " + s.OrganizationName
	}
	fmt.Fprintf(w, "%s\n\n", color.New(color.Bold).Sprint(title))
	report.WriteScoreTable(w, s.Definition(), s.Scores())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run \"microassess report\" to write the full report with recommendations.")
}

func indexOf(s *session.Session, sectionID string) int {
	return s.Definition().SectionIndex(sectionID)
}

func printWrapped(w io.Writer, prefix, text string, width int) {
	indent := strings.Repeat(" ", len(prefix))
	for i, line := range report.Wrap(text, width-len(prefix)) {
		if i == 0 {
			fmt.Fprintf(w, "%s%s\n", prefix, line)
			continue
		}
		fmt.Fprintf(w, "%s%s\n", indent, line)
	}
}

// explainNavigation turns expected navigation refusals into user messages.
// It returns nil when err was handled this way, otherwise err itself.
func explainNavigation(a *app, err error) error {
	if err == nil {
		return nil
	}
	if ve, ok := session.AsValidationError(err); ok {
		a.log.LogValidationFailure(ve.Kind.String(), ve.SectionID, ve.Missing)
		title := "Answer this question before moving on"
		if ve.Kind == session.SectionIncomplete {
			title = fmt.Sprintf("Section %s is incomplete", ve.SectionID)
		}
		display.ValidationNotice(title, ve.SectionID, ve.Missing).Display(a.out)
		return nil
	}

	boundaries := []error{
		session.ErrAtFirstQuestion,
		session.ErrAtLastQuestion,
		session.ErrAtFirstSection,
		session.ErrNotInQuestions,
	}
	for _, b := range boundaries {
		if errors.Is(err, b) {
			display.Notice{Title: capitalize(err.Error())}.Display(a.out)
			return nil
		}
	}
	return err
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// sectionProgress returns answered/total per section in definition order.
func sectionProgress(s *session.Session) [][2]int {
	def := s.Definition()
	out := make([][2]int, len(def.Sections))
	for i, sec := range def.Sections {
		total := 0
		for _, q := range sec.Questions {
			if q.IsScored() {
				total++
			}
		}
		out[i] = [2]int{total - len(s.MissingInSection(i)), total}
	}
	return out
}

// optionNames lists the option keys of q in display order.
func optionNames(q models.Question) []string {
	var names []string
	for k := range q.Options {
		names = append(names, string(k))
	}
	order := map[string]int{"Yes": 0, "No": 1, "N/A": 2}
	sort.Slice(names, func(i, j int) bool { return order[names[i]] < order[names[j]] })
	return names
}
