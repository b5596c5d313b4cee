package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/microassess/internal/display"
	"github.com/harrison/microassess/internal/models"
	"github.com/harrison/microassess/internal/report"
	"github.com/harrison/microassess/internal/session"
)

// NewStartCommand creates the start subcommand
func NewStartCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a new assessment",
		Long: `Start a new assessment at the first question.

An assessment that already has answers is kept unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			org, _ := cmd.Flags().GetString("org")
			force, _ := cmd.Flags().GetBool("force")

			return withSession(cmd, func(a *app, s *session.Session) (bool, error) {
				if answered, _ := s.Progress(); answered > 0 && !force {
					return false, fmt.Errorf("an assessment with %d answers is in progress; use --force to discard it or \"microassess reset\"", answered)
				}
				s.Reset()
				s.SetOrganization(org)
				a.log.LogInfo(fmt.Sprintf("Started session %s", s.ID))

				fmt.Fprintf(a.out, "Started %s", s.Definition().Title)
				if s.OrganizationName != "" {
					fmt.Fprintf(a.out, " for %s", s.OrganizationName)
				}
				fmt.Fprint(a.out, ".\n\n")
				showQuestion(a.out, s, defaultWidth)
				return true, nil
			})
		},
	}
	cmd.Flags().String("org", "", "Name of the implementing partner being assessed")
	cmd.Flags().Bool("force", false, "Discard an assessment in progress")
	return cmd
}

// NewResetCommand creates the reset subcommand
func NewResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Discard all answers and start over",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if err := session.Clear(cmd.Context(), a.kv); err != nil {
				return fmt.Errorf("failed to clear session: %w", err)
			}
			a.log.LogInfo("Session cleared")
			fmt.Fprintln(a.out, "Assessment reset. Run \"microassess start --org NAME\" to begin.")
			return nil
		},
	}
}

// NewShowCommand creates the show subcommand
func NewShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current question or summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(a *app, s *session.Session) (bool, error) {
				showPage(cmd.Context(), a.out, a, s, defaultWidth)
				return false, nil
			})
		},
	}
}

// NewStatusCommand creates the status subcommand
func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show progress through every section",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(a *app, s *session.Session) (bool, error) {
				w := a.out
				org := s.OrganizationName
				if org == "" {
					org = "(not set)"
				}
				fmt.Fprintf(w, "Organization: %s\n", org)
				fmt.Fprintf(w, "Session:      %s\n", s.ID)
				if !s.SavedAt().IsZero() {
					fmt.Fprintf(w, "Saved:        %s\n", s.SavedAt().Local().Format(time.DateTime))
				}
				fmt.Fprintf(w, "Position:     %s\n\n", positionLabel(s))

				for i, sec := range s.Definition().Sections {
					p := sectionProgress(s)[i]
					mark := " "
					if p[0] == p[1] {
						mark = "✓"
					}
					fmt.Fprintf(w, "%s %-3s %-50s %2d/%-2d\n", mark, sec.ID, sec.Title, p[0], p[1])
				}
				fmt.Fprintln(w)
				printProgress(w, s)
				return false, nil
			})
		},
	}
}

// NewAnswerCommand creates the answer subcommand
func NewAnswerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "answer [QUESTION_ID] VALUE",
		Short: "Record an answer",
		Long: `Record an answer for a question. Without QUESTION_ID the current
question is answered.

VALUE is Yes, No or N/A for option questions (case-insensitive) and free
text for text questions. Answering again replaces the earlier answer.

Examples:
  microassess answer Yes --explain "Registered in 2010, number CMS-REG-001"
  microassess answer 4.5 N/A`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			explanation, _ := cmd.Flags().GetString("explain")
			return withSession(cmd, func(a *app, s *session.Session) (bool, error) {
				qid := ""
				raw := args[0]
				if len(args) == 2 {
					qid, raw = args[0], args[1]
				}
				if err := recordAnswer(a, s, qid, raw, explanation); err != nil {
					return false, err
				}
				return true, nil
			})
		},
	}
	cmd.Flags().StringP("explain", "e", "", "Explanation or supporting detail")
	return cmd
}

// recordAnswer validates the value against the question type and stores it.
func recordAnswer(a *app, s *session.Session, qid, raw, explanation string) error {
	if qid == "" {
		q, ok := s.CurrentQuestion()
		if !ok || s.Stage() != session.StageQuestions {
			return fmt.Errorf("no current question; pass a question id")
		}
		qid = q.ID
	}
	ref, ok := s.Definition().FindQuestion(qid)
	if !ok {
		return fmt.Errorf("unknown question %q", qid)
	}
	q := ref.Question
	value, err := checkAnswer(q, raw)
	if err != nil {
		return err
	}

	s.SetAnswer(q.ID, value, explanation)
	score, _ := s.SectionScore(s.Definition().Sections[ref.SectionIndex].ID)
	a.log.LogSectionScore(score)

	ans, _ := s.Answer(q.ID)
	fmt.Fprintf(a.out, "Recorded %s: %s\n", q.ID, ans.Display())
	return nil
}

// NewScoreCommand creates the score subcommand
func NewScoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "score",
		Short: "Show section and overall risk ratings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(a *app, s *session.Session) (bool, error) {
				scores := s.Scores()
				for _, sec := range scores.Sections {
					a.log.LogSectionScore(sec)
				}
				a.log.LogOverallScore(scores)

				if !s.Complete() {
					answered, total := s.Progress()
					display.Notice{
						Title:   fmt.Sprintf("%d of %d questions answered", answered, total),
						Message: "Unanswered questions count as zero points, so ratings may rise as you continue.",
					}.Display(a.out)
					fmt.Fprintln(a.out)
				}
				writeScores(a, s)
				return false, nil
			})
		},
	}
}

// checkAnswer parses raw for q and rejects values q cannot take.
func checkAnswer(q models.Question, raw string) (models.AnswerValue, error) {
	if !q.IsScored() {
		return models.NoAnswer(), fmt.Errorf("question %s is informational and takes no answer", q.ID)
	}
	value := parseValue(q.Type.HasOptions(), raw)
	if !value.IsAnswered() {
		return value, fmt.Errorf("answer for question %s is empty", q.ID)
	}
	if q.Type.HasOptions() {
		if _, ok := q.Option(value); !ok {
			return value, fmt.Errorf("question %s accepts %s, got %q", q.ID, strings.Join(optionNames(q), ", "), strings.TrimSpace(raw))
		}
	}
	return value, nil
}

// parseValue reads an answer typed on the command line. Text questions keep
// the raw text even when it spells an option name.
func parseValue(hasOptions bool, raw string) models.AnswerValue {
	if hasOptions {
		return models.ParseAnswerValue(raw)
	}
	return models.FreeText(strings.TrimSpace(raw))
}

func writeScores(a *app, s *session.Session) {
	report.WriteScoreTable(a.out, s.Definition(), s.Scores())
}
