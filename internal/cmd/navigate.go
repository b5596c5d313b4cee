package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/microassess/internal/session"
)

// navigate runs move against the session, logs where it went and shows the
// new page. Refused moves are explained and leave the session unchanged.
func navigate(cmd *cobra.Command, move func(s *session.Session) error) error {
	return withSession(cmd, func(a *app, s *session.Session) (bool, error) {
		before := positionLabel(s)
		if err := move(s); err != nil {
			return false, explainNavigation(a, err)
		}
		after := positionLabel(s)
		a.log.LogNavigation(before, after)
		if s.Stage() == session.StageSummary {
			a.log.LogOverallScore(s.Scores())
		}

		showPage(cmd.Context(), a.out, a, s, defaultWidth)
		return true, nil
	})
}

// next moves forward one page: the next question, the section summary after
// the last question, or the next section from a section summary.
func next(s *session.Session) error {
	switch s.Stage() {
	case session.StageSectionSummary:
		_, err := s.AdvanceSection()
		return err
	case session.StageSummary:
		return errAtEnd
	}

	err := s.AdvanceQuestion()
	if errors.Is(err, session.ErrAtLastQuestion) {
		return s.EnterSectionSummary()
	}
	return err
}

var errAtEnd = fmt.Errorf("%w: the assessment is on its final summary", session.ErrNotInQuestions)

// NewNextCommand creates the next subcommand
func NewNextCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Move to the next question",
		Long: `Move to the next question. The current question must be answered first.

After the last question of a section the section summary is shown; from
there "next" moves on to the following section.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return navigate(cmd, next)
		},
	}
}

// NewPrevCommand creates the prev subcommand
func NewPrevCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prev",
		Short: "Move to the previous question",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return navigate(cmd, (*session.Session).RetreatQuestion)
		},
	}
}

// NewNextSectionCommand creates the next-section subcommand
func NewNextSectionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "next-section",
		Short: "Move to the next section once this one is complete",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return navigate(cmd, func(s *session.Session) error {
				_, err := s.AdvanceSection()
				return err
			})
		},
	}
}

// NewPrevSectionCommand creates the prev-section subcommand
func NewPrevSectionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prev-section",
		Short: "Move to the last question of the previous section",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return navigate(cmd, func(s *session.Session) error {
				_, err := s.RetreatSection()
				return err
			})
		},
	}
}

// NewGotoCommand creates the goto subcommand
func NewGotoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "goto SECTION_ID|summary",
		Short: "Jump to a section or the final summary",
		Long: `Jump to the first question of a section. Earlier sections are always
reachable; later ones only when every section before them is complete.

"summary" opens the final summary once every section is complete.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return navigate(cmd, func(s *session.Session) error {
				if args[0] == "summary" {
					return s.JumpToSummary()
				}
				return s.JumpToSection(args[0])
			})
		},
	}
}

// NewSectionSummaryCommand creates the section-summary subcommand
func NewSectionSummaryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "section-summary",
		Short: "Show the current section's rating and recommendations",
		Long: `Show the current section's rating and recommendations. Every scored
question of the section must be answered.

Recommendations use the configured generator unless --no-generate is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			noGenerate, _ := cmd.Flags().GetBool("no-generate")
			return withSession(cmd, func(a *app, s *session.Session) (bool, error) {
				before := positionLabel(s)
				if err := s.EnterSectionSummary(); err != nil {
					return false, explainNavigation(a, err)
				}
				a.log.LogNavigation(before, positionLabel(s))

				sec := s.CurrentSection()
				score, _ := s.SectionScore(sec.ID)
				a.log.LogSectionScore(score)

				recs := a.compiler(s, noGenerate, nil).CompileSection(cmd.Context(), sec, s.Answers())
				showSectionSummary(a.out, s, recs, defaultWidth)
				return true, nil
			})
		},
	}
	cmd.Flags().Bool("no-generate", false, "Use static recommendation text only")
	return cmd
}
