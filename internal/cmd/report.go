package cmd

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/microassess/internal/display"
	"github.com/harrison/microassess/internal/recommend"
	"github.com/harrison/microassess/internal/report"
	"github.com/harrison/microassess/internal/session"
)

// NewReportCommand creates the report subcommand
func NewReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write the assessment report with recommendations",
		Long: `Write the scored assessment and its recommendations as Markdown or HTML.

Recommendations use the configured generator; any answer whose generation
fails keeps its static text. --no-generate skips generation entirely.

Examples:
  microassess report
  microassess report --format html --out assessment.html`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			out, _ := cmd.Flags().GetString("out")
			noGenerate, _ := cmd.Flags().GetBool("no-generate")

			if format != "md" && format != "html" {
				return fmt.Errorf("unknown format %q (want md or html)", format)
			}

			return withSession(cmd, func(a *app, s *session.Session) (bool, error) {
				if !s.Complete() {
					answered, total := s.Progress()
					display.Notice{
						Title:   fmt.Sprintf("Only %d of %d questions answered", answered, total),
						Message: "Unanswered questions count as zero points.",
					}.Display(a.errOut)
				}

				var indicator *display.ProgressIndicator
				progress := func(done, total int) {
					if indicator == nil {
						indicator = display.NewProgressIndicator(a.errOut, "Compiling recommendations", total)
						indicator.Start()
					}
					indicator.Step(fmt.Sprintf("%d of %d ready", done, total))
				}

				recs := a.compiler(s, noGenerate, progress).Compile(cmd.Context(), s.Definition(), s.Answers())
				if indicator != nil {
					indicator.Complete(fmt.Sprintf("%d recommendations, %d tailored", len(recs), recommend.Generated(recs)))
				}

				scores := s.Scores()
				a.log.LogOverallScore(scores)

				r := report.Build(s.Definition(), s.Answers(), scores, recs, s.OrganizationName, time.Now())
				var buf bytes.Buffer
				var err error
				if format == "html" {
					err = report.NewHTMLRenderer().Render(&buf, r)
				} else {
					err = report.RenderMarkdown(&buf, r)
				}
				if err != nil {
					return false, fmt.Errorf("failed to render report: %w", err)
				}

				if out == "" {
					_, err := a.out.Write(buf.Bytes())
					return false, err
				}
				if err := os.WriteFile(out, buf.Bytes(), 0644); err != nil {
					return false, fmt.Errorf("failed to write report: %w", err)
				}
				a.log.LogInfo(fmt.Sprintf("Report written to %s", out))
				fmt.Fprintf(a.out, "Report written to %s\n", out)
				return false, nil
			})
		},
	}
	cmd.Flags().StringP("format", "f", "md", "Output format: md or html")
	cmd.Flags().StringP("out", "o", "", "Write the report to FILE instead of stdout")
	cmd.Flags().Bool("no-generate", false, "Use static recommendation text only")
	return cmd
}
