package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/harrison/microassess/internal/models"
	"github.com/harrison/microassess/internal/recommend"
)

// RenderMarkdown writes the report as GitHub-flavoured Markdown.
func RenderMarkdown(w io.Writer, r *Report) error {
	var sb strings.Builder

	title := r.Title
	if r.Organization != "" {
		title = fmt.Sprintf("%s: %s", r.Title, r.Organization)
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)
	fmt.Fprintf(&sb, "Generated %s. Answered %d of %d questions.\n\n",
		r.GeneratedAt.Format("2 January 2006 15:04"), r.Answered, r.Total)

	sb.WriteString("## Overall risk rating\n\n")
	sb.WriteString("| Total points | Applicable questions | Average | Numeric score | Rating |\n")
	sb.WriteString("|---:|---:|---:|---:|---|\n")
	o := r.Overall
	fmt.Fprintf(&sb, "| %d | %d | %.2f | %d | **%s** |\n\n",
		o.OverallTotalRiskPoints, o.OverallApplicableQuestions, o.OverallAverageRiskScore, o.OverallNumericRiskScore, o.OverallRiskRating)

	sb.WriteString("## Section ratings\n\n")
	sb.WriteString("| Section | Title | Points | Average | Numeric score | Rating |\n")
	sb.WriteString("|---|---|---:|---:|---:|---|\n")
	for _, s := range r.Sections {
		fmt.Fprintf(&sb, "| %s | %s | %d | %.2f | %d | %s |\n",
			cell(s.ID), cell(s.Title), s.Score.TotalRiskPoints, s.Score.AverageRiskScore, s.Score.NumericRiskScore, s.Score.AreaRiskRating)
	}
	sb.WriteString("\n")

	writeRecommendations(&sb, r.Recommendations)

	sb.WriteString("## Answers\n\n")
	for _, s := range r.Sections {
		fmt.Fprintf(&sb, "### %s. %s\n\n", s.ID, s.Title)
		if s.ResponsibleDepartment != "" {
			fmt.Fprintf(&sb, "Responsible department: %s\n\n", s.ResponsibleDepartment)
		}
		if len(s.Answers) == 0 {
			sb.WriteString("No answers recorded.\n\n")
			continue
		}
		sb.WriteString("| Question | Answer | Risk | Explanation |\n")
		sb.WriteString("|---|---|---|---|\n")
		for _, a := range s.Answers {
			id := a.QuestionID
			if a.IsKey {
				id += " (key)"
			}
			fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n", cell(id), cell(a.Value), a.Risk, cell(a.Explanation))
		}
		sb.WriteString("\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func writeRecommendations(sb *strings.Builder, recs []recommend.Recommendation) {
	sb.WriteString("## Recommendations\n\n")
	if len(recs) == 0 {
		sb.WriteString("No answers were flagged for follow-up.\n\n")
		return
	}

	for i, rec := range recs {
		qualifier := ""
		if rec.IsKey {
			qualifier = ", key question"
		}
		fmt.Fprintf(sb, "### %d. Question %s (%s risk%s)\n\n", i+1, rec.QuestionID, riskLabel(rec.Risk), qualifier)
		fmt.Fprintf(sb, "> %s\n\n", oneLine(rec.QuestionText))

		answer := rec.Answer.Value.String()
		if rec.Answer.Explanation != "" {
			answer += ": " + TruncateExplanation(rec.Answer.Explanation)
		}
		fmt.Fprintf(sb, "**Answer:** %s\n\n", oneLine(answer))
		fmt.Fprintf(sb, "%s\n\n", strings.TrimSpace(rec.Text))
		if rec.IsGenerated {
			sb.WriteString("_Tailored recommendation._\n\n")
		}
	}
}

func riskLabel(r models.RiskBand) string {
	if r == models.RiskNA {
		return "no"
	}
	return r.String()
}

// cell makes s safe inside a Markdown table cell.
func cell(s string) string {
	return strings.ReplaceAll(oneLine(s), "|", `\|`)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
