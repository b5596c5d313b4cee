package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/harrison/microassess/internal/display"
	"github.com/harrison/microassess/internal/models"
	"github.com/harrison/microassess/internal/recommend"
)

const titleWidth = 44

// WriteScoreTable prints the section ratings and the overall rating as an
// aligned table. Titles wider than the column are cut with "...".
func WriteScoreTable(w io.Writer, def *models.Assessment, scores models.OverallScore) {
	fmt.Fprintf(w, "%-4s %s %6s %7s  %s\n", "ID", runewidth.FillRight("Section", titleWidth), "Points", "Average", "Rating")
	for _, s := range def.Sections {
		score, _ := scores.Section(s.ID)
		title := runewidth.FillRight(runewidth.Truncate(s.Title, titleWidth, "..."), titleWidth)
		fmt.Fprintf(w, "%-4s %s %6d %7.2f  %s\n", s.ID, title, score.TotalRiskPoints, score.AverageRiskScore, display.Risk(score.AreaRiskRating))
	}
	fmt.Fprintf(w, "%-4s %s %6d %7.2f  %s\n", "", runewidth.FillRight("Overall", titleWidth),
		scores.OverallTotalRiskPoints, scores.OverallAverageRiskScore, display.Risk(scores.OverallRiskRating))
}

// WriteRecommendations prints recommendations wrapped to width columns.
func WriteRecommendations(w io.Writer, recs []recommend.Recommendation, width int) {
	if len(recs) == 0 {
		fmt.Fprintln(w, "No answers were flagged for follow-up.")
		return
	}
	for i, rec := range recs {
		marker := ""
		if rec.IsGenerated {
			marker = " [tailored]"
		}
		fmt.Fprintf(w, "%d. Question %s (%s)%s\n", i+1, rec.QuestionID, display.Risk(rec.Risk), marker)
		for _, line := range Wrap(rec.Text, width-3) {
			fmt.Fprintf(w, "   %s\n", line)
		}
	}
}

// Wrap breaks s into lines no wider than width terminal cells, measuring
// East Asian wide characters as two cells. A single word wider than width
// gets a line of its own.
func Wrap(s string, width int) []string {
	if width < 20 {
		width = 20
	}
	var lines []string
	var line strings.Builder
	lineWidth := 0
	for _, word := range strings.Fields(s) {
		ww := runewidth.StringWidth(word)
		if lineWidth > 0 && lineWidth+1+ww > width {
			lines = append(lines, line.String())
			line.Reset()
			lineWidth = 0
		}
		if lineWidth > 0 {
			line.WriteByte(' ')
			lineWidth++
		}
		line.WriteString(word)
		lineWidth += ww
	}
	if lineWidth > 0 {
		lines = append(lines, line.String())
	}
	return lines
}
