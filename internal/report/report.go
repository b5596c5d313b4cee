// Package report renders a scored assessment and its recommendations as
// Markdown, HTML or a terminal summary. Rendering is presentational only:
// scores and recommendations are computed by the caller.
package report

import (
	"time"
	"unicode/utf8"

	"github.com/harrison/microassess/internal/models"
	"github.com/harrison/microassess/internal/recommend"
)

// ExplanationLimit is how many characters of an explanation a report shows.
const ExplanationLimit = 100

// AnswerRow is one answered question as shown in a report.
type AnswerRow struct {
	QuestionID  string
	Question    string
	IsKey       bool
	Value       string
	Explanation string
	Risk        models.RiskBand
}

// SectionView is a section with its score and answers.
type SectionView struct {
	ID                    string
	Title                 string
	ResponsibleDepartment string
	Score                 models.SectionScore
	Answers               []AnswerRow
}

// Report is everything a renderer needs.
type Report struct {
	Title           string
	Organization    string
	GeneratedAt     time.Time
	Answered        int
	Total           int
	Overall         models.OverallScore
	Sections        []SectionView
	Recommendations []recommend.Recommendation
}

// Build assembles a report. Answers are listed in questionnaire order;
// info_only questions are skipped.
func Build(def *models.Assessment, answers models.Answers, scores models.OverallScore, recs []recommend.Recommendation, org string, now time.Time) *Report {
	r := &Report{
		Title:           def.Title,
		Organization:    org,
		GeneratedAt:     now,
		Overall:         scores,
		Recommendations: recs,
	}

	for _, s := range def.Sections {
		view := SectionView{
			ID:                    s.ID,
			Title:                 s.Title,
			ResponsibleDepartment: s.ResponsibleDepartment,
		}
		if score, ok := scores.Section(s.ID); ok {
			view.Score = score
		}
		for _, q := range s.Questions {
			if !q.IsScored() {
				continue
			}
			r.Total++
			ans, ok := answers.Get(q.ID)
			if !ok || !ans.Value.IsAnswered() {
				continue
			}
			r.Answered++
			view.Answers = append(view.Answers, AnswerRow{
				QuestionID:  q.ID,
				Question:    q.Text,
				IsKey:       q.IsKey,
				Value:       ans.Value.String(),
				Explanation: TruncateExplanation(ans.Explanation),
				Risk:        q.RiskFor(ans.Value),
			})
		}
		r.Sections = append(r.Sections, view)
	}
	return r
}

// TruncateExplanation cuts s to ExplanationLimit characters and marks the cut.
func TruncateExplanation(s string) string {
	if utf8.RuneCountInString(s) <= ExplanationLimit {
		return s
	}
	return string([]rune(s)[:ExplanationLimit]) + "..."
}
