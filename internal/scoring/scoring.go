// Package scoring converts answers into section and overall risk ratings.
//
// Every function here is pure: the result depends only on the definition and
// the answer snapshot passed in, so recomputation is idempotent. Partial or
// odd input never produces an error; the worst case is a safe default
// (average 0, lowest band).
package scoring

import (
	"fmt"
	"math"

	"github.com/harrison/microassess/internal/models"
)

// MaxBandGap is the widest gap tolerated between one band's ceiling and the
// next band's floor. Catalogues written to two decimals leave a 0.01 step
// (e.g. max 6.0 then min 6.01); anything that lands in such a step is rated
// by the band above it.
const MaxBandGap = 0.01

const floatTolerance = 1e-9

// QuestionPoints returns the points an answer contributes to its question.
// N/A, unanswered, info-only and values that select no defined option all
// contribute 0.
func QuestionPoints(q models.Question, ans models.Answer, ok bool) int {
	if !ok || !q.IsScored() {
		return 0
	}
	if !ans.Value.IsAnswered() || ans.Value.IsNotApplicable() {
		return 0
	}
	opt, found := q.Option(ans.Value)
	if !found {
		return 0
	}
	return opt.Points
}

// ScoreSection computes the section's computed fields from the answers.
// The average always divides by the section's static applicable-question
// count, not by the number of answers present.
func ScoreSection(section models.Section, answers models.Answers) models.SectionScore {
	total := 0
	for _, q := range section.Questions {
		ans, ok := answers[q.ID]
		total += QuestionPoints(q, ans, ok)
	}

	applicable := section.Scoring.TotalApplicableQuestions
	avg := average(total, applicable)
	numeric, rating := LookupBand(section.Scoring.Thresholds, avg)

	return models.SectionScore{
		SectionID:        section.ID,
		TotalRiskPoints:  total,
		ApplicableCount:  applicable,
		AverageRiskScore: avg,
		NumericRiskScore: numeric,
		AreaRiskRating:   rating,
	}
}

// ScoreOverall rescores every section from the answers (never from cached
// section fields) and rates the pooled average against the overall bands.
func ScoreOverall(assessment *models.Assessment, answers models.Answers) models.OverallScore {
	if assessment == nil {
		numeric, rating := LookupBand(nil, 0)
		return models.OverallScore{OverallNumericRiskScore: numeric, OverallRiskRating: rating}
	}

	sections := make([]models.SectionScore, 0, len(assessment.Sections))
	totalPoints := 0
	totalApplicable := 0
	for _, s := range assessment.Sections {
		score := ScoreSection(s, answers)
		sections = append(sections, score)
		totalPoints += score.TotalRiskPoints
		totalApplicable += s.Scoring.TotalApplicableQuestions
	}

	avg := average(totalPoints, totalApplicable)
	numeric, rating := LookupBand(assessment.OverallThresholds, avg)

	return models.OverallScore{
		OverallTotalRiskPoints:     totalPoints,
		OverallApplicableQuestions: totalApplicable,
		OverallAverageRiskScore:    avg,
		OverallNumericRiskScore:    numeric,
		OverallRiskRating:          rating,
		Sections:                   sections,
	}
}

func average(points, applicable int) float64 {
	if applicable <= 0 {
		return 0
	}
	return float64(points) / float64(applicable)
}

// LookupBand returns the numeric score and rating for avg.
//
// Bands are tried in order and the first containing avg wins, so a value
// sitting exactly on a shared edge goes to the lower-risk band. A value that
// no band contains is either in a gap between bands, below the first floor or
// above every ceiling: it goes to the next band up, or to the open-ended top
// band when there is none. An empty list yields (1, Low).
func LookupBand(thresholds []models.RatingThreshold, avg float64) (int, models.RiskBand) {
	if len(thresholds) == 0 || math.IsNaN(avg) {
		return 1, models.RiskLow
	}

	for _, t := range thresholds {
		if t.Contains(avg) {
			return bandResult(t)
		}
	}

	for _, t := range thresholds {
		if t.MinAverageScore != nil && avg < *t.MinAverageScore {
			return bandResult(t)
		}
	}
	return bandResult(topBand(thresholds))
}

func bandResult(t models.RatingThreshold) (int, models.RiskBand) {
	rating := t.Rating
	if !rating.IsRated() {
		rating = models.RiskLow
	}
	numeric := t.NumericScore
	if numeric <= 0 {
		numeric = rating.NumericScore()
	}
	return numeric, rating
}

// topBand prefers the last open-ended band (floor only); otherwise the last band.
func topBand(thresholds []models.RatingThreshold) models.RatingThreshold {
	for i := len(thresholds) - 1; i >= 0; i-- {
		t := thresholds[i]
		if t.MaxAverageScore == nil && t.MinAverageScore != nil {
			return t
		}
	}
	return thresholds[len(thresholds)-1]
}

// ValidateThresholds checks that bands are ordered Low to High, contiguous
// (gaps up to MaxBandGap), non-overlapping and open-ended at the top.
func ValidateThresholds(thresholds []models.RatingThreshold) error {
	if len(thresholds) == 0 {
		return fmt.Errorf("no rating thresholds defined")
	}

	for i, t := range thresholds {
		if !t.Rating.IsRated() {
			return fmt.Errorf("threshold %d: rating %q is not a rated band", i, t.Rating)
		}
		if t.NumericScore < 1 || t.NumericScore > 4 {
			return fmt.Errorf("threshold %d: numeric score %d out of range 1-4", i, t.NumericScore)
		}
		if t.MinAverageScore != nil && t.MaxAverageScore != nil && *t.MinAverageScore > *t.MaxAverageScore {
			return fmt.Errorf("threshold %d: min %.2f above max %.2f", i, *t.MinAverageScore, *t.MaxAverageScore)
		}

		last := i == len(thresholds)-1
		if last {
			if t.MaxAverageScore != nil {
				return fmt.Errorf("threshold %d (%s): top band must be open-ended", i, t.Rating)
			}
			continue
		}
		if t.MaxAverageScore == nil {
			return fmt.Errorf("threshold %d (%s): only the top band may omit max_average", i, t.Rating)
		}

		next := thresholds[i+1]
		if next.NumericScore <= t.NumericScore {
			return fmt.Errorf("threshold %d: numeric scores must increase (%d then %d)", i+1, t.NumericScore, next.NumericScore)
		}
		if next.Rating.Severity() <= t.Rating.Severity() {
			return fmt.Errorf("threshold %d: ratings must increase (%s then %s)", i+1, t.Rating, next.Rating)
		}
		if next.MaxAverageScore != nil && *next.MaxAverageScore <= *t.MaxAverageScore {
			return fmt.Errorf("threshold %d: max %.2f not above previous max %.2f", i+1, *next.MaxAverageScore, *t.MaxAverageScore)
		}
		if next.MinAverageScore != nil {
			gap := *next.MinAverageScore - *t.MaxAverageScore
			if gap < -floatTolerance {
				return fmt.Errorf("threshold %d: min %.2f overlaps previous max %.2f", i+1, *next.MinAverageScore, *t.MaxAverageScore)
			}
			if gap > MaxBandGap+floatTolerance {
				return fmt.Errorf("threshold %d: gap of %.4f after previous max %.2f", i+1, gap, *t.MaxAverageScore)
			}
		}
	}

	if thresholds[0].MinAverageScore != nil && *thresholds[0].MinAverageScore > 0 {
		return fmt.Errorf("threshold 0: lowest band must start at 0, got %.2f", *thresholds[0].MinAverageScore)
	}
	return nil
}
