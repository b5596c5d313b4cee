package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/microassess/internal/models"
)

func f(v float64) *float64 { return &v }

// hactBands mirrors the example from the HACT workbook: <=2 Low, <=4
// Moderate, <=6 Significant, >=6.01 High.
func hactBands() []models.RatingThreshold {
	return []models.RatingThreshold{
		{MaxAverageScore: f(2.0), NumericScore: 1, Rating: models.RiskLow},
		{MaxAverageScore: f(4.0), NumericScore: 2, Rating: models.RiskModerate},
		{MaxAverageScore: f(6.0), NumericScore: 3, Rating: models.RiskSignificant},
		{MinAverageScore: f(6.01), NumericScore: 4, Rating: models.RiskHigh},
	}
}

func yesNo(id string, yesPts, noPts int) models.Question {
	return models.Question{
		ID:   id,
		Text: "question " + id,
		Type: models.TypeYesNoExplain,
		Options: map[models.OptionKey]models.QuestionOption{
			models.OptionYes: {Risk: models.RiskLow, Points: yesPts},
			models.OptionNo:  {Risk: models.RiskHigh, Points: noPts},
		},
	}
}

func twoQuestionSection() models.Section {
	return models.Section{
		ID:        "S",
		Title:     "Scenario",
		Questions: []models.Question{yesNo("S.1", 1, 4), yesNo("S.2", 1, 8)},
		Scoring: models.ScoringLogic{
			TotalQuestions:           2,
			TotalApplicableQuestions: 2,
			Thresholds:               hactBands(),
		},
	}
}

func TestScoreSection_BothNoLandsOnSignificantEdge(t *testing.T) {
	answers := models.Answers{
		"S.1": {QuestionID: "S.1", Value: models.No()},
		"S.2": {QuestionID: "S.2", Value: models.No()},
	}

	got := ScoreSection(twoQuestionSection(), answers)

	assert.Equal(t, 12, got.TotalRiskPoints)
	assert.InDelta(t, 6.0, got.AverageRiskScore, 1e-12)
	assert.Equal(t, models.RiskSignificant, got.AreaRiskRating)
	assert.Equal(t, 3, got.NumericRiskScore)
}

func TestScoreSection_AllUnansweredIsLow(t *testing.T) {
	got := ScoreSection(twoQuestionSection(), models.Answers{})

	assert.Equal(t, 0, got.TotalRiskPoints)
	assert.Equal(t, 0.0, got.AverageRiskScore)
	assert.Equal(t, models.RiskLow, got.AreaRiskRating)
	assert.Equal(t, 1, got.NumericRiskScore)
}

func TestScoreSection_NotApplicableKeepsFixedDenominator(t *testing.T) {
	section := twoQuestionSection()
	section.Questions[1].Type = models.TypeYesNoNA
	section.Questions[1].Options[models.OptionNA] = models.QuestionOption{Risk: models.RiskNA, Points: 0}

	answers := models.Answers{
		"S.1": {QuestionID: "S.1", Value: models.No()},
		"S.2": {QuestionID: "S.2", Value: models.NotApplicable()},
	}

	got := ScoreSection(section, answers)

	assert.Equal(t, 4, got.TotalRiskPoints)
	assert.Equal(t, 2, got.ApplicableCount)
	assert.InDelta(t, 2.0, got.AverageRiskScore, 1e-12)
	assert.Equal(t, models.RiskLow, got.AreaRiskRating)
}

func TestScoreSection_InfoOnlyAndUnknownValuesContributeNothing(t *testing.T) {
	section := twoQuestionSection()
	section.Questions = append([]models.Question{{
		ID:          "S.0",
		Type:        models.TypeInfoOnly,
		InfoContent: "read this first",
	}}, section.Questions...)

	answers := models.Answers{
		"S.0": {QuestionID: "S.0", Value: models.No()},
		"S.1": {QuestionID: "S.1", Value: models.FreeText("sometimes")},
		"S.2": {QuestionID: "S.2", Value: models.Yes()},
	}

	got := ScoreSection(section, answers)
	assert.Equal(t, 1, got.TotalRiskPoints)
	assert.InDelta(t, 0.5, got.AverageRiskScore, 1e-12)
}

func TestScoreSection_AverageIsPointsOverApplicable(t *testing.T) {
	section := twoQuestionSection()
	cases := []struct {
		name       string
		applicable int
		answers    models.Answers
	}{
		{"one no", 2, models.Answers{"S.1": {Value: models.No()}}},
		{"mixed", 3, models.Answers{"S.1": {Value: models.Yes()}, "S.2": {Value: models.No()}}},
		{"zero denominator", 0, models.Answers{"S.2": {Value: models.No()}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			section.Scoring.TotalApplicableQuestions = tc.applicable
			got := ScoreSection(section, tc.answers)
			if tc.applicable == 0 {
				assert.Equal(t, 0.0, got.AverageRiskScore)
				return
			}
			assert.InDelta(t, float64(got.TotalRiskPoints)/float64(tc.applicable), got.AverageRiskScore, 1e-12)
		})
	}
}

func TestLookupBand(t *testing.T) {
	tests := []struct {
		avg         float64
		wantNumeric int
		wantRating  models.RiskBand
	}{
		{0, 1, models.RiskLow},
		{2.0, 1, models.RiskLow},
		{2.0001, 2, models.RiskModerate},
		{4.0, 2, models.RiskModerate},
		{6.0, 3, models.RiskSignificant},
		{6.005, 4, models.RiskHigh},
		{6.01, 4, models.RiskHigh},
		{42, 4, models.RiskHigh},
		{-1, 1, models.RiskLow},
	}

	for _, tt := range tests {
		numeric, rating := LookupBand(hactBands(), tt.avg)
		if numeric != tt.wantNumeric || rating != tt.wantRating {
			t.Errorf("LookupBand(%v) = (%d, %s), want (%d, %s)", tt.avg, numeric, rating, tt.wantNumeric, tt.wantRating)
		}
	}
}

func TestLookupBand_EmptyThresholdsDefaultToLow(t *testing.T) {
	numeric, rating := LookupBand(nil, 9.5)
	assert.Equal(t, 1, numeric)
	assert.Equal(t, models.RiskLow, rating)

	numeric, rating = LookupBand(hactBands(), math.NaN())
	assert.Equal(t, 1, numeric)
	assert.Equal(t, models.RiskLow, rating)
}

func TestLookupBand_EveryAverageMapsToOneOrderedBand(t *testing.T) {
	bands := hactBands()
	require.NoError(t, ValidateThresholds(bands))

	prev := 0
	for avg := 0.0; avg <= 10.0; avg += 0.0025 {
		numeric, rating := LookupBand(bands, avg)
		if numeric < 1 || numeric > 4 {
			t.Fatalf("avg %.4f: numeric %d out of range", avg, numeric)
		}
		if numeric < prev {
			t.Fatalf("avg %.4f: band went down from %d to %d", avg, prev, numeric)
		}
		if rating.NumericScore() != numeric {
			t.Fatalf("avg %.4f: rating %s does not match numeric %d", avg, rating, numeric)
		}
		prev = numeric
	}
	assert.Equal(t, 4, prev)
}

func TestScoreOverall_PoolsSectionsAndIsIdempotent(t *testing.T) {
	first := twoQuestionSection()
	second := twoQuestionSection()
	second.ID = "T"
	second.Questions = []models.Question{yesNo("T.1", 1, 6), yesNo("T.2", 1, 6)}

	assessment := &models.Assessment{
		Title:             "scenario",
		Sections:          []models.Section{first, second},
		OverallThresholds: hactBands(),
	}
	answers := models.Answers{
		"S.1": {Value: models.No()},
		"S.2": {Value: models.Yes()},
		"T.1": {Value: models.No()},
	}

	got := ScoreOverall(assessment, answers)

	assert.Equal(t, 11, got.OverallTotalRiskPoints)
	assert.Equal(t, 4, got.OverallApplicableQuestions)
	assert.InDelta(t, 2.75, got.OverallAverageRiskScore, 1e-12)
	assert.Equal(t, models.RiskModerate, got.OverallRiskRating)
	require.Len(t, got.Sections, 2)

	sec, ok := got.Section("T")
	require.True(t, ok)
	assert.Equal(t, 6, sec.TotalRiskPoints)

	again := ScoreOverall(assessment, answers)
	assert.Equal(t, got, again)
}

func TestScoreOverall_NilAssessment(t *testing.T) {
	got := ScoreOverall(nil, nil)
	assert.Equal(t, models.RiskLow, got.OverallRiskRating)
	assert.Equal(t, 1, got.OverallNumericRiskScore)
}

func TestValidateThresholds(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func([]models.RatingThreshold) []models.RatingThreshold
		wantErr bool
	}{
		{"valid", func(b []models.RatingThreshold) []models.RatingThreshold { return b }, false},
		{"empty", func(b []models.RatingThreshold) []models.RatingThreshold { return nil }, true},
		{"closed top band", func(b []models.RatingThreshold) []models.RatingThreshold {
			b[3].MaxAverageScore = f(10)
			return b
		}, true},
		{"wide gap", func(b []models.RatingThreshold) []models.RatingThreshold {
			b[3].MinAverageScore = f(7)
			return b
		}, true},
		{"overlap", func(b []models.RatingThreshold) []models.RatingThreshold {
			b[3].MinAverageScore = f(5.5)
			return b
		}, true},
		{"shared edge", func(b []models.RatingThreshold) []models.RatingThreshold {
			b[3].MinAverageScore = f(6.0)
			return b
		}, false},
		{"out of order", func(b []models.RatingThreshold) []models.RatingThreshold {
			b[1], b[2] = b[2], b[1]
			return b
		}, true},
		{"missing middle ceiling", func(b []models.RatingThreshold) []models.RatingThreshold {
			b[1].MaxAverageScore = nil
			return b
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateThresholds(tt.mutate(hactBands()))
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateThresholds() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
