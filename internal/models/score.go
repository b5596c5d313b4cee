package models

// SectionScore holds the computed fields for one section.
type SectionScore struct {
	SectionID        string   `json:"sectionId"`
	TotalRiskPoints  int      `json:"totalRiskPoints"`
	ApplicableCount  int      `json:"totalApplicableQuestions"`
	AverageRiskScore float64  `json:"averageRiskScore"`
	NumericRiskScore int      `json:"numericRiskScore"`
	AreaRiskRating   RiskBand `json:"areaRiskRating"`
}

// OverallScore holds the computed assessment-wide fields.
type OverallScore struct {
	OverallTotalRiskPoints     int            `json:"overallTotalRiskPoints"`
	OverallApplicableQuestions int            `json:"overallApplicableQuestions"`
	OverallAverageRiskScore    float64        `json:"overallAverageRiskScore"`
	OverallNumericRiskScore    int            `json:"overallNumericRiskScore"`
	OverallRiskRating          RiskBand       `json:"overallRiskRating"`
	Sections                   []SectionScore `json:"sections"`
}

// Section returns the score of the section with id.
func (o OverallScore) Section(id string) (SectionScore, bool) {
	for _, s := range o.Sections {
		if s.SectionID == id {
			return s, true
		}
	}
	return SectionScore{}, false
}
