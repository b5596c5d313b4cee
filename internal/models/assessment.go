// Package models holds the assessment definition and the answer and score
// types shared by the scoring, session and recommendation packages.
package models

// QuestionType is the closed set of question renderings.
type QuestionType string

const (
	TypeYesNoNA           QuestionType = "yes_no_na"
	TypeYesNoExplain      QuestionType = "yes_no_explain"
	TypeYesNoMultiExplain QuestionType = "yes_no_multi_explain"
	TypeTextInput         QuestionType = "text_input"
	TypeInfoOnly          QuestionType = "info_only"
)

// Valid reports whether t is one of the known types.
func (t QuestionType) Valid() bool {
	switch t {
	case TypeYesNoNA, TypeYesNoExplain, TypeYesNoMultiExplain, TypeTextInput, TypeInfoOnly:
		return true
	}
	return false
}

// HasOptions reports whether questions of this type carry an option map.
func (t QuestionType) HasOptions() bool {
	return t != TypeTextInput && t != TypeInfoOnly
}

// ExplanationBearing reports whether the type collects an explanation.
func (t QuestionType) ExplanationBearing() bool {
	return t == TypeYesNoExplain || t == TypeYesNoMultiExplain || t == TypeTextInput
}

// OptionKey identifies a selectable option.
type OptionKey string

const (
	OptionYes OptionKey = "Yes"
	OptionNo  OptionKey = "No"
	OptionNA  OptionKey = "N/A"
)

// QuestionOption is one selectable answer value.
type QuestionOption struct {
	Risk             RiskBand `yaml:"risk" json:"riskAssessment"`
	Points           int      `yaml:"points" json:"points"`
	Placeholder      string   `yaml:"placeholder,omitempty" json:"defaultExplanationPlaceholder,omitempty"`
	PromptForDetails string   `yaml:"prompt_for_details,omitempty" json:"promptForDetails,omitempty"`
}

// Question is a single questionnaire item.
type Question struct {
	ID             string                       `yaml:"id" json:"id"`
	Text           string                       `yaml:"text" json:"text"`
	IsKey          bool                         `yaml:"key" json:"isKeyQuestion"`
	Type           QuestionType                 `yaml:"type" json:"type"`
	Options        map[OptionKey]QuestionOption `yaml:"options,omitempty" json:"options,omitempty"`
	ExampleComment string                       `yaml:"example_comment,omitempty" json:"exampleComment,omitempty"`
	InfoContent    string                       `yaml:"info_content,omitempty" json:"infoContent,omitempty"`
}

// IsScored is false for info_only questions, which never count anywhere.
func (q Question) IsScored() bool {
	return q.Type != TypeInfoOnly
}

// Option returns the option selected by value, if the question defines it.
func (q Question) Option(value AnswerValue) (QuestionOption, bool) {
	key, ok := value.OptionKey()
	if !ok || q.Options == nil {
		return QuestionOption{}, false
	}
	opt, ok := q.Options[key]
	return opt, ok
}

// RiskFor returns the risk band of the selected option, or N/A when the
// value selects nothing this question defines.
func (q Question) RiskFor(value AnswerValue) RiskBand {
	if value.IsNotApplicable() {
		return RiskNA
	}
	opt, ok := q.Option(value)
	if !ok {
		return RiskNA
	}
	return opt.Risk
}

// RatingThreshold is one band. A nil bound is unbounded on that side.
type RatingThreshold struct {
	MaxAverageScore *float64 `yaml:"max_average,omitempty" json:"maxAverageScore,omitempty"`
	MinAverageScore *float64 `yaml:"min_average,omitempty" json:"minAverageScore,omitempty"`
	NumericScore    int      `yaml:"score" json:"numericScore"`
	Rating          RiskBand `yaml:"rating" json:"rating"`
}

// Contains reports whether avg falls inside the band (inclusive on both edges).
func (t RatingThreshold) Contains(avg float64) bool {
	if t.MinAverageScore != nil && avg < *t.MinAverageScore {
		return false
	}
	if t.MaxAverageScore != nil && avg > *t.MaxAverageScore {
		return false
	}
	return true
}

// ScoringLogic holds a section's static scoring parameters.
type ScoringLogic struct {
	TotalQuestions           int               `yaml:"total_questions" json:"totalQuestions"`
	TotalApplicableQuestions int               `yaml:"total_applicable" json:"totalApplicableQuestions"`
	TotalKeyQuestions        int               `yaml:"total_key" json:"totalKey"`
	Thresholds               []RatingThreshold `yaml:"thresholds" json:"ratingThresholds"`
}

// Section is an ordered group of questions with its own rating thresholds.
type Section struct {
	ID                    string       `yaml:"id" json:"id"`
	Title                 string       `yaml:"title" json:"title"`
	ResponsibleDepartment string       `yaml:"responsible_department,omitempty" json:"responsibleDepartment,omitempty"`
	Questions             []Question   `yaml:"questions" json:"questions"`
	Scoring               ScoringLogic `yaml:"scoring" json:"scoringLogic"`
}

// LastQuestionIndex returns the index of the final question, or 0 for an empty section.
func (s Section) LastQuestionIndex() int {
	if len(s.Questions) == 0 {
		return 0
	}
	return len(s.Questions) - 1
}

// Assessment is the immutable catalogue a session is built from.
type Assessment struct {
	Title             string            `yaml:"title" json:"assessmentTitle"`
	Sections          []Section         `yaml:"sections" json:"sections"`
	OverallThresholds []RatingThreshold `yaml:"overall_thresholds" json:"overallRatingThresholds"`
}

// SectionIndex returns the position of the section with id, or -1.
func (a *Assessment) SectionIndex(id string) int {
	for i := range a.Sections {
		if a.Sections[i].ID == id {
			return i
		}
	}
	return -1
}

// QuestionRef locates a question inside an assessment.
type QuestionRef struct {
	SectionIndex  int
	QuestionIndex int
	Question      Question
}

// FindQuestion looks a question up by id.
func (a *Assessment) FindQuestion(id string) (QuestionRef, bool) {
	for si := range a.Sections {
		for qi, q := range a.Sections[si].Questions {
			if q.ID == id {
				return QuestionRef{SectionIndex: si, QuestionIndex: qi, Question: q}, true
			}
		}
	}
	return QuestionRef{}, false
}

// ScoredQuestionCount counts non-info questions across all sections.
func (a *Assessment) ScoredQuestionCount() int {
	n := 0
	for _, s := range a.Sections {
		for _, q := range s.Questions {
			if q.IsScored() {
				n++
			}
		}
	}
	return n
}
