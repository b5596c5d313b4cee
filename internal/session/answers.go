package session

import (
	"strings"

	"github.com/harrison/microassess/internal/models"
)

// SetAnswer records value and explanation for questionID, replacing any
// previous answer. The value is not checked against the question's options
// and the id need not exist; scoring ignores what it cannot place.
func (s *Session) SetAnswer(questionID string, value models.AnswerValue, explanation string) {
	s.answers[questionID] = models.Answer{
		QuestionID:  questionID,
		Value:       value,
		Explanation: strings.TrimSpace(explanation),
	}
	s.rescore()
}

// Answer returns the recorded answer for questionID.
func (s *Session) Answer(questionID string) (models.Answer, bool) {
	return s.answers.Get(questionID)
}

// Answers returns a snapshot of every recorded answer.
func (s *Session) Answers() models.Answers {
	return s.answers.Clone()
}

// QuestionStatus reports Answered when a non-empty value is recorded.
// N/A counts as answered.
func (s *Session) QuestionStatus(questionID string) Status {
	ans, ok := s.answers.Get(questionID)
	if !ok || !ans.Value.IsAnswered() {
		return Unanswered
	}
	return Answered
}

// MissingInSection lists the unanswered scored questions of the section at
// idx, in order. info_only questions never appear.
func (s *Session) MissingInSection(idx int) []string {
	if idx < 0 || idx >= len(s.def.Sections) {
		return nil
	}
	var missing []string
	for _, q := range s.def.Sections[idx].Questions {
		if !q.IsScored() {
			continue
		}
		if s.QuestionStatus(q.ID) == Unanswered {
			missing = append(missing, q.ID)
		}
	}
	return missing
}

// SectionComplete reports whether every scored question of the section at idx is answered.
func (s *Session) SectionComplete(idx int) bool {
	return len(s.MissingInSection(idx)) == 0
}

// Progress returns answered and total scored questions across the assessment.
func (s *Session) Progress() (answered, total int) {
	for _, sec := range s.def.Sections {
		for _, q := range sec.Questions {
			if !q.IsScored() {
				continue
			}
			total++
			if s.QuestionStatus(q.ID) == Answered {
				answered++
			}
		}
	}
	return answered, total
}
