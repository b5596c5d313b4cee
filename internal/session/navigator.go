package session

import (
	"fmt"

	"github.com/harrison/microassess/internal/models"
)

// Position returns the current section and question indexes.
func (s *Session) Position() (sectionIdx, questionIdx int) {
	return s.sectionIdx, s.questionIdx
}

// Stage returns the current page.
func (s *Session) Stage() Stage {
	return s.stage
}

// CurrentSection returns the section at the current position.
func (s *Session) CurrentSection() models.Section {
	return s.def.Sections[s.sectionIdx]
}

// CurrentQuestion returns the question at the current position. It is false
// only for a section without questions.
func (s *Session) CurrentQuestion() (models.Question, bool) {
	sec := s.CurrentSection()
	if s.questionIdx < 0 || s.questionIdx >= len(sec.Questions) {
		return models.Question{}, false
	}
	return sec.Questions[s.questionIdx], true
}

// AdvanceQuestion moves to the next question of the current section.
// An unanswered scored question blocks with a *ValidationError; info_only
// questions never block. At the last question nothing moves and
// ErrAtLastQuestion is returned; there is no wraparound.
func (s *Session) AdvanceQuestion() error {
	if s.stage != StageQuestions {
		return ErrNotInQuestions
	}
	q, ok := s.CurrentQuestion()
	if !ok {
		return ErrAtLastQuestion
	}
	if q.IsScored() && s.QuestionStatus(q.ID) == Unanswered {
		return &ValidationError{
			Kind:      QuestionUnanswered,
			SectionID: s.CurrentSection().ID,
			Missing:   []string{q.ID},
		}
	}
	if s.questionIdx >= s.CurrentSection().LastQuestionIndex() {
		return ErrAtLastQuestion
	}
	s.questionIdx++
	s.rescore()
	return nil
}

// RetreatQuestion moves to the previous question without validating
// anything. From a summary page it returns to the question the summary was
// opened from.
func (s *Session) RetreatQuestion() error {
	if s.stage != StageQuestions {
		s.stage = StageQuestions
		s.rescore()
		return nil
	}
	if s.questionIdx == 0 {
		return ErrAtFirstQuestion
	}
	s.questionIdx--
	s.rescore()
	return nil
}

// gateSection refuses when the current section has unanswered scored questions.
func (s *Session) gateSection() error {
	missing := s.MissingInSection(s.sectionIdx)
	if len(missing) > 0 {
		return &ValidationError{
			Kind:      SectionIncomplete,
			SectionID: s.CurrentSection().ID,
			Missing:   missing,
		}
	}
	return nil
}

// AdvanceSection leaves the current section once all its scored questions
// are answered. It returns the id of the section now current, or "" when the
// last section was left and the session is on the final summary. A refused
// move returns a *ValidationError and changes nothing.
func (s *Session) AdvanceSection() (string, error) {
	if s.stage == StageSummary {
		return "", nil
	}
	if err := s.gateSection(); err != nil {
		return "", err
	}

	if s.sectionIdx == len(s.def.Sections)-1 {
		s.stage = StageSummary
		s.questionIdx = s.CurrentSection().LastQuestionIndex()
		s.rescore()
		return "", nil
	}

	s.sectionIdx++
	s.questionIdx = 0
	s.stage = StageQuestions
	s.rescore()
	return s.CurrentSection().ID, nil
}

// RetreatSection moves to the last question of the previous section. From
// a summary page it returns to the last question of the section the summary
// belongs to.
func (s *Session) RetreatSection() (string, error) {
	if s.stage != StageQuestions {
		s.stage = StageQuestions
		s.questionIdx = s.CurrentSection().LastQuestionIndex()
		s.rescore()
		return s.CurrentSection().ID, nil
	}
	if s.sectionIdx == 0 {
		return "", ErrAtFirstSection
	}
	s.sectionIdx--
	s.questionIdx = s.CurrentSection().LastQuestionIndex()
	s.rescore()
	return s.CurrentSection().ID, nil
}

// EnterSectionSummary opens the current section's summary page. It applies
// the same completeness gate as AdvanceSection and does not move.
func (s *Session) EnterSectionSummary() error {
	if s.stage == StageSummary {
		return ErrNotInQuestions
	}
	if err := s.gateSection(); err != nil {
		return err
	}
	s.stage = StageSectionSummary
	s.rescore()
	return nil
}

// JumpToSection moves to the first question of the section with id. The
// current and earlier sections are always reachable; a later one only when
// every section before it is complete. Otherwise a *ValidationError names
// the first incomplete section.
func (s *Session) JumpToSection(id string) error {
	target := s.def.SectionIndex(id)
	if target < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownSection, id)
	}

	if target > s.sectionIdx {
		for i := 0; i < target; i++ {
			if missing := s.MissingInSection(i); len(missing) > 0 {
				return &ValidationError{
					Kind:      SectionIncomplete,
					SectionID: s.def.Sections[i].ID,
					Missing:   missing,
				}
			}
		}
	}

	s.sectionIdx = target
	s.questionIdx = 0
	s.stage = StageQuestions
	s.rescore()
	return nil
}

// JumpToSummary opens the final summary when every section is complete.
func (s *Session) JumpToSummary() error {
	for i := range s.def.Sections {
		if missing := s.MissingInSection(i); len(missing) > 0 {
			return &ValidationError{
				Kind:      SectionIncomplete,
				SectionID: s.def.Sections[i].ID,
				Missing:   missing,
			}
		}
	}
	s.sectionIdx = len(s.def.Sections) - 1
	s.questionIdx = s.CurrentSection().LastQuestionIndex()
	s.stage = StageSummary
	s.rescore()
	return nil
}

// Complete reports whether every scored question in the assessment is answered.
func (s *Session) Complete() bool {
	answered, total := s.Progress()
	return answered == total
}
