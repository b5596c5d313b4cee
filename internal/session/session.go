// Package session holds one in-progress assessment: the answers, the current
// position in the questionnaire and the scores derived from both.
//
// A Session is not safe for concurrent mutation. The CLI loads it, applies
// one command and saves it again.
package session

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harrison/microassess/internal/models"
	"github.com/harrison/microassess/internal/scoring"
)

// Stage is the page the user is on.
type Stage string

const (
	StageQuestions      Stage = "questions"
	StageSectionSummary Stage = "section_summary"
	StageSummary        Stage = "summary"
)

func (s Stage) valid() bool {
	return s == StageQuestions || s == StageSectionSummary || s == StageSummary
}

// Status is the completion state of one question.
type Status int

const (
	Unanswered Status = iota
	Answered
)

// String returns the string representation of Status.
func (s Status) String() string {
	if s == Answered {
		return "answered"
	}
	return "unanswered"
}

// Session is the state of one assessment run.
type Session struct {
	ID               string
	OrganizationName string

	def         *models.Assessment
	answers     models.Answers
	sectionIdx  int
	questionIdx int
	stage       Stage
	scores      models.OverallScore
	savedAt     time.Time
}

// New starts an empty session on def at the first question.
func New(def *models.Assessment) *Session {
	s := &Session{
		ID:      uuid.NewString(),
		def:     def,
		answers: make(models.Answers),
		stage:   StageQuestions,
	}
	s.rescore()
	return s
}

// Definition returns the catalogue the session runs on.
func (s *Session) Definition() *models.Assessment {
	return s.def
}

// SavedAt returns when the session was last saved or loaded.
func (s *Session) SavedAt() time.Time {
	return s.savedAt
}

// SetOrganization records the name of the assessed organization.
func (s *Session) SetOrganization(name string) {
	s.OrganizationName = strings.TrimSpace(name)
}

// Scores returns the scores computed from the current answers.
func (s *Session) Scores() models.OverallScore {
	return s.scores
}

// SectionScore returns the computed score of the section with id.
func (s *Session) SectionScore(id string) (models.SectionScore, bool) {
	return s.scores.Section(id)
}

// Reset clears every answer and the organization, returns to the first
// question and assigns a new session id.
func (s *Session) Reset() {
	s.ID = uuid.NewString()
	s.OrganizationName = ""
	s.answers = make(models.Answers)
	s.sectionIdx = 0
	s.questionIdx = 0
	s.stage = StageQuestions
	s.savedAt = time.Time{}
	s.rescore()
}

func (s *Session) rescore() {
	s.scores = scoring.ScoreOverall(s.def, s.answers)
}
