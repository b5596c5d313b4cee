package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harrison/microassess/internal/models"
	"github.com/harrison/microassess/internal/store"
)

// StateKey is the single key the session document lives under.
const StateKey = "hactState"

// Store is the part of store.KV the session needs.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// LoadOutcome describes what Load found.
type LoadOutcome struct {
	// Fresh is true when no usable saved state existed.
	Fresh bool
	// Discarded is true when saved state existed but could not be used.
	Discarded bool
	Reason    string
}

type annotatedSection struct {
	models.Section
	models.SectionScore
}

type annotatedAssessment struct {
	Title                      string                   `json:"assessmentTitle"`
	Sections                   []annotatedSection       `json:"sections"`
	OverallThresholds          []models.RatingThreshold `json:"overallRatingThresholds"`
	OverallTotalRiskPoints     int                      `json:"overallTotalRiskPoints"`
	OverallApplicableQuestions int                      `json:"overallApplicableQuestions"`
	OverallAverageRiskScore    float64                  `json:"overallAverageRiskScore"`
	OverallNumericRiskScore    int                      `json:"overallNumericRiskScore"`
	OverallRiskRating          models.RiskBand          `json:"overallRiskRating"`
}

type persistedState struct {
	SessionID            string              `json:"sessionId"`
	OrganizationName     string              `json:"organizationName"`
	CurrentSectionID     string              `json:"currentSectionId"`
	CurrentQuestionIndex int                 `json:"currentQuestionIndexInSection"`
	Stage                Stage               `json:"stage"`
	Answers              models.Answers      `json:"answers"`
	AssessmentData       annotatedAssessment `json:"assessmentData"`
	SavedAt              time.Time           `json:"savedAt"`
}

func (s *Session) snapshot(now time.Time) persistedState {
	data := annotatedAssessment{
		Title:                      s.def.Title,
		OverallThresholds:          s.def.OverallThresholds,
		OverallTotalRiskPoints:     s.scores.OverallTotalRiskPoints,
		OverallApplicableQuestions: s.scores.OverallApplicableQuestions,
		OverallAverageRiskScore:    s.scores.OverallAverageRiskScore,
		OverallNumericRiskScore:    s.scores.OverallNumericRiskScore,
		OverallRiskRating:          s.scores.OverallRiskRating,
	}
	for _, sec := range s.def.Sections {
		score, _ := s.scores.Section(sec.ID)
		data.Sections = append(data.Sections, annotatedSection{Section: sec, SectionScore: score})
	}

	return persistedState{
		SessionID:            s.ID,
		OrganizationName:     s.OrganizationName,
		CurrentSectionID:     s.CurrentSection().ID,
		CurrentQuestionIndex: s.questionIdx,
		Stage:                s.stage,
		Answers:              s.answers,
		AssessmentData:       data,
		SavedAt:              now,
	}
}

// MarshalJSON renders the persisted document, score annotations included.
func (s *Session) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.snapshot(s.savedAt))
}

// Save writes the session document under StateKey.
func (s *Session) Save(ctx context.Context, kv Store) error {
	now := time.Now().UTC()
	data, err := json.Marshal(s.snapshot(now))
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := kv.Put(ctx, StateKey, data); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	s.savedAt = now
	return nil
}

// Clear removes the saved document. A missing document is not an error.
func Clear(ctx context.Context, kv Store) error {
	if err := kv.Delete(ctx, StateKey); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Load restores the session saved under StateKey against def.
//
// A missing document yields a fresh session. A document that cannot be
// decoded, or whose sections do not match def, is deleted and replaced by a
// fresh session; the outcome says why. Scores are always recomputed from the
// answers. Only store failures are returned as errors.
func Load(ctx context.Context, kv Store, def *models.Assessment) (*Session, LoadOutcome, error) {
	raw, err := kv.Get(ctx, StateKey)
	if errors.Is(err, store.ErrNotFound) {
		return New(def), LoadOutcome{Fresh: true}, nil
	}
	if err != nil {
		return nil, LoadOutcome{}, fmt.Errorf("load session: %w", err)
	}

	var st persistedState
	if err := json.Unmarshal(raw, &st); err != nil {
		return discard(ctx, kv, def, fmt.Sprintf("saved state is not valid: %v", err))
	}
	if reason := structureMismatch(st.AssessmentData, def); reason != "" {
		return discard(ctx, kv, def, reason)
	}

	s := New(def)
	if st.SessionID != "" {
		if _, err := uuid.Parse(st.SessionID); err == nil {
			s.ID = st.SessionID
		}
	}
	s.OrganizationName = st.OrganizationName
	if st.Answers != nil {
		s.answers = st.Answers
		// the map key is authoritative
		for id, ans := range s.answers {
			ans.QuestionID = id
			s.answers[id] = ans
		}
	}

	if idx := def.SectionIndex(st.CurrentSectionID); idx >= 0 {
		s.sectionIdx = idx
	}
	s.questionIdx = clamp(st.CurrentQuestionIndex, 0, s.CurrentSection().LastQuestionIndex())
	if st.Stage.valid() && s.stageReachable(st.Stage) {
		s.stage = st.Stage
	}
	s.savedAt = st.SavedAt
	s.rescore()

	return s, LoadOutcome{}, nil
}

// stageReachable applies the gates that guard a summary page, so a saved
// summary is reopened only if the answers still allow it.
func (s *Session) stageReachable(stage Stage) bool {
	switch stage {
	case StageSectionSummary:
		return s.gateSection() == nil
	case StageSummary:
		return s.Complete()
	default:
		return true
	}
}

func discard(ctx context.Context, kv Store, def *models.Assessment, reason string) (*Session, LoadOutcome, error) {
	if err := Clear(ctx, kv); err != nil {
		return nil, LoadOutcome{}, err
	}
	return New(def), LoadOutcome{Fresh: true, Discarded: true, Reason: reason}, nil
}

func structureMismatch(saved annotatedAssessment, def *models.Assessment) string {
	if len(saved.Sections) != len(def.Sections) {
		return fmt.Sprintf("saved state has %d sections, definition has %d", len(saved.Sections), len(def.Sections))
	}
	for i, sec := range saved.Sections {
		if sec.ID != def.Sections[i].ID {
			return fmt.Sprintf("saved section %d is %q, definition has %q", i, sec.ID, def.Sections[i].ID)
		}
	}
	return ""
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
