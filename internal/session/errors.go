package session

import (
	"errors"
	"fmt"
	"strings"
)

// Boundary conditions of navigation. They are not failures: the position is
// left unchanged.
var (
	ErrAtFirstQuestion = errors.New("already at the first question of the section")
	ErrAtLastQuestion  = errors.New("already at the last question of the section")
	ErrAtFirstSection  = errors.New("already at the first section")
	ErrNotInQuestions  = errors.New("not answering questions")
	ErrUnknownSection  = errors.New("unknown section")
)

// ErrValidation is wrapped by every *ValidationError.
var ErrValidation = errors.New("validation failed")

// ValidationKind says which gate refused a move.
type ValidationKind int

const (
	// QuestionUnanswered blocks moving past an unanswered question.
	QuestionUnanswered ValidationKind = iota
	// SectionIncomplete blocks leaving a section with unanswered questions.
	SectionIncomplete
)

// String returns the string representation of ValidationKind.
func (k ValidationKind) String() string {
	switch k {
	case QuestionUnanswered:
		return "question unanswered"
	case SectionIncomplete:
		return "section incomplete"
	default:
		return "unknown"
	}
}

// ValidationError reports a refused move and what must be answered first.
// Missing lists question ids in questionnaire order.
type ValidationError struct {
	Kind      ValidationKind
	SectionID string
	Missing   []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	switch e.Kind {
	case QuestionUnanswered:
		return fmt.Sprintf("question %s must be answered before continuing", strings.Join(e.Missing, ", "))
	default:
		return fmt.Sprintf("section %s is incomplete: unanswered questions %s", e.SectionID, strings.Join(e.Missing, ", "))
	}
}

// Unwrap lets callers match any validation failure with errors.Is(err, ErrValidation).
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// AsValidationError extracts a *ValidationError from err.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
