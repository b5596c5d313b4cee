package models

import (
	"encoding/json"
	"strings"
)

// AnswerKind tags the variant held by an AnswerValue.
type AnswerKind int

const (
	// Unanswered is the zero value: no answer recorded.
	Unanswered AnswerKind = iota
	AnswerYes
	AnswerNo
	AnswerNotApplicable
	AnswerFreeText
)

// AnswerValue is a closed sum type over the values a question can take:
// Yes, No, N/A, free text or nothing. Construct it with the helpers below.
type AnswerValue struct {
	kind AnswerKind
	text string
}

// Yes returns the "Yes" answer.
func Yes() AnswerValue { return AnswerValue{kind: AnswerYes} }

// No returns the "No" answer.
func No() AnswerValue { return AnswerValue{kind: AnswerNo} }

// NotApplicable returns the "N/A" answer.
func NotApplicable() AnswerValue { return AnswerValue{kind: AnswerNotApplicable} }

// NoAnswer returns the unanswered value.
func NoAnswer() AnswerValue { return AnswerValue{} }

// FreeText returns a free-text answer. Blank text is unanswered.
func FreeText(s string) AnswerValue {
	if strings.TrimSpace(s) == "" {
		return AnswerValue{}
	}
	return AnswerValue{kind: AnswerFreeText, text: s}
}

// ParseAnswerValue maps user input onto the sum type. "Yes", "No" and "N/A"
// are matched case-insensitively; anything else non-blank is free text.
func ParseAnswerValue(s string) AnswerValue {
	trimmed := strings.TrimSpace(s)
	switch strings.ToLower(trimmed) {
	case "":
		return NoAnswer()
	case "yes", "y":
		return Yes()
	case "no", "n":
		return No()
	case "n/a", "na":
		return NotApplicable()
	default:
		return FreeText(trimmed)
	}
}

// Kind returns the variant tag.
func (v AnswerValue) Kind() AnswerKind { return v.kind }

// IsAnswered is false only for the unanswered variant.
func (v AnswerValue) IsAnswered() bool { return v.kind != Unanswered }

// IsNotApplicable reports the N/A variant.
func (v AnswerValue) IsNotApplicable() bool { return v.kind == AnswerNotApplicable }

// Text returns the free text, or "" for the other variants.
func (v AnswerValue) Text() string { return v.text }

// OptionKey returns the option key this value selects. Free text and
// unanswered values select no option.
func (v AnswerValue) OptionKey() (OptionKey, bool) {
	switch v.kind {
	case AnswerYes:
		return OptionYes, true
	case AnswerNo:
		return OptionNo, true
	case AnswerNotApplicable:
		return OptionNA, true
	default:
		return "", false
	}
}

// String renders the value the way it is displayed and persisted.
func (v AnswerValue) String() string {
	switch v.kind {
	case AnswerYes:
		return "Yes"
	case AnswerNo:
		return "No"
	case AnswerNotApplicable:
		return "N/A"
	case AnswerFreeText:
		return v.text
	default:
		return ""
	}
}

// freeTextJSON carries free text so it never collides with an option label.
type freeTextJSON struct {
	Text string `json:"text"`
}

// MarshalJSON writes options as their label ("Yes", "No", "N/A"), free text
// as {"text": ...} and unanswered as null.
func (v AnswerValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case Unanswered:
		return []byte("null"), nil
	case AnswerFreeText:
		return json.Marshal(freeTextJSON{Text: v.text})
	default:
		return json.Marshal(v.String())
	}
}

// UnmarshalJSON reads the forms written by MarshalJSON. A bare string that
// is not an exact option label is read as free text, which keeps documents
// saved before free text carried its own tag loadable.
func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*v = NoAnswer()
		return nil
	}
	if strings.HasPrefix(trimmed, "{") {
		var ft freeTextJSON
		if err := json.Unmarshal(data, &ft); err != nil {
			return err
		}
		*v = FreeText(ft.Text)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "Yes":
		*v = Yes()
	case "No":
		*v = No()
	case "N/A":
		*v = NotApplicable()
	default:
		*v = FreeText(s)
	}
	return nil
}

// Answer is one recorded response.
type Answer struct {
	QuestionID  string      `json:"questionId"`
	Value       AnswerValue `json:"value"`
	Explanation string      `json:"explanation,omitempty"`
}

// Display renders "value: explanation" (or just the value).
func (a Answer) Display() string {
	if a.Explanation == "" {
		return a.Value.String()
	}
	return a.Value.String() + ": " + a.Explanation
}

// Answers is the answer store snapshot, keyed by question id.
type Answers map[string]Answer

// Get returns the answer for id and whether one exists.
func (a Answers) Get(id string) (Answer, bool) {
	ans, ok := a[id]
	return ans, ok
}

// Clone returns an independent copy.
func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Len returns the number of recorded answers.
func (a Answers) Len() int {
	return len(a)
}
