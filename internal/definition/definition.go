// Package definition loads and validates the assessment catalogue.
//
// The HACT micro-assessment ships embedded in the binary; a YAML file with
// the same layout can replace it through the definition_path setting.
package definition

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/harrison/microassess/internal/models"
	"github.com/harrison/microassess/internal/scoring"
)

//go:embed catalogue.yaml
var embeddedCatalogue []byte

// Default returns a fresh copy of the embedded catalogue.
func Default() (*models.Assessment, error) {
	a, err := Parse(bytes.NewReader(embeddedCatalogue))
	if err != nil {
		return nil, fmt.Errorf("embedded catalogue: %w", err)
	}
	return a, nil
}

// Load returns the catalogue at path, or the embedded one when path is empty.
func Load(path string) (*models.Assessment, error) {
	if path == "" {
		return Default()
	}
	return LoadFile(path)
}

// LoadFile reads and validates a catalogue file.
func LoadFile(path string) (*models.Assessment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open definition file: %w", err)
	}
	defer f.Close()

	a, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// Parse decodes a YAML catalogue and validates it. Unknown keys are rejected.
func Parse(r io.Reader) (*models.Assessment, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var a models.Assessment
	if err := dec.Decode(&a); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("definition is empty")
		}
		return nil, fmt.Errorf("failed to parse definition: %w", err)
	}
	if err := Validate(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Validate checks the structural invariants scoring and navigation rely on.
// All problems are reported together.
func Validate(a *models.Assessment) error {
	if a == nil {
		return fmt.Errorf("definition is nil")
	}

	var errs []error
	if len(a.Sections) == 0 {
		errs = append(errs, fmt.Errorf("definition has no sections"))
	}

	sectionIDs := make(map[string]bool)
	questionIDs := make(map[string]string)
	for _, s := range a.Sections {
		if s.ID == "" {
			errs = append(errs, fmt.Errorf("section %q: missing id", s.Title))
			continue
		}
		if sectionIDs[s.ID] {
			errs = append(errs, fmt.Errorf("section %s: duplicate id", s.ID))
		}
		sectionIDs[s.ID] = true

		if len(s.Questions) == 0 {
			errs = append(errs, fmt.Errorf("section %s: no questions", s.ID))
		}

		scored, key := 0, 0
		for _, q := range s.Questions {
			if prev, dup := questionIDs[q.ID]; dup {
				errs = append(errs, fmt.Errorf("question %s: duplicate id (also in section %s)", q.ID, prev))
			}
			questionIDs[q.ID] = s.ID
			errs = append(errs, validateQuestion(q)...)
			if q.IsScored() {
				scored++
			}
			if q.IsKey {
				key++
			}
		}

		sl := s.Scoring
		if sl.TotalQuestions != len(s.Questions) {
			errs = append(errs, fmt.Errorf("section %s: total_questions is %d but %d questions are defined", s.ID, sl.TotalQuestions, len(s.Questions)))
		}
		if sl.TotalApplicableQuestions != scored {
			errs = append(errs, fmt.Errorf("section %s: total_applicable is %d but %d questions are scored", s.ID, sl.TotalApplicableQuestions, scored))
		}
		if sl.TotalKeyQuestions != key {
			errs = append(errs, fmt.Errorf("section %s: total_key is %d but %d questions are key", s.ID, sl.TotalKeyQuestions, key))
		}
		if err := scoring.ValidateThresholds(sl.Thresholds); err != nil {
			errs = append(errs, fmt.Errorf("section %s: %w", s.ID, err))
		}
	}

	if err := scoring.ValidateThresholds(a.OverallThresholds); err != nil {
		errs = append(errs, fmt.Errorf("overall thresholds: %w", err))
	}

	return errors.Join(errs...)
}

func validateQuestion(q models.Question) []error {
	var errs []error
	if q.ID == "" {
		return []error{fmt.Errorf("question %q: missing id", q.Text)}
	}
	if !q.Type.Valid() {
		errs = append(errs, fmt.Errorf("question %s: unknown type %q", q.ID, q.Type))
		return errs
	}
	if q.Text == "" {
		errs = append(errs, fmt.Errorf("question %s: missing text", q.ID))
	}

	switch {
	case q.Type == models.TypeInfoOnly:
		if q.IsKey {
			errs = append(errs, fmt.Errorf("question %s: info_only questions cannot be key questions", q.ID))
		}
		if len(q.Options) > 0 {
			errs = append(errs, fmt.Errorf("question %s: info_only questions take no options", q.ID))
		}
	case q.Type.HasOptions():
		for _, k := range []models.OptionKey{models.OptionYes, models.OptionNo} {
			if _, ok := q.Options[k]; !ok {
				errs = append(errs, fmt.Errorf("question %s: missing %q option", q.ID, k))
			}
		}
		_, hasNA := q.Options[models.OptionNA]
		if q.Type == models.TypeYesNoNA && !hasNA {
			errs = append(errs, fmt.Errorf("question %s: yes_no_na requires an %q option", q.ID, models.OptionNA))
		}
		if q.Type != models.TypeYesNoNA && hasNA {
			errs = append(errs, fmt.Errorf("question %s: %q option is only allowed on yes_no_na questions", q.ID, models.OptionNA))
		}
		for k, opt := range q.Options {
			if k != models.OptionYes && k != models.OptionNo && k != models.OptionNA {
				errs = append(errs, fmt.Errorf("question %s: unknown option %q", q.ID, k))
				continue
			}
			if opt.Points < 0 {
				errs = append(errs, fmt.Errorf("question %s: option %q has negative points", q.ID, k))
			}
			if k != models.OptionNA && !opt.Risk.IsRated() {
				errs = append(errs, fmt.Errorf("question %s: option %q needs a rated risk band", q.ID, k))
			}
		}
	}
	return errs
}
