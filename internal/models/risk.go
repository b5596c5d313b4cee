package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RiskBand is the risk label attached to an answer option and, in aggregate,
// to a section or the whole assessment.
type RiskBand string

const (
	RiskLow         RiskBand = "Low"
	RiskModerate    RiskBand = "Moderate"
	RiskSignificant RiskBand = "Significant"
	RiskHigh        RiskBand = "High"
	RiskNA          RiskBand = "N/A"
)

// ParseRiskBand converts a label into a RiskBand (case-insensitive).
func ParseRiskBand(s string) (RiskBand, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return RiskLow, nil
	case "moderate":
		return RiskModerate, nil
	case "significant":
		return RiskSignificant, nil
	case "high":
		return RiskHigh, nil
	case "n/a", "na":
		return RiskNA, nil
	default:
		return "", fmt.Errorf("unknown risk band %q", s)
	}
}

// Severity orders bands for sorting: High=4 ... Low=1, N/A and unknown=0.
func (r RiskBand) Severity() int {
	switch r {
	case RiskHigh:
		return 4
	case RiskSignificant:
		return 3
	case RiskModerate:
		return 2
	case RiskLow:
		return 1
	default:
		return 0
	}
}

// NumericScore returns the 1-4 HACT score for a rated band, 0 for N/A.
func (r RiskBand) NumericScore() int {
	return r.Severity()
}

// IsRated reports whether the band is one of the four rating bands.
func (r RiskBand) IsRated() bool {
	return r.Severity() > 0
}

// AtLeast reports whether r is as severe as other or more.
func (r RiskBand) AtLeast(other RiskBand) bool {
	return r.Severity() >= other.Severity()
}

func (r RiskBand) String() string {
	return string(r)
}

// UnmarshalYAML validates the label while decoding the catalogue.
func (r *RiskBand) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseRiskBand(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// UnmarshalJSON accepts any known label; unknown labels are rejected.
func (r *RiskBand) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*r = ""
		return nil
	}
	parsed, err := ParseRiskBand(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
