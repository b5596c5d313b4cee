package textgen

import (
	"fmt"
	"strings"
	"text/template"
)

// ResponseSchema is the JSON schema the claude adapter enforces.
const ResponseSchema = `{"type":"object","properties":{"recommendation":{"type":"string","minLength":1}},"required":["recommendation"],"additionalProperties":false}`

var promptTemplate = template.Must(template.New("recommendation").Parse(
	`You are reviewing the capacity of {{.Org}} to manage donor funds (for example from UNDP, UNICEF or UNFPA) under the Harmonized Approach to Cash Transfers (HACT). {{.Org}} is undergoing a HACT micro-assessment.

Question: {{.QuestionText}}
Answer given: {{.UserAnswer}}
Assessed risk: {{.RiskAssessment}}
Ideal state: {{.IdealState}}

Write one recommendation that addresses the gap shown by this answer and nothing else. Organize it under these headings:
- Identified Gap: what is missing or weak, given the answer and the assessed risk.
- Risk Implication: the likely effect on operations, compliance or funding.
- Detailed Action Plan: numbered, concrete steps {{.Org}} can take.
- Specific Examples: sample policy clauses, process steps or controls that fit this question.
- HACT/Donor Alignment: how the steps meet HACT principles and donor expectations.

Be specific to this question and answer. Do not give advice that would apply equally to unrelated questions, and do not assume facts about {{.Org}} beyond what the answer states.
`))

// BuildPrompt renders the user prompt for req.
func BuildPrompt(req Request) (string, error) {
	return renderPrompt(promptTemplate, req)
}

func renderPrompt(tmpl *template.Template, req Request) (string, error) {
	org := strings.TrimSpace(req.Organization)
	if org == "" {
		org = "the implementing partner"
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, struct {
		Request
		Org string
	}{req, org}); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return sb.String(), nil
}
