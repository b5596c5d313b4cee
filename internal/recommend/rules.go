// Package recommend decides which answers deserve a recommendation, picks
// the static text for them and, for the riskiest ones, asks a text
// generator for a tailored version.
package recommend

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/harrison/microassess/internal/models"
)

// DefaultOrganization stands in for the partner's name in static text.
const DefaultOrganization = "the IP"

// staticRules are the hand-written recommendations for a "No" answer, keyed
// by question id. {org} is replaced with the organization name.
var staticRules = map[string]string{
	"1.1": "Critical: {org} must ensure it is legally registered and fully compliant with all national registration requirements. Steps: 1. Immediately initiate or complete the legal registration process. 2. Obtain and maintain all required certificates and licenses. 3. Document the legal status and date of registration. This is fundamental for operational legitimacy and donor eligibility.",
	"1.4": "Critical: the governing body of {org} must meet regularly and perform its oversight functions. Steps: 1. Establish a regular meeting schedule (e.g., quarterly). 2. Define a clear agenda for meetings, including review of financial reports, budget approval, and strategic discussions. 3. Ensure meeting minutes are properly recorded, approved, and archived. Effective governance is key to accountability.",
	"1.5": "High Priority: {org} must develop, approve, and implement a comprehensive anti-fraud and corruption policy. Steps: 1. Draft a policy covering definitions, prevention, detection, reporting mechanisms, investigation procedures, and disciplinary actions. 2. Ensure the policy is formally approved by the governing body. 3. Communicate the policy to all staff, volunteers, and key stakeholders. 4. Conduct regular training on the policy.",
	"1.6": "High Priority: {org} must establish clear, confidential channels for reporting suspected fraud, waste, or misuse of resources, and implement a robust whistle-blower protection policy. Steps: 1. Define and communicate accessible reporting mechanisms (e.g., dedicated email, hotline). 2. Develop a policy explicitly prohibiting retaliation against whistle-blowers. 3. Ensure investigations into reports are confidential and fair. This fosters transparency and accountability.",
	"2.2": "Significant: {org} must ensure detailed work plans are prepared for all projects and are regularly updated and monitored. Steps: 1. Implement a standard work plan template including activities, responsibilities, timelines, budgets, and expected results. 2. Mandate regular (e.g., monthly or quarterly) reviews of work plan progress against actuals. 3. Document deviations and implement corrective actions promptly. This is vital for effective project delivery.",
	"3.3": "High Priority: {org} must implement a systematic process for background verification for all new accounting/finance and key management positions. Steps: 1. Define the scope of background checks (e.g., reference checks, criminal record checks where permissible, qualification verification). 2. Consistently apply this process during recruitment. 3. Maintain confidential records of checks performed. This mitigates risks associated with hiring unsuitable candidates.",
	"4.1": "Critical: {org} must establish or enhance its accounting system to ensure proper recording and allocation of all financial transactions, especially for donor funds. Steps: 1. If using a manual system, implement robust controls and clear procedures. 2. If a computerized system is lacking or inadequate, consider adopting suitable accounting software. 3. Ensure the system can track expenditures by project, donor, and activity. 4. Train finance staff on correct usage and procedures. Accurate financial records are essential for HACT compliance.",
	"4.3": "Significant: {org} must ensure adequate segregation of duties in financial processes (ordering, receiving, accounting, payment). Steps: 1. Review current roles and responsibilities. 2. Reassign duties to ensure no single individual controls a transaction from start to finish. 3. Where full segregation is not possible due to staff size, implement strong compensating controls (e.g., increased supervision, independent reviews). Document these controls.",
	"4.4": "Critical: {org} must perform monthly bank reconciliations for all bank accounts. These must be prepared by someone independent of cash handling and transaction recording, and reviewed by a supervisor. Steps: 1. Assign responsibility for bank reconciliation preparation and review. 2. Ensure reconciliations are completed within a week of month-end. 3. All reconciling items must be investigated, explained, and cleared promptly with supporting documentation. This is a fundamental control for cash management.",
}

const (
	keyNoTemplate = `Addressing the issue raised in question %s ("%s...") is critical for {org}. Develop and implement robust measures, policies, or procedures to meet the required HACT standards and donor expectations. This may involve seeking external expertise if needed.`
	riskTemplate  = `For question %s ("%s..."), the current approach of {org} presents a %s risk. It is recommended to review the existing processes and policies related to this area, identify specific weaknesses, and develop an action plan to strengthen controls and align with HACT best practices. This may include enhanced documentation, staff training, or procedural changes.`
	noTemplate    = `Question %s ("%s...") was answered "No". Review this area with the responsible department and document how {org} will meet the expected practice before the next assurance activity.`
)

// Length limits taken from the HACT workbook tool.
const (
	excerptLen            = 70
	triggerExplanationLen = 10
	detailExplanationLen  = 20
	shortStaticLen        = 100
)

// ShouldRecommend reports whether the answer warrants any recommendation:
// a "No"; a "Yes" whose option is Significant or High; or an explanation
// longer than 10 characters on an explanation-bearing question whose
// selected option is Moderate or worse. N/A and unanswered never qualify.
func ShouldRecommend(q models.Question, ans models.Answer) bool {
	if !q.IsScored() || !ans.Value.IsAnswered() || ans.Value.IsNotApplicable() {
		return false
	}
	risk := q.RiskFor(ans.Value)

	switch ans.Value.Kind() {
	case models.AnswerNo:
		return true
	case models.AnswerYes:
		if risk.AtLeast(models.RiskSignificant) {
			return true
		}
	}

	return q.Type.ExplanationBearing() &&
		utf8.RuneCountInString(ans.Explanation) > triggerExplanationLen &&
		risk.AtLeast(models.RiskModerate)
}

// Static returns the rule-based text for ans, naming DefaultOrganization.
func Static(q models.Question, ans models.Answer) string {
	return StaticFor("", q, ans)
}

// StaticFor returns the rule-based text for ans: the question's own rule
// for a "No", then the key-question template for a "No", then the risk
// template for Moderate and worse, then a generic text for any other "No".
// It is "" when none applies.
func StaticFor(org string, q models.Question, ans models.Answer) string {
	if org = strings.TrimSpace(org); org == "" {
		org = DefaultOrganization
	}
	isNo := ans.Value.Kind() == models.AnswerNo
	risk := q.RiskFor(ans.Value)
	excerpt := truncateRunes(q.Text, excerptLen)

	var text string
	switch {
	case isNo && staticRules[q.ID] != "":
		text = staticRules[q.ID]
	case isNo && q.IsKey:
		text = fmt.Sprintf(keyNoTemplate, q.ID, excerpt)
	case !ans.Value.IsNotApplicable() && risk.AtLeast(models.RiskModerate):
		text = fmt.Sprintf(riskTemplate, q.ID, excerpt, strings.ToLower(risk.String()))
	case isNo:
		text = fmt.Sprintf(noTemplate, q.ID, excerpt)
	default:
		return ""
	}
	return strings.ReplaceAll(text, "{org}", org)
}

// NeedsGeneration reports whether a tailored text should be requested: the
// risk is High or Significant; or it is Moderate with an explanation over
// 20 characters; or a key question is not Low and the static text is
// missing or under 100 characters.
func NeedsGeneration(q models.Question, ans models.Answer, static string) bool {
	risk := q.RiskFor(ans.Value)
	switch {
	case risk.AtLeast(models.RiskSignificant):
		return true
	case risk == models.RiskModerate && utf8.RuneCountInString(ans.Explanation) > detailExplanationLen:
		return true
	case q.IsKey && risk != models.RiskLow && utf8.RuneCountInString(static) < shortStaticLen:
		return true
	}
	return false
}

// IdealState describes the target practice for q, built from the "Yes"
// option's guidance when there is one.
func IdealState(org string, q models.Question) string {
	if org = strings.TrimSpace(org); org == "" {
		org = DefaultOrganization
	}
	yes, ok := q.Options[models.OptionYes]
	if !ok {
		return fmt.Sprintf(`The ideal state for "%s" involves %s having documented procedures, policies, and controls in place aligned with UN HACT requirements and best practices for managing donor funds effectively, thereby minimizing risks.`, q.Text, org)
	}

	example := yes.Placeholder
	if example == "" {
		example = yes.PromptForDetails
	}
	if example == "" {
		example = "well-documented evidence and consistent application of best practices"
	}
	return fmt.Sprintf(`The ideal state involves %s demonstrating practices aligned with a 'Yes' answer, including robust policies, procedures, and controls that effectively mitigate risks related to "%s". For example, having %s`, org, q.Text, ensurePeriod(example))
}

func ensurePeriod(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, ".") {
		return s
	}
	return s + "."
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
