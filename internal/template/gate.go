package template

import "fmt"

// The export gate evaluates a template's validation rule lists against the
// current answer set. Violations are a structured result for the caller to
// interpret (block a status transition, annotate an export), never an error:
// the gate computes the verdict, it does not enforce it.

type Violation struct {
	Rule        RuleType `json:"rule"`
	QuestionIDs []string `json:"question_ids,omitempty"`
	BucketIDs   []string `json:"bucket_ids,omitempty"`
	Message     string   `json:"message"`
}

type GateResult struct {
	Passed     bool        `json:"passed"`
	Violations []Violation `json:"violations,omitempty"`
}

func gateResult(violations []Violation) GateResult {
	return GateResult{Passed: len(violations) == 0, Violations: violations}
}

// EvaluateBeforeDeclare runs the template's before_declare rules in order.
// Every rule is evaluated; nothing short-circuits.
func EvaluateBeforeDeclare(t *Template, answers map[string]AnswerInput) GateResult {
	var violations []Violation
	for _, rule := range t.Validation.BeforeDeclare {
		switch rule.Type {
		case RuleRequiredQuestionsAnswered:
			if v := checkRequiredAnswered(t, rule, answers); v != nil {
				violations = append(violations, *v)
			}
		case RuleRequiredMediaPresent:
			if v := checkRequiredMedia(t, rule, answers); v != nil {
				violations = append(violations, *v)
			}
		}
	}
	return gateResult(violations)
}

// EvaluateBeforeExport runs the full gate: the before_declare rules still
// apply at export time, followed by the before_export rules. acknowledged is
// the externally supplied proof of declaration acknowledgment.
func EvaluateBeforeExport(t *Template, answers map[string]AnswerInput, acknowledged []string) GateResult {
	violations := EvaluateBeforeDeclare(t, answers).Violations
	for _, rule := range t.Validation.BeforeExport {
		if rule.Type != RuleDeclarationSigned {
			continue
		}
		if t.Declaration.Required && len(acknowledged) == 0 {
			violations = append(violations, Violation{
				Rule:    RuleDeclarationSigned,
				Message: "declaration has not been acknowledged",
			})
		}
	}
	return gateResult(violations)
}

func checkRequiredAnswered(t *Template, rule BeforeDeclareRule, answers map[string]AnswerInput) *Violation {
	var missing []string
	for _, q := range t.QuestionsInScope(rule.BucketIDs, rule.Tags) {
		if !q.Required {
			continue
		}
		if !answers[q.QuestionID].Answered() {
			missing = append(missing, q.QuestionID)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &Violation{
		Rule:        RuleRequiredQuestionsAnswered,
		QuestionIDs: missing,
		BucketIDs:   rule.BucketIDs,
		Message:     fmt.Sprintf("%d required question(s) unanswered", len(missing)),
	}
}

func checkRequiredMedia(t *Template, rule BeforeDeclareRule, answers map[string]AnswerInput) *Violation {
	var short []string
	for _, q := range t.QuestionsInScope(rule.BucketIDs, rule.Tags) {
		needed := requiredPhotoCount(q, answers[q.QuestionID].Value)
		if needed == 0 {
			continue
		}
		if answers[q.QuestionID].PhotoCount < needed {
			short = append(short, q.QuestionID)
		}
	}
	if len(short) == 0 {
		return nil
	}
	return &Violation{
		Rule:        RuleRequiredMediaPresent,
		QuestionIDs: short,
		BucketIDs:   rule.BucketIDs,
		Message:     fmt.Sprintf("%d question(s) missing required photos", len(short)),
	}
}

// requiredPhotoCount sums the pre/post capture minimums and folds in the
// required-on-fail rule, which demands at least one photo when the current
// value is fail.
func requiredPhotoCount(q *Question, value AnswerValue) int {
	if q.Media == nil {
		return 0
	}
	needed := q.Media.Pre.Min() + q.Media.Post.Min()
	if q.Media.RequiredOnFail != nil && *q.Media.RequiredOnFail && value == ValueFail && needed < 1 {
		needed = 1
	}
	return needed
}
