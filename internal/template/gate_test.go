package template

import "testing"

func gateTemplate() *Template {
	two := 2
	yes := true
	return &Template{
		SchemaVersion: SchemaVersion,
		UI:            UIHints{DefaultBucketIcon: "clipboard", BucketOrdering: OrderingAsDefined},
		Buckets: []Bucket{
			{
				BucketID: "general",
				Title:    "General",
				Groups: []Group{
					{GroupID: "g1", Title: "G1", Questions: []Question{
						{QuestionID: "GEN-1", Text: "q", AnswerType: AnswerTypeTriState, Required: true},
						{QuestionID: "GEN-2", Text: "q", AnswerType: AnswerTypeTriState, Required: false},
					}},
				},
			},
			{
				BucketID: "access_points",
				Title:    "Access Points",
				Groups: []Group{
					{GroupID: "g2", Title: "G2", Questions: []Question{
						{QuestionID: "AP-1", Text: "q", AnswerType: AnswerTypeTriState, Required: true,
							Media: &QuestionMedia{Pre: &MediaRule{Required: true, MinCount: &two}}},
						{QuestionID: "AP-2", Text: "q", AnswerType: AnswerTypeTriState, Required: true,
							Media: &QuestionMedia{RequiredOnFail: &yes}},
					}},
				},
			},
		},
		Declaration: DeclarationConfig{Required: true, Statement: "confirmed"},
		Validation: ValidationConfig{
			BeforeDeclare: []BeforeDeclareRule{
				{Type: RuleRequiredQuestionsAnswered},
				{Type: RuleRequiredMediaPresent, BucketIDs: []string{"access_points"}},
			},
			BeforeExport: []BeforeExportRule{
				{Type: RuleDeclarationSigned},
			},
		},
	}
}

// completeAnswers satisfies every rule of gateTemplate.
func completeAnswers() map[string]AnswerInput {
	return map[string]AnswerInput{
		"GEN-1": {Value: ValuePass},
		"AP-1":  {Value: ValuePass, PhotoCount: 2},
		"AP-2":  {Value: ValuePass},
	}
}

func TestEvaluateBeforeDeclare(t *testing.T) {
	tpl := gateTemplate()

	cases := []struct {
		name      string
		answers   map[string]AnswerInput
		wantPass  bool
		wantRules []RuleType
	}{
		{
			name:      "empty_run_fails_both_rules",
			answers:   nil,
			wantPass:  false,
			wantRules: []RuleType{RuleRequiredQuestionsAnswered, RuleRequiredMediaPresent},
		},
		{
			name: "only_photos_short",
			answers: map[string]AnswerInput{
				"GEN-1": {Value: ValuePass},
				"AP-1":  {Value: ValuePass, PhotoCount: 1},
				"AP-2":  {Value: ValuePass},
			},
			wantPass:  false,
			wantRules: []RuleType{RuleRequiredMediaPresent},
		},
		{
			name: "fail_answer_demands_photo",
			answers: map[string]AnswerInput{
				"GEN-1": {Value: ValuePass},
				"AP-1":  {Value: ValuePass, PhotoCount: 2},
				"AP-2":  {Value: ValueFail},
			},
			wantPass:  false,
			wantRules: []RuleType{RuleRequiredMediaPresent},
		},
		{
			name: "fail_answer_with_photo_passes",
			answers: map[string]AnswerInput{
				"GEN-1": {Value: ValuePass},
				"AP-1":  {Value: ValuePass, PhotoCount: 2},
				"AP-2":  {Value: ValueFail, PhotoCount: 1},
			},
			wantPass: true,
		},
		{
			name:     "complete",
			answers:  completeAnswers(),
			wantPass: true,
		},
		{
			name: "optional_question_never_blocks",
			answers: map[string]AnswerInput{
				"GEN-1": {Value: ValueNA},
				"AP-1":  {Value: ValuePass, PhotoCount: 3},
				"AP-2":  {Value: ValuePass},
			},
			wantPass: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := EvaluateBeforeDeclare(tpl, tc.answers)
			if got.Passed != tc.wantPass {
				t.Fatalf("Passed=%v, violations=%v", got.Passed, got.Violations)
			}
			if len(got.Violations) != len(tc.wantRules) {
				t.Fatalf("got %d violations %v, want %d", len(got.Violations), got.Violations, len(tc.wantRules))
			}
			for i, rule := range tc.wantRules {
				if got.Violations[i].Rule != rule {
					t.Fatalf("violation[%d].Rule=%s, want %s", i, got.Violations[i].Rule, rule)
				}
			}
		})
	}
}

func TestGateViolationDetail(t *testing.T) {
	tpl := gateTemplate()
	got := EvaluateBeforeDeclare(tpl, map[string]AnswerInput{
		"AP-1": {Value: ValuePass, PhotoCount: 2},
		"AP-2": {Value: ValuePass},
	})
	if got.Passed || len(got.Violations) != 1 {
		t.Fatalf("result=%+v, want exactly one violation", got)
	}
	v := got.Violations[0]
	if v.Rule != RuleRequiredQuestionsAnswered {
		t.Fatalf("rule=%s", v.Rule)
	}
	if len(v.QuestionIDs) != 1 || v.QuestionIDs[0] != "GEN-1" {
		t.Fatalf("question_ids=%v, want [GEN-1]", v.QuestionIDs)
	}
}

// Answering one more question never introduces a new violation.
func TestGateMonotonicity(t *testing.T) {
	tpl := gateTemplate()
	answers := map[string]AnswerInput{
		"AP-1": {PhotoCount: 2},
		"AP-2": {},
	}
	order := []string{"GEN-1", "AP-1", "AP-2"}

	prev := len(EvaluateBeforeDeclare(tpl, answers).Violations)
	for _, id := range order {
		a := answers[id]
		a.Value = ValuePass
		answers[id] = a
		cur := len(EvaluateBeforeDeclare(tpl, answers).Violations)
		if cur > prev {
			t.Fatalf("after answering %s violations grew %d -> %d", id, prev, cur)
		}
		prev = cur
	}
	if prev != 0 {
		t.Fatalf("fully answered run still has %d violations", prev)
	}
}

func TestEvaluateBeforeExport(t *testing.T) {
	tpl := gateTemplate()

	got := EvaluateBeforeExport(tpl, completeAnswers(), nil)
	if got.Passed {
		t.Fatal("unacknowledged declaration must violate")
	}
	if len(got.Violations) != 1 || got.Violations[0].Rule != RuleDeclarationSigned {
		t.Fatalf("violations=%v", got.Violations)
	}

	got = EvaluateBeforeExport(tpl, completeAnswers(), []string{"decl-1"})
	if !got.Passed {
		t.Fatalf("violations=%v", got.Violations)
	}

	// The declare rules still apply at export time.
	got = EvaluateBeforeExport(tpl, nil, []string{"decl-1"})
	if got.Passed || len(got.Violations) != 2 {
		t.Fatalf("empty run export gate=%+v", got)
	}
}

func TestEvaluateBeforeExportOptionalDeclaration(t *testing.T) {
	tpl := gateTemplate()
	tpl.Declaration.Required = false

	got := EvaluateBeforeExport(tpl, completeAnswers(), nil)
	if !got.Passed {
		t.Fatalf("optional declaration blocked export: %v", got.Violations)
	}
}
