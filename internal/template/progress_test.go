package template

import "testing"

func progressTemplate() *Template {
	q := func(id string) Question {
		return Question{QuestionID: id, Text: id, AnswerType: AnswerTypeTriState, Required: true}
	}
	return &Template{
		SchemaVersion: SchemaVersion,
		UI:            UIHints{DefaultBucketIcon: "clipboard", BucketOrdering: OrderingAsDefined},
		Buckets: []Bucket{
			{
				BucketID: "b1",
				Title:    "Bucket One",
				Icon:     "bolt",
				Groups: []Group{
					{GroupID: "g1", Title: "G1", Questions: []Question{q("Q1"), q("Q2")}},
				},
			},
			{
				BucketID: "b2",
				Title:    "Bucket Two",
				Groups: []Group{
					{GroupID: "g2", Title: "G2", Questions: []Question{q("Q3"), q("Q4"), q("Q5")}},
				},
			},
			{
				BucketID: "empty",
				Title:    "Empty Bucket",
				Groups:   []Group{},
			},
		},
	}
}

func TestProgress(t *testing.T) {
	tpl := progressTemplate()

	cases := []struct {
		name    string
		answers map[string]AnswerInput
		want    map[string]int // bucket_id -> completion pct
	}{
		{
			name:    "no_answers",
			answers: nil,
			want:    map[string]int{"b1": 0, "b2": 0, "empty": 0},
		},
		{
			name: "half_of_two",
			answers: map[string]AnswerInput{
				"Q1": {Value: ValuePass},
			},
			want: map[string]int{"b1": 50, "b2": 0, "empty": 0},
		},
		{
			name: "floor_one_of_three",
			answers: map[string]AnswerInput{
				"Q3": {Value: ValueFail},
			},
			want: map[string]int{"b1": 0, "b2": 33, "empty": 0},
		},
		{
			name: "all_answered",
			answers: map[string]AnswerInput{
				"Q1": {Value: ValuePass}, "Q2": {Value: ValueNA},
				"Q3": {Value: ValueFail}, "Q4": {Value: ValuePass}, "Q5": {Value: ValuePass},
			},
			want: map[string]int{"b1": 100, "b2": 100, "empty": 0},
		},
		{
			name: "comment_only_does_not_count",
			answers: map[string]AnswerInput{
				"Q1": {Comment: "checked, waiting on landlord", PhotoCount: 2},
				"Q2": {Value: ValuePass},
			},
			want: map[string]int{"b1": 50, "b2": 0, "empty": 0},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Progress(tpl, tc.answers)
			if len(got) != len(tpl.Buckets) {
				t.Fatalf("got %d buckets, want %d", len(got), len(tpl.Buckets))
			}
			for _, bp := range got {
				if bp.CompletionPercentage != tc.want[bp.BucketID] {
					t.Fatalf("%s: pct=%d, want %d", bp.BucketID, bp.CompletionPercentage, tc.want[bp.BucketID])
				}
			}
		})
	}
}

func TestProgressCounts(t *testing.T) {
	tpl := progressTemplate()
	got := Progress(tpl, map[string]AnswerInput{"Q1": {Value: ValuePass}})

	if got[0].TotalQuestions != 2 || got[0].AnsweredQuestions != 1 {
		t.Fatalf("b1 counts %d/%d", got[0].AnsweredQuestions, got[0].TotalQuestions)
	}
	if got[2].TotalQuestions != 0 || got[2].AnsweredQuestions != 0 {
		t.Fatalf("empty bucket counts %d/%d", got[2].AnsweredQuestions, got[2].TotalQuestions)
	}
}

func TestProgressIconFallback(t *testing.T) {
	tpl := progressTemplate()
	got := Progress(tpl, nil)

	if got[0].Icon != "bolt" {
		t.Fatalf("b1 icon=%q, want own icon", got[0].Icon)
	}
	if got[1].Icon != "clipboard" {
		t.Fatalf("b2 icon=%q, want default icon", got[1].Icon)
	}
}
