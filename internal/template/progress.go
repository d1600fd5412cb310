package template

// AnswerInput is the answer-set view the calculator and gate consume: what
// was recorded for one question, detached from how it is stored.
type AnswerInput struct {
	Value      AnswerValue
	Comment    string
	PhotoCount int
}

// Answered reports whether the answer carries a real value. Comment-only or
// photo-only answers do not count as answered.
func (a AnswerInput) Answered() bool {
	return a.Value.IsSet()
}

type BucketProgress struct {
	BucketID             string `json:"bucket_id"`
	Title                string `json:"title"`
	Icon                 string `json:"icon"`
	TotalQuestions       int    `json:"total_questions"`
	AnsweredQuestions    int    `json:"answered_questions"`
	CompletionPercentage int    `json:"completion_percentage"`
}

// Progress derives per-bucket completion from a template and the full answer
// set of a run. Buckets come back in template-declared order; the
// "alphabetical" ordering mode is a presentation hint left to callers.
func Progress(t *Template, answers map[string]AnswerInput) []BucketProgress {
	out := make([]BucketProgress, 0, len(t.Buckets))
	for bi := range t.Buckets {
		b := &t.Buckets[bi]
		total := 0
		answered := 0
		for gi := range b.Groups {
			for qi := range b.Groups[gi].Questions {
				total++
				if answers[b.Groups[gi].Questions[qi].QuestionID].Answered() {
					answered++
				}
			}
		}
		pct := 0
		if total > 0 {
			pct = answered * 100 / total
		}
		icon := b.Icon
		if icon == "" {
			icon = t.UI.DefaultBucketIcon
		}
		out = append(out, BucketProgress{
			BucketID:             b.BucketID,
			Title:                b.Title,
			Icon:                 icon,
			TotalQuestions:       total,
			AnsweredQuestions:    answered,
			CompletionPercentage: pct,
		})
	}
	return out
}
