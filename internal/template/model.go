package template

// The checklist template model. A template is parsed and validated once by the
// registry and never mutated afterwards; a new version of a checklist is a new
// template_id/version pair.

// SchemaVersion is the one supported template schema tag. Documents carrying
// any other value are rejected at parse time.
const SchemaVersion = "bcqa.template.v1"

type AnswerType string

const (
	AnswerTypeTriState AnswerType = "tri_state"
)

// AnswerValue is the recorded tri-state response. The empty string means the
// question has not been answered (an answer row may still exist to hold photos
// or a comment).
type AnswerValue string

const (
	ValueUnset AnswerValue = ""
	ValuePass  AnswerValue = "pass"
	ValueFail  AnswerValue = "fail"
	ValueNA    AnswerValue = "na"
)

func (v AnswerValue) IsSet() bool {
	return v != ValueUnset
}

func (v AnswerValue) Valid() bool {
	switch v {
	case ValueUnset, ValuePass, ValueFail, ValueNA:
		return true
	}
	return false
}

type DefaultState string

const (
	DefaultStateUnanswered DefaultState = "unanswered"
	DefaultStateNA         DefaultState = "na"
)

type BucketOrdering string

const (
	OrderingAsDefined    BucketOrdering = "as_defined"
	OrderingAlphabetical BucketOrdering = "alphabetical"
)

type FieldType string

const (
	FieldTypeText        FieldType = "text"
	FieldTypeNumber      FieldType = "number"
	FieldTypeDate        FieldType = "date"
	FieldTypeSelect      FieldType = "select"
	FieldTypeMultiselect FieldType = "multiselect"
	FieldTypeBoolean     FieldType = "boolean"
)

type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityMajor    Severity = "major"
	SeverityCritical Severity = "critical"
)

type RuleType string

const (
	RuleRequiredQuestionsAnswered RuleType = "required_questions_answered"
	RuleRequiredMediaPresent      RuleType = "required_media_present"
	RuleDeclarationSigned         RuleType = "declaration_signed"
)

type Meta struct {
	TemplateID  string `json:"template_id" yaml:"template_id" validate:"required,min=3"`
	Name        string `json:"name" yaml:"name" validate:"required,min=3"`
	Version     string `json:"version" yaml:"version" validate:"required"`
	Category    string `json:"category" yaml:"category" validate:"required"`
	Solution    string `json:"solution" yaml:"solution" validate:"required"`
	CreatedAt   string `json:"created_at" yaml:"created_at" validate:"required,datetime=2006-01-02"`
	Owner       string `json:"owner,omitempty" yaml:"owner,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

type UIHints struct {
	DefaultBucketIcon string         `json:"default_bucket_icon" yaml:"default_bucket_icon" validate:"required"`
	BucketOrdering    BucketOrdering `json:"bucket_ordering" yaml:"bucket_ordering" validate:"required,oneof=as_defined alphabetical"`
}

type RunField struct {
	FieldID     string    `json:"field_id" yaml:"field_id" validate:"required"`
	Label       string    `json:"label" yaml:"label" validate:"required"`
	Type        FieldType `json:"type" yaml:"type" validate:"required,oneof=text number date select multiselect boolean"`
	Required    bool      `json:"required" yaml:"required"`
	Options     []string  `json:"options,omitempty" yaml:"options,omitempty"`
	Placeholder string    `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	HelpText    string    `json:"help_text,omitempty" yaml:"help_text,omitempty"`
}

type MediaRule struct {
	Required    bool   `json:"required" yaml:"required"`
	MinCount    *int   `json:"min_count,omitempty" yaml:"min_count,omitempty" validate:"omitempty,gte=1"`
	CaptureHint string `json:"capture_hint,omitempty" yaml:"capture_hint,omitempty"`
}

// Min is the effective minimum photo count when the rule requires capture.
// Rules that require media but give no explicit count default to 1.
func (m *MediaRule) Min() int {
	if m == nil || !m.Required {
		return 0
	}
	if m.MinCount != nil {
		return *m.MinCount
	}
	return 1
}

type QuestionMedia struct {
	Pre            *MediaRule `json:"pre,omitempty" yaml:"pre,omitempty"`
	Post           *MediaRule `json:"post,omitempty" yaml:"post,omitempty"`
	RequiredOnFail *bool      `json:"required_on_fail,omitempty" yaml:"required_on_fail,omitempty"`
}

type Question struct {
	QuestionID       string         `json:"question_id" yaml:"question_id" validate:"required"`
	Text             string         `json:"text" yaml:"text" validate:"required"`
	AnswerType       AnswerType     `json:"answer_type" yaml:"answer_type" validate:"required,oneof=tri_state"`
	Required         bool           `json:"required" yaml:"required"`
	DefaultState     DefaultState   `json:"default_state,omitempty" yaml:"default_state,omitempty" validate:"omitempty,oneof=unanswered na"`
	HelpText         string         `json:"help_text,omitempty" yaml:"help_text,omitempty"`
	Tags             []string       `json:"tags,omitempty" yaml:"tags,omitempty"`
	RequireCommentOn []AnswerValue  `json:"require_comment_on,omitempty" yaml:"require_comment_on,omitempty" validate:"omitempty,dive,oneof=fail"`
	Severity         Severity       `json:"severity,omitempty" yaml:"severity,omitempty" validate:"omitempty,oneof=minor major critical"`
	Media            *QuestionMedia `json:"media,omitempty" yaml:"media,omitempty"`
}

func (q *Question) HasTag(tag string) bool {
	for _, t := range q.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

type Group struct {
	GroupID   string     `json:"group_id" yaml:"group_id" validate:"required"`
	Title     string     `json:"title" yaml:"title" validate:"required"`
	Order     float64    `json:"order" yaml:"order"`
	Questions []Question `json:"questions" yaml:"questions" validate:"dive"`
}

type Bucket struct {
	BucketID string  `json:"bucket_id" yaml:"bucket_id" validate:"required"`
	Title    string  `json:"title" yaml:"title" validate:"required"`
	Icon     string  `json:"icon,omitempty" yaml:"icon,omitempty"`
	Order    float64 `json:"order" yaml:"order"`
	Groups   []Group `json:"groups" yaml:"groups" validate:"dive"`
}

type DeclarationConfig struct {
	Required          bool   `json:"required" yaml:"required"`
	Statement         string `json:"statement" yaml:"statement" validate:"required"`
	SignatureRequired bool   `json:"signature_required" yaml:"signature_required"`
}

type BeforeDeclareRule struct {
	Type      RuleType `json:"type" yaml:"type" validate:"required,oneof=required_questions_answered required_media_present"`
	BucketIDs []string `json:"bucket_ids,omitempty" yaml:"bucket_ids,omitempty"`
	Tags      []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

type BeforeExportRule struct {
	Type RuleType `json:"type" yaml:"type" validate:"required,oneof=declaration_signed"`
}

type ValidationConfig struct {
	BeforeDeclare []BeforeDeclareRule `json:"before_declare" yaml:"before_declare" validate:"dive"`
	BeforeExport  []BeforeExportRule  `json:"before_export" yaml:"before_export" validate:"dive"`
}

type Template struct {
	SchemaVersion string            `json:"schema_version" yaml:"schema_version" validate:"required,eq=bcqa.template.v1"`
	Meta          Meta              `json:"meta" yaml:"meta"`
	UI            UIHints           `json:"ui" yaml:"ui"`
	RunFields     []RunField        `json:"run_fields" yaml:"run_fields" validate:"dive"`
	Buckets       []Bucket          `json:"buckets" yaml:"buckets" validate:"dive"`
	Declaration   DeclarationConfig `json:"declaration" yaml:"declaration"`
	Validation    ValidationConfig  `json:"validation" yaml:"validation"`
}

// EachQuestion walks every question in template declaration order. The walk
// stops early when fn returns false.
func (t *Template) EachQuestion(fn func(b *Bucket, g *Group, q *Question) bool) {
	for bi := range t.Buckets {
		b := &t.Buckets[bi]
		for gi := range b.Groups {
			g := &b.Groups[gi]
			for qi := range g.Questions {
				if !fn(b, g, &g.Questions[qi]) {
					return
				}
			}
		}
	}
}

func (t *Template) HasBucket(id string) bool {
	for i := range t.Buckets {
		if t.Buckets[i].BucketID == id {
			return true
		}
	}
	return false
}

func (t *Template) HasTag(tag string) bool {
	found := false
	t.EachQuestion(func(_ *Bucket, _ *Group, q *Question) bool {
		if q.HasTag(tag) {
			found = true
			return false
		}
		return true
	})
	return found
}

// QuestionsInScope returns questions selected by a rule scope: the union of
// the listed buckets and the listed tags, or every question when the scope is
// empty. Declaration order is preserved.
func (t *Template) QuestionsInScope(bucketIDs, tags []string) []*Question {
	if len(bucketIDs) == 0 && len(tags) == 0 {
		var all []*Question
		t.EachQuestion(func(_ *Bucket, _ *Group, q *Question) bool {
			all = append(all, q)
			return true
		})
		return all
	}

	inBuckets := make(map[string]bool, len(bucketIDs))
	for _, id := range bucketIDs {
		inBuckets[id] = true
	}

	var scoped []*Question
	t.EachQuestion(func(b *Bucket, _ *Group, q *Question) bool {
		if inBuckets[b.BucketID] {
			scoped = append(scoped, q)
			return true
		}
		for _, tag := range tags {
			if q.HasTag(tag) {
				scoped = append(scoped, q)
				return true
			}
		}
		return true
	})
	return scoped
}
