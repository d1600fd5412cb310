package template

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// SchemaViolation describes one way a template document fails to conform,
// addressed by the offending field path.
type SchemaViolation struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

func (v SchemaViolation) Error() string {
	return fmt.Sprintf("schema violation at %s: %s", v.Path, v.Reason)
}

// SchemaError aggregates every violation found in one document.
type SchemaError struct {
	Violations []SchemaViolation
}

func (e *SchemaError) Error() string {
	if len(e.Violations) == 0 {
		return "schema violation"
	}
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Error())
	}
	return strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// ParseJSON parses and validates a JSON template document.
func ParseJSON(data []byte) (*Template, error) {
	var t Template
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, &SchemaError{Violations: []SchemaViolation{{Path: "$", Reason: err.Error()}}}
	}
	return finish(&t)
}

// ParseYAML parses and validates a YAML template document.
func ParseYAML(data []byte) (*Template, error) {
	var t Template
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, &SchemaError{Violations: []SchemaViolation{{Path: "$", Reason: err.Error()}}}
	}
	return finish(&t)
}

// ParseFile parses a template definition file, choosing the codec from the
// file extension (.json, .yaml, .yml).
func ParseFile(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return ParseJSON(data)
	}
}

func finish(t *Template) (*Template, error) {
	var violations []SchemaViolation

	if err := validate.Struct(t); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return nil, err
		}
		for _, fe := range verrs {
			violations = append(violations, SchemaViolation{
				Path:   fieldPath(fe.Namespace()),
				Reason: validationReason(fe),
			})
		}
	}

	violations = append(violations, structuralViolations(t)...)

	if len(violations) > 0 {
		return nil, &SchemaError{Violations: violations}
	}
	return t, nil
}

// structuralViolations holds the checks struct tags cannot express: global
// question id uniqueness and validation-rule scopes that must reference
// buckets/tags actually present in the template.
func structuralViolations(t *Template) []SchemaViolation {
	var out []SchemaViolation

	seen := map[string]string{}
	for bi := range t.Buckets {
		b := &t.Buckets[bi]
		for gi := range b.Groups {
			g := &b.Groups[gi]
			for qi := range g.Questions {
				q := &g.Questions[qi]
				path := fmt.Sprintf("buckets[%d].groups[%d].questions[%d].question_id", bi, gi, qi)
				if prior, dup := seen[q.QuestionID]; dup {
					out = append(out, SchemaViolation{
						Path:   path,
						Reason: fmt.Sprintf("duplicate question_id %q (first declared at %s)", q.QuestionID, prior),
					})
					continue
				}
				seen[q.QuestionID] = path
			}
		}
	}

	for ri, rule := range t.Validation.BeforeDeclare {
		for _, id := range rule.BucketIDs {
			if !t.HasBucket(id) {
				out = append(out, SchemaViolation{
					Path:   fmt.Sprintf("validation.before_declare[%d].bucket_ids", ri),
					Reason: fmt.Sprintf("unknown bucket_id %q", id),
				})
			}
		}
		for _, tag := range rule.Tags {
			if !t.HasTag(tag) {
				out = append(out, SchemaViolation{
					Path:   fmt.Sprintf("validation.before_declare[%d].tags", ri),
					Reason: fmt.Sprintf("tag %q is not used by any question", tag),
				})
			}
		}
	}

	return out
}

// fieldPath turns a validator namespace ("Template.meta.template_id") into a
// document path ("meta.template_id").
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func validationReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field is required"
	case "eq":
		return fmt.Sprintf("must equal %q", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "min":
		return fmt.Sprintf("must have length >= %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be >= %s", fe.Param())
	case "datetime":
		return fmt.Sprintf("must be a date in the form %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q constraint", fe.Tag())
	}
}
