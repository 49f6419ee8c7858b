// Package submission validates filled-in answers against the form they were
// collected for. Each form is turned into an OpenAPI object schema and the
// answers are checked with kin-openapi.
package submission

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formbuilder/pkg/fields"
	"github.com/goliatone/go-formbuilder/pkg/model"
)

// FormLevel is the Issues key for problems not tied to one field.
const FormLevel = ""

// ErrInvalid is wrapped by the error Validate returns when answers fail.
var ErrInvalid = errors.New("submission: invalid answers")

// Issues maps field ids to validation messages. Messages not tied to a field
// are stored under FormLevel.
type Issues map[string][]string

// Error lists the issues in a stable order.
func (i Issues) Error() string {
	keys := make([]string, 0, len(i))
	for key := range i {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		label := key
		if label == FormLevel {
			label = "form"
		}
		parts = append(parts, label+": "+strings.Join(i[key], "; "))
	}
	return "submission: " + strings.Join(parts, ", ")
}

// Unwrap lets errors.Is match ErrInvalid.
func (i Issues) Unwrap() error {
	return ErrInvalid
}

// Schema builds the object schema answers to form must satisfy. Each field
// contributes the schema of its registered type; every field is optional and
// unknown answer keys are rejected. registry defaults to fields.Default.
func Schema(registry *fields.Registry, form model.Form) (*openapi3.Schema, error) {
	if registry == nil {
		registry = fields.Default()
	}
	schema := openapi3.NewObjectSchema()
	closed := false
	schema.AdditionalProperties = openapi3.AdditionalProperties{Has: &closed}

	for _, field := range form.Fields {
		def, err := registry.Resolve(field.Type)
		if err != nil {
			return nil, fmt.Errorf("submission: field %q: %w", field.ID, err)
		}
		property := def.Answer.Schema(field)
		if property == nil {
			return nil, fmt.Errorf("submission: type %q returned no schema for field %q", field.Type, field.ID)
		}
		property.Title = field.Label
		schema.WithProperty(field.ID, property)
	}
	return schema, nil
}

// Validate checks answers against form. It returns nil or Issues.
func Validate(registry *fields.Registry, form model.Form, answers map[string]any) error {
	schema, err := Schema(registry, form)
	if err != nil {
		return err
	}

	value := make(map[string]any, len(answers))
	for key, answer := range answers {
		value[key] = normalizeNumber(answer)
	}

	err = schema.VisitJSON(value, openapi3.MultiErrors())
	if err == nil {
		return nil
	}
	return collectIssues(err)
}

// FromValues converts a submitted HTML form into answers, decoding each
// input with its field type. Inputs that do not name a field and empty inputs
// are dropped. Inputs for unregistered types are kept raw; Validate reports
// the type.
func FromValues(registry *fields.Registry, form model.Form, values url.Values) map[string]any {
	if registry == nil {
		registry = fields.Default()
	}
	answers := make(map[string]any, len(form.Fields))
	for _, field := range form.Fields {
		raw := strings.TrimSpace(values.Get(field.ID))
		if raw == "" {
			continue
		}
		def, err := registry.Resolve(field.Type)
		if err != nil {
			answers[field.ID] = raw
			continue
		}
		answers[field.ID] = def.Answer.Decode(field, raw)
	}
	return answers
}

func collectIssues(err error) Issues {
	issues := make(Issues)
	var walk func(error)
	walk = func(err error) {
		var multi openapi3.MultiError
		if errors.As(err, &multi) {
			for _, inner := range multi {
				walk(inner)
			}
			return
		}
		var schemaErr *openapi3.SchemaError
		if errors.As(err, &schemaErr) {
			key := FormLevel
			if pointer := schemaErr.JSONPointer(); len(pointer) > 0 {
				key = pointer[0]
			}
			issues[key] = append(issues[key], schemaErr.Reason)
			return
		}
		issues[FormLevel] = append(issues[FormLevel], err.Error())
	}
	walk(err)
	return issues
}

func normalizeNumber(value any) any {
	switch v := value.(type) {
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case float32:
		return float64(v)
	default:
		return value
	}
}
