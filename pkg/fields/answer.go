package fields

import (
	"context"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formbuilder/pkg/model"
)

// Answerer describes the answer a field type collects from the person filling
// in a form.
type Answerer interface {
	// Schema returns the schema a single answer must satisfy.
	Schema(field model.Field) *openapi3.Schema
	// Decode converts a value posted by an HTML form. Values that do not
	// decode are returned unchanged so validation reports them against the
	// field.
	Decode(field model.Field, raw string) any
	// Prompt asks for the answer in a terminal. ok is false when the field
	// was left empty.
	Prompt(ctx context.Context, field model.Field, p Prompter) (value any, ok bool, err error)
}

// Prompter is the terminal surface an Answerer talks to.
type Prompter interface {
	Ask(ctx context.Context, q Question) (string, error)
	Choose(ctx context.Context, c Choice) (int, error)
	Warn(ctx context.Context, msg string) error
}

// Question is a free text prompt.
type Question struct {
	Message string
	Help    string
}

// Choice is a single-select prompt. The returned index must fall within
// Options.
type Choice struct {
	Message string
	Options []string
}

// askUntilValid repeats q until parse accepts the input or the input is
// blank. Rejected inputs are reported through p.Warn.
func askUntilValid(ctx context.Context, p Prompter, q Question, label string, parse func(string) (any, error)) (any, bool, error) {
	for {
		response, err := p.Ask(ctx, q)
		if err != nil {
			return nil, false, err
		}
		raw := strings.TrimSpace(response)
		if raw == "" {
			return nil, false, nil
		}
		value, err := parse(raw)
		if err != nil {
			if err := p.Warn(ctx, fmt.Sprintf("Invalid %s: %v", label, err)); err != nil {
				return nil, false, err
			}
			continue
		}
		return value, true, nil
	}
}

// PromptLabel is the message shown when prompting for field.
func PromptLabel(field model.Field) string {
	if field.Label != "" {
		return field.Label
	}
	return field.ID
}
