package fields

import (
	"context"
	"errors"
	"time"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formbuilder/pkg/model"
)

const (
	// TimeLayout is the accepted format for time answers.
	TimeLayout = "15:04"
	// TimePattern is the pattern stored time answers must match.
	TimePattern = `^\d{2}:\d{2}$`
)

// Time is a time-of-day input. The rendered control is presentation only and
// binds no value; collecting answers is left to the runtime renderer.
func Time() Definition {
	return Definition{
		Type: model.FieldTypeTime,
		Defaults: func() model.Props {
			return model.Props{
				Label: "时间",
				Meta:  map[string]any{"placeholder": ""},
			}
		},
		Renderer:     templateRenderer("fields.time", "time", nil),
		Configurator: placeholderConfigurator{},
		Answer:       timeAnswer{},
	}
}

type timeAnswer struct{}

func (timeAnswer) Schema(model.Field) *openapi3.Schema {
	return openapi3.NewStringSchema().WithPattern(TimePattern)
}

func (timeAnswer) Decode(_ model.Field, raw string) any {
	return raw
}

func (timeAnswer) Prompt(ctx context.Context, field model.Field, p Prompter) (any, bool, error) {
	help := field.Placeholder()
	if help == "" {
		help = "HH:MM"
	}
	q := Question{Message: PromptLabel(field), Help: help}
	return askUntilValid(ctx, p, q, PromptLabel(field), func(raw string) (any, error) {
		parsed, err := time.Parse(TimeLayout, raw)
		if err != nil {
			return nil, errors.New("expected HH:MM")
		}
		return parsed.Format(TimeLayout), nil
	})
}
