package fields

import (
	"context"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formbuilder/pkg/model"
)

// Text is a single-line free text input.
func Text() Definition {
	return Definition{
		Type: model.FieldTypeText,
		Defaults: func() model.Props {
			return model.Props{
				Label: "文本",
				Meta:  map[string]any{"placeholder": ""},
			}
		},
		Renderer:     templateRenderer("fields.text", "text", nil),
		Configurator: placeholderConfigurator{},
		Answer:       textAnswer{},
	}
}

type textAnswer struct{}

func (textAnswer) Schema(model.Field) *openapi3.Schema {
	return openapi3.NewStringSchema()
}

func (textAnswer) Decode(_ model.Field, raw string) any {
	return raw
}

func (textAnswer) Prompt(ctx context.Context, field model.Field, p Prompter) (any, bool, error) {
	response, err := p.Ask(ctx, Question{Message: PromptLabel(field), Help: field.Placeholder()})
	if err != nil {
		return nil, false, err
	}
	trimmed := strings.TrimSpace(response)
	return trimmed, trimmed != "", nil
}
