package fields

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formbuilder/pkg/model"
)

// Number is a numeric input. Its panel edits the placeholder and the optional
// min, max and step bounds.
func Number() Definition {
	return Definition{
		Type: model.FieldTypeNumber,
		Defaults: func() model.Props {
			return model.Props{Label: "数字"}
		},
		Renderer:     templateRenderer("fields.number", "number", numberBounds),
		Configurator: numberConfigurator{},
		Answer:       numberAnswer{},
	}
}

func numberBounds(field model.Field, payload map[string]any) {
	payload["min"] = formatNumber(field.Meta, "min")
	payload["max"] = formatNumber(field.Meta, "max")
	payload["step"] = formatNumber(field.Meta, "step")
}

type numberConfigurator struct{}

func (numberConfigurator) RenderPanel(buf *bytes.Buffer, field model.Field, data PanelData) error {
	payload := panelPayload(field)
	numberBounds(field, payload)
	return renderPanelTemplate(buf, field, data, "fields.number.panel", "number_panel", payload)
}

func (numberConfigurator) ParsePanel(field model.Field, values url.Values) (model.Patch, error) {
	patch, _ := placeholderConfigurator{}.ParsePanel(field, values)
	meta := patch.Meta
	if meta == nil {
		meta = make(map[string]any)
	}
	for _, name := range []string{"min", "max", "step"} {
		if err := parseOptionalFloat(values, name, meta); err != nil {
			return model.Patch{}, err
		}
	}

	low, hasLow := meta["min"].(float64)
	if !hasLow && !values.Has(MetaPrefix+"min") {
		low, hasLow = model.MetaFloat(field.Meta, "min")
	}
	high, hasHigh := meta["max"].(float64)
	if !hasHigh && !values.Has(MetaPrefix+"max") {
		high, hasHigh = model.MetaFloat(field.Meta, "max")
	}
	if hasLow && hasHigh && low > high {
		return model.Patch{}, fmt.Errorf("%w: min must not exceed max", ErrInvalidPanel)
	}
	if step, ok := meta["step"].(float64); ok && step <= 0 {
		return model.Patch{}, fmt.Errorf("%w: step must be positive", ErrInvalidPanel)
	}

	if len(meta) > 0 {
		patch.Meta = meta
	}
	return patch, nil
}

type numberAnswer struct{}

func (numberAnswer) Schema(field model.Field) *openapi3.Schema {
	schema := openapi3.NewFloat64Schema()
	if low, ok := model.MetaFloat(field.Meta, "min"); ok {
		schema.WithMin(low)
	}
	if high, ok := model.MetaFloat(field.Meta, "max"); ok {
		schema.WithMax(high)
	}
	return schema
}

func (numberAnswer) Decode(_ model.Field, raw string) any {
	if value, err := ParseNumber(raw); err == nil {
		return value
	}
	return raw
}

func (numberAnswer) Prompt(ctx context.Context, field model.Field, p Prompter) (any, bool, error) {
	q := Question{Message: PromptLabel(field), Help: numberHelp(field)}
	return askUntilValid(ctx, p, q, PromptLabel(field), func(raw string) (any, error) {
		value, err := ParseNumber(raw)
		if err != nil {
			return nil, err
		}
		if low, ok := model.MetaFloat(field.Meta, "min"); ok && value < low {
			return nil, fmt.Errorf("must be at least %s", strconv.FormatFloat(low, 'f', -1, 64))
		}
		if high, ok := model.MetaFloat(field.Meta, "max"); ok && value > high {
			return nil, fmt.Errorf("must be at most %s", strconv.FormatFloat(high, 'f', -1, 64))
		}
		return value, nil
	})
}

// ParseNumber parses a finite decimal number. NaN and infinities are
// rejected.
func ParseNumber(raw string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, errors.New("not a number")
	}
	return value, nil
}

func numberHelp(field model.Field) string {
	parts := make([]string, 0, 3)
	if placeholder := field.Placeholder(); placeholder != "" {
		parts = append(parts, placeholder)
	}
	if low, ok := model.MetaFloat(field.Meta, "min"); ok {
		parts = append(parts, "min "+strconv.FormatFloat(low, 'f', -1, 64))
	}
	if high, ok := model.MetaFloat(field.Meta, "max"); ok {
		parts = append(parts, "max "+strconv.FormatFloat(high, 'f', -1, 64))
	}
	return strings.Join(parts, ", ")
}
