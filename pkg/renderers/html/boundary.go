package html

import (
	"bytes"
	"errors"
	"fmt"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formbuilder/pkg/fields"
	"github.com/goliatone/go-formbuilder/pkg/model"
)

// Reasons reported in the data-field-error attribute.
const (
	ReasonUnknownType  = "unknown-type"
	ReasonRenderFailed = "render-failed"
)

// FieldError records a field that could not be rendered.
type FieldError struct {
	FieldID string
	Type    model.FieldType
	Reason  string
	Err     error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("html renderer: field %q (%s): %v", e.FieldID, e.Type, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// renderControl resolves and renders one field. Panics inside a field
// renderer are contained here so one broken type cannot take down the form.
func (r *Renderer) renderControl(field model.Field, data fields.RenderData) (control string, fieldErr *FieldError) {
	def, err := r.registry.Resolve(field.Type)
	if err != nil {
		return "", &FieldError{FieldID: field.ID, Type: field.Type, Reason: ReasonUnknownType, Err: err}
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			control = ""
			fieldErr = &FieldError{
				FieldID: field.ID,
				Type:    field.Type,
				Reason:  ReasonRenderFailed,
				Err:     fmt.Errorf("panic: %v", recovered),
			}
		}
	}()

	var buf bytes.Buffer
	if err := def.Render(&buf, field, data); err != nil {
		return "", &FieldError{FieldID: field.ID, Type: field.Type, Reason: ReasonRenderFailed, Err: err}
	}
	return buf.String(), nil
}

func (r *Renderer) renderFieldError(field model.Field, fieldErr *FieldError, cfg *theme.RendererConfig) (string, error) {
	message := fmt.Sprintf("Field type %q could not be rendered.", field.Type)
	if errors.Is(fieldErr.Err, fields.ErrNotFound) {
		message = fmt.Sprintf("Field type %q is not supported.", field.Type)
	}
	payload := map[string]any{
		"field_id":   field.ID,
		"field_type": string(field.Type),
		"reason":     fieldErr.Reason,
		"message":    message,
	}
	var buf bytes.Buffer
	name := partialFor(cfg, fieldErrorPartial)
	if _, err := r.templates.RenderTemplate(name, payload, &buf); err != nil {
		return "", fmt.Errorf("html renderer: render field error %q: %w", field.ID, err)
	}
	return buf.String(), nil
}
