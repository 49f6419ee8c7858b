package html

import (
	"bytes"
	"context"
	"fmt"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formbuilder/pkg/fields"
	"github.com/goliatone/go-formbuilder/pkg/model"
)

// PanelOptions configure RenderPanel.
type PanelOptions struct {
	// Action is the URL the panel form posts to.
	Action string
	Theme  *theme.RendererConfig
	Hidden map[string]string
}

// RenderPanel renders the configuration panel for one field of form: a common
// label section followed by the type's own section. Unknown field ids return
// model.ErrFieldNotFound and unknown types fields.ErrNotFound.
func (r *Renderer) RenderPanel(ctx context.Context, form model.Form, fieldID string, opts PanelOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	field, ok := form.Field(fieldID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", model.ErrFieldNotFound, fieldID)
	}
	def, err := r.registry.Resolve(field.Type)
	if err != nil {
		return nil, err
	}

	var section bytes.Buffer
	if err := def.RenderPanel(&section, field, fields.PanelData{Template: r.templates, Theme: opts.Theme}); err != nil {
		return nil, fmt.Errorf("html renderer: render panel section: %w", err)
	}

	payload := map[string]any{
		"field_id":   field.ID,
		"field_type": string(field.Type.Normalize()),
		"control_id": fields.ControlID(field.ID),
		"label":      field.Label,
		"action":     opts.Action,
		"hidden":     hiddenPayload(opts.Hidden),
		"section":    section.String(),
	}
	var buf bytes.Buffer
	name := partialFor(opts.Theme, panelPartial)
	if _, err := r.templates.RenderTemplate(name, payload, &buf); err != nil {
		return nil, fmt.Errorf("html renderer: render template %q: %w", name, err)
	}
	return buf.Bytes(), nil
}
