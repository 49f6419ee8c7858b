package fields

import (
	"bytes"
	"net/url"
	"slices"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formbuilder/pkg/model"
	rendertemplate "github.com/goliatone/go-formbuilder/pkg/render/template"
)

// DefaultsFunc produces the properties of a newly created field. The caller
// assigns ID and Type.
type DefaultsFunc func() model.Props

// Renderer writes the display control for field into buf. Renderers hold no
// state of their own; everything they need arrives through field and data.
type Renderer func(buf *bytes.Buffer, field model.Field, data RenderData) error

// RenderData carries the per-call inputs of a display renderer.
type RenderData struct {
	Template rendertemplate.TemplateRenderer
	State    model.FieldState
	// TabIndex is emitted on the control when set. Disabled controls are
	// always removed from the tab order.
	TabIndex *int
	// Theme is passed explicitly rather than read from ambient state. Its
	// partials can replace a field template under the key "fields.<type>".
	Theme *theme.RendererConfig
}

// PanelData carries the per-call inputs of a configuration panel.
type PanelData struct {
	Template rendertemplate.TemplateRenderer
	Theme    *theme.RendererConfig
}

// Configurator renders the type-specific part of a field's configuration
// panel and converts a submitted panel into a partial update. Configurators
// never mutate the field; Submit forwards their patch to the document owner.
type Configurator interface {
	RenderPanel(buf *bytes.Buffer, field model.Field, data PanelData) error
	ParsePanel(field model.Field, values url.Values) (model.Patch, error)
}

// Script describes a JavaScript dependency a field type needs emitted once per
// rendered form.
type Script struct {
	Src    string
	Inline string
	Module bool
	Defer  bool
}

// Definition bundles everything the registry knows about one field type.
type Definition struct {
	Type         model.FieldType
	Defaults     DefaultsFunc
	Renderer     Renderer
	Configurator Configurator
	// Answer validates, decodes and prompts for the values people submit.
	Answer       Answerer
	Stylesheets  []string
	Scripts      []Script
}

// NewField builds a field of this type with the given id, seeded from the
// type's defaults.
func (d Definition) NewField(id string) model.Field {
	props := d.Defaults()
	return model.Field{
		ID:    id,
		Type:  d.Type,
		Label: props.Label,
		Meta:  model.CloneMeta(props.Meta),
	}
}

// Render is a convenience wrapper that checks the field belongs to this
// definition before invoking the renderer.
func (d Definition) Render(buf *bytes.Buffer, field model.Field, data RenderData) error {
	if err := d.check(field); err != nil {
		return err
	}
	if !data.State.Valid() {
		data.State = model.StateNormal
	}
	return d.Renderer(buf, field, data)
}

// RenderPanel checks ownership and invokes the configurator.
func (d Definition) RenderPanel(buf *bytes.Buffer, field model.Field, data PanelData) error {
	if err := d.check(field); err != nil {
		return err
	}
	return d.Configurator.RenderPanel(buf, field, data)
}

func (d Definition) check(field model.Field) error {
	if field.Type.Normalize() != d.Type {
		return &TypeMismatchError{Want: d.Type, Got: field.Type, FieldID: field.ID}
	}
	return nil
}

func cloneDefinition(src Definition) Definition {
	out := src
	out.Stylesheets = slices.Clone(src.Stylesheets)
	out.Scripts = slices.Clone(src.Scripts)
	return out
}
