package fields

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/render/template/gotemplate"
)

//go:embed templates/fields/*.tmpl
var embeddedTemplates embed.FS

const (
	templateExt    = ".tmpl"
	templatePrefix = "fields/"

	controlClass = "fb-control"
	mutedClass   = "fb-muted"
)

// TemplatesFS exposes the built-in field templates rooted so that paths read
// "fields/<name>.tmpl". Form renderers mount it next to their own templates.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return embeddedTemplates
	}
	return sub
}

// NewTemplateEngine builds a template engine serving the built-in field
// templates plus any extra sources supplied by the caller.
func NewTemplateEngine(extra ...fs.FS) (*gotemplate.Engine, error) {
	options := []gotemplate.Option{gotemplate.WithExtension(templateExt)}
	for _, files := range extra {
		options = append(options, gotemplate.WithFS(files))
	}
	options = append(options, gotemplate.WithFS(TemplatesFS()))
	return gotemplate.New(options...)
}

// ControlID returns the DOM id used for a field's control.
func ControlID(fieldID string) string {
	trimmed := strings.TrimSpace(fieldID)
	if trimmed == "" {
		return ""
	}
	return "fb-" + trimmed
}

// templateRenderer renders a display control from a template, honouring theme
// partial overrides stored under partialKey.
func templateRenderer(partialKey, templateName string, extend func(model.Field, map[string]any)) Renderer {
	return func(buf *bytes.Buffer, field model.Field, data RenderData) error {
		if data.Template == nil {
			return fmt.Errorf("fields: template renderer not configured for %q", templateName)
		}
		payload := controlPayload(field, data)
		if extend != nil {
			extend(field, payload)
		}
		name := resolvePartial(data.Theme, partialKey, templatePrefix+templateName+templateExt)
		if _, err := data.Template.RenderTemplate(name, payload, buf); err != nil {
			return fmt.Errorf("fields: render template %q: %w", name, err)
		}
		return nil
	}
}

func controlPayload(field model.Field, data RenderData) map[string]any {
	state := data.State
	if !state.Valid() {
		state = model.StateNormal
	}
	disabled := state == model.StateDisabled
	classes := []string{controlClass, controlClass + "-" + string(field.Type.Normalize())}
	if disabled {
		classes = append(classes, mutedClass)
	}
	tabindex := ""
	if data.TabIndex != nil && !disabled {
		tabindex = strconv.Itoa(*data.TabIndex)
	}
	return map[string]any{
		"field_id":    field.ID,
		"control_id":  ControlID(field.ID),
		"label":       field.Label,
		"placeholder": field.Placeholder(),
		"state":       string(state),
		"readonly":    state == model.StateReadonly,
		"disabled":    disabled,
		"tabindex":    tabindex,
		"classes":     strings.Join(classes, " "),
	}
}

func panelPayload(field model.Field) map[string]any {
	return map[string]any{
		"field_id":    field.ID,
		"field_type":  string(field.Type.Normalize()),
		"control_id":  ControlID(field.ID),
		"label":       field.Label,
		"placeholder": field.Placeholder(),
	}
}

func renderPanelTemplate(buf *bytes.Buffer, field model.Field, data PanelData, partialKey, templateName string, payload map[string]any) error {
	if data.Template == nil {
		return fmt.Errorf("fields: template renderer not configured for %q", templateName)
	}
	name := resolvePartial(data.Theme, partialKey, templatePrefix+templateName+templateExt)
	if _, err := data.Template.RenderTemplate(name, payload, buf); err != nil {
		return fmt.Errorf("fields: render panel %q for field %q: %w", name, field.ID, err)
	}
	return nil
}

func resolvePartial(cfg *theme.RendererConfig, key, fallback string) string {
	if cfg == nil || cfg.Partials == nil {
		return fallback
	}
	if candidate := strings.TrimSpace(cfg.Partials[key]); candidate != "" {
		return candidate
	}
	return fallback
}

func formatNumber(meta map[string]any, key string) string {
	value, ok := model.MetaFloat(meta, key)
	if !ok {
		return ""
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
