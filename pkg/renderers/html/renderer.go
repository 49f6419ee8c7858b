package html

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formbuilder/pkg/fields"
	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/render"
	rendertemplate "github.com/goliatone/go-formbuilder/pkg/render/template"
)

const (
	formPartial       = "forms.form"
	fieldPartial      = "forms.field"
	fieldErrorPartial = "forms.field_error"
	panelPartial      = "forms.panel"

	stylesheetAssetKey = "formbuilder.stylesheet"
	defaultSubmitLabel = "提交"
)

// Option configures a Renderer.
type Option func(*config)

type config struct {
	templateFS       []fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	registry         *fields.Registry
	assetPrefix      string
}

// WithTemplatesFS layers an alternate template bundle over the built-in one.
// Templates found in files win; anything missing falls through.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		if files != nil {
			cfg.templateFS = append(cfg.templateFS, files)
		}
	}
}

// WithTemplatesDir loads override templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = append(cfg.templateFS, os.DirFS(path))
	}
}

// WithTemplateRenderer injects a custom template renderer implementation. It
// must be able to resolve both the form templates and the field templates.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithRegistry sets the field type registry. Defaults to fields.Default().
func WithRegistry(registry *fields.Registry) Option {
	return func(cfg *config) {
		if registry != nil {
			cfg.registry = registry
		}
	}
}

// WithAssetURLPrefix links the embedded stylesheet from prefix. Leave empty
// when the host page already includes it.
func WithAssetURLPrefix(prefix string) Option {
	return func(cfg *config) {
		cfg.assetPrefix = strings.TrimRight(strings.TrimSpace(prefix), "/")
	}
}

// Renderer renders forms for the creator canvas and the fill-out runtime.
type Renderer struct {
	templates   rendertemplate.TemplateRenderer
	registry    *fields.Registry
	assetPrefix string
}

// New constructs the renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	var cfg config
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.registry == nil {
		cfg.registry = fields.Default()
	}

	templates := cfg.templateRenderer
	if templates == nil {
		sources := append(cfg.templateFS, TemplatesFS())
		engine, err := fields.NewTemplateEngine(sources...)
		if err != nil {
			return nil, fmt.Errorf("html renderer: configure template renderer: %w", err)
		}
		templates = engine
	}

	return &Renderer{
		templates:   templates,
		registry:    cfg.registry,
		assetPrefix: cfg.assetPrefix,
	}, nil
}

func (r *Renderer) Name() string {
	return "html"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render implements render.Renderer. Field failures do not fail the call;
// use RenderForm to inspect them.
func (r *Renderer) Render(ctx context.Context, form model.Form, opts render.RenderOptions) ([]byte, error) {
	result, err := r.RenderForm(ctx, form, opts)
	if err != nil {
		return nil, err
	}
	return result.HTML, nil
}

// Result is the outcome of RenderForm.
type Result struct {
	HTML []byte
	// Errors lists the fields replaced by an inline error fragment.
	Errors      []*FieldError
	Stylesheets []string
	Scripts     []fields.Script
}

// RenderForm renders the whole form. Each field is rendered in isolation: a
// field whose type is unknown or whose renderer fails is replaced by an error
// fragment carrying data-field-error and recorded in Result.Errors, and the
// remaining fields still render.
func (r *Renderer) RenderForm(ctx context.Context, form model.Form, opts render.RenderOptions) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if r.templates == nil {
		return Result{}, fmt.Errorf("html renderer: template renderer is nil")
	}
	if _, ok := model.ParseFormMode(string(opts.Mode)); !ok {
		return Result{}, fmt.Errorf("html renderer: unknown mode %q", opts.Mode)
	}

	prepared, err := opts.Prepare(form)
	if err != nil {
		return Result{}, fmt.Errorf("html renderer: decorate form: %w", err)
	}

	mode := opts.Mode
	if mode == "" {
		mode = model.ModeFill
	}
	formState := mode.State()
	tabIndex := opts.TabIndexStart

	var result Result
	markup := make([]string, 0, len(prepared.Fields))
	used := make([]model.FieldType, 0, len(prepared.Fields))

	for _, field := range prepared.Fields {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		state := field.EffectiveState(formState)
		var index *int
		if tabIndex > 0 && state != model.StateDisabled {
			current := tabIndex
			index = &current
			tabIndex++
		}

		control, fieldErr := r.renderControl(field, fields.RenderData{
			Template: r.templates,
			State:    state,
			TabIndex: index,
			Theme:    opts.Theme,
		})
		if fieldErr != nil {
			result.Errors = append(result.Errors, fieldErr)
			fragment, err := r.renderFieldError(field, fieldErr, opts.Theme)
			if err != nil {
				return Result{}, err
			}
			markup = append(markup, fragment)
			continue
		}

		used = append(used, field.Type)
		wrapped, err := r.wrapField(field, mode, control, opts)
		if err != nil {
			return Result{}, err
		}
		markup = append(markup, wrapped)
	}

	result.Stylesheets, result.Scripts = r.assets(used, opts.Theme)

	submit := ""
	if mode == model.ModeFill {
		submit = strings.TrimSpace(opts.SubmitLabel)
		if submit == "" {
			submit = defaultSubmitLabel
		}
	}

	payload := map[string]any{
		"form_id":     prepared.ID,
		"name":        prepared.Name,
		"description": prepared.Description,
		"version":     strconv.Itoa(prepared.Version),
		"mode":        string(mode),
		"action":      opts.Action,
		"submit":      submit,
		"form_errors": opts.FormErrors,
		"hidden":      hiddenPayload(opts.Hidden),
		"fields":      markup,
		"stylesheets": result.Stylesheets,
		"scripts":     scriptPayload(result.Scripts),
		"css_vars":    render.CSSVarsStyle(opts.Theme),
	}

	var buf bytes.Buffer
	name := partialFor(opts.Theme, formPartial)
	if _, err := r.templates.RenderTemplate(name, payload, &buf); err != nil {
		return Result{}, fmt.Errorf("html renderer: render template %q: %w", name, err)
	}
	result.HTML = buf.Bytes()
	return result, nil
}

func (r *Renderer) wrapField(field model.Field, mode model.FormMode, control string, opts render.RenderOptions) (string, error) {
	payload := map[string]any{
		"field_id":   field.ID,
		"field_type": string(field.Type.Normalize()),
		"control_id": fields.ControlID(field.ID),
		"label":      field.Label,
		"mode":       string(mode),
		"control":    control,
		"messages":   opts.Errors[field.ID],
	}
	var buf bytes.Buffer
	name := partialFor(opts.Theme, fieldPartial)
	if _, err := r.templates.RenderTemplate(name, payload, &buf); err != nil {
		return "", fmt.Errorf("html renderer: render field chrome %q: %w", field.ID, err)
	}
	return buf.String(), nil
}

func (r *Renderer) assets(used []model.FieldType, cfg *theme.RendererConfig) ([]string, []fields.Script) {
	var stylesheets []string
	if r.assetPrefix != "" {
		stylesheets = append(stylesheets, r.assetPrefix+"/"+StylesheetName)
	}
	if cfg != nil && cfg.AssetURL != nil {
		if href := cfg.AssetURL(stylesheetAssetKey); href != "" {
			stylesheets = append(stylesheets, href)
		}
	}
	typeStyles, scripts := r.registry.Assets(used)
	for _, href := range typeStyles {
		if !slices.Contains(stylesheets, href) {
			stylesheets = append(stylesheets, href)
		}
	}
	return stylesheets, scripts
}

func partialFor(cfg *theme.RendererConfig, key string) string {
	if cfg != nil {
		if candidate := strings.TrimSpace(cfg.Partials[key]); candidate != "" {
			return candidate
		}
	}
	return render.DefaultThemeFallbacks()[key]
}

func hiddenPayload(hidden map[string]string) []map[string]string {
	sorted := render.SortedHiddenFields(hidden)
	if len(sorted) == 0 {
		return nil
	}
	out := make([]map[string]string, 0, len(sorted))
	for _, field := range sorted {
		out = append(out, map[string]string{"name": field.Name, "value": field.Value})
	}
	return out
}

func scriptPayload(scripts []fields.Script) []map[string]any {
	if len(scripts) == 0 {
		return nil
	}
	out := make([]map[string]any, 0, len(scripts))
	for _, script := range scripts {
		out = append(out, map[string]any{
			"src":    script.Src,
			"inline": script.Inline,
			"module": script.Module,
			"defer":  script.Defer,
		})
	}
	return out
}
