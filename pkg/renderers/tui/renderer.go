package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/goliatone/go-formbuilder/pkg/fields"
	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/render"
)

// Renderer implements render.Renderer for terminal-driven sessions. It walks
// the form, prompts for every interactive field and serializes the answers
// keyed by field id.
type Renderer struct {
	driver            PromptDriver
	out               io.Writer
	registry          *fields.Registry
	outputFormat      OutputFormat
	submitTransformer SubmitTransformer
	confirmSubmit     bool
	theme             Theme
}

// New constructs a TUI renderer with defaults (survey driver, JSON output).
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{
		outputFormat: OutputFormatJSON,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.driver == nil {
		r.driver = newSurveyDriver(r.out)
	}
	if r.registry == nil {
		r.registry = fields.Default()
	}
	return r, nil
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return "tui"
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain"
	default:
		return "application/json"
	}
}

// Render prompts for each field and returns the serialized answers. Fields
// that are read-only or disabled under opts.Mode are shown but not prompted.
// Fields of unknown type are reported and skipped.
func (r *Renderer) Render(ctx context.Context, form model.Form, opts render.RenderOptions) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.driver == nil {
		return nil, errors.New("tui: prompt driver is nil")
	}

	prepared, err := opts.Prepare(form)
	if err != nil {
		return nil, fmt.Errorf("tui: decorate form: %w", err)
	}
	if name := strings.TrimSpace(prepared.Name); name != "" {
		if err := r.info(ctx, name); err != nil {
			return nil, err
		}
	}

	formState := opts.State()
	answers := make(map[string]any, len(prepared.Fields))
	for _, field := range prepared.Fields {
		def, err := r.registry.Resolve(field.Type)
		if err != nil {
			if err := r.warn(ctx, fmt.Sprintf("%s: field type %q is not supported, skipping", fields.PromptLabel(field), field.Type)); err != nil {
				return nil, err
			}
			continue
		}
		if state := field.EffectiveState(formState); state != model.StateNormal {
			if err := r.info(ctx, fmt.Sprintf("%s (%s)", fields.PromptLabel(field), strings.ToLower(string(state)))); err != nil {
				return nil, err
			}
			continue
		}
		if err := r.promptField(ctx, def, field, answers); err != nil {
			return nil, err
		}
	}

	if r.confirmSubmit {
		ok, err := r.driver.Confirm(ctx, ConfirmConfig{Message: "提交?", Default: true})
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrDeclined
		}
	}

	if r.submitTransformer != nil {
		answers, err = r.submitTransformer(answers)
		if err != nil {
			return nil, fmt.Errorf("tui: submit transformer: %w", err)
		}
	}
	return r.serialize(answers)
}

func (r *Renderer) promptField(ctx context.Context, def fields.Definition, field model.Field, answers map[string]any) error {
	value, ok, err := def.Answer.Prompt(ctx, field, prompter{r})
	if err != nil {
		return err
	}
	if ok {
		answers[field.ID] = value
	}
	return nil
}

// prompter adapts the renderer's driver to fields.Prompter.
type prompter struct {
	r *Renderer
}

func (p prompter) Ask(ctx context.Context, q fields.Question) (string, error) {
	return p.r.driver.Input(ctx, InputConfig{Message: q.Message, Help: q.Help})
}

func (p prompter) Choose(ctx context.Context, c fields.Choice) (int, error) {
	return p.r.driver.Select(ctx, SelectConfig{
		Message:      c.Message,
		Options:      c.Options,
		DefaultIndex: -1,
	})
}

func (p prompter) Warn(ctx context.Context, msg string) error {
	return p.r.warn(ctx, msg)
}

func (r *Renderer) info(ctx context.Context, msg string) error {
	return r.driver.Info(ctx, r.theme.InfoPrefix+msg)
}

func (r *Renderer) warn(ctx context.Context, msg string) error {
	return r.driver.Info(ctx, r.theme.ErrorPrefix+msg)
}

func (r *Renderer) serialize(values map[string]any) ([]byte, error) {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return []byte(flattenForm(values)), nil
	case OutputFormatPrettyText:
		return []byte(prettyPrint(values)), nil
	default:
		return json.Marshal(values)
	}
}

func flattenForm(values map[string]any) string {
	flattened := url.Values{}
	for key, value := range values {
		flattened.Set(key, fmt.Sprint(value))
	}
	return flattened.Encode()
}

func prettyPrint(values map[string]any) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		fmt.Fprintf(&b, "%s=%v\n", key, values[key])
	}
	return b.String()
}
