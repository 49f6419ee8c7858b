package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-formbuilder/pkg/fields"
	"github.com/goliatone/go-formbuilder/pkg/render"
	"github.com/goliatone/go-formbuilder/pkg/renderers/html"
	"github.com/goliatone/go-formbuilder/pkg/renderers/tui"
)

// rendererSetup collects the knobs the CLI commands pass to the renderers.
type rendererSetup struct {
	templatesDir string
	prompts      io.Writer
	tuiOptions   []tui.Option
}

// newRenderers registers every output the CLI offers under its name.
func newRenderers(setup rendererSetup) (*render.Registry, error) {
	registry := render.NewRegistry()

	htmlRenderer, err := html.New(html.WithRegistry(fields.Default()), html.WithTemplatesDir(setup.templatesDir))
	if err != nil {
		return nil, err
	}
	if err := registry.Register(htmlRenderer); err != nil {
		return nil, err
	}

	options := append([]tui.Option{tui.WithRegistry(fields.Default()), tui.WithOutput(setup.prompts)}, setup.tuiOptions...)
	tuiRenderer, err := tui.New(options...)
	if err != nil {
		return nil, err
	}
	if err := registry.Register(tuiRenderer); err != nil {
		return nil, err
	}
	return registry, nil
}

func pickRenderer(registry *render.Registry, name string) (render.Renderer, error) {
	renderer, err := registry.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown renderer %q (valid: %s)", name, strings.Join(registry.List(), ", "))
	}
	return renderer, nil
}
