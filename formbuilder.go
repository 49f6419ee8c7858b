// Package formbuilder is the convenience entry point to the form builder:
// field type registry, form documents and the HTML renderer.
package formbuilder

import (
	"context"
	"io/fs"

	"github.com/goliatone/go-formbuilder/pkg/document"
	"github.com/goliatone/go-formbuilder/pkg/fields"
	"github.com/goliatone/go-formbuilder/pkg/loader"
	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/render"
	"github.com/goliatone/go-formbuilder/pkg/renderers/html"
)

// Form is a form document.
type Form = model.Form

// Field is one configured field of a form.
type Field = model.Field

// UpdateField is the message a configuration panel dispatches.
type UpdateField = model.UpdateField

// RenderOptions carries per-request rendering choices such as mode, errors
// and hidden inputs.
type RenderOptions = render.RenderOptions

// Definition describes a pluggable field type.
type Definition = fields.Definition

// Answerer validates, decodes and prompts for the answers of one field type.
type Answerer = fields.Answerer

// DefaultRegistry returns the shared registry holding the built-in types.
func DefaultRegistry() *fields.Registry {
	return fields.Default()
}

// NewRegistry returns an empty registry for callers assembling their own set
// of field types.
func NewRegistry() *fields.Registry {
	return fields.New()
}

// NewService wires a document service over store. A nil store keeps forms
// in memory.
func NewService(store document.Store, options ...document.Option) (*document.Service, error) {
	if store == nil {
		store = document.NewMemoryStore()
	}
	return document.NewService(store, options...)
}

// RenderHTML renders form with a renderer built from options. It is the
// simplest path for callers that just want markup.
func RenderHTML(ctx context.Context, form Form, opts RenderOptions, options ...html.Option) ([]byte, error) {
	renderer, err := html.New(options...)
	if err != nil {
		return nil, err
	}
	return renderer.Render(ctx, form, opts)
}

// LoadForms reads every YAML or JSON definition under dir.
func LoadForms(dir string) ([]Form, error) {
	set, err := loader.LoadDir(dir, fields.Default())
	if err != nil {
		return nil, err
	}
	return set.Forms, nil
}

// EmbeddedTemplates exposes the built-in form templates so callers can copy
// or extend them.
func EmbeddedTemplates() fs.FS {
	return html.TemplatesFS()
}

// AssetsFS exposes the stylesheet the HTML renderer links.
//
// Typical mount:
//
//	mux.Handle("/assets/",
//	  http.StripPrefix("/assets/",
//	    http.FileServerFS(formbuilder.AssetsFS()),
//	  ),
//	)
func AssetsFS() fs.FS {
	return html.AssetsFS()
}
