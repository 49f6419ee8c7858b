package render

import (
	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formbuilder/pkg/model"
)

// RenderOptions describe per-request data that renderers use to customise
// their output without mutating the stored form.
type RenderOptions struct {
	// Mode selects the interaction state applied to every field. Empty means
	// fill.
	Mode model.FormMode
	// Theme is handed to each field renderer as-is. Nil renders the built-in
	// templates.
	Theme *theme.RendererConfig
	// TabIndexStart numbers interactive controls from this value when it is
	// positive. Disabled controls are skipped.
	TabIndexStart int
	// Hidden inputs emitted alongside the fields, e.g. a CSRF token or the
	// form version for optimistic locking.
	Hidden map[string]string
	// Action is the URL the form posts to. Empty posts back to the page.
	Action string
	// SubmitLabel overrides the submit button text shown in fill mode.
	SubmitLabel string
	// Errors surfaces server-side validation feedback keyed by field id. Use
	// MapErrorPayload to normalise raw validator paths.
	Errors map[string][]string
	// FormErrors are rendered above the fields.
	FormErrors []string
	// Locale, Translator and OnMissing drive LocalizeForm.
	Locale     string
	Translator Translator
	OnMissing  MissingTranslationHandler
	// Decorators run against a copy of the form before rendering.
	Decorators []model.Decorator
}

// State returns the interaction state implied by Mode.
func (o RenderOptions) State() model.FieldState {
	return o.Mode.State()
}

// Prepare clones form, runs the configured decorators and localizes labels.
// Renderers call it once before walking the fields.
func (o RenderOptions) Prepare(form model.Form) (model.Form, error) {
	prepared := form.Clone()
	for _, decorator := range o.Decorators {
		if decorator == nil {
			continue
		}
		if err := decorator.Decorate(&prepared); err != nil {
			return model.Form{}, err
		}
	}
	LocalizeForm(&prepared, o)
	return prepared, nil
}
