package fields

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formbuilder/pkg/model"
)

const (
	// LabelKey is the panel input carrying the field label. It is handled by
	// Submit for every type so configurators only deal with meta.
	LabelKey = "label"
	// MetaPrefix marks panel inputs that map onto meta keys.
	MetaPrefix = "meta."
)

// ErrInvalidPanel wraps panel submissions that cannot be turned into a patch.
var ErrInvalidPanel = errors.New("fields: invalid panel submission")

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

// Submit parses a submitted configuration panel for field and hands the
// resulting UpdateField to dispatch. The common label input is parsed here;
// everything else goes through the type's configurator. Nothing is
// dispatched when the submission changes nothing.
func Submit(def Definition, field model.Field, values url.Values, dispatch func(model.UpdateField) error) (model.UpdateField, error) {
	if err := def.check(field); err != nil {
		return model.UpdateField{}, err
	}
	if dispatch == nil {
		return model.UpdateField{}, errors.New("fields: dispatch is required")
	}

	patch, err := def.Configurator.ParsePanel(field, values)
	if err != nil {
		return model.UpdateField{}, err
	}
	if values.Has(LabelKey) {
		label := SanitizeText(values.Get(LabelKey))
		if label == "" {
			return model.UpdateField{}, fmt.Errorf("%w: label must not be empty", ErrInvalidPanel)
		}
		patch.Label = &label
	}

	msg := model.UpdateField{ID: field.ID, Patch: patch}
	if patch.Empty() {
		return msg, nil
	}
	if err := dispatch(msg); err != nil {
		return model.UpdateField{}, err
	}
	return msg, nil
}

// SanitizeText strips markup from user-supplied panel text and returns plain
// text suitable for templates, which escape on output.
func SanitizeText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(trimmed)))
}

// placeholderConfigurator edits meta.placeholder. Text and time fields share
// it; only the data-panel-type attribute differs.
type placeholderConfigurator struct{}

func (placeholderConfigurator) RenderPanel(buf *bytes.Buffer, field model.Field, data PanelData) error {
	key := "fields." + string(field.Type.Normalize()) + ".panel"
	return renderPanelTemplate(buf, field, data, key, "placeholder_panel", panelPayload(field))
}

func (placeholderConfigurator) ParsePanel(_ model.Field, values url.Values) (model.Patch, error) {
	var patch model.Patch
	if key := MetaPrefix + "placeholder"; values.Has(key) {
		patch.Meta = map[string]any{"placeholder": SanitizeText(values.Get(key))}
	}
	return patch, nil
}

// emptyConfigurator is used by types without configurable options.
type emptyConfigurator struct{}

func (emptyConfigurator) RenderPanel(*bytes.Buffer, model.Field, PanelData) error {
	return nil
}

func (emptyConfigurator) ParsePanel(model.Field, url.Values) (model.Patch, error) {
	return model.Patch{}, nil
}

// parseOptionalFloat reads a numeric panel input. A present but blank input
// yields a nil value, which removes the key when merged.
func parseOptionalFloat(values url.Values, name string, meta map[string]any) error {
	key := MetaPrefix + name
	if !values.Has(key) {
		return nil
	}
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		meta[name] = nil
		return nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("%w: %s must be a number", ErrInvalidPanel, name)
	}
	meta[name] = value
	return nil
}
