package model

import (
	"strings"
	"time"
)

// FieldType tags the kind of input a field represents. The set is closed over
// the binary: new types are added by registering them at init time.
type FieldType string

const (
	FieldTypeText   FieldType = "text"
	FieldTypeNumber FieldType = "number"
	FieldTypeRating FieldType = "rating"
	FieldTypeTime   FieldType = "time"
)

// Normalize trims surrounding whitespace and lowercases the tag.
func (t FieldType) Normalize() FieldType {
	return FieldType(strings.ToLower(strings.TrimSpace(string(t))))
}

// FieldState controls how interactive a rendered control is.
type FieldState string

const (
	StateNormal   FieldState = "NORMAL"
	StateReadonly FieldState = "READONLY"
	StateDisabled FieldState = "DISABLED"
)

// Valid reports whether the state is one of the known values.
func (s FieldState) Valid() bool {
	switch s {
	case StateNormal, StateReadonly, StateDisabled:
		return true
	default:
		return false
	}
}

// ParseFieldState maps a case-insensitive name onto a FieldState.
func ParseFieldState(raw string) (FieldState, bool) {
	state := FieldState(strings.ToUpper(strings.TrimSpace(raw)))
	if !state.Valid() {
		return "", false
	}
	return state, true
}

// FormMode describes why a form is being rendered.
type FormMode string

const (
	// ModeEdit is the creator canvas: controls are visible but inert.
	ModeEdit FormMode = "edit"
	// ModeFill is the runtime view used to fill a form in.
	ModeFill FormMode = "fill"
	// ModePreview shows the form as a muted, non-interactive preview.
	ModePreview FormMode = "preview"
)

// ParseFormMode maps a case-insensitive name onto a FormMode. Empty input
// resolves to ModeFill.
func ParseFormMode(raw string) (FormMode, bool) {
	switch mode := FormMode(strings.ToLower(strings.TrimSpace(raw))); mode {
	case "":
		return ModeFill, true
	case ModeEdit, ModeFill, ModePreview:
		return mode, true
	default:
		return "", false
	}
}

// State returns the interaction state fields receive under the mode.
func (m FormMode) State() FieldState {
	switch m {
	case ModeEdit:
		return StateReadonly
	case ModePreview:
		return StateDisabled
	default:
		return StateNormal
	}
}

// Field is the schema description of one form input. ID and Type are fixed at
// creation; Label and Meta change through Patch updates. State is an optional
// per-field lock that can only make the form mode stricter.
type Field struct {
	ID    string         `json:"id" yaml:"id"`
	Type  FieldType      `json:"type" yaml:"type"`
	Label string         `json:"label" yaml:"label"`
	Meta  map[string]any `json:"meta,omitempty" yaml:"meta,omitempty"`
	State FieldState     `json:"state,omitempty" yaml:"state,omitempty"`
}

// Props are the defaults a field type supplies for newly created fields. They
// never include ID or Type, which the caller assigns.
type Props struct {
	Label string         `json:"label"`
	Meta  map[string]any `json:"meta,omitempty"`
}

// Patch is a partial update to a field. A nil Label leaves the label as is;
// Meta keys are merged into the existing bag and a nil value removes the key.
type Patch struct {
	Label *string        `json:"label,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
}

// UpdateField is the message a configuration panel sends to the form document
// that owns the field.
type UpdateField struct {
	ID    string `json:"id"`
	Patch Patch  `json:"patch"`
}

// Form is the document that owns an ordered field list.
type Form struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      []Field   `json:"fields" yaml:"fields"`
	Version     int       `json:"version" yaml:"-"`
	CreatedAt   time.Time `json:"createdAt" yaml:"-"`
	UpdatedAt   time.Time `json:"updatedAt" yaml:"-"`
}

// Placeholder returns the string placeholder stored in Meta, if any.
func (f Field) Placeholder() string {
	return MetaString(f.Meta, "placeholder")
}

// EffectiveState combines the form-level state with the field's own lock,
// keeping whichever is stricter.
func (f Field) EffectiveState(formState FieldState) FieldState {
	if strictness(f.State) > strictness(formState) {
		return f.State
	}
	if !formState.Valid() {
		return StateNormal
	}
	return formState
}

func strictness(state FieldState) int {
	switch state {
	case StateDisabled:
		return 2
	case StateReadonly:
		return 1
	default:
		return 0
	}
}

// MetaString reads a string value out of a meta bag.
func MetaString(meta map[string]any, key string) string {
	if meta == nil {
		return ""
	}
	switch v := meta[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return ""
	}
}

// MetaFloat reads a numeric value out of a meta bag. YAML and JSON decoders
// produce different numeric kinds so all of them are accepted.
func MetaFloat(meta map[string]any, key string) (float64, bool) {
	if meta == nil {
		return 0, false
	}
	switch v := meta[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}

// StringPtr is a small helper for building label patches.
func StringPtr(value string) *string {
	return &value
}
