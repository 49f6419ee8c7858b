package model

import (
	"errors"
	"fmt"
	"maps"
	"strings"
)

var (
	// ErrFieldNotFound is returned when an update targets a field the form
	// does not contain.
	ErrFieldNotFound = errors.New("model: field not found")
	// ErrDuplicateFieldID is returned when a field id is already in use.
	ErrDuplicateFieldID = errors.New("model: duplicate field id")
)

// Apply merges the patch into the field and returns the result. The receiver
// is not modified. Keys absent from the patch are preserved; a nil meta value
// deletes its key.
func (f Field) Apply(patch Patch) Field {
	out := f
	if patch.Label != nil {
		out.Label = *patch.Label
	}
	out.Meta = MergeMeta(f.Meta, patch.Meta)
	return out
}

// MergeMeta returns a copy of base with the update keys applied.
func MergeMeta(base, update map[string]any) map[string]any {
	if len(update) == 0 {
		return CloneMeta(base)
	}
	out := make(map[string]any, len(base)+len(update))
	maps.Copy(out, base)
	for key, value := range update {
		if value == nil {
			delete(out, key)
			continue
		}
		out[key] = value
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// CloneMeta makes a shallow copy of a meta bag.
func CloneMeta(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	return maps.Clone(src)
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Label == nil && len(p.Meta) == 0
}

// Clone returns a deep-enough copy of the form: the field slice and each
// field's meta bag are copied so callers can mutate the result freely.
func (f Form) Clone() Form {
	out := f
	if f.Fields != nil {
		out.Fields = make([]Field, len(f.Fields))
		for idx, field := range f.Fields {
			field.Meta = CloneMeta(field.Meta)
			out.Fields[idx] = field
		}
	}
	return out
}

// Field returns the field with the given id.
func (f Form) Field(id string) (Field, bool) {
	idx := f.indexOf(id)
	if idx < 0 {
		return Field{}, false
	}
	return f.Fields[idx], true
}

// Apply merges an UpdateField message into the matching field.
func (f *Form) Apply(msg UpdateField) error {
	idx := f.indexOf(msg.ID)
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrFieldNotFound, msg.ID)
	}
	f.Fields[idx] = f.Fields[idx].Apply(msg.Patch)
	return nil
}

// Add appends a field, enforcing id uniqueness.
func (f *Form) Add(field Field) error {
	id := strings.TrimSpace(field.ID)
	if id == "" {
		return errors.New("model: field id is required")
	}
	if f.indexOf(id) >= 0 {
		return fmt.Errorf("%w: %q", ErrDuplicateFieldID, id)
	}
	field.ID = id
	f.Fields = append(f.Fields, field)
	return nil
}

// Remove deletes a field, keeping the order of the remaining ones.
func (f *Form) Remove(id string) error {
	idx := f.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrFieldNotFound, id)
	}
	f.Fields = append(f.Fields[:idx], f.Fields[idx+1:]...)
	return nil
}

// Move relocates a field to the target position, clamped to the list bounds.
func (f *Form) Move(id string, position int) error {
	idx := f.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrFieldNotFound, id)
	}
	field := f.Fields[idx]
	rest := append(f.Fields[:idx:idx], f.Fields[idx+1:]...)
	if position < 0 {
		position = 0
	}
	if position > len(rest) {
		position = len(rest)
	}
	out := make([]Field, 0, len(f.Fields))
	out = append(out, rest[:position]...)
	out = append(out, field)
	out = append(out, rest[position:]...)
	f.Fields = out
	return nil
}

func (f Form) indexOf(id string) int {
	id = strings.TrimSpace(id)
	if id == "" {
		return -1
	}
	for idx, field := range f.Fields {
		if field.ID == id {
			return idx
		}
	}
	return -1
}
