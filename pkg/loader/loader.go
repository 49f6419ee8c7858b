// Package loader reads form definitions from YAML or JSON files and keeps
// them fresh with a file watcher.
package loader

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formbuilder/pkg/fields"
	"github.com/goliatone/go-formbuilder/pkg/model"
)

var (
	// ErrDuplicateForm is returned when two definitions share a form id.
	ErrDuplicateForm = errors.New("loader: duplicate form id")
	// ErrInvalidDefinition wraps definitions that cannot become a form.
	ErrInvalidDefinition = errors.New("loader: invalid form definition")
)

// Set is the result of one load: forms in file order plus where each came
// from. Digests holds a content hash of each normalised form, so callers can
// tell a changed definition from one that was merely loaded again.
type Set struct {
	Forms   []model.Form
	Sources map[string]string
	Digests map[string]string
}

func newSet() *Set {
	return &Set{Sources: make(map[string]string), Digests: make(map[string]string)}
}

// Form returns the form with the given id.
func (s *Set) Form(id string) (model.Form, bool) {
	if s == nil {
		return model.Form{}, false
	}
	for _, form := range s.Forms {
		if form.ID == id {
			return form, true
		}
	}
	return model.Form{}, false
}

type documentFile struct {
	ID          string      `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description" yaml:"description"`
	Fields      []fieldFile `json:"fields" yaml:"fields"`
	Forms       []formFile  `json:"forms" yaml:"forms"`
}

type formFile struct {
	ID          string      `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description" yaml:"description"`
	Fields      []fieldFile `json:"fields" yaml:"fields"`
}

type fieldFile struct {
	ID    string         `json:"id" yaml:"id"`
	Type  string         `json:"type" yaml:"type"`
	Label string         `json:"label" yaml:"label"`
	Meta  map[string]any `json:"meta" yaml:"meta"`
	State string         `json:"state" yaml:"state"`
}

// LoadDir loads every definition file under dir.
func LoadDir(dir string, registry *fields.Registry) (*Set, error) {
	return LoadFS(os.DirFS(dir), registry)
}

// LoadFS walks fsys and parses .yaml, .yml and .json files. A file holds a
// single form or a list under "forms". Field types are checked against
// registry (fields.Default when nil); field defaults fill in whatever the
// file leaves out.
func LoadFS(fsys fs.FS, registry *fields.Registry) (*Set, error) {
	set := newSet()
	if fsys == nil {
		return set, nil
	}
	if registry == nil {
		registry = fields.Default()
	}

	err := fs.WalkDir(fsys, ".", func(name string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !IsDefinitionFile(name) {
			return nil
		}

		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("loader: read %s: %w", name, err)
		}
		return set.add(name, data, registry)
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

// LoadFile loads the forms defined in a single file.
func LoadFile(file string, registry *fields.Registry) (*Set, error) {
	if !IsDefinitionFile(file) {
		return nil, fmt.Errorf("%w: %s is not a .yaml, .yml or .json file", ErrInvalidDefinition, file)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("loader: read %s: %w", file, err)
	}
	if registry == nil {
		registry = fields.Default()
	}
	set := newSet()
	if err := set.add(filepath.Base(file), data, registry); err != nil {
		return nil, err
	}
	return set, nil
}

func (s *Set) add(name string, data []byte, registry *fields.Registry) error {
	doc, err := parseDocument(data, name)
	if err != nil {
		return err
	}

	raws := doc.Forms
	if len(raws) == 0 {
		single := formFile{ID: doc.ID, Name: doc.Name, Description: doc.Description, Fields: doc.Fields}
		if strings.TrimSpace(single.ID) == "" {
			single.ID = strings.TrimSuffix(path.Base(name), path.Ext(name))
		}
		raws = []formFile{single}
	}

	for idx, raw := range raws {
		form, err := normaliseForm(raw, registry)
		if err != nil {
			return fmt.Errorf("%s: form %d: %w", name, idx, err)
		}
		if prev, exists := s.Sources[form.ID]; exists {
			return fmt.Errorf("%w: %q in %s and %s", ErrDuplicateForm, form.ID, prev, name)
		}
		digest, err := digestForm(form)
		if err != nil {
			return fmt.Errorf("%s: form %q: %w", name, form.ID, err)
		}
		s.Sources[form.ID] = name
		s.Digests[form.ID] = digest
		s.Forms = append(s.Forms, form)
	}
	return nil
}

// digestForm hashes the JSON encoding of form. Map keys are encoded in sorted
// order, so equal forms always hash alike.
func digestForm(form model.Form) (string, error) {
	data, err := json.Marshal(form)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// IsDefinitionFile reports whether name has a definition file extension.
func IsDefinitionFile(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	default:
		return false
	}
}

func parseDocument(data []byte, source string) (documentFile, error) {
	var doc documentFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return documentFile{}, fmt.Errorf("%w: file %s is empty", ErrInvalidDefinition, source)
	}
	if strings.EqualFold(path.Ext(source), ".json") {
		if err := json.Unmarshal(data, &doc); err != nil {
			return documentFile{}, fmt.Errorf("loader: parse %s: %w", source, err)
		}
		return doc, nil
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return documentFile{}, fmt.Errorf("loader: parse %s: %w", source, err)
	}
	return doc, nil
}

func normaliseForm(raw formFile, registry *fields.Registry) (model.Form, error) {
	form := model.Form{
		ID:          strings.TrimSpace(raw.ID),
		Name:        strings.TrimSpace(raw.Name),
		Description: strings.TrimSpace(raw.Description),
		Fields:      make([]model.Field, 0, len(raw.Fields)),
	}
	if form.ID == "" {
		return model.Form{}, fmt.Errorf("%w: form id is required", ErrInvalidDefinition)
	}
	if form.Name == "" {
		form.Name = form.ID
	}

	for idx, rawField := range raw.Fields {
		def, err := registry.Resolve(model.FieldType(rawField.Type))
		if err != nil {
			return model.Form{}, fmt.Errorf("%w: field %d: %w", ErrInvalidDefinition, idx, err)
		}

		id := strings.TrimSpace(rawField.ID)
		if id == "" {
			id = derivedFieldID(form.ID, idx)
		}
		field := def.NewField(id)
		if label := strings.TrimSpace(rawField.Label); label != "" {
			field.Label = label
		}
		field.Meta = model.MergeMeta(field.Meta, normaliseMeta(rawField.Meta))
		if strings.TrimSpace(rawField.State) != "" {
			state, ok := model.ParseFieldState(rawField.State)
			if !ok {
				return model.Form{}, fmt.Errorf("%w: field %q has unknown state %q", ErrInvalidDefinition, id, rawField.State)
			}
			field.State = state
		}

		if err := form.Add(field); err != nil {
			return model.Form{}, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
		}
	}
	return form, nil
}

// derivedFieldID gives id-less fields a stable id so reloading the same file
// does not orphan configuration or submissions.
func derivedFieldID(formID string, idx int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("formbuilder:"+formID+"/"+strconv.Itoa(idx))).String()
}

// normaliseMeta turns YAML integers into float64 so documents look the same
// whichever decoder produced them.
func normaliseMeta(meta map[string]any) map[string]any {
	if len(meta) == 0 {
		return nil
	}
	out := make(map[string]any, len(meta))
	for key, value := range meta {
		switch v := value.(type) {
		case int:
			out[key] = float64(v)
		case int64:
			out[key] = float64(v)
		case uint64:
			out[key] = float64(v)
		default:
			out[key] = value
		}
	}
	return out
}
