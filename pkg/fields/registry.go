package fields

import (
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-formbuilder/pkg/model"
)

// Registry maps field type tags to their definitions. Registration happens
// during initialisation; afterwards the table is only read.
type Registry struct {
	mu          sync.RWMutex
	definitions map[model.FieldType]Definition
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		definitions: make(map[model.FieldType]Definition),
	}
}

// Register associates def with def.Type. Registering a tag twice returns an
// error wrapping ErrDuplicate.
func (r *Registry) Register(def Definition) error {
	def.Type = def.Type.Normalize()
	if def.Type == "" {
		return fmt.Errorf("fields: field type is required")
	}
	if def.Defaults == nil {
		return fmt.Errorf("fields: defaults for %q is nil", def.Type)
	}
	if def.Renderer == nil {
		return fmt.Errorf("fields: renderer for %q is nil", def.Type)
	}
	if def.Configurator == nil {
		return fmt.Errorf("fields: configurator for %q is nil", def.Type)
	}
	if def.Answer == nil {
		return fmt.Errorf("fields: answer handling for %q is nil", def.Type)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.definitions[def.Type]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicate, def.Type)
	}
	r.definitions[def.Type] = cloneDefinition(def)
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(def Definition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Resolve returns the definition for a type tag. Unknown tags return an error
// wrapping ErrNotFound; there is no fallback definition.
func (r *Registry) Resolve(fieldType model.FieldType) (Definition, error) {
	key := fieldType.Normalize()

	r.mu.RLock()
	def, ok := r.definitions[key]
	r.mu.RUnlock()

	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", ErrNotFound, fieldType)
	}
	return cloneDefinition(def), nil
}

// MustResolve panics if the type is missing.
func (r *Registry) MustResolve(fieldType model.FieldType) Definition {
	def, err := r.Resolve(fieldType)
	if err != nil {
		panic(err)
	}
	return def
}

// Has reports whether a type is registered.
func (r *Registry) Has(fieldType model.FieldType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.definitions[fieldType.Normalize()]
	return ok
}

// Types returns the registered tags in sorted order.
func (r *Registry) Types() []model.FieldType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.FieldType, 0, len(r.definitions))
	for key := range r.definitions {
		out = append(out, key)
	}
	slices.Sort(out)
	return out
}

// NewField creates a field of the requested type with a fresh id and the
// type's default properties.
func (r *Registry) NewField(fieldType model.FieldType) (model.Field, error) {
	def, err := r.Resolve(fieldType)
	if err != nil {
		return model.Field{}, err
	}
	return def.NewField(NewID()), nil
}

// Assets collects the stylesheets and scripts needed by the given types,
// deduplicated and in first-seen order. Unknown types are skipped.
func (r *Registry) Assets(types []model.FieldType) (stylesheets []string, scripts []Script) {
	if len(types) == 0 {
		return nil, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	seenStyles := make(map[string]struct{})
	seenScripts := make(map[string]struct{})
	for _, fieldType := range types {
		def, ok := r.definitions[fieldType.Normalize()]
		if !ok {
			continue
		}
		for _, href := range def.Stylesheets {
			if _, dup := seenStyles[href]; href == "" || dup {
				continue
			}
			seenStyles[href] = struct{}{}
			stylesheets = append(stylesheets, href)
		}
		for _, script := range def.Scripts {
			key := scriptKey(script)
			if _, dup := seenScripts[key]; dup {
				continue
			}
			seenScripts[key] = struct{}{}
			scripts = append(scripts, script)
		}
	}
	return stylesheets, scripts
}

// NewID returns a new field identifier, preferring time-ordered UUIDv7.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

func scriptKey(script Script) string {
	if script.Src != "" {
		return "src:" + script.Src
	}
	return "inline:" + script.Inline
}
