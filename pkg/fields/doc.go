// Package fields holds the field-type registry. Every field type registers a
// Definition bundling four behaviours keyed by its type tag:
//
//   - Defaults produces the label and meta for a newly created field.
//   - Renderer writes the display control for a field in a given interaction
//     state (NORMAL, READONLY, DISABLED). Renderers are pure functions of
//     their inputs.
//   - Configurator writes the type-specific configuration panel and turns a
//     submitted panel back into a model.Patch.
//   - Answer describes what a person submits for the field: the schema an
//     answer must satisfy, how a posted HTML value decodes and how a
//     terminal prompts for it.
//
// Lookups of unknown types fail with ErrNotFound and registering a tag twice
// fails with ErrDuplicate. There is no fallback renderer: showing the wrong
// control for a type would silently corrupt the data collected with it.
//
// The built-in types (text, number, rating, time) are available through
// NewDefaultRegistry and the shared Default registry.
package fields
