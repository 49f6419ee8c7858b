package fields

import "sync"

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// NewDefaultRegistry constructs a registry holding the built-in field types.
func NewDefaultRegistry() *Registry {
	registry := New()
	registry.MustRegister(Text())
	registry.MustRegister(Number())
	registry.MustRegister(Rating())
	registry.MustRegister(Time())
	return registry
}

// Default returns the process-wide registry of built-in types. Callers that
// need extra types should build their own with NewDefaultRegistry and
// register on that instead.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewDefaultRegistry()
	})
	return defaultRegistry
}
