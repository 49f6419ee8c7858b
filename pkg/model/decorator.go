package model

// Decorator adjusts a form before it is rendered, for example to lock fields
// or inject defaults that depend on the request.
type Decorator interface {
	Decorate(*Form) error
}

// DecoratorFunc adapts a function into a Decorator.
type DecoratorFunc func(*Form) error

// Decorate calls the underlying function.
func (fn DecoratorFunc) Decorate(form *Form) error {
	return fn(form)
}

// LockFields returns a decorator that applies the given state to every field
// whose id is listed.
func LockFields(state FieldState, ids ...string) Decorator {
	lookup := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		lookup[id] = struct{}{}
	}
	return DecoratorFunc(func(form *Form) error {
		if form == nil {
			return nil
		}
		for idx := range form.Fields {
			if _, ok := lookup[form.Fields[idx].ID]; ok {
				form.Fields[idx].State = state
			}
		}
		return nil
	})
}
