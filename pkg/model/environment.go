package model

import "sort"

// Environment is the flat name → value mapping produced by variable
// resolution. It is immutable: With returns a modified copy.
type Environment struct {
	values map[string]Value
}

// NewEnvironment copies values into a new Environment.
func NewEnvironment(values map[string]Value) Environment {
	out := make(map[string]Value, len(values))
	for name, value := range values {
		out[name] = value
	}
	return Environment{values: out}
}

// Get looks up a variable.
func (e Environment) Get(name string) (Value, bool) {
	v, ok := e.values[name]
	return v, ok
}

// Has reports whether name is defined.
func (e Environment) Has(name string) bool {
	_, ok := e.values[name]
	return ok
}

// Len returns the number of defined variables.
func (e Environment) Len() int { return len(e.values) }

// Names returns the defined variable names in sorted order.
func (e Environment) Names() []string {
	names := make([]string, 0, len(e.values))
	for name := range e.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// With returns a copy of the environment with name bound to value.
func (e Environment) With(name string, value Value) Environment {
	out := make(map[string]Value, len(e.values)+1)
	for k, v := range e.values {
		out[k] = v
	}
	out[name] = value
	return Environment{values: out}
}

// Values returns a copy of the underlying mapping.
func (e Environment) Values() map[string]Value {
	out := make(map[string]Value, len(e.values))
	for k, v := range e.values {
		out[k] = v
	}
	return out
}

// Data converts the environment into evaluator input. Values are always
// exposed flat; when namespace is non-empty they are also nested under that
// key (e.g. `cookiecutter.project_name`).
func (e Environment) Data(namespace string) map[string]any {
	out := make(map[string]any, len(e.values)+1)
	for name, value := range e.values {
		out[name] = value.Interface()
	}
	if namespace != "" {
		nested := make(map[string]any, len(e.values))
		for name, value := range e.values {
			nested[name] = value.Interface()
		}
		out[namespace] = nested
	}
	return out
}
