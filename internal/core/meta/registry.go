package meta

import (
	"fmt"
	"sort"
)

// Registry holds every known model. It is immutable once built, so it can be
// shared freely between goroutines.
type Registry struct {
	models map[string]*Meta
}

// NewRegistry validates and registers the given models. Relations must point
// at models that are part of the same registry; cycles are allowed.
func NewRegistry(models ...*Meta) (*Registry, error) {
	r := &Registry{models: make(map[string]*Meta, len(models))}

	for _, m := range models {
		if m == nil {
			return nil, fmt.Errorf("%w: nil model", ErrConfiguration)
		}
		if err := m.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.models[m.Name]; dup {
			return nil, fmt.Errorf("%w: model %s registered twice", ErrConfiguration, m.Name)
		}
		r.models[m.Name] = m.clone()
	}

	for _, m := range r.models {
		for name, rel := range m.Relations {
			if _, ok := r.models[rel.Model]; !ok {
				return nil, fmt.Errorf("%w: relation %s.%s targets unknown model %q",
					ErrConfiguration, m.Name, name, rel.Model)
			}
		}
	}

	return r, nil
}

// MustRegistry is NewRegistry for package-level declarations.
func MustRegistry(models ...*Meta) *Registry {
	r, err := NewRegistry(models...)
	if err != nil {
		panic(err)
	}
	return r
}

// Model returns the model registered under name.
func (r *Registry) Model(name string) (*Meta, error) {
	m, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown model %q", ErrConfiguration, name)
	}
	return m, nil
}

// Target resolves the model a relation points at.
func (r *Registry) Target(rel Relation) (*Meta, error) {
	return r.Model(rel.Model)
}

// Names returns the registered model names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
