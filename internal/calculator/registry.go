package calculator

import (
	"fmt"
	"sort"
	"strings"
)

// Factory builds an Operation on demand.
type Factory func() Operation

// builtinNames maps the command names to the built-in kinds.
var builtinNames = map[string]Kind{
	"add":        Addition,
	"subtract":   Subtraction,
	"multiply":   Multiplication,
	"divide":     Division,
	"power":      Power,
	"root":       Root,
	"modulus":    Modulus,
	"int_divide": IntegerDivide,
	"percent":    Percent,
	"abs_diff":   AbsoluteDifference,
}

// IsBuiltin reports whether name is one of the built-in command names.
func IsBuiltin(name string) bool {
	_, ok := builtinNames[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Registry maps operation names to factories. Names are case-insensitive.
// A Registry is not safe for concurrent use.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns a registry holding every built-in operation.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory, len(builtinNames))}
	for name, kind := range builtinNames {
		r.factories[name] = kind.Factory()
	}
	return r
}

// Register maps name to factory, replacing any previous mapping.
func (r *Registry) Register(name string, factory Factory) error {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return fmt.Errorf("%w: empty operation name", ErrInvalidOperation)
	}
	if factory == nil {
		return fmt.Errorf("%w: nil factory for %q", ErrInvalidOperation, name)
	}
	if factory() == nil {
		return fmt.Errorf("%w: factory for %q returned no operation", ErrInvalidOperation, name)
	}

	r.factories[key] = factory
	return nil
}

// Create builds the operation registered under name.
func (r *Registry) Create(name string) (Operation, error) {
	factory, ok := r.factories[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, &unknownOperationError{name: name}
	}
	return factory(), nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.factories[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type unknownOperationError struct {
	name string
}

func (e *unknownOperationError) Error() string {
	return "Unknown operation: " + e.name
}

func (e *unknownOperationError) Unwrap() error {
	return ErrUnknownOperation
}
