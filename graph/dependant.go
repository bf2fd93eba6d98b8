package graph

import "context"

// Key identifies what a dependant satisfies. Callers ask for keys, not for
// dependant instances; two independently built dependants for the same key
// are solver-equivalent.
type Key string

// Factory produces a value given the resolved parameter values, in parameter
// declaration order. A dropped optional parameter is passed as nil.
type Factory func(ctx context.Context, params []any) (any, error)

// CleanupFunc releases a constructed value when its owning scope exits.
type CleanupFunc func(ctx context.Context, value any) error

// Parameter is a reference to a sub-dependency.
type Parameter struct {
	// Key is the key this parameter asks for.
	Key Key
	// Required marks the parameter as mandatory. An unsatisfiable required
	// parameter fails the build; an unsatisfiable optional one is dropped
	// and its factory slot receives nil.
	Required bool
	// Default is the dependant used when no binding overrides Key.
	Default *Dependant
}

// Dependant describes how to produce a value and what it needs. Dependants
// are immutable once built.
type Dependant struct {
	// Key is the key this dependant satisfies.
	Key Key
	// Scope names the lifetime bucket the constructed value belongs to.
	// An empty scope resolves to the innermost declared scope at solve time.
	Scope string
	// Shared marks the value as cached and reused within its scope. A
	// non-shared dependant is re-constructed on every execution.
	Shared bool
	// Params lists the sub-dependencies, in factory argument order.
	Params []Parameter
	// Factory constructs the value.
	Factory Factory
	// Cleanup, if set, runs when the owning scope exits.
	Cleanup CleanupFunc
}

// Option configures a Dependant under construction.
type Option func(*Dependant)

// New creates a dependant for key with the given factory. Sharing is enabled
// by default; the scope defaults to the innermost declared scope.
func New(key Key, factory Factory, opts ...Option) *Dependant {
	d := &Dependant{
		Key:     key,
		Shared:  true,
		Factory: factory,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// InScope sets the dependant's scope tag.
func InScope(scope string) Option {
	return func(d *Dependant) { d.Scope = scope }
}

// Transient disables value sharing: every use constructs a fresh value and
// the scope cache is bypassed entirely.
func Transient() Option {
	return func(d *Dependant) { d.Shared = false }
}

// DependsOn appends required parameters with default dependants.
func DependsOn(defaults ...*Dependant) Option {
	return func(d *Dependant) {
		for _, def := range defaults {
			d.Params = append(d.Params, Parameter{Key: def.Key, Required: true, Default: def})
		}
	}
}

// DependsOnKey appends a required parameter by key only; the key must be
// satisfied by a binding at build time.
func DependsOnKey(key Key) Option {
	return func(d *Dependant) {
		d.Params = append(d.Params, Parameter{Key: key, Required: true})
	}
}

// OptionallyDependsOnKey appends an optional parameter by key. If nothing
// satisfies the key, the factory receives nil in that slot.
func OptionallyDependsOnKey(key Key) Option {
	return func(d *Dependant) {
		d.Params = append(d.Params, Parameter{Key: key, Required: false})
	}
}

// WithParams replaces the parameter list wholesale, for callers that build
// parameters directly.
func WithParams(params ...Parameter) Option {
	return func(d *Dependant) { d.Params = params }
}

// WithCleanup sets the cleanup function run at scope exit.
func WithCleanup(fn CleanupFunc) Option {
	return func(d *Dependant) { d.Cleanup = fn }
}

// Value creates a dependant whose factory returns a fixed value. Useful for
// configuration objects and test fixtures.
func Value(key Key, value any, opts ...Option) *Dependant {
	return New(key, func(context.Context, []any) (any, error) {
		return value, nil
	}, opts...)
}
