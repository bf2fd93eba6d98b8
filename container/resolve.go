package container

import (
	"context"
	"fmt"

	"github.com/kbukum/wirekit/graph"
	"github.com/kbukum/wirekit/scope"
)

// Resolve resolves root with type safety, returns error on failure.
// Use this when you want to handle resolution errors gracefully.
//
// Example:
//
//	server, err := container.Resolve[*http.Server](ctx, c, serverDep)
//	if err != nil {
//	    return fmt.Errorf("failed to build server: %w", err)
//	}
func Resolve[T any](ctx context.Context, c *Container, root *graph.Dependant) (T, error) {
	var zero T
	value, err := c.ResolveAny(ctx, root)
	if err != nil {
		return zero, fmt.Errorf("container: failed to resolve %s: %w", root.Key, err)
	}
	result, ok := value.(T)
	if !ok {
		return zero, fmt.Errorf("container: value for %s is %T, expected %T", root.Key, value, zero)
	}
	return result, nil
}

// ResolveIn is Resolve against an explicit stack, typically a branch
// carrying a private request scope.
func ResolveIn[T any](ctx context.Context, c *Container, root *graph.Dependant, stack *scope.Stack) (T, error) {
	var zero T
	value, err := c.ResolveAnyIn(ctx, root, stack)
	if err != nil {
		return zero, fmt.Errorf("container: failed to resolve %s: %w", root.Key, err)
	}
	result, ok := value.(T)
	if !ok {
		return zero, fmt.Errorf("container: value for %s is %T, expected %T", root.Key, value, zero)
	}
	return result, nil
}

// MustResolve resolves root with type safety, panics on error.
// Use this during startup wiring where a failure is fatal anyway.
//
// Example:
//
//	server := container.MustResolve[*http.Server](ctx, c, serverDep)
func MustResolve[T any](ctx context.Context, c *Container, root *graph.Dependant) T {
	result, err := Resolve[T](ctx, c, root)
	if err != nil {
		panic(err.Error())
	}
	return result
}

// TryResolve resolves root, returns zero value and false on any failure.
// Use this when the dependency is optional.
//
// Example:
//
//	if metrics, ok := container.TryResolve[*Metrics](ctx, c, metricsDep); ok {
//	    metrics.Record(...)
//	}
func TryResolve[T any](ctx context.Context, c *Container, root *graph.Dependant) (T, bool) {
	result, err := Resolve[T](ctx, c, root)
	if err != nil {
		var zero T
		return zero, false
	}
	return result, true
}
