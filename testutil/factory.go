package testutil

import (
	"context"
	"sync"

	"github.com/kbukum/wirekit/graph"
)

// CountingFactory is a configurable test factory. It records invocations and
// returns a preset output or error.
type CountingFactory struct {
	output any
	err    error
	fn     graph.Factory

	mu    sync.Mutex
	calls int
}

// NewCountingFactory creates a factory that returns the given output.
// If err is non-nil, the factory fails with that error.
func NewCountingFactory(output any, err error) *CountingFactory {
	return &CountingFactory{output: output, err: err}
}

// NewCountingFactoryFunc creates a counting factory backed by a custom function.
func NewCountingFactoryFunc(fn graph.Factory) *CountingFactory {
	return &CountingFactory{fn: fn}
}

// Factory returns the graph.Factory to register on a dependant.
func (f *CountingFactory) Factory() graph.Factory {
	return func(ctx context.Context, params []any) (any, error) {
		f.mu.Lock()
		f.calls++
		f.mu.Unlock()

		if f.fn != nil {
			return f.fn(ctx, params)
		}
		return f.output, f.err
	}
}

// Calls returns how many times the factory was invoked.
func (f *CountingFactory) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Reset clears the call counter.
func (f *CountingFactory) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = 0
}

// CleanupRecorder records the order cleanup hooks run in.
type CleanupRecorder struct {
	mu    sync.Mutex
	order []string
}

// Cleanup returns a graph.CleanupFunc that records name when invoked.
func (r *CleanupRecorder) Cleanup(name string) graph.CleanupFunc {
	return func(context.Context, any) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.order = append(r.order, name)
		return nil
	}
}

// Order returns the recorded cleanup names in invocation order.
func (r *CleanupRecorder) Order() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}
