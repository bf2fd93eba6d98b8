package container

import (
	"context"
	"sync"

	"github.com/kbukum/wirekit/executor"
	"github.com/kbukum/wirekit/graph"
	"github.com/kbukum/wirekit/logger"
	"github.com/kbukum/wirekit/observability"
	"github.com/kbukum/wirekit/scope"
	"github.com/kbukum/wirekit/solver"
)

// Container is the engine facade. It owns the binding table, a plan cache,
// and the scope stack resolutions run against.
type Container struct {
	scopes  scope.Ordering
	log     *logger.Logger
	metrics *observability.Metrics
	engine  *executor.Engine
	stack   *scope.Stack

	mu     sync.RWMutex
	binds  graph.Bindings
	values map[graph.Key]any
	plans  map[graph.Key]*solver.Plan
}

// Option configures a Container.
type Option func(*Container)

// WithLogger sets the logger used by the container, its stack, and executor.
func WithLogger(log *logger.Logger) Option {
	return func(c *Container) { c.log = log }
}

// WithMaxParallel bounds concurrent constructions per stage.
func WithMaxParallel(n int) Option {
	return func(c *Container) { c.engine.MaxParallel = n }
}

// WithMiddleware installs factory middleware on the executor.
func WithMiddleware(mw ...executor.Middleware) Option {
	return func(c *Container) { c.engine.Middleware = append(c.engine.Middleware, mw...) }
}

// WithMetrics wires metric instruments into the executor (resolutions) and
// the scope stack (cache, single-flight, cleanup activity).
func WithMetrics(metrics *observability.Metrics) Option {
	return func(c *Container) { c.metrics = metrics }
}

// New creates a container over the declared scope ordering.
func New(scopes scope.Ordering, opts ...Option) *Container {
	c := &Container{
		scopes: scopes,
		log:    logger.Nop(),
		engine: &executor.Engine{},
		binds:  graph.Bindings{},
		values: make(map[graph.Key]any),
		plans:  make(map[graph.Key]*solver.Plan),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.engine.Log = c.log
	c.engine.Metrics = c.metrics
	c.stack = scope.NewStack(scopes, scope.WithLogger(c.log), scope.WithMetrics(c.metrics))
	return c
}

// Bind installs an override: every dependant requesting key receives dep
// instead of the declared default. Cached plans are invalidated.
func (c *Container) Bind(key graph.Key, dep *graph.Dependant) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.binds.Bind(key, dep)
	c.plans = make(map[graph.Key]*solver.Plan)
}

// SetValue seeds a pre-built value for key. Nodes for seeded keys are not
// constructed; their dependants receive the value as-is. Plans stay valid.
func (c *Container) SetValue(key graph.Key, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

// Solve returns the execution plan for root, building and caching it on
// first use. The cache is keyed by the root's key and cleared by Bind.
func (c *Container) Solve(root *graph.Dependant) (*solver.Plan, error) {
	c.mu.RLock()
	if plan, ok := c.plans[root.Key]; ok {
		c.mu.RUnlock()
		return plan, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if plan, ok := c.plans[root.Key]; ok {
		return plan, nil
	}

	closed, err := graph.Build(root, c.binds)
	if err != nil {
		return nil, err
	}
	plan, err := solver.Solve(closed, c.scopes)
	if err != nil {
		return nil, err
	}
	c.plans[root.Key] = plan

	c.log.Debug("plan solved", logger.Fields(
		logger.FieldKey, string(root.Key),
		"nodes", plan.Len(),
		"stages", len(plan.Stages),
	))
	return plan, nil
}

// Stack returns the container's own scope stack.
func (c *Container) Stack() *scope.Stack {
	return c.stack
}

// EnterScope enters the named scope on the container's stack.
func (c *Container) EnterScope(name string) (*scope.Scope, error) {
	return c.stack.Enter(name)
}

// Branch returns a stack sharing the container's active scopes, for a
// concurrent resolution that needs its own inner scopes.
func (c *Container) Branch() *scope.Stack {
	return c.stack.Branch()
}

// ResolveAny solves root and executes the plan against the container's
// stack, returning the root value.
func (c *Container) ResolveAny(ctx context.Context, root *graph.Dependant) (any, error) {
	return c.ResolveAnyIn(ctx, root, c.stack)
}

// ResolveAnyIn is ResolveAny against an explicit stack, typically a branch.
func (c *Container) ResolveAnyIn(ctx context.Context, root *graph.Dependant, stack *scope.Stack) (any, error) {
	plan, err := c.Solve(root)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	seeds := make(map[graph.Key]any, len(c.values))
	for k, v := range c.values {
		seeds[k] = v
	}
	c.mu.RUnlock()

	result, err := c.engine.Execute(ctx, plan, stack, executor.WithValues(seeds))
	if err != nil {
		return nil, err
	}
	return result.Root, nil
}
