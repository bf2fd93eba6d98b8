package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/kbukum/wirekit/errors"
	"github.com/kbukum/wirekit/graph"
	"github.com/kbukum/wirekit/logger"
	"github.com/kbukum/wirekit/observability"
	"github.com/kbukum/wirekit/scope"
	"github.com/kbukum/wirekit/solver"
)

// Engine executes plans stage by stage.
type Engine struct {
	// MaxParallel limits concurrent constructions per stage (0 = unlimited).
	MaxParallel int
	// Log receives execution logging; nil disables it.
	Log *logger.Logger
	// Metrics records per-resolution outcomes; nil disables it.
	Metrics *observability.Metrics
	// Middleware wraps every factory invocation, outermost first.
	Middleware []Middleware
}

// ExecOption configures a single execution.
type ExecOption func(*execConfig)

type execConfig struct {
	seeds map[graph.Key]any
}

// WithValue seeds a pre-built value for key. The node's factory is not
// invoked; dependants of the key receive the seeded value.
func WithValue(key graph.Key, value any) ExecOption {
	return func(c *execConfig) {
		if c.seeds == nil {
			c.seeds = make(map[graph.Key]any)
		}
		c.seeds[key] = value
	}
}

// WithValues seeds multiple pre-built values at once.
func WithValues(values map[graph.Key]any) ExecOption {
	return func(c *execConfig) {
		if c.seeds == nil {
			c.seeds = make(map[graph.Key]any, len(values))
		}
		for k, v := range values {
			c.seeds[k] = v
		}
	}
}

// Result holds the outcome of one execution.
type Result struct {
	// Root is the constructed value of the plan's root key.
	Root any
	// Values maps every executed or seeded key to its value.
	Values map[graph.Key]any
	// Duration is the total execution time.
	Duration time.Duration
}

// Execute runs the plan against the stack and returns the root value.
//
// Stages run strictly in order; within a stage every non-seeded node is
// constructed concurrently. A failed node does not cancel its stage
// siblings, they run to completion, and their values stay cached in their
// scopes. All failures of the stage are aggregated and returned, and later
// stages do not run.
func (e *Engine) Execute(ctx context.Context, plan *solver.Plan, stack *scope.Stack, opts ...ExecOption) (*Result, error) {
	start := time.Now()

	var cfg execConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	results := make(map[graph.Key]any, plan.Len())
	for k, v := range cfg.seeds {
		results[k] = v
	}

	var mu sync.Mutex
	for i, stage := range plan.Stages {
		if err := ctx.Err(); err != nil {
			e.recordResolution(ctx, plan.Root, "error", time.Since(start))
			return nil, err
		}

		var toRun []*solver.Node
		for _, n := range stage.Nodes {
			if _, seeded := results[n.Key]; seeded {
				continue
			}
			toRun = append(toRun, n)
		}
		if len(toRun) == 0 {
			continue
		}

		if err := e.executeStage(ctx, toRun, stack, results, &mu); err != nil {
			e.logger().Error("stage failed", logger.Fields(
				logger.FieldStage, i,
				logger.FieldError, err.Error(),
			))
			e.recordResolution(ctx, plan.Root, "error", time.Since(start))
			return nil, err
		}
	}

	e.recordResolution(ctx, plan.Root, "ok", time.Since(start))
	return &Result{
		Root:     results[plan.Root],
		Values:   results,
		Duration: time.Since(start),
	}, nil
}

func (e *Engine) recordResolution(ctx context.Context, root graph.Key, status string, duration time.Duration) {
	if e.Metrics != nil {
		e.Metrics.RecordResolution(ctx, string(root), status, duration)
	}
}

func (e *Engine) executeStage(ctx context.Context, nodes []*solver.Node, stack *scope.Stack, results map[graph.Key]any, mu *sync.Mutex) error {
	var wg sync.WaitGroup
	var errs error

	sem := make(chan struct{}, e.concurrency(len(nodes)))

	for _, node := range nodes {
		wg.Add(1)
		go func(n *solver.Node) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			value, err := e.executeNode(ctx, n, stack, results, mu)
			mu.Lock()
			if err != nil {
				errs = multierr.Append(errs, err)
			} else {
				results[n.Key] = value
			}
			mu.Unlock()
		}(node)
	}

	wg.Wait()
	return errs
}

func (e *Engine) executeNode(ctx context.Context, n *solver.Node, stack *scope.Stack, results map[graph.Key]any, mu *sync.Mutex) (any, error) {
	sc, ok := stack.Lookup(n.Scope)
	if !ok {
		return nil, errors.ScopeOrder(fmt.Sprintf(
			"scope %q required by %q is not active", n.Scope, n.Key))
	}

	factory := n.Dependant.Factory
	for i := len(e.Middleware) - 1; i >= 0; i-- {
		factory = e.Middleware[i](factory, n)
	}

	construct := func(ctx context.Context) (any, error) {
		value, err := factory(ctx, e.params(n, results, mu))
		if err != nil {
			return nil, errors.Construction(string(n.Key), err)
		}
		if cleanup := n.Dependant.Cleanup; cleanup != nil {
			sc.OnExit(func(ctx context.Context) error {
				return cleanup(ctx, value)
			})
		}
		return value, nil
	}

	if n.Shared {
		return sc.GetOrCreate(ctx, n.Key, construct)
	}
	return construct(ctx)
}

// params assembles the factory arguments in slot order. Absent optional
// slots stay nil.
func (e *Engine) params(n *solver.Node, results map[graph.Key]any, mu *sync.Mutex) []any {
	params := make([]any, len(n.Slots))
	mu.Lock()
	for i, slot := range n.Slots {
		if slot.Present {
			params[i] = results[slot.Key]
		}
	}
	mu.Unlock()
	return params
}

func (e *Engine) concurrency(stageSize int) int {
	if e.MaxParallel <= 0 || e.MaxParallel > stageSize {
		return stageSize
	}
	return e.MaxParallel
}

func (e *Engine) logger() *logger.Logger {
	if e.Log != nil {
		return e.Log
	}
	return logger.Nop()
}
