package executor

import (
	"context"
	"time"

	"github.com/kbukum/wirekit/graph"
	"github.com/kbukum/wirekit/logger"
	"github.com/kbukum/wirekit/observability"
	"github.com/kbukum/wirekit/solver"
)

// Middleware wraps a factory invocation for one planned node.
type Middleware func(next graph.Factory, node *solver.Node) graph.Factory

// WithTracing creates an OpenTelemetry span per construction.
// Each invocation creates a span named "{prefix}.{key}".
func WithTracing(prefix string) Middleware {
	return func(next graph.Factory, node *solver.Node) graph.Factory {
		return func(ctx context.Context, params []any) (any, error) {
			ctx, span := observability.StartSpan(ctx, prefix+"."+string(node.Key))
			defer span.End()

			observability.SetSpanAttribute(ctx, observability.AttrKey, string(node.Key))
			observability.SetSpanAttribute(ctx, observability.AttrScope, node.Scope)
			observability.SetSpanAttribute(ctx, observability.AttrStage, node.Stage)

			value, err := next(ctx, params)
			if err != nil {
				observability.SetSpanError(ctx, err)
			}
			return value, err
		}
	}
}

// WithMetrics records construction count, duration, and errors.
func WithMetrics(metrics *observability.Metrics) Middleware {
	return func(next graph.Factory, node *solver.Node) graph.Factory {
		return func(ctx context.Context, params []any) (any, error) {
			start := time.Now()
			value, err := next(ctx, params)
			duration := time.Since(start)

			status := "ok"
			if err != nil {
				status = "error"
				metrics.RecordError(ctx, "construct", string(node.Key))
			}
			metrics.RecordConstruction(ctx, string(node.Key), node.Scope, status, duration)

			return value, err
		}
	}
}

// WithLogging logs each construction: key, scope, duration, and outcome.
func WithLogging(log *logger.Logger) Middleware {
	return func(next graph.Factory, node *solver.Node) graph.Factory {
		return func(ctx context.Context, params []any) (any, error) {
			start := time.Now()
			value, err := next(ctx, params)
			duration := time.Since(start)

			fields := logger.Fields(
				logger.FieldKey, string(node.Key),
				logger.FieldScope, node.Scope,
				logger.FieldStage, node.Stage,
				logger.FieldDuration, duration.Milliseconds(),
			)

			if err != nil {
				fields[logger.FieldError] = err.Error()
				log.Error("construction failed", fields)
			} else {
				log.Debug("construction completed", fields)
			}

			return value, err
		}
	}
}
