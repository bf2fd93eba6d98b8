// Package executor runs solved plans against a scope stack.
//
// Execution walks the plan's stages in order; nodes within a stage are
// constructed concurrently, bounded by Engine.MaxParallel. Shared nodes go
// through their scope's cache, so repeated executions against the same stack
// reuse values and concurrent executions collapse into one construction per
// key. Non-shared nodes invoke their factory on every execution.
//
// Factory middleware (tracing, metrics, logging) wraps each construction
// without the factories knowing.
package executor
