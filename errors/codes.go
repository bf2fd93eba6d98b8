package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Solve-time errors. All of these are detected before any construction
// occurs, so a failed solve has no side effects.
const (
	// ErrCodeMissingBinding indicates a referenced key has no default
	// dependant and no binding.
	ErrCodeMissingBinding ErrorCode = "MISSING_BINDING"
	// ErrCodeCycle indicates the dependant graph contains a cycle.
	ErrCodeCycle ErrorCode = "CYCLE_DETECTED"
	// ErrCodeScopeMismatch indicates a dependant depends on a shorter-lived
	// (descendant-scope) dependant, or names an undeclared scope.
	ErrCodeScopeMismatch ErrorCode = "SCOPE_MISMATCH"
	// ErrCodeSolving indicates the graph is malformed in some other way,
	// e.g. two dependants for the same key declare conflicting scopes.
	ErrCodeSolving ErrorCode = "SOLVING_FAILED"
)

// Execution-time errors.
const (
	// ErrCodeConstruction indicates a dependant's factory failed.
	ErrCodeConstruction ErrorCode = "CONSTRUCTION_FAILED"
	// ErrCodeCleanup indicates one or more scope-exit cleanups failed.
	ErrCodeCleanup ErrorCode = "CLEANUP_FAILED"
)

// API misuse errors.
const (
	// ErrCodeScopeOrder indicates the scope stack was used outside its
	// strict nesting discipline.
	ErrCodeScopeOrder ErrorCode = "SCOPE_ORDER"
)
