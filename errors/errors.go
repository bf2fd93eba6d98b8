package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error is the unified engine error type.
type Error struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Key is the dependant key the error refers to, if any.
	Key string `json:"key,omitempty"`
	// Path is the dependency path relevant to the error, e.g. the keys of a
	// cycle in cycle order.
	Path []string `json:"path,omitempty"`
	// Cause is the underlying error, if any.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Key != "" {
		fmt.Fprintf(&b, " key=%q:", e.Key)
	}
	b.WriteString(" ")
	b.WriteString(e.Message)
	if len(e.Path) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(e.Path, " -> "))
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause of the error.
func (e *Error) Unwrap() error { return e.Cause }

// Is reports code equality so that errors.Is can match on sentinel codes.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// WithKey sets the dependant key and returns the receiver.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// WithPath sets the dependency path and returns the receiver.
func (e *Error) WithPath(path []string) *Error {
	e.Path = path
	return e
}

// New creates a new Error.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// --- Constructors ---

// MissingBinding creates an error for a key with no default and no binding.
// requiredBy names the dependant whose parameter could not be satisfied.
func MissingBinding(key, requiredBy string) *Error {
	return &Error{
		Code:    ErrCodeMissingBinding,
		Message: fmt.Sprintf("no binding or default dependant for key required by %q", requiredBy),
		Key:     key,
	}
}

// Cycle creates an error for a cyclic dependant graph. The path lists the
// participating keys in cycle order, first key repeated last.
func Cycle(path []string) *Error {
	return &Error{
		Code:    ErrCodeCycle,
		Message: "dependency cycle detected",
		Path:    path,
	}
}

// ScopeMismatch creates an error for a dependant that depends on a
// shorter-lived dependant.
func ScopeMismatch(key, keyScope, param, paramScope string) *Error {
	return &Error{
		Code: ErrCodeScopeMismatch,
		Message: fmt.Sprintf("depends on %q in descendant scope %q (own scope %q outlives it)",
			param, paramScope, keyScope),
		Key: key,
	}
}

// UndeclaredScope creates an error for a dependant whose scope tag is not in
// the declared scope ordering.
func UndeclaredScope(key, scope string) *Error {
	return &Error{
		Code:    ErrCodeScopeMismatch,
		Message: fmt.Sprintf("scope %q is not declared in the scope ordering", scope),
		Key:     key,
	}
}

// Solving creates an error for a malformed graph.
func Solving(key, reason string) *Error {
	return &Error{
		Code:    ErrCodeSolving,
		Message: reason,
		Key:     key,
	}
}

// Construction creates an error wrapping a factory failure.
func Construction(key string, cause error) *Error {
	return &Error{
		Code:    ErrCodeConstruction,
		Message: "factory failed",
		Key:     key,
		Cause:   cause,
	}
}

// Cleanup creates an error aggregating one or more scope-exit cleanup
// failures. scope names the exiting scope.
func Cleanup(scope string, cause error) *Error {
	return &Error{
		Code:    ErrCodeCleanup,
		Message: fmt.Sprintf("cleanup failed while exiting scope %q", scope),
		Cause:   cause,
	}
}

// ScopeOrder creates an error for misuse of the scope stack API.
func ScopeOrder(reason string) *Error {
	return &Error{
		Code:    ErrCodeScopeOrder,
		Message: reason,
	}
}

// --- Predicates ---

// IsMissingBinding reports whether err is a MISSING_BINDING error.
func IsMissingBinding(err error) bool { return hasCode(err, ErrCodeMissingBinding) }

// IsCycle reports whether err is a CYCLE_DETECTED error.
func IsCycle(err error) bool { return hasCode(err, ErrCodeCycle) }

// IsScopeMismatch reports whether err is a SCOPE_MISMATCH error.
func IsScopeMismatch(err error) bool { return hasCode(err, ErrCodeScopeMismatch) }

// IsSolving reports whether err is a SOLVING_FAILED error.
func IsSolving(err error) bool { return hasCode(err, ErrCodeSolving) }

// IsConstruction reports whether err is a CONSTRUCTION_FAILED error.
func IsConstruction(err error) bool { return hasCode(err, ErrCodeConstruction) }

// IsCleanup reports whether err is a CLEANUP_FAILED error.
func IsCleanup(err error) bool { return hasCode(err, ErrCodeCleanup) }

// IsScopeOrder reports whether err is a SCOPE_ORDER error.
func IsScopeOrder(err error) bool { return hasCode(err, ErrCodeScopeOrder) }

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
