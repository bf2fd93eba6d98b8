// Package errors provides the error taxonomy for the wirekit resolution
// engine. It implements structured error types with machine-readable codes,
// the failing key, and the dependency path when one is relevant.
package errors
