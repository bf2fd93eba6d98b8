// Package scope implements nested lifetime containers for the wirekit
// engine.
//
// Scopes are entered and exited in strict stack discipline following a
// declared Ordering (outermost first). Each active scope owns a cache of
// constructed values with single-flight semantics: concurrent requesters for
// one key trigger exactly one construction and all observe the same value.
// Exiting a scope releases its cached values in reverse construction order.
package scope
