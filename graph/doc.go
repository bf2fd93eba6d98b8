// Package graph defines the dependant model and builds closed dependant
// graphs for solving.
//
// A Dependant describes how to produce one value: the key it satisfies, the
// factory that constructs it, the parameters it needs, the scope it lives in,
// and whether its value is shared within that scope. Build resolves every
// parameter reference through the binding table (or the reference's default)
// into a closed graph with nodes deduplicated by key.
//
// Construction here is pure: no factory is invoked and no state is touched.
// The wiring layer that discovers parameters from source-level metadata is a
// separate concern; this package only consumes already-formed dependants.
package graph
