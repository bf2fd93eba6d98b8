// Package solver turns a closed dependant graph into an execution plan.
//
// Solving validates the graph (cycles, scope legality) and partitions the
// nodes into stages: every node lands in the first stage after all of its
// parameters, and ties are broken by first-discovery order from the root so
// the same graph always solves to the same plan. All failures are reported
// before a single stage is emitted; a plan is never partially valid.
package solver
