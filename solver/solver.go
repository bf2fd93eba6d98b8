package solver

import (
	"sort"

	"github.com/kbukum/wirekit/errors"
	"github.com/kbukum/wirekit/graph"
	"github.com/kbukum/wirekit/scope"
)

// Solve validates the closed graph against the declared scope ordering and
// produces an execution plan.
//
// Failure modes, all detected before any stage is emitted:
//   - CYCLE_DETECTED with the participating keys in cycle order;
//   - SCOPE_MISMATCH when a node names an undeclared scope or depends on a
//     node in a strictly shorter-lived scope;
//
// Solve is pure and deterministic: the same graph and ordering always yield
// an identical plan.
func Solve(c *graph.Closed, scopes scope.Ordering) (*Plan, error) {
	s := &solver{
		closed:   c,
		scopes:   scopes,
		effScope: make(map[graph.Key]string, c.Len()),
		state:    make(map[graph.Key]visitState, c.Len()),
		level:    make(map[graph.Key]int, c.Len()),
	}

	if err := s.resolveScopes(); err != nil {
		return nil, err
	}
	if err := s.detectCycle(); err != nil {
		return nil, err
	}
	if err := s.checkScopeLegality(); err != nil {
		return nil, err
	}
	return s.buildPlan(), nil
}

type visitState uint8

const (
	unvisited visitState = iota
	onPath
	done
)

type solver struct {
	closed *graph.Closed
	scopes scope.Ordering

	effScope map[graph.Key]string
	state    map[graph.Key]visitState
	level    map[graph.Key]int
}

// resolveScopes maps each node's scope tag to its effective scope: empty
// tags fall to the innermost declared scope, undeclared tags fail.
func (s *solver) resolveScopes() error {
	for key, dep := range s.closed.Nodes {
		name := dep.Scope
		if name == "" {
			name = s.scopes.Innermost()
		}
		if !s.scopes.Declared(name) {
			return errors.UndeclaredScope(string(key), name)
		}
		s.effScope[key] = name
	}
	return nil
}

// detectCycle runs a depth-first traversal from the root tracking the active
// path. Revisiting a node still on the path is a cycle; the error names the
// keys from the first occurrence through the repeat.
func (s *solver) detectCycle() error {
	var path []graph.Key

	var visit func(key graph.Key) error
	visit = func(key graph.Key) error {
		switch s.state[key] {
		case done:
			return nil
		case onPath:
			return errors.Cycle(cyclePath(path, key))
		}
		s.state[key] = onPath
		path = append(path, key)

		for _, slot := range s.closed.Slots[key] {
			if !slot.Present {
				continue
			}
			if err := visit(slot.Key); err != nil {
				return err
			}
		}

		path = path[:len(path)-1]
		s.state[key] = done
		return nil
	}

	return visit(s.closed.Root)
}

// cyclePath extracts the cycle from the active path: the segment starting at
// the repeated key, with the repeat appended.
func cyclePath(path []graph.Key, repeat graph.Key) []string {
	var out []string
	for i, k := range path {
		if k == repeat {
			for _, p := range path[i:] {
				out = append(out, string(p))
			}
			break
		}
	}
	return append(out, string(repeat))
}

// checkScopeLegality fails any edge whose target lives in a strictly
// shorter-lived scope than its owner: a longer-lived value may not hold a
// shorter-lived one.
func (s *solver) checkScopeLegality() error {
	for _, key := range s.closed.Order {
		ownScope := s.effScope[key]
		for _, slot := range s.closed.Slots[key] {
			if !slot.Present {
				continue
			}
			paramScope := s.effScope[slot.Key]
			if s.scopes.Outlives(ownScope, paramScope) {
				return errors.ScopeMismatch(string(key), ownScope, string(slot.Key), paramScope)
			}
		}
	}
	return nil
}

// buildPlan assigns each node the first stage after all of its parameters
// and orders stages internally by first-discovery order from the root.
func (s *solver) buildPlan() *Plan {
	var levelOf func(key graph.Key) int
	levelOf = func(key graph.Key) int {
		if lvl, ok := s.level[key]; ok {
			return lvl
		}
		lvl := 0
		for _, slot := range s.closed.Slots[key] {
			if !slot.Present {
				continue
			}
			if d := levelOf(slot.Key) + 1; d > lvl {
				lvl = d
			}
		}
		s.level[key] = lvl
		return lvl
	}

	discovery := make(map[graph.Key]int, len(s.closed.Order))
	for i, key := range s.closed.Order {
		discovery[key] = i
	}

	maxLevel := 0
	for _, key := range s.closed.Order {
		if lvl := levelOf(key); lvl > maxLevel {
			maxLevel = lvl
		}
	}

	plan := &Plan{
		Root:   s.closed.Root,
		Stages: make([]Stage, maxLevel+1),
		nodes:  make(map[graph.Key]*Node, s.closed.Len()),
	}

	for _, key := range s.closed.Order {
		dep := s.closed.Nodes[key]
		node := &Node{
			Key:       key,
			Scope:     s.effScope[key],
			Shared:    dep.Shared,
			Slots:     s.closed.Slots[key],
			Stage:     s.level[key],
			Dependant: dep,
		}
		plan.nodes[key] = node
		plan.Stages[node.Stage].Nodes = append(plan.Stages[node.Stage].Nodes, node)
	}

	for i := range plan.Stages {
		nodes := plan.Stages[i].Nodes
		sort.SliceStable(nodes, func(a, b int) bool {
			return discovery[nodes[a].Key] < discovery[nodes[b].Key]
		})
	}

	return plan
}
