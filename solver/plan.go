package solver

import "github.com/kbukum/wirekit/graph"

// Node is one planned construction: the dependant plus everything the
// executor needs to place it — its effective scope and the stage it runs in.
type Node struct {
	// Key is the key the node satisfies.
	Key graph.Key
	// Scope is the effective scope name (empty dependant tags resolved to
	// the innermost declared scope).
	Scope string
	// Shared mirrors the dependant's sharing flag.
	Shared bool
	// Slots are the resolved parameter positions, in factory argument order.
	Slots []graph.Slot
	// Stage is the index of the stage this node executes in.
	Stage int

	// Dependant carries the factory and cleanup.
	Dependant *graph.Dependant
}

// Stage is a set of nodes whose parameters are all satisfied by strictly
// earlier stages. Nodes within a stage may execute concurrently.
type Stage struct {
	Nodes []*Node
}

// Plan is an ordered, scope-labeled sequence of stages ready for execution.
type Plan struct {
	Root   graph.Key
	Stages []Stage

	nodes map[graph.Key]*Node
}

// Node returns the planned node for key.
func (p *Plan) Node(key graph.Key) (*Node, bool) {
	n, ok := p.nodes[key]
	return n, ok
}

// Len returns the number of planned nodes.
func (p *Plan) Len() int {
	return len(p.nodes)
}

// Keys returns the plan's keys in stage order, then intra-stage order.
// Useful for plan comparison: two solves of the same graph produce equal
// key sequences.
func (p *Plan) Keys() []graph.Key {
	keys := make([]graph.Key, 0, len(p.nodes))
	for _, st := range p.Stages {
		for _, n := range st.Nodes {
			keys = append(keys, n.Key)
		}
	}
	return keys
}
