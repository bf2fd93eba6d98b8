package graph

import (
	"fmt"

	"github.com/kbukum/wirekit/errors"
)

// Slot is one resolved parameter position of a node. A dropped optional
// parameter keeps its position with Present=false so factories receive
// arguments in declaration order.
type Slot struct {
	Key      Key
	Required bool
	Present  bool
}

// Closed is a binding-free dependant graph rooted at Root. Nodes are indexed
// by the key they satisfy (a binding may install a dependant under a key that
// differs from its own). Order records first-discovery order from the root,
// which downstream solving uses for deterministic tie-breaking.
type Closed struct {
	Root  Key
	Nodes map[Key]*Dependant
	Slots map[Key][]Slot
	Order []Key
}

// At returns the dependant satisfying key.
func (c *Closed) At(key Key) *Dependant {
	return c.Nodes[key]
}

// Len returns the number of nodes in the graph.
func (c *Closed) Len() int {
	return len(c.Nodes)
}

type workItem struct {
	key Key
	dep *Dependant
}

// Build produces the closed graph for root under the given bindings. It
// recursively resolves every parameter reference to a concrete dependant
// (binding override first, else the reference's default), breadth-first from
// the root, deduplicating nodes by the key they satisfy.
//
// A required reference with no binding and no default fails with a
// MISSING_BINDING error. Two dependants discovered for the same key with
// conflicting scope or sharing declarations fail with SOLVING_FAILED; either
// the graph author made a mistake or two wiring layers disagree, and picking
// one silently would change lifetimes.
//
// Build is pure: no factory is invoked, no state is mutated.
func Build(root *Dependant, binds Bindings) (*Closed, error) {
	if root == nil {
		return nil, errors.Solving("", "root dependant is nil")
	}
	if bound, ok := binds.Lookup(root.Key); ok {
		bound = withKey(bound, root.Key)
		root = bound
	}

	c := &Closed{
		Root:  root.Key,
		Nodes: make(map[Key]*Dependant),
		Slots: make(map[Key][]Slot),
	}

	queue := []workItem{{key: root.Key, dep: root}}
	c.register(root.Key, root)

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		slots := make([]Slot, 0, len(item.dep.Params))
		for _, param := range item.dep.Params {
			sub, err := resolveParam(item.key, param, binds)
			if err != nil {
				return nil, err
			}
			if sub == nil {
				slots = append(slots, Slot{Key: param.Key, Required: param.Required})
				continue
			}
			slots = append(slots, Slot{Key: param.Key, Required: param.Required, Present: true})

			existing, seen := c.Nodes[param.Key]
			if !seen {
				c.register(param.Key, sub)
				queue = append(queue, workItem{key: param.Key, dep: sub})
				continue
			}
			if err := checkEquivalent(param.Key, existing, sub); err != nil {
				return nil, err
			}
		}
		c.Slots[item.key] = slots
	}

	return c, nil
}

// resolveParam picks the concrete dependant for a parameter reference.
// Returns nil for a dropped optional parameter.
func resolveParam(owner Key, param Parameter, binds Bindings) (*Dependant, error) {
	if bound, ok := binds.Lookup(param.Key); ok {
		return bound, nil
	}
	if param.Default != nil {
		return param.Default, nil
	}
	if !param.Required {
		return nil, nil
	}
	return nil, errors.MissingBinding(string(param.Key), string(owner))
}

// checkEquivalent rejects two dependants for one key that disagree on
// lifetime or sharing. Key equality makes them solver-equivalent, so a
// disagreement means one of them would silently get the other's semantics.
func checkEquivalent(key Key, a, b *Dependant) error {
	if a.Scope != b.Scope {
		return errors.Solving(string(key),
			fmt.Sprintf("dependants for the same key declare different scopes (%q and %q)", a.Scope, b.Scope))
	}
	if a.Shared != b.Shared {
		return errors.Solving(string(key),
			"dependants for the same key declare different sharing")
	}
	return nil
}

// withKey returns dep itself when its key already matches, else a copy
// satisfying key. Dependants are immutable, so a rename must not alias.
func withKey(dep *Dependant, key Key) *Dependant {
	if dep.Key == key {
		return dep
	}
	clone := *dep
	clone.Key = key
	return &clone
}

func (c *Closed) register(key Key, dep *Dependant) {
	c.Nodes[key] = dep
	c.Order = append(c.Order, key)
}
