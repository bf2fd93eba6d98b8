package scope

import (
	"fmt"
	"sync"

	"github.com/kbukum/wirekit/errors"
	"github.com/kbukum/wirekit/logger"
	"github.com/kbukum/wirekit/observability"
)

// Stack tracks the active scopes, innermost last. Entry and exit follow
// strict nesting: the scope entered last must exit first, and each entered
// scope must sit deeper in the declared ordering than the current innermost.
type Stack struct {
	ordering Ordering
	log      *logger.Logger
	metrics  *observability.Metrics

	mu     sync.Mutex
	active []*Scope
	// base marks the shared prefix of a branched stack. Scopes below base
	// belong to the parent and may not be exited through this stack.
	base int
}

// StackOption configures a Stack.
type StackOption func(*Stack)

// WithLogger sets the logger used by the stack and the scopes it creates.
func WithLogger(log *logger.Logger) StackOption {
	return func(s *Stack) { s.log = log }
}

// WithMetrics sets the metric instruments the stack's scopes record cache
// and cleanup activity on. Nil disables recording.
func WithMetrics(metrics *observability.Metrics) StackOption {
	return func(s *Stack) { s.metrics = metrics }
}

// NewStack creates an empty stack over the declared ordering.
func NewStack(ordering Ordering, opts ...StackOption) *Stack {
	s := &Stack{ordering: ordering, log: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ordering returns the declared scope ordering.
func (s *Stack) Ordering() Ordering {
	return s.ordering
}

// Enter pushes a fresh instance of the named scope with an empty cache.
// The name must be declared in the ordering, not currently active, and
// deeper in the ordering than the current innermost scope.
func (s *Stack) Enter(name string) (*Scope, error) {
	idx := s.ordering.Index(name)
	if idx < 0 {
		return nil, errors.ScopeOrder(fmt.Sprintf("scope %q is not declared in the ordering", name))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if top := s.top(); top != nil {
		topIdx := s.ordering.Index(top.name)
		if idx <= topIdx {
			return nil, errors.ScopeOrder(fmt.Sprintf(
				"cannot enter scope %q while %q is innermost: %q does not nest inside it", name, top.name, name))
		}
	}
	for _, sc := range s.active {
		if sc.name == name {
			return nil, errors.ScopeOrder(fmt.Sprintf("scope %q has already been entered", name))
		}
	}

	sc := newScope(name, s, s.log, s.metrics)
	s.active = append(s.active, sc)

	s.log.Debug("scope entered", logger.Fields(
		logger.FieldScope, name,
		logger.FieldScopeID, sc.id,
		"depth", len(s.active),
	))
	return sc, nil
}

// Lookup returns the active scope instance with the given name.
func (s *Stack) Lookup(name string) (*Scope, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sc := range s.active {
		if sc.name == name {
			return sc, true
		}
	}
	return nil, false
}

// Depth returns the number of active scopes.
func (s *Stack) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// Branch returns a new stack sharing the currently active scopes. The shared
// scopes keep one cache, so values constructed in them are visible to every
// branch; scopes entered on the branch are private to it and must be exited
// before the shared ones. Branching is how concurrent resolutions each get
// their own inner scope over common outer ones.
func (s *Stack) Branch() *Stack {
	s.mu.Lock()
	defer s.mu.Unlock()

	shared := make([]*Scope, len(s.active))
	copy(shared, s.active)
	return &Stack{
		ordering: s.ordering,
		log:      s.log,
		metrics:  s.metrics,
		active:   shared,
		base:     len(shared),
	}
}

// pop removes sc from the top of the stack. Called by Scope.Exit.
func (s *Stack) pop(sc *Scope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	top := s.top()
	if top == nil {
		return errors.ScopeOrder("no active scope to exit")
	}
	if top != sc {
		return errors.ScopeOrder(fmt.Sprintf(
			"scope %q exited out of order: %q is innermost", sc.name, top.name))
	}
	if len(s.active) <= s.base {
		return errors.ScopeOrder(fmt.Sprintf(
			"scope %q belongs to the parent stack and cannot exit through a branch", sc.name))
	}
	s.active = s.active[:len(s.active)-1]
	return nil
}

func (s *Stack) top() *Scope {
	if len(s.active) == 0 {
		return nil
	}
	return s.active[len(s.active)-1]
}
