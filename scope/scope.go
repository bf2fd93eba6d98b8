package scope

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/kbukum/wirekit/errors"
	"github.com/kbukum/wirekit/graph"
	"github.com/kbukum/wirekit/logger"
	"github.com/kbukum/wirekit/observability"
)

// Constructor builds a value for a key. It runs at most once per key per
// scope instance when called through GetOrCreate.
type Constructor func(ctx context.Context) (any, error)

// CleanupHook releases a resource owned by the scope.
type CleanupHook func(ctx context.Context) error

// Scope is one active lifetime container. It owns a cache of constructed
// values and the cleanup hooks registered against them.
type Scope struct {
	name    string
	id      string
	stack   *Stack
	log     *logger.Logger
	metrics *observability.Metrics

	mu       sync.Mutex
	entries  map[graph.Key]*entry
	cleanups []CleanupHook // construction order; run in reverse on exit
	exited   bool
}

// entry is a cache slot. done is closed when construction finishes; waiters
// then read value/err without further synchronization.
type entry struct {
	done  chan struct{}
	value any
	err   error
}

func newScope(name string, stack *Stack, log *logger.Logger, metrics *observability.Metrics) *Scope {
	return &Scope{
		name:    name,
		id:      uuid.NewString(),
		stack:   stack,
		log:     log.WithComponent("scope"),
		metrics: metrics,
		entries: make(map[graph.Key]*entry),
	}
}

// Name returns the scope's declared name.
func (s *Scope) Name() string { return s.name }

// ID returns the unique id of this scope instance. Two entries of the same
// scope name are distinct instances with distinct caches.
func (s *Scope) ID() string { return s.id }

// GetOrCreate returns the cached value for key, or constructs it.
//
//   - A completed value is returned immediately; construct is not invoked.
//   - A construction already in flight is waited on; the caller observes the
//     same value or error as the constructing goroutine (single-flight).
//   - Otherwise the key is marked in-flight and construct runs. On failure
//     the marker is cleared so a later caller may retry; waiters that joined
//     this flight still receive the error.
//
// The ctx only bounds this caller's wait; it is passed through to construct
// for the constructing caller.
func (s *Scope) GetOrCreate(ctx context.Context, key graph.Key, construct Constructor) (any, error) {
	s.mu.Lock()
	if s.exited {
		s.mu.Unlock()
		return nil, errors.ScopeOrder("scope \"" + s.name + "\" has already exited")
	}
	if e, ok := s.entries[key]; ok {
		s.mu.Unlock()
		select {
		case <-e.done:
			if s.metrics != nil {
				s.metrics.RecordCacheHit(ctx, s.name)
			}
			return e.value, e.err
		default:
		}
		start := time.Now()
		select {
		case <-e.done:
			if s.metrics != nil {
				s.metrics.RecordSingleflightWait(ctx, string(key), time.Since(start))
			}
			return e.value, e.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	e := &entry{done: make(chan struct{})}
	s.entries[key] = e
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordCacheMiss(ctx, s.name)
	}

	value, err := construct(ctx)

	e.value, e.err = value, err
	if err != nil {
		// Clear the in-flight marker so a later caller can retry.
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
	}
	close(e.done)

	if err != nil {
		s.log.Debug("construction failed, cache slot released",
			logger.Fields(logger.FieldKey, string(key), logger.FieldScope, s.name, logger.FieldError, err.Error()))
	}
	return value, err
}

// Cached reports whether a completed value for key is in the cache.
func (s *Scope) Cached(key graph.Key) bool {
	s.mu.Lock()
	e, ok := s.entries[key]
	s.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case <-e.done:
		return e.err == nil
	default:
		return false
	}
}

// OnExit registers a cleanup hook run when the scope exits. Hooks run in
// reverse registration order, each exactly once. Constructors registering
// their value's cleanup from inside GetOrCreate get reverse construction
// order for free.
//
// A hook registered after the scope has exited runs immediately: the exit
// already happened, and dropping the hook would leak the resource.
func (s *Scope) OnExit(hook CleanupHook) {
	s.mu.Lock()
	if s.exited {
		s.mu.Unlock()
		if err := hook(context.Background()); err != nil {
			s.log.Error("cleanup hook registered after scope exit failed", logger.Fields(
				logger.FieldScope, s.name,
				logger.FieldScopeID, s.id,
				logger.FieldError, err.Error(),
			))
		}
		return
	}
	s.cleanups = append(s.cleanups, hook)
	s.mu.Unlock()
}

// Exit tears the scope down: it must be the innermost active scope of its
// stack, otherwise ScopeOrder is returned and nothing happens. All cleanup
// hooks run in reverse registration order even when earlier ones fail;
// failures are aggregated into a single CLEANUP_FAILED error. After Exit the
// cache is invalid and GetOrCreate fails.
func (s *Scope) Exit(ctx context.Context) error {
	if err := s.stack.pop(s); err != nil {
		return err
	}

	s.mu.Lock()
	s.exited = true
	hooks := s.cleanups
	s.cleanups = nil
	s.entries = make(map[graph.Key]*entry)
	s.mu.Unlock()

	var errs error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i](ctx); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	s.log.Debug("scope exited", logger.Fields(
		logger.FieldScope, s.name,
		logger.FieldScopeID, s.id,
		"cleanups", len(hooks),
	))

	if s.metrics != nil {
		status := "ok"
		if errs != nil {
			status = "error"
		}
		s.metrics.RecordCleanup(ctx, s.name, status)
	}

	if errs != nil {
		return errors.Cleanup(s.name, errs)
	}
	return nil
}
