package container

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/kbukum/wirekit/errors"
	"github.com/kbukum/wirekit/graph"
	"github.com/kbukum/wirekit/observability"
	"github.com/kbukum/wirekit/scope"
)

var testScopes = scope.Ordering{"app", "request"}

func constant(v any) graph.Factory {
	return func(context.Context, []any) (any, error) { return v, nil }
}

func newTestContainer(t *testing.T, scopes ...string) *Container {
	t.Helper()
	c := New(testScopes)
	for _, name := range scopes {
		if _, err := c.EnterScope(name); err != nil {
			t.Fatalf("enter %s: %v", name, err)
		}
	}
	return c
}

func TestWithMetricsInstrumentsResolution(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	metrics, err := observability.NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}

	c := New(testScopes, WithMetrics(metrics))
	app, err := c.EnterScope("app")
	if err != nil {
		t.Fatalf("enter app: %v", err)
	}

	db := graph.New("db", constant("conn"), graph.InScope("app"))
	if _, err := Resolve[string](context.Background(), c, db); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, err := Resolve[string](context.Background(), c, db); err != nil {
		t.Fatalf("resolve again: %v", err)
	}
	if err := app.Exit(context.Background()); err != nil {
		t.Fatalf("exit: %v", err)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	names := make(map[string]bool)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}
	for _, want := range []string{"resolution.total", "cache.miss.total", "cache.hit.total", "cleanup.total"} {
		if !names[want] {
			t.Errorf("expected %s to be recorded through the container", want)
		}
	}
}

func TestResolveLinear(t *testing.T) {
	b := graph.New("b", constant("cfg"))
	a := graph.New("a", func(_ context.Context, params []any) (any, error) {
		return "server:" + params[0].(string), nil
	}, graph.DependsOn(b))

	c := newTestContainer(t, "app", "request")
	got, err := Resolve[string](context.Background(), c, a)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != "server:cfg" {
		t.Errorf("expected 'server:cfg', got %q", got)
	}
}

func TestBindOverride(t *testing.T) {
	real := graph.New("db", constant("postgres"))
	root := graph.New("repo", func(_ context.Context, params []any) (any, error) {
		return "repo/" + params[0].(string), nil
	}, graph.DependsOn(real))

	c := newTestContainer(t, "app", "request")
	c.Bind("db", graph.New("db", constant("sqlite-memory")))

	got, err := Resolve[string](context.Background(), c, root)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != "repo/sqlite-memory" {
		t.Errorf("expected bound double to win, got %q", got)
	}
}

func TestSolveCachedUntilBind(t *testing.T) {
	root := graph.New("a", constant(nil))
	c := newTestContainer(t)

	first, err := c.Solve(root)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	second, err := c.Solve(root)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if first != second {
		t.Error("expected cached plan on repeated solve")
	}

	c.Bind("a", graph.New("a", constant(nil)))
	third, err := c.Solve(root)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if first == third {
		t.Error("expected Bind to invalidate the plan cache")
	}
}

func TestSetValueSkipsConstruction(t *testing.T) {
	var called atomic.Bool
	db := graph.New("db", func(context.Context, []any) (any, error) {
		called.Store(true)
		return "real", nil
	})
	root := graph.New("repo", func(_ context.Context, params []any) (any, error) {
		return params[0], nil
	}, graph.DependsOn(db))

	c := newTestContainer(t, "app", "request")
	c.SetValue("db", "seeded")

	got, err := Resolve[string](context.Background(), c, root)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if called.Load() {
		t.Error("seeded key's factory must not run")
	}
	if got != "seeded" {
		t.Errorf("expected seeded value, got %q", got)
	}
}

func TestResolveWrongType(t *testing.T) {
	root := graph.New("a", constant("text"))

	c := newTestContainer(t, "app", "request")
	_, err := Resolve[int](context.Background(), c, root)
	if err == nil {
		t.Fatal("expected type mismatch error")
	}
	if !strings.Contains(err.Error(), "expected") {
		t.Errorf("expected type mismatch message, got %v", err)
	}
}

func TestResolveMissingBinding(t *testing.T) {
	root := graph.New("a", constant(nil), graph.DependsOnKey("absent"))

	c := newTestContainer(t, "app", "request")
	_, err := Resolve[any](context.Background(), c, root)
	if !errors.IsMissingBinding(err) {
		t.Fatalf("expected MISSING_BINDING, got %v", err)
	}
}

func TestMustResolvePanics(t *testing.T) {
	root := graph.New("bad", func(context.Context, []any) (any, error) {
		return nil, fmt.Errorf("boom")
	})

	c := newTestContainer(t, "app", "request")
	defer func() {
		if recover() == nil {
			t.Error("expected MustResolve to panic on failure")
		}
	}()
	MustResolve[any](context.Background(), c, root)
}

func TestTryResolve(t *testing.T) {
	good := graph.New("good", constant(42))
	bad := graph.New("bad", constant(nil), graph.DependsOnKey("absent"))

	c := newTestContainer(t, "app", "request")

	if got, ok := TryResolve[int](context.Background(), c, good); !ok || got != 42 {
		t.Errorf("expected (42, true), got (%v, %v)", got, ok)
	}
	if _, ok := TryResolve[any](context.Background(), c, bad); ok {
		t.Error("expected TryResolve to report failure")
	}
}

func TestResolveRunsCleanupOnScopeExit(t *testing.T) {
	var cleaned atomic.Bool
	db := graph.New("db", constant("conn"),
		graph.InScope("app"),
		graph.WithCleanup(func(context.Context, any) error {
			cleaned.Store(true)
			return nil
		}))

	c := New(testScopes)
	app, err := c.EnterScope("app")
	if err != nil {
		t.Fatalf("enter app: %v", err)
	}

	if _, err := Resolve[string](context.Background(), c, db); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if err := app.Exit(context.Background()); err != nil {
		t.Fatalf("exit: %v", err)
	}
	if !cleaned.Load() {
		t.Error("expected cleanup to run on scope exit")
	}
}

func TestConcurrentRequestScopes(t *testing.T) {
	var appBuilds, requestBuilds atomic.Int32

	db := graph.New("db", func(context.Context, []any) (any, error) {
		appBuilds.Add(1)
		return "conn", nil
	}, graph.InScope("app"))
	handler := graph.New("handler", func(_ context.Context, params []any) (any, error) {
		requestBuilds.Add(1)
		return "handler(" + params[0].(string) + ")", nil
	}, graph.InScope("request"), graph.DependsOn(db))

	c := newTestContainer(t, "app")

	const workers = 8
	var wg sync.WaitGroup
	errCh := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			stack := c.Branch()
			req, err := stack.Enter("request")
			if err != nil {
				errCh <- err
				return
			}
			got, err := ResolveIn[string](context.Background(), c, handler, stack)
			if err != nil {
				errCh <- err
				return
			}
			if got != "handler(conn)" {
				errCh <- fmt.Errorf("unexpected value %q", got)
				return
			}
			errCh <- req.Exit(context.Background())
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			t.Fatalf("worker: %v", err)
		}
	}

	if got := appBuilds.Load(); got != 1 {
		t.Errorf("app-scoped value must construct once across branches, got %d", got)
	}
	if got := requestBuilds.Load(); got != workers {
		t.Errorf("request-scoped value must construct once per branch, got %d", got)
	}
}
