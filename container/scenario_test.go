package container_test

import (
	"context"
	"testing"

	"github.com/kbukum/wirekit/container"
	"github.com/kbukum/wirekit/graph"
	"github.com/kbukum/wirekit/scope"
	"github.com/kbukum/wirekit/testutil"
)

// Exercises a typical web-app graph end to end: app-scoped infrastructure
// under request-scoped handlers, with teardown in reverse construction order.
func TestWebAppLifecycle(t *testing.T) {
	ctx := context.Background()
	var cleanups testutil.CleanupRecorder

	cfgFactory := testutil.NewCountingFactory("config", nil)
	dbFactory := testutil.NewCountingFactory("db", nil)
	repoFactory := testutil.NewCountingFactory("repo", nil)
	handlerFactory := testutil.NewCountingFactory("handler", nil)

	cfg := graph.New("config", cfgFactory.Factory(),
		graph.InScope("app"),
		graph.WithCleanup(cleanups.Cleanup("config")))
	db := graph.New("db", dbFactory.Factory(),
		graph.InScope("app"),
		graph.DependsOn(cfg),
		graph.WithCleanup(cleanups.Cleanup("db")))
	repo := graph.New("repo", repoFactory.Factory(),
		graph.InScope("request"),
		graph.DependsOn(db))
	handler := graph.New("handler", handlerFactory.Factory(),
		graph.InScope("request"),
		graph.DependsOn(repo),
		graph.WithCleanup(cleanups.Cleanup("handler")))

	c := container.New(scope.Ordering{"app", "request"})
	app, err := c.EnterScope("app")
	if err != nil {
		t.Fatalf("enter app: %v", err)
	}
	req, err := c.EnterScope("request")
	if err != nil {
		t.Fatalf("enter request: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := container.Resolve[string](ctx, c, handler); err != nil {
			t.Fatalf("resolve %d: %v", i, err)
		}
	}

	for name, f := range map[string]*testutil.CountingFactory{
		"config": cfgFactory, "db": dbFactory, "repo": repoFactory, "handler": handlerFactory,
	} {
		if f.Calls() != 1 {
			t.Errorf("%s: expected one construction within the scope, got %d", name, f.Calls())
		}
	}

	if err := req.Exit(ctx); err != nil {
		t.Fatalf("exit request: %v", err)
	}
	if err := app.Exit(ctx); err != nil {
		t.Fatalf("exit app: %v", err)
	}

	want := []string{"handler", "db", "config"}
	got := cleanups.Order()
	if len(got) != len(want) {
		t.Fatalf("expected cleanup order %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected cleanup order %v, got %v", want, got)
		}
	}
}

// A fresh request scope gets a fresh cache while app-scoped values persist.
func TestFreshRequestScopeRebuildsRequestValues(t *testing.T) {
	ctx := context.Background()

	dbFactory := testutil.NewCountingFactory("db", nil)
	sessionFactory := testutil.NewCountingFactory("session", nil)

	db := graph.New("db", dbFactory.Factory(), graph.InScope("app"))
	session := graph.New("session", sessionFactory.Factory(),
		graph.InScope("request"), graph.DependsOn(db))

	c := container.New(scope.Ordering{"app", "request"})
	if _, err := c.EnterScope("app"); err != nil {
		t.Fatalf("enter app: %v", err)
	}

	for i := 0; i < 3; i++ {
		req, err := c.EnterScope("request")
		if err != nil {
			t.Fatalf("enter request %d: %v", i, err)
		}
		if _, err := container.Resolve[string](ctx, c, session); err != nil {
			t.Fatalf("resolve %d: %v", i, err)
		}
		if err := req.Exit(ctx); err != nil {
			t.Fatalf("exit request %d: %v", i, err)
		}
	}

	if dbFactory.Calls() != 1 {
		t.Errorf("app-scoped value must persist across requests, got %d constructions", dbFactory.Calls())
	}
	if sessionFactory.Calls() != 3 {
		t.Errorf("request-scoped value must rebuild per request, got %d constructions", sessionFactory.Calls())
	}
}
