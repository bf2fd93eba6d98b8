// Package container ties the engine together: bindings, solving, scope
// management, and execution behind one facade.
//
// A container is configured once with a scope ordering and optional
// overrides, then serves resolutions:
//
//	c := container.New(scope.Ordering{"app", "request"})
//	c.Bind("database", testDatabase)
//
//	app, _ := c.EnterScope("app")
//	defer app.Exit(ctx)
//
//	server, err := container.Resolve[*Server](ctx, c, serverDep)
//
// Concurrent resolutions with private inner scopes go through Branch:
//
//	stack := c.Branch()
//	req, _ := stack.Enter("request")
//	handler, err := container.ResolveIn[*Handler](ctx, c, handlerDep, stack)
//	req.Exit(ctx)
package container
