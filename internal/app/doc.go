// Package app wires the framework together: configuration, logging,
// observability, the database store, the service registry and
// dispatcher, and the HTTP server with its middleware chain.
//
// A caller builds an Application, registers service constructors on
// its Registry, and calls Run:
//
//	application, err := app.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	application.MustRegister("todo", func() services.Service {
//	    return crud.NewService("todo", application.Store, todoTable, nil, nil)
//	})
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// Run blocks until SIGINT or SIGTERM, then shuts the server down
// gracefully within the configured timeout.
package app
