// Package oairouter mounts HTTP routes described by OpenAPI documents.
//
// A Router loads one or more documents, passes each through a Cooker,
// asks the mounted plugins for the middleware chain of every operation and
// registers those chains on a router.Mux. It can also publish a Swagger UI
// explorer for the loaded documents.
//
// Booting happens in the background. Routes returns the dispatcher at once
// so a server can start listening while documents load; until the ready
// event fires, requests for OpenAPI routes get the dispatcher's 404. Wait on
// Events, Done or Wait when that early window matters.
//
// # Packages
//
//   - loader: reads OpenAPI 3 and Swagger 2 documents from files,
//     directories, URLs or memory.
//   - plugin: the registry resolving per-operation middleware chains.
//   - plugin/builtin: handlers, mocks, request validation, rate limits and
//     Prometheus metrics.
//   - router: the dispatcher, path helpers and transport middlewares.
//   - explorer: Swagger UI and document endpoints.
//   - responder: JSON bodies and RFC 9457 problem documents.
//   - info and probe: health, readiness and version endpoints.
//   - jsonutil: sonic backed JSON helpers.
//
// # Quick Start
//
//	r := oairouter.New(
//	    oairouter.WithAPIDoc(loader.File("api/petstore.yaml")),
//	    oairouter.WithPluginOptions(plugin.Options{Prefix: "/api"}),
//	    oairouter.WithLogger(logger),
//	)
//	handlers := builtin.NewHandlers(map[string]http.Handler{
//	    "listPets": http.HandlerFunc(listPets),
//	})
//	if err := r.Mount(ctx, handlers, nil); err != nil {
//	    return err
//	}
//
//	srv := &http.Server{Addr: ":8080", Handler: r.Routes()}
//	go func() {
//	    for ev := range r.Events() {
//	        logger.Info("oai router", "event", ev.Type, "error", ev.Err)
//	    }
//	}()
//	return srv.ListenAndServe()
package oairouter
