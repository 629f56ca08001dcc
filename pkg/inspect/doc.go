// Package inspect serves a debug view of live hook stores over HTTP.
//
// Routes:
//
//	GET /metrics                   Prometheus metrics
//	GET /debug/stores              registered stores, keys and subscriber counts
//	GET /debug/stores/{name}       snapshot of a store's values
//	GET /debug/unbound             callback bindings never given an owner
//	GET /ws/stores/{name}/{key}    websocket stream of a key's values
//
// Each watch connection gets its own hook.Owner holding one callback
// binding on the watched key; closing the connection disposes the owner and
// the binding with it.
//
//	reg := inspect.NewRegistry()
//	reg.Add(videoStore)
//	srv := inspect.New(reg, inspect.WithGatherer(promRegistry))
//	go srv.ListenAndServe(ctx, "127.0.0.1:7070")
package inspect
