// Package session holds the credential that authorizes calls to the remote
// service.
//
// A Gate is passed explicitly to whatever needs it. It is hydrated from a
// Store at start, replaced on login, and cleared on logout or when the
// remote service rejects the credential. Transport attaches the credential
// to outgoing requests and clears the gate on a 401 response; callers
// register OnRevoked hooks to react.
//
//	store := session.NewFileStore(cfg.Session.Path)
//	gate := session.NewGate(store, session.WithLogger(logger))
//	if err := gate.Hydrate(ctx); err != nil {
//	    return err
//	}
//	gate.OnRevoked(func(ctx context.Context) {
//	    fmt.Fprintln(os.Stderr, `session expired; run "taskflow login"`)
//	})
//	client := &http.Client{Transport: session.NewTransport(gate, nil)}
package session
