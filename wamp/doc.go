/*
Package wamp connects node trees to a WAMP realm.

Session wraps a nexus client with automatic redial: when the connection to
the router drops, the session re-joins the realm with a capped backoff and
replays every registration and subscription made through it. Operations made
while the session is between clients block until the realm is re-joined or
their context expires.

	session, err := wamp.Dial("ws://localhost:8080/ws")
	if err != nil {
	    panic(err)
	}
	defer session.Close()

	nctx := wamp.NewNodeContext(session)
	err = node.Bind(ctx, service, node.MustPath("myapp.service"), nctx)

Manager implements node.Dispatcher on top of the session. It keeps a registry
of local dispatch points, so calls and notifications between resources bound
to the same session are dispatched in-process, with caller and publisher
details reading "local"; only traffic addressed to other sessions crosses the
router. Nodes bound while the session is detached are registered as soon as
the realm is joined.

Session methods run through a middleware stack (see wampmiddleware). By
default every session gets payload serialization and method logging; tracing
ships in defaultmiddlewares as an opt-in.
*/
package wamp
