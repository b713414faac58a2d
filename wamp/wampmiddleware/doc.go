/*
Package wampmiddleware defines middleware signatures for the session methods
of wamp.Session.

Using per-method middleware allows cross-cutting behavior, like payload
serialization and structured logging, to be collected in a single place
instead of being spread as bespoke logic across the session methods. Outbound
middleware wraps the methods that talk to the router (Register, Unregister,
Subscribe, Unsubscribe, Publish, Call); inbound middleware wraps the delivery
of router invocations and events to local dispatch points.

The middleware approach also makes this library highly-extensible by the end
user, an added bonus.
*/
package wampmiddleware
