// Package defaultmiddlewares holds the middleware providers registered on
// every session by default, plus opt-in providers like tracing.
//
// Disable the defaults with wamp.Config.NoDefaultMiddleware.
package defaultmiddlewares
