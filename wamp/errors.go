package wamp

import (
	"errors"

	"github.com/gammazero/nexus/v3/wamp"
)

// ErrSessionClosed is returned by operations attempted after the session has
// been closed, and sent to dial subscribers when redialing stops.
var ErrSessionClosed = errors.New("wamp session closed")

// ErrNoHandler is returned to the router when an invocation arrives for a
// procedure whose local dispatch point has been removed.
var ErrNoHandler = errors.New("no local handler for procedure")

// ErrDuplicateProvider is returned when a middleware provider with the same
// type ID is registered on a config twice.
var ErrDuplicateProvider = errors.New("duplicate middleware provider")

// ErrNoMiddlewareMethods is returned when a registered middleware provider
// implements none of the provider interfaces.
var ErrNoMiddlewareMethods = errors.New("provider has no middleware methods")

// errRuntimeError is the error uri reported to callers when a dispatch point
// fails with an error that carries no uri of its own.
const errRuntimeError = wamp.URI("wamp.error.runtime_error")
